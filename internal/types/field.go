package types

import (
	"strconv"
	"strings"
)

// Field identifies one extractable post attribute.
type Field int

const (
	FieldURN Field = iota
	FieldTime
	FieldImpressions
	FieldReactions
	FieldComments
	FieldReactors
	FieldHashtags
)

var fieldNames = [...]string{
	FieldURN:         "urn",
	FieldTime:        "time",
	FieldImpressions: "impressions",
	FieldReactions:   "reactions",
	FieldComments:    "comments",
	FieldReactors:    "reactors",
	FieldHashtags:    "hashtags",
}

// AllFields lists every supported field in canonical column order.
var AllFields = []Field{
	FieldURN, FieldTime, FieldImpressions, FieldReactions, FieldComments, FieldReactors, FieldHashtags,
}

// DefaultFieldNames is the field set used when the caller does not choose one.
var DefaultFieldNames = []string{"urn", "time", "impressions", "reactions", "comments"}

func (f Field) String() string {
	if !f.Valid() {
		return "field(" + strconv.Itoa(int(f)) + ")"
	}
	return fieldNames[f]
}

// Valid reports whether f is one of the supported fields.
func (f Field) Valid() bool {
	return f >= FieldURN && f <= FieldHashtags
}

// Interactive reports whether the field needs browser interaction beyond the loaded page.
func (f Field) Interactive() bool {
	return f == FieldReactors || f == FieldHashtags
}

// IsList reports whether the field holds a sequence of strings.
func (f Field) IsList() bool {
	return f == FieldReactors || f == FieldHashtags
}

// IsCount reports whether the field is a non-negative integer counter.
func (f Field) IsCount() bool {
	return f == FieldImpressions || f == FieldReactions || f == FieldComments
}

// ParseField resolves a field name. Names are matched case-insensitively.
func ParseField(name string) (Field, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for i, fn := range fieldNames {
		if fn == n {
			return Field(i), nil
		}
	}
	return 0, &UnknownFieldError{Name: name}
}

// FieldSet is an ordered, duplicate-free selection of fields.
type FieldSet []Field

// ParseFieldSet resolves names into a FieldSet. The urn field is always included.
// An empty input yields the default set.
func ParseFieldSet(names []string) (FieldSet, error) {
	if len(names) == 0 {
		names = DefaultFieldNames
	}
	fs := FieldSet{FieldURN}
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		f, err := ParseField(name)
		if err != nil {
			return nil, err
		}
		fs = fs.With(f)
	}
	return fs, nil
}

// MustFieldSet builds a FieldSet from known-good fields.
func MustFieldSet(fields ...Field) FieldSet {
	fs := FieldSet{FieldURN}
	for _, f := range fields {
		fs = fs.With(f)
	}
	return fs
}

// Has reports whether f is part of the set.
func (fs FieldSet) Has(f Field) bool {
	for _, x := range fs {
		if x == f {
			return true
		}
	}
	return false
}

// With returns the set with f appended if it was missing.
func (fs FieldSet) With(f Field) FieldSet {
	if fs.Has(f) {
		return fs
	}
	return append(fs, f)
}

// Interactive returns the subset of fields that need browser interaction.
func (fs FieldSet) Interactive() FieldSet {
	var out FieldSet
	for _, f := range fs {
		if f.Interactive() {
			out = append(out, f)
		}
	}
	return out
}

// Names returns the field names in set order.
func (fs FieldSet) Names() []string {
	names := make([]string, len(fs))
	for i, f := range fs {
		names[i] = f.String()
	}
	return names
}

func (fs FieldSet) String() string {
	return strings.Join(fs.Names(), ",")
}
