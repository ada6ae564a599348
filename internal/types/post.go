package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeLayout is the rendering of a decoded publish time.
const TimeLayout = "2006-01-02 15:04:05"

// Post is one extracted post record. Only the fields in its FieldSet are
// considered populated; everything else is omitted from every serialized form.
type Post struct {
	URN         string
	Time        time.Time
	Impressions int
	Reactions   int
	Comments    int
	Reactors    []string
	Hashtags    []string

	fields FieldSet
}

// NewPost creates a record for urn carrying the given fields.
func NewPost(urn string, fields FieldSet) *Post {
	fs := make(FieldSet, 0, len(fields)+1)
	fs = append(fs, FieldURN)
	for _, f := range fields {
		fs = fs.With(f)
	}
	return &Post{URN: urn, fields: fs}
}

// Fields returns the populated fields in column order.
func (p *Post) Fields() FieldSet { return p.fields }

// Has returns true if the field is populated.
func (p *Post) Has(f Field) bool { return p.fields.Has(f) }

// SetCount stores a counter field and marks it populated. Negative values are clamped to 0.
func (p *Post) SetCount(f Field, n int) {
	if n < 0 {
		n = 0
	}
	switch f {
	case FieldImpressions:
		p.Impressions = n
	case FieldReactions:
		p.Reactions = n
	case FieldComments:
		p.Comments = n
	default:
		return
	}
	p.fields = p.fields.With(f)
}

// SetList stores a list field and marks it populated.
func (p *Post) SetList(f Field, values []string) {
	if values == nil {
		values = []string{}
	}
	switch f {
	case FieldReactors:
		p.Reactors = values
	case FieldHashtags:
		p.Hashtags = values
	default:
		return
	}
	p.fields = p.fields.With(f)
}

// SetTime stores the publish time. The time is only emitted when show is true.
func (p *Post) SetTime(t time.Time, show bool) {
	p.Time = t
	if show {
		p.fields = p.fields.With(FieldTime)
	}
}

// List returns the values of a list field.
func (p *Post) List(f Field) []string {
	switch f {
	case FieldReactors:
		return p.Reactors
	case FieldHashtags:
		return p.Hashtags
	}
	return nil
}

// FormattedTime renders Time with TimeLayout, or "" when unknown.
func (p *Post) FormattedTime() string {
	return FormatTime(p.Time)
}

// Value returns the typed value of f.
func (p *Post) Value(f Field) any {
	switch f {
	case FieldURN:
		return p.URN
	case FieldTime:
		return p.FormattedTime()
	case FieldImpressions:
		return p.Impressions
	case FieldReactions:
		return p.Reactions
	case FieldComments:
		return p.Comments
	case FieldReactors:
		return nonNil(p.Reactors)
	case FieldHashtags:
		return nonNil(p.Hashtags)
	}
	return nil
}

// ToMap returns the populated fields keyed by name.
func (p *Post) ToMap() map[string]any {
	m := make(map[string]any, len(p.fields))
	for _, f := range p.fields {
		m[f.String()] = p.Value(f)
	}
	return m
}

// ToRow renders the requested columns as strings. List fields are JSON arrays.
// Columns the post does not carry are left empty.
func (p *Post) ToRow(columns FieldSet) []string {
	row := make([]string, len(columns))
	for i, f := range columns {
		if !p.Has(f) {
			continue
		}
		switch v := p.Value(f).(type) {
		case string:
			row[i] = v
		case int:
			row[i] = strconv.Itoa(v)
		case []string:
			b, _ := json.Marshal(v)
			row[i] = string(b)
		}
	}
	return row
}

// MarshalJSON writes the populated fields in column order.
func (p *Post) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range p.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, _ := json.Marshal(f.String())
		val, err := json.Marshal(p.Value(f))
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", f, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON restores a post written by MarshalJSON.
func (p *Post) UnmarshalJSON(data []byte) error {
	var m map[string]any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&m); err != nil {
		return err
	}
	decoded, err := PostFromMap(m)
	if err != nil {
		return err
	}
	*p = *decoded
	return nil
}

// PostFromMap rebuilds a post from a field-name keyed map.
func PostFromMap(m map[string]any) (*Post, error) {
	p := &Post{fields: FieldSet{FieldURN}}
	for _, f := range AllFields {
		raw, ok := m[f.String()]
		if !ok {
			continue
		}
		if err := p.setFromAny(f, raw); err != nil {
			return nil, err
		}
	}
	for key := range m {
		if _, err := ParseField(key); err != nil {
			return nil, err
		}
	}
	if p.URN == "" {
		return nil, ErrUnresolvableFragment
	}
	return p, nil
}

// PostFromRow rebuilds a post from a CSV header and row written by ToRow.
func PostFromRow(header []string, row []string) (*Post, error) {
	if len(header) != len(row) {
		return nil, fmt.Errorf("row has %d columns, header has %d", len(row), len(header))
	}
	m := make(map[string]any, len(header))
	for i, name := range header {
		f, err := ParseField(name)
		if err != nil {
			return nil, err
		}
		if f.IsList() {
			var vals []string
			if row[i] != "" {
				if err := json.Unmarshal([]byte(row[i]), &vals); err != nil {
					return nil, fmt.Errorf("column %s: %w", name, err)
				}
			}
			m[f.String()] = vals
			continue
		}
		m[f.String()] = row[i]
	}
	return PostFromMap(m)
}

func (p *Post) setFromAny(f Field, raw any) error {
	switch {
	case f == FieldURN:
		s, ok := raw.(string)
		if !ok {
			return fmt.Errorf("urn: expected string, got %T", raw)
		}
		p.URN = s
	case f == FieldTime:
		s, ok := raw.(string)
		if !ok {
			return fmt.Errorf("time: expected string, got %T", raw)
		}
		t, err := ParseTime(s)
		if err != nil {
			return fmt.Errorf("time: %w", err)
		}
		p.SetTime(t, true)
	case f.IsCount():
		n, err := toInt(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", f, err)
		}
		p.SetCount(f, n)
	case f.IsList():
		vals, err := toStrings(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", f, err)
		}
		p.SetList(f, vals)
	}
	return nil
}

// FormatTime renders t with TimeLayout in local time, or "" for the zero time.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(time.Local).Format(TimeLayout)
}

// ParseTime parses a TimeLayout string in local time. "" yields the zero time.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation(TimeLayout, s, time.Local)
}

func toInt(raw any) (int, error) {
	switch v := raw.(type) {
	case int:
		return v, nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case json.Number:
		n, err := v.Int64()
		return int(n), err
	case string:
		if v == "" {
			return 0, nil
		}
		return strconv.Atoi(v)
	}
	return 0, fmt.Errorf("expected integer, got %T", raw)
}

func toStrings(raw any) ([]string, error) {
	switch v := raw.(type) {
	case nil:
		return []string{}, nil
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, x := range v {
			s, ok := x.(string)
			if !ok {
				return nil, fmt.Errorf("expected string element, got %T", x)
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, fmt.Errorf("expected list, got %T", raw)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
