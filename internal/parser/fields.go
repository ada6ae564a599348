package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/IshaanNene/PostPulse/internal/types"
)

var (
	countRunRe = regexp.MustCompile(`[0-9,]+`)

	// "Jane Doe and 41 others": the named reactor is not part of 41.
	namedPlusRe = regexp.MustCompile(`\band\b`)
)

// extractFunc reads one static field from a post fragment.
type extractFunc func(fragment *goquery.Selection) any

// staticExtractors maps every non-interactive field to its extractor.
var staticExtractors = map[types.Field]extractFunc{
	types.FieldURN: func(s *goquery.Selection) any {
		urn, _ := ExtractURN(s)
		return urn
	},
	types.FieldTime: func(s *goquery.Selection) any {
		urn, err := ExtractURN(s)
		if err != nil {
			return ""
		}
		return DecodeTimeString(urn)
	},
	types.FieldImpressions: countExtractor(impressionsSpec),
	types.FieldReactions:   countExtractor(reactionsSpec),
	types.FieldComments:    countExtractor(commentsSpec),
}

func countExtractor(spec FieldSpec) extractFunc {
	return func(s *goquery.Selection) any { return ExtractCount(s, spec) }
}

// Extract returns the typed value of a static field, or the field's empty value
// when its markup is missing. It fails only for fields outside the supported set
// and for interactive fields, which cannot be read from a fragment.
func Extract(fragment *goquery.Selection, f types.Field) (any, error) {
	if !f.Valid() {
		return nil, &types.UnknownFieldError{Name: f.String()}
	}
	fn, ok := staticExtractors[f]
	if !ok {
		return nil, fmt.Errorf("%s: %w", f, types.ErrInteractiveField)
	}
	return fn(fragment), nil
}

// ExtractURN reads the identifier attribute of the fragment root.
func ExtractURN(fragment *goquery.Selection) (string, error) {
	urn, ok := fragment.Attr(URNAttr)
	urn = strings.TrimSpace(urn)
	if !ok || urn == "" {
		return "", types.ErrUnresolvableFragment
	}
	return urn, nil
}

// ExtractCount reads the counter located by spec inside fragment.
func ExtractCount(fragment *goquery.Selection, spec FieldSpec) int {
	node := spec.Find(fragment)
	if node.Length() == 0 {
		return 0
	}
	return ParseCount(node.Text())
}

// ParseCount applies the counter rule to a fragment's text: the last run of
// digits and commas is the count, and a standalone "and" means one reactor was
// named in front of it and must be added.
func ParseCount(text string) int {
	runs := countRunRe.FindAllString(text, -1)
	last := ""
	for i := len(runs) - 1; i >= 0; i-- {
		if strings.ContainsAny(runs[i], "0123456789") {
			last = runs[i]
			break
		}
	}
	if last == "" {
		return 0
	}
	n, err := strconv.Atoi(strings.ReplaceAll(last, ",", ""))
	if err != nil || n < 0 {
		return 0
	}
	if namedPlusRe.MatchString(text) {
		n++
	}
	return n
}
