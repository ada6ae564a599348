package parser

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// A tag ends at the first character that is not a letter, digit or underscore.
var hashtagRe = regexp.MustCompile(`#([\p{L}\p{N}_]+)`)

// ExtractHashtags returns the lowercase tags in text without their leading '#',
// in order of appearance. Repeated tags are kept once per occurrence.
func ExtractHashtags(text string) []string {
	matches := hashtagRe.FindAllStringSubmatch(text, -1)
	tags := make([]string, 0, len(matches))
	for _, m := range matches {
		tags = append(tags, strings.ToLower(m[1]))
	}
	return tags
}

// CommentaryHashtags parses a permalink page and returns the hashtags of its
// commentary block. A page without the block yields an empty list.
func CommentaryHashtags(html string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}
	block := doc.Find(Commentary).First()
	if block.Length() == 0 {
		return []string{}, nil
	}
	return ExtractHashtags(block.Text()), nil
}
