package parser

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Markup selectors for the activity feed. These break whenever the site
// changes its class names; keep every selector in this file.

// URNAttr is the data attribute carrying a post's identifier on the fragment root.
const URNAttr = "data-urn"

const (
	// ReactionsButton is the clickable reaction count inside a post.
	ReactionsButton = `button.social-details-social-counts__count-value, li.social-details-social-counts__reactions button`

	// ReactorsOverlay is the scrollable content of the reactions dialog.
	ReactorsOverlay = `div.social-details-reactors-modal__content`

	// OverlayDismiss closes the reactions dialog.
	OverlayDismiss = `button.artdeco-modal__dismiss`

	// Commentary is the post text block on a permalink page.
	Commentary = `div.feed-shared-update-v2__description, div.update-components-text`

	// reactorRowXPath selects one list row per reactor inside the overlay.
	reactorRowXPath = `//li[contains(@class,'social-details-reactors-tab-body-list-item')]`

	// reactorNameXPath is evaluated against a single row.
	reactorNameXPath = `.//div[contains(@class,'artdeco-entity-lockup__title')]/span[@aria-hidden='true']`

	// reactorNameFallbackXPath is used for rows that carry no aria-hidden span.
	reactorNameFallbackXPath = `.//div[contains(@class,'artdeco-entity-lockup__title')]`
)

// FieldSpec locates the fragment a field is read from: a tag name and an
// attribute whose value must match Pattern.
type FieldSpec struct {
	Tag     string
	Attr    string
	Pattern *regexp.Regexp
}

// classSpec matches tag elements whose class list contains the given class token.
func classSpec(tag, class string) FieldSpec {
	return FieldSpec{
		Tag:     tag,
		Attr:    "class",
		Pattern: regexp.MustCompile(`(^|\s)` + regexp.QuoteMeta(class) + `(\s|$)`),
	}
}

// Matches reports whether sel itself satisfies the spec.
func (s FieldSpec) Matches(sel *goquery.Selection) bool {
	if goquery.NodeName(sel) != s.Tag {
		return false
	}
	val, ok := sel.Attr(s.Attr)
	if !ok {
		return false
	}
	return s.Pattern == nil || s.Pattern.MatchString(val)
}

// FindAll returns every descendant of root matching the spec, in document order.
func (s FieldSpec) FindAll(root *goquery.Selection) *goquery.Selection {
	return root.Find(s.Tag).FilterFunction(func(_ int, sel *goquery.Selection) bool {
		return s.Matches(sel)
	})
}

// Find returns the first descendant of root matching the spec.
func (s FieldSpec) Find(root *goquery.Selection) *goquery.Selection {
	return s.FindAll(root).First()
}

var (
	// postSpec matches a post fragment. The class list varies by post type,
	// only the base class is stable.
	postSpec = classSpec("div", "feed-shared-update-v2")

	reactionsSpec   = classSpec("li", "social-details-social-counts__reactions")
	commentsSpec    = classSpec("li", "social-details-social-counts__comments")
	impressionsSpec = classSpec("span", "ca-entry-point__num-views")
)

// PostSpec returns the rule that locates post fragments.
func PostSpec() FieldSpec { return postSpec }

// ReactionsButtonFor scopes ReactionsButton to the post carrying urn.
func ReactionsButtonFor(urn string) string {
	parts := strings.Split(ReactionsButton, ",")
	for i, part := range parts {
		parts[i] = fmt.Sprintf(`div[%s=%q] %s`, URNAttr, urn, strings.TrimSpace(part))
	}
	return strings.Join(parts, ", ")
}

// ActivityURL is the page listing every post of user, newest first.
func ActivityURL(baseURL, user string) string {
	return strings.TrimRight(baseURL, "/") + "/in/" + url.PathEscape(user) + "/recent-activity/all/"
}

// PermalinkURL is the standalone page of the post identified by urn.
func PermalinkURL(baseURL, urn string) string {
	return strings.TrimRight(baseURL, "/") + "/feed/update/" + urn + "/"
}
