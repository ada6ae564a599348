package parser

import (
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// ParseReactorNames returns the reactor display names listed in the reactions
// overlay markup, one per row in display order. Rows with a blank name are
// skipped.
func ParseReactorNames(overlayHTML string) ([]string, error) {
	doc, err := html.Parse(strings.NewReader(overlayHTML))
	if err != nil {
		return nil, err
	}

	rows, err := htmlquery.QueryAll(doc, reactorRowXPath)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(rows))
	for _, row := range rows {
		node, err := htmlquery.Query(row, reactorNameXPath)
		if err != nil {
			return nil, err
		}
		if node == nil {
			if node, err = htmlquery.Query(row, reactorNameFallbackXPath); err != nil {
				return nil, err
			}
		}
		if node == nil {
			continue
		}
		name := strings.Join(strings.Fields(htmlquery.InnerText(node)), " ")
		if name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}
