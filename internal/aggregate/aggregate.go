// Package aggregate summarizes extracted posts.
package aggregate

import (
	"fmt"
	"sort"

	"github.com/IshaanNene/PostPulse/internal/types"
)

// DefaultTopN is used when the caller asks for a non-positive count.
const DefaultTopN = 10

// Count is one value of a list field and how often it occurred.
type Count struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Top flattens the list field f across posts and returns the n most frequent
// values. Ties keep the order in which values were first seen.
func Top(posts []*types.Post, f types.Field, n int) ([]Count, error) {
	if !f.IsList() {
		return nil, fmt.Errorf("top %s: %w", f, types.ErrNotListField)
	}
	if n <= 0 {
		n = DefaultTopN
	}

	index := make(map[string]int)
	var counts []Count
	for _, p := range posts {
		for _, v := range p.List(f) {
			i, ok := index[v]
			if !ok {
				i = len(counts)
				index[v] = i
				counts = append(counts, Count{Value: v})
			}
			counts[i].Count++
		}
	}

	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})

	if len(counts) > n {
		counts = counts[:n]
	}
	if counts == nil {
		counts = []Count{}
	}
	return counts, nil
}

// Summary holds engagement totals over a set of posts.
type Summary struct {
	Posts       int `json:"posts"`
	Impressions int `json:"impressions"`
	Reactions   int `json:"reactions"`
	Comments    int `json:"comments"`
}

// Totals sums the counter fields of posts.
func Totals(posts []*types.Post) Summary {
	s := Summary{Posts: len(posts)}
	for _, p := range posts {
		s.Impressions += p.Impressions
		s.Reactions += p.Reactions
		s.Comments += p.Comments
	}
	return s
}
