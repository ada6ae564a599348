package automation

import (
	"context"
	"fmt"

	"github.com/IshaanNene/PostPulse/internal/types"
)

// ScrollTarget is a scrollable region whose content grows as it is scrolled.
type ScrollTarget interface {
	// Height returns the region's current scroll height.
	Height(ctx context.Context, sess Session) (int, error)

	// ScrollToEnd scrolls the region to its bottom.
	ScrollToEnd(ctx context.Context, sess Session) error

	String() string
}

// PageTarget is the document body.
type PageTarget struct{}

func (PageTarget) Height(ctx context.Context, sess Session) (int, error) {
	return sess.EvalInt(ctx, PageHeightJS)
}

func (PageTarget) ScrollToEnd(ctx context.Context, sess Session) error {
	return sess.Exec(ctx, ScrollPageJS)
}

func (PageTarget) String() string { return "page" }

// ElementTarget is a scrollable element such as a modal's list.
type ElementTarget struct {
	Selector string
}

func (t ElementTarget) Height(ctx context.Context, sess Session) (int, error) {
	h, err := sess.EvalInt(ctx, ElementHeightJS, t.Selector)
	if err != nil {
		return 0, err
	}
	if h < 0 {
		return 0, fmt.Errorf("scroll target %s: %w", t.Selector, types.ErrElementNotFound)
	}
	return h, nil
}

func (t ElementTarget) ScrollToEnd(ctx context.Context, sess Session) error {
	return sess.Exec(ctx, ScrollElementJS, t.Selector)
}

func (t ElementTarget) String() string { return t.Selector }
