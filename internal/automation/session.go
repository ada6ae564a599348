package automation

import (
	"context"
	"time"
)

// Session is a handle on one logged-in browser tab. Every extraction step
// receives it explicitly; nothing in the module holds a global page.
//
// Implementations report an unusable session as *types.SessionError, a page
// that failed to load as *types.PageError and a selector that did not match
// before its timeout as an error wrapping types.ErrElementNotFound.
type Session interface {
	// Navigate loads url in the tab and waits for the load event.
	Navigate(ctx context.Context, url string) error

	// HTML returns the rendered document markup.
	HTML(ctx context.Context) (string, error)

	// URL returns the tab's current location.
	URL(ctx context.Context) (string, error)

	// EvalInt evaluates a JavaScript function and returns its integer result.
	EvalInt(ctx context.Context, js string, args ...any) (int, error)

	// Exec evaluates a JavaScript function for its side effects.
	Exec(ctx context.Context, js string, args ...any) error

	// Find waits up to timeout for the first element matching selector.
	Find(ctx context.Context, selector string, timeout time.Duration) (Element, error)

	// Wait blocks for d or until ctx is done.
	Wait(ctx context.Context, d time.Duration) error
}

// Element is a handle on one DOM element of a Session.
type Element interface {
	Click(ctx context.Context) error
	HTML(ctx context.Context) (string, error)
}

// FormSession is a Session that can also fill and submit forms. The login
// flow needs it; extraction does not.
type FormSession interface {
	Session

	// Input replaces the value of the input matching selector with text.
	Input(ctx context.Context, selector, text string) error

	// Submit clicks the element matching selector, or presses Enter in the
	// focused field when selector is empty.
	Submit(ctx context.Context, selector string) error

	// Headless reports whether the browser has no visible window.
	Headless() bool
}

// JavaScript snippets shared by every Session implementation. Fakes switch on
// these exact strings.
const (
	PageHeightJS    = `() => document.body.scrollHeight`
	ScrollPageJS    = `() => window.scrollTo(0, document.body.scrollHeight)`
	ElementHeightJS = `(sel) => { const el = document.querySelector(sel); return el ? el.scrollHeight : -1 }`
	ScrollElementJS = `(sel) => { const el = document.querySelector(sel); if (el) el.scrollTop = el.scrollHeight }`
)

// Sleep waits for d, returning early with ctx.Err() when ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
