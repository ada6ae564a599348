// Package sessiontest provides a scripted automation.FormSession for tests.
package sessiontest

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/IshaanNene/PostPulse/internal/automation"
	"github.com/IshaanNene/PostPulse/internal/parser"
	"github.com/IshaanNene/PostPulse/internal/types"
)

var buttonURNRe = regexp.MustCompile(`data-urn="([^"]+)"`)

// Fake simulates the activity feed, permalink pages, reactor overlays and the
// login flow. Its exported fields script the behavior; the hooks, when set,
// replace the scripted behavior of one method.
type Fake struct {
	mu sync.Mutex

	// Feed holds successive snapshots of the activity page. Every page scroll
	// reveals the next snapshot until the last one is reached.
	Feed []string

	// FeedPath marks URLs that display Feed. Defaults to "/recent-activity/".
	FeedPath string

	// Pages maps other URLs to their markup.
	Pages map[string]string

	// NavErrors maps URLs to the error Navigate returns for them.
	NavErrors map[string]error

	// Overlays maps a post identifier to successive snapshots of its reactor
	// overlay. Every overlay scroll reveals the next snapshot.
	Overlays map[string][]string

	// HeadlessMode is returned by Headless.
	HeadlessMode bool

	// AfterLoginURL is the location after the login form is submitted.
	AfterLoginURL string

	// ChallengeURL, when set, is shown after submit instead of AfterLoginURL
	// for ChallengePolls calls to URL. A negative count never clears.
	ChallengeURL   string
	ChallengePolls int

	// RedirectPolls delays the location change that follows submit: the
	// login page is still reported by that many calls to URL.
	RedirectPolls int

	NavigateHook func(ctx context.Context, url string) error
	HTMLHook     func(ctx context.Context) (string, error)
	FindHook     func(ctx context.Context, selector string) (automation.Element, error)

	// Recorded interactions.
	Navigations []string
	Inputs      map[string]string
	Clicks      []string
	Scrolls     int
	Waited      time.Duration

	url        string
	redirect   string
	redirectIn int
	feedPos    int
	overlayURN string
	overlayPos int
}

var _ automation.FormSession = (*Fake)(nil)

func (f *Fake) feedPath() string {
	if f.FeedPath == "" {
		return "/recent-activity/"
	}
	return f.FeedPath
}

func (f *Fake) onFeed() bool {
	return len(f.Feed) > 0 && strings.Contains(f.url, f.feedPath())
}

// currentHTML must be called with f.mu held.
func (f *Fake) currentHTML() string {
	if f.onFeed() {
		return f.Feed[f.feedPos]
	}
	return f.Pages[f.url]
}

func (f *Fake) overlaySnapshot() (string, bool) {
	snaps := f.Overlays[f.overlayURN]
	if f.overlayURN == "" || len(snaps) == 0 {
		return "", false
	}
	return snaps[f.overlayPos], true
}

func (f *Fake) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	f.Navigations = append(f.Navigations, url)
	hook := f.NavigateHook
	f.mu.Unlock()

	if hook != nil {
		if err := hook(ctx, url); err != nil {
			return err
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.NavErrors[url]; ok {
		return err
	}
	f.url = url
	f.redirectIn = 0
	f.feedPos = 0
	f.overlayURN = ""
	if !f.onFeed() {
		if _, ok := f.Pages[url]; !ok {
			return &types.PageError{URL: url, Err: context.DeadlineExceeded}
		}
	}
	return nil
}

func (f *Fake) HTML(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if f.HTMLHook != nil {
		return f.HTMLHook(ctx)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.currentHTML(), nil
}

func (f *Fake) URL(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.redirectIn > 0 {
		f.redirectIn--
		current := f.url
		if f.redirectIn == 0 {
			f.url = f.redirect
		}
		return current, nil
	}
	if f.url == f.ChallengeURL && f.ChallengeURL != "" {
		switch {
		case f.ChallengePolls < 0:
		case f.ChallengePolls == 0:
			f.url = f.AfterLoginURL
		default:
			f.ChallengePolls--
		}
	}
	return f.url, nil
}

func (f *Fake) EvalInt(ctx context.Context, js string, args ...any) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	switch js {
	case automation.PageHeightJS:
		return len(f.currentHTML()), nil
	case automation.ElementHeightJS:
		snap, ok := f.overlaySnapshot()
		if !ok || len(args) == 0 || args[0] != parser.ReactorsOverlay {
			return -1, nil
		}
		return len(snap), nil
	}
	return 0, fmt.Errorf("sessiontest: unsupported script %q", js)
}

func (f *Fake) Exec(ctx context.Context, js string, args ...any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	switch js {
	case automation.ScrollPageJS:
		f.Scrolls++
		if f.onFeed() && f.feedPos < len(f.Feed)-1 {
			f.feedPos++
		}
		return nil
	case automation.ScrollElementJS:
		if snaps := f.Overlays[f.overlayURN]; f.overlayPos < len(snaps)-1 {
			f.overlayPos++
		}
		return nil
	}
	return fmt.Errorf("sessiontest: unsupported script %q", js)
}

func (f *Fake) Find(ctx context.Context, selector string, timeout time.Duration) (automation.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.FindHook != nil {
		return f.FindHook(ctx, selector)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	notFound := fmt.Errorf("%s: %w", selector, types.ErrElementNotFound)

	switch selector {
	case parser.ReactorsOverlay:
		if _, ok := f.overlaySnapshot(); !ok {
			return nil, notFound
		}
		return &element{f: f, name: selector, html: func() string {
			snap, _ := f.overlaySnapshot()
			return snap
		}}, nil

	case parser.OverlayDismiss:
		if f.overlayURN == "" {
			return nil, notFound
		}
		return &element{f: f, name: selector, click: func() {
			f.overlayURN = ""
		}}, nil
	}

	if m := buttonURNRe.FindStringSubmatch(selector); m != nil && selector == parser.ReactionsButtonFor(m[1]) {
		urn := m[1]
		if !strings.Contains(f.currentHTML(), `data-urn="`+urn+`"`) {
			return nil, notFound
		}
		return &element{f: f, name: selector, click: func() {
			f.overlayURN = urn
			f.overlayPos = 0
		}}, nil
	}

	return nil, notFound
}

// Wait sleeps for real; tests use short durations.
func (f *Fake) Wait(ctx context.Context, d time.Duration) error {
	f.mu.Lock()
	f.Waited += d
	f.mu.Unlock()
	return automation.Sleep(ctx, d)
}

func (f *Fake) Input(ctx context.Context, selector, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Inputs == nil {
		f.Inputs = make(map[string]string)
	}
	f.Inputs[selector] = text
	return nil
}

func (f *Fake) Submit(ctx context.Context, selector string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Clicks = append(f.Clicks, selector)
	target := f.AfterLoginURL
	if f.ChallengeURL != "" {
		target = f.ChallengeURL
	}
	if f.RedirectPolls > 0 {
		f.redirect, f.redirectIn = target, f.RedirectPolls
		return nil
	}
	f.url = target
	return nil
}

func (f *Fake) Headless() bool { return f.HeadlessMode }

// Position reports the index of the feed snapshot currently shown.
func (f *Fake) Position() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.feedPos
}

type element struct {
	f     *Fake
	name  string
	click func()
	html  func() string
}

func (e *element) Click(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.f.mu.Lock()
	defer e.f.mu.Unlock()
	e.f.Clicks = append(e.f.Clicks, e.name)
	if e.click != nil {
		e.click()
	}
	return nil
}

func (e *element) HTML(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	e.f.mu.Lock()
	defer e.f.mu.Unlock()
	if e.html == nil {
		return "", nil
	}
	return e.html(), nil
}
