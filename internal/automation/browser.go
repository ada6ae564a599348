package automation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/IshaanNene/PostPulse/internal/config"
	"github.com/IshaanNene/PostPulse/internal/types"
)

// Browser is a Session backed by a Chromium tab driven through Rod.
type Browser struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	cfg      config.BrowserConfig
	logger   *slog.Logger
}

// Launch starts a Chromium instance and opens a blank tab.
func Launch(ctx context.Context, cfg config.BrowserConfig, logger *slog.Logger) (*Browser, error) {
	b := &Browser{
		cfg:    cfg,
		logger: logger.With("component", "browser"),
	}

	l := launcher.New().
		Context(ctx).
		Headless(cfg.Headless).
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("no-sandbox")
	if cfg.WindowSize != "" {
		l = l.Set("window-size", cfg.WindowSize)
	}
	if cfg.BinPath != "" {
		l = l.Bin(cfg.BinPath)
	}
	if cfg.UserDataDir != "" {
		l = l.UserDataDir(cfg.UserDataDir)
	}
	b.launcher = l

	controlURL, err := l.Launch()
	if err != nil {
		return nil, &types.SessionError{Op: "launch", Err: err}
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, &types.SessionError{Op: "connect", Err: err}
	}
	b.browser = browser

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = browser.Close()
		l.Kill()
		return nil, &types.SessionError{Op: "open tab", Err: err}
	}
	b.page = page

	b.logger.Info("browser ready", "headless", cfg.Headless, "window_size", cfg.WindowSize)
	return b, nil
}

// Navigate loads url, bounded by the configured navigation timeout.
func (b *Browser) Navigate(ctx context.Context, url string) error {
	timeout := b.cfg.NavigationTimeout
	if err := b.page.Context(ctx).Timeout(timeout).Navigate(url); err != nil {
		return b.pageError(ctx, "navigate", url, err)
	}
	if err := b.page.Context(ctx).Timeout(timeout).WaitLoad(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		b.logger.Warn("page load timeout, continuing", "url", url, "error", err)
	}
	b.logger.Debug("navigated", "url", url)
	return nil
}

// HTML returns the rendered markup of the tab.
func (b *Browser) HTML(ctx context.Context) (string, error) {
	html, err := b.page.Context(ctx).HTML()
	if err != nil {
		return "", b.sessionError(ctx, "read html", err)
	}
	return html, nil
}

// URL returns the tab's current location.
func (b *Browser) URL(ctx context.Context) (string, error) {
	info, err := b.page.Context(ctx).Info()
	if err != nil {
		return "", b.sessionError(ctx, "read url", err)
	}
	return info.URL, nil
}

// EvalInt evaluates js and returns its result as an int.
func (b *Browser) EvalInt(ctx context.Context, js string, args ...any) (int, error) {
	res, err := b.page.Context(ctx).Eval(js, args...)
	if err != nil {
		return 0, b.sessionError(ctx, "eval", err)
	}
	return res.Value.Int(), nil
}

// Exec evaluates js for its side effects.
func (b *Browser) Exec(ctx context.Context, js string, args ...any) error {
	if _, err := b.page.Context(ctx).Eval(js, args...); err != nil {
		return b.sessionError(ctx, "eval", err)
	}
	return nil
}

// Find waits up to timeout for selector to match.
func (b *Browser) Find(ctx context.Context, selector string, timeout time.Duration) (Element, error) {
	el, err := b.page.Context(ctx).Timeout(timeout).Element(selector)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%s: %w", selector, types.ErrElementNotFound)
		}
		return nil, b.sessionError(ctx, "find "+selector, err)
	}
	return &rodElement{el: el.CancelTimeout(), b: b}, nil
}

// Wait blocks for d or until ctx is done.
func (b *Browser) Wait(ctx context.Context, d time.Duration) error {
	return Sleep(ctx, d)
}

// Input replaces the content of the input matching selector.
func (b *Browser) Input(ctx context.Context, selector, text string) error {
	el, err := b.page.Context(ctx).Timeout(b.cfg.NavigationTimeout).Element(selector)
	if err != nil {
		return b.pageError(ctx, "find "+selector, selector, err)
	}
	el = el.CancelTimeout().Context(ctx)
	if err := el.SelectAllText(); err != nil {
		return b.sessionError(ctx, "select "+selector, err)
	}
	if err := el.Input(text); err != nil {
		return b.sessionError(ctx, "input "+selector, err)
	}
	return nil
}

// Submit clicks selector, or presses Enter when selector is empty.
func (b *Browser) Submit(ctx context.Context, selector string) error {
	var el Element
	if selector != "" {
		found, err := b.Find(ctx, selector, b.cfg.NavigationTimeout)
		if err != nil {
			return err
		}
		el = found
	}

	// Arm the wait before acting so a fast redirect is not missed. A form that
	// never navigates releases it after NavigationTimeout.
	navCtx, cancel := context.WithTimeout(ctx, b.cfg.NavigationTimeout)
	defer cancel()
	waitNav := b.page.Context(navCtx).WaitNavigation(proto.PageLifecycleEventNameDOMContentLoaded)

	if el == nil {
		if err := b.page.Context(ctx).Keyboard.Press(input.Enter); err != nil {
			return b.sessionError(ctx, "submit", err)
		}
	} else if err := el.Click(ctx); err != nil {
		return err
	}
	waitNav()
	return ctx.Err()
}

// Headless reports whether the browser was launched without a window.
func (b *Browser) Headless() bool { return b.cfg.Headless }

// Close shuts down the browser and its process.
func (b *Browser) Close() error {
	var err error
	if b.page != nil {
		_ = b.page.Close()
	}
	if b.browser != nil {
		err = b.browser.Close()
	}
	if b.launcher != nil {
		b.launcher.Kill()
	}
	return err
}

// pageError classifies a failure to reach a page. A timeout only loses that
// page; anything else means the session is gone.
func (b *Browser) pageError(ctx context.Context, op, url string, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &types.PageError{URL: url, Err: err}
	}
	return &types.SessionError{Op: op, Err: err}
}

func (b *Browser) sessionError(ctx context.Context, op string, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return &types.SessionError{Op: op, Err: err}
}

type rodElement struct {
	el *rod.Element
	b  *Browser
}

func (e *rodElement) Click(ctx context.Context) error {
	if err := e.el.Context(ctx).Click(proto.InputMouseButtonLeft, 1); err != nil {
		return e.b.sessionError(ctx, "click", err)
	}
	return nil
}

func (e *rodElement) HTML(ctx context.Context) (string, error) {
	html, err := e.el.Context(ctx).HTML()
	if err != nil {
		return "", e.b.sessionError(ctx, "read element html", err)
	}
	return html, nil
}
