package enrich

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/IshaanNene/PostPulse/internal/automation"
	"github.com/IshaanNene/PostPulse/internal/config"
	"github.com/IshaanNene/PostPulse/internal/parser"
	"github.com/IshaanNene/PostPulse/internal/types"
)

// dismissTimeout bounds the lookup of the overlay's close button.
const dismissTimeout = 2 * time.Second

// ReactorExtractor reads reactor names from a post's reactions overlay.
type ReactorExtractor struct {
	cfg    config.ScrapeConfig
	logger *slog.Logger
}

// NewReactorExtractor creates a reactor extractor.
func NewReactorExtractor(cfg config.ScrapeConfig, logger *slog.Logger) *ReactorExtractor {
	return &ReactorExtractor{
		cfg:    cfg,
		logger: logger.With("component", "reactor_extractor"),
	}
}

// Extract opens the reactions overlay of the post identified by urn, scrolls
// it until every reactor is loaded and returns their names in display order.
// The session must be on a page that shows the post. A post whose overlay
// cannot be opened yields an error wrapping types.ErrOverlayNotFound.
func (r *ReactorExtractor) Extract(ctx context.Context, sess automation.Session, urn string) ([]string, error) {
	btn, err := sess.Find(ctx, parser.ReactionsButtonFor(urn), r.cfg.OverlayTimeout)
	if err != nil {
		return nil, overlayErr(urn, "reactions control", err)
	}
	if err := btn.Click(ctx); err != nil {
		return nil, err
	}

	overlay, err := sess.Find(ctx, parser.ReactorsOverlay, r.cfg.OverlayTimeout)
	if err != nil {
		return nil, overlayErr(urn, "overlay", err)
	}
	defer r.dismiss(ctx, sess)

	p := automation.NewPaginator(sess, automation.ElementTarget{Selector: parser.ReactorsOverlay}, r.cfg.OverlayWait, r.logger)
	p.MaxSteps = r.cfg.MaxOverlayScrolls
	out, err := p.Run(ctx, nil)
	if err != nil {
		return nil, overlayErr(urn, "overlay scroll", err)
	}

	html, err := overlay.HTML(ctx)
	if err != nil {
		return nil, err
	}
	names, err := parser.ParseReactorNames(html)
	if err != nil {
		return nil, &types.ParseError{Source: "reactor overlay " + urn, Err: err}
	}

	r.logger.Debug("reactors extracted", "urn", urn, "count", len(names), "scrolls", out.Steps)
	return names, nil
}

// dismiss closes the overlay. Failures are ignored; the next navigation
// discards it anyway.
func (r *ReactorExtractor) dismiss(ctx context.Context, sess automation.Session) {
	btn, err := sess.Find(ctx, parser.OverlayDismiss, dismissTimeout)
	if err == nil {
		err = btn.Click(ctx)
	}
	if err != nil {
		r.logger.Debug("overlay not dismissed", "error", err)
	}
}

// overlayErr maps a missing element onto ErrOverlayNotFound and passes every
// other error through.
func overlayErr(urn, what string, err error) error {
	if errors.Is(err, types.ErrElementNotFound) {
		return fmt.Errorf("%s %s: %w", urn, what, types.ErrOverlayNotFound)
	}
	return err
}
