// Package enrich fills the post fields that need browser interaction beyond
// the loaded activity page.
package enrich

import (
	"context"
	"errors"
	"log/slog"

	"github.com/IshaanNene/PostPulse/internal/automation"
	"github.com/IshaanNene/PostPulse/internal/config"
	"github.com/IshaanNene/PostPulse/internal/observability"
	"github.com/IshaanNene/PostPulse/internal/types"
)

// Enricher runs the interactive extractors over a batch of posts.
type Enricher struct {
	reactors *ReactorExtractor
	hashtags *HashtagExtractor
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// New creates an Enricher. metrics may be nil.
func New(cfg config.ScrapeConfig, logger *slog.Logger, metrics *observability.Metrics) *Enricher {
	return &Enricher{
		reactors: NewReactorExtractor(cfg, logger),
		hashtags: NewHashtagExtractor(cfg, logger),
		metrics:  metrics,
		logger:   logger.With("component", "enricher"),
	}
}

// Fill populates the deferred fields of posts in place. Reactors are read for
// every post first, while the activity page is still loaded, then hashtags,
// which navigate away from it.
//
// Per-post failures leave that post's field empty. Only session failures and
// cancellation stop the fill; posts processed before that keep their values.
func (e *Enricher) Fill(ctx context.Context, sess automation.Session, posts []*types.Post, deferred types.FieldSet) error {
	if deferred.Has(types.FieldReactors) {
		for _, post := range posts {
			names, err := e.reactors.Extract(ctx, sess, post.URN)
			if err != nil {
				if fatal(ctx, err) {
					return err
				}
				if errors.Is(err, types.ErrOverlayNotFound) {
					e.count(func(m *observability.Metrics) { m.OverlaysMissing.Add(1) })
				}
				e.logger.Warn("reactors unavailable", "urn", post.URN, "error", err)
				names = nil
			} else {
				e.count(func(m *observability.Metrics) { m.OverlaysOpened.Add(1) })
			}
			post.SetList(types.FieldReactors, names)
		}
	}

	if deferred.Has(types.FieldHashtags) {
		for _, post := range posts {
			e.count(func(m *observability.Metrics) { m.Navigations.Add(1) })
			tags, err := e.hashtags.Extract(ctx, sess, post.URN)
			if err != nil {
				if fatal(ctx, err) {
					return err
				}
				e.count(func(m *observability.Metrics) { m.NavFailures.Add(1) })
				e.logger.Warn("hashtags unavailable", "urn", post.URN, "error", err)
				tags = nil
			} else {
				e.count(func(m *observability.Metrics) { m.PermalinksRead.Add(1) })
			}
			post.SetList(types.FieldHashtags, tags)
		}
	}

	return nil
}

func (e *Enricher) count(fn func(*observability.Metrics)) {
	if e.metrics != nil {
		fn(e.metrics)
	}
}

func fatal(ctx context.Context, err error) bool {
	return ctx.Err() != nil || types.IsFatal(err)
}
