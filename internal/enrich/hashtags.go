package enrich

import (
	"context"
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/IshaanNene/PostPulse/internal/automation"
	"github.com/IshaanNene/PostPulse/internal/config"
	"github.com/IshaanNene/PostPulse/internal/parser"
	"github.com/IshaanNene/PostPulse/internal/types"
)

// HashtagExtractor reads a post's hashtags from its permalink page.
type HashtagExtractor struct {
	baseURL string
	cfg     config.ScrapeConfig
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewHashtagExtractor creates a hashtag extractor. Permalink navigations are
// spaced at least cfg.NavigationInterval apart.
func NewHashtagExtractor(cfg config.ScrapeConfig, logger *slog.Logger) *HashtagExtractor {
	limit := rate.Inf
	if cfg.NavigationInterval > 0 {
		limit = rate.Every(cfg.NavigationInterval)
	}
	return &HashtagExtractor{
		baseURL: cfg.BaseURL,
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger.With("component", "hashtag_extractor"),
	}
}

// Extract navigates to the permalink of urn and returns the commentary's
// hashtags. The session is left on the permalink page. A page that fails to
// load is returned as *types.PageError.
func (h *HashtagExtractor) Extract(ctx context.Context, sess automation.Session, urn string) ([]string, error) {
	if err := h.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	url := parser.PermalinkURL(h.baseURL, urn)
	if err := sess.Navigate(ctx, url); err != nil {
		return nil, err
	}
	if err := sess.Wait(ctx, h.cfg.PermalinkWait); err != nil {
		return nil, err
	}

	html, err := sess.HTML(ctx)
	if err != nil {
		return nil, err
	}
	tags, err := parser.CommentaryHashtags(html)
	if err != nil {
		return nil, &types.ParseError{Source: url, Err: err}
	}

	h.logger.Debug("hashtags extracted", "urn", urn, "tags", tags)
	return tags, nil
}
