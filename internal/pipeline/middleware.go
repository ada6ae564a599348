package pipeline

import (
	"time"

	"github.com/IshaanNene/PostPulse/internal/types"
)

// --- Date Middleware ---

// DateRangeMiddleware keeps posts published in [Since, Until). A zero bound is
// open. When either bound is set, posts whose publish time is unknown are
// dropped.
type DateRangeMiddleware struct {
	Since time.Time
	Until time.Time
}

func NewDateRangeMiddleware(since, until time.Time) *DateRangeMiddleware {
	return &DateRangeMiddleware{Since: since, Until: until}
}

func (m *DateRangeMiddleware) Name() string { return "date_range" }

func (m *DateRangeMiddleware) Process(post *types.Post) (*types.Post, error) {
	if m.Since.IsZero() && m.Until.IsZero() {
		return post, nil
	}
	if post.Time.IsZero() {
		return nil, nil
	}
	if !m.Since.IsZero() && post.Time.Before(m.Since) {
		return nil, nil
	}
	if !m.Until.IsZero() && !post.Time.Before(m.Until) {
		return nil, nil
	}
	return post, nil
}

// NewInclusionPipeline builds the filters applied to every analyzed batch:
// identifier present, first occurrence of each identifier, publish date in range.
func NewInclusionPipeline(p *Pipeline, since, until time.Time) *Pipeline {
	p.Use(&RequiredURNMiddleware{})
	p.Use(NewDedupMiddleware())
	p.Use(NewDateRangeMiddleware(since, until))
	return p
}
