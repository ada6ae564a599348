package pipeline

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/IshaanNene/PostPulse/internal/types"
)

// Middleware processes a post and returns the (possibly modified) post.
// Return nil to drop the post from the pipeline.
type Middleware interface {
	// Name returns the middleware's identifier.
	Name() string

	// Process transforms a post. Return nil to drop the post.
	Process(post *types.Post) (*types.Post, error)
}

// Pipeline chains middleware processors together.
type Pipeline struct {
	middlewares []Middleware
	logger      *slog.Logger
}

// New creates a new Pipeline.
func New(logger *slog.Logger) *Pipeline {
	return &Pipeline{
		logger: logger.With("component", "pipeline"),
	}
}

// Use adds a middleware to the pipeline chain.
func (p *Pipeline) Use(mw Middleware) {
	p.middlewares = append(p.middlewares, mw)
	p.logger.Debug("middleware added", "name", mw.Name(), "position", len(p.middlewares))
}

// Process runs the post through all middleware in order.
func (p *Pipeline) Process(post *types.Post) (*types.Post, error) {
	current := post

	for _, mw := range p.middlewares {
		result, err := mw.Process(current)
		if err != nil {
			return nil, &types.PipelineError{
				Stage: mw.Name(),
				URN:   current.URN,
				Err:   err,
			}
		}
		if result == nil {
			p.logger.Debug("post dropped", "stage", mw.Name(), "urn", post.URN)
			return nil, nil
		}
		current = result
	}

	return current, nil
}

// Run processes posts in order and returns the survivors in the same order.
func (p *Pipeline) Run(posts []*types.Post) ([]*types.Post, error) {
	out := make([]*types.Post, 0, len(posts))
	for _, post := range posts {
		result, err := p.Process(post)
		if err != nil {
			return out, err
		}
		if result != nil {
			out = append(out, result)
		}
	}
	if dropped := len(posts) - len(out); dropped > 0 {
		p.logger.Debug("posts filtered", "kept", len(out), "dropped", dropped)
	}
	return out, nil
}

// Len returns the number of middleware in the chain.
func (p *Pipeline) Len() int {
	return len(p.middlewares)
}

// --- Built-in Middleware ---

// RequiredURNMiddleware drops posts without an identifier.
type RequiredURNMiddleware struct{}

func (m *RequiredURNMiddleware) Name() string { return "required_urn" }

func (m *RequiredURNMiddleware) Process(post *types.Post) (*types.Post, error) {
	if strings.TrimSpace(post.URN) == "" {
		return nil, nil
	}
	return post, nil
}

// DedupMiddleware drops posts whose identifier was already seen. The first
// occurrence wins.
type DedupMiddleware struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewDedupMiddleware() *DedupMiddleware {
	return &DedupMiddleware{
		seen: make(map[string]struct{}),
	}
}

func (m *DedupMiddleware) Name() string { return "dedup" }

func (m *DedupMiddleware) Process(post *types.Post) (*types.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.seen[post.URN]; exists {
		return nil, nil
	}
	m.seen[post.URN] = struct{}{}
	return post, nil
}
