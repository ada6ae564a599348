// Package analyzer sequences one analysis run: load the activity feed up to a
// date boundary, parse it, fill interactive fields and filter the result.
package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/IshaanNene/PostPulse/internal/aggregate"
	"github.com/IshaanNene/PostPulse/internal/automation"
	"github.com/IshaanNene/PostPulse/internal/config"
	"github.com/IshaanNene/PostPulse/internal/enrich"
	"github.com/IshaanNene/PostPulse/internal/observability"
	"github.com/IshaanNene/PostPulse/internal/parser"
	"github.com/IshaanNene/PostPulse/internal/pipeline"
	"github.com/IshaanNene/PostPulse/internal/types"
)

// Request describes one analysis run.
type Request struct {
	// User is the profile handle as it appears in profile URLs.
	User string

	// Since and Until bound publish times to [Since, Until). Zero is open.
	Since time.Time
	Until time.Time

	// Fields selects the extracted fields. Empty means the default set.
	Fields types.FieldSet
}

// Validate checks the request before any browser work starts.
func (r Request) Validate() error {
	if strings.TrimSpace(r.User) == "" {
		return fmt.Errorf("%w: user is required", types.ErrInvalidRequest)
	}
	if !r.Since.IsZero() && !r.Until.IsZero() && !r.Until.After(r.Since) {
		return fmt.Errorf("%w: until %s is not after since %s", types.ErrInvalidRequest,
			types.FormatTime(r.Until), types.FormatTime(r.Since))
	}
	for _, f := range r.Fields {
		if !f.Valid() {
			return &types.UnknownFieldError{Name: f.String()}
		}
	}
	return nil
}

// Result is the outcome of a run. It is returned, possibly partial, even when
// the run fails after the activity page was reached.
type Result struct {
	User     string
	Fields   types.FieldSet
	Posts    []*types.Post
	Outcome  automation.Outcome
	Dropped  int
	Partial  bool
	Started  time.Time
	Finished time.Time
}

// Top returns the n most frequent values of a list field across the posts.
func (r *Result) Top(f types.Field, n int) ([]aggregate.Count, error) {
	return aggregate.Top(r.Posts, f, n)
}

// Totals sums the posts' counters.
func (r *Result) Totals() aggregate.Summary {
	return aggregate.Totals(r.Posts)
}

// Analyzer runs requests against a session.
type Analyzer struct {
	cfg      config.ScrapeConfig
	parser   *parser.Parser
	enricher *enrich.Enricher
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// New creates an Analyzer. metrics may be nil.
func New(cfg config.ScrapeConfig, logger *slog.Logger, metrics *observability.Metrics) *Analyzer {
	return &Analyzer{
		cfg:      cfg,
		parser:   parser.New(logger),
		enricher: enrich.New(cfg, logger, metrics),
		metrics:  metrics,
		logger:   logger.With("component", "analyzer"),
	}
}

// Analyze runs req on sess. The session must already be logged in.
//
// If the run fails once the activity page has loaded, the returned Result
// holds the posts of the last snapshot that was read successfully, with
// Partial set, alongside the error.
func (a *Analyzer) Analyze(ctx context.Context, sess automation.Session, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	fields := req.Fields
	if len(fields) == 0 {
		fields = types.MustFieldSet(types.FieldTime, types.FieldImpressions, types.FieldReactions, types.FieldComments)
	}
	fields = fields.With(types.FieldURN)

	res := &Result{User: req.User, Fields: fields, Started: time.Now()}
	logger := a.logger.With("user", req.User)
	a.count(func(m *observability.Metrics) { m.Runs.Add(1) })

	url := parser.ActivityURL(a.cfg.BaseURL, req.User)
	logger.Info("loading activity", "url", url, "since", types.FormatTime(req.Since), "fields", fields.String())
	a.count(func(m *observability.Metrics) { m.Navigations.Add(1) })
	if err := sess.Navigate(ctx, url); err != nil {
		a.count(func(m *observability.Metrics) { m.NavFailures.Add(1) })
		return nil, a.fail(fmt.Errorf("open activity page: %w", err))
	}
	if err := sess.Wait(ctx, a.cfg.SettleWait); err != nil {
		return nil, a.fail(err)
	}

	var snapshot string
	stop := func(ctx context.Context) (bool, error) {
		html, err := sess.HTML(ctx)
		if err != nil {
			return false, err
		}
		snapshot = html
		if req.Since.IsZero() {
			return false, nil
		}
		oldest, ok, err := a.parser.OldestTime(html)
		if err != nil {
			return false, err
		}
		return ok && oldest.Before(req.Since), nil
	}

	pag := automation.NewPaginator(sess, automation.PageTarget{}, a.cfg.SettleWait, logger)
	pag.MaxSteps = a.cfg.MaxScrolls
	out, err := pag.Run(ctx, stop)
	res.Outcome = out
	a.count(func(m *observability.Metrics) { m.LoadSteps.Add(int64(out.Steps)) })
	if err != nil {
		return a.partial(res, snapshot, req, err)
	}
	logger.Info("activity loaded", "steps", out.Steps, "at_bottom", out.AtBottom, "stopped", out.Stopped)

	html, err := sess.HTML(ctx)
	if err != nil {
		return a.partial(res, snapshot, req, err)
	}

	batch, err := a.parse(html, fields, res)
	if err != nil {
		return res, a.fail(err)
	}

	if err := a.filter(res, batch.Posts, req); err != nil {
		return res, a.fail(err)
	}

	// Only posts that survive the filters are worth an overlay or a navigation.
	fillErr := a.enricher.Fill(ctx, sess, res.Posts, batch.Deferred)
	res.Finished = time.Now()

	if fillErr != nil {
		res.Partial = true
		logger.Error("run aborted during interaction pass", "error", fillErr, "posts", len(res.Posts))
		return res, a.fail(fillErr)
	}

	logger.Info("analysis complete", "posts", len(res.Posts), "dropped", res.Dropped,
		"duration", res.Finished.Sub(res.Started))
	return res, nil
}

// partial salvages the posts of the last good snapshot after a failure.
func (a *Analyzer) partial(res *Result, snapshot string, req Request, cause error) (*Result, error) {
	res.Partial = true
	res.Finished = time.Now()
	if snapshot != "" {
		if batch, err := a.parse(snapshot, res.Fields, res); err == nil {
			_ = a.filter(res, batch.Posts, req)
		}
	}
	a.logger.Error("run aborted", "user", req.User, "error", cause, "salvaged", len(res.Posts))
	return res, a.fail(cause)
}

func (a *Analyzer) parse(html string, fields types.FieldSet, res *Result) (*parser.Batch, error) {
	batch, err := a.parser.Parse(html, fields)
	if err != nil {
		return nil, err
	}
	res.Dropped = batch.Dropped
	a.count(func(m *observability.Metrics) {
		m.PostsParsed.Add(int64(len(batch.Posts)))
		m.FragmentsDropped.Add(int64(batch.Dropped))
	})
	return batch, nil
}

func (a *Analyzer) filter(res *Result, posts []*types.Post, req Request) error {
	p := pipeline.NewInclusionPipeline(pipeline.New(a.logger), req.Since, req.Until)
	kept, err := p.Run(posts)
	if err != nil {
		return err
	}
	a.count(func(m *observability.Metrics) { m.PostsFiltered.Add(int64(len(posts) - len(kept))) })
	res.Posts = kept
	return nil
}

func (a *Analyzer) fail(err error) error {
	a.count(func(m *observability.Metrics) { m.RunsFailed.Add(1) })
	return err
}

func (a *Analyzer) count(fn func(*observability.Metrics)) {
	if a.metrics != nil {
		fn(a.metrics)
	}
}
