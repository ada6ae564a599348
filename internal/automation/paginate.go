package automation

import (
	"context"
	"log/slog"
	"time"
)

// PageState tracks lazy-loading progress of one scroll target.
type PageState struct {
	LastHeight int
	AtBottom   bool
	Steps      int
}

// StopFunc is consulted before loading and after every load step. Returning
// true ends the run early.
type StopFunc func(ctx context.Context) (bool, error)

// Outcome summarizes a finished Run.
type Outcome struct {
	Steps    int
	AtBottom bool
	Stopped  bool
}

// Paginator drives "scroll to bottom, wait, re-measure" on a target until its
// height stops growing. A Paginator is owned by one run and is not safe for
// concurrent use.
type Paginator struct {
	sess   Session
	target ScrollTarget
	settle time.Duration
	state  PageState
	logger *slog.Logger

	// MaxSteps caps the number of load steps in Run. Zero means no cap.
	MaxSteps int
}

// NewPaginator creates a paginator for target. settle is the fixed wait after
// each scroll before the height is measured again.
func NewPaginator(sess Session, target ScrollTarget, settle time.Duration, logger *slog.Logger) *Paginator {
	return &Paginator{
		sess:   sess,
		target: target,
		settle: settle,
		logger: logger.With("component", "paginator", "target", target.String()),
	}
}

// State returns the current pagination state.
func (p *Paginator) State() PageState { return p.state }

// Reset measures the initial height and returns to the Loading state.
func (p *Paginator) Reset(ctx context.Context) error {
	h, err := p.target.Height(ctx, p.sess)
	if err != nil {
		return err
	}
	p.state = PageState{LastHeight: h}
	return nil
}

// Step performs one load step. Once the height is unchanged the paginator is
// at bottom and further steps are no-ops.
func (p *Paginator) Step(ctx context.Context) (PageState, error) {
	if p.state.AtBottom {
		return p.state, nil
	}

	if err := p.target.ScrollToEnd(ctx, p.sess); err != nil {
		return p.state, err
	}
	if err := p.sess.Wait(ctx, p.settle); err != nil {
		return p.state, err
	}
	h, err := p.target.Height(ctx, p.sess)
	if err != nil {
		return p.state, err
	}

	p.state.Steps++
	if h == p.state.LastHeight {
		p.state.AtBottom = true
	}
	p.state.LastHeight = h

	p.logger.Debug("load step", "step", p.state.Steps, "height", h, "at_bottom", p.state.AtBottom)
	return p.state, nil
}

// Run loads until the target stops growing, stop returns true or MaxSteps is
// reached. stop may be nil.
func (p *Paginator) Run(ctx context.Context, stop StopFunc) (Outcome, error) {
	if err := p.Reset(ctx); err != nil {
		return Outcome{}, err
	}

	check := func() (bool, error) {
		if stop == nil {
			return false, nil
		}
		return stop(ctx)
	}

	if done, err := check(); err != nil || done {
		return p.outcome(done), err
	}

	for p.MaxSteps == 0 || p.state.Steps < p.MaxSteps {
		st, err := p.Step(ctx)
		if err != nil {
			return p.outcome(false), err
		}
		if st.AtBottom {
			break
		}
		if done, err := check(); err != nil || done {
			return p.outcome(done), err
		}
	}

	if !p.state.AtBottom {
		p.logger.Info("step limit reached", "steps", p.state.Steps)
	}
	return p.outcome(false), nil
}

func (p *Paginator) outcome(stopped bool) Outcome {
	return Outcome{Steps: p.state.Steps, AtBottom: p.state.AtBottom, Stopped: stopped}
}
