package facet

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/facetree/internal/resource"
	"github.com/hupe1980/facetree/model"
)

// Matcher runs a single term against the datastore.
//
// Implementations must be safe for concurrent use and must treat Run as an
// idempotent pure read of (field, operator, value).
type Matcher interface {
	Run(ctx context.Context, t Term) (TermResult, error)
}

// MatcherFunc adapts a function to the Matcher interface.
type MatcherFunc func(ctx context.Context, t Term) (TermResult, error)

// Run calls f.
func (f MatcherFunc) Run(ctx context.Context, t Term) (TermResult, error) { return f(ctx, t) }

// TermEvent describes one finished term execution.
type TermEvent struct {
	Term     Term
	Kind     model.SearchKind
	Matches  int
	Duration time.Duration
	Err      error
}

// Runner executes the terms of a search concurrently.
type Runner struct {
	matcher  Matcher
	rc       *resource.Controller
	logger   *slog.Logger
	observer func(TermEvent)
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithResourceController bounds term concurrency and rate.
func WithResourceController(rc *resource.Controller) RunnerOption {
	return func(r *Runner) { r.rc = rc }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithObserver registers a callback invoked after every term.
// It may be called concurrently.
func WithObserver(fn func(TermEvent)) RunnerOption {
	return func(r *Runner) { r.observer = fn }
}

// NewRunner creates a Runner.
func NewRunner(m Matcher, opts ...RunnerOption) *Runner {
	r := &Runner{
		matcher: m,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "facet")
	return r
}

type job struct {
	facet int
	term  int
	kind  model.SearchKind
	dt    model.DatatypeID
	t     Term
}

// Run executes every term of c and combines the results per facet.
//
// Advanced facets run once. General facets run once per datatype in
// datatypes (or only on their own datatype, if set). The first failing term
// cancels the rest and its error is returned.
func (r *Runner) Run(ctx context.Context, c Criteria, datatypes []model.DatatypeID) (*Results, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	var jobs []job
	advanced := make([][]TermResult, len(c.Advanced))
	for fi, f := range c.Advanced {
		advanced[fi] = make([]TermResult, len(f.Terms))
		for ti, t := range f.Terms {
			jobs = append(jobs, job{facet: fi, term: ti, kind: model.Advanced, dt: f.Datatype, t: t})
		}
	}

	type generalKey struct {
		facet int
		dt    model.DatatypeID
	}
	general := make(map[generalKey][]TermResult)
	for fi, f := range c.General {
		targets := datatypes
		if f.Datatype != 0 {
			targets = []model.DatatypeID{f.Datatype}
		}
		for _, dt := range targets {
			general[generalKey{fi, dt}] = make([]TermResult, len(f.Terms))
			for ti, t := range f.Terms {
				t.Datatype = dt
				jobs = append(jobs, job{facet: fi, term: ti, kind: model.General, dt: dt, t: t})
			}
		}
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, j := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			release, err := r.rc.Term(gctx)
			if err != nil {
				return err
			}
			defer release()

			start := time.Now()
			res, err := r.matcher.Run(gctx, j.t)
			r.observe(j, res, time.Since(start), err)
			if err != nil {
				return fmt.Errorf("facet: run term on datatype %d field %d: %w", j.dt, j.t.Field, err)
			}

			mu.Lock()
			defer mu.Unlock()
			if j.kind == model.Advanced {
				advanced[j.facet][j.term] = res
			} else {
				general[generalKey{j.facet, j.dt}][j.term] = res
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := NewResults()
	out.Tokens = c.Tokens()
	for fi, f := range c.Advanced {
		out.Advanced[f.Datatype] = append(out.Advanced[f.Datatype], FacetResult{
			ID:         f.ID,
			TermResult: Combine(advanced[fi], f.Merge),
		})
	}
	for key, terms := range general {
		f := c.General[key.facet]
		out.addGeneral(key.dt, f.Token, Combine(terms, f.Merge))
	}

	r.logger.DebugContext(ctx, "facets executed",
		"advanced", len(c.Advanced),
		"general", len(c.General),
		"terms", len(jobs),
	)
	return out, nil
}

func (r *Runner) observe(j job, res TermResult, d time.Duration, err error) {
	if r.observer == nil {
		return
	}
	r.observer(TermEvent{
		Term:     j.t,
		Kind:     j.kind,
		Matches:  res.IDs.Len(),
		Duration: d,
		Err:      err,
	})
}
