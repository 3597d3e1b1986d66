package facetree

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/facetree/facet"
	"github.com/hupe1980/facetree/internal/extract"
	"github.com/hupe1980/facetree/internal/merge"
	"github.com/hupe1980/facetree/model"
	"github.com/hupe1980/facetree/permission"
	"github.com/hupe1980/facetree/schema"
	"github.com/hupe1980/facetree/topology"
)

// Request describes one search.
type Request struct {
	// Roots are the top-level datatypes. Ignored when Template is set.
	Roots []model.DatatypeID
	// Template searches every datatype derived from the template.
	Template model.DatatypeID
	// Grants are the permissions of the searching actor.
	Grants permission.Grants
	// Criteria holds the advanced and general facets. Empty criteria
	// match every visible top-level record.
	Criteria facet.Criteria
	// Direction selects which side of a link is the ancestor.
	Direction model.Direction
	// Complete also returns the descendants of every match.
	Complete bool
}

// Result is the outcome of a search.
type Result struct {
	RequestID string
	// TopLevel holds the matching top-level records in ascending order.
	TopLevel []model.RecordID
	// Complete holds TopLevel plus their included descendants, if requested.
	Complete []model.RecordID
	// States holds the packed state bits of every record. Explain only.
	States map[model.RecordID]uint8
	Stats  SearchStats
}

// SearchStats describes the work done by a search.
type SearchStats struct {
	Datatypes       int
	Records         int
	Terms           int
	Nodes           int
	ShortCircuits   int
	MultiPathMerges int
	GuardPromotions int
	// Unsatisfiable is set when an advanced facet targets a datatype the
	// actor cannot see or that is not reachable from the roots.
	Unsatisfiable bool
}

// Search runs a search and returns the matching records.
func (e *Engine) Search(ctx context.Context, req Request) (*Result, error) {
	return e.search(ctx, req, false)
}

// Explain runs a search like Search and additionally returns the final
// state bits of every record in scope.
func (e *Engine) Explain(ctx context.Context, req Request) (*Result, error) {
	return e.search(ctx, req, true)
}

func (e *Engine) search(ctx context.Context, req Request, explain bool) (res *Result, err error) {
	if e.closed.Load() {
		return nil, ErrClosed
	}

	id := uuid.NewString()
	log := e.opts.logger.WithRequestID(id)
	start := time.Now()
	var roots []model.DatatypeID
	defer func() {
		matches := 0
		if res != nil {
			matches = len(res.TopLevel)
		}
		elapsed := time.Since(start)
		e.opts.metricsCollector.RecordSearch(elapsed, matches, err)
		log.LogSearch(ctx, len(roots), matches, elapsed, err)
	}()

	roots, err = e.roots(ctx, req)
	if err == nil {
		res, err = e.run(ctx, log, id, req, roots, explain)
	}
	if err != nil {
		return nil, translateError(err)
	}
	return res, nil
}

// roots returns the top-level datatypes of a request. A template search
// uses every datatype derived from the template.
func (e *Engine) roots(ctx context.Context, req Request) ([]model.DatatypeID, error) {
	if req.Template == 0 {
		if len(req.Roots) == 0 {
			return nil, ErrNoRoots
		}
		return req.Roots, nil
	}
	return e.builder.ResolveTemplate(ctx, req.Template)
}

func (e *Engine) run(ctx context.Context, log *Logger, id string, req Request, roots []model.DatatypeID, explain bool) (*Result, error) {
	c := req.Criteria
	c.Advanced = slices.Clone(c.Advanced)
	c.General = slices.Clone(c.General)
	c.Normalize()
	if err := c.Validate(); err != nil {
		return nil, err
	}

	res := &Result{RequestID: id}
	if len(roots) == 0 {
		// A template without derived datatypes matches nothing.
		return res, nil
	}

	targeted := make(map[model.DatatypeID]struct{})
	for _, dt := range c.Targeted() {
		targeted[dt] = struct{}{}
	}
	topo, states, err := e.builder.Build(ctx, topology.Request{
		Roots:     roots,
		Grants:    req.Grants,
		Direction: req.Direction,
		Targeted: func(d *schema.Datatype) bool {
			if _, ok := targeted[d.ID]; ok {
				return true
			}
			_, ok := targeted[d.TemplateID]
			return d.TemplateID != 0 && ok
		},
	})
	if err != nil {
		return nil, err
	}
	res.Stats.Datatypes = topo.Len()
	res.Stats.Records = states.Len()

	if !satisfiable(c, topo) {
		log.DebugContext(ctx, "search unsatisfiable", "targeted", c.Targeted())
		res.Stats.Unsatisfiable = true
		if explain {
			res.States = states.Bits()
		}
		return res, nil
	}

	var results *facet.Results
	if !c.IsEmpty() {
		start := time.Now()
		res.Stats.Terms = countTerms(c, topo.Len())
		results, err = e.runner.Run(ctx, c, topo.Datatypes())
		log.LogFacetRun(ctx, res.Stats.Terms, time.Since(start), err)
		if err != nil {
			return nil, err
		}
		for _, tpl := range templates(c) {
			results.Rekey(tpl, topo.Derived(tpl))
		}
	}

	err = recoverInconsistency(func() {
		if c.IsEmpty() {
			for _, rid := range topo.TopLevel() {
				states.Mark(rid, model.Advanced, false)
			}
		} else {
			start := time.Now()
			differentiate := c.HasAdvanced() && c.HasGeneral()
			stats := merge.New(topo, states, results, differentiate, merge.WithLogger(log.Logger)).Run()
			e.opts.metricsCollector.RecordMerge(stats.Nodes, time.Since(start))
			res.Stats.Nodes = stats.Nodes
			res.Stats.ShortCircuits = stats.ShortCircuits
			res.Stats.MultiPathMerges = stats.MultiPathMerges
			res.Stats.GuardPromotions = stats.GuardPromotions
		}

		res.TopLevel = extract.TopLevel(states, topo)
		if req.Complete {
			res.Complete = extract.Complete(states, topo, topology.NewOwnership(topo))
		}
	})
	if err != nil {
		log.ErrorContext(ctx, "search state inconsistent", "error", err)
		return nil, err
	}

	if explain {
		res.States = states.Bits()
	}
	return res, nil
}

// recoverInconsistency runs fn and turns an inconsistent state panic into
// an error. Any other panic propagates.
func recoverInconsistency(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			ie, ok := r.(*model.InconsistencyError)
			if !ok {
				panic(r)
			}
			err = ie
		}
	}()
	fn()
	return nil
}

// satisfiable reports whether every advanced facet targets a datatype in
// the topology. A template facet needs at least one derived datatype.
func satisfiable(c facet.Criteria, topo *topology.Topology) bool {
	for _, f := range c.Advanced {
		if f.Template() {
			if len(topo.Derived(f.Datatype)) == 0 {
				return false
			}
			continue
		}
		if _, ok := topo.Node(f.Datatype); !ok {
			return false
		}
	}
	return true
}

func templates(c facet.Criteria) []model.DatatypeID {
	var out []model.DatatypeID
	for _, f := range c.Advanced {
		if f.Template() && !slices.Contains(out, f.Datatype) {
			out = append(out, f.Datatype)
		}
	}
	return out
}

func countTerms(c facet.Criteria, datatypes int) int {
	n := 0
	for _, f := range c.Advanced {
		n += len(f.Terms)
	}
	for _, f := range c.General {
		if f.Datatype != 0 {
			n += len(f.Terms)
		} else {
			n += len(f.Terms) * datatypes
		}
	}
	return n
}
