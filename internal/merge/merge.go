package merge

import (
	"log/slog"

	"github.com/hupe1980/facetree/facet"
	"github.com/hupe1980/facetree/model"
	"github.com/hupe1980/facetree/recordset"
	"github.com/hupe1980/facetree/topology"
)

// Deps is a set of targeted datatypes an outcome depends on.
type Deps map[model.DatatypeID]struct{}

func (d Deps) add(dt model.DatatypeID) { d[dt] = struct{}{} }

func (d Deps) merge(other Deps) {
	for dt := range other {
		d[dt] = struct{}{}
	}
}

// Outcome is the result of merging one node.
type Outcome struct {
	// Adv holds the node's own visible records that matched the advanced
	// search. It is nil when no advanced facet exists in the node's subtree.
	Adv *recordset.Set
	// Guard reports whether the subtree's requirement is satisfied by the
	// absence of records: every facet at the node is guarded.
	Guard bool
	// Gen holds, per token, the node's own visible records that matched
	// the general search, directly or through descendants.
	Gen map[int]*recordset.Set
	// Deps holds the targeted datatypes of the subtree.
	Deps Deps

	visible *recordset.Set
	// cyclic is set when the merge skipped an edge back onto the
	// recursion path. Such outcomes depend on the path and are not reused.
	cyclic bool
}

// Targeted reports whether the subtree carries advanced facets.
func (o Outcome) Targeted() bool { return o.Adv != nil }

// Stats counts what a merge did.
type Stats struct {
	// Nodes counts node merges. A datatype reached by several routes is
	// merged once unless it lies under a cycle.
	Nodes           int
	ShortCircuits   int
	MultiPathMerges int
	GuardPromotions int
}

// Engine merges facet results over one topology.
type Engine struct {
	topo          *topology.Topology
	states        *model.StateMap
	results       *facet.Results
	differentiate bool
	logger        *slog.Logger

	path   map[model.DatatypeID]struct{}
	done   map[model.DatatypeID]Outcome
	shapes map[model.DatatypeID]shape
	stats  Stats
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an Engine.
//
// differentiate must be true when the search has both advanced and general
// criteria; matches then set only the bit of their own kind.
func New(topo *topology.Topology, states *model.StateMap, results *facet.Results, differentiate bool, opts ...Option) *Engine {
	if results == nil {
		results = facet.NewResults()
	}
	e := &Engine{
		topo:          topo,
		states:        states,
		results:       results,
		differentiate: differentiate,
		logger:        slog.New(slog.DiscardHandler),
		path:          make(map[model.DatatypeID]struct{}),
		done:          make(map[model.DatatypeID]Outcome),
		shapes:        make(map[model.DatatypeID]shape),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("component", "merge")
	return e
}

// Run merges every root of the topology as a top-level node.
func (e *Engine) Run() Stats {
	for _, root := range e.topo.Roots {
		e.Merge(root, true)
	}
	e.logger.Debug("merge finished",
		"nodes", e.stats.Nodes,
		"short_circuits", e.stats.ShortCircuits,
		"multi_path_merges", e.stats.MultiPathMerges,
		"guard_promotions", e.stats.GuardPromotions,
	)
	return e.stats
}

// Stats returns the counters accumulated so far.
func (e *Engine) Stats() Stats { return e.stats }

// Merge merges the subtree rooted at dt. A topLevel node resolves the
// general search by AND-ing all tokens.
//
// Outcomes of acyclic subtrees are reused, so a datatype shared by several
// routes is merged once. Callers must not modify a returned Outcome.
func (e *Engine) Merge(dt model.DatatypeID, topLevel bool) Outcome {
	if out, ok := e.done[dt]; ok {
		if topLevel {
			e.markGeneral(out.Gen)
		}
		return out
	}
	out := e.merge(dt, topLevel)
	if !out.cyclic {
		e.done[dt] = out
		e.shapes[dt] = shape{targeted: out.Targeted(), guard: out.Guard, deps: out.Deps}
	}
	return out
}

func (e *Engine) merge(dt model.DatatypeID, topLevel bool) Outcome {
	node, ok := e.topo.Node(dt)
	if !ok {
		return Outcome{Deps: Deps{}}
	}

	e.path[dt] = struct{}{}
	defer delete(e.path, dt)
	e.stats.Nodes++

	own := node.Own()
	visible := e.visible(node)

	var facets []term
	for _, f := range e.results.AdvancedFor(dt) {
		ids := f.IDs.Clone()
		ids.And(own)
		facets = append(facets, term{ids: ids, guard: f.Guard})
	}

	if len(facets) > 0 {
		probe := intersect(facets)
		probe.And(visible)
		if probe.IsEmpty() {
			e.stats.ShortCircuits++
			s := e.shapeOf(node)
			return Outcome{Adv: recordset.New(), Guard: s.guard, Deps: s.deps, visible: visible, cyclic: s.cyclic}
		}
	}

	tokens := e.results.Tokens
	gen := make(map[int]*recordset.Set, len(tokens))
	for _, tok := range tokens {
		ids := recordset.New()
		if r, ok := e.results.General[dt][tok]; ok {
			ids.Or(r.IDs)
			ids.And(own)
		}
		gen[tok] = ids
	}

	var routes []route
	cyclic := false
	for _, edge := range node.Edges() {
		if _, onPath := e.path[edge.To]; onPath {
			cyclic = true
			continue
		}
		child, ok := e.topo.Node(edge.To)
		if !ok {
			continue
		}

		out := e.Merge(edge.To, false)
		cyclic = cyclic || out.cyclic

		for tok, ids := range out.Gen {
			if dst, ok := gen[tok]; ok {
				dst.Or(project(ids, child, own))
			}
		}

		if !out.Targeted() {
			continue
		}
		ids := project(out.Adv, child, own)
		if out.Guard {
			ids.Or(e.promote(visible, child, out.visible))
		}
		routes = append(routes, route{term: term{ids: ids, guard: out.Guard}, deps: out.Deps})
	}

	deps := Deps{}
	if len(facets) > 0 {
		deps.add(dt)
	}
	for _, r := range routes {
		deps.merge(r.deps)
	}

	for _, group := range groupRoutes(routes) {
		sets := make([]*recordset.Set, len(group))
		merged := term{}
		for j, i := range group {
			sets[j] = routes[i].ids
			merged.guard = merged.guard || routes[i].guard
		}
		merged.ids = recordset.Union(sets...)
		if len(group) > 1 {
			e.stats.MultiPathMerges++
		}
		facets = append(facets, merged)
	}

	out := Outcome{Deps: deps, visible: visible, cyclic: cyclic}

	if len(facets) > 0 {
		adv := intersect(facets)
		adv.And(visible)
		for id := range adv.All() {
			e.states.Mark(id, model.Advanced, e.differentiate)
		}
		out.Adv = adv
		out.Guard = allGuarded(facets)
	}

	for _, ids := range gen {
		ids.And(visible)
	}
	out.Gen = gen

	if topLevel {
		e.markGeneral(gen)
	}

	return out
}

// markGeneral marks the records of a top-level node that match every token.
func (e *Engine) markGeneral(gen map[int]*recordset.Set) {
	tokens := e.results.Tokens
	if len(tokens) == 0 {
		return
	}
	sets := make([]*recordset.Set, 0, len(tokens))
	for _, tok := range tokens {
		ids, ok := gen[tok]
		if !ok {
			return
		}
		sets = append(sets, ids)
	}
	for id := range recordset.Intersect(sets...).All() {
		e.states.Mark(id, model.General, e.differentiate)
	}
}

// visible returns the node's own records that are not hidden.
func (e *Engine) visible(node *topology.Node) *recordset.Set {
	out := recordset.New()
	for _, id := range node.Order() {
		s, ok := e.states.Lookup(id)
		if !ok {
			panic(&model.InconsistencyError{Record: id, Datatype: node.Datatype})
		}
		if s.Visible() {
			out.Add(id)
		}
	}
	return out
}

// promote returns the visible parent records that have no visible record of
// the child datatype.
func (e *Engine) promote(parents *recordset.Set, child *topology.Node, childVisible *recordset.Set) *recordset.Set {
	covered := recordset.New()
	for id := range childVisible.All() {
		for _, a := range child.Records[id] {
			covered.Add(a)
		}
	}
	out := parents.Clone()
	out.AndNot(covered)
	e.stats.GuardPromotions += out.Len()
	return out
}

// project maps child record ids onto their ancestors among own.
func project(ids *recordset.Set, child *topology.Node, own *recordset.Set) *recordset.Set {
	out := recordset.New()
	for id := range ids.All() {
		for _, a := range child.Records[id] {
			if own.Contains(a) {
				out.Add(a)
			}
		}
	}
	return out
}

type term struct {
	ids   *recordset.Set
	guard bool
}

func intersect(terms []term) *recordset.Set {
	sets := make([]*recordset.Set, len(terms))
	for i, t := range terms {
		sets[i] = t.ids
	}
	return recordset.Intersect(sets...)
}

func allGuarded(terms []term) bool {
	for _, t := range terms {
		if !t.guard {
			return false
		}
	}
	return len(terms) > 0
}
