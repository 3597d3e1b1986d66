package merge

import (
	"github.com/hupe1980/facetree/model"
	"github.com/hupe1980/facetree/topology"
)

// route is the facet contributed by one direct descendant edge.
type route struct {
	term
	deps Deps
}

// groupRoutes partitions routes into groups that must be OR-merged.
//
// Two routes belong together when a targeted datatype appears in the
// dependencies of both. Groups are returned in order of their earliest
// route, and each group lists its routes in ascending order, so the first
// route encountered is the merge target.
func groupRoutes[R interface{ depSet() Deps }](routes []R) [][]int {
	parent := make([]int, len(routes))
	for i := range parent {
		parent[i] = i
	}
	find := func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra == rb {
			return
		}
		// The smaller index stays root so the earliest route wins.
		if rb < ra {
			ra, rb = rb, ra
		}
		parent[rb] = ra
	}

	first := make(map[model.DatatypeID]int)
	for i, r := range routes {
		for dt := range r.depSet() {
			if j, ok := first[dt]; ok {
				union(j, i)
				continue
			}
			first[dt] = i
		}
	}

	index := make(map[int]int)
	var groups [][]int
	for i := range routes {
		root := find(i)
		gi, ok := index[root]
		if !ok {
			gi = len(groups)
			index[root] = gi
			groups = append(groups, nil)
		}
		groups[gi] = append(groups[gi], i)
	}
	return groups
}

func (r route) depSet() Deps { return r.deps }

// shape is the record-independent part of an outcome.
type shape struct {
	targeted bool
	guard    bool
	deps     Deps
	cyclic   bool
}

func (s shape) depSet() Deps { return s.deps }

// shapeOf computes the guard and dependencies node would report without
// touching records. Both depend only on which datatypes carry facets, so a
// short-circuited node reports the same shape as a fully merged one.
// The node must already be on the recursion path. Shapes of acyclic
// subtrees are reused.
func (e *Engine) shapeOf(node *topology.Node) shape {
	if s, ok := e.shapes[node.Datatype]; ok {
		return s
	}

	var guards []bool
	for _, f := range e.results.AdvancedFor(node.Datatype) {
		guards = append(guards, f.Guard)
	}

	deps := Deps{}
	if len(guards) > 0 {
		deps.add(node.Datatype)
	}

	var routes []shape
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
		e.path[edge.To] = struct{}{}
		s := e.shapeOf(child)
		delete(e.path, edge.To)
		cyclic = cyclic || s.cyclic

		if s.targeted {
			routes = append(routes, s)
			deps.merge(s.deps)
		}
	}

	for _, group := range groupRoutes(routes) {
		g := false
		for _, i := range group {
			g = g || routes[i].guard
		}
		guards = append(guards, g)
	}

	s := shape{targeted: len(guards) > 0, deps: deps, cyclic: cyclic}
	if s.targeted {
		s.guard = true
		for _, g := range guards {
			s.guard = s.guard && g
		}
	}
	if !cyclic {
		e.shapes[node.Datatype] = s
	}
	return s
}
