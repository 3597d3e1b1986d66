// Package extract reads the final record states of a merged search.
package extract

import (
	"slices"

	"github.com/hupe1980/facetree/model"
	"github.com/hupe1980/facetree/topology"
)

// TopLevel returns the visible top-level records with both match bits set,
// in ascending order.
func TopLevel(states *model.StateMap, topo *topology.Topology) []model.RecordID {
	var out []model.RecordID
	for _, id := range topo.TopLevel() {
		if states.MustGet(id).Matched() {
			out = append(out, id)
		}
	}
	return out
}

// Complete returns the matched top-level records plus every descendant that
// rides along with them, in ascending order.
//
// A descendant is included unless it is hidden or was targeted by advanced
// search and failed to match. An excluded or hidden descendant prunes its
// own subtree. Records reachable by several routes are visited once.
func Complete(states *model.StateMap, topo *topology.Topology, own *topology.Ownership) []model.RecordID {
	top := TopLevel(states, topo)

	visited := make(map[model.RecordID]struct{}, len(top))
	stack := make([]model.RecordID, 0, len(top))
	for _, id := range top {
		visited[id] = struct{}{}
		stack = append(stack, id)
	}

	out := slices.Clone(top)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, d := range own.Descendants(id) {
			if _, seen := visited[d]; seen {
				continue
			}
			visited[d] = struct{}{}

			s := states.MustGet(d)
			if s.Hidden || s.Excluded() {
				continue
			}
			out = append(out, d)
			stack = append(stack, d)
		}
	}

	slices.Sort(out)
	return out
}
