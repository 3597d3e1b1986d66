package topology

import (
	"slices"

	"github.com/hupe1980/facetree/model"
)

// Ownership maps records to their in-arena descendants.
//
// Only edges present in the topology contribute: a linked record whose
// linking record lies outside the arena is not reachable from it.
type Ownership struct {
	down map[model.RecordID][]model.RecordID
}

// NewOwnership derives the ownership index from a topology.
func NewOwnership(t *Topology) *Ownership {
	o := &Ownership{
		down: make(map[model.RecordID][]model.RecordID),
	}
	for _, dt := range t.Datatypes() {
		parent := t.nodes[dt]
		for _, e := range parent.Edges() {
			child, ok := t.nodes[e.To]
			if !ok {
				continue
			}
			for _, r := range child.order {
				for _, a := range child.Records[r] {
					if !parent.own.Contains(a) {
						continue
					}
					o.down[a] = append(o.down[a], r)
				}
			}
		}
	}
	for id, desc := range o.down {
		slices.Sort(desc)
		o.down[id] = slices.Compact(desc)
	}
	return o
}

// Descendants returns the direct in-arena descendants of a record.
func (o *Ownership) Descendants(id model.RecordID) []model.RecordID {
	return o.down[id]
}
