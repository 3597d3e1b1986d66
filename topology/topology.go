// Package topology builds the per-search structures the merge engine walks.
//
// # Arena
//
// A Topology is an arena of Nodes indexed by datatype id. Each Node holds the
// datatype's own record list (record id -> ancestors) and explicit child and
// link edge lists. A datatype reachable by more than one route owns a single
// node; its records carry the union of their ancestors across routes, and the
// merge engine restricts every projection to the parent's own records.
//
// Cycles in the link graph are cut twice: the builder never expands a
// datatype twice, and the merge engine never re-enters a datatype that is
// already on its recursion path.
package topology

import (
	"slices"

	"github.com/hupe1980/facetree/model"
	"github.com/hupe1980/facetree/recordset"
)

// Node is one datatype of the search tree.
type Node struct {
	Datatype   model.DatatypeID
	Name       string
	TemplateID model.DatatypeID

	// Records maps every own record to its ancestors.
	Records map[model.RecordID]model.Ancestors
	// Children and Links are the outgoing edges in discovery order.
	Children []model.DatatypeID
	Links    []model.DatatypeID

	relations []model.Relation
	own       *recordset.Set
	order     []model.RecordID
}

func newNode(dt model.DatatypeID, name string, templateID model.DatatypeID) *Node {
	return &Node{
		Datatype:   dt,
		Name:       name,
		TemplateID: templateID,
		Records:    make(map[model.RecordID]model.Ancestors),
		own:        recordset.New(),
	}
}

// Own returns the node's own record ids. The set must be treated as read-only.
func (n *Node) Own() *recordset.Set { return n.own }

// Order returns the own record ids in ascending order.
func (n *Node) Order() []model.RecordID { return n.order }

// Edges returns child edges followed by link edges, the order the merge
// engine recurses in.
func (n *Node) Edges() []Edge {
	out := make([]Edge, 0, len(n.Children)+len(n.Links))
	for _, c := range n.Children {
		out = append(out, Edge{To: c, Relation: model.RelationChild})
	}
	for _, l := range n.Links {
		out = append(out, Edge{To: l, Relation: model.RelationLink})
	}
	return out
}

// HasRelation reports whether the node was reached by rel.
func (n *Node) HasRelation(rel model.Relation) bool {
	return slices.Contains(n.relations, rel)
}

func (n *Node) addRecords(rel model.Relation, records map[model.RecordID]model.Ancestors) {
	n.relations = append(n.relations, rel)
	for id, anc := range records {
		prev, ok := n.Records[id]
		if !ok {
			n.Records[id] = slices.Clone(anc)
			n.own.Add(id)
			continue
		}
		n.Records[id] = prev.Union(anc)
	}
	n.order = n.own.ToSlice()
}

func (n *Node) addEdge(to model.DatatypeID, rel model.Relation) {
	switch rel {
	case model.RelationChild:
		if !slices.Contains(n.Children, to) {
			n.Children = append(n.Children, to)
		}
	case model.RelationLink:
		if !slices.Contains(n.Links, to) {
			n.Links = append(n.Links, to)
		}
	}
}

// Edge is a directed edge of the search tree.
type Edge struct {
	To       model.DatatypeID
	Relation model.Relation
}

// Topology is the search tree of one search.
type Topology struct {
	Roots     []model.DatatypeID
	Direction model.Direction

	nodes map[model.DatatypeID]*Node
}

// New creates an empty topology.
func New(dir model.Direction) *Topology {
	return &Topology{Direction: dir, nodes: make(map[model.DatatypeID]*Node)}
}

// Node returns the node of a datatype.
func (t *Topology) Node(dt model.DatatypeID) (*Node, bool) {
	n, ok := t.nodes[dt]
	return n, ok
}

// Len returns the number of nodes.
func (t *Topology) Len() int { return len(t.nodes) }

// Datatypes returns every datatype in the arena in ascending order.
func (t *Topology) Datatypes() []model.DatatypeID {
	out := make([]model.DatatypeID, 0, len(t.nodes))
	for dt := range t.nodes {
		out = append(out, dt)
	}
	slices.Sort(out)
	return out
}

// Derived returns the datatypes in the arena derived from a template.
func (t *Topology) Derived(templateID model.DatatypeID) []model.DatatypeID {
	var out []model.DatatypeID
	for _, dt := range t.Datatypes() {
		if t.nodes[dt].TemplateID == templateID {
			out = append(out, dt)
		}
	}
	return out
}

// TopLevel returns the own records of every root.
func (t *Topology) TopLevel() []model.RecordID {
	var out []model.RecordID
	for _, root := range t.Roots {
		if n, ok := t.nodes[root]; ok {
			out = append(out, n.order...)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// AddNode inserts a node for dt with the given records, reached by rel.
// Adding a node that already exists merges the records.
func (t *Topology) AddNode(dt model.DatatypeID, name string, templateID model.DatatypeID, rel model.Relation, records map[model.RecordID]model.Ancestors) *Node {
	n, ok := t.nodes[dt]
	if !ok {
		n = newNode(dt, name, templateID)
		t.nodes[dt] = n
	}
	n.addRecords(rel, records)
	return n
}

// Connect adds an edge from parent to child.
func (t *Topology) Connect(parent, child model.DatatypeID, rel model.Relation) {
	if p, ok := t.nodes[parent]; ok {
		p.addEdge(child, rel)
	}
}
