package topology

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/hupe1980/facetree/model"
	"github.com/hupe1980/facetree/permission"
	"github.com/hupe1980/facetree/schema"
)

// Request describes the scope of one build.
type Request struct {
	Roots     []model.DatatypeID
	Grants    permission.Grants
	Direction model.Direction

	// Targeted reports whether a datatype is directly targeted by at least
	// one advanced-search term. Its visible records are seeded MUST_MATCH.
	Targeted func(d *schema.Datatype) bool
}

// Builder builds the topology and the seeded state map of a search.
//
// Every build is shape-unique (permissions and search scope differ per
// request), so nothing is cached across builds.
type Builder struct {
	schema  schema.Schema
	records schema.RecordSource
	filter  *permission.Filter
	logger  *slog.Logger
}

// NewBuilder creates a Builder. A nil logger discards output.
func NewBuilder(s schema.Schema, records schema.RecordSource, filter *permission.Filter, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Builder{
		schema:  s,
		records: records,
		filter:  filter,
		logger:  logger.With("component", "topology"),
	}
}

type pending struct {
	dt     model.DatatypeID
	parent model.DatatypeID
	rel    model.Relation
}

// Build traverses the relation graph from the roots.
//
// Datatypes the actor may not view are skipped entirely: they get no node,
// no edge and no state entries. Every record of a viewable datatype is
// seeded CANT_VIEW if hidden, MUST_MATCH if its datatype is targeted, and
// DOESNT_MATTER otherwise.
func (b *Builder) Build(ctx context.Context, req Request) (*Topology, *model.StateMap, error) {
	topo := New(req.Direction)
	states := model.NewStateMap(0)
	skipped := make(map[model.DatatypeID]struct{})
	visible := make(map[model.DatatypeID]permission.Visibility)

	queue := make([]pending, 0, len(req.Roots))
	for _, root := range req.Roots {
		queue = append(queue, pending{dt: root, rel: model.RelationTop})
	}

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		p := queue[0]
		queue = queue[1:]

		if _, ok := skipped[p.dt]; ok {
			continue
		}

		if n, ok := topo.Node(p.dt); ok {
			// Already expanded: merge the ancestors of this relation and
			// connect, but never expand twice.
			if !n.HasRelation(p.rel) {
				if err := b.load(ctx, topo, states, req, p.dt, p.rel, visible[p.dt]); err != nil {
					return nil, nil, err
				}
			}
			if p.rel != model.RelationTop {
				topo.Connect(p.parent, p.dt, p.rel)
			} else if !slices.Contains(topo.Roots, p.dt) {
				topo.Roots = append(topo.Roots, p.dt)
			}
			continue
		}

		vis, err := b.filter.Compute(ctx, p.dt, req.Grants)
		if err != nil {
			return nil, nil, err
		}
		if !vis.CanViewDatatype {
			skipped[p.dt] = struct{}{}
			continue
		}
		visible[p.dt] = vis

		if err := b.load(ctx, topo, states, req, p.dt, p.rel, vis); err != nil {
			return nil, nil, err
		}
		if p.rel == model.RelationTop {
			topo.Roots = append(topo.Roots, p.dt)
		} else {
			topo.Connect(p.parent, p.dt, p.rel)
		}

		next, err := b.edges(ctx, p.dt, req.Direction)
		if err != nil {
			return nil, nil, err
		}
		queue = append(queue, next...)
	}

	b.logger.DebugContext(ctx, "topology built",
		"roots", len(topo.Roots),
		"datatypes", topo.Len(),
		"records", states.Len(),
		"skipped", len(skipped),
	)
	return topo, states, nil
}

// load enumerates the records of dt reached by rel and seeds their states.
func (b *Builder) load(ctx context.Context, topo *Topology, states *model.StateMap, req Request, dt model.DatatypeID, rel model.Relation, vis permission.Visibility) error {
	d, err := b.schema.Datatype(ctx, dt)
	if err != nil {
		return fmt.Errorf("topology: resolve datatype %d: %w", dt, err)
	}
	records, err := b.records.ListRecords(ctx, dt, rel, req.Direction)
	if err != nil {
		return fmt.Errorf("topology: list records of datatype %d (%s): %w", dt, rel, err)
	}

	targeted := req.Targeted != nil && req.Targeted(d)
	topo.AddNode(dt, d.Name, d.TemplateID, rel, records)

	for id := range records {
		var s model.State
		switch {
		case vis.Hidden.Contains(id):
			s.Hidden = true
		case targeted:
			s.MustMatch = true
		}
		states.Seed(id, s)
	}
	return nil
}

func (b *Builder) edges(ctx context.Context, dt model.DatatypeID, dir model.Direction) ([]pending, error) {
	d, err := b.schema.Datatype(ctx, dt)
	if err != nil {
		return nil, fmt.Errorf("topology: resolve datatype %d: %w", dt, err)
	}

	out := make([]pending, 0, len(d.Children)+len(d.Links))
	for _, c := range d.Children {
		out = append(out, pending{dt: c, parent: dt, rel: model.RelationChild})
	}

	links := d.Links
	if dir == model.Inverse {
		links, err = b.schema.LinkedFrom(ctx, dt)
		if err != nil {
			return nil, fmt.Errorf("topology: datatypes linking to %d: %w", dt, err)
		}
	}
	for _, l := range links {
		out = append(out, pending{dt: l, parent: dt, rel: model.RelationLink})
	}
	return out, nil
}

// ResolveTemplate returns the concrete datatypes derived from a template,
// which become the roots of a template search.
func (b *Builder) ResolveTemplate(ctx context.Context, templateID model.DatatypeID) ([]model.DatatypeID, error) {
	d, err := b.schema.Datatype(ctx, templateID)
	if err != nil {
		return nil, fmt.Errorf("topology: resolve template %d: %w", templateID, err)
	}
	if !d.IsTemplate {
		return nil, &model.NotFoundError{Kind: "template", ID: uint32(templateID)}
	}
	derived, err := b.schema.Derived(ctx, templateID)
	if err != nil {
		return nil, fmt.Errorf("topology: datatypes derived from template %d: %w", templateID, err)
	}
	return derived, nil
}
