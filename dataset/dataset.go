// Package dataset provides an in-memory repository that implements every
// collaborator port of a search: schema.Schema, schema.RecordSource,
// permission.Oracle and facet.Matcher.
//
// It backs the tests and the command line tool. A Repository is safe for
// concurrent use; mutations take effect for searches started afterwards.
package dataset

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/hupe1980/facetree/facet"
	"github.com/hupe1980/facetree/model"
	"github.com/hupe1980/facetree/permission"
	"github.com/hupe1980/facetree/recordset"
	"github.com/hupe1980/facetree/schema"
)

// Repository is an in-memory datastore.
type Repository struct {
	mu        sync.RWMutex
	datatypes map[model.DatatypeID]*DatatypeSpec
	fields    map[model.DatatypeID]map[model.FieldID]Field
	records   map[model.RecordID]*Record
	byType    map[model.DatatypeID][]model.RecordID
	linkedBy  map[model.RecordID][]model.RecordID
}

var (
	_ schema.Schema       = (*Repository)(nil)
	_ schema.RecordSource = (*Repository)(nil)
	_ permission.Oracle   = (*Repository)(nil)
	_ facet.Matcher       = (*Repository)(nil)
)

// New builds a repository from a fixture and checks its references.
func New(f Fixture) (*Repository, error) {
	r := &Repository{
		datatypes: make(map[model.DatatypeID]*DatatypeSpec, len(f.Datatypes)),
		fields:    make(map[model.DatatypeID]map[model.FieldID]Field, len(f.Datatypes)),
		records:   make(map[model.RecordID]*Record, len(f.Records)),
		byType:    make(map[model.DatatypeID][]model.RecordID),
		linkedBy:  make(map[model.RecordID][]model.RecordID),
	}

	for i := range f.Datatypes {
		d := f.Datatypes[i]
		if d.ID == 0 {
			return nil, fmt.Errorf("%w: datatype %q has no id", ErrInvalidFixture, d.Name)
		}
		if _, dup := r.datatypes[d.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate datatype %d", ErrInvalidFixture, d.ID)
		}
		r.datatypes[d.ID] = &d
		fields := make(map[model.FieldID]Field, len(d.Fields))
		for _, fd := range d.Fields {
			if fd.ID == facet.AnyField {
				return nil, fmt.Errorf("%w: datatype %d has a field without id", ErrInvalidFixture, d.ID)
			}
			fields[fd.ID] = fd
		}
		r.fields[d.ID] = fields
	}

	for id, d := range r.datatypes {
		for _, c := range slices.Concat(d.Children, d.Links) {
			if _, ok := r.datatypes[c]; !ok {
				return nil, fmt.Errorf("%w: datatype %d references unknown datatype %d", ErrInvalidFixture, id, c)
			}
		}
		if d.TemplateID != 0 {
			if t, ok := r.datatypes[d.TemplateID]; !ok || !t.IsTemplate {
				return nil, fmt.Errorf("%w: datatype %d derives from non-template %d", ErrInvalidFixture, id, d.TemplateID)
			}
		}
	}

	for i := range f.Records {
		rec := f.Records[i]
		if rec.ID == 0 {
			return nil, fmt.Errorf("%w: record without id", ErrInvalidFixture)
		}
		if _, dup := r.records[rec.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate record %d", ErrInvalidFixture, rec.ID)
		}
		if _, ok := r.datatypes[rec.Datatype]; !ok {
			return nil, fmt.Errorf("%w: record %d has unknown datatype %d", ErrInvalidFixture, rec.ID, rec.Datatype)
		}
		for fid := range rec.Values {
			if _, ok := r.fields[rec.Datatype][fid]; !ok {
				return nil, fmt.Errorf("%w: record %d has unknown field %d", ErrInvalidFixture, rec.ID, fid)
			}
		}
		r.records[rec.ID] = &rec
		r.byType[rec.Datatype] = append(r.byType[rec.Datatype], rec.ID)
	}

	for _, rec := range r.records {
		if rec.Parent != 0 {
			p, ok := r.records[rec.Parent]
			if !ok || !slices.Contains(r.datatypes[p.Datatype].Children, rec.Datatype) {
				return nil, fmt.Errorf("%w: record %d has invalid parent %d", ErrInvalidFixture, rec.ID, rec.Parent)
			}
		}
		for _, l := range rec.Links {
			t, ok := r.records[l]
			if !ok || !slices.Contains(r.datatypes[rec.Datatype].Links, t.Datatype) {
				return nil, fmt.Errorf("%w: record %d has invalid link %d", ErrInvalidFixture, rec.ID, l)
			}
			r.linkedBy[l] = append(r.linkedBy[l], rec.ID)
		}
	}

	for dt := range r.byType {
		slices.Sort(r.byType[dt])
	}
	for id := range r.linkedBy {
		slices.Sort(r.linkedBy[id])
		r.linkedBy[id] = slices.Compact(r.linkedBy[id])
	}
	return r, nil
}

// Datatype implements schema.Schema.
func (r *Repository) Datatype(_ context.Context, id model.DatatypeID) (*schema.Datatype, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.datatypes[id]
	if !ok {
		return nil, &model.NotFoundError{Kind: "datatype", ID: uint32(id)}
	}
	return &schema.Datatype{
		ID:            d.ID,
		Name:          d.Name,
		Public:        d.Public,
		RecordsPublic: d.RecordsPublic,
		Children:      slices.Clone(d.Children),
		Links:         slices.Clone(d.Links),
		TemplateID:    d.TemplateID,
		IsTemplate:    d.IsTemplate,
	}, nil
}

// LinkedFrom implements schema.Schema.
func (r *Repository) LinkedFrom(_ context.Context, id model.DatatypeID) ([]model.DatatypeID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.datatypes[id]; !ok {
		return nil, &model.NotFoundError{Kind: "datatype", ID: uint32(id)}
	}
	var out []model.DatatypeID
	for _, dt := range r.sortedDatatypes() {
		if slices.Contains(r.datatypes[dt].Links, id) {
			out = append(out, dt)
		}
	}
	return out, nil
}

// Derived implements schema.Schema.
func (r *Repository) Derived(_ context.Context, templateID model.DatatypeID) ([]model.DatatypeID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.derived(templateID), nil
}

func (r *Repository) derived(templateID model.DatatypeID) []model.DatatypeID {
	var out []model.DatatypeID
	for _, dt := range r.sortedDatatypes() {
		if r.datatypes[dt].TemplateID == templateID {
			out = append(out, dt)
		}
	}
	return out
}

func (r *Repository) sortedDatatypes() []model.DatatypeID {
	return slices.Sorted(maps.Keys(r.datatypes))
}

// ListRecords implements schema.RecordSource.
//
// Records without an ancestor in the requested relation are not reachable
// through it and are left out, except for RelationTop.
func (r *Repository) ListRecords(_ context.Context, dt model.DatatypeID, rel model.Relation, dir model.Direction) (map[model.RecordID]model.Ancestors, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.datatypes[dt]; !ok {
		return nil, &model.NotFoundError{Kind: "datatype", ID: uint32(dt)}
	}

	out := make(map[model.RecordID]model.Ancestors, len(r.byType[dt]))
	for _, id := range r.byType[dt] {
		rec := r.records[id]
		var anc model.Ancestors
		switch rel {
		case model.RelationTop:
			out[id] = nil
			continue
		case model.RelationChild:
			if rec.Parent != 0 {
				anc = model.Ancestors{rec.Parent}
			}
		case model.RelationLink:
			if dir == model.Inverse {
				anc = slices.Clone(rec.Links)
				slices.Sort(anc)
				anc = slices.Compact(anc)
			} else {
				anc = slices.Clone(r.linkedBy[id])
			}
		}
		if len(anc) > 0 {
			out[id] = anc
		}
	}
	return out, nil
}

// NonPublicRecords implements permission.Oracle.
func (r *Repository) NonPublicRecords(_ context.Context, dt model.DatatypeID) (*recordset.Set, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := recordset.New()
	for _, id := range r.byType[dt] {
		if r.records[id].Private {
			out.Add(id)
		}
	}
	return out, nil
}

// Run implements facet.Matcher by evaluating the term against every record
// of the addressed datatype. Template terms are evaluated against every
// field derived from the template field.
func (r *Repository) Run(ctx context.Context, t facet.Term) (facet.TermResult, error) {
	if err := ctx.Err(); err != nil {
		return facet.TermResult{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.datatypes[t.Datatype]; !ok {
		return facet.TermResult{}, &model.NotFoundError{Kind: "datatype", ID: uint32(t.Datatype)}
	}

	res := facet.TermResult{IDs: recordset.New(), Guard: t.Guard()}
	switch {
	case t.Template:
		if _, ok := r.fields[t.Datatype][t.Field]; !ok {
			return facet.TermResult{}, &model.NotFoundError{Kind: "field", ID: uint32(t.Field)}
		}
		for _, dt := range r.derived(t.Datatype) {
			for _, fd := range r.fields[dt] {
				if fd.Template == t.Field {
					r.match(res.IDs, dt, fd.ID, t)
				}
			}
		}
	case t.Field == facet.AnyField:
		for _, id := range r.byType[t.Datatype] {
			if anyFieldContains(r.records[id], t) {
				res.IDs.Add(id)
			}
		}
	default:
		if _, ok := r.fields[t.Datatype][t.Field]; !ok {
			return facet.TermResult{}, &model.NotFoundError{Kind: "field", ID: uint32(t.Field)}
		}
		r.match(res.IDs, t.Datatype, t.Field, t)
	}
	return res, nil
}

func (r *Repository) match(dst *recordset.Set, dt model.DatatypeID, field model.FieldID, t facet.Term) {
	for _, id := range r.byType[dt] {
		if t.Eval(r.records[id].Values[field]) {
			dst.Add(id)
		}
	}
}

func anyFieldContains(rec *Record, t facet.Term) bool {
	for _, v := range rec.Values {
		if t.Eval(facet.Value{Text: v.Text}) {
			return true
		}
		for _, o := range v.Options {
			if t.Eval(facet.Value{Text: o}) {
				return true
			}
		}
	}
	return false
}

// Records returns the record ids of a datatype in ascending order.
func (r *Repository) Records(dt model.DatatypeID) []model.RecordID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.byType[dt])
}

// SetValue replaces the value of one field of a record and returns the
// record's datatype, so the caller can invalidate cached term results.
func (r *Repository) SetValue(id model.RecordID, field model.FieldID, v facet.Value) (model.DatatypeID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[id]
	if !ok {
		return 0, &model.NotFoundError{Kind: "record", ID: uint32(id)}
	}
	if _, ok := r.fields[rec.Datatype][field]; !ok {
		return 0, &model.NotFoundError{Kind: "field", ID: uint32(field)}
	}
	if rec.Values == nil {
		rec.Values = make(map[model.FieldID]facet.Value)
	}
	rec.Values[field] = v
	return rec.Datatype, nil
}

// SetPrivate changes the public flag of a record.
func (r *Repository) SetPrivate(id model.RecordID, private bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[id]
	if !ok {
		return &model.NotFoundError{Kind: "record", ID: uint32(id)}
	}
	rec.Private = private
	return nil
}

// Fixture exports the repository contents.
func (r *Repository) Fixture() Fixture {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var f Fixture
	for _, dt := range r.sortedDatatypes() {
		f.Datatypes = append(f.Datatypes, *r.datatypes[dt])
	}
	for _, id := range slices.Sorted(maps.Keys(r.records)) {
		rec := *r.records[id]
		rec.Values = maps.Clone(rec.Values)
		f.Records = append(f.Records, rec)
	}
	return f
}
