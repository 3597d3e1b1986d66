package testutil

import (
	"testing"

	"github.com/hupe1980/facetree/dataset"
	"github.com/hupe1980/facetree/facet"
	"github.com/hupe1980/facetree/model"
)

// Builder assembles a dataset fixture step by step.
// Methods referencing unknown datatypes or records are no-ops; the
// repository constructor reports dangling references.
type Builder struct {
	fixture dataset.Fixture
	types   map[model.DatatypeID]int
	records map[model.RecordID]int
}

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		types:   make(map[model.DatatypeID]int),
		records: make(map[model.RecordID]int),
	}
}

// DatatypeOption configures a datatype.
type DatatypeOption func(*dataset.DatatypeSpec)

// Children sets the child datatypes.
func Children(ids ...model.DatatypeID) DatatypeOption {
	return func(d *dataset.DatatypeSpec) { d.Children = append(d.Children, ids...) }
}

// Links sets the linked datatypes.
func Links(ids ...model.DatatypeID) DatatypeOption {
	return func(d *dataset.DatatypeSpec) { d.Links = append(d.Links, ids...) }
}

// Public makes the datatype viewable by everyone.
func Public() DatatypeOption {
	return func(d *dataset.DatatypeSpec) { d.Public = true }
}

// RecordsPublic makes every record of the datatype public.
func RecordsPublic() DatatypeOption {
	return func(d *dataset.DatatypeSpec) { d.RecordsPublic = true }
}

// Template marks an abstract template datatype.
func Template() DatatypeOption {
	return func(d *dataset.DatatypeSpec) { d.IsTemplate = true }
}

// DerivedFrom marks a datatype derived from a template.
func DerivedFrom(tpl model.DatatypeID) DatatypeOption {
	return func(d *dataset.DatatypeSpec) { d.TemplateID = tpl }
}

// Datatype adds a datatype.
func (b *Builder) Datatype(id model.DatatypeID, name string, opts ...DatatypeOption) *Builder {
	d := dataset.DatatypeSpec{ID: id, Name: name}
	for _, opt := range opts {
		opt(&d)
	}
	b.types[id] = len(b.fixture.Datatypes)
	b.fixture.Datatypes = append(b.fixture.Datatypes, d)
	return b
}

// Field adds a field to a datatype.
func (b *Builder) Field(dt model.DatatypeID, id model.FieldID, kind facet.FieldKind) *Builder {
	return b.DerivedField(dt, id, kind, 0)
}

// DerivedField adds a field derived from a template field.
func (b *Builder) DerivedField(dt model.DatatypeID, id model.FieldID, kind facet.FieldKind, tpl model.FieldID) *Builder {
	i, ok := b.types[dt]
	if !ok {
		return b
	}
	d := &b.fixture.Datatypes[i]
	d.Fields = append(d.Fields, dataset.Field{ID: id, Name: kind.String(), Kind: kind, Template: tpl})
	return b
}

// Record adds a record. Parent is zero for records of a top-level datatype.
func (b *Builder) Record(id model.RecordID, dt model.DatatypeID, parent model.RecordID) *Builder {
	b.records[id] = len(b.fixture.Records)
	b.fixture.Records = append(b.fixture.Records, dataset.Record{ID: id, Datatype: dt, Parent: parent})
	return b
}

// Value sets a field value of a record.
func (b *Builder) Value(id model.RecordID, field model.FieldID, v facet.Value) *Builder {
	i, ok := b.records[id]
	if !ok {
		return b
	}
	rec := &b.fixture.Records[i]
	if rec.Values == nil {
		rec.Values = make(map[model.FieldID]facet.Value)
	}
	rec.Values[field] = v
	return b
}

// Text sets a text field value of a record.
func (b *Builder) Text(id model.RecordID, field model.FieldID, text string) *Builder {
	return b.Value(id, field, facet.Value{Text: text})
}

// Link links a record to other records.
func (b *Builder) Link(from model.RecordID, to ...model.RecordID) *Builder {
	if i, ok := b.records[from]; ok {
		b.fixture.Records[i].Links = append(b.fixture.Records[i].Links, to...)
	}
	return b
}

// Private marks records as non-public.
func (b *Builder) Private(ids ...model.RecordID) *Builder {
	for _, id := range ids {
		if i, ok := b.records[id]; ok {
			b.fixture.Records[i].Private = true
		}
	}
	return b
}

// Fixture returns the assembled fixture.
func (b *Builder) Fixture() dataset.Fixture { return b.fixture }

// Build creates the repository.
func (b *Builder) Build() (*dataset.Repository, error) {
	return dataset.New(b.fixture)
}

// MustBuild creates the repository and fails the test on error.
func (b *Builder) MustBuild(tb testing.TB) *dataset.Repository {
	tb.Helper()
	repo, err := b.Build()
	if err != nil {
		tb.Fatalf("testutil: build fixture: %v", err)
	}
	return repo
}
