// Package schema describes the datatype relation graph and the ports through
// which a search reads it.
//
// Schema and RecordSource are implemented outside the search core (a
// database, a cache, or the in-memory dataset package). The core treats what
// they return as authoritative and never caches it.
package schema

import (
	"context"

	"github.com/hupe1980/facetree/model"
)

// Datatype describes one schema node.
type Datatype struct {
	ID   model.DatatypeID
	Name string

	// Public datatypes are viewable by everyone.
	Public bool
	// RecordsPublic marks every record of the datatype as public, so no
	// per-record visibility lookup is needed.
	RecordsPublic bool

	// Children are the datatypes owned by this one.
	Children []model.DatatypeID
	// Links are the datatypes this one links to.
	Links []model.DatatypeID

	// TemplateID is the template this datatype was derived from, zero if none.
	TemplateID model.DatatypeID
	// IsTemplate marks an abstract template datatype.
	IsTemplate bool
}

// Schema resolves datatypes and their relations.
type Schema interface {
	// Datatype returns the datatype with the given id or an error wrapping
	// model.ErrNotFound.
	Datatype(ctx context.Context, id model.DatatypeID) (*Datatype, error)

	// LinkedFrom returns the datatypes linking to id.
	LinkedFrom(ctx context.Context, id model.DatatypeID) ([]model.DatatypeID, error)

	// Derived returns the concrete datatypes derived from a template.
	Derived(ctx context.Context, templateID model.DatatypeID) ([]model.DatatypeID, error)
}

// RecordSource enumerates the records of a datatype together with their
// ancestors.
type RecordSource interface {
	// ListRecords returns every record of dt keyed by id.
	//
	// For RelationTop the ancestors are empty. For RelationChild each record
	// maps to its single parent record. For RelationLink each record maps to
	// the records linking to it (Forward) or to the records it links to
	// (Inverse).
	ListRecords(ctx context.Context, dt model.DatatypeID, rel model.Relation, dir model.Direction) (map[model.RecordID]model.Ancestors, error)
}
