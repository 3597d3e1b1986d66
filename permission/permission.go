// Package permission decides which datatypes and records an actor may see
// during a search.
package permission

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hupe1980/facetree/model"
	"github.com/hupe1980/facetree/recordset"
	"github.com/hupe1980/facetree/schema"
)

// Grant holds the raw permission flags of an actor on one datatype.
type Grant struct {
	// View allows seeing the datatype and its public records.
	View bool
	// ViewRecords allows seeing the non-public records as well.
	ViewRecords bool
}

// Grants holds every permission flag of an actor.
type Grants struct {
	// SuperAdmin implicitly holds every grant on every datatype.
	SuperAdmin bool
	Datatypes  map[model.DatatypeID]Grant
}

// For returns the effective grant on a datatype.
func (g Grants) For(dt model.DatatypeID) Grant {
	if g.SuperAdmin {
		return Grant{View: true, ViewRecords: true}
	}
	return g.Datatypes[dt]
}

// Visibility is the outcome of a permission check on one datatype.
type Visibility struct {
	CanViewDatatype bool
	CanViewRecords  bool
	// Hidden holds the non-public record ids the actor may not see.
	// It is empty unless CanViewDatatype is true and CanViewRecords is false.
	Hidden *recordset.Set
}

// Oracle reports the non-public records of a datatype.
type Oracle interface {
	NonPublicRecords(ctx context.Context, dt model.DatatypeID) (*recordset.Set, error)
}

// Filter computes per-datatype visibility.
type Filter struct {
	schema schema.Schema
	oracle Oracle
	logger *slog.Logger
}

// NewFilter creates a Filter. A nil logger discards output.
func NewFilter(s schema.Schema, oracle Oracle, logger *slog.Logger) *Filter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Filter{schema: s, oracle: oracle, logger: logger.With("component", "permission")}
}

// Compute decides the visibility of dt for the actor holding grants.
//
// A datatype is viewable with an explicit view grant, for a super-admin, or
// when it is public. Non-public records are fetched only when the datatype is
// viewable, record-level view is not granted and the datatype's records are
// not globally public.
func (f *Filter) Compute(ctx context.Context, dt model.DatatypeID, grants Grants) (Visibility, error) {
	d, err := f.schema.Datatype(ctx, dt)
	if err != nil {
		return Visibility{}, fmt.Errorf("permission: resolve datatype %d: %w", dt, err)
	}

	g := grants.For(dt)
	vis := Visibility{
		CanViewDatatype: g.View || d.Public,
		CanViewRecords:  g.ViewRecords || d.RecordsPublic,
		Hidden:          recordset.New(),
	}
	if !vis.CanViewDatatype || vis.CanViewRecords {
		return vis, nil
	}

	hidden, err := f.oracle.NonPublicRecords(ctx, dt)
	if err != nil {
		return Visibility{}, fmt.Errorf("permission: non-public records of datatype %d: %w", dt, err)
	}
	if hidden != nil {
		vis.Hidden = hidden
	}
	f.logger.DebugContext(ctx, "records hidden", "datatype", dt, "count", vis.Hidden.Len())
	return vis, nil
}
