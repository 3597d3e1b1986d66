package facet

import (
	"github.com/hupe1980/facetree/model"
	"github.com/hupe1980/facetree/recordset"
)

// TermResult is the outcome of one term, or of a combined facet.
type TermResult struct {
	IDs   *recordset.Set
	Guard bool
}

// Combine merges term results with the facet's merge type.
//
// OR unions the ids and is guarded if any term is guarded.
//
// AND intersects the ids. A single-term AND facet keeps its term's guard.
// With several terms the facet is guarded only if every term is: a record
// without a value must satisfy each term to satisfy the facet. The guard
// therefore never depends on term order, unlike taking the first term's
// guard.
//
// Combining nothing yields an empty, unguarded result.
func Combine(results []TermResult, merge MergeType) TermResult {
	if len(results) == 0 {
		return TermResult{IDs: recordset.New()}
	}

	out := TermResult{IDs: results[0].IDs.Clone(), Guard: results[0].Guard}
	for _, r := range results[1:] {
		switch merge {
		case Or:
			out.IDs.Or(r.IDs)
			out.Guard = out.Guard || r.Guard
		default:
			out.IDs.And(r.IDs)
			out.Guard = out.Guard && r.Guard
		}
	}
	return out
}

// FacetResult is the combined result of one advanced facet.
type FacetResult struct {
	ID string
	TermResult
}

// Results holds every facet result of a search, indexed by datatype.
type Results struct {
	// Advanced holds one combined result per advanced facet.
	Advanced map[model.DatatypeID][]FacetResult
	// General holds, per datatype, the OR of all facets of each token.
	General map[model.DatatypeID]map[int]TermResult
	// Tokens lists the general-search token numbers.
	Tokens []int
}

// NewResults creates empty results.
func NewResults() *Results {
	return &Results{
		Advanced: make(map[model.DatatypeID][]FacetResult),
		General:  make(map[model.DatatypeID]map[int]TermResult),
	}
}

// AdvancedFor returns the advanced facet results of a datatype.
func (r *Results) AdvancedFor(dt model.DatatypeID) []TermResult {
	facets := r.Advanced[dt]
	if len(facets) == 0 {
		return nil
	}
	out := make([]TermResult, len(facets))
	for i, f := range facets {
		out[i] = f.TermResult
	}
	return out
}

// Targeted reports whether a datatype carries advanced facets.
func (r *Results) Targeted(dt model.DatatypeID) bool {
	return len(r.Advanced[dt]) > 0
}

func (r *Results) addGeneral(dt model.DatatypeID, token int, res TermResult) {
	byToken, ok := r.General[dt]
	if !ok {
		byToken = make(map[int]TermResult)
		r.General[dt] = byToken
	}
	if prev, ok := byToken[token]; ok {
		res = Combine([]TermResult{prev, res}, Or)
	}
	byToken[token] = res
}

// Rekey moves the advanced results addressed at a template datatype onto
// every derived datatype. Record ids are global, so each derived datatype
// receives the full set and the merge restricts it to its own records.
func (r *Results) Rekey(template model.DatatypeID, derived []model.DatatypeID) {
	facets, ok := r.Advanced[template]
	if !ok {
		return
	}
	delete(r.Advanced, template)
	for _, dt := range derived {
		for _, f := range facets {
			r.Advanced[dt] = append(r.Advanced[dt], FacetResult{
				ID:         f.ID,
				TermResult: TermResult{IDs: f.IDs.Clone(), Guard: f.Guard},
			})
		}
	}
}
