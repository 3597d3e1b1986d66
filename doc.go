// Package facetree composes permission-aware search results over a
// hierarchy of datatypes.
//
// A search starts at one or more root datatypes and reaches every child and
// linked datatype below them. Records the actor may not see are masked, and
// every search term is evaluated once by a Matcher. The per-term record sets
// are then merged bottom-up: a top-level record matches when its own fields
// and its descendants together satisfy every advanced facet and every
// general-search token.
//
// # Quick Start
//
//	repo, _ := dataset.Load("fixture.json")
//	eng, _ := facetree.New(repo)
//	defer eng.Close()
//
//	res, _ := eng.Search(ctx, facetree.Request{
//	    Roots: []model.DatatypeID{docs},
//	    Criteria: facet.Criteria{
//	        Advanced: []facet.Facet{{
//	            ID:       "section-body",
//	            Datatype: sections,
//	            Terms: []facet.Term{{
//	                Datatype: sections, Field: body,
//	                Kind: facet.Text, Op: facet.NotEqual, Value: "draft",
//	            }},
//	        }},
//	        General: []facet.Facet{facet.GeneralFacet(0, "report")},
//	    },
//	})
//	fmt.Println(res.TopLevel)
//
// # Advanced and General Search
//
// Advanced facets are combined by AND across the record's own fields and
// across descendant datatypes. General-search facets are OR-ed within a
// token and AND-ed across tokens only at the top level, so different
// descendants may satisfy different tokens.
//
// Terms that also match an absent value (for example NotEqual) are guarded:
// an ancestor without any descendant of the targeted datatype satisfies them.
//
// # Caching
//
// Term results are cached in memory (WithCacheSize) and optionally in a blob
// store (WithBlobStore), such as a local directory, S3 or MinIO. Call
// Engine.Invalidate when records change.
//
// # Explain
//
// Engine.Explain returns the packed state of every record: 8 = hidden,
// 4 = must match, 2 = matched advanced, 1 = matched general.
package facetree
