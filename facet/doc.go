// Package facet describes search criteria and turns them into per-datatype
// match sets.
//
// A Term is one condition on one field (or, for general search, on every
// text field of a datatype). A Facet groups terms that are combined with AND
// or OR into a single TermResult. Advanced facets are combined by AND across
// facets later, during the merge; general facets carry a token number and are
// OR-ed per token.
//
// The package owns the boundary to the datastore: a Matcher runs one term and
// returns the matching record ids plus a guard flag. The guard is true when
// the term would also match a record that has no value at all, which is how
// the merge engine learns that ancestors without any descendant of the
// targeted datatype satisfy the condition.
//
// Runner executes every term of a Criteria concurrently under the limits of a
// resource controller. CachedMatcher memoizes term results in a two-tier cache
// (in-memory LRU and an optional blob store) with explicit invalidation hooks.
package facet
