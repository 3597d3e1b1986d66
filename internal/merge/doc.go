// Package merge implements the bottom-up merge of facet results over a
// search topology.
//
// Merge walks the topology in post-order. At every node it:
//
//  1. restricts the node's own advanced facets to its own records and stops
//     early when their intersection over visible records is empty,
//  2. recurses into children, then links, and projects each descendant's
//     matches onto the ancestor records of this node,
//  3. promotes visible records without any visible descendant of a guarded
//     descendant datatype into that descendant's facet,
//  4. OR-merges the facets of routes that reach the same targeted datatype,
//  5. AND-combines all facets and marks the surviving records, and
//  6. OR-combines general-search matches per token, AND-ing the tokens only
//     at the top level.
//
// A datatype reached by several routes is merged once and its outcome is
// reused. Outcomes of subtrees that were cut at a cycle depend on the
// recursion path and are recomputed for every route.
//
// The engine mutates the request's state map and must not be shared between
// searches. A record referenced by the topology but missing from the state
// map is a programming error and panics with *model.InconsistencyError.
package merge
