// Package model defines the core types shared by every stage of a search.
//
// # Identity Types
//
//   - RecordID: identifier of a single record (uint32)
//   - DatatypeID: identifier of a datatype, the schema node records belong to (uint32)
//   - FieldID: identifier of a searchable field of a datatype (uint32)
//   - Ancestors: the owning record of a child, or the linking records of a linked record
//
// # Record State
//
// Every record reachable from the search roots carries a State for the
// lifetime of one search:
//
//	Hidden      CANT_VIEW    the actor may not see the record
//	MustMatch   MUST_MATCH   the record's datatype is targeted by advanced search
//	MatchedAdv  MATCHES_ADV  the record satisfied the advanced portion
//	MatchedGen  MATCHES_GEN  the record satisfied the general portion
//
// A StateMap is created per search, seeded by the topology builder, mutated
// only by the merge engine and read-only afterwards.
package model
