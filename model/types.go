package model

import (
	"fmt"
	"slices"
)

// RecordID identifies a record.
type RecordID uint32

// DatatypeID identifies a datatype.
type DatatypeID uint32

// FieldID identifies a searchable field.
type FieldID uint32

// Ancestors lists the records a record hangs from.
//
// It is empty for a top-level record, holds exactly one id for a child
// relation and a set of ids for a link relation. Linking is the only
// relation where a record may have more than one ancestor.
type Ancestors []RecordID

// Contains reports whether id is one of the ancestors.
func (a Ancestors) Contains(id RecordID) bool {
	return slices.Contains(a, id)
}

// Union returns a sorted, de-duplicated union of a and b.
func (a Ancestors) Union(b Ancestors) Ancestors {
	if len(b) == 0 {
		return a
	}
	out := make(Ancestors, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	slices.Sort(out)
	return slices.Compact(out)
}

// Relation describes how a datatype hangs from its parent in the search tree.
type Relation uint8

const (
	// RelationTop marks a search root.
	RelationTop Relation = iota
	// RelationChild marks a datatype owned by its parent; each record has one ancestor.
	RelationChild
	// RelationLink marks a linked datatype; each record may have many ancestors.
	RelationLink
)

func (r Relation) String() string {
	switch r {
	case RelationTop:
		return "top"
	case RelationChild:
		return "child"
	case RelationLink:
		return "link"
	default:
		return fmt.Sprintf("relation(%d)", uint8(r))
	}
}

// Direction selects which side of a link relation is treated as the ancestor.
type Direction uint8

const (
	// Forward treats the linking record as the ancestor of the linked record.
	Forward Direction = iota
	// Inverse treats the linked record as the ancestor of the records linking to it,
	// which allows searching upwards through links.
	Inverse
)

func (d Direction) String() string {
	if d == Inverse {
		return "inverse"
	}
	return "forward"
}

// SearchKind distinguishes the two kinds of search criteria.
type SearchKind uint8

const (
	// Advanced search is scoped to named fields and combined by AND.
	Advanced SearchKind = iota
	// General search is free text, OR across fields and AND across tokens at the top level.
	General
)

func (k SearchKind) String() string {
	if k == General {
		return "general"
	}
	return "advanced"
}
