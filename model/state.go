package model

import (
	"maps"
	"slices"
)

// Packed bit values of a State, as rendered by State.Bits.
const (
	BitDoesntMatter uint8 = 0
	BitMatchesGen   uint8 = 1 << 0
	BitMatchesAdv   uint8 = 1 << 1
	BitMatchesBoth        = BitMatchesAdv | BitMatchesGen
	BitMustMatch    uint8 = 1 << 2
	BitCantView     uint8 = 1 << 3
)

// State is the per-search state of a single record.
//
// The zero value is DOESNT_MATTER: the record is visible, not targeted by any
// search term and has not matched anything yet.
type State struct {
	Hidden     bool
	MustMatch  bool
	MatchedAdv bool
	MatchedGen bool
}

// Visible reports whether the actor may see the record.
func (s State) Visible() bool { return !s.Hidden }

// Excluded reports whether the record was targeted by advanced search and failed to match.
func (s State) Excluded() bool { return s.MustMatch && !s.MatchedAdv }

// Matched reports whether the record is a final match. Hidden records never match.
func (s State) Matched() bool { return !s.Hidden && s.MatchedAdv && s.MatchedGen }

// Mark records a match of the given kind. When the search does not
// differentiate between advanced and general search, a match of either kind
// sets both bits.
func (s *State) Mark(kind SearchKind, differentiate bool) {
	if !differentiate {
		s.MatchedAdv = true
		s.MatchedGen = true
		return
	}
	if kind == General {
		s.MatchedGen = true
		return
	}
	s.MatchedAdv = true
}

// Bits renders the state in its packed four-bit form.
func (s State) Bits() uint8 {
	var b uint8
	if s.Hidden {
		b |= BitCantView
	}
	if s.MustMatch {
		b |= BitMustMatch
	}
	if s.MatchedAdv {
		b |= BitMatchesAdv
	}
	if s.MatchedGen {
		b |= BitMatchesGen
	}
	return b
}

// StateFromBits is the inverse of State.Bits.
func StateFromBits(b uint8) State {
	return State{
		Hidden:     b&BitCantView != 0,
		MustMatch:  b&BitMustMatch != 0,
		MatchedAdv: b&BitMatchesAdv != 0,
		MatchedGen: b&BitMatchesGen != 0,
	}
}

// StateMap maps every record reachable from the search roots to its State.
//
// A StateMap belongs to exactly one search and is not safe for concurrent use.
type StateMap struct {
	states map[RecordID]State
}

// NewStateMap creates an empty StateMap sized for n records.
func NewStateMap(n int) *StateMap {
	return &StateMap{states: make(map[RecordID]State, n)}
}

// Seed sets the initial state of a record. Seeding an already seeded record
// keeps the more restrictive flags of both.
func (m *StateMap) Seed(id RecordID, s State) {
	if prev, ok := m.states[id]; ok {
		s.Hidden = s.Hidden || prev.Hidden
		s.MustMatch = s.MustMatch || prev.MustMatch
	}
	m.states[id] = s
}

// Lookup returns the state of a record and whether it exists.
func (m *StateMap) Lookup(id RecordID) (State, bool) {
	s, ok := m.states[id]
	return s, ok
}

// MustGet returns the state of a record.
//
// A record missing from the map means the topology and the state map disagree
// about the record universe; MustGet panics with an *InconsistencyError.
func (m *StateMap) MustGet(id RecordID) State {
	s, ok := m.states[id]
	if !ok {
		panic(&InconsistencyError{Record: id})
	}
	return s
}

// Mark records a match of the given kind on a visible record and reports
// whether the record was visible. Hidden records are left untouched.
func (m *StateMap) Mark(id RecordID, kind SearchKind, differentiate bool) bool {
	s := m.MustGet(id)
	if s.Hidden {
		return false
	}
	s.Mark(kind, differentiate)
	m.states[id] = s
	return true
}

// Len returns the number of records in the map.
func (m *StateMap) Len() int { return len(m.states) }

// IDs returns the record ids in ascending order.
func (m *StateMap) IDs() []RecordID {
	return slices.Sorted(maps.Keys(m.states))
}

// Clone returns a deep copy of the map.
func (m *StateMap) Clone() *StateMap {
	return &StateMap{states: maps.Clone(m.states)}
}

// Equal reports whether both maps hold identical states for identical records.
func (m *StateMap) Equal(other *StateMap) bool {
	return maps.Equal(m.states, other.states)
}

// Bits returns the packed form of every state, for explain output.
func (m *StateMap) Bits() map[RecordID]uint8 {
	out := make(map[RecordID]uint8, len(m.states))
	for id, s := range m.states {
		out[id] = s.Bits()
	}
	return out
}
