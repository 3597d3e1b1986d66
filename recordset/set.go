// Package recordset provides the record id set used by every search stage.
//
// Set wraps a 32-bit Roaring bitmap. Facet matches, hidden record ids and
// ancestor projections are all Sets, so AND/OR merges are bitmap operations.
package recordset

import (
	"bytes"
	"io"
	"iter"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/facetree/model"
)

// Set is a set of record ids.
//
// A nil *Set behaves as an empty set for all read-only methods.
type Set struct {
	rb *roaring.Bitmap
}

// New creates a set holding ids.
func New(ids ...model.RecordID) *Set {
	s := &Set{rb: roaring.New()}
	for _, id := range ids {
		s.rb.Add(uint32(id))
	}
	return s
}

// Add adds a record id to the set.
func (s *Set) Add(id model.RecordID) {
	s.rb.Add(uint32(id))
}

// Contains checks if a record id is in the set.
func (s *Set) Contains(id model.RecordID) bool {
	if s == nil {
		return false
	}
	return s.rb.Contains(uint32(id))
}

// IsEmpty returns true if the set is empty.
func (s *Set) IsEmpty() bool {
	return s == nil || s.rb.IsEmpty()
}

// Len returns the number of ids in the set.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return int(s.rb.GetCardinality())
}

// Clone returns a deep copy of the set. Cloning nil yields an empty set.
func (s *Set) Clone() *Set {
	if s == nil {
		return New()
	}
	return &Set{rb: s.rb.Clone()}
}

// And intersects the set with other in place.
func (s *Set) And(other *Set) {
	if other == nil {
		s.rb.Clear()
		return
	}
	s.rb.And(other.rb)
}

// Or unions other into the set in place.
func (s *Set) Or(other *Set) {
	if other == nil {
		return
	}
	s.rb.Or(other.rb)
}

// AndNot removes every id of other from the set in place.
func (s *Set) AndNot(other *Set) {
	if other == nil {
		return
	}
	s.rb.AndNot(other.rb)
}

// Equal reports whether both sets hold the same ids.
func (s *Set) Equal(other *Set) bool {
	if s.IsEmpty() || other.IsEmpty() {
		return s.IsEmpty() && other.IsEmpty()
	}
	return s.rb.Equals(other.rb)
}

// All iterates the ids in ascending order.
func (s *Set) All() iter.Seq[model.RecordID] {
	return func(yield func(model.RecordID) bool) {
		if s == nil {
			return
		}
		it := s.rb.Iterator()
		for it.HasNext() {
			if !yield(model.RecordID(it.Next())) {
				return
			}
		}
	}
}

// ToSlice returns the ids in ascending order, or nil for an empty set.
func (s *Set) ToSlice() []model.RecordID {
	if s.IsEmpty() {
		return nil
	}
	out := make([]model.RecordID, 0, s.Len())
	for id := range s.All() {
		out = append(out, id)
	}
	return out
}

// Union returns a new set holding the ids of every input set.
func Union(sets ...*Set) *Set {
	out := New()
	for _, s := range sets {
		out.Or(s)
	}
	return out
}

// Intersect returns a new set holding the ids common to every input set.
// The intersection of zero sets is empty.
func Intersect(sets ...*Set) *Set {
	if len(sets) == 0 {
		return New()
	}
	out := sets[0].Clone()
	for _, s := range sets[1:] {
		if out.IsEmpty() {
			break
		}
		out.And(s)
	}
	return out
}

// WriteTo writes the set in the portable Roaring format.
func (s *Set) WriteTo(w io.Writer) (int64, error) {
	return s.rb.WriteTo(w)
}

// ReadFrom replaces the set with one read in the portable Roaring format.
func (s *Set) ReadFrom(r io.Reader) (int64, error) {
	if s.rb == nil {
		s.rb = roaring.New()
	}
	return s.rb.ReadFrom(r)
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (s *Set) MarshalBinary() ([]byte, error) {
	if s == nil {
		s = New()
	}
	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (s *Set) UnmarshalBinary(data []byte) error {
	out := New()
	if _, err := out.ReadFrom(bytes.NewReader(data)); err != nil {
		return err
	}
	s.rb = out.rb
	return nil
}
