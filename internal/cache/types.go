package cache

import (
	"context"

	"github.com/hupe1980/facetree/model"
)

// Kind separates key spaces.
type Kind uint8

const (
	KindUnknown  Kind = iota
	KindTerm          // advanced-search term results
	KindGeneral       // general-search token results per datatype
	KindTemplate      // template terms fanned out across derived datatypes
)

// Key must be stable across processes.
type Key struct {
	Kind     Kind
	Datatype model.DatatypeID
	// Field is zero for entries not tied to a single field (general search).
	Field model.FieldID
	// Digest identifies the term or token that produced the entry.
	Digest uint64
}

// Cache is a byte-oriented cache for encoded term results.
// Returned slices must be treated as read-only.
type Cache interface {
	// Get returns a cached payload. ok=false if missing.
	Get(ctx context.Context, key Key) (b []byte, ok bool)
	// Set caches a payload. The caller must treat b as immutable afterwards.
	Set(ctx context.Context, key Key, b []byte)
	// Invalidate removes entries matching the predicate and returns how many were removed.
	Invalidate(predicate func(key Key) bool) int
	// Stats returns hit and miss counters.
	Stats() (hits, misses int64)
	// Close releases any resources.
	Close() error
}

// ByDatatype matches every entry of a datatype.
func ByDatatype(dt model.DatatypeID) func(Key) bool {
	return func(k Key) bool { return k.Datatype == dt }
}

// ByField matches entries that read a field of a datatype, plus that
// datatype's general-search entries, which read every field.
func ByField(dt model.DatatypeID, field model.FieldID) func(Key) bool {
	return func(k Key) bool {
		return k.Datatype == dt && (k.Field == field || k.Field == 0)
	}
}
