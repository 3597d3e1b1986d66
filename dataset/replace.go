package dataset

import (
	"fmt"
	"slices"

	"github.com/cespare/xxhash/v2"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/hupe1980/facetree/model"
)

// Replace swaps the repository contents for f and returns the datatypes
// whose definition or records changed, in ascending order. Cached term
// results of those datatypes are stale afterwards. The templates of changed
// derived datatypes are reported as well, including templates of datatypes
// that f removes.
//
// f is validated first; on error the repository is left untouched.
func (r *Repository) Replace(f Fixture) ([]model.DatatypeID, error) {
	next, err := New(f)
	if err != nil {
		return nil, err
	}
	after, err := next.digests()
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	before, err := r.digests()
	if err != nil {
		return nil, err
	}
	templates := make(map[model.DatatypeID][]model.DatatypeID)
	for _, repo := range []*Repository{r, next} {
		for dt, spec := range repo.datatypes {
			if spec.TemplateID != 0 {
				templates[dt] = append(templates[dt], spec.TemplateID)
			}
		}
	}

	r.datatypes = next.datatypes
	r.fields = next.fields
	r.records = next.records
	r.byType = next.byType
	r.linkedBy = next.linkedBy

	var changed []model.DatatypeID
	for dt, d := range before {
		if a, ok := after[dt]; !ok || a != d {
			changed = append(changed, dt)
		}
	}
	for dt := range after {
		if _, ok := before[dt]; !ok {
			changed = append(changed, dt)
		}
	}
	for _, dt := range changed {
		changed = append(changed, templates[dt]...)
	}
	slices.Sort(changed)
	return slices.Compact(changed), nil
}

// digests hashes every datatype together with its records.
// The caller holds the lock or owns r exclusively.
func (r *Repository) digests() (map[model.DatatypeID]uint64, error) {
	out := make(map[model.DatatypeID]uint64, len(r.datatypes))
	for dt, spec := range r.datatypes {
		h := xxhash.New()
		enc := msgpack.NewEncoder(h)
		enc.SetSortMapKeys(true)
		if err := enc.Encode(spec); err != nil {
			return nil, fmt.Errorf("dataset: digest datatype %d: %w", dt, err)
		}
		for _, id := range r.byType[dt] {
			if err := enc.Encode(r.records[id]); err != nil {
				return nil, fmt.Errorf("dataset: digest record %d: %w", id, err)
			}
		}
		out[dt] = h.Sum64()
	}
	return out, nil
}
