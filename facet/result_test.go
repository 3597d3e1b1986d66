package facet

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hupe1980/facetree/model"
	"github.com/hupe1980/facetree/recordset"
)

func TestCombine(t *testing.T) {
	a := TermResult{IDs: recordset.New(1, 2, 3), Guard: true}
	b := TermResult{IDs: recordset.New(2, 3, 4), Guard: false}
	c := TermResult{IDs: recordset.New(3, 5), Guard: true}

	t.Run("or", func(t *testing.T) {
		got := Combine([]TermResult{a, b}, Or)
		assert.Equal(t, []model.RecordID{1, 2, 3, 4}, got.IDs.ToSlice())
		assert.True(t, got.Guard)
	})

	t.Run("and", func(t *testing.T) {
		got := Combine([]TermResult{a, b, c}, And)
		assert.Equal(t, []model.RecordID{3}, got.IDs.ToSlice())
		assert.False(t, got.Guard)
	})

	t.Run("and all guarded", func(t *testing.T) {
		got := Combine([]TermResult{a, c}, And)
		assert.True(t, got.Guard)
	})

	t.Run("and guard ignores term order", func(t *testing.T) {
		for _, terms := range [][]TermResult{{a, b}, {b, a}, {a, b, c}, {c, b, a}} {
			assert.False(t, Combine(terms, And).Guard)
		}
		assert.True(t, Combine([]TermResult{c, a}, And).Guard)
	})

	t.Run("single term keeps guard", func(t *testing.T) {
		got := Combine([]TermResult{a}, And)
		assert.True(t, got.Guard)
		assert.Equal(t, 3, got.IDs.Len())
	})

	t.Run("order independent", func(t *testing.T) {
		x := Combine([]TermResult{a, b, c}, Or)
		y := Combine([]TermResult{c, b, a}, Or)
		assert.True(t, x.IDs.Equal(y.IDs))
		assert.Equal(t, x.Guard, y.Guard)
	})

	t.Run("empty", func(t *testing.T) {
		got := Combine(nil, And)
		assert.True(t, got.IDs.IsEmpty())
		assert.False(t, got.Guard)
	})

	t.Run("inputs untouched", func(t *testing.T) {
		_ = Combine([]TermResult{a, b}, And)
		assert.Equal(t, 3, a.IDs.Len())
	})
}

func TestResults_Rekey(t *testing.T) {
	r := NewResults()
	r.Advanced[100] = []FacetResult{{ID: "tpl", TermResult: TermResult{IDs: recordset.New(1, 7), Guard: true}}}

	r.Rekey(100, []model.DatatypeID{3, 4})

	assert.False(t, r.Targeted(100))
	assert.True(t, r.Targeted(3))
	assert.True(t, r.Targeted(4))
	assert.Equal(t, []model.RecordID{1, 7}, r.AdvancedFor(4)[0].IDs.ToSlice())
	assert.True(t, r.AdvancedFor(3)[0].Guard)

	// Sets are independent copies.
	r.Advanced[3][0].IDs.Add(9)
	assert.False(t, r.Advanced[4][0].IDs.Contains(9))
}
