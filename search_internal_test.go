package facetree

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/facetree/model"
)

func TestRecoverInconsistency(t *testing.T) {
	err := recoverInconsistency(func() {
		panic(&model.InconsistencyError{Record: 5, Datatype: 1})
	})
	require.ErrorIs(t, err, ErrInconsistentState)
	assert.EqualError(t, err, "record 5 of datatype 1 has no search state")

	assert.NoError(t, recoverInconsistency(func() {}))

	assert.PanicsWithError(t, "boom", func() {
		_ = recoverInconsistency(func() { panic(errors.New("boom")) })
	})
}

func TestTranslateError(t *testing.T) {
	assert.Nil(t, translateError(nil))

	err := translateError(&model.InvalidTermError{Facet: "f", Field: 3, Reason: "missing value"})
	var ite *ErrInvalidTerm
	require.ErrorAs(t, err, &ite)
	assert.Equal(t, model.FieldID(3), ite.Field)
	assert.ErrorIs(t, err, ErrInvalidSearchStructure)

	plain := errors.New("plain")
	assert.Same(t, plain, translateError(plain))
}
