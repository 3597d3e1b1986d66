package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/facetree/dataset"
)

func TestDocSections(t *testing.T) {
	repo := DocSections(t, "intro", "body", "body")

	assert.Equal(t, []uint32{1, 2, 3}, ids(repo.Records(Doc)))
	assert.Equal(t, []uint32{11, 12, 13}, ids(repo.Records(Section)))
}

func TestDiamond(t *testing.T) {
	repo := Diamond(t)
	assert.Len(t, repo.Records(DiamondD), 3)
}

func TestBuilderDanglingParent(t *testing.T) {
	_, err := NewBuilder().
		Datatype(Doc, "doc", Children(Section)).
		Datatype(Section, "section").
		Record(11, Section, 99).
		Build()
	require.ErrorIs(t, err, dataset.ErrInvalidFixture)
}

func TestZipf(t *testing.T) {
	rng := NewRNG(4711)
	for range 100 {
		v := rng.Zipf(5, 1.0)
		assert.GreaterOrEqual(t, v, 0)
		assert.Less(t, v, 5)
	}
	assert.Equal(t, 0, rng.Zipf(1, 1.0))
}

func TestReset(t *testing.T) {
	rng := NewRNG(4711)
	p1 := rng.Phrase(Words, 4)
	rng.Reset()
	p2 := rng.Phrase(Words, 4)

	assert.Equal(t, p1, p2)
	assert.Equal(t, int64(4711), rng.Seed())
}

func TestDocs(t *testing.T) {
	f := NewRNG(42).Docs(50, 4, Words)

	repo, err := dataset.New(f)
	require.NoError(t, err)
	assert.Len(t, repo.Records(Doc), 50)
	assert.Equal(t, f, NewRNG(42).Docs(50, 4, Words))
}

func ids[T ~uint32](in []T) []uint32 {
	out := make([]uint32, len(in))
	for i, v := range in {
		out[i] = uint32(v)
	}
	return out
}
