package topology_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/facetree/dataset"
	"github.com/hupe1980/facetree/model"
	"github.com/hupe1980/facetree/permission"
	"github.com/hupe1980/facetree/schema"
	"github.com/hupe1980/facetree/testutil"
	"github.com/hupe1980/facetree/topology"
)

func newBuilder(repo *dataset.Repository) *topology.Builder {
	return topology.NewBuilder(repo, repo, permission.NewFilter(repo, repo, nil), nil)
}

func targeting(dts ...model.DatatypeID) func(*schema.Datatype) bool {
	return func(d *schema.Datatype) bool {
		for _, dt := range dts {
			if d.ID == dt {
				return true
			}
		}
		return false
	}
}

func TestBuild(t *testing.T) {
	repo := testutil.DocSectionsBuilder("intro", "body", "body").
		Private(testutil.S2).
		MustBuild(t)

	topo, states, err := newBuilder(repo).Build(context.Background(), topology.Request{
		Roots:    []model.DatatypeID{testutil.Doc},
		Targeted: targeting(testutil.Section),
	})
	require.NoError(t, err)

	assert.Equal(t, []model.DatatypeID{testutil.Doc}, topo.Roots)
	assert.Equal(t, []model.DatatypeID{testutil.Doc, testutil.Section}, topo.Datatypes())

	doc, ok := topo.Node(testutil.Doc)
	require.True(t, ok)
	assert.Equal(t, []model.DatatypeID{testutil.Section}, doc.Children)
	assert.Equal(t, []model.RecordID{testutil.D1, testutil.D2, testutil.D3}, doc.Order())
	assert.True(t, doc.HasRelation(model.RelationTop))
	assert.False(t, doc.HasRelation(model.RelationLink))

	sec, ok := topo.Node(testutil.Section)
	require.True(t, ok)
	assert.Equal(t, model.Ancestors{testutil.D2}, sec.Records[testutil.S3])

	assert.Equal(t, 6, states.Len())
	assert.Equal(t, model.State{}, states.MustGet(testutil.D1))
	assert.Equal(t, model.State{MustMatch: true}, states.MustGet(testutil.S1))
	assert.Equal(t, model.State{Hidden: true}, states.MustGet(testutil.S2))

	assert.Equal(t, []model.RecordID{testutil.D1, testutil.D2, testutil.D3}, topo.TopLevel())
}

func TestBuild_RecordGrantRevealsPrivate(t *testing.T) {
	repo := testutil.DocSectionsBuilder("intro", "body", "body").
		Private(testutil.S2).
		MustBuild(t)

	_, states, err := newBuilder(repo).Build(context.Background(), topology.Request{
		Roots: []model.DatatypeID{testutil.Doc},
		Grants: permission.Grants{Datatypes: map[model.DatatypeID]permission.Grant{
			testutil.Section: {View: true, ViewRecords: true},
		}},
	})
	require.NoError(t, err)
	assert.True(t, states.MustGet(testutil.S2).Visible())
}

func TestBuild_SkipsUnviewableDatatype(t *testing.T) {
	repo := testutil.NewBuilder().
		Datatype(testutil.Doc, "doc", testutil.Public(), testutil.Children(testutil.Section)).
		Datatype(testutil.Section, "section").
		Record(testutil.D1, testutil.Doc, 0).
		Record(testutil.S1, testutil.Section, testutil.D1).
		MustBuild(t)

	topo, states, err := newBuilder(repo).Build(context.Background(), topology.Request{
		Roots: []model.DatatypeID{testutil.Doc},
	})
	require.NoError(t, err)

	_, ok := topo.Node(testutil.Section)
	assert.False(t, ok)
	doc, _ := topo.Node(testutil.Doc)
	assert.Empty(t, doc.Children)
	_, ok = states.Lookup(testutil.S1)
	assert.False(t, ok)
}

func TestBuild_Diamond(t *testing.T) {
	repo := testutil.Diamond(t)

	topo, states, err := newBuilder(repo).Build(context.Background(), topology.Request{
		Roots: []model.DatatypeID{testutil.DiamondA},
	})
	require.NoError(t, err)

	assert.Equal(t, 4, topo.Len())
	b, _ := topo.Node(testutil.DiamondB)
	c, _ := topo.Node(testutil.DiamondC)
	assert.Equal(t, []model.DatatypeID{testutil.DiamondD}, b.Links)
	assert.Equal(t, []model.DatatypeID{testutil.DiamondD}, c.Links)

	d, _ := topo.Node(testutil.DiamondD)
	assert.Equal(t, []model.RecordID{41, 42, 43}, d.Order())
	assert.Equal(t, 8, states.Len())

	own := topology.NewOwnership(topo)
	assert.Equal(t, []model.RecordID{41}, own.Descendants(21))
	assert.Equal(t, []model.RecordID{21, 31}, own.Descendants(1))
	assert.Empty(t, own.Descendants(41))
}

func TestBuild_Inverse(t *testing.T) {
	repo := testutil.Diamond(t)

	topo, _, err := newBuilder(repo).Build(context.Background(), topology.Request{
		Roots:     []model.DatatypeID{testutil.DiamondD},
		Direction: model.Inverse,
	})
	require.NoError(t, err)

	d, _ := topo.Node(testutil.DiamondD)
	assert.Equal(t, []model.DatatypeID{testutil.DiamondB, testutil.DiamondC}, d.Links)

	a, ok := topo.Node(testutil.DiamondA)
	require.True(t, ok)
	assert.Equal(t, model.Ancestors{21, 31}, a.Records[1])

	own := topology.NewOwnership(topo)
	assert.Equal(t, []model.RecordID{21}, own.Descendants(41))
	assert.Equal(t, []model.RecordID{1}, own.Descendants(21))
	assert.Equal(t, []model.RecordID{1}, own.Descendants(31))
}

func TestBuild_Cycle(t *testing.T) {
	repo := testutil.NewBuilder().
		Datatype(1, "a", testutil.Public(), testutil.Links(2)).
		Datatype(2, "b", testutil.Public(), testutil.Links(1)).
		Record(1, 1, 0).Link(1, 2).
		Record(2, 2, 0).Link(2, 1).
		MustBuild(t)

	topo, states, err := newBuilder(repo).Build(context.Background(), topology.Request{
		Roots: []model.DatatypeID{1},
	})
	require.NoError(t, err)

	a, _ := topo.Node(1)
	b, _ := topo.Node(2)
	assert.Equal(t, []model.DatatypeID{2}, a.Links)
	assert.Equal(t, []model.DatatypeID{1}, b.Links)
	assert.True(t, a.HasRelation(model.RelationTop))
	assert.True(t, a.HasRelation(model.RelationLink))
	assert.False(t, b.HasRelation(model.RelationChild))
	assert.Equal(t, model.Ancestors{2}, a.Records[1])
	assert.Equal(t, 2, states.Len())
}

func TestBuild_Canceled(t *testing.T) {
	repo := testutil.DocSections(t, "a", "b", "c")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := newBuilder(repo).Build(ctx, topology.Request{Roots: []model.DatatypeID{testutil.Doc}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuild_UnknownRoot(t *testing.T) {
	repo := testutil.DocSections(t, "a", "b", "c")

	_, _, err := newBuilder(repo).Build(context.Background(), topology.Request{Roots: []model.DatatypeID{99}})
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestResolveTemplate(t *testing.T) {
	repo := testutil.NewBuilder().
		Datatype(10, "item", testutil.Template()).
		Datatype(11, "task", testutil.DerivedFrom(10)).
		Datatype(12, "bug", testutil.DerivedFrom(10)).
		MustBuild(t)
	b := newBuilder(repo)

	roots, err := b.ResolveTemplate(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, []model.DatatypeID{11, 12}, roots)

	_, err = b.ResolveTemplate(context.Background(), 11)
	var nf *model.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "template", nf.Kind)
}
