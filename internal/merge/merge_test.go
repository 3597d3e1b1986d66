package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/facetree/facet"
	"github.com/hupe1980/facetree/model"
	"github.com/hupe1980/facetree/recordset"
	"github.com/hupe1980/facetree/topology"
)

type fixture struct {
	topo    *topology.Topology
	states  *model.StateMap
	results *facet.Results
}

func newFixture() *fixture {
	return &fixture{
		topo:    topology.New(model.Forward),
		states:  model.NewStateMap(0),
		results: facet.NewResults(),
	}
}

func (f *fixture) root(dt model.DatatypeID, ids ...model.RecordID) {
	records := make(map[model.RecordID]model.Ancestors, len(ids))
	for _, id := range ids {
		records[id] = nil
		f.states.Seed(id, model.State{})
	}
	f.topo.AddNode(dt, "", 0, model.RelationTop, records)
	f.topo.Roots = append(f.topo.Roots, dt)
}

func (f *fixture) add(parent, dt model.DatatypeID, rel model.Relation, records map[model.RecordID]model.Ancestors) {
	for id := range records {
		f.states.Seed(id, model.State{})
	}
	f.topo.AddNode(dt, "", 0, rel, records)
	f.topo.Connect(parent, dt, rel)
}

func (f *fixture) hide(ids ...model.RecordID) {
	for _, id := range ids {
		f.states.Seed(id, model.State{Hidden: true})
	}
}

// target adds an advanced facet on dt and seeds its visible records MUST_MATCH.
func (f *fixture) target(dt model.DatatypeID, guard bool, ids ...model.RecordID) {
	f.results.Advanced[dt] = append(f.results.Advanced[dt], facet.FacetResult{
		ID:         "f",
		TermResult: facet.TermResult{IDs: recordset.New(ids...), Guard: guard},
	})
	n, _ := f.topo.Node(dt)
	for _, id := range n.Order() {
		if s, _ := f.states.Lookup(id); s.Visible() {
			f.states.Seed(id, model.State{MustMatch: true})
		}
	}
}

func (f *fixture) general(dt model.DatatypeID, token int, ids ...model.RecordID) {
	if f.results.General[dt] == nil {
		f.results.General[dt] = make(map[int]facet.TermResult)
	}
	f.results.General[dt][token] = facet.TermResult{IDs: recordset.New(ids...)}
	for _, tok := range f.results.Tokens {
		if tok == token {
			return
		}
	}
	f.results.Tokens = append(f.results.Tokens, token)
}

func (f *fixture) run(differentiate bool) Stats {
	return New(f.topo, f.states, f.results, differentiate).Run()
}

func (f *fixture) matched(ids ...model.RecordID) []model.RecordID {
	var out []model.RecordID
	for _, id := range ids {
		if s, _ := f.states.Lookup(id); s.Matched() {
			out = append(out, id)
		}
	}
	return out
}

const (
	doc     model.DatatypeID = 1
	section model.DatatypeID = 2
)

// docs builds Doc(D1, D2, D3) with Sections S1, S2 under D1 and S3 under D2.
func docs() *fixture {
	f := newFixture()
	f.root(doc, 1, 2, 3)
	f.add(doc, section, model.RelationChild, map[model.RecordID]model.Ancestors{
		11: {1}, 12: {1}, 13: {2},
	})
	return f
}

func TestMerge_ScenarioA(t *testing.T) {
	f := docs()
	// Section text = "intro" matches S1 only.
	f.target(section, false, 11)

	f.run(false)

	assert.Equal(t, []model.RecordID{1}, f.matched(1, 2, 3))
	s, _ := f.states.Lookup(12)
	assert.True(t, s.Excluded())
	s, _ = f.states.Lookup(11)
	assert.Equal(t, model.BitMustMatch|model.BitMatchesBoth, s.Bits())
}

func TestMerge_ScenarioB_GuardPromotion(t *testing.T) {
	f := docs()
	// Section text != "intro" with S1="intro", S2="other", S3="body".
	f.target(section, true, 12, 13)

	stats := f.run(false)

	assert.Equal(t, []model.RecordID{1, 2, 3}, f.matched(1, 2, 3))
	assert.Equal(t, 1, stats.GuardPromotions)
	s, _ := f.states.Lookup(11)
	assert.True(t, s.Excluded())
}

func TestMerge_ShortCircuitKeepsGuard(t *testing.T) {
	f := docs()
	// Every section is "intro", so != "intro" matches nothing.
	f.target(section, true)

	stats := f.run(false)

	assert.Equal(t, 1, stats.ShortCircuits)
	assert.Equal(t, []model.RecordID{3}, f.matched(1, 2, 3))
}

func TestMerge_TargetedButEmptyBlocksParents(t *testing.T) {
	f := docs()
	f.target(section, false)

	f.run(false)

	assert.Empty(t, f.matched(1, 2, 3))
}

func TestMerge_UntargetedChildDoesNotBlock(t *testing.T) {
	f := docs()
	f.target(doc, false, 2, 3)

	f.run(false)

	assert.Equal(t, []model.RecordID{2, 3}, f.matched(1, 2, 3))
}

func TestMerge_VisibilityMasking(t *testing.T) {
	t.Run("hidden top-level record never matches", func(t *testing.T) {
		f := docs()
		f.hide(1)
		f.target(section, false, 11)

		f.run(false)

		assert.Empty(t, f.matched(1, 2, 3))
		s, _ := f.states.Lookup(1)
		assert.Equal(t, model.BitCantView, s.Bits())
	})

	t.Run("hidden descendant does not propagate", func(t *testing.T) {
		f := docs()
		f.hide(13)
		f.target(section, false, 11, 13)

		f.run(false)

		assert.Equal(t, []model.RecordID{1}, f.matched(1, 2, 3))
		s, _ := f.states.Lookup(13)
		assert.False(t, s.MatchedAdv)
	})

	t.Run("hidden descendant does not block promotion", func(t *testing.T) {
		f := docs()
		f.hide(13)
		f.target(section, true, 12)

		f.run(false)

		assert.Equal(t, []model.RecordID{1, 2, 3}, f.matched(1, 2, 3))
	})
}

func TestMerge_AndAcrossFacets(t *testing.T) {
	f := docs()
	f.target(section, false, 11, 13)
	f.target(section, false, 11, 12)

	f.run(false)

	assert.Equal(t, []model.RecordID{1}, f.matched(1, 2, 3))
	s, _ := f.states.Lookup(13)
	assert.True(t, s.Excluded())
}

func TestMerge_AndAcrossChildren(t *testing.T) {
	f := docs()
	const note model.DatatypeID = 3
	f.add(doc, note, model.RelationChild, map[model.RecordID]model.Ancestors{21: {2}, 22: {1}})
	f.target(section, false, 11, 13)
	f.target(note, false, 21)

	f.run(false)

	assert.Equal(t, []model.RecordID{2}, f.matched(1, 2, 3))
}

func TestMerge_GeneralOrWithinToken(t *testing.T) {
	f := docs()
	// S1 matches "x", S2 matches "y": D1 satisfies both tokens through different children.
	f.general(section, 0, 11)
	f.general(section, 1, 12)
	// D2 matches "x" itself but nothing matches "y".
	f.general(doc, 0, 2)

	f.run(false)

	assert.Equal(t, []model.RecordID{1}, f.matched(1, 2, 3))
	// Non-top records never receive general bits.
	s, _ := f.states.Lookup(11)
	assert.False(t, s.MatchedGen)
}

func TestMerge_Differentiate(t *testing.T) {
	f := docs()
	f.target(section, false, 11, 13)
	f.general(doc, 0, 1)
	f.general(section, 0, 13)
	f.general(doc, 1, 3)

	// Token 1 matches nothing under D1 or D2, so nothing is fully matched.
	f.run(true)

	s1, _ := f.states.Lookup(1)
	assert.True(t, s1.MatchedAdv)
	assert.False(t, s1.MatchedGen)
	s3, _ := f.states.Lookup(3)
	assert.False(t, s3.MatchedAdv)
	assert.Empty(t, f.matched(1, 2, 3))
}

func TestMerge_DifferentiateBoth(t *testing.T) {
	f := docs()
	f.target(section, false, 11, 13)
	f.general(section, 0, 13)

	f.run(true)

	assert.Equal(t, []model.RecordID{2}, f.matched(1, 2, 3))
	s1, _ := f.states.Lookup(1)
	assert.Equal(t, model.BitMatchesAdv, s1.Bits())
}

// multiPath builds A -> {B, C} -> D, all links.
//
//	A1 -> B1 -> D1
//	A1 -> C1 -> D2
//	A2 -> C2 -> D3
func multiPath() *fixture {
	const a, b, c, d model.DatatypeID = 1, 2, 3, 4
	f := newFixture()
	f.root(a, 1, 2)
	f.add(a, b, model.RelationLink, map[model.RecordID]model.Ancestors{11: {1}})
	f.add(a, c, model.RelationLink, map[model.RecordID]model.Ancestors{21: {1}, 22: {2}})
	f.add(b, d, model.RelationLink, map[model.RecordID]model.Ancestors{31: {11}, 32: {21}, 33: {22}})
	f.topo.Connect(c, d, model.RelationLink)
	return f
}

func TestMerge_MultiPathOneRouteSuffices(t *testing.T) {
	f := multiPath()
	f.target(4, false, 31)

	stats := f.run(false)

	assert.Equal(t, []model.RecordID{1}, f.matched(1, 2))
	assert.Equal(t, 1, stats.MultiPathMerges)
}

func TestMerge_MultiPathUntargetedIsNotMerged(t *testing.T) {
	f := multiPath()
	f.target(2, false, 11)

	stats := f.run(false)

	assert.Zero(t, stats.MultiPathMerges)
	assert.Equal(t, []model.RecordID{1}, f.matched(1, 2))
}

// diamonds stacks k diamonds J0 -> {Bi, Ci} -> Ji+1 with one record per
// datatype. Record ids equal datatype ids.
func diamonds(k int) (*fixture, model.DatatypeID) {
	f := newFixture()
	joint := model.DatatypeID(1)
	f.root(joint, model.RecordID(joint))
	for range k {
		b, c, next := joint+1, joint+2, joint+3
		up := model.Ancestors{model.RecordID(joint)}
		f.add(joint, b, model.RelationLink, map[model.RecordID]model.Ancestors{model.RecordID(b): up})
		f.add(joint, c, model.RelationLink, map[model.RecordID]model.Ancestors{model.RecordID(c): up})
		f.add(b, next, model.RelationLink, map[model.RecordID]model.Ancestors{
			model.RecordID(next): {model.RecordID(b), model.RecordID(c)},
		})
		f.topo.Connect(c, next, model.RelationLink)
		joint = next
	}
	return f, joint
}

func TestMerge_SharedDatatypeMergedOnce(t *testing.T) {
	for _, k := range []int{1, 4, 16, 24} {
		f, last := diamonds(k)
		f.target(last, false, model.RecordID(last))

		stats := f.run(false)

		assert.Equal(t, []model.RecordID{1}, f.matched(1), "k=%d", k)
		assert.Equal(t, 3*k+1, stats.Nodes, "k=%d", k)
		assert.Equal(t, k, stats.MultiPathMerges, "k=%d", k)
	}
}

func TestMerge_SharedShortCircuitedDatatype(t *testing.T) {
	f, last := diamonds(20)
	// Nothing matches, so the second joint short-circuits and only its shape is needed.
	f.target(4, false)
	f.target(last, true)

	stats := f.run(false)

	assert.Empty(t, f.matched(1))
	assert.Equal(t, 4, stats.Nodes)
	assert.Equal(t, 1, stats.ShortCircuits)
}

func TestMerge_RootReachedAsChild(t *testing.T) {
	const a, b model.DatatypeID = 1, 2
	f := newFixture()
	f.root(a, 1)
	f.add(a, b, model.RelationLink, map[model.RecordID]model.Ancestors{11: {1}})
	f.topo.Roots = append(f.topo.Roots, b)
	f.general(b, 0, 11)

	stats := f.run(false)

	assert.Equal(t, []model.RecordID{1, 11}, f.matched(1, 11))
	assert.Equal(t, 2, stats.Nodes)
}

func TestMerge_ChildAndLinkToSameDatatype(t *testing.T) {
	const a, b model.DatatypeID = 1, 2
	f := newFixture()
	f.root(a, 1, 2)
	f.add(a, b, model.RelationChild, map[model.RecordID]model.Ancestors{11: {1}})
	f.add(a, b, model.RelationLink, map[model.RecordID]model.Ancestors{12: {2}})
	f.target(b, false, 12)

	stats := f.run(false)

	assert.Equal(t, 1, stats.MultiPathMerges)
	assert.Equal(t, []model.RecordID{2}, f.matched(1, 2))
}

func TestMerge_Cycle(t *testing.T) {
	const a, b model.DatatypeID = 1, 2
	f := newFixture()
	f.root(a, 1, 2)
	f.add(a, b, model.RelationChild, map[model.RecordID]model.Ancestors{11: {1}, 12: {2}})
	// B links back to A.
	f.topo.AddNode(a, "", 0, model.RelationLink, map[model.RecordID]model.Ancestors{1: {12}})
	f.topo.Connect(b, a, model.RelationLink)
	f.target(b, false, 11)

	stats := f.run(false)

	assert.Equal(t, []model.RecordID{1}, f.matched(1, 2))
	assert.Equal(t, 2, stats.Nodes)
}

func TestMerge_Idempotent(t *testing.T) {
	f := docs()
	f.target(section, true, 12, 13)
	f.general(section, 0, 12)
	seed := f.states.Clone()

	f.run(true)
	first := f.states

	f.states = seed.Clone()
	f.run(true)

	assert.True(t, first.Equal(f.states))
}

func TestMerge_MissingStatePanics(t *testing.T) {
	f := newFixture()
	f.topo.AddNode(doc, "", 0, model.RelationTop, map[model.RecordID]model.Ancestors{5: nil})
	f.topo.Roots = []model.DatatypeID{doc}

	assert.PanicsWithError(t, "record 5 of datatype 1 has no search state", func() {
		f.run(false)
	})
}

func TestMerge_OutcomeRelaysOwnRecords(t *testing.T) {
	f := docs()
	f.target(section, false, 11, 13)
	f.general(section, 0, 12)

	e := New(f.topo, f.states, f.results, true)
	out := e.Merge(section, false)

	require.True(t, out.Targeted())
	assert.Equal(t, []model.RecordID{11, 13}, out.Adv.ToSlice())
	assert.False(t, out.Guard)
	assert.Contains(t, out.Deps, section)
	assert.Equal(t, []model.RecordID{12}, out.Gen[0].ToSlice())
}
