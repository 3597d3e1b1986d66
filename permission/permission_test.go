package permission

import (
	"context"
	"testing"

	"github.com/hupe1980/facetree/model"
	"github.com/hupe1980/facetree/recordset"
	"github.com/hupe1980/facetree/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSchema map[model.DatatypeID]*schema.Datatype

func (f fakeSchema) Datatype(_ context.Context, id model.DatatypeID) (*schema.Datatype, error) {
	d, ok := f[id]
	if !ok {
		return nil, &model.NotFoundError{Kind: "datatype", ID: uint32(id)}
	}
	return d, nil
}

func (f fakeSchema) LinkedFrom(context.Context, model.DatatypeID) ([]model.DatatypeID, error) {
	return nil, nil
}

func (f fakeSchema) Derived(context.Context, model.DatatypeID) ([]model.DatatypeID, error) {
	return nil, nil
}

type fakeOracle struct {
	hidden map[model.DatatypeID]*recordset.Set
	calls  int
}

func (o *fakeOracle) NonPublicRecords(_ context.Context, dt model.DatatypeID) (*recordset.Set, error) {
	o.calls++
	return o.hidden[dt], nil
}

func newFixture() (fakeSchema, *fakeOracle) {
	s := fakeSchema{
		1: {ID: 1, Name: "private"},
		2: {ID: 2, Name: "public", Public: true},
		3: {ID: 3, Name: "open", Public: true, RecordsPublic: true},
	}
	o := &fakeOracle{hidden: map[model.DatatypeID]*recordset.Set{
		1: recordset.New(10),
		2: recordset.New(20, 21),
		3: recordset.New(30),
	}}
	return s, o
}

func TestCompute(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name           string
		dt             model.DatatypeID
		grants         Grants
		wantDatatype   bool
		wantRecords    bool
		wantHidden     []model.RecordID
		wantOracleCall bool
	}{
		{"no grant on private datatype", 1, Grants{}, false, false, nil, false},
		{"view grant hides non-public records", 1, Grants{Datatypes: map[model.DatatypeID]Grant{1: {View: true}}}, true, false, []model.RecordID{10}, true},
		{"record grant shows everything", 1, Grants{Datatypes: map[model.DatatypeID]Grant{1: {View: true, ViewRecords: true}}}, true, true, nil, false},
		{"super admin", 1, Grants{SuperAdmin: true}, true, true, nil, false},
		{"public datatype without grants", 2, Grants{}, true, false, []model.RecordID{20, 21}, true},
		{"globally public records", 3, Grants{}, true, true, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, o := newFixture()
			f := NewFilter(s, o, nil)

			vis, err := f.Compute(ctx, tt.dt, tt.grants)
			require.NoError(t, err)
			assert.Equal(t, tt.wantDatatype, vis.CanViewDatatype)
			assert.Equal(t, tt.wantRecords, vis.CanViewRecords)
			assert.Equal(t, tt.wantHidden, vis.Hidden.ToSlice())
			assert.Equal(t, tt.wantOracleCall, o.calls > 0)
		})
	}
}

func TestCompute_NotFound(t *testing.T) {
	s, o := newFixture()
	f := NewFilter(s, o, nil)

	_, err := f.Compute(context.Background(), 99, Grants{})
	assert.ErrorIs(t, err, model.ErrNotFound)
}
