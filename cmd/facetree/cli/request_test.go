package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/facetree/facet"
	"github.com/hupe1980/facetree/model"
	"github.com/hupe1980/facetree/permission"
)

const introRequest = `{
  "roots": [1],
  "grants": {"2": {"view": true, "view_records": true}},
  "direction": "inverse",
  "advanced": [{"id": "body", "datatype": 2, "merge": "or", "terms": [
    {"datatype": 2, "field": 2, "kind": "text", "op": "eq", "value": "intro"}
  ]}],
  "query": "alpha  beta"
}`

func TestReadRequest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "req.json")
	require.NoError(t, os.WriteFile(path, []byte(introRequest), 0o644))

	rf, err := ReadRequest(path)
	require.NoError(t, err)
	req, err := rf.Request()
	require.NoError(t, err)

	assert.Equal(t, []model.DatatypeID{1}, req.Roots)
	assert.Equal(t, model.Inverse, req.Direction)
	assert.Equal(t, permission.Grant{View: true, ViewRecords: true}, req.Grants.For(2))
	assert.False(t, req.Grants.For(1).View)

	require.Len(t, req.Criteria.Advanced, 1)
	f := req.Criteria.Advanced[0]
	assert.Equal(t, facet.Or, f.Merge)
	assert.Equal(t, facet.Equal, f.Terms[0].Op)
	assert.Equal(t, facet.Text, f.Terms[0].Kind)

	require.Len(t, req.Criteria.General, 2)
	assert.Equal(t, "alpha", req.Criteria.General[0].Terms[0].Value)
	assert.Equal(t, "beta", req.Criteria.General[1].Terms[0].Value)
	assert.Equal(t, 1, req.Criteria.General[1].Token)
}

func TestRequestFile_Errors(t *testing.T) {
	_, err := RequestFile{Direction: "sideways"}.Request()
	assert.ErrorContains(t, err, "direction")

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"advanced": [{"terms": [{"op": "between"}]}]}`), 0o644))
	_, err = ReadRequest(path)
	assert.ErrorContains(t, err, "unknown operator")

	_, err = ReadRequest(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}
