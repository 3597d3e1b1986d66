package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/hupe1980/facetree"
	"github.com/hupe1980/facetree/facet"
	"github.com/hupe1980/facetree/model"
	"github.com/hupe1980/facetree/permission"
)

// RequestFile is the JSON form of a search request.
//
//	{
//	  "roots": [1],
//	  "grants": {"2": {"view": true}},
//	  "advanced": [{"id": "body", "datatype": 2, "terms": [
//	    {"datatype": 2, "field": 2, "kind": "text", "op": "eq", "value": "intro"}
//	  ]}],
//	  "query": "alpha beta"
//	}
type RequestFile struct {
	Roots      []model.DatatypeID         `json:"roots"`
	Template   model.DatatypeID           `json:"template,omitempty"`
	SuperAdmin bool                       `json:"super_admin,omitempty"`
	Grants     map[model.DatatypeID]Grant `json:"grants,omitempty"`
	Direction  string                     `json:"direction,omitempty"` // forward or inverse
	Complete   bool                       `json:"complete,omitempty"`
	Advanced   []facet.Facet              `json:"advanced,omitempty"`
	// Query is free text; every whitespace separated token becomes one
	// general facet.
	Query string `json:"query,omitempty"`
}

// Grant is the JSON form of a permission.Grant.
type Grant struct {
	View        bool `json:"view,omitempty"`
	ViewRecords bool `json:"view_records,omitempty"`
}

// ReadRequest decodes a request file.
func ReadRequest(path string) (RequestFile, error) {
	var rf RequestFile
	data, err := os.ReadFile(path)
	if err != nil {
		return rf, fmt.Errorf("read request: %w", err)
	}
	if err := json.Unmarshal(data, &rf); err != nil {
		return rf, fmt.Errorf("decode request %s: %w", path, err)
	}
	return rf, nil
}

// Request converts the file into an engine request.
func (rf RequestFile) Request() (facetree.Request, error) {
	req := facetree.Request{
		Roots:    rf.Roots,
		Template: rf.Template,
		Complete: rf.Complete,
		Grants:   permission.Grants{SuperAdmin: rf.SuperAdmin},
		Criteria: facet.Criteria{Advanced: rf.Advanced},
	}

	switch strings.ToLower(rf.Direction) {
	case "", "forward":
		req.Direction = model.Forward
	case "inverse":
		req.Direction = model.Inverse
	default:
		return req, fmt.Errorf("unknown direction %q", rf.Direction)
	}

	if len(rf.Grants) > 0 {
		req.Grants.Datatypes = make(map[model.DatatypeID]permission.Grant, len(rf.Grants))
		for dt, g := range rf.Grants {
			req.Grants.Datatypes[dt] = permission.Grant{View: g.View, ViewRecords: g.ViewRecords}
		}
	}

	for i, tok := range strings.Fields(rf.Query) {
		req.Criteria.General = append(req.Criteria.General, facet.GeneralFacet(i, tok))
	}
	return req, nil
}
