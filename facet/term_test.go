package facet

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/facetree/model"
)

func TestTerm_Validate(t *testing.T) {
	tests := []struct {
		name string
		term Term
		want error
	}{
		{"text equal", Term{Field: 1, Kind: Text, Op: Equal, Value: "intro"}, nil},
		{"text equal empty", Term{Field: 1, Kind: Text, Op: Equal}, nil},
		{"text contains empty", Term{Field: 1, Kind: Text, Op: Contains}, model.ErrInvalidSearchStructure},
		{"text range", Term{Field: 1, Kind: Text, Op: Range, From: "a"}, model.ErrInvalidSearchStructure},
		{"unknown kind", Term{Field: 1, Op: Equal}, model.ErrInvalidSearchStructure},
		{"number equal", Term{Field: 1, Kind: Number, Op: Equal, Value: "4.5"}, nil},
		{"number equal nan", Term{Field: 1, Kind: Number, Op: Equal, Value: "four"}, model.ErrInvalidSearchStructure},
		{"number range open", Term{Field: 1, Kind: Number, Op: Range, To: "10"}, nil},
		{"number range empty", Term{Field: 1, Kind: Number, Op: Range}, model.ErrInvalidSearchStructure},
		{"date range", Term{Field: 1, Kind: Date, Op: Range, From: "2024-01-01", To: "2024-12-31T23:59:59Z"}, nil},
		{"date bad bound", Term{Field: 1, Kind: Date, Op: Range, From: "yesterday"}, model.ErrInvalidSearchStructure},
		{"option selected", Term{Field: 1, Kind: Option, Op: Selected, Values: []string{"red"}}, nil},
		{"option selected none", Term{Field: 1, Kind: Option, Op: Selected}, model.ErrInvalidSearchStructure},
		{"boolean selected", Term{Field: 1, Kind: Boolean, Op: Selected}, nil},
		{"file has files", Term{Field: 1, Kind: File, Op: HasFiles}, nil},
		{"template image", Term{Field: 1, Kind: Image, Op: NoFiles, Template: true}, model.ErrUnsupportedOperation},
		{"template text", Term{Field: 1, Kind: Text, Op: Equal, Value: "x", Template: true}, nil},
		{"any field contains", Term{Field: AnyField, Kind: Text, Op: Contains, Value: "x"}, nil},
		{"any field equal", Term{Field: AnyField, Kind: Text, Op: Equal, Value: "x"}, model.ErrInvalidSearchStructure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.term.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestTerm_EvalAndGuard(t *testing.T) {
	tests := []struct {
		name  string
		term  Term
		value Value
		match bool
		guard bool
	}{
		{"equal", Term{Kind: Text, Op: Equal, Value: "Intro"}, Value{Text: "intro"}, true, false},
		{"not equal", Term{Kind: Text, Op: NotEqual, Value: "intro"}, Value{Text: "body"}, true, true},
		{"not equal same", Term{Kind: Text, Op: NotEqual, Value: "intro"}, Value{Text: "intro"}, false, true},
		{"contains", Term{Kind: Text, Op: Contains, Value: "tro"}, Value{Text: "Intro"}, true, false},
		{"not contains", Term{Kind: Text, Op: NotContains, Value: "tro"}, Value{Text: "body"}, true, true},
		{"number equal", Term{Kind: Number, Op: Equal, Value: "3"}, Value{Text: "3.0"}, true, false},
		{"number range", Term{Kind: Number, Op: Range, From: "1", To: "5"}, Value{Text: "5"}, true, false},
		{"number range below", Term{Kind: Number, Op: Range, From: "1"}, Value{Text: "0.5"}, false, false},
		{"number not equal", Term{Kind: Number, Op: NotEqual, Value: "3"}, Value{Text: "4"}, true, true},
		{"date range", Term{Kind: Date, Op: Range, From: "2024-01-01", To: "2024-02-01"}, Value{Text: "2024-01-15"}, true, false},
		{"boolean selected", Term{Kind: Boolean, Op: Selected}, Value{Text: "true"}, true, false},
		{"boolean unselected", Term{Kind: Boolean, Op: Unselected}, Value{Text: "false"}, true, true},
		{"option selected", Term{Kind: Option, Op: Selected, Values: []string{"red", "blue"}}, Value{Options: []string{"blue"}}, true, false},
		{"tag unselected", Term{Kind: Tag, Op: Unselected, Values: []string{"draft"}}, Value{Options: []string{"final"}}, true, true},
		{"has files", Term{Kind: File, Op: HasFiles}, Value{Files: []string{"a.pdf"}}, true, false},
		{"no files", Term{Kind: Image, Op: NoFiles}, Value{Files: []string{"a.png"}}, false, true},
		{"file name contains", Term{Kind: File, Op: Contains, Value: "PDF"}, Value{Files: []string{"a.pdf"}}, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.match, tt.term.Eval(tt.value))
			assert.Equal(t, tt.guard, tt.term.Guard())
		})
	}
}

func TestTerm_Digest(t *testing.T) {
	a := Term{Datatype: 1, Field: 2, Kind: Option, Op: Selected, Values: []string{"a", "b"}}
	b := Term{Datatype: 1, Field: 2, Kind: Option, Op: Selected, Values: []string{"b", "a"}}
	assert.Equal(t, a.Digest(), b.Digest())

	c := a
	c.Op = Unselected
	assert.NotEqual(t, a.Digest(), c.Digest())

	d := a
	d.Template = true
	assert.NotEqual(t, a.Digest(), d.Digest())

	// Length prefixes keep adjacent strings from colliding.
	e := Term{Kind: Number, Op: Range, From: "1", To: "23"}
	f := Term{Kind: Number, Op: Range, From: "12", To: "3"}
	assert.NotEqual(t, e.Digest(), f.Digest())
}

func TestCriteria_JSON(t *testing.T) {
	raw := `{
		"advanced": [
			{"id": "title", "datatype": 2, "merge": "or", "terms": [
				{"datatype": 2, "field": 5, "kind": "text", "op": "ne", "value": "intro"}
			]}
		],
		"general": [
			{"id": "t0", "token": 0, "terms": [{"field": 0, "kind": "text", "op": "contains", "value": "x"}]}
		]
	}`

	var c Criteria
	require.NoError(t, json.Unmarshal([]byte(raw), &c))
	c.Normalize()
	require.NoError(t, c.Validate())

	require.Len(t, c.Advanced, 1)
	assert.Equal(t, model.Advanced, c.Advanced[0].Kind)
	assert.Equal(t, Or, c.Advanced[0].Merge)
	assert.Equal(t, NotEqual, c.Advanced[0].Terms[0].Op)
	assert.Equal(t, model.General, c.General[0].Kind)
	assert.Equal(t, []model.DatatypeID{2}, c.Targeted())
	assert.Equal(t, []int{0}, c.Tokens())

	var bad Criteria
	assert.Error(t, json.Unmarshal([]byte(`{"advanced":[{"terms":[{"kind":"blob"}]}]}`), &bad))
}

func TestFacet_Validate(t *testing.T) {
	var ite *model.InvalidTermError

	f := Facet{ID: "f", Kind: model.Advanced, Datatype: 1, Terms: []Term{{Datatype: 2, Field: 1, Kind: Text, Op: Equal}}}
	assert.ErrorIs(t, f.Validate(), model.ErrInvalidSearchStructure)

	f = Facet{ID: "empty", Kind: model.Advanced, Datatype: 1}
	assert.ErrorIs(t, f.Validate(), model.ErrInvalidSearchStructure)

	f = Facet{ID: "nowhere", Kind: model.Advanced, Terms: []Term{{Field: 1, Kind: Text, Op: Equal, Value: "x"}}}
	require.ErrorAs(t, f.Validate(), &ite)
	assert.Equal(t, "advanced facet has no datatype", ite.Reason)

	f = Facet{ID: "bad", Kind: model.Advanced, Datatype: 1, Terms: []Term{{Datatype: 1, Field: 1, Kind: Text, Op: Contains}}}
	require.ErrorAs(t, f.Validate(), &ite)
	assert.Equal(t, "bad", ite.Facet)

	g := GeneralFacet(3, "hello")
	assert.NoError(t, g.Validate())
	assert.Equal(t, 3, g.Token)

	g.Terms[0].Field = 7
	assert.ErrorIs(t, g.Validate(), model.ErrInvalidSearchStructure)
}
