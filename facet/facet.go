package facet

import (
	"errors"
	"fmt"
	"slices"

	"github.com/hupe1980/facetree/model"
)

// Facet is one logical unit of search criteria.
//
// An advanced facet holds one or more field terms on a single datatype. A
// general facet holds the text of one search token; Token numbers the token
// within the query.
type Facet struct {
	ID       string           `json:"id" msgpack:"id"`
	Kind     model.SearchKind `json:"-" msgpack:"-"`
	Datatype model.DatatypeID `json:"datatype,omitempty" msgpack:"datatype,omitempty"`
	Token    int              `json:"token,omitempty" msgpack:"token,omitempty"`
	Merge    MergeType        `json:"merge" msgpack:"merge"`
	Terms    []Term           `json:"terms" msgpack:"terms"`
}

// Validate checks the facet and all of its terms.
func (f Facet) Validate() error {
	invalid := func(reason string) error {
		return &model.InvalidTermError{Facet: f.ID, Reason: reason}
	}

	if len(f.Terms) == 0 {
		return invalid("facet has no terms")
	}
	if f.Kind != model.General && f.Datatype == 0 {
		return invalid("advanced facet has no datatype")
	}

	for _, t := range f.Terms {
		if f.Kind == model.General {
			if t.Kind != Text || t.Op != Contains || t.Field != AnyField {
				return invalid("general facets hold text contains terms on every field")
			}
		} else if t.Datatype != f.Datatype {
			return invalid(fmt.Sprintf("term targets datatype %d, facet targets %d", t.Datatype, f.Datatype))
		}
		if err := t.Validate(); err != nil {
			var ite *model.InvalidTermError
			if errors.As(err, &ite) && ite.Facet == "" {
				ite.Facet = f.ID
			}
			return err
		}
	}
	return nil
}

// Template reports whether the facet addresses a template datatype.
func (f Facet) Template() bool {
	return len(f.Terms) > 0 && f.Terms[0].Template
}

// GeneralFacet builds the general facet for one search token.
// Tokenization of the query text happens before this point.
func GeneralFacet(token int, text string) Facet {
	return Facet{
		ID:    fmt.Sprintf("general-%d", token),
		Kind:  model.General,
		Token: token,
		Merge: Or,
		Terms: []Term{{Field: AnyField, Kind: Text, Op: Contains, Value: text}},
	}
}

// Criteria is the decoded search criteria of one request.
type Criteria struct {
	Advanced []Facet `json:"advanced,omitempty" msgpack:"advanced,omitempty"`
	General  []Facet `json:"general,omitempty" msgpack:"general,omitempty"`
}

// Normalize stamps the search kind onto every facet. Criteria decoded from
// JSON or msgpack must be normalized before use.
func (c *Criteria) Normalize() {
	for i := range c.Advanced {
		c.Advanced[i].Kind = model.Advanced
	}
	for i := range c.General {
		c.General[i].Kind = model.General
	}
}

// HasAdvanced reports whether the criteria contain advanced facets.
func (c Criteria) HasAdvanced() bool { return len(c.Advanced) > 0 }

// HasGeneral reports whether the criteria contain general facets.
func (c Criteria) HasGeneral() bool { return len(c.General) > 0 }

// IsEmpty reports whether the criteria contain no facets at all.
func (c Criteria) IsEmpty() bool { return !c.HasAdvanced() && !c.HasGeneral() }

// Validate validates every facet.
func (c Criteria) Validate() error {
	for _, f := range c.Advanced {
		if f.Kind != model.Advanced {
			return &model.InvalidTermError{Facet: f.ID, Reason: "general facet in advanced criteria"}
		}
		if err := f.Validate(); err != nil {
			return err
		}
	}
	for _, f := range c.General {
		if f.Kind != model.General {
			return &model.InvalidTermError{Facet: f.ID, Reason: "advanced facet in general criteria"}
		}
		if err := f.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Targeted returns the datatypes addressed by advanced facets, in ascending order.
// Template facets contribute the template datatype.
func (c Criteria) Targeted() []model.DatatypeID {
	var out []model.DatatypeID
	for _, f := range c.Advanced {
		if !slices.Contains(out, f.Datatype) {
			out = append(out, f.Datatype)
		}
	}
	slices.Sort(out)
	return out
}

// Tokens returns the distinct general-search token numbers in ascending order.
func (c Criteria) Tokens() []int {
	var out []int
	for _, f := range c.General {
		if !slices.Contains(out, f.Token) {
			out = append(out, f.Token)
		}
	}
	slices.Sort(out)
	return out
}
