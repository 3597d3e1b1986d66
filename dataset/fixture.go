package dataset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hupe1980/facetree/codec"
	"github.com/hupe1980/facetree/facet"
	"github.com/hupe1980/facetree/model"
)

// ErrInvalidFixture is returned when a fixture references unknown
// datatypes, records or fields.
var ErrInvalidFixture = errors.New("dataset: invalid fixture")

// Fixture is the serialized form of a repository.
type Fixture struct {
	Datatypes []DatatypeSpec `json:"datatypes" msgpack:"datatypes"`
	Records   []Record       `json:"records" msgpack:"records"`
}

// DatatypeSpec describes one datatype and its fields.
type DatatypeSpec struct {
	ID            model.DatatypeID   `json:"id" msgpack:"id"`
	Name          string             `json:"name" msgpack:"name"`
	Public        bool               `json:"public,omitempty" msgpack:"public,omitempty"`
	RecordsPublic bool               `json:"records_public,omitempty" msgpack:"records_public,omitempty"`
	Children      []model.DatatypeID `json:"children,omitempty" msgpack:"children,omitempty"`
	Links         []model.DatatypeID `json:"links,omitempty" msgpack:"links,omitempty"`
	TemplateID    model.DatatypeID   `json:"template_id,omitempty" msgpack:"template_id,omitempty"`
	IsTemplate    bool               `json:"is_template,omitempty" msgpack:"is_template,omitempty"`
	Fields        []Field            `json:"fields,omitempty" msgpack:"fields,omitempty"`
}

// Field describes one searchable field of a datatype.
type Field struct {
	ID   model.FieldID   `json:"id" msgpack:"id"`
	Name string          `json:"name" msgpack:"name"`
	Kind facet.FieldKind `json:"kind" msgpack:"kind"`
	// Template is the template field this field was derived from, zero if none.
	Template model.FieldID `json:"template,omitempty" msgpack:"template,omitempty"`
}

// Record is one stored record.
type Record struct {
	ID       model.RecordID   `json:"id" msgpack:"id"`
	Datatype model.DatatypeID `json:"datatype" msgpack:"datatype"`
	// Parent is the owning record, zero for records of a top-level datatype.
	Parent model.RecordID `json:"parent,omitempty" msgpack:"parent,omitempty"`
	// Links are the records this record links to.
	Links []model.RecordID `json:"links,omitempty" msgpack:"links,omitempty"`
	// Private records are hidden from actors without record-level view.
	Private bool                          `json:"private,omitempty" msgpack:"private,omitempty"`
	Values  map[model.FieldID]facet.Value `json:"values,omitempty" msgpack:"values,omitempty"`
}

// codecFor picks the codec from the file extension.
func codecFor(path string) (codec.Codec, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return codec.JSON{}, nil
	case ".msgpack", ".mp", ".mpk":
		return codec.Msgpack{}, nil
	default:
		return nil, fmt.Errorf("dataset: unknown fixture format %q", filepath.Ext(path))
	}
}

// Load reads a fixture file and builds a repository from it. The format is
// chosen by extension: .json or .msgpack.
func Load(path string) (*Repository, error) {
	f, err := ReadFixture(path)
	if err != nil {
		return nil, err
	}
	return New(f)
}

// ReadFixture decodes a fixture file without validating it.
func ReadFixture(path string) (Fixture, error) {
	c, err := codecFor(path)
	if err != nil {
		return Fixture{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Fixture{}, fmt.Errorf("dataset: read fixture: %w", err)
	}
	var f Fixture
	if err := c.Unmarshal(data, &f); err != nil {
		return Fixture{}, fmt.Errorf("dataset: decode %s fixture: %w", c.Name(), err)
	}
	return f, nil
}

// Decode builds a repository from an encoded fixture.
func Decode(data []byte, c codec.Codec) (*Repository, error) {
	var f Fixture
	if err := c.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("dataset: decode %s fixture: %w", c.Name(), err)
	}
	return New(f)
}

// Save writes a fixture file in the format chosen by extension.
func Save(path string, f Fixture) error {
	c, err := codecFor(path)
	if err != nil {
		return err
	}
	data, err := c.Marshal(f)
	if err != nil {
		return fmt.Errorf("dataset: encode %s fixture: %w", c.Name(), err)
	}
	return os.WriteFile(path, data, 0o644)
}
