package facet

import "fmt"

// FieldKind is the closed set of searchable field kinds.
type FieldKind uint8

const (
	Text FieldKind = iota + 1
	Number
	Boolean
	Option // radio buttons and select lists
	Tag
	Date
	File
	Image
)

var fieldKindNames = map[FieldKind]string{
	Text:    "text",
	Number:  "number",
	Boolean: "boolean",
	Option:  "option",
	Tag:     "tag",
	Date:    "date",
	File:    "file",
	Image:   "image",
}

func (k FieldKind) String() string {
	if s, ok := fieldKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k FieldKind) MarshalText() ([]byte, error) {
	if _, ok := fieldKindNames[k]; !ok {
		return nil, fmt.Errorf("facet: unknown field kind %d", uint8(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *FieldKind) UnmarshalText(b []byte) error {
	for kind, name := range fieldKindNames {
		if name == string(b) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("facet: unknown field kind %q", b)
}

// Operator is the comparison a term applies.
type Operator uint8

const (
	Equal Operator = iota + 1
	NotEqual
	Contains
	NotContains
	Range
	Selected
	Unselected
	HasFiles
	NoFiles
)

var operatorNames = map[Operator]string{
	Equal:       "eq",
	NotEqual:    "ne",
	Contains:    "contains",
	NotContains: "not_contains",
	Range:       "range",
	Selected:    "selected",
	Unselected:  "unselected",
	HasFiles:    "has_files",
	NoFiles:     "no_files",
}

func (o Operator) String() string {
	if s, ok := operatorNames[o]; ok {
		return s
	}
	return fmt.Sprintf("op(%d)", uint8(o))
}

// MarshalText implements encoding.TextMarshaler.
func (o Operator) MarshalText() ([]byte, error) {
	if _, ok := operatorNames[o]; !ok {
		return nil, fmt.Errorf("facet: unknown operator %d", uint8(o))
	}
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Operator) UnmarshalText(b []byte) error {
	for op, name := range operatorNames {
		if name == string(b) {
			*o = op
			return nil
		}
	}
	return fmt.Errorf("facet: unknown operator %q", b)
}

// operators lists the operators each kind accepts.
var operators = map[FieldKind][]Operator{
	Text:    {Equal, NotEqual, Contains, NotContains},
	Number:  {Equal, NotEqual, Range},
	Date:    {Equal, NotEqual, Range},
	Boolean: {Selected, Unselected},
	Option:  {Selected, Unselected},
	Tag:     {Selected, Unselected},
	File:    {HasFiles, NoFiles, Contains, NotContains},
	Image:   {HasFiles, NoFiles, Contains, NotContains},
}

// MergeType selects how the terms of a facet are combined.
type MergeType uint8

const (
	And MergeType = iota
	Or
)

func (m MergeType) String() string {
	if m == Or {
		return "or"
	}
	return "and"
}

// MarshalText implements encoding.TextMarshaler.
func (m MergeType) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *MergeType) UnmarshalText(b []byte) error {
	switch string(b) {
	case "", "and", "AND":
		*m = And
	case "or", "OR":
		*m = Or
	default:
		return fmt.Errorf("facet: unknown merge type %q", b)
	}
	return nil
}
