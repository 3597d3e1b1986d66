package facet

import (
	"encoding/binary"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/hupe1980/facetree/model"
)

// AnyField addresses every text field of a datatype. Only general-search
// terms (Text, Contains) may use it.
const AnyField model.FieldID = 0

// Term is one search condition.
type Term struct {
	Datatype model.DatatypeID `json:"datatype" msgpack:"datatype"`
	Field    model.FieldID    `json:"field" msgpack:"field"`
	Kind     FieldKind        `json:"kind" msgpack:"kind"`
	Op       Operator         `json:"op" msgpack:"op"`

	Value  string   `json:"value,omitempty" msgpack:"value,omitempty"`
	Values []string `json:"values,omitempty" msgpack:"values,omitempty"`
	From   string   `json:"from,omitempty" msgpack:"from,omitempty"`
	To     string   `json:"to,omitempty" msgpack:"to,omitempty"`

	// Template marks a term addressed at a template datatype and field.
	// The matcher fans it out over every derived datatype.
	Template bool `json:"template,omitempty" msgpack:"template,omitempty"`
}

// Value is the stored value of one field of one record.
type Value struct {
	Text    string   `json:"text,omitempty" msgpack:"text,omitempty"`
	Options []string `json:"options,omitempty" msgpack:"options,omitempty"`
	Files   []string `json:"files,omitempty" msgpack:"files,omitempty"`
}

// IsZero reports whether the field has no value at all.
func (v Value) IsZero() bool {
	return v.Text == "" && len(v.Options) == 0 && len(v.Files) == 0
}

// Validate checks that the term carries what its kind and operator require.
func (t Term) Validate() error {
	invalid := func(reason string) error {
		return &model.InvalidTermError{Field: t.Field, Reason: reason}
	}

	ops, ok := operators[t.Kind]
	if !ok {
		return invalid("unknown field kind")
	}
	if !slices.Contains(ops, t.Op) {
		return invalid("operator " + t.Op.String() + " not valid for " + t.Kind.String())
	}
	if t.Template && (t.Kind == File || t.Kind == Image) {
		return &model.UnsupportedError{Kind: t.Kind.String(), Mode: "template search"}
	}
	if t.Field == AnyField && (t.Kind != Text || t.Op != Contains) {
		return invalid("only text contains terms may address every field")
	}

	switch t.Op {
	case Contains, NotContains:
		if t.Value == "" {
			return invalid("missing value")
		}
	case Equal, NotEqual:
		switch t.Kind {
		case Number:
			if _, err := strconv.ParseFloat(t.Value, 64); err != nil {
				return invalid("value is not a number")
			}
		case Date:
			if _, err := parseDate(t.Value); err != nil {
				return invalid("value is not a date")
			}
		}
	case Range:
		if t.From == "" && t.To == "" {
			return invalid("range needs from or to")
		}
		for _, bound := range []string{t.From, t.To} {
			if bound == "" {
				continue
			}
			var err error
			if t.Kind == Number {
				_, err = strconv.ParseFloat(bound, 64)
			} else {
				_, err = parseDate(bound)
			}
			if err != nil {
				return invalid("invalid range bound " + strconv.Quote(bound))
			}
		}
	case Selected, Unselected:
		if t.Kind != Boolean && len(t.Values) == 0 {
			return invalid("missing selected values")
		}
	}
	return nil
}

// Eval reports whether a stored value satisfies the term.
// The term is assumed valid.
func (t Term) Eval(v Value) bool {
	switch t.Op {
	case Equal:
		return t.equal(v)
	case NotEqual:
		return !t.equal(v)
	case Contains:
		return t.contains(v)
	case NotContains:
		return !t.contains(v)
	case Range:
		return t.inRange(v.Text)
	case Selected:
		return t.selected(v)
	case Unselected:
		return !t.selected(v)
	case HasFiles:
		return len(v.Files) > 0
	case NoFiles:
		return len(v.Files) == 0
	default:
		return false
	}
}

// Guard reports whether the term also matches the absence of a value.
func (t Term) Guard() bool {
	return t.Eval(Value{})
}

func (t Term) equal(v Value) bool {
	switch t.Kind {
	case Number:
		a, errA := strconv.ParseFloat(v.Text, 64)
		b, errB := strconv.ParseFloat(t.Value, 64)
		return errA == nil && errB == nil && a == b
	case Date:
		a, errA := parseDate(v.Text)
		b, errB := parseDate(t.Value)
		return errA == nil && errB == nil && a.Equal(b)
	default:
		return strings.EqualFold(v.Text, t.Value)
	}
}

func (t Term) contains(v Value) bool {
	needle := strings.ToLower(t.Value)
	if t.Kind == File || t.Kind == Image {
		for _, f := range v.Files {
			if strings.Contains(strings.ToLower(f), needle) {
				return true
			}
		}
		return false
	}
	return strings.Contains(strings.ToLower(v.Text), needle)
}

func (t Term) inRange(s string) bool {
	if s == "" {
		return false
	}
	if t.Kind == Number {
		x, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return false
		}
		if t.From != "" {
			if lo, err := strconv.ParseFloat(t.From, 64); err != nil || x < lo {
				return false
			}
		}
		if t.To != "" {
			if hi, err := strconv.ParseFloat(t.To, 64); err != nil || x > hi {
				return false
			}
		}
		return true
	}

	x, err := parseDate(s)
	if err != nil {
		return false
	}
	if t.From != "" {
		if lo, err := parseDate(t.From); err != nil || x.Before(lo) {
			return false
		}
	}
	if t.To != "" {
		if hi, err := parseDate(t.To); err != nil || x.After(hi) {
			return false
		}
	}
	return true
}

func (t Term) selected(v Value) bool {
	if t.Kind == Boolean {
		b, _ := strconv.ParseBool(v.Text)
		return b
	}
	for _, want := range t.Values {
		if slices.Contains(v.Options, want) {
			return true
		}
	}
	return false
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, s)
}

// Digest returns a stable 64-bit hash of the term, used as its cache key.
func (t Term) Digest() uint64 {
	d := xxhash.New()

	var buf [11]byte
	binary.LittleEndian.PutUint32(buf[0:], uint32(t.Datatype))
	binary.LittleEndian.PutUint32(buf[4:], uint32(t.Field))
	buf[8] = byte(t.Kind)
	buf[9] = byte(t.Op)
	if t.Template {
		buf[10] = 1
	}
	_, _ = d.Write(buf[:])

	writeString := func(s string) {
		var n [4]byte
		binary.LittleEndian.PutUint32(n[:], uint32(len(s)))
		_, _ = d.Write(n[:])
		_, _ = d.WriteString(s)
	}
	writeString(t.Value)
	writeString(t.From)
	writeString(t.To)

	// Selected values are a set; order must not change the digest.
	values := slices.Clone(t.Values)
	slices.Sort(values)
	for _, v := range values {
		writeString(v)
	}
	return d.Sum64()
}
