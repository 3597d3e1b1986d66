// Package codec centralizes the encoding of cached term results and dataset
// fixtures.
//
// Codec selection is a compatibility boundary: cache entries persisted by an
// older codec may no longer decode. Persisted envelopes record the codec name
// and the compression so they can be validated on load.
package codec

// Codec turns values into bytes and back.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	// Name is stored next to encoded payloads.
	Name() string
}

// Default is the codec used for cache payloads.
var Default Codec = Msgpack{}

var builtin = []Codec{JSON{}, Msgpack{}}

// ByName resolves the name recorded in an envelope or a config file.
func ByName(name string) (Codec, bool) {
	for _, c := range builtin {
		if c.Name() == name {
			return c, true
		}
	}
	return nil, false
}

// Names lists the built-in codec names.
func Names() []string {
	names := make([]string, len(builtin))
	for i, c := range builtin {
		names[i] = c.Name()
	}
	return names
}
