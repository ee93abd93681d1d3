package sections

import (
	"bytes"
	"encoding/json"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Fields is an insertion-ordered mapping of field name to value. Values are
// primitives, []any, or map[string]any. Order is preserved through JSON so
// lookups that depend on declaration order stay deterministic.
type Fields struct {
	om *orderedmap.OrderedMap[string, any]
}

// NewFields returns an empty field set.
func NewFields() *Fields {
	return &Fields{om: orderedmap.New[string, any]()}
}

// FieldsOf builds a field set from alternating name/value arguments. Names
// that are not strings are skipped.
func FieldsOf(pairs ...any) *Fields {
	f := NewFields()
	for i := 0; i+1 < len(pairs); i += 2 {
		name, ok := pairs[i].(string)
		if !ok {
			continue
		}
		f.Set(name, pairs[i+1])
	}
	return f
}

func (f *Fields) ensure() {
	if f.om == nil {
		f.om = orderedmap.New[string, any]()
	}
}

// Len reports the number of fields.
func (f *Fields) Len() int {
	if f == nil || f.om == nil {
		return 0
	}
	return f.om.Len()
}

// Get returns the value stored under name.
func (f *Fields) Get(name string) (any, bool) {
	if f == nil || f.om == nil {
		return nil, false
	}
	return f.om.Get(name)
}

// Has reports whether name is present.
func (f *Fields) Has(name string) bool {
	_, ok := f.Get(name)
	return ok
}

// String returns the value under name when it is a string.
func (f *Fields) String(name string) string {
	value, ok := f.Get(name)
	if !ok {
		return ""
	}
	s, _ := value.(string)
	return s
}

// Set stores value under name, keeping the original position of existing keys.
func (f *Fields) Set(name string, value any) {
	f.ensure()
	f.om.Set(name, value)
}

// Delete removes name.
func (f *Fields) Delete(name string) {
	if f == nil || f.om == nil {
		return
	}
	f.om.Delete(name)
}

// Keys returns field names in order.
func (f *Fields) Keys() []string {
	if f == nil || f.om == nil {
		return nil
	}
	keys := make([]string, 0, f.om.Len())
	for pair := f.om.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Each visits fields in order until fn returns false.
func (f *Fields) Each(fn func(name string, value any) bool) {
	if f == nil || f.om == nil || fn == nil {
		return
	}
	for pair := f.om.Oldest(); pair != nil; pair = pair.Next() {
		if !fn(pair.Key, pair.Value) {
			return
		}
	}
}

// Clone returns a deep copy.
func (f *Fields) Clone() *Fields {
	out := NewFields()
	f.Each(func(name string, value any) bool {
		out.Set(name, cloneValue(value))
		return true
	})
	return out
}

// Map returns an unordered deep copy, suitable for templates and schema validation.
func (f *Fields) Map() map[string]any {
	out := make(map[string]any, f.Len())
	f.Each(func(name string, value any) bool {
		out[name] = cloneValue(value)
		return true
	})
	return out
}

// Equal reports whether both field sets hold the same keys in the same order
// with equal JSON encodings.
func (f *Fields) Equal(other *Fields) bool {
	a, errA := json.Marshal(f)
	b, errB := json.Marshal(other)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(a, b)
}

// MarshalJSON encodes fields as a JSON object in insertion order.
func (f *Fields) MarshalJSON() ([]byte, error) {
	if f == nil || f.om == nil || f.om.Len() == 0 {
		return []byte("{}"), nil
	}
	return f.om.MarshalJSON()
}

// UnmarshalJSON decodes a JSON object, keeping key order.
func (f *Fields) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	f.om = orderedmap.New[string, any]()
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	return f.om.UnmarshalJSON(trimmed)
}

func cloneValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, v := range typed {
			out[key] = cloneValue(v)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, v := range typed {
			out[i] = cloneValue(v)
		}
		return out
	case []string:
		return append([]string(nil), typed...)
	case *Fields:
		return typed.Clone()
	default:
		return value
	}
}
