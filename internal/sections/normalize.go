package sections

import "strings"

// DefaultTypeField is the discriminator key added by the content query layer.
const DefaultTypeField = "__typename"

// Normalizer strips transport artifacts from raw section records. Transport
// keys are removed and explicit nulls become absent keys. Lists of objects and
// single nested objects are cleaned one level deep; deeper values are kept as-is.
type Normalizer struct {
	TransportKeys []string
}

// DefaultNormalizer removes the GraphQL type discriminator.
func DefaultNormalizer() Normalizer {
	return Normalizer{TransportKeys: []string{DefaultTypeField}}
}

// Normalize applies the default normalizer.
func Normalize(record *Fields) *Fields {
	return DefaultNormalizer().Normalize(record)
}

// Normalize returns a cleaned copy of record. The input is not modified and
// normalizing an already normalized record yields an equal record.
func (n Normalizer) Normalize(record *Fields) *Fields {
	out := NewFields()
	record.Each(func(name string, value any) bool {
		if value == nil || n.isTransportKey(name) {
			return true
		}
		out.Set(name, n.cleanValue(value))
		return true
	})
	return out
}

func (n Normalizer) cleanValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		return n.cleanObject(typed)
	case *Fields:
		return n.cleanObject(typed.Map())
	case []any:
		out := make([]any, 0, len(typed))
		for _, item := range typed {
			switch entry := item.(type) {
			case nil:
				continue
			case map[string]any:
				out = append(out, n.cleanObject(entry))
			case *Fields:
				out = append(out, n.cleanObject(entry.Map()))
			default:
				out = append(out, entry)
			}
		}
		return out
	default:
		return value
	}
}

func (n Normalizer) cleanObject(object map[string]any) map[string]any {
	out := make(map[string]any, len(object))
	for key, value := range object {
		if value == nil || n.isTransportKey(key) {
			continue
		}
		out[key] = cloneValue(value)
	}
	return out
}

func (n Normalizer) isTransportKey(name string) bool {
	for _, key := range n.TransportKeys {
		if strings.TrimSpace(key) == name {
			return true
		}
	}
	return false
}
