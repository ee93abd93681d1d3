package sections

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// DefaultParent is the list name used in positional addressing tokens.
const DefaultParent = "sections"

// Section is one tagged content block. Its identity is its position in the
// owning list; there is no separate id.
type Section struct {
	Template TemplateName
	Fields   *Fields
}

// NewSection builds a section from alternating name/value pairs.
func NewSection(template TemplateName, pairs ...any) Section {
	return Section{Template: template, Fields: FieldsOf(pairs...)}
}

// Clone returns a deep copy.
func (s Section) Clone() Section {
	return Section{Template: s.Template, Fields: s.Fields.Clone()}
}

// MarshalJSON flattens the section into a tagged record.
func (s Section) MarshalJSON() ([]byte, error) {
	record := NewFields()
	record.Set(DefaultTagField, string(s.Template))
	s.Fields.Each(func(name string, value any) bool {
		if name == DefaultTagField {
			return true
		}
		record.Set(name, value)
		return true
	})
	return json.Marshal(record)
}

// UnmarshalJSON reads a tagged record. Records without an explicit tag fall
// back to discriminator resolution; unresolvable records keep an empty template.
func (s *Section) UnmarshalJSON(data []byte) error {
	record := NewFields()
	if err := json.Unmarshal(data, record); err != nil {
		return err
	}
	resolved, _ := DefaultTemplateResolver().SectionFromRecord(record, DefaultNormalizer())
	*s = resolved
	return nil
}

// Token returns the positional addressing token for a section, e.g. sections.2.
func Token(parent string, index int) string {
	parent = strings.TrimSpace(parent)
	if parent == "" {
		parent = DefaultParent
	}
	return fmt.Sprintf("%s.%d", parent, index)
}

// ParseToken splits an addressing token into parent list and index.
func ParseToken(token string) (string, int, error) {
	token = strings.TrimSpace(token)
	idx := strings.LastIndex(token, ".")
	if idx <= 0 || idx == len(token)-1 {
		return "", 0, &PathError{Path: token, Reason: "expected <parent>.<index>"}
	}
	index, err := strconv.Atoi(token[idx+1:])
	if err != nil || index < 0 {
		return "", 0, &PathError{Path: token, Reason: "index must be a non-negative integer"}
	}
	return token[:idx], index, nil
}

// SplitPath splits a dotted field path.
func SplitPath(path string) ([]string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, &PathError{Path: path, Reason: "empty path"}
	}
	segments := strings.Split(path, ".")
	for _, segment := range segments {
		if strings.TrimSpace(segment) == "" {
			return nil, &PathError{Path: path, Reason: "empty segment"}
		}
	}
	return segments, nil
}

// GetPath resolves a dotted path such as items.0.title.
func GetPath(fields *Fields, path string) (any, bool) {
	segments, err := SplitPath(path)
	if err != nil {
		return nil, false
	}
	current, ok := fields.Get(segments[0])
	if !ok {
		return nil, false
	}
	for _, segment := range segments[1:] {
		switch typed := current.(type) {
		case map[string]any:
			current, ok = typed[segment]
			if !ok {
				return nil, false
			}
		case []any:
			index, err := strconv.Atoi(segment)
			if err != nil || index < 0 || index >= len(typed) {
				return nil, false
			}
			current = typed[index]
		default:
			return nil, false
		}
	}
	return current, true
}

// SetPath returns a copy of fields with value stored at path. The input is
// left untouched.
func SetPath(fields *Fields, path string, value any) (*Fields, error) {
	segments, err := SplitPath(path)
	if err != nil {
		return nil, err
	}
	out := fields.Clone()
	if len(segments) == 1 {
		out.Set(segments[0], value)
		return out, nil
	}
	current, _ := out.Get(segments[0])
	updated, err := setIn(current, segments[1:], value, path)
	if err != nil {
		return nil, err
	}
	out.Set(segments[0], updated)
	return out, nil
}

func setIn(current any, segments []string, value any, path string) (any, error) {
	if len(segments) == 0 {
		return value, nil
	}
	segment := segments[0]
	switch typed := current.(type) {
	case []any:
		index, err := strconv.Atoi(segment)
		if err != nil || index < 0 || index >= len(typed) {
			return nil, &PathError{Path: path, Reason: fmt.Sprintf("list index %q out of range", segment)}
		}
		next, err := setIn(typed[index], segments[1:], value, path)
		if err != nil {
			return nil, err
		}
		typed[index] = next
		return typed, nil
	case map[string]any:
		next, err := setIn(typed[segment], segments[1:], value, path)
		if err != nil {
			return nil, err
		}
		typed[segment] = next
		return typed, nil
	case nil:
		if _, err := strconv.Atoi(segment); err == nil {
			return nil, &PathError{Path: path, Reason: "cannot index a missing list"}
		}
		next, err := setIn(nil, segments[1:], value, path)
		if err != nil {
			return nil, err
		}
		return map[string]any{segment: next}, nil
	default:
		return nil, &PathError{Path: path, Reason: fmt.Sprintf("segment %q traverses a scalar", segment)}
	}
}
