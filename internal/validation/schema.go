package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	ErrSchemaInvalid = errors.New("validation: schema invalid")
	ErrFieldShape    = errors.New("validation: field shape mismatch")
)

// Issue is one validation failure at a JSON pointer location.
type Issue struct {
	Location string
	Message  string
}

func (i Issue) String() string {
	location := strings.TrimSpace(i.Location)
	if location == "" {
		location = "#"
	} else if !strings.HasPrefix(location, "#") {
		location = "#" + location
	}
	if i.Message == "" {
		return location
	}
	return location + ": " + i.Message
}

// ShapeError reports section fields that do not match the declared shape.
type ShapeError struct {
	Issues []Issue
	Cause  error
}

func (e *ShapeError) Error() string {
	if len(e.Issues) == 0 {
		if e.Cause != nil {
			return e.Cause.Error()
		}
		return ErrFieldShape.Error()
	}
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, issue.String())
	}
	return strings.Join(parts, "; ")
}

func (e *ShapeError) Unwrap() error {
	return ErrFieldShape
}

// Issues extracts validation issues from err.
func Issues(err error) []Issue {
	if err == nil {
		return nil
	}
	var shapeErr *ShapeError
	if errors.As(err, &shapeErr) && shapeErr != nil {
		return shapeErr.Issues
	}
	var validationErr *jsonschema.ValidationError
	if errors.As(err, &validationErr) && validationErr != nil {
		return collectIssues(validationErr)
	}
	return []Issue{{Message: err.Error()}}
}

// Schema is a compiled field shape.
type Schema struct {
	source   map[string]any
	compiled *jsonschema.Schema
}

// Compile converts a field-shape definition into a compiled JSON schema. The
// definition is either a JSON schema or {"fields": [{name, type, required}]}.
// A nil schema is returned for empty definitions.
func Compile(definition map[string]any) (*Schema, error) {
	normalized := NormalizeSchema(definition)
	if normalized == nil {
		return nil, nil
	}
	compiled, err := compileSchema(normalized)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaInvalid, err)
	}
	return &Schema{source: normalized, compiled: compiled}, nil
}

// Source returns the normalized JSON schema document.
func (s *Schema) Source() map[string]any {
	if s == nil {
		return nil
	}
	return cloneMap(s.source)
}

// Validate checks payload against the schema. The payload is round-tripped
// through JSON first so typed Go values validate like decoded documents.
func (s *Schema) Validate(payload any) error {
	if s == nil || s.compiled == nil {
		return nil
	}
	decoded, err := toJSONValue(payload)
	if err != nil {
		return &ShapeError{Issues: []Issue{{Message: err.Error()}}, Cause: err}
	}
	if decoded == nil {
		decoded = map[string]any{}
	}
	if err := s.compiled.Validate(decoded); err != nil {
		return &ShapeError{Issues: Issues(err), Cause: err}
	}
	return nil
}

// NormalizeSchema converts a field-shape definition into a JSON schema.
// Unknown fields are allowed unless the definition disables them.
func NormalizeSchema(definition map[string]any) map[string]any {
	if len(definition) == 0 {
		return nil
	}
	if isJSONSchema(definition) {
		return cloneMap(definition)
	}
	fields, ok := definition["fields"]
	if !ok {
		return nil
	}
	properties, required := normalizeFields(fields)
	if len(properties) == 0 {
		return nil
	}
	normalized := map[string]any{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": true,
	}
	if allowed, ok := definition["additionalProperties"].(bool); ok {
		normalized["additionalProperties"] = allowed
	}
	if len(required) > 0 {
		normalized["required"] = required
	}
	return normalized
}

func isJSONSchema(schema map[string]any) bool {
	for _, key := range []string{"$schema", "type", "properties", "oneOf", "anyOf", "allOf"} {
		if _, ok := schema[key]; ok {
			return true
		}
	}
	return false
}

func normalizeFields(fields any) (map[string]any, []any) {
	properties := make(map[string]any)
	var required []any

	add := func(field map[string]any) {
		name, _ := field["name"].(string)
		name = strings.TrimSpace(name)
		if name == "" {
			return
		}
		property := map[string]any{}
		if schema, ok := field["schema"].(map[string]any); ok {
			property = cloneMap(schema)
		} else if fieldType, ok := field["type"].(string); ok {
			if jsonType := normalizeJSONType(fieldType); jsonType != "" {
				property["type"] = jsonType
			}
		}
		if description, ok := field["description"].(string); ok && description != "" {
			property["description"] = description
		}
		properties[name] = property
		if flag, ok := field["required"].(bool); ok && flag {
			required = append(required, name)
			if property["type"] == "string" {
				property["minLength"] = 1
			}
		}
	}

	switch typed := fields.(type) {
	case []any:
		for _, entry := range typed {
			switch field := entry.(type) {
			case map[string]any:
				add(field)
			case string:
				add(map[string]any{"name": field})
			}
		}
	case []map[string]any:
		for _, field := range typed {
			add(field)
		}
	}
	return properties, required
}

func normalizeJSONType(value string) string {
	switch normalized := strings.ToLower(strings.TrimSpace(value)); normalized {
	case "string", "number", "integer", "boolean", "object", "array", "null":
		return normalized
	default:
		return ""
	}
}

func toJSONValue(payload any) (any, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	var decoded any
	if err := json.Unmarshal(encoded, &decoded); err != nil {
		return nil, err
	}
	return decoded, nil
}

func compileSchema(schema map[string]any) (*jsonschema.Schema, error) {
	encoded, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource("schema.json", bytes.NewReader(encoded)); err != nil {
		return nil, err
	}
	return compiler.Compile("schema.json")
}

func collectIssues(err *jsonschema.ValidationError) []Issue {
	var issues []Issue
	var walk func(*jsonschema.ValidationError)
	walk = func(node *jsonschema.ValidationError) {
		if node == nil {
			return
		}
		if len(node.Causes) == 0 {
			issues = append(issues, Issue{
				Location: strings.TrimSpace(node.InstanceLocation),
				Message:  strings.TrimSpace(node.Message),
			})
			return
		}
		for _, cause := range node.Causes {
			walk(cause)
		}
	}
	walk(err)
	return issues
}

func cloneMap(input map[string]any) map[string]any {
	if input == nil {
		return nil
	}
	out := make(map[string]any, len(input))
	for key, value := range input {
		out[key] = cloneAny(value)
	}
	return out
}

func cloneAny(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		return cloneMap(typed)
	case []any:
		out := make([]any, len(typed))
		for i, v := range typed {
			out[i] = cloneAny(v)
		}
		return out
	default:
		return value
	}
}
