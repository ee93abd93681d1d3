package sections

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-pagekit/internal/validation"
)

// FieldKind describes the expected shape of a section field.
type FieldKind string

const (
	KindText     FieldKind = "text"
	KindMarkdown FieldKind = "markdown"
	KindImage    FieldKind = "image"
	KindLink     FieldKind = "link"
	KindList     FieldKind = "list"
	KindObject   FieldKind = "object"
	KindBoolean  FieldKind = "boolean"
)

func (k FieldKind) jsonType() string {
	switch k {
	case KindList:
		return "array"
	case KindObject:
		return "object"
	case KindBoolean:
		return "boolean"
	default:
		return "string"
	}
}

// FieldSpec declares one expected field of a template.
type FieldSpec struct {
	Name        string
	Kind        FieldKind
	Required    bool
	Description string
}

// Entry binds a template name to its field shape and renderer.
type Entry struct {
	Name     TemplateName
	Label    string
	Fields   []FieldSpec
	Renderer Renderer
	// Source is the template text, exposed for block introspection.
	Source string

	schema *validation.Schema
}

// Schema returns the field shape in the {"fields": [...]} form understood by
// the validation package.
func (e Entry) Schema() map[string]any {
	fields := make([]any, 0, len(e.Fields))
	for _, def := range e.Fields {
		field := map[string]any{
			"name": def.Name,
			"type": def.Kind.jsonType(),
		}
		if def.Required {
			field["required"] = true
		}
		if def.Description != "" {
			field["description"] = def.Description
		}
		fields = append(fields, field)
	}
	return map[string]any{"fields": fields}
}

// Field returns the declared definition for name.
func (e Entry) Field(name string) (FieldSpec, bool) {
	for _, def := range e.Fields {
		if def.Name == name {
			return def, true
		}
	}
	return FieldSpec{}, false
}

// ValidateFields checks fields against the compiled shape.
func (e Entry) ValidateFields(fields *Fields) error {
	if e.schema == nil {
		return nil
	}
	return e.schema.Validate(fields.Map())
}

// Registry is an immutable template catalog. Build it once with NewRegistry
// and pass it to whatever renders sections.
type Registry struct {
	entries map[TemplateName]Entry
	order   []TemplateName
}

// NewRegistry validates and indexes entries. Duplicate names, missing
// renderers and uncompilable field shapes are configuration errors.
func NewRegistry(entries ...Entry) (*Registry, error) {
	r := &Registry{
		entries: make(map[TemplateName]Entry, len(entries)),
		order:   make([]TemplateName, 0, len(entries)),
	}
	for _, entry := range entries {
		entry.Name = TemplateName(strings.TrimSpace(string(entry.Name)))
		if !entry.Name.Valid() {
			return nil, ErrTemplateRequired
		}
		if entry.Renderer == nil {
			return nil, fmt.Errorf("%w: %s", ErrRendererRequired, entry.Name)
		}
		if _, exists := r.entries[entry.Name]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTemplate, entry.Name)
		}
		schema, err := validation.Compile(entry.Schema())
		if err != nil {
			return nil, fmt.Errorf("sections: template %s: %w", entry.Name, err)
		}
		entry.schema = schema
		entry.Fields = append([]FieldSpec(nil), entry.Fields...)
		r.entries[entry.Name] = entry
		r.order = append(r.order, entry.Name)
	}
	return r, nil
}

// Lookup returns the entry registered for name.
func (r *Registry) Lookup(name TemplateName) (Entry, bool) {
	if r == nil {
		return Entry{}, false
	}
	entry, ok := r.entries[name]
	return entry, ok
}

// Names lists registered templates in registration order.
func (r *Registry) Names() []TemplateName {
	if r == nil {
		return nil
	}
	return append([]TemplateName(nil), r.order...)
}

// Entries lists registered entries in registration order.
func (r *Registry) Entries() []Entry {
	if r == nil {
		return nil
	}
	out := make([]Entry, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.entries[name])
	}
	return out
}

func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.order)
}
