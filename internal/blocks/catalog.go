package blocks

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-slug"
	"github.com/google/uuid"

	"github.com/goliatone/go-pagekit/internal/identity"
	"github.com/goliatone/go-pagekit/internal/sections"
)

var (
	ErrBlockIDRequired = errors.New("blocks: block id is required")
	ErrDuplicateBlock  = errors.New("blocks: duplicate block id")
	ErrBlockNotFound   = errors.New("blocks: block not found")
	ErrTemplateMissing = errors.New("blocks: block template is required")
)

// Definition is a reusable block shown in the gallery and admin tools.
type Definition struct {
	ID          string                `json:"id"`
	UUID        uuid.UUID             `json:"uuid"`
	Name        string                `json:"name"`
	Category    string                `json:"category"`
	Description string                `json:"description,omitempty"`
	Template    sections.TemplateName `json:"template"`
	Variants    []string              `json:"variants,omitempty"`
	Preview     *sections.Fields      `json:"preview,omitempty"`
}

func (d Definition) clone() Definition {
	d.Variants = append([]string(nil), d.Variants...)
	d.Preview = d.Preview.Clone()
	return d
}

// Catalog is an immutable set of block definitions keyed by id.
type Catalog struct {
	defs  map[string]Definition
	order []string
}

// NewCatalog normalizes ids with go-slug and indexes defs. Duplicate ids are
// rejected.
func NewCatalog(defs ...Definition) (*Catalog, error) {
	c := &Catalog{defs: make(map[string]Definition, len(defs))}
	for _, def := range defs {
		id, err := normalizeID(def.ID, def.Name)
		if err != nil {
			return nil, err
		}
		if !def.Template.Valid() {
			return nil, fmt.Errorf("%w: %s", ErrTemplateMissing, id)
		}
		if _, exists := c.defs[id]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateBlock, id)
		}
		def = def.clone()
		def.ID = id
		def.UUID = identity.BlockUUID(id)
		if strings.TrimSpace(def.Name) == "" {
			def.Name = id
		}
		if strings.TrimSpace(def.Category) == "" {
			def.Category = "general"
		}
		c.defs[id] = def
		c.order = append(c.order, id)
	}
	return c, nil
}

func normalizeID(id, name string) (string, error) {
	candidate := strings.TrimSpace(id)
	if candidate == "" {
		candidate = strings.TrimSpace(name)
	}
	if candidate == "" {
		return "", ErrBlockIDRequired
	}
	normalized, err := slug.Normalize(candidate)
	if err != nil || normalized == "" {
		return "", fmt.Errorf("%w: %q", ErrBlockIDRequired, candidate)
	}
	return normalized, nil
}

// Get returns a copy of the definition with id.
func (c *Catalog) Get(id string) (Definition, bool) {
	if c == nil {
		return Definition{}, false
	}
	def, ok := c.defs[c.key(id)]
	if !ok {
		return Definition{}, false
	}
	return def.clone(), true
}

func (c *Catalog) key(id string) string {
	trimmed := strings.TrimSpace(id)
	if _, ok := c.defs[trimmed]; ok {
		return trimmed
	}
	if normalized, err := slug.Normalize(trimmed); err == nil {
		return normalized
	}
	return trimmed
}

// List returns definitions in catalog order.
func (c *Catalog) List() []Definition {
	if c == nil {
		return nil
	}
	out := make([]Definition, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.defs[id].clone())
	}
	return out
}

// Categories returns category names in order of first appearance.
func (c *Catalog) Categories() []string {
	if c == nil {
		return nil
	}
	seen := map[string]struct{}{}
	var out []string
	for _, id := range c.order {
		category := c.defs[id].Category
		if _, ok := seen[category]; ok {
			continue
		}
		seen[category] = struct{}{}
		out = append(out, category)
	}
	return out
}

// ByCategory returns the definitions in category.
func (c *Catalog) ByCategory(category string) []Definition {
	category = strings.TrimSpace(category)
	var out []Definition
	for _, def := range c.List() {
		if strings.EqualFold(def.Category, category) {
			out = append(out, def)
		}
	}
	return out
}

// PreviewData returns the sample record for id. Unknown ids and blocks
// without samples yield an empty field set, never nil.
func (c *Catalog) PreviewData(id string) *sections.Fields {
	def, ok := c.Get(id)
	if !ok || def.Preview == nil {
		return sections.NewFields()
	}
	return def.Preview
}

// PreviewSection builds a section from the block's template and sample data.
func (c *Catalog) PreviewSection(id string) (sections.Section, error) {
	def, ok := c.Get(id)
	if !ok {
		return sections.Section{}, fmt.Errorf("%w: %s", ErrBlockNotFound, id)
	}
	return sections.Section{Template: def.Template, Fields: c.PreviewData(def.ID)}, nil
}

// Preview renders the block's sample data through dispatcher.
func (c *Catalog) Preview(ctx context.Context, dispatcher *sections.Dispatcher, id string) (sections.RenderedSection, error) {
	section, err := c.PreviewSection(id)
	if err != nil {
		return sections.RenderedSection{}, err
	}
	return dispatcher.RenderSection(ctx, 0, section), nil
}
