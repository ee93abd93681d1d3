package blocks

import (
	"context"
	"fmt"

	"github.com/goliatone/go-pagekit/internal/logging"
	"github.com/goliatone/go-pagekit/internal/sections"
	"github.com/goliatone/go-pagekit/pkg/interfaces"
)

// PropDescriptor describes one declared field of a block's template.
type PropDescriptor struct {
	Name        string             `json:"name"`
	Kind        sections.FieldKind `json:"kind"`
	Required    bool               `json:"required"`
	Description string             `json:"description,omitempty"`
}

// SourceInfo is the read-only introspection view of a block.
type SourceInfo struct {
	ID       string                `json:"id"`
	Template sections.TemplateName `json:"template"`
	Source   string                `json:"source"`
	Props    []PropDescriptor      `json:"props"`
}

// UsageRef locates one section that uses a block.
type UsageRef struct {
	Slug         string `json:"slug"`
	SectionIndex int    `json:"sectionIndex"`
}

// PageSections lists the templates of a page in section order.
type PageSections struct {
	Slug      string
	Templates []sections.TemplateName
}

// PageIndex supplies the pages scanned for block usage.
type PageIndex interface {
	PageSections(ctx context.Context) ([]PageSections, error)
}

// PageIndexFunc adapts a function to PageIndex.
type PageIndexFunc func(ctx context.Context) ([]PageSections, error)

func (f PageIndexFunc) PageSections(ctx context.Context) ([]PageSections, error) {
	return f(ctx)
}

// Inspector answers block source and usage queries.
type Inspector struct {
	catalog  *Catalog
	registry *sections.Registry
	pages    PageIndex
	logger   interfaces.Logger
}

// NewInspector wires the catalog to the template registry and page index.
func NewInspector(catalog *Catalog, registry *sections.Registry, pages PageIndex, logger interfaces.Logger) *Inspector {
	if logger == nil {
		logger = logging.NoOp()
	}
	return &Inspector{catalog: catalog, registry: registry, pages: pages, logger: logger}
}

// Source returns the template source and declared props of block id.
func (i *Inspector) Source(id string) (SourceInfo, error) {
	def, ok := i.catalog.Get(id)
	if !ok {
		return SourceInfo{}, fmt.Errorf("%w: %s", ErrBlockNotFound, id)
	}
	info := SourceInfo{ID: def.ID, Template: def.Template, Props: []PropDescriptor{}}
	entry, ok := i.registry.Lookup(def.Template)
	if !ok {
		i.logger.Warn("blocks.source.template_missing", "block", def.ID, "template", string(def.Template))
		return info, nil
	}
	info.Source = entry.Source
	for _, spec := range entry.Fields {
		info.Props = append(info.Props, PropDescriptor{
			Name:        spec.Name,
			Kind:        spec.Kind,
			Required:    spec.Required,
			Description: spec.Description,
		})
	}
	return info, nil
}

// Usage maps every block id to the sections that render its template. Blocks
// without usages map to an empty list.
func (i *Inspector) Usage(ctx context.Context) (map[string][]UsageRef, error) {
	byTemplate := map[sections.TemplateName][]string{}
	usage := map[string][]UsageRef{}
	for _, def := range i.catalog.List() {
		byTemplate[def.Template] = append(byTemplate[def.Template], def.ID)
		usage[def.ID] = []UsageRef{}
	}
	if i.pages == nil {
		return usage, nil
	}

	pages, err := i.pages.PageSections(ctx)
	if err != nil {
		return nil, err
	}
	for _, page := range pages {
		for index, template := range page.Templates {
			for _, id := range byTemplate[template] {
				usage[id] = append(usage[id], UsageRef{Slug: page.Slug, SectionIndex: index})
			}
		}
	}
	return usage, nil
}
