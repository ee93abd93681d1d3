package pagekit

import (
	"context"
	"net/http"

	"github.com/goliatone/go-pagekit/internal/blocks"
	"github.com/goliatone/go-pagekit/internal/contentsource"
	"github.com/goliatone/go-pagekit/internal/di"
	"github.com/goliatone/go-pagekit/internal/editor"
	"github.com/goliatone/go-pagekit/internal/pages"
	"github.com/goliatone/go-pagekit/internal/sections"
	"github.com/goliatone/go-pagekit/internal/variants"
)

// PageService exports the page lifecycle contract.
type PageService = pages.Service

// Page is a stored page document.
type Page = pages.Document

// Section is one tagged content block of a page.
type Section = sections.Section

// RenderedPage is the per-section output of a render.
type RenderedPage = sections.RenderedPage

// RenderedDocument is a full HTML page with its diagnostics.
type RenderedDocument = pages.RenderedDocument

// VariantGroup is a base page and its numbered variants.
type VariantGroup = variants.Group

// BlockDefinition is one entry of the block catalog.
type BlockDefinition = blocks.Definition

// EditSession exports the editor session controller.
type EditSession = *editor.Session

// Overlay exports the editor overlay.
type Overlay = *editor.Overlay

// Module represents the top level pagekit runtime façade.
type Module struct {
	container *di.Container
}

// New constructs a module using the provided configuration and optional DI overrides.
func New(cfg Config, opts ...di.Option) (*Module, error) {
	container, err := di.NewContainer(context.Background(), cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Container exposes the underlying DI container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

// Pages returns the page service.
func (m *Module) Pages() PageService {
	return m.container.PageService()
}

// Dispatcher returns the section dispatcher.
func (m *Module) Dispatcher() *sections.Dispatcher {
	return m.container.Dispatcher()
}

// Blocks returns the block catalog.
func (m *Module) Blocks() *blocks.Catalog {
	return m.container.BlockCatalog()
}

// Render renders the stored page slug as standalone HTML.
func (m *Module) Render(ctx context.Context, slug string) (RenderedDocument, error) {
	doc, err := m.container.PageService().Get(ctx, slug)
	if err != nil {
		return RenderedDocument{}, err
	}
	return pages.Render(ctx, m.container.Dispatcher(), doc)
}

// Duplicate creates the next variant of slug.
func (m *Module) Duplicate(ctx context.Context, slug string) (*Page, error) {
	return m.container.PageService().Duplicate(ctx, slug)
}

// Ingest fetches slug from the configured content source and stores it.
// Unresolvable sections are reported as issues and kept in place.
func (m *Module) Ingest(ctx context.Context, slug string) (*Page, []contentsource.Issue, error) {
	source := m.container.ContentSource()
	if source == nil {
		return nil, nil, ErrContentSourceRequired
	}
	result, err := contentsource.Load(ctx, source, m.container.Decoder(), slug)
	if err != nil {
		return nil, nil, err
	}
	doc, err := contentsource.Ingest(ctx, m.container.PageService(), result)
	if err != nil {
		return nil, result.Issues, err
	}
	return doc, result.Issues, nil
}

// HTTPHandler returns the HTTP surface.
func (m *Module) HTTPHandler() http.Handler {
	return m.container.HTTPAPI().Handler()
}

// NewSession opens an edit session on slug.
func (m *Module) NewSession(ctx context.Context, slug string) (EditSession, error) {
	return m.container.NewSession(ctx, slug)
}

// NewOverlay returns an editor overlay bound to the module dispatcher.
func (m *Module) NewOverlay() Overlay {
	return m.container.NewOverlay()
}

// Close releases storage owned by the module.
func (m *Module) Close() error {
	return m.container.Close()
}
