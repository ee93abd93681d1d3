package http

import (
	"net/http"
	"strings"

	"github.com/goliatone/go-pagekit/internal/blocks"
	pagescmd "github.com/goliatone/go-pagekit/internal/commands/pages"
	"github.com/goliatone/go-pagekit/internal/logging"
	"github.com/goliatone/go-pagekit/internal/pages"
	"github.com/goliatone/go-pagekit/internal/sections"
	"github.com/goliatone/go-pagekit/pkg/interfaces"
)

const (
	DefaultBasePath   = "/api"
	DefaultRenderPath = "/p"
)

// API serves the page collaborator contract.
type API struct {
	basePath   string
	renderPath string
	pages      pages.Service
	save       *pagescmd.SavePageHandler
	duplicate  *pagescmd.DuplicatePageHandler
	remove     *pagescmd.DeletePageHandler
	catalog    *blocks.Catalog
	inspector  *blocks.Inspector
	dispatcher *sections.Dispatcher
	logger     interfaces.Logger
}

// Option mutates the API configuration.
type Option func(*API)

// NewAPI constructs an API. Command handlers default to ones built over the
// page service when none are supplied.
func NewAPI(opts ...Option) *API {
	api := &API{
		basePath:   DefaultBasePath,
		renderPath: DefaultRenderPath,
		logger:     logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(api)
		}
	}
	if api.pages != nil {
		if api.save == nil {
			api.save = pagescmd.NewSavePageHandler(api.pages, api.logger)
		}
		if api.duplicate == nil {
			api.duplicate = pagescmd.NewDuplicatePageHandler(api.pages, api.logger)
		}
		if api.remove == nil {
			api.remove = pagescmd.NewDeletePageHandler(api.pages, api.logger)
		}
	}
	return api
}

// WithBasePath overrides the JSON API prefix.
func WithBasePath(path string) Option {
	return func(api *API) {
		if trimmed := strings.TrimSpace(path); trimmed != "" {
			api.basePath = trimmed
		}
	}
}

// WithRenderPath overrides the rendered page prefix.
func WithRenderPath(path string) Option {
	return func(api *API) {
		if trimmed := strings.TrimSpace(path); trimmed != "" {
			api.renderPath = trimmed
		}
	}
}

// WithPages wires the page service.
func WithPages(service pages.Service) Option {
	return func(api *API) {
		api.pages = service
	}
}

// WithCommands wires explicit command handlers for writes.
func WithCommands(save *pagescmd.SavePageHandler, duplicate *pagescmd.DuplicatePageHandler, remove *pagescmd.DeletePageHandler) Option {
	return func(api *API) {
		api.save = save
		api.duplicate = duplicate
		api.remove = remove
	}
}

// WithBlocks wires the block catalog and its inspector.
func WithBlocks(catalog *blocks.Catalog, inspector *blocks.Inspector) Option {
	return func(api *API) {
		api.catalog = catalog
		api.inspector = inspector
	}
}

// WithDispatcher sets the dispatcher used for page and block rendering.
func WithDispatcher(dispatcher *sections.Dispatcher) Option {
	return func(api *API) {
		api.dispatcher = dispatcher
	}
}

func WithLogger(logger interfaces.Logger) Option {
	return func(api *API) {
		if logger != nil {
			api.logger = logger
		}
	}
}

// Register mounts every route on mux.
func (api *API) Register(mux *http.ServeMux) {
	if api == nil || mux == nil {
		return
	}
	api.registerPageRoutes(mux, api.basePath)
	api.registerBlockRoutes(mux, api.basePath)
	api.registerRenderRoutes(mux, api.renderPath)
}

// Handler returns a mux with every route mounted.
func (api *API) Handler() http.Handler {
	mux := http.NewServeMux()
	api.Register(mux)
	return mux
}
