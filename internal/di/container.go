package di

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"strings"
	"time"

	repocache "github.com/goliatone/go-repository-cache/cache"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/goliatone/go-pagekit/internal/blocks"
	"github.com/goliatone/go-pagekit/internal/commands"
	pagescmd "github.com/goliatone/go-pagekit/internal/commands/pages"
	"github.com/goliatone/go-pagekit/internal/contentsource"
	"github.com/goliatone/go-pagekit/internal/editor"
	pagehttp "github.com/goliatone/go-pagekit/internal/http"
	"github.com/goliatone/go-pagekit/internal/logging"
	"github.com/goliatone/go-pagekit/internal/logging/console"
	"github.com/goliatone/go-pagekit/internal/logging/gologger"
	"github.com/goliatone/go-pagekit/internal/markdown"
	"github.com/goliatone/go-pagekit/internal/pages"
	"github.com/goliatone/go-pagekit/internal/runtimeconfig"
	"github.com/goliatone/go-pagekit/internal/sections"
	"github.com/goliatone/go-pagekit/internal/variants"
	"github.com/goliatone/go-pagekit/pkg/interfaces"
)

// Container wires module dependencies from a runtime config.
type Container struct {
	Config runtimeconfig.Config

	loggerProvider interfaces.LoggerProvider
	markdownParser interfaces.MarkdownParser
	extraEntries   []sections.Entry
	editorClock    editor.Clock

	bunDB         *bun.DB
	ownsDB        bool
	cacheService  repocache.CacheService
	keySerializer repocache.KeySerializer

	registry   *sections.Registry
	dispatcher *sections.Dispatcher
	resolver   sections.TemplateResolver
	normalizer sections.Normalizer
	catalog    *blocks.Catalog
	inspector  *blocks.Inspector

	pageRepo pages.Repository
	pageSvc  pages.Service

	saveHandler      *pagescmd.SavePageHandler
	duplicateHandler *pagescmd.DuplicatePageHandler
	deleteHandler    *pagescmd.DeletePageHandler

	decoder *contentsource.Decoder
}

// Option mutates the container before it is finalised.
type Option func(*Container)

// WithLoggerProvider overrides the provider chosen from Logging config.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		c.loggerProvider = provider
	}
}

// WithMarkdownParser overrides the goldmark parser used by richtext.
func WithMarkdownParser(parser interfaces.MarkdownParser) Option {
	return func(c *Container) {
		c.markdownParser = parser
	}
}

// WithSectionEntries registers templates beyond the built-in set.
func WithSectionEntries(entries ...sections.Entry) Option {
	return func(c *Container) {
		c.extraEntries = append(c.extraEntries, entries...)
	}
}

// WithBunDB supplies an open database for the bun storage provider. The
// container does not close it.
func WithBunDB(db *bun.DB) Option {
	return func(c *Container) {
		c.bunDB = db
	}
}

// WithCache overrides the default cache service.
func WithCache(service repocache.CacheService, serializer repocache.KeySerializer) Option {
	return func(c *Container) {
		c.cacheService = service
		c.keySerializer = serializer
	}
}

// WithPageRepository bypasses the configured storage provider.
func WithPageRepository(repo pages.Repository) Option {
	return func(c *Container) {
		c.pageRepo = repo
	}
}

// WithPageService overrides the default page service binding.
func WithPageService(svc pages.Service) Option {
	return func(c *Container) {
		c.pageSvc = svc
	}
}

// WithEditorClock sets the clock used by editor sessions and overlays.
func WithEditorClock(clock editor.Clock) Option {
	return func(c *Container) {
		c.editorClock = clock
	}
}

// NewContainer validates cfg and wires every service.
func NewContainer(ctx context.Context, cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Container{Config: cfg}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if err := c.configureLogger(); err != nil {
		return nil, err
	}
	if err := c.configureSections(); err != nil {
		return nil, err
	}
	c.configureCacheDefaults()
	if err := c.configureRepositories(ctx); err != nil {
		return nil, err
	}
	c.configureServices()
	if err := c.configureBlocks(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Container) configureLogger() error {
	if c.loggerProvider != nil {
		return nil
	}
	cfg := c.Config.Logging
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "gologger":
		provider, err := gologger.NewProvider(gologger.Config{Level: cfg.Level, Format: cfg.Format})
		if err != nil {
			return err
		}
		c.loggerProvider = provider
	default:
		level := console.ParseLevel(cfg.Level)
		c.loggerProvider = console.NewProvider(console.Options{MinLevel: &level})
	}
	return nil
}

func (c *Container) configureSections() error {
	if c.markdownParser == nil {
		cfg := c.Config.Markdown
		parser, err := markdown.NewGoldmarkParser(interfaces.MarkdownOptions{
			Extensions:   append([]string(nil), cfg.Extensions...),
			HardWraps:    cfg.HardWraps,
			AllowRawHTML: cfg.AllowRawHTML,
		})
		if err != nil {
			return err
		}
		c.markdownParser = parser
	}
	registry, err := sections.NewBuiltinRegistry(c.markdownParser, c.extraEntries...)
	if err != nil {
		return err
	}
	c.registry = registry

	cfg := c.Config.Sections
	c.resolver = sections.TemplateResolver{
		TagField:  cfg.TagField,
		TypeField: cfg.TypeField,
		Prefixes:  append([]string(nil), cfg.DiscriminatorPrefixes...),
	}
	c.normalizer = sections.Normalizer{TransportKeys: []string{cfg.TypeField}}
	c.dispatcher = sections.NewDispatcher(registry,
		sections.WithLogger(logging.SectionsLogger(c.loggerProvider)),
		sections.WithShapeValidation(cfg.ValidateShapes),
		sections.WithResolver(c.resolver, c.normalizer),
	)
	c.decoder = contentsource.NewDecoder(
		contentsource.WithResolver(c.resolver),
		contentsource.WithNormalizer(c.normalizer),
		contentsource.WithLogger(logging.ModuleLogger(c.loggerProvider, "pagekit.contentsource")),
	)
	return nil
}

func (c *Container) configureCacheDefaults() {
	if !c.Config.Cache.Enabled {
		return
	}

	if c.cacheService == nil {
		cfg := repocache.DefaultConfig()
		if c.Config.Cache.TTL > 0 {
			cfg.TTL = c.Config.Cache.TTL
		}
		service, err := repocache.NewCacheService(cfg)
		if err == nil {
			c.cacheService = service
		}
	}

	if c.cacheService != nil && c.keySerializer == nil {
		c.keySerializer = repocache.NewDefaultKeySerializer()
	}
}

func (c *Container) configureRepositories(ctx context.Context) error {
	if c.pageRepo != nil || c.pageSvc != nil {
		return nil
	}
	storage := c.Config.Storage
	switch strings.ToLower(strings.TrimSpace(storage.Provider)) {
	case runtimeconfig.StorageMemory:
		c.pageRepo = pages.NewMemoryRepository()
	case runtimeconfig.StorageFile:
		format := pages.FormatJSON
		if strings.EqualFold(strings.TrimSpace(storage.Format), string(pages.FormatMarkdown)) {
			format = pages.FormatMarkdown
		}
		repo, err := pages.NewFileRepository(storage.Dir, pages.WithFileFormat(format))
		if err != nil {
			return err
		}
		c.pageRepo = repo
	case runtimeconfig.StorageBun:
		if c.bunDB == nil {
			db, err := OpenBunDB(storage.DSN)
			if err != nil {
				return err
			}
			c.bunDB = db
			c.ownsDB = true
		}
		if err := EnsureSchema(ctx, c.bunDB); err != nil {
			return err
		}
		if c.cacheService != nil {
			c.pageRepo = pages.NewBunRepositoryWithCache(c.bunDB, c.cacheService, c.keySerializer)
		} else {
			c.pageRepo = pages.NewBunRepository(c.bunDB)
		}
	default:
		return fmt.Errorf("%w: %q", runtimeconfig.ErrStorageProviderUnknown, storage.Provider)
	}
	return nil
}

func (c *Container) configureServices() {
	if c.pageSvc == nil {
		planner := variants.Planner{TitleFormat: c.Config.Variants.TitleFormat}
		if planner.TitleFormat == "" {
			planner.TitleFormat = variants.DefaultTitleFormat
		}
		c.pageSvc = pages.NewService(c.pageRepo,
			pages.WithLogger(logging.PagesLogger(c.loggerProvider)),
			pages.WithPlanner(planner),
		)
	}
	commandLogger := commands.CommandLogger(c.loggerProvider, "pages")
	c.saveHandler = pagescmd.NewSavePageHandler(c.pageSvc, commandLogger)
	c.duplicateHandler = pagescmd.NewDuplicatePageHandler(c.pageSvc, commandLogger)
	c.deleteHandler = pagescmd.NewDeletePageHandler(c.pageSvc, commandLogger)
}

func (c *Container) configureBlocks() error {
	catalog, err := blocks.NewDefaultCatalog()
	if err != nil {
		return err
	}
	c.catalog = catalog
	c.inspector = blocks.NewInspector(catalog, c.registry, pageIndex(c.pageSvc), logging.BlocksLogger(c.loggerProvider))
	return nil
}

// OpenBunDB opens dsn with the matching dialect: postgres URLs use lib/pq and
// pgdialect, anything else is handed to go-sqlite3.
func OpenBunDB(dsn string) (*bun.DB, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, runtimeconfig.ErrStorageDSNRequired
	}
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		sqlDB, err := sql.Open("postgres", dsn)
		if err != nil {
			return nil, err
		}
		return bun.NewDB(sqlDB, pgdialect.New()), nil
	}
	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return bun.NewDB(sqlDB, sqlitedialect.New()), nil
}

// EnsureSchema creates the page table when missing.
func EnsureSchema(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*pages.PageRecord)(nil)).IfNotExists().Exec(ctx)
	return err
}

// Close releases the database opened by the container.
func (c *Container) Close() error {
	if c.ownsDB && c.bunDB != nil {
		return c.bunDB.Close()
	}
	return nil
}

func (c *Container) LoggerProvider() interfaces.LoggerProvider {
	return c.loggerProvider
}

func (c *Container) Registry() *sections.Registry {
	return c.registry
}

func (c *Container) Dispatcher() *sections.Dispatcher {
	return c.dispatcher
}

func (c *Container) BlockCatalog() *blocks.Catalog {
	return c.catalog
}

func (c *Container) BlockInspector() *blocks.Inspector {
	return c.inspector
}

func (c *Container) PageRepository() pages.Repository {
	return c.pageRepo
}

func (c *Container) PageService() pages.Service {
	return c.pageSvc
}

func (c *Container) SavePageHandler() *pagescmd.SavePageHandler {
	return c.saveHandler
}

func (c *Container) DuplicatePageHandler() *pagescmd.DuplicatePageHandler {
	return c.duplicateHandler
}

func (c *Container) DeletePageHandler() *pagescmd.DeletePageHandler {
	return c.deleteHandler
}

func (c *Container) Decoder() *contentsource.Decoder {
	return c.decoder
}

// ContentSource returns the configured ingestion source, or nil when neither
// an endpoint nor a directory is set.
func (c *Container) ContentSource() contentsource.Source {
	cfg := c.Config.Source
	if endpoint := strings.TrimSpace(cfg.Endpoint); endpoint != "" {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		return contentsource.GraphQLSource{
			Endpoint: endpoint,
			Query:    cfg.Query,
			Headers:  cfg.Headers,
			Client:   &http.Client{Timeout: timeout},
		}
	}
	if dir := strings.TrimSpace(cfg.Dir); dir != "" {
		return contentsource.FileSource{Dir: dir}
	}
	return nil
}

// HTTPAPI builds the HTTP surface over the container services.
func (c *Container) HTTPAPI() *pagehttp.API {
	return pagehttp.NewAPI(
		pagehttp.WithBasePath(c.Config.HTTP.BasePath),
		pagehttp.WithRenderPath(c.Config.HTTP.RenderPath),
		pagehttp.WithPages(c.pageSvc),
		pagehttp.WithCommands(c.saveHandler, c.duplicateHandler, c.deleteHandler),
		pagehttp.WithBlocks(c.catalog, c.inspector),
		pagehttp.WithDispatcher(c.dispatcher),
		pagehttp.WithLogger(logging.HTTPLogger(c.loggerProvider)),
	)
}

// Persister saves editor sessions through the save command.
func (c *Container) Persister() editor.Persister {
	return pagescmd.Persister{Handler: c.saveHandler}
}

// NewSession loads slug and opens an edit session on it.
func (c *Container) NewSession(ctx context.Context, slug string) (*editor.Session, error) {
	doc, err := c.pageSvc.Get(ctx, slug)
	if err != nil {
		return nil, err
	}
	opts := []editor.SessionOption{
		editor.WithDebounce(c.Config.Editor.Debounce),
		editor.WithSessionLogger(logging.EditorLogger(c.loggerProvider)),
	}
	if c.editorClock != nil {
		opts = append(opts, editor.WithSessionClock(c.editorClock))
	}
	return editor.NewSession(doc, c.Persister(), opts...)
}

// NewOverlay returns an overlay configured from the Editor section.
func (c *Container) NewOverlay() *editor.Overlay {
	cfg := c.Config.Editor
	opts := []editor.OverlayOption{
		editor.WithScanner(editor.NewScanner(editor.WithMaxChildElements(cfg.MaxChildElements))),
		editor.WithInferrer(editor.NewInferrer(cfg.CTAFields...)),
		editor.WithSettleDelay(cfg.SettleDelay),
		editor.WithMarkers(cfg.Markers),
		editor.WithOverlayLogger(logging.EditorLogger(c.loggerProvider)),
	}
	if c.editorClock != nil {
		opts = append(opts, editor.WithOverlayClock(c.editorClock))
	}
	return editor.NewOverlay(c.dispatcher, opts...)
}
