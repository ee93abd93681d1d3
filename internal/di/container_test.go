package di_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goliatone/go-pagekit/internal/di"
	"github.com/goliatone/go-pagekit/internal/logging/console"
	"github.com/goliatone/go-pagekit/internal/markdown"
	"github.com/goliatone/go-pagekit/internal/pages"
	"github.com/goliatone/go-pagekit/internal/runtimeconfig"
	"github.com/goliatone/go-pagekit/internal/sections"
)

func quietProvider() di.Option {
	return di.WithLoggerProvider(console.NewProvider(console.Options{Writer: io.Discard}))
}

func memoryConfig() runtimeconfig.Config {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Storage.Provider = runtimeconfig.StorageMemory
	return cfg
}

func newContainer(t *testing.T, cfg runtimeconfig.Config, opts ...di.Option) *di.Container {
	t.Helper()
	container, err := di.NewContainer(context.Background(), cfg, append([]di.Option{quietProvider()}, opts...)...)
	if err != nil {
		t.Fatalf("NewContainer: %v", err)
	}
	t.Cleanup(func() { _ = container.Close() })
	return container
}

func landing() *pages.Document {
	return &pages.Document{
		Slug:  "landing",
		Title: "Landing",
		Sections: []sections.Section{
			sections.NewSection(sections.TemplateHero, "headline", "Grow faster", "ctaText", "Start", "ctaLink", "/start"),
			sections.NewSection(sections.TemplateRichText, "body", "Some **bold** claims"),
		},
	}
}

func TestNewContainerRejectsInvalidConfig(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Storage.Provider = "redis"
	if _, err := di.NewContainer(context.Background(), cfg); !errors.Is(err, runtimeconfig.ErrStorageProviderUnknown) {
		t.Fatalf("expected ErrStorageProviderUnknown, got %v", err)
	}
}

func TestContainerStorageProviders(t *testing.T) {
	cases := map[string]func(t *testing.T) runtimeconfig.Config{
		"memory": func(*testing.T) runtimeconfig.Config { return memoryConfig() },
		"file": func(t *testing.T) runtimeconfig.Config {
			cfg := runtimeconfig.DefaultConfig()
			cfg.Storage.Dir = t.TempDir()
			return cfg
		},
		"markdown": func(t *testing.T) runtimeconfig.Config {
			cfg := runtimeconfig.DefaultConfig()
			cfg.Storage.Dir = t.TempDir()
			cfg.Storage.Format = "md"
			return cfg
		},
		"bun sqlite cached": func(t *testing.T) runtimeconfig.Config {
			cfg := runtimeconfig.DefaultConfig()
			cfg.Storage.Provider = runtimeconfig.StorageBun
			cfg.Storage.DSN = "file:" + filepath.Join(t.TempDir(), "pages.db")
			cfg.Cache.Enabled = true
			return cfg
		},
	}

	for name, build := range cases {
		t.Run(name, func(t *testing.T) {
			container := newContainer(t, build(t))
			ctx := context.Background()
			svc := container.PageService()

			if _, err := svc.Create(ctx, landing()); err != nil {
				t.Fatalf("Create: %v", err)
			}
			got, err := svc.Get(ctx, "landing")
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if len(got.Sections) != 2 || got.Sections[1].Template != sections.TemplateRichText {
				t.Fatalf("unexpected stored page %+v", got)
			}

			dup, err := svc.Duplicate(ctx, "landing")
			if err != nil {
				t.Fatalf("Duplicate: %v", err)
			}
			if dup.Slug != "landing-v2" {
				t.Fatalf("expected landing-v2, got %s", dup.Slug)
			}
		})
	}
}

func TestContainerFileStorageWritesDir(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Storage.Dir = t.TempDir()
	container := newContainer(t, cfg)

	if _, err := container.PageService().Create(context.Background(), landing()); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := os.Stat(filepath.Join(cfg.Storage.Dir, "landing.json")); err != nil {
		t.Fatalf("expected page file: %v", err)
	}
}

func TestContainerMarkdownConfig(t *testing.T) {
	body := sections.NewSection(sections.TemplateRichText, "body", "Hi <b class=\"x\">there</b> <script>alert(1)</script>")

	safe := newContainer(t, memoryConfig()).Dispatcher().RenderSection(context.Background(), 0, body)
	if strings.Contains(string(safe.HTML), "<script") || strings.Contains(string(safe.HTML), `<b class="x">`) {
		t.Fatalf("expected raw html to be dropped by default, got %s", safe.HTML)
	}

	cfg := memoryConfig()
	cfg.Markdown.AllowRawHTML = true
	raw := newContainer(t, cfg).Dispatcher().RenderSection(context.Background(), 0, body)
	if !strings.Contains(string(raw.HTML), `<b class="x">there</b>`) {
		t.Fatalf("expected raw html when allowed, got %s", raw.HTML)
	}

	cfg = memoryConfig()
	cfg.Markdown.Extensions = []string{"gfm", "emoji"}
	if _, err := di.NewContainer(context.Background(), cfg, quietProvider()); !errors.Is(err, markdown.ErrUnknownExtension) {
		t.Fatalf("expected ErrUnknownExtension, got %v", err)
	}
}

func TestContainerRegistersExtraSections(t *testing.T) {
	renderer, err := sections.NewTemplateRenderer("banner", `<aside class="banner" {{.Edit "message"}}>{{.Text "message"}}</aside>`, nil)
	if err != nil {
		t.Fatalf("NewTemplateRenderer: %v", err)
	}
	container := newContainer(t, memoryConfig(), di.WithSectionEntries(sections.Entry{
		Name:     "banner",
		Label:    "Banner",
		Fields:   []sections.FieldSpec{{Name: "message", Kind: sections.KindText, Required: true}},
		Renderer: renderer,
	}))

	if _, ok := container.Registry().Lookup("banner"); !ok {
		t.Fatalf("expected banner in registry, got %v", container.Registry().Names())
	}
	rendered := container.Dispatcher().RenderSection(context.Background(), 0, sections.NewSection("banner", "message", "Sale ends <soon>"))
	if rendered.Empty || !strings.Contains(string(rendered.HTML), "Sale ends &lt;soon&gt;</aside>") {
		t.Fatalf("expected escaped banner, got %+v", rendered)
	}
}

func TestContainerHTTPAPIServesRenderedPages(t *testing.T) {
	container := newContainer(t, memoryConfig())
	if _, err := container.PageService().Create(context.Background(), landing()); err != nil {
		t.Fatalf("Create: %v", err)
	}

	handler := container.HTTPAPI().Handler()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/p/landing", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if body := rec.Body.String(); !strings.Contains(body, "Grow faster") || !strings.Contains(body, "<strong>bold</strong>") {
		t.Fatalf("expected rendered hero and markdown, got %s", body)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/blocks/usage", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"slug":"landing"`) {
		t.Fatalf("expected block usage for landing, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestContainerEditorRoundTrip(t *testing.T) {
	cfg := memoryConfig()
	cfg.Editor.SettleDelay = 0
	container := newContainer(t, cfg)
	ctx := context.Background()
	if _, err := container.PageService().Create(ctx, landing()); err != nil {
		t.Fatalf("Create: %v", err)
	}

	session, err := container.NewSession(ctx, "landing")
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	defer session.Close()

	overlay := container.NewOverlay()
	overlay.Mount(session.Document())
	region, ok := overlay.Find(0, "headline")
	if !ok {
		t.Fatalf("expected headline region, got %+v", overlay.Regions())
	}

	if err := session.EditRegion(0, region, "Grow even faster"); err != nil {
		t.Fatalf("EditRegion: %v", err)
	}
	if err := session.Save(ctx); err != nil {
		t.Fatalf("Save: %v", err)
	}

	stored, err := container.PageService().Get(ctx, "landing")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got := stored.Sections[0].Fields.String("headline"); got != "Grow even faster" {
		t.Fatalf("expected saved headline, got %q", got)
	}
	if stored.Version != 2 {
		t.Fatalf("expected version 2, got %d", stored.Version)
	}
}

func TestContainerGologgerProvider(t *testing.T) {
	cfg := memoryConfig()
	cfg.Logging.Provider = "gologger"
	cfg.Logging.Format = "json"
	container, err := di.NewContainer(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewContainer: %v", err)
	}
	if container.LoggerProvider() == nil {
		t.Fatal("expected logger provider")
	}
}

func TestContainerContentSource(t *testing.T) {
	cfg := memoryConfig()
	if newContainer(t, cfg).ContentSource() != nil {
		t.Fatal("expected no source without endpoint or dir")
	}
	cfg.Source.Dir = t.TempDir()
	if newContainer(t, cfg).ContentSource() == nil {
		t.Fatal("expected file source")
	}
}
