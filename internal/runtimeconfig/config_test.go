package runtimeconfig_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goliatone/go-pagekit/internal/runtimeconfig"
)

func TestDefaultConfigValidates(t *testing.T) {
	if err := runtimeconfig.DefaultConfig().Validate(); err != nil {
		t.Fatalf("Validate() returned unexpected error: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*runtimeconfig.Config)
		want   error
	}{
		{name: "unknown storage", mutate: func(c *runtimeconfig.Config) { c.Storage.Provider = "s3" }, want: runtimeconfig.ErrStorageProviderUnknown},
		{name: "file without dir", mutate: func(c *runtimeconfig.Config) { c.Storage.Dir = " " }, want: runtimeconfig.ErrStorageDirRequired},
		{name: "file format", mutate: func(c *runtimeconfig.Config) { c.Storage.Format = "toml" }, want: runtimeconfig.ErrStorageFormatUnknown},
		{name: "bun without dsn", mutate: func(c *runtimeconfig.Config) { c.Storage.Provider = "bun" }, want: runtimeconfig.ErrStorageDSNRequired},
		{name: "cache on file storage", mutate: func(c *runtimeconfig.Config) { c.Cache.Enabled = true }, want: runtimeconfig.ErrCacheRequiresBunStorage},
		{name: "negative ttl", mutate: func(c *runtimeconfig.Config) { c.Cache.TTL = -time.Second }, want: runtimeconfig.ErrCacheTTLInvalid},
		{name: "tag field", mutate: func(c *runtimeconfig.Config) { c.Sections.TagField = "" }, want: runtimeconfig.ErrSectionsTagFieldRequired},
		{name: "type field", mutate: func(c *runtimeconfig.Config) { c.Sections.TypeField = "" }, want: runtimeconfig.ErrSectionsTypeFieldRequired},
		{name: "debounce", mutate: func(c *runtimeconfig.Config) { c.Editor.Debounce = 0 }, want: runtimeconfig.ErrEditorDebounceInvalid},
		{name: "settle delay", mutate: func(c *runtimeconfig.Config) { c.Editor.SettleDelay = -1 }, want: runtimeconfig.ErrEditorSettleDelayInvalid},
		{name: "max children", mutate: func(c *runtimeconfig.Config) { c.Editor.MaxChildElements = 0 }, want: runtimeconfig.ErrEditorMaxChildrenInvalid},
		{name: "title format", mutate: func(c *runtimeconfig.Config) { c.Variants.TitleFormat = "%s copy" }, want: runtimeconfig.ErrVariantTitleFormatInvalid},
		{name: "logging provider", mutate: func(c *runtimeconfig.Config) { c.Logging.Provider = "" }, want: runtimeconfig.ErrLoggingProviderRequired},
		{name: "unknown logging provider", mutate: func(c *runtimeconfig.Config) { c.Logging.Provider = "syslog" }, want: runtimeconfig.ErrLoggingProviderUnknown},
		{name: "logging level", mutate: func(c *runtimeconfig.Config) { c.Logging.Level = "loud" }, want: runtimeconfig.ErrLoggingLevelInvalid},
		{name: "logging format", mutate: func(c *runtimeconfig.Config) {
			c.Logging.Provider = "gologger"
			c.Logging.Format = "xml"
		}, want: runtimeconfig.ErrLoggingFormatInvalid},
		{name: "source query", mutate: func(c *runtimeconfig.Config) { c.Source.Endpoint = "https://cms.example.com/graphql" }, want: runtimeconfig.ErrSourceQueryRequired},
		{name: "http addr", mutate: func(c *runtimeconfig.Config) { c.HTTP.Addr = "" }, want: runtimeconfig.ErrHTTPAddrRequired},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := runtimeconfig.DefaultConfig()
			tc.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestConfigValidate_AllowsCachedBunStorage(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Storage.Provider = "bun"
	cfg.Storage.DSN = "file:pages.db"
	cfg.Cache.Enabled = true

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() returned unexpected error: %v", err)
	}
}

func TestLoadFileOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pagekit.yaml")
	data := []byte(`
storage:
  provider: memory
editor:
  debounce: 2s
  ctaFields: [buttonText]
http:
  basePath: /admin/api
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := runtimeconfig.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Storage.Provider != "memory" || cfg.Editor.Debounce != 2*time.Second {
		t.Fatalf("expected overrides, got %+v", cfg)
	}
	if len(cfg.Editor.CTAFields) != 1 || cfg.Editor.CTAFields[0] != "buttonText" {
		t.Fatalf("expected cta fields override, got %v", cfg.Editor.CTAFields)
	}
	if cfg.Editor.SettleDelay != 150*time.Millisecond || cfg.HTTP.Addr != ":8080" || cfg.HTTP.BasePath != "/admin/api" {
		t.Fatalf("expected untouched defaults to survive, got %+v", cfg)
	}
}

func TestLoadFileRejectsInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pagekit.yaml")
	if err := os.WriteFile(path, []byte("storage:\n  provider: bun\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := runtimeconfig.LoadFile(path); !errors.Is(err, runtimeconfig.ErrStorageDSNRequired) {
		t.Fatalf("expected ErrStorageDSNRequired, got %v", err)
	}
}
