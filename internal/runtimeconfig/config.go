package runtimeconfig

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var (
	ErrStorageProviderUnknown    = errors.New("pagekit config: storage provider is invalid")
	ErrStorageDirRequired        = errors.New("pagekit config: storage directory is required for the file provider")
	ErrStorageFormatUnknown      = errors.New("pagekit config: storage format is invalid")
	ErrStorageDSNRequired        = errors.New("pagekit config: storage dsn is required for the bun provider")
	ErrCacheRequiresBunStorage   = errors.New("pagekit config: cache requires the bun storage provider")
	ErrCacheTTLInvalid           = errors.New("pagekit config: cache ttl must be zero or positive")
	ErrSectionsTagFieldRequired  = errors.New("pagekit config: sections tag field is required")
	ErrSectionsTypeFieldRequired = errors.New("pagekit config: sections type field is required")
	ErrEditorDebounceInvalid     = errors.New("pagekit config: editor debounce must be positive")
	ErrEditorSettleDelayInvalid  = errors.New("pagekit config: editor settle delay must be zero or positive")
	ErrEditorMaxChildrenInvalid  = errors.New("pagekit config: editor max child elements must be at least 1")
	ErrVariantTitleFormatInvalid = errors.New("pagekit config: variant title format needs %s and %d verbs")
	ErrLoggingProviderRequired   = errors.New("pagekit config: logging provider is required")
	ErrLoggingProviderUnknown    = errors.New("pagekit config: logging provider is invalid")
	ErrLoggingLevelInvalid       = errors.New("pagekit config: logging level is invalid")
	ErrLoggingFormatInvalid      = errors.New("pagekit config: logging format is invalid")
	ErrHTTPAddrRequired          = errors.New("pagekit config: http address is required")
	ErrSourceQueryRequired       = errors.New("pagekit config: source query is required with a graphql endpoint")
)

// Storage providers.
const (
	StorageMemory = "memory"
	StorageFile   = "file"
	StorageBun    = "bun"
)

// Config aggregates the settings of a pagekit module.
type Config struct {
	Storage  StorageConfig  `yaml:"storage"`
	Cache    CacheConfig    `yaml:"cache"`
	Sections SectionsConfig `yaml:"sections"`
	Markdown MarkdownConfig `yaml:"markdown"`
	Editor   EditorConfig   `yaml:"editor"`
	Variants VariantsConfig `yaml:"variants"`
	Source   SourceConfig   `yaml:"source"`
	Logging  LoggingConfig  `yaml:"logging"`
	HTTP     HTTPConfig     `yaml:"http"`
}

// StorageConfig selects the page repository. Dir and Format apply to the file
// provider, DSN to the bun provider (sqlite file or postgres URL).
type StorageConfig struct {
	Provider string `yaml:"provider"`
	Dir      string `yaml:"dir"`
	Format   string `yaml:"format"`
	DSN      string `yaml:"dsn"`
}

// CacheConfig wraps the bun repository with a read-through cache.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	TTL     time.Duration `yaml:"ttl"`
}

// SectionsConfig controls how raw content-source records resolve to
// templates.
type SectionsConfig struct {
	DiscriminatorPrefixes []string `yaml:"discriminatorPrefixes"`
	TagField              string   `yaml:"tagField"`
	TypeField             string   `yaml:"typeField"`
	ValidateShapes        bool     `yaml:"validateShapes"`
}

// MarkdownConfig controls richtext rendering. Raw HTML in bodies is dropped
// unless AllowRawHTML is set.
type MarkdownConfig struct {
	Extensions   []string `yaml:"extensions"`
	HardWraps    bool     `yaml:"hardWraps"`
	AllowRawHTML bool     `yaml:"allowRawHTML"`
}

// EditorConfig tunes the visual editor.
type EditorConfig struct {
	Debounce         time.Duration `yaml:"debounce"`
	SettleDelay      time.Duration `yaml:"settleDelay"`
	MaxChildElements int           `yaml:"maxChildElements"`
	CTAFields        []string      `yaml:"ctaFields"`
	Markers          bool          `yaml:"markers"`
}

type VariantsConfig struct {
	TitleFormat string `yaml:"titleFormat"`
}

// SourceConfig points ingestion at a GraphQL endpoint or a directory of
// exported responses. Endpoint wins when both are set and needs Query, which
// must select the fields of every section type.
type SourceConfig struct {
	Endpoint string            `yaml:"endpoint"`
	Query    string            `yaml:"query"`
	Dir      string            `yaml:"dir"`
	Headers  map[string]string `yaml:"headers"`
	Timeout  time.Duration     `yaml:"timeout"`
}

type LoggingConfig struct {
	Provider string `yaml:"provider"`
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
}

type HTTPConfig struct {
	Addr       string `yaml:"addr"`
	BasePath   string `yaml:"basePath"`
	RenderPath string `yaml:"renderPath"`
}

// DefaultConfig returns the defaults used when no file is supplied.
func DefaultConfig() Config {
	return Config{
		Storage: StorageConfig{
			Provider: StorageFile,
			Dir:      "pages",
			Format:   "json",
		},
		Cache: CacheConfig{
			Enabled: false,
			TTL:     time.Minute,
		},
		Sections: SectionsConfig{
			DiscriminatorPrefixes: []string{"PageSections", "PageBlocks"},
			TagField:              "_template",
			TypeField:             "__typename",
			ValidateShapes:        true,
		},
		Markdown: MarkdownConfig{
			Extensions: []string{"gfm"},
		},
		Editor: EditorConfig{
			Debounce:         1500 * time.Millisecond,
			SettleDelay:      150 * time.Millisecond,
			MaxChildElements: 2,
			CTAFields:        []string{"ctaText", "secondaryCtaText", "primaryCtaText", "buttonText"},
			Markers:          true,
		},
		Variants: VariantsConfig{
			TitleFormat: "%s (Variant %d)",
		},
		Source: SourceConfig{
			Timeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
		},
		HTTP: HTTPConfig{
			Addr:       ":8080",
			BasePath:   "/api",
			RenderPath: "/p",
		},
	}
}

// LoadFile reads a YAML config over the defaults and validates it.
func LoadFile(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("pagekit config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("pagekit config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate performs consistency checks.
func (cfg Config) Validate() error {
	provider := normalize(cfg.Storage.Provider)
	switch provider {
	case StorageMemory:
	case StorageFile:
		if strings.TrimSpace(cfg.Storage.Dir) == "" {
			return ErrStorageDirRequired
		}
		if format := normalize(cfg.Storage.Format); format != "" && format != "json" && format != "md" {
			return fmt.Errorf("%w: %s", ErrStorageFormatUnknown, format)
		}
	case StorageBun:
		if strings.TrimSpace(cfg.Storage.DSN) == "" {
			return ErrStorageDSNRequired
		}
	default:
		return fmt.Errorf("%w: %q", ErrStorageProviderUnknown, cfg.Storage.Provider)
	}
	if cfg.Cache.Enabled && provider != StorageBun {
		return ErrCacheRequiresBunStorage
	}
	if cfg.Cache.TTL < 0 {
		return ErrCacheTTLInvalid
	}

	if strings.TrimSpace(cfg.Sections.TagField) == "" {
		return ErrSectionsTagFieldRequired
	}
	if strings.TrimSpace(cfg.Sections.TypeField) == "" {
		return ErrSectionsTypeFieldRequired
	}

	if strings.TrimSpace(cfg.Source.Endpoint) != "" && strings.TrimSpace(cfg.Source.Query) == "" {
		return ErrSourceQueryRequired
	}

	if cfg.Editor.Debounce <= 0 {
		return ErrEditorDebounceInvalid
	}
	if cfg.Editor.SettleDelay < 0 {
		return ErrEditorSettleDelayInvalid
	}
	if cfg.Editor.MaxChildElements < 1 {
		return ErrEditorMaxChildrenInvalid
	}

	if format := cfg.Variants.TitleFormat; format != "" && (!strings.Contains(format, "%s") || !strings.Contains(format, "%d")) {
		return fmt.Errorf("%w: %q", ErrVariantTitleFormatInvalid, format)
	}

	logProvider := normalize(cfg.Logging.Provider)
	if logProvider == "" {
		return ErrLoggingProviderRequired
	}
	if !isSupportedProvider(logProvider) {
		return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, logProvider)
	}
	if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
		return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
	}
	if logProvider == "gologger" {
		if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
			return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
		}
	}

	if strings.TrimSpace(cfg.HTTP.Addr) == "" {
		return ErrHTTPAddrRequired
	}
	return nil
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func isSupportedProvider(provider string) bool {
	switch provider {
	case "console", "gologger":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}
