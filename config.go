package pagekit

import (
	"errors"

	"github.com/goliatone/go-pagekit/internal/runtimeconfig"
)

// ErrContentSourceRequired reports an ingest without source endpoint or dir.
var ErrContentSourceRequired = errors.New("pagekit: content source endpoint or dir is required")

var (
	ErrStorageProviderUnknown    = runtimeconfig.ErrStorageProviderUnknown
	ErrStorageDirRequired        = runtimeconfig.ErrStorageDirRequired
	ErrStorageFormatUnknown      = runtimeconfig.ErrStorageFormatUnknown
	ErrStorageDSNRequired        = runtimeconfig.ErrStorageDSNRequired
	ErrCacheRequiresBunStorage   = runtimeconfig.ErrCacheRequiresBunStorage
	ErrCacheTTLInvalid           = runtimeconfig.ErrCacheTTLInvalid
	ErrSectionsTagFieldRequired  = runtimeconfig.ErrSectionsTagFieldRequired
	ErrSectionsTypeFieldRequired = runtimeconfig.ErrSectionsTypeFieldRequired
	ErrEditorDebounceInvalid     = runtimeconfig.ErrEditorDebounceInvalid
	ErrEditorSettleDelayInvalid  = runtimeconfig.ErrEditorSettleDelayInvalid
	ErrEditorMaxChildrenInvalid  = runtimeconfig.ErrEditorMaxChildrenInvalid
	ErrVariantTitleFormatInvalid = runtimeconfig.ErrVariantTitleFormatInvalid
	ErrLoggingProviderRequired   = runtimeconfig.ErrLoggingProviderRequired
	ErrLoggingProviderUnknown    = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid       = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid      = runtimeconfig.ErrLoggingFormatInvalid
	ErrHTTPAddrRequired          = runtimeconfig.ErrHTTPAddrRequired
)

type (
	Config         = runtimeconfig.Config
	StorageConfig  = runtimeconfig.StorageConfig
	CacheConfig    = runtimeconfig.CacheConfig
	SectionsConfig = runtimeconfig.SectionsConfig
	EditorConfig   = runtimeconfig.EditorConfig
	VariantsConfig = runtimeconfig.VariantsConfig
	SourceConfig   = runtimeconfig.SourceConfig
	LoggingConfig  = runtimeconfig.LoggingConfig
	HTTPConfig     = runtimeconfig.HTTPConfig
)

// DefaultConfig returns the runtime defaults.
func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}

// LoadConfig reads a YAML config file over the defaults.
func LoadConfig(path string) (Config, error) {
	return runtimeconfig.LoadFile(path)
}
