package logging

import (
	"context"
	"strings"

	"github.com/goliatone/go-pagekit/pkg/interfaces"
)

const (
	rootModule     = "pagekit"
	sectionsModule = "pagekit.sections"
	editorModule   = "pagekit.editor"
	pagesModule    = "pagekit.pages"
	variantsModule = "pagekit.variants"
	blocksModule   = "pagekit.blocks"
	httpModule     = "pagekit.http"
)

const (
	fieldSectionToken    = "section"
	fieldSectionTemplate = "template"
	fieldPageSlug        = "slug"
)

// ModuleLogger returns a module-scoped logger tagged with the module name.
// A no-op logger is returned when provider is nil or yields nothing.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if strings.TrimSpace(module) == "" {
		module = rootModule
	}

	var logger interfaces.Logger = NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}
	return WithFields(logger, map[string]any{"module": module})
}

func SectionsLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, sectionsModule)
}

func EditorLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, editorModule)
}

func PagesLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, pagesModule)
}

func VariantsLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, variantsModule)
}

func BlocksLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, blocksModule)
}

func HTTPLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, httpModule)
}

// WithSectionContext adds the addressing token and template of a section.
// Empty values are skipped.
func WithSectionContext(logger interfaces.Logger, token, template string) interfaces.Logger {
	fields := map[string]any{}
	if trimmed := strings.TrimSpace(token); trimmed != "" {
		fields[fieldSectionToken] = trimmed
	}
	if trimmed := strings.TrimSpace(template); trimmed != "" {
		fields[fieldSectionTemplate] = trimmed
	}
	return WithFields(logger, fields)
}

// WithPageContext adds the page slug.
func WithPageContext(logger interfaces.Logger, slug string) interfaces.Logger {
	if trimmed := strings.TrimSpace(slug); trimmed != "" {
		return WithFields(logger, map[string]any{fieldPageSlug: trimmed})
	}
	return logger
}

// NoOp returns a logger that drops every entry.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ interfaces.Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger { return n }

func (n noopLogger) WithContext(context.Context) interfaces.Logger { return n }
