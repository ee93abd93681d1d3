package logging

import (
	"maps"

	"github.com/goliatone/go-pagekit/pkg/interfaces"
)

// WithFields attaches fields when logger implements interfaces.FieldsLogger.
// The map is copied so callers may reuse it.
func WithFields(logger interfaces.Logger, fields map[string]any) interfaces.Logger {
	if logger == nil || len(fields) == 0 {
		return logger
	}
	fieldsLogger, ok := logger.(interfaces.FieldsLogger)
	if !ok {
		return logger
	}
	return fieldsLogger.WithFields(maps.Clone(fields))
}
