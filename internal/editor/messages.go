package editor

import (
	"errors"
	"sort"
	"strings"

	"github.com/goliatone/go-pagekit/internal/pages"
)

// UserMessage is the banner text shown for a save error. It is empty when
// err is nil.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var validationErr *pages.ValidationError
	switch {
	case errors.Is(err, pages.ErrNotFound):
		return "This page no longer exists. Copy your changes before leaving."
	case errors.As(err, &validationErr):
		problems := make([]string, 0, len(validationErr.Fields))
		for field, problem := range validationErr.Fields {
			problems = append(problems, field+": "+problem)
		}
		sort.Strings(problems)
		return "The page could not be saved (" + strings.Join(problems, ", ") + ")."
	case errors.Is(err, pages.ErrVersionConflict):
		return "Someone else changed this page. Reload to get the latest version before saving."
	default:
		return "Saving failed. Your changes are kept; save again to retry."
	}
}
