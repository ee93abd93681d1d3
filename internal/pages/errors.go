package pages

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNotFound        = errors.New("pages: page not found")
	ErrDuplicateSlug   = errors.New("pages: slug already exists")
	ErrVersionConflict = errors.New("pages: version conflict")
	ErrInvalidDocument = errors.New("pages: invalid document")
	ErrSectionIndex    = errors.New("pages: section index out of range")
	ErrSlugRequired    = errors.New("pages: slug is required")
)

// NotFoundError reports a missing page.
type NotFoundError struct {
	Slug string
}

func (e *NotFoundError) Error() string {
	if e == nil || e.Slug == "" {
		return ErrNotFound.Error()
	}
	return fmt.Sprintf("page %q not found", e.Slug)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// ValidationError reports per-field document problems.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return ErrInvalidDocument.Error()
	}
	keys := make([]string, 0, len(e.Fields))
	for key := range e.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, key+": "+e.Fields[key])
	}
	return ErrInvalidDocument.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrInvalidDocument }

// VersionConflictError reports a write based on a stale version.
type VersionConflictError struct {
	Slug     string
	Expected int
	Actual   int
}

func (e *VersionConflictError) Error() string {
	return fmt.Sprintf("page %q changed since version %d (now %d)", e.Slug, e.Expected, e.Actual)
}

func (e *VersionConflictError) Unwrap() error { return ErrVersionConflict }

// IsNotFound reports whether err means the page does not exist.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
