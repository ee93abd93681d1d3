package sections

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMalformedRecord   = errors.New("sections: malformed record")
	ErrUnknownTemplate   = errors.New("sections: unknown template")
	ErrDuplicateTemplate = errors.New("sections: duplicate template registration")
	ErrTemplateRequired  = errors.New("sections: template name is required")
	ErrRendererRequired  = errors.New("sections: renderer is required")
	ErrRenderFailure     = errors.New("sections: render failed")
	ErrInvalidPath       = errors.New("sections: invalid field path")
)

// MalformedRecordError reports a record whose template tag is missing or garbled.
type MalformedRecordError struct {
	Reason string
}

func (e *MalformedRecordError) Error() string {
	if e == nil || strings.TrimSpace(e.Reason) == "" {
		return ErrMalformedRecord.Error()
	}
	return fmt.Sprintf("%s: %s", ErrMalformedRecord.Error(), e.Reason)
}

func (e *MalformedRecordError) Unwrap() error {
	return ErrMalformedRecord
}

// UnknownTemplateError reports a template identifier with no registry entry.
type UnknownTemplateError struct {
	Template TemplateName
}

func (e *UnknownTemplateError) Error() string {
	if e == nil || e.Template == "" {
		return ErrUnknownTemplate.Error()
	}
	return fmt.Sprintf("%s: %s", ErrUnknownTemplate.Error(), e.Template)
}

func (e *UnknownTemplateError) Unwrap() error {
	return ErrUnknownTemplate
}

// PathError reports an unusable field path.
type PathError struct {
	Path   string
	Reason string
}

func (e *PathError) Error() string {
	if e == nil {
		return ErrInvalidPath.Error()
	}
	return fmt.Sprintf("%s %q: %s", ErrInvalidPath.Error(), e.Path, e.Reason)
}

func (e *PathError) Unwrap() error {
	return ErrInvalidPath
}
