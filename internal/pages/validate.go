package pages

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-slug"
)

// Validate checks the document metadata. Section templates are not checked
// here; unknown templates render empty instead of failing the save.
func (d Document) Validate() error {
	err := validation.ValidateStruct(&d,
		validation.Field(&d.Slug, validation.Required, validation.By(validSlug)),
		validation.Field(&d.Title, validation.Required.Error("title is required")),
		validation.Field(&d.Status, validation.In(StatusDraft, StatusPublished).Error("status must be draft or published")),
	)
	return toValidationError(err)
}

func validSlug(value any) error {
	s, _ := value.(string)
	if s == "" || slug.IsValid(s) {
		return nil
	}
	return validation.NewError("pages.slug.invalid", "slug contains invalid characters")
}

func toValidationError(err error) error {
	if err == nil {
		return nil
	}
	var errs validation.Errors
	if !errors.As(err, &errs) {
		return &ValidationError{Fields: map[string]string{"document": err.Error()}}
	}
	fields := make(map[string]string, len(errs))
	for key, fieldErr := range errs {
		fields[key] = fieldErr.Error()
	}
	return &ValidationError{Fields: fields}
}

// DecodeDocument parses a page payload. A missing title or a sections value
// that is not a list is a ValidationError.
func DecodeDocument(data []byte) (*Document, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &ValidationError{Fields: map[string]string{"document": "must be a JSON object"}}
	}

	problems := map[string]string{}
	if title, ok := raw["title"]; !ok || isNull(title) {
		problems["title"] = "title is required"
	} else {
		var s string
		if err := json.Unmarshal(title, &s); err != nil || strings.TrimSpace(s) == "" {
			problems["title"] = "title is required"
		}
	}
	if list, ok := raw["sections"]; !ok || !isArray(list) {
		problems["sections"] = "sections must be a list"
	}
	if len(problems) > 0 {
		return nil, &ValidationError{Fields: problems}
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &ValidationError{Fields: map[string]string{"document": err.Error()}}
	}
	return &doc, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func isArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}
