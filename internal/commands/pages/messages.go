package pagescmd

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-pagekit/internal/pages"
)

const (
	savePageMessageType      = "pagekit.pages.save"
	duplicatePageMessageType = "pagekit.pages.duplicate"
	deletePageMessageType    = "pagekit.pages.delete"
)

// Result receives the document produced by a command.
type Result struct {
	Document *pages.Document
}

// SavePageCommand replaces the stored page at Slug with Document. A non-zero
// Document.Version must match the stored version.
type SavePageCommand struct {
	Slug     string          `json:"slug"`
	Document *pages.Document `json:"document"`
	Result   *Result         `json:"-"`
}

// Type implements command.Message.
func (SavePageCommand) Type() string { return savePageMessageType }

// Validate checks the slug and document before the handler runs.
func (cmd SavePageCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.Slug, validation.By(requiredSlug(savePageMessageType))),
		validation.Field(&cmd.Document, validation.NotNil.Error("document is required"), validation.Skip),
	)
}

// DuplicatePageCommand copies Slug into its next free variant.
type DuplicatePageCommand struct {
	Slug   string  `json:"slug"`
	Result *Result `json:"-"`
}

func (DuplicatePageCommand) Type() string { return duplicatePageMessageType }

func (cmd DuplicatePageCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.Slug, validation.By(requiredSlug(duplicatePageMessageType))),
	)
}

// DeletePageCommand removes a page.
type DeletePageCommand struct {
	Slug string `json:"slug"`
}

func (DeletePageCommand) Type() string { return deletePageMessageType }

func (cmd DeletePageCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.Slug, validation.By(requiredSlug(deletePageMessageType))),
	)
}

func requiredSlug(messageType string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if strings.TrimSpace(s) == "" {
			return validation.NewError(messageType+".slug_required", "slug is required")
		}
		return nil
	}
}
