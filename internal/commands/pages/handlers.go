package pagescmd

import (
	"context"

	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-pagekit/internal/commands"
	"github.com/goliatone/go-pagekit/internal/pages"
	"github.com/goliatone/go-pagekit/pkg/interfaces"
)

const (
	saveOperation      = "pages.save"
	duplicateOperation = "pages.duplicate"
	deleteOperation    = "pages.delete"
)

var (
	_ command.Commander[SavePageCommand]      = (*SavePageHandler)(nil)
	_ command.Commander[DuplicatePageCommand] = (*DuplicatePageHandler)(nil)
	_ command.Commander[DeletePageCommand]    = (*DeletePageHandler)(nil)
)

func slugFields(slug string) map[string]any {
	return map[string]any{"slug": slug}
}

// SavePageHandler saves page documents through the page service.
type SavePageHandler struct {
	inner *commands.Handler[SavePageCommand]
}

func NewSavePageHandler(service pages.Service, logger interfaces.Logger, opts ...commands.HandlerOption[SavePageCommand]) *SavePageHandler {
	logger = commands.EnsureLogger(logger)
	exec := func(ctx context.Context, msg SavePageCommand) error {
		saved, err := service.Put(ctx, msg.Slug, msg.Document)
		if err != nil {
			return err
		}
		if msg.Result != nil {
			msg.Result.Document = saved
		}
		return nil
	}
	handlerOpts := []commands.HandlerOption[SavePageCommand]{
		commands.WithLogger[SavePageCommand](logger),
		commands.WithOperation[SavePageCommand](saveOperation),
		commands.WithMessageFields(func(msg SavePageCommand) map[string]any {
			fields := slugFields(msg.Slug)
			if msg.Document != nil {
				fields["version"] = msg.Document.Version
				fields["sections"] = len(msg.Document.Sections)
			}
			return fields
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[SavePageCommand](logger)),
	}
	return &SavePageHandler{inner: commands.NewHandler(exec, append(handlerOpts, opts...)...)}
}

// Execute satisfies command.Commander[SavePageCommand].
func (h *SavePageHandler) Execute(ctx context.Context, msg SavePageCommand) error {
	return h.inner.Execute(ctx, msg)
}

// DuplicatePageHandler creates page variants.
type DuplicatePageHandler struct {
	inner *commands.Handler[DuplicatePageCommand]
}

func NewDuplicatePageHandler(service pages.Service, logger interfaces.Logger, opts ...commands.HandlerOption[DuplicatePageCommand]) *DuplicatePageHandler {
	logger = commands.EnsureLogger(logger)
	exec := func(ctx context.Context, msg DuplicatePageCommand) error {
		created, err := service.Duplicate(ctx, msg.Slug)
		if err != nil {
			return err
		}
		if msg.Result != nil {
			msg.Result.Document = created
		}
		return nil
	}
	handlerOpts := []commands.HandlerOption[DuplicatePageCommand]{
		commands.WithLogger[DuplicatePageCommand](logger),
		commands.WithOperation[DuplicatePageCommand](duplicateOperation),
		commands.WithMessageFields(func(msg DuplicatePageCommand) map[string]any { return slugFields(msg.Slug) }),
		commands.WithTelemetry(commands.DefaultTelemetry[DuplicatePageCommand](logger)),
	}
	return &DuplicatePageHandler{inner: commands.NewHandler(exec, append(handlerOpts, opts...)...)}
}

func (h *DuplicatePageHandler) Execute(ctx context.Context, msg DuplicatePageCommand) error {
	return h.inner.Execute(ctx, msg)
}

// DeletePageHandler removes pages.
type DeletePageHandler struct {
	inner *commands.Handler[DeletePageCommand]
}

func NewDeletePageHandler(service pages.Service, logger interfaces.Logger, opts ...commands.HandlerOption[DeletePageCommand]) *DeletePageHandler {
	logger = commands.EnsureLogger(logger)
	exec := func(ctx context.Context, msg DeletePageCommand) error {
		return service.Delete(ctx, msg.Slug)
	}
	handlerOpts := []commands.HandlerOption[DeletePageCommand]{
		commands.WithLogger[DeletePageCommand](logger),
		commands.WithOperation[DeletePageCommand](deleteOperation),
		commands.WithMessageFields(func(msg DeletePageCommand) map[string]any { return slugFields(msg.Slug) }),
		commands.WithTelemetry(commands.DefaultTelemetry[DeletePageCommand](logger)),
	}
	return &DeletePageHandler{inner: commands.NewHandler(exec, append(handlerOpts, opts...)...)}
}

func (h *DeletePageHandler) Execute(ctx context.Context, msg DeletePageCommand) error {
	return h.inner.Execute(ctx, msg)
}

// Persister adapts the save command to the editor's persistence contract.
type Persister struct {
	Handler *SavePageHandler
}

func (p Persister) Put(ctx context.Context, slug string, doc *pages.Document) (*pages.Document, error) {
	result := &Result{}
	if err := p.Handler.Execute(ctx, SavePageCommand{Slug: slug, Document: doc, Result: result}); err != nil {
		return nil, err
	}
	return result.Document, nil
}
