package sections

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"

	"github.com/goliatone/go-pagekit/internal/logging"
	"github.com/goliatone/go-pagekit/internal/validation"
	"github.com/goliatone/go-pagekit/pkg/interfaces"
)

// DiagnosticKind classifies non-fatal rendering problems.
type DiagnosticKind string

const (
	DiagnosticMalformedRecord DiagnosticKind = "malformed_record"
	DiagnosticUnknownTemplate DiagnosticKind = "unknown_template"
	DiagnosticRenderFailure   DiagnosticKind = "render_failure"
	DiagnosticFieldShape      DiagnosticKind = "field_shape"
)

// Diagnostic is a warning attached to one section position.
type Diagnostic struct {
	Index    int            `json:"index"`
	Token    string         `json:"token"`
	Kind     DiagnosticKind `json:"kind"`
	Template TemplateName   `json:"template,omitempty"`
	Message  string         `json:"message"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s [%s] %s", d.Token, d.Kind, d.Message)
}

// RenderedSection is the output for one position. Empty sections keep their
// slot so indices stay aligned with the source list.
type RenderedSection struct {
	Index       int
	Token       string
	Template    TemplateName
	HTML        template.HTML
	Empty       bool
	Diagnostics []Diagnostic
}

// RenderedPage is the ordered output of a section list.
type RenderedPage struct {
	Sections    []RenderedSection
	Diagnostics []Diagnostic
}

// HTML concatenates the rendered sections in order.
func (p RenderedPage) HTML() template.HTML {
	var b strings.Builder
	for _, section := range p.Sections {
		if section.Empty {
			continue
		}
		b.WriteString(string(section.HTML))
		b.WriteByte('\n')
	}
	return template.HTML(b.String())
}

// Section returns the rendered output at index.
func (p RenderedPage) Section(index int) (RenderedSection, bool) {
	if index < 0 || index >= len(p.Sections) {
		return RenderedSection{}, false
	}
	return p.Sections[index], true
}

// DispatcherOption customises a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithLogger sets the logger used for diagnostics.
func WithLogger(logger interfaces.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithParent sets the list name used in addressing tokens.
func WithParent(parent string) DispatcherOption {
	return func(d *Dispatcher) {
		if strings.TrimSpace(parent) != "" {
			d.parent = strings.TrimSpace(parent)
		}
	}
}

// WithEditorMode makes renderers emit edit markers.
func WithEditorMode(enabled bool) DispatcherOption {
	return func(d *Dispatcher) {
		d.editor = enabled
	}
}

// WithShapeValidation toggles field-shape diagnostics.
func WithShapeValidation(enabled bool) DispatcherOption {
	return func(d *Dispatcher) {
		d.validate = enabled
	}
}

// WithResolver replaces the resolver used by RenderRecords.
func WithResolver(resolver TemplateResolver, normalizer Normalizer) DispatcherOption {
	return func(d *Dispatcher) {
		d.resolver = resolver
		d.normalizer = normalizer
	}
}

// Dispatcher renders section lists through a Registry. A failure in one
// section never affects the others.
type Dispatcher struct {
	registry   *Registry
	logger     interfaces.Logger
	parent     string
	editor     bool
	validate   bool
	resolver   TemplateResolver
	normalizer Normalizer
}

// NewDispatcher returns a dispatcher over registry.
func NewDispatcher(registry *Registry, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		registry:   registry,
		logger:     logging.NoOp(),
		parent:     DefaultParent,
		validate:   true,
		resolver:   DefaultTemplateResolver(),
		normalizer: DefaultNormalizer(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// WithOptions returns a copy of d with opts applied.
func (d *Dispatcher) WithOptions(opts ...DispatcherOption) *Dispatcher {
	clone := *d
	for _, opt := range opts {
		if opt != nil {
			opt(&clone)
		}
	}
	return &clone
}

func (d *Dispatcher) Registry() *Registry { return d.registry }

// RenderSections renders resolved sections in list order.
func (d *Dispatcher) RenderSections(ctx context.Context, list []Section) RenderedPage {
	page := RenderedPage{Sections: make([]RenderedSection, 0, len(list))}
	for index, section := range list {
		rendered := d.RenderSection(ctx, index, section)
		page.Sections = append(page.Sections, rendered)
		page.Diagnostics = append(page.Diagnostics, rendered.Diagnostics...)
	}
	return page
}

// RenderRecords resolves raw content-source records and renders them.
// Records that cannot be resolved render empty with a diagnostic.
func (d *Dispatcher) RenderRecords(ctx context.Context, records []*Fields) RenderedPage {
	page := RenderedPage{Sections: make([]RenderedSection, 0, len(records))}
	for index, record := range records {
		section, err := d.resolver.SectionFromRecord(record, d.normalizer)
		var rendered RenderedSection
		if err != nil {
			rendered = d.empty(ctx, index, "", DiagnosticMalformedRecord, err.Error())
		} else {
			rendered = d.RenderSection(ctx, index, section)
		}
		page.Sections = append(page.Sections, rendered)
		page.Diagnostics = append(page.Diagnostics, rendered.Diagnostics...)
	}
	return page
}

// RenderSection renders one section at index.
func (d *Dispatcher) RenderSection(ctx context.Context, index int, section Section) RenderedSection {
	token := Token(d.parent, index)
	if !section.Template.Valid() {
		err := &MalformedRecordError{Reason: d.resolver.Unresolved(section)}
		return d.empty(ctx, index, "", DiagnosticMalformedRecord, err.Error())
	}

	entry, ok := d.registry.Lookup(section.Template)
	if !ok {
		err := &UnknownTemplateError{Template: section.Template}
		return d.empty(ctx, index, section.Template, DiagnosticUnknownTemplate, err.Error())
	}

	out := RenderedSection{Index: index, Token: token, Template: section.Template}
	if d.validate {
		if err := entry.ValidateFields(section.Fields); err != nil {
			for _, issue := range validation.Issues(err) {
				out.Diagnostics = append(out.Diagnostics, Diagnostic{
					Index:    index,
					Token:    token,
					Kind:     DiagnosticFieldShape,
					Template: section.Template,
					Message:  issue.String(),
				})
			}
			d.sectionLogger(ctx, token, section.Template).Warn("sections.field_shape", "error", err)
		}
	}

	body, err := d.invoke(entry, RenderInput{
		Index:    index,
		Token:    token,
		Template: section.Template,
		Fields:   section.Fields,
		Editor:   d.editor,
	})
	if err != nil {
		failed := d.empty(ctx, index, section.Template, DiagnosticRenderFailure, err.Error())
		failed.Diagnostics = append(out.Diagnostics, failed.Diagnostics...)
		return failed
	}

	out.HTML = template.HTML(fmt.Sprintf(`<div class="pk-section" data-section="%s" data-template="%s">%s</div>`,
		template.HTMLEscapeString(token),
		template.HTMLEscapeString(string(section.Template)),
		body,
	))
	return out
}

func (d *Dispatcher) invoke(entry Entry, in RenderInput) (body string, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("%w: panic: %v", ErrRenderFailure, recovered)
		}
	}()
	var buf bytes.Buffer
	if renderErr := entry.Renderer.Render(&buf, in); renderErr != nil {
		if errors.Is(renderErr, ErrRenderFailure) {
			return "", renderErr
		}
		return "", fmt.Errorf("%w: %v", ErrRenderFailure, renderErr)
	}
	return buf.String(), nil
}

func (d *Dispatcher) empty(ctx context.Context, index int, name TemplateName, kind DiagnosticKind, message string) RenderedSection {
	token := Token(d.parent, index)
	d.sectionLogger(ctx, token, name).Warn("sections.skipped", "kind", string(kind), "reason", message)
	return RenderedSection{
		Index:    index,
		Token:    token,
		Template: name,
		Empty:    true,
		Diagnostics: []Diagnostic{{
			Index:    index,
			Token:    token,
			Kind:     kind,
			Template: name,
			Message:  message,
		}},
	}
}

func (d *Dispatcher) sectionLogger(ctx context.Context, token string, name TemplateName) interfaces.Logger {
	logger := logging.WithSectionContext(d.logger, token, string(name))
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	return logger
}
