package contentsource

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-pagekit/internal/logging"
	"github.com/goliatone/go-pagekit/internal/pages"
	"github.com/goliatone/go-pagekit/internal/sections"
	"github.com/goliatone/go-pagekit/pkg/interfaces"
)

var (
	ErrEmptyResponse = errors.New("contentsource: empty response")
	ErrNoPage        = errors.New("contentsource: response carries no page")
)

// QueryError carries errors reported by the content query itself.
type QueryError struct {
	Messages []string
}

func (e *QueryError) Error() string {
	return "contentsource: query failed: " + strings.Join(e.Messages, "; ")
}

// Issue reports a section record that could not be resolved. The section
// stays in the document with an empty template.
type Issue struct {
	Index   int    `json:"index"`
	Token   string `json:"token"`
	Message string `json:"message"`
}

// Result is a decoded page plus per-section ingestion issues.
type Result struct {
	Document *pages.Document
	Issues   []Issue
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithResolver overrides template resolution.
func WithResolver(resolver sections.TemplateResolver) Option {
	return func(d *Decoder) {
		d.resolver = resolver
	}
}

// WithNormalizer overrides record normalization.
func WithNormalizer(normalizer sections.Normalizer) Option {
	return func(d *Decoder) {
		d.normalizer = normalizer
	}
}

// WithLogger sets the logger used for ingestion warnings.
func WithLogger(logger interfaces.Logger) Option {
	return func(d *Decoder) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// Decoder turns content-source responses into page documents. Template tags
// are resolved here, once, so rendering only ever sees resolved sections.
type Decoder struct {
	resolver   sections.TemplateResolver
	normalizer sections.Normalizer
	logger     interfaces.Logger
}

func NewDecoder(opts ...Option) *Decoder {
	d := &Decoder{
		resolver:   sections.DefaultTemplateResolver(),
		normalizer: sections.DefaultNormalizer(),
		logger:     logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

type envelope struct {
	Data   *pageData       `json:"data"`
	Page   json.RawMessage `json:"page"`
	Errors []queryError    `json:"errors"`
}

type pageData struct {
	Page json.RawMessage `json:"page"`
}

type queryError struct {
	Message string `json:"message"`
}

type rawPage struct {
	Slug     string            `json:"slug"`
	Title    string            `json:"title"`
	Status   pages.Status      `json:"status"`
	Sections []json.RawMessage `json:"sections"`
	SEO      pages.SEO         `json:"seo"`
	Navbar   pages.Navbar      `json:"navbar"`
	Footer   pages.Footer      `json:"footer"`
	Version  int               `json:"version"`
}

// Decode accepts a GraphQL style {"data":{"page":{...}}} response, a
// {"page":{...}} wrapper, or a bare page object.
func (d *Decoder) Decode(data []byte) (*Result, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, ErrEmptyResponse
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("contentsource: decode response: %w", err)
	}
	if len(env.Errors) > 0 {
		messages := make([]string, 0, len(env.Errors))
		for _, e := range env.Errors {
			messages = append(messages, e.Message)
		}
		return nil, &QueryError{Messages: messages}
	}

	payload := data
	switch {
	case env.Data != nil:
		payload = env.Data.Page
	case len(env.Page) > 0:
		payload = env.Page
	}
	if len(payload) == 0 || bytes.Equal(bytes.TrimSpace(payload), []byte("null")) {
		return nil, ErrNoPage
	}

	var raw rawPage
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("contentsource: decode page: %w", err)
	}

	doc := &pages.Document{
		Slug:     raw.Slug,
		Title:    raw.Title,
		Status:   raw.Status,
		SEO:      raw.SEO,
		Navbar:   raw.Navbar,
		Footer:   raw.Footer,
		Version:  raw.Version,
		Sections: make([]sections.Section, 0, len(raw.Sections)),
	}
	result := &Result{Document: doc}
	for index, item := range raw.Sections {
		section, err := d.decodeSection(item)
		if err != nil {
			token := sections.Token("", index)
			result.Issues = append(result.Issues, Issue{Index: index, Token: token, Message: err.Error()})
			logging.WithSectionContext(d.logger, token, string(section.Template)).Warn("contentsource.section_unresolved", "error", err)
		}
		doc.Sections = append(doc.Sections, section)
	}
	return result, nil
}

func (d *Decoder) decodeSection(item json.RawMessage) (sections.Section, error) {
	record := sections.NewFields()
	if err := json.Unmarshal(item, record); err != nil {
		return sections.Section{Fields: sections.NewFields()}, &sections.MalformedRecordError{Reason: "section is not an object"}
	}
	return d.resolver.SectionFromRecord(record, d.normalizer)
}
