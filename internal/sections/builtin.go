package sections

import (
	"fmt"
	"html/template"
	"io"
	"strconv"
	"strings"

	"github.com/goliatone/go-pagekit/pkg/interfaces"
)

// EditPathAttr is the explicit edit marker attribute.
const EditPathAttr = "data-edit-path"

const heroSource = `<header class="pk-hero">
  <h1 {{.Edit "headline"}}>{{.Text "headline"}}</h1>
  {{- if .Has "subheadline"}}
  <p class="pk-hero__lead" {{.Edit "subheadline"}}>{{.Text "subheadline"}}</p>
  {{- end}}
  {{- if .Has "image"}}
  <img src="{{.Text "image"}}" alt="{{.Text "imageAlt"}}" {{.Edit "image"}}>
  {{- end}}
  <div class="pk-actions">
    {{- if .Has "ctaText"}}
    <a class="btn btn-primary" href="{{.Text "ctaLink"}}" {{.Edit "ctaText"}}>{{.Text "ctaText"}}</a>
    {{- end}}
    {{- if .Has "secondaryCtaText"}}
    <a class="btn btn-secondary" href="{{.Text "secondaryCtaLink"}}" {{.Edit "secondaryCtaText"}}>{{.Text "secondaryCtaText"}}</a>
    {{- end}}
  </div>
</header>`

const featuresSource = `<section class="pk-features">
  <h2 {{.Edit "title"}}>{{.Text "title"}}</h2>
  {{- if .Has "subtitle"}}
  <p {{.Edit "subtitle"}}>{{.Text "subtitle"}}</p>
  {{- end}}
  <ul class="pk-features__items">
    {{- range .Items "items"}}
    <li>
      <h3 {{.Edit "title"}}>{{.Text "title"}}</h3>
      <p {{.Edit "description"}}>{{.Text "description"}}</p>
    </li>
    {{- end}}
  </ul>
</section>`

const ctaSource = `<section class="pk-cta">
  <h2 {{.Edit "title"}}>{{.Text "title"}}</h2>
  {{- if .Has "description"}}
  <p {{.Edit "description"}}>{{.Text "description"}}</p>
  {{- end}}
  {{- if .Has "image"}}
  <img src="{{.Text "image"}}" alt="" {{.Edit "image"}}>
  {{- end}}
  {{- if .Has "ctaText"}}
  <button type="button" class="btn" data-href="{{.Text "ctaLink"}}" {{.Edit "ctaText"}}>{{.Text "ctaText"}}</button>
  {{- end}}
</section>`

const testimonialsSource = `<section class="pk-testimonials">
  <h2 {{.Edit "title"}}>{{.Text "title"}}</h2>
  {{- range .Items "items"}}
  <figure>
    <blockquote {{.Edit "quote"}}>{{.Text "quote"}}</blockquote>
    {{- if .Has "avatar"}}
    <img src="{{.Text "avatar"}}" alt="{{.Text "author"}}" {{.Edit "avatar"}}>
    {{- end}}
    <figcaption {{.Edit "author"}}>{{.Text "author"}}</figcaption>
  </figure>
  {{- end}}
</section>`

const faqSource = `<section class="pk-faq">
  <h2 {{.Edit "title"}}>{{.Text "title"}}</h2>
  <dl>
    {{- range .Items "items"}}
    <dt><span {{.Edit "question"}}>{{.Text "question"}}</span></dt>
    <dd><p {{.Edit "answer"}}>{{.Text "answer"}}</p></dd>
    {{- end}}
  </dl>
</section>`

const pricingSource = `<section class="pk-pricing">
  <h2 {{.Edit "title"}}>{{.Text "title"}}</h2>
  {{- if .Has "subtitle"}}
  <p {{.Edit "subtitle"}}>{{.Text "subtitle"}}</p>
  {{- end}}
  <div class="pk-pricing__plans">
    {{- range .Items "plans"}}
    <article class="pk-plan{{if .Bool "highlighted"}} pk-plan--highlighted{{end}}">
      <h3 {{.Edit "name"}}>{{.Text "name"}}</h3>
      <p class="pk-plan__price"><span {{.Edit "price"}}>{{.Text "price"}}</span> <span {{.Edit "period"}}>{{.Text "period"}}</span></p>
      <ul>
        {{- range .Strings "features"}}
        <li {{.Edit}}>{{.Value}}</li>
        {{- end}}
      </ul>
      {{- if .Has "ctaText"}}
      <a class="btn" href="{{.Text "ctaLink"}}" {{.Edit "ctaText"}}>{{.Text "ctaText"}}</a>
      {{- end}}
    </article>
    {{- end}}
  </div>
</section>`

const richTextSource = `<article class="pk-richtext">
  {{- if .Has "title"}}
  <h2 {{.Edit "title"}}>{{.Text "title"}}</h2>
  {{- end}}
  <div class="pk-richtext__body" {{.Edit "body"}}>{{.Markdown "body"}}</div>
</article>`

const gallerySource = `<section class="pk-gallery">
  {{- if .Has "title"}}
  <h2 {{.Edit "title"}}>{{.Text "title"}}</h2>
  {{- end}}
  {{- range .Items "images"}}
  <figure>
    <img src="{{.Text "src"}}" alt="{{.Text "alt"}}" {{.Edit "src"}}>
    {{- if .Has "caption"}}
    <figcaption {{.Edit "caption"}}>{{.Text "caption"}}</figcaption>
    {{- end}}
  </figure>
  {{- end}}
</section>`

// BuiltinEntries returns the built-in templates. Markdown bodies render with
// md; a nil parser falls back to escaped text.
func BuiltinEntries(md interfaces.MarkdownParser) []Entry {
	text := func(name string, required bool) FieldSpec {
		return FieldSpec{Name: name, Kind: KindText, Required: required}
	}
	return []Entry{
		{
			Name:  TemplateHero,
			Label: "Hero",
			Fields: []FieldSpec{
				text("headline", true),
				text("subheadline", false),
				{Name: "image", Kind: KindImage},
				text("imageAlt", false),
				text("ctaText", false),
				{Name: "ctaLink", Kind: KindLink},
				text("secondaryCtaText", false),
				{Name: "secondaryCtaLink", Kind: KindLink},
			},
			Renderer: newTemplateRenderer(TemplateHero, heroSource, md),
			Source:   heroSource,
		},
		{
			Name:  TemplateFeatures,
			Label: "Features",
			Fields: []FieldSpec{
				text("title", true),
				text("subtitle", false),
				{Name: "items", Kind: KindList, Description: "title, description"},
			},
			Renderer: newTemplateRenderer(TemplateFeatures, featuresSource, md),
			Source:   featuresSource,
		},
		{
			Name:  TemplateCTA,
			Label: "Call to action",
			Fields: []FieldSpec{
				text("title", true),
				text("description", false),
				{Name: "image", Kind: KindImage},
				text("ctaText", false),
				{Name: "ctaLink", Kind: KindLink},
			},
			Renderer: newTemplateRenderer(TemplateCTA, ctaSource, md),
			Source:   ctaSource,
		},
		{
			Name:  TemplateTestimonials,
			Label: "Testimonials",
			Fields: []FieldSpec{
				text("title", false),
				{Name: "items", Kind: KindList, Description: "quote, author, avatar"},
			},
			Renderer: newTemplateRenderer(TemplateTestimonials, testimonialsSource, md),
			Source:   testimonialsSource,
		},
		{
			Name:  TemplateFAQ,
			Label: "FAQ",
			Fields: []FieldSpec{
				text("title", false),
				{Name: "items", Kind: KindList, Required: true, Description: "question, answer"},
			},
			Renderer: newTemplateRenderer(TemplateFAQ, faqSource, md),
			Source:   faqSource,
		},
		{
			Name:  TemplatePricing,
			Label: "Pricing",
			Fields: []FieldSpec{
				text("title", true),
				text("subtitle", false),
				{Name: "plans", Kind: KindList, Description: "name, price, period, features, ctaText, ctaLink, highlighted"},
			},
			Renderer: newTemplateRenderer(TemplatePricing, pricingSource, md),
			Source:   pricingSource,
		},
		{
			Name:  TemplateRichText,
			Label: "Rich text",
			Fields: []FieldSpec{
				text("title", false),
				{Name: "body", Kind: KindMarkdown, Required: true},
			},
			Renderer: newTemplateRenderer(TemplateRichText, richTextSource, md),
			Source:   richTextSource,
		},
		{
			Name:  TemplateGallery,
			Label: "Gallery",
			Fields: []FieldSpec{
				text("title", false),
				{Name: "images", Kind: KindList, Description: "src, alt, caption"},
			},
			Renderer: newTemplateRenderer(TemplateGallery, gallerySource, md),
			Source:   gallerySource,
		},
	}
}

// NewBuiltinRegistry builds a registry holding the built-in templates plus any
// extra entries.
func NewBuiltinRegistry(md interfaces.MarkdownParser, extra ...Entry) (*Registry, error) {
	return NewRegistry(append(BuiltinEntries(md), extra...)...)
}

type templateRenderer struct {
	tmpl     *template.Template
	markdown interfaces.MarkdownParser
}

func newTemplateRenderer(name TemplateName, source string, md interfaces.MarkdownParser) Renderer {
	renderer, err := NewTemplateRenderer(name, source, md)
	if err != nil {
		panic(fmt.Sprintf("sections: built-in template %s: %v", name, err))
	}
	return renderer
}

// NewTemplateRenderer parses source as an html/template rendered against the
// section view (.Text, .Has, .Edit, .Items, .Strings, .Bool, .Markdown).
func NewTemplateRenderer(name TemplateName, source string, md interfaces.MarkdownParser) (Renderer, error) {
	tmpl, err := template.New(string(name)).Parse(source)
	if err != nil {
		return nil, fmt.Errorf("sections: parse template %s: %w", name, err)
	}
	return &templateRenderer{tmpl: tmpl, markdown: md}, nil
}

func (r *templateRenderer) Render(w io.Writer, in RenderInput) error {
	root := view{
		scope: scope{
			get:      in.Fields.Get,
			editor:   in.Editor,
			markdown: r.markdown,
		},
		Token:    in.Token,
		Index:    in.Index,
		Template: string(in.Template),
	}
	return r.tmpl.Execute(w, root)
}

type view struct {
	scope
	Token    string
	Index    int
	Template string
}

// scope reads fields relative to a path prefix so nested list items emit
// full field paths such as items.0.title.
type scope struct {
	prefix   string
	get      func(string) (any, bool)
	editor   bool
	markdown interfaces.MarkdownParser
}

func (s scope) path(name string) string {
	if s.prefix == "" {
		return name
	}
	return s.prefix + "." + name
}

func (s scope) value(name string) any {
	if s.get == nil {
		return nil
	}
	value, _ := s.get(name)
	return value
}

func (s scope) Text(name string) string {
	return scalarText(s.value(name))
}

func (s scope) Has(name string) bool {
	switch typed := s.value(name).(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(typed) != ""
	case []any:
		return len(typed) > 0
	default:
		return true
	}
}

func (s scope) Bool(name string) bool {
	value, _ := s.value(name).(bool)
	return value
}

func (s scope) Edit(name string) template.HTMLAttr {
	return editAttr(s.editor, s.path(name))
}

func (s scope) Items(name string) []scope {
	list, _ := s.value(name).([]any)
	out := make([]scope, 0, len(list))
	for i, item := range list {
		object, ok := item.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, scope{
			prefix:   s.path(name) + "." + strconv.Itoa(i),
			get:      lookupIn(object),
			editor:   s.editor,
			markdown: s.markdown,
		})
	}
	return out
}

func (s scope) Strings(name string) []listValue {
	var out []listValue
	switch list := s.value(name).(type) {
	case []any:
		for i, item := range list {
			if text := scalarText(item); text != "" {
				out = append(out, listValue{Value: text, path: s.path(name) + "." + strconv.Itoa(i), editor: s.editor})
			}
		}
	case []string:
		for i, text := range list {
			out = append(out, listValue{Value: text, path: s.path(name) + "." + strconv.Itoa(i), editor: s.editor})
		}
	}
	return out
}

func (s scope) Markdown(name string) template.HTML {
	source := s.Text(name)
	if source == "" {
		return ""
	}
	if s.markdown == nil {
		return template.HTML("<p>" + template.HTMLEscapeString(source) + "</p>")
	}
	rendered, err := s.markdown.Parse([]byte(source))
	if err != nil {
		return template.HTML("<p>" + template.HTMLEscapeString(source) + "</p>")
	}
	return template.HTML(rendered)
}

type listValue struct {
	Value  string
	path   string
	editor bool
}

func (v listValue) Edit() template.HTMLAttr {
	return editAttr(v.editor, v.path)
}

func editAttr(enabled bool, path string) template.HTMLAttr {
	if !enabled {
		return ""
	}
	return template.HTMLAttr(fmt.Sprintf(`%s="%s"`, EditPathAttr, template.HTMLEscapeString(path)))
}

func lookupIn(object map[string]any) func(string) (any, bool) {
	return func(name string) (any, bool) {
		value, ok := object[name]
		return value, ok
	}
}

func scalarText(value any) string {
	switch typed := value.(type) {
	case string:
		return typed
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case int:
		return strconv.Itoa(typed)
	case int64:
		return strconv.FormatInt(typed, 10)
	case bool:
		return strconv.FormatBool(typed)
	default:
		return ""
	}
}
