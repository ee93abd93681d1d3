package pages

import (
	"bytes"
	"context"
	"html/template"

	"github.com/goliatone/go-pagekit/internal/sections"
)

const pageSource = `<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
{{- with .Doc.SEO.Description}}
<meta name="description" content="{{.}}">{{end}}
{{- with .Doc.SEO.Image}}
<meta property="og:image" content="{{.}}">{{end}}
{{- if .Doc.SEO.NoIndex}}
<meta name="robots" content="noindex">{{end}}
</head>
<body data-page="{{.Doc.Slug}}">
{{- if or .Doc.Navbar.Logo .Doc.Navbar.Links}}
<nav class="pk-navbar">
{{- with .Doc.Navbar.Logo}}<img class="pk-logo" src="{{.}}" alt="{{$.Doc.Title}}">{{end}}
{{- range .Doc.Navbar.Links}}<a href="{{.Href}}">{{.Label}}</a>{{end}}
</nav>
{{- end}}
<main class="pk-sections">
{{.Body}}</main>
{{- if or .Doc.Footer.Text .Doc.Footer.Links}}
<footer class="pk-footer">
{{- with .Doc.Footer.Text}}<p>{{.}}</p>{{end}}
{{- range .Doc.Footer.Links}}<a href="{{.Href}}">{{.Label}}</a>{{end}}
</footer>
{{- end}}
</body>
</html>
`

var pageTemplate = template.Must(template.New("page").Parse(pageSource))

// RenderedDocument is a rendered page with its section diagnostics.
type RenderedDocument struct {
	HTML        []byte
	Page        sections.RenderedPage
	Diagnostics []sections.Diagnostic
}

// Render renders doc as a standalone HTML page.
func Render(ctx context.Context, dispatcher *sections.Dispatcher, doc *Document) (RenderedDocument, error) {
	page := dispatcher.RenderSections(ctx, doc.Sections)

	title := doc.SEO.Title
	if title == "" {
		title = doc.Title
	}
	var buf bytes.Buffer
	err := pageTemplate.Execute(&buf, struct {
		Doc   *Document
		Title string
		Body  template.HTML
	}{Doc: doc, Title: title, Body: page.HTML()})
	if err != nil {
		return RenderedDocument{}, err
	}
	return RenderedDocument{HTML: buf.Bytes(), Page: page, Diagnostics: page.Diagnostics}, nil
}
