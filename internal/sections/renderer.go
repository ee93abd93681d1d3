package sections

import "io"

// RenderInput is everything a renderer may read. Renderers see only their own
// section.
type RenderInput struct {
	Index    int
	Token    string
	Template TemplateName
	Fields   *Fields
	// Editor asks renderers to emit data-edit-path markers.
	Editor bool
}

// Renderer writes the HTML for one section.
type Renderer interface {
	Render(w io.Writer, in RenderInput) error
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(w io.Writer, in RenderInput) error

func (f RendererFunc) Render(w io.Writer, in RenderInput) error {
	return f(w, in)
}
