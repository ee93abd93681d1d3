package interfaces

// MarkdownParser renders richtext markdown into HTML.
type MarkdownParser interface {
	Parse(markdown []byte) ([]byte, error)
}

// MarkdownOptions configures a MarkdownParser. Raw HTML in the source is
// dropped and dangerous link targets are neutralised unless AllowRawHTML is
// set. An empty Extensions list enables GitHub flavoured markdown.
type MarkdownOptions struct {
	Extensions   []string
	HardWraps    bool
	AllowRawHTML bool
}
