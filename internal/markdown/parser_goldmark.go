package markdown

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/goliatone/go-pagekit/pkg/interfaces"
)

// Extension names accepted in MarkdownOptions.Extensions.
const (
	ExtensionGFM           = "gfm"
	ExtensionTable         = "table"
	ExtensionStrikethrough = "strikethrough"
	ExtensionLinkify       = "linkify"
	ExtensionTaskList      = "tasklist"
	ExtensionFootnote      = "footnote"
	ExtensionTypographer   = "typographer"
)

var ErrUnknownExtension = errors.New("markdown: unknown extension")

// GoldmarkParser renders richtext bodies. The engine is built once and is
// safe for concurrent use.
type GoldmarkParser struct {
	engine goldmark.Markdown
}

var _ interfaces.MarkdownParser = (*GoldmarkParser)(nil)

// NewGoldmarkParser builds a parser for opts.
func NewGoldmarkParser(opts interfaces.MarkdownOptions) (*GoldmarkParser, error) {
	extenders, err := resolveExtensions(opts.Extensions)
	if err != nil {
		return nil, err
	}

	var rendererOptions []renderer.Option
	if opts.HardWraps {
		rendererOptions = append(rendererOptions, html.WithHardWraps())
	}
	if opts.AllowRawHTML {
		rendererOptions = append(rendererOptions, html.WithUnsafe())
	}

	return &GoldmarkParser{
		engine: goldmark.New(
			goldmark.WithExtensions(extenders...),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
			goldmark.WithRendererOptions(rendererOptions...),
		),
	}, nil
}

// Parse renders markdown to HTML.
func (p *GoldmarkParser) Parse(markdown []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := p.engine.Convert(markdown, &buf); err != nil {
		return nil, fmt.Errorf("markdown parse: %w", err)
	}
	return buf.Bytes(), nil
}

func resolveExtensions(names []string) ([]goldmark.Extender, error) {
	if len(names) == 0 {
		names = []string{ExtensionGFM}
	}
	out := make([]goldmark.Extender, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		switch key {
		case ExtensionGFM:
			out = append(out, extension.GFM)
		case ExtensionTable:
			out = append(out, extension.Table)
		case ExtensionStrikethrough:
			out = append(out, extension.Strikethrough)
		case ExtensionLinkify:
			out = append(out, extension.Linkify)
		case ExtensionTaskList:
			out = append(out, extension.TaskList)
		case ExtensionFootnote:
			out = append(out, extension.Footnote)
		case ExtensionTypographer:
			out = append(out, extension.Typographer)
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownExtension, name)
		}
	}
	return out, nil
}
