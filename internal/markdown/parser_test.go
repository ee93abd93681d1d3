package markdown

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/goliatone/go-pagekit/pkg/interfaces"
)

func newParser(t *testing.T, opts interfaces.MarkdownOptions) *GoldmarkParser {
	t.Helper()
	parser, err := NewGoldmarkParser(opts)
	if err != nil {
		t.Fatalf("NewGoldmarkParser: %v", err)
	}
	return parser
}

func TestGoldmarkParserRendersGFM(t *testing.T) {
	html, err := newParser(t, interfaces.MarkdownOptions{}).Parse([]byte("# Title\n\n~~old~~ text\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	out := string(html)
	if !strings.Contains(out, `<h1 id="title">Title</h1>`) {
		t.Fatalf("expected heading with id, got %s", out)
	}
	if !strings.Contains(out, "<del>old</del>") {
		t.Fatalf("expected strikethrough, got %s", out)
	}
}

func TestGoldmarkParserDropsRawHTMLByDefault(t *testing.T) {
	source := []byte("Hi <script>alert(1)</script> <img src=x onerror=alert(2)> [x](javascript:alert(3))\n\n<div class=\"raw\">x</div>\n")

	safe, err := newParser(t, interfaces.MarkdownOptions{}).Parse(source)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	for _, banned := range []string{"<script", "onerror", "javascript:", `<div class="raw">`} {
		if strings.Contains(string(safe), banned) {
			t.Fatalf("expected %q to be removed, got %s", banned, safe)
		}
	}

	raw, err := newParser(t, interfaces.MarkdownOptions{AllowRawHTML: true}).Parse(source)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !strings.Contains(string(raw), `<div class="raw">`) {
		t.Fatalf("expected raw html when allowed, got %s", raw)
	}
}

func TestGoldmarkParserOptions(t *testing.T) {
	wrapped, err := newParser(t, interfaces.MarkdownOptions{HardWraps: true}).Parse([]byte("one\ntwo\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !strings.Contains(string(wrapped), "<br>") {
		t.Fatalf("expected hard wrap, got %s", wrapped)
	}

	table := []byte("| a |\n|---|\n| b |\n")
	narrow, err := newParser(t, interfaces.MarkdownOptions{Extensions: []string{" Strikethrough ", "strikethrough"}}).Parse(table)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if strings.Contains(string(narrow), "<table>") {
		t.Fatalf("expected tables to stay off, got %s", narrow)
	}
	wide, err := newParser(t, interfaces.MarkdownOptions{Extensions: []string{ExtensionTable}}).Parse(table)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !strings.Contains(string(wide), "<table>") {
		t.Fatalf("expected table, got %s", wide)
	}

	if _, err := NewGoldmarkParser(interfaces.MarkdownOptions{Extensions: []string{"emoji"}}); !errors.Is(err, ErrUnknownExtension) {
		t.Fatalf("expected ErrUnknownExtension, got %v", err)
	}
}

func TestParseFrontMatterKeepsKeyOrder(t *testing.T) {
	source := []byte("---\ntitle: Offer\nsections:\n  - _template: hero\n    headline: Save\n    ctaText: Go\n---\n\nBody text\n")

	meta, body, err := ParseFrontMatter(source)
	if err != nil {
		t.Fatalf("ParseFrontMatter: %v", err)
	}
	want := `{"title":"Offer","sections":[{"_template":"hero","headline":"Save","ctaText":"Go"}]}`
	if string(meta) != want {
		t.Fatalf("unexpected metadata\nwant: %s\ngot:  %s", want, meta)
	}
	if strings.TrimSpace(string(body)) != "Body text" {
		t.Fatalf("unexpected body %q", body)
	}
}

func TestParseFrontMatterWithoutMetadata(t *testing.T) {
	meta, body, err := ParseFrontMatter([]byte("plain body"))
	if err != nil {
		t.Fatalf("ParseFrontMatter: %v", err)
	}
	if string(meta) != "{}" || string(body) != "plain body" {
		t.Fatalf("unexpected result %s %q", meta, body)
	}
}

func TestRenderFrontMatterRoundTrip(t *testing.T) {
	meta := []byte(`{"title":"Offer","version":3,"seo":{"noIndex":true,"title":null},"sections":[{"_template":"cta","ctaText":"Start"}]}`)

	rendered, err := RenderFrontMatter(meta, []byte("Hello"))
	if err != nil {
		t.Fatalf("RenderFrontMatter: %v", err)
	}
	if !strings.HasPrefix(string(rendered), "---\ntitle: Offer\n") {
		t.Fatalf("expected ordered yaml front matter, got %s", rendered)
	}

	parsed, body, err := ParseFrontMatter(rendered)
	if err != nil {
		t.Fatalf("ParseFrontMatter: %v", err)
	}
	var got, want any
	if err := json.Unmarshal(parsed, &got); err != nil {
		t.Fatalf("decode parsed: %v", err)
	}
	if err := json.Unmarshal(meta, &want); err != nil {
		t.Fatalf("decode meta: %v", err)
	}
	gotJSON, _ := json.Marshal(got)
	wantJSON, _ := json.Marshal(want)
	if string(gotJSON) != string(wantJSON) {
		t.Fatalf("round trip mismatch\nwant: %s\ngot:  %s", wantJSON, gotJSON)
	}
	if strings.TrimSpace(string(body)) != "Hello" {
		t.Fatalf("unexpected body %q", body)
	}
}

func TestRenderFrontMatterRejectsNonObject(t *testing.T) {
	if _, err := RenderFrontMatter([]byte(`[1,2]`), nil); err == nil {
		t.Fatal("expected error for non-object metadata")
	}
}
