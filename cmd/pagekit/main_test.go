package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goliatone/go-pagekit/internal/contentsource"
)

const heroResponse = `{"data":{"page":{"slug":"spring","title":"Spring","sections":[
  {"__typename":"PageSectionsHero","headline":"Bloom","ctaText":"Go","ctaLink":"/go"}
]}}}`

func runCLI(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	if err := run(context.Background(), args, &out); err != nil {
		t.Fatalf("pagekit %s: %v", strings.Join(args, " "), err)
	}
	return out.String()
}

func TestCLIIngestIndexDuplicateRender(t *testing.T) {
	sourceDir := t.TempDir()
	pagesDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(sourceDir, "spring.json"), []byte(heroResponse), 0o644); err != nil {
		t.Fatalf("write response: %v", err)
	}

	if got := runCLI(t, "ingest", "-dir", pagesDir, "-source-dir", sourceDir, "spring"); !strings.HasPrefix(got, "spring\tv1") {
		t.Fatalf("unexpected ingest output %q", got)
	}
	if got := strings.TrimSpace(runCLI(t, "duplicate", "-dir", pagesDir, "spring")); got != "spring-v2" {
		t.Fatalf("unexpected duplicate output %q", got)
	}

	index := runCLI(t, "index", "-dir", pagesDir)
	if !strings.Contains(index, "spring\tdraft\tSpring") || !strings.Contains(index, "  spring-v2\tdraft\tSpring (Variant 2)") {
		t.Fatalf("unexpected index output %q", index)
	}

	html := runCLI(t, "render", "-dir", pagesDir, "spring-v2")
	if !strings.Contains(html, "Bloom") || !strings.Contains(html, `name="robots"`) {
		t.Fatalf("expected rendered noindex variant, got %s", html)
	}
}

func TestCLIIngestFromGraphQLEndpoint(t *testing.T) {
	const query = `query Page($slug: String!) { page(slug: $slug) { slug title } }`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), `"slug":"spring"`) || !strings.Contains(string(body), "query Page") {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(heroResponse))
	}))
	defer server.Close()

	pagesDir := t.TempDir()
	queryPath := filepath.Join(t.TempDir(), "page.graphql")
	if err := os.WriteFile(queryPath, []byte(query), 0o644); err != nil {
		t.Fatalf("write query: %v", err)
	}

	got := runCLI(t, "ingest", "-dir", pagesDir, "-endpoint", server.URL, "-query-file", queryPath, "spring")
	if !strings.HasPrefix(got, "spring\tv1\t1 sections") {
		t.Fatalf("unexpected ingest output %q", got)
	}

	var out bytes.Buffer
	err := run(context.Background(), []string{"ingest", "-dir", pagesDir, "-endpoint", server.URL, "spring"}, &out)
	if !errors.Is(err, contentsource.ErrQueryRequired) {
		t.Fatalf("expected ErrQueryRequired without a query, got %v", err)
	}
}

func TestCLIRejectsUnknownCommand(t *testing.T) {
	var out bytes.Buffer
	if err := run(context.Background(), []string{"publish"}, &out); err == nil {
		t.Fatal("expected error for unknown command")
	}
	if !strings.Contains(out.String(), "usage: pagekit") {
		t.Fatalf("expected usage, got %q", out.String())
	}
}
