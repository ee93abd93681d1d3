package contentsource

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// ErrPageNotFound is returned when a source has no page for a slug.
var ErrPageNotFound = errors.New("contentsource: page not found")

// Source fetches raw page responses by slug.
type Source interface {
	Fetch(ctx context.Context, slug string) ([]byte, error)
}

// Load fetches and decodes the page for slug. The decoded slug defaults to
// the requested one.
func Load(ctx context.Context, source Source, decoder *Decoder, slug string) (*Result, error) {
	if decoder == nil {
		decoder = NewDecoder()
	}
	data, err := source.Fetch(ctx, slug)
	if err != nil {
		return nil, err
	}
	result, err := decoder.Decode(data)
	if err != nil {
		return nil, err
	}
	if result.Document.Slug == "" {
		result.Document.Slug = slug
	}
	return result, nil
}

// FileSource reads <slug>.json responses from a directory.
type FileSource struct {
	Dir string
}

func (s FileSource) Fetch(_ context.Context, slug string) ([]byte, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" || strings.ContainsAny(slug, `/\`) {
		return nil, fmt.Errorf("%w: %q", ErrPageNotFound, slug)
	}
	data, err := os.ReadFile(filepath.Join(s.Dir, slug+".json"))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %q", ErrPageNotFound, slug)
	}
	return data, err
}

// DefaultMaxResponseBytes caps a GraphQL response body.
const DefaultMaxResponseBytes int64 = 8 << 20

var (
	ErrQueryRequired    = errors.New("contentsource: graphql query is required")
	ErrResponseTooLarge = errors.New("contentsource: response exceeds size limit")
)

// GraphQLSource posts a page query to a GraphQL endpoint. Query must select
// the section fields of every template it expects; the query receives the
// slug as $slug.
type GraphQLSource struct {
	Endpoint string
	Query    string
	Headers  map[string]string
	Client   *http.Client
	// MaxBytes overrides DefaultMaxResponseBytes when positive.
	MaxBytes int64
}

func (s GraphQLSource) Fetch(ctx context.Context, slug string) ([]byte, error) {
	if strings.TrimSpace(s.Query) == "" {
		return nil, ErrQueryRequired
	}
	body, err := json.Marshal(map[string]any{
		"query":     s.Query,
		"variables": map[string]any{"slug": slug},
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("contentsource: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for key, value := range s.Headers {
		req.Header.Set(key, value)
	}

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("contentsource: query %s: %w", slug, err)
	}
	defer resp.Body.Close()

	limit := s.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxResponseBytes
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("contentsource: read response: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: %s over %d bytes", ErrResponseTooLarge, slug, limit)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %q", ErrPageNotFound, slug)
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("contentsource: query %s: status %d", slug, resp.StatusCode)
	}
	return data, nil
}
