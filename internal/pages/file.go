package pages

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-pagekit/internal/markdown"
	"github.com/goliatone/go-pagekit/internal/sections"
)

// FileFormat selects how new documents are written to disk.
type FileFormat string

const (
	FormatJSON     FileFormat = "json"
	FormatMarkdown FileFormat = "md"
)

// FileOption configures a file repository.
type FileOption func(*fileRepository)

// WithFileFormat sets the format used for newly created documents. Existing
// documents keep the format they were found in.
func WithFileFormat(format FileFormat) FileOption {
	return func(r *fileRepository) {
		if format == FormatJSON || format == FormatMarkdown {
			r.format = format
		}
	}
}

// NewFileRepository stores one file per page under dir, named <slug>.json or
// <slug>.md. Markdown files carry the document as front matter; a trailing
// rich text section that holds only a body is written as the markdown body.
func NewFileRepository(dir string, opts ...FileOption) (Repository, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("pages: file repository requires a directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("pages: create content dir: %w", err)
	}
	repo := &fileRepository{dir: dir, format: FormatJSON}
	for _, opt := range opts {
		if opt != nil {
			opt(repo)
		}
	}
	return repo, nil
}

type fileRepository struct {
	mu     sync.Mutex
	dir    string
	format FileFormat
}

func (r *fileRepository) Get(_ context.Context, slug string) (*Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	path, format, ok := r.locate(slug)
	if !ok {
		return nil, &NotFoundError{Slug: slug}
	}
	return r.read(path, format, slug)
}

func (r *fileRepository) List(_ context.Context) ([]*Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("pages: list content dir: %w", err)
	}
	seen := map[string]bool{}
	var out []*Document
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		format := FileFormat(strings.TrimPrefix(filepath.Ext(name), "."))
		if format != FormatJSON && format != FormatMarkdown {
			continue
		}
		slug := strings.TrimSuffix(name, filepath.Ext(name))
		if seen[slug] {
			continue
		}
		seen[slug] = true
		doc, err := r.read(filepath.Join(r.dir, name), format, slug)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}

func (r *fileRepository) Create(_ context.Context, doc *Document) (*Document, error) {
	if doc == nil || doc.Slug == "" {
		return nil, ErrSlugRequired
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, _, exists := r.locate(doc.Slug); exists {
		return nil, ErrDuplicateSlug
	}
	if err := r.write(r.pathFor(doc.Slug, r.format), r.format, doc); err != nil {
		return nil, err
	}
	return doc.Clone(), nil
}

func (r *fileRepository) Update(_ context.Context, doc *Document, expected int) (*Document, error) {
	if doc == nil || doc.Slug == "" {
		return nil, ErrSlugRequired
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	path, format, exists := r.locate(doc.Slug)
	if !exists {
		return nil, &NotFoundError{Slug: doc.Slug}
	}
	if expected != 0 {
		stored, err := r.read(path, format, doc.Slug)
		if err != nil {
			return nil, err
		}
		if stored.Version != expected {
			return nil, &VersionConflictError{Slug: doc.Slug, Expected: expected, Actual: stored.Version}
		}
	}
	if err := r.write(path, format, doc); err != nil {
		return nil, err
	}
	return doc.Clone(), nil
}

func (r *fileRepository) Delete(_ context.Context, slug string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	path, _, exists := r.locate(slug)
	if !exists {
		return &NotFoundError{Slug: slug}
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("pages: delete %s: %w", slug, err)
	}
	return nil
}

func (r *fileRepository) pathFor(slug string, format FileFormat) string {
	return filepath.Join(r.dir, slug+"."+string(format))
}

func (r *fileRepository) locate(slug string) (string, FileFormat, bool) {
	if slug == "" || strings.ContainsAny(slug, `/\`) {
		return "", "", false
	}
	for _, format := range []FileFormat{FormatJSON, FormatMarkdown} {
		path := r.pathFor(slug, format)
		if _, err := os.Stat(path); err == nil {
			return path, format, true
		}
	}
	return "", "", false
}

func (r *fileRepository) read(path string, format FileFormat, slug string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &NotFoundError{Slug: slug}
		}
		return nil, fmt.Errorf("pages: read %s: %w", slug, err)
	}
	var doc *Document
	if format == FormatMarkdown {
		doc, err = decodeMarkdownDocument(data)
	} else {
		doc = &Document{}
		err = json.Unmarshal(data, doc)
	}
	if err != nil {
		return nil, fmt.Errorf("pages: decode %s: %w", slug, err)
	}
	doc.Slug = slug
	if doc.Sections == nil {
		doc.Sections = []sections.Section{}
	}
	return doc, nil
}

func (r *fileRepository) write(path string, format FileFormat, doc *Document) error {
	var (
		data []byte
		err  error
	)
	if format == FormatMarkdown {
		data, err = encodeMarkdownDocument(doc)
	} else {
		data, err = json.MarshalIndent(doc, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("pages: encode %s: %w", doc.Slug, err)
	}

	tmp, err := os.CreateTemp(r.dir, "."+doc.Slug+".*.tmp")
	if err != nil {
		return fmt.Errorf("pages: write %s: %w", doc.Slug, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("pages: write %s: %w", doc.Slug, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("pages: write %s: %w", doc.Slug, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("pages: write %s: %w", doc.Slug, err)
	}
	return nil
}

func encodeMarkdownDocument(doc *Document) ([]byte, error) {
	meta := doc.Clone()
	var body string
	if n := len(meta.Sections); n > 0 {
		last := meta.Sections[n-1]
		if last.Template == sections.TemplateRichText && last.Fields.Len() == 1 && last.Fields.Has("body") {
			body = last.Fields.String("body")
			meta.Sections = meta.Sections[:n-1]
		}
	}
	encoded, err := json.Marshal(meta)
	if err != nil {
		return nil, err
	}
	if body != "" && !strings.HasSuffix(body, "\n") {
		body += "\n"
	}
	return markdown.RenderFrontMatter(encoded, []byte(body))
}

func decodeMarkdownDocument(data []byte) (*Document, error) {
	meta, body, err := markdown.ParseFrontMatter(data)
	if err != nil {
		return nil, err
	}
	doc := &Document{}
	if err := json.Unmarshal(meta, doc); err != nil {
		return nil, err
	}
	if text := strings.TrimSpace(string(body)); text != "" {
		doc.Sections = append(doc.Sections, sections.NewSection(sections.TemplateRichText, "body", text))
	}
	return doc, nil
}
