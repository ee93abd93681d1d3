package pages

import (
	"context"
	"sort"
	"sync"
)

// NewMemoryRepository returns an in-memory repository.
func NewMemoryRepository() Repository {
	return &memoryRepository{byID: make(map[string]*Document)}
}

type memoryRepository struct {
	mu   sync.RWMutex
	byID map[string]*Document
}

func (m *memoryRepository) Get(_ context.Context, slug string) (*Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.byID[slug]
	if !ok {
		return nil, &NotFoundError{Slug: slug}
	}
	return doc.Clone(), nil
}

func (m *memoryRepository) List(_ context.Context) ([]*Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Document, 0, len(m.byID))
	for _, doc := range m.byID {
		out = append(out, doc.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}

func (m *memoryRepository) Create(_ context.Context, doc *Document) (*Document, error) {
	if doc == nil || doc.Slug == "" {
		return nil, ErrSlugRequired
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byID[doc.Slug]; exists {
		return nil, ErrDuplicateSlug
	}
	m.byID[doc.Slug] = doc.Clone()
	return doc.Clone(), nil
}

func (m *memoryRepository) Update(_ context.Context, doc *Document, expected int) (*Document, error) {
	if doc == nil || doc.Slug == "" {
		return nil, ErrSlugRequired
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, exists := m.byID[doc.Slug]
	if !exists {
		return nil, &NotFoundError{Slug: doc.Slug}
	}
	if expected != 0 && stored.Version != expected {
		return nil, &VersionConflictError{Slug: doc.Slug, Expected: expected, Actual: stored.Version}
	}
	m.byID[doc.Slug] = doc.Clone()
	return doc.Clone(), nil
}

func (m *memoryRepository) Delete(_ context.Context, slug string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byID[slug]; !exists {
		return &NotFoundError{Slug: slug}
	}
	delete(m.byID, slug)
	return nil
}
