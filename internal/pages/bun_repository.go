package pages

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-repository-cache/cache"
	"github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-pagekit/internal/identity"
)

// PageRecord is the stored row for a document. The full document is kept in
// Payload; the other columns are indexed copies.
type PageRecord struct {
	bun.BaseModel `bun:"table:page_documents,alias:pd"`

	ID        uuid.UUID `bun:",pk,type:uuid" json:"id"`
	Slug      string    `bun:"slug,notnull,unique" json:"slug"`
	Title     string    `bun:"title,notnull" json:"title"`
	Status    string    `bun:"status,notnull" json:"status"`
	Version   int       `bun:"version,notnull" json:"version"`
	Payload   string    `bun:"payload,type:text,notnull" json:"payload"`
	CreatedAt time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}

// NewPageRecordRepository creates the generic repository for page rows.
func NewPageRecordRepository(db *bun.DB) repository.Repository[*PageRecord] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*PageRecord]{
		NewRecord:          func() *PageRecord { return &PageRecord{} },
		GetID:              func(record *PageRecord) uuid.UUID { return record.ID },
		SetID:              func(record *PageRecord, id uuid.UUID) { record.ID = id },
		GetIdentifier:      func() string { return "slug" },
		GetIdentifierValue: func(record *PageRecord) string { return record.Slug },
	})
}

// BunRepository stores documents through go-repository-bun with optional
// read caching.
type BunRepository struct {
	repo         repository.Repository[*PageRecord]
	base         repository.Repository[*PageRecord]
	cacheService cache.CacheService
	cachePrefix  string
}

const pageNamespace = "page_document"

// NewBunRepository creates a repository without caching.
func NewBunRepository(db *bun.DB) *BunRepository {
	return NewBunRepositoryWithCache(db, nil, nil)
}

// NewBunRepositoryWithCache creates a repository with caching support.
func NewBunRepositoryWithCache(db *bun.DB, cacheService cache.CacheService, serializer cache.KeySerializer) *BunRepository {
	base := NewPageRecordRepository(db)
	out := &BunRepository{repo: base, base: base}
	if cacheService != nil && serializer != nil {
		out.repo = repositorycache.New(base, cacheService, serializer)
		out.cacheService = cacheService
		out.cachePrefix = pageNamespace + cache.KeySeparator
	}
	return out
}

// InvalidateCache drops cached page reads.
func (r *BunRepository) InvalidateCache(ctx context.Context) error {
	if r.cacheService == nil || r.cachePrefix == "" {
		return nil
	}
	return r.cacheService.DeleteByPrefix(ctx, r.cachePrefix)
}

func (r *BunRepository) Get(ctx context.Context, slug string) (*Document, error) {
	record, err := r.repo.GetByIdentifier(ctx, slug)
	if err != nil {
		return nil, mapRepositoryError(err, slug)
	}
	return recordToDocument(record)
}

func (r *BunRepository) List(ctx context.Context) ([]*Document, error) {
	records, _, err := r.repo.List(ctx, repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Order("slug ASC")
	}))
	if err != nil {
		return nil, fmt.Errorf("page repository error: %w", err)
	}
	out := make([]*Document, 0, len(records))
	for _, record := range records {
		doc, err := recordToDocument(record)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}

func (r *BunRepository) Create(ctx context.Context, doc *Document) (*Document, error) {
	if doc == nil || doc.Slug == "" {
		return nil, ErrSlugRequired
	}
	record, err := documentToRecord(doc)
	if err != nil {
		return nil, err
	}
	record.ID = identity.PageUUID(doc.Slug)
	// UNIQUE(slug) decides between concurrent creators.
	created, err := r.repo.Create(ctx, record)
	if err != nil {
		if repository.IsDuplicatedKey(err) {
			return nil, ErrDuplicateSlug
		}
		return nil, fmt.Errorf("page repository error: %w", err)
	}
	r.invalidate(ctx)
	return recordToDocument(created)
}

func (r *BunRepository) Update(ctx context.Context, doc *Document, expected int) (*Document, error) {
	if doc == nil || doc.Slug == "" {
		return nil, ErrSlugRequired
	}
	existing, err := r.base.GetByIdentifier(ctx, doc.Slug)
	if err != nil {
		return nil, mapRepositoryError(err, doc.Slug)
	}
	if expected != 0 && existing.Version != expected {
		return nil, &VersionConflictError{Slug: doc.Slug, Expected: expected, Actual: existing.Version}
	}
	record, err := documentToRecord(doc)
	if err != nil {
		return nil, err
	}
	record.ID = existing.ID
	record.CreatedAt = existing.CreatedAt

	criteria := []repository.UpdateCriteria{
		repository.UpdateByID(record.ID.String()),
		repository.UpdateColumns(
			"title",
			"status",
			"version",
			"payload",
			"updated_at",
		),
	}
	if expected != 0 {
		criteria = append(criteria, repository.UpdateRawProcessor(func(q *bun.UpdateQuery) *bun.UpdateQuery {
			return q.Where("?TableAlias.version = ?", expected)
		}))
	}
	updated, err := r.repo.Update(ctx, record, criteria...)
	if err != nil {
		if expected != 0 && repository.IsSQLExpectedCountViolation(err) {
			return nil, r.conflict(ctx, doc.Slug, expected)
		}
		return nil, mapRepositoryError(err, doc.Slug)
	}
	r.invalidate(ctx)
	return recordToDocument(updated)
}

func (r *BunRepository) Delete(ctx context.Context, slug string) error {
	existing, err := r.base.GetByIdentifier(ctx, slug)
	if err != nil {
		return mapRepositoryError(err, slug)
	}
	if err := r.repo.Delete(ctx, &PageRecord{ID: existing.ID, Slug: slug}); err != nil {
		return mapRepositoryError(err, slug)
	}
	r.invalidate(ctx)
	return nil
}

// conflict reports the version a concurrent writer left behind.
func (r *BunRepository) conflict(ctx context.Context, slug string, expected int) error {
	current, err := r.base.GetByIdentifier(ctx, slug)
	if err != nil {
		return mapRepositoryError(err, slug)
	}
	return &VersionConflictError{Slug: slug, Expected: expected, Actual: current.Version}
}

func (r *BunRepository) invalidate(ctx context.Context) {
	_ = r.InvalidateCache(ctx)
}

func documentToRecord(doc *Document) (*PageRecord, error) {
	payload, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("pages: encode %s: %w", doc.Slug, err)
	}
	updatedAt := doc.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	return &PageRecord{
		Slug:      doc.Slug,
		Title:     doc.Title,
		Status:    string(doc.Status),
		Version:   doc.Version,
		Payload:   string(payload),
		UpdatedAt: updatedAt,
	}, nil
}

func recordToDocument(record *PageRecord) (*Document, error) {
	if record == nil {
		return nil, ErrNotFound
	}
	doc := &Document{}
	if err := json.Unmarshal([]byte(record.Payload), doc); err != nil {
		return nil, fmt.Errorf("pages: decode %s: %w", record.Slug, err)
	}
	doc.Slug = record.Slug
	doc.Version = record.Version
	return doc, nil
}

func mapRepositoryError(err error, slug string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return &NotFoundError{Slug: slug}
	}
	return fmt.Errorf("page repository error: %w", err)
}

var _ Repository = (*BunRepository)(nil)
