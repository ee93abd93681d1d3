package pages

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/goliatone/go-pagekit/internal/logging"
	"github.com/goliatone/go-pagekit/internal/sections"
	"github.com/goliatone/go-pagekit/internal/variants"
	"github.com/goliatone/go-pagekit/pkg/interfaces"
)

// Service is the page lifecycle API used by the editor, the HTTP layer and
// the CLI.
type Service interface {
	Get(ctx context.Context, slug string) (*Document, error)
	List(ctx context.Context) ([]*Document, error)
	Index(ctx context.Context) ([]Summary, error)
	Create(ctx context.Context, doc *Document) (*Document, error)
	Put(ctx context.Context, slug string, doc *Document) (*Document, error)
	Delete(ctx context.Context, slug string) error
	Duplicate(ctx context.Context, slug string) (*Document, error)
	Variants(ctx context.Context, slug string) (variants.Group, error)
	VariantGroups(ctx context.Context) ([]variants.Group, error)
}

// ServiceOption configures the page service.
type ServiceOption func(*service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(logger interfaces.Logger) ServiceOption {
	return func(s *service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithPlanner replaces the variant planner.
func WithPlanner(planner variants.Planner) ServiceOption {
	return func(s *service) {
		s.planner = planner
	}
}

const maxUnversionedAttempts = 3

type service struct {
	repo    Repository
	now     func() time.Time
	logger  interfaces.Logger
	planner variants.Planner
}

// NewService wires the page service over repo.
func NewService(repo Repository, opts ...ServiceOption) Service {
	s := &service{
		repo:    repo,
		now:     time.Now,
		logger:  logging.NoOp(),
		planner: variants.Planner{TitleFormat: variants.DefaultTitleFormat},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *service) Get(ctx context.Context, slug string) (*Document, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, ErrSlugRequired
	}
	return s.repo.Get(ctx, slug)
}

func (s *service) List(ctx context.Context) ([]*Document, error) {
	return s.repo.List(ctx)
}

func (s *service) Index(ctx context.Context) ([]Summary, error) {
	docs, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Summary, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.Summary())
	}
	return out, nil
}

func (s *service) Create(ctx context.Context, doc *Document) (*Document, error) {
	if doc == nil {
		return nil, ErrInvalidDocument
	}
	next := doc.Clone()
	next.Slug = strings.TrimSpace(next.Slug)
	if next.Status == "" {
		next.Status = StatusDraft
	}
	if err := next.Validate(); err != nil {
		return nil, err
	}
	next.Version = 1
	next.UpdatedAt = s.now().UTC()

	created, err := s.repo.Create(ctx, next)
	if err != nil {
		return nil, err
	}
	logging.WithPageContext(s.logger, created.Slug).WithContext(ctx).Info("pages.created", "version", created.Version)
	return created, nil
}

// Put replaces the stored document. A non-zero incoming version must match
// the stored version; zero skips the check. The repository applies the
// comparison atomically with the write.
func (s *service) Put(ctx context.Context, slug string, doc *Document) (*Document, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, ErrSlugRequired
	}
	if doc == nil {
		return nil, ErrInvalidDocument
	}

	for attempt := 0; ; attempt++ {
		current, err := s.repo.Get(ctx, slug)
		if err != nil {
			return nil, err
		}

		next := doc.Clone()
		next.Slug = slug
		if next.Status == "" {
			next.Status = current.Status
		}
		if err := next.Validate(); err != nil {
			return nil, err
		}
		if doc.Version != 0 && doc.Version != current.Version {
			return nil, &VersionConflictError{Slug: slug, Expected: doc.Version, Actual: current.Version}
		}
		next.Version = current.Version + 1
		next.UpdatedAt = s.now().UTC()

		updated, err := s.repo.Update(ctx, next, current.Version)
		if errors.Is(err, ErrVersionConflict) && doc.Version == 0 && attempt < maxUnversionedAttempts {
			// Unversioned writes only need a fresh base.
			continue
		}
		if err != nil {
			return nil, err
		}
		logging.WithPageContext(s.logger, slug).WithContext(ctx).Info("pages.saved",
			"version", updated.Version,
			"sections", len(updated.Sections),
		)
		return updated, nil
	}
}

func (s *service) Delete(ctx context.Context, slug string) error {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return ErrSlugRequired
	}
	if err := s.repo.Delete(ctx, slug); err != nil {
		return err
	}
	logging.WithPageContext(s.logger, slug).WithContext(ctx).Info("pages.deleted")
	return nil
}

// Duplicate copies slug into the next free variant of its base. The copy
// starts as a draft excluded from indexing.
func (s *service) Duplicate(ctx context.Context, slug string) (*Document, error) {
	source, err := s.Get(ctx, slug)
	if err != nil {
		return nil, err
	}
	existing, err := s.slugs(ctx)
	if err != nil {
		return nil, err
	}

	// A concurrent duplicate can claim the planned slug; plan again once.
	for attempt := 0; attempt < 2; attempt++ {
		plan, err := s.planner.Plan(source.Slug, source.Title, existing)
		if err != nil {
			return nil, err
		}
		copyDoc := source.Clone()
		copyDoc.Slug = plan.Slug
		copyDoc.Title = plan.Title
		copyDoc.Status = StatusDraft
		copyDoc.SEO.NoIndex = true
		copyDoc.Version = 1
		copyDoc.UpdatedAt = s.now().UTC()

		created, err := s.repo.Create(ctx, copyDoc)
		if errors.Is(err, ErrDuplicateSlug) {
			existing = append(existing, plan.Slug)
			continue
		}
		if err != nil {
			return nil, err
		}
		logging.WithPageContext(s.logger, created.Slug).WithContext(ctx).Info("pages.duplicated",
			"source", source.Slug,
			"variant", plan.Number,
		)
		return created, nil
	}
	return nil, ErrDuplicateSlug
}

func (s *service) Variants(ctx context.Context, slug string) (variants.Group, error) {
	groups, err := s.VariantGroups(ctx)
	if err != nil {
		return variants.Group{}, err
	}
	group, ok := variants.Find(groups, slug)
	if !ok {
		return variants.Group{}, &NotFoundError{Slug: slug}
	}
	return group, nil
}

func (s *service) VariantGroups(ctx context.Context) ([]variants.Group, error) {
	index, err := s.Index(ctx)
	if err != nil {
		return nil, err
	}
	entries := make([]variants.Entry, 0, len(index))
	for _, summary := range index {
		entries = append(entries, variants.Entry{
			Slug:   summary.Slug,
			Title:  summary.Title,
			Status: string(summary.Status),
		})
	}
	return variants.GroupEntries(entries), nil
}

func (s *service) slugs(ctx context.Context) ([]string, error) {
	index, err := s.Index(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(index))
	for _, summary := range index {
		out = append(out, summary.Slug)
	}
	return out, nil
}

// SectionTemplates lists the templates of every stored page in section order.
func SectionTemplates(ctx context.Context, svc Service) (map[string][]sections.TemplateName, error) {
	docs, err := svc.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]sections.TemplateName, len(docs))
	for _, doc := range docs {
		out[doc.Slug] = doc.Templates()
	}
	return out, nil
}
