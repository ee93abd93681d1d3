package pages_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-pagekit/internal/pages"
	"github.com/goliatone/go-pagekit/internal/sections"
)

func newTestService(t *testing.T) pages.Service {
	t.Helper()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return pages.NewService(pages.NewMemoryRepository(), pages.WithClock(func() time.Time { return now }))
}

func TestServiceCreateDefaults(t *testing.T) {
	svc := newTestService(t)
	doc := samplePage("landing")
	doc.Status = ""
	doc.Version = 9

	created, err := svc.Create(context.Background(), doc)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Status != pages.StatusDraft || created.Version != 1 || created.UpdatedAt.IsZero() {
		t.Fatalf("unexpected defaults %+v", created)
	}

	_, err = svc.Create(context.Background(), &pages.Document{Slug: "Bad Slug!", Title: ""})
	var verr *pages.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, ok := verr.Fields["title"]; !ok {
		t.Fatalf("expected title problem, got %v", verr.Fields)
	}
}

func TestServicePutVersioning(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	if _, err := svc.Create(ctx, samplePage("landing")); err != nil {
		t.Fatalf("create: %v", err)
	}

	edit := samplePage("landing")
	edit.Version = 1
	edit.Sections[0].Fields.Set("headline", "Edited")
	saved, err := svc.Put(ctx, "landing", edit)
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if saved.Version != 2 || saved.Sections[0].Fields.String("headline") != "Edited" {
		t.Fatalf("unexpected saved document %+v", saved)
	}

	stale := samplePage("landing")
	stale.Version = 1
	_, err = svc.Put(ctx, "landing", stale)
	var conflict *pages.VersionConflictError
	if !errors.As(err, &conflict) || conflict.Expected != 1 || conflict.Actual != 2 {
		t.Fatalf("expected version conflict, got %v", err)
	}

	unversioned := samplePage("landing")
	unversioned.Version = 0
	if saved, err := svc.Put(ctx, "landing", unversioned); err != nil || saved.Version != 3 {
		t.Fatalf("expected unversioned put to succeed, got %v %v", saved, err)
	}

	if _, err := svc.Put(ctx, "ghost", samplePage("ghost")); !pages.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

// lockstepRepository holds the first two reads until both have happened so
// two writers start from the same stored version.
type lockstepRepository struct {
	pages.Repository
	mu      sync.Mutex
	reads   int
	release chan struct{}
}

func newLockstepRepository(base pages.Repository) *lockstepRepository {
	return &lockstepRepository{Repository: base, release: make(chan struct{})}
}

func (r *lockstepRepository) Get(ctx context.Context, slug string) (*pages.Document, error) {
	doc, err := r.Repository.Get(ctx, slug)
	r.mu.Lock()
	r.reads++
	if r.reads == 2 {
		close(r.release)
	}
	r.mu.Unlock()
	<-r.release
	return doc, err
}

func putConcurrently(svc pages.Service, version int, titles ...string) []error {
	errs := make([]error, len(titles))
	var wg sync.WaitGroup
	for i, title := range titles {
		wg.Add(1)
		go func(i int, title string) {
			defer wg.Done()
			doc := samplePage("offer")
			doc.Title = title
			doc.Version = version
			_, errs[i] = svc.Put(context.Background(), "offer", doc)
		}(i, title)
	}
	wg.Wait()
	return errs
}

func TestServicePutRejectsConcurrentStaleWriter(t *testing.T) {
	ctx := context.Background()
	base := pages.NewMemoryRepository()
	if _, err := pages.NewService(base).Create(ctx, samplePage("offer")); err != nil {
		t.Fatalf("create: %v", err)
	}
	svc := pages.NewService(newLockstepRepository(base))

	errs := putConcurrently(svc, 1, "Writer A", "Writer B")

	var succeeded, conflicted int
	for _, err := range errs {
		var conflict *pages.VersionConflictError
		switch {
		case err == nil:
			succeeded++
		case errors.As(err, &conflict) && conflict.Expected == 1 && conflict.Actual == 2:
			conflicted++
		default:
			t.Fatalf("unexpected error %v", err)
		}
	}
	if succeeded != 1 || conflicted != 1 {
		t.Fatalf("expected one save and one conflict, got %v", errs)
	}
	stored, err := base.Get(ctx, "offer")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Version != 2 {
		t.Fatalf("expected version 2, got %d", stored.Version)
	}
}

func TestServicePutRebasesUnversionedWriters(t *testing.T) {
	ctx := context.Background()
	base := pages.NewMemoryRepository()
	if _, err := pages.NewService(base).Create(ctx, samplePage("offer")); err != nil {
		t.Fatalf("create: %v", err)
	}
	svc := pages.NewService(newLockstepRepository(base))

	for _, err := range putConcurrently(svc, 0, "Writer A", "Writer B") {
		if err != nil {
			t.Fatalf("expected unversioned writes to succeed, got %v", err)
		}
	}
	stored, _ := base.Get(ctx, "offer")
	if stored.Version != 3 {
		t.Fatalf("expected both writes to land, got version %d", stored.Version)
	}
}

func TestServiceDuplicateCreatesVariant(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	source := samplePage("offer")
	source.Title = "Offer"
	source.Status = pages.StatusPublished
	if _, err := svc.Create(ctx, source); err != nil {
		t.Fatalf("create: %v", err)
	}

	first, err := svc.Duplicate(ctx, "offer")
	if err != nil {
		t.Fatalf("duplicate: %v", err)
	}
	if first.Slug != "offer-v2" || first.Title != "Offer (Variant 2)" {
		t.Fatalf("unexpected variant %+v", first.Summary())
	}
	if first.Status != pages.StatusDraft || !first.SEO.NoIndex || first.Version != 1 {
		t.Fatalf("expected unpublished noindex copy, got %+v", first)
	}
	if len(first.Sections) != len(source.Sections) {
		t.Fatal("expected sections to be copied")
	}

	second, err := svc.Duplicate(ctx, "offer-v2")
	if err != nil {
		t.Fatalf("duplicate variant: %v", err)
	}
	if second.Slug != "offer-v3" || strings.Count(second.Title, "Variant") != 1 {
		t.Fatalf("unexpected second variant %+v", second.Summary())
	}

	group, err := svc.Variants(ctx, "offer-v3")
	if err != nil {
		t.Fatalf("variants: %v", err)
	}
	if group.Base == nil || group.Base.Slug != "offer" || len(group.Variants) != 2 {
		t.Fatalf("unexpected group %+v", group)
	}

	source.Sections[0].Fields.Set("headline", "changed")
	original, _ := svc.Get(ctx, "offer")
	if original.Sections[0].Fields.String("headline") != "Hello" {
		t.Fatal("expected duplicate to leave the source untouched")
	}

	if _, err := svc.Duplicate(ctx, "nope"); !pages.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDecodeDocumentRejectsBadPayloads(t *testing.T) {
	cases := []struct {
		name  string
		raw   string
		field string
	}{
		{name: "missing title", raw: `{"sections":[]}`, field: "title"},
		{name: "blank title", raw: `{"title":"  ","sections":[]}`, field: "title"},
		{name: "sections not a list", raw: `{"title":"x","sections":{"a":1}}`, field: "sections"},
		{name: "missing sections", raw: `{"title":"x"}`, field: "sections"},
		{name: "not an object", raw: `[1,2]`, field: "document"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := pages.DecodeDocument([]byte(tc.raw))
			var verr *pages.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if _, ok := verr.Fields[tc.field]; !ok {
				t.Fatalf("expected %s problem, got %v", tc.field, verr.Fields)
			}
		})
	}

	doc, err := pages.DecodeDocument([]byte(`{"title":"Ok","sections":[{"_template":"hero","headline":"Hi"},{"_template":"mystery","x":1}]}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(doc.Sections) != 2 || doc.Sections[1].Template != "mystery" {
		t.Fatalf("expected unknown templates to be kept in place, got %v", doc.Templates())
	}
}

func TestRenderDocument(t *testing.T) {
	registry, err := sections.NewBuiltinRegistry(nil)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	doc := samplePage("landing")
	doc.SEO.NoIndex = true
	doc.Navbar = pages.Navbar{Links: []pages.Link{{Label: "Home", Href: "/"}}}
	doc.Sections = append(doc.Sections, sections.NewSection("carousel"))

	out, err := pages.Render(context.Background(), sections.NewDispatcher(registry), doc)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	html := string(out.HTML)
	for _, want := range []string{"<title>Landing | Site</title>", `content="noindex"`, `href="/"`, "Hello"} {
		if !strings.Contains(html, want) {
			t.Fatalf("expected %q in %s", want, html)
		}
	}
	if len(out.Diagnostics) != 1 || out.Diagnostics[0].Kind != sections.DiagnosticUnknownTemplate {
		t.Fatalf("expected one unknown template diagnostic, got %+v", out.Diagnostics)
	}
}
