package editor_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-pagekit/internal/editor"
	"github.com/goliatone/go-pagekit/internal/pages"
	"github.com/goliatone/go-pagekit/internal/sections"
)

type recordingPersister struct {
	mu     sync.Mutex
	calls  []*pages.Document
	err    error
	during func()
}

func (p *recordingPersister) Put(_ context.Context, slug string, doc *pages.Document) (*pages.Document, error) {
	p.mu.Lock()
	p.calls = append(p.calls, doc.Clone())
	err := p.err
	during := p.during
	p.during = nil
	p.mu.Unlock()

	if during != nil {
		during()
	}
	if err != nil {
		return nil, err
	}
	saved := doc.Clone()
	saved.Slug = slug
	saved.Version = doc.Version + 1
	return saved, nil
}

func (p *recordingPersister) Calls() []*pages.Document {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*pages.Document(nil), p.calls...)
}

func editorPage() *pages.Document {
	return &pages.Document{
		Slug:    "quiz",
		Title:   "Quiz",
		Status:  pages.StatusDraft,
		Version: 1,
		Sections: []sections.Section{
			sections.NewSection(sections.TemplateHero, "headline", "Find your plan", "ctaText", "Start now", "ctaLink", "/quiz"),
			sections.NewSection(sections.TemplateFAQ, "title", "Questions"),
		},
	}
}

func newSession(t *testing.T, persister editor.Persister, clock editor.Clock) *editor.Session {
	t.Helper()
	session, err := editor.NewSession(editorPage(), persister,
		editor.WithSessionClock(clock),
		editor.WithDebounce(time.Second),
	)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	t.Cleanup(session.Close)
	return session
}

func TestDebouncedEditsProduceOneSave(t *testing.T) {
	clock := newManualClock()
	persister := &recordingPersister{}
	session := newSession(t, persister, clock)

	if err := session.Edit(0, "headline", "Pick a plan"); err != nil {
		t.Fatalf("edit: %v", err)
	}
	if session.State() != editor.StateDirty || !session.ShouldWarnOnUnload() {
		t.Fatal("expected dirty session after edit")
	}
	clock.Advance(600 * time.Millisecond)
	if err := session.Edit(1, "title", "FAQ"); err != nil {
		t.Fatalf("edit: %v", err)
	}
	clock.Advance(600 * time.Millisecond)
	if len(persister.Calls()) != 0 {
		t.Fatal("expected debounce to restart on the second edit")
	}
	clock.Advance(500 * time.Millisecond)

	calls := persister.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected exactly one save, got %d", len(calls))
	}
	saved := calls[0]
	if saved.Sections[0].Fields.String("headline") != "Pick a plan" || saved.Sections[1].Fields.String("title") != "FAQ" {
		t.Fatalf("expected both edits in the save, got %+v", saved.Sections)
	}
	if session.State() != editor.StateClean || session.ShouldWarnOnUnload() {
		t.Fatalf("expected clean session, got %s", session.State())
	}
	if session.Document().Version != 2 {
		t.Fatalf("expected session to adopt saved version, got %d", session.Document().Version)
	}
}

func TestFailedSaveStaysDirty(t *testing.T) {
	clock := newManualClock()
	persister := &recordingPersister{err: errors.New("network down")}
	session := newSession(t, persister, clock)

	if err := session.Edit(0, "headline", "Unsaved"); err != nil {
		t.Fatalf("edit: %v", err)
	}
	if err := session.Save(context.Background()); err == nil {
		t.Fatal("expected save error")
	}
	snapshot := session.Snapshot()
	if snapshot.State != editor.StateDirty || snapshot.Err == nil || snapshot.Message == "" {
		t.Fatalf("expected dirty session with banner, got %+v", snapshot)
	}
	if session.Document().Sections[0].Fields.String("headline") != "Unsaved" {
		t.Fatal("expected the edit to survive the failure")
	}

	clock.Advance(time.Minute)
	if len(persister.Calls()) != 1 {
		t.Fatalf("expected no automatic retry, got %d calls", len(persister.Calls()))
	}

	persister.mu.Lock()
	persister.err = nil
	persister.mu.Unlock()
	if handled, err := session.HandleShortcut(context.Background(), "Mod+S"); !handled || err != nil {
		t.Fatalf("expected shortcut to save, got %v %v", handled, err)
	}
	if session.State() != editor.StateClean {
		t.Fatalf("expected clean after manual retry, got %s", session.State())
	}
}

func TestEditDuringSaveIsRequeued(t *testing.T) {
	clock := newManualClock()
	persister := &recordingPersister{}
	session := newSession(t, persister, clock)

	if err := session.Edit(0, "headline", "First"); err != nil {
		t.Fatalf("edit: %v", err)
	}
	persister.during = func() {
		if session.State() != editor.StateSaving || !session.ShouldWarnOnUnload() {
			t.Errorf("expected saving state during put, got %s", session.State())
		}
		if err := session.Edit(0, "headline", "Second"); err != nil {
			t.Errorf("edit during save: %v", err)
		}
		if err := session.Save(context.Background()); err != nil {
			t.Errorf("deferred save: %v", err)
		}
	}
	if err := session.Save(context.Background()); err != nil {
		t.Fatalf("save: %v", err)
	}

	calls := persister.Calls()
	if len(calls) != 2 {
		t.Fatalf("expected deferred save to run after the first, got %d calls", len(calls))
	}
	if calls[0].Sections[0].Fields.String("headline") != "First" || calls[1].Sections[0].Fields.String("headline") != "Second" {
		t.Fatalf("unexpected save contents %q then %q",
			calls[0].Sections[0].Fields.String("headline"), calls[1].Sections[0].Fields.String("headline"))
	}
	if calls[1].Version != 2 {
		t.Fatalf("expected second save to carry the new version, got %d", calls[1].Version)
	}
	if session.State() != editor.StateClean {
		t.Fatalf("expected clean, got %s", session.State())
	}
}

func TestEditDuringSaveWithoutRequestGoesDirty(t *testing.T) {
	clock := newManualClock()
	persister := &recordingPersister{}
	session := newSession(t, persister, clock)

	_ = session.Edit(0, "headline", "First")
	persister.during = func() { _ = session.Edit(0, "headline", "Late") }
	if err := session.Save(context.Background()); err != nil {
		t.Fatalf("save: %v", err)
	}
	if session.State() != editor.StateDirty {
		t.Fatalf("expected late edit to leave session dirty, got %s", session.State())
	}
	clock.Advance(time.Second)
	calls := persister.Calls()
	if len(calls) != 2 || calls[1].Sections[0].Fields.String("headline") != "Late" {
		t.Fatalf("expected late edit to autosave, got %d calls", len(calls))
	}
}

func TestButtonEditUpdatesCompanionLink(t *testing.T) {
	registry, err := sections.NewBuiltinRegistry(nil)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	clock := newManualClock()
	session := newSession(t, &recordingPersister{}, clock)

	overlay := editor.NewOverlay(sections.NewDispatcher(registry),
		editor.WithMarkers(false),
		editor.WithOverlayClock(clock),
	)
	overlay.Mount(session.Document())
	defer overlay.Bind(session)()
	clock.Advance(editor.DefaultSettleDelay)

	button, ok := overlay.Find(0, "ctaText")
	if !ok {
		t.Fatalf("expected inferred ctaText region, got %+v", overlay.Regions())
	}
	if button.Kind != editor.RegionButton || button.Explicit || button.Companion != "ctaLink" {
		t.Fatalf("unexpected button region %+v", button)
	}

	if err := session.EditButton(0, button, "Take the quiz", "/quiz/start"); err != nil {
		t.Fatalf("edit button: %v", err)
	}
	section, _ := session.Section(0)
	if section.Fields.String("ctaText") != "Take the quiz" || section.Fields.String("ctaLink") != "/quiz/start" {
		t.Fatalf("expected label and link to change, got %v", section.Fields.Map())
	}
	if snapshot := session.Snapshot(); snapshot.Revision != 1 {
		t.Fatalf("expected one revision for the paired edit, got %d", snapshot.Revision)
	}

	if _, ok := overlay.Find(0, "ctaText"); !ok {
		t.Fatal("expected rescan after data change to keep the button editable")
	}
	if overlay.Scans() != 2 {
		t.Fatalf("expected mount scan plus data change scan, got %d", overlay.Scans())
	}
}

func TestCancelRevertsToSaved(t *testing.T) {
	clock := newManualClock()
	session := newSession(t, &recordingPersister{}, clock)
	_ = session.Edit(0, "headline", "Throwaway")
	if err := session.Cancel(); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if session.State() != editor.StateClean || session.Document().Sections[0].Fields.String("headline") != "Find your plan" {
		t.Fatal("expected cancel to restore the saved document")
	}
	if clock.Pending() != 0 {
		t.Fatal("expected cancel to stop the autosave timer")
	}
}

func TestSubscribersSeeTransitions(t *testing.T) {
	clock := newManualClock()
	session := newSession(t, &recordingPersister{}, clock)
	var states []string
	cancel := session.Subscribe(func(s editor.Snapshot) { states = append(states, string(s.State)) })
	_ = session.Edit(0, "headline", "x")
	_ = session.Save(context.Background())
	cancel()
	_ = session.Edit(0, "headline", "y")

	if got := strings.Join(states, ","); got != "dirty,saving,clean" {
		t.Fatalf("unexpected transitions %s", got)
	}
}

func TestUserMessages(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{err: &pages.NotFoundError{Slug: "x"}, want: "no longer exists"},
		{err: &pages.ValidationError{Fields: map[string]string{"title": "title is required"}}, want: "title: title is required"},
		{err: &pages.VersionConflictError{Slug: "x", Expected: 1, Actual: 2}, want: "Reload"},
		{err: errors.New("boom"), want: "save again"},
	}
	for _, tc := range cases {
		if got := editor.UserMessage(tc.err); !strings.Contains(got, tc.want) {
			t.Fatalf("UserMessage(%v) = %q, want it to contain %q", tc.err, got, tc.want)
		}
	}
	if editor.UserMessage(nil) != "" {
		t.Fatal("expected empty message for nil")
	}
}

func TestOverlayRegionAtHitTests(t *testing.T) {
	registry, err := sections.NewBuiltinRegistry(nil)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	overlay := editor.NewOverlay(sections.NewDispatcher(registry), editor.WithSettleDelay(0))
	overlay.Mount(editorPage())

	for _, target := range []struct {
		index int
		path  string
	}{
		{index: 0, path: "headline"},
		{index: 0, path: "ctaText"},
		{index: 1, path: "title"},
	} {
		region, ok := overlay.Find(target.index, target.path)
		if !ok {
			t.Fatalf("expected region %d/%s, got %+v", target.index, target.path, overlay.Regions())
		}
		x := region.Rect.X + region.Rect.Width/2
		y := region.Rect.Y + region.Rect.Height/2
		index, hit, ok := overlay.RegionAt(x, y)
		if !ok || index != target.index || hit.Path != target.path {
			t.Fatalf("expected hit on %d/%s at (%v,%v), got %d/%s %v", target.index, target.path, x, y, index, hit.Path, ok)
		}
	}

	if _, _, ok := overlay.RegionAt(-10, -10); ok {
		t.Fatal("expected no region outside the page")
	}
	overlay.Unmount()
	if _, _, ok := overlay.RegionAt(1, 1); ok {
		t.Fatal("expected no regions after unmount")
	}
}

func TestConcurrentEditsOfOneSectionCompose(t *testing.T) {
	clock := newManualClock()
	session := newSession(t, &recordingPersister{}, clock)

	const writers = 16
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := session.Edit(0, fmt.Sprintf("note%d", i), "x"); err != nil {
				t.Errorf("edit %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	section, _ := session.Section(0)
	for i := 0; i < writers; i++ {
		if !section.Fields.Has(fmt.Sprintf("note%d", i)) {
			t.Fatalf("expected every concurrent edit to survive, missing note%d in %v", i, section.Fields.Keys())
		}
	}
	if section.Fields.String("headline") != "Find your plan" {
		t.Fatalf("expected untouched fields to survive, got %v", section.Fields.Map())
	}
	if snapshot := session.Snapshot(); snapshot.Revision != writers {
		t.Fatalf("expected %d revisions, got %d", writers, snapshot.Revision)
	}
	if err := session.Edit(5, "headline", "x"); !errors.Is(err, pages.ErrSectionIndex) {
		t.Fatalf("expected ErrSectionIndex, got %v", err)
	}
}
