package editor

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-pagekit/internal/logging"
	"github.com/goliatone/go-pagekit/internal/pages"
	"github.com/goliatone/go-pagekit/internal/sections"
	"github.com/goliatone/go-pagekit/pkg/interfaces"
)

// DefaultDebounce is the autosave delay after the last edit.
const DefaultDebounce = 1500 * time.Millisecond

var (
	ErrSaveInFlight = errors.New("editor: save in progress")
	ErrNoDocument   = errors.New("editor: session has no document")
	ErrNotEditable  = errors.New("editor: region has no field path")
)

// State is the edit session state.
type State string

const (
	StateClean  State = "clean"
	StateDirty  State = "dirty"
	StateSaving State = "saving"
)

// Persister stores a page document. pages.Service satisfies it.
type Persister interface {
	Put(ctx context.Context, slug string, doc *pages.Document) (*pages.Document, error)
}

// Snapshot is the observable state of a session.
type Snapshot struct {
	State         State
	Revision      int
	SavedRevision int
	Err           error
	Message       string
	Saves         int
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithDebounce sets the autosave delay. Zero disables autosave.
func WithDebounce(d time.Duration) SessionOption {
	return func(s *Session) {
		if d >= 0 {
			s.debounce = d
		}
	}
}

// WithSessionClock overrides the clock.
func WithSessionClock(clock Clock) SessionOption {
	return func(s *Session) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithSessionLogger sets the session logger.
func WithSessionLogger(logger interfaces.Logger) SessionOption {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Session tracks unsaved edits to one page and drives saves: Clean, then
// Dirty on edit, Saving when the debounce elapses or a save is requested,
// then Clean again or Dirty with an error. Only one save runs at a time; a
// save requested while one is running waits for it and runs afterwards.
// Failed saves are not retried.
type Session struct {
	mu        sync.Mutex
	persister Persister
	clock     Clock
	debounce  time.Duration
	logger    interfaces.Logger

	slug          string
	doc           *pages.Document
	saved         *pages.Document
	state         State
	revision      int
	savedRevision int
	inFlight      bool
	pending       bool
	timer         Timer
	err           error
	saves         int

	nextSubscriber int
	subscribers    map[int]func(Snapshot)
}

// NewSession opens an edit session over doc.
func NewSession(doc *pages.Document, persister Persister, opts ...SessionOption) (*Session, error) {
	if doc == nil {
		return nil, ErrNoDocument
	}
	s := &Session{
		persister:   persister,
		clock:       SystemClock{},
		debounce:    DefaultDebounce,
		logger:      logging.NoOp(),
		slug:        doc.Slug,
		doc:         doc.Clone(),
		saved:       doc.Clone(),
		state:       StateClean,
		subscribers: map[int]func(Snapshot){},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.logger = logging.WithPageContext(s.logger, s.slug)
	return s, nil
}

// Document returns a copy of the current in-memory document.
func (s *Session) Document() *pages.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone()
}

// Section returns a copy of the section at index.
func (s *Session) Section(index int) (sections.Section, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.doc.Sections) {
		return sections.Section{}, false
	}
	return s.doc.Sections[index].Clone(), true
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		State:         s.state,
		Revision:      s.revision,
		SavedRevision: s.savedRevision,
		Err:           s.err,
		Message:       UserMessage(s.err),
		Saves:         s.saves,
	}
}

// Subscribe registers fn for state changes and returns a cancel func.
func (s *Session) Subscribe(fn func(Snapshot)) func() {
	if fn == nil {
		return func() {}
	}
	s.mu.Lock()
	id := s.nextSubscriber
	s.nextSubscriber++
	s.subscribers[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

func (s *Session) notify() {
	s.mu.Lock()
	snapshot := s.snapshotLocked()
	listeners := make([]func(Snapshot), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()
	for _, fn := range listeners {
		fn(snapshot)
	}
}

// ApplyPatch replaces the section at index with section. The document is
// never mutated in place.
func (s *Session) ApplyPatch(index int, section sections.Section) error {
	return s.update(index, func(sections.Section) (sections.Section, error) {
		return section, nil
	})
}

// Edit sets the field at path in the section at index.
func (s *Session) Edit(index int, path string, value any) error {
	return s.EditFields(index, map[string]any{path: value})
}

// EditFields sets several paths of one section as a single edit.
func (s *Session) EditFields(index int, values map[string]any) error {
	return s.update(index, func(current sections.Section) (sections.Section, error) {
		fields := current.Fields
		for _, path := range sortedPaths(values) {
			updated, err := sections.SetPath(fields, path, values[path])
			if err != nil {
				return sections.Section{}, err
			}
			fields = updated
		}
		return sections.Section{Template: current.Template, Fields: fields}, nil
	})
}

// update reads the section at index, patches it and stores the result under
// one lock so concurrent edits of a section compose.
func (s *Session) update(index int, patch func(sections.Section) (sections.Section, error)) error {
	s.mu.Lock()
	if index < 0 || index >= len(s.doc.Sections) {
		s.mu.Unlock()
		return pages.ErrSectionIndex
	}
	section, err := patch(s.doc.Sections[index].Clone())
	if err != nil {
		s.mu.Unlock()
		return err
	}
	next, err := s.doc.WithSection(index, section)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.doc = next
	s.revision++
	if !s.inFlight {
		s.state = StateDirty
		s.scheduleLocked()
	}
	revision := s.revision
	s.mu.Unlock()

	s.logger.Debug("editor.edit", "section", index, "revision", revision)
	s.notify()
	return nil
}

// EditRegion sets the field behind region to value.
func (s *Session) EditRegion(index int, region Region, value string) error {
	if strings.TrimSpace(region.Path) == "" {
		return ErrNotEditable
	}
	return s.Edit(index, region.Path, value)
}

// EditButton sets a button's label and, through the companion field, its
// destination in one edit. An empty link leaves the destination unchanged.
func (s *Session) EditButton(index int, region Region, label, link string) error {
	if strings.TrimSpace(region.Path) == "" {
		return ErrNotEditable
	}
	values := map[string]any{region.Path: label}
	companion := region.Companion
	if companion == "" {
		companion = CompanionPath(region.Path)
	}
	if companion != "" && link != "" {
		values[companion] = link
	}
	return s.EditFields(index, values)
}

// Save persists the current document. While another save is running the
// request is queued and Save returns nil immediately.
func (s *Session) Save(ctx context.Context) error {
	return s.save(ctx)
}

func (s *Session) save(ctx context.Context) error {
	s.mu.Lock()
	if s.inFlight {
		s.pending = true
		s.mu.Unlock()
		return nil
	}
	if s.revision == s.savedRevision {
		s.mu.Unlock()
		return nil
	}
	s.stopTimerLocked()
	s.inFlight = true
	s.state = StateSaving
	s.saves++
	doc := s.doc.Clone()
	revision := s.revision
	s.mu.Unlock()
	s.notify()

	s.logger.WithContext(ctx).Info("editor.save.start", "revision", revision)
	saved, err := s.persister.Put(ctx, s.slug, doc)

	s.mu.Lock()
	s.inFlight = false
	if err != nil {
		s.pending = false
		s.state = StateDirty
		s.err = err
		s.mu.Unlock()
		s.logger.WithContext(ctx).Error("editor.save.failed", "revision", revision, "error", err)
		s.notify()
		return err
	}

	s.err = nil
	s.savedRevision = revision
	if saved != nil {
		s.saved = saved.Clone()
		current := s.doc.Clone()
		current.Version = saved.Version
		current.UpdatedAt = saved.UpdatedAt
		s.doc = current
	} else {
		s.saved = doc
	}
	rerun := false
	if s.revision > revision {
		s.state = StateDirty
		if s.pending {
			rerun = true
		} else {
			s.scheduleLocked()
		}
	} else {
		s.state = StateClean
	}
	s.pending = false
	s.mu.Unlock()

	s.logger.WithContext(ctx).Info("editor.save.success", "revision", revision)
	s.notify()
	if rerun {
		return s.save(ctx)
	}
	return nil
}

// HandleShortcut saves on mod+s, ctrl+s, meta+s and cmd+s. It reports whether
// the combination was handled.
func (s *Session) HandleShortcut(ctx context.Context, combo string) (bool, error) {
	switch strings.ToLower(strings.ReplaceAll(combo, " ", "")) {
	case "mod+s", "ctrl+s", "meta+s", "cmd+s":
		return true, s.save(ctx)
	}
	return false, nil
}

// ShouldWarnOnUnload reports whether leaving now would lose edits.
func (s *Session) ShouldWarnOnUnload() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateDirty || s.state == StateSaving
}

// Cancel discards unsaved edits and returns to the last saved document.
func (s *Session) Cancel() error {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return ErrSaveInFlight
	}
	s.stopTimerLocked()
	s.doc = s.saved.Clone()
	s.revision++
	s.savedRevision = s.revision
	s.state = StateClean
	s.err = nil
	s.mu.Unlock()
	s.notify()
	return nil
}

// Close stops pending autosaves.
func (s *Session) Close() {
	s.mu.Lock()
	s.stopTimerLocked()
	s.mu.Unlock()
}

func (s *Session) scheduleLocked() {
	s.stopTimerLocked()
	if s.debounce <= 0 {
		return
	}
	s.timer = s.clock.AfterFunc(s.debounce, func() {
		_ = s.save(context.Background())
	})
}

func (s *Session) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func sortedPaths(values map[string]any) []string {
	paths := make([]string, 0, len(values))
	for path := range values {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}
