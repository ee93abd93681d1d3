package editor

import (
	"context"
	"sync"
	"time"

	"github.com/goliatone/go-pagekit/internal/logging"
	"github.com/goliatone/go-pagekit/internal/pages"
	"github.com/goliatone/go-pagekit/internal/sections"
	"github.com/goliatone/go-pagekit/pkg/interfaces"
)

// DefaultSettleDelay is the wait between mount and the first scan.
const DefaultSettleDelay = 150 * time.Millisecond

// SectionRegions are the editable regions found in one section, with
// rectangles in page coordinates.
type SectionRegions struct {
	Index    int                   `json:"index"`
	Token    string                `json:"token"`
	Template sections.TemplateName `json:"template"`
	Regions  []Region              `json:"regions"`
}

// OverlayOption configures an Overlay.
type OverlayOption func(*Overlay)

func WithScanner(scanner *Scanner) OverlayOption {
	return func(o *Overlay) {
		if scanner != nil {
			o.scanner = scanner
		}
	}
}

func WithInferrer(inferrer Inferrer) OverlayOption {
	return func(o *Overlay) {
		o.inferrer = inferrer
	}
}

func WithOverlayClock(clock Clock) OverlayOption {
	return func(o *Overlay) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithSettleDelay sets the delay before the first scan after Mount.
func WithSettleDelay(d time.Duration) OverlayOption {
	return func(o *Overlay) {
		if d >= 0 {
			o.settle = d
		}
	}
}

// WithMarkers controls whether sections render explicit edit markers for
// scanning. Without markers every region goes through inference.
func WithMarkers(enabled bool) OverlayOption {
	return func(o *Overlay) {
		o.markers = enabled
	}
}

func WithOverlayLogger(logger interfaces.Logger) OverlayOption {
	return func(o *Overlay) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Overlay keeps the editable region map of a mounted page current. It
// rescans after the settle delay on mount, on every resize and whenever the
// page data changes.
type Overlay struct {
	dispatcher *sections.Dispatcher
	scanner    *Scanner
	inferrer   Inferrer
	clock      Clock
	settle     time.Duration
	markers    bool
	logger     interfaces.Logger

	mu        sync.Mutex
	doc       *pages.Document
	viewport  Viewport
	mounted   bool
	settling  Timer
	regions   []SectionRegions
	scans     int
	listeners []func([]SectionRegions)
}

func NewOverlay(dispatcher *sections.Dispatcher, opts ...OverlayOption) *Overlay {
	o := &Overlay{
		dispatcher: dispatcher,
		scanner:    NewScanner(),
		inferrer:   NewInferrer(),
		clock:      SystemClock{},
		settle:     DefaultSettleDelay,
		markers:    true,
		logger:     logging.NoOp(),
		viewport:   DefaultViewport,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	o.dispatcher = o.dispatcher.WithOptions(sections.WithEditorMode(o.markers), sections.WithShapeValidation(false))
	return o
}

// OnScan registers fn to receive every completed scan.
func (o *Overlay) OnScan(fn func([]SectionRegions)) {
	if fn == nil {
		return
	}
	o.mu.Lock()
	o.listeners = append(o.listeners, fn)
	o.mu.Unlock()
}

// Mount attaches doc and schedules the first scan.
func (o *Overlay) Mount(doc *pages.Document) {
	o.mu.Lock()
	o.doc = doc.Clone()
	o.mounted = true
	if o.settling != nil {
		o.settling.Stop()
		o.settling = nil
	}
	if o.settle <= 0 {
		o.mu.Unlock()
		o.Rescan()
		return
	}
	o.settling = o.clock.AfterFunc(o.settle, func() {
		o.mu.Lock()
		o.settling = nil
		o.mu.Unlock()
		o.Rescan()
	})
	o.mu.Unlock()
}

// Unmount stops scanning and clears the region map.
func (o *Overlay) Unmount() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.mounted = false
	if o.settling != nil {
		o.settling.Stop()
		o.settling = nil
	}
	o.regions = nil
}

// Resize records the new viewport and rescans.
func (o *Overlay) Resize(viewport Viewport) {
	o.mu.Lock()
	o.viewport = viewport
	ready := o.mounted && o.settling == nil
	o.mu.Unlock()
	if ready {
		o.Rescan()
	}
}

// DataChanged replaces the page data and rescans.
func (o *Overlay) DataChanged(doc *pages.Document) {
	o.mu.Lock()
	o.doc = doc.Clone()
	ready := o.mounted && o.settling == nil
	o.mu.Unlock()
	if ready {
		o.Rescan()
	}
}

// Bind rescans whenever session records a new revision. The returned func
// detaches the overlay.
func (o *Overlay) Bind(session *Session) func() {
	last := session.Snapshot().Revision
	var mu sync.Mutex
	return session.Subscribe(func(snapshot Snapshot) {
		mu.Lock()
		changed := snapshot.Revision != last
		last = snapshot.Revision
		mu.Unlock()
		if changed {
			o.DataChanged(session.Document())
		}
	})
}

// Rescan renders each section in editor mode, scans it and infers paths.
func (o *Overlay) Rescan() []SectionRegions {
	o.mu.Lock()
	if !o.mounted || o.doc == nil {
		o.mu.Unlock()
		return nil
	}
	doc := o.doc
	viewport := o.viewport
	o.mu.Unlock()

	ctx := context.Background()
	out := make([]SectionRegions, 0, len(doc.Sections))
	offset := 0.0
	for index, section := range doc.Sections {
		rendered := o.dispatcher.RenderSection(ctx, index, section)
		entry := SectionRegions{Index: index, Token: rendered.Token, Template: section.Template, Regions: []Region{}}
		if !rendered.Empty {
			regions, err := o.scanner.ScanHTML(string(rendered.HTML), viewport)
			if err != nil {
				logging.WithSectionContext(o.logger, rendered.Token, string(section.Template)).Warn("editor.scan_failed", "error", err)
			} else {
				entry.Regions = o.inferrer.Infer(regions, section.Fields)
				bottom := offset
				for i := range entry.Regions {
					entry.Regions[i].Rect.Y += offset
					if end := entry.Regions[i].Rect.Y + entry.Regions[i].Rect.Height; end > bottom {
						bottom = end
					}
				}
				offset = bottom
			}
		}
		out = append(out, entry)
	}

	o.mu.Lock()
	if !o.mounted {
		o.mu.Unlock()
		return nil
	}
	o.regions = out
	o.scans++
	listeners := append(([]func([]SectionRegions))(nil), o.listeners...)
	o.mu.Unlock()

	o.logger.Debug("editor.scanned", "sections", len(out), "width", viewport.Width)
	for _, fn := range listeners {
		fn(out)
	}
	return out
}

// Regions returns the latest scan.
func (o *Overlay) Regions() []SectionRegions {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]SectionRegions(nil), o.regions...)
}

// Scans counts completed scans.
func (o *Overlay) Scans() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.scans
}

// Find returns the region for path in the section at index.
func (o *Overlay) Find(index int, path string) (Region, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, entry := range o.regions {
		if entry.Index != index {
			continue
		}
		for _, region := range entry.Regions {
			if region.Path == path {
				return region, true
			}
		}
	}
	return Region{}, false
}

// RegionAt hit-tests a point in page coordinates.
func (o *Overlay) RegionAt(x, y float64) (int, Region, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, entry := range o.regions {
		for _, region := range entry.Regions {
			r := region.Rect
			if x >= r.X && x <= r.X+r.Width && y >= r.Y && y <= r.Y+r.Height {
				return entry.Index, region, true
			}
		}
	}
	return 0, Region{}, false
}

