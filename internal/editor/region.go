package editor

import (
	"math"

	"golang.org/x/net/html"
)

// RegionKind classifies an editable region.
type RegionKind string

const (
	RegionText   RegionKind = "text"
	RegionImage  RegionKind = "image"
	RegionButton RegionKind = "button"
)

// Rect is an on-screen bounding box in CSS pixels.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Viewport is the visible area regions are laid out in.
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// DefaultViewport is used until the overlay receives a resize.
var DefaultViewport = Viewport{Width: 1280, Height: 800}

// Region is one editable area of a rendered section. Path is empty until
// inference fills it, unless the renderer marked the element explicitly.
type Region struct {
	Order     int        `json:"order"`
	Kind      RegionKind `json:"kind"`
	Tag       string     `json:"tag"`
	Path      string     `json:"path,omitempty"`
	Explicit  bool       `json:"explicit"`
	Text      string     `json:"text,omitempty"`
	Src       string     `json:"src,omitempty"`
	Companion string     `json:"companion,omitempty"`
	Ambiguous bool       `json:"ambiguous,omitempty"`
	Rect      Rect       `json:"rect"`
	Node      *html.Node `json:"-"`
}

// Locator assigns bounding rectangles to scanned regions.
type Locator interface {
	Locate(regions []Region, viewport Viewport)
}

// LocatorFunc adapts a function to Locator.
type LocatorFunc func(regions []Region, viewport Viewport)

func (f LocatorFunc) Locate(regions []Region, viewport Viewport) { f(regions, viewport) }

// FlowLocator approximates layout by stacking regions top to bottom in
// document order and wrapping text at the viewport width.
type FlowLocator struct {
	LineHeight  float64
	CharWidth   float64
	ImageHeight float64
	Gap         float64
}

// DefaultFlowLocator returns a locator tuned for body copy.
func DefaultFlowLocator() FlowLocator {
	return FlowLocator{LineHeight: 24, CharWidth: 9, ImageHeight: 320, Gap: 16}
}

func (l FlowLocator) Locate(regions []Region, viewport Viewport) {
	width := viewport.Width
	if width <= 0 {
		width = DefaultViewport.Width
	}
	y := 0.0
	for i := range regions {
		height := l.height(regions[i], width)
		regionWidth := width
		if regions[i].Kind == RegionButton {
			regionWidth = math.Min(width, float64(len([]rune(regions[i].Text))+4)*l.CharWidth)
		}
		regions[i].Rect = Rect{X: 0, Y: y, Width: regionWidth, Height: height}
		y += height + l.Gap
	}
}

func (l FlowLocator) height(region Region, width float64) float64 {
	switch region.Kind {
	case RegionImage:
		return l.ImageHeight
	case RegionButton:
		return l.LineHeight + l.Gap
	}
	chars := float64(len([]rune(region.Text)))
	perLine := math.Max(1, math.Floor(width/l.CharWidth))
	lines := math.Max(1, math.Ceil(chars/perLine))
	return lines * l.LineHeight
}
