package pages

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/goliatone/go-pagekit/internal/sections"
)

// Status is the publication state of a page.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

func (s Status) Valid() bool {
	return s == StatusDraft || s == StatusPublished
}

// Link is a navigation entry.
type Link struct {
	Label string `json:"label"`
	Href  string `json:"href"`
}

// SEO holds search metadata.
type SEO struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
	NoIndex     bool   `json:"noIndex"`
}

type Navbar struct {
	Logo  string `json:"logo,omitempty"`
	Links []Link `json:"links,omitempty"`
}

type Footer struct {
	Text  string `json:"text,omitempty"`
	Links []Link `json:"links,omitempty"`
}

// Document is a page: metadata plus the ordered section list. Section order
// is render order.
type Document struct {
	Slug      string             `json:"slug"`
	Title     string             `json:"title"`
	Status    Status             `json:"status"`
	Sections  []sections.Section `json:"sections"`
	SEO       SEO                `json:"seo"`
	Navbar    Navbar             `json:"navbar"`
	Footer    Footer             `json:"footer"`
	Version   int                `json:"version"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// Summary is one row of the page index.
type Summary struct {
	Slug   string `json:"slug"`
	Title  string `json:"title"`
	Status Status `json:"status"`
}

// Clone returns a deep copy with a non-nil section list.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := *d
	out.Sections = make([]sections.Section, len(d.Sections))
	for i, section := range d.Sections {
		out.Sections[i] = section.Clone()
	}
	out.Navbar.Links = append([]Link(nil), d.Navbar.Links...)
	out.Footer.Links = append([]Link(nil), d.Footer.Links...)
	return &out
}

func (d *Document) Summary() Summary {
	return Summary{Slug: d.Slug, Title: d.Title, Status: d.Status}
}

// Templates lists section templates in order.
func (d *Document) Templates() []sections.TemplateName {
	out := make([]sections.TemplateName, 0, len(d.Sections))
	for _, section := range d.Sections {
		out = append(out, section.Template)
	}
	return out
}

// WithSection returns a copy of d whose section at index is replaced.
func (d *Document) WithSection(index int, section sections.Section) (*Document, error) {
	if index < 0 || index >= len(d.Sections) {
		return nil, fmt.Errorf("%w: section %d of %d", ErrSectionIndex, index, len(d.Sections))
	}
	out := d.Clone()
	out.Sections[index] = section.Clone()
	return out, nil
}

// MarshalJSON keeps sections encoded as a list even when empty.
func (d Document) MarshalJSON() ([]byte, error) {
	type alias Document
	if d.Sections == nil {
		d.Sections = []sections.Section{}
	}
	return json.Marshal(alias(d))
}
