package editor

import (
	"strings"

	"github.com/goliatone/go-pagekit/internal/sections"
)

// DefaultCTAFields are the only fields a button's label is matched against.
var DefaultCTAFields = []string{"ctaText", "secondaryCtaText", "primaryCtaText", "buttonText"}

const (
	textSuffix = "Text"
	linkSuffix = "Link"
)

// Inferrer maps regions without an explicit marker back to section fields by
// value. Matching is first-match-wins in field order; a region that matches
// more than one field is flagged Ambiguous. Regions that match nothing are
// dropped.
type Inferrer struct {
	CTAFields []string
}

// NewInferrer returns an inferrer matching buttons against ctaFields, or
// DefaultCTAFields when none are given.
func NewInferrer(ctaFields ...string) Inferrer {
	if len(ctaFields) == 0 {
		ctaFields = DefaultCTAFields
	}
	return Inferrer{CTAFields: append([]string(nil), ctaFields...)}
}

// Infer resolves paths for regions against fields and returns the editable
// subset in input order.
func (i Inferrer) Infer(regions []Region, fields *sections.Fields) []Region {
	out := make([]Region, 0, len(regions))
	for _, region := range regions {
		resolved, ok := i.InferRegion(region, fields)
		if ok {
			out = append(out, resolved)
		}
	}
	return out
}

// InferRegion resolves one region. Explicit regions pass through.
func (i Inferrer) InferRegion(region Region, fields *sections.Fields) (Region, bool) {
	if region.Explicit && region.Path != "" {
		if region.Kind == RegionButton {
			region.Companion = CompanionPath(region.Path)
		}
		return region, true
	}

	var matches []string
	switch region.Kind {
	case RegionText:
		matches = i.matchText(region.Text, fields)
	case RegionImage:
		matches = i.matchImage(region.Src, fields)
	case RegionButton:
		matches = i.matchButton(region.Text, fields)
	}
	if len(matches) == 0 {
		return region, false
	}
	region.Path = matches[0]
	region.Ambiguous = len(matches) > 1
	if region.Kind == RegionButton {
		region.Companion = CompanionPath(region.Path)
	}
	return region, true
}

func (i Inferrer) matchText(text string, fields *sections.Fields) []string {
	text = normalizeText(text)
	if text == "" {
		return nil
	}
	var matches []string
	fields.Each(func(name string, value any) bool {
		s, ok := value.(string)
		if ok && normalizeText(s) == text {
			matches = append(matches, name)
		}
		return true
	})
	return matches
}

func (i Inferrer) matchImage(src string, fields *sections.Fields) []string {
	if src == "" {
		return nil
	}
	var matches []string
	fields.Each(func(name string, value any) bool {
		s, ok := value.(string)
		if ok && strings.TrimSpace(s) != "" && strings.Contains(src, strings.TrimSpace(s)) {
			matches = append(matches, name)
		}
		return true
	})
	return matches
}

func (i Inferrer) matchButton(text string, fields *sections.Fields) []string {
	text = normalizeText(text)
	if text == "" {
		return nil
	}
	ctaFields := i.CTAFields
	if len(ctaFields) == 0 {
		ctaFields = DefaultCTAFields
	}
	var matches []string
	for _, name := range ctaFields {
		if normalizeText(fields.String(name)) == text {
			matches = append(matches, name)
		}
	}
	return matches
}

// CompanionPath returns the link field paired with a text field, e.g.
// ctaText -> ctaLink and items.0.buttonText -> items.0.buttonLink. Paths
// without the text suffix have no companion.
func CompanionPath(path string) string {
	head, leaf := "", path
	if dot := strings.LastIndex(path, "."); dot >= 0 {
		head, leaf = path[:dot+1], path[dot+1:]
	}
	if !strings.HasSuffix(leaf, textSuffix) || leaf == textSuffix {
		return ""
	}
	return head + strings.TrimSuffix(leaf, textSuffix) + linkSuffix
}

func normalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
