package variants

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var ErrSlugRequired = errors.New("variants: source slug is required")

// DefaultTitleFormat annotates a duplicate's title with its variant number.
const DefaultTitleFormat = "%s (Variant %d)"

var suffixPattern = regexp.MustCompile(`^(.+)-v(\d+)$`)

// Variant classifies a slug. Number is nil for the base slug, which counts
// as variant 1.
type Variant struct {
	Slug     string `json:"slug"`
	BaseSlug string `json:"baseSlug"`
	Number   *int   `json:"number,omitempty"`
}

// IsBase reports whether the slug has no numeric suffix.
func (v Variant) IsBase() bool { return v.Number == nil }

// Ordinal returns the variant number, 1 for the base.
func (v Variant) Ordinal() int {
	if v.Number == nil {
		return 1
	}
	return *v.Number
}

// Parse classifies slug using the <base>-v<N> suffix. Suffixes below 2 are
// not variant numbers and leave the slug as a base.
func Parse(slug string) Variant {
	slug = strings.TrimSpace(slug)
	match := suffixPattern.FindStringSubmatch(slug)
	if match == nil {
		return Variant{Slug: slug, BaseSlug: slug}
	}
	number, err := strconv.Atoi(match[2])
	if err != nil || number < 2 {
		return Variant{Slug: slug, BaseSlug: slug}
	}
	return Variant{Slug: slug, BaseSlug: match[1], Number: &number}
}

// NextNumber returns the number a new variant of base receives: 2 when no
// numbered variant exists, otherwise one more than the highest.
func NextNumber(base string, existing []string) int {
	highest := 1
	for _, slug := range existing {
		parsed := Parse(slug)
		if parsed.BaseSlug != base || parsed.Number == nil {
			continue
		}
		if *parsed.Number > highest {
			highest = *parsed.Number
		}
	}
	return highest + 1
}

// Duplicate is the plan for a new variant.
type Duplicate struct {
	SourceSlug string `json:"sourceSlug"`
	BaseSlug   string `json:"baseSlug"`
	Slug       string `json:"slug"`
	Number     int    `json:"number"`
	Title      string `json:"title"`
}

// Planner derives variant slugs and titles.
type Planner struct {
	TitleFormat string
}

// Plan computes the slug and title for duplicating source. Duplicating a
// numbered variant creates a new variant of its base.
func (p Planner) Plan(source, title string, existing []string) (Duplicate, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return Duplicate{}, ErrSlugRequired
	}
	base := Parse(source).BaseSlug
	number := NextNumber(base, existing)
	return Duplicate{
		SourceSlug: source,
		BaseSlug:   base,
		Slug:       fmt.Sprintf("%s-v%d", base, number),
		Number:     number,
		Title:      p.Title(baseTitle(title), number),
	}, nil
}

// Title annotates title as variant number.
func (p Planner) Title(title string, number int) string {
	format := p.TitleFormat
	if strings.TrimSpace(format) == "" {
		format = DefaultTitleFormat
	}
	return fmt.Sprintf(format, strings.TrimSpace(title), number)
}

var titleSuffixPattern = regexp.MustCompile(`\s*\(Variant \d+\)$`)

// baseTitle drops an earlier annotation so duplicates of duplicates do not
// stack suffixes.
func baseTitle(title string) string {
	return titleSuffixPattern.ReplaceAllString(strings.TrimSpace(title), "")
}

// NextSlug is a shorthand for Plan without titles.
func NextSlug(source string, existing []string) string {
	base := Parse(source).BaseSlug
	return fmt.Sprintf("%s-v%d", base, NextNumber(base, existing))
}

// Entry is one row of the page index.
type Entry struct {
	Slug   string `json:"slug"`
	Title  string `json:"title"`
	Status string `json:"status"`
}

// Member is a page within a variant group.
type Member struct {
	Entry
	Number int `json:"number"`
}

// Group is a base page and its numbered variants ordered by number. Base is
// nil when only numbered variants exist in the index.
type Group struct {
	BaseSlug string   `json:"baseSlug"`
	Base     *Member  `json:"base,omitempty"`
	Variants []Member `json:"variants"`
}

// Size counts the pages in the group.
func (g Group) Size() int {
	n := len(g.Variants)
	if g.Base != nil {
		n++
	}
	return n
}

// GroupEntries groups the page index by base slug. Groups are ordered by
// base slug.
func GroupEntries(entries []Entry) []Group {
	groups := map[string]*Group{}
	for _, entry := range entries {
		parsed := Parse(entry.Slug)
		group, ok := groups[parsed.BaseSlug]
		if !ok {
			group = &Group{BaseSlug: parsed.BaseSlug, Variants: []Member{}}
			groups[parsed.BaseSlug] = group
		}
		member := Member{Entry: entry, Number: parsed.Ordinal()}
		if parsed.IsBase() {
			group.Base = &member
			continue
		}
		group.Variants = append(group.Variants, member)
	}

	out := make([]Group, 0, len(groups))
	for _, group := range groups {
		sort.Slice(group.Variants, func(i, j int) bool {
			return group.Variants[i].Number < group.Variants[j].Number
		})
		out = append(out, *group)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BaseSlug < out[j].BaseSlug })
	return out
}

// Find returns the group containing slug.
func Find(groups []Group, slug string) (Group, bool) {
	base := Parse(slug).BaseSlug
	for _, group := range groups {
		if group.BaseSlug == base {
			return group, true
		}
	}
	return Group{}, false
}
