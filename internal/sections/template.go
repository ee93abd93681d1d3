package sections

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// TemplateName identifies the renderer that applies to a section.
type TemplateName string

// Built-in templates.
const (
	TemplateHero         TemplateName = "hero"
	TemplateFeatures     TemplateName = "features"
	TemplateCTA          TemplateName = "cta"
	TemplateTestimonials TemplateName = "testimonials"
	TemplateFAQ          TemplateName = "faq"
	TemplatePricing      TemplateName = "pricing"
	TemplateRichText     TemplateName = "richtext"
	TemplateGallery      TemplateName = "gallery"
)

// BuiltinTemplates lists the built-in templates in catalog order.
func BuiltinTemplates() []TemplateName {
	return []TemplateName{
		TemplateHero,
		TemplateFeatures,
		TemplateCTA,
		TemplateTestimonials,
		TemplateFAQ,
		TemplatePricing,
		TemplateRichText,
		TemplateGallery,
	}
}

func (t TemplateName) String() string { return string(t) }

// Valid reports whether the name is non-empty.
func (t TemplateName) Valid() bool { return strings.TrimSpace(string(t)) != "" }

const (
	// DefaultTagField carries an explicit template identifier on a record.
	DefaultTagField = "_template"
)

// DefaultDiscriminatorPrefixes are the collection prefixes stripped from type
// discriminators, e.g. PageSectionsHero -> hero.
var DefaultDiscriminatorPrefixes = []string{"PageSections", "PageBlocks"}

// TemplateResolver derives a template identifier from a raw record. It is
// applied once at the ingestion boundary; rendering only sees resolved names.
type TemplateResolver struct {
	TagField  string
	TypeField string
	Prefixes  []string
}

// DefaultTemplateResolver returns a resolver using the default keys and prefixes.
func DefaultTemplateResolver() TemplateResolver {
	return TemplateResolver{
		TagField:  DefaultTagField,
		TypeField: DefaultTypeField,
		Prefixes:  append([]string(nil), DefaultDiscriminatorPrefixes...),
	}
}

func (r TemplateResolver) tagField() string {
	if strings.TrimSpace(r.TagField) == "" {
		return DefaultTagField
	}
	return r.TagField
}

func (r TemplateResolver) typeField() string {
	if strings.TrimSpace(r.TypeField) == "" {
		return DefaultTypeField
	}
	return r.TypeField
}

// Resolve returns the template for record. An explicit tag wins; otherwise
// the discriminator is stripped of a known prefix and its first remaining
// character lowercased.
func (r TemplateResolver) Resolve(record *Fields) (TemplateName, error) {
	if tag := strings.TrimSpace(record.String(r.tagField())); tag != "" {
		return TemplateName(tag), nil
	}
	discriminator := strings.TrimSpace(record.String(r.typeField()))
	if discriminator == "" {
		return "", &MalformedRecordError{Reason: "missing template tag and type discriminator"}
	}
	name, ok := r.FromDiscriminator(discriminator)
	if !ok {
		return "", &MalformedRecordError{Reason: fmt.Sprintf("unrecognised type discriminator %q", discriminator)}
	}
	return name, nil
}

// FromDiscriminator converts a discriminator such as PageSectionsHero.
func (r TemplateResolver) FromDiscriminator(discriminator string) (TemplateName, bool) {
	prefixes := r.Prefixes
	if len(prefixes) == 0 {
		prefixes = DefaultDiscriminatorPrefixes
	}
	for _, prefix := range prefixes {
		prefix = strings.TrimSpace(prefix)
		if prefix == "" || !strings.HasPrefix(discriminator, prefix) {
			continue
		}
		rest := strings.TrimPrefix(discriminator, prefix)
		if rest == "" {
			return "", false
		}
		first, size := utf8.DecodeRuneInString(rest)
		return TemplateName(string(unicode.ToLower(first)) + rest[size:]), true
	}
	return "", false
}

// SectionFromRecord resolves and normalizes a raw content-source record. When
// the template cannot be resolved the section keeps its position with an empty
// template so that sibling addressing is unaffected, and keeps its raw type
// discriminator as the first field so later diagnostics can name it.
func (r TemplateResolver) SectionFromRecord(record *Fields, normalizer Normalizer) (Section, error) {
	name, err := r.Resolve(record)
	fields := normalizer.Normalize(record)
	fields.Delete(r.tagField())
	fields.Delete(r.typeField())
	if err != nil {
		if discriminator := strings.TrimSpace(record.String(r.typeField())); discriminator != "" {
			kept := NewFields()
			kept.Set(r.typeField(), discriminator)
			fields.Each(func(key string, value any) bool {
				kept.Set(key, value)
				return true
			})
			fields = kept
		}
	}
	return Section{Template: name, Fields: fields}, err
}

// Unresolved describes why a section without a template could not resolve.
func (r TemplateResolver) Unresolved(section Section) string {
	if discriminator := strings.TrimSpace(section.Fields.String(r.typeField())); discriminator != "" {
		return fmt.Sprintf("unrecognised type discriminator %q", discriminator)
	}
	return "missing template"
}
