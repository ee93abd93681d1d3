package blocks

import "github.com/goliatone/go-pagekit/internal/sections"

// DefaultDefinitions returns one gallery block per built-in template, each
// with believable sample data.
func DefaultDefinitions() []Definition {
	return []Definition{
		{
			ID:          "hero-split",
			Name:        "Hero",
			Category:    "headers",
			Description: "Headline, supporting copy, image and two calls to action.",
			Template:    sections.TemplateHero,
			Variants:    []string{"centered", "split"},
			Preview: sections.FieldsOf(
				"headline", "Find the plan that fits",
				"subheadline", "Answer three questions and get a tailored recommendation.",
				"image", "/static/img/hero.jpg",
				"imageAlt", "Person reading on a sofa",
				"ctaText", "Start now",
				"ctaLink", "/quiz",
				"secondaryCtaText", "See pricing",
				"secondaryCtaLink", "#pricing",
			),
		},
		{
			ID:       "feature-grid",
			Name:     "Feature grid",
			Category: "content",
			Template: sections.TemplateFeatures,
			Preview: sections.FieldsOf(
				"title", "Why teams switch",
				"items", []any{
					map[string]any{"title": "Fast setup", "description": "Live in an afternoon."},
					map[string]any{"title": "No lock-in", "description": "Export everything, any time."},
					map[string]any{"title": "Real support", "description": "Humans answer within the hour."},
				},
			),
		},
		{
			ID:       "cta-banner",
			Name:     "Call to action",
			Category: "conversion",
			Template: sections.TemplateCTA,
			Preview: sections.FieldsOf(
				"title", "Ready when you are",
				"description", "Try it free for fourteen days.",
				"ctaText", "Create account",
				"ctaLink", "/signup",
			),
		},
		{
			ID:       "testimonials",
			Name:     "Testimonials",
			Category: "social-proof",
			Template: sections.TemplateTestimonials,
			Preview: sections.FieldsOf(
				"title", "What customers say",
				"items", []any{
					map[string]any{"quote": "We cut onboarding time in half.", "author": "Dana, Ops lead"},
					map[string]any{"quote": "The editor is a joy to use.", "author": "Sam, Marketing"},
				},
			),
		},
		{
			ID:       "faq",
			Name:     "FAQ",
			Category: "content",
			Template: sections.TemplateFAQ,
			Preview: sections.FieldsOf(
				"title", "Questions",
				"items", []any{
					map[string]any{"question": "Can I cancel?", "answer": "Yes, at any time from settings."},
					map[string]any{"question": "Is there a free plan?", "answer": "The starter plan is free forever."},
				},
			),
		},
		{
			ID:       "pricing-table",
			Name:     "Pricing table",
			Category: "conversion",
			Template: sections.TemplatePricing,
			Variants: []string{"two-column", "three-column"},
			Preview: sections.FieldsOf(
				"title", "Simple pricing",
				"plans", []any{
					map[string]any{"name": "Starter", "price": "$0", "period": "/month", "features": []any{"1 site", "Community help"}, "ctaText": "Choose Starter", "ctaLink": "/signup?plan=starter"},
					map[string]any{"name": "Pro", "price": "$29", "period": "/month", "features": []any{"10 sites", "Priority help"}, "ctaText": "Choose Pro", "ctaLink": "/signup?plan=pro", "highlighted": true},
				},
			),
		},
		{
			ID:       "rich-text",
			Name:     "Rich text",
			Category: "content",
			Template: sections.TemplateRichText,
			Preview: sections.FieldsOf(
				"title", "Our story",
				"body", "We started with **one idea**: pages should be easy to change.\n\n- Write\n- Preview\n- Publish",
			),
		},
		{
			ID:       "gallery",
			Name:     "Gallery",
			Category: "media",
			Template: sections.TemplateGallery,
			Preview: sections.FieldsOf(
				"title", "In the wild",
				"images", []any{
					map[string]any{"src": "/static/img/g1.jpg", "alt": "Team at work", "caption": "Launch day"},
					map[string]any{"src": "/static/img/g2.jpg", "alt": "Product close-up"},
				},
			),
		},
	}
}

// NewDefaultCatalog returns the catalog of DefaultDefinitions.
func NewDefaultCatalog() (*Catalog, error) {
	return NewCatalog(DefaultDefinitions()...)
}
