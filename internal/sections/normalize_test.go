package sections

import (
	"encoding/json"
	"errors"
	"testing"
)

func decodeFields(t *testing.T, raw string) *Fields {
	t.Helper()
	fields := NewFields()
	if err := json.Unmarshal([]byte(raw), fields); err != nil {
		t.Fatalf("decode fields: %v", err)
	}
	return fields
}

func TestNormalizeIsIdempotent(t *testing.T) {
	records := []string{
		`{"__typename":"PageSectionsHero","headline":"Hi","subheadline":null,"image":{"__typename":"Img","url":"/a.png","alt":null}}`,
		`{"items":[{"__typename":"Item","title":"A","icon":null},null,"loose"],"title":"T"}`,
		`{"_template":"cta","ctaText":"Go","ctaLink":"/go"}`,
		`{}`,
	}

	for _, raw := range records {
		once := Normalize(decodeFields(t, raw))
		twice := Normalize(once)
		if !once.Equal(twice) {
			a, _ := json.Marshal(once)
			b, _ := json.Marshal(twice)
			t.Fatalf("normalize not idempotent for %s\nonce:  %s\ntwice: %s", raw, a, b)
		}
		assertClean(t, once.Map())
	}
}

func assertClean(t *testing.T, value any) {
	t.Helper()
	switch typed := value.(type) {
	case map[string]any:
		for key, v := range typed {
			if key == DefaultTypeField {
				t.Fatalf("transport key %q survived normalization", key)
			}
			if v == nil {
				t.Fatalf("explicit null survived under %q", key)
			}
			assertClean(t, v)
		}
	case []any:
		for _, v := range typed {
			if v == nil {
				t.Fatal("null list element survived normalization")
			}
			assertClean(t, v)
		}
	}
}

func TestNormalizeKeepsOrderAndInput(t *testing.T) {
	record := decodeFields(t, `{"z":"1","__typename":"X","a":null,"m":"2"}`)
	out := Normalize(record)

	keys := out.Keys()
	if len(keys) != 2 || keys[0] != "z" || keys[1] != "m" {
		t.Fatalf("unexpected keys %v", keys)
	}
	if !record.Has("__typename") || !record.Has("a") {
		t.Fatal("expected input record to be left untouched")
	}
}

func TestResolveTemplate(t *testing.T) {
	resolver := DefaultTemplateResolver()

	cases := []struct {
		name    string
		raw     string
		want    TemplateName
		wantErr bool
	}{
		{name: "explicit tag", raw: `{"_template":"faq","__typename":"PageSectionsHero"}`, want: TemplateFAQ},
		{name: "sections discriminator", raw: `{"__typename":"PageSectionsHero"}`, want: TemplateHero},
		{name: "blocks discriminator", raw: `{"__typename":"PageBlocksPricingTable"}`, want: "pricingTable"},
		{name: "unknown prefix", raw: `{"__typename":"Hero"}`, wantErr: true},
		{name: "bare prefix", raw: `{"__typename":"PageSections"}`, wantErr: true},
		{name: "no tag", raw: `{"headline":"x"}`, wantErr: true},
		{name: "blank tag falls back", raw: `{"_template":"  ","__typename":"PageSectionsCta"}`, want: "cta"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := resolver.Resolve(decodeFields(t, tc.raw))
			if tc.wantErr {
				if !errors.Is(err, ErrMalformedRecord) {
					t.Fatalf("expected ErrMalformedRecord, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestSectionFromRecordStripsTags(t *testing.T) {
	record := decodeFields(t, `{"__typename":"PageSectionsHero","headline":"Hi","ctaText":null}`)

	section, err := DefaultTemplateResolver().SectionFromRecord(record, DefaultNormalizer())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if section.Template != TemplateHero {
		t.Fatalf("expected hero, got %q", section.Template)
	}
	if keys := section.Fields.Keys(); len(keys) != 1 || keys[0] != "headline" {
		t.Fatalf("unexpected fields %v", keys)
	}
}

func TestSectionJSONKeepsTagFirst(t *testing.T) {
	section := NewSection(TemplateCTA, "ctaText", "Start now", "ctaLink", "/quiz")

	encoded, err := json.Marshal(section)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"_template":"cta","ctaText":"Start now","ctaLink":"/quiz"}`
	if string(encoded) != want {
		t.Fatalf("unexpected encoding\nwant: %s\ngot:  %s", want, encoded)
	}

	var decoded Section
	if err := json.Unmarshal([]byte(`{"__typename":"PageSectionsHero","headline":"X","note":null}`), &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Template != TemplateHero || decoded.Fields.Len() != 1 {
		t.Fatalf("unexpected decoded section %+v", decoded)
	}
}
