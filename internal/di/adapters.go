package di

import (
	"context"
	"sort"

	"github.com/goliatone/go-pagekit/internal/blocks"
	"github.com/goliatone/go-pagekit/internal/pages"
)

// pageIndex exposes stored pages to block usage queries in slug order.
func pageIndex(svc pages.Service) blocks.PageIndex {
	return blocks.PageIndexFunc(func(ctx context.Context) ([]blocks.PageSections, error) {
		templates, err := pages.SectionTemplates(ctx, svc)
		if err != nil {
			return nil, err
		}
		out := make([]blocks.PageSections, 0, len(templates))
		for slug, list := range templates {
			out = append(out, blocks.PageSections{Slug: slug, Templates: list})
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
		return out, nil
	})
}
