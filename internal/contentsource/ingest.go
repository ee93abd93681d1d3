package contentsource

import (
	"context"

	"github.com/goliatone/go-pagekit/internal/pages"
)

// Ingest stores a decoded page, creating it or overwriting the stored copy.
func Ingest(ctx context.Context, svc pages.Service, result *Result) (*pages.Document, error) {
	doc := result.Document.Clone()
	if _, err := svc.Get(ctx, doc.Slug); err != nil {
		if !pages.IsNotFound(err) {
			return nil, err
		}
		return svc.Create(ctx, doc)
	}
	doc.Version = 0
	return svc.Put(ctx, doc.Slug, doc)
}
