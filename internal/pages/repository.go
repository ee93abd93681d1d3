package pages

import "context"

// Repository persists page documents keyed by slug. Implementations return
// copies; callers may mutate what they receive.
//
// Update writes doc only while the stored version still equals expected and
// returns a *VersionConflictError otherwise. The comparison and the write are
// one step. An expected version of zero writes unconditionally.
type Repository interface {
	Get(ctx context.Context, slug string) (*Document, error)
	List(ctx context.Context) ([]*Document, error)
	Create(ctx context.Context, doc *Document) (*Document, error)
	Update(ctx context.Context, doc *Document, expected int) (*Document, error)
	Delete(ctx context.Context, slug string) error
}
