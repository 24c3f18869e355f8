package interfaces

import (
	"context"

	"github.com/secmon-lab/darbolex/pkg/domain/model"
)

// VectorIndex is the remote store of (id, embedding, metadata) triples
type VectorIndex interface {
	// Upsert writes vectors by ID, replacing any existing record with the same ID
	Upsert(ctx context.Context, vectors []*model.IndexedVector) error

	// Query returns up to topK nearest neighbours of vector ordered by descending score.
	// filter may be nil.
	Query(ctx context.Context, vector []float32, topK int, filter *model.QueryFilter) ([]*model.Match, error)

	// Fetch returns the records that exist among ids. Missing IDs are absent from the map.
	Fetch(ctx context.Context, ids []model.VectorID) (map[model.VectorID]*model.IndexedVector, error)

	// DeleteMany removes ids. Unknown IDs are ignored.
	DeleteMany(ctx context.Context, ids []model.VectorID) error

	// ListIDs returns every ID derived from the document
	ListIDs(ctx context.Context, slug model.DocumentSlug) ([]model.VectorID, error)

	// BatchLimit is the maximum number of items the backend accepts per request
	BatchLimit() int

	Close() error
}
