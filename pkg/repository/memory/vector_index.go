package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/secmon-lab/darbolex/pkg/domain/interfaces"
	"github.com/secmon-lab/darbolex/pkg/domain/model"
)

// DefaultBatchLimit is the per-request item limit reported by the memory index
const DefaultBatchLimit = 1000

// VectorIndex is an in-process VectorIndex for tests and local runs
type VectorIndex struct {
	mu      sync.RWMutex
	vectors map[model.VectorID]*model.IndexedVector
}

var _ interfaces.VectorIndex = &VectorIndex{}

// New creates an empty in-memory vector index
func New() *VectorIndex {
	return &VectorIndex{
		vectors: make(map[model.VectorID]*model.IndexedVector),
	}
}

// copyVector creates a deep copy of an indexed vector
func copyVector(v *model.IndexedVector) *model.IndexedVector {
	copied := &model.IndexedVector{
		ID:       v.ID,
		Metadata: v.Metadata,
	}
	if v.Embedding != nil {
		copied.Embedding = make([]float32, len(v.Embedding))
		copy(copied.Embedding, v.Embedding)
	}
	return copied
}

func (x *VectorIndex) Upsert(ctx context.Context, vectors []*model.IndexedVector) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	for _, v := range vectors {
		x.vectors[v.ID] = copyVector(v)
	}
	return nil
}

func (x *VectorIndex) Query(ctx context.Context, vector []float32, topK int, filter *model.QueryFilter) ([]*model.Match, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	matches := make([]*model.Match, 0, len(x.vectors))
	for _, v := range x.vectors {
		if filter != nil && filter.DocType != "" && v.Metadata.DocType != filter.DocType {
			continue
		}
		matches = append(matches, &model.Match{
			IndexedVector: *copyVector(v),
			Score:         CosineSimilarity(vector, v.Embedding),
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].ID < matches[j].ID
	})

	if topK >= 0 && len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

func (x *VectorIndex) Fetch(ctx context.Context, ids []model.VectorID) (map[model.VectorID]*model.IndexedVector, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	result := make(map[model.VectorID]*model.IndexedVector, len(ids))
	for _, id := range ids {
		if v, ok := x.vectors[id]; ok {
			result[id] = copyVector(v)
		}
	}
	return result, nil
}

func (x *VectorIndex) DeleteMany(ctx context.Context, ids []model.VectorID) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	for _, id := range ids {
		delete(x.vectors, id)
	}
	return nil
}

func (x *VectorIndex) ListIDs(ctx context.Context, slug model.DocumentSlug) ([]model.VectorID, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	var ids []model.VectorID
	for id, v := range x.vectors {
		if v.Metadata.DocumentSlug == slug {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (x *VectorIndex) BatchLimit() int {
	return DefaultBatchLimit
}

func (x *VectorIndex) Close() error {
	return nil
}

// CosineSimilarity returns the cosine of the angle between a and b, clamped to [0,1].
// Vectors of different length or zero norm score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}

	return clampScore(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}

func clampScore(s float64) float64 {
	switch {
	case s < 0:
		return 0
	case s > 1:
		return 1
	}
	return s
}
