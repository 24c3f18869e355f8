package memory_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/darbolex/pkg/domain/model"
	"github.com/secmon-lab/darbolex/pkg/repository/memory"
)

func TestCosineSimilarity(t *testing.T) {
	testCases := []struct {
		name string
		a, b []float32
		want float64
	}{
		{name: "identical", a: []float32{0.6, 0.8}, b: []float32{0.6, 0.8}, want: 1},
		{name: "orthogonal", a: []float32{1, 0}, b: []float32{0, 1}, want: 0},
		{name: "opposite is clamped", a: []float32{1, 0}, b: []float32{-1, 0}, want: 0},
		{name: "scale invariant", a: []float32{1, 0}, b: []float32{3, 0}, want: 1},
		{name: "length mismatch", a: []float32{1, 0}, b: []float32{1}, want: 0},
		{name: "zero vector", a: []float32{0, 0}, b: []float32{1, 0}, want: 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := memory.CosineSimilarity(tc.a, tc.b)
			gt.Bool(t, got > tc.want-1e-6 && got < tc.want+1e-6).True()
		})
	}
}

func TestVectorIndexCopies(t *testing.T) {
	idx := memory.New()
	ctx := context.Background()

	v := &model.IndexedVector{
		ID:        "dk-str-1",
		Embedding: []float32{1, 0},
		Metadata:  model.VectorMetadata{DocumentSlug: "dk"},
	}
	gt.NoError(t, idx.Upsert(ctx, []*model.IndexedVector{v})).Required()

	// Mutating the caller's slice must not change the stored record
	v.Embedding[0] = 0

	got, err := idx.Fetch(ctx, []model.VectorID{"dk-str-1"})
	gt.NoError(t, err).Required()
	gt.Value(t, got["dk-str-1"].Embedding[0]).Equal(float32(1))

	got["dk-str-1"].Embedding[1] = 5
	again, err := idx.Fetch(ctx, []model.VectorID{"dk-str-1"})
	gt.NoError(t, err).Required()
	gt.Value(t, again["dk-str-1"].Embedding[1]).Equal(float32(0))
}
