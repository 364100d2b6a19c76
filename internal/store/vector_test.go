package store

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectorIndex_ScoreAll_ReturnsEveryIDInOrder(t *testing.T) {
	// Given: an index with three vectors
	idx := NewVectorIndex(VectorIndexConfig{Dimensions: 3})
	ids := []string{"a", "b", "c"}
	vectors := [][]float32{
		{1, 0, 0},
		{0, 1, 0},
		{-1, 0, 0},
	}
	require.NoError(t, idx.Build(context.Background(), ids, vectors))

	// When: scoring a query equal to the first vector
	results, err := idx.ScoreAll(context.Background(), []float32{2, 0, 0})

	// Then: every identity appears in build order with cosine scores
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "a", results[0].ID)
	assert.Equal(t, "b", results[1].ID)
	assert.Equal(t, "c", results[2].ID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-5)
	assert.InDelta(t, 0.5, results[1].Score, 1e-5)
	assert.InDelta(t, 0.0, results[2].Score, 1e-5)
}

func TestVectorIndex_ScoreAll_Large(t *testing.T) {
	// Given: more vectors than the default search width
	n := 200
	ids := make([]string, n)
	vectors := make([][]float32, n)
	for i := 0; i < n; i++ {
		ids[i] = string(rune('A'+i%26)) + string(rune('0'+i/26))
		angle := float64(i) / float64(n) * math.Pi
		vectors[i] = []float32{float32(math.Cos(angle)), float32(math.Sin(angle)), 0.1}
	}
	idx := NewVectorIndex(VectorIndexConfig{Dimensions: 3})
	require.NoError(t, idx.Build(context.Background(), ids, vectors))

	// When: scoring
	results, err := idx.ScoreAll(context.Background(), []float32{1, 0, 0.1})

	// Then: nothing is dropped
	require.NoError(t, err)
	require.Len(t, results, n)
	for i, r := range results {
		assert.Equal(t, ids[i], r.ID)
	}
	assert.Greater(t, results[0].Score, results[n-1].Score)
}

func TestVectorIndex_DimensionMismatch(t *testing.T) {
	idx := NewVectorIndex(VectorIndexConfig{Dimensions: 3})

	err := idx.Build(context.Background(), []string{"a"}, [][]float32{{1, 2}})
	var dimErr ErrDimensionMismatch
	require.ErrorAs(t, err, &dimErr)
	assert.Equal(t, 3, dimErr.Expected)
	assert.Equal(t, 2, dimErr.Got)

	_, err = idx.ScoreAll(context.Background(), []float32{1})
	assert.ErrorAs(t, err, &dimErr)
}

func TestVectorIndex_MismatchedIDsAndVectors(t *testing.T) {
	idx := NewVectorIndex(VectorIndexConfig{Dimensions: 2})

	err := idx.Build(context.Background(), []string{"a", "b"}, [][]float32{{1, 0}})

	assert.Error(t, err)
}

func TestVectorIndex_MarshalRoundTrip(t *testing.T) {
	// Given: a built index
	idx := NewVectorIndex(VectorIndexConfig{Dimensions: 2})
	require.NoError(t, idx.Build(context.Background(),
		[]string{"x", "y"},
		[][]float32{{1, 0}, {0, 1}}))

	// When: exporting and importing
	data, err := idx.MarshalBinary()
	require.NoError(t, err)

	restored := &VectorIndex{}
	require.NoError(t, restored.UnmarshalBinary(data))

	// Then: the restored index scores identically
	assert.Equal(t, 2, restored.Len())
	assert.Equal(t, 2, restored.Dimensions())
	want, err := idx.ScoreAll(context.Background(), []float32{1, 1})
	require.NoError(t, err)
	got, err := restored.ScoreAll(context.Background(), []float32{1, 1})
	require.NoError(t, err)
	require.Len(t, got, 2)
	for i := range want {
		assert.Equal(t, want[i].ID, got[i].ID)
		assert.InDelta(t, want[i].Score, got[i].Score, 1e-6)
	}
}

func TestVectorIndex_EmptyRoundTrip(t *testing.T) {
	idx := NewVectorIndex(VectorIndexConfig{Dimensions: 4})

	data, err := idx.MarshalBinary()
	require.NoError(t, err)

	restored := &VectorIndex{}
	require.NoError(t, restored.UnmarshalBinary(data))
	assert.Equal(t, 0, restored.Len())

	results, err := restored.ScoreAll(context.Background(), []float32{1, 0, 0, 0})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestVectorIndex_UnmarshalGarbage(t *testing.T) {
	assert.Error(t, (&VectorIndex{}).UnmarshalBinary([]byte("not a gob")))
}

func TestNormalizeVectorInPlace_NormalVector(t *testing.T) {
	v := []float32{3, 4}
	normalizeVectorInPlace(v)
	assert.InDelta(t, 0.6, v[0], 1e-6)
	assert.InDelta(t, 0.8, v[1], 1e-6)
}

func TestNormalizeVectorInPlace_ZeroVector(t *testing.T) {
	v := []float32{0, 0, 0}
	normalizeVectorInPlace(v)
	assert.Equal(t, []float32{0, 0, 0}, v)
}

func TestDistanceToScore(t *testing.T) {
	assert.InDelta(t, 1.0, distanceToScore(0), 1e-6)
	assert.InDelta(t, 0.5, distanceToScore(1), 1e-6)
	assert.InDelta(t, 0.0, distanceToScore(2), 1e-6)
}
