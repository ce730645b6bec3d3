package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragpipe/internal/core/domain"
)

func newCollection(t *testing.T) *VectorStore {
	t.Helper()
	store := New()
	require.NoError(t, store.CreateCollection(context.Background(), "col", 3, false))
	return store
}

func TestVectorStore_CreateCollection_ReusesExisting(t *testing.T) {
	store := newCollection(t)
	ctx := context.Background()

	require.NoError(t, store.InsertMany(ctx, "col",
		[]string{"doc"}, [][]float32{{1, 0, 0}}, []map[string]any{nil}, []int64{1}))

	// Creating again without reset keeps the data.
	require.NoError(t, store.CreateCollection(ctx, "col", 3, false))
	info, err := store.CollectionInfo(ctx, "col")
	require.NoError(t, err)
	assert.Equal(t, 1, info.PointCount)

	// With reset the collection comes back empty.
	require.NoError(t, store.CreateCollection(ctx, "col", 3, true))
	info, err = store.CollectionInfo(ctx, "col")
	require.NoError(t, err)
	assert.Equal(t, 0, info.PointCount)
}

func TestVectorStore_CreateCollection_InvalidSize(t *testing.T) {
	store := New()
	err := store.CreateCollection(context.Background(), "col", 0, false)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestVectorStore_InsertMany_UpsertsByID(t *testing.T) {
	store := newCollection(t)
	ctx := context.Background()

	require.NoError(t, store.InsertMany(ctx, "col",
		[]string{"first"}, [][]float32{{1, 0, 0}}, []map[string]any{nil}, []int64{7}))
	require.NoError(t, store.InsertMany(ctx, "col",
		[]string{"second"}, [][]float32{{1, 0, 0}}, []map[string]any{nil}, []int64{7}))

	info, err := store.CollectionInfo(ctx, "col")
	require.NoError(t, err)
	assert.Equal(t, 1, info.PointCount, "same record ID must overwrite, not duplicate")

	docs, err := store.SearchByVector(ctx, "col", []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "second", docs[0].Text)
}

func TestVectorStore_InsertMany_LengthMismatch(t *testing.T) {
	store := newCollection(t)

	err := store.InsertMany(context.Background(), "col",
		[]string{"a", "b"}, [][]float32{{1, 0, 0}}, []map[string]any{nil, nil}, []int64{1, 2})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestVectorStore_InsertMany_DimensionMismatch(t *testing.T) {
	store := newCollection(t)

	err := store.InsertMany(context.Background(), "col",
		[]string{"a"}, [][]float32{{1, 0}}, []map[string]any{nil}, []int64{1})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestVectorStore_InsertMany_MissingCollection(t *testing.T) {
	store := New()

	err := store.InsertMany(context.Background(), "ghost",
		[]string{"a"}, [][]float32{{1, 0, 0}}, []map[string]any{nil}, []int64{1})
	assert.ErrorIs(t, err, domain.ErrCollectionNotFound)
}

func TestVectorStore_SearchByVector_OrdersByScore(t *testing.T) {
	store := newCollection(t)
	ctx := context.Background()

	require.NoError(t, store.InsertMany(ctx, "col",
		[]string{"aligned", "opposite", "orthogonal"},
		[][]float32{{1, 0, 0}, {-1, 0, 0}, {0, 1, 0}},
		[]map[string]any{nil, nil, nil},
		[]int64{1, 2, 3}))

	docs, err := store.SearchByVector(ctx, "col", []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	require.Len(t, docs, 3)

	assert.Equal(t, "aligned", docs[0].Text)
	assert.Equal(t, "orthogonal", docs[1].Text)
	assert.Equal(t, "opposite", docs[2].Text)
	assert.InDelta(t, 1.0, docs[0].Score, 1e-6)
	assert.InDelta(t, 0.0, docs[1].Score, 1e-6)
	assert.InDelta(t, -1.0, docs[2].Score, 1e-6)
}

func TestVectorStore_SearchByVector_AppliesLimit(t *testing.T) {
	store := newCollection(t)
	ctx := context.Background()

	require.NoError(t, store.InsertMany(ctx, "col",
		[]string{"a", "b", "c"},
		[][]float32{{1, 0, 0}, {0.9, 0.1, 0}, {0, 1, 0}},
		[]map[string]any{nil, nil, nil},
		[]int64{1, 2, 3}))

	docs, err := store.SearchByVector(ctx, "col", []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestVectorStore_SearchByVector_MissingCollection(t *testing.T) {
	store := New()

	_, err := store.SearchByVector(context.Background(), "ghost", []float32{1, 0, 0}, 5)
	assert.ErrorIs(t, err, domain.ErrCollectionNotFound)
}

func TestVectorStore_SearchByVector_EmptyCollection(t *testing.T) {
	store := newCollection(t)

	docs, err := store.SearchByVector(context.Background(), "col", []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, docs, "empty result is a legitimate outcome, not an error")
}

func TestVectorStore_DeleteCollection(t *testing.T) {
	store := newCollection(t)
	ctx := context.Background()

	require.NoError(t, store.DeleteCollection(ctx, "col"))
	exists, err := store.CollectionExists(ctx, "col")
	require.NoError(t, err)
	assert.False(t, exists)

	// Deleting a missing collection is fine.
	require.NoError(t, store.DeleteCollection(ctx, "col"))
}

func TestVectorStore_ListCollections(t *testing.T) {
	store := New()
	ctx := context.Background()

	require.NoError(t, store.CreateCollection(ctx, "collection_b", 3, false))
	require.NoError(t, store.CreateCollection(ctx, "collection_a", 3, false))

	names, err := store.ListCollections(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"collection_a", "collection_b"}, names)
}
