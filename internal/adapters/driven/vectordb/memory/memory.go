// Package memory provides an in-process vector store. It implements
// the full driven.VectorStore contract with cosine similarity and is
// used for tests and local runs without a Qdrant server.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/custodia-labs/ragpipe/internal/core/domain"
	"github.com/custodia-labs/ragpipe/internal/core/ports/driven"
)

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

// record is one stored vector with its payload.
type record struct {
	text     string
	vector   []float32
	metadata map[string]any
}

// collection holds fixed-dimensionality vectors keyed by record ID.
type collection struct {
	vectorSize int
	records    map[int64]record
}

// VectorStore is an in-memory implementation of driven.VectorStore.
type VectorStore struct {
	mu          sync.RWMutex
	collections map[string]*collection
}

// New creates an empty in-memory vector store.
func New() *VectorStore {
	return &VectorStore{
		collections: make(map[string]*collection),
	}
}

// Connect is a no-op; the store lives in process memory.
func (s *VectorStore) Connect(_ context.Context) error { return nil }

// Disconnect is a no-op and always safe.
func (s *VectorStore) Disconnect() error { return nil }

// ListCollections returns all collection names sorted.
func (s *VectorStore) ListCollections(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.collections))
	for name := range s.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// CollectionExists reports whether the named collection exists.
func (s *VectorStore) CollectionExists(_ context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.collections[name]
	return ok, nil
}

// CollectionInfo returns metadata for a collection.
func (s *VectorStore) CollectionInfo(_ context.Context, name string) (*domain.CollectionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	col, ok := s.collections[name]
	if !ok {
		return nil, fmt.Errorf("collection %q: %w", name, domain.ErrCollectionNotFound)
	}
	return &domain.CollectionInfo{
		Name:       name,
		VectorSize: col.vectorSize,
		Distance:   "Cosine",
		PointCount: len(col.records),
	}, nil
}

// CreateCollection ensures the collection exists. An existing
// collection is reused untouched unless doReset is set, in which case
// it is dropped and recreated empty with the requested size.
func (s *VectorStore) CreateCollection(_ context.Context, name string, vectorSize int, doReset bool) error {
	if vectorSize <= 0 {
		return fmt.Errorf("vector size %d: %w", vectorSize, domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.collections[name]; ok && !doReset {
		return nil
	}
	s.collections[name] = &collection{
		vectorSize: vectorSize,
		records:    make(map[int64]record),
	}
	return nil
}

// DeleteCollection drops the collection. Missing collections are ignored.
func (s *VectorStore) DeleteCollection(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collections, name)
	return nil
}

// InsertMany upserts a page of records keyed by record ID.
func (s *VectorStore) InsertMany(_ context.Context, name string, texts []string, vectors [][]float32, metadata []map[string]any, recordIDs []int64) error {
	n := len(texts)
	if len(vectors) != n || len(metadata) != n || len(recordIDs) != n {
		return fmt.Errorf("texts/vectors/metadata/ids lengths %d/%d/%d/%d: %w",
			n, len(vectors), len(metadata), len(recordIDs), domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	col, ok := s.collections[name]
	if !ok {
		return fmt.Errorf("collection %q: %w", name, domain.ErrCollectionNotFound)
	}

	for i := range texts {
		if len(vectors[i]) != col.vectorSize {
			return fmt.Errorf("vector %d has %d dimensions, collection %q expects %d: %w",
				i, len(vectors[i]), name, col.vectorSize, domain.ErrInvalidInput)
		}
	}

	for i := range texts {
		vec := make([]float32, len(vectors[i]))
		copy(vec, vectors[i])
		col.records[recordIDs[i]] = record{
			text:     texts[i],
			vector:   vec,
			metadata: metadata[i],
		}
	}
	return nil
}

// SearchByVector returns up to limit records ordered by non-increasing
// cosine similarity.
func (s *VectorStore) SearchByVector(_ context.Context, name string, vector []float32, limit int) ([]domain.RetrievedDocument, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit %d: %w", limit, domain.ErrInvalidInput)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	col, ok := s.collections[name]
	if !ok {
		return nil, fmt.Errorf("collection %q: %w", name, domain.ErrCollectionNotFound)
	}
	if len(vector) != col.vectorSize {
		return nil, fmt.Errorf("query vector has %d dimensions, collection %q expects %d: %w",
			len(vector), name, col.vectorSize, domain.ErrInvalidInput)
	}

	docs := make([]domain.RetrievedDocument, 0, len(col.records))
	for _, rec := range col.records {
		docs = append(docs, domain.RetrievedDocument{
			Text:     rec.text,
			Score:    cosineSimilarity(vector, rec.vector),
			Metadata: rec.metadata,
		})
	}

	sort.SliceStable(docs, func(i, j int) bool { return docs[i].Score > docs[j].Score })
	if len(docs) > limit {
		docs = docs[:limit]
	}
	return docs, nil
}

// cosineSimilarity computes the cosine of the angle between two
// equal-length vectors. Zero vectors score zero.
func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
