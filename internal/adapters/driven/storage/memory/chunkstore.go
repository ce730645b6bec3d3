package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/ragpipe/internal/core/domain"
	"github.com/custodia-labs/ragpipe/internal/core/ports/driven"
)

// Ensure ChunkStore implements the interface.
var _ driven.ChunkStore = (*ChunkStore)(nil)

// ChunkStore is an in-memory implementation of driven.ChunkStore.
type ChunkStore struct {
	mu     sync.RWMutex
	nextID int64
	chunks map[string][]domain.Chunk // keyed by project ID, kept sorted by chunk ID
}

// NewChunkStore creates a new in-memory chunk store.
func NewChunkStore() *ChunkStore {
	return &ChunkStore{
		nextID: 1,
		chunks: make(map[string][]domain.Chunk),
	}
}

// InsertMany stores chunks, assigning sequential IDs.
func (s *ChunkStore) InsertMany(_ context.Context, chunks []domain.Chunk) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range chunks {
		c.ID = s.nextID
		s.nextID++
		s.chunks[c.ProjectID] = append(s.chunks[c.ProjectID], c)
	}
	return len(chunks), nil
}

// GetPage returns one 1-indexed page ordered by chunk ID ascending.
func (s *ChunkStore) GetPage(_ context.Context, projectID string, pageNo, pageSize int) ([]domain.Chunk, error) {
	if pageNo < 1 || pageSize < 1 {
		return nil, domain.ErrInvalidInput
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.chunks[projectID]
	sorted := make([]domain.Chunk, len(all))
	copy(sorted, all)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	start := (pageNo - 1) * pageSize
	if start >= len(sorted) {
		return []domain.Chunk{}, nil
	}
	end := start + pageSize
	if end > len(sorted) {
		end = len(sorted)
	}
	return sorted[start:end], nil
}

// TotalCount returns the number of chunks stored for a project.
func (s *ChunkStore) TotalCount(_ context.Context, projectID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks[projectID]), nil
}

// DeleteByProject removes all chunks of a project.
func (s *ChunkStore) DeleteByProject(_ context.Context, projectID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.chunks[projectID])
	delete(s.chunks, projectID)
	return n, nil
}
