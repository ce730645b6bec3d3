package driven

import (
	"context"

	"github.com/custodia-labs/ragpipe/internal/core/domain"
)

// ChunkStore provides paginated access to stored chunks. Chunk
// production (splitting documents) happens upstream; the pipeline only
// reads pages here.
type ChunkStore interface {
	// GetPage returns one 1-indexed page of a project's chunks ordered
	// by chunk ID ascending. An empty page signals exhaustion.
	GetPage(ctx context.Context, projectID string, pageNo, pageSize int) ([]domain.Chunk, error)

	// TotalCount returns the number of chunks stored for a project.
	TotalCount(ctx context.Context, projectID string) (int, error)

	// InsertMany stores chunks for a project and returns the number
	// inserted. IDs are assigned by the store.
	InsertMany(ctx context.Context, chunks []domain.Chunk) (int, error)

	// DeleteByProject removes all chunks of a project, returning the
	// number deleted.
	DeleteByProject(ctx context.Context, projectID string) (int, error)
}

// ProjectStore provides project lookup.
type ProjectStore interface {
	// GetOrCreate returns the project with the given ID, creating the
	// record if it does not exist yet.
	GetOrCreate(ctx context.Context, projectID string) (*domain.Project, error)

	// List returns all known projects.
	List(ctx context.Context) ([]domain.Project, error)
}
