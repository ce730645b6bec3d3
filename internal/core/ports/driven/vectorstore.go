package driven

import (
	"context"

	"github.com/custodia-labs/ragpipe/internal/core/domain"
)

// VectorStore abstracts a vector database: collection lifecycle, vector
// upserts and similarity search. One collection holds the vectors of
// exactly one project.
//
// All operations may fail with domain.ErrProviderFailure on transport
// or backend errors. A search against a missing collection fails with
// domain.ErrCollectionNotFound; an empty result list is a distinct,
// legitimate outcome.
type VectorStore interface {
	// Connect establishes the backend connection. Idempotent; safe to
	// call on an already-connected store.
	Connect(ctx context.Context) error

	// Disconnect releases the connection. Must succeed even if Connect
	// was never called or failed, so shutdown paths can call it
	// unconditionally.
	Disconnect() error

	// ListCollections returns all collection names.
	ListCollections(ctx context.Context) ([]string, error)

	// CollectionExists reports whether the named collection exists.
	CollectionExists(ctx context.Context, name string) (bool, error)

	// CollectionInfo returns metadata for a collection, or
	// domain.ErrCollectionNotFound if it does not exist.
	CollectionInfo(ctx context.Context, name string) (*domain.CollectionInfo, error)

	// CreateCollection ensures the named collection exists with the
	// given dimensionality. An existing collection with doReset=false
	// is reused as-is and the call is a successful no-op. With
	// doReset=true any existing collection is dropped and recreated
	// empty.
	CreateCollection(ctx context.Context, name string, vectorSize int, doReset bool) error

	// DeleteCollection drops the named collection. Deleting a missing
	// collection is not an error.
	DeleteCollection(ctx context.Context, name string) error

	// InsertMany upserts a page of records. texts, vectors, metadata
	// and recordIDs must be equal length and index-aligned, otherwise
	// the call fails with domain.ErrInvalidInput. Re-inserting an
	// existing record ID overwrites the stored record, never
	// duplicates it; this is what makes retried jobs idempotent.
	InsertMany(ctx context.Context, collection string, texts []string, vectors [][]float32, metadata []map[string]any, recordIDs []int64) error

	// SearchByVector returns up to limit documents ordered by
	// non-increasing similarity.
	SearchByVector(ctx context.Context, collection string, vector []float32, limit int) ([]domain.RetrievedDocument, error)
}
