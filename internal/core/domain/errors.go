package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrCollectionNotFound indicates a vector collection does not exist
	// when the operation requires it. Distinct from an empty search
	// result, which is a legitimate outcome.
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrInvalidInput indicates malformed or invalid input, e.g.
	// mismatched lengths between texts, vectors, metadata and record
	// IDs, or a vector whose dimensionality does not match its
	// collection.
	ErrInvalidInput = errors.New("invalid input")

	// ErrProviderFailure indicates an embedding, generation or vector
	// store backend call failed or returned a malformed response.
	ErrProviderFailure = errors.New("provider failure")

	// ErrTransient indicates a network or broker-level failure that is
	// eligible for a bounded number of automatic retries at the job
	// dispatch boundary, never inside a pipeline run.
	ErrTransient = errors.New("transient failure")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrGenerationUnavailable indicates the generation service is not configured.
	ErrGenerationUnavailable = errors.New("generation service unavailable")

	// ErrVectorStoreUnavailable indicates the vector store is not configured.
	ErrVectorStoreUnavailable = errors.New("vector store unavailable")

	// ErrJobQueueFull indicates the dispatcher queue cannot accept more jobs.
	ErrJobQueueFull = errors.New("job queue full")

	// ErrDispatcherStopped indicates the dispatcher is shut down.
	ErrDispatcherStopped = errors.New("dispatcher stopped")
)
