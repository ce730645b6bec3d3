package driven

import (
	"context"

	"github.com/custodia-labs/ragpipe/internal/core/domain"
)

// EmbeddingService generates vector embeddings from text.
//
// Implementations may include:
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
//   - Cohere (embed-multilingual-v3.0)
//   - Ollama (nomic-embed-text, all-minilm)
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text. The mode
	// distinguishes document indexing from query embedding; providers
	// that support input-type hints pass it through.
	Embed(ctx context.Context, text string, mode domain.InputMode) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts, index-aligned
	// with the input. More efficient than calling Embed in a loop where
	// the provider has a batch API.
	EmbedBatch(ctx context.Context, texts []string, mode domain.InputMode) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 768, 1536).
	// This must match the collection dimensionality in the vector store.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// SetModel switches the embedding model and records its vector size
	// for later dimensionality checks.
	SetModel(model string, dimensions int)

	// Ping validates the service is reachable with a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
