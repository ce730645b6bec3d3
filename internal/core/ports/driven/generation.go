package driven

import (
	"context"

	"github.com/custodia-labs/ragpipe/internal/core/domain"
)

// GenerationService produces text completions for RAG answers.
//
// Implementations may include:
//   - OpenAI (gpt-4o, gpt-4o-mini)
//   - Cohere (command-r)
//   - Ollama (local models)
type GenerationService interface {
	// Generate produces a completion for the prompt, conditioned on the
	// prior chat history.
	Generate(ctx context.Context, prompt string, history []domain.ChatMessage, opts GenerateOptions) (string, error)

	// MaxInputLength returns the maximum number of characters of input
	// text the service accepts; callers truncate to this length.
	MaxInputLength() int

	// ModelName returns the name of the generation model being used.
	ModelName() string

	// SetModel switches the generation model.
	SetModel(model string)

	// Ping validates the service is reachable with a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64
}
