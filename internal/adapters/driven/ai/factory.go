// Package ai provides factory functions for creating AI service and
// vector store adapters from configuration.
package ai

import (
	"context"
	"fmt"
	"time"

	cohereembed "github.com/custodia-labs/ragpipe/internal/adapters/driven/embedding/cohere"
	ollamaembed "github.com/custodia-labs/ragpipe/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/ragpipe/internal/adapters/driven/embedding/openai"
	coherellm "github.com/custodia-labs/ragpipe/internal/adapters/driven/llm/cohere"
	ollamallm "github.com/custodia-labs/ragpipe/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/ragpipe/internal/adapters/driven/llm/openai"
	memoryvec "github.com/custodia-labs/ragpipe/internal/adapters/driven/vectordb/memory"
	"github.com/custodia-labs/ragpipe/internal/adapters/driven/vectordb/qdrant"
	"github.com/custodia-labs/ragpipe/internal/core/domain"
	"github.com/custodia-labs/ragpipe/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// CreateEmbeddingService creates the embedding service selected by the
// settings. An unknown or unconfigured provider is a hard error: the
// indexing and retrieval paths cannot run without embeddings.
func CreateEmbeddingService(settings domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if !settings.Provider.IsValid() {
		return nil, fmt.Errorf("%w: unsupported embedding provider: %q", domain.ErrInvalidInput, settings.Provider)
	}
	if !settings.IsConfigured() {
		return nil, fmt.Errorf("%w: embedding provider %s is missing an API key", domain.ErrEmbeddingUnavailable, settings.Provider)
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: settings.Dimensions,
		}), nil

	case domain.AIProviderOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:            settings.APIKey,
			BaseURL:           settings.BaseURL,
			Model:             settings.Model,
			Dimensions:        settings.Dimensions,
			RequestsPerSecond: settings.RequestsPerSecond,
		})

	case domain.AIProviderCohere:
		return cohereembed.NewEmbeddingService(cohereembed.Config{
			APIKey:            settings.APIKey,
			BaseURL:           settings.BaseURL,
			Model:             settings.Model,
			Dimensions:        settings.Dimensions,
			RequestsPerSecond: settings.RequestsPerSecond,
		})

	default:
		return nil, fmt.Errorf("%w: unsupported embedding provider: %q", domain.ErrInvalidInput, settings.Provider)
	}
}

// CreateGenerationService creates the generation service selected by
// the settings.
func CreateGenerationService(settings domain.GenerationSettings) (driven.GenerationService, error) {
	if !settings.Provider.IsValid() {
		return nil, fmt.Errorf("%w: unsupported generation provider: %q", domain.ErrInvalidInput, settings.Provider)
	}
	if !settings.IsConfigured() {
		return nil, fmt.Errorf("%w: generation provider %s is missing an API key", domain.ErrGenerationUnavailable, settings.Provider)
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewGenerationService(ollamallm.Config{
			BaseURL:         settings.BaseURL,
			Model:           settings.Model,
			MaxInputChars:   settings.MaxInputChars,
			MaxOutputTokens: settings.MaxOutputTokens,
			Temperature:     settings.Temperature,
		}), nil

	case domain.AIProviderOpenAI:
		return openaillm.NewGenerationService(openaillm.Config{
			APIKey:          settings.APIKey,
			BaseURL:         settings.BaseURL,
			Model:           settings.Model,
			MaxInputChars:   settings.MaxInputChars,
			MaxOutputTokens: settings.MaxOutputTokens,
			Temperature:     settings.Temperature,
		})

	case domain.AIProviderCohere:
		return coherellm.NewGenerationService(coherellm.Config{
			APIKey:          settings.APIKey,
			BaseURL:         settings.BaseURL,
			Model:           settings.Model,
			MaxInputChars:   settings.MaxInputChars,
			MaxOutputTokens: settings.MaxOutputTokens,
			Temperature:     settings.Temperature,
		})

	default:
		return nil, fmt.Errorf("%w: unsupported generation provider: %q", domain.ErrInvalidInput, settings.Provider)
	}
}

// CreateVectorStore creates the vector store selected by the settings.
func CreateVectorStore(settings domain.VectorStoreSettings) (driven.VectorStore, error) {
	switch settings.Backend {
	case domain.VectorBackendQdrant:
		return qdrant.New(qdrant.Config{
			URL:      settings.URL,
			APIKey:   settings.APIKey,
			Distance: settings.Distance,
			Timeout:  settings.Timeout,
		}), nil

	case domain.VectorBackendMemory:
		return memoryvec.New(), nil

	default:
		return nil, fmt.Errorf("%w: unsupported vector store backend: %q", domain.ErrInvalidInput, settings.Backend)
	}
}

// CreateAndValidateEmbeddingService creates an embedding service and
// validates connectivity with a short ping.
func CreateAndValidateEmbeddingService(settings domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable: %w", domain.ErrEmbeddingUnavailable, err)
	}
	return svc, nil
}

// CreateAndValidateGenerationService creates a generation service and
// validates connectivity with a short ping.
func CreateAndValidateGenerationService(settings domain.GenerationSettings) (driven.GenerationService, error) {
	svc, err := CreateGenerationService(settings)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable: %w", domain.ErrGenerationUnavailable, err)
	}
	return svc, nil
}
