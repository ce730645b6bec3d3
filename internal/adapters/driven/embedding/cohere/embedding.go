// Package cohere provides an embedding service adapter using the
// Cohere API. Cohere distinguishes document and query embeddings via
// the input_type field, so the caller's input mode is passed through.
package cohere

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/ragpipe/internal/core/domain"
	"github.com/custodia-labs/ragpipe/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.cohere.com/v2"
	DefaultModel   = "embed-multilingual-v3.0"
	DefaultTimeout = 60 * time.Second

	// DefaultRequestsPerSecond throttles API calls proactively.
	DefaultRequestsPerSecond = 5

	// DefaultDimensions matches embed-multilingual-v3.0.
	DefaultDimensions = 1024
)

// Cohere input_type values.
const (
	inputTypeSearchDocument = "search_document"
	inputTypeSearchQuery    = "search_query"
)

// Config holds configuration for the Cohere embedding service.
type Config struct {
	// APIKey is the Cohere API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.cohere.com/v2).
	BaseURL string

	// Model is the embedding model to use (default: embed-multilingual-v3.0).
	Model string

	// Timeout is the request timeout (default: 60s).
	Timeout time.Duration

	// Dimensions is the embedding vector size (model-dependent).
	Dimensions int

	// RequestsPerSecond throttles API calls (default: 5).
	RequestsPerSecond float64
}

// EmbeddingService generates embeddings using the Cohere API.
type EmbeddingService struct {
	client  *http.Client
	baseURL string
	apiKey  string
	limiter *rate.Limiter

	mu         sync.RWMutex
	model      string
	dimensions int
}

// embedRequest is the Cohere v2 embed request format.
type embedRequest struct {
	Model          string   `json:"model"`
	Texts          []string `json:"texts"`
	InputType      string   `json:"input_type"`
	EmbeddingTypes []string `json:"embedding_types"`
}

// embedResponse is the Cohere v2 embed response format.
type embedResponse struct {
	Embeddings struct {
		Float [][]float64 `json:"float"`
	} `json:"embeddings"`
	Message string `json:"message,omitempty"`
}

// NewEmbeddingService creates a new Cohere embedding service.
func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("cohere: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = DefaultDimensions
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultRequestsPerSecond
	}

	return &EmbeddingService{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
	}, nil
}

// inputType maps the domain input mode onto Cohere's vocabulary.
// Unrecognised modes embed as documents.
func inputType(mode domain.InputMode) string {
	if mode == domain.InputModeQuery {
		return inputTypeSearchQuery
	}
	return inputTypeSearchDocument
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string, mode domain.InputMode) ([]float32, error) {
	embeddings, err := s.EmbedBatch(ctx, []string{text}, mode)
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

// EmbedBatch generates embeddings for multiple texts in one API call.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string, mode domain.InputMode) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	reqBody := embedRequest{
		Model:          s.ModelName(),
		Texts:          texts,
		InputType:      inputType(mode),
		EmbeddingTypes: []string{"float"},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		s.baseURL+"/embed",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w: %w", domain.ErrTransient, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var embedResp embedResponse
	if err := json.Unmarshal(body, &embedResp); err != nil {
		return nil, fmt.Errorf("decode response: %w: %w", domain.ErrProviderFailure, err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := embedResp.Message
		if msg == "" {
			msg = string(body)
		}
		return nil, fmt.Errorf("%w: cohere status %d: %s", domain.ErrProviderFailure, resp.StatusCode, msg)
	}
	if len(embedResp.Embeddings.Float) != len(texts) {
		return nil, fmt.Errorf("%w: cohere returned %d embeddings for %d inputs",
			domain.ErrProviderFailure, len(embedResp.Embeddings.Float), len(texts))
	}

	embeddings := make([][]float32, len(texts))
	for i, emb := range embedResp.Embeddings.Float {
		vec := make([]float32, len(emb))
		for j, v := range emb {
			vec[j] = float32(v)
		}
		embeddings[i] = vec
	}
	return embeddings, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dimensions
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model
}

// SetModel switches the embedding model and records its vector size.
func (s *EmbeddingService) SetModel(model string, dimensions int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.model = model
	if dimensions > 0 {
		s.dimensions = dimensions
	}
}

// Ping validates the API key with a lightweight models listing.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/models", http.NoBody)
	if err != nil {
		return fmt.Errorf("cohere: failed to create ping request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("cohere: ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("cohere: API returned status %d", resp.StatusCode)
	}
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}
