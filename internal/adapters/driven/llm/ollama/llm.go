// Package ollama provides a generation service adapter using Ollama.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/custodia-labs/ragpipe/internal/core/domain"
	"github.com/custodia-labs/ragpipe/internal/core/ports/driven"
)

// Ensure GenerationService implements the interface.
var _ driven.GenerationService = (*GenerationService)(nil)

// Default configuration values.
const (
	DefaultBaseURL       = "http://localhost:11434"
	DefaultModel         = "llama3.2"
	DefaultTimeout       = 120 * time.Second
	DefaultMaxInputChars = 4000
)

// Config holds configuration for the Ollama generation service.
type Config struct {
	// BaseURL is the Ollama API base URL (default: http://localhost:11434).
	BaseURL string

	// Model is the model to use (default: llama3.2).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration

	// MaxInputChars caps input text length (default: 4000).
	MaxInputChars int

	// MaxOutputTokens caps the completion length, zero for model default.
	MaxOutputTokens int

	// Temperature controls randomness.
	Temperature float64
}

// GenerationService produces completions using the Ollama chat API.
type GenerationService struct {
	client          *http.Client
	baseURL         string
	maxInputChars   int
	maxOutputTokens int
	temperature     float64

	mu    sync.RWMutex
	model string
}

// chatRequest is the Ollama /api/chat request format.
type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  *options      `json:"options,omitempty"`
}

// chatMessage is the Ollama chat message format.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// options holds generation parameters.
type options struct {
	NumPredict  int     `json:"num_predict,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

// chatResponse is the Ollama /api/chat response format.
type chatResponse struct {
	Message chatMessage `json:"message"`
	Done    bool        `json:"done"`
}

// NewGenerationService creates a new Ollama generation service.
func NewGenerationService(cfg Config) *GenerationService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxInputChars <= 0 {
		cfg.MaxInputChars = DefaultMaxInputChars
	}

	return &GenerationService{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:         cfg.BaseURL,
		maxInputChars:   cfg.MaxInputChars,
		maxOutputTokens: cfg.MaxOutputTokens,
		temperature:     cfg.Temperature,
		model:           cfg.Model,
	}
}

// Generate produces a completion for the prompt, conditioned on the
// prior chat history.
func (s *GenerationService) Generate(ctx context.Context, prompt string, history []domain.ChatMessage, opts driven.GenerateOptions) (string, error) {
	messages := make([]chatMessage, 0, len(history)+1)
	for _, msg := range history {
		messages = append(messages, chatMessage{Role: msg.Role, Content: msg.Content})
	}
	messages = append(messages, chatMessage{Role: domain.RoleUser, Content: prompt})

	maxTokens := opts.MaxTokens
	if maxTokens == 0 {
		maxTokens = s.maxOutputTokens
	}
	temperature := opts.Temperature
	if temperature == 0 {
		temperature = s.temperature
	}

	reqBody := chatRequest{
		Model:    s.ModelName(),
		Messages: messages,
		Stream:   false,
	}
	if maxTokens > 0 || temperature > 0 {
		reqBody.Options = &options{
			NumPredict:  maxTokens,
			Temperature: temperature,
		}
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		s.baseURL+"/api/chat",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w: %w", domain.ErrTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("%w: ollama status %d: %s", domain.ErrProviderFailure, resp.StatusCode, string(body))
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("decode response: %w: %w", domain.ErrProviderFailure, err)
	}
	if chatResp.Message.Content == "" {
		return "", fmt.Errorf("%w: ollama returned an empty completion", domain.ErrProviderFailure)
	}

	return chatResp.Message.Content, nil
}

// MaxInputLength returns the configured input character cap.
func (s *GenerationService) MaxInputLength() int {
	return s.maxInputChars
}

// ModelName returns the name of the generation model being used.
func (s *GenerationService) ModelName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model
}

// SetModel switches the generation model.
func (s *GenerationService) SetModel(model string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.model = model
}

// Ping validates the service is reachable by checking /api/tags.
func (s *GenerationService) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/api/tags", http.NoBody)
	if err != nil {
		return fmt.Errorf("ollama: failed to create ping request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama: ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama: API returned status %d", resp.StatusCode)
	}
	return nil
}

// Close releases resources.
func (s *GenerationService) Close() error {
	return nil
}
