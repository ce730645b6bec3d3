// Package cohere provides a generation service adapter using the
// Cohere API.
package cohere

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/ragpipe/internal/core/domain"
	"github.com/custodia-labs/ragpipe/internal/core/ports/driven"
)

// Ensure GenerationService implements the interface.
var _ driven.GenerationService = (*GenerationService)(nil)

// Default configuration values.
const (
	DefaultBaseURL       = "https://api.cohere.com/v2"
	DefaultModel         = "command-r"
	DefaultTimeout       = 120 * time.Second
	DefaultMaxInputChars = 4000
)

// Config holds configuration for the Cohere generation service.
type Config struct {
	// APIKey is the Cohere API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.cohere.com/v2).
	BaseURL string

	// Model is the model to use (default: command-r).
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

// GenerationService produces completions using the Cohere chat API.
type GenerationService struct {
	client          *http.Client
	baseURL         string
	apiKey          string
	maxInputChars   int
	maxOutputTokens int
	temperature     float64

	mu    sync.RWMutex
	model string
}

// chatRequest is the Cohere v2 chat request format.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

// chatMessage is the Cohere chat message format.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the Cohere v2 chat response format.
type chatResponse struct {
	Message struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"message"`
}

// NewGenerationService creates a new Cohere generation service.
func NewGenerationService(cfg Config) (*GenerationService, error) {
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
	if cfg.MaxInputChars <= 0 {
		cfg.MaxInputChars = DefaultMaxInputChars
	}

	return &GenerationService{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:         cfg.BaseURL,
		apiKey:          cfg.APIKey,
		maxInputChars:   cfg.MaxInputChars,
		maxOutputTokens: cfg.MaxOutputTokens,
		temperature:     cfg.Temperature,
		model:           cfg.Model,
	}, nil
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
		Model:       s.ModelName(),
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		s.baseURL+"/chat",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w: %w", domain.ErrTransient, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: cohere status %d: %s", domain.ErrProviderFailure, resp.StatusCode, string(body))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("decode response: %w: %w", domain.ErrProviderFailure, err)
	}

	var parts []string
	for _, c := range chatResp.Message.Content {
		if c.Type == "text" && c.Text != "" {
			parts = append(parts, c.Text)
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("%w: cohere returned an empty completion", domain.ErrProviderFailure)
	}

	return strings.TrimSpace(strings.Join(parts, "\n")), nil
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

// Ping validates the API key with a lightweight models listing.
func (s *GenerationService) Ping(ctx context.Context) error {
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
func (s *GenerationService) Close() error {
	return nil
}
