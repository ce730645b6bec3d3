package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/ragpipe/internal/core/domain"
	"github.com/custodia-labs/ragpipe/internal/core/ports/driven"
)

// --- Mock implementations shared by the service tests ---

// mockEmbedder implements driven.EmbeddingService for testing. Unless
// vecFor is set, every text embeds to the same unit vector.
type mockEmbedder struct {
	dims     int
	embedErr error
	vecFor   func(text string) []float32

	mu         sync.Mutex
	embedCalls int
}

func (m *mockEmbedder) vector(text string) []float32 {
	if m.vecFor != nil {
		return m.vecFor(text)
	}
	v := make([]float32, m.Dimensions())
	v[0] = 1
	return v
}

func (m *mockEmbedder) Embed(_ context.Context, text string, _ domain.InputMode) ([]float32, error) {
	m.mu.Lock()
	m.embedCalls++
	m.mu.Unlock()
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.vector(text), nil
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string, _ domain.InputMode) ([][]float32, error) {
	m.mu.Lock()
	m.embedCalls++
	m.mu.Unlock()
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	result := make([][]float32, len(texts))
	for i, text := range texts {
		result[i] = m.vector(text)
	}
	return result, nil
}

func (m *mockEmbedder) Dimensions() int {
	if m.dims > 0 {
		return m.dims
	}
	return 4
}

func (m *mockEmbedder) ModelName() string { return "mock-embed" }

func (m *mockEmbedder) SetModel(_ string, _ int) {}

func (m *mockEmbedder) Ping(_ context.Context) error { return nil }

func (m *mockEmbedder) Close() error { return nil }

// mockGenerator implements driven.GenerationService for testing.
type mockGenerator struct {
	reply    string
	genErr   error
	maxInput int

	lastPrompt  string
	lastHistory []domain.ChatMessage
}

func (m *mockGenerator) Generate(_ context.Context, prompt string, history []domain.ChatMessage, _ driven.GenerateOptions) (string, error) {
	m.lastPrompt = prompt
	m.lastHistory = history
	if m.genErr != nil {
		return "", m.genErr
	}
	if m.reply == "" {
		return "mock answer", nil
	}
	return m.reply, nil
}

func (m *mockGenerator) MaxInputLength() int {
	if m.maxInput > 0 {
		return m.maxInput
	}
	return 4000
}

func (m *mockGenerator) ModelName() string { return "mock-gen" }

func (m *mockGenerator) SetModel(_ string) {}

func (m *mockGenerator) Ping(_ context.Context) error { return nil }

func (m *mockGenerator) Close() error { return nil }

// mockTemplates implements driven.TemplateStore with fixed formats so
// assertions can see exactly what was substituted.
type mockTemplates struct {
	renderErr error
}

func (m *mockTemplates) Language() string { return "en" }

func (m *mockTemplates) Render(_, key string, vars map[string]any) (string, error) {
	if m.renderErr != nil {
		return "", m.renderErr
	}
	switch key {
	case driven.TemplateKeySystemPrompt:
		return "You are a helpful assistant.", nil
	case driven.TemplateKeyDocumentPrompt:
		return fmt.Sprintf("## Document No: %v\n### Content: %v", vars["doc_num"], vars["chunk_text"]), nil
	case driven.TemplateKeyFooterPrompt:
		return fmt.Sprintf("## Question:\n%v\n\n## Answer:", vars["query"]), nil
	default:
		return "", domain.ErrNotFound
	}
}

func (m *mockTemplates) Reload() error { return nil }

// failingProjectStore implements driven.ProjectStore and always fails.
type failingProjectStore struct {
	err error
}

func (s *failingProjectStore) GetOrCreate(_ context.Context, _ string) (*domain.Project, error) {
	return nil, s.err
}

func (s *failingProjectStore) List(_ context.Context) ([]domain.Project, error) {
	return nil, s.err
}
