package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/ragpipe/internal/core/domain"
	"github.com/custodia-labs/ragpipe/internal/core/ports/driven"
	"github.com/custodia-labs/ragpipe/internal/core/ports/driving"
	"github.com/custodia-labs/ragpipe/internal/logger"
)

// Ensure RetrievalEngine implements the interface.
var _ driving.AnswerService = (*RetrievalEngine)(nil)

// DefaultRetrievalLimit is the number of documents retrieved when the
// caller does not specify a limit.
const DefaultRetrievalLimit = 10

// RetrievalEngine answers queries with retrieval-augmented generation:
// embed the query, search the project's collection, assemble prompts
// from the retrieved documents and condition the generation model on
// them.
type RetrievalEngine struct {
	vector    driven.VectorStore
	embedder  driven.EmbeddingService
	generator driven.GenerationService
	templates driven.TemplateStore
}

// NewRetrievalEngine creates a retrieval engine.
func NewRetrievalEngine(
	vector driven.VectorStore,
	embedder driven.EmbeddingService,
	generator driven.GenerationService,
	templates driven.TemplateStore,
) *RetrievalEngine {
	return &RetrievalEngine{
		vector:    vector,
		embedder:  embedder,
		generator: generator,
		templates: templates,
	}
}

// AnswerQuery answers a query against a project's indexed chunks.
// Returns (nil, nil) when the collection holds nothing relevant and
// (nil, err) when embedding, search, template rendering or generation
// failed; the caller decides how to present each outcome.
func (e *RetrievalEngine) AnswerQuery(ctx context.Context, projectID, query string, limit int) (*domain.Answer, error) {
	logger.Section("Answer Query")
	logger.Debug("Project: %s, query: %q", projectID, query)

	if limit <= 0 {
		limit = DefaultRetrievalLimit
	}

	docs, err := e.retrieve(ctx, projectID, query, limit)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		logger.Info("No relevant documents for query")
		return nil, nil
	}
	logger.Debug("Retrieved %d documents", len(docs))

	fullPrompt, history, err := e.assemblePrompt(query, docs)
	if err != nil {
		return nil, err
	}

	text, err := e.generator.Generate(ctx, fullPrompt, history, driven.GenerateOptions{})
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	return &domain.Answer{
		Text:        text,
		FullPrompt:  fullPrompt,
		ChatHistory: history,
	}, nil
}

// retrieve embeds the query and searches the project's collection.
// A missing collection is reported as no knowledge, not a failure.
func (e *RetrievalEngine) retrieve(ctx context.Context, projectID, query string, limit int) ([]domain.RetrievedDocument, error) {
	vector, err := e.embedder.Embed(ctx, query, domain.InputModeQuery)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vector) == 0 {
		return nil, fmt.Errorf("embed query: %w: empty embedding", domain.ErrProviderFailure)
	}

	if err := e.vector.Connect(ctx); err != nil {
		return nil, fmt.Errorf("connect vector store: %w", err)
	}

	docs, err := e.vector.SearchByVector(ctx, domain.CollectionName(projectID), vector, limit)
	if errors.Is(err, domain.ErrCollectionNotFound) {
		logger.Debug("Collection for %s does not exist", projectID)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("search collection: %w", err)
	}
	return docs, nil
}

// assemblePrompt renders the rag template group into the full prompt
// and the initial chat history. Retrieved documents are numbered from
// one and truncated to the generation model's input limit.
func (e *RetrievalEngine) assemblePrompt(query string, docs []domain.RetrievedDocument) (string, []domain.ChatMessage, error) {
	maxInput := e.generator.MaxInputLength()

	systemPrompt, err := e.templates.Render(driven.TemplateGroupRAG, driven.TemplateKeySystemPrompt, nil)
	if err != nil {
		return "", nil, fmt.Errorf("render system prompt: %w", err)
	}

	documentPrompts := make([]string, len(docs))
	for i, doc := range docs {
		documentPrompts[i], err = e.templates.Render(driven.TemplateGroupRAG, driven.TemplateKeyDocumentPrompt, map[string]any{
			"doc_num":    i + 1,
			"chunk_text": truncate(doc.Text, maxInput),
		})
		if err != nil {
			return "", nil, fmt.Errorf("render document prompt %d: %w", i+1, err)
		}
	}

	footerPrompt, err := e.templates.Render(driven.TemplateGroupRAG, driven.TemplateKeyFooterPrompt, map[string]any{
		"query": query,
	})
	if err != nil {
		return "", nil, fmt.Errorf("render footer prompt: %w", err)
	}

	fullPrompt := strings.Join(documentPrompts, "\n") + "\n\n" + footerPrompt
	history := []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: truncate(systemPrompt, maxInput)},
	}
	return fullPrompt, history, nil
}

// truncate caps text at max runes. A non-positive max leaves the text
// untouched.
func truncate(text string, max int) string {
	if max <= 0 {
		return strings.TrimSpace(text)
	}
	runes := []rune(text)
	if len(runes) > max {
		runes = runes[:max]
	}
	return strings.TrimSpace(string(runes))
}
