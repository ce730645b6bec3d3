package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vectormem "github.com/custodia-labs/ragpipe/internal/adapters/driven/vectordb/memory"
	"github.com/custodia-labs/ragpipe/internal/core/domain"
)

// seedCollection fills a project collection with two documents; the
// first is aligned with the mock query vector, the second orthogonal.
func seedCollection(t *testing.T, vector *vectormem.VectorStore, projectID string) {
	t.Helper()
	ctx := context.Background()
	name := domain.CollectionName(projectID)
	require.NoError(t, vector.CreateCollection(ctx, name, 4, false))
	require.NoError(t, vector.InsertMany(ctx, name,
		[]string{"the capital of France is Paris", "penguins cannot fly"},
		[][]float32{{1, 0, 0, 0}, {0, 1, 0, 0}},
		[]map[string]any{{"source": "geo"}, {"source": "bio"}},
		[]int64{1, 2},
	))
}

func TestRetrievalEngine_AnswerQuery_Success(t *testing.T) {
	vector := vectormem.New()
	seedCollection(t, vector, "proj-1")

	embedder := &mockEmbedder{dims: 4}
	generator := &mockGenerator{reply: "Paris."}
	engine := NewRetrievalEngine(vector, embedder, generator, &mockTemplates{})

	answer, err := engine.AnswerQuery(context.Background(), "proj-1", "What is the capital of France?", 10)
	require.NoError(t, err)
	require.NotNil(t, answer)

	assert.Equal(t, "Paris.", answer.Text)
	assert.Contains(t, answer.FullPrompt, "the capital of France is Paris")
	assert.Contains(t, answer.FullPrompt, "## Document No: 1")
	assert.Contains(t, answer.FullPrompt, "What is the capital of France?")

	require.Len(t, answer.ChatHistory, 1)
	assert.Equal(t, domain.RoleSystem, answer.ChatHistory[0].Role)
	assert.Contains(t, answer.ChatHistory[0].Content, "helpful assistant")

	// The generator saw exactly the assembled prompt and history.
	assert.Equal(t, answer.FullPrompt, generator.lastPrompt)
	assert.Equal(t, answer.ChatHistory, generator.lastHistory)
}

func TestRetrievalEngine_AnswerQuery_RanksByRelevance(t *testing.T) {
	vector := vectormem.New()
	seedCollection(t, vector, "proj-1")

	engine := NewRetrievalEngine(vector, &mockEmbedder{dims: 4}, &mockGenerator{}, &mockTemplates{})

	answer, err := engine.AnswerQuery(context.Background(), "proj-1", "capitals", 1)
	require.NoError(t, err)
	require.NotNil(t, answer)

	// limit=1 keeps only the best-aligned document.
	assert.Contains(t, answer.FullPrompt, "Paris")
	assert.NotContains(t, answer.FullPrompt, "penguins")
}

func TestRetrievalEngine_AnswerQuery_MissingCollection(t *testing.T) {
	engine := NewRetrievalEngine(vectormem.New(), &mockEmbedder{dims: 4}, &mockGenerator{}, &mockTemplates{})

	answer, err := engine.AnswerQuery(context.Background(), "never-indexed", "anything", 10)
	require.NoError(t, err)
	assert.Nil(t, answer)
}

func TestRetrievalEngine_AnswerQuery_EmptyCollection(t *testing.T) {
	vector := vectormem.New()
	require.NoError(t, vector.CreateCollection(context.Background(), domain.CollectionName("proj-1"), 4, false))

	generator := &mockGenerator{}
	engine := NewRetrievalEngine(vector, &mockEmbedder{dims: 4}, generator, &mockTemplates{})

	answer, err := engine.AnswerQuery(context.Background(), "proj-1", "anything", 10)
	require.NoError(t, err)
	assert.Nil(t, answer)
	assert.Empty(t, generator.lastPrompt, "generation must not run without documents")
}

func TestRetrievalEngine_AnswerQuery_EmbedFailure(t *testing.T) {
	vector := vectormem.New()
	seedCollection(t, vector, "proj-1")

	embedder := &mockEmbedder{dims: 4, embedErr: errors.New("connection refused")}
	engine := NewRetrievalEngine(vector, embedder, &mockGenerator{}, &mockTemplates{})

	answer, err := engine.AnswerQuery(context.Background(), "proj-1", "anything", 10)
	require.Error(t, err)
	assert.Nil(t, answer)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestRetrievalEngine_AnswerQuery_GenerateFailure(t *testing.T) {
	vector := vectormem.New()
	seedCollection(t, vector, "proj-1")

	generator := &mockGenerator{genErr: errors.New("rate limited")}
	engine := NewRetrievalEngine(vector, &mockEmbedder{dims: 4}, generator, &mockTemplates{})

	answer, err := engine.AnswerQuery(context.Background(), "proj-1", "anything", 10)
	require.Error(t, err)
	assert.Nil(t, answer)
}

func TestRetrievalEngine_AnswerQuery_TemplateFailure(t *testing.T) {
	vector := vectormem.New()
	seedCollection(t, vector, "proj-1")

	engine := NewRetrievalEngine(vector, &mockEmbedder{dims: 4}, &mockGenerator{},
		&mockTemplates{renderErr: domain.ErrNotFound})

	answer, err := engine.AnswerQuery(context.Background(), "proj-1", "anything", 10)
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Nil(t, answer)
}

func TestRetrievalEngine_AnswerQuery_TruncatesLongDocuments(t *testing.T) {
	vector := vectormem.New()
	ctx := context.Background()
	name := domain.CollectionName("proj-1")
	require.NoError(t, vector.CreateCollection(ctx, name, 4, false))
	require.NoError(t, vector.InsertMany(ctx, name,
		[]string{"a very long document that exceeds the generation input limit"},
		[][]float32{{1, 0, 0, 0}},
		[]map[string]any{nil},
		[]int64{1},
	))

	generator := &mockGenerator{maxInput: 11}
	engine := NewRetrievalEngine(vector, &mockEmbedder{dims: 4}, generator, &mockTemplates{})

	answer, err := engine.AnswerQuery(context.Background(), "proj-1", "q", 10)
	require.NoError(t, err)
	require.NotNil(t, answer)

	assert.Contains(t, answer.FullPrompt, "a very long")
	assert.NotContains(t, answer.FullPrompt, "exceeds")
}
