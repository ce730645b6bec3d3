package file

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragpipe/internal/core/domain"
)

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	require.NoError(t, err)

	assert.Equal(t, domain.AIProviderOllama, cfg.Embedding.Provider)
	assert.Equal(t, domain.AIProviderOllama, cfg.Generation.Provider)
	assert.Equal(t, domain.VectorBackendQdrant, cfg.VectorStore.Backend)
	assert.Equal(t, defaultPageSize, cfg.Indexing.PageSize)
	assert.Equal(t, defaultWorkers, cfg.Indexing.Workers)
	assert.Equal(t, defaultMaxAttempts, cfg.Indexing.MaxAttempts)
	assert.Equal(t, time.Duration(defaultRetrySeconds)*time.Second, cfg.Indexing.RetryDelay)
	assert.Equal(t, defaultMaxInputChars, cfg.Generation.MaxInputChars)
	assert.Equal(t, "en", cfg.Templates.Language)
	assert.Equal(t, "en", cfg.Templates.DefaultLanguage)
	assert.NotEmpty(t, cfg.DataDir)
}

func TestLoad_ReadsFileValues(t *testing.T) {
	path := writeConfig(t, `
data_dir = "/tmp/rag-data"

[embedding]
provider = "openai"
model = "text-embedding-3-small"
dimensions = 1536

[generation]
provider = "cohere"
model = "command-r"
max_output_tokens = 256

[vector_store]
backend = "qdrant"
url = "http://localhost:6333"
timeout_seconds = 10

[indexing]
page_size = 50
workers = 4
retry_seconds = 5

[templates]
language = "ar"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/rag-data", cfg.DataDir)
	assert.Equal(t, domain.AIProviderOpenAI, cfg.Embedding.Provider)
	assert.Equal(t, 1536, cfg.Embedding.Dimensions)
	assert.Equal(t, domain.AIProviderCohere, cfg.Generation.Provider)
	assert.Equal(t, "command-r", cfg.Generation.Model)
	assert.Equal(t, 256, cfg.Generation.MaxOutputTokens)
	assert.Equal(t, "http://localhost:6333", cfg.VectorStore.URL)
	assert.Equal(t, 10*time.Second, cfg.VectorStore.Timeout)
	assert.Equal(t, 50, cfg.Indexing.PageSize)
	assert.Equal(t, 4, cfg.Indexing.Workers)
	assert.Equal(t, 5*time.Second, cfg.Indexing.RetryDelay)
	assert.Equal(t, "ar", cfg.Templates.Language)
	// default_language still defaults when only language is set
	assert.Equal(t, "en", cfg.Templates.DefaultLanguage)
}

func TestLoad_GenerationProviderFollowsEmbedding(t *testing.T) {
	path := writeConfig(t, `
[embedding]
provider = "openai"
`)
	t.Setenv(EnvOpenAIAPIKey, "")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOpenAI, cfg.Generation.Provider)
}

func TestLoad_EnvironmentOverlaysKeys(t *testing.T) {
	path := writeConfig(t, `
[embedding]
provider = "openai"
api_key = "file-key"

[generation]
provider = "cohere"

[vector_store]
api_key = "file-qdrant-key"
`)
	t.Setenv(EnvOpenAIAPIKey, "env-openai-key")
	t.Setenv(EnvCohereAPIKey, "env-cohere-key")
	t.Setenv(EnvQdrantAPIKey, "env-qdrant-key")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "env-openai-key", cfg.Embedding.APIKey)
	assert.Equal(t, "env-cohere-key", cfg.Generation.APIKey)
	assert.Equal(t, "env-qdrant-key", cfg.VectorStore.APIKey)
}

func TestLoad_EmptyEnvironmentKeepsFileKey(t *testing.T) {
	path := writeConfig(t, `
[embedding]
provider = "openai"
api_key = "file-key"
`)
	t.Setenv(EnvOpenAIAPIKey, "")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "file-key", cfg.Embedding.APIKey)
}

func TestLoad_MalformedTOML(t *testing.T) {
	path := writeConfig(t, `[embedding`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
