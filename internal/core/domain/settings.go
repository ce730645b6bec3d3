package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or generation.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is the OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderCohere is the Cohere cloud API.
	AIProviderCohere AIProvider = "cohere"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderCohere:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderCohere
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderCohere:
		return "Cohere (cloud)"
	default:
		return unknownDescription
	}
}

// VectorBackend identifies a vector store backend.
type VectorBackend string

// Available vector store backends.
const (
	// VectorBackendQdrant is a Qdrant server reached over its REST API.
	VectorBackendQdrant VectorBackend = "qdrant"

	// VectorBackendMemory is an in-process store for tests and local runs.
	VectorBackendMemory VectorBackend = "memory"
)

// IsValid returns true if the backend is recognised.
func (b VectorBackend) IsValid() bool {
	switch b {
	case VectorBackendQdrant, VectorBackendMemory:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (b VectorBackend) String() string {
	return string(b)
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// Dimensions is the embedding vector size for Model. Every vector
	// the provider produces must have exactly this many components.
	Dimensions int

	// BaseURL is the API endpoint (for Ollama, or API-compatible hosts).
	BaseURL string

	// APIKey is the API key (for OpenAI/Cohere).
	APIKey string

	// RequestsPerSecond throttles cloud API calls. Zero disables throttling.
	RequestsPerSecond float64
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// GenerationSettings holds text generation provider configuration.
type GenerationSettings struct {
	// Provider is the generation service provider.
	Provider AIProvider

	// Model is the generation model name.
	Model string

	// BaseURL is the API endpoint (for Ollama, or API-compatible hosts).
	BaseURL string

	// APIKey is the API key (for OpenAI/Cohere).
	APIKey string

	// MaxInputChars caps prompt and document text passed to the model.
	MaxInputChars int

	// MaxOutputTokens caps the generated completion length.
	MaxOutputTokens int

	// Temperature controls randomness (0.0 = deterministic).
	Temperature float64
}

// IsConfigured returns true if the generation provider is set up.
func (g GenerationSettings) IsConfigured() bool {
	if !g.Provider.IsValid() {
		return false
	}
	if g.Provider.RequiresAPIKey() && g.APIKey == "" {
		return false
	}
	return true
}

// VectorStoreSettings holds vector store backend configuration.
type VectorStoreSettings struct {
	// Backend selects the vector store implementation.
	Backend VectorBackend

	// URL is the server address (for Qdrant).
	URL string

	// APIKey authenticates against the server, empty for unsecured hosts.
	APIKey string

	// Distance is the similarity metric used for new collections.
	Distance string

	// Timeout is the per-request timeout.
	Timeout time.Duration
}

// IsConfigured returns true if the vector store is set up.
func (v VectorStoreSettings) IsConfigured() bool {
	return v.Backend.IsValid()
}

// IndexingSettings holds pipeline and dispatcher configuration.
type IndexingSettings struct {
	// PageSize is the number of chunks fetched and upserted per page.
	PageSize int

	// Workers is the dispatcher worker pool size.
	Workers int

	// QueueSize is the dispatcher queue capacity.
	QueueSize int

	// MaxAttempts bounds retries of a failed job, counting the first run.
	MaxAttempts int

	// RetryDelay is the fixed pause between job attempts.
	RetryDelay time.Duration

	// JobTimeout is the coarse overall time limit for one job attempt.
	JobTimeout time.Duration
}

// TemplateSettings holds prompt template configuration.
type TemplateSettings struct {
	// Language is the requested template language, e.g. "en" or "ar".
	Language string

	// DefaultLanguage is the fallback when Language is unset or has no
	// template assets.
	DefaultLanguage string

	// OverrideDir is an optional directory of user-edited template
	// files that shadow the embedded defaults.
	OverrideDir string
}

// Config aggregates all component settings. It is assembled once at
// startup and passed explicitly into each constructor; core logic never
// reads ambient global state.
type Config struct {
	// DataDir is the base directory for local state (SQLite database).
	DataDir string

	Embedding   EmbeddingSettings
	Generation  GenerationSettings
	VectorStore VectorStoreSettings
	Indexing    IndexingSettings
	Templates   TemplateSettings
}
