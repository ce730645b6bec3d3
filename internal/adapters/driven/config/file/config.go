// Package file loads the application configuration from a TOML file,
// applies defaults, and overlays secrets from the environment.
package file

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/ragpipe/internal/core/domain"
)

// Default configuration values.
const (
	DefaultConfigDirName = ".ragpipe"
	DefaultConfigFile    = "config.toml"

	defaultPageSize       = 100
	defaultWorkers        = 2
	defaultQueueSize      = 16
	defaultMaxAttempts    = 3
	defaultRetrySeconds   = 60
	defaultVectorTimeout  = 30
	defaultMaxInputChars  = 4000
	defaultMaxOutputToken = 512
)

// Environment variables that overlay file values. Secrets should live
// in the environment (or a .env file), not in config.toml.
const (
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
	EnvCohereAPIKey = "COHERE_API_KEY"
	EnvQdrantAPIKey = "QDRANT_API_KEY"
)

// fileConfig mirrors the TOML layout of config.toml. Durations are
// expressed in seconds.
type fileConfig struct {
	DataDir string `toml:"data_dir"`

	Embedding struct {
		Provider          string  `toml:"provider"`
		Model             string  `toml:"model"`
		Dimensions        int     `toml:"dimensions"`
		BaseURL           string  `toml:"base_url"`
		APIKey            string  `toml:"api_key"`
		RequestsPerSecond float64 `toml:"requests_per_second"`
	} `toml:"embedding"`

	Generation struct {
		Provider        string  `toml:"provider"`
		Model           string  `toml:"model"`
		BaseURL         string  `toml:"base_url"`
		APIKey          string  `toml:"api_key"`
		MaxInputChars   int     `toml:"max_input_chars"`
		MaxOutputTokens int     `toml:"max_output_tokens"`
		Temperature     float64 `toml:"temperature"`
	} `toml:"generation"`

	VectorStore struct {
		Backend        string `toml:"backend"`
		URL            string `toml:"url"`
		APIKey         string `toml:"api_key"`
		Distance       string `toml:"distance"`
		TimeoutSeconds int    `toml:"timeout_seconds"`
	} `toml:"vector_store"`

	Indexing struct {
		PageSize          int `toml:"page_size"`
		Workers           int `toml:"workers"`
		QueueSize         int `toml:"queue_size"`
		MaxAttempts       int `toml:"max_attempts"`
		RetrySeconds      int `toml:"retry_seconds"`
		JobTimeoutSeconds int `toml:"job_timeout_seconds"`
	} `toml:"indexing"`

	Templates struct {
		Language        string `toml:"language"`
		DefaultLanguage string `toml:"default_language"`
		OverrideDir     string `toml:"override_dir"`
	} `toml:"templates"`
}

// DefaultPath returns the default config file path (~/.ragpipe/config.toml).
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, DefaultConfigDirName, DefaultConfigFile), nil
}

// Load reads the config file at path, fills defaults, and overlays API
// keys from the environment. A missing file yields the defaults.
func Load(path string) (domain.Config, error) {
	var fc fileConfig

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return domain.Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err == nil {
		if err := toml.Unmarshal(data, &fc); err != nil {
			return domain.Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg := toDomain(fc)
	applyDefaults(&cfg)
	applyEnvironment(&cfg)

	return cfg, nil
}

// toDomain maps the file layout onto the domain config.
func toDomain(fc fileConfig) domain.Config {
	return domain.Config{
		DataDir: fc.DataDir,
		Embedding: domain.EmbeddingSettings{
			Provider:          domain.AIProvider(fc.Embedding.Provider),
			Model:             fc.Embedding.Model,
			Dimensions:        fc.Embedding.Dimensions,
			BaseURL:           fc.Embedding.BaseURL,
			APIKey:            fc.Embedding.APIKey,
			RequestsPerSecond: fc.Embedding.RequestsPerSecond,
		},
		Generation: domain.GenerationSettings{
			Provider:        domain.AIProvider(fc.Generation.Provider),
			Model:           fc.Generation.Model,
			BaseURL:         fc.Generation.BaseURL,
			APIKey:          fc.Generation.APIKey,
			MaxInputChars:   fc.Generation.MaxInputChars,
			MaxOutputTokens: fc.Generation.MaxOutputTokens,
			Temperature:     fc.Generation.Temperature,
		},
		VectorStore: domain.VectorStoreSettings{
			Backend:  domain.VectorBackend(fc.VectorStore.Backend),
			URL:      fc.VectorStore.URL,
			APIKey:   fc.VectorStore.APIKey,
			Distance: fc.VectorStore.Distance,
			Timeout:  time.Duration(fc.VectorStore.TimeoutSeconds) * time.Second,
		},
		Indexing: domain.IndexingSettings{
			PageSize:    fc.Indexing.PageSize,
			Workers:     fc.Indexing.Workers,
			QueueSize:   fc.Indexing.QueueSize,
			MaxAttempts: fc.Indexing.MaxAttempts,
			RetryDelay:  time.Duration(fc.Indexing.RetrySeconds) * time.Second,
			JobTimeout:  time.Duration(fc.Indexing.JobTimeoutSeconds) * time.Second,
		},
		Templates: domain.TemplateSettings{
			Language:        fc.Templates.Language,
			DefaultLanguage: fc.Templates.DefaultLanguage,
			OverrideDir:     fc.Templates.OverrideDir,
		},
	}
}

// applyDefaults fills zero values with the defaults.
func applyDefaults(cfg *domain.Config) {
	if cfg.DataDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.DataDir = filepath.Join(home, DefaultConfigDirName)
		} else {
			cfg.DataDir = "."
		}
	}

	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = domain.AIProviderOllama
	}
	if cfg.Generation.Provider == "" {
		cfg.Generation.Provider = cfg.Embedding.Provider
	}
	if cfg.Generation.MaxInputChars <= 0 {
		cfg.Generation.MaxInputChars = defaultMaxInputChars
	}
	if cfg.Generation.MaxOutputTokens <= 0 {
		cfg.Generation.MaxOutputTokens = defaultMaxOutputToken
	}

	if cfg.VectorStore.Backend == "" {
		cfg.VectorStore.Backend = domain.VectorBackendQdrant
	}
	if cfg.VectorStore.Timeout <= 0 {
		cfg.VectorStore.Timeout = defaultVectorTimeout * time.Second
	}

	if cfg.Indexing.PageSize <= 0 {
		cfg.Indexing.PageSize = defaultPageSize
	}
	if cfg.Indexing.Workers <= 0 {
		cfg.Indexing.Workers = defaultWorkers
	}
	if cfg.Indexing.QueueSize <= 0 {
		cfg.Indexing.QueueSize = defaultQueueSize
	}
	if cfg.Indexing.MaxAttempts <= 0 {
		cfg.Indexing.MaxAttempts = defaultMaxAttempts
	}
	if cfg.Indexing.RetryDelay <= 0 {
		cfg.Indexing.RetryDelay = defaultRetrySeconds * time.Second
	}

	if cfg.Templates.DefaultLanguage == "" {
		cfg.Templates.DefaultLanguage = "en"
	}
	if cfg.Templates.Language == "" {
		cfg.Templates.Language = cfg.Templates.DefaultLanguage
	}
}

// applyEnvironment overlays secrets from environment variables onto
// the file values. Environment wins over the file.
func applyEnvironment(cfg *domain.Config) {
	if key := os.Getenv(EnvQdrantAPIKey); key != "" {
		cfg.VectorStore.APIKey = key
	}

	if key := providerKeyFromEnv(cfg.Embedding.Provider); key != "" {
		cfg.Embedding.APIKey = key
	}
	if key := providerKeyFromEnv(cfg.Generation.Provider); key != "" {
		cfg.Generation.APIKey = key
	}
}

// providerKeyFromEnv returns the environment API key for a provider.
func providerKeyFromEnv(provider domain.AIProvider) string {
	switch provider {
	case domain.AIProviderOpenAI:
		return os.Getenv(EnvOpenAIAPIKey)
	case domain.AIProviderCohere:
		return os.Getenv(EnvCohereAPIKey)
	default:
		return ""
	}
}
