// Package cli implements the ragpipe command line interface.
package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragpipe/internal/adapters/driven/ai"
	configfile "github.com/custodia-labs/ragpipe/internal/adapters/driven/config/file"
	memorystore "github.com/custodia-labs/ragpipe/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ragpipe/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/ragpipe/internal/adapters/driven/templates"
	"github.com/custodia-labs/ragpipe/internal/core/domain"
	"github.com/custodia-labs/ragpipe/internal/core/ports/driven"
	"github.com/custodia-labs/ragpipe/internal/core/ports/driving"
	"github.com/custodia-labs/ragpipe/internal/core/services"
	"github.com/custodia-labs/ragpipe/internal/logger"
)

// version is set from main at startup.
var version = "dev"

var (
	configPath string
	verbose    bool
)

// Wired services, populated by initServices. Commands that only print
// static information never touch them.
var (
	cfg domain.Config

	store         *sqlite.Store
	projectStore  driven.ProjectStore
	chunkStore    driven.ChunkStore
	vectorStore   driven.VectorStore
	embedService  driven.EmbeddingService
	genService    driven.GenerationService
	templateStore driven.TemplateStore
	jobStore      driven.JobStatusStore

	dispatcher    driving.IndexingDispatcher
	answerService driving.AnswerService
)

var rootCmd = &cobra.Command{
	Use:   "ragpipe",
	Short: "Index project documents and answer questions about them",
	Long: `ragpipe indexes a project's text chunks into a vector database and
answers questions against them using retrieval-augmented generation.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.toml (default ~/.ragpipe/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// Execute runs the CLI with the given version string.
func Execute(v string) error {
	if v != "" {
		version = v
	}
	defer closeServices()
	return rootCmd.Execute()
}

// loadConfig resolves and loads the configuration file.
func loadConfig() error {
	path := configPath
	if path == "" {
		var err error
		path, err = configfile.DefaultPath()
		if err != nil {
			return err
		}
	}

	loaded, err := configfile.Load(path)
	if err != nil {
		return err
	}
	cfg = loaded
	logger.Debug("Loaded configuration from %s", path)
	return nil
}

// initStores opens the local stores without touching any AI provider.
// Enough for chunk import and project listing.
func initStores() error {
	if store != nil {
		return nil
	}
	if err := loadConfig(); err != nil {
		return err
	}

	s, err := sqlite.NewStore(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("open local store: %w", err)
	}
	store = s
	projectStore = s.ProjectStore()
	chunkStore = s.ChunkStore()
	return nil
}

// initServices wires the full service graph: stores, AI providers,
// vector store, templates, pipeline and dispatcher.
func initServices() error {
	if dispatcher != nil {
		return nil
	}
	if err := initStores(); err != nil {
		return err
	}

	var err error
	embedService, err = ai.CreateEmbeddingService(cfg.Embedding)
	if err != nil {
		return err
	}

	genService, err = ai.CreateGenerationService(cfg.Generation)
	if err != nil {
		return err
	}

	vectorStore, err = ai.CreateVectorStore(cfg.VectorStore)
	if err != nil {
		return err
	}

	templateStore, err = templates.NewStore(templates.Config{
		Language:        cfg.Templates.Language,
		DefaultLanguage: cfg.Templates.DefaultLanguage,
		OverrideDir:     cfg.Templates.OverrideDir,
	})
	if err != nil {
		return err
	}

	jobStore = memorystore.NewJobStore()

	pipeline := services.NewIndexingPipeline(
		projectStore, chunkStore, vectorStore, embedService, jobStore, cfg.Indexing.PageSize)
	dispatcher = services.NewDispatcher(pipeline, jobStore, cfg.Indexing)

	answerService = services.NewRetrievalEngine(
		vectorStore, embedService, genService, templateStore)

	return nil
}

// closeServices releases everything initServices opened.
func closeServices() {
	if dispatcher != nil {
		dispatcher.Stop()
	}
	if vectorStore != nil {
		vectorStore.Disconnect() //nolint:errcheck
	}
	if embedService != nil {
		embedService.Close()
	}
	if genService != nil {
		genService.Close()
	}
	if closer, ok := templateStore.(interface{ Close() error }); ok {
		closer.Close() //nolint:errcheck
	}
	if store != nil {
		store.Close()
	}
}

// exitError renders domain errors in a friendlier way before cobra
// prints them.
func exitError(err error) error {
	switch {
	case errors.Is(err, domain.ErrEmbeddingUnavailable):
		return fmt.Errorf("%w\ncheck the [embedding] section of your config", err)
	case errors.Is(err, domain.ErrGenerationUnavailable):
		return fmt.Errorf("%w\ncheck the [generation] section of your config", err)
	case errors.Is(err, domain.ErrVectorStoreUnavailable):
		return fmt.Errorf("%w\ncheck the [vector_store] section of your config", err)
	default:
		return err
	}
}
