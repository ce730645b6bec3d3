package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragpipe/internal/core/domain"
)

var collectionCmd = &cobra.Command{
	Use:   "collection",
	Short: "Inspect and manage a project's vector collection",
}

var collectionInfoCmd = &cobra.Command{
	Use:   "info [project-id]",
	Short: "Show the project's collection details",
	Args:  cobra.ExactArgs(1),
	RunE:  runCollectionInfo,
}

var collectionResetCmd = &cobra.Command{
	Use:   "reset [project-id]",
	Short: "Delete the project's collection",
	Long: `Drops the project's vector collection. Stored chunks are untouched,
so a following index run rebuilds the collection from scratch.`,
	Args: cobra.ExactArgs(1),
	RunE: runCollectionReset,
}

func init() {
	collectionCmd.AddCommand(collectionInfoCmd, collectionResetCmd)
	rootCmd.AddCommand(collectionCmd)
}

func runCollectionInfo(cmd *cobra.Command, args []string) error {
	if err := initServices(); err != nil {
		return exitError(err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := vectorStore.Connect(ctx); err != nil {
		return exitError(fmt.Errorf("connect vector store: %w", err))
	}

	name := domain.CollectionName(args[0])
	info, err := vectorStore.CollectionInfo(ctx, name)
	if err != nil {
		if errors.Is(err, domain.ErrCollectionNotFound) {
			cmd.Printf("Project %s has no collection yet. Run 'ragpipe index %s' first.\n", args[0], args[0])
			return nil
		}
		return exitError(fmt.Errorf("collection info: %w", err))
	}

	cmd.Printf("Collection: %s\n", info.Name)
	cmd.Printf("  Vector size: %d\n", info.VectorSize)
	cmd.Printf("  Distance:    %s\n", info.Distance)
	cmd.Printf("  Points:      %d\n", info.PointCount)
	return nil
}

func runCollectionReset(cmd *cobra.Command, args []string) error {
	if err := initServices(); err != nil {
		return exitError(err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := vectorStore.Connect(ctx); err != nil {
		return exitError(fmt.Errorf("connect vector store: %w", err))
	}

	name := domain.CollectionName(args[0])
	if err := vectorStore.DeleteCollection(ctx, name); err != nil {
		if errors.Is(err, domain.ErrCollectionNotFound) {
			cmd.Printf("Project %s has no collection.\n", args[0])
			return nil
		}
		return exitError(fmt.Errorf("delete collection: %w", err))
	}

	cmd.Printf("Deleted collection %s\n", name)
	return nil
}
