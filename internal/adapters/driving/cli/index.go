package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	indexReset  bool
	indexDetach bool
)

var indexCmd = &cobra.Command{
	Use:   "index [project-id]",
	Short: "Index a project's chunks into the vector database",
	Long: `Pushes an indexing job for the project and reports its progress.
Chunks are embedded page by page and upserted into the project's
collection, so re-running the command refreshes existing vectors
instead of duplicating them. With --reset the collection is dropped
and rebuilt from scratch.`,
	Args: cobra.ExactArgs(1),
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&indexReset, "reset", false, "drop and recreate the collection before indexing")
	indexCmd.Flags().BoolVar(&indexDetach, "detach", false, "enqueue the job and exit without waiting")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	projectID := args[0]

	if err := initServices(); err != nil {
		return exitError(err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	jobID, err := dispatcher.Submit(ctx, projectID, indexReset)
	if err != nil {
		return exitError(fmt.Errorf("submit indexing job: %w", err))
	}
	cmd.Printf("Job %s queued for project %s\n", jobID, projectID)

	if indexDetach {
		return nil
	}

	status, err := dispatcher.Wait(ctx, jobID)
	if err != nil {
		return exitError(fmt.Errorf("wait for job: %w", err))
	}

	return printJobStatus(cmd, status.JobID, status.ProjectID, string(status.State),
		string(status.Meta.Signal), status.Meta.InsertedCount, status.Meta.Error)
}

// printJobStatus renders a terminal job snapshot and returns an error
// for failed jobs so the process exits non-zero.
func printJobStatus(cmd *cobra.Command, jobID, projectID, state, signal string, inserted int, errMsg string) error {
	cmd.Printf("Job %s for project %s: %s\n", jobID, projectID, state)
	if signal != "" {
		cmd.Printf("  Signal:   %s\n", signal)
	}
	cmd.Printf("  Inserted: %d\n", inserted)
	if errMsg != "" {
		cmd.Printf("  Error:    %s\n", errMsg)
		return fmt.Errorf("indexing failed: %s", errMsg)
	}
	return nil
}
