package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List known projects",
	Args:  cobra.NoArgs,
	RunE:  runProjects,
}

func init() {
	rootCmd.AddCommand(projectsCmd)
}

func runProjects(cmd *cobra.Command, _ []string) error {
	if err := initStores(); err != nil {
		return exitError(err)
	}

	ctx := context.Background()
	projects, err := projectStore.List(ctx)
	if err != nil {
		return exitError(fmt.Errorf("list projects: %w", err))
	}

	if len(projects) == 0 {
		cmd.Println("No projects yet. Import chunks with 'ragpipe chunks import'.")
		return nil
	}

	for _, p := range projects {
		count, err := chunkStore.TotalCount(ctx, p.ID)
		if err != nil {
			return exitError(fmt.Errorf("count chunks: %w", err))
		}
		cmd.Printf("  %s  (%d chunks)\n", p.ID, count)
	}
	return nil
}
