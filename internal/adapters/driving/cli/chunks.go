package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragpipe/internal/core/domain"
)

var chunksFile string

var chunksCmd = &cobra.Command{
	Use:   "chunks",
	Short: "Manage a project's stored text chunks",
}

var chunksImportCmd = &cobra.Command{
	Use:   "import [project-id]",
	Short: "Import chunks from an NDJSON file",
	Long: `Reads newline-delimited JSON records of the form

  {"text": "...", "metadata": {...}}

and stores them as chunks of the project. Pass --file - to read from
standard input.`,
	Args: cobra.ExactArgs(1),
	RunE: runChunksImport,
}

var chunksCountCmd = &cobra.Command{
	Use:   "count [project-id]",
	Short: "Print the number of stored chunks",
	Args:  cobra.ExactArgs(1),
	RunE:  runChunksCount,
}

var chunksClearCmd = &cobra.Command{
	Use:   "clear [project-id]",
	Short: "Delete all stored chunks of a project",
	Args:  cobra.ExactArgs(1),
	RunE:  runChunksClear,
}

func init() {
	chunksImportCmd.Flags().StringVarP(&chunksFile, "file", "f", "", "NDJSON file to import (- for stdin)")
	chunksImportCmd.MarkFlagRequired("file") //nolint:errcheck
	chunksCmd.AddCommand(chunksImportCmd, chunksCountCmd, chunksClearCmd)
	rootCmd.AddCommand(chunksCmd)
}

// chunkRecord is one NDJSON import line.
type chunkRecord struct {
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata"`
}

func runChunksImport(cmd *cobra.Command, args []string) error {
	projectID := args[0]

	if err := initStores(); err != nil {
		return exitError(err)
	}

	ctx := context.Background()
	if _, err := projectStore.GetOrCreate(ctx, projectID); err != nil {
		return exitError(fmt.Errorf("resolve project: %w", err))
	}

	in := os.Stdin
	if chunksFile != "-" {
		f, err := os.Open(chunksFile)
		if err != nil {
			return fmt.Errorf("open %s: %w", chunksFile, err)
		}
		defer f.Close()
		in = f
	}

	var chunks []domain.Chunk
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		var rec chunkRecord
		if err := json.Unmarshal([]byte(text), &rec); err != nil {
			return fmt.Errorf("line %d: invalid JSON: %w", line, err)
		}
		if strings.TrimSpace(rec.Text) == "" {
			return fmt.Errorf("line %d: %w: missing \"text\" field", line, domain.ErrInvalidInput)
		}

		chunks = append(chunks, domain.Chunk{
			ProjectID: projectID,
			Text:      rec.Text,
			Metadata:  rec.Metadata,
		})
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	inserted, err := chunkStore.InsertMany(ctx, chunks)
	if err != nil {
		return exitError(fmt.Errorf("store chunks: %w", err))
	}

	cmd.Printf("Imported %d chunk(s) into project %s\n", inserted, projectID)
	return nil
}

func runChunksCount(cmd *cobra.Command, args []string) error {
	if err := initStores(); err != nil {
		return exitError(err)
	}

	count, err := chunkStore.TotalCount(context.Background(), args[0])
	if err != nil {
		return exitError(fmt.Errorf("count chunks: %w", err))
	}

	cmd.Printf("%d\n", count)
	return nil
}

func runChunksClear(cmd *cobra.Command, args []string) error {
	if err := initStores(); err != nil {
		return exitError(err)
	}

	deleted, err := chunkStore.DeleteByProject(context.Background(), args[0])
	if err != nil {
		return exitError(fmt.Errorf("delete chunks: %w", err))
	}

	cmd.Printf("Deleted %d chunk(s) from project %s\n", deleted, args[0])
	return nil
}
