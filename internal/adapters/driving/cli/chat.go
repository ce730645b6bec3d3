package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragpipe/internal/adapters/driving/tui"
)

var chatLimit int

var chatCmd = &cobra.Command{
	Use:   "chat [project-id]",
	Short: "Chat with a project's indexed chunks",
	Long: `Launches an interactive chat against the project's collection.
Each question is answered with retrieval-augmented generation.

Controls:
  Enter    - Ask
  ↑/↓      - Scroll transcript
  Esc      - Quit`,
	Args: cobra.ExactArgs(1),
	RunE: runChat,
}

func init() {
	chatCmd.Flags().IntVarP(&chatLimit, "limit", "n", 0, "maximum number of chunks to retrieve per question")
	rootCmd.AddCommand(chatCmd)
}

func runChat(_ *cobra.Command, args []string) error {
	if err := initServices(); err != nil {
		return exitError(err)
	}

	model := tui.NewChat(answerService, args[0], chatLimit)
	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("chat interface failed: %w", err)
	}
	return nil
}
