package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragpipe/internal/core/domain"
)

var (
	askLimit int
	askJSON  bool
	askShow  bool
)

var askCmd = &cobra.Command{
	Use:   "ask [project-id] [question]",
	Short: "Ask a question against a project's indexed chunks",
	Long: `Embeds the question, retrieves the most relevant chunks from the
project's collection, and generates an answer grounded in them.`,
	Args: cobra.ExactArgs(2),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().IntVarP(&askLimit, "limit", "n", 0, "maximum number of chunks to retrieve")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	askCmd.Flags().BoolVar(&askShow, "show-prompt", false, "print the assembled prompt alongside the answer")
	rootCmd.AddCommand(askCmd)
}

// jsonAnswer is the JSON output shape. All three fields are null when
// the project holds no relevant knowledge.
type jsonAnswer struct {
	Answer      *string              `json:"answer"`
	FullPrompt  *string              `json:"full_prompt"`
	ChatHistory []domain.ChatMessage `json:"chat_history"`
}

func runAsk(cmd *cobra.Command, args []string) error {
	projectID, question := args[0], args[1]

	if err := initServices(); err != nil {
		return exitError(err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	answer, err := answerService.AnswerQuery(ctx, projectID, question, askLimit)
	if err != nil {
		return exitError(fmt.Errorf("answer query: %w", err))
	}

	if askJSON {
		return outputAnswerJSON(cmd, answer)
	}

	if answer == nil {
		cmd.Println("No relevant knowledge found for this project.")
		return nil
	}

	cmd.Println(answer.Text)
	if askShow {
		cmd.Println()
		cmd.Println("--- prompt ---")
		cmd.Println(answer.FullPrompt)
	}
	return nil
}

func outputAnswerJSON(cmd *cobra.Command, answer *domain.Answer) error {
	out := jsonAnswer{}
	if answer != nil {
		out.Answer = &answer.Text
		out.FullPrompt = &answer.FullPrompt
		out.ChatHistory = answer.ChatHistory
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal answer: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
