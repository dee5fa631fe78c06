package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/smartcat-ai/askcat/internal/assistant"
)

var showSources bool

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a one-shot question against the knowledge base",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&showSources, "sources", false, "list the knowledge base entries behind the answer")
	rootCmd.AddCommand(askCmd)
}

func runAsk(_ *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	logger := newLogger()

	a, err := setupApp(ctx, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Warn("shutdown error", "error", closeErr)
		}
	}()

	question := strings.Join(args, " ")
	result, err := a.Assistant.ChatTurn(ctx, []assistant.Message{
		{Role: assistant.RoleUser, Content: question},
	})
	if err != nil {
		return fmt.Errorf("answering question: %w", err)
	}

	fmt.Println(result.Response)

	if showSources && len(result.Sources) > 0 {
		fmt.Println()
		fmt.Println("Sources:")
		for _, s := range result.Sources {
			fmt.Printf("  %s %s (%.2f)\n", s.Type, s.Name, s.Score)
		}
	}
	return nil
}
