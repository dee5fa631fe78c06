package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Rebuild the knowledge base from the data directory",
	Long: `Reads employees.json, repositories.json, and projects.json from the
configured data directory, embeds every record, and atomically replaces
the knowledge base contents.`,
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(_ *cobra.Command, _ []string) error {
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

	count, err := a.Indexer.Reindex(ctx)
	if err != nil {
		return fmt.Errorf("reindexing: %w", err)
	}

	fmt.Printf("Indexed %d entities from %s\n", count, a.Config.DataDir)
	return nil
}
