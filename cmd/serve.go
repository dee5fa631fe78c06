package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smartcat-ai/askcat/api"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", api.DefaultAddr, "listen address")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	logger := newLogger()
	logger.Info("starting askcat server", "version", AppVersion)

	a, err := setupApp(ctx, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Warn("shutdown error", "error", closeErr)
		}
	}()

	srv := api.NewServer(api.ServerConfig{
		Assistant: a.Assistant,
		Indexer:   a.Indexer,
		Store:     a.Store,
		Pool:      a.DBPool,
		Logger:    logger,
	})

	if err := srv.Run(ctx, serveAddr); err != nil {
		return fmt.Errorf("HTTP server: %w", err)
	}
	return nil
}
