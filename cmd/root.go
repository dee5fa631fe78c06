// Package cmd contains the askcat CLI commands.
//
// Following the pattern used by kubectl, hugo, and other standard Go CLI
// tools, all application logic lives here and main.go stays a minimal
// entry point.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/smartcat-ai/askcat/internal/app"
	"github.com/smartcat-ai/askcat/internal/config"
	"github.com/smartcat-ai/askcat/internal/log"
)

var rootCmd = &cobra.Command{
	Use:   "askcat",
	Short: "askcat - retrieval-grounded sales assistant",
	Long: `askcat answers questions about your company's employees, repositories,
and projects, grounded in a pgvector knowledge base.

Run "askcat serve" to start the HTTP API, "askcat index" to build the
knowledge base, or "askcat ask" for a one-shot question.`,
	SilenceUsage: true,
}

// Execute runs the root command. Called from main().
func Execute() error {
	// A local .env is convenient in development; absence is not an error.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "warning: loading .env: %v\n", err)
	}
	return rootCmd.Execute()
}

// newLogger builds the process logger. DEBUG in the environment enables
// debug level.
func newLogger() log.Logger {
	cfg := log.Config{Level: slog.LevelInfo}
	if os.Getenv("DEBUG") != "" {
		cfg.Level = slog.LevelDebug
	}
	logger := log.New(cfg)
	slog.SetDefault(logger)
	return logger
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// setupApp loads configuration and initializes the application.
func setupApp(ctx context.Context, logger log.Logger) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("initializing application: %w", err)
	}
	return a, nil
}
