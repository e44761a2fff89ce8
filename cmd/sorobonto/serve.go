package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Dawdaborje/sorobonto-backend/bootstrap"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the GraphQL server",
		Long: `Start the GraphQL server.

The server will:
  - Load configuration from sorobonto.yaml (or --config)
  - Apply SOROBONTO_* environment variable overrides
  - Resolve every configured module and compose the schema
  - Serve GraphQL, the playground and /metrics

Environment variables:
  SOROBONTO_APPS            - Comma separated module identifiers
  SOROBONTO_APPS_DIR        - Directory of script modules (default: scripts)
  SOROBONTO_SERVER_ADDR     - Listen address (default: :8080)
  SOROBONTO_LOG_LEVEL       - Log level: debug, info, warn, error
  SOROBONTO_BLOG_DSN        - SQLite DSN of the blog module (default: :memory:)

Examples:
  sorobonto serve
  SOROBONTO_APPS=blog,status sorobonto serve`,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	app, err := bootstrap.New(cfg, bootstrap.Options{})
	if err != nil {
		return fmt.Errorf("error initializing: %w", err)
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Run (blocks until shutdown); modules are closed after it returns
	return app.Run(ctx)
}
