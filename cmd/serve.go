package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"graphgate/internal/app"
)

// serveDebug enables verbose logging across the application.
var serveDebug bool

// serveConfigPath is the directory containing config.yaml. Credentials and
// the shared secret always come from the environment regardless.
var serveConfigPath string

// serveCmd starts the HTTP server with the MCP tool endpoint.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the graphgate server",
	Long: `Starts the graphgate HTTP server. It exposes:

  /mcp            MCP tool endpoint (streamable HTTP transport)
  /auth/complete  authentication-completion route (sets the artifact cookie)
  /auth/logout    expires the artifact cookie
  /health         health probe

Required environment:
  GRAPHGATE_TENANT_ID, GRAPHGATE_CLIENT_ID, GRAPHGATE_CLIENT_SECRET,
  GRAPHGATE_SHARED_SECRET

The server holds no per-user state; run as many replicas as you like.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := app.Config{
		Debug:      serveDebug,
		ConfigPath: serveConfigPath,
		Version:    GetVersion(),
	}

	application, err := app.NewApplication(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return application.Run(ctx)
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&serveDebug, "debug", false, "Enable debug logging")
	serveCmd.Flags().StringVar(&serveConfigPath, "config-path", "", "Directory containing config.yaml")
}
