package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/signal-slot/mcp-screenshot/internal/api"
	"github.com/signal-slot/mcp-screenshot/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP screenshot server",
	Long: `Start the MCP server and expose the screenshot tools.

The capture backend is chosen once at startup: an explicit --backend wins,
then a running display server (DISPLAY or WAYLAND_DISPLAY), then a DRM
device with a connected output. Window tools are only registered when the
desktop backend is active.

On the stdio transport all logging goes to stderr; stdout carries the
protocol.`,
	Example: `  # Serve on stdio for an MCP client
  mcp-screenshot serve

  # Serve over HTTP on port 8080
  mcp-screenshot serve --transport http --http-addr :8080

  # Force framebuffer capture on a headless box
  mcp-screenshot serve --backend kms --device /dev/dri/card1

  # Start with debug logging
  mcp-screenshot serve --log-level debug`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("transport", "", "MCP transport: stdio or http (default stdio)")
	serveCmd.Flags().String("http-addr", "", "listen address for the http transport (default :8080)")

	viper.BindPFlag("transport", serveCmd.Flags().Lookup("transport"))
	viper.BindPFlag("http_addr", serveCmd.Flags().Lookup("http-addr"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger.Init(cfg.LogLevel, cfg.LogFormat)
	log := logger.WithComponent("main")

	b, err := openBackend(cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := api.New(cfg, b, version)
	if err := srv.Run(ctx); err != nil {
		return err
	}

	log.Info().Msg("shut down cleanly")
	return nil
}
