package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/signal-slot/mcp-screenshot/internal/config"
)

// version is stamped at build time via
// -ldflags "-X .../commands.version=v1.2.3".
var version = "dev"

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "mcp-screenshot",
		Short: "MCP server for desktop and framebuffer screenshots",
		Long: `mcp-screenshot exposes screen capture to MCP clients. It speaks the
Model Context Protocol over stdio or HTTP and captures either through the
desktop session or, on headless machines, straight from the kernel scanout
framebuffer via DRM/KMS.

Features:
  • take_screenshot, take_screenshot_region and list_monitors tools
  • take_screenshot_window and list_windows on desktop sessions
  • direct DRM/KMS framebuffer capture with no display server
  • automatic backend selection with a --backend override`,
		Version: version,
	}
)

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/mcp-screenshot/config.yaml)")
	rootCmd.PersistentFlags().String("backend", "", "capture backend: desktop or kms (default auto-detect)")
	rootCmd.PersistentFlags().String("device", "", "DRM device node for the kms backend (default scans /dev/dri/card*)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "log format (json or console)")

	// Bind flags to viper
	viper.BindPFlag("backend", rootCmd.PersistentFlags().Lookup("backend"))
	viper.BindPFlag("device", rootCmd.PersistentFlags().Lookup("device"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))
}

// loadConfig resolves the effective configuration from defaults, the config
// file, MCP_SCREENSHOT_* environment variables and bound flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(viper.GetViper(), cfgFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
