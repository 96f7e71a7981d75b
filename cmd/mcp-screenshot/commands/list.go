package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/signal-slot/mcp-screenshot/internal/backend"
	"github.com/signal-slot/mcp-screenshot/internal/logger"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List monitors or windows",
	Long: `List the monitors (or windows) the selected capture backend can see.

The same backend selection as "serve" applies, so the output shows exactly
what the MCP tools would operate on. Window listing needs the desktop
backend with an X11 session.`,
	Example: `  # List monitors in table format (default)
  mcp-screenshot list

  # List monitors in JSON format
  mcp-screenshot list --format json

  # List windows instead of monitors
  mcp-screenshot list --windows

  # List framebuffer outputs on a headless box
  mcp-screenshot list --backend kms`,
	RunE: runList,
}

var (
	listFormat  string
	listWindows bool
)

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVarP(&listFormat, "format", "f", "table", "output format (table or json)")
	listCmd.Flags().BoolVarP(&listWindows, "windows", "w", false, "list windows instead of monitors")
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	b, err := openBackend(cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	if listWindows {
		wb, ok := b.(backend.WindowBackend)
		if !ok {
			return fmt.Errorf("the %s backend has no window access (window listing needs a display server)", b.Variant())
		}
		windows, err := wb.ListWindows()
		if err != nil {
			return fmt.Errorf("failed to list windows: %w", err)
		}
		return printWindows(windows)
	}

	monitors, err := b.ListMonitors()
	if err != nil {
		return fmt.Errorf("failed to list monitors: %w", err)
	}
	return printMonitors(monitors)
}

func printMonitors(monitors []backend.MonitorInfo) error {
	switch listFormat {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(monitors)
	case "table":
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		defer w.Flush()

		fmt.Fprintln(w, "ID\tNAME\tPOSITION\tSIZE\tPRIMARY")
		fmt.Fprintln(w, "--\t----\t--------\t----\t-------")
		for _, m := range monitors {
			primary := "No"
			if m.IsPrimary {
				primary = "Yes"
			}
			fmt.Fprintf(w, "%d\t%s\t%d,%d\t%dx%d\t%s\n", m.ID, m.Name, m.X, m.Y, m.Width, m.Height, primary)
		}
		return nil
	default:
		return fmt.Errorf("unsupported format: %s (use 'table' or 'json')", listFormat)
	}
}

func printWindows(windows []backend.WindowInfo) error {
	switch listFormat {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(windows)
	case "table":
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		defer w.Flush()

		fmt.Fprintln(w, "ID\tTITLE\tAPP\tPOSITION\tSIZE\tSTATE")
		fmt.Fprintln(w, "--\t-----\t---\t--------\t----\t-----")
		for _, win := range windows {
			fmt.Fprintf(w, "%#x\t%s\t%s\t%d,%d\t%dx%d\t%s\n",
				win.ID, win.Title, win.AppName, win.X, win.Y, win.Width, win.Height, windowState(win))
		}
		return nil
	default:
		return fmt.Errorf("unsupported format: %s (use 'table' or 'json')", listFormat)
	}
}

func windowState(win backend.WindowInfo) string {
	switch {
	case win.IsMinimized:
		return "minimized"
	case win.IsMaximized:
		return "maximized"
	default:
		return "normal"
	}
}
