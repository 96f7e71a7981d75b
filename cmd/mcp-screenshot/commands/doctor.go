package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/signal-slot/mcp-screenshot/internal/backend"
	"github.com/signal-slot/mcp-screenshot/internal/backend/desktop"
	"github.com/signal-slot/mcp-screenshot/internal/backend/kms"
	"github.com/signal-slot/mcp-screenshot/internal/logger"
	"github.com/signal-slot/mcp-screenshot/internal/tools"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose backend selection and capture readiness",
	Long: `Check which capture backend would be selected and whether it can
actually capture on this machine.

For the kms backend every candidate DRM node is probed: the node must
expose KMS mode-setting, support PRIME buffer export and drive at least
one connected output. For the desktop backend the display session is
checked by enumerating monitors.`,
	Example: `  # Check what "serve" would pick up
  mcp-screenshot doctor

  # Check a specific DRM node
  mcp-screenshot doctor --backend kms --device /dev/dri/card1`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	sig := backend.DetectSignals(cfg.Backend)
	variant, err := backend.SelectVariant(sig)
	if err != nil {
		return err
	}

	override := sig.Override
	if override == "" {
		override = "(none)"
	}
	fmt.Println("Backend selection:")
	fmt.Printf("  override:        %s\n", override)
	fmt.Printf("  display server:  %s\n", describeDisplayEnv())
	fmt.Printf("  active KMS:      %v\n", sig.ActiveKMS)
	fmt.Printf("  selected:        %s\n", variant)
	fmt.Println()

	var healthy bool
	switch variant {
	case backend.VariantKMS:
		healthy = doctorKMS(cfg.Device)
	default:
		healthy = doctorDesktop()
	}

	fmt.Println()
	fmt.Printf("MCP tools served: %s\n", strings.Join(tools.Names(variant), ", "))

	if !healthy {
		return fmt.Errorf("the %s backend cannot capture on this machine", variant)
	}
	fmt.Printf("✅ The %s backend is ready\n", variant)
	return nil
}

func describeDisplayEnv() string {
	display := os.Getenv("DISPLAY")
	wayland := os.Getenv("WAYLAND_DISPLAY")
	switch {
	case display != "" && wayland != "":
		return fmt.Sprintf("yes (DISPLAY=%s, WAYLAND_DISPLAY=%s)", display, wayland)
	case display != "":
		return fmt.Sprintf("yes (DISPLAY=%s)", display)
	case wayland != "":
		return fmt.Sprintf("yes (WAYLAND_DISPLAY=%s)", wayland)
	default:
		return "no (DISPLAY and WAYLAND_DISPLAY are unset)"
	}
}

func doctorKMS(devicePath string) bool {
	fmt.Println("DRM nodes:")
	results := kms.ProbeAll(devicePath)
	if len(results) == 0 {
		fmt.Println("  ❌ no /dev/dri/card* nodes found")
		return false
	}

	healthy := false
	for _, res := range results {
		if res.Err != nil {
			fmt.Printf("  ❌ %s: %v\n", res.Path, res.Err)
			continue
		}
		fmt.Printf("  ✅ %s: %d connected output(s)\n", res.Path, res.Outputs)
		if res.Note != "" {
			fmt.Printf("     captures will fail: %s\n", res.Note)
		}
		healthy = true
	}
	return healthy
}

func doctorDesktop() bool {
	fmt.Println("Desktop session:")
	d, err := desktop.New()
	if err != nil {
		fmt.Printf("  ❌ %v\n", err)
		return false
	}
	defer d.Close()

	monitors, err := d.ListMonitors()
	if err != nil {
		fmt.Printf("  ❌ %v\n", err)
		return false
	}
	for _, m := range monitors {
		primary := ""
		if m.IsPrimary {
			primary = " (primary)"
		}
		fmt.Printf("  ✅ monitor %d: %s %dx%d at %d,%d%s\n",
			m.ID, m.Name, m.Width, m.Height, m.X, m.Y, primary)
	}

	if _, err := d.ListWindows(); err != nil {
		fmt.Printf("  window tools:  unavailable (%v)\n", err)
	} else {
		fmt.Println("  window tools:  available")
	}
	return true
}
