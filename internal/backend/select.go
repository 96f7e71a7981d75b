package backend

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Signals are the environment observations backend selection decides on.
// They are gathered once at startup.
type Signals struct {
	// Override is the configured backend name; empty selects automatically.
	Override string

	// DisplayServer is true when DISPLAY or WAYLAND_DISPLAY is set.
	DisplayServer bool

	// ActiveKMS is true when a DRM card reports a connected, enabled output
	// through sysfs.
	ActiveKMS bool
}

// DetectSignals gathers selection inputs from the process environment.
// Detection reads environment variables and sysfs attributes only; no
// device node is opened, so it can neither disturb a device nor trip a
// permission check before a variant is committed.
func DetectSignals(override string) Signals {
	return Signals{
		Override:      override,
		DisplayServer: os.Getenv("DISPLAY") != "" || os.Getenv("WAYLAND_DISPLAY") != "",
		ActiveKMS:     drmNodesPresent("/dev/dri") && sysfsActiveOutput("/sys/class/drm"),
	}
}

// SelectVariant picks the capture backend from the signals. First match
// wins: explicit override, display server session, active KMS device,
// desktop fallback. An unrecognized override is a configuration error; it
// never falls through to auto-selection.
func SelectVariant(sig Signals) (Variant, error) {
	switch sig.Override {
	case "":
	case string(VariantDesktop):
		return VariantDesktop, nil
	case string(VariantKMS):
		return VariantKMS, nil
	default:
		return "", fmt.Errorf("%w: unknown backend %q (valid values: %q, %q)",
			ErrBadConfiguration, sig.Override, VariantDesktop, VariantKMS)
	}

	if sig.DisplayServer {
		return VariantDesktop, nil
	}
	if sig.ActiveKMS {
		return VariantKMS, nil
	}
	return VariantDesktop, nil
}

// drmNodesPresent reports whether any /dev/dri/card* node exists.
func drmNodesPresent(dir string) bool {
	nodes, err := filepath.Glob(filepath.Join(dir, "card*"))
	return err == nil && len(nodes) > 0
}

// sysfsActiveOutput scans <root>/card*-*/{status,enabled} for a connector
// that is both connected and enabled. Reading sysfs attributes needs no
// privileges and does not touch the device itself.
func sysfsActiveOutput(root string) bool {
	entries, err := os.ReadDir(root)
	if err != nil {
		return false
	}
	for _, e := range entries {
		name := e.Name()
		// Connector directories look like card0-HDMI-A-1; plain cardN
		// entries are the devices themselves.
		if !strings.HasPrefix(name, "card") || !strings.Contains(name, "-") {
			continue
		}
		status, err := os.ReadFile(filepath.Join(root, name, "status"))
		if err != nil || strings.TrimSpace(string(status)) != "connected" {
			continue
		}
		enabled, err := os.ReadFile(filepath.Join(root, name, "enabled"))
		if err != nil || strings.TrimSpace(string(enabled)) != "enabled" {
			continue
		}
		return true
	}
	return false
}
