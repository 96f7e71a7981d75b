//go:build linux

package kms

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"github.com/signal-slot/mcp-screenshot/internal/backend"
	"github.com/signal-slot/mcp-screenshot/internal/drm"
)

// ProbeResult is the outcome of checking one DRM node for capture
// readiness. Note carries a non-fatal warning: the node works, but the
// first capture will fail for the stated reason.
type ProbeResult struct {
	Path    string
	Outputs int
	Note    string
	Err     error
}

// ProbeAll checks every candidate DRM node and reports a per-node verdict.
// A non-empty devicePath restricts the probe to that node.
func ProbeAll(devicePath string) []ProbeResult {
	var results []ProbeResult
	for _, path := range candidateNodes(devicePath) {
		n, note, err := probeNode(path)
		results = append(results, ProbeResult{Path: path, Outputs: n, Note: note, Err: err})
	}
	return results
}

func candidateNodes(devicePath string) []string {
	if devicePath != "" {
		return []string{devicePath}
	}
	nodes, _ := filepath.Glob("/dev/dri/card*")
	return nodes
}

// openCard opens a node, translating open failures into actionable kinds.
func openCard(path string) (*drm.Card, error) {
	card, err := drm.Open(path)
	if err == nil {
		return card, nil
	}
	switch {
	case errors.Is(err, os.ErrPermission):
		return nil, fmt.Errorf("%w: cannot open %s (add the user to the video group, or grant CAP_SYS_ADMIN)",
			backend.ErrPermission, path)
	case errors.Is(err, unix.EBUSY):
		return nil, fmt.Errorf("%s is busy, another process holds it exclusively: %w", path, err)
	default:
		return nil, err
	}
}

func probeNode(path string) (int, string, error) {
	card, err := openCard(path)
	if err != nil {
		return 0, "", err
	}
	defer card.Close()
	return probeDevice(card)
}

// probeDevice verifies the full capture path against an open device:
// resource query, PRIME export support, an active output, and a resolvable
// framebuffer. Failures distinguish missing privileges from missing
// hardware so the startup error says what to fix.
func probeDevice(dev device) (int, string, error) {
	if _, err := dev.Resources(); err != nil {
		if errors.Is(err, unix.ENOTTY) || errors.Is(err, unix.EOPNOTSUPP) || errors.Is(err, unix.EINVAL) {
			return 0, "", fmt.Errorf("%s does not expose KMS mode-setting (render-only node or non-KMS driver): %v",
				dev.Path(), err)
		}
		return 0, "", classify(err, dev.Path())
	}

	if !dev.SupportsPrimeExport() {
		return 0, "", fmt.Errorf("%s cannot export buffers for CPU access (PRIME export unsupported)", dev.Path())
	}

	outputs, err := walkOutputs(dev)
	if err != nil {
		return 0, "", err
	}
	if len(outputs) == 0 {
		return 0, "", fmt.Errorf("no connected, active output on %s", dev.Path())
	}

	// Resolving one framebuffer surfaces privilege problems now, at
	// startup, instead of on the first capture.
	fb, err := resolveFramebuffer(dev, outputs[0].FBID)
	if err != nil {
		if errors.Is(err, backend.ErrUnsupportedFormat) {
			// The output is real and stays listed; captures of it report
			// the format verdict per request.
			return len(outputs), err.Error(), nil
		}
		return 0, "", err
	}
	defer closeHandles(dev, fb)

	// A buffer the reader will refuse is worth announcing now, even though
	// the output stays listed and the refusal itself happens per capture.
	switch {
	case fb.ModifierValid && fb.Modifier != drm.ModifierLinear:
		return len(outputs), (&backend.TilingError{Modifier: fb.Modifier}).Error(), nil
	case !Decodable(fb.Format):
		return len(outputs), (&backend.PixelFormatError{Format: drm.FormatName(fb.Format)}).Error(), nil
	}
	return len(outputs), "", nil
}
