//go:build linux

// Package kms implements the direct framebuffer capture backend for
// headless systems. It walks the DRM mode-setting state to find active
// outputs, maps their scanout buffers through PRIME export, and decodes
// the raw pixels to RGBA, without any display server in the path.
package kms

import (
	"errors"
	"fmt"
	"image"

	"github.com/rs/zerolog"

	"github.com/signal-slot/mcp-screenshot/internal/backend"
	"github.com/signal-slot/mcp-screenshot/internal/drm"
	"github.com/signal-slot/mcp-screenshot/internal/logger"
)

// KMS captures scanout framebuffers straight from a DRM device node. The
// node stays open for the process lifetime; every capture re-walks the
// mode-setting state, so concurrent captures share nothing but the fd.
//
// KMS deliberately has no window methods: a scanout buffer is a flat plane
// of pixels with no window concept behind it.
type KMS struct {
	dev device
	log *zerolog.Logger
}

var _ backend.Backend = (*KMS)(nil)

// New opens a capture-ready DRM device: the pinned node when devicePath is
// non-empty, otherwise the first /dev/dri/card* that passes the probe. By
// the time New runs the process is committed to this backend, so callers
// treat a failure as fatal; the error carries each node's diagnosis.
func New(devicePath string) (*KMS, error) {
	nodes := candidateNodes(devicePath)
	if len(nodes) == 0 {
		return nil, errors.New("no /dev/dri/card* device nodes found (is a KMS display driver loaded?)")
	}

	log := logger.WithComponent("kms")
	var errs []error
	for _, path := range nodes {
		card, err := openCard(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		outputs, note, err := probeDevice(card)
		if err != nil {
			card.Close()
			errs = append(errs, err)
			continue
		}
		if note != "" {
			log.Warn().Str("device", path).Msgf("captures will fail: %s", note)
		}
		log.Info().Str("device", path).Int("outputs", outputs).Msg("KMS capture backend ready")
		return &KMS{dev: card, log: log}, nil
	}
	return nil, fmt.Errorf("no usable KMS device: %w", errors.Join(errs...))
}

func (k *KMS) Variant() backend.Variant {
	return backend.VariantKMS
}

// ListMonitors reports the active outputs from a fresh walk.
func (k *KMS) ListMonitors() ([]backend.MonitorInfo, error) {
	outputs, err := walkOutputs(k.dev)
	if err != nil {
		return nil, err
	}

	monitors := make([]backend.MonitorInfo, len(outputs))
	for i, out := range outputs {
		monitors[i] = backend.MonitorInfo{
			ID:        out.Ordinal,
			Name:      out.Connector,
			X:         out.X,
			Y:         out.Y,
			Width:     out.Width,
			Height:    out.Height,
			IsPrimary: out.Ordinal == 0,
		}
	}
	return monitors, nil
}

// CaptureMonitor grabs one full frame of the given output.
func (k *KMS) CaptureMonitor(id int) (*image.RGBA, error) {
	out, err := k.findOutput(id)
	if err != nil {
		return nil, err
	}
	return k.captureOutput(out)
}

// CaptureRegion grabs a full frame and cuts the requested rectangle out of
// it, strictly bounds-checked.
func (k *KMS) CaptureRegion(id int, x, y, width, height int) (*image.RGBA, error) {
	frame, err := k.CaptureMonitor(id)
	if err != nil {
		return nil, err
	}
	return backend.CropRegion(frame, x, y, width, height)
}

func (k *KMS) Close() error {
	return k.dev.Close()
}

func (k *KMS) findOutput(id int) (*Output, error) {
	outputs, err := walkOutputs(k.dev)
	if err != nil {
		return nil, err
	}
	if len(outputs) == 0 {
		return nil, fmt.Errorf("%w: no active outputs on %s", backend.ErrNoSuchMonitor, k.dev.Path())
	}
	if id < 0 {
		return &outputs[0], nil
	}
	for i := range outputs {
		if outputs[i].Ordinal == id {
			return &outputs[i], nil
		}
	}
	return nil, fmt.Errorf("%w: monitor %d (%d active outputs)", backend.ErrNoSuchMonitor, id, len(outputs))
}

func (k *KMS) captureOutput(out *Output) (*image.RGBA, error) {
	// Re-read the CRTC right before resolving: compositors flip
	// framebuffers every frame, so the FB seen during the walk may already
	// have been replaced.
	fbID := out.FBID
	if crtc, err := k.dev.CRTC(out.CRTCID); err == nil && crtc.FBID != 0 {
		fbID = crtc.FBID
	} else if err != nil && nodeGone(err) {
		return nil, classify(err, k.dev.Path())
	}

	fb, err := resolveFramebuffer(k.dev, fbID)
	if err != nil {
		return nil, err
	}
	defer closeHandles(k.dev, fb)

	img, err := readFramebuffer(k.dev, fb)
	if err != nil {
		return nil, err
	}

	k.log.Debug().
		Str("connector", out.Connector).
		Int("width", fb.Width).
		Int("height", fb.Height).
		Str("format", drm.FormatName(fb.Format)).
		Msg("captured framebuffer")
	return img, nil
}

// closeHandles releases every GEM handle a resolve acquired. Handles also
// die with the device fd, so a failed close leaks nothing past shutdown.
func closeHandles(dev device, fb *framebuffer) {
	for _, h := range fb.Handles {
		_ = dev.CloseBuffer(h)
	}
}
