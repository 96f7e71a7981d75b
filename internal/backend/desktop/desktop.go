// Package desktop implements capture through the running display server.
// Monitor geometry and capture go through the shared X screen (XWayland
// included); window operations speak EWMH over the same connection. Pure
// Wayland sessions without an X path fall back to the desktop screenshot
// portal, which can only shoot the whole desktop.
package desktop

import (
	"errors"
	"fmt"
	"image"
	"os"
	"sync"

	"github.com/kbinani/screenshot"
	"github.com/rs/zerolog"

	"github.com/signal-slot/mcp-screenshot/internal/backend"
	"github.com/signal-slot/mcp-screenshot/internal/logger"
)

// Desktop is the display-server capture backend.
type Desktop struct {
	x11 *x11Session // nil when no X server is reachable

	mu     sync.Mutex
	portal *portalClient // lazy, Wayland-only fallback

	log *zerolog.Logger
}

var _ backend.WindowBackend = (*Desktop)(nil)

var errNoWindowPath = errors.New("window operations need an X11 session (native Wayland windows are visible only to the compositor)")

// New connects to the session display server. A missing X server is not
// fatal: Wayland-only sessions still get full-desktop captures through the
// portal, just no window operations.
func New() (*Desktop, error) {
	log := logger.WithComponent("desktop")
	d := &Desktop{log: log}

	x11, err := newX11Session(log)
	if err != nil {
		log.Warn().Err(err).Msg("no X11 connection, window tools unavailable")
	} else {
		d.x11 = x11
	}

	if d.x11 == nil && os.Getenv("WAYLAND_DISPLAY") == "" {
		log.Warn().Msg("neither X11 nor Wayland is reachable, captures will fail")
	}

	log.Info().Bool("x11", d.x11 != nil).Msg("desktop capture backend ready")
	return d, nil
}

func (d *Desktop) Variant() backend.Variant {
	return backend.VariantDesktop
}

// ListMonitors reports the displays the session knows about.
func (d *Desktop) ListMonitors() ([]backend.MonitorInfo, error) {
	n := screenshot.NumActiveDisplays()
	if n == 0 {
		if os.Getenv("WAYLAND_DISPLAY") != "" {
			// The portal exposes no geometry until it takes a shot, so the
			// whole desktop is reported as one display of unknown size.
			return []backend.MonitorInfo{{ID: 0, Name: "portal", IsPrimary: true}}, nil
		}
		return nil, errors.New("no active displays (is a display server running?)")
	}

	monitors := make([]backend.MonitorInfo, 0, n)
	for i := 0; i < n; i++ {
		b := screenshot.GetDisplayBounds(i)
		monitors = append(monitors, backend.MonitorInfo{
			ID:        i,
			Name:      fmt.Sprintf("display-%d", i),
			X:         b.Min.X,
			Y:         b.Min.Y,
			Width:     b.Dx(),
			Height:    b.Dy(),
			IsPrimary: i == 0,
		})
	}
	return monitors, nil
}

// CaptureMonitor grabs one full display. Negative ids mean the primary
// display.
func (d *Desktop) CaptureMonitor(id int) (*image.RGBA, error) {
	n := screenshot.NumActiveDisplays()
	if n == 0 {
		return d.capturePortal(id)
	}
	if id < 0 {
		id = 0
	}
	if id >= n {
		return nil, fmt.Errorf("%w: monitor %d (%d active displays)", backend.ErrNoSuchMonitor, id, n)
	}

	img, err := screenshot.CaptureRect(screenshot.GetDisplayBounds(id))
	if err != nil {
		return nil, fmt.Errorf("capture display %d: %w", id, err)
	}
	return img, nil
}

// CaptureRegion grabs a full display and cuts the requested rectangle out
// of it, strictly bounds-checked.
func (d *Desktop) CaptureRegion(id, x, y, width, height int) (*image.RGBA, error) {
	frame, err := d.CaptureMonitor(id)
	if err != nil {
		return nil, err
	}
	return backend.CropRegion(frame, x, y, width, height)
}

// ListWindows enumerates the session's windows over X11.
func (d *Desktop) ListWindows() ([]backend.WindowInfo, error) {
	if d.x11 == nil {
		return nil, errNoWindowPath
	}
	return d.x11.listWindows()
}

// CaptureWindow grabs one window's content over X11.
func (d *Desktop) CaptureWindow(id uint32) (*image.RGBA, error) {
	if d.x11 == nil {
		return nil, errNoWindowPath
	}
	return d.x11.captureWindow(id)
}

func (d *Desktop) Close() error {
	if d.x11 != nil {
		d.x11.close()
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.portal != nil {
		return d.portal.close()
	}
	return nil
}

// capturePortal is the no-X path: the compositor takes the shot. The
// portal has no notion of individual monitors, so only the primary/default
// selection is honored.
func (d *Desktop) capturePortal(id int) (*image.RGBA, error) {
	if os.Getenv("WAYLAND_DISPLAY") == "" {
		return nil, errors.New("no active displays (is a display server running?)")
	}
	if id > 0 {
		return nil, fmt.Errorf("%w: monitor %d (the screenshot portal captures the whole desktop only)", backend.ErrNoSuchMonitor, id)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.portal == nil {
		p, err := newPortalClient(d.log)
		if err != nil {
			return nil, err
		}
		d.portal = p
	}
	return d.portal.capture()
}
