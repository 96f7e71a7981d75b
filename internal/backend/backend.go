// Package backend defines the capture backend abstraction: the interfaces
// tools capture through, the selection policy that picks one of the two
// variants at startup, and the error kinds captures fail with.
package backend

import "image"

// Variant identifies which capture backend a process committed to at
// startup. There are exactly two; the choice never changes while running.
type Variant string

const (
	// VariantDesktop captures through a display server or portal.
	VariantDesktop Variant = "desktop"
	// VariantKMS reads scanout framebuffers directly from DRM/KMS.
	VariantKMS Variant = "kms"
)

// MonitorInfo describes one active output.
type MonitorInfo struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	IsPrimary bool   `json:"is_primary"`
}

// WindowInfo describes one top-level window. Only the desktop variant can
// produce these.
type WindowInfo struct {
	ID          uint32 `json:"id"`
	Title       string `json:"title"`
	AppName     string `json:"app_name"`
	X           int    `json:"x"`
	Y           int    `json:"y"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	IsMinimized bool   `json:"is_minimized"`
	IsMaximized bool   `json:"is_maximized"`
}

// Backend is the capture surface both variants provide. Captures return
// tightly packed RGBA frames. Implementations must tolerate concurrent
// calls; a capture observes the output state at the moment it runs.
type Backend interface {
	Variant() Variant

	// ListMonitors enumerates active outputs, re-observed on every call so
	// hot-plugged displays appear without a restart.
	ListMonitors() ([]MonitorInfo, error)

	// CaptureMonitor grabs a full frame of one output. A negative id means
	// the primary (first) output.
	CaptureMonitor(id int) (*image.RGBA, error)

	// CaptureRegion grabs a sub-rectangle of one output. The rectangle must
	// lie fully inside the output; no clamping is performed.
	CaptureRegion(id int, x, y, width, height int) (*image.RGBA, error)

	Close() error
}

// WindowBackend extends Backend with window operations. Only the desktop
// variant implements it: a KMS scanout buffer has no window concept, so the
// methods do not exist there rather than existing and failing.
type WindowBackend interface {
	Backend

	ListWindows() ([]WindowInfo, error)
	CaptureWindow(id uint32) (*image.RGBA, error)
}
