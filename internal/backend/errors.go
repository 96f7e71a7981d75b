package backend

import (
	"errors"
	"fmt"
)

// Sentinel errors classifying capture failures. Wrapped errors carry the
// specifics; errors.Is against these picks the kind.
var (
	// ErrBadConfiguration marks unusable configuration, such as an unknown
	// backend override. Fatal at startup, never silently corrected.
	ErrBadConfiguration = errors.New("invalid configuration")

	// ErrPermission marks missing privileges for the selected backend.
	ErrPermission = errors.New("insufficient privileges")

	// ErrDeviceLost marks a display device that disappeared mid-operation.
	// The capture that hit it is abandoned; the caller may simply retry.
	ErrDeviceLost = errors.New("display device lost")

	// ErrUnsupportedFormat marks a framebuffer pixel format the decoder
	// cannot expand to RGBA.
	ErrUnsupportedFormat = errors.New("unsupported pixel format")

	// ErrTiledFramebuffer marks a framebuffer with a non-linear layout
	// modifier. Tiled and compressed buffers are rejected before mapping,
	// never misread as pixel rows.
	ErrTiledFramebuffer = errors.New("tiled framebuffer layout")

	// ErrOutOfBounds marks a capture region that does not lie fully inside
	// its output.
	ErrOutOfBounds = errors.New("region out of bounds")

	ErrNoSuchMonitor = errors.New("no such monitor")
	ErrNoSuchWindow  = errors.New("no such window")
)

// PixelFormatError reports the format that could not be decoded.
type PixelFormatError struct {
	Format string // fourcc rendering, e.g. "NV12"
}

func (e *PixelFormatError) Error() string {
	return fmt.Sprintf("unsupported pixel format %s", e.Format)
}

func (e *PixelFormatError) Is(target error) bool { return target == ErrUnsupportedFormat }

// TilingError reports the layout modifier of a framebuffer that cannot be
// read linearly.
type TilingError struct {
	Modifier uint64
}

func (e *TilingError) Error() string {
	return fmt.Sprintf("framebuffer uses a tiled or compressed layout (modifier %#x); only linear buffers can be captured", e.Modifier)
}

func (e *TilingError) Is(target error) bool { return target == ErrTiledFramebuffer }

// BoundsError reports a region rejected against the frame it was requested
// from.
type BoundsError struct {
	X, Y          int
	Width, Height int
	FrameWidth    int
	FrameHeight   int
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("region %dx%d at (%d, %d) is not fully inside the %dx%d frame",
		e.Width, e.Height, e.X, e.Y, e.FrameWidth, e.FrameHeight)
}

func (e *BoundsError) Is(target error) bool { return target == ErrOutOfBounds }
