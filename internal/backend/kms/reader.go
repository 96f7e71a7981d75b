//go:build linux

package kms

import (
	"fmt"
	"image"

	"github.com/signal-slot/mcp-screenshot/internal/backend"
	"github.com/signal-slot/mcp-screenshot/internal/drm"
)

// framebuffer is a resolved scanout buffer, alive only for a single
// capture. Handles lists every distinct GEM handle the resolve acquired;
// the caller must release them with closeHandles when done.
type framebuffer struct {
	Width, Height int
	Format        uint32
	Modifier      uint64
	ModifierValid bool
	Pitch         int
	Offset        int
	Handle        uint32
	Handles       []uint32
}

// resolveFramebuffer looks a framebuffer object up, preferring the
// modifier-aware query and falling back to the legacy one on drivers that
// lack it. A blanked plane handle means the kernel refused buffer access to
// an unprivileged caller.
func resolveFramebuffer(dev device, fbID uint32) (*framebuffer, error) {
	fb2, err := dev.FramebufferV2(fbID)
	if err == nil {
		if fb2.Handles[0] == 0 {
			return nil, permissionErr(dev.Path())
		}
		return &framebuffer{
			Width:         int(fb2.Width),
			Height:        int(fb2.Height),
			Format:        fb2.PixelFormat,
			Modifier:      fb2.Modifier,
			ModifierValid: fb2.ModifierValid,
			Pitch:         int(fb2.Pitches[0]),
			Offset:        int(fb2.Offsets[0]),
			Handle:        fb2.Handles[0],
			Handles:       distinctHandles(fb2.Handles),
		}, nil
	}

	// Older drivers lack GETFB2 entirely; the exact errno varies, so any
	// failure falls through to the legacy query, whose own error is then
	// authoritative.
	legacy, lerr := dev.FramebufferLegacy(fbID)
	if lerr != nil {
		return nil, classify(lerr, dev.Path())
	}
	if legacy.Handle == 0 {
		return nil, permissionErr(dev.Path())
	}

	format, ok := legacyFormat(legacy.BPP, legacy.Depth)
	if !ok {
		return nil, &backend.PixelFormatError{
			Format: fmt.Sprintf("bpp=%d depth=%d", legacy.BPP, legacy.Depth),
		}
	}
	return &framebuffer{
		Width:   int(legacy.Width),
		Height:  int(legacy.Height),
		Format:  format,
		Pitch:   int(legacy.Pitch),
		Handle:  legacy.Handle,
		Handles: []uint32{legacy.Handle},
	}, nil
}

// legacyFormat maps the pre-fourcc bpp/depth pairs onto format codes.
func legacyFormat(bpp, depth uint32) (uint32, bool) {
	switch {
	case bpp == 32 && depth == 24:
		return drm.FormatXRGB8888, true
	case bpp == 32 && depth == 32:
		return drm.FormatARGB8888, true
	case bpp == 16 && depth == 16:
		return drm.FormatRGB565, true
	}
	return 0, false
}

func distinctHandles(handles [4]uint32) []uint32 {
	var out []uint32
	for _, h := range handles {
		if h == 0 {
			continue
		}
		seen := false
		for _, o := range out {
			if o == h {
				seen = true
				break
			}
		}
		if !seen {
			out = append(out, h)
		}
	}
	return out
}

// readFramebuffer maps the buffer, copies the pixels out, and decodes them
// to RGBA. Non-linear modifiers are rejected before any mapping happens: a
// tiled buffer read linearly would produce scrambled pixels, not a degraded
// image. The mapping is released before decoding so no exit path leaks it.
func readFramebuffer(dev device, fb *framebuffer) (*image.RGBA, error) {
	if fb.ModifierValid && fb.Modifier != drm.ModifierLinear {
		return nil, &backend.TilingError{Modifier: fb.Modifier}
	}

	// All decodable formats are single-plane, so plane 0's pitch covers the
	// whole image. Multi-plane formats reach the decoder and are rejected
	// there by fourcc.
	length := fb.Pitch * fb.Height
	data, release, err := dev.MapBuffer(fb.Handle, fb.Offset+length)
	if err != nil {
		return nil, classify(err, dev.Path())
	}
	pixels := make([]byte, length)
	copy(pixels, data[fb.Offset:])
	release()

	return DecodeRGBA(pixels, fb.Width, fb.Height, fb.Pitch, fb.Format)
}
