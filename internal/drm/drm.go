//go:build linux

// Package drm provides pure Go bindings to the Linux DRM/KMS mode-setting
// API, covering the read-only subset a screen capture engine needs:
// resource enumeration, connector/encoder/CRTC queries, framebuffer lookup,
// and PRIME buffer export for CPU access.
//
// This package does not use cgo, enabling simple cross-compilation for
// different Linux architectures (amd64, arm64, arm).
//
// # Walking the display pipeline
//
// Open a card and follow connector -> encoder -> CRTC to find what is on
// screen:
//
//	card, err := drm.Open("/dev/dri/card0")
//	res, _ := card.Resources()
//	for _, id := range res.Connectors {
//	    conn, _ := card.Connector(id)
//	    if !conn.Connected() || conn.EncoderID == 0 {
//	        continue
//	    }
//	    enc, _ := card.Encoder(conn.EncoderID)
//	    crtc, _ := card.CRTC(enc.CRTCID)
//	    // crtc.FBID is the framebuffer being scanned out
//	}
//
// # Reading framebuffer contents
//
// Resolve the framebuffer, export its GEM handle as a PRIME fd, and map it:
//
//	fb, _ := card.FramebufferV2(crtc.FBID)
//	data, release, _ := card.MapBuffer(fb.Handles[0], int(fb.Pitches[0])*int(fb.Height))
//	defer release()
//	defer card.CloseBuffer(fb.Handles[0])
//
// Framebuffer queries and PRIME export require DRM master or
// CAP_SYS_ADMIN; plain connector and CRTC queries do not.
package drm

import (
	"fmt"
	"os"
	"runtime"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Card is an open DRM device node.
type Card struct {
	f    *os.File
	path string
}

// Open opens a DRM device node such as /dev/dri/card0.
func Open(path string) (*Card, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return &Card{f: f, path: path}, nil
}

// Path returns the device node path the card was opened from.
func (c *Card) Path() string {
	return c.path
}

// Close releases the device node.
func (c *Card) Close() error {
	return c.f.Close()
}

// Resources returns the card's mode-setting object IDs. The two-call count
// dance is retried when a hot-plug grows the arrays between calls.
func (c *Card) Resources() (*Resources, error) {
	for {
		var raw modeCardRes
		if err := c.ioctl(ioctlModeGetResources, unsafe.Pointer(&raw)); err != nil {
			return nil, fmt.Errorf("mode resources query on %s: %w", c.path, err)
		}

		counts := raw
		res := &Resources{
			MinWidth:  raw.minWidth,
			MaxWidth:  raw.maxWidth,
			MinHeight: raw.minHeight,
			MaxHeight: raw.maxHeight,
		}
		if counts.countFBs > 0 {
			res.FBs = make([]uint32, counts.countFBs)
			raw.fbIDPtr = uint64(uintptr(unsafe.Pointer(&res.FBs[0])))
		}
		if counts.countCRTCs > 0 {
			res.CRTCs = make([]uint32, counts.countCRTCs)
			raw.crtcIDPtr = uint64(uintptr(unsafe.Pointer(&res.CRTCs[0])))
		}
		if counts.countConnectors > 0 {
			res.Connectors = make([]uint32, counts.countConnectors)
			raw.connectorIDPtr = uint64(uintptr(unsafe.Pointer(&res.Connectors[0])))
		}
		if counts.countEncoders > 0 {
			res.Encoders = make([]uint32, counts.countEncoders)
			raw.encoderIDPtr = uint64(uintptr(unsafe.Pointer(&res.Encoders[0])))
		}

		err := c.ioctl(ioctlModeGetResources, unsafe.Pointer(&raw))
		runtime.KeepAlive(res)
		if err != nil {
			return nil, fmt.Errorf("mode resources query on %s: %w", c.path, err)
		}

		if raw.countFBs > counts.countFBs || raw.countCRTCs > counts.countCRTCs ||
			raw.countConnectors > counts.countConnectors || raw.countEncoders > counts.countEncoders {
			continue
		}

		res.FBs = res.FBs[:raw.countFBs]
		res.CRTCs = res.CRTCs[:raw.countCRTCs]
		res.Connectors = res.Connectors[:raw.countConnectors]
		res.Encoders = res.Encoders[:raw.countEncoders]
		return res, nil
	}
}

// Connector queries a connector's scalar state. Mode, property, and encoder
// arrays are not fetched; passing zero counts forces the kernel to re-probe
// the connector, so hot-plugged displays show up without a cached stale
// state.
func (c *Card) Connector(id uint32) (*Connector, error) {
	raw := modeGetConnector{connectorID: id}
	if err := c.ioctl(ioctlModeGetConnector, unsafe.Pointer(&raw)); err != nil {
		return nil, fmt.Errorf("connector %d query on %s: %w", id, c.path, err)
	}
	return &Connector{
		ID:         raw.connectorID,
		EncoderID:  raw.encoderID,
		Type:       raw.connectorType,
		TypeID:     raw.connectorTypeID,
		Connection: raw.connection,
		MMWidth:    raw.mmWidth,
		MMHeight:   raw.mmHeight,
	}, nil
}

// Encoder queries an encoder.
func (c *Card) Encoder(id uint32) (*Encoder, error) {
	raw := modeGetEncoder{encoderID: id}
	if err := c.ioctl(ioctlModeGetEncoder, unsafe.Pointer(&raw)); err != nil {
		return nil, fmt.Errorf("encoder %d query on %s: %w", id, c.path, err)
	}
	return &Encoder{
		ID:     raw.encoderID,
		Type:   raw.encoderType,
		CRTCID: raw.crtcID,
	}, nil
}

// CRTC queries a CRTC's current state, including the bound framebuffer and
// display mode.
func (c *Card) CRTC(id uint32) (*CRTC, error) {
	raw := modeCrtc{crtcID: id}
	if err := c.ioctl(ioctlModeGetCrtc, unsafe.Pointer(&raw)); err != nil {
		return nil, fmt.Errorf("crtc %d query on %s: %w", id, c.path, err)
	}
	crtc := &CRTC{
		ID:   raw.crtcID,
		FBID: raw.fbID,
		X:    raw.x,
		Y:    raw.y,
	}
	if raw.modeValid != 0 {
		crtc.Mode = &Mode{
			Width:    uint32(raw.mode.hdisplay),
			Height:   uint32(raw.mode.vdisplay),
			VRefresh: raw.mode.vrefresh,
		}
	}
	return crtc, nil
}

// FramebufferV2 resolves a framebuffer object with format, per-plane
// handles, and layout modifier (GETFB2). Drivers predating the ioctl return
// ENOSYS or EINVAL; callers fall back to FramebufferLegacy. Returned GEM
// handles must be released with CloseBuffer.
func (c *Card) FramebufferV2(id uint32) (*FramebufferV2, error) {
	raw := modeFBCmd2{fbID: id}
	if err := c.ioctl(ioctlModeGetFB2, unsafe.Pointer(&raw)); err != nil {
		return nil, fmt.Errorf("framebuffer %d query on %s: %w", id, c.path, err)
	}
	fb := &FramebufferV2{
		ID:          raw.fbID,
		Width:       raw.width,
		Height:      raw.height,
		PixelFormat: raw.pixelFormat,
		Handles:     raw.handles,
		Pitches:     raw.pitches,
		Offsets:     raw.offsets,
	}
	if raw.flags&fbModifiersFlag != 0 {
		fb.Modifier = raw.modifier[0]
		fb.ModifierValid = true
	}
	return fb, nil
}

// FramebufferLegacy resolves a framebuffer with the pre-GETFB2 ioctl, which
// reports bpp/depth instead of a format code. The returned GEM handle must
// be released with CloseBuffer. Without DRM master or CAP_SYS_ADMIN the
// kernel clears the handle field; callers must treat a zero handle as a
// permission failure.
func (c *Card) FramebufferLegacy(id uint32) (*FramebufferLegacy, error) {
	raw := modeFBCmd{fbID: id}
	if err := c.ioctl(ioctlModeGetFB, unsafe.Pointer(&raw)); err != nil {
		return nil, fmt.Errorf("legacy framebuffer %d query on %s: %w", id, c.path, err)
	}
	return &FramebufferLegacy{
		ID:     raw.fbID,
		Width:  raw.width,
		Height: raw.height,
		Pitch:  raw.pitch,
		BPP:    raw.bpp,
		Depth:  raw.depth,
		Handle: raw.handle,
	}, nil
}

// MapBuffer exports a GEM handle as a PRIME file descriptor and memory-maps
// size bytes of it read-only. The release func unmaps the buffer and closes
// the descriptor; it must be called exactly once.
func (c *Card) MapBuffer(handle uint32, size int) (data []byte, release func(), err error) {
	prime := primeHandle{handle: handle, flags: unix.O_CLOEXEC | unix.O_RDWR}
	if err := c.ioctl(ioctlPrimeHandleToFD, unsafe.Pointer(&prime)); err != nil {
		return nil, nil, fmt.Errorf("prime export of handle %d on %s: %w", handle, c.path, err)
	}

	data, err = unix.Mmap(int(prime.fd), 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		unix.Close(int(prime.fd))
		return nil, nil, fmt.Errorf("mmap of %d bytes from handle %d on %s: %w", size, handle, c.path, err)
	}

	fd := int(prime.fd)
	release = func() {
		unix.Munmap(data)
		unix.Close(fd)
	}
	return data, release, nil
}

// CloseBuffer releases a GEM handle obtained from a framebuffer query.
func (c *Card) CloseBuffer(handle uint32) error {
	raw := gemClose{handle: handle}
	if err := c.ioctl(ioctlGemClose, unsafe.Pointer(&raw)); err != nil {
		return fmt.Errorf("gem close of handle %d on %s: %w", handle, c.path, err)
	}
	return nil
}

// Capability queries a DRM_CAP_* capability value.
func (c *Card) Capability(cap uint64) (uint64, error) {
	raw := getCap{capability: cap}
	if err := c.ioctl(ioctlGetCap, unsafe.Pointer(&raw)); err != nil {
		return 0, fmt.Errorf("capability %#x query on %s: %w", cap, c.path, err)
	}
	return raw.value, nil
}

// SupportsPrimeExport reports whether the driver can export buffers as
// PRIME file descriptors, which buffer mapping depends on.
func (c *Card) SupportsPrimeExport() bool {
	v, err := c.Capability(CapPrime)
	return err == nil && v&PrimeCapExport != 0
}
