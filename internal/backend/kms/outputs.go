//go:build linux

package kms

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/signal-slot/mcp-screenshot/internal/backend"
	"github.com/signal-slot/mcp-screenshot/internal/drm"
)

// device is the slice of drm.Card the engine runs on. Tests substitute a
// fake to drive the walker and reader without hardware.
type device interface {
	Path() string
	Resources() (*drm.Resources, error)
	Connector(id uint32) (*drm.Connector, error)
	Encoder(id uint32) (*drm.Encoder, error)
	CRTC(id uint32) (*drm.CRTC, error)
	FramebufferV2(id uint32) (*drm.FramebufferV2, error)
	FramebufferLegacy(id uint32) (*drm.FramebufferLegacy, error)
	MapBuffer(handle uint32, size int) ([]byte, func(), error)
	CloseBuffer(handle uint32) error
	SupportsPrimeExport() bool
	Close() error
}

// Output is one active display pipeline observed during a walk: a connected
// connector routed through an encoder to a CRTC with a framebuffer bound.
type Output struct {
	Ordinal   int
	Connector string
	CRTCID    uint32
	FBID      uint32
	X, Y      int
	Width     int
	Height    int
	VRefresh  int
}

// walkOutputs enumerates the active outputs. It re-reads the device on
// every call: connectors hot-plug and page flips rebind framebuffers, so
// nothing from a previous walk can be trusted. Ordinals follow the kernel's
// connector enumeration order, which is stable for a fixed topology.
func walkOutputs(dev device) ([]Output, error) {
	res, err := dev.Resources()
	if err != nil {
		return nil, classify(err, dev.Path())
	}

	var outputs []Output
	for _, id := range res.Connectors {
		conn, err := dev.Connector(id)
		if err != nil {
			if nodeGone(err) {
				return nil, classify(err, dev.Path())
			}
			// A connector that vanished between the resource query and
			// this call is a hot-unplug race, not a failure.
			continue
		}
		if !conn.Connected() || conn.EncoderID == 0 {
			continue
		}

		enc, err := dev.Encoder(conn.EncoderID)
		if err != nil {
			if nodeGone(err) {
				return nil, classify(err, dev.Path())
			}
			continue
		}
		if enc.CRTCID == 0 {
			continue
		}

		crtc, err := dev.CRTC(enc.CRTCID)
		if err != nil {
			if nodeGone(err) {
				return nil, classify(err, dev.Path())
			}
			continue
		}
		if crtc.Mode == nil || crtc.FBID == 0 {
			continue
		}

		outputs = append(outputs, Output{
			Ordinal:   len(outputs),
			Connector: conn.Name(),
			CRTCID:    crtc.ID,
			FBID:      crtc.FBID,
			X:         int(crtc.X),
			Y:         int(crtc.Y),
			Width:     int(crtc.Mode.Width),
			Height:    int(crtc.Mode.Height),
			VRefresh:  int(crtc.Mode.VRefresh),
		})
	}
	return outputs, nil
}

func nodeGone(err error) bool {
	return errors.Is(err, unix.ENODEV) || errors.Is(err, unix.ENXIO)
}

// classify maps raw ioctl errors onto the backend error kinds.
func classify(err error, path string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, unix.EPERM) || errors.Is(err, unix.EACCES):
		return permissionErr(path)
	case nodeGone(err):
		return fmt.Errorf("%w: %v", backend.ErrDeviceLost, err)
	default:
		return err
	}
}

func permissionErr(path string) error {
	return fmt.Errorf("%w: framebuffer access on %s requires DRM master or CAP_SYS_ADMIN (try: sudo setcap cap_sys_admin+ep mcp-screenshot)",
		backend.ErrPermission, path)
}
