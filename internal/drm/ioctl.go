//go:build linux

package drm

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// Linux _IOC request encoding: dir(2) | size(14) | type(8) | nr(8).
const (
	iocWrite uintptr = 1
	iocRead  uintptr = 2

	iocNrBits   = 8
	iocTypeBits = 8
	iocSizeBits = 14

	iocNrShift   = 0
	iocTypeShift = iocNrShift + iocNrBits
	iocSizeShift = iocTypeShift + iocTypeBits
	iocDirShift  = iocSizeShift + iocSizeBits

	// All DRM ioctls use the 'd' type.
	drmIoctlBase uintptr = 'd'
)

func ioc(dir, nr, size uintptr) uintptr {
	return dir<<iocDirShift | size<<iocSizeShift | drmIoctlBase<<iocTypeShift | nr<<iocNrShift
}

func iow(nr, size uintptr) uintptr  { return ioc(iocWrite, nr, size) }
func iowr(nr, size uintptr) uintptr { return ioc(iocRead|iocWrite, nr, size) }

// Request codes from drm.h / drm_mode.h. Sizes come from the struct
// definitions in types.go, so a layout mistake would show up as a wrong
// code (covered by tests) instead of silent memory corruption.
var (
	ioctlGetCap            = iowr(0x0c, unsafe.Sizeof(getCap{}))
	ioctlGemClose          = iow(0x09, unsafe.Sizeof(gemClose{}))
	ioctlPrimeHandleToFD   = iowr(0x2d, unsafe.Sizeof(primeHandle{}))
	ioctlModeGetResources  = iowr(0xa0, unsafe.Sizeof(modeCardRes{}))
	ioctlModeGetCrtc       = iowr(0xa1, unsafe.Sizeof(modeCrtc{}))
	ioctlModeGetEncoder    = iowr(0xa6, unsafe.Sizeof(modeGetEncoder{}))
	ioctlModeGetConnector  = iowr(0xa7, unsafe.Sizeof(modeGetConnector{}))
	ioctlModeGetFB         = iowr(0xad, unsafe.Sizeof(modeFBCmd{}))
	ioctlModeGetFB2        = iowr(0xce, unsafe.Sizeof(modeFBCmd2{}))
)

// ioctl issues a request against the card, retrying on EINTR and EAGAIN the
// way libdrm's drmIoctl does.
func (c *Card) ioctl(req uintptr, arg unsafe.Pointer) error {
	fd := c.f.Fd()
	for {
		_, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, req, uintptr(arg))
		if errno == 0 {
			return nil
		}
		if errno == unix.EINTR || errno == unix.EAGAIN {
			continue
		}
		return errno
	}
}
