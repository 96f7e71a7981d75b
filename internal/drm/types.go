//go:build linux

package drm

import "fmt"

// Raw structs mirror the kernel uapi layouts (include/uapi/drm). Pointers
// are carried as uint64 so layouts match the kernel on every architecture.

type modeCardRes struct {
	fbIDPtr         uint64
	crtcIDPtr       uint64
	connectorIDPtr  uint64
	encoderIDPtr    uint64
	countFBs        uint32
	countCRTCs      uint32
	countConnectors uint32
	countEncoders   uint32
	minWidth        uint32
	maxWidth        uint32
	minHeight       uint32
	maxHeight       uint32
}

type modeModeinfo struct {
	clock      uint32
	hdisplay   uint16
	hsyncStart uint16
	hsyncEnd   uint16
	htotal     uint16
	hskew      uint16
	vdisplay   uint16
	vsyncStart uint16
	vsyncEnd   uint16
	vtotal     uint16
	vscan      uint16
	vrefresh   uint32
	flags      uint32
	typ        uint32
	name       [32]byte
}

type modeCrtc struct {
	setConnectorsPtr uint64
	countConnectors  uint32
	crtcID           uint32
	fbID             uint32
	x                uint32
	y                uint32
	gammaSize        uint32
	modeValid        uint32
	mode             modeModeinfo
}

type modeGetEncoder struct {
	encoderID      uint32
	encoderType    uint32
	crtcID         uint32
	possibleCrtcs  uint32
	possibleClones uint32
}

type modeGetConnector struct {
	encodersPtr     uint64
	modesPtr        uint64
	propsPtr        uint64
	propValuesPtr   uint64
	countModes      uint32
	countProps      uint32
	countEncoders   uint32
	encoderID       uint32
	connectorID     uint32
	connectorType   uint32
	connectorTypeID uint32
	connection      uint32
	mmWidth         uint32
	mmHeight        uint32
	subpixel        uint32
	pad             uint32
}

type modeFBCmd struct {
	fbID   uint32
	width  uint32
	height uint32
	pitch  uint32
	bpp    uint32
	depth  uint32
	handle uint32
}

type modeFBCmd2 struct {
	fbID        uint32
	width       uint32
	height      uint32
	pixelFormat uint32
	flags       uint32
	handles     [4]uint32
	pitches     [4]uint32
	offsets     [4]uint32
	_           uint32 // pad so modifier keeps its 8-byte kernel alignment on 32-bit ARM
	modifier    [4]uint64
}

type primeHandle struct {
	handle uint32
	flags  uint32
	fd     int32
}

type gemClose struct {
	handle uint32
	pad    uint32
}

type getCap struct {
	capability uint64
	value      uint64
}

// drm_mode_fb_cmd2.flags bit marking the modifier fields as valid.
const fbModifiersFlag = 1 << 1

// DRM_CAP_* capabilities and DRM_PRIME_CAP_* bits.
const (
	CapDumbBuffer  uint64 = 0x1
	CapPrime       uint64 = 0x5
	PrimeCapImport uint64 = 0x1
	PrimeCapExport uint64 = 0x2
)

// Connection states reported by connectors.
const (
	ConnectionConnected    = 1
	ConnectionDisconnected = 2
	ConnectionUnknown      = 3
)

// Resources holds the card's mode-setting object IDs.
type Resources struct {
	FBs        []uint32
	CRTCs      []uint32
	Connectors []uint32
	Encoders   []uint32
	MinWidth   uint32
	MaxWidth   uint32
	MinHeight  uint32
	MaxHeight  uint32
}

// Connector is the physical output side of the pipeline.
type Connector struct {
	ID         uint32
	EncoderID  uint32 // currently bound encoder, 0 when idle
	Type       uint32
	TypeID     uint32
	Connection uint32
	MMWidth    uint32
	MMHeight   uint32
}

// Connected reports whether a display is attached to the connector.
func (c *Connector) Connected() bool {
	return c.Connection == ConnectionConnected
}

// Name renders the libdrm-style connector name, e.g. "HDMI-A-1".
func (c *Connector) Name() string {
	return fmt.Sprintf("%s-%d", connectorTypeName(c.Type), c.TypeID)
}

// Encoder routes a CRTC to a connector.
type Encoder struct {
	ID     uint32
	Type   uint32
	CRTCID uint32 // currently bound CRTC, 0 when idle
}

// Mode is the active display timing, reduced to what capture needs.
type Mode struct {
	Width    uint32
	Height   uint32
	VRefresh uint32
}

// CRTC is the scanout engine state. FBID is 0 when nothing is being
// displayed; Mode is nil when no mode is set.
type CRTC struct {
	ID   uint32
	FBID uint32
	X    uint32
	Y    uint32
	Mode *Mode
}

// FramebufferV2 is a framebuffer resolved via GETFB2: fourcc pixel format,
// per-plane GEM handles, and optionally a layout modifier.
type FramebufferV2 struct {
	ID            uint32
	Width         uint32
	Height        uint32
	PixelFormat   uint32
	Handles       [4]uint32
	Pitches       [4]uint32
	Offsets       [4]uint32
	Modifier      uint64
	ModifierValid bool
}

// FramebufferLegacy is a framebuffer resolved via the older GETFB, which
// predates fourcc formats and modifiers.
type FramebufferLegacy struct {
	ID     uint32
	Width  uint32
	Height uint32
	Pitch  uint32
	BPP    uint32
	Depth  uint32
	Handle uint32
}

// FourCC packs four characters into a little-endian format code.
func FourCC(a, b, c, d byte) uint32 {
	return uint32(a) | uint32(b)<<8 | uint32(c)<<16 | uint32(d)<<24
}

// Pixel formats the capture engine can decode, from drm_fourcc.h.
var (
	FormatXRGB8888 = FourCC('X', 'R', '2', '4')
	FormatARGB8888 = FourCC('A', 'R', '2', '4')
	FormatXBGR8888 = FourCC('X', 'B', '2', '4')
	FormatABGR8888 = FourCC('A', 'B', '2', '4')
	FormatRGB565   = FourCC('R', 'G', '1', '6')
)

// Framebuffer layout modifiers. Anything other than linear means the buffer
// is tiled or compressed and cannot be read as rows of pixels.
const (
	ModifierLinear  uint64 = 0
	ModifierInvalid uint64 = 0x00ffffffffffffff
)

// FormatName renders a format code as its fourcc string ("XR24") or as hex
// when it contains non-printable bytes.
func FormatName(format uint32) string {
	b := [4]byte{byte(format), byte(format >> 8), byte(format >> 16), byte(format >> 24)}
	for _, ch := range b {
		if ch < 0x20 || ch > 0x7e {
			return fmt.Sprintf("0x%08x", format)
		}
	}
	return string(b[:])
}

var connectorTypeNames = []string{
	"Unknown", "VGA", "DVI-I", "DVI-D", "DVI-A", "Composite", "SVIDEO",
	"LVDS", "Component", "DIN", "DP", "HDMI-A", "HDMI-B", "TV", "eDP",
	"Virtual", "DSI", "DPI", "Writeback", "SPI", "USB",
}

func connectorTypeName(t uint32) string {
	if int(t) < len(connectorTypeNames) {
		return connectorTypeNames[t]
	}
	return "Unknown"
}
