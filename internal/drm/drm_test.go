//go:build linux

package drm

import "testing"

// Request codes must match the values the kernel computes from the uapi
// headers; a mismatch means a struct layout drifted.
func TestIoctlRequestCodes(t *testing.T) {
	tests := []struct {
		name string
		got  uintptr
		want uintptr
	}{
		{"DRM_IOCTL_GET_CAP", ioctlGetCap, 0xc010640c},
		{"DRM_IOCTL_GEM_CLOSE", ioctlGemClose, 0x40086409},
		{"DRM_IOCTL_PRIME_HANDLE_TO_FD", ioctlPrimeHandleToFD, 0xc00c642d},
		{"DRM_IOCTL_MODE_GETRESOURCES", ioctlModeGetResources, 0xc04064a0},
		{"DRM_IOCTL_MODE_GETCRTC", ioctlModeGetCrtc, 0xc06864a1},
		{"DRM_IOCTL_MODE_GETENCODER", ioctlModeGetEncoder, 0xc01464a6},
		{"DRM_IOCTL_MODE_GETCONNECTOR", ioctlModeGetConnector, 0xc05064a7},
		{"DRM_IOCTL_MODE_GETFB", ioctlModeGetFB, 0xc01c64ad},
		{"DRM_IOCTL_MODE_GETFB2", ioctlModeGetFB2, 0xc06864ce},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("request code = %#x, want %#x", tt.got, tt.want)
			}
		})
	}
}

func TestFormatCodes(t *testing.T) {
	tests := []struct {
		name   string
		format uint32
		want   uint32
	}{
		{"XRGB8888", FormatXRGB8888, 0x34325258},
		{"ARGB8888", FormatARGB8888, 0x34325241},
		{"XBGR8888", FormatXBGR8888, 0x34324258},
		{"ABGR8888", FormatABGR8888, 0x34324241},
		{"RGB565", FormatRGB565, 0x36314752},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.format != tt.want {
				t.Errorf("format = %#x, want %#x", tt.format, tt.want)
			}
		})
	}
}

func TestFormatName(t *testing.T) {
	tests := []struct {
		format uint32
		want   string
	}{
		{FormatXRGB8888, "XR24"},
		{FormatRGB565, "RG16"},
		{FourCC('N', 'V', '1', '2'), "NV12"},
		{0x00000001, "0x00000001"},
	}

	for _, tt := range tests {
		if got := FormatName(tt.format); got != tt.want {
			t.Errorf("FormatName(%#x) = %q, want %q", tt.format, got, tt.want)
		}
	}
}

func TestConnectorName(t *testing.T) {
	tests := []struct {
		conn Connector
		want string
	}{
		{Connector{Type: 11, TypeID: 1}, "HDMI-A-1"},
		{Connector{Type: 14, TypeID: 1}, "eDP-1"},
		{Connector{Type: 10, TypeID: 2}, "DP-2"},
		{Connector{Type: 99, TypeID: 1}, "Unknown-1"},
	}

	for _, tt := range tests {
		if got := tt.conn.Name(); got != tt.want {
			t.Errorf("Name() = %q, want %q", got, tt.want)
		}
	}
}

func TestConnectorConnected(t *testing.T) {
	if !(&Connector{Connection: ConnectionConnected}).Connected() {
		t.Error("connected connector reported as not connected")
	}
	if (&Connector{Connection: ConnectionDisconnected}).Connected() {
		t.Error("disconnected connector reported as connected")
	}
	if (&Connector{Connection: ConnectionUnknown}).Connected() {
		t.Error("unknown-state connector reported as connected")
	}
}
