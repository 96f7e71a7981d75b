//go:build linux

package kms

import (
	"errors"
	"image/color"
	"testing"

	"github.com/signal-slot/mcp-screenshot/internal/backend"
	"github.com/signal-slot/mcp-screenshot/internal/drm"
)

func TestDecodeRGBA32BitFormats(t *testing.T) {
	// One pixel of raw bytes 11 22 33 44, read under each channel order.
	src := []byte{0x11, 0x22, 0x33, 0x44}

	tests := []struct {
		name   string
		format uint32
		want   color.RGBA
	}{
		{"XRGB8888", drm.FormatXRGB8888, color.RGBA{0x33, 0x22, 0x11, 0xff}},
		{"ARGB8888", drm.FormatARGB8888, color.RGBA{0x33, 0x22, 0x11, 0x44}},
		{"XBGR8888", drm.FormatXBGR8888, color.RGBA{0x11, 0x22, 0x33, 0xff}},
		{"ABGR8888", drm.FormatABGR8888, color.RGBA{0x11, 0x22, 0x33, 0x44}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := DecodeRGBA(src, 1, 1, 4, tt.format)
			if err != nil {
				t.Fatalf("DecodeRGBA() error = %v", err)
			}
			if got := img.RGBAAt(0, 0); got != tt.want {
				t.Errorf("pixel = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDecodeRGB565(t *testing.T) {
	tests := []struct {
		name string
		raw  uint16
		want color.RGBA
	}{
		{"white widens to full scale", 0xffff, color.RGBA{255, 255, 255, 255}},
		{"black", 0x0000, color.RGBA{0, 0, 0, 255}},
		{"pure red", 0xf800, color.RGBA{255, 0, 0, 255}},
		{"pure green", 0x07e0, color.RGBA{0, 255, 0, 255}},
		{"pure blue", 0x001f, color.RGBA{0, 0, 255, 255}},
		{"mid red replicates high bits", 0x8000, color.RGBA{132, 0, 0, 255}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := []byte{byte(tt.raw), byte(tt.raw >> 8)}
			img, err := DecodeRGBA(src, 1, 1, 2, drm.FormatRGB565)
			if err != nil {
				t.Fatalf("DecodeRGBA() error = %v", err)
			}
			if got := img.RGBAAt(0, 0); got != tt.want {
				t.Errorf("pixel = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDecodeRespectsStride(t *testing.T) {
	// Two rows of two XRGB pixels, rows padded to 16 bytes with poison.
	// The last row stops after its pixels; no padding needed.
	src := []byte{
		1, 2, 3, 0, 4, 5, 6, 0, 0xde, 0xad, 0xbe, 0xef, 0xde, 0xad, 0xbe, 0xef,
		7, 8, 9, 0, 10, 11, 12, 0,
	}

	img, err := DecodeRGBA(src, 2, 2, 16, drm.FormatXRGB8888)
	if err != nil {
		t.Fatalf("DecodeRGBA() error = %v", err)
	}

	want := map[[2]int]color.RGBA{
		{0, 0}: {3, 2, 1, 255},
		{1, 0}: {6, 5, 4, 255},
		{0, 1}: {9, 8, 7, 255},
		{1, 1}: {12, 11, 10, 255},
	}
	for pos, w := range want {
		if got := img.RGBAAt(pos[0], pos[1]); got != w {
			t.Errorf("pixel (%d,%d) = %v, want %v", pos[0], pos[1], got, w)
		}
	}
	if img.Stride != 2*4 {
		t.Errorf("output stride = %d, want tightly packed %d", img.Stride, 2*4)
	}
}

func TestDecodeUnknownFormat(t *testing.T) {
	_, err := DecodeRGBA(make([]byte, 16), 2, 2, 8, drm.FourCC('N', 'V', '1', '2'))
	if !errors.Is(err, backend.ErrUnsupportedFormat) {
		t.Fatalf("error = %v, want ErrUnsupportedFormat", err)
	}
	var pfe *backend.PixelFormatError
	if !errors.As(err, &pfe) {
		t.Fatalf("error %T does not carry the format", err)
	}
	if pfe.Format != "NV12" {
		t.Errorf("Format = %q, want NV12", pfe.Format)
	}
}

func TestDecodeTruncated(t *testing.T) {
	// Needs stride*(h-1) + w*bpp = 8 + 8 = 16 bytes.
	if _, err := DecodeRGBA(make([]byte, 15), 2, 2, 8, drm.FormatXRGB8888); err == nil {
		t.Fatal("DecodeRGBA() with short buffer should fail")
	}
	if _, err := DecodeRGBA(make([]byte, 16), 2, 2, 8, drm.FormatXRGB8888); err != nil {
		t.Fatalf("DecodeRGBA() with exact buffer failed: %v", err)
	}
}

func TestDecodeBadStride(t *testing.T) {
	if _, err := DecodeRGBA(make([]byte, 32), 3, 1, 8, drm.FormatXRGB8888); err == nil {
		t.Fatal("DecodeRGBA() with stride below a row width should fail")
	}
}

func TestDecodable(t *testing.T) {
	for _, f := range []uint32{
		drm.FormatXRGB8888, drm.FormatARGB8888, drm.FormatXBGR8888,
		drm.FormatABGR8888, drm.FormatRGB565,
	} {
		if !Decodable(f) {
			t.Errorf("Decodable(%s) = false, want true", drm.FormatName(f))
		}
	}
	if Decodable(drm.FourCC('N', 'V', '1', '2')) {
		t.Error("Decodable(NV12) = true, want false")
	}
}
