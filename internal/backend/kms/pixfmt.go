//go:build linux

package kms

import (
	"fmt"
	"image"

	"github.com/signal-slot/mcp-screenshot/internal/backend"
	"github.com/signal-slot/mcp-screenshot/internal/drm"
)

// channelOrder gives the byte positions of each channel within a 32-bit
// little-endian pixel. a < 0 means the byte is padding and the output is
// forced opaque.
type channelOrder struct {
	r, g, b, a int
}

var orders32 = map[uint32]channelOrder{
	drm.FormatXRGB8888: {r: 2, g: 1, b: 0, a: -1},
	drm.FormatARGB8888: {r: 2, g: 1, b: 0, a: 3},
	drm.FormatXBGR8888: {r: 0, g: 1, b: 2, a: -1},
	drm.FormatABGR8888: {r: 0, g: 1, b: 2, a: 3},
}

// Decodable reports whether the decoder can expand a pixel format. This is
// the only format gate in the engine; everything upstream hands buffers
// through and lets the decoder give the verdict.
func Decodable(format uint32) bool {
	if _, ok := orders32[format]; ok {
		return true
	}
	return format == drm.FormatRGB565
}

// DecodeRGBA expands a linear framebuffer into a tightly packed RGBA image.
// src holds height rows of stride bytes (the last row may stop after width
// pixels). Only width pixels are read per row, so row padding never leaks
// into the output.
func DecodeRGBA(src []byte, width, height, stride int, format uint32) (*image.RGBA, error) {
	order, is32 := orders32[format]
	if !is32 && format != drm.FormatRGB565 {
		return nil, &backend.PixelFormatError{Format: drm.FormatName(format)}
	}

	bpp := 4
	if format == drm.FormatRGB565 {
		bpp = 2
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid framebuffer geometry %dx%d", width, height)
	}
	if stride < width*bpp {
		return nil, fmt.Errorf("stride %d too small for %d %s pixels", stride, width, drm.FormatName(format))
	}
	if need := stride*(height-1) + width*bpp; len(src) < need {
		return nil, fmt.Errorf("framebuffer data truncated: have %d bytes, need %d", len(src), need)
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	if format == drm.FormatRGB565 {
		decodeRGB565(img, src, width, height, stride)
	} else {
		decode32(img, src, width, height, stride, order)
	}
	return img, nil
}

func decode32(img *image.RGBA, src []byte, width, height, stride int, order channelOrder) {
	for y := 0; y < height; y++ {
		row := src[y*stride:]
		out := img.Pix[y*img.Stride:]
		for x := 0; x < width; x++ {
			px := row[x*4 : x*4+4]
			o := x * 4
			out[o] = px[order.r]
			out[o+1] = px[order.g]
			out[o+2] = px[order.b]
			if order.a >= 0 {
				out[o+3] = px[order.a]
			} else {
				out[o+3] = 0xff
			}
		}
	}
}

// decodeRGB565 expands the 5- and 6-bit channels by replicating their high
// bits into the low bits, so full-scale values widen to 255 instead of the
// 248 a plain shift would give.
func decodeRGB565(img *image.RGBA, src []byte, width, height, stride int) {
	for y := 0; y < height; y++ {
		row := src[y*stride:]
		out := img.Pix[y*img.Stride:]
		for x := 0; x < width; x++ {
			v := uint16(row[x*2]) | uint16(row[x*2+1])<<8
			r := uint8(v >> 11 & 0x1f)
			g := uint8(v >> 5 & 0x3f)
			b := uint8(v & 0x1f)
			o := x * 4
			out[o] = r<<3 | r>>2
			out[o+1] = g<<2 | g>>4
			out[o+2] = b<<3 | b>>2
			out[o+3] = 0xff
		}
	}
}
