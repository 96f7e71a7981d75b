package backend

import (
	"image"

	"golang.org/x/image/draw"
)

// CropRegion cuts a sub-rectangle out of a captured frame into a new,
// tightly packed RGBA image. The rectangle must lie fully inside the frame:
// zero-area and overhanging regions fail with a BoundsError instead of
// being clamped, so callers get exactly the pixels they asked for or an
// explanation.
func CropRegion(src *image.RGBA, x, y, width, height int) (*image.RGBA, error) {
	frame := src.Bounds()
	// Subtraction form so absurd width/height values cannot overflow the
	// comparison.
	if width <= 0 || height <= 0 || x < 0 || y < 0 ||
		x > frame.Dx()-width || y > frame.Dy()-height {
		return nil, &BoundsError{
			X: x, Y: y, Width: width, Height: height,
			FrameWidth: frame.Dx(), FrameHeight: frame.Dy(),
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	sr := image.Rect(x, y, x+width, y+height).Add(frame.Min)
	draw.Copy(dst, image.Point{}, src, sr, draw.Src, nil)
	return dst, nil
}
