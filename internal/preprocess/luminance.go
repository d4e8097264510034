// Package preprocess turns one compressed camera frame into the signed 8-bit
// tensor the inference runtime expects: decode, luma conversion, bilinear
// resize to the model edge length, zero-point shift.
package preprocess

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"shapecam/internal/frame"
)

var (
	// ErrDecode reports malformed or unsupported compressed input.
	ErrDecode = errors.New("frame decode failed")
	// ErrAllocation reports that an intermediate or output buffer would
	// exceed the per-call memory budget.
	ErrAllocation = errors.New("buffer allocation budget exceeded")
)

// MaxPixels bounds the full-resolution buffers one call may allocate.
// 1600x1200 is the largest capture mode of the target sensor.
const MaxPixels = 1600 * 1200

// LuminanceBuffer holds one unsigned 8-bit luma sample per pixel, row-major.
type LuminanceBuffer struct {
	Pix    []uint8
	Width  int
	Height int
}

// Luminance decodes a compressed frame and converts it to a single-channel
// luma buffer using the standard weighting L = 0.299R + 0.587G + 0.114B,
// truncated to uint8. The weights are fixed; they match the model's training
// preprocessing and are not configurable.
func Luminance(f frame.CompressedFrame) (*LuminanceBuffer, error) {
	img, _, err := image.Decode(bytes.NewReader(f.Data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: empty image", ErrDecode)
	}
	if f.Width != 0 && (f.Width != width || f.Height != height) {
		return nil, fmt.Errorf("%w: frame metadata %dx%d does not match decoded %dx%d",
			ErrDecode, f.Width, f.Height, width, height)
	}
	if width*height > MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d frame", ErrAllocation, width, height)
	}

	// Interleaved RGB888 intermediate, released when this call returns.
	rgb := make([]uint8, width*height*3)
	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			rgb[i] = uint8(r >> 8)
			rgb[i+1] = uint8(g >> 8)
			rgb[i+2] = uint8(b >> 8)
			i += 3
		}
	}

	lum := &LuminanceBuffer{
		Pix:    make([]uint8, width*height),
		Width:  width,
		Height: height,
	}
	for p := 0; p < width*height; p++ {
		r := float32(rgb[p*3])
		g := float32(rgb[p*3+1])
		b := float32(rgb[p*3+2])
		lum.Pix[p] = uint8(0.299*r + 0.587*g + 0.114*b)
	}
	return lum, nil
}
