package preprocess

import "fmt"

// Resample maps src onto a target×target buffer with bilinear interpolation.
// Horizontal and vertical ratios are computed independently, so non-square
// sources are squeezed rather than cropped. Pure: identical inputs always
// yield identical outputs.
func Resample(src *LuminanceBuffer, target int) (*LuminanceBuffer, error) {
	if target <= 0 {
		return nil, fmt.Errorf("%w: non-positive target edge %d", ErrAllocation, target)
	}
	if target*target > MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d output", ErrAllocation, target, target)
	}

	xRatio := float32(src.Width) / float32(target)
	yRatio := float32(src.Height) / float32(target)

	dst := &LuminanceBuffer{
		Pix:    make([]uint8, target*target),
		Width:  target,
		Height: target,
	}
	for y := 0; y < target; y++ {
		srcY := float32(y) * yRatio
		for x := 0; x < target; x++ {
			srcX := float32(x) * xRatio
			dst.Pix[y*target+x] = bilinear(src, srcX, srcY)
		}
	}
	return dst, nil
}

// bilinear samples src at a real-valued coordinate as the weighted average of
// the four surrounding grid samples. The +1 neighbors clamp to the last valid
// index at the right and bottom edges; no wraparound, no extrapolation.
func bilinear(src *LuminanceBuffer, x, y float32) uint8 {
	x1 := int(x)
	y1 := int(y)
	x2 := x1 + 1
	y2 := y1 + 1

	if x2 >= src.Width {
		x2 = src.Width - 1
	}
	if y2 >= src.Height {
		y2 = src.Height - 1
	}

	dx := x - float32(x1)
	dy := y - float32(y1)

	p1 := float32(src.Pix[y1*src.Width+x1])
	p2 := float32(src.Pix[y1*src.Width+x2])
	p3 := float32(src.Pix[y2*src.Width+x1])
	p4 := float32(src.Pix[y2*src.Width+x2])

	val := p1*(1-dx)*(1-dy) +
		p2*dx*(1-dy) +
		p3*(1-dx)*dy +
		p4*dx*dy

	return uint8(val)
}
