package preprocess

import "shapecam/internal/frame"

// Quantize shifts unsigned luma samples into the signed 8-bit domain expected
// by the integer-only runtime: quantized = sample - 128. The mapping is a
// bijection on [0,255]; adding 128 back recovers the original sample.
func Quantize(src *LuminanceBuffer) []int8 {
	out := make([]int8, len(src.Pix))
	for i, p := range src.Pix {
		out[i] = int8(int(p) - 128)
	}
	return out
}

// Prepare runs the full preprocessing pipeline for one frame: decode and luma
// conversion, bilinear resize to edge×edge, zero-point shift. Each
// intermediate buffer is request-scoped and unreachable once Prepare returns.
func Prepare(f frame.CompressedFrame, edge int) ([]int8, error) {
	lum, err := Luminance(f)
	if err != nil {
		return nil, err
	}
	resampled, err := Resample(lum, edge)
	if err != nil {
		return nil, err
	}
	return Quantize(resampled), nil
}
