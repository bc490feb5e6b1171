package bake

import "math"

// quantize rounds v to the nearest byte, clamping to [0, 255]. NaN maps to 0.
func quantize(v float64) uint8 {
	v = math.Round(v)
	if !(v > 0) {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}

// EncodeNormal maps a normal component in [-1, 1] to [0, 255].
func EncodeNormal(v float64) uint8 {
	return quantize(255 * (v*0.5 + 0.5))
}

// DecodeNormal inverts EncodeNormal up to quantization.
func DecodeNormal(b uint8) float64 {
	return float64(b)/255*2 - 1
}

// EncodePosition scales a position component into [0, 255].
func EncodePosition(scale, v float64) uint8 {
	return quantize(scale * v)
}

// DecodePosition inverts EncodePosition up to quantization. A zero scale
// decodes to 0.
func DecodePosition(scale float64, b uint8) float64 {
	if scale == 0 {
		return 0
	}
	return float64(b) / scale
}
