package mesh

import (
	"fmt"
	"image/color"
	"math"
)

// Colors is a per-vertex color array whose layout is fixed at construction.
type Colors struct {
	channels   int
	normalized bool
	data       []float64
}

// NewColors wraps a flat channel array. channels must be 3 (RGB) or 4
// (RGBA); normalized selects the 0-1 range instead of 0-255.
func NewColors(channels int, normalized bool, data []float64) (*Colors, error) {
	if channels != 3 && channels != 4 {
		return nil, fmt.Errorf("unsupported color channel count %d", channels)
	}
	if len(data)%channels != 0 {
		return nil, fmt.Errorf("color data length %d is not a multiple of %d", len(data), channels)
	}
	return &Colors{channels: channels, normalized: normalized, data: data}, nil
}

// ColorsFromRGBA builds a 4-channel 0-255 color array.
func ColorsFromRGBA(cs []color.RGBA) *Colors {
	data := make([]float64, 0, len(cs)*4)
	for _, c := range cs {
		data = append(data, float64(c.R), float64(c.G), float64(c.B), float64(c.A))
	}
	return &Colors{channels: 4, data: data}
}

// Channels returns 3 or 4.
func (c *Colors) Channels() int {
	return c.channels
}

// Normalized reports whether values are stored in the 0-1 range.
func (c *Colors) Normalized() bool {
	return c.normalized
}

// Len returns the number of colors.
func (c *Colors) Len() int {
	return len(c.data) / c.channels
}

// RGB returns the i-th color in the 0-255 range. Alpha is dropped.
func (c *Colors) RGB(i int) [3]float64 {
	base := i * c.channels
	rgb := [3]float64{c.data[base], c.data[base+1], c.data[base+2]}
	if c.normalized {
		for k := range rgb {
			rgb[k] *= 255
		}
	}
	return rgb
}

// RGBA returns the i-th color quantized to 8 bits. Three-channel colors get
// full opacity.
func (c *Colors) RGBA(i int) color.RGBA {
	rgb := c.RGB(i)
	a := 255.0
	if c.channels == 4 {
		a = c.data[i*4+3]
		if c.normalized {
			a *= 255
		}
	}
	return color.RGBA{R: toByte(rgb[0]), G: toByte(rgb[1]), B: toByte(rgb[2]), A: toByte(a)}
}

// Gather returns a new array with out[i] = c[remap[i]].
func (c *Colors) Gather(remap []int) *Colors {
	data := make([]float64, 0, len(remap)*c.channels)
	for _, src := range remap {
		base := src * c.channels
		data = append(data, c.data[base:base+c.channels]...)
	}
	return &Colors{channels: c.channels, normalized: c.normalized, data: data}
}

func toByte(v float64) uint8 {
	v = math.Round(v)
	if !(v > 0) {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
