// Package texture provides the baked attribute grid and image conversion
// utilities.
package texture

import (
	"image"
	"image/color"
)

// Channels is the number of bytes stored per texel.
const Channels = 3

// Map is a square W×W grid of 8-bit RGB texels, zero-initialized.
// Texel [x,y] is stored at (y*W+x)*3.
type Map struct {
	Width int
	Pix   []uint8
}

// NewMap allocates a zeroed width×width map.
func NewMap(width int) *Map {
	return &Map{Width: width, Pix: make([]uint8, width*width*Channels)}
}

// Offset returns the index of texel [x,y] in Pix.
func (m *Map) Offset(x, y int) int {
	return (y*m.Width + x) * Channels
}

// Set writes texel [x,y].
func (m *Map) Set(x, y int, r, g, b uint8) {
	i := m.Offset(x, y)
	m.Pix[i] = r
	m.Pix[i+1] = g
	m.Pix[i+2] = b
}

// At returns texel [x,y].
func (m *Map) At(x, y int) [3]uint8 {
	i := m.Offset(x, y)
	return [3]uint8{m.Pix[i], m.Pix[i+1], m.Pix[i+2]}
}

// RGBA converts the map to an opaque image. Column x, row y of the image is
// texel [x,y].
func (m *Map) RGBA() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, m.Width, m.Width))
	for y := 0; y < m.Width; y++ {
		for x := 0; x < m.Width; x++ {
			src := m.Offset(x, y)
			dst := img.PixOffset(x, y)
			img.Pix[dst] = m.Pix[src]
			img.Pix[dst+1] = m.Pix[src+1]
			img.Pix[dst+2] = m.Pix[src+2]
			img.Pix[dst+3] = 255
		}
	}
	return img
}

// FromImage builds a map from the top-left square of img. Alpha is dropped.
func FromImage(img image.Image) *Map {
	b := img.Bounds()
	w := min(b.Dx(), b.Dy())
	m := NewMap(w)
	for y := 0; y < w; y++ {
		for x := 0; x < w; x++ {
			c := color.RGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.RGBA)
			m.Set(x, y, c.R, c.G, c.B)
		}
	}
	return m
}

// Set groups the three maps produced by one bake.
type Set struct {
	Color    *Map
	Normal   *Map
	Position *Map
}

// NewSet allocates three zeroed maps of the given width.
func NewSet(width int) *Set {
	return &Set{Color: NewMap(width), Normal: NewMap(width), Position: NewMap(width)}
}
