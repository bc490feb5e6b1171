package mesh

import (
	"image/color"
	"math/rand/v2"
)

// UniformColors returns n copies of c.
func UniformColors(n int, c color.RGBA) *Colors {
	cs := make([]color.RGBA, n)
	for i := range cs {
		cs[i] = c
	}
	return ColorsFromRGBA(cs)
}

// RandomColors returns n opaque colors drawn from a generator seeded with
// seed, so repeated runs produce the same texture.
func RandomColors(n int, seed uint64) *Colors {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	cs := make([]color.RGBA, n)
	for i := range cs {
		cs[i] = color.RGBA{
			R: uint8(rng.IntN(256)),
			G: uint8(rng.IntN(256)),
			B: uint8(rng.IntN(256)),
			A: 255,
		}
	}
	return ColorsFromRGBA(cs)
}
