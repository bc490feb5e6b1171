// Package align transfers per-vertex colors between two indexings of the same
// geometry.
//
// Both point sets are sorted lexicographically by position and walked in
// step: each target point probes source candidates in an outward zig-zag
// around a cursor that follows the last accepted match. The method assumes
// re-indexing keeps a similar sort order on both sides. When that fails the
// search falls back to the closest candidate it saw and counts the match as
// forced, so callers can judge alignment quality from Result.Forced.
package align

import (
	"errors"
	"image/color"
	"math"
	"slices"

	"github.com/Faultbox/texbake/pkg/mesh"
	texmath "github.com/Faultbox/texbake/pkg/math"
)

// ErrNoSourceColors is returned when the source mesh carries no colors.
var ErrNoSourceColors = errors.New("source mesh has no vertex colors")

// Config tunes the correspondence search.
type Config struct {
	// Tolerance is the Manhattan distance below which a candidate is accepted,
	// in source mesh units.
	Tolerance float64
	// Window is the number of candidates probed per target point.
	Window int
	// UnmatchedColor is used when the search sees no candidate at all.
	UnmatchedColor color.RGBA
}

// DefaultConfig returns the standard search parameters.
func DefaultConfig() Config {
	return Config{
		Tolerance:      0.001,
		Window:         50,
		UnmatchedColor: color.RGBA{R: 255, G: 0, B: 255, A: 255},
	}
}

// Point is a source vertex with its color.
type Point struct {
	Position texmath.Vec3
	Color    color.RGBA
}

// Result holds one color per target vertex, in target index order.
type Result struct {
	Colors []color.RGBA
	// Forced counts targets matched above tolerance or not matched at all.
	Forced int
	// Unmatched counts targets that received Config.UnmatchedColor.
	Unmatched int
	// MaxDistance is the largest Manhattan distance of any accepted match.
	MaxDistance float64
}

// ForcedRatio returns Forced as a fraction of all targets.
func (r Result) ForcedRatio() float64 {
	if len(r.Colors) == 0 {
		return 0
	}
	return float64(r.Forced) / float64(len(r.Colors))
}

// cursor is the search position in the sorted source list.
type cursor struct {
	pos    int
	window int
}

// candidate returns the source index probed at step k: pos, pos+1, pos-1,
// pos+2, pos-2, and so on.
func (c *cursor) candidate(k int) int {
	if k%2 == 1 {
		return c.pos + (k+1)/2
	}
	return c.pos - k/2
}

// Align returns a color for every target position. Colors are written with
// full opacity.
func Align(source []Point, target []texmath.Vec3, cfg Config) Result {
	sorted := slices.Clone(source)
	slices.SortStableFunc(sorted, func(a, b Point) int {
		return texmath.Compare(a.Position, b.Position)
	})

	order := make([]int, len(target))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return texmath.Compare(target[a], target[b])
	})

	res := Result{Colors: make([]color.RGBA, len(target))}
	cur := &cursor{window: cfg.Window}

	for _, ti := range order {
		p := target[ti]
		best, bestDist := -1, math.Inf(1)
		matched := false

		for k := 0; k < cur.window; k++ {
			si := cur.candidate(k)
			if si < 0 || si >= len(sorted) {
				continue
			}
			d := p.Manhattan(sorted[si].Position)
			if d < cfg.Tolerance {
				res.Colors[ti] = opaque(sorted[si].Color)
				res.MaxDistance = math.Max(res.MaxDistance, d)
				cur.pos = si
				matched = true
				break
			}
			if d < bestDist {
				best, bestDist = si, d
			}
		}
		if matched {
			continue
		}

		res.Forced++
		if best < 0 {
			res.Colors[ti] = cfg.UnmatchedColor
			res.Unmatched++
			continue
		}
		res.Colors[ti] = opaque(sorted[best].Color)
		res.MaxDistance = math.Max(res.MaxDistance, bestDist)
	}
	return res
}

// AlignMesh aligns the colors of source onto target positions.
func AlignMesh(source *mesh.Mesh, target []texmath.Vec3, cfg Config) (Result, error) {
	if !source.HasColors() {
		return Result{}, ErrNoSourceColors
	}
	return Align(Points(source), target, cfg), nil
}

// Points pairs each vertex of m with its color. m must have colors.
func Points(m *mesh.Mesh) []Point {
	pts := make([]Point, m.VertexCount())
	for i, p := range m.Positions {
		pts[i] = Point{Position: p, Color: m.Colors.RGBA(i)}
	}
	return pts
}

func opaque(c color.RGBA) color.RGBA {
	c.A = 255
	return c
}
