// Package bake rasterizes per-vertex attributes into UV-space textures.
//
// Each face is drawn into the color, normal and position maps by testing the
// texels of its UV bounding box against barycentric weights. Overlapping
// faces resolve by last write in face order with no depth test.
package bake

import (
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/texbake/internal/texture"
	texmath "github.com/Faultbox/texbake/pkg/math"
	"github.com/Faultbox/texbake/pkg/mesh"
)

var (
	ErrInvalidWidth    = errors.New("texture width must be positive")
	ErrAttributeLength = errors.New("attribute length does not match vertex count")
	ErrInvalidSchedule = errors.New("unknown bake schedule")
)

// insideTol absorbs rounding in barycentric weights on triangle edges.
const insideTol = 1e-9

// Schedule selects how work is split across workers.
type Schedule string

const (
	// ScheduleBands gives each worker a band of texture rows and has it walk
	// every face in input order. Output is deterministic.
	ScheduleBands Schedule = "bands"
	// ScheduleFaces gives each worker a contiguous range of faces. Texels
	// covered by faces of different ranges end with whichever write lands
	// last.
	ScheduleFaces Schedule = "faces"
)

// Config controls a bake.
type Config struct {
	// Width is the side length of the square output maps in texels.
	Width int
	// Workers bounds parallelism. Values below 2 bake sequentially.
	Workers  int
	Schedule Schedule
	// Epsilon is the smallest UV double-area a face may have before it is
	// skipped.
	Epsilon float64
}

// DefaultConfig returns a 1024 texel bake over all CPUs.
func DefaultConfig() Config {
	return Config{
		Width:    1024,
		Workers:  runtime.GOMAXPROCS(0),
		Schedule: ScheduleBands,
		Epsilon:  1e-12,
	}
}

// Input is an index-aligned set of vertex attributes. Faces, UVs and all
// attribute arrays share one vertex indexing.
type Input struct {
	Positions []texmath.Vec3
	Faces     []mesh.Face
	UVs       []texmath.Vec2
	Colors    *mesh.Colors
	Normals   []texmath.Vec3

	// PositionScale maps world units to texel values, see PositionScale.
	PositionScale float64
	// PositionOffset is subtracted from positions before scaling.
	PositionOffset texmath.Vec3
}

// Stats summarizes a bake.
type Stats struct {
	Faces   int
	Skipped int
	Pixels  int64
}

// PositionScale returns 255 divided by the largest extent of b, or 0 for a
// flat or empty box.
func PositionScale(b texmath.Bounds) float64 {
	r := b.MaxExtent()
	if !(r > 0) || math.IsInf(r, 0) {
		return 0
	}
	return 255 / r
}

// Validate checks that in can be baked.
func (in *Input) Validate() error {
	n := len(in.Positions)
	if len(in.UVs) != n {
		return fmt.Errorf("%w: %d uvs for %d vertices", ErrAttributeLength, len(in.UVs), n)
	}
	if len(in.Normals) != n {
		return fmt.Errorf("%w: %d normals for %d vertices", ErrAttributeLength, len(in.Normals), n)
	}
	if in.Colors == nil || in.Colors.Len() != n {
		got := 0
		if in.Colors != nil {
			got = in.Colors.Len()
		}
		return fmt.Errorf("%w: %d colors for %d vertices", ErrAttributeLength, got, n)
	}
	for i, f := range in.Faces {
		for _, v := range f {
			if v < 0 || v >= n {
				return fmt.Errorf("%w: face %d references vertex %d of %d", mesh.ErrFaceIndexOutOfRange, i, v, n)
			}
		}
	}
	return nil
}

// Bake rasterizes every face of in into a fresh set of maps. Inputs are
// validated before anything is allocated.
func Bake(in *Input, cfg Config) (*texture.Set, Stats, error) {
	if cfg.Width <= 0 {
		return nil, Stats{}, fmt.Errorf("%w: %d", ErrInvalidWidth, cfg.Width)
	}
	if cfg.Schedule == "" {
		cfg.Schedule = ScheduleBands
	}
	if cfg.Schedule != ScheduleBands && cfg.Schedule != ScheduleFaces {
		return nil, Stats{}, fmt.Errorf("%w: %q", ErrInvalidSchedule, cfg.Schedule)
	}
	if err := in.Validate(); err != nil {
		return nil, Stats{}, err
	}

	r := &rasterizer{
		in:    in,
		out:   texture.NewSet(cfg.Width),
		width: cfg.Width,
		faces: make([]face, len(in.Faces)),
	}
	var stats Stats
	for i, f := range in.Faces {
		r.faces[i] = r.setup(f, cfg.Epsilon)
		if r.faces[i].skip {
			stats.Skipped++
		} else {
			stats.Faces++
		}
	}

	workers := cfg.Workers
	switch {
	case workers < 2:
		r.run(0, len(r.faces), 0, cfg.Width)
	case cfg.Schedule == ScheduleBands:
		r.bands(workers)
	default:
		r.faceRanges(workers)
	}

	stats.Pixels = r.pixels.Load()
	return r.out, stats, nil
}

// face is a triangle prepared for rasterization.
type face struct {
	idx            mesh.Face
	tri            texmath.Triangle2
	x0, x1, y0, y1 int
	skip           bool
}

type rasterizer struct {
	in     *Input
	out    *texture.Set
	width  int
	faces  []face
	pixels atomic.Int64
}

// setup computes the clipped texel box of f, or marks it skipped.
func (r *rasterizer) setup(f mesh.Face, eps float64) face {
	uv1, uv2, uv3 := r.in.UVs[f[0]], r.in.UVs[f[1]], r.in.UVs[f[2]]
	out := face{idx: f, tri: texmath.NewTriangle2(uv1, uv2, uv3)}
	if !uv1.IsFinite() || !uv2.IsFinite() || !uv3.IsFinite() || out.tri.Degenerate(eps) {
		out.skip = true
		return out
	}

	w := float64(r.width)
	out.x0 = clampTexel(math.Floor(min(uv1.X, uv2.X, uv3.X)*w), r.width)
	out.x1 = clampTexel(math.Ceil(max(uv1.X, uv2.X, uv3.X)*w), r.width)
	out.y0 = clampTexel(math.Floor(min(uv1.Y, uv2.Y, uv3.Y)*w), r.width)
	out.y1 = clampTexel(math.Ceil(max(uv1.Y, uv2.Y, uv3.Y)*w), r.width)
	return out
}

// clampTexel clips v to [0, width-1] before converting to int.
func clampTexel(v float64, width int) int {
	return int(math.Max(0, math.Min(v, float64(width-1))))
}

// bands splits texture rows across workers.
func (r *rasterizer) bands(workers int) {
	rows := (r.width + workers - 1) / workers
	var g errgroup.Group
	g.SetLimit(workers)
	for y0 := 0; y0 < r.width; y0 += rows {
		y1 := min(y0+rows, r.width)
		g.Go(func() error {
			r.run(0, len(r.faces), y0, y1)
			return nil
		})
	}
	_ = g.Wait()
}

// faceRanges splits faces across workers.
func (r *rasterizer) faceRanges(workers int) {
	n := len(r.faces)
	chunk := max((n+workers-1)/workers, 1)
	var g errgroup.Group
	g.SetLimit(workers)
	for f0 := 0; f0 < n; f0 += chunk {
		f1 := min(f0+chunk, n)
		g.Go(func() error {
			r.run(f0, f1, 0, r.width)
			return nil
		})
	}
	_ = g.Wait()
}

// run draws faces [f0, f1) restricted to rows [rowMin, rowMax).
func (r *rasterizer) run(f0, f1, rowMin, rowMax int) {
	var n int64
	for i := f0; i < f1; i++ {
		f := &r.faces[i]
		if f.skip {
			continue
		}
		n += r.draw(f, max(f.y0, rowMin), min(f.y1, rowMax-1))
	}
	r.pixels.Add(n)
}

// draw writes every texel of f in rows [y0, y1] and returns how many it wrote.
func (r *rasterizer) draw(f *face, y0, y1 int) int64 {
	var n int64
	w := float64(r.width)
	for y := y0; y <= y1; y++ {
		for x := f.x0; x <= f.x1; x++ {
			p := texmath.Vec2{X: float64(x) / w, Y: float64(y) / w}
			a, b, c := f.tri.Weights(p)
			if !texmath.Inside(a, b, c, insideTol) {
				continue
			}
			r.shade(f.idx, x, y, a, b, c)
			n++
		}
	}
	return n
}

// shade writes the interpolated attributes of face idx at texel [x,y].
func (r *rasterizer) shade(idx mesh.Face, x, y int, a, b, c float64) {
	in := r.in
	i, j, k := idx[0], idx[1], idx[2]

	c1, c2, c3 := in.Colors.RGB(i), in.Colors.RGB(j), in.Colors.RGB(k)
	r.out.Color.Set(x, y,
		quantize(a*c1[0]+b*c2[0]+c*c3[0]),
		quantize(a*c1[1]+b*c2[1]+c*c3[1]),
		quantize(a*c1[2]+b*c2[2]+c*c3[2]),
	)

	n := in.Normals[i].Scale(a).Add(in.Normals[j].Scale(b)).Add(in.Normals[k].Scale(c))
	r.out.Normal.Set(x, y, EncodeNormal(n.X), EncodeNormal(n.Y), EncodeNormal(n.Z))

	p := in.Positions[i].Scale(a).Add(in.Positions[j].Scale(b)).Add(in.Positions[k].Scale(c))
	p = p.Sub(in.PositionOffset)
	r.out.Position.Set(x, y,
		EncodePosition(in.PositionScale, p.X),
		EncodePosition(in.PositionScale, p.Y),
		EncodePosition(in.PositionScale, p.Z),
	)
}
