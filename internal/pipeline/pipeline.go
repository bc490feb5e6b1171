// Package pipeline wires mesh loading, attribute alignment, baking and
// export into the texbake commands.
package pipeline

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/texbake/internal/align"
	"github.com/Faultbox/texbake/internal/bake"
	"github.com/Faultbox/texbake/internal/config"
	"github.com/Faultbox/texbake/internal/export"
	"github.com/Faultbox/texbake/internal/logger"
	"github.com/Faultbox/texbake/internal/texture"
	"github.com/Faultbox/texbake/pkg/formats"
	texmath "github.com/Faultbox/texbake/pkg/math"
	"github.com/Faultbox/texbake/pkg/mesh"
)

// Request names the meshes of one bake.
type Request struct {
	// Source carries the vertex colors.
	Source string
	// Unwrapped is an optional OBJ with texture coordinates. When empty the
	// source must carry its own UVs.
	Unwrapped string
}

// Report describes a finished bake.
type Report struct {
	Maps  *texture.Set
	Paths export.Paths
	Stats bake.Stats
	// Align is set when colors had to be transferred between indexings.
	Align *align.Result
	// ColorFallback names the synthesized colors, or is empty.
	ColorFallback   string
	NormalsComputed bool
}

// Bake runs the full pipeline for req and writes the maps.
func Bake(cfg *config.Config, req Request) (*Report, error) {
	start := time.Now()
	rep := &Report{}

	src, err := formats.Load(req.Source)
	if err != nil {
		return nil, err
	}
	logger.Info("loaded source", zap.String("path", req.Source),
		zap.Int("vertices", src.VertexCount()), zap.Int("faces", len(src.Faces)))

	if err := fillColors(cfg, src, rep); err != nil {
		return nil, err
	}

	base := src
	if req.Unwrapped != "" {
		if base, err = loadUnwrapped(cfg, src, req.Unwrapped, rep); err != nil {
			return nil, err
		}
	}
	if base.UV == nil {
		return nil, fmt.Errorf("%s: %w: texture coordinates", displayName(req), formats.ErrMissingAttribute)
	}
	if !base.HasNormals() {
		base.Normals = mesh.ComputeNormals(base)
		rep.NormalsComputed = true
		logger.Warn("mesh has no normals, computed from faces")
	}

	in, err := bakeInput(cfg, base)
	if err != nil {
		return nil, err
	}

	bakeCfg, err := BakeConfig(cfg)
	if err != nil {
		return nil, err
	}
	bakeStart := time.Now()
	maps, stats, err := bake.Bake(in, bakeCfg)
	if err != nil {
		return nil, err
	}
	rep.Maps, rep.Stats = maps, stats
	logger.Info("baked",
		zap.Int("width", bakeCfg.Width),
		zap.String("schedule", string(bakeCfg.Schedule)),
		zap.Int("workers", bakeCfg.Workers),
		zap.Int("faces", stats.Faces),
		zap.Int("skipped", stats.Skipped),
		zap.Int64("pixels", stats.Pixels),
		zap.Duration("took", time.Since(bakeStart)))
	if stats.Skipped > 0 {
		logger.Warn("skipped degenerate faces", zap.Int("count", stats.Skipped))
	}

	opts, err := ExportOptions(cfg, req.Source)
	if err != nil {
		return nil, err
	}
	paths, err := export.WriteMaps(maps, opts)
	rep.Paths = paths
	if err != nil {
		return rep, fmt.Errorf("writing maps: %w", err)
	}
	logger.Info("wrote maps",
		zap.String("color", paths.Color),
		zap.String("normal", paths.Normal),
		zap.String("position", paths.Position),
		zap.Duration("total", time.Since(start)))
	return rep, nil
}

// fillColors synthesizes colors for a mesh that has none.
func fillColors(cfg *config.Config, m *mesh.Mesh, rep *Report) error {
	if m.HasColors() {
		return nil
	}
	switch cfg.Input.MissingColor {
	case "random":
		m.Colors = mesh.RandomColors(m.VertexCount(), cfg.Input.RandomSeed)
	default:
		fill, err := config.ParseColor(cfg.Input.FillColor)
		if err != nil {
			return err
		}
		m.Colors = mesh.UniformColors(m.VertexCount(), fill)
	}
	rep.ColorFallback = cfg.Input.MissingColor
	logger.Warn("mesh has no vertex colors, using fallback", zap.String("fill", rep.ColorFallback))
	return nil
}

// loadUnwrapped reads the unwrapped mesh and gives it the source colors,
// aligning them when the vertex indexing differs.
func loadUnwrapped(cfg *config.Config, src *mesh.Mesh, path string, rep *Report) (*mesh.Mesh, error) {
	un, err := formats.Load(path)
	if err != nil {
		return nil, err
	}
	if un.UV == nil {
		return nil, fmt.Errorf("%s: %w: texture coordinates", path, formats.ErrMissingAttribute)
	}
	logger.Info("loaded unwrapped mesh", zap.String("path", path),
		zap.Int("vertices", un.VertexCount()), zap.Int("uv_vertices", un.UV.VertexCount()))

	if sameIndexing(src, un, cfg.Align.Tolerance) {
		logger.Debug("unwrapped mesh keeps source indexing, skipping alignment")
		un.Colors = src.Colors
		if !un.HasNormals() {
			un.Normals = src.Normals
		}
		return un, nil
	}

	res, err := AlignColors(cfg, src, un)
	if err != nil {
		return nil, err
	}
	rep.Align = &res
	return un, nil
}

// AlignColors transfers source colors onto target vertices and logs the
// match quality.
func AlignColors(cfg *config.Config, src, target *mesh.Mesh) (align.Result, error) {
	alignCfg, err := AlignConfig(cfg)
	if err != nil {
		return align.Result{}, err
	}

	start := time.Now()
	res, err := align.AlignMesh(src, target.Positions, alignCfg)
	if err != nil {
		return res, err
	}
	target.Colors = mesh.ColorsFromRGBA(res.Colors)

	logger.Info("aligned colors",
		zap.Int("targets", len(res.Colors)),
		zap.Int("forced", res.Forced),
		zap.Int("unmatched", res.Unmatched),
		zap.Float64("max_distance", res.MaxDistance),
		zap.Duration("took", time.Since(start)))
	if ratio := res.ForcedRatio(); ratio > cfg.Align.WarnForcedRatio {
		logger.Warn("many forced matches, vertex colors may be misaligned",
			zap.Float64("ratio", ratio),
			zap.Float64("threshold", cfg.Align.WarnForcedRatio))
	}
	return res, nil
}

// sameIndexing reports whether b lists the same vertices as a in the same
// order.
func sameIndexing(a, b *mesh.Mesh, tol float64) bool {
	if a.VertexCount() != b.VertexCount() {
		return false
	}
	for i, p := range a.Positions {
		if !(p.Manhattan(b.Positions[i]) < tol) {
			return false
		}
	}
	return true
}

// bakeInput expands base through its UV parameterization.
func bakeInput(cfg *config.Config, base *mesh.Mesh) (*bake.Input, error) {
	// Scale over every original vertex, before seam duplication.
	bounds := base.Bounds()

	expanded, err := mesh.Expand(base, base.UV)
	if err != nil {
		return nil, err
	}

	in := &bake.Input{
		Positions:     expanded.Positions,
		Faces:         expanded.Faces,
		UVs:           base.UV.UVs,
		Colors:        expanded.Colors,
		Normals:       expanded.Normals,
		PositionScale: bake.PositionScale(bounds),
	}
	if cfg.Bake.PositionOrigin == "bbox_min" && !bounds.Empty() {
		in.PositionOffset = bounds.Min
	} else if !bounds.Empty() && (bounds.Min.X < 0 || bounds.Min.Y < 0 || bounds.Min.Z < 0) {
		logger.Warn("negative positions clamp to 0 in the position map, consider position_origin: bbox_min",
			zap.Float64("min_x", bounds.Min.X),
			zap.Float64("min_y", bounds.Min.Y),
			zap.Float64("min_z", bounds.Min.Z))
	}
	logger.Debug("position encoding",
		zap.Float64("scale", in.PositionScale),
		zap.Float64("range", bounds.MaxExtent()),
		zap.String("origin", cfg.Bake.PositionOrigin))
	return in, nil
}

// BakeConfig converts the bake section of cfg.
func BakeConfig(cfg *config.Config) (bake.Config, error) {
	workers := cfg.Bake.Workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	out := bake.Config{
		Width:    cfg.Bake.Width,
		Workers:  workers,
		Schedule: bake.Schedule(cfg.Bake.Schedule),
		Epsilon:  cfg.Bake.Epsilon,
	}
	if out.Width <= 0 {
		return out, fmt.Errorf("%w: %d", bake.ErrInvalidWidth, out.Width)
	}
	return out, nil
}

// AlignConfig converts the align section of cfg.
func AlignConfig(cfg *config.Config) (align.Config, error) {
	unmatched, err := config.ParseColor(cfg.Align.UnmatchedColor)
	if err != nil {
		return align.Config{}, err
	}
	return align.Config{
		Tolerance:      cfg.Align.Tolerance,
		Window:         cfg.Align.Window,
		UnmatchedColor: unmatched,
	}, nil
}

// ExportOptions converts the output section of cfg. An empty name falls back
// to the source file name without its extension.
func ExportOptions(cfg *config.Config, source string) (export.Options, error) {
	format, err := export.ParseFormat(cfg.Output.Format)
	if err != nil {
		return export.Options{}, err
	}
	name := cfg.Output.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	}
	return export.Options{
		Dir:    cfg.Output.Dir,
		Name:   name,
		Format: format,
		FlipV:  cfg.Output.FlipV,
	}, nil
}

func displayName(req Request) string {
	if req.Unwrapped != "" {
		return req.Unwrapped
	}
	return req.Source
}

// Summary describes a mesh file.
type Summary struct {
	Format     formats.Format
	Vertices   int
	Referenced int
	Faces      int
	Colors     int // channel count, 0 when absent
	Normals    bool
	UVVertices int // 0 when the mesh has no UVs
	Bounds     texmath.Bounds
}

// Inspect loads path and summarizes it.
func Inspect(path string) (Summary, error) {
	format, err := formats.DetectFormat(path)
	if err != nil {
		return Summary{}, err
	}
	m, err := formats.Load(path)
	if err != nil {
		return Summary{}, err
	}
	s := Summary{
		Format:     format,
		Vertices:   m.VertexCount(),
		Referenced: m.ReferencedVertices(),
		Faces:      len(m.Faces),
		Normals:    m.HasNormals(),
		Bounds:     m.Bounds(),
	}
	if m.HasColors() {
		s.Colors = m.Colors.Channels()
	}
	if m.UV != nil {
		s.UVVertices = m.UV.VertexCount()
	}
	return s, nil
}

// AlignFiles aligns the colors of the source mesh onto the target mesh's
// vertices and returns the result with the target.
func AlignFiles(cfg *config.Config, source, target string) (align.Result, *mesh.Mesh, error) {
	src, err := formats.Load(source)
	if err != nil {
		return align.Result{}, nil, err
	}
	if !src.HasColors() {
		return align.Result{}, nil, fmt.Errorf("%s: %w", source, align.ErrNoSourceColors)
	}
	tgt, err := formats.Load(target)
	if err != nil {
		return align.Result{}, nil, err
	}
	res, err := AlignColors(cfg, src, tgt)
	if err != nil {
		return res, nil, err
	}
	return res, tgt, nil
}
