package mesh

import (
	"fmt"

	"github.com/Faultbox/texbake/pkg/math"
)

// UVParameterization is the output of a UV unwrap. Unwrapping may split
// vertices along seams, so it carries its own vertex set: UVs[i] belongs to
// unwrapped vertex i, which is a copy of original vertex Remap[i]. Faces
// index unwrapped vertices.
type UVParameterization struct {
	UVs   []math.Vec2
	Remap []int
	Faces []Face
}

// VertexCount returns the number of unwrapped vertices.
func (p *UVParameterization) VertexCount() int {
	return len(p.UVs)
}

// Validate checks the remap table against the original vertex count and the
// faces against the unwrapped vertex count.
func (p *UVParameterization) Validate(originalCount int) error {
	if len(p.Remap) != len(p.UVs) {
		return fmt.Errorf("%w: %d remap entries for %d uvs", ErrAttributeLength, len(p.Remap), len(p.UVs))
	}
	for i, src := range p.Remap {
		if src < 0 || src >= originalCount {
			return fmt.Errorf("%w: unwrapped vertex %d maps to %d (have %d)", ErrRemapOutOfRange, i, src, originalCount)
		}
	}
	return checkFaces(p.Faces, len(p.UVs))
}

// Identity returns a parameterization that reuses the mesh's own indexing.
func Identity(uvs []math.Vec2, faces []Face) *UVParameterization {
	remap := make([]int, len(uvs))
	for i := range remap {
		remap[i] = i
	}
	return &UVParameterization{UVs: uvs, Remap: remap, Faces: faces}
}

// Expand gathers positions, colors and normals of m through p.Remap so that
// every attribute is indexed like p.Faces. The returned mesh shares p as its
// UV parameterization.
func Expand(m *Mesh, p *UVParameterization) (*Mesh, error) {
	if err := p.Validate(len(m.Positions)); err != nil {
		return nil, err
	}

	out := &Mesh{
		Positions: make([]math.Vec3, len(p.Remap)),
		Faces:     p.Faces,
		UV:        p,
	}
	for i, src := range p.Remap {
		out.Positions[i] = m.Positions[src]
	}
	if m.Colors != nil {
		out.Colors = m.Colors.Gather(p.Remap)
	}
	if m.Normals != nil {
		out.Normals = make([]math.Vec3, len(p.Remap))
		for i, src := range p.Remap {
			out.Normals[i] = m.Normals[src]
		}
	}
	return out, nil
}
