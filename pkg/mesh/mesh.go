// Package mesh holds triangle meshes, their per-vertex attributes and UV
// parameterizations.
package mesh

import (
	"errors"
	"fmt"

	"github.com/Faultbox/texbake/pkg/math"
)

// Mesh validation errors.
var (
	ErrFaceIndexOutOfRange = errors.New("face index out of range")
	ErrRemapOutOfRange     = errors.New("remap index out of range")
	ErrAttributeLength     = errors.New("attribute length does not match vertex count")
)

// Face is a triangle given by three vertex indices.
type Face [3]int

// Mesh is an indexed triangle mesh with optional per-vertex attributes.
type Mesh struct {
	Positions []math.Vec3
	Faces     []Face

	// Colors is nil when the source carried no vertex colors.
	Colors *Colors
	// Normals is nil when the source carried no vertex normals.
	Normals []math.Vec3
	// UV is set when the source carried texture coordinates.
	UV *UVParameterization
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Positions)
}

// HasColors reports whether per-vertex colors are present.
func (m *Mesh) HasColors() bool {
	return m.Colors != nil
}

// HasNormals reports whether per-vertex normals are present.
func (m *Mesh) HasNormals() bool {
	return m.Normals != nil
}

// Bounds returns the bounding box over all vertices, referenced or not.
func (m *Mesh) Bounds() math.Bounds {
	return math.BoundsOf(m.Positions)
}

// Validate checks face indices and attribute lengths.
func (m *Mesh) Validate() error {
	if err := checkFaces(m.Faces, len(m.Positions)); err != nil {
		return err
	}
	if m.Colors != nil && m.Colors.Len() != len(m.Positions) {
		return fmt.Errorf("%w: %d colors for %d vertices", ErrAttributeLength, m.Colors.Len(), len(m.Positions))
	}
	if m.Normals != nil && len(m.Normals) != len(m.Positions) {
		return fmt.Errorf("%w: %d normals for %d vertices", ErrAttributeLength, len(m.Normals), len(m.Positions))
	}
	if m.UV != nil {
		if err := m.UV.Validate(len(m.Positions)); err != nil {
			return err
		}
	}
	return nil
}

// ReferencedVertices returns how many distinct vertices appear in faces.
func (m *Mesh) ReferencedVertices() int {
	seen := make([]bool, len(m.Positions))
	n := 0
	for _, f := range m.Faces {
		for _, idx := range f {
			if idx >= 0 && idx < len(seen) && !seen[idx] {
				seen[idx] = true
				n++
			}
		}
	}
	return n
}

func checkFaces(faces []Face, vertexCount int) error {
	for i, f := range faces {
		for _, idx := range f {
			if idx < 0 || idx >= vertexCount {
				return fmt.Errorf("%w: face %d references vertex %d (have %d)", ErrFaceIndexOutOfRange, i, idx, vertexCount)
			}
		}
	}
	return nil
}
