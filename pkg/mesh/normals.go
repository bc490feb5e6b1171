package mesh

import (
	"github.com/Faultbox/texbake/pkg/math"
)

// ComputeNormals derives per-vertex normals from face geometry. Each face
// contributes its unnormalized cross product, so larger faces weigh more.
// Degenerate faces are skipped; vertices touched by no usable face get
// (0, 0, 1).
func ComputeNormals(m *Mesh) []math.Vec3 {
	sums := make([]math.Vec3, len(m.Positions))
	for _, f := range m.Faces {
		v0 := m.Positions[f[0]]
		v1 := m.Positions[f[1]]
		v2 := m.Positions[f[2]]
		n := v1.Sub(v0).Cross(v2.Sub(v0))
		if n.Length() < 1e-12 {
			continue
		}
		for _, idx := range f {
			sums[idx] = sums[idx].Add(n)
		}
	}

	normals := make([]math.Vec3, len(sums))
	for i, s := range sums {
		n := s.Normalize()
		if n == (math.Vec3{}) {
			n = math.V3(0, 0, 1)
		}
		normals[i] = n
	}
	return normals
}
