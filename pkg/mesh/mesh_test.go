package mesh

import (
	"errors"
	"image/color"
	"testing"

	"github.com/Faultbox/texbake/pkg/math"
)

func quad() *Mesh {
	return &Mesh{
		Positions: []math.Vec3{
			math.V3(0, 0, 0),
			math.V3(1, 0, 0),
			math.V3(1, 1, 0),
			math.V3(0, 1, 0),
		},
		Faces: []Face{{0, 1, 2}, {0, 2, 3}},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(m *Mesh)
		wantErr error
	}{
		{"valid", func(m *Mesh) {}, nil},
		{"face index too large", func(m *Mesh) { m.Faces[1][2] = 4 }, ErrFaceIndexOutOfRange},
		{"negative face index", func(m *Mesh) { m.Faces[0][0] = -1 }, ErrFaceIndexOutOfRange},
		{"short normals", func(m *Mesh) { m.Normals = make([]math.Vec3, 3) }, ErrAttributeLength},
		{"short colors", func(m *Mesh) { m.Colors = UniformColors(2, color.RGBA{A: 255}) }, ErrAttributeLength},
		{"bad remap", func(m *Mesh) {
			m.UV = &UVParameterization{UVs: make([]math.Vec2, 1), Remap: []int{7}}
		}, ErrRemapOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := quad()
			tt.mutate(m)
			err := m.Validate()
			if tt.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestReferencedVertices(t *testing.T) {
	m := quad()
	m.Positions = append(m.Positions, math.V3(5, 5, 5))
	if got := m.ReferencedVertices(); got != 4 {
		t.Errorf("expected 4 referenced vertices, got %d", got)
	}
}

func TestColorsChannels(t *testing.T) {
	c, err := NewColors(3, true, []float64{1, 0.5, 0, 0, 0, 1})
	if err != nil {
		t.Fatalf("NewColors: %v", err)
	}
	if c.Len() != 2 {
		t.Fatalf("expected 2 colors, got %d", c.Len())
	}
	if got := c.RGB(0); got != [3]float64{255, 127.5, 0} {
		t.Errorf("RGB(0) = %v", got)
	}
	if got := c.RGBA(1); got != (color.RGBA{0, 0, 255, 255}) {
		t.Errorf("RGBA(1) = %v", got)
	}

	rgba, err := NewColors(4, false, []float64{10, 20, 30, 40})
	if err != nil {
		t.Fatalf("NewColors: %v", err)
	}
	if got := rgba.RGB(0); got != [3]float64{10, 20, 30} {
		t.Errorf("alpha leaked into RGB: %v", got)
	}
	if got := rgba.RGBA(0).A; got != 40 {
		t.Errorf("expected alpha 40, got %d", got)
	}

	if _, err := NewColors(2, false, nil); err == nil {
		t.Error("expected error for 2 channels")
	}
	if _, err := NewColors(3, false, []float64{1, 2}); err == nil {
		t.Error("expected error for ragged data")
	}
}

func TestExpand(t *testing.T) {
	m := quad()
	m.Colors = ColorsFromRGBA([]color.RGBA{
		{255, 0, 0, 255}, {0, 255, 0, 255}, {0, 0, 255, 255}, {9, 9, 9, 255},
	})
	m.Normals = ComputeNormals(m)

	// Vertex 0 is split along a seam into unwrapped vertices 0 and 4.
	p := &UVParameterization{
		UVs:   []math.Vec2{{X: 0, Y: 0}, {X: 0.5, Y: 0}, {X: 0.5, Y: 0.5}, {X: 0, Y: 0.5}, {X: 1, Y: 1}},
		Remap: []int{0, 1, 2, 3, 0},
		Faces: []Face{{0, 1, 2}, {4, 2, 3}},
	}

	out, err := Expand(m, p)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if out.VertexCount() != 5 {
		t.Fatalf("expected 5 vertices, got %d", out.VertexCount())
	}
	if out.Positions[4] != m.Positions[0] {
		t.Errorf("seam copy position = %v, want %v", out.Positions[4], m.Positions[0])
	}
	if got := out.Colors.RGBA(4); got != (color.RGBA{255, 0, 0, 255}) {
		t.Errorf("seam copy color = %v", got)
	}
	if out.Normals[4] != m.Normals[0] {
		t.Errorf("seam copy normal = %v", out.Normals[4])
	}
	if err := out.Validate(); err != nil {
		t.Errorf("expanded mesh invalid: %v", err)
	}
}

func TestComputeNormals(t *testing.T) {
	m := quad()
	m.Positions = append(m.Positions, math.V3(3, 3, 3))
	normals := ComputeNormals(m)
	for i := 0; i < 4; i++ {
		if normals[i] != math.V3(0, 0, 1) {
			t.Errorf("normal %d = %v, want +Z", i, normals[i])
		}
	}
	if normals[4] != math.V3(0, 0, 1) {
		t.Errorf("unreferenced vertex normal = %v, want fallback +Z", normals[4])
	}
}

func TestRandomColorsDeterministic(t *testing.T) {
	a := RandomColors(16, 42)
	b := RandomColors(16, 42)
	for i := 0; i < 16; i++ {
		if a.RGBA(i) != b.RGBA(i) {
			t.Fatalf("color %d differs between runs: %v vs %v", i, a.RGBA(i), b.RGBA(i))
		}
		if a.RGBA(i).A != 255 {
			t.Fatalf("color %d not opaque", i)
		}
	}
}
