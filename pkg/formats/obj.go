package formats

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Faultbox/texbake/pkg/mesh"
	texmath "github.com/Faultbox/texbake/pkg/math"
)

// OBJ format errors.
var (
	ErrInvalidOBJIndex = errors.New("invalid OBJ index")
	ErrInvalidOBJLine  = errors.New("invalid OBJ line")
)

// objCorner is one face corner: position, texcoord and normal indices
// (0-based, -1 when absent).
type objCorner struct {
	v, vt, vn int
}

// ParseOBJ reads a Wavefront OBJ mesh.
//
// Vertex colors written as "v x y z r g b" (0-1 floats) are kept when every
// vertex has them. When every face corner carries a texture index, the
// result gets a UV parameterization with one unwrapped vertex per distinct
// (position, texcoord) pair, which is how unwrappers export seam splits.
func ParseOBJ(r io.Reader) (*mesh.Mesh, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	var (
		positions []texmath.Vec3
		colors    []float64
		colored   = 0
		texcoords []texmath.Vec2
		normals   []texmath.Vec3
		corners   [][3]objCorner
		poly      []objCorner
	)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		fields := strings.Fields(line)

		switch fields[0] {
		case "v":
			vals, err := parseFloats(fields[1:])
			if err != nil || len(vals) < 3 {
				return nil, fmt.Errorf("%w %d: %q", ErrInvalidOBJLine, lineNo, line)
			}
			positions = append(positions, texmath.V3(vals[0], vals[1], vals[2]))
			if len(vals) >= 6 {
				colors = append(colors, vals[3], vals[4], vals[5])
				colored++
			} else {
				colors = append(colors, 0, 0, 0)
			}
		case "vt":
			vals, err := parseFloats(fields[1:])
			if err != nil || len(vals) < 2 {
				return nil, fmt.Errorf("%w %d: %q", ErrInvalidOBJLine, lineNo, line)
			}
			texcoords = append(texcoords, texmath.Vec2{X: vals[0], Y: vals[1]})
		case "vn":
			vals, err := parseFloats(fields[1:])
			if err != nil || len(vals) < 3 {
				return nil, fmt.Errorf("%w %d: %q", ErrInvalidOBJLine, lineNo, line)
			}
			normals = append(normals, texmath.V3(vals[0], vals[1], vals[2]))
		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("%w %d: face needs 3 corners", ErrInvalidOBJLine, lineNo)
			}
			poly = poly[:0]
			for _, tok := range fields[1:] {
				c, err := parseCorner(tok, len(positions), len(texcoords), len(normals))
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", lineNo, err)
				}
				poly = append(poly, c)
			}
			for k := 1; k+1 < len(poly); k++ {
				corners = append(corners, [3]objCorner{poly[0], poly[k], poly[k+1]})
			}
		default:
			// Groups, materials and smoothing groups do not affect baking.
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	m := &mesh.Mesh{
		Positions: positions,
		Faces:     make([]mesh.Face, len(corners)),
	}
	for i, tri := range corners {
		m.Faces[i] = mesh.Face{tri[0].v, tri[1].v, tri[2].v}
	}
	if colored > 0 && colored == len(positions) {
		c, err := mesh.NewColors(3, true, colors)
		if err != nil {
			return nil, err
		}
		m.Colors = c
	}
	m.Normals = objVertexNormals(len(positions), corners, normals)
	m.UV = objParameterization(corners, texcoords)

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// objVertexNormals assigns corner normals to positions. It returns nil
// unless every referenced position received one.
func objVertexNormals(count int, corners [][3]objCorner, normals []texmath.Vec3) []texmath.Vec3 {
	if len(normals) == 0 || len(corners) == 0 {
		return nil
	}
	out := make([]texmath.Vec3, count)
	for _, tri := range corners {
		for _, c := range tri {
			if c.vn < 0 {
				return nil
			}
			out[c.v] = normals[c.vn]
		}
	}
	return out
}

// objParameterization splits positions per distinct texcoord. It returns nil
// unless every corner has a texcoord.
func objParameterization(corners [][3]objCorner, texcoords []texmath.Vec2) *mesh.UVParameterization {
	if len(texcoords) == 0 || len(corners) == 0 {
		return nil
	}
	p := &mesh.UVParameterization{Faces: make([]mesh.Face, len(corners))}
	ids := make(map[[2]int]int)
	for i, tri := range corners {
		for k, c := range tri {
			if c.vt < 0 {
				return nil
			}
			key := [2]int{c.v, c.vt}
			id, ok := ids[key]
			if !ok {
				id = len(p.UVs)
				ids[key] = id
				p.UVs = append(p.UVs, texcoords[c.vt])
				p.Remap = append(p.Remap, c.v)
			}
			p.Faces[i][k] = id
		}
	}
	return p
}

// parseCorner decodes "v", "v/vt", "v//vn" or "v/vt/vn".
func parseCorner(tok string, nv, nvt, nvn int) (objCorner, error) {
	parts := strings.Split(tok, "/")
	if len(parts) > 3 {
		return objCorner{}, fmt.Errorf("%w: %q", ErrInvalidOBJIndex, tok)
	}
	c := objCorner{v: -1, vt: -1, vn: -1}
	var err error
	if c.v, err = resolveIndex(parts[0], nv); err != nil {
		return c, err
	}
	if len(parts) > 1 && parts[1] != "" {
		if c.vt, err = resolveIndex(parts[1], nvt); err != nil {
			return c, err
		}
	}
	if len(parts) > 2 && parts[2] != "" {
		if c.vn, err = resolveIndex(parts[2], nvn); err != nil {
			return c, err
		}
	}
	return c, nil
}

// resolveIndex converts a 1-based or negative relative OBJ index to 0-based.
func resolveIndex(s string, count int) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidOBJIndex, s)
	}
	idx := n - 1
	if n < 0 {
		idx = count + n
	}
	if idx < 0 || idx >= count {
		return 0, fmt.Errorf("%w: %d out of range (have %d)", ErrInvalidOBJIndex, n, count)
	}
	return idx, nil
}

func parseFloats(fields []string) ([]float64, error) {
	vals := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}
