// Package formats provides readers for triangle mesh file formats.
// PLY (Polygon File Format) reader.
package formats

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/Faultbox/texbake/pkg/mesh"
	texmath "github.com/Faultbox/texbake/pkg/math"
)

// PLY format errors.
var (
	ErrInvalidPLYMagic    = errors.New("invalid PLY magic: expected 'ply'")
	ErrUnsupportedPLYType = errors.New("unsupported PLY property type")
	ErrInvalidPLYHeader   = errors.New("invalid PLY header")
)

// maxPrealloc bounds slice capacity taken from header counts. Larger
// elements grow as the body is read.
const maxPrealloc = 1 << 16

// PLYEncoding is the body encoding declared in the header.
type PLYEncoding int

const (
	PLYASCII PLYEncoding = iota
	PLYBinaryLittleEndian
	PLYBinaryBigEndian
)

// String returns the header spelling of the encoding.
func (e PLYEncoding) String() string {
	switch e {
	case PLYASCII:
		return "ascii"
	case PLYBinaryLittleEndian:
		return "binary_little_endian"
	case PLYBinaryBigEndian:
		return "binary_big_endian"
	default:
		return fmt.Sprintf("Unknown(%d)", int(e))
	}
}

// PLYProperty is one property of a PLY element.
type PLYProperty struct {
	Name      string
	Type      string // scalar type, or list item type
	CountType string // list count type; empty for scalars
}

// IsList reports whether the property is a list.
func (p PLYProperty) IsList() bool {
	return p.CountType != ""
}

// PLYElement is an element declaration from the header.
type PLYElement struct {
	Name       string
	Count      int
	Properties []PLYProperty
}

// PLYHeader is the parsed PLY header.
type PLYHeader struct {
	Encoding PLYEncoding
	Comments []string
	Elements []PLYElement
}

// ParsePLY reads a PLY mesh. Vertices need x, y and z; nx/ny/nz and
// red/green/blue[/alpha] are picked up when present. Polygon faces are
// triangulated as fans.
func ParsePLY(r io.Reader) (*mesh.Mesh, error) {
	br := bufio.NewReader(r)

	header, err := parsePLYHeader(br)
	if err != nil {
		return nil, err
	}

	var body plyValueReader
	switch header.Encoding {
	case PLYASCII:
		sc := bufio.NewScanner(br)
		sc.Buffer(make([]byte, 64*1024), 1024*1024)
		sc.Split(bufio.ScanWords)
		body = &plyASCIIReader{sc: sc}
	case PLYBinaryLittleEndian:
		body = &plyBinaryReader{r: br, order: binary.LittleEndian}
	case PLYBinaryBigEndian:
		body = &plyBinaryReader{r: br, order: binary.BigEndian}
	}

	b := newPLYBuilder()
	for _, el := range header.Elements {
		if err := b.readElement(body, el); err != nil {
			return nil, fmt.Errorf("reading element %q: %w", el.Name, err)
		}
	}
	return b.finish()
}

// parsePLYHeader reads lines up to and including end_header.
func parsePLYHeader(br *bufio.Reader) (*PLYHeader, error) {
	line, err := readHeaderLine(br)
	if err != nil {
		return nil, ErrTruncatedData
	}
	if line != "ply" {
		return nil, ErrInvalidPLYMagic
	}

	h := &PLYHeader{}
	sawFormat := false
	for {
		line, err := readHeaderLine(br)
		if err != nil {
			return nil, fmt.Errorf("%w: missing end_header", ErrTruncatedData)
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "format":
			if len(fields) < 2 {
				return nil, fmt.Errorf("%w: %q", ErrInvalidPLYHeader, line)
			}
			switch fields[1] {
			case "ascii":
				h.Encoding = PLYASCII
			case "binary_little_endian":
				h.Encoding = PLYBinaryLittleEndian
			case "binary_big_endian":
				h.Encoding = PLYBinaryBigEndian
			default:
				return nil, fmt.Errorf("%w: format %q", ErrInvalidPLYHeader, fields[1])
			}
			sawFormat = true
		case "comment", "obj_info":
			h.Comments = append(h.Comments, strings.TrimSpace(strings.TrimPrefix(line, fields[0])))
		case "element":
			if len(fields) != 3 {
				return nil, fmt.Errorf("%w: %q", ErrInvalidPLYHeader, line)
			}
			count, err := strconv.Atoi(fields[2])
			if err != nil || count < 0 {
				return nil, fmt.Errorf("%w: element count %q", ErrInvalidPLYHeader, fields[2])
			}
			h.Elements = append(h.Elements, PLYElement{Name: fields[1], Count: count})
		case "property":
			if len(h.Elements) == 0 {
				return nil, fmt.Errorf("%w: property before element", ErrInvalidPLYHeader)
			}
			prop, err := parsePLYProperty(fields)
			if err != nil {
				return nil, err
			}
			el := &h.Elements[len(h.Elements)-1]
			el.Properties = append(el.Properties, prop)
		case "end_header":
			if !sawFormat {
				return nil, fmt.Errorf("%w: missing format line", ErrInvalidPLYHeader)
			}
			return h, nil
		default:
			return nil, fmt.Errorf("%w: unknown keyword %q", ErrInvalidPLYHeader, fields[0])
		}
	}
}

func parsePLYProperty(fields []string) (PLYProperty, error) {
	if len(fields) == 5 && fields[1] == "list" {
		p := PLYProperty{CountType: fields[2], Type: fields[3], Name: fields[4]}
		if plyTypeSize(p.CountType) == 0 || plyTypeSize(p.Type) == 0 {
			return p, fmt.Errorf("%w: list %s %s", ErrUnsupportedPLYType, p.CountType, p.Type)
		}
		return p, nil
	}
	if len(fields) != 3 {
		return PLYProperty{}, fmt.Errorf("%w: %q", ErrInvalidPLYHeader, strings.Join(fields, " "))
	}
	p := PLYProperty{Type: fields[1], Name: fields[2]}
	if plyTypeSize(p.Type) == 0 {
		return p, fmt.Errorf("%w: %s", ErrUnsupportedPLYType, p.Type)
	}
	return p, nil
}

func readHeaderLine(br *bufio.Reader) (string, error) {
	line, err := br.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// plyTypeSize returns the byte size of a PLY scalar type, or 0 if unknown.
func plyTypeSize(t string) int {
	switch t {
	case "char", "int8", "uchar", "uint8":
		return 1
	case "short", "int16", "ushort", "uint16":
		return 2
	case "int", "int32", "uint", "uint32", "float", "float32":
		return 4
	case "double", "float64":
		return 8
	default:
		return 0
	}
}

// isPLYFloat reports whether t is a floating point type.
func isPLYFloat(t string) bool {
	switch t {
	case "float", "float32", "double", "float64":
		return true
	}
	return false
}

// plyValueReader yields property values one at a time in body order.
type plyValueReader interface {
	next(typ string) (float64, error)
}

type plyASCIIReader struct {
	sc *bufio.Scanner
}

func (r *plyASCIIReader) next(string) (float64, error) {
	if !r.sc.Scan() {
		if err := r.sc.Err(); err != nil {
			return 0, err
		}
		return 0, ErrTruncatedData
	}
	v, err := strconv.ParseFloat(r.sc.Text(), 64)
	if err != nil {
		return 0, fmt.Errorf("parsing value %q: %w", r.sc.Text(), err)
	}
	return v, nil
}

type plyBinaryReader struct {
	r     io.Reader
	order binary.ByteOrder
	buf   [8]byte
}

func (r *plyBinaryReader) next(typ string) (float64, error) {
	n := plyTypeSize(typ)
	b := r.buf[:n]
	if _, err := io.ReadFull(r.r, b); err != nil {
		return 0, ErrTruncatedData
	}
	switch typ {
	case "char", "int8":
		return float64(int8(b[0])), nil
	case "uchar", "uint8":
		return float64(b[0]), nil
	case "short", "int16":
		return float64(int16(r.order.Uint16(b))), nil
	case "ushort", "uint16":
		return float64(r.order.Uint16(b)), nil
	case "int", "int32":
		return float64(int32(r.order.Uint32(b))), nil
	case "uint", "uint32":
		return float64(r.order.Uint32(b)), nil
	case "float", "float32":
		return float64(math.Float32frombits(r.order.Uint32(b))), nil
	default:
		return math.Float64frombits(r.order.Uint64(b)), nil
	}
}

// plyBuilder accumulates vertex and face data while elements are read.
type plyBuilder struct {
	positions []texmath.Vec3
	normals   []texmath.Vec3
	colors    []float64
	colorCh   int
	colorNorm bool
	faces     []mesh.Face
	hasVertex bool
}

func newPLYBuilder() *plyBuilder {
	return &plyBuilder{}
}

func (b *plyBuilder) readElement(r plyValueReader, el PLYElement) error {
	switch el.Name {
	case "vertex":
		return b.readVertices(r, el)
	case "face":
		return b.readFaces(r, el)
	default:
		return skipElement(r, el)
	}
}

func (b *plyBuilder) readVertices(r plyValueReader, el PLYElement) error {
	idx := make(map[string]int, len(el.Properties))
	for i, p := range el.Properties {
		idx[p.Name] = i
	}
	for _, name := range []string{"x", "y", "z"} {
		if _, ok := idx[name]; !ok {
			return fmt.Errorf("%w: vertex property %q", ErrMissingAttribute, name)
		}
	}
	_, hasNX := idx["nx"]
	_, hasNY := idx["ny"]
	_, hasNZ := idx["nz"]
	hasNormals := hasNX && hasNY && hasNZ

	_, hasR := idx["red"]
	_, hasG := idx["green"]
	_, hasB := idx["blue"]
	_, hasA := idx["alpha"]
	hasColors := hasR && hasG && hasB
	if hasColors {
		b.colorCh = 3
		if hasA {
			b.colorCh = 4
		}
		b.colorNorm = isPLYFloat(el.Properties[idx["red"]].Type)
	}

	b.hasVertex = true
	capacity := min(el.Count, maxPrealloc)
	b.positions = make([]texmath.Vec3, 0, capacity)
	if hasNormals {
		b.normals = make([]texmath.Vec3, 0, capacity)
	}
	if hasColors {
		b.colors = make([]float64, 0, capacity*b.colorCh)
	}

	vals := make([]float64, len(el.Properties))
	for i := 0; i < el.Count; i++ {
		for j, p := range el.Properties {
			if p.IsList() {
				if err := skipList(r, p); err != nil {
					return err
				}
				continue
			}
			v, err := r.next(p.Type)
			if err != nil {
				return fmt.Errorf("vertex %d: %w", i, err)
			}
			vals[j] = v
		}

		b.positions = append(b.positions, texmath.V3(vals[idx["x"]], vals[idx["y"]], vals[idx["z"]]))
		if hasNormals {
			b.normals = append(b.normals, texmath.V3(vals[idx["nx"]], vals[idx["ny"]], vals[idx["nz"]]))
		}
		if hasColors {
			b.colors = append(b.colors, vals[idx["red"]], vals[idx["green"]], vals[idx["blue"]])
			if hasA {
				b.colors = append(b.colors, vals[idx["alpha"]])
			}
		}
	}
	return nil
}

func (b *plyBuilder) readFaces(r plyValueReader, el PLYElement) error {
	listIdx := -1
	for i, p := range el.Properties {
		if p.IsList() && (p.Name == "vertex_indices" || p.Name == "vertex_index") {
			listIdx = i
			break
		}
	}
	if listIdx < 0 {
		return fmt.Errorf("%w: face property vertex_indices", ErrMissingAttribute)
	}

	b.faces = make([]mesh.Face, 0, min(el.Count, maxPrealloc))
	poly := make([]int, 0, 4)
	for i := 0; i < el.Count; i++ {
		for j, p := range el.Properties {
			if j != listIdx {
				if p.IsList() {
					if err := skipList(r, p); err != nil {
						return err
					}
				} else if _, err := r.next(p.Type); err != nil {
					return err
				}
				continue
			}

			n, err := r.next(p.CountType)
			if err != nil {
				return fmt.Errorf("face %d: %w", i, err)
			}
			poly = poly[:0]
			for k := 0; k < int(n); k++ {
				v, err := r.next(p.Type)
				if err != nil {
					return fmt.Errorf("face %d: %w", i, err)
				}
				poly = append(poly, int(v))
			}
			b.faces = appendFan(b.faces, poly)
		}
	}
	return nil
}

func (b *plyBuilder) finish() (*mesh.Mesh, error) {
	if !b.hasVertex {
		return nil, fmt.Errorf("%w: no vertex element", ErrMissingAttribute)
	}
	m := &mesh.Mesh{
		Positions: b.positions,
		Faces:     b.faces,
		Normals:   b.normals,
	}
	if b.colorCh > 0 {
		colors, err := mesh.NewColors(b.colorCh, b.colorNorm, b.colors)
		if err != nil {
			return nil, err
		}
		m.Colors = colors
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func skipElement(r plyValueReader, el PLYElement) error {
	for i := 0; i < el.Count; i++ {
		for _, p := range el.Properties {
			if p.IsList() {
				if err := skipList(r, p); err != nil {
					return err
				}
				continue
			}
			if _, err := r.next(p.Type); err != nil {
				return err
			}
		}
	}
	return nil
}

func skipList(r plyValueReader, p PLYProperty) error {
	n, err := r.next(p.CountType)
	if err != nil {
		return err
	}
	for k := 0; k < int(n); k++ {
		if _, err := r.next(p.Type); err != nil {
			return err
		}
	}
	return nil
}

// appendFan triangulates a convex polygon around its first vertex.
func appendFan(faces []mesh.Face, poly []int) []mesh.Face {
	for k := 1; k+1 < len(poly); k++ {
		faces = append(faces, mesh.Face{poly[0], poly[k], poly[k+1]})
	}
	return faces
}
