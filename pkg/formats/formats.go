package formats

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Faultbox/texbake/pkg/mesh"
)

// Shared format errors.
var (
	ErrUnsupportedFormat = errors.New("unsupported mesh format")
	ErrMissingAttribute  = errors.New("missing required attribute")
	ErrTruncatedData     = errors.New("truncated mesh data")
)

// Format identifies a mesh file format.
type Format string

const (
	FormatPLY Format = "ply"
	FormatOBJ Format = "obj"
)

// DetectFormat picks a format from the file extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ply":
		return FormatPLY, nil
	case ".obj":
		return FormatOBJ, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Load reads a mesh file, choosing the parser by extension.
func Load(path string) (*mesh.Mesh, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var m *mesh.Mesh
	switch format {
	case FormatPLY:
		m, err = ParsePLY(f)
	case FormatOBJ:
		m, err = ParseOBJ(f)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return m, nil
}
