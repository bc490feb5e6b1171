// Package export writes baked maps to image files.
package export

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/anthonynsimon/bild/transform"
	"go.uber.org/multierr"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/Faultbox/texbake/internal/texture"
)

// ErrUnknownImageFormat is returned for an unrecognized output format name.
var ErrUnknownImageFormat = errors.New("unknown image format")

// Format is an output image encoding.
type Format string

const (
	FormatPNG  Format = "png"
	FormatBMP  Format = "bmp"
	FormatTIFF Format = "tiff"
	FormatTGA  Format = "tga"
)

// ParseFormat accepts a format name or file extension, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.TrimPrefix(strings.ToLower(s), ".") {
	case "png", "":
		return FormatPNG, nil
	case "bmp":
		return FormatBMP, nil
	case "tiff", "tif":
		return FormatTIFF, nil
	case "tga":
		return FormatTGA, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownImageFormat, s)
}

// Options controls where and how maps are written.
type Options struct {
	Dir    string
	Name   string
	Format Format
	// FlipV writes the last texel row first so that v=1 is at the top.
	FlipV bool
}

// Paths holds the output file of each map.
type Paths struct {
	Color    string
	Normal   string
	Position string
}

// PathsFor returns the file names WriteMaps uses for opts.
func PathsFor(opts Options) Paths {
	format := opts.Format
	if format == "" {
		format = FormatPNG
	}
	file := func(suffix string) string {
		return filepath.Join(opts.Dir, fmt.Sprintf("%s_%s.%s", opts.Name, suffix, format))
	}
	return Paths{
		Color:    file("texture"),
		Normal:   file("normal"),
		Position: file("position"),
	}
}

// WriteMaps writes the three maps of set. Every file is attempted; failures
// are combined.
func WriteMaps(set *texture.Set, opts Options) (Paths, error) {
	if _, err := ParseFormat(string(opts.Format)); err != nil {
		return Paths{}, err
	}
	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0755); err != nil {
			return Paths{}, fmt.Errorf("creating output dir: %w", err)
		}
	}

	paths := PathsFor(opts)
	var err error
	for _, out := range []struct {
		m    *texture.Map
		path string
	}{
		{set.Color, paths.Color},
		{set.Normal, paths.Normal},
		{set.Position, paths.Position},
	} {
		err = multierr.Append(err, WriteFile(out.path, out.m, opts))
	}
	return paths, err
}

// WriteFile encodes a single map to path.
func WriteFile(path string, m *texture.Map, opts Options) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	defer func() {
		err = multierr.Append(err, file.Close())
	}()

	var img image.Image = m.RGBA()
	if opts.FlipV {
		img = transform.FlipV(img)
	}
	if err := Encode(file, img, opts.Format); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Encode writes img in the given format.
func Encode(w io.Writer, img image.Image, format Format) error {
	f, err := ParseFormat(string(format))
	if err != nil {
		return err
	}
	switch f {
	case FormatBMP:
		err = bmp.Encode(w, img)
	case FormatTIFF:
		err = tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	case FormatTGA:
		err = texture.EncodeTGA(w, img)
	default:
		err = png.Encode(w, img)
	}
	if err != nil {
		return fmt.Errorf("encoding %s: %w", f, err)
	}
	return nil
}
