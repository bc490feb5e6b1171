package texture

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
)

// TGA image type constants.
const (
	TGATypeUncompressed = 2  // Uncompressed true-color
	TGATypeRLE          = 10 // RLE compressed true-color
)

const (
	tgaHeaderSize  = 18
	tgaTopToBottom = 0x20
)

var (
	ErrTGATooShort    = errors.New("TGA data too short")
	ErrTGAUnsupported = errors.New("unsupported TGA")
	ErrTGATruncated   = errors.New("TGA data truncated")
)

// DecodeTGA decodes uncompressed (type 2) and RLE (type 10) true-color TGA
// data with 24 or 32 bits per pixel.
func DecodeTGA(data []byte) (*image.RGBA, error) {
	if len(data) < tgaHeaderSize {
		return nil, ErrTGATooShort
	}

	idLength := int(data[0])
	colorMapType := data[1]
	imageType := data[2]
	width := int(data[12]) | int(data[13])<<8
	height := int(data[14]) | int(data[15])<<8
	bpp := int(data[16])
	descriptor := data[17]

	if colorMapType != 0 {
		return nil, fmt.Errorf("%w: color-mapped", ErrTGAUnsupported)
	}
	if imageType != TGATypeUncompressed && imageType != TGATypeRLE {
		return nil, fmt.Errorf("%w: type %d", ErrTGAUnsupported, imageType)
	}
	if bpp != 24 && bpp != 32 {
		return nil, fmt.Errorf("%w: bit depth %d", ErrTGAUnsupported, bpp)
	}

	offset := tgaHeaderSize + idLength
	if offset > len(data) {
		return nil, ErrTGATruncated
	}

	d := &tgaDecoder{
		img:         image.NewRGBA(image.Rect(0, 0, width, height)),
		data:        data[offset:],
		bpp:         bpp / 8,
		topToBottom: descriptor&tgaTopToBottom != 0,
	}
	if imageType == TGATypeUncompressed {
		if len(d.data) < width*height*d.bpp {
			return nil, ErrTGATruncated
		}
		for i := 0; i < width*height; i++ {
			d.put(i, d.read())
		}
		return d.img, nil
	}

	if err := d.decodeRLE(); err != nil {
		return nil, err
	}
	return d.img, nil
}

type tgaDecoder struct {
	img         *image.RGBA
	data        []byte
	pos         int
	bpp         int
	topToBottom bool
}

// read consumes one BGR(A) pixel.
func (d *tgaDecoder) read() color.RGBA {
	p := d.data[d.pos : d.pos+d.bpp]
	d.pos += d.bpp
	c := color.RGBA{R: p[2], G: p[1], B: p[0], A: 255}
	if d.bpp == 4 {
		c.A = p[3]
	}
	return c
}

// put stores pixel number i in file order.
func (d *tgaDecoder) put(i int, c color.RGBA) {
	w := d.img.Rect.Dx()
	x, y := i%w, i/w
	if !d.topToBottom {
		y = d.img.Rect.Dy() - 1 - y
	}
	d.img.SetRGBA(x, y, c)
}

func (d *tgaDecoder) decodeRLE() error {
	total := d.img.Rect.Dx() * d.img.Rect.Dy()
	for i := 0; i < total; {
		if d.pos >= len(d.data) {
			return ErrTGATruncated
		}
		packet := d.data[d.pos]
		d.pos++
		count := int(packet&0x7F) + 1

		if packet&0x80 != 0 {
			if d.pos+d.bpp > len(d.data) {
				return ErrTGATruncated
			}
			c := d.read()
			for ; count > 0 && i < total; count-- {
				d.put(i, c)
				i++
			}
			continue
		}
		for ; count > 0 && i < total; count-- {
			if d.pos+d.bpp > len(d.data) {
				return ErrTGATruncated
			}
			d.put(i, d.read())
			i++
		}
	}
	return nil
}

// EncodeTGA writes img as an uncompressed 24-bit top-to-bottom TGA.
func EncodeTGA(w io.Writer, img image.Image) error {
	b := img.Bounds()
	if b.Dx() > 0xFFFF || b.Dy() > 0xFFFF {
		return fmt.Errorf("%w: %dx%d exceeds 65535", ErrTGAUnsupported, b.Dx(), b.Dy())
	}

	var header [tgaHeaderSize]byte
	header[2] = TGATypeUncompressed
	header[12] = byte(b.Dx())
	header[13] = byte(b.Dx() >> 8)
	header[14] = byte(b.Dy())
	header[15] = byte(b.Dy() >> 8)
	header[16] = 24
	header[17] = tgaTopToBottom

	bw := bufio.NewWriter(w)
	if _, err := bw.Write(header[:]); err != nil {
		return fmt.Errorf("writing TGA header: %w", err)
	}
	row := make([]byte, b.Dx()*3)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
			i := (x - b.Min.X) * 3
			row[i], row[i+1], row[i+2] = c.B, c.G, c.R
		}
		if _, err := bw.Write(row); err != nil {
			return fmt.Errorf("writing TGA pixels: %w", err)
		}
	}
	return bw.Flush()
}
