// Package tga reads and writes Truevision TGA images.
//
// Supported on input: uncompressed true-color (type 2), uncompressed
// grayscale (type 3) and run-length encoded true-color (type 10), at 8, 24
// or 32 bits per pixel. Output is always 32-bit BGRA, either raw or RLE.
package tga

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/taigrr/softrender/pkg/texture"
)

const headerSize = 18

// Image types.
const (
	typeTrueColor    = 2
	typeGrayscale    = 3
	typeTrueColorRLE = 10
)

// Descriptor bits.
const (
	descRightLeft   = 0x10
	descTopToBottom = 0x20
)

var (
	// ErrMalformedHeader is returned for short or inconsistent headers.
	ErrMalformedHeader = errors.New("tga: malformed header")
	// ErrUnsupported is returned for valid TGA variants this package does not decode.
	ErrUnsupported = errors.New("tga: unsupported variant")
	// ErrTruncated is returned when pixel data ends early.
	ErrTruncated = errors.New("tga: truncated pixel data")
)

type header struct {
	IDLength     uint8
	ColorMapType uint8
	ImageType    uint8
	CMapFirst    uint16
	CMapLength   uint16
	CMapDepth    uint8
	XOrigin      uint16
	YOrigin      uint16
	Width        uint16
	Height       uint16
	BitsPerPixel uint8
	Descriptor   uint8
}

func (h header) bytesPerPixel() int {
	return int(h.BitsPerPixel) / 8
}

func (h header) validate() error {
	if h.Width == 0 || h.Height == 0 {
		return fmt.Errorf("%w: zero dimension %dx%d", ErrMalformedHeader, h.Width, h.Height)
	}
	if h.ColorMapType > 1 {
		return fmt.Errorf("%w: color map type %d", ErrMalformedHeader, h.ColorMapType)
	}
	switch h.ImageType {
	case typeTrueColor, typeTrueColorRLE:
		if h.BitsPerPixel != 24 && h.BitsPerPixel != 32 {
			return fmt.Errorf("%w: %d bpp true-color", ErrUnsupported, h.BitsPerPixel)
		}
	case typeGrayscale:
		if h.BitsPerPixel != 8 {
			return fmt.Errorf("%w: %d bpp grayscale", ErrUnsupported, h.BitsPerPixel)
		}
	default:
		return fmt.Errorf("%w: image type %d", ErrUnsupported, h.ImageType)
	}
	return nil
}

// Decode reads a TGA image. Rows are returned top to bottom regardless of
// the origin recorded in the file.
func Decode(r io.Reader) (*texture.Texture, error) {
	br := bufio.NewReader(r)

	var h header
	if err := binary.Read(br, binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedHeader, err)
	}
	if err := h.validate(); err != nil {
		return nil, err
	}

	// The image ID and any color map are skipped. True-color images may
	// legally carry a color map that is not used for pixel lookup.
	skip := int(h.IDLength)
	if h.ColorMapType == 1 {
		skip += int(h.CMapLength) * ((int(h.CMapDepth) + 7) / 8)
	}
	if _, err := br.Discard(skip); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedHeader, err)
	}

	width, height := int(h.Width), int(h.Height)
	bpp := h.bytesPerPixel()

	var src rowReader = rawRows{br}
	if h.ImageType == typeTrueColorRLE {
		src = &rleRows{r: br, bpp: bpp, pixel: make([]byte, bpp)}
	}

	// Pixels grow with the rows actually read, so a header claiming a huge
	// image costs no more than the data behind it.
	pixels := make([]uint32, 0, min(width*height, initialPixels))
	row := make([]byte, width*bpp)
	rightLeft := h.Descriptor&descRightLeft != 0
	for range height {
		if err := src.readRow(row); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTruncated, err)
		}
		start := len(pixels)
		for off := 0; off < len(row); off += bpp {
			pixels = append(pixels, unpackPixel(row[off:off+bpp], bpp))
		}
		if rightLeft {
			slices.Reverse(pixels[start:])
		}
	}
	if rle, ok := src.(*rleRows); ok && rle.pending() > 0 {
		return nil, fmt.Errorf("%w: packet overruns image by %d pixels", ErrTruncated, rle.pending())
	}

	if h.Descriptor&descTopToBottom == 0 {
		flipRows(pixels, width, height)
	}
	return &texture.Texture{Width: width, Height: height, Pixels: pixels}, nil
}

// initialPixels caps the up-front pixel allocation of Decode.
const initialPixels = 1 << 20

func flipRows(pixels []uint32, width, height int) {
	for top, bottom := 0, height-1; top < bottom; top, bottom = top+1, bottom-1 {
		a := pixels[top*width : (top+1)*width]
		b := pixels[bottom*width : (bottom+1)*width]
		for i := range a {
			a[i], b[i] = b[i], a[i]
		}
	}
}

// rowReader fills one row of file-order pixel bytes at a time.
type rowReader interface {
	readRow(dst []byte) error
}

type rawRows struct {
	r *bufio.Reader
}

func (s rawRows) readRow(dst []byte) error {
	_, err := io.ReadFull(s.r, dst)
	return err
}

// rleRows expands run-length packets. A packet header below 0x80 introduces
// n+1 literal pixels; otherwise the single following pixel is repeated
// (n&0x7F)+1 times. Packets may cross row boundaries.
type rleRows struct {
	r       *bufio.Reader
	bpp     int
	pixel   []byte
	literal int
	repeat  int
}

func (s *rleRows) pending() int { return s.literal + s.repeat }

func (s *rleRows) readRow(dst []byte) error {
	for i := 0; i < len(dst); i += s.bpp {
		if s.pending() == 0 {
			hdr, err := s.r.ReadByte()
			if err != nil {
				return unexpected(err)
			}
			count := int(hdr&0x7F) + 1
			if hdr&0x80 == 0 {
				s.literal = count
			} else {
				if _, err := io.ReadFull(s.r, s.pixel); err != nil {
					return unexpected(err)
				}
				s.repeat = count
			}
		}

		px := dst[i : i+s.bpp]
		if s.repeat > 0 {
			copy(px, s.pixel)
			s.repeat--
			continue
		}
		if _, err := io.ReadFull(s.r, px); err != nil {
			return unexpected(err)
		}
		s.literal--
	}
	return nil
}

func unexpected(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}

func unpackPixel(p []byte, bpp int) uint32 {
	switch bpp {
	case 1:
		return texture.Pack(p[0], p[0], p[0], 255)
	case 3:
		return texture.Pack(p[2], p[1], p[0], 255)
	default:
		return texture.Pack(p[2], p[1], p[0], p[3])
	}
}
