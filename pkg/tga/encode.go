package tga

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/taigrr/softrender/pkg/texture"
)

const maxPacket = 128

// Encode writes tex as an uncompressed 32-bit TGA with a bottom-left origin.
func Encode(w io.Writer, tex *texture.Texture) error {
	return encode(w, tex, false)
}

// EncodeRLE writes tex as a run-length encoded 32-bit TGA. Packets never
// cross scanlines.
func EncodeRLE(w io.Writer, tex *texture.Texture) error {
	return encode(w, tex, true)
}

func encode(w io.Writer, tex *texture.Texture, rle bool) error {
	if tex.Width <= 0 || tex.Height <= 0 || tex.Width > 0xFFFF || tex.Height > 0xFFFF {
		return fmt.Errorf("tga: cannot encode %dx%d image", tex.Width, tex.Height)
	}
	if len(tex.Pixels) != tex.Width*tex.Height {
		return fmt.Errorf("tga: pixel count %d does not match %dx%d", len(tex.Pixels), tex.Width, tex.Height)
	}

	h := header{
		ImageType:    typeTrueColor,
		Width:        uint16(tex.Width),
		Height:       uint16(tex.Height),
		BitsPerPixel: 32,
		Descriptor:   8, // alpha bits
	}
	if rle {
		h.ImageType = typeTrueColorRLE
	}

	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, binary.LittleEndian, h); err != nil {
		return err
	}

	for y := tex.Height - 1; y >= 0; y-- {
		row := tex.Pixels[y*tex.Width : (y+1)*tex.Width]
		var err error
		if rle {
			err = writeRLERow(bw, row)
		} else {
			err = writeRawRow(bw, row)
		}
		if err != nil {
			return err
		}
	}
	return bw.Flush()
}

func putBGRA(b []byte, c uint32) {
	r, g, bl, a := texture.Unpack(c)
	b[0], b[1], b[2], b[3] = bl, g, r, a
}

func writeRawRow(w *bufio.Writer, row []uint32) error {
	var px [4]byte
	for _, c := range row {
		putBGRA(px[:], c)
		if _, err := w.Write(px[:]); err != nil {
			return err
		}
	}
	return nil
}

func writeRLERow(w *bufio.Writer, row []uint32) error {
	var px [4]byte
	for i := 0; i < len(row); {
		run := runLength(row[i:])
		if run > 1 {
			if err := w.WriteByte(byte(0x80 | (run - 1))); err != nil {
				return err
			}
			putBGRA(px[:], row[i])
			if _, err := w.Write(px[:]); err != nil {
				return err
			}
			i += run
			continue
		}

		// Literal packet: extend until the next repeat starts.
		n := 1
		for i+n < len(row) && n < maxPacket && runLength(row[i+n:]) == 1 {
			n++
		}
		if err := w.WriteByte(byte(n - 1)); err != nil {
			return err
		}
		for _, c := range row[i : i+n] {
			putBGRA(px[:], c)
			if _, err := w.Write(px[:]); err != nil {
				return err
			}
		}
		i += n
	}
	return nil
}

// runLength counts identical leading pixels, capped at one packet.
func runLength(px []uint32) int {
	n := 1
	for n < len(px) && n < maxPacket && px[n] == px[0] {
		n++
	}
	return n
}
