package tga

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taigrr/softrender/pkg/texture"
)

func sampleImage() *texture.Texture {
	tex := texture.New(5, 3)
	for y := range tex.Height {
		for x := range tex.Width {
			tex.Set(x, y, texture.Pack(uint8(x*40), uint8(y*90), uint8(x+y), uint8(255-x*10)))
		}
	}
	// A horizontal run so RLE has something to compress.
	for x := range 4 {
		tex.Set(x, 1, 0xFF336699)
	}
	return tex
}

func TestRoundTripRaw(t *testing.T) {
	src := sampleImage()

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, src))
	assert.Equal(t, headerSize+src.Width*src.Height*4, buf.Len())

	got, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, src, got)
}

func TestRoundTripRLE(t *testing.T) {
	src := sampleImage()

	var buf bytes.Buffer
	require.NoError(t, EncodeRLE(&buf, src))

	got, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, src, got)
}

func TestRLECompressesUniformImage(t *testing.T) {
	src := texture.New(300, 2)
	src.Fill(0xFF00FF00)

	var buf bytes.Buffer
	require.NoError(t, EncodeRLE(&buf, src))
	// 300 pixels per row need three repeat packets (128+128+44) of 5 bytes each.
	assert.Equal(t, headerSize+2*3*5, buf.Len())

	got, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, src, got)
}

func TestEncodeHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, texture.New(258, 7)))

	b := buf.Bytes()
	assert.Equal(t, byte(typeTrueColor), b[2])
	assert.Equal(t, uint16(258), binary.LittleEndian.Uint16(b[12:]))
	assert.Equal(t, uint16(7), binary.LittleEndian.Uint16(b[14:]))
	assert.Equal(t, byte(32), b[16])
	assert.Equal(t, byte(0x08), b[17])
}

func TestEncodeRowOrderAndChannels(t *testing.T) {
	tex := texture.New(1, 2)
	tex.Set(0, 0, 0x11223344) // top
	tex.Set(0, 1, 0xAABBCCDD) // bottom

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, tex))
	px := buf.Bytes()[headerSize:]
	// Bottom row first, stored as B, G, R, A.
	assert.Equal(t, []byte{0xDD, 0xCC, 0xBB, 0xAA, 0x44, 0x33, 0x22, 0x11}, px)
}

func rawHeader(imageType, bpp, desc byte, w, h uint16) []byte {
	hdr := make([]byte, headerSize)
	hdr[2] = imageType
	binary.LittleEndian.PutUint16(hdr[12:], w)
	binary.LittleEndian.PutUint16(hdr[14:], h)
	hdr[16] = bpp
	hdr[17] = desc
	return hdr
}

func TestDecodeVariants(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want []uint32
	}{
		{
			name: "24bpp bottom-left",
			data: append(rawHeader(2, 24, 0, 1, 2), 1, 2, 3, 4, 5, 6),
			want: []uint32{0xFF060504, 0xFF030201},
		},
		{
			name: "32bpp top-left",
			data: append(rawHeader(2, 32, 0x28, 1, 2), 1, 2, 3, 4, 5, 6, 7, 8),
			want: []uint32{0x04030201, 0x08070605},
		},
		{
			name: "8bpp grayscale",
			data: append(rawHeader(3, 8, 0x20, 2, 1), 0x10, 0xF0),
			want: []uint32{0xFF101010, 0xFFF0F0F0},
		},
		{
			name: "rle mixed packets",
			data: append(rawHeader(10, 24, 0x20, 3, 1), 0x81, 9, 8, 7, 0x00, 1, 2, 3),
			want: []uint32{0xFF070809, 0xFF070809, 0xFF030201},
		},
		{
			name: "rle packet crosses rows",
			data: append(rawHeader(10, 24, 0x20, 2, 2), 0x82, 9, 8, 7, 0x00, 1, 2, 3),
			want: []uint32{0xFF070809, 0xFF070809, 0xFF070809, 0xFF030201},
		},
		{
			name: "right to left",
			data: append(rawHeader(3, 8, 0x30, 2, 1), 0x10, 0xF0),
			want: []uint32{0xFFF0F0F0, 0xFF101010},
		},
		{
			name: "image id skipped",
			data: func() []byte {
				h := rawHeader(3, 8, 0x20, 1, 1)
				h[0] = 3
				return append(h, 'a', 'b', 'c', 0x42)
			}(),
			want: []uint32{0xFF424242},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Decode(bytes.NewReader(tc.data))
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.Pixels)
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"short header", []byte{0, 0, 2}, ErrMalformedHeader},
		{"zero width", rawHeader(2, 32, 0, 0, 4), ErrMalformedHeader},
		{"color mapped", rawHeader(1, 8, 0, 2, 2), ErrUnsupported},
		{"rle grayscale", rawHeader(11, 8, 0, 2, 2), ErrUnsupported},
		{"16 bpp", rawHeader(2, 16, 0, 2, 2), ErrUnsupported},
		{"16 bpp gray", rawHeader(3, 16, 0, 2, 2), ErrUnsupported},
		{"truncated raw", append(rawHeader(2, 24, 0, 2, 2), 1, 2, 3), ErrTruncated},
		{"truncated rle", append(rawHeader(10, 24, 0, 2, 2), 0x83, 1, 2), ErrTruncated},
		{"rle overrun", append(rawHeader(10, 24, 0, 1, 1), 0x85, 1, 2, 3), ErrTruncated},
		{"oversized claim", append(rawHeader(2, 32, 0, 65535, 65535), 1, 2, 3, 4), ErrTruncated},
		{"oversized rle claim", append(rawHeader(10, 32, 0, 65535, 65535), 0xFF, 1, 2, 3, 4), ErrTruncated},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(bytes.NewReader(tc.data))
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestEncodeRejectsEmpty(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, Encode(&buf, texture.New(0, 0)))
}
