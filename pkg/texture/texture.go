// Package texture holds the packed-ARGB pixel buffers used both as texture
// sources and as render targets.
package texture

import (
	"image"
	"image/color"
	"math"
)

// Opaque black, returned when sampling an empty texture.
const Black uint32 = 0xFF000000

// Texture is a row-major grid of packed 0xAARRGGBB colors. Row 0 is the top
// row. len(Pixels) == Width*Height always holds for textures built by this
// package.
type Texture struct {
	Width  int
	Height int
	Pixels []uint32
}

// New creates a zeroed (transparent black) texture.
func New(width, height int) *Texture {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Texture{
		Width:  width,
		Height: height,
		Pixels: make([]uint32, width*height),
	}
}

// Empty reports whether the texture holds no pixels.
func (t *Texture) Empty() bool {
	return t == nil || t.Width == 0 || t.Height == 0 || len(t.Pixels) == 0
}

// At returns the pixel at (x, y), or 0 when out of bounds.
func (t *Texture) At(x, y int) uint32 {
	if x < 0 || x >= t.Width || y < 0 || y >= t.Height {
		return 0
	}
	return t.Pixels[y*t.Width+x]
}

// Set writes the pixel at (x, y). Out-of-bounds writes are ignored.
func (t *Texture) Set(x, y int, c uint32) {
	if x < 0 || x >= t.Width || y < 0 || y >= t.Height {
		return
	}
	t.Pixels[y*t.Width+x] = c
}

// Fill sets every pixel to c.
func (t *Texture) Fill(c uint32) {
	for i := range t.Pixels {
		t.Pixels[i] = c
	}
}

// Clone returns a deep copy.
func (t *Texture) Clone() *Texture {
	c := &Texture{Width: t.Width, Height: t.Height, Pixels: make([]uint32, len(t.Pixels))}
	copy(c.Pixels, t.Pixels)
	return c
}

// Sample returns the texel under (u, v) with repeat wrapping and
// nearest-neighbour lookup. (0, 0) addresses the first stored texel, so
// callers working in bottom-left UV space pass 1-v.
func (t *Texture) Sample(u, v float64) uint32 {
	if t.Empty() {
		return Black
	}

	u -= math.Floor(u)
	v -= math.Floor(v)

	x := clampIndex(int(u*float64(t.Width)), t.Width)
	y := clampIndex(int(v*float64(t.Height)), t.Height)
	return t.Pixels[y*t.Width+x]
}

func clampIndex(i, size int) int {
	if i < 0 {
		return 0
	}
	if i >= size {
		return size - 1
	}
	return i
}

// FromImage converts any image.Image into a Texture.
func FromImage(img image.Image) *Texture {
	b := img.Bounds()
	tex := New(b.Dx(), b.Dy())
	for y := range tex.Height {
		for x := range tex.Width {
			c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			tex.Pixels[y*tex.Width+x] = PackNRGBA(c)
		}
	}
	return tex
}

// ToImage converts the texture to a non-premultiplied RGBA image.
func (t *Texture) ToImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, t.Width, t.Height))
	for y := range t.Height {
		for x := range t.Width {
			img.SetNRGBA(x, y, UnpackNRGBA(t.Pixels[y*t.Width+x]))
		}
	}
	return img
}
