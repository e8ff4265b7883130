package texture

import (
	"image/color"
	"math"
)

// Pack builds a 0xAARRGGBB value.
func Pack(r, g, b, a uint8) uint32 {
	return uint32(a)<<24 | uint32(r)<<16 | uint32(g)<<8 | uint32(b)
}

// Unpack splits a 0xAARRGGBB value into channels.
func Unpack(c uint32) (r, g, b, a uint8) {
	return uint8(c >> 16), uint8(c >> 8), uint8(c), uint8(c >> 24)
}

// PackNRGBA packs a non-premultiplied color.
func PackNRGBA(c color.NRGBA) uint32 {
	return Pack(c.R, c.G, c.B, c.A)
}

// UnpackNRGBA is the inverse of PackNRGBA.
func UnpackNRGBA(c uint32) color.NRGBA {
	r, g, b, a := Unpack(c)
	return color.NRGBA{R: r, G: g, B: b, A: a}
}

// Shade multiplies the RGB channels of c by intensity, rounding to nearest
// and clamping to [0, 255]. Alpha is kept as is.
func Shade(c uint32, intensity float64) uint32 {
	r, g, b, a := Unpack(c)
	return Pack(scaleChannel(r, intensity), scaleChannel(g, intensity), scaleChannel(b, intensity), a)
}

// Gray returns an opaque gray of round(255*intensity), clamped.
func Gray(intensity float64) uint32 {
	v := scaleChannel(255, intensity)
	return Pack(v, v, v, 255)
}

func scaleChannel(ch uint8, intensity float64) uint8 {
	v := math.Round(float64(ch) * intensity)
	switch {
	case v >= 255:
		return 255
	case v <= 0 || math.IsNaN(v):
		return 0
	}
	return uint8(v)
}
