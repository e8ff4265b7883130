package render

import (
	"math"
	"math/rand/v2"

	"github.com/taigrr/softrender/pkg/math3d"
)

// fillBarycentric fills a triangle by testing every pixel centre of its
// clamped screen bounding box against the three edge functions. Depth is
// interpolated with the barycentric weights.
func fillBarycentric(fb *Framebuffer, tri [3]fillVertex, c uint32) bool {
	for _, v := range tri {
		if !v.finite() {
			return false
		}
	}
	area := signedArea(tri[0], tri[1], tri[2])
	if area == 0 {
		return false
	}

	v0, v1, v2 := tri[0], tri[1], tri[2]
	x0, x1 := clampSpan(
		math.Floor(math.Min(v0.x, math.Min(v1.x, v2.x))),
		math.Ceil(math.Max(v0.x, math.Max(v1.x, v2.x))),
		fb.Width)
	y0, y1 := clampSpan(
		math.Floor(math.Min(v0.y, math.Min(v1.y, v2.y))),
		math.Ceil(math.Max(v0.y, math.Max(v1.y, v2.y))),
		fb.Height)

	p0, p1, p2 := v0.pos(), v1.pos(), v2.pos()
	inv := 1 / area
	for y := y0; y < y1; y++ {
		py := float64(y) + 0.5
		for x := x0; x < x1; x++ {
			p := math3d.V2(float64(x)+0.5, py)
			w0 := p1.Sub(p).Cross(p2.Sub(p)) * inv
			w1 := p2.Sub(p).Cross(p0.Sub(p)) * inv
			w2 := 1 - w0 - w1
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}
			z := w0*v0.a[attrZ] + w1*v1.a[attrZ] + w2*v2.a[attrZ]
			if fb.testDepth(x, y, z) {
				fb.Color.Pixels[y*fb.Width+x] = c
			}
		}
	}
	return true
}

// randomColor returns an opaque color from the rasterizer's source, or from
// the process-wide source when no seed was set.
func (r *Rasterizer) randomColor() uint32 {
	if r.rng == nil {
		return rand.Uint32() | 0xFF000000
	}
	return r.rng.Uint32() | 0xFF000000
}
