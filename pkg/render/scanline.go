package render

import (
	"math"
	"sort"

	"github.com/taigrr/softrender/pkg/math3d"
)

// Attribute slots carried by fillVertex.
const (
	attrZ = iota
	attrU
	attrV
	attrLight
	numAttrs
)

type attrs [numAttrs]float64

func (a attrs) add(b attrs) attrs {
	for i := range a {
		a[i] += b[i]
	}
	return a
}

func (a attrs) sub(b attrs) attrs {
	for i := range a {
		a[i] -= b[i]
	}
	return a
}

func (a attrs) scale(s float64) attrs {
	for i := range a {
		a[i] *= s
	}
	return a
}

// fillVertex is a projected vertex: pixel-space position plus the values
// interpolated across the triangle.
type fillVertex struct {
	x, y float64
	a    attrs
}

func (v fillVertex) pos() math3d.Vec2 {
	return math3d.V2(v.x, v.y)
}

func (v fillVertex) finite() bool {
	return !math.IsNaN(v.x) && !math.IsInf(v.x, 0) &&
		!math.IsNaN(v.y) && !math.IsInf(v.y, 0) &&
		!math.IsNaN(v.a[attrZ]) && !math.IsInf(v.a[attrZ], 0)
}

// shadeFunc resolves the final color of a pixel from its interpolated
// attributes. It is only called for pixels that pass the depth test.
type shadeFunc func(a attrs) uint32

// signedArea returns twice the signed screen-space area of the triangle.
// Because screen Y points down, counter-clockwise world winding seen from
// the front gives a negative value.
func signedArea(v0, v1, v2 fillVertex) float64 {
	o := v0.pos()
	return v1.pos().Sub(o).Cross(v2.pos().Sub(o))
}

// edge walks one triangle edge a row at a time. x and a hold the values at
// the centre of the current row; dx and da are per-row increments.
type edge struct {
	x, dx float64
	a, da attrs
}

func newEdge(from, to fillVertex, y float64) edge {
	inv := 1 / (to.y - from.y)
	e := edge{
		dx: (to.x - from.x) * inv,
		da: to.a.sub(from.a).scale(inv),
	}
	t := y - from.y
	e.x = from.x + e.dx*t
	e.a = from.a.add(e.da.scale(t))
	return e
}

func (e *edge) step() {
	e.x += e.dx
	e.a = e.a.add(e.da)
}

// rowRange returns the pixel rows whose centres lie in [top, bottom),
// clamped to [0, height).
func rowRange(top, bottom float64, height int) (int, int) {
	return clampSpan(math.Ceil(top-0.5), math.Ceil(bottom-0.5), height)
}

func clampSpan(lo, hi float64, size int) (int, int) {
	lo = math.Max(lo, 0)
	hi = math.Min(hi, float64(size))
	if hi <= lo {
		return 0, 0
	}
	return int(lo), int(hi)
}

// fillTriangle scan-converts a triangle into fb using affine interpolation in
// screen space. It reports false when the triangle has a non-finite vertex or
// zero area and nothing was attempted.
func fillTriangle(fb *Framebuffer, tri [3]fillVertex, shade shadeFunc) bool {
	for _, v := range tri {
		if !v.finite() {
			return false
		}
	}
	if signedArea(tri[0], tri[1], tri[2]) == 0 {
		return false
	}

	v := tri
	sort.SliceStable(v[:], func(i, j int) bool { return v[i].y < v[j].y })

	fillHalf(fb, v[0], v[2], v[0], v[1], v[0].y, v[1].y, shade)
	fillHalf(fb, v[0], v[2], v[1], v[2], v[1].y, v[2].y, shade)
	return true
}

// fillHalf fills the rows between top and bottom bounded by the long edge
// l0->l1 and the short edge s0->s1.
func fillHalf(fb *Framebuffer, l0, l1, s0, s1 fillVertex, top, bottom float64, shade shadeFunc) {
	if bottom <= top {
		return
	}
	y0, y1 := rowRange(top, bottom, fb.Height)
	if y0 == y1 {
		return
	}

	start := float64(y0) + 0.5
	long := newEdge(l0, l1, start)
	short := newEdge(s0, s1, start)

	for y := y0; y < y1; y++ {
		fillSpan(fb, y, long.x, long.a, short.x, short.a, shade)
		long.step()
		short.step()
	}
}

// fillSpan fills the pixels of row y whose centres lie in [left, right).
func fillSpan(fb *Framebuffer, y int, xa float64, aa attrs, xb float64, ab attrs, shade shadeFunc) {
	if xa > xb {
		xa, xb = xb, xa
		aa, ab = ab, aa
	}
	if xb == xa {
		return
	}
	x0, x1 := clampSpan(math.Ceil(xa-0.5), math.Ceil(xb-0.5), fb.Width)
	if x0 == x1 {
		return
	}

	da := ab.sub(aa).scale(1 / (xb - xa))
	a := aa.add(da.scale(float64(x0) + 0.5 - xa))
	row := y * fb.Width
	for x := x0; x < x1; x++ {
		if fb.testDepth(x, y, a[attrZ]) {
			fb.Color.Pixels[row+x] = shade(a)
		}
		a = a.add(da)
	}
}
