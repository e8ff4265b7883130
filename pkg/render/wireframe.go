package render

import (
	"math"

	"github.com/taigrr/softrender/pkg/math3d"
)

// guardBand is how far outside the buffer, in multiples of its larger side,
// an edge endpoint may lie before the edge is dropped.
const guardBand = 8

// drawPolygon draws the closed outline through pts, wrapping from the last
// point to the first. It returns the number of edges drawn.
func (r *Rasterizer) drawPolygon(pts []math3d.Vec2, c uint32) int {
	if len(pts) < 2 {
		return 0
	}
	drawn := 0
	for i := range pts {
		a := pts[i]
		b := pts[(i+1)%len(pts)]
		if len(pts) == 2 && i == 1 {
			break
		}
		if !r.inGuardBand(a) || !r.inGuardBand(b) {
			continue
		}
		r.fb.DrawLine(
			int(math.Floor(a.X)), int(math.Floor(a.Y)),
			int(math.Floor(b.X)), int(math.Floor(b.Y)),
			c)
		drawn++
	}
	return drawn
}

func (r *Rasterizer) inGuardBand(p math3d.Vec2) bool {
	if !p.IsFinite() {
		return false
	}
	g := float64(guardBand * max(r.fb.Width, r.fb.Height))
	return p.X >= -g && p.X <= float64(r.fb.Width)+g &&
		p.Y >= -g && p.Y <= float64(r.fb.Height)+g
}
