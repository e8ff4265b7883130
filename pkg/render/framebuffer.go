// Package render rasterizes meshes into a color and depth buffer.
package render

import (
	"math"

	"github.com/taigrr/softrender/pkg/texture"
)

// DepthEpsilon is the margin a fragment must beat the stored depth by.
// Fragments within the margin lose to what is already in the buffer.
const DepthEpsilon = 1e-4

// Framebuffer pairs a packed-ARGB color buffer with a depth buffer of the
// same size. Depth starts at +Inf; smaller values are closer.
type Framebuffer struct {
	Width  int
	Height int
	Color  *texture.Texture
	Depth  []float64
}

// NewFramebuffer creates a framebuffer cleared to transparent black and
// infinite depth.
func NewFramebuffer(width, height int) *Framebuffer {
	fb := &Framebuffer{
		Width:  max(width, 0),
		Height: max(height, 0),
	}
	fb.Color = texture.New(fb.Width, fb.Height)
	fb.Depth = make([]float64, fb.Width*fb.Height)
	fb.ClearDepth()
	return fb
}

// Clear sets every color cell to c and every depth cell to +Inf.
func (fb *Framebuffer) Clear(c uint32) {
	fb.Color.Fill(c)
	fb.ClearDepth()
}

// ClearDepth resets every depth cell to +Inf.
func (fb *Framebuffer) ClearDepth() {
	if len(fb.Depth) == 0 {
		return
	}
	fb.Depth[0] = math.Inf(1)
	// Copy-doubling fill.
	for filled := 1; filled < len(fb.Depth); filled *= 2 {
		copy(fb.Depth[filled:], fb.Depth[:filled])
	}
}

// SetPixel writes c at (x, y). Out-of-range pixels are dropped.
func (fb *Framebuffer) SetPixel(x, y int, c uint32) {
	fb.Color.Set(x, y, c)
}

// GetPixel returns the color at (x, y), or 0 when out of range.
func (fb *Framebuffer) GetPixel(x, y int) uint32 {
	return fb.Color.At(x, y)
}

// DepthAt returns the stored depth at (x, y), or +Inf when out of range.
func (fb *Framebuffer) DepthAt(x, y int) float64 {
	if x < 0 || x >= fb.Width || y < 0 || y >= fb.Height {
		return math.Inf(1)
	}
	return fb.Depth[y*fb.Width+x]
}

// testDepth reports whether z is closer than the stored depth at (x, y) by
// more than DepthEpsilon, and if so records z. The caller guarantees (x, y)
// is in range. The comparison is z < stored-DepthEpsilon on purpose: depths
// within epsilon of each other keep the pixel already drawn.
func (fb *Framebuffer) testDepth(x, y int, z float64) bool {
	i := y*fb.Width + x
	if z < fb.Depth[i]-DepthEpsilon {
		fb.Depth[i] = z
		return true
	}
	return false
}

// DrawLine draws an integer Bresenham line from (x0, y0) to (x1, y1),
// inclusive of both endpoints. No depth test is applied.
func (fb *Framebuffer) DrawLine(x0, y0, x1, y1 int, c uint32) {
	steep := false
	if abs(x0-x1) < abs(y0-y1) {
		x0, y0 = y0, x0
		x1, y1 = y1, x1
		steep = true
	}
	if x0 > x1 {
		x0, x1 = x1, x0
		y0, y1 = y1, y0
	}

	dx := x1 - x0
	dy := y1 - y0
	derror2 := abs(dy) * 2
	error2 := 0
	ystep := 1
	if dy < 0 {
		ystep = -1
	}

	y := y0
	for x := x0; x <= x1; x++ {
		if steep {
			fb.SetPixel(y, x, c)
		} else {
			fb.SetPixel(x, y, c)
		}
		error2 += derror2
		if error2 > dx {
			y += ystep
			error2 -= dx * 2
		}
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
