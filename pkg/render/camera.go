package render

import (
	"github.com/taigrr/softrender/pkg/math3d"
)

// Projection parameters shared by every rasterizer.
const (
	DefaultFOV  = 45.0 // degrees
	DefaultNear = 0.1
	DefaultFar  = 100.0
)

// Camera is a look-at camera with a fixed perspective projection.
// Every setter recomputes the matrices it affects before returning.
type Camera struct {
	position math3d.Vec3
	target   math3d.Vec3
	up       math3d.Vec3

	fov    float64 // radians
	aspect float64
	near   float64
	far    float64

	view math3d.Mat4
	proj math3d.Mat4
}

// NewCamera creates a camera at (2, 0.5, 3) looking at the origin with the
// given aspect ratio (width / height).
func NewCamera(aspect float64) *Camera {
	c := &Camera{
		position: math3d.V3(2, 0.5, 3),
		target:   math3d.Vec3{},
		up:       math3d.Up(),
		fov:      math3d.Radians(DefaultFOV),
		aspect:   aspect,
		near:     DefaultNear,
		far:      DefaultFar,
	}
	c.updateView()
	c.proj = math3d.Perspective(c.fov, c.aspect, c.near, c.far)
	return c
}

// Position returns the eye position.
func (c *Camera) Position() math3d.Vec3 { return c.position }

// Target returns the look-at point.
func (c *Camera) Target() math3d.Vec3 { return c.target }

// SetPosition moves the eye.
func (c *Camera) SetPosition(pos math3d.Vec3) {
	c.position = pos
	c.updateView()
}

// SetTarget changes the look-at point.
func (c *Camera) SetTarget(target math3d.Vec3) {
	c.target = target
	c.updateView()
}

// ViewProjection returns projection * view.
func (c *Camera) ViewProjection() math3d.Mat4 {
	return c.proj.Mul(c.view)
}

func (c *Camera) updateView() {
	c.view = math3d.LookAt(c.position, c.target, c.up)
}
