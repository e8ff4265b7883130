package render

import (
	"github.com/taigrr/softrender/pkg/math3d"
)

// Plane is the set of points p with Normal·p + D = 0.
type Plane struct {
	Normal math3d.Vec3
	D      float64
}

// Normalize scales the plane so Normal has unit length.
func (p *Plane) Normalize() {
	l := p.Normal.Len()
	if l == 0 {
		return
	}
	p.Normal = p.Normal.Scale(1 / l)
	p.D /= l
}

// DistanceToPoint returns the signed distance from the plane to point.
// Positive values are on the side the normal points to.
func (p Plane) DistanceToPoint(point math3d.Vec3) float64 {
	return p.Normal.Dot(point) + p.D
}

// Frustum holds six inward-facing planes ordered left, right, bottom, top,
// near, far.
type Frustum struct {
	Planes [6]Plane
}

// Plane indices within Frustum.Planes.
const (
	FrustumLeft = iota
	FrustumRight
	FrustumBottom
	FrustumTop
	FrustumNear
	FrustumFar
)

// NewFrustumFromMatrix extracts the clip planes of m with the Gribb/Hartmann
// method. For an MVP matrix the planes are in model space.
func NewFrustumFromMatrix(m math3d.Mat4) Frustum {
	// Row i of a column-major matrix is m[i], m[i+4], m[i+8], m[i+12].
	row := func(i int) (math3d.Vec3, float64) {
		return math3d.V3(m[i], m[i+4], m[i+8]), m[i+12]
	}
	w, dw := row(3)

	var f Frustum
	for axis := range 3 {
		n, d := row(axis)
		f.Planes[2*axis] = Plane{Normal: w.Add(n), D: dw + d}
		f.Planes[2*axis+1] = Plane{Normal: w.Sub(n), D: dw - d}
	}
	for i := range f.Planes {
		f.Planes[i].Normalize()
	}
	return f
}

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min math3d.Vec3
	Max math3d.Vec3
}

// IntersectAABB reports whether any part of box may be inside the frustum.
// For each plane only the corner furthest along the normal is tested.
func (f Frustum) IntersectAABB(box AABB) bool {
	for _, plane := range f.Planes {
		positive := math3d.V3(
			selectComponent(plane.Normal.X >= 0, box.Max.X, box.Min.X),
			selectComponent(plane.Normal.Y >= 0, box.Max.Y, box.Min.Y),
			selectComponent(plane.Normal.Z >= 0, box.Max.Z, box.Min.Z),
		)
		if plane.DistanceToPoint(positive) < 0 {
			return false
		}
	}
	return true
}

// ContainsAABB reports whether box lies entirely inside the frustum.
func (f Frustum) ContainsAABB(box AABB) bool {
	for _, plane := range f.Planes {
		negative := math3d.V3(
			selectComponent(plane.Normal.X >= 0, box.Min.X, box.Max.X),
			selectComponent(plane.Normal.Y >= 0, box.Min.Y, box.Max.Y),
			selectComponent(plane.Normal.Z >= 0, box.Min.Z, box.Max.Z),
		)
		if plane.DistanceToPoint(negative) < 0 {
			return false
		}
	}
	return true
}

// Visibility classifies a bounding box against the view volume.
type Visibility int

const (
	Outside Visibility = iota
	Partial
	Inside
)

func (v Visibility) String() string {
	switch v {
	case Outside:
		return "outside"
	case Partial:
		return "partial"
	case Inside:
		return "inside"
	}
	return "unknown"
}

// Classify reports whether box is outside, straddling or inside the frustum.
func (f Frustum) Classify(box AABB) Visibility {
	switch {
	case !f.IntersectAABB(box):
		return Outside
	case f.ContainsAABB(box):
		return Inside
	}
	return Partial
}

func selectComponent(cond bool, a, b float64) float64 {
	if cond {
		return a
	}
	return b
}
