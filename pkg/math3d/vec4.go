package math3d

// Vec4 is a homogeneous point, typically a position in clip space.
type Vec4 struct {
	X, Y, Z, W float64
}

// V4 creates a new Vec4.
func V4(x, y, z, w float64) Vec4 {
	return Vec4{x, y, z, w}
}

// Point returns v as a homogeneous point (w = 1).
func Point(v Vec3) Vec4 {
	return Vec4{v.X, v.Y, v.Z, 1}
}

// Vec3 drops the W component.
func (v Vec4) Vec3() Vec3 {
	return Vec3{v.X, v.Y, v.Z}
}

// PerspectiveDivide returns xyz / w. No guard is applied: w == 0 yields
// infinities or NaN, which callers are expected to check for.
func (v Vec4) PerspectiveDivide() Vec3 {
	return Vec3{v.X / v.W, v.Y / v.W, v.Z / v.W}
}
