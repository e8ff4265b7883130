package math3d

import "math"

// Vec2 is a 2D vector. The renderer uses it for texture coordinates (U, V)
// and screen-space positions.
type Vec2 struct {
	X, Y float64
}

// V2 creates a new Vec2.
func V2(x, y float64) Vec2 {
	return Vec2{x, y}
}

// Sub returns a - b.
func (a Vec2) Sub(b Vec2) Vec2 {
	return Vec2{a.X - b.X, a.Y - b.Y}
}

// Cross returns the z component of the 3D cross product of a and b, which is
// twice the signed area of the triangle (0, a, b).
func (a Vec2) Cross(b Vec2) float64 {
	return a.X*b.Y - a.Y*b.X
}

// IsFinite reports whether neither component is NaN or infinite.
func (a Vec2) IsFinite() bool {
	return finite(a.X) && finite(a.Y)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
