// Package geom provides the scene-space primitives shared by the whiteboard
// core: points, sizes, rectangles, and the perimeter connection-point helpers
// used by the connection router.
package geom

import "math"

// Point is a position or vector in scene space.
type Point struct {
	X, Y float64
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Add returns p + q.
func (p Point) Add(q Point) Point {
	return Point{p.X + q.X, p.Y + q.Y}
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{p.X - q.X, p.Y - q.Y}
}

// Mul returns p scaled by s.
func (p Point) Mul(s float64) Point {
	return Point{p.X * s, p.Y * s}
}

// Div returns p scaled by 1/s.
func (p Point) Div(s float64) Point {
	return Point{p.X / s, p.Y / s}
}

// Distance returns the Euclidean distance between p and q.
func (p Point) Distance(q Point) float64 {
	return math.Hypot(q.X-p.X, q.Y-p.Y)
}

// DistanceSquared returns the squared distance between p and q.
// It avoids the square root when only comparisons are needed.
func (p Point) DistanceSquared(q Point) float64 {
	dx := q.X - p.X
	dy := q.Y - p.Y
	return dx*dx + dy*dy
}

// Lerp linearly interpolates between p and q by t in [0, 1].
func (p Point) Lerp(q Point, t float64) Point {
	return Point{p.X + (q.X-p.X)*t, p.Y + (q.Y-p.Y)*t}
}

// Size is a width/height pair in scene units.
type Size struct {
	Width, Height float64
}

// Sz is shorthand for Size{Width: w, Height: h}.
func Sz(w, h float64) Size {
	return Size{Width: w, Height: h}
}

// IsEmpty reports whether either dimension is zero or negative.
func (s Size) IsEmpty() bool {
	return s.Width <= 0 || s.Height <= 0
}

// Clamp limits v to the range [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// NormalizeDegrees maps an angle to the range [0, 360).
func NormalizeDegrees(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}
