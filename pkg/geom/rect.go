package geom

import "math"

// Rect is an axis-aligned rectangle in scene space, anchored at its
// top-left corner.
type Rect struct {
	X, Y          float64
	Width, Height float64
}

// R is shorthand for Rect{X: x, Y: y, Width: w, Height: h}.
func R(x, y, w, h float64) Rect {
	return Rect{X: x, Y: y, Width: w, Height: h}
}

// RectFrom builds a rectangle from a top-left point and a size.
func RectFrom(pos Point, size Size) Rect {
	return Rect{X: pos.X, Y: pos.Y, Width: size.Width, Height: size.Height}
}

// Left returns the minimum x edge.
func (r Rect) Left() float64 { return r.X }

// Right returns the maximum x edge.
func (r Rect) Right() float64 { return r.X + r.Width }

// Top returns the minimum y edge.
func (r Rect) Top() float64 { return r.Y }

// Bottom returns the maximum y edge.
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// TopLeft returns the anchor corner.
func (r Rect) TopLeft() Point { return Point{r.X, r.Y} }

// Size returns the rectangle's dimensions.
func (r Rect) Size() Size { return Size{r.Width, r.Height} }

// Center returns the midpoint of the rectangle.
func (r Rect) Center() Point {
	return Point{r.X + r.Width/2, r.Y + r.Height/2}
}

// IsEmpty reports whether the rect has zero or negative area.
func (r Rect) IsEmpty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.Right() && p.Y >= r.Y && p.Y <= r.Bottom()
}

// ContainsRect reports whether other lies entirely inside r.
func (r Rect) ContainsRect(other Rect) bool {
	return other.X >= r.X && other.Right() <= r.Right() &&
		other.Y >= r.Y && other.Bottom() <= r.Bottom()
}

// Intersects reports whether r and other overlap.
func (r Rect) Intersects(other Rect) bool {
	return r.X < other.Right() && other.X < r.Right() &&
		r.Y < other.Bottom() && other.Y < r.Bottom()
}

// Union returns the smallest rect containing both rects.
// An empty rect is treated as absent.
func (r Rect) Union(other Rect) Rect {
	if r.IsEmpty() {
		return other
	}
	if other.IsEmpty() {
		return r
	}
	minX := math.Min(r.X, other.X)
	minY := math.Min(r.Y, other.Y)
	maxX := math.Max(r.Right(), other.Right())
	maxY := math.Max(r.Bottom(), other.Bottom())
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// Inflate grows the rect by m on every side. Negative m shrinks it.
func (r Rect) Inflate(m float64) Rect {
	return Rect{X: r.X - m, Y: r.Y - m, Width: r.Width + 2*m, Height: r.Height + 2*m}
}

// Translate returns the rect shifted by d.
func (r Rect) Translate(d Point) Rect {
	return Rect{X: r.X + d.X, Y: r.Y + d.Y, Width: r.Width, Height: r.Height}
}

// RotatedBounds returns the smallest axis-aligned rectangle containing r
// rotated by deg degrees about its center.
func RotatedBounds(r Rect, deg float64) Rect {
	deg = NormalizeDegrees(deg)
	if deg == 0 {
		return r
	}
	rad := deg * math.Pi / 180
	sin := math.Abs(math.Sin(rad))
	cos := math.Abs(math.Cos(rad))
	w := r.Width*cos + r.Height*sin
	h := r.Width*sin + r.Height*cos
	c := r.Center()
	return Rect{X: c.X - w/2, Y: c.Y - h/2, Width: w, Height: h}
}
