package geom

import "math"

// Epsilon is the tolerance used when comparing candidate distances during
// connection-point selection.
const Epsilon = 1e-9

// Canonical perimeter point indexes. Edge midpoints come before corners so
// that equidistant candidates resolve to midpoints.
const (
	TopMiddle = iota
	RightMiddle
	BottomMiddle
	LeftMiddle
	TopLeft
	TopRight
	BottomRight
	BottomLeft
)

// PerimeterPoints returns the eight canonical connection points of a
// rectangle: the four edge midpoints followed by the four corners.
func PerimeterPoints(r Rect) [8]Point {
	return [8]Point{
		TopMiddle:    {r.X + r.Width/2, r.Y},
		RightMiddle:  {r.Right(), r.Y + r.Height/2},
		BottomMiddle: {r.X + r.Width/2, r.Bottom()},
		LeftMiddle:   {r.X, r.Y + r.Height/2},
		TopLeft:      {r.X, r.Y},
		TopRight:     {r.Right(), r.Y},
		BottomRight:  {r.Right(), r.Bottom()},
		BottomLeft:   {r.X, r.Bottom()},
	}
}

// ClosestPair selects the pair (i, j) of start[i] and end[j] minimizing the
// Euclidean distance between them. Ties within Epsilon are broken by the
// smallest absolute angle of the connecting segment to the horizontal, then
// by the lowest start index, then the lowest end index.
func ClosestPair(start, end []Point) (si, ei int) {
	bestDist := math.Inf(1)
	bestAngle := math.Inf(1)
	for i, sp := range start {
		for j, ep := range end {
			d := sp.Distance(ep)
			if d < bestDist-Epsilon {
				bestDist = d
				bestAngle = horizontalAngle(sp, ep)
				si, ei = i, j
				continue
			}
			if d <= bestDist+Epsilon {
				a := horizontalAngle(sp, ep)
				if a < bestAngle-Epsilon {
					bestDist = math.Min(bestDist, d)
					bestAngle = a
					si, ei = i, j
				}
			}
		}
	}
	return si, ei
}

// horizontalAngle returns the absolute angle in [0, pi/2] between the segment
// pq and the horizontal axis.
func horizontalAngle(p, q Point) float64 {
	dx := math.Abs(q.X - p.X)
	dy := math.Abs(q.Y - p.Y)
	if dx == 0 && dy == 0 {
		return 0
	}
	return math.Atan2(dy, dx)
}

// Side identifies one of the four sides of a rectangle.
type Side int

const (
	SideTop Side = iota
	SideRight
	SideBottom
	SideLeft
)

// String returns the lowercase side name.
func (s Side) String() string {
	switch s {
	case SideTop:
		return "top"
	case SideRight:
		return "right"
	case SideBottom:
		return "bottom"
	default:
		return "left"
	}
}

// SideToward returns the side of a rectangle centered at from that faces the
// point to. The dominant axis of the center-to-center delta decides between
// the horizontal and vertical sides.
func SideToward(from Rect, to Point) Side {
	c := from.Center()
	dx := to.X - c.X
	dy := to.Y - c.Y
	if math.Abs(dx) >= math.Abs(dy) {
		if dx >= 0 {
			return SideRight
		}
		return SideLeft
	}
	if dy >= 0 {
		return SideBottom
	}
	return SideTop
}

// PointAlongSide returns the point at fraction t in [0, 1] along the extent
// of the given side of r, measured left-to-right for horizontal sides and
// top-to-bottom for vertical ones.
func PointAlongSide(r Rect, side Side, t float64) Point {
	t = Clamp(t, 0, 1)
	switch side {
	case SideTop:
		return Point{r.X + r.Width*t, r.Y}
	case SideBottom:
		return Point{r.X + r.Width*t, r.Bottom()}
	case SideLeft:
		return Point{r.X, r.Y + r.Height*t}
	default:
		return Point{r.Right(), r.Y + r.Height*t}
	}
}
