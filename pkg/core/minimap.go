package core

import "github.com/namuan/whiteboard/pkg/geom"

// Minimap defaults.
const (
	DefaultMinimapThreshold = 100
	defaultMinItemSize      = 5.0

	simplifiedFill = "#A0A0C8"
	imageFill      = "#C8C8C8"
)

// MinimapOptions tunes the level-of-detail policy of the summarizer. Zero
// values select defaults.
type MinimapOptions struct {
	// Threshold is the entity count above which entities are rendered as
	// uniform simplified primitives. Entities beyond twice the threshold are
	// skipped entirely.
	Threshold int

	// MinItemSize is the smallest extent, in minimap pixels, an item is
	// drawn at so it stays visible.
	MinItemSize float64
}

// Primitive is one draw instruction of the minimap rendering model, in
// minimap pixel coordinates.
type Primitive struct {
	Kind       Kind
	ID         EntityID
	Rect       geom.Rect
	Line       [2]geom.Point // connections only
	Color      string
	Simplified bool
}

// Minimap is a scaled-down rendering model of the whole scene: a uniform
// scene-to-minimap mapping, the draw primitives, and the viewport indicator.
type Minimap struct {
	Target    geom.Size
	Scale     float64
	Items     []Primitive
	Viewport  geom.Rect // indicator rect, minimap space
	LOD       bool
	Total     int
	Rendered  int

	origin geom.Point
	offset geom.Point
}

// BuildMinimap summarizes the scene into a minimap model for the given
// target pixel size. The visible rect (the viewport's current scene region)
// becomes the indicator rectangle.
func BuildMinimap(s *Scene, target geom.Size, visible geom.Rect, opts MinimapOptions) *Minimap {
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultMinimapThreshold
	}
	if opts.MinItemSize <= 0 {
		opts.MinItemSize = defaultMinItemSize
	}

	bounds := s.Bounds()
	scale := target.Width / bounds.Width
	if v := target.Height / bounds.Height; v < scale {
		scale = v
	}
	m := &Minimap{
		Target: target,
		Scale:  scale,
		origin: bounds.TopLeft(),
		offset: geom.Pt(
			(target.Width-bounds.Width*scale)/2,
			(target.Height-bounds.Height*scale)/2,
		),
	}

	m.Total = s.EntityCount()
	m.LOD = m.Total > opts.Threshold
	limit := opts.Threshold * 2

	add := func(p Primitive) bool {
		if m.LOD && m.Rendered >= limit {
			return false
		}
		m.Items = append(m.Items, p)
		m.Rendered++
		return true
	}

	for _, g := range s.Groups() {
		if !add(Primitive{
			Kind:       KindGroup,
			ID:         g.ID,
			Rect:       m.mapRect(g.Bounds, opts.MinItemSize),
			Color:      g.Style.String("border_color", "#6496C8"),
			Simplified: m.LOD,
		}) {
			break
		}
	}
	for _, c := range s.Connections() {
		if len(c.Path) < 2 {
			continue
		}
		color := c.Style.String("line_color", "#646464")
		if m.LOD {
			color = simplifiedFill
		}
		if !add(Primitive{
			Kind:       KindConnection,
			ID:         c.ID,
			Line:       [2]geom.Point{m.ToMinimap(c.Path[0]), m.ToMinimap(c.Path[len(c.Path)-1])},
			Color:      color,
			Simplified: m.LOD,
		}) {
			break
		}
	}
	for _, n := range s.Notes() {
		color := n.Style.String("background_color", "#FFFFC8")
		if m.LOD {
			color = simplifiedFill
		}
		if !add(Primitive{
			Kind:       KindNote,
			ID:         n.ID,
			Rect:       m.mapRect(n.Bounds(), opts.MinItemSize),
			Color:      color,
			Simplified: m.LOD,
		}) {
			break
		}
	}
	for _, im := range s.Images() {
		if !add(Primitive{
			Kind:       KindImage,
			ID:         im.ID,
			Rect:       m.mapRect(im.Bounds(), opts.MinItemSize),
			Color:      imageFill,
			Simplified: m.LOD,
		}) {
			break
		}
	}

	m.Viewport = m.mapRect(visible, 0)
	return m
}

// ToMinimap maps a scene point into minimap pixel coordinates.
func (m *Minimap) ToMinimap(p geom.Point) geom.Point {
	return p.Sub(m.origin).Mul(m.Scale).Add(m.offset)
}

// ToScene maps a minimap pixel point back to scene coordinates. This backs
// click-to-navigate on the minimap.
func (m *Minimap) ToScene(p geom.Point) geom.Point {
	return p.Sub(m.offset).Div(m.Scale).Add(m.origin)
}

// mapRect maps a scene rect into minimap space, enforcing the minimum item
// extent around the rect's center.
func (m *Minimap) mapRect(r geom.Rect, minSize float64) geom.Rect {
	tl := m.ToMinimap(r.TopLeft())
	w := r.Width * m.Scale
	h := r.Height * m.Scale
	if minSize > 0 {
		if w < minSize {
			tl.X -= (minSize - w) / 2
			w = minSize
		}
		if h < minSize {
			tl.Y -= (minSize - h) / 2
			h = minSize
		}
	}
	return geom.R(tl.X, tl.Y, w, h)
}
