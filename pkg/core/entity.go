// Package core implements the whiteboard scene graph: the entity model, the
// scene that owns it, connection routing, viewport transforms, and the
// minimap summarizer.
package core

import (
	"time"

	"github.com/google/uuid"

	"github.com/namuan/whiteboard/pkg/geom"
)

// EntityID is an opaque identifier, stable for the lifetime of an entity.
type EntityID string

// NewEntityID returns a fresh unique identifier.
func NewEntityID() EntityID {
	return EntityID(uuid.NewString())
}

// Kind discriminates the four entity kinds owned by a Scene.
type Kind string

const (
	KindNote       Kind = "note"
	KindImage      Kind = "image"
	KindConnection Kind = "connection"
	KindGroup      Kind = "group"
)

// Minimum visible footprint for images. Notes take their minimum from the
// style's min_width/min_height.
const (
	minImageWidth  = 20.0
	minImageHeight = 20.0
)

// Endpoint is the capability set shared by entities a Connection can attach
// to: a position, an axis-aligned bounding rectangle, and the eight canonical
// perimeter connection points.
type Endpoint interface {
	EntityID() EntityID
	Bounds() geom.Rect
	ConnectionPoints() [8]geom.Point
}

// Note is a text note on the canvas.
type Note struct {
	ID         EntityID
	Text       string
	Position   geom.Point
	Size       geom.Size
	Style      Style
	CreatedAt  time.Time
	ModifiedAt time.Time
}

// EntityID returns the note's identifier.
func (n *Note) EntityID() EntityID { return n.ID }

// Bounds returns the note's rectangle in scene space.
func (n *Note) Bounds() geom.Rect {
	return geom.RectFrom(n.Position, n.Size)
}

// ConnectionPoints returns the note's perimeter connection points.
func (n *Note) ConnectionPoints() [8]geom.Point {
	return geom.PerimeterPoints(n.Bounds())
}

// MinSize returns the note's minimum footprint, taken from its style.
func (n *Note) MinSize() geom.Size {
	return geom.Sz(
		n.Style.Float("min_width", defaultNoteMinWidth),
		n.Style.Float("min_height", defaultNoteMinHeight),
	)
}

// Clone returns a deep copy of the note.
func (n *Note) Clone() *Note {
	c := *n
	c.Style = n.Style.Clone()
	return &c
}

// Image is a raster or vector image placed on the canvas. Data holds the
// original encoded bytes and is never mutated in place; replacing an image
// means creating a new entity.
type Image struct {
	ID          EntityID
	Data        []byte
	MIMEType    string
	Filename    string
	Position    geom.Point
	Size        geom.Size
	NaturalSize geom.Size
	Rotation    float64
	Opacity     float64
	Style       Style
	CreatedAt   time.Time
	ModifiedAt  time.Time
}

// OpacityPresets are the cycling steps offered for image transparency.
var OpacityPresets = []float64{0.25, 0.5, 0.75, 1.0}

// EntityID returns the image's identifier.
func (im *Image) EntityID() EntityID { return im.ID }

// Bounds returns the smallest axis-aligned rectangle containing the image
// after rotation.
func (im *Image) Bounds() geom.Rect {
	return geom.RotatedBounds(geom.RectFrom(im.Position, im.Size), im.Rotation)
}

// ConnectionPoints returns the image's perimeter connection points, taken on
// the post-rotation bounding box.
func (im *Image) ConnectionPoints() [8]geom.Point {
	return geom.PerimeterPoints(im.Bounds())
}

// AspectRatio returns width/height of the decoded raster.
func (im *Image) AspectRatio() float64 {
	if im.NaturalSize.Height == 0 {
		return 1
	}
	return im.NaturalSize.Width / im.NaturalSize.Height
}

// Clone returns a deep copy of the image. The encoded bytes are shared; they
// are immutable by contract.
func (im *Image) Clone() *Image {
	c := *im
	c.Style = im.Style.Clone()
	return &c
}

// Connection is a directional edge between two endpoint entities. Path is
// derived by the router and never hand-edited.
type Connection struct {
	ID         EntityID
	Start      EntityID
	End        EntityID
	Path       []geom.Point
	Style      Style
	CreatedAt  time.Time
	ModifiedAt time.Time
}

// Clone returns a deep copy of the connection.
func (c *Connection) Clone() *Connection {
	cp := *c
	cp.Path = append([]geom.Point(nil), c.Path...)
	cp.Style = c.Style.Clone()
	return &cp
}

// Group is a visual grouping of notes and images. Bounds is derived from the
// members and recomputed on every member mutation.
type Group struct {
	ID         EntityID
	Members    []EntityID
	Bounds     geom.Rect
	Style      Style
	CreatedAt  time.Time
	ModifiedAt time.Time
}

// groupMargin is the fixed margin kept between member bounds and the group
// rectangle.
const groupMargin = 10.0

// Contains reports whether id is a member of the group.
func (g *Group) Contains(id EntityID) bool {
	for _, m := range g.Members {
		if m == id {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the group.
func (g *Group) Clone() *Group {
	c := *g
	c.Members = append([]EntityID(nil), g.Members...)
	c.Style = g.Style.Clone()
	return &c
}
