package core

import (
	"math"

	"github.com/namuan/whiteboard/pkg/geom"
)

// Zoom and pan tuning.
const (
	MinZoom  = 0.1
	MaxZoom  = 10.0
	ZoomStep = 1.2

	basePanDistance = 50.0
	minPanStep      = 20.0
	maxPanStep      = 200.0
)

// Viewport converts between scene coordinates and view coordinates. The pan
// offset is the scene point currently at the view origin; zoom is clamped to
// [MinZoom, MaxZoom]. Each scene owns exactly one viewport.
type Viewport struct {
	zoom     float64
	pan      geom.Point
	onChange func()
}

func newViewport(onChange func()) *Viewport {
	return &Viewport{zoom: 1.0, onChange: onChange}
}

// Zoom returns the current zoom factor.
func (v *Viewport) Zoom() float64 { return v.zoom }

// Pan returns the scene point at the view origin.
func (v *Viewport) Pan() geom.Point { return v.pan }

// SceneToView maps a scene point to view coordinates.
func (v *Viewport) SceneToView(p geom.Point) geom.Point {
	return p.Sub(v.pan).Mul(v.zoom)
}

// ViewToScene maps a view point back to scene coordinates.
func (v *Viewport) ViewToScene(q geom.Point) geom.Point {
	return q.Div(v.zoom).Add(v.pan)
}

// ZoomAt multiplies the zoom factor, keeping the scene point under the given
// view cursor stationary. The result is clamped to [MinZoom, MaxZoom].
func (v *Viewport) ZoomAt(cursor geom.Point, multiplier float64) {
	target := geom.Clamp(v.zoom*multiplier, MinZoom, MaxZoom)
	if target == v.zoom {
		return
	}
	anchor := v.ViewToScene(cursor)
	v.zoom = target
	v.pan = anchor.Sub(cursor.Div(target))
	v.notify()
}

// ZoomIn applies one discrete zoom step toward the cursor.
func (v *Viewport) ZoomIn(cursor geom.Point) {
	v.ZoomAt(cursor, ZoomStep)
}

// ZoomOut applies one discrete zoom step away from the cursor.
func (v *Viewport) ZoomOut(cursor geom.Point) {
	v.ZoomAt(cursor, 1/ZoomStep)
}

// PanBy shifts the view by a delta given in view coordinates.
func (v *Viewport) PanBy(deltaView geom.Point) {
	v.pan = v.pan.Add(deltaView.Div(v.zoom))
	v.notify()
}

// PanStep returns the adaptive keyboard-pan distance in scene units: larger
// when zoomed out, smaller when zoomed in, so panning feels constant-speed
// in view space.
func (v *Viewport) PanStep() float64 {
	return geom.Clamp(basePanDistance/v.zoom, minPanStep, maxPanStep)
}

// FitToContent chooses the largest zoom that shows all of content within the
// given viewport size, with a margin proportional to the content extent, and
// centers the view on it.
func (v *Viewport) FitToContent(content geom.Rect, viewport geom.Size) {
	if content.IsEmpty() || viewport.IsEmpty() {
		return
	}
	extent := math.Max(content.Width, content.Height)
	margin := math.Max(20, math.Min(extent*0.1, 100))
	expanded := content.Inflate(margin)

	z := math.Min(viewport.Width/expanded.Width, viewport.Height/expanded.Height)
	v.zoom = geom.Clamp(z, MinZoom, MaxZoom)
	v.centerPan(expanded.Center(), viewport)
	v.notify()
}

// CenterOn pans so that the given scene point sits at the middle of the
// viewport.
func (v *Viewport) CenterOn(p geom.Point, viewport geom.Size) {
	v.centerPan(p, viewport)
	v.notify()
}

// Reset restores the identity view.
func (v *Viewport) Reset() {
	v.zoom = 1.0
	v.pan = geom.Point{}
	v.notify()
}

// VisibleRect returns the scene region visible through a viewport of the
// given size.
func (v *Viewport) VisibleRect(viewport geom.Size) geom.Rect {
	return geom.R(v.pan.X, v.pan.Y, viewport.Width/v.zoom, viewport.Height/v.zoom)
}

// SetState restores a persisted zoom and pan, clamping the zoom into range.
func (v *Viewport) SetState(zoom float64, pan geom.Point) {
	v.zoom = geom.Clamp(zoom, MinZoom, MaxZoom)
	v.pan = pan
	v.notify()
}

func (v *Viewport) centerPan(center geom.Point, viewport geom.Size) {
	half := geom.Pt(viewport.Width/2, viewport.Height/2)
	v.pan = center.Sub(half.Div(v.zoom))
}

func (v *Viewport) notify() {
	if v.onChange != nil {
		v.onChange()
	}
}
