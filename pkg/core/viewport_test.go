package core

import (
	"math"
	"testing"

	"github.com/namuan/whiteboard/pkg/geom"
)

func almostEqual(a, b geom.Point) bool {
	const tol = 1e-9
	return math.Abs(a.X-b.X) < tol && math.Abs(a.Y-b.Y) < tol
}

func TestSceneViewRoundTrip(t *testing.T) {
	v := newViewport(nil)
	v.SetState(2.5, geom.Pt(-40, 120))

	p := geom.Pt(333.25, -71.5)
	if got := v.ViewToScene(v.SceneToView(p)); !almostEqual(got, p) {
		t.Errorf("round trip = %v, want %v", got, p)
	}
}

func TestZoomAtKeepsCursorStationary(t *testing.T) {
	v := newViewport(nil)
	v.PanBy(geom.Pt(123, -45))

	cursor := geom.Pt(400, 300)
	for _, m := range []float64{1.2, 1.2, 1 / 1.2, 3.0, 0.25} {
		before := v.ViewToScene(cursor)
		v.ZoomAt(cursor, m)
		after := v.ViewToScene(cursor)
		if !almostEqual(before, after) {
			t.Fatalf("cursor drifted at multiplier %v: %v -> %v", m, before, after)
		}
	}
}

func TestZoomClampSaturates(t *testing.T) {
	v := newViewport(nil)
	cursor := geom.Pt(100, 100)

	for i := 0; i < 40; i++ {
		v.ZoomIn(cursor)
	}
	if v.Zoom() != MaxZoom {
		t.Errorf("zoom = %v, want exactly %v", v.Zoom(), MaxZoom)
	}

	for i := 0; i < 80; i++ {
		v.ZoomOut(cursor)
	}
	if v.Zoom() != MinZoom {
		t.Errorf("zoom = %v, want exactly %v", v.Zoom(), MinZoom)
	}
}

func TestPanByScalesWithZoom(t *testing.T) {
	v := newViewport(nil)
	v.SetState(2.0, geom.Point{})

	v.PanBy(geom.Pt(100, 50))
	if want := geom.Pt(50, 25); !almostEqual(v.Pan(), want) {
		t.Errorf("pan = %v, want %v", v.Pan(), want)
	}
}

func TestPanStepAdaptive(t *testing.T) {
	v := newViewport(nil)
	tests := []struct {
		zoom float64
		want float64
	}{
		{1.0, 50},
		{0.1, 200}, // clamped high
		{10.0, 20}, // clamped low
		{0.5, 100},
	}
	for _, tt := range tests {
		v.SetState(tt.zoom, geom.Point{})
		if got := v.PanStep(); got != tt.want {
			t.Errorf("PanStep at zoom %v = %v, want %v", tt.zoom, got, tt.want)
		}
	}
}

func TestFitToContent(t *testing.T) {
	v := newViewport(nil)
	content := geom.R(0, 0, 1000, 500)
	viewport := geom.Sz(800, 600)

	v.FitToContent(content, viewport)

	// The whole content rect must be visible.
	vis := v.VisibleRect(viewport)
	if !vis.ContainsRect(content) {
		t.Errorf("visible %v does not contain content %v", vis, content)
	}
	// And centered.
	if got := vis.Center(); !almostEqual(got, content.Center()) {
		t.Errorf("view center = %v, want %v", got, content.Center())
	}
}

func TestFitToContentSmallContentClampsZoom(t *testing.T) {
	v := newViewport(nil)
	v.FitToContent(geom.R(0, 0, 10, 10), geom.Sz(800, 600))
	if v.Zoom() != MaxZoom {
		t.Errorf("zoom = %v, want clamp at %v", v.Zoom(), MaxZoom)
	}
}

func TestCenterOn(t *testing.T) {
	v := newViewport(nil)
	v.SetState(2.0, geom.Point{})
	viewport := geom.Sz(800, 600)

	target := geom.Pt(1234, -567)
	v.CenterOn(target, viewport)
	if got := v.VisibleRect(viewport).Center(); !almostEqual(got, target) {
		t.Errorf("center = %v, want %v", got, target)
	}
}

func TestReset(t *testing.T) {
	v := newViewport(nil)
	v.SetState(4.2, geom.Pt(99, -99))
	v.Reset()
	if v.Zoom() != 1.0 || v.Pan() != (geom.Point{}) {
		t.Errorf("reset state = zoom %v pan %v", v.Zoom(), v.Pan())
	}
}

func TestViewportChangeNotification(t *testing.T) {
	var fired int
	v := newViewport(func() { fired++ })

	v.PanBy(geom.Pt(1, 1))
	v.ZoomIn(geom.Point{})
	v.Reset()
	if fired != 3 {
		t.Errorf("notifications = %d, want 3", fired)
	}

	// A zoom already at the clamp is a no-op and must not notify.
	v.SetState(MaxZoom, geom.Point{})
	fired = 0
	v.ZoomIn(geom.Point{})
	if fired != 0 {
		t.Errorf("saturated zoom notified %d times", fired)
	}
}
