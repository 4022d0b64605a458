package geom

import "testing"

func TestPerimeterPointsOrder(t *testing.T) {
	pts := PerimeterPoints(R(0, 0, 100, 100))

	want := [8]Point{
		{50, 0},    // top middle
		{100, 50},  // right middle
		{50, 100},  // bottom middle
		{0, 50},    // left middle
		{0, 0},     // top left
		{100, 0},   // top right
		{100, 100}, // bottom right
		{0, 100},   // bottom left
	}
	if pts != want {
		t.Errorf("PerimeterPoints = %v, want %v", pts, want)
	}
}

func TestClosestPairPrefersMidpoints(t *testing.T) {
	// Two 100x100 squares side by side: the corner pairs and the facing
	// midpoint pair are all 200 apart and all horizontal, so the midpoint
	// must win on index order.
	a := PerimeterPoints(R(0, 0, 100, 100))
	b := PerimeterPoints(R(300, 0, 100, 100))

	si, ei := ClosestPair(a[:], b[:])
	if si != RightMiddle || ei != LeftMiddle {
		t.Fatalf("ClosestPair = (%d, %d), want (%d, %d)", si, ei, RightMiddle, LeftMiddle)
	}
	if a[si] != Pt(100, 50) || b[ei] != Pt(300, 50) {
		t.Errorf("selected points = %v -> %v, want (100,50) -> (300,50)", a[si], b[ei])
	}
}

func TestClosestPairAngleTieBreak(t *testing.T) {
	// Equidistant candidates, one vertical and one horizontal: the
	// horizontal segment wins even though it comes later in index order.
	start := []Point{{0, 10}, {10, 0}}
	end := []Point{{0, 0}}

	si, ei := ClosestPair(start, end)
	if si != 1 || ei != 0 {
		t.Errorf("ClosestPair = (%d, %d), want (1, 0)", si, ei)
	}
}

func TestClosestPairDeterminism(t *testing.T) {
	a := PerimeterPoints(R(-40, 12, 80, 44))
	b := PerimeterPoints(R(110, -63, 25, 300))

	s1, e1 := ClosestPair(a[:], b[:])
	s2, e2 := ClosestPair(a[:], b[:])
	if s1 != s2 || e1 != e2 {
		t.Errorf("ClosestPair not deterministic: (%d,%d) vs (%d,%d)", s1, e1, s2, e2)
	}
}

func TestSideToward(t *testing.T) {
	r := R(0, 0, 100, 100)
	tests := []struct {
		name string
		to   Point
		want Side
	}{
		{"east", Pt(500, 50), SideRight},
		{"west", Pt(-500, 50), SideLeft},
		{"south", Pt(50, 500), SideBottom},
		{"north", Pt(50, -500), SideTop},
		{"diagonal favors horizontal", Pt(200, 160), SideRight},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SideToward(r, tt.to); got != tt.want {
				t.Errorf("SideToward(%v) = %v, want %v", tt.to, got, tt.want)
			}
		})
	}
}

func TestPointAlongSide(t *testing.T) {
	r := R(0, 0, 100, 50)

	if got := PointAlongSide(r, SideTop, 0.5); got != Pt(50, 0) {
		t.Errorf("top midpoint = %v, want (50,0)", got)
	}
	if got := PointAlongSide(r, SideRight, 0.25); got != Pt(100, 12.5) {
		t.Errorf("right quarter = %v, want (100,12.5)", got)
	}
	if got := PointAlongSide(r, SideBottom, 1); got != Pt(100, 50) {
		t.Errorf("bottom end = %v, want (100,50)", got)
	}
	if got := PointAlongSide(r, SideLeft, 2); got != Pt(0, 50) {
		t.Errorf("clamped t = %v, want (0,50)", got)
	}
}
