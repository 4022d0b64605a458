package geom

import (
	"math"
	"testing"
)

func TestPointArithmetic(t *testing.T) {
	p := Pt(3, 4)
	q := Pt(1, -2)

	if got := p.Add(q); got != Pt(4, 2) {
		t.Errorf("Add = %v, want (4,2)", got)
	}
	if got := p.Sub(q); got != Pt(2, 6) {
		t.Errorf("Sub = %v, want (2,6)", got)
	}
	if got := p.Mul(2); got != Pt(6, 8) {
		t.Errorf("Mul = %v, want (6,8)", got)
	}
	if got := p.Div(2); got != Pt(1.5, 2) {
		t.Errorf("Div = %v, want (1.5,2)", got)
	}
}

func TestPointDistance(t *testing.T) {
	tests := []struct {
		name string
		p, q Point
		want float64
	}{
		{"same point", Pt(1, 1), Pt(1, 1), 0},
		{"unit x", Pt(0, 0), Pt(1, 0), 1},
		{"pythagorean", Pt(0, 0), Pt(3, 4), 5},
		{"negative quadrant", Pt(-3, -4), Pt(0, 0), 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.Distance(tt.q); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Distance = %v, want %v", got, tt.want)
			}
			if got := tt.p.DistanceSquared(tt.q); math.Abs(got-tt.want*tt.want) > 1e-12 {
				t.Errorf("DistanceSquared = %v, want %v", got, tt.want*tt.want)
			}
		})
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		name       string
		v, lo, hi  float64
		want       float64
	}{
		{"below", -5, 0, 10, 0},
		{"inside", 5, 0, 10, 5},
		{"above", 15, 0, 10, 10},
		{"at lower edge", 0, 0, 10, 0},
		{"at upper edge", 10, 0, 10, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clamp(tt.v, tt.lo, tt.hi); got != tt.want {
				t.Errorf("Clamp(%v, %v, %v) = %v, want %v", tt.v, tt.lo, tt.hi, got, tt.want)
			}
		})
	}
}

func TestNormalizeDegrees(t *testing.T) {
	tests := []struct {
		name string
		deg  float64
		want float64
	}{
		{"zero", 0, 0},
		{"in range", 90, 90},
		{"full turn", 360, 0},
		{"over full turn", 450, 90},
		{"negative", -90, 270},
		{"large negative", -720, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeDegrees(tt.deg); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("NormalizeDegrees(%v) = %v, want %v", tt.deg, got, tt.want)
			}
		})
	}
}
