package jmath

import (
	"math"
	"testing"
)

func TestMod(t *testing.T) {
	tests := []struct {
		x, y, want float64
	}{
		{5, 2, 1},
		{-1, 2, 1},
		{-3, 2, 1},
		{-4, 2, 0},
		{4.5, 2, 0.5},
	}
	for _, tt := range tests {
		if got := Mod(tt.x, tt.y); got != tt.want {
			t.Errorf("Mod(%g, %g) = %g, want %g", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestMin(t *testing.T) {
	nan := math.NaN()
	if got := Min(nan, 2.0); got != 2 {
		t.Errorf("Min(NaN, 2) = %g, want 2", got)
	}
	if got := Min(3.0, nan); got != 3 {
		t.Errorf("Min(3, NaN) = %g, want 3", got)
	}
	if got := Min(-1.0, 2.0); got != -1 {
		t.Errorf("Min(-1, 2) = %g, want -1", got)
	}
}

func TestClampMix(t *testing.T) {
	if got := Clamp(1.5, -1.0, 1.0); got != 1 {
		t.Errorf("Clamp = %g, want 1", got)
	}
	if got := Mix(2.0, 4.0, 0.25); got != 2.5 {
		t.Errorf("Mix = %g, want 2.5", got)
	}
	if Sign(0.0) != 1 || Sign(-0.5) != -1 {
		t.Error("Sign must break ties towards 1")
	}
}
