package inference

import (
	"errors"
	"math"
	"testing"
)

func TestNewDistributionNormalizes(t *testing.T) {
	d, err := NewDistribution([]float64{0, 1, 2}, []float64{1, 2, 1})
	if err != nil {
		t.Fatalf("NewDistribution: %v", err)
	}
	if d.Degenerate {
		t.Fatal("unexpected degenerate marking")
	}
	sum := 0.0
	for _, w := range d.Weights {
		if w < 0 {
			t.Fatalf("negative weight %v", w)
		}
		sum += w
	}
	if math.Abs(sum-1) > 1e-5 {
		t.Errorf("weights sum to %v, want 1 within 1e-5", sum)
	}
	if math.Abs(d.Weights[1]-0.5) > 1e-12 {
		t.Errorf("middle weight = %v, want 0.5", d.Weights[1])
	}
}

func TestNewDistributionShapeError(t *testing.T) {
	_, err := NewDistribution([]float64{0, 1}, []float64{1})
	var shapeErr *ShapeError
	if !errors.As(err, &shapeErr) {
		t.Fatalf("error = %v, want ShapeError", err)
	}
}

func TestNewDistributionDegenerate(t *testing.T) {
	cases := []struct {
		name    string
		weights []float64
	}{
		{"all zero", []float64{0, 0, 0}},
		{"nan", []float64{1, math.NaN(), 1}},
		{"inf", []float64{1, math.Inf(1), 1}},
		{"negative", []float64{1, -1, 1}},
		{"empty", nil},
	}
	for _, tt := range cases {
		values := make([]float64, len(tt.weights))
		d, err := NewDistribution(values, tt.weights)
		if err != nil {
			t.Fatalf("%s: NewDistribution: %v", tt.name, err)
		}
		if !d.Degenerate {
			t.Errorf("%s: expected degenerate marking", tt.name)
		}
	}
}

func TestUniform(t *testing.T) {
	d := Uniform([]float64{1, 2, 3, 4})
	for _, w := range d.Weights {
		if w != 0.25 {
			t.Fatalf("weight = %v, want 0.25", w)
		}
	}
}

func TestGridRange(t *testing.T) {
	g := GridRange(0, 10, 2)
	want := []float64{0, 2, 4, 6, 8}
	if len(g) != len(want) {
		t.Fatalf("len = %d, want %d", len(g), len(want))
	}
	for i := range want {
		if g[i] != want[i] {
			t.Errorf("grid[%d] = %v, want %v", i, g[i], want[i])
		}
	}
}
