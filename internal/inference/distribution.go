package inference

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Distribution is a discrete probability mass function over a grid of
// candidate physical values (cm or degrees). Values and Weights are
// parallel; after construction the weights of a non-degenerate distribution
// sum to one.
type Distribution struct {
	Values  []float64
	Weights []float64

	// Degenerate marks a distribution whose raw mass was zero or
	// non-finite. Its weights carry no evidence and must not be fused
	// as-is; fusion treats such a distribution as uninformative.
	Degenerate bool
}

// NewDistribution builds a normalized distribution from raw non-negative
// weights. A zero, negative or non-finite raw mass marks the result
// degenerate instead of normalizing silently.
func NewDistribution(values, weights []float64) (Distribution, error) {
	if len(values) != len(weights) {
		return Distribution{}, &ShapeError{Op: "distribution", Mic: -1, Want: len(values), Got: len(weights)}
	}
	w := make([]float64, len(weights))
	copy(w, weights)

	usable := len(w) > 0
	for _, x := range w {
		if math.IsNaN(x) || math.IsInf(x, 0) || x < 0 {
			usable = false
			break
		}
	}
	total := 0.0
	if usable {
		total = floats.Sum(w)
		usable = total > 0
	}
	if !usable {
		return Distribution{Values: values, Weights: w, Degenerate: true}, nil
	}
	floats.Scale(1/total, w)
	return Distribution{Values: values, Weights: w}, nil
}

// GridRange returns the ascending candidate grid {start, start+step, ...}
// up to but excluding stop.
func GridRange(start, stop, step float64) []float64 {
	var out []float64
	for v := start; v < stop; v += step {
		out = append(out, v)
	}
	return out
}

// Uniform returns the uninformative distribution over values.
func Uniform(values []float64) Distribution {
	w := make([]float64, len(values))
	if len(w) > 0 {
		floats.AddConst(1/float64(len(w)), w)
	}
	return Distribution{Values: values, Weights: w}
}
