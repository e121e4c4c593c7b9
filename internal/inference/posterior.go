package inference

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// errDegenerateMass marks a posterior whose total probability mass came out
// zero or non-finite.
var errDegenerateMass = errors.New("degenerate probability mass")

// Posterior converts rfft magnitudes into a normalized posterior over the
// transform bins.
//
// With a known noise scale sigma > 0 the weights are proportional to
// exp(P/sigma^2), where P is the periodogram |FFT|^2/N. The row maximum is
// subtracted before exponentiation to keep the values in floating range;
// the shift cancels in the normalization. sigma == 0 is the limit of that
// family and collapses to a one-hot distribution at the periodogram argmax.
// A nil sigma uses the data's own sample variance instead, yielding a
// Student-t-like marginal posterior that needs no noise estimate.
func Posterior(absFFT []float64, sigma *float64, data []float64) ([]float64, error) {
	if len(absFFT) == 0 {
		return nil, fmt.Errorf("posterior: empty spectrum")
	}
	n := float64(len(absFFT))
	p := make([]float64, len(absFFT))
	for i, a := range absFFT {
		p[i] = a * a / n
	}

	out := make([]float64, len(p))
	switch {
	case sigma != nil && *sigma > 0:
		floats.Scale(1/(*sigma**sigma), p)
		floats.AddConst(-floats.Max(p), p)
		for i, v := range p {
			out[i] = math.Exp(v)
		}
	case sigma != nil && *sigma == 0:
		out[floats.MaxIdx(p)] = 1
		return out, nil
	case sigma != nil:
		return nil, fmt.Errorf("posterior: negative noise scale %v", *sigma)
	default:
		if len(data) == 0 {
			return nil, fmt.Errorf("posterior: noise scale unknown and no data to estimate it from")
		}
		dbar := stat.PopVariance(data, nil)
		if !(dbar > 0) {
			return nil, fmt.Errorf("posterior: %w (zero-variance data)", errDegenerateMass)
		}
		for i, v := range p {
			out[i] = math.Pow(1-2*v/(n*dbar), (2-n)/2)
		}
	}

	total := floats.Sum(out)
	if math.IsNaN(total) || math.IsInf(total, 0) || total <= 0 {
		return nil, fmt.Errorf("posterior: %w (total %v)", errDegenerateMass, total)
	}
	floats.Scale(1/total, out)
	return out, nil
}
