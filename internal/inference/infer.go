package inference

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/joeinus134131/audioROS/internal/array"
)

// Method selects how a slice is turned into a probability distribution. The
// method set is closed; it is fixed at construction, not chosen per call.
type Method int

const (
	// MethodFFT reads the interference periodicity off the magnitude
	// spectrum of the mean-removed slice.
	MethodFFT Method = iota
	// MethodBayes weights the same spectrum with the closed-form
	// posterior (see Posterior).
	MethodBayes
	// MethodCost compares the slice against signal-model predictions on
	// a caller-supplied candidate grid.
	MethodCost
)

// String implements fmt.Stringer for logging.
func (m Method) String() string {
	switch m {
	case MethodFFT:
		return "fft"
	case MethodBayes:
		return "bayes"
	case MethodCost:
		return "cost"
	}
	return fmt.Sprintf("method(%d)", int(m))
}

// ParseMethod converts a flag/config string into a Method.
func ParseMethod(s string) (Method, error) {
	switch s {
	case "fft":
		return MethodFFT, nil
	case "bayes":
		return MethodBayes, nil
	case "cost":
		return MethodCost, nil
	}
	return 0, fmt.Errorf("unknown inference method %q", s)
}

// Config holds the per-instance inference parameters.
type Config struct {
	Method Method

	// NMax is the zero-padded transform length; it sets the resolution
	// of the implicit candidate support for MethodFFT and MethodBayes.
	NMax int

	// Sigma is the known noise scale for MethodBayes. nil means the
	// noise level is estimated from the data itself.
	Sigma *float64

	// DistanceRange restricts the output support to [min, max] cm when
	// non-nil, preserving index correspondence between weights and
	// candidate values.
	DistanceRange *[2]float64

	// DistancesCM is the candidate grid for MethodCost.
	DistancesCM []float64

	// RelativeDistancesCM optionally shifts each candidate distance per
	// sample for MethodCost, for slices recorded while the distance
	// varied continuously. Must match the slice length when set.
	RelativeDistancesCM []float64

	// AzimuthDeg is the assumed wall azimuth in the body frame.
	AzimuthDeg float64
}

// DefaultConfig returns the periodicity method with the standard transform
// length.
func DefaultConfig() Config {
	return Config{Method: MethodFFT, NMax: 1000}
}

// Inference converts frequency or distance slices into distributions over
// candidate wall parameters for one array geometry.
type Inference struct {
	geo   *array.Geometry
	model Model
	cfg   Config
}

// New builds an Inference. model may be nil unless MethodCost or the
// approach-angle cost path is used.
func New(geo *array.Geometry, model Model, cfg Config) *Inference {
	if cfg.NMax <= 0 {
		cfg.NMax = 1000
	}
	return &Inference{geo: geo, model: model, cfg: cfg}
}

// DistanceDistribution converts one frequency slice into a distribution over
// wall distances (cm). For MethodFFT and MethodBayes the support is the
// transform bin layout mapped into distance; for MethodCost it is the
// configured candidate grid.
func (inf *Inference) DistanceDistribution(s Slice) (Distribution, error) {
	if len(s.Amplitudes) == 0 || len(s.Amplitudes) != len(s.Frequencies) {
		return Distribution{}, &ShapeError{Op: "frequency slice", Mic: s.Mic, Want: len(s.Frequencies), Got: len(s.Amplitudes)}
	}
	switch inf.cfg.Method {
	case MethodFFT, MethodBayes:
		return inf.distanceSpectral(s)
	case MethodCost:
		return inf.distanceCost(s)
	}
	return Distribution{}, fmt.Errorf("unknown inference method %d", int(inf.cfg.Method))
}

func (inf *Inference) distanceSpectral(s Slice) (Distribution, error) {
	df := meanSpacing(s.Frequencies)
	if df <= 0 {
		return Distribution{}, fmt.Errorf("frequency slice: mic %d: frequencies must be ascending", s.Mic)
	}
	absFFT, n := absSpectrum(s.Amplitudes, inf.cfg.NMax)

	// Bin k of the transform corresponds to k/(n*df) seconds of echo
	// delay, which scales by the speed of sound into a path difference.
	deltasCM := make([]float64, len(absFFT))
	for i := range deltasCM {
		deltasCM[i] = float64(i) / (float64(n) * df) * inf.geo.Speed() * 1e2
	}
	distances, err := inf.geo.DistancesFromDeltas(deltasCM, inf.cfg.AzimuthDeg, s.Mic)
	if err != nil {
		return Distribution{}, err
	}
	if r := inf.cfg.DistanceRange; r != nil {
		distances, absFFT = maskRange(distances, absFFT, r[0], r[1])
	}

	weights := absFFT
	if inf.cfg.Method == MethodBayes {
		weights, err = Posterior(absFFT, inf.cfg.Sigma, s.Amplitudes)
		if errors.Is(err, errDegenerateMass) {
			return Distribution{Values: distances, Degenerate: true},
				&DegenerateDistributionError{Op: "bayes", Mic: s.Mic}
		}
		if err != nil {
			return Distribution{}, err
		}
	}
	return inf.finish(distances, weights, s.Mic)
}

func (inf *Inference) distanceCost(s Slice) (Distribution, error) {
	if inf.model == nil {
		return Distribution{}, fmt.Errorf("cost method: no signal model configured")
	}
	grid := inf.cfg.DistancesCM
	if len(grid) == 0 {
		return Distribution{}, fmt.Errorf("cost method: no candidate distance grid configured")
	}
	rel := inf.cfg.RelativeDistancesCM
	if len(rel) > 0 && len(rel) != len(s.Amplitudes) {
		return Distribution{}, &ShapeError{Op: "relative distances", Mic: s.Mic, Want: len(s.Amplitudes), Got: len(rel)}
	}

	obs := standardize(s.Amplitudes)
	weights := make([]float64, len(grid))
	for i, d := range grid {
		distances := []float64{d}
		if len(rel) > 0 {
			distances = make([]float64, len(rel))
			for j, r := range rel {
				distances[j] = d + r
			}
		}
		theory, err := inf.model.FrequencySlice(s.Frequencies, distances, inf.cfg.AzimuthDeg, s.Mic)
		if err != nil {
			return Distribution{}, fmt.Errorf("cost method: mic %d: candidate %v cm: %w", s.Mic, d, err)
		}
		weights[i] = math.Exp(-floats.Distance(standardize(theory), obs, 2))
	}
	return inf.finish(grid, weights, s.Mic)
}

// ApproachAngle converts one distance slice into a distribution over
// approach angles (degrees) using the configured spectral method. The
// support is the transform bin layout mapped through the period-to-angle
// relation, with out-of-range periods pinned at 90 degrees.
func (inf *Inference) ApproachAngle(d DistanceSlice) (Distribution, error) {
	if len(d.Amplitudes) == 0 || len(d.Amplitudes) != len(d.RelativeDistancesCM) {
		return Distribution{}, &ShapeError{Op: "distance slice", Mic: d.Mic, Want: len(d.RelativeDistancesCM), Got: len(d.Amplitudes)}
	}
	if inf.cfg.Method == MethodCost {
		return Distribution{}, fmt.Errorf("approach angle: use ApproachAngleCost for the cost method")
	}
	dm := meanSpacing(d.RelativeDistancesCM) * 1e-2 // sample spacing in meters
	if dm <= 0 {
		return Distribution{}, fmt.Errorf("distance slice: mic %d: relative distances must be ascending", d.Mic)
	}

	absFFT, n := absSpectrum(d.Amplitudes, inf.cfg.NMax)
	periods := make([]float64, len(absFFT))
	for i := range periods {
		periods[i] = float64(i) / (dm * float64(n)) // cycles per meter traveled
	}
	gammas := inf.geo.ApproachAnglesFromPeriods(periods, d.FrequencyHz)

	weights := absFFT
	if inf.cfg.Method == MethodBayes {
		var err error
		weights, err = Posterior(absFFT, inf.cfg.Sigma, d.Amplitudes)
		if errors.Is(err, errDegenerateMass) {
			return Distribution{Values: gammas, Degenerate: true},
				&DegenerateDistributionError{Op: "bayes", Mic: d.Mic}
		}
		if err != nil {
			return Distribution{}, err
		}
	}
	return inf.finish(gammas, weights, d.Mic)
}

// ApproachAngleCost scores every (start distance, approach angle) pair of
// the supplied grids against the signal model, keeps the best start
// distance per angle, and normalizes the result into an angle distribution.
func (inf *Inference) ApproachAngleCost(d DistanceSlice, startDistancesCM, gammasDeg []float64) (Distribution, error) {
	if len(d.Amplitudes) == 0 || len(d.Amplitudes) != len(d.RelativeDistancesCM) {
		return Distribution{}, &ShapeError{Op: "distance slice", Mic: d.Mic, Want: len(d.RelativeDistancesCM), Got: len(d.Amplitudes)}
	}
	if inf.model == nil {
		return Distribution{}, fmt.Errorf("approach angle cost: no signal model configured")
	}
	if len(startDistancesCM) == 0 || len(gammasDeg) == 0 {
		return Distribution{}, fmt.Errorf("approach angle cost: empty candidate grid")
	}

	obs := standardize(d.Amplitudes)
	weights := make([]float64, len(gammasDeg))
	distances := make([]float64, len(d.RelativeDistancesCM))
	for j, gamma := range gammasDeg {
		sin := math.Sin(gamma * math.Pi / 180)
		best := 0.0
		for _, start := range startDistancesCM {
			feasible := true
			for k, r := range d.RelativeDistancesCM {
				distances[k] = start - r*sin
				if distances[k] <= 0 {
					feasible = false
					break
				}
			}
			if !feasible {
				continue
			}
			theory, err := inf.model.DistanceSlice(d.FrequencyHz, distances, inf.cfg.AzimuthDeg, d.Mic)
			if err != nil {
				return Distribution{}, fmt.Errorf("approach angle cost: mic %d: %w", d.Mic, err)
			}
			if w := math.Exp(-floats.Distance(standardize(theory), obs, 2)); w > best {
				best = w
			}
		}
		weights[j] = best
	}
	return inf.finish(gammasDeg, weights, d.Mic)
}

// finish normalizes weights over values and maps a degenerate result to the
// recoverable error taxonomy, tagged with the mic that produced it.
func (inf *Inference) finish(values, weights []float64, mic int) (Distribution, error) {
	dist, err := NewDistribution(values, weights)
	if err != nil {
		return dist, err
	}
	if dist.Degenerate {
		return dist, &DegenerateDistributionError{Op: inf.cfg.Method.String(), Mic: mic}
	}
	return dist, nil
}

// absSpectrum returns the magnitudes of the real FFT of the mean-removed
// signal, zero-padded to at least nMax samples, along with the padded
// length.
func absSpectrum(signal []float64, nMax int) ([]float64, int) {
	n := len(signal)
	if nMax > n {
		n = nMax
	}
	padded := make([]float64, n)
	mean := stat.Mean(signal, nil)
	for i, v := range signal {
		padded[i] = v - mean
	}
	coeff := fourier.NewFFT(n).Coefficients(nil, padded)
	abs := make([]float64, len(coeff))
	for i, c := range coeff {
		abs[i] = cmplx.Abs(c)
	}
	return abs, n
}

// standardize returns a mean-removed copy of x scaled to unit standard
// deviation. A zero standard deviation leaves the scale at 1.
func standardize(x []float64) []float64 {
	out := make([]float64, len(x))
	mean := stat.Mean(x, nil)
	for i, v := range x {
		out[i] = v - mean
	}
	if sd := stat.PopStdDev(x, nil); sd > 0 {
		floats.Scale(1/sd, out)
	}
	return out
}

// meanSpacing is the average step of an ascending axis.
func meanSpacing(x []float64) float64 {
	if len(x) < 2 {
		return 0
	}
	return (x[len(x)-1] - x[0]) / float64(len(x)-1)
}

// maskRange keeps the (value, weight) pairs whose value lies in [lo, hi],
// preserving order and index correspondence.
func maskRange(values, weights []float64, lo, hi float64) ([]float64, []float64) {
	outV := values[:0:0]
	outW := weights[:0:0]
	for i, v := range values {
		if v >= lo && v <= hi {
			outV = append(outV, v)
			outW = append(outW, weights[i])
		}
	}
	return outV, outW
}
