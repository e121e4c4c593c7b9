package estimator

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/joeinus134131/audioROS/internal/array"
	"github.com/joeinus134131/audioROS/internal/inference"
)

// logZeroWeight stands in for log10(0) so that impossible hypothesis cells
// stay finite and comparable instead of poisoning the grid with -Inf.
const logZeroWeight = -100.0

// Config holds the estimator parameters. The grids and window size are
// fixed for the lifetime of an estimator.
type Config struct {
	// NWindow is the measurement window capacity.
	NWindow int
	// DistancesCM is the ascending candidate grid of wall distances from
	// the world origin.
	DistancesCM []float64
	// AnglesDeg is the ascending candidate grid of wall-normal azimuths
	// in the world frame.
	AnglesDeg []float64
}

// DefaultConfig covers walls up to one meter away at 2 cm / 10 degree
// resolution with a three-measurement window.
func DefaultConfig() Config {
	return Config{
		NWindow:     3,
		DistancesCM: inference.GridRange(0, 100, 2),
		AnglesDeg:   inference.GridRange(0, 360, 10),
	}
}

// MovingEstimator fuses per-mic delta-distance distributions gathered at
// several robot poses into a joint posterior over global wall parameters.
// It is single-writer: callers needing concurrent access must serialize
// AddMeasurement and each estimate-request sequence externally.
type MovingEstimator struct {
	geo *array.Geometry
	cfg Config
	win *window
}

// New validates cfg and builds an estimator around geo.
func New(geo *array.Geometry, cfg Config) (*MovingEstimator, error) {
	if geo == nil {
		return nil, fmt.Errorf("estimator: nil geometry")
	}
	if cfg.NWindow < 1 {
		return nil, fmt.Errorf("estimator: window size %d, need at least 1", cfg.NWindow)
	}
	for name, grid := range map[string][]float64{"distance": cfg.DistancesCM, "angle": cfg.AnglesDeg} {
		if len(grid) == 0 {
			return nil, fmt.Errorf("estimator: empty %s grid", name)
		}
		if !sort.Float64sAreSorted(grid) {
			return nil, fmt.Errorf("estimator: %s grid must be ascending", name)
		}
	}
	return &MovingEstimator{geo: geo, cfg: cfg, win: newWindow(cfg.NWindow)}, nil
}

// AddMeasurement appends one time step of evidence, evicting the oldest
// measurement once the window is full. The per-mic map is copied so the
// caller may reuse it.
func (e *MovingEstimator) AddMeasurement(pose array.Pose, mics map[int]inference.Distribution) {
	copied := make(map[int]inference.Distribution, len(mics))
	for mic, dist := range mics {
		copied[mic] = dist
	}
	e.win.add(Measurement{Pose: pose, Mics: copied})
}

// Measurements returns the current window contents, oldest first.
func (e *MovingEstimator) Measurements() []Measurement {
	return e.win.all()
}

// JointDistribution recomputes the posterior over (distance, angle) from
// the current window. Rows index DistancesCM, columns AnglesDeg; the cells
// are non-negative and sum to one. With an empty window the result is
// uniform. Each cell accumulates the log10 evidence of every windowed
// measurement and mic under that global wall hypothesis, so the fusion is
// a product of independent likelihoods.
func (e *MovingEstimator) JointDistribution() (*mat.Dense, error) {
	nd, na := len(e.cfg.DistancesCM), len(e.cfg.AnglesDeg)
	joint := mat.NewDense(nd, na, nil)

	ms := e.win.all()
	data := joint.RawMatrix().Data
	if len(ms) == 0 {
		floats.AddConst(1/float64(nd*na), data)
		return joint, nil
	}

	for i, d := range e.cfg.DistancesCM {
		for j, a := range e.cfg.AnglesDeg {
			ll := 0.0
			for _, m := range ms {
				for mic, dist := range m.Mics {
					ll += e.logEvidence(m.Pose, d, a, mic, dist)
				}
			}
			joint.Set(i, j, ll)
		}
	}

	// Back out of the log domain with the peak shifted to zero, then
	// renormalize; the shift cancels.
	floats.AddConst(-floats.Max(data), data)
	for i, v := range data {
		data[i] = math.Pow(10, v)
	}
	total := floats.Sum(data)
	if total <= 0 || math.IsNaN(total) {
		return nil, fmt.Errorf("estimator: joint distribution mass %v", total)
	}
	floats.Scale(1/total, data)
	return joint, nil
}

// logEvidence scores one measurement's distribution for one mic against a
// global wall hypothesis. Degenerate distributions are uninformative
// (weight one); a hypothesis that puts the wall at a non-positive distance
// from the measurement pose, or on a zero-probability bin, earns the finite
// zero-weight penalty.
func (e *MovingEstimator) logEvidence(pose array.Pose, distanceCM, azimuthDeg float64, mic int, dist inference.Distribution) float64 {
	if dist.Degenerate || len(dist.Values) == 0 {
		return 0
	}
	localD, localA := pose.LocalWall(distanceCM, azimuthDeg)
	deltaCM, err := e.geo.DeltaCM(localD, localA, mic)
	if err != nil {
		return logZeroWeight
	}
	w := dist.Weights[nearestIndex(dist.Values, deltaCM)]
	if w <= 0 {
		return logZeroWeight
	}
	return math.Log10(w)
}

// MarginalDistributions marginalizes the joint posterior into a distance
// PMF (over DistancesCM) and an angle PMF (over AnglesDeg), each
// renormalized to sum to one.
func (e *MovingEstimator) MarginalDistributions() (distancePMF, anglePMF []float64, err error) {
	joint, err := e.JointDistribution()
	if err != nil {
		return nil, nil, err
	}
	nd, na := joint.Dims()
	distancePMF = make([]float64, nd)
	anglePMF = make([]float64, na)
	for i := 0; i < nd; i++ {
		for j := 0; j < na; j++ {
			v := joint.At(i, j)
			distancePMF[i] += v
			anglePMF[j] += v
		}
	}
	floats.Scale(1/floats.Sum(distancePMF), distancePMF)
	floats.Scale(1/floats.Sum(anglePMF), anglePMF)
	return distancePMF, anglePMF, nil
}

// DistanceEstimate returns the candidate distance (cm) with the highest
// marginal probability. Ties break toward the first, i.e. smallest, grid
// value.
func (e *MovingEstimator) DistanceEstimate(distancePMF []float64) float64 {
	return e.cfg.DistancesCM[floats.MaxIdx(distancePMF)]
}

// AngleEstimate returns the candidate azimuth (degrees) with the highest
// marginal probability, ties breaking toward the smallest grid value.
func (e *MovingEstimator) AngleEstimate(anglePMF []float64) float64 {
	return e.cfg.AnglesDeg[floats.MaxIdx(anglePMF)]
}

// nearestIndex locates the grid point closest to x in an ascending grid,
// without interpolation. Midpoint ties take the lower index.
func nearestIndex(values []float64, x float64) int {
	i := sort.SearchFloat64s(values, x)
	if i == 0 {
		return 0
	}
	if i == len(values) {
		return len(values) - 1
	}
	if x-values[i-1] <= values[i]-x {
		return i - 1
	}
	return i
}
