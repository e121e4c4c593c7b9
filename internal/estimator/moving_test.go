package estimator

import (
	"math"
	"testing"

	"github.com/joeinus134131/audioROS/internal/array"
	"github.com/joeinus134131/audioROS/internal/inference"
	"github.com/joeinus134131/audioROS/internal/simulation"
)

func newTestEstimator(t *testing.T, nWindow int) (*MovingEstimator, *array.Geometry) {
	t.Helper()
	geo := array.DefaultGeometry()
	est, err := New(geo, Config{
		NWindow:     nWindow,
		DistancesCM: inference.GridRange(0, 100, 2),
		AnglesDeg:   inference.GridRange(0, 360, 10),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return est, geo
}

// runRecovery drives the diamond trajectory past the wall at 30 cm / 90
// degrees and checks that the fused estimates recover the wall exactly once
// the window is full.
func runRecovery(t *testing.T, mode simulation.MeasurementMode, nWindow int) {
	t.Helper()
	est, geo := newTestEstimator(t, nWindow)
	sc := simulation.DiamondScenario(geo)
	sc.Mode = mode

	for i := range sc.Poses {
		pose, mics, err := sc.MeasurementAt(i)
		if err != nil {
			t.Fatalf("MeasurementAt(%d): %v", i, err)
		}
		est.AddMeasurement(pose, mics)
		if i < nWindow-1 {
			continue
		}

		distancePMF, anglePMF, err := est.MarginalDistributions()
		if err != nil {
			t.Fatalf("step %d: MarginalDistributions: %v", i, err)
		}
		if got := est.DistanceEstimate(distancePMF); got != 30 {
			t.Errorf("step %d: distance estimate = %v, want 30", i, got)
		}
		if got := est.AngleEstimate(anglePMF); got != 90 {
			t.Errorf("step %d: angle estimate = %v, want 90", i, got)
		}
	}
}

func TestRecoveryOneHot(t *testing.T) {
	for _, n := range []int{2, 3} {
		runRecovery(t, simulation.ModeOneHot, n)
	}
}

func TestRecoveryGaussian(t *testing.T) {
	for _, n := range []int{2, 3} {
		runRecovery(t, simulation.ModeGaussian, n)
	}
}

func TestWindowFIFOBound(t *testing.T) {
	est, _ := newTestEstimator(t, 3)
	grid := inference.GridRange(0, 10, 1)

	poses := []array.Pose{
		{X: 1}, {X: 2}, {X: 3}, {X: 4}, {X: 5},
	}
	for _, p := range poses {
		est.AddMeasurement(p, map[int]inference.Distribution{0: inference.Uniform(grid)})
	}

	got := est.Measurements()
	if len(got) != 3 {
		t.Fatalf("window holds %d measurements, want 3", len(got))
	}
	for i, wantX := range []float64{3, 4, 5} {
		if got[i].Pose.X != wantX {
			t.Errorf("window[%d].Pose.X = %v, want %v (oldest evicted first)", i, got[i].Pose.X, wantX)
		}
	}
}

func TestEmptyWindowUniformJoint(t *testing.T) {
	est, _ := newTestEstimator(t, 2)
	joint, err := est.JointDistribution()
	if err != nil {
		t.Fatalf("JointDistribution: %v", err)
	}
	nd, na := joint.Dims()
	want := 1 / float64(nd*na)
	sum := 0.0
	for i := 0; i < nd; i++ {
		for j := 0; j < na; j++ {
			v := joint.At(i, j)
			if math.Abs(v-want) > 1e-12 {
				t.Fatalf("cell (%d,%d) = %v, want uniform %v", i, j, v, want)
			}
			sum += v
		}
	}
	if math.Abs(sum-1) > 1e-5 {
		t.Errorf("joint mass = %v, want 1", sum)
	}
}

func TestJointNormalization(t *testing.T) {
	est, geo := newTestEstimator(t, 3)
	sc := simulation.DiamondScenario(geo)
	sc.Mode = simulation.ModeGaussian
	for i := range sc.Poses {
		pose, mics, err := sc.MeasurementAt(i)
		if err != nil {
			t.Fatalf("MeasurementAt(%d): %v", i, err)
		}
		est.AddMeasurement(pose, mics)
	}

	joint, err := est.JointDistribution()
	if err != nil {
		t.Fatalf("JointDistribution: %v", err)
	}
	nd, na := joint.Dims()
	sum := 0.0
	for i := 0; i < nd; i++ {
		for j := 0; j < na; j++ {
			v := joint.At(i, j)
			if v < 0 || math.IsNaN(v) {
				t.Fatalf("cell (%d,%d) = %v, want non-negative finite", i, j, v)
			}
			sum += v
		}
	}
	if math.Abs(sum-1) > 1e-5 {
		t.Errorf("joint mass = %v, want 1 within 1e-5", sum)
	}
}

// TestDegenerateMeasurementResilience checks that one zero-mass per-mic
// distribution neither crashes the fusion nor shifts the argmax relative to
// the same window without that mic's contribution.
func TestDegenerateMeasurementResilience(t *testing.T) {
	geo := array.DefaultGeometry()
	sc := simulation.DiamondScenario(geo)

	zero := make([]float64, len(sc.DeltaGridCM))
	degenerate, err := inference.NewDistribution(sc.DeltaGridCM, zero)
	if err != nil {
		t.Fatalf("NewDistribution: %v", err)
	}
	if !degenerate.Degenerate {
		t.Fatal("zero-mass distribution not marked degenerate")
	}

	build := func(injectDegenerate bool) *MovingEstimator {
		est, _ := newTestEstimator(t, 3)
		for i := 0; i < 3; i++ {
			pose, mics, err := sc.MeasurementAt(i)
			if err != nil {
				t.Fatalf("MeasurementAt(%d): %v", i, err)
			}
			if i == 1 {
				if injectDegenerate {
					mics[1] = degenerate
				} else {
					delete(mics, 1)
				}
			}
			est.AddMeasurement(pose, mics)
		}
		return est
	}

	with := build(true)
	without := build(false)

	jw, err := with.JointDistribution()
	if err != nil {
		t.Fatalf("JointDistribution with degenerate input: %v", err)
	}
	jo, err := without.JointDistribution()
	if err != nil {
		t.Fatalf("JointDistribution: %v", err)
	}
	nd, na := jw.Dims()
	for i := 0; i < nd; i++ {
		for j := 0; j < na; j++ {
			if math.Abs(jw.At(i, j)-jo.At(i, j)) > 1e-12 {
				t.Fatalf("cell (%d,%d) differs: %v vs %v", i, j, jw.At(i, j), jo.At(i, j))
			}
		}
	}
}

func TestMarginalizationIdempotence(t *testing.T) {
	est, geo := newTestEstimator(t, 2)
	sc := simulation.DiamondScenario(geo)
	for i := 0; i < 2; i++ {
		pose, mics, err := sc.MeasurementAt(i)
		if err != nil {
			t.Fatalf("MeasurementAt(%d): %v", i, err)
		}
		est.AddMeasurement(pose, mics)
	}

	d1, a1, err := est.MarginalDistributions()
	if err != nil {
		t.Fatalf("MarginalDistributions: %v", err)
	}
	d2, a2, err := est.MarginalDistributions()
	if err != nil {
		t.Fatalf("MarginalDistributions (second call): %v", err)
	}
	for i := range d1 {
		if d1[i] != d2[i] {
			t.Fatalf("distance PMF differs at %d: %v vs %v", i, d1[i], d2[i])
		}
	}
	for i := range a1 {
		if a1[i] != a2[i] {
			t.Fatalf("angle PMF differs at %d: %v vs %v", i, a1[i], a2[i])
		}
	}
}

func TestEstimateTieBreak(t *testing.T) {
	geo := array.DefaultGeometry()
	est, err := New(geo, Config{
		NWindow:     1,
		DistancesCM: []float64{10, 20},
		AnglesDeg:   []float64{0, 90},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := est.DistanceEstimate([]float64{0.5, 0.5}); got != 10 {
		t.Errorf("tied distance estimate = %v, want first grid value 10", got)
	}
	if got := est.AngleEstimate([]float64{0.5, 0.5}); got != 0 {
		t.Errorf("tied angle estimate = %v, want first grid value 0", got)
	}
}

func TestNearestIndex(t *testing.T) {
	grid := []float64{0, 1, 2, 3}
	tests := []struct {
		x    float64
		want int
	}{
		{-5, 0},
		{0, 0},
		{0.4, 0},
		{0.5, 0}, // midpoint ties take the lower index
		{0.6, 1},
		{2.9, 3},
		{99, 3},
	}
	for _, tt := range tests {
		if got := nearestIndex(grid, tt.x); got != tt.want {
			t.Errorf("nearestIndex(%v) = %d, want %d", tt.x, got, tt.want)
		}
	}
}

func TestNewValidation(t *testing.T) {
	geo := array.DefaultGeometry()
	grid := inference.GridRange(0, 10, 1)
	cases := []struct {
		name string
		cfg  Config
	}{
		{"zero window", Config{NWindow: 0, DistancesCM: grid, AnglesDeg: grid}},
		{"empty distance grid", Config{NWindow: 2, AnglesDeg: grid}},
		{"unsorted angle grid", Config{NWindow: 2, DistancesCM: grid, AnglesDeg: []float64{10, 0}}},
	}
	for _, tt := range cases {
		if _, err := New(geo, tt.cfg); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
	if _, err := New(nil, DefaultConfig()); err == nil {
		t.Error("nil geometry: expected error")
	}
}
