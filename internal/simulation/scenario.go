package simulation

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/joeinus134131/audioROS/internal/array"
	"github.com/joeinus134131/audioROS/internal/inference"
)

// Wall is the ground truth of a study: the wall's orthogonal distance from
// the world origin (cm) and the azimuth of its normal in the world frame.
type Wall struct {
	DistanceCM float64
	AzimuthDeg float64
}

// MeasurementMode selects how synthetic per-mic evidence is shaped.
type MeasurementMode int

const (
	// ModeOneHot puts all probability mass on the grid bin closest to
	// the true delta.
	ModeOneHot MeasurementMode = iota
	// ModeGaussian spreads the mass around the true delta with scale
	// SigmaCM.
	ModeGaussian
)

// Scenario describes a synthetic wall-recovery study: a trajectory flown
// past a fixed wall, with per-mic delta evidence generated at every pose.
type Scenario struct {
	Geometry    *array.Geometry
	Wall        Wall
	Poses       []array.Pose
	Mics        []int
	DeltaGridCM []float64
	Mode        MeasurementMode
	SigmaCM     float64
}

// DiamondScenario is the canonical study: the robot traces a diamond,
// rotating by -90 degrees at each corner, past a wall 30 cm north of the
// origin.
func DiamondScenario(geo *array.Geometry) Scenario {
	return Scenario{
		Geometry: geo,
		Wall:     Wall{DistanceCM: 30, AzimuthDeg: 90},
		Poses: []array.Pose{
			{X: 0, Y: 10, YawDeg: -90},
			{X: 10, Y: 20, YawDeg: -180},
			{X: 20, Y: 10, YawDeg: 90},
			{X: 10, Y: 0, YawDeg: 0},
		},
		Mics:        []int{0, 1},
		DeltaGridCM: inference.GridRange(0, 100, 1),
		Mode:        ModeOneHot,
		SigmaCM:     10,
	}
}

// MeasurementAt synthesizes the pose and per-mic distributions the robot
// would record at step i of the trajectory.
func (s Scenario) MeasurementAt(i int) (array.Pose, map[int]inference.Distribution, error) {
	if i < 0 || i >= len(s.Poses) {
		return array.Pose{}, nil, fmt.Errorf("scenario: step %d out of range [0,%d)", i, len(s.Poses))
	}
	pose := s.Poses[i]
	localD, localA := pose.LocalWall(s.Wall.DistanceCM, s.Wall.AzimuthDeg)

	mics := make(map[int]inference.Distribution, len(s.Mics))
	for _, mic := range s.Mics {
		delta, err := s.Geometry.DeltaCM(localD, localA, mic)
		if err != nil {
			return array.Pose{}, nil, fmt.Errorf("scenario: step %d: %w", i, err)
		}
		weights := make([]float64, len(s.DeltaGridCM))
		switch s.Mode {
		case ModeOneHot:
			weights[closest(s.DeltaGridCM, delta)] = 1
		case ModeGaussian:
			pdf := distuv.Normal{Mu: delta, Sigma: s.SigmaCM}
			for j, v := range s.DeltaGridCM {
				weights[j] = pdf.Prob(v)
			}
		default:
			return array.Pose{}, nil, fmt.Errorf("scenario: unknown measurement mode %d", int(s.Mode))
		}
		dist, err := inference.NewDistribution(s.DeltaGridCM, weights)
		if err != nil {
			return array.Pose{}, nil, err
		}
		mics[mic] = dist
	}
	return pose, mics, nil
}

// closest is the argmin of |grid - x|; the first minimum wins.
func closest(grid []float64, x float64) int {
	best, bestDiff := 0, math.Inf(1)
	for i, v := range grid {
		if diff := math.Abs(v - x); diff < bestDiff {
			best, bestDiff = i, diff
		}
	}
	return best
}
