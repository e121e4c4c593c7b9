// Package simulation provides the two-ray interference signal model and
// synthetic measurement scenarios for studying the fusion pipeline without
// hardware.
package simulation

import (
	"fmt"
	"math"

	"github.com/joeinus134131/audioROS/internal/array"
)

// TwoRay models the sound field at each mic as the direct source-to-mic
// path plus a single echo from the mirrored source behind the wall. It
// implements inference.Model.
type TwoRay struct {
	Geometry *array.Geometry

	// ReflectionCoefficient attenuates the echo; 1 is a perfectly
	// reflective wall.
	ReflectionCoefficient float64
}

// NewTwoRay returns the model for a perfectly reflective wall.
func NewTwoRay(geo *array.Geometry) *TwoRay {
	return &TwoRay{Geometry: geo, ReflectionCoefficient: 1}
}

// FrequencySlice predicts the squared pressure magnitude across
// frequenciesHz for a wall at distancesCM in the body frame. distancesCM
// holds either a single value applied to every sample or one value per
// frequency sample.
func (m *TwoRay) FrequencySlice(frequenciesHz, distancesCM []float64, azimuthDeg float64, mic int) ([]float64, error) {
	if len(distancesCM) != 1 && len(distancesCM) != len(frequenciesHz) {
		return nil, fmt.Errorf("two-ray: mic %d: %d distances for %d frequencies", mic, len(distancesCM), len(frequenciesHz))
	}
	out := make([]float64, len(frequenciesHz))
	for i, f := range frequenciesHz {
		d := distancesCM[0]
		if len(distancesCM) > 1 {
			d = distancesCM[i]
		}
		g, err := m.gain(f, d, azimuthDeg, mic)
		if err != nil {
			return nil, err
		}
		out[i] = g
	}
	return out, nil
}

// DistanceSlice predicts the squared pressure magnitude at one frequency
// across wall distances.
func (m *TwoRay) DistanceSlice(frequencyHz float64, distancesCM []float64, azimuthDeg float64, mic int) ([]float64, error) {
	out := make([]float64, len(distancesCM))
	for i, d := range distancesCM {
		g, err := m.gain(frequencyHz, d, azimuthDeg, mic)
		if err != nil {
			return nil, err
		}
		out[i] = g
	}
	return out, nil
}

// gain is the squared magnitude of the two-path transfer function:
// |1/r0 + gamma/r1 * e^{ik*delta}|^2 with the common direct-path phase
// factored out.
func (m *TwoRay) gain(frequencyHz, distanceCM, azimuthDeg float64, mic int) (float64, error) {
	delta, err := m.Geometry.Delta(distanceCM, azimuthDeg, mic)
	if err != nil {
		return 0, err
	}
	r0, err := m.Geometry.DirectPath(mic)
	if err != nil {
		return 0, err
	}
	r1 := r0 + delta
	gamma := m.ReflectionCoefficient
	k := 2 * math.Pi * frequencyHz / m.Geometry.Speed()
	return 1/(r0*r0) + gamma*gamma/(r1*r1) + 2*gamma/(r0*r1)*math.Cos(k*delta), nil
}
