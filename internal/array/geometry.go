package array

import (
	"fmt"
	"math"
)

// SpeedOfSound is the default propagation speed in air (m/s).
const SpeedOfSound = 343.0

// micPitch is the default spacing between adjacent mics (meters).
const micPitch = 0.108

// Geometry describes the microphone array and its on-board sound source in
// the body frame. Positions are in meters. The body origin is the robot's
// reference point, about which wall distances are measured.
type Geometry struct {
	Mics         [][3]float64
	Source       [3]float64
	SpeedOfSound float64
}

// DefaultGeometry returns the reference quadrotor setup: four mics at the
// corners of a square with 0.108 m pitch, and the buzzer at the body center,
// 1 cm above the mic plane.
func DefaultGeometry() *Geometry {
	h := micPitch / 2
	return &Geometry{
		Mics: [][3]float64{
			{-h, -h, 0},
			{h, -h, 0},
			{-h, h, 0},
			{h, h, 0},
		},
		Source:       [3]float64{0, 0, 0.01},
		SpeedOfSound: SpeedOfSound,
	}
}

// InvalidGeometryError reports a hypothesis that is not physically
// realizable, such as a non-positive wall distance.
type InvalidGeometryError struct {
	DistanceCM float64
	Mic        int
}

func (e *InvalidGeometryError) Error() string {
	return fmt.Sprintf("mic %d: non-physical wall distance %.2f cm", e.Mic, e.DistanceCM)
}

// Speed returns the configured speed of sound, falling back to the default.
func (g *Geometry) Speed() float64 {
	if g.SpeedOfSound > 0 {
		return g.SpeedOfSound
	}
	return SpeedOfSound
}

func (g *Geometry) checkMic(mic int) error {
	if mic < 0 || mic >= len(g.Mics) {
		return fmt.Errorf("mic index %d out of range [0,%d)", mic, len(g.Mics))
	}
	return nil
}

// DirectPath returns the direct source-to-mic path length in meters.
func (g *Geometry) DirectPath(mic int) (float64, error) {
	if err := g.checkMic(mic); err != nil {
		return 0, err
	}
	return dist3(g.Source, g.Mics[mic]), nil
}

// Delta returns the extra one-way path length (meters) of the wall echo seen
// by mic relative to the direct source-to-mic path, for a wall at the given
// orthogonal distance (cm) whose normal points at azimuthDeg in the body
// frame. The wall is modeled as a vertical plane; the echo path is the
// distance from the mirrored source to the mic.
func (g *Geometry) Delta(distanceCM, azimuthDeg float64, mic int) (float64, error) {
	if err := g.checkMic(mic); err != nil {
		return 0, err
	}
	if distanceCM <= 0 {
		return 0, &InvalidGeometryError{DistanceCM: distanceCM, Mic: mic}
	}
	d := distanceCM * 1e-2
	nx, ny := normal(azimuthDeg)

	s := g.Source
	m := g.Mics[mic]
	// Mirror the source across the wall plane. The wall is vertical, so
	// only the horizontal components move.
	u := d - (s[0]*nx + s[1]*ny)
	img := [3]float64{s[0] + 2*u*nx, s[1] + 2*u*ny, s[2]}
	return dist3(img, m) - dist3(s, m), nil
}

// DeltaCM is Delta in centimeters.
func (g *Geometry) DeltaCM(distanceCM, azimuthDeg float64, mic int) (float64, error) {
	d, err := g.Delta(distanceCM, azimuthDeg, mic)
	return d * 1e2, err
}

// DistanceFromDelta inverts Delta: given the extra echo path length (cm) at
// mic and the wall azimuth in the body frame, it returns the orthogonal wall
// distance in cm. Deltas that admit no wall in front of the array yield NaN;
// callers are expected to range-mask the output.
func (g *Geometry) DistanceFromDelta(deltaCM, azimuthDeg float64, mic int) (float64, error) {
	if err := g.checkMic(mic); err != nil {
		return 0, err
	}
	delta := deltaCM * 1e-2
	nx, ny := normal(azimuthDeg)

	s := g.Source
	m := g.Mics[mic]
	b := (s[0]-m[0])*nx + (s[1]-m[1])*ny
	r0 := dist3(s, m)
	disc := b*b + delta*delta + 2*delta*r0
	if disc < 0 {
		return math.NaN(), nil
	}
	u := (-b + math.Sqrt(disc)) / 2
	return (u + s[0]*nx + s[1]*ny) * 1e2, nil
}

// DistancesFromDeltas applies DistanceFromDelta element-wise.
func (g *Geometry) DistancesFromDeltas(deltasCM []float64, azimuthDeg float64, mic int) ([]float64, error) {
	if err := g.checkMic(mic); err != nil {
		return nil, err
	}
	out := make([]float64, len(deltasCM))
	for i, d := range deltasCM {
		v, err := g.DistanceFromDelta(d, azimuthDeg, mic)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// ApproachAnglesFromPeriods maps spatial periods (cycles per meter of
// traveled distance, as read off a transform of a distance slice) to
// approach angles in degrees. Periods implying sin(gamma) > 1 are clamped
// to the 90 degree boundary so the probability mass they carry is kept
// rather than discarded.
func (g *Geometry) ApproachAnglesFromPeriods(periods []float64, frequencyHz float64) []float64 {
	limit := 2 * frequencyHz / g.Speed() // period of the delta pattern at gamma = 90
	gammas := make([]float64, len(periods))
	for i, p := range periods {
		sin := p / limit
		if sin > 1 {
			gammas[i] = 90
			continue
		}
		gammas[i] = math.Asin(sin) * 180 / math.Pi
	}
	return gammas
}

func normal(azimuthDeg float64) (nx, ny float64) {
	az := azimuthDeg * math.Pi / 180
	return math.Cos(az), math.Sin(az)
}

func dist3(a, b [3]float64) float64 {
	dx := a[0] - b[0]
	dy := a[1] - b[1]
	dz := a[2] - b[2]
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}
