package inference

// Slice is one frequency-domain amplitude slice for one mic: the standing
// interference pattern sampled across the emitted sweep. Amplitudes and
// Frequencies are parallel; Frequencies is ascending, in Hz. A Slice is
// immutable once produced by the front-end.
type Slice struct {
	Amplitudes  []float64
	Frequencies []float64
	Mic         int
}

// DistanceSlice is the dual measurement used for approach-angle estimation:
// amplitude at one fixed frequency sampled while the robot moves toward the
// wall, indexed by the relative distance traveled (cm, ascending).
type DistanceSlice struct {
	Amplitudes          []float64
	RelativeDistancesCM []float64
	FrequencyHz         float64
	Mic                 int
}

// Model predicts the interference amplitude a mic would observe. It is the
// external signal model consumed by the cost method; internal/simulation
// provides the two-ray implementation.
type Model interface {
	// FrequencySlice predicts amplitudes across frequenciesHz for a wall
	// at distancesCM in the body frame. distancesCM holds either a single
	// value applied to every sample or one value per frequency sample.
	FrequencySlice(frequenciesHz, distancesCM []float64, azimuthDeg float64, mic int) ([]float64, error)

	// DistanceSlice predicts amplitudes at a fixed frequency across wall
	// distances.
	DistanceSlice(frequencyHz float64, distancesCM []float64, azimuthDeg float64, mic int) ([]float64, error)
}
