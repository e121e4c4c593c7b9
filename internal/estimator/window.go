package estimator

import (
	"github.com/joeinus134131/audioROS/internal/array"
	"github.com/joeinus134131/audioROS/internal/inference"
)

// Measurement is one time step of evidence: the robot pose plus one
// delta-distance distribution per mic. Measurements are never mutated after
// being added to the window.
type Measurement struct {
	Pose array.Pose
	Mics map[int]inference.Distribution
}

// window is a fixed-capacity FIFO of measurements. Once full, adding a new
// measurement evicts the oldest one; there is no reordering by any other
// key.
type window struct {
	entries  []Measurement
	capacity int
	head     int // next write position
	size     int
}

func newWindow(capacity int) *window {
	return &window{
		entries:  make([]Measurement, capacity),
		capacity: capacity,
	}
}

func (w *window) add(m Measurement) {
	w.entries[w.head] = m
	w.head = (w.head + 1) % w.capacity
	if w.size < w.capacity {
		w.size++
	}
}

func (w *window) len() int { return w.size }

// all returns the stored measurements from oldest to newest.
func (w *window) all() []Measurement {
	out := make([]Measurement, w.size)
	for i := 0; i < w.size; i++ {
		out[i] = w.entries[(w.head-w.size+i+w.capacity)%w.capacity]
	}
	return out
}
