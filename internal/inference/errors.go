package inference

import "fmt"

// ShapeError reports malformed input arrays. It signals a caller bug and is
// fatal to the call that produced it.
type ShapeError struct {
	Op   string
	Mic  int
	Want int
	Got  int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("%s: mic %d: length mismatch, want %d got %d", e.Op, e.Mic, e.Want, e.Got)
}

// DegenerateDistributionError reports evidence whose normalization mass is
// zero or non-finite. It is recoverable: the caller should treat the step as
// carrying no evidence rather than abort.
type DegenerateDistributionError struct {
	Op  string
	Mic int
}

func (e *DegenerateDistributionError) Error() string {
	return fmt.Sprintf("%s: mic %d: zero or non-finite evidence mass", e.Op, e.Mic)
}
