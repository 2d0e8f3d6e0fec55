package decomp

import "fmt"

// EmptySampleError is returned when a run's aligned estimation sample
// has no usable rows. The run is recorded as failed; the sweep
// continues with the remaining combinations.
type EmptySampleError struct {
	Reason string
}

func (e *EmptySampleError) Error() string {
	return fmt.Sprintf("empty estimation sample: %s", e.Reason)
}

// NonMonotonicFitError is returned when the nested R-squared sequence
// decreases by more than the floating-point noise tolerance. That
// signals a specification or sample-alignment bug and must not be
// silently corrected.
type NonMonotonicFitError struct {
	Step  string  // the transition that decreased, e.g. "industry"
	Delta float64 // the (negative) R-squared increment
}

func (e *NonMonotonicFitError) Error() string {
	return fmt.Sprintf("nested fit decreased at %s step by %g (tolerance %g)", e.Step, -e.Delta, ClipTolerance)
}
