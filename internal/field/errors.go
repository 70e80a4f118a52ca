package field

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"
)

// Domain errors for force computation.
var (
	// ErrSingularity indicates two charges share a snapshot position.
	ErrSingularity = errors.New("field: coincident charges (zero distance)")

	// ErrNonFinite indicates a force component overflowed to Inf or NaN.
	ErrNonFinite = errors.New("field: non-finite force")
)

// SingularityError identifies the pair of charges that coincided.
type SingularityError struct {
	Index int // movable charge the force was computed for
	Other int
	At    r2.Vec
}

func (e *SingularityError) Error() string {
	return fmt.Sprintf("%v: charges %d and %d at (%g, %g)", ErrSingularity, e.Index, e.Other, e.At.X, e.At.Y)
}

func (e *SingularityError) Unwrap() error {
	return ErrSingularity
}
