package calibrate

import (
	"errors"
	"fmt"
)

var (
	// ErrNonConvergence indicates the solver exhausted its budget before
	// meeting any tolerance.
	ErrNonConvergence = errors.New("calibrate: solver did not converge")

	// ErrLengthMismatch indicates benchmark sequences of different lengths.
	ErrLengthMismatch = errors.New("calibrate: benchmark sequences differ in length")

	// ErrEmptyBenchmark indicates no benchmark points were supplied.
	ErrEmptyBenchmark = errors.New("calibrate: empty benchmark")

	// ErrInvalidBounds indicates a box whose lower edge exceeds its upper edge.
	ErrInvalidBounds = errors.New("calibrate: invalid bounds")

	// ErrInvalidOptions indicates a non-positive iteration budget or tolerance.
	ErrInvalidOptions = errors.New("calibrate: invalid solver options")
)

// FitError carries the solver state at the point it gave up.
type FitError struct {
	Iterations int
	Cost       float64
	Reason     string
}

func (e *FitError) Error() string {
	return fmt.Sprintf("calibrate: solver did not converge after %d iterations (cost=%g): %s", e.Iterations, e.Cost, e.Reason)
}

func (e *FitError) Unwrap() error {
	return ErrNonConvergence
}
