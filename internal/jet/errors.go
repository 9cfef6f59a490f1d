package jet

import (
	"errors"
	"fmt"
)

// ErrInvalidParameter indicates a parameter outside the domain the simulator
// accepts at all.
var ErrInvalidParameter = errors.New("jet: invalid parameter")

// ParameterError names the offending field.
type ParameterError struct {
	Field string
	Value float64
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("jet: invalid parameter %s=%g (must be positive)", e.Field, e.Value)
}

func (e *ParameterError) Unwrap() error {
	return ErrInvalidParameter
}

// DiagnosticKind classifies a non-fatal adjustment made during a run.
type DiagnosticKind string

const (
	// DiagSingularDivision means a divisor was raised to its floor.
	DiagSingularDivision DiagnosticKind = "singular_division"
)

// Diagnostic records a value the simulator replaced to stay finite.
type Diagnostic struct {
	Kind  DiagnosticKind `json:"kind"`
	Field string         `json:"field"`
	Value float64        `json:"value"`
	Floor float64        `json:"floor"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s=%g clamped to %g", d.Kind, d.Field, d.Value, d.Floor)
}
