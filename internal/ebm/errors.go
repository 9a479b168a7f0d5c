package ebm

import (
	"errors"
	"fmt"
)

// Domain errors. All are raised synchronously at the point of detection:
// construction time for parameter and scenario errors, step time for
// timestep and forcing-range errors. None are retried internally.
var (
	// ErrInvalidParameter indicates a malformed physical constant.
	ErrInvalidParameter = errors.New("ebm: invalid parameter")

	// ErrInvalidScenario indicates a malformed forcing series.
	ErrInvalidScenario = errors.New("ebm: invalid forcing scenario")

	// ErrInvalidTimestep indicates a non-positive step size.
	ErrInvalidTimestep = errors.New("ebm: invalid timestep")

	// ErrUnstableTimestep indicates the explicit scheme was asked, in
	// strict mode, to step beyond its stability bound.
	ErrUnstableTimestep = errors.New("ebm: unstable timestep")

	// ErrForcingOutOfRange indicates a strict-mode forcing query outside
	// the scenario's time range.
	ErrForcingOutOfRange = errors.New("ebm: forcing query out of range")
)

// ValueError wraps a domain error with the offending value and the
// constraint it violated, so the caller can fix the input.
type ValueError struct {
	Field      string
	Value      float64
	Constraint string
	Wrapped    error
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("%v: %s = %g (want %s)", e.Wrapped, e.Field, e.Value, e.Constraint)
}

func (e *ValueError) Unwrap() error {
	return e.Wrapped
}

func invalidParam(field string, value float64, constraint string) error {
	return &ValueError{Field: field, Value: value, Constraint: constraint, Wrapped: ErrInvalidParameter}
}

// StepError wraps an error with the step context it occurred in.
type StepError struct {
	Step    int
	Time    float64
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
