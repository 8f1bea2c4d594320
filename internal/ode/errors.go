package ode

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownKind = errors.New("ode: unknown stepper kind")

	// ErrInvalidParams indicates step or tolerance settings outside their range.
	ErrInvalidParams = errors.New("ode: invalid parameters")

	// ErrStepTooSmall indicates the adaptive step fell below Params.HMin.
	ErrStepTooSmall = errors.New("ode: step size below minimum")

	// ErrMaxSteps indicates Params.MaxSteps accepted and rejected steps were
	// taken without reaching the target time.
	ErrMaxSteps = errors.New("ode: maximum number of steps exceeded")

	// ErrNonFinite indicates the state diverged to NaN or Inf.
	ErrNonFinite = errors.New("ode: non-finite state")

	// ErrDimensionMismatch indicates a state vector whose length differs from
	// the system dimension.
	ErrDimensionMismatch = errors.New("ode: dimension mismatch between state and system")
)

// StepError wraps a driver failure with the time it occurred.
type StepError struct {
	Step    int
	Time    float64
	H       float64
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (t=%.6g, h=%.3g): %v", e.Step, e.Time, e.H, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
