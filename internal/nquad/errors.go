package nquad

import (
	"errors"
	"fmt"
)

var (
	// ErrDimensionMismatch indicates a box or integrand whose dimension does
	// not match the Integrator.
	ErrDimensionMismatch = errors.New("nquad: dimension mismatch")

	// ErrBusy indicates Integrate was entered while another call on the same
	// Integrator was in flight.
	ErrBusy = errors.New("nquad: integrator already in use")
)

// ReductionError annotates an engine failure with the reduction level that
// produced it and the coordinates fixed by the enclosing levels.
type ReductionError struct {
	Level int // 1-based
	Fixed []float64
	Err   error
}

func (e *ReductionError) Error() string {
	return fmt.Sprintf("nquad: level %d (fixed %v): %v", e.Level, e.Fixed, e.Err)
}

func (e *ReductionError) Unwrap() error {
	return e.Err
}
