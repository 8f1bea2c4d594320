package interp

import "errors"

var (
	ErrLengthMismatch = errors.New("interp: length mismatch")
	ErrTooFewPoints   = errors.New("interp: too few data points")
	ErrNotIncreasing  = errors.New("interp: abscissae are not strictly increasing")
	ErrNonFinite      = errors.New("interp: non-finite data value")
	ErrUnknownKind    = errors.New("interp: unknown interpolation kind")

	// ErrOutOfDomain indicates an evaluation point outside the data range.
	ErrOutOfDomain = errors.New("interp: point outside data range")

	// ErrUnsupported indicates the interpolant does not provide the requested
	// operation.
	ErrUnsupported = errors.New("interp: operation not supported by kind")
)
