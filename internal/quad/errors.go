package quad

import "errors"

var (
	// ErrInvalidParams indicates tolerances or budgets outside their valid range.
	ErrInvalidParams = errors.New("quad: invalid parameters")

	// ErrInvalidInterval indicates a NaN or infinite integration bound.
	ErrInvalidInterval = errors.New("quad: invalid interval")

	// ErrMaxEval indicates the evaluation budget was exhausted before the
	// tolerance was met.
	ErrMaxEval = errors.New("quad: evaluation budget exhausted")

	// ErrMaxSubdivisions indicates the subinterval limit was reached before
	// the tolerance was met.
	ErrMaxSubdivisions = errors.New("quad: maximum number of subdivisions reached")

	// ErrRoundoff indicates an interval became too narrow to bisect.
	ErrRoundoff = errors.New("quad: roundoff error prevents further bisection")

	// ErrNonFinite indicates the integrand produced NaN or Inf.
	ErrNonFinite = errors.New("quad: non-finite integrand value")

	// ErrUnknownKind indicates an unregistered engine kind.
	ErrUnknownKind = errors.New("quad: unknown engine kind")
)
