package root

import "errors"

var (
	ErrUnknownKind   = errors.New("root: unknown solver kind")
	ErrInvalidParams = errors.New("root: invalid parameters")

	// ErrMaxIterations indicates Params.MaxIter iterations ran without
	// meeting either convergence test.
	ErrMaxIterations = errors.New("root: maximum number of iterations reached")

	// ErrSingular indicates the Jacobian could not be inverted.
	ErrSingular = errors.New("root: singular jacobian")

	// ErrNoProgress indicates the trust region solvers stopped reducing the
	// residual norm over several iterations or Jacobian evaluations.
	ErrNoProgress = errors.New("root: iteration is not making progress")

	ErrNonFinite         = errors.New("root: non-finite function value")
	ErrDimensionMismatch = errors.New("root: dimension mismatch")
)
