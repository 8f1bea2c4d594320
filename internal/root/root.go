package root

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	KindNewton  = "newton"
	KindHybrid  = "hybrid"
	KindHybridS = "hybrids"
	KindBroyden = "broyden"
)

var solverKinds = []string{KindBroyden, KindHybrid, KindHybridS, KindNewton}

func Kinds() []string {
	out := append([]string(nil), solverKinds...)
	sort.Strings(out)
	return out
}

// Func writes the residual f(x) into f. len(f) == len(x).
type Func func(f, x []float64)

type Params struct {
	AbsTol  float64 `yaml:"abs_tol" json:"abs_tol"`
	RelTol  float64 `yaml:"rel_tol" json:"rel_tol"`
	MaxIter int     `yaml:"max_iter" json:"max_iter"`
}

func DefaultParams() Params {
	return Params{AbsTol: 1e-8, RelTol: 1e-3, MaxIter: 35}
}

func (p Params) Validate() error {
	switch {
	case !(p.AbsTol > 0):
		return fmt.Errorf("%w: abs_tol must be positive, got %g", ErrInvalidParams, p.AbsTol)
	case p.RelTol < 0 || math.IsNaN(p.RelTol):
		return fmt.Errorf("%w: rel_tol must be non-negative, got %g", ErrInvalidParams, p.RelTol)
	case p.MaxIter < 1:
		return fmt.Errorf("%w: max_iter must be positive, got %d", ErrInvalidParams, p.MaxIter)
	}
	return nil
}

type Result struct {
	X           []float64
	F           []float64
	Iterations  int
	Evaluations int
	// Residual is the sum of absolute residual components.
	Residual float64
}

type Option func(*Solver)

func WithParams(p Params) Option {
	return func(s *Solver) { s.params = p }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Solver) {
		if l != nil {
			s.logger = l
		}
	}
}

type Solver struct {
	kind   string
	params Params
	logger *slog.Logger
}

func NewSolver(kind string, opts ...Option) (*Solver, error) {
	switch kind {
	case KindNewton, KindHybrid, KindHybridS, KindBroyden:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	s := &Solver{
		kind:   kind,
		params: DefaultParams(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.params.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Solver) Kind() string   { return s.kind }
func (s *Solver) Params() Params { return s.params }

// state carries the iterate and scratch space of one Find call.
type state struct {
	fn    Func
	n     int
	evals int

	x, f   []float64
	xt, ft []float64
	df     []float64
	dx     *mat.VecDense
	jac    *mat.Dense
}

func (st *state) eval(f, x []float64) error {
	st.fn(f, x)
	st.evals++
	if !allFinite(f) {
		return fmt.Errorf("%w at x=%v", ErrNonFinite, x)
	}
	return nil
}

func (st *state) jacobian() {
	fd.Jacobian(st.jac, func(y, x []float64) {
		st.fn(y, x)
		st.evals++
	}, st.x, &fd.JacobianSettings{Formula: fd.Central})
}

// newtonStep solves J dx = -f using the current Jacobian.
func (st *state) newtonStep(logger *slog.Logger) error {
	rhs := mat.NewVecDense(st.n, nil)
	for i, v := range st.f {
		rhs.SetVec(i, -v)
	}
	err := st.dx.SolveVec(st.jac, rhs)
	if err != nil {
		var cond mat.Condition
		switch {
		case errors.As(err, &cond) && !math.IsInf(float64(cond), 1):
			logger.Warn("root: ill-conditioned jacobian", "cond", float64(cond))
		default:
			return fmt.Errorf("%w: %v", ErrSingular, err)
		}
	}
	if !allFinite(st.dx.RawVector().Data) {
		return fmt.Errorf("%w: non-finite step", ErrSingular)
	}
	return nil
}

// Find searches for a root starting from x and writes the final iterate into
// x. The returned Result is populated on failure too.
func (s *Solver) Find(fn Func, x []float64) (Result, error) {
	n := len(x)
	if n == 0 {
		return Result{}, fmt.Errorf("%w: empty starting point", ErrDimensionMismatch)
	}
	st := &state{
		fn:  fn,
		n:   n,
		x:   x,
		f:   make([]float64, n),
		xt:  make([]float64, n),
		ft:  make([]float64, n),
		df:  make([]float64, n),
		dx:  mat.NewVecDense(n, nil),
		jac: mat.NewDense(n, n, nil),
	}
	result := func(iter int) Result {
		return Result{
			X:           append([]float64(nil), st.x...),
			F:           append([]float64(nil), st.f...),
			Iterations:  iter,
			Evaluations: st.evals,
			Residual:    floats.Norm(st.f, 1),
		}
	}

	if err := st.eval(st.f, st.x); err != nil {
		return result(0), err
	}
	if floats.Norm(st.f, 1) < s.params.AbsTol {
		return result(0), nil
	}

	if s.kind == KindHybrid || s.kind == KindHybridS {
		return s.trustRegion(st, result)
	}

	refresh := true
	for iter := 1; iter <= s.params.MaxIter; iter++ {
		if s.kind != KindBroyden || refresh {
			st.jacobian()
			refresh = false
		}
		if err := st.newtonStep(s.logger); err != nil {
			return result(iter - 1), err
		}
		dx := st.dx.RawVector().Data
		converged := s.deltaConverged(dx, st.x)

		switch s.kind {
		case KindNewton:
			floats.AddTo(st.xt, st.x, dx)
			if err := st.eval(st.ft, st.xt); err != nil {
				return result(iter - 1), err
			}
		case KindBroyden:
			floats.AddTo(st.xt, st.x, dx)
			if err := st.eval(st.ft, st.xt); err != nil {
				return result(iter - 1), err
			}
			if floats.Norm(st.ft, 2) >= floats.Norm(st.f, 2) {
				refresh = true
			} else {
				floats.SubTo(st.df, st.ft, st.f)
				secantUpdate(st.jac, dx, st.df, nil)
			}
		}

		copy(st.x, st.xt)
		copy(st.f, st.ft)

		res := floats.Norm(st.f, 1)
		s.logger.Debug("root: iterate", "solver", s.kind, "iter", iter, "x", st.x, "residual", res)
		if res < s.params.AbsTol || converged {
			return result(iter), nil
		}
	}
	return result(s.params.MaxIter), fmt.Errorf("%w (max_iter=%d)", ErrMaxIterations, s.params.MaxIter)
}

// deltaConverged tests the full Newton step, before any damping.
func (s *Solver) deltaConverged(dx, x []float64) bool {
	for i, d := range dx {
		if math.Abs(d) >= s.params.AbsTol+s.params.RelTol*math.Abs(x[i]) {
			return false
		}
	}
	return true
}

// secantUpdate applies Broyden's rank-one correction so that the new
// Jacobian maps dx to df:
//
//	J += (df - J dx) (D² dx)ᵀ / |D dx|²
//
// A nil diag means D = I.
func secantUpdate(jac *mat.Dense, dx, df, diag []float64) {
	n := len(dx)
	v := mat.NewVecDense(n, nil)
	for i, d := range dx {
		w := 1.0
		if diag != nil {
			w = diag[i] * diag[i]
		}
		v.SetVec(i, w*d)
	}
	dd := floats.Dot(v.RawVector().Data, dx)
	if dd == 0 {
		return
	}
	u := mat.NewVecDense(n, nil)
	u.MulVec(jac, mat.NewVecDense(n, dx))
	for i := 0; i < n; i++ {
		u.SetVec(i, (df[i]-u.AtVec(i))/dd)
	}
	jac.RankOne(jac, 1, u, v)
}

func allFinite(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
