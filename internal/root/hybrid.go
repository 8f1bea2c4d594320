package root

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Step bound control of Powell's hybrid method, as in MINPACK's hybrd.
const (
	boundFactor = 100
	// maxSlow is the number of consecutive iterations with a negligible
	// actual reduction after which the solver gives up.
	maxSlow = 10
	// maxSlowJacobian is the same limit counted in Jacobian evaluations.
	maxSlowJacobian = 5
)

// region is the trust-region state of one hybrid Find call.
type region struct {
	diag  []float64
	delta float64

	g, sdir, p []float64
	jv         *mat.VecDense
}

// rescale sets diag to the column norms of the Jacobian. Later calls only
// let an entry grow. Without scaling diag stays at one.
func (r *region) rescale(jac *mat.Dense, scaled, first bool) {
	if !scaled {
		if first {
			for i := range r.diag {
				r.diag[i] = 1
			}
		}
		return
	}
	n, _ := jac.Dims()
	col := make([]float64, n)
	for j := range r.diag {
		mat.Col(col, j, jac)
		c := floats.Norm(col, 2)
		switch {
		case first && c == 0:
			r.diag[j] = 1
		case first:
			r.diag[j] = c
		default:
			r.diag[j] = math.Max(r.diag[j], c)
		}
	}
}

func (r *region) norm(v []float64) float64 {
	s := 0.0
	for i, x := range v {
		d := r.diag[i] * x
		s += d * d
	}
	return math.Sqrt(s)
}

// dogleg writes into r.p the minimizer of |f + J p| along the dogleg path
// from the origin through the Cauchy point to the Newton step pn, cut at
// |D p| = delta.
func (r *region) dogleg(jac *mat.Dense, f, pn []float64) {
	qnorm := r.norm(pn)
	if qnorm <= r.delta {
		copy(r.p, pn)
		return
	}

	// Scaled gradient of |f|²/2.
	n := len(f)
	gv := mat.NewVecDense(n, r.g)
	gv.MulVec(jac.T(), mat.NewVecDense(n, f))
	for i := range r.g {
		r.g[i] /= r.diag[i]
	}
	gnorm := floats.Norm(r.g, 2)
	if gnorm == 0 {
		floats.ScaleTo(r.p, r.delta/qnorm, pn)
		return
	}

	// sdir is the steepest descent direction with unit scaled length.
	for i := range r.sdir {
		r.sdir[i] = -r.g[i] / gnorm / r.diag[i]
	}
	r.jv.MulVec(jac, mat.NewVecDense(n, r.sdir))
	jn := floats.Norm(r.jv.RawVector().Data, 2)
	cauchy := math.Inf(1)
	if jn > 0 {
		cauchy = gnorm / (jn * jn)
	}
	if cauchy >= r.delta {
		floats.ScaleTo(r.p, r.delta, r.sdir)
		return
	}

	// Solve |D (c + tau (pn - c))| = delta for tau in (0, 1).
	var a, b, c float64
	for i := range r.p {
		ci := r.diag[i] * cauchy * r.sdir[i]
		di := r.diag[i]*pn[i] - ci
		a += di * di
		b += 2 * ci * di
		c += ci * ci
	}
	c -= r.delta * r.delta
	tau := (-b + math.Sqrt(b*b-4*a*c)) / (2 * a)
	for i := range r.p {
		cp := cauchy * r.sdir[i]
		r.p[i] = cp + tau*(pn[i]-cp)
	}
}

// trustRegion is Powell's hybrid method: dogleg steps inside an adaptive
// trust region with Broyden updates of a finite-difference Jacobian, which
// is recomputed after two consecutive failed steps. The hybrids kind
// measures steps in the norm scaled by the Jacobian column norms.
func (s *Solver) trustRegion(st *state, result func(int) Result) (Result, error) {
	n := st.n
	r := &region{
		diag: make([]float64, n),
		g:    make([]float64, n),
		sdir: make([]float64, n),
		p:    make([]float64, n),
		jv:   mat.NewVecDense(n, nil),
	}
	scaled := s.kind == KindHybridS

	st.jacobian()
	r.rescale(st.jac, scaled, true)
	r.delta = boundFactor * r.norm(st.x)
	if r.delta == 0 {
		r.delta = boundFactor
	}
	fnorm := floats.Norm(st.f, 2)

	model := mat.NewVecDense(n, nil)
	var ncfail, ncsuc, nslow1, nslow2 int
	jeval := true
	for iter := 1; iter <= s.params.MaxIter; iter++ {
		if err := st.newtonStep(s.logger); err != nil {
			return result(iter - 1), err
		}
		r.dogleg(st.jac, st.f, st.dx.RawVector().Data)

		floats.AddTo(st.xt, st.x, r.p)
		if err := st.eval(st.ft, st.xt); err != nil {
			return result(iter - 1), err
		}
		pnorm := r.norm(r.p)
		if iter == 1 {
			r.delta = math.Min(r.delta, pnorm)
		}

		fnorm1 := floats.Norm(st.ft, 2)
		actred := -1.0
		if fnorm1 < fnorm {
			actred = 1 - (fnorm1/fnorm)*(fnorm1/fnorm)
		}
		model.MulVec(st.jac, mat.NewVecDense(n, r.p))
		floats.Add(model.RawVector().Data, st.f)
		mnorm := floats.Norm(model.RawVector().Data, 2)
		prered := 0.0
		if mnorm < fnorm {
			prered = 1 - (mnorm/fnorm)*(mnorm/fnorm)
		}
		ratio := 0.0
		if prered > 0 {
			ratio = actred / prered
		}

		if ratio < 0.1 {
			ncsuc = 0
			ncfail++
			r.delta *= 0.5
		} else {
			ncfail = 0
			ncsuc++
			if ratio >= 0.5 || ncsuc > 1 {
				r.delta = math.Max(r.delta, 2*pnorm)
			}
			if math.Abs(ratio-1) <= 0.1 {
				r.delta = 2 * pnorm
			}
		}

		floats.SubTo(st.df, st.ft, st.f)
		accepted := ratio >= 1e-4
		if accepted {
			copy(st.x, st.xt)
			copy(st.f, st.ft)
			fnorm = fnorm1
		}

		if actred >= 0.001 {
			nslow1 = 0
		} else {
			nslow1++
		}
		if jeval {
			nslow2++
		}
		if actred >= 0.1 {
			nslow2 = 0
		}
		jeval = false

		res := floats.Norm(st.f, 1)
		s.logger.Debug("root: iterate",
			"solver", s.kind,
			"iter", iter,
			"x", st.x,
			"residual", res,
			"delta", r.delta,
			"accepted", accepted,
		)
		if res < s.params.AbsTol || (accepted && s.deltaConverged(r.p, st.x)) {
			return result(iter), nil
		}
		switch {
		case nslow2 == maxSlowJacobian:
			return result(iter), fmt.Errorf("%w: %d jacobian evaluations without progress", ErrNoProgress, maxSlowJacobian)
		case nslow1 == maxSlow:
			return result(iter), fmt.Errorf("%w: %d iterations without progress", ErrNoProgress, maxSlow)
		}

		if ncfail == 2 {
			st.jacobian()
			r.rescale(st.jac, scaled, false)
			jeval = true
		} else {
			secantUpdate(st.jac, r.p, st.df, r.diag)
		}
	}
	return result(s.params.MaxIter), fmt.Errorf("%w (max_iter=%d)", ErrMaxIterations, s.params.MaxIter)
}
