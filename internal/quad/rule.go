package quad

import (
	gonumquad "gonum.org/v1/gonum/integrate/quad"
	"gonum.org/v1/gonum/floats"
)

// gaussRule holds Gauss-Legendre nodes and weights on [-1, 1] together with
// a scratch buffer for integrand values.
type gaussRule struct {
	x, w []float64
	fx   []float64
}

func newGaussRule(n int) *gaussRule {
	r := &gaussRule{
		x:  make([]float64, n),
		w:  make([]float64, n),
		fx: make([]float64, n),
	}
	gonumquad.Legendre{}.FixedLocations(r.x, r.w, -1, 1)
	return r
}

func (r *gaussRule) points() int { return len(r.x) }

// apply estimates the integral of f over [a, b].
func (r *gaussRule) apply(f Func, a, b float64) (float64, error) {
	c := 0.5 * (a + b)
	h := 0.5 * (b - a)
	for i, x := range r.x {
		v, err := f(c + h*x)
		if err != nil {
			return 0, err
		}
		r.fx[i] = v
	}
	return h * floats.Dot(r.w, r.fx), nil
}
