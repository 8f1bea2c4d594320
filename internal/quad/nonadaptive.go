package quad

import (
	"fmt"
	"math"
)

var nonAdaptiveOrders = [...]int{10, 21, 43, 87}

// NonAdaptive applies Gauss-Legendre rules of increasing order to the whole
// interval and stops once two successive estimates agree. Limit and Rule are
// ignored.
type NonAdaptive struct {
	params Params
	rules  []*gaussRule
	last   Result
}

func NewNonAdaptive() *NonAdaptive {
	q := &NonAdaptive{rules: make([]*gaussRule, len(nonAdaptiveOrders))}
	for i, n := range nonAdaptiveOrders {
		q.rules[i] = newGaussRule(n)
	}
	if err := q.SetParams(DefaultParams()); err != nil {
		panic(err)
	}
	return q
}

func (q *NonAdaptive) SetParams(p Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	q.params = p
	return nil
}

func (q *NonAdaptive) Params() Params { return q.params }

func (q *NonAdaptive) Last() Result { return q.last }

func (q *NonAdaptive) Integrate(f Func, b Boundary) (float64, error) {
	lower, upper, sign, err := orient(b)
	if err != nil {
		return 0, err
	}
	q.last = Result{Intervals: 1}
	if lower == upper {
		return 0, nil
	}

	prev := math.NaN()
	for i, r := range q.rules {
		if i > 0 && q.last.Evals+r.points() > q.params.MaxEval {
			return sign * prev, fmt.Errorf("%w (max_eval=%d)", ErrMaxEval, q.params.MaxEval)
		}
		v, err := r.apply(f, lower, upper)
		if err != nil {
			return 0, err
		}
		q.last.Evals += r.points()
		if !finite(v) {
			return 0, fmt.Errorf("%w on [%g, %g]", ErrNonFinite, lower, upper)
		}
		if i > 0 {
			q.last.AbsErr = math.Abs(v - prev)
			q.last.Value = sign * v
			if q.last.AbsErr <= q.params.tolerance(v) {
				return q.last.Value, nil
			}
		}
		prev = v
	}
	return q.last.Value, fmt.Errorf("%w: %d-point rule did not converge", ErrMaxEval, nonAdaptiveOrders[len(nonAdaptiveOrders)-1])
}
