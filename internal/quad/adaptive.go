package quad

import (
	"container/heap"
	"fmt"
	"math"
)

type segment struct {
	a, b  float64
	value float64
	err   float64
}

// segmentHeap is a max-heap on the error estimate.
type segmentHeap []segment

func (h segmentHeap) Len() int           { return len(h) }
func (h segmentHeap) Less(i, j int) bool { return h[i].err > h[j].err }
func (h segmentHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *segmentHeap) Push(x any) { *h = append(*h, x.(segment)) }

func (h *segmentHeap) Pop() any {
	old := *h
	n := len(old)
	s := old[n-1]
	*h = old[:n-1]
	return s
}

// Adaptive bisects the subinterval with the largest error estimate until the
// summed estimate meets the configured tolerance.
type Adaptive struct {
	params Params
	hi, lo *gaussRule
	work   segmentHeap
	last   Result
}

func NewAdaptive() *Adaptive {
	a := &Adaptive{}
	if err := a.SetParams(DefaultParams()); err != nil {
		panic(err)
	}
	return a
}

func (q *Adaptive) SetParams(p Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if q.hi == nil || q.hi.points() != p.Rule.Points() {
		q.hi = newGaussRule(p.Rule.Points())
		q.lo = newGaussRule(p.Rule.Points() / 2)
	}
	if cap(q.work) < p.Limit {
		q.work = make(segmentHeap, 0, p.Limit)
	}
	q.params = p
	return nil
}

func (q *Adaptive) Params() Params { return q.params }

func (q *Adaptive) Last() Result { return q.last }

func (q *Adaptive) cost() int { return q.hi.points() + q.lo.points() }

func (q *Adaptive) evaluate(f Func, a, b float64) (segment, error) {
	hi, err := q.hi.apply(f, a, b)
	if err != nil {
		return segment{}, err
	}
	lo, err := q.lo.apply(f, a, b)
	if err != nil {
		return segment{}, err
	}
	q.last.Evals += q.cost()
	if !finite(hi) || !finite(lo) {
		return segment{}, fmt.Errorf("%w on [%g, %g]", ErrNonFinite, a, b)
	}
	return segment{a: a, b: b, value: hi, err: math.Abs(hi - lo)}, nil
}

func (q *Adaptive) Integrate(f Func, b Boundary) (float64, error) {
	lower, upper, sign, err := orient(b)
	if err != nil {
		return 0, err
	}
	q.last = Result{}
	if lower == upper {
		return 0, nil
	}

	first, err := q.evaluate(f, lower, upper)
	if err != nil {
		return 0, err
	}
	q.work = q.work[:0]
	heap.Push(&q.work, first)
	total, errSum := first.value, first.err

	var failure error
	for errSum > q.params.tolerance(total) {
		if len(q.work) >= q.params.Limit {
			failure = fmt.Errorf("%w (limit=%d)", ErrMaxSubdivisions, q.params.Limit)
			break
		}
		if q.last.Evals+2*q.cost() > q.params.MaxEval {
			failure = fmt.Errorf("%w (max_eval=%d)", ErrMaxEval, q.params.MaxEval)
			break
		}

		worst := heap.Pop(&q.work).(segment)
		mid := worst.a + 0.5*(worst.b-worst.a)
		if mid <= worst.a || mid >= worst.b {
			heap.Push(&q.work, worst)
			failure = fmt.Errorf("%w at %g", ErrRoundoff, worst.a)
			break
		}

		left, err := q.evaluate(f, worst.a, mid)
		if err != nil {
			return 0, err
		}
		right, err := q.evaluate(f, mid, worst.b)
		if err != nil {
			return 0, err
		}
		heap.Push(&q.work, left)
		heap.Push(&q.work, right)

		total += left.value + right.value - worst.value
		errSum += left.err + right.err - worst.err
	}

	q.last.Value = sign * total
	q.last.AbsErr = errSum
	q.last.Intervals = len(q.work)
	return q.last.Value, failure
}
