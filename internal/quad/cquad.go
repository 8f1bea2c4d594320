package quad

import (
	"container/heap"
	"fmt"
	"math"
)

const (
	// cquadGrid is the number of panels of the finest nested rule.
	cquadGrid = 64
	// cquadLevels counts the nested rules, with 3, 7, 15, 31 and 63 nodes.
	cquadLevels = 5
	// cquadIntervals bounds the interval workspace.
	cquadIntervals = 100
	// cquadStall is the error ratio above which raising the degree of an
	// interval is abandoned in favor of bisecting it.
	cquadStall = 0.25
)

// fejer holds the weights of Fejér's second rule on [-1, 1] for every
// level, indexed by node position on the finest grid.
type fejer struct {
	x [cquadGrid - 1]float64
	w [cquadLevels][]float64
}

func newFejer() *fejer {
	r := &fejer{}
	for m := 1; m < cquadGrid; m++ {
		r.x[m-1] = math.Cos(float64(m) * math.Pi / cquadGrid)
	}
	for l := range r.w {
		n := panels(l)
		w := make([]float64, n-1)
		for k := 1; k < n; k++ {
			theta := float64(k) * math.Pi / float64(n)
			s := 0.0
			for j := 1; j <= n/2; j++ {
				s += math.Sin(float64(2*j-1)*theta) / float64(2*j-1)
			}
			w[k-1] = 4 * math.Sin(theta) * s / float64(n)
		}
		r.w[l] = w
	}
	return r
}

func panels(level int) int { return 4 << level }

func stride(level int) int { return cquadGrid / panels(level) }

type cell struct {
	a, b    float64
	level   int
	value   float64
	err     float64
	stalled bool
	fx      [cquadGrid - 1]float64
}

type cellHeap []*cell

func (h cellHeap) Len() int           { return len(h) }
func (h cellHeap) Less(i, j int) bool { return h[i].err > h[j].err }
func (h cellHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *cellHeap) Push(x any) { *h = append(*h, x.(*cell)) }

func (h *cellHeap) Pop() any {
	old := *h
	n := len(old)
	c := old[n-1]
	*h = old[:n-1]
	return c
}

// DoublyAdaptive refines each subinterval by raising the degree of a nested
// open Clenshaw-Curtis rule (Fejér's second rule) and bisects intervals
// where raising the degree stops paying off. Only the tolerances and
// MaxEval apply; Limit and Rule are ignored and the workspace holds at most
// 100 intervals.
type DoublyAdaptive struct {
	params Params
	rule   *fejer
	work   cellHeap
	pool   []*cell
	last   Result
}

func NewDoublyAdaptive() *DoublyAdaptive {
	q := &DoublyAdaptive{
		rule: newFejer(),
		work: make(cellHeap, 0, cquadIntervals),
	}
	if err := q.SetParams(DefaultParams()); err != nil {
		panic(err)
	}
	return q
}

func (q *DoublyAdaptive) SetParams(p Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	q.params = p
	return nil
}

func (q *DoublyAdaptive) Params() Params { return q.params }

func (q *DoublyAdaptive) Last() Result { return q.last }

func (q *DoublyAdaptive) alloc(a, b float64) *cell {
	var c *cell
	if n := len(q.pool); n > 0 {
		c, q.pool = q.pool[n-1], q.pool[:n-1]
	} else {
		c = &cell{}
	}
	*c = cell{a: a, b: b}
	return c
}

// sample evaluates f at the nodes first introduced by level.
func (q *DoublyAdaptive) sample(f Func, c *cell, level int) error {
	mid := 0.5 * (c.a + c.b)
	half := 0.5 * (c.b - c.a)
	s := stride(level)
	for m := s; m < cquadGrid; m += s {
		if level > 0 && m%(2*s) == 0 {
			continue
		}
		v, err := f(mid + half*q.rule.x[m-1])
		if err != nil {
			return err
		}
		q.last.Evals++
		if !finite(v) {
			return fmt.Errorf("%w on [%g, %g]", ErrNonFinite, c.a, c.b)
		}
		c.fx[m-1] = v
	}
	return nil
}

func (q *DoublyAdaptive) estimate(c *cell, level int) float64 {
	s := stride(level)
	sum := 0.0
	for k, w := range q.rule.w[level] {
		sum += w * c.fx[(k+1)*s-1]
	}
	return 0.5 * (c.b - c.a) * sum
}

// open evaluates a fresh interval at the two coarsest levels.
func (q *DoublyAdaptive) open(f Func, a, b float64) (*cell, error) {
	c := q.alloc(a, b)
	if err := q.sample(f, c, 0); err != nil {
		return nil, err
	}
	if err := q.sample(f, c, 1); err != nil {
		return nil, err
	}
	coarse := q.estimate(c, 0)
	c.level = 1
	c.value = q.estimate(c, 1)
	c.err = math.Abs(c.value - coarse)
	return c, nil
}

// raise moves c one level up, reusing the nodes of the lower levels.
func (q *DoublyAdaptive) raise(f Func, c *cell) error {
	if err := q.sample(f, c, c.level+1); err != nil {
		return err
	}
	prev, prevErr := c.value, c.err
	c.level++
	c.value = q.estimate(c, c.level)
	c.err = math.Abs(c.value - prev)
	c.stalled = c.err > cquadStall*prevErr
	return nil
}

func (q *DoublyAdaptive) openCost() int { return panels(1) - 1 }

func (q *DoublyAdaptive) Integrate(f Func, b Boundary) (float64, error) {
	lower, upper, sign, err := orient(b)
	if err != nil {
		return 0, err
	}
	q.last = Result{}
	for _, c := range q.work {
		q.pool = append(q.pool, c)
	}
	q.work = q.work[:0]
	if lower == upper {
		return 0, nil
	}

	first, err := q.open(f, lower, upper)
	if err != nil {
		return 0, err
	}
	heap.Push(&q.work, first)
	total, errSum := first.value, first.err

	var failure error
	for errSum > q.params.tolerance(total) {
		worst := q.work[0]
		if worst.level < cquadLevels-1 && !worst.stalled {
			if q.last.Evals+panels(worst.level) > q.params.MaxEval {
				failure = fmt.Errorf("%w (max_eval=%d)", ErrMaxEval, q.params.MaxEval)
				break
			}
			value, e := worst.value, worst.err
			if err := q.raise(f, worst); err != nil {
				return 0, err
			}
			heap.Fix(&q.work, 0)
			total += worst.value - value
			errSum += worst.err - e
			continue
		}

		if len(q.work) >= cquadIntervals {
			failure = fmt.Errorf("%w (workspace=%d)", ErrMaxSubdivisions, cquadIntervals)
			break
		}
		if q.last.Evals+2*q.openCost() > q.params.MaxEval {
			failure = fmt.Errorf("%w (max_eval=%d)", ErrMaxEval, q.params.MaxEval)
			break
		}
		mid := worst.a + 0.5*(worst.b-worst.a)
		if mid <= worst.a || mid >= worst.b {
			failure = fmt.Errorf("%w at %g", ErrRoundoff, worst.a)
			break
		}

		heap.Pop(&q.work)
		left, err := q.open(f, worst.a, mid)
		if err != nil {
			return 0, err
		}
		right, err := q.open(f, mid, worst.b)
		if err != nil {
			return 0, err
		}
		heap.Push(&q.work, left)
		heap.Push(&q.work, right)
		total += left.value + right.value - worst.value
		errSum += left.err + right.err - worst.err
		q.pool = append(q.pool, worst)
	}

	q.last.Value = sign * total
	q.last.AbsErr = errSum
	q.last.Intervals = len(q.work)
	return q.last.Value, failure
}
