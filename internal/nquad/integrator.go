package nquad

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/san-kum/numkit/internal/quad"
)

type Integrator struct {
	bank   *Bank
	logger *slog.Logger
	busy   atomic.Bool
	evals  int
}

type Option func(*options)

type options struct {
	factory func() quad.Engine
	logger  *slog.Logger
}

// WithEngine sets the constructor used for every bank element.
func WithEngine(factory func() quad.Engine) Option {
	return func(o *options) { o.factory = factory }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New returns an Integrator over dim dimensions backed by default-configured
// adaptive engines. It panics if dim < 1.
func New(dim int, opts ...Option) *Integrator {
	o := options{
		factory: func() quad.Engine { return quad.NewAdaptive() },
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Integrator{
		bank:   NewBank(dim, o.factory),
		logger: o.logger,
	}
}

func (in *Integrator) Dimension() int { return in.bank.Len() }

func (in *Integrator) Bank() *Bank { return in.bank }

// Evaluations returns the number of integrand calls made by the most recent
// Integrate.
func (in *Integrator) Evaluations() int { return in.evals }

// SetParams applies p to every engine in ascending index order. It is
// all-or-nothing: p is validated first, and if an engine still rejects it
// the engines configured so far are restored.
func (in *Integrator) SetParams(p quad.Params) error {
	if err := p.Validate(); err != nil {
		return err
	}

	previous := make([]quad.Params, 0, in.bank.Len())
	var failure error
	for i := 0; i < in.bank.Len(); i++ {
		in.bank.ApplyAt(i, func(e quad.Engine) {
			before := e.Params()
			if err := e.SetParams(p); err != nil {
				failure = fmt.Errorf("engine %d: %w", i, err)
				return
			}
			previous = append(previous, before)
		})
		if failure != nil {
			break
		}
	}
	if failure == nil {
		return nil
	}

	for i, before := range previous {
		in.bank.ApplyAt(i, func(e quad.Engine) {
			// before was accepted by this engine once already.
			_ = e.SetParams(before)
		})
	}
	return failure
}

// SetParamsAt configures only the engine reducing dimension i.
func (in *Integrator) SetParamsAt(i int, p quad.Params) error {
	var err error
	in.bank.ApplyAt(i, func(e quad.Engine) { err = e.SetParams(p) })
	return err
}

// Integrate returns the integral of fn over box. A nil fn returns
// ErrDimensionMismatch; a nil function held in a Func1, Func2, Func3 or FuncN
// panics on first evaluation.
func (in *Integrator) Integrate(fn Integrand, box Box) (float64, error) {
	dim := in.bank.Len()
	if fn == nil {
		return 0, fmt.Errorf("%w: nil integrand", ErrDimensionMismatch)
	}
	if len(box) != dim {
		return 0, fmt.Errorf("%w: box has %d axes, integrator has %d", ErrDimensionMismatch, len(box), dim)
	}
	if fn.Arity() != dim {
		return 0, fmt.Errorf("%w: integrand takes %d arguments, integrator has %d", ErrDimensionMismatch, fn.Arity(), dim)
	}
	if !in.busy.CompareAndSwap(false, true) {
		return 0, ErrBusy
	}
	defer in.busy.Store(false)

	r := &reduction{
		fn:    fn,
		box:   box,
		bank:  in.bank,
		point: make([]float64, 0, dim),
	}
	v, err := r.integrate(0, r.point)
	in.evals = r.evals
	if err != nil {
		return 0, err
	}

	in.logger.Debug("nquad: integrated",
		"dim", dim,
		"value", v,
		"evals", r.evals,
	)
	return v, nil
}

// reduction is the state of one Integrate call.
type reduction struct {
	fn    Integrand
	box   Box
	bank  *Bank
	point []float64
	evals int
}

// integrate reduces dimension d with fixed holding x_0..x_{d-1}. fixed is a
// prefix of r.point, so appending x_d reuses the call-scoped buffer.
func (r *reduction) integrate(d int, fixed []float64) (float64, error) {
	last := d == len(r.box)-1

	integrand := func(x float64) (float64, error) {
		if last {
			r.evals++
			return r.fn.Eval(append(fixed, x)), nil
		}
		return r.integrate(d+1, append(fixed, x))
	}

	v, err := r.bank.At(d).Integrate(integrand, r.box[d])
	if err != nil {
		var re *ReductionError
		if errors.As(err, &re) {
			return 0, err
		}
		return 0, &ReductionError{
			Level: d + 1,
			Fixed: append([]float64(nil), fixed...),
			Err:   err,
		}
	}
	return v, nil
}
