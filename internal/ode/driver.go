package ode

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sort"
)

const (
	KindRK23   = "rk23"
	KindRK4    = "rk4"
	KindRKF45  = "rkf45"
	KindRKCK45 = "rkck45"
	KindRK45   = "rk45"
)

var steppers = map[string]func() stepper{
	KindRK23:   func() stepper { return newEmbedded(bogackiShampine) },
	KindRK4:    func() stepper { return newRK4() },
	KindRKF45:  func() stepper { return newEmbedded(fehlberg) },
	KindRKCK45: func() stepper { return newEmbedded(cashKarp) },
	KindRK45:   func() stepper { return newEmbedded(dormandPrince) },
}

// Kinds returns the registered stepper names in sorted order.
func Kinds() []string {
	names := make([]string, 0, len(steppers))
	for name := range steppers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

const (
	safety   = 0.9
	minScale = 0.2
	maxScale = 10.0
)

type Option func(*Driver)

func WithParams(p Params) Option {
	return func(d *Driver) { d.params = p }
}

func WithLogger(l *slog.Logger) Option {
	return func(d *Driver) {
		if l != nil {
			d.logger = l
		}
	}
}

// Driver advances a System with adaptive step-size control.
type Driver struct {
	sys    System
	kind   string
	st     stepper
	params Params
	logger *slog.Logger

	h     float64
	stats Stats

	out, errv []float64
}

func NewDriver(sys System, kind string, opts ...Option) (*Driver, error) {
	ctor, ok := steppers[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	d := &Driver{
		sys:    sys,
		kind:   kind,
		st:     ctor(),
		params: DefaultParams(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(d)
	}
	if err := d.params.Validate(); err != nil {
		return nil, err
	}
	n := sys.StateDim()
	d.out = make([]float64, n)
	d.errv = make([]float64, n)
	return d, nil
}

func (d *Driver) Kind() string   { return d.kind }
func (d *Driver) Params() Params { return d.params }
func (d *Driver) Stats() Stats   { return d.stats }

// SetParams replaces the step settings. The current step size is kept unless
// it violates the new bounds.
func (d *Driver) SetParams(p Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	d.params = p
	if d.h != 0 {
		d.h = d.clamp(d.h)
	}
	return nil
}

// Reset forgets the adapted step size and clears Stats.
func (d *Driver) Reset() {
	d.h = 0
	d.stats = Stats{}
}

func (d *Driver) clamp(h float64) float64 {
	if d.params.HMax > 0 && h > d.params.HMax {
		return d.params.HMax
	}
	return h
}

// ratio returns the weighted maximum norm of the error estimate.
func (d *Driver) ratio(y []float64) float64 {
	m := 0.0
	for i, e := range d.errv {
		w := d.params.AbsTol + d.params.RelTol*math.Abs(y[i])
		m = math.Max(m, math.Abs(e)/w)
	}
	return m
}

// Apply advances y in place from *t to t1 and leaves *t at t1 on success.
// Integration runs backwards when t1 < *t. On failure *t and y hold the last
// accepted state.
func (d *Driver) Apply(t *float64, t1 float64, y []float64) error {
	if len(y) != d.sys.StateDim() {
		return fmt.Errorf("%w: state has %d components, system %d", ErrDimensionMismatch, len(y), d.sys.StateDim())
	}
	if *t == t1 {
		return nil
	}
	dir := 1.0
	if t1 < *t {
		dir = -1
	}
	h := d.h
	if h == 0 {
		h = d.params.HStart
	}
	h = d.clamp(h)
	q := float64(d.st.order())

	attempts := 0
	for {
		if attempts >= d.params.MaxSteps {
			return &StepError{Step: d.stats.Steps, Time: *t, H: h, Wrapped: fmt.Errorf("%w (max_steps=%d)", ErrMaxSteps, d.params.MaxSteps)}
		}
		attempts++

		remaining := math.Abs(t1 - *t)
		proposed := h
		last := false
		if h >= remaining {
			h = remaining
			last = true
		}

		d.stats.Evaluations += d.st.step(d.sys, *t, dir*h, y, d.out, d.errv)

		if !finite(d.out) {
			d.stats.Rejected++
			h *= minScale
			if h < d.params.HMin {
				return &StepError{Step: d.stats.Steps, Time: *t, H: h, Wrapped: ErrNonFinite}
			}
			continue
		}

		ratio := d.ratio(y)
		if ratio > 1 {
			d.stats.Rejected++
			h *= math.Max(minScale, safety*math.Pow(ratio, -1/q))
			if h < d.params.HMin {
				return &StepError{Step: d.stats.Steps, Time: *t, H: h, Wrapped: ErrStepTooSmall}
			}
			continue
		}

		copy(y, d.out)
		d.stats.Steps++
		d.stats.LastStep = h
		if last {
			*t = t1
		} else {
			*t += dir * h
		}

		next := h * maxScale
		if ratio > 0 {
			next = h * math.Min(maxScale, safety*math.Pow(ratio, -1/(q+1)))
		}
		if last && proposed > h {
			next = math.Max(next, proposed)
		}
		h = d.clamp(next)

		if last {
			d.h = h
			d.logger.Debug("ode: advanced",
				"kind", d.kind,
				"t", *t,
				"steps", d.stats.Steps,
				"rejected", d.stats.Rejected,
				"h", h,
			)
			return nil
		}
	}
}

// Solve integrates from t0 to t1 and records n equally spaced samples, the
// first at t0 and the last at t1. ctx is checked between samples.
func Solve(ctx context.Context, d *Driver, y0 []float64, t0, t1 float64, n int) (*Trajectory, error) {
	if n < 2 {
		return nil, fmt.Errorf("%w: need at least 2 samples, got %d", ErrInvalidParams, n)
	}
	if len(y0) != d.sys.StateDim() {
		return nil, fmt.Errorf("%w: state has %d components, system %d", ErrDimensionMismatch, len(y0), d.sys.StateDim())
	}

	y := make([]float64, len(y0))
	copy(y, y0)
	traj := &Trajectory{
		Times:  make([]float64, 0, n),
		States: make([][]float64, 0, n),
	}
	record := func(t float64) {
		s := make([]float64, len(y))
		copy(s, y)
		traj.Times = append(traj.Times, t)
		traj.States = append(traj.States, s)
	}

	t := t0
	record(t)
	for i := 1; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return traj, err
		}
		target := t0 + (t1-t0)*float64(i)/float64(n-1)
		if i == n-1 {
			target = t1
		}
		if err := d.Apply(&t, target, y); err != nil {
			return traj, err
		}
		record(t)
	}
	return traj, nil
}
