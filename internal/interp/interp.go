package interp

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	gonuminterp "gonum.org/v1/gonum/interp"

	"github.com/san-kum/numkit/internal/quad"
)

const (
	KindLinear   = "linear"
	KindConstant = "constant"
	KindAkima    = "akima"
	KindSteffen  = "steffen"
	KindCSpline  = "cspline"
	KindNotAKnot = "notaknot"
)

// snap is the distance from an endpoint within which a point is treated as
// lying on it.
const snap = 1e-12

type fitter interface {
	Fit(xs, ys []float64) error
	Predict(x float64) float64
}

type derivative interface {
	PredictDerivative(x float64) float64
}

type kindInfo struct {
	min        int
	derivative bool
	build      func() fitter
}

var kinds = map[string]kindInfo{
	KindLinear:   {2, true, func() fitter { return &piecewiseLinear{} }},
	KindConstant: {2, false, func() fitter { return &gonuminterp.PiecewiseConstant{} }},
	KindAkima:    {5, true, func() fitter { return &gonuminterp.AkimaSpline{} }},
	KindSteffen:  {3, true, func() fitter { return &gonuminterp.FritschButland{} }},
	KindCSpline:  {3, true, func() fitter { return &gonuminterp.NaturalCubic{} }},
	KindNotAKnot: {4, true, func() fitter { return &gonuminterp.NotAKnotCubic{} }},
}

// piecewiseLinear adds the segment slope gonum's linear fitter lacks.
type piecewiseLinear struct {
	gonuminterp.PiecewiseLinear
	xs, ys []float64
}

func (pl *piecewiseLinear) Fit(xs, ys []float64) error {
	if err := pl.PiecewiseLinear.Fit(xs, ys); err != nil {
		return err
	}
	pl.xs, pl.ys = xs, ys
	return nil
}

// PredictDerivative returns the slope of the segment [xs[i], xs[i+1]) holding
// x. The last knot belongs to the final segment.
func (pl *piecewiseLinear) PredictDerivative(x float64) float64 {
	i := sort.SearchFloat64s(pl.xs, x)
	if i == len(pl.xs) || pl.xs[i] != x {
		i--
	}
	i = max(0, min(i, len(pl.xs)-2))
	return (pl.ys[i+1] - pl.ys[i]) / (pl.xs[i+1] - pl.xs[i])
}

func Kinds() []string {
	names := make([]string, 0, len(kinds))
	for name := range kinds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MinPoints returns the smallest data set kind accepts, or 0 for an unknown
// kind.
func MinPoints(kind string) int {
	return kinds[kind].min
}

// Interpolator is a fitted interpolant. It is safe for concurrent reads
// except for Integral, which reuses an internal engine.
type Interpolator struct {
	kind   string
	info   kindInfo
	xs, ys []float64
	fit    fitter
	engine *quad.Adaptive
}

// New validates and copies the data and fits an interpolant of the given kind.
func New(kind string, xs, ys []float64) (*Interpolator, error) {
	info, ok := kinds[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("%w: %d abscissae, %d values", ErrLengthMismatch, len(xs), len(ys))
	}
	if len(xs) < info.min {
		return nil, fmt.Errorf("%w: %s needs %d, got %d", ErrTooFewPoints, kind, info.min, len(xs))
	}
	for i := range xs {
		if math.IsNaN(xs[i]) || math.IsInf(xs[i], 0) || math.IsNaN(ys[i]) || math.IsInf(ys[i], 0) {
			return nil, fmt.Errorf("%w at index %d", ErrNonFinite, i)
		}
		if i > 0 && xs[i] <= xs[i-1] {
			return nil, fmt.Errorf("%w: xs[%d]=%g, xs[%d]=%g", ErrNotIncreasing, i-1, xs[i-1], i, xs[i])
		}
	}

	ip := &Interpolator{
		kind: kind,
		info: info,
		xs:   append([]float64(nil), xs...),
		ys:   append([]float64(nil), ys...),
		fit:  info.build(),
	}
	if err := ip.fit.Fit(ip.xs, ip.ys); err != nil {
		return nil, fmt.Errorf("interp: fit %s: %w", kind, err)
	}
	return ip, nil
}

func (ip *Interpolator) Kind() string { return ip.kind }

// Domain returns the first and last abscissa.
func (ip *Interpolator) Domain() (lo, hi float64) {
	return ip.xs[0], ip.xs[len(ip.xs)-1]
}

func (ip *Interpolator) locate(x float64) (float64, error) {
	lo, hi := ip.Domain()
	switch {
	case x >= lo && x <= hi:
		return x, nil
	case math.Abs(x-lo) <= snap:
		return lo, nil
	case math.Abs(x-hi) <= snap:
		return hi, nil
	}
	return 0, fmt.Errorf("%w: x=%g outside [%g, %g]", ErrOutOfDomain, x, lo, hi)
}

func (ip *Interpolator) At(x float64) (float64, error) {
	x, err := ip.locate(x)
	if err != nil {
		return 0, err
	}
	return ip.fit.Predict(x), nil
}

// Interpolate evaluates the interpolant at every point of xs. Nothing is
// written to out unless all points lie in the domain.
func (ip *Interpolator) Interpolate(xs, out []float64) error {
	if len(xs) != len(out) {
		return fmt.Errorf("%w: %d points, %d outputs", ErrLengthMismatch, len(xs), len(out))
	}
	for _, x := range xs {
		if _, err := ip.locate(x); err != nil {
			return err
		}
	}
	for i, x := range xs {
		x, _ = ip.locate(x)
		out[i] = ip.fit.Predict(x)
	}
	return nil
}

func (ip *Interpolator) Derivative(x float64) (float64, error) {
	d, ok := ip.fit.(derivative)
	if !ip.info.derivative || !ok {
		return 0, fmt.Errorf("%w: derivative of %s", ErrUnsupported, ip.kind)
	}
	x, err := ip.locate(x)
	if err != nil {
		return 0, err
	}
	return d.PredictDerivative(x), nil
}

// Integral integrates the interpolant over [a, b], one data interval at a
// time. Reversed bounds give the negated value.
func (ip *Interpolator) Integral(a, b float64) (float64, error) {
	a, err := ip.locate(a)
	if err != nil {
		return 0, err
	}
	b, err = ip.locate(b)
	if err != nil {
		return 0, err
	}
	sign := 1.0
	if a > b {
		a, b, sign = b, a, -1
	}
	if a == b {
		return 0, nil
	}

	if ip.engine == nil {
		ip.engine = quad.NewAdaptive()
		p := quad.DefaultParams()
		p.AbsTol, p.RelTol, p.Rule = 1e-12, 1e-10, quad.Rule15
		if err := ip.engine.SetParams(p); err != nil {
			return 0, err
		}
	}
	f := quad.Pure(ip.fit.Predict)

	// Pieces are polynomials between knots, so integrate them separately.
	start := sort.SearchFloat64s(ip.xs, a)
	total, lo := 0.0, a
	for i := start; i <= len(ip.xs); i++ {
		hi := b
		if i < len(ip.xs) && ip.xs[i] < b {
			hi = ip.xs[i]
		}
		if hi > lo {
			v, err := ip.engine.Integrate(f, quad.Boundary{Lower: lo, Upper: hi})
			if err != nil {
				return 0, fmt.Errorf("interp: integral over [%g, %g]: %w", lo, hi, err)
			}
			total += v
			lo = hi
		}
		if hi == b {
			break
		}
	}
	return sign * total, nil
}

// Linspace returns n evenly spaced values over [start, stop]. The final
// value is stop when endpoint is set.
func Linspace(start, stop float64, n int, endpoint bool) []float64 {
	switch {
	case n <= 0:
		return []float64{}
	case n == 1:
		return []float64{start}
	}
	if endpoint {
		return floats.Span(make([]float64, n), start, stop)
	}
	return floats.Span(make([]float64, n+1), start, stop)[:n]
}
