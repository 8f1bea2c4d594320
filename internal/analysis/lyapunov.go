package analysis

import (
	"fmt"
	"math"

	"github.com/san-kum/numkit/internal/ode"
)

// LyapunovExponent estimates the largest Lyapunov exponent of sys starting
// from y0. A reference and a perturbed copy are advanced together as one
// system so both see the same step sequence; every dt the separation is
// measured and rescaled back to perturbation.
func LyapunovExponent(sys ode.System, kind string, params ode.Params, y0 []float64, dt, duration, perturbation float64) (float64, error) {
	n := sys.StateDim()
	if len(y0) != n {
		return 0, fmt.Errorf("%w: state has %d components, system %d", ode.ErrDimensionMismatch, len(y0), n)
	}
	if !(dt > 0) || !(duration >= dt) || !(perturbation > 0) {
		return 0, fmt.Errorf("analysis: need 0 < dt <= duration and a positive perturbation")
	}

	pair := ode.Func{Dim: 2 * n, F: func(t float64, y, dydt []float64) {
		sys.Derive(t, y[:n], dydt[:n])
		sys.Derive(t, y[n:], dydt[n:])
	}}
	d, err := ode.NewDriver(pair, kind, ode.WithParams(params))
	if err != nil {
		return 0, err
	}

	y := make([]float64, 2*n)
	copy(y, y0)
	copy(y[n:], y0)
	y[n] += perturbation

	t, sumLog, count := 0.0, 0.0, 0
	for i := 1; float64(i)*dt <= duration; i++ {
		if err := d.Apply(&t, float64(i)*dt, y); err != nil {
			return 0, err
		}

		sep := 0.0
		for j := 0; j < n; j++ {
			diff := y[n+j] - y[j]
			sep += diff * diff
		}
		sep = math.Sqrt(sep)
		if sep == 0 {
			continue
		}
		sumLog += math.Log(sep / perturbation)
		count++

		scale := perturbation / sep
		for j := 0; j < n; j++ {
			y[n+j] = y[j] + (y[n+j]-y[j])*scale
		}
	}

	if count == 0 {
		return 0, nil
	}
	return sumLog / (float64(count) * dt), nil
}
