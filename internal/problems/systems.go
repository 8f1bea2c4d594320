package problems

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/numkit/internal/ode"
)

// Configurable is implemented by systems with named coefficients.
type Configurable interface {
	Params() map[string]float64
	SetParam(name string, value float64) error
}

// VanDerPol is the oscillator x'' = mu (1 - x^2) x' - x with state [x, x'].
type VanDerPol struct {
	Mu float64
}

func (v *VanDerPol) StateDim() int { return 2 }

func (v *VanDerPol) Derive(_ float64, y, dydt []float64) {
	dydt[0] = y[1]
	dydt[1] = v.Mu*(1-y[0]*y[0])*y[1] - y[0]
}

func (v *VanDerPol) Params() map[string]float64 {
	return map[string]float64{"mu": v.Mu}
}

func (v *VanDerPol) SetParam(name string, value float64) error {
	if name != "mu" {
		return fmt.Errorf("%w: %q", ErrUnknownParam, name)
	}
	v.Mu = value
	return nil
}

// Harmonic is x'' = -omega^2 x with state [x, x'].
type Harmonic struct {
	Omega float64
}

func (h *Harmonic) StateDim() int { return 2 }

func (h *Harmonic) Derive(_ float64, y, dydt []float64) {
	dydt[0] = y[1]
	dydt[1] = -h.Omega * h.Omega * y[0]
}

// Energy returns the energy per unit mass.
func (h *Harmonic) Energy(y []float64) float64 {
	return 0.5 * (y[1]*y[1] + h.Omega*h.Omega*y[0]*y[0])
}

func (h *Harmonic) Params() map[string]float64 {
	return map[string]float64{"omega": h.Omega}
}

func (h *Harmonic) SetParam(name string, value float64) error {
	if name != "omega" {
		return fmt.Errorf("%w: %q", ErrUnknownParam, name)
	}
	h.Omega = value
	return nil
}

type Lorenz struct {
	Sigma, Rho, Beta float64
}

func (l *Lorenz) StateDim() int { return 3 }

func (l *Lorenz) Derive(_ float64, y, dydt []float64) {
	dydt[0] = l.Sigma * (y[1] - y[0])
	dydt[1] = y[0]*(l.Rho-y[2]) - y[1]
	dydt[2] = y[0]*y[1] - l.Beta*y[2]
}

func (l *Lorenz) Params() map[string]float64 {
	return map[string]float64{"sigma": l.Sigma, "rho": l.Rho, "beta": l.Beta}
}

func (l *Lorenz) SetParam(name string, value float64) error {
	switch name {
	case "sigma":
		l.Sigma = value
	case "rho":
		l.Rho = value
	case "beta":
		l.Beta = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownParam, name)
	}
	return nil
}

// ODE is an initial value problem over [T0, T1].
type ODE struct {
	Name        string
	Description string
	System      ode.System
	Y0          []float64
	T0, T1      float64
}

var odes = map[string]func() ODE{
	"vanderpol": func() ODE {
		return ODE{
			Name:        "vanderpol",
			Description: "Van der Pol oscillator, mu=10",
			System:      &VanDerPol{Mu: 10},
			Y0:          []float64{1, 0},
			T0:          0,
			T1:          100,
		}
	},
	"harmonic": func() ODE {
		return ODE{
			Name:        "harmonic",
			Description: "unit harmonic oscillator over one period",
			System:      &Harmonic{Omega: 1},
			Y0:          []float64{1, 0},
			T0:          0,
			T1:          2 * math.Pi,
		}
	},
	"lorenz": func() ODE {
		return ODE{
			Name:        "lorenz",
			Description: "Lorenz attractor, sigma=10 rho=28 beta=8/3",
			System:      &Lorenz{Sigma: 10, Rho: 28, Beta: 8.0 / 3.0},
			Y0:          []float64{1, 1, 1},
			T0:          0,
			T1:          25,
		}
	},
}

func LookupODE(name string) (ODE, error) {
	fn, ok := odes[name]
	if !ok {
		return ODE{}, fmt.Errorf("%w: ode %q", ErrUnknownProblem, name)
	}
	return fn(), nil
}

func ODEs() []ODE {
	out := make([]ODE, 0, len(odes))
	for _, fn := range odes {
		out = append(out, fn())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
