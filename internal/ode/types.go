package ode

import (
	"fmt"
	"math"
)

// System is a first-order ODE system. Derive writes f(t, y) into dydt and
// must not retain either slice.
type System interface {
	StateDim() int
	Derive(t float64, y, dydt []float64)
}

// Func adapts a closure to a System.
type Func struct {
	Dim int
	F   func(t float64, y, dydt []float64)
}

func (f Func) StateDim() int                       { return f.Dim }
func (f Func) Derive(t float64, y, dydt []float64) { f.F(t, y, dydt) }

type Params struct {
	HStart   float64 `yaml:"h_start" json:"h_start"`
	AbsTol   float64 `yaml:"abs_tol" json:"abs_tol"`
	RelTol   float64 `yaml:"rel_tol" json:"rel_tol"`
	HMin     float64 `yaml:"h_min" json:"h_min"`
	HMax     float64 `yaml:"h_max" json:"h_max"` // 0 means unbounded
	MaxSteps int     `yaml:"max_steps" json:"max_steps"`
}

func DefaultParams() Params {
	return Params{
		HStart:   1e-6,
		AbsTol:   1e-6,
		RelTol:   1e-12,
		HMin:     1e-12,
		MaxSteps: 1_000_000,
	}
}

func (p Params) Validate() error {
	switch {
	case !(p.HStart > 0):
		return fmt.Errorf("%w: h_start must be positive, got %g", ErrInvalidParams, p.HStart)
	case p.AbsTol < 0 || p.RelTol < 0 || math.IsNaN(p.AbsTol) || math.IsNaN(p.RelTol):
		return fmt.Errorf("%w: tolerances must be non-negative", ErrInvalidParams)
	case p.AbsTol == 0 && p.RelTol == 0:
		return fmt.Errorf("%w: absolute and relative tolerance are both zero", ErrInvalidParams)
	case p.HMin < 0:
		return fmt.Errorf("%w: h_min must be non-negative, got %g", ErrInvalidParams, p.HMin)
	case p.HMax < 0 || (p.HMax > 0 && p.HMax < p.HMin):
		return fmt.Errorf("%w: h_max %g is below h_min %g", ErrInvalidParams, p.HMax, p.HMin)
	case p.MaxSteps < 1:
		return fmt.Errorf("%w: max_steps must be positive, got %d", ErrInvalidParams, p.MaxSteps)
	}
	return nil
}

type Stats struct {
	Steps       int
	Rejected    int
	Evaluations int
	LastStep    float64
}

// Trajectory holds sampled solution values.
type Trajectory struct {
	Times  []float64
	States [][]float64
}

func finite(y []float64) bool {
	for _, v := range y {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
