// Package problems is a catalogue of named test problems with known
// answers: multidimensional integrals with closed forms, ODE systems and
// nonlinear root systems.
//
//   - Integrals: cube, gaussian, separable, sphere
//   - ODE systems: harmonic, lorenz, vanderpol
//   - Root systems: circle, rosenbrock
//
// ODE systems expose their coefficients through [Configurable] so callers
// can adjust them by name:
//
//	p, _ := problems.LookupODE("vanderpol")
//	if c, ok := p.System.(problems.Configurable); ok {
//	    _ = c.SetParam("mu", 2)
//	}
package problems
