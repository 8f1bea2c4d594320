// Package nquad integrates functions of several variables over box domains
// by nesting one-dimensional quadratures.
//
// An [Integrator] owns a [Bank] of scalar engines, one per dimension. To
// integrate f(x_1, ..., x_n) it integrates over x_1 a function that, at every
// sample point, integrates over x_2 a function that ... eventually evaluates
// f at the fully fixed point. Engine i always reduces dimension i.
//
// # Example
//
//	in := nquad.New(3)
//	box := nquad.Box{{Lower: 0, Upper: 1}, {Lower: 0, Upper: math.Pi}, {Lower: 0, Upper: 2 * math.Pi}}
//	jac := nquad.Func3(func(r, theta, _ float64) float64 { return r * r * math.Sin(theta) })
//	vol, err := in.Integrate(jac, box) // 4π/3
//
// # Error Control
//
// Each nested integration uses the tolerance of its own engine and treats
// inner results as exact point values. The global error is therefore not
// bounded analytically; it grows with the number of dimensions.
//
// # Thread Safety
//
// An Integrator is NOT safe for concurrent use, and its integrand must not
// call back into the same Integrator. Both misuses are reported as
// [ErrBusy]. Distinct Integrators share no state.
package nquad
