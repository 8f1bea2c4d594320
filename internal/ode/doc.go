// Package ode advances systems of ordinary differential equations
//
//	dy/dt = f(t, y)
//
// with explicit Runge-Kutta steppers under adaptive step-size control.
//
//   - [KindRK23]: Bogacki-Shampine 3(2)
//   - [KindRK4]: classical fourth order, error estimated by step doubling
//   - [KindRKF45]: Runge-Kutta-Fehlberg 4(5)
//   - [KindRKCK45]: Cash-Karp 4(5)
//   - [KindRK45]: Dormand-Prince 5(4)
//
// # Example
//
//	sys := ode.Func{Dim: 2, F: func(t float64, y, dydt []float64) {
//	    dydt[0] = y[1]
//	    dydt[1] = -y[0]
//	}}
//	d, _ := ode.NewDriver(sys, ode.KindRK45)
//	t, y := 0.0, []float64{1, 0}
//	err := d.Apply(&t, 10, y)
//
// A Driver keeps its step size and scratch buffers between calls and is not
// safe for concurrent use.
package ode
