// Package quad provides scalar definite-integral engines.
//
// An [Engine] integrates a one-argument function over a single [Boundary]
// subject to the tolerances and budgets in [Params]:
//
//   - [Adaptive]: globally adaptive bisection driven by a pair of
//     Gauss-Legendre rules (kind "qag", the default)
//   - [NonAdaptive]: a fixed sequence of increasing-order Gauss-Legendre
//     rules over the whole interval (kind "qng")
//   - [DoublyAdaptive]: nested open Clenshaw-Curtis rules whose degree is
//     raised per subinterval before bisecting (kind "cquad")
//
// Gauss-Legendre nodes and weights come from gonum's integrate/quad
// package. The Clenshaw-Curtis weights are computed here.
//
// # Example
//
//	e := quad.NewAdaptive()
//	v, err := e.Integrate(quad.Pure(math.Sin), quad.Boundary{Lower: 0, Upper: math.Pi})
//
// # Thread Safety
//
// Engines own a reusable workspace and are NOT safe for concurrent or
// reentrant use. Give every goroutine, and every nesting level, its own
// engine.
package quad
