// Package root solves square systems of nonlinear equations f(x) = 0.
//
// Jacobians are approximated by central finite differences and linear
// steps are solved by LU factorisation. Four solvers are registered:
// plain Newton iteration, Broyden's rank-one quasi-Newton method, and
// Powell's hybrid dogleg method in two flavours. The hybrid kind bounds
// steps in the Euclidean norm, while hybrids scales each variable by the
// column norms of the Jacobian. Both keep the Jacobian current with
// Broyden updates and recompute it only after repeated failed steps.
package root
