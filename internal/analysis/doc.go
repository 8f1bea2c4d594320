// Package analysis characterises sampled trajectories.
//
//   - [PowerSpectrum]: discrete power spectrum of a uniformly sampled signal
//   - [DominantFrequency]: strongest non-zero frequency of a signal
//   - [LyapunovExponent]: largest Lyapunov exponent by trajectory separation
//
// # Chaos Detection
//
// A positive largest Lyapunov exponent indicates chaotic dynamics:
//
//	lambda, err := analysis.LyapunovExponent(sys, ode.KindRK45, params, y0, 0.1, 100, 1e-8)
//	if err == nil && lambda > 0 {
//	    // System is chaotic
//	}
package analysis
