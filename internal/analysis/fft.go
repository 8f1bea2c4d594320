package analysis

import (
	"errors"
	"fmt"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

var ErrTooShort = errors.New("analysis: signal too short")

// PowerSpectrum returns |X_k|^2 / n for k = 0..n/2 of the discrete Fourier
// transform of data.
func PowerSpectrum(data []float64) []float64 {
	n := len(data)
	if n == 0 {
		return nil
	}
	coeffs := fft.FFTReal(data)
	ps := make([]float64, n/2+1)
	for i := range ps {
		a := cmplx.Abs(coeffs[i])
		ps[i] = a * a / float64(n)
	}
	return ps
}

// DominantFrequency returns the frequency, in cycles per unit time, of the
// largest spectral peak of data sampled every dt. The mean is removed first
// so the zero-frequency bin never wins.
func DominantFrequency(data []float64, dt float64) (float64, error) {
	n := len(data)
	if n < 4 {
		return 0, fmt.Errorf("%w: %d samples", ErrTooShort, n)
	}
	if !(dt > 0) {
		return 0, fmt.Errorf("analysis: sample interval must be positive, got %g", dt)
	}

	mean := 0.0
	for _, v := range data {
		mean += v
	}
	mean /= float64(n)
	centred := make([]float64, n)
	for i, v := range data {
		centred[i] = v - mean
	}

	ps := PowerSpectrum(centred)
	best := 1
	for k := 2; k < len(ps); k++ {
		if ps[k] > ps[best] {
			best = k
		}
	}
	return float64(best) / (float64(n) * dt), nil
}
