package analysis

import (
	"math"

	"github.com/san-kum/numkit/internal/ode"
)

// Hamiltonian is a system with a conserved energy.
type Hamiltonian interface {
	Energy(y []float64) float64
}

// EnergyDrift returns the largest relative deviation of the energy along
// traj from its value at the first sample. A zero initial energy yields
// the absolute deviation instead.
func EnergyDrift(h Hamiltonian, traj *ode.Trajectory) float64 {
	if traj == nil || len(traj.States) == 0 {
		return 0
	}
	e0 := h.Energy(traj.States[0])
	scale := math.Abs(e0)
	if scale == 0 {
		scale = 1
	}
	drift := 0.0
	for _, y := range traj.States[1:] {
		drift = math.Max(drift, math.Abs(h.Energy(y)-e0)/scale)
	}
	return drift
}

// Stability is the fraction of samples whose components all stay within
// threshold in absolute value.
func Stability(traj *ode.Trajectory, threshold float64) float64 {
	if traj == nil || len(traj.States) == 0 {
		return 1
	}
	within := 0
	for _, y := range traj.States {
		ok := true
		for _, v := range y {
			if math.Abs(v) > threshold {
				ok = false
				break
			}
		}
		if ok {
			within++
		}
	}
	return float64(within) / float64(len(traj.States))
}
