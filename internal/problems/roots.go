package problems

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/numkit/internal/root"
)

// RootSystem is a square nonlinear system with a starting guess and the
// root the guess converges to.
type RootSystem struct {
	Name        string
	Description string
	F           root.Func
	Guess       []float64
	Root        []float64
}

// Rosenbrock returns the system a(1-x) = 0, b(y-x^2) = 0.
func Rosenbrock(a, b float64) root.Func {
	return func(f, x []float64) {
		f[0] = a * (1 - x[0])
		f[1] = b * (x[1] - x[0]*x[0])
	}
}

var roots = map[string]func() RootSystem{
	"rosenbrock": func() RootSystem {
		return RootSystem{
			Name:        "rosenbrock",
			Description: "a(1-x) = 0, b(y-x^2) = 0 with a=1, b=10",
			F:           Rosenbrock(1, 10),
			Guess:       []float64{-10, -5},
			Root:        []float64{1, 1},
		}
	},
	"circle": func() RootSystem {
		return RootSystem{
			Name:        "circle",
			Description: "x^2+y^2 = 4 intersected with x = y",
			F: func(f, x []float64) {
				f[0] = x[0]*x[0] + x[1]*x[1] - 4
				f[1] = x[0] - x[1]
			},
			Guess: []float64{1, 0.5},
			Root:  []float64{math.Sqrt2, math.Sqrt2},
		}
	},
}

func LookupRoot(name string) (RootSystem, error) {
	fn, ok := roots[name]
	if !ok {
		return RootSystem{}, fmt.Errorf("%w: root system %q", ErrUnknownProblem, name)
	}
	return fn(), nil
}

func Roots() []RootSystem {
	out := make([]RootSystem, 0, len(roots))
	for _, fn := range roots {
		out = append(out, fn())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
