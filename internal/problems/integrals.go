package problems

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/numkit/internal/nquad"
)

// Integral is an integrand over a box together with its exact value.
type Integral struct {
	Name        string
	Description string
	Box         nquad.Box
	F           nquad.Integrand
	Value       float64
}

func (p Integral) Dim() int { return len(p.Box) }

func Cube() Integral {
	return Integral{
		Name:        "cube",
		Description: "volume of the unit cube",
		Box:         nquad.Cube(3, 0, 1),
		F:           nquad.Func3(func(x, y, z float64) float64 { return 1 }),
		Value:       1,
	}
}

// Sphere integrates the spherical volume element r^2 sin(theta) over the
// unit ball.
func Sphere() Integral {
	return Integral{
		Name:        "sphere",
		Description: "volume of the unit ball in spherical coordinates",
		Box: nquad.Box{
			{Lower: 0, Upper: 1},
			{Lower: 0, Upper: math.Pi},
			{Lower: 0, Upper: 2 * math.Pi},
		},
		F: nquad.Func3(func(r, theta, phi float64) float64 {
			return r * r * math.Sin(theta)
		}),
		Value: 4 * math.Pi / 3,
	}
}

func Gaussian() Integral {
	erf3 := math.Erf(3)
	return Integral{
		Name:        "gaussian",
		Description: "exp(-x^2-y^2) over [-3, 3]^2",
		Box:         nquad.Cube(2, -3, 3),
		F: nquad.Func2(func(x, y float64) float64 {
			return math.Exp(-x*x - y*y)
		}),
		Value: math.Pi * erf3 * erf3,
	}
}

func Separable() Integral {
	return Integral{
		Name:        "separable",
		Description: "x cos(y) exp(z) over [0, 1] x [0, pi/2] x [0, 1]",
		Box: nquad.Box{
			{Lower: 0, Upper: 1},
			{Lower: 0, Upper: math.Pi / 2},
			{Lower: 0, Upper: 1},
		},
		F: nquad.Func3(func(x, y, z float64) float64 {
			return x * math.Cos(y) * math.Exp(z)
		}),
		Value: 0.5 * (math.E - 1),
	}
}

var integrals = map[string]func() Integral{
	"cube":      Cube,
	"sphere":    Sphere,
	"gaussian":  Gaussian,
	"separable": Separable,
}

func LookupIntegral(name string) (Integral, error) {
	fn, ok := integrals[name]
	if !ok {
		return Integral{}, fmt.Errorf("%w: integral %q", ErrUnknownProblem, name)
	}
	return fn(), nil
}

// Integrals returns every catalogued integral ordered by name.
func Integrals() []Integral {
	out := make([]Integral, 0, len(integrals))
	for _, fn := range integrals {
		out = append(out, fn())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
