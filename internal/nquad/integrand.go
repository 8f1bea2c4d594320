package nquad

import "github.com/san-kum/numkit/internal/quad"

// Integrand is a real function with a declared number of arguments.
// Eval must not retain x.
type Integrand interface {
	Arity() int
	Eval(x []float64) float64
}

// Func1 is an integrand of one argument.
type Func1 func(x float64) float64

func (f Func1) Arity() int               { return 1 }
func (f Func1) Eval(x []float64) float64 { return f(x[0]) }

// Func2 is an integrand of two arguments.
type Func2 func(x, y float64) float64

func (f Func2) Arity() int               { return 2 }
func (f Func2) Eval(x []float64) float64 { return f(x[0], x[1]) }

// Func3 is an integrand of three arguments.
type Func3 func(x, y, z float64) float64

func (f Func3) Arity() int               { return 3 }
func (f Func3) Eval(x []float64) float64 { return f(x[0], x[1], x[2]) }

// FuncN is an integrand of N arguments passed as a slice.
type FuncN struct {
	N int
	F func(x []float64) float64
}

func (f FuncN) Arity() int               { return f.N }
func (f FuncN) Eval(x []float64) float64 { return f.F(x) }

// Box is an ordered sequence of boundaries, one per integration variable.
type Box []quad.Boundary

// Cube returns the box [lo, hi]^dim.
func Cube(dim int, lo, hi float64) Box {
	b := make(Box, dim)
	for i := range b {
		b[i] = quad.Boundary{Lower: lo, Upper: hi}
	}
	return b
}

// Volume returns the signed product of the box widths.
func (b Box) Volume() float64 {
	v := 1.0
	for _, axis := range b {
		v *= axis.Width()
	}
	return v
}
