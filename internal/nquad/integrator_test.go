package nquad_test

import (
	"errors"
	"math"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/numkit/internal/nquad"
	"github.com/san-kum/numkit/internal/quad"
)

// spyEngine counts configuration calls and can be told to reject them.
type spyEngine struct {
	*quad.Adaptive
	setCalls int
	reject   bool
}

var errRejected = errors.New("spy: rejected")

func (s *spyEngine) SetParams(p quad.Params) error {
	s.setCalls++
	if s.reject {
		return errRejected
	}
	return s.Adaptive.SetParams(p)
}

func spyFactory(spies *[]*spyEngine) func() quad.Engine {
	return func() quad.Engine {
		s := &spyEngine{Adaptive: quad.NewAdaptive()}
		*spies = append(*spies, s)
		return s
	}
}

var _ = Describe("Integrator", func() {
	Describe("closed-form integrals", func() {
		It("reduces to the scalar engine in one dimension", func() {
			b := quad.Boundary{Lower: 0, Upper: 2}
			f := func(x float64) float64 { return math.Exp(-x) * math.Cos(3*x) }

			want, err := quad.NewAdaptive().Integrate(quad.Pure(f), b)
			Expect(err).NotTo(HaveOccurred())

			got, err := nquad.New(1).Integrate(nquad.Func1(f), nquad.Box{b})
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(want))
		})

		It("integrates a constant over the unit cube", func() {
			in := nquad.New(3)
			got, err := in.Integrate(nquad.Func3(func(_, _, _ float64) float64 { return 1 }), nquad.Cube(3, 0, 1))
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(BeNumerically("~", 1.0, 1e-9))
			Expect(in.Evaluations()).To(BeNumerically(">", 0))
		})

		It("computes the volume of the unit sphere from its Jacobian", func() {
			box := nquad.Box{{Lower: 0, Upper: 1}, {Lower: 0, Upper: math.Pi}, {Lower: 0, Upper: 2 * math.Pi}}
			jac := nquad.Func3(func(r, theta, _ float64) float64 { return r * r * math.Sin(theta) })

			got, err := nquad.New(3).Integrate(jac, box)
			Expect(err).NotTo(HaveOccurred())

			want := 4 * math.Pi / 3
			Expect(math.Abs(got-want) / want).To(BeNumerically("<", 1e-3))
		})

		It("integrates a two-dimensional gaussian", func() {
			g := nquad.Func2(func(x, y float64) float64 { return math.Exp(-x*x - y*y) })
			got, err := nquad.New(2).Integrate(g, nquad.Cube(2, -3, 3))
			Expect(err).NotTo(HaveOccurred())

			erf3 := math.Erf(3)
			Expect(got).To(BeNumerically("~", math.Pi*erf3*erf3, 1e-6))
		})

		It("integrates the sphere volume with doubly adaptive engines", func() {
			jac := nquad.Func3(func(r, theta, _ float64) float64 { return r * r * math.Sin(theta) })
			box := nquad.Box{{Lower: 0, Upper: 1}, {Lower: 0, Upper: math.Pi}, {Lower: 0, Upper: 2 * math.Pi}}

			in := nquad.New(3, nquad.WithEngine(func() quad.Engine { return quad.NewDoublyAdaptive() }))
			got, err := in.Integrate(jac, box)
			Expect(err).NotTo(HaveOccurred())

			want := 4 * math.Pi / 3
			Expect(math.Abs(got-want) / want).To(BeNumerically("<", 1e-3))
		})

		It("accepts integrands of any declared arity", func() {
			f := nquad.FuncN{N: 4, F: func(x []float64) float64 { return x[0] + x[1] + x[2] + x[3] }}
			in := nquad.New(4, nquad.WithEngine(func() quad.Engine { return quad.NewNonAdaptive() }))
			got, err := in.Integrate(f, nquad.Cube(4, 0, 1))
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(BeNumerically("~", 2.0, 1e-9))
		})

		It("flips the sign of an inverted axis", func() {
			f := nquad.Func2(func(x, y float64) float64 { return x + y*y })
			in := nquad.New(2)

			forward, err := in.Integrate(f, nquad.Box{{Lower: 0, Upper: 1}, {Lower: 0, Upper: 2}})
			Expect(err).NotTo(HaveOccurred())
			backward, err := in.Integrate(f, nquad.Box{{Lower: 0, Upper: 1}, {Lower: 2, Upper: 0}})
			Expect(err).NotTo(HaveOccurred())
			Expect(backward).To(BeNumerically("~", -forward, 1e-12))
		})
	})

	Describe("configuration errors", func() {
		It("rejects a box of the wrong length", func() {
			_, err := nquad.New(3).Integrate(nquad.Func3(func(_, _, _ float64) float64 { return 1 }), nquad.Cube(2, 0, 1))
			Expect(err).To(MatchError(nquad.ErrDimensionMismatch))
		})

		It("rejects an integrand of the wrong arity", func() {
			_, err := nquad.New(3).Integrate(nquad.Func2(func(_, _ float64) float64 { return 1 }), nquad.Cube(3, 0, 1))
			Expect(err).To(MatchError(nquad.ErrDimensionMismatch))
		})

		It("rejects a nil integrand", func() {
			_, err := nquad.New(2).Integrate(nil, nquad.Cube(2, 0, 1))
			Expect(err).To(MatchError(nquad.ErrDimensionMismatch))
		})

		It("panics on a non-positive dimension", func() {
			Expect(func() { nquad.New(0) }).To(Panic())
		})
	})

	Describe("failure propagation", func() {
		It("aborts on an inner failure and reports where it happened", func() {
			in := nquad.New(2)
			p := quad.DefaultParams()
			p.AbsTol, p.RelTol, p.Limit = 1e-15, 1e-15, 1
			Expect(in.SetParamsAt(1, p)).To(Succeed())

			_, err := in.Integrate(nquad.Func2(func(_, y float64) float64 { return math.Sqrt(y) }), nquad.Cube(2, 0, 1))
			Expect(err).To(MatchError(quad.ErrMaxSubdivisions))

			var re *nquad.ReductionError
			Expect(errors.As(err, &re)).To(BeTrue())
			Expect(re.Level).To(Equal(2))
			Expect(re.Fixed).To(HaveLen(1))

			// The first inner integration aborts the whole call.
			Expect(in.Evaluations()).To(Equal(quad.Rule41.Points() + quad.Rule41.Points()/2))
		})

		It("reports an outer failure at level one", func() {
			in := nquad.New(2)
			p := quad.DefaultParams()
			p.AbsTol, p.RelTol, p.Limit = 1e-15, 1e-15, 1
			Expect(in.SetParamsAt(0, p)).To(Succeed())

			_, err := in.Integrate(nquad.Func2(func(x, _ float64) float64 { return math.Sqrt(x) }), nquad.Cube(2, 0, 1))

			var re *nquad.ReductionError
			Expect(errors.As(err, &re)).To(BeTrue())
			Expect(re.Level).To(Equal(1))
			Expect(re.Fixed).To(BeEmpty())
		})

		It("returns ErrBusy for a reentrant call", func() {
			in := nquad.New(1)
			var inner error
			f := nquad.Func1(func(x float64) float64 {
				_, inner = in.Integrate(nquad.Func1(func(float64) float64 { return 1 }), nquad.Cube(1, 0, 1))
				return x
			})

			got, err := in.Integrate(f, nquad.Cube(1, 0, 1))
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(BeNumerically("~", 0.5, 1e-12))
			Expect(inner).To(MatchError(nquad.ErrBusy))
		})
	})

	Describe("bulk configuration", func() {
		It("configures every engine exactly once", func() {
			var spies []*spyEngine
			in := nquad.New(4, nquad.WithEngine(spyFactory(&spies)))
			Expect(spies).To(HaveLen(4))

			p := quad.DefaultParams()
			p.AbsTol, p.RelTol, p.MaxEval, p.Limit, p.Rule = 1e-10, 1e-6, 5000, 200, quad.Rule21
			Expect(in.SetParams(p)).To(Succeed())

			for i, s := range spies {
				Expect(s.setCalls).To(Equal(1), "engine %d", i)
				Expect(in.Bank().At(i).Params()).To(Equal(p))
			}
		})

		It("leaves every engine untouched when the params are invalid", func() {
			in := nquad.New(3)
			p := quad.DefaultParams()
			p.Limit = 0
			Expect(in.SetParams(p)).To(MatchError(quad.ErrInvalidParams))

			for i := 0; i < in.Dimension(); i++ {
				Expect(in.Bank().At(i).Params()).To(Equal(quad.DefaultParams()))
			}
		})

		It("restores earlier engines when a later one rejects", func() {
			var spies []*spyEngine
			in := nquad.New(3, nquad.WithEngine(spyFactory(&spies)))
			spies[2].reject = true

			p := quad.DefaultParams()
			p.RelTol = 1e-9
			Expect(in.SetParams(p)).To(MatchError(errRejected))

			for i := 0; i < 3; i++ {
				Expect(in.Bank().At(i).Params()).To(Equal(quad.DefaultParams()), "engine %d", i)
			}
		})
	})

	Describe("bank visitor", func() {
		It("applies the operation to the selected element only", func() {
			bank := nquad.NewBank(3, func() quad.Engine { return quad.NewAdaptive() })
			p := quad.DefaultParams()
			p.Rule = quad.Rule61

			bank.ApplyAt(1, func(e quad.Engine) { Expect(e.SetParams(p)).To(Succeed()) })

			Expect(bank.At(0).Params().Rule).To(Equal(quad.Rule41))
			Expect(bank.At(1).Params().Rule).To(Equal(quad.Rule61))
			Expect(bank.At(2).Params().Rule).To(Equal(quad.Rule41))
		})

		It("panics on an out-of-range index", func() {
			bank := nquad.NewBank(3, func() quad.Engine { return quad.NewAdaptive() })
			noop := func(quad.Engine) {}

			Expect(func() { bank.ApplyAt(3, noop) }).To(Panic())
			Expect(func() { bank.ApplyAt(-1, noop) }).To(Panic())
			Expect(func() { bank.At(3) }).To(Panic())
			Expect(func() { bank.Swap(0, 3) }).To(Panic())
		})
	})

	Describe("reuse", func() {
		It("gives independent results for sequential calls", func() {
			in := nquad.New(2)
			f := nquad.Func2(func(x, y float64) float64 { return x * y })
			g := nquad.Func2(func(x, y float64) float64 { return math.Sin(x) * math.Cos(y) })

			first, err := in.Integrate(f, nquad.Cube(2, 0, 1))
			Expect(err).NotTo(HaveOccurred())
			firstEvals := in.Evaluations()

			other, err := in.Integrate(g, nquad.Cube(2, 0, math.Pi/2))
			Expect(err).NotTo(HaveOccurred())
			Expect(other).To(BeNumerically("~", 1.0, 1e-9))

			again, err := in.Integrate(f, nquad.Cube(2, 0, 1))
			Expect(err).NotTo(HaveOccurred())
			Expect(again).To(Equal(first))
			Expect(in.Evaluations()).To(Equal(firstEvals))
			Expect(first).To(BeNumerically("~", 0.25, 1e-12))
		})

		It("runs distinct integrators concurrently", func() {
			const workers = 8
			results := make([]float64, workers)
			errs := make([]error, workers)

			var wg sync.WaitGroup
			for w := 0; w < workers; w++ {
				wg.Add(1)
				go func(idx int) {
					defer wg.Done()
					in := nquad.New(3)
					results[idx], errs[idx] = in.Integrate(
						nquad.Func3(func(x, y, z float64) float64 { return x * y * z }),
						nquad.Cube(3, 0, 2),
					)
				}(w)
			}
			wg.Wait()

			for w := 0; w < workers; w++ {
				Expect(errs[w]).NotTo(HaveOccurred())
				Expect(results[w]).To(Equal(results[0]))
			}
			Expect(results[0]).To(BeNumerically("~", 8.0, 1e-9))
		})
	})
})
