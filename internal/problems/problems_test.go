package problems

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/numkit/internal/nquad"
	"github.com/san-kum/numkit/internal/ode"
	"github.com/san-kum/numkit/internal/root"
)

func TestIntegralsMatchClosedForm(t *testing.T) {
	for _, p := range Integrals() {
		t.Run(p.Name, func(t *testing.T) {
			if p.F.Arity() != p.Dim() {
				t.Fatalf("arity %d does not match box dimension %d", p.F.Arity(), p.Dim())
			}
			in := nquad.New(p.Dim())
			got, err := in.Integrate(p.F, p.Box)
			if err != nil {
				t.Fatal(err)
			}
			if rel := math.Abs(got-p.Value) / math.Abs(p.Value); rel > 1e-6 {
				t.Errorf("got %v, want %v (rel err %g)", got, p.Value, rel)
			}
		})
	}
}

func TestLookup(t *testing.T) {
	if _, err := LookupIntegral("sphere"); err != nil {
		t.Errorf("sphere: %v", err)
	}
	if _, err := LookupIntegral("torus"); !errors.Is(err, ErrUnknownProblem) {
		t.Errorf("torus: got %v, want ErrUnknownProblem", err)
	}
	if _, err := LookupODE("pendulum"); !errors.Is(err, ErrUnknownProblem) {
		t.Errorf("pendulum: got %v, want ErrUnknownProblem", err)
	}
	if _, err := LookupRoot("parabola"); !errors.Is(err, ErrUnknownProblem) {
		t.Errorf("parabola: got %v, want ErrUnknownProblem", err)
	}
}

func TestCatalogueOrder(t *testing.T) {
	want := []string{"cube", "gaussian", "separable", "sphere"}
	got := Integrals()
	if len(got) != len(want) {
		t.Fatalf("got %d integrals, want %d", len(got), len(want))
	}
	for i, p := range got {
		if p.Name != want[i] {
			t.Errorf("Integrals()[%d] = %s, want %s", i, p.Name, want[i])
		}
	}
}

func TestLookupReturnsFreshSystems(t *testing.T) {
	a, _ := LookupODE("vanderpol")
	if err := a.System.(Configurable).SetParam("mu", 1); err != nil {
		t.Fatal(err)
	}
	b, _ := LookupODE("vanderpol")
	if mu := b.System.(Configurable).Params()["mu"]; mu != 10 {
		t.Errorf("second lookup saw mu=%v, want 10", mu)
	}
}

func TestSetParam(t *testing.T) {
	l := &Lorenz{Sigma: 10, Rho: 28, Beta: 8.0 / 3.0}
	if err := l.SetParam("rho", 14); err != nil {
		t.Fatal(err)
	}
	if l.Rho != 14 {
		t.Errorf("rho = %v, want 14", l.Rho)
	}
	if err := l.SetParam("gamma", 1); !errors.Is(err, ErrUnknownParam) {
		t.Errorf("got %v, want ErrUnknownParam", err)
	}
	if err := (&Harmonic{}).SetParam("mu", 1); !errors.Is(err, ErrUnknownParam) {
		t.Errorf("got %v, want ErrUnknownParam", err)
	}
}

func TestLorenzFixedPoint(t *testing.T) {
	l := &Lorenz{Sigma: 10, Rho: 28, Beta: 8.0 / 3.0}
	c := math.Sqrt(l.Beta * (l.Rho - 1))
	y := []float64{c, c, l.Rho - 1}
	dydt := make([]float64, 3)
	l.Derive(0, y, dydt)
	for i, v := range dydt {
		if math.Abs(v) > 1e-10 {
			t.Errorf("dydt[%d] = %v at fixed point", i, v)
		}
	}
}

func TestHarmonicPeriod(t *testing.T) {
	p, _ := LookupODE("harmonic")
	params := ode.DefaultParams()
	params.AbsTol = 1e-10
	d, err := ode.NewDriver(p.System, ode.KindRK45, ode.WithParams(params))
	if err != nil {
		t.Fatal(err)
	}
	y := append([]float64(nil), p.Y0...)
	tm := p.T0
	if err := d.Apply(&tm, p.T1, y); err != nil {
		t.Fatal(err)
	}
	if math.Abs(y[0]-1) > 1e-6 || math.Abs(y[1]) > 1e-6 {
		t.Errorf("state after one period = %v, want %v", y, p.Y0)
	}
	h := p.System.(*Harmonic)
	if drift := math.Abs(h.Energy(y) - h.Energy(p.Y0)); drift > 1e-6 {
		t.Errorf("energy drift %v", drift)
	}
}

func TestVanDerPolLimitCycle(t *testing.T) {
	p, _ := LookupODE("vanderpol")
	d, err := ode.NewDriver(p.System, ode.KindRK45)
	if err != nil {
		t.Fatal(err)
	}
	traj, err := ode.Solve(context.Background(), d, p.Y0, p.T0, p.T1, 2001)
	if err != nil {
		t.Fatal(err)
	}

	// The relaxation oscillation settles on an amplitude close to 2.
	peak := 0.0
	for i, tm := range traj.Times {
		if tm >= 50 {
			peak = math.Max(peak, math.Abs(traj.States[i][0]))
		}
	}
	if peak < 1.8 || peak > 2.2 {
		t.Errorf("limit cycle amplitude %v, want about 2", peak)
	}
}

func TestLorenzBounded(t *testing.T) {
	p, _ := LookupODE("lorenz")
	d, err := ode.NewDriver(p.System, ode.KindRKCK45)
	if err != nil {
		t.Fatal(err)
	}
	traj, err := ode.Solve(context.Background(), d, p.Y0, p.T0, p.T1, 501)
	if err != nil {
		t.Fatal(err)
	}
	for i, s := range traj.States {
		if math.Abs(s[0]) > 30 || math.Abs(s[1]) > 40 || s[2] < 0 || s[2] > 60 {
			t.Fatalf("state %v at t=%v left the attractor region", s, traj.Times[i])
		}
	}
}

func TestRootSystems(t *testing.T) {
	for _, p := range Roots() {
		t.Run(p.Name, func(t *testing.T) {
			s, err := root.NewSolver(root.KindHybrid)
			if err != nil {
				t.Fatal(err)
			}
			x := append([]float64(nil), p.Guess...)
			if _, err := s.Find(p.F, x); err != nil {
				t.Fatal(err)
			}
			for i := range x {
				if math.Abs(x[i]-p.Root[i]) > 1e-4 {
					t.Errorf("x = %v, want %v", x, p.Root)
					break
				}
			}
		})
	}
}
