package ode

// stepper attempts one step of size h from (t, y), writing the proposed
// state into out and a local error estimate into errv. It returns the number
// of derivative evaluations spent.
type stepper interface {
	step(sys System, t, h float64, y, out, errv []float64) int
	order() int
}

type embedded struct {
	tab     tableau
	k       [][]float64
	scratch []float64
}

func newEmbedded(tab tableau) *embedded {
	return &embedded{tab: tab}
}

func (e *embedded) order() int { return e.tab.order }

func (e *embedded) ensureScratch(n int) {
	if len(e.scratch) == n {
		return
	}
	e.k = make([][]float64, len(e.tab.c))
	for i := range e.k {
		e.k[i] = make([]float64, n)
	}
	e.scratch = make([]float64, n)
}

func (e *embedded) step(sys System, t, h float64, y, out, errv []float64) int {
	n := len(y)
	e.ensureScratch(n)
	tab := e.tab

	for s := range tab.c {
		copy(e.scratch, y)
		for j, a := range tab.a[s] {
			if a == 0 {
				continue
			}
			for i := 0; i < n; i++ {
				e.scratch[i] += h * a * e.k[j][i]
			}
		}
		sys.Derive(t+tab.c[s]*h, e.scratch, e.k[s])
	}

	for i := 0; i < n; i++ {
		hi, lo := 0.0, 0.0
		for s := range tab.c {
			hi += tab.b[s] * e.k[s][i]
			lo += tab.bhat[s] * e.k[s][i]
		}
		out[i] = y[i] + h*hi
		errv[i] = h * (hi - lo)
	}
	return len(tab.c)
}

// rk4 is the classical fourth-order method. Its error is estimated by
// comparing one full step against two half steps.
type rk4 struct {
	k1, k2, k3, k4 []float64
	scratch        []float64
	full, mid      []float64
}

func newRK4() *rk4 {
	return &rk4{}
}

func (r *rk4) order() int { return 4 }

func (r *rk4) ensureScratch(n int) {
	if len(r.k1) != n {
		r.k1 = make([]float64, n)
		r.k2 = make([]float64, n)
		r.k3 = make([]float64, n)
		r.k4 = make([]float64, n)
		r.scratch = make([]float64, n)
		r.full = make([]float64, n)
		r.mid = make([]float64, n)
	}
}

func (r *rk4) single(sys System, t, h float64, y, out []float64) {
	n := len(y)
	sys.Derive(t, y, r.k1)

	for i := 0; i < n; i++ {
		r.scratch[i] = y[i] + h*0.5*r.k1[i]
	}
	sys.Derive(t+h*0.5, r.scratch, r.k2)

	for i := 0; i < n; i++ {
		r.scratch[i] = y[i] + h*0.5*r.k2[i]
	}
	sys.Derive(t+h*0.5, r.scratch, r.k3)

	for i := 0; i < n; i++ {
		r.scratch[i] = y[i] + h*r.k3[i]
	}
	sys.Derive(t+h, r.scratch, r.k4)

	h6 := h / 6.0
	for i := 0; i < n; i++ {
		out[i] = y[i] + h6*(r.k1[i]+2*r.k2[i]+2*r.k3[i]+r.k4[i])
	}
}

func (r *rk4) step(sys System, t, h float64, y, out, errv []float64) int {
	r.ensureScratch(len(y))
	r.single(sys, t, h, y, r.full)
	r.single(sys, t, h/2, y, r.mid)
	r.single(sys, t+h/2, h/2, r.mid, out)
	for i := range out {
		errv[i] = (out[i] - r.full[i]) / 15
	}
	return 12
}
