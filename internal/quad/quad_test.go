package quad

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type integral struct {
	name  string
	b     Boundary
	f     func(float64) float64
	value float64
}

func knownIntegrals() []integral {
	return []integral{
		{"constant", Boundary{-1, 2}, func(float64) float64 { return 3.5 }, 3 * 3.5},
		{"poly5", Boundary{-1, 2}, func(x float64) float64 { return math.Pow(x, 5) }, (64 - 1) / 6.0},
		{"sin", Boundary{0, 1}, math.Sin, 1 - math.Cos(1)},
		{"xexp", Boundary{0, 1}, func(x float64) float64 { return x * math.Exp(-x) }, (math.E - 2) / math.E},
		{"sqrt", Boundary{0, 1}, math.Sqrt, 2 / 3.0},
		{"exp_over_x2p1", Boundary{0, 1}, func(x float64) float64 { return math.Exp(x) / (x*x + 1) }, 1.270724139833620220138},
	}
}

func engines() map[string]func() Engine {
	return map[string]func() Engine{
		KindAdaptive:    func() Engine { return NewAdaptive() },
		KindNonAdaptive: func() Engine { return NewNonAdaptive() },
		KindDoubly:      func() Engine { return NewDoublyAdaptive() },
	}
}

func TestEngines_KnownIntegrals(t *testing.T) {
	for kind, newEngine := range engines() {
		for _, tt := range knownIntegrals() {
			t.Run(kind+"/"+tt.name, func(t *testing.T) {
				e := newEngine()
				got, err := e.Integrate(Pure(tt.f), tt.b)
				require.NoError(t, err)

				p := e.Params()
				tol := math.Max(p.AbsTol, p.RelTol*math.Abs(tt.value))
				assert.InDelta(t, tt.value, got, tol)

				last := e.Last()
				assert.Equal(t, got, last.Value)
				assert.Positive(t, last.Evals)
				assert.LessOrEqual(t, last.AbsErr, math.Max(p.AbsTol, p.RelTol*math.Abs(got)))
			})
		}
	}
}

func TestEngines_Orientation(t *testing.T) {
	for kind, newEngine := range engines() {
		t.Run(kind, func(t *testing.T) {
			e := newEngine()
			forward, err := e.Integrate(Pure(math.Exp), Boundary{0, 1})
			require.NoError(t, err)
			backward, err := e.Integrate(Pure(math.Exp), Boundary{1, 0})
			require.NoError(t, err)
			assert.InDelta(t, -forward, backward, 1e-12)
		})
	}
}

func TestEngines_ZeroWidth(t *testing.T) {
	for kind, newEngine := range engines() {
		t.Run(kind, func(t *testing.T) {
			e := newEngine()
			calls := 0
			got, err := e.Integrate(func(x float64) (float64, error) {
				calls++
				return x, nil
			}, Boundary{2, 2})
			require.NoError(t, err)
			assert.Zero(t, got)
			assert.Zero(t, calls)
			assert.Zero(t, e.Last().Evals)
		})
	}
}

func TestEngines_InvalidInterval(t *testing.T) {
	bounds := []Boundary{
		{math.NaN(), 1},
		{0, math.NaN()},
		{math.Inf(-1), 0},
		{0, math.Inf(1)},
	}
	for kind, newEngine := range engines() {
		for _, b := range bounds {
			e := newEngine()
			_, err := e.Integrate(Pure(math.Sin), b)
			assert.ErrorIs(t, err, ErrInvalidInterval, "%s %v", kind, b)
		}
	}
}

func TestEngines_IntegrandErrorPropagates(t *testing.T) {
	errBoom := errors.New("boom")
	for kind, newEngine := range engines() {
		t.Run(kind, func(t *testing.T) {
			e := newEngine()
			calls := 0
			_, err := e.Integrate(func(x float64) (float64, error) {
				calls++
				if calls == 3 {
					return 0, errBoom
				}
				return x, nil
			}, Boundary{0, 1})
			assert.Equal(t, errBoom, err)
			assert.Equal(t, 3, calls)
		})
	}
}

func TestEngines_NonFinite(t *testing.T) {
	for kind, newEngine := range engines() {
		e := newEngine()
		_, err := e.Integrate(Pure(func(float64) float64 { return math.NaN() }), Boundary{0, 1})
		assert.ErrorIs(t, err, ErrNonFinite, kind)
	}
}

func TestAdaptive_Budgets(t *testing.T) {
	tight := DefaultParams()
	tight.AbsTol = 1e-15
	tight.RelTol = 1e-14

	t.Run("subdivision limit", func(t *testing.T) {
		p := tight
		p.Limit = 1
		e := NewAdaptive()
		require.NoError(t, e.SetParams(p))

		got, err := e.Integrate(Pure(math.Sqrt), Boundary{0, 1})
		assert.ErrorIs(t, err, ErrMaxSubdivisions)
		assert.InDelta(t, 2/3.0, got, 1e-3)
		assert.Equal(t, 1, e.Last().Intervals)
	})

	t.Run("evaluation budget", func(t *testing.T) {
		p := tight
		p.MaxEval = 61
		e := NewAdaptive()
		require.NoError(t, e.SetParams(p))

		_, err := e.Integrate(Pure(math.Sqrt), Boundary{0, 1})
		assert.ErrorIs(t, err, ErrMaxEval)
		assert.LessOrEqual(t, e.Last().Evals, 61)
	})
}

func TestAdaptive_Subdivides(t *testing.T) {
	e := NewAdaptive()
	p := DefaultParams()
	p.RelTol = 1e-8
	p.MaxEval = 10000
	p.Rule = Rule21
	require.NoError(t, e.SetParams(p))

	got, err := e.Integrate(Pure(math.Sqrt), Boundary{0, 1})
	require.NoError(t, err)
	assert.InDelta(t, 2/3.0, got, 1e-8)
	assert.Greater(t, e.Last().Intervals, 1)
}

func TestNonAdaptive_DoesNotConverge(t *testing.T) {
	e := NewNonAdaptive()
	p := DefaultParams()
	p.AbsTol = 1e-15
	p.RelTol = 1e-15
	require.NoError(t, e.SetParams(p))

	got, err := e.Integrate(Pure(math.Sqrt), Boundary{0, 1})
	assert.ErrorIs(t, err, ErrMaxEval)
	assert.InDelta(t, 2/3.0, got, 1e-4)
	assert.Equal(t, 10+21+43+87, e.Last().Evals)
}

func TestParams_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(p *Params)
	}{
		{"negative abs", func(p *Params) { p.AbsTol = -1 }},
		{"negative rel", func(p *Params) { p.RelTol = -1 }},
		{"both zero", func(p *Params) { p.AbsTol, p.RelTol = 0, 0 }},
		{"nan", func(p *Params) { p.AbsTol = math.NaN() }},
		{"zero max_eval", func(p *Params) { p.MaxEval = 0 }},
		{"zero limit", func(p *Params) { p.Limit = 0 }},
		{"rule too small", func(p *Params) { p.Rule = 0 }},
		{"rule too large", func(p *Params) { p.Rule = 7 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.modify(&p)
			assert.ErrorIs(t, p.Validate(), ErrInvalidParams)

			for kind, newEngine := range engines() {
				e := newEngine()
				before := e.Params()
				assert.ErrorIs(t, e.SetParams(p), ErrInvalidParams, kind)
				assert.Equal(t, before, e.Params(), "%s params changed after rejected SetParams", kind)
			}
		})
	}

	assert.NoError(t, DefaultParams().Validate())
}

func TestRule(t *testing.T) {
	assert.Equal(t, 15, Rule15.Points())
	assert.Equal(t, 61, Rule61.Points())
	assert.Equal(t, 0, Rule(9).Points())
	assert.Equal(t, "gl41", Rule41.String())
	assert.Equal(t, "Rule(0)", Rule(0).String())
}

func TestRule_Text(t *testing.T) {
	text, err := Rule61.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "gl61", string(text))

	_, err = Rule(0).MarshalText()
	assert.ErrorIs(t, err, ErrInvalidParams)

	for in, want := range map[string]Rule{"gl15": Rule15, "21": Rule21, "GL41": Rule41} {
		var r Rule
		require.NoError(t, r.UnmarshalText([]byte(in)), in)
		assert.Equal(t, want, r, in)
	}

	var r Rule
	assert.ErrorIs(t, r.UnmarshalText([]byte("gl17")), ErrInvalidParams)
	assert.ErrorIs(t, r.UnmarshalText([]byte("four")), ErrInvalidParams)
}

func TestRegistry(t *testing.T) {
	assert.Equal(t, []string{KindDoubly, KindAdaptive, KindNonAdaptive}, Kinds())

	e, err := New(KindAdaptive)
	require.NoError(t, err)
	assert.IsType(t, &Adaptive{}, e)

	e, err = New(KindNonAdaptive)
	require.NoError(t, err)
	assert.IsType(t, &NonAdaptive{}, e)

	e, err = New(KindDoubly)
	require.NoError(t, err)
	assert.IsType(t, &DoublyAdaptive{}, e)

	_, err = New("romberg")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestFejer_Weights(t *testing.T) {
	r := newFejer()
	for l, w := range r.w {
		assert.Len(t, w, panels(l)-1)
		sum := 0.0
		for _, v := range w {
			sum += v
		}
		assert.InDelta(t, 2, sum, 1e-14, "level %d", l)
	}
	assert.InDeltaSlice(t, []float64{2 / 3.0, 2 / 3.0, 2 / 3.0}, r.w[0], 1e-15)
}

func TestDoublyAdaptive_RaisesDegree(t *testing.T) {
	e := NewDoublyAdaptive()
	p := DefaultParams()
	p.RelTol = 1e-12
	require.NoError(t, e.SetParams(p))

	// A 7-node rule is exact for degree 6; the 3-node rule is not, so one
	// extra level is needed to confirm the estimate.
	got, err := e.Integrate(Pure(func(x float64) float64 { return math.Pow(x, 5) }), Boundary{-1, 2})
	require.NoError(t, err)
	assert.InDelta(t, 63/6.0, got, 1e-12)
	assert.Equal(t, 1, e.Last().Intervals)
	assert.Equal(t, 15, e.Last().Evals)
}

func TestDoublyAdaptive_Bisects(t *testing.T) {
	e := NewDoublyAdaptive()
	p := DefaultParams()
	p.RelTol = 1e-8
	p.MaxEval = 10000
	require.NoError(t, e.SetParams(p))

	got, err := e.Integrate(Pure(math.Sqrt), Boundary{0, 1})
	require.NoError(t, err)
	assert.InDelta(t, 2/3.0, got, 1e-8)
	assert.Greater(t, e.Last().Intervals, 1)
}

func TestDoublyAdaptive_IgnoresLimit(t *testing.T) {
	e := NewDoublyAdaptive()
	p := DefaultParams()
	p.RelTol = 1e-8
	p.MaxEval = 10000
	p.Limit = 1
	p.Rule = Rule15
	require.NoError(t, e.SetParams(p))

	_, err := e.Integrate(Pure(math.Sqrt), Boundary{0, 1})
	require.NoError(t, err)
	assert.Greater(t, e.Last().Intervals, 1)
}

func TestDoublyAdaptive_Budgets(t *testing.T) {
	p := DefaultParams()
	p.AbsTol = 1e-15
	p.RelTol = 1e-15
	p.MaxEval = 50
	e := NewDoublyAdaptive()
	require.NoError(t, e.SetParams(p))

	got, err := e.Integrate(Pure(math.Sqrt), Boundary{0, 1})
	assert.ErrorIs(t, err, ErrMaxEval)
	assert.InDelta(t, 2/3.0, got, 1e-2)
	assert.LessOrEqual(t, e.Last().Evals, 50)

	// Too oscillatory for any rule the workspace can hold.
	p.MaxEval = 1_000_000
	require.NoError(t, e.SetParams(p))
	_, err = e.Integrate(Pure(func(x float64) float64 { return math.Sin(1e6 * x) }), Boundary{0, 1})
	assert.ErrorIs(t, err, ErrMaxSubdivisions)
	assert.Equal(t, cquadIntervals, e.Last().Intervals)
}
