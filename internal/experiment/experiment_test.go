package experiment

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/numkit/internal/config"
	"github.com/san-kum/numkit/internal/nquad"
	"github.com/san-kum/numkit/internal/problems"
	"github.com/san-kum/numkit/internal/quad"
)

func newRunner(t *testing.T, cfg *config.Config) *Runner {
	t.Helper()
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	r, err := NewRunner(cfg)
	require.NoError(t, err)
	return r
}

func TestRunIntegral(t *testing.T) {
	r := newRunner(t, nil)
	res, err := r.RunIntegral(context.Background(), "sphere")
	require.NoError(t, err)
	assert.Equal(t, 3, res.Dim)
	assert.Less(t, res.RelErr(), 1e-6)
	assert.Positive(t, res.Evals)

	_, err = r.RunIntegral(context.Background(), "torus")
	assert.ErrorIs(t, err, problems.ErrUnknownProblem)
}

func TestRunIntegral_Cancelled(t *testing.T) {
	r := newRunner(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.RunIntegral(ctx, "cube")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewIntegrator_Overrides(t *testing.T) {
	cfg := config.DefaultConfig()
	rule := quad.Rule15
	abs := 1e-12
	cfg.Quadrature.Overrides = map[int]config.Override{
		1: {Rule: &rule},
		2: {AbsTol: &abs},
		7: {Rule: &rule},
	}
	r := newRunner(t, cfg)

	in, err := r.NewIntegrator(3)
	require.NoError(t, err)
	assert.Equal(t, quad.Rule41, in.Bank().At(0).Params().Rule)
	assert.Equal(t, quad.Rule15, in.Bank().At(1).Params().Rule)
	assert.Equal(t, 1e-12, in.Bank().At(2).Params().AbsTol)
	assert.Equal(t, quad.Rule41, in.Bank().At(2).Params().Rule)
}

func TestNewIntegrator_Engine(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Quadrature.Engine = quad.KindNonAdaptive
	r := newRunner(t, cfg)

	in, err := r.NewIntegrator(2)
	require.NoError(t, err)
	assert.IsType(t, &quad.NonAdaptive{}, in.Bank().At(0))

	res, err := r.RunIntegral(context.Background(), "cube")
	require.NoError(t, err)
	assert.InDelta(t, 1, res.Value, 1e-12)
	// 10- and 21-point rules on each of three axes.
	assert.Equal(t, 31*31*31, res.Evals)
}

func TestNewIntegrator_DoublyAdaptive(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Quadrature.Engine = quad.KindDoubly
	r := newRunner(t, cfg)

	in, err := r.NewIntegrator(3)
	require.NoError(t, err)
	assert.IsType(t, &quad.DoublyAdaptive{}, in.Bank().At(2))

	res, err := r.RunIntegral(context.Background(), "cube")
	require.NoError(t, err)
	assert.InDelta(t, 1, res.Value, 1e-12)
	// The 3- and 7-node rules agree on a constant.
	assert.Equal(t, 7*7*7, res.Evals)

	res, err = r.RunIntegral(context.Background(), "sphere")
	require.NoError(t, err)
	assert.Less(t, res.RelErr(), 1e-6)
}

func TestSweep(t *testing.T) {
	r := newRunner(t, nil)
	names := r.Registry().ListIntegrals()

	results, err := r.Sweep(context.Background(), names, 2)
	require.NoError(t, err)
	require.Len(t, results, len(names))
	for i, res := range results {
		assert.Equal(t, names[i], res.Problem)
		assert.Less(t, res.RelErr(), 1e-6, res.Problem)
	}

	sequential, err := r.RunIntegral(context.Background(), names[0])
	require.NoError(t, err)
	assert.Equal(t, sequential.Value, results[0].Value)
}

func TestSweep_Failure(t *testing.T) {
	r := newRunner(t, nil)
	r.Registry().RegisterIntegral("nan", func() problems.Integral {
		return problems.Integral{
			Name: "nan",
			Box:  nquad.Cube(2, 0, 1),
			F:    nquad.Func2(func(x, y float64) float64 { return math.NaN() }),
		}
	})

	_, err := r.Sweep(context.Background(), []string{"cube", "nan"}, 0)
	assert.ErrorIs(t, err, quad.ErrNonFinite)

	_, err = r.Sweep(context.Background(), []string{"cube", "torus"}, 0)
	assert.ErrorIs(t, err, problems.ErrUnknownProblem)
}

func TestRunODE(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.ODE.Samples = 11
	cfg.ODE.AbsTol = 1e-10
	r := newRunner(t, cfg)

	res, err := r.RunODE(context.Background(), "harmonic")
	require.NoError(t, err)
	require.Len(t, res.Trajectory.Times, 11)
	last := res.Trajectory.States[10]
	assert.InDelta(t, 1, last[0], 1e-6)
	assert.InDelta(t, 0, last[1], 1e-6)
	assert.Equal(t, "rk45", res.Stepper)
	assert.Positive(t, res.Stats.Steps)
	assert.True(t, res.Conservative)
	assert.Less(t, res.EnergyDrift, 1e-6)

	meta := res.Metadata(cfg.ODE.Params)
	assert.Equal(t, "ode", meta.Kind)
	assert.Equal(t, float64(res.Stats.Steps), meta.Results["steps"])
	assert.Contains(t, meta.Results, "energy_drift")
}

func TestRunRoot(t *testing.T) {
	r := newRunner(t, nil)
	for _, name := range r.Registry().ListRoots() {
		t.Run(name, func(t *testing.T) {
			res, err := r.RunRoot(context.Background(), name)
			require.NoError(t, err)
			assert.Less(t, res.Distance, 1e-4)
			assert.Equal(t, "hybrids", res.Solver)

			meta := res.Metadata(config.DefaultConfig().Root.Params)
			assert.Contains(t, meta.Results, "x1")
		})
	}
}

func TestIntegralMetadata(t *testing.T) {
	res := IntegralResult{Problem: "cube", Value: 1, Exact: 1, Evals: 9, Err: quad.ErrMaxEval}
	meta := res.Metadata(quad.KindAdaptive, quad.DefaultParams())
	assert.Equal(t, "integral", meta.Kind)
	assert.Equal(t, "qag", meta.Method)
	assert.Equal(t, 41.0, meta.Settings["points"])
	assert.Equal(t, 9.0, meta.Results["evals"])
	assert.Equal(t, quad.ErrMaxEval.Error(), meta.Error)
}

func TestNewRunner_InvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.ODE.Stepper = "euler"
	_, err := NewRunner(cfg)
	assert.ErrorIs(t, err, config.ErrInvalid)
}
