package experiment

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/numkit/internal/analysis"
	"github.com/san-kum/numkit/internal/config"
	"github.com/san-kum/numkit/internal/logging"
	"github.com/san-kum/numkit/internal/nquad"
	"github.com/san-kum/numkit/internal/ode"
	"github.com/san-kum/numkit/internal/problems"
	"github.com/san-kum/numkit/internal/quad"
	"github.com/san-kum/numkit/internal/root"
	"github.com/san-kum/numkit/internal/storage"
)

// Runner builds engines from a configuration and runs registered problems.
type Runner struct {
	cfg      *config.Config
	registry *Registry
	logger   *slog.Logger
}

type Option func(*Runner)

func WithRegistry(r *Registry) Option {
	return func(rn *Runner) { rn.registry = r }
}

func WithLogger(l *slog.Logger) Option {
	return func(rn *Runner) {
		if l != nil {
			rn.logger = l
		}
	}
}

func NewRunner(cfg *config.Config, opts ...Option) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r := &Runner{
		cfg:      cfg,
		registry: NewRegistry(),
		logger:   logging.Discard(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func (r *Runner) Registry() *Registry { return r.registry }

// NewIntegrator returns an integrator over dim dimensions configured from
// the quadrature section, per-dimension overrides included.
func (r *Runner) NewIntegrator(dim int) (*nquad.Integrator, error) {
	q := r.cfg.Quadrature
	factory, err := quad.Factory(q.Engine)
	if err != nil {
		return nil, err
	}
	in := nquad.New(dim, nquad.WithEngine(factory), nquad.WithLogger(r.logger))
	if err := in.SetParams(q.Params); err != nil {
		return nil, err
	}
	for i := range q.Overrides {
		if i >= dim {
			continue
		}
		if err := in.SetParamsAt(i, q.ParamsAt(i)); err != nil {
			return nil, fmt.Errorf("experiment: override %d: %w", i, err)
		}
	}
	return in, nil
}

type IntegralResult struct {
	Problem string
	Dim     int
	Value   float64
	Exact   float64
	// AbsErr is |Value - Exact|.
	AbsErr  float64
	Evals   int
	Elapsed time.Duration
	Err     error
}

func (res IntegralResult) RelErr() float64 {
	if res.Exact == 0 {
		return res.AbsErr
	}
	return res.AbsErr / math.Abs(res.Exact)
}

// RunIntegral integrates the named problem. A failing integration still
// returns the result with Err set alongside the error.
func (r *Runner) RunIntegral(ctx context.Context, name string) (IntegralResult, error) {
	p, err := r.registry.GetIntegral(name)
	if err != nil {
		return IntegralResult{}, err
	}
	in, err := r.NewIntegrator(p.Dim())
	if err != nil {
		return IntegralResult{}, err
	}
	return r.integrate(ctx, in, p)
}

func (r *Runner) integrate(ctx context.Context, in *nquad.Integrator, p problems.Integral) (IntegralResult, error) {
	res := IntegralResult{Problem: p.Name, Dim: p.Dim(), Exact: p.Value}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	start := time.Now()
	v, err := in.Integrate(p.F, p.Box)
	res.Elapsed = time.Since(start)
	res.Value = v
	res.AbsErr = math.Abs(v - p.Value)
	res.Evals = in.Evaluations()
	res.Err = err

	r.logger.Info("integral",
		"problem", p.Name,
		"value", v,
		"abs_err", res.AbsErr,
		"evals", res.Evals,
		"elapsed", res.Elapsed,
	)
	return res, err
}

// Sweep integrates the named problems concurrently with at most parallel
// jobs in flight, each on its own Integrator. Results keep the order of
// names. The first failure cancels jobs that have not started.
func (r *Runner) Sweep(ctx context.Context, names []string, parallel int) ([]IntegralResult, error) {
	items := make([]problems.Integral, len(names))
	for i, name := range names {
		p, err := r.registry.GetIntegral(name)
		if err != nil {
			return nil, err
		}
		items[i] = p
	}

	results := make([]IntegralResult, len(items))
	g, ctx := errgroup.WithContext(ctx)
	if parallel > 0 {
		g.SetLimit(parallel)
	}
	for i, p := range items {
		i, p := i, p
		g.Go(func() error {
			in, err := r.NewIntegrator(p.Dim())
			if err != nil {
				return err
			}
			results[i], err = r.integrate(ctx, in, p)
			return err
		})
	}
	err := g.Wait()
	return results, err
}

type ODEResult struct {
	Problem    string
	Stepper    string
	Trajectory *ode.Trajectory
	Stats      ode.Stats
	Elapsed    time.Duration

	// EnergyDrift is set only for systems with a conserved energy.
	EnergyDrift  float64
	Conservative bool
}

// RunODE integrates the named initial value problem and samples it at the
// configured number of points.
func (r *Runner) RunODE(ctx context.Context, name string) (ODEResult, error) {
	p, err := r.registry.GetODE(name)
	if err != nil {
		return ODEResult{}, err
	}
	d, err := ode.NewDriver(p.System, r.cfg.ODE.Stepper,
		ode.WithParams(r.cfg.ODE.Params),
		ode.WithLogger(r.logger),
	)
	if err != nil {
		return ODEResult{}, err
	}

	start := time.Now()
	traj, err := ode.Solve(ctx, d, p.Y0, p.T0, p.T1, r.cfg.ODE.Samples)
	res := ODEResult{
		Problem:    p.Name,
		Stepper:    d.Kind(),
		Trajectory: traj,
		Stats:      d.Stats(),
		Elapsed:    time.Since(start),
	}
	if err != nil {
		return res, err
	}
	if h, ok := p.System.(analysis.Hamiltonian); ok {
		res.Conservative = true
		res.EnergyDrift = analysis.EnergyDrift(h, traj)
	}

	r.logger.Info("ode",
		"problem", p.Name,
		"stepper", d.Kind(),
		"steps", res.Stats.Steps,
		"rejected", res.Stats.Rejected,
		"evals", res.Stats.Evaluations,
		"elapsed", res.Elapsed,
	)
	return res, nil
}

type RootResult struct {
	Problem string
	Solver  string
	root.Result
	// Distance is the max-norm distance from the catalogued root.
	Distance float64
	Elapsed  time.Duration
}

func (r *Runner) RunRoot(ctx context.Context, name string) (RootResult, error) {
	p, err := r.registry.GetRoot(name)
	if err != nil {
		return RootResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return RootResult{}, err
	}
	s, err := root.NewSolver(r.cfg.Root.Solver,
		root.WithParams(r.cfg.Root.Params),
		root.WithLogger(r.logger),
	)
	if err != nil {
		return RootResult{}, err
	}

	x := append([]float64(nil), p.Guess...)
	start := time.Now()
	found, err := s.Find(p.F, x)
	res := RootResult{
		Problem: p.Name,
		Solver:  s.Kind(),
		Result:  found,
		Elapsed: time.Since(start),
	}
	for i := range x {
		res.Distance = math.Max(res.Distance, math.Abs(x[i]-p.Root[i]))
	}
	if err != nil {
		return res, err
	}

	r.logger.Info("root",
		"problem", p.Name,
		"solver", s.Kind(),
		"iterations", found.Iterations,
		"residual", found.Residual,
		"x", x,
	)
	return res, nil
}

// Metadata converts res to a storable record.
func (res IntegralResult) Metadata(engine string, p quad.Params) storage.RunMetadata {
	meta := storage.RunMetadata{
		Kind:    "integral",
		Problem: res.Problem,
		Method:  engine,
		Settings: map[string]float64{
			"abs_tol":  p.AbsTol,
			"rel_tol":  p.RelTol,
			"max_eval": float64(p.MaxEval),
			"limit":    float64(p.Limit),
			"points":   float64(p.Rule.Points()),
		},
		Results: map[string]float64{
			"value":      res.Value,
			"exact":      res.Exact,
			"abs_err":    res.AbsErr,
			"evals":      float64(res.Evals),
			"elapsed_ms": float64(res.Elapsed.Microseconds()) / 1000,
		},
	}
	if res.Err != nil {
		meta.Error = res.Err.Error()
	}
	return meta
}

func (res ODEResult) Metadata(p ode.Params) storage.RunMetadata {
	meta := storage.RunMetadata{
		Kind:    "ode",
		Problem: res.Problem,
		Method:  res.Stepper,
		Settings: map[string]float64{
			"h_start":   p.HStart,
			"abs_tol":   p.AbsTol,
			"rel_tol":   p.RelTol,
			"h_min":     p.HMin,
			"h_max":     p.HMax,
			"max_steps": float64(p.MaxSteps),
		},
		Results: map[string]float64{
			"steps":      float64(res.Stats.Steps),
			"rejected":   float64(res.Stats.Rejected),
			"evals":      float64(res.Stats.Evaluations),
			"last_step":  res.Stats.LastStep,
			"elapsed_ms": float64(res.Elapsed.Microseconds()) / 1000,
		},
	}
	if res.Conservative {
		meta.Results["energy_drift"] = res.EnergyDrift
	}
	return meta
}

func (res RootResult) Metadata(p root.Params) storage.RunMetadata {
	meta := storage.RunMetadata{
		Kind:    "root",
		Problem: res.Problem,
		Method:  res.Solver,
		Settings: map[string]float64{
			"abs_tol":  p.AbsTol,
			"rel_tol":  p.RelTol,
			"max_iter": float64(p.MaxIter),
		},
		Results: map[string]float64{
			"iterations": float64(res.Iterations),
			"evals":      float64(res.Evaluations),
			"residual":   res.Residual,
			"distance":   res.Distance,
		},
	}
	for i, v := range res.X {
		meta.Results[fmt.Sprintf("x%d", i)] = v
	}
	return meta
}
