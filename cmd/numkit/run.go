package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/numkit/internal/analysis"
	"github.com/san-kum/numkit/internal/experiment"
	"github.com/san-kum/numkit/internal/interp"
	"github.com/san-kum/numkit/internal/viz"
)

var (
	lyapunovDt  float64
	lyapunovDur float64
	lyapunovEps float64
)

func runIntegrate(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	res, runErr := e.runner.RunIntegral(cmd.Context(), args[0])
	if res.Problem == "" {
		return runErr
	}

	fmt.Fprintln(cmd.OutOrStdout(), viz.Report("integral "+res.Problem,
		viz.Field{Key: "engine", Value: e.cfg.Quadrature.Engine},
		viz.Field{Key: "dim", Value: res.Dim},
		viz.Field{Key: "value", Value: res.Value},
		viz.Field{Key: "exact", Value: res.Exact},
		viz.Field{Key: "abs err", Value: res.AbsErr},
		viz.Field{Key: "rel err", Value: res.RelErr()},
		viz.Field{Key: "evals", Value: res.Evals},
		viz.Field{Key: "elapsed", Value: res.Elapsed},
		viz.Field{Key: "status", Value: viz.Status(res.Err)},
	))

	if err := e.persist(cmd, res.Metadata(e.cfg.Quadrature.Engine, e.cfg.Quadrature.Params), nil); err != nil {
		return err
	}
	return runErr
}

func runSweep(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	names := args
	if len(names) == 0 {
		names = e.runner.Registry().ListIntegrals()
	}

	results, runErr := e.runner.Sweep(cmd.Context(), names, parallel)
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PROBLEM\tDIM\tVALUE\tEXACT\tREL ERR\tEVALS\tELAPSED\tSTATUS")
	for _, r := range results {
		if r.Problem == "" {
			continue
		}
		fmt.Fprintf(w, "%s\t%d\t%.10g\t%.10g\t%.2e\t%d\t%s\t%s\n",
			r.Problem, r.Dim, r.Value, r.Exact, r.RelErr(), r.Evals, r.Elapsed, viz.Status(r.Err))
	}
	w.Flush()
	return runErr
}

func runODE(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	res, runErr := e.runner.RunODE(cmd.Context(), args[0])
	if res.Trajectory == nil {
		return runErr
	}

	fields := []viz.Field{
		{Key: "stepper", Value: res.Stepper},
		{Key: "samples", Value: len(res.Trajectory.Times)},
		{Key: "steps", Value: res.Stats.Steps},
		{Key: "rejected", Value: res.Stats.Rejected},
		{Key: "evals", Value: res.Stats.Evaluations},
		{Key: "last step", Value: res.Stats.LastStep},
		{Key: "elapsed", Value: res.Elapsed},
	}
	if res.Conservative {
		fields = append(fields, viz.Field{Key: "energy drift", Value: res.EnergyDrift})
	}
	fields = append(fields, viz.Field{Key: "status", Value: viz.Status(runErr)})

	fmt.Fprintln(cmd.OutOrStdout(), viz.Report("ode "+res.Problem, fields...))
	plotTrajectory(cmd, res.Problem, res.Trajectory.States)

	meta := res.Metadata(e.cfg.ODE.Params)
	if runErr != nil {
		meta.Error = runErr.Error()
	}
	if err := e.persist(cmd, meta, res.Trajectory); err != nil {
		return err
	}
	return runErr
}

func runRoot(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	res, runErr := e.runner.RunRoot(cmd.Context(), args[0])
	if res.Problem == "" {
		return runErr
	}

	fmt.Fprintln(cmd.OutOrStdout(), viz.Report("root "+res.Problem,
		viz.Field{Key: "solver", Value: res.Solver},
		viz.Field{Key: "x", Value: res.X},
		viz.Field{Key: "f(x)", Value: res.F},
		viz.Field{Key: "residual", Value: res.Residual},
		viz.Field{Key: "distance", Value: res.Distance},
		viz.Field{Key: "iterations", Value: res.Iterations},
		viz.Field{Key: "evals", Value: res.Evaluations},
		viz.Field{Key: "status", Value: viz.Status(runErr)},
	))

	meta := res.Metadata(e.cfg.Root.Params)
	if runErr != nil {
		meta.Error = runErr.Error()
	}
	if err := e.persist(cmd, meta, nil); err != nil {
		return err
	}
	return runErr
}

func runInterp(cmd *cobra.Command, args []string) error {
	ip, err := interp.New(interpKind, xs, ys)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if len(at) > 0 {
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "X\tY\tDY/DX")
		for _, x := range at {
			y, err := ip.At(x)
			if err != nil {
				return err
			}
			slope := "-"
			if dy, err := ip.Derivative(x); err == nil {
				slope = fmt.Sprintf("%.10g", dy)
			} else if !errors.Is(err, interp.ErrUnsupported) {
				return err
			}
			fmt.Fprintf(w, "%.10g\t%.10g\t%s\n", x, y, slope)
		}
		w.Flush()
	}

	if cmd.Flags().Changed("from") || cmd.Flags().Changed("to") {
		lo, hi := ip.Domain()
		a, b := lo, hi
		if cmd.Flags().Changed("from") {
			a = from
		}
		if cmd.Flags().Changed("to") {
			b = to
		}
		v, err := ip.Integral(a, b)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "integral [%g, %g] = %.12g\n", a, b, v)
	}

	lo, hi := ip.Domain()
	grid := interp.Linspace(lo, hi, viz.DefaultPlotOptions().Width, true)
	curve := make([]float64, len(grid))
	if err := ip.Interpolate(grid, curve); err != nil {
		return err
	}
	opts := viz.DefaultPlotOptions()
	opts.Caption = fmt.Sprintf("%s on [%g, %g]", ip.Kind(), lo, hi)
	fmt.Fprintln(out, viz.Plot(opts, curve))
	return nil
}

func listProblems(cmd *cobra.Command, args []string) error {
	reg := experiment.NewRegistry()
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KIND\tNAME\tDIM\tDESCRIPTION")
	for _, name := range reg.ListIntegrals() {
		p, _ := reg.GetIntegral(name)
		fmt.Fprintf(w, "integral\t%s\t%d\t%s\n", p.Name, p.Dim(), p.Description)
	}
	for _, name := range reg.ListODEs() {
		p, _ := reg.GetODE(name)
		fmt.Fprintf(w, "ode\t%s\t%d\t%s\n", p.Name, p.System.StateDim(), p.Description)
	}
	for _, name := range reg.ListRoots() {
		p, _ := reg.GetRoot(name)
		fmt.Fprintf(w, "root\t%s\t%d\t%s\n", p.Name, len(p.Guess), p.Description)
	}
	w.Flush()

	fmt.Fprintln(cmd.OutOrStdout())
	fmt.Fprintf(cmd.OutOrStdout(), "interpolation kinds: %v\n", interp.Kinds())
	return nil
}

func runLyapunov(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	p, err := e.runner.Registry().GetODE(args[0])
	if err != nil {
		return err
	}
	duration := lyapunovDur
	if duration <= 0 {
		duration = p.T1 - p.T0
	}

	lambda, err := analysis.LyapunovExponent(p.System, e.cfg.ODE.Stepper, e.cfg.ODE.Params,
		p.Y0, lyapunovDt, duration, lyapunovEps)
	if err != nil {
		return err
	}
	e.logger.Info("lyapunov", "problem", p.Name, "lambda", lambda)

	verdict := viz.Good.Render("stable")
	if lambda > 0.01 {
		verdict = viz.Warn.Render("chaotic")
	}
	fmt.Fprintln(cmd.OutOrStdout(), viz.Report("lyapunov "+p.Name,
		viz.Field{Key: "stepper", Value: e.cfg.ODE.Stepper},
		viz.Field{Key: "duration", Value: duration},
		viz.Field{Key: "lambda", Value: lambda},
		viz.Field{Key: "regime", Value: verdict},
	))
	return nil
}

// plotTrajectory draws each state component against the sample index.
func plotTrajectory(cmd *cobra.Command, name string, states [][]float64) {
	if len(states) == 0 {
		return
	}
	out := cmd.OutOrStdout()
	for j := range states[0] {
		data := make([]float64, len(states))
		for i, s := range states {
			data[i] = s[j]
		}
		opts := viz.DefaultPlotOptions()
		opts.Caption = fmt.Sprintf("%s y%d", name, j)
		fmt.Fprintln(out, viz.Plot(opts, data))
		fmt.Fprintln(out)
	}
}

