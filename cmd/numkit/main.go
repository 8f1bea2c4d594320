package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/san-kum/numkit/internal/config"
	"github.com/san-kum/numkit/internal/experiment"
	"github.com/san-kum/numkit/internal/logging"
	"github.com/san-kum/numkit/internal/ode"
	"github.com/san-kum/numkit/internal/quad"
	"github.com/san-kum/numkit/internal/storage"
)

var (
	configFile string
	preset     string
	dataDir    string
	logLevel   string
	save       bool

	// quadrature
	engine   string
	absTol   float64
	relTol   float64
	maxEval  int
	limit    int
	ruleName string
	parallel int

	// ode and root
	stepper string
	samples int
	solver  string

	// interp
	interpKind string
	xs, ys     []float64
	at         []float64
	from, to   float64

	// stored runs
	variable     int
	exportFormat string
	exportPath   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "numkit",
		Short:         "nested quadrature, ODE and root-finding workbench",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "YAML configuration file")
	pf.StringVar(&preset, "preset", "", "tolerance preset (coarse, default, fine)")
	pf.StringVar(&dataDir, "data", "", "run directory (overrides data_dir)")
	pf.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	integrateCmd := &cobra.Command{
		Use:   "integrate [problem]",
		Short: "integrate a catalogued problem over its box",
		Args:  cobra.ExactArgs(1),
		RunE:  runIntegrate,
	}
	addQuadFlags(integrateCmd)
	integrateCmd.Flags().BoolVar(&save, "save", false, "store the run")

	sweepCmd := &cobra.Command{
		Use:   "sweep [problem...]",
		Short: "integrate several problems concurrently (all when none given)",
		RunE:  runSweep,
	}
	addQuadFlags(sweepCmd)
	sweepCmd.Flags().IntVar(&parallel, "parallel", 4, "maximum concurrent integrations")

	odeCmd := &cobra.Command{
		Use:   "ode [problem]",
		Short: "solve a catalogued initial value problem",
		Args:  cobra.ExactArgs(1),
		RunE:  runODE,
	}
	odeCmd.Flags().StringVar(&stepper, "stepper", "", "stepper kind")
	odeCmd.Flags().IntVar(&samples, "samples", 0, "number of output samples")
	odeCmd.Flags().Float64Var(&absTol, "abs-tol", 0, "absolute tolerance")
	odeCmd.Flags().Float64Var(&relTol, "rel-tol", 0, "relative tolerance")
	odeCmd.Flags().BoolVar(&save, "save", false, "store the trajectory")

	rootFindCmd := &cobra.Command{
		Use:   "root [problem]",
		Short: "solve a catalogued nonlinear system",
		Args:  cobra.ExactArgs(1),
		RunE:  runRoot,
	}
	rootFindCmd.Flags().StringVar(&solver, "solver", "", "solver kind (newton, hybrid, hybrids, broyden)")
	rootFindCmd.Flags().Float64Var(&absTol, "abs-tol", 0, "absolute tolerance")
	rootFindCmd.Flags().Float64Var(&relTol, "rel-tol", 0, "relative tolerance")
	rootFindCmd.Flags().BoolVar(&save, "save", false, "store the run")

	interpCmd := &cobra.Command{
		Use:   "interp",
		Short: "fit an interpolant to tabulated data",
		RunE:  runInterp,
	}
	interpCmd.Flags().StringVar(&interpKind, "kind", "steffen", "interpolation kind")
	interpCmd.Flags().Float64SliceVar(&xs, "x", nil, "abscissae, strictly increasing")
	interpCmd.Flags().Float64SliceVar(&ys, "y", nil, "values")
	interpCmd.Flags().Float64SliceVar(&at, "at", nil, "evaluation points")
	interpCmd.Flags().Float64Var(&from, "from", 0, "lower integration bound")
	interpCmd.Flags().Float64Var(&to, "to", 0, "upper integration bound")
	_ = interpCmd.MarkFlagRequired("x")
	_ = interpCmd.MarkFlagRequired("y")

	problemsCmd := &cobra.Command{
		Use:   "problems",
		Short: "list catalogued problems",
		RunE:  listProblems,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list tolerance presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "presets:")
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Fprintf(out, "  %-8s quad %s abs=%g rel=%g  ode %s abs=%g  root abs=%g\n",
					name, p.Quadrature.Rule, p.Quadrature.AbsTol, p.Quadrature.RelTol,
					p.ODE.Stepper, p.ODE.AbsTol, p.Root.AbsTol)
			}
			return nil
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored trajectory",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	spectrumCmd := &cobra.Command{
		Use:   "spectrum [run_id]",
		Short: "power spectrum of one trajectory component",
		Args:  cobra.ExactArgs(1),
		RunE:  spectrumRun,
	}
	spectrumCmd.Flags().IntVar(&variable, "var", 0, "state component")

	lyapunovCmd := &cobra.Command{
		Use:   "lyapunov [problem]",
		Short: "largest Lyapunov exponent of an ODE problem",
		Args:  cobra.ExactArgs(1),
		RunE:  runLyapunov,
	}
	lyapunovCmd.Flags().StringVar(&stepper, "stepper", "", "stepper kind")
	lyapunovCmd.Flags().Float64Var(&lyapunovDt, "dt", 0.1, "renormalization interval")
	lyapunovCmd.Flags().Float64Var(&lyapunovDur, "duration", 0, "integration time (default: problem span)")
	lyapunovCmd.Flags().Float64Var(&lyapunovEps, "perturbation", 1e-8, "initial separation")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a stored run as JSON or CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVar(&exportFormat, "format", "json", "json or csv")
	exportCmd.Flags().StringVarP(&exportPath, "output", "o", "", "output file (default stdout)")

	rootCmd.AddCommand(integrateCmd, sweepCmd, odeCmd, rootFindCmd, interpCmd, problemsCmd,
		presetsCmd, listCmd, plotCmd, spectrumCmd, lyapunovCmd, exportCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func addQuadFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&engine, "engine", "", "quadrature engine (qag, qng)")
	f.Float64Var(&absTol, "abs-tol", 0, "absolute tolerance")
	f.Float64Var(&relTol, "rel-tol", 0, "relative tolerance")
	f.IntVar(&maxEval, "max-eval", 0, "evaluation budget per scalar integration")
	f.IntVar(&limit, "limit", 0, "subinterval limit")
	f.StringVar(&ruleName, "rule", "", "Gauss-Legendre rule (gl15 ... gl61)")
}

// loadConfig starts from the defaults or the named preset, replaces them
// with the config file when one is given, then applies changed flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	switch cmd.Name() {
	case "integrate", "sweep":
		if flags.Changed("engine") {
			cfg.Quadrature.Engine = engine
		}
		if flags.Changed("abs-tol") {
			cfg.Quadrature.AbsTol = absTol
		}
		if flags.Changed("rel-tol") {
			cfg.Quadrature.RelTol = relTol
		}
		if flags.Changed("max-eval") {
			cfg.Quadrature.MaxEval = maxEval
		}
		if flags.Changed("limit") {
			cfg.Quadrature.Limit = limit
		}
		if flags.Changed("rule") {
			var r quad.Rule
			if err := r.UnmarshalText([]byte(ruleName)); err != nil {
				return nil, err
			}
			cfg.Quadrature.Rule = r
		}
	case "ode", "lyapunov":
		if flags.Changed("stepper") {
			cfg.ODE.Stepper = stepper
		}
		if flags.Changed("samples") {
			cfg.ODE.Samples = samples
		}
		if flags.Changed("abs-tol") {
			cfg.ODE.AbsTol = absTol
		}
		if flags.Changed("rel-tol") {
			cfg.ODE.RelTol = relTol
		}
	case "root":
		if flags.Changed("solver") {
			cfg.Root.Solver = solver
		}
		if flags.Changed("abs-tol") {
			cfg.Root.AbsTol = absTol
		}
		if flags.Changed("rel-tol") {
			cfg.Root.RelTol = relTol
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

type env struct {
	cfg    *config.Config
	logger *slog.Logger
	runner *experiment.Runner
	store  *storage.Store
}

func setup(cmd *cobra.Command) (*env, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Log, os.Stderr)
	if err != nil {
		return nil, err
	}
	runner, err := experiment.NewRunner(cfg, experiment.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	return &env{
		cfg:    cfg,
		logger: logger,
		runner: runner,
		store:  storage.New(cfg.DataDir),
	}, nil
}

// persist stores a run when --save is set and reports its ID.
func (e *env) persist(cmd *cobra.Command, meta storage.RunMetadata, traj *ode.Trajectory) error {
	if !save {
		return nil
	}
	if err := e.store.Init(); err != nil {
		return err
	}
	id, err := e.store.Save(meta, traj)
	if err != nil {
		return err
	}
	e.logger.Info("saved run", "id", id, "dir", e.store.Dir())
	fmt.Fprintf(cmd.OutOrStdout(), "run: %s\n", id)
	return nil
}
