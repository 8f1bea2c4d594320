package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/numkit/internal/analysis"
	"github.com/san-kum/numkit/internal/storage"
	"github.com/san-kum/numkit/internal/viz"
)

func openStore(cmd *cobra.Command) (*storage.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return storage.New(cfg.DataDir), nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	runs, err := store.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no runs found")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKIND\tPROBLEM\tMETHOD\tTIMESTAMP\tSTATUS")
	for _, run := range runs {
		status := "ok"
		if run.Error != "" {
			status = run.Error
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			run.ID, run.Kind, run.Problem, run.Method,
			run.Timestamp.Format("2006-01-02 15:04:05"), status)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	meta, err := store.Load(args[0])
	if err != nil {
		return err
	}
	traj, err := store.LoadTrajectory(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s), %d samples\n\n",
		meta.Kind, meta.Problem, meta.Method, len(traj.Times))
	plotTrajectory(cmd, meta.Problem, traj.States)
	return nil
}

func spectrumRun(cmd *cobra.Command, args []string) error {
	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	traj, err := store.LoadTrajectory(args[0])
	if err != nil {
		return err
	}
	if len(traj.Times) < 2 {
		return fmt.Errorf("%w: %d samples", analysis.ErrTooShort, len(traj.Times))
	}
	if variable < 0 || variable >= len(traj.States[0]) {
		return fmt.Errorf("state component %d out of range [0, %d)", variable, len(traj.States[0]))
	}

	data := make([]float64, len(traj.States))
	for i, s := range traj.States {
		data[i] = s[variable]
	}
	dt := (traj.Times[len(traj.Times)-1] - traj.Times[0]) / float64(len(traj.Times)-1)
	freq, err := analysis.DominantFrequency(data, dt)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	power := analysis.PowerSpectrum(data)
	opts := viz.DefaultPlotOptions()
	opts.Caption = fmt.Sprintf("power spectrum of y%d", variable)
	fmt.Fprintln(out, viz.Plot(opts, power))
	fmt.Fprintln(out)
	fmt.Fprintln(out, viz.Report("spectrum "+args[0],
		viz.Field{Key: "samples", Value: len(data)},
		viz.Field{Key: "dt", Value: dt},
		viz.Field{Key: "dominant", Value: freq},
		viz.Field{Key: "period", Value: 1 / freq},
		viz.Field{Key: "shape", Value: viz.Sparkline(power, 40)},
	))
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	meta, err := store.Load(args[0])
	if err != nil {
		return err
	}

	var w io.Writer = cmd.OutOrStdout()
	if exportPath != "" {
		f, err := os.Create(exportPath)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	switch exportFormat {
	case "json":
		traj, err := store.LoadTrajectory(args[0])
		if errors.Is(err, storage.ErrNoTrajectory) {
			traj = nil
		} else if err != nil {
			return err
		}
		return storage.ExportJSON(w, meta, traj)
	case "csv":
		traj, err := store.LoadTrajectory(args[0])
		if err != nil {
			return err
		}
		return storage.WriteCSV(w, traj)
	default:
		return fmt.Errorf("unknown export format: %s (json, csv)", exportFormat)
	}
}
