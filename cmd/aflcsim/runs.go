package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/aflc/internal/analysis"
	"github.com/san-kum/aflc/internal/config"
	"github.com/san-kum/aflc/internal/dynamo"
	"github.com/san-kum/aflc/internal/sim"
	"github.com/san-kum/aflc/internal/storage"
)

var axisNames = [4]string{"surge", "sway", "heave", "yaw"}

func axisIndex(name string) (int, error) {
	for i, n := range axisNames {
		if n == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown axis %q (want surge, sway, heave or yaw)", name)
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRESET\tTIME\tDURATION\tDT\tINTEG\tRMS\tSTATUS")

	for _, run := range runs {
		status := "ok"
		if run.Error != "" {
			status = "failed"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.4fs\t%s\t%.4f\t%s\n",
			run.ID,
			run.Preset,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Integrator,
			run.Metrics["tracking_rms"],
			status,
		)
	}

	return w.Flush()
}

func series(samples []sim.Sample, get func(sim.Sample) float64) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = get(s)
	}
	return out
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	samples, err := st.LoadSamples(runID)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("preset: %s\n", meta.Preset)
	fmt.Printf("samples: %d\n", len(samples))
	if meta.Error != "" {
		fmt.Printf("error: %s\n", meta.Error)
	}
	fmt.Println()

	for i, name := range axisNames {
		eta := series(samples, func(s sim.Sample) float64 { return s.Eta[i] })
		ref := series(samples, func(s sim.Sample) float64 { return s.Ref[i] })
		tgt := series(samples, func(s sim.Sample) float64 { return s.Target[i] })

		graph := asciigraph.PlotMany([][]float64{tgt, ref, eta},
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.SeriesColors(asciigraph.Red, asciigraph.Green, asciigraph.Blue),
			asciigraph.Caption(fmt.Sprintf("%s: target (red), reference (green), pose (blue)", name)),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	theta := series(samples, func(s sim.Sample) float64 { return floats.Norm(s.Theta[:], 2) })
	fmt.Println(asciigraph.Plot(theta,
		asciigraph.Height(6),
		asciigraph.Width(80),
		asciigraph.Caption("|theta|"),
	))
	fmt.Println()

	if phaseAxis == "" {
		return nil
	}
	axis, err := axisIndex(phaseAxis)
	if err != nil {
		return err
	}
	e := series(samples, func(s sim.Sample) float64 { return s.TrackingError()[axis] })
	sv := series(samples, func(s sim.Sample) float64 { return s.S[axis] })
	portrait := analysis.NewPhasePortrait("e_"+phaseAxis, "s_"+phaseAxis, e, sv)
	fmt.Printf("phase portrait (%s)\n", phaseAxis)
	fmt.Println(portrait.ASCII(60, 20))
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	return storage.New(dataDir).CopySamples(args[0], os.Stdout)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	return storage.New(dataDir).ExportJSON(args[0], os.Stdout)
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tBETA\tC1\tGAMMA\tTHETA0\tTARGET")
	for _, name := range config.ListPresets() {
		c := config.GetPreset(name)
		seed := "zero"
		if c.Controller.NominalTheta0 {
			seed = "nominal"
		}
		target := "waypoints"
		if len(c.Waypoints) == 0 {
			var t dynamo.Vec4
			copy(t[:], c.Target)
			target = t.String()
		}
		if c.HeadingHold {
			target += " (heading hold)"
		}
		fmt.Fprintf(w, "%s\t%v\t%v\t%g\t%s\t%s\n",
			name,
			c.Controller.Beta,
			c.Controller.C1,
			c.Controller.Gamma,
			seed,
			target,
		)
	}
	return w.Flush()
}

func initConfig(cmd *cobra.Command, args []string) error {
	path := args[0]
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}

	name := presetName()
	cfg := config.GetPreset(name)
	if cfg == nil {
		return fmt.Errorf("unknown preset: %s (available: %v)", name, config.ListPresets())
	}
	if err := config.Save(path, cfg); err != nil {
		return err
	}
	fmt.Printf("wrote %s preset to %s\n", name, path)
	return nil
}
