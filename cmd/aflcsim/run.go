package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/aflc/internal/actuator"
	"github.com/san-kum/aflc/internal/config"
	"github.com/san-kum/aflc/internal/integrators"
	"github.com/san-kum/aflc/internal/metrics"
	"github.com/san-kum/aflc/internal/sim"
	"github.com/san-kum/aflc/internal/storage"
)

func buildSim(cfg *config.Config) (*sim.Simulator, sim.Scenario, error) {
	plant, err := cfg.UUV()
	if err != nil {
		return nil, sim.Scenario{}, err
	}
	integ, err := integrators.New(cfg.Integrator)
	if err != nil {
		return nil, sim.Scenario{}, err
	}
	gains, err := cfg.Gains()
	if err != nil {
		return nil, sim.Scenario{}, err
	}
	sc, err := cfg.Scenario()
	if err != nil {
		return nil, sim.Scenario{}, err
	}

	s := sim.New(plant, integ, gains)
	s.SetLogger(logger.WithPrefix(cfg.Name))
	for _, m := range metrics.Standard() {
		s.AddMetric(m)
	}
	return s, sc, nil
}

func presetName() string {
	if preset == "" {
		return "ardusub"
	}
	return preset
}

func lastTarget(cfg *config.Config) [4]float64 {
	var t [4]float64
	if n := len(cfg.Waypoints); n > 0 {
		wp := cfg.Waypoints[n-1]
		t = [4]float64{wp.Position.X, wp.Position.Y, wp.Position.Z, wp.Yaw}
	} else {
		copy(t[:], cfg.Target)
	}
	return t
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	s, sc, err := buildSim(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.CAN.Interface != "" {
		sink, err := actuator.Dial(ctx, cfg.CAN.Interface, cfg.CAN.BaseID)
		if err != nil {
			return fmt.Errorf("can %s: %w", cfg.CAN.Interface, err)
		}
		defer sink.Close()
		s.Mirror(sink)
		logger.Info("mirroring commands", "iface", cfg.CAN.Interface, "base_id", fmt.Sprintf("%#x", cfg.CAN.BaseID))
	}

	fmt.Printf("running %s (%s, dt=%g, %gs)...\n", cfg.Name, cfg.Integrator, cfg.Dt, cfg.Duration)
	start := time.Now()
	result, runErr := s.Run(ctx, sc)
	elapsed := time.Since(start)
	if result == nil {
		return runErr
	}

	meta := storage.RunMetadata{
		Scenario:   cfg.Name,
		Preset:     presetName(),
		Timestamp:  start,
		Dt:         cfg.Dt,
		Duration:   cfg.Duration,
		Substeps:   cfg.Substeps,
		Integrator: cfg.Integrator,
		Target:     lastTarget(cfg),
	}
	if runErr != nil {
		meta.Error = runErr.Error()
	}

	store := storage.New(dataDir)
	runID, err := store.Save(meta, result)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("ticks: %d (held %d)\n", result.Stats.Ticks, result.Stats.HeldOutputs)
	final := result.Final()
	fmt.Printf("final pose: %v\n", final.Eta)
	fmt.Printf("target err: %.4f\n", final.TargetError().Norm())
	printMetrics(result.Metrics)

	if runErr != nil {
		return fmt.Errorf("run stopped early: %w", runErr)
	}
	return nil
}

func printMetrics(m map[string]float64) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, m[name])
	}
}

func runSweep(cmd *cobra.Command, args []string) error {
	names := sweepPresets
	if len(names) == 0 {
		names = config.ListPresets()
	}

	// Flags apply on top of each preset in turn.
	saved := preset
	defer func() { preset = saved }()

	jobs := make([]sim.Job, 0, len(names))
	for _, name := range names {
		preset = name
		cfg, err := resolveConfig(cmd)
		if err != nil {
			return fmt.Errorf("preset %s: %w", name, err)
		}
		s, sc, err := buildSim(cfg)
		if err != nil {
			return fmt.Errorf("preset %s: %w", name, err)
		}
		jobs = append(jobs, sim.Job{Name: name, Sim: s, Scenario: sc})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("sweeping %d presets...\n\n", len(jobs))
	results, err := sim.RunBatch(ctx, jobs)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tTRACKING_RMS\tMAX_ERR\tEFFORT\tSATURATED\tTARGET_ERR")
	for i, r := range results {
		fmt.Fprintf(w, "%s\t%.4f\t%.4f\t%.3f\t%.1f%%\t%.4f\n",
			jobs[i].Name,
			r.Metrics["tracking_rms"],
			r.Metrics["max_tracking_error"],
			r.Metrics["control_effort"],
			100*r.Metrics["saturation_ratio"],
			r.Final().TargetError().Norm(),
		)
	}
	return w.Flush()
}
