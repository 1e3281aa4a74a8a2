package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/aflc/internal/export"
	"github.com/san-kum/aflc/internal/integrators"
	"github.com/san-kum/aflc/internal/metrics"
	"github.com/san-kum/aflc/internal/optim"
	"github.com/san-kum/aflc/internal/physics"
	"github.com/san-kum/aflc/internal/sim"
	"github.com/san-kum/aflc/internal/storage"
	"github.com/san-kum/aflc/internal/viz"
)

// parseGrid turns repeated name=v1,v2,... flags into search axes, sorted by
// name so the grid order does not depend on flag order.
func parseGrid(specs []string) ([]string, [][]float64, error) {
	axes := make(map[string][]float64, len(specs))
	for _, spec := range specs {
		name, list, ok := strings.Cut(spec, "=")
		if !ok || name == "" {
			return nil, nil, fmt.Errorf("param %q: want name=v1,v2,...", spec)
		}
		if _, dup := axes[name]; dup {
			return nil, nil, fmt.Errorf("param %s given twice", name)
		}
		var vals []float64
		for _, f := range strings.Split(list, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
			if err != nil {
				return nil, nil, fmt.Errorf("param %s: %w", name, err)
			}
			vals = append(vals, v)
		}
		axes[name] = vals
	}

	names := make([]string, 0, len(axes))
	for n := range axes {
		names = append(names, n)
	}
	sort.Strings(names)
	ranges := make([][]float64, len(names))
	for i, n := range names {
		ranges[i] = axes[n]
	}
	return names, ranges, nil
}

func runTune(cmd *cobra.Command, args []string) error {
	base, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	names, ranges, err := parseGrid(tuneParams)
	if err != nil {
		return err
	}
	grid, err := optim.NewGridSearch(names, ranges)
	if err != nil {
		return err
	}

	build := func(params map[string]float64) (*sim.Simulator, sim.Scenario, error) {
		cfg := base.Clone()
		for name, v := range params {
			if err := cfg.SetParam(name, v); err != nil {
				return nil, sim.Scenario{}, err
			}
		}
		if err := cfg.Validate(); err != nil {
			return nil, sim.Scenario{}, err
		}
		return buildSim(cfg)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("tuning %s over %d candidates by %s...\n\n", base.Name, grid.Size(), tuneMetric)
	cands, err := grid.Search(ctx, build, tuneMetric)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "RANK\t%s\t%s\n", strings.ToUpper(strings.Join(names, "\t")), strings.ToUpper(tuneMetric))
	for i, c := range cands {
		if i == tuneTop {
			break
		}
		vals := make([]string, len(names))
		for k, n := range names {
			vals[k] = strconv.FormatFloat(c.Params[n], 'g', -1, 64)
		}
		score := fmt.Sprintf("%.6f", c.Score)
		if c.Err != nil {
			score = "failed: " + c.Err.Error()
		}
		fmt.Fprintf(w, "%d\t%s\t%s\n", i+1, strings.Join(vals, "\t"), score)
	}
	return w.Flush()
}

func runRobust(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	nominal, err := cfg.UUV()
	if err != nil {
		return err
	}
	gains, err := cfg.Gains()
	if err != nil {
		return err
	}
	sc, err := cfg.Scenario()
	if err != nil {
		return err
	}

	// The controller keeps the tuning derived from the nominal vehicle.
	build := func(plant *physics.UUV) (*sim.Simulator, sim.Scenario, error) {
		integ, err := integrators.New(cfg.Integrator)
		if err != nil {
			return nil, sim.Scenario{}, err
		}
		s := sim.New(plant, integ, gains)
		s.SetLogger(logger.WithPrefix("robust"))
		for _, m := range metrics.Standard() {
			s.AddMetric(m)
		}
		return s, sc, nil
	}

	mc := optim.MonteCarlo{
		Trials:    robustTrials,
		Spread:    robustSpread,
		Seed:      robustSeed,
		Tolerance: robustTol,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("monte carlo: %d trials, ±%.0f%% plant spread, seed %d\n\n", mc.Trials, 100*mc.Spread, mc.Seed)
	trials, err := mc.Run(ctx, nominal, build)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TRIAL\tMASS\tBUOYANCY\tLIN_DAMP_U\tOUTCOME\tTARGET_ERR\tTRACKING_RMS")
	for _, t := range trials {
		fmt.Fprintf(w, "%d\t%.2f\t%.2f\t%.2f\t%s\t%.4f\t%.4f\n",
			t.ID,
			t.Plant["mass"],
			t.Plant["buoyancy"],
			t.Plant["lin_damp_u"],
			t.Outcome,
			t.TargetError,
			t.Metrics["tracking_rms"],
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	sum := optim.Summarize(trials)
	fmt.Printf("\nconverged %d, bounded %d, diverged %d (worst target err %.4f)\n",
		sum.Converged, sum.Bounded, sum.Diverged, sum.WorstError)
	return nil
}

func exportSVG(cmd *cobra.Command, args []string) error {
	samples, err := storage.New(dataDir).LoadSamples(args[0])
	if err != nil {
		return err
	}
	return export.WriteTrajectorySVG(os.Stdout, samples, svgWidth, svgHeight, viz.GetTheme(themeName))
}
