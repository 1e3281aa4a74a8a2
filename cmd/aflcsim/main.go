package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/san-kum/aflc/internal/config"
)

var (
	dataDir  string
	logLevel string
	logFile  string

	configFile  string
	preset      string
	integrator  string
	dt          float64
	duration    float64
	substeps    int
	target      string
	headingHold bool
	canIface    string

	// plot
	phaseAxis string

	// step
	closedLoop bool
	band       float64

	// live
	speed     float64
	themeName string

	// sweep
	sweepPresets []string

	// tune
	tuneParams []string
	tuneMetric string
	tuneTop    int

	// robust
	robustTrials int
	robustSpread float64
	robustSeed   int64
	robustTol    float64

	// export-svg
	svgWidth  int
	svgHeight int

	// config init
	force bool
)

var logger = log.Default()

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "aflcsim",
		Short:        "adaptive feedback linearization control of a 4-DOF underwater vehicle",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging()
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".aflcsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write logs to a rotating file instead of stderr")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "simulate a scenario and save the run",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addScenarioFlags(runCmd)
	runCmd.Flags().StringVar(&canIface, "can", "", "mirror commands to a SocketCAN interface (e.g. vcan0)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot pose, reference and target of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&phaseAxis, "phase", "", "also draw the (e, s) phase portrait of an axis (surge, sway, heave, yaw)")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "write the samples of a run as CSV to stdout",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "write a run as JSON to stdout",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list controller presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "configuration files",
	}
	configInitCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write a preset as a YAML config file",
		Args:  cobra.ExactArgs(1),
		RunE:  initConfig,
	}
	configInitCmd.Flags().StringVar(&preset, "preset", "", "preset to write (default ardusub)")
	configInitCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	configCmd.AddCommand(configInitCmd)

	stepCmd := &cobra.Command{
		Use:   "step",
		Short: "step response of the reference model, or of the closed loop",
		Args:  cobra.NoArgs,
		RunE:  stepResponse,
	}
	addScenarioFlags(stepCmd)
	stepCmd.Flags().BoolVar(&closedLoop, "closed-loop", false, "measure the simulated vehicle instead of the reference model")
	stepCmd.Flags().Float64Var(&band, "band", 0.02, "settling band as a fraction of the step")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "watch a closed-loop run in the terminal",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addScenarioFlags(liveCmd)
	liveCmd.Flags().Float64Var(&speed, "speed", 1, "playback speed relative to real time")
	liveCmd.Flags().StringVar(&themeName, "theme", "ocean", "color theme")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "run one scenario under several presets concurrently and compare",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	addScenarioFlags(sweepCmd)
	sweepCmd.Flags().StringSliceVar(&sweepPresets, "presets", nil, "presets to compare (default: all)")

	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "grid-search controller gains against a metric",
		Args:  cobra.NoArgs,
		RunE:  runTune,
	}
	addScenarioFlags(tuneCmd)
	tuneCmd.Flags().StringArrayVar(&tuneParams, "param", nil, fmt.Sprintf("knob=v1,v2,... (repeatable; knobs: %s)", strings.Join(config.TuningKnobs(), ", ")))
	tuneCmd.Flags().StringVar(&tuneMetric, "metric", "tracking_rms", "metric to minimise")
	tuneCmd.Flags().IntVar(&tuneTop, "top", 10, "candidates to print")
	_ = tuneCmd.MarkFlagRequired("param")

	robustCmd := &cobra.Command{
		Use:   "robust",
		Short: "Monte Carlo over plant uncertainty with the nominal tuning",
		Args:  cobra.NoArgs,
		RunE:  runRobust,
	}
	addScenarioFlags(robustCmd)
	robustCmd.Flags().IntVar(&robustTrials, "trials", 20, "number of perturbed plants")
	robustCmd.Flags().Float64Var(&robustSpread, "spread", 0.2, "relative parameter spread, e.g. 0.2 for ±20%")
	robustCmd.Flags().Int64Var(&robustSeed, "seed", 1, "random seed")
	robustCmd.Flags().Float64Var(&robustTol, "tol", 0.05, "final target error counted as converged")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "write the top-down path of a run as SVG to stdout",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().IntVar(&svgWidth, "width", 800, "image width in pixels")
	exportSVGCmd.Flags().IntVar(&svgHeight, "height", 600, "image height in pixels")
	exportSVGCmd.Flags().StringVar(&themeName, "theme", "ocean", "color theme")

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, exportCSVCmd, exportJSONCmd, exportSVGCmd, presetsCmd, configCmd,
		stepCmd, liveCmd, sweepCmd, tuneCmd, robustCmd)
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func addScenarioFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "preset configuration (see presets)")
	cmd.Flags().StringVar(&integrator, "integrator", "rk4", "plant integrator (euler, rk4, rk45)")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "control period in seconds")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration in seconds")
	cmd.Flags().IntVar(&substeps, "substeps", config.DefaultSubsteps, "plant integration steps per control period")
	cmd.Flags().StringVar(&target, "target", "", "target pose x,y,z,yaw")
	cmd.Flags().BoolVar(&headingHold, "heading-hold", false, "hold the current heading instead of the target yaw")
}

func setupLogging() error {
	level, err := log.ParseLevel(logLevel)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stderr
	if logFile != "" {
		w = &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    10, // MB
			MaxBackups: 3,
			MaxAge:     28, // days
		}
	}

	logger = log.NewWithOptions(w, log.Options{
		Level:           level,
		ReportTimestamp: logFile != "",
		Prefix:          "aflcsim",
	})
	log.SetDefault(logger)
	return nil
}

func parseTarget(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("target needs x,y,z,yaw, got %q", s)
	}
	out := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("target %q: %w", s, err)
		}
		out[i] = v
	}
	return out, nil
}

// resolveConfig applies, in order: preset, config file, changed flags.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		loaded, err := config.LoadOver(configFile, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Duration = duration
	}
	if flags.Changed("substeps") {
		cfg.Substeps = substeps
	}
	if flags.Changed("target") {
		t, err := parseTarget(target)
		if err != nil {
			return nil, err
		}
		cfg.Target = t
		cfg.Waypoints = nil
	}
	if flags.Changed("heading-hold") {
		cfg.HeadingHold = headingHold
	}
	if flags.Changed("can") {
		cfg.CAN.Interface = canIface
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
