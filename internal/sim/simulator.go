package sim

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/charmbracelet/log"

	"github.com/san-kum/aflc/internal/aflc"
	"github.com/san-kum/aflc/internal/dynamo"
	"github.com/san-kum/aflc/internal/physics"
	"github.com/san-kum/aflc/internal/vehicle"
)

var ErrScenario = errors.New("sim: invalid scenario")

// Simulator closes the loop between an aflc.Controller, bound through
// vehicle.NonLinearControl, and a simulated UUV.
type Simulator struct {
	plant      *physics.UUV
	integrator dynamo.Integrator
	gains      aflc.Gains
	log        *log.Logger
	mirror     vehicle.ActuatorSink
	metrics    []Metric
	observers  []Observer
}

func New(plant *physics.UUV, integrator dynamo.Integrator, gains aflc.Gains) *Simulator {
	return &Simulator{
		plant:      plant,
		integrator: integrator,
		gains:      gains,
		log:        log.Default(),
		metrics:    make([]Metric, 0),
		observers:  make([]Observer, 0),
	}
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) SetLogger(l *log.Logger) {
	if l != nil {
		s.log = l
	}
}

// Mirror forwards every command sent to the simulated thrusters to sink as
// well, e.g. a CAN bus for hardware-in-the-loop runs.
func (s *Simulator) Mirror(sink vehicle.ActuatorSink) { s.mirror = sink }

func (s *Simulator) Run(ctx context.Context, sc Scenario) (*Result, error) {
	return s.RunWithCallback(ctx, sc, nil)
}

func (s *Simulator) validate(sc *Scenario) error {
	if sc.Dt == 0 {
		sc.Dt = s.gains.Dt
	}
	if sc.Substeps == 0 {
		sc.Substeps = 1
	}
	switch {
	case !(sc.Dt > 0):
		return fmt.Errorf("%w: dt must be positive, got %f", ErrScenario, sc.Dt)
	case !(sc.Duration > 0):
		return fmt.Errorf("%w: duration must be positive, got %f", ErrScenario, sc.Duration)
	case sc.Substeps < 0:
		return fmt.Errorf("%w: substeps must be positive, got %d", ErrScenario, sc.Substeps)
	case len(sc.Initial) != s.plant.StateDim():
		return fmt.Errorf("%w: initial state has %d entries, want %d", ErrScenario, len(sc.Initial), s.plant.StateDim())
	case !sc.Initial.IsValid():
		return fmt.Errorf("%w: %w", ErrScenario, dynamo.ErrInvalidState)
	}
	return nil
}

type teeSink []vehicle.ActuatorSink

func (t teeSink) Actuate(cmd vehicle.Command) error {
	var errs []error
	for _, sink := range t {
		if err := sink.Actuate(cmd); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RunWithCallback runs sc and calls fn after every tick. Returning false from
// fn stops the run early without error.
func (s *Simulator) RunWithCallback(ctx context.Context, sc Scenario, fn func(Sample) bool) (*Result, error) {
	if err := s.validate(&sc); err != nil {
		return nil, err
	}

	gains := s.gains
	gains.Dt = sc.Dt
	ctrl, err := aflc.New(gains)
	if err != nil {
		return nil, err
	}

	uMax := math.Max(math.Abs(gains.UUpper), math.Abs(gains.ULower))
	veh := NewVehicle(s.plant, sc.Initial, uMax)
	sched := newSchedule(sc, veh)

	var sink vehicle.ActuatorSink = veh
	if s.mirror != nil {
		sink = teeSink{veh, s.mirror}
	}
	nlc, err := vehicle.NewNonLinearControl(ctrl, vehicle.Bindings{
		Orientation: veh,
		Motion:      veh,
		Target:      sched,
		Sink:        sink,
	}, s.log)
	if err != nil {
		return nil, err
	}
	if err := nlc.Init(); err != nil {
		return nil, err
	}

	steps := int(math.Round(sc.Duration / sc.Dt))
	result := &Result{
		Scenario: sc.Name,
		Samples:  make([]Sample, 0, steps),
		Metrics:  make(map[string]float64),
	}
	for _, m := range s.metrics {
		m.Reset()
	}

	s.log.Debug("run started", "scenario", sc.Name, "steps", steps, "dt", sc.Dt)

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			s.finish(result, nlc, veh)
			return result, ctx.Err()
		default:
		}

		t := float64(i) * sc.Dt
		sched.now = t

		nlc.UpdateState()
		nlc.UpdateTarget()
		tickErr := nlc.Update()
		if err := nlc.Output(); err != nil {
			s.finish(result, nlc, veh)
			return result, SimError{Time: t, Step: i, Err: err}
		}

		in := nlc.Input()
		sample := Sample{
			T:         t,
			Eta:       in.Eta,
			Ref:       ctrl.RefPosition(),
			Target:    in.Target,
			U:         ctrl.ControlInput(),
			S:         ctrl.Surface(),
			Theta:     ctrl.Theta(),
			Saturated: ctrl.Saturated(),
			Held:      tickErr != nil,
			Command:   nlc.Command(),
		}
		for _, m := range s.metrics {
			m.Observe(sample)
		}
		for _, obs := range s.observers {
			obs.OnSample(sample)
		}
		result.Samples = append(result.Samples, sample)
		result.StepsTaken++

		if err := veh.Advance(s.integrator, t, sc.Dt, sc.Substeps); err != nil {
			s.finish(result, nlc, veh)
			return result, SimError{Time: t, Step: i, Err: err}
		}

		if fn != nil && !fn(sample) {
			break
		}
	}

	s.finish(result, nlc, veh)
	s.log.Debug("run finished", "scenario", sc.Name, "held", result.Stats.HeldOutputs)
	return result, nil
}

func (s *Simulator) finish(result *Result, nlc *vehicle.NonLinearControl, veh *Vehicle) {
	result.Stats = nlc.Stats()
	result.Energy = s.plant.Energy(veh.State())
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}
