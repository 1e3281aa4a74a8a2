package vehicle

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/charmbracelet/log"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/aflc/internal/aflc"
	"github.com/san-kum/aflc/internal/dynamo"
)

// ErrUnbound is returned when a required capability was not provided.
var ErrUnbound = errors.New("vehicle: capability not bound")

// Bindings groups the capabilities a NonLinearControl reads from and writes
// to.
type Bindings struct {
	Orientation OrientationSource
	Motion      PositionVelocitySource
	Target      TargetSource
	Sink        ActuatorSink
}

func (b Bindings) validate() error {
	switch {
	case b.Orientation == nil:
		return fmt.Errorf("orientation: %w", ErrUnbound)
	case b.Motion == nil:
		return fmt.Errorf("position/velocity: %w", ErrUnbound)
	case b.Target == nil:
		return fmt.Errorf("target: %w", ErrUnbound)
	case b.Sink == nil:
		return fmt.Errorf("actuator sink: %w", ErrUnbound)
	}
	return nil
}

// Stats counts degraded ticks since construction.
type Stats struct {
	Ticks        uint64
	HeldOutputs  uint64 // controller ticks that failed; previous output kept
	HeldYawRates uint64 // attitude at gimbal lock; previous ψ̇ kept
}

// NonLinearControl runs an aflc.Controller against live vehicle data.
type NonLinearControl struct {
	ctrl *aflc.Controller
	bind Bindings
	log  *log.Logger

	uMax float64

	in      aflc.TickInput
	yawRate float64
	cmd     Command
	stats   Stats
}

// NewNonLinearControl binds ctrl to the vehicle. A nil logger uses
// log.Default().
func NewNonLinearControl(ctrl *aflc.Controller, bind Bindings, logger *log.Logger) (*NonLinearControl, error) {
	if ctrl == nil {
		return nil, fmt.Errorf("controller: %w", ErrUnbound)
	}
	if err := bind.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}
	g := ctrl.Gains()
	return &NonLinearControl{
		ctrl: ctrl,
		bind: bind,
		log:  logger,
		uMax: math.Max(math.Abs(g.UUpper), math.Abs(g.ULower)),
		cmd:  Command{Throttle: 0.5},
	}, nil
}

// Init seeds the reference model with the current pose and rates so the
// controller starts relaxed.
func (n *NonLinearControl) Init() error {
	n.UpdateState()
	return n.ctrl.InitReferenceModel(n.in.Eta, n.in.DEta)
}

// UpdateState samples the sources into η, η̇ and ν.
func (n *NonLinearControl) UpdateState() {
	att := n.bind.Orientation.Attitude()
	pos := n.bind.Motion.Position()
	vel := n.bind.Motion.Velocity()

	if rates, ok := AngVelToEulerRate(att, att.Gyro); ok {
		n.yawRate = rates.Z
	} else {
		n.stats.HeldYawRates++
		n.log.Warn("euler rate undefined, holding yaw rate", "pitch", att.Pitch, "yaw_rate", n.yawRate)
	}

	body := NewRotation(att.Roll, att.Pitch, att.Yaw).EarthToBody(vel)

	n.in.Eta = dynamo.Vec4{pos.X, pos.Y, pos.Z, att.Yaw}
	n.in.DEta = dynamo.Vec4{vel.X, vel.Y, vel.Z, n.yawRate}
	n.in.Nu = dynamo.Vec4{body.X, body.Y, body.Z, att.Gyro.Z}
}

func (n *NonLinearControl) UpdateTarget() {
	sp := n.bind.Target.Target()
	n.in.Target = dynamo.Vec4{sp.Position.X, sp.Position.Y, sp.Position.Z, sp.Yaw}
}

// Update runs one controller tick. On failure the previous output is held.
func (n *NonLinearControl) Update() error {
	n.stats.Ticks++
	if _, err := n.ctrl.Tick(n.in); err != nil {
		n.stats.HeldOutputs++
		n.log.Warn("control tick failed, holding output", "err", err)
		return err
	}
	return nil
}

// Output scales the controller command and sends it to the sink.
func (n *NonLinearControl) Output() error {
	n.cmd = Scale(n.ctrl.ControlInput(), n.uMax)
	return n.bind.Sink.Actuate(n.cmd)
}

// Step runs UpdateState, UpdateTarget, Update and Output. The output is sent
// even when the tick failed.
func (n *NonLinearControl) Step() error {
	n.UpdateState()
	n.UpdateTarget()
	tickErr := n.Update()
	if err := n.Output(); err != nil {
		return errors.Join(tickErr, fmt.Errorf("actuate: %w", err))
	}
	return tickErr
}

// Run calls Step every period until ctx is done.
func (n *NonLinearControl) Run(ctx context.Context, period time.Duration) error {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := n.Step(); err != nil {
				n.log.Debug("step degraded", "err", err)
			}
		}
	}
}

func (n *NonLinearControl) Input() aflc.TickInput        { return n.in }
func (n *NonLinearControl) Command() Command             { return n.cmd }
func (n *NonLinearControl) Stats() Stats                 { return n.stats }
func (n *NonLinearControl) Controller() *aflc.Controller { return n.ctrl }

// Scale maps generalized forces to normalized channels: τ/uMax in [-1, 1]
// per axis, heave remapped to [0, 1]. Pitch and roll are not controlled.
func Scale(tau dynamo.Vec4, uMax float64) Command {
	norm := tau.Scale(1 / uMax).Clamp(-1, 1)
	return Command{
		Forward:  norm[dynamo.Surge],
		Lateral:  norm[dynamo.Sway],
		Throttle: (norm[dynamo.Heave] + 1) / 2,
		Yaw:      norm[dynamo.Yaw],
	}
}

// Unscale inverts Scale.
func Unscale(cmd Command, uMax float64) dynamo.Vec4 {
	return dynamo.Vec4{
		cmd.Forward * uMax,
		cmd.Lateral * uMax,
		(2*cmd.Throttle - 1) * uMax,
		cmd.Yaw * uMax,
	}
}

// WaypointTarget is a fixed destination with a fixed heading.
type WaypointTarget struct {
	Position r3.Vec
	Yaw      float64
}

func (w WaypointTarget) Target() Setpoint {
	return Setpoint{Position: w.Position, Yaw: w.Yaw}
}

// HeadingHoldTarget goes to a destination while holding whatever heading the
// vehicle currently has.
type HeadingHoldTarget struct {
	Position    r3.Vec
	Orientation OrientationSource
}

func (h HeadingHoldTarget) Target() Setpoint {
	return Setpoint{Position: h.Position, Yaw: h.Orientation.Attitude().Yaw}
}
