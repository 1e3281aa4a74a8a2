package aflc

import (
	"fmt"

	"github.com/san-kum/aflc/internal/dynamo"
)

// TickInput is one sample of the vehicle state and the desired pose.
type TickInput struct {
	Eta    dynamo.Vec4 // earth-fixed pose [x, y, z, ψ]
	DEta   dynamo.Vec4 // earth-fixed rates
	Nu     dynamo.Vec4 // body-fixed rates [u, v, w, r]
	Target dynamo.Vec4 // desired earth-fixed pose
}

// state is the whole mutable controller state. It holds no references to
// per-tick data so a plain assignment is a full snapshot.
type state struct {
	tick  uint64
	ref   ReferenceModel
	tf    FrameTransform
	awp   AntiWindup
	surf  ErrorSurface
	adapt AdaptiveLaw
	syn   ControlSynthesis
}

type Controller struct {
	gains Gains
	st    state
}

// New validates g and builds the discretized reference model.
func New(g Gains) (*Controller, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	ref, err := NewReferenceModel(g.Beta, g.Dt)
	if err != nil {
		return nil, err
	}

	c := &Controller{gains: g}
	c.st.ref = *ref
	c.st.adapt.Reset(g.Theta0)
	if err := c.st.tf.Update(dynamo.Vec4{}, dynamo.Vec4{}); err != nil {
		return nil, err
	}
	if err := c.BuildReferenceModel(); err != nil {
		return nil, err
	}
	return c, nil
}

// BuildReferenceModel recomputes the continuous and discrete reference
// matrices from the configured β and dt.
func (c *Controller) BuildReferenceModel() error {
	return c.st.ref.Build()
}

// InitReferenceModel seeds the reference trajectory with the current pose and
// rates. It must be called once before the first tick.
func (c *Controller) InitReferenceModel(eta0, deta0 dynamo.Vec4) error {
	if !eta0.IsValid() || !deta0.IsValid() {
		return fmt.Errorf("initial state: %w", ErrNumerical)
	}
	c.st.ref.Init(eta0, deta0)
	return nil
}

// Tick runs one full control step and returns the saturated command. On
// error the controller is left exactly as before the call.
func (c *Controller) Tick(in TickInput) (dynamo.Vec4, error) {
	snapshot := c.st
	stage, err := c.run(in)
	if err != nil {
		c.st = snapshot
		return c.st.syn.Output(), &TickError{Tick: snapshot.tick + 1, Stage: stage, Wrapped: err}
	}
	c.st.tick++
	return c.st.syn.Output(), nil
}

func (c *Controller) run(in TickInput) (Stage, error) {
	if !c.st.ref.ready {
		return StageIdle, ErrNotInitialized
	}
	if err := c.UpdateTransformationMatrices(in.Eta, in.Nu); err != nil {
		return StageTransform, err
	}
	if err := c.UpdateReferenceModel(in.Target); err != nil {
		return StageReference, err
	}
	if err := c.UpdateAntiWindup(in.Eta); err != nil {
		return StageAntiWindup, err
	}
	if err := c.UpdateCommandedAcceleration(in.Eta, in.DEta, in.Nu); err != nil {
		return StageSurface, err
	}
	if err := c.UpdateParametersLaw(in.Eta, in.DEta, in.Nu); err != nil {
		return StageAdaptation, err
	}
	if err := c.UpdateControlInput(); err != nil {
		return StageSynthesis, err
	}
	return StageIdle, nil
}

// The stage methods below run a single pipeline step. They do not enforce
// ordering; Tick does.

func (c *Controller) UpdateTransformationMatrices(eta, nu dynamo.Vec4) error {
	return c.st.tf.Update(eta, nu)
}

func (c *Controller) UpdateReferenceModel(target dynamo.Vec4) error {
	return c.st.ref.Update(target)
}

func (c *Controller) UpdateAntiWindup(eta dynamo.Vec4) error {
	if !c.st.ref.ready {
		return ErrNotInitialized
	}
	if !eta.IsValid() {
		return fmt.Errorf("pose %v: %w", eta, ErrNumerical)
	}
	e := TrackingError(eta, c.st.ref.Position())
	c.st.awp.Update(e, c.st.tf.J(), c.st.syn.Deficit(), c.gains.Lambda, c.gains.C1, c.gains.Dt)
	return nil
}

func (c *Controller) UpdateCommandedAcceleration(eta, deta, nu dynamo.Vec4) error {
	if !c.st.ref.ready {
		return ErrNotInitialized
	}
	if !eta.IsValid() || !deta.IsValid() || !nu.IsValid() {
		return fmt.Errorf("vehicle state: %w", ErrNumerical)
	}
	return c.st.surf.Update(eta, deta, nu, &c.st.ref, &c.st.tf, &c.st.awp, c.gains.Lambda, c.gains.Ki)
}

// UpdateParametersLaw advances θ using the surface and commanded acceleration
// of the current tick. eta and deta are only checked for finiteness.
func (c *Controller) UpdateParametersLaw(eta, deta, nu dynamo.Vec4) error {
	if !eta.IsValid() || !deta.IsValid() || !nu.IsValid() {
		return fmt.Errorf("vehicle state: %w", ErrNumerical)
	}
	return c.st.adapt.Update(c.st.surf.BodyAcceleration(), nu, c.st.surf.Body(), &c.gains.Gamma, c.gains.Dt)
}

func (c *Controller) UpdateControlInput() error {
	phi := c.st.adapt.Regressor()
	return c.st.syn.Update(&phi, c.st.adapt.Theta(), c.st.surf.Body(), c.gains.C1, c.gains.ULower, c.gains.UUpper)
}

func (c *Controller) RefPosition() dynamo.Vec4     { return c.st.ref.Position() }
func (c *Controller) RefVelocity() dynamo.Vec4     { return c.st.ref.Velocity() }
func (c *Controller) RefAcceleration() dynamo.Vec4 { return c.st.ref.Acceleration() }

// ControlInput returns the saturated command of the last successful tick.
func (c *Controller) ControlInput() dynamo.Vec4 { return c.st.syn.Output() }

// RawControlInput returns the command before clamping.
func (c *Controller) RawControlInput() dynamo.Vec4 { return c.st.syn.Raw() }

func (c *Controller) Theta() Params                { return c.st.adapt.Theta() }
func (c *Controller) Regressor() Regressor         { return c.st.adapt.Regressor() }
func (c *Controller) Surface() dynamo.Vec4         { return c.st.surf.Value() }
func (c *Controller) Integrator() dynamo.Vec4      { return c.st.awp.Integrator() }
func (c *Controller) AntiWindupState() dynamo.Vec4 { return c.st.awp.State() }
func (c *Controller) Saturated() [DOF]bool         { return c.st.syn.Saturated() }
func (c *Controller) Ticks() uint64                { return c.st.tick }
func (c *Controller) Gains() Gains                 { return c.gains }
func (c *Controller) Initialized() bool            { return c.st.ref.ready }

// CommandedAcceleration returns the commanded acceleration in the earth and
// body frames.
func (c *Controller) CommandedAcceleration() (earth, body dynamo.Vec4) {
	return c.st.surf.EarthAcceleration(), c.st.surf.BodyAcceleration()
}

// Transform returns J and J̇ of the last frame update.
func (c *Controller) Transform() (j, dj dynamo.Mat4) {
	return c.st.tf.J(), c.st.tf.DJ()
}
