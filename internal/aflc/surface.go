package aflc

import (
	"fmt"

	"github.com/san-kum/aflc/internal/dynamo"
)

// ErrorSurface computes the sliding surface
//
//	s = λ⊙e + ė − (Iawp − Ki⊙q)
//
// with e = η − ηr (heading wrapped) and ė = η̇ − η̇r, and the commanded
// acceleration
//
//	a_η = η̈r − λ⊙ė − Ki⊙q̇,   a_ν = J⁻¹(a_η − J̇ν)
//
// Iawp only shifts s. Feeding İawp into a_η would close a second loop through
// the inertia terms of Φ·θ whose gain exceeds one under saturation.
type ErrorSurface struct {
	s, sb     dynamo.Vec4
	aEta, aNu dynamo.Vec4
}

// TrackingError returns η − ηr with the heading component wrapped to [-π, π).
func TrackingError(eta, etaR dynamo.Vec4) dynamo.Vec4 {
	e := eta.Sub(etaR)
	e[dynamo.Yaw] = dynamo.WrapPi(e[dynamo.Yaw])
	return e
}

// Update evaluates the surface for the current measurement. On failure the
// previous values are kept.
func (es *ErrorSurface) Update(eta, deta, nu dynamo.Vec4, ref *ReferenceModel, tf *FrameTransform, awp *AntiWindup, lambda, ki dynamo.Vec4) error {
	jInv, err := tf.Inverse()
	if err != nil {
		return err
	}

	e := TrackingError(eta, ref.Position())
	de := deta.Sub(ref.Velocity())

	correction := awp.State().Sub(ki.Mul(awp.Integrator()))
	s := lambda.Mul(e).Add(de).Sub(correction)

	aEta := ref.Acceleration().Sub(lambda.Mul(de)).Sub(ki.Mul(awp.IntegratorRate()))
	aNu := jInv.MulVec(aEta.Sub(tf.DJ().MulVec(nu)))

	if !s.IsValid() || !aNu.IsValid() {
		return fmt.Errorf("error surface: %w", ErrNumerical)
	}

	es.s = s
	es.sb = jInv.MulVec(s)
	es.aEta = aEta
	es.aNu = aNu
	return nil
}

// Value returns s in the earth frame.
func (es *ErrorSurface) Value() dynamo.Vec4 { return es.s }

// Body returns J⁻¹s, the surface projected on the body axes.
func (es *ErrorSurface) Body() dynamo.Vec4 { return es.sb }

func (es *ErrorSurface) EarthAcceleration() dynamo.Vec4 { return es.aEta }
func (es *ErrorSurface) BodyAcceleration() dynamo.Vec4  { return es.aNu }
