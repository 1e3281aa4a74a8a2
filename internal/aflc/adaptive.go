package aflc

import (
	"fmt"

	"github.com/san-kum/aflc/internal/dynamo"
)

// Regressor is the 4×NumParams matrix Φ that makes the body-frame dynamics
// linear in θ: τ = Φ(a_ν, ν)·θ.
type Regressor [DOF][NumParams]float64

// Parameter indices into θ.
const (
	ParamMassSurge = iota
	ParamMassSway
	ParamMassHeave
	ParamInertiaYaw
	ParamDampSurge
	ParamDampSway
	ParamDampHeave
	ParamDampYaw
	ParamWeight
	ParamCoriolis
)

// BuildRegressor evaluates Φ at commanded body acceleration a and body
// velocity nu.
func BuildRegressor(a, nu dynamo.Vec4) Regressor {
	u, v, w, r := nu[dynamo.Surge], nu[dynamo.Sway], nu[dynamo.Heave], nu[dynamo.Yaw]

	var phi Regressor
	phi[dynamo.Surge][ParamMassSurge] = a[dynamo.Surge]
	phi[dynamo.Surge][ParamDampSurge] = u
	phi[dynamo.Surge][ParamCoriolis] = -v * r

	phi[dynamo.Sway][ParamMassSway] = a[dynamo.Sway]
	phi[dynamo.Sway][ParamDampSway] = v
	phi[dynamo.Sway][ParamCoriolis] = u * r

	phi[dynamo.Heave][ParamMassHeave] = a[dynamo.Heave]
	phi[dynamo.Heave][ParamDampHeave] = w
	phi[dynamo.Heave][ParamWeight] = 1

	phi[dynamo.Yaw][ParamInertiaYaw] = a[dynamo.Yaw]
	phi[dynamo.Yaw][ParamDampYaw] = r
	return phi
}

// MulParams returns Φ·θ.
func (phi *Regressor) MulParams(theta Params) dynamo.Vec4 {
	var out dynamo.Vec4
	for i := range phi {
		for k, p := range theta {
			out[i] += phi[i][k] * p
		}
	}
	return out
}

// AdaptiveLaw integrates the gradient update θ̇ = −Γ·Φᵀ·s_b. The estimate is
// not projected or bounded, so a large Γ combined with persistent tracking
// error can drive θ far from physical values.
type AdaptiveLaw struct {
	phi   Regressor
	theta Params
}

// Reset overwrites the estimate with theta0.
func (al *AdaptiveLaw) Reset(theta0 Params) {
	al.theta = theta0
}

// Update rebuilds Φ and advances θ by one step of dt. The estimate is left
// unchanged if the step would make it non-finite. Entries of θ whose Γ row is
// zero never move.
func (al *AdaptiveLaw) Update(aNu, nu, sb dynamo.Vec4, gamma *GammaMatrix, dt float64) error {
	phi := BuildRegressor(aNu, nu)

	var grad Params
	for k := 0; k < NumParams; k++ {
		for i := 0; i < DOF; i++ {
			grad[k] += phi[i][k] * sb[i]
		}
	}

	next := al.theta
	for k := 0; k < NumParams; k++ {
		var d float64
		for m := 0; m < NumParams; m++ {
			// a zero gain must not turn an overflowed gradient into NaN
			if g := gamma[k][m]; g != 0 {
				d += g * grad[m]
			}
		}
		next[k] -= dt * d
	}
	if !finite(next[:]...) {
		return fmt.Errorf("parameter estimate: %w", ErrNumerical)
	}

	al.phi = phi
	al.theta = next
	return nil
}

func (al *AdaptiveLaw) Regressor() Regressor { return al.phi }
func (al *AdaptiveLaw) Theta() Params        { return al.theta }
