package aflc

import (
	"fmt"
	"math"

	"github.com/san-kum/aflc/internal/dynamo"
)

// minDet is the smallest |det J| accepted as invertible. A valid yaw rotation
// always has det J = 1.
const minDet = 1e-9

// FrameTransform holds the kinematic Jacobian J mapping body-fixed rates ν to
// earth-fixed rates η̇ = Jν, its time derivative and its inverse. Only yaw
// parametrizes the rotation in the 4-DOF model, so there is no gimbal lock at
// this level.
type FrameTransform struct {
	j, dj, jInv dynamo.Mat4
	valid       bool
}

// Update recomputes J, dJ and J⁻¹ from the heading in eta and the yaw rate in
// nu. On failure the previous matrices are kept.
func (f *FrameTransform) Update(eta, nu dynamo.Vec4) error {
	psi, r := eta[dynamo.Yaw], nu[dynamo.Yaw]
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return fmt.Errorf("yaw rate %v: %w", r, ErrSingularTransform)
	}

	j := dynamo.Rotation4(psi)
	det := j.Det()
	if math.IsNaN(det) || math.Abs(det) < minDet {
		return fmt.Errorf("heading %v (det %v): %w", psi, det, ErrSingularTransform)
	}
	inv, err := j.Inverse()
	if err != nil {
		return fmt.Errorf("heading %v: %w", psi, ErrSingularTransform)
	}

	s, c := math.Sincos(psi)
	f.j = j
	f.jInv = inv
	f.dj = dynamo.Mat4{
		{-s * r, -c * r, 0, 0},
		{c * r, -s * r, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
	}
	f.valid = true
	return nil
}

func (f *FrameTransform) J() dynamo.Mat4  { return f.j }
func (f *FrameTransform) DJ() dynamo.Mat4 { return f.dj }

// Inverse returns J⁻¹, or ErrSingularTransform if no valid J was computed.
func (f *FrameTransform) Inverse() (dynamo.Mat4, error) {
	if !f.valid {
		return dynamo.Mat4{}, ErrSingularTransform
	}
	return f.jInv, nil
}
