package aflc

import "github.com/san-kum/aflc/internal/dynamo"

// AntiWindup filters the actuator saturation deficit into a velocity-level
// correction Iawp and integrates the compensated tracking error into q:
//
//	İawp = λ⊙(J·(Δu⊘c1) − Iawp),   Δu = u − u_raw of the previous synthesis
//	q̇    = (η − ηr) − Iawp⊘λ
//
// While the actuators are unsaturated Δu = 0 and Iawp decays to zero. Under
// saturation Iawp settles where c1⊙J⁻¹Iawp cancels half of the excess
// command, so the filter contracts for λ·dt < 1.
type AntiWindup struct {
	iawp  dynamo.Vec4
	q, dq dynamo.Vec4
}

// Update advances the filter by dt. e is the wrapped tracking error η − ηr.
func (a *AntiWindup) Update(e dynamo.Vec4, j dynamo.Mat4, deficit, lambda, c1 dynamo.Vec4, dt float64) {
	drive := j.MulVec(deficit.Div(c1))
	a.iawp = a.iawp.Add(lambda.Mul(drive.Sub(a.iawp)).Scale(dt))

	a.dq = e.Sub(a.iawp.Div(lambda))
	a.q = a.q.Add(a.dq.Scale(dt))
}

func (a *AntiWindup) State() dynamo.Vec4      { return a.iawp }
func (a *AntiWindup) Integrator() dynamo.Vec4 { return a.q }
func (a *AntiWindup) IntegratorRate() dynamo.Vec4 {
	return a.dq
}
