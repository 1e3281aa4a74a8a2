package aflc

import (
	"fmt"
	"math"

	"github.com/san-kum/aflc/internal/dynamo"
)

// ControlSynthesis forms the feedback-linearizing command
//
//	u_raw = Φ·θ − c1⊙s_b,   u = clamp(u_raw, ULower, UUpper)
//
// An overflowed u_raw (±Inf) saturates like any other out-of-range value.
type ControlSynthesis struct {
	u, uRaw   dynamo.Vec4
	saturated [DOF]bool
}

func (cs *ControlSynthesis) Update(phi *Regressor, theta Params, sb, c1 dynamo.Vec4, lo, hi float64) error {
	raw := phi.MulParams(theta).Sub(c1.Mul(sb))
	for _, x := range raw {
		if math.IsNaN(x) {
			return fmt.Errorf("control input %v: %w", raw, ErrNumerical)
		}
	}

	cs.uRaw = raw
	cs.u = raw.Clamp(lo, hi)
	for i := range cs.u {
		cs.saturated[i] = cs.u[i] != cs.uRaw[i]
	}
	return nil
}

// Deficit returns u − u_raw, zero on every unsaturated axis. An axis whose
// raw command overflowed reports no deficit.
func (cs *ControlSynthesis) Deficit() dynamo.Vec4 {
	d := cs.u.Sub(cs.uRaw)
	for i, x := range d {
		if math.IsInf(x, 0) {
			d[i] = 0
		}
	}
	return d
}

func (cs *ControlSynthesis) Output() dynamo.Vec4  { return cs.u }
func (cs *ControlSynthesis) Raw() dynamo.Vec4     { return cs.uRaw }
func (cs *ControlSynthesis) Saturated() [DOF]bool { return cs.saturated }
