package physics

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/aflc/internal/dynamo"
)

// State indices of a UUV.
const (
	IdxX = iota
	IdxY
	IdxZ
	IdxYaw
	IdxU
	IdxV
	IdxW
	IdxR
)

// UUV is a 4-DOF underwater vehicle with rigid-body and added mass, linear
// and quadratic damping, surge/sway Coriolis coupling, the Munk yaw moment
// and net buoyancy. Defaults are those of a BlueROV2-class vehicle.
type UUV struct {
	Mass    float64 // rigid-body mass, kg
	Inertia float64 // rigid-body yaw inertia, kg·m²

	AddedMass     dynamo.Vec4 // |X_u̇|, |Y_v̇|, |Z_ẇ|, |N_ṙ|
	LinearDamping dynamo.Vec4
	QuadDamping   dynamo.Vec4

	Weight   float64 // N
	Buoyancy float64 // N
}

func NewUUV() *UUV {
	return &UUV{
		Mass:          11.5,
		Inertia:       0.16,
		AddedMass:     dynamo.Vec4{5.5, 12.7, 14.57, 0.12},
		LinearDamping: dynamo.Vec4{4.03, 6.22, 5.18, 0.07},
		QuadDamping:   dynamo.Vec4{18.18, 21.66, 36.99, 1.55},
		Weight:        112.8,
		Buoyancy:      114.8,
	}
}

func (p *UUV) StateDim() int   { return 8 }
func (p *UUV) ControlDim() int { return 4 }

// TotalInertia returns the total (rigid-body plus added) inertia per axis.
func (p *UUV) TotalInertia() dynamo.Vec4 {
	return dynamo.Vec4{
		p.Mass + p.AddedMass[dynamo.Surge],
		p.Mass + p.AddedMass[dynamo.Sway],
		p.Mass + p.AddedMass[dynamo.Heave],
		p.Inertia + p.AddedMass[dynamo.Yaw],
	}
}

// Pose returns the earth-fixed pose η of x.
func Pose(x dynamo.State) dynamo.Vec4 {
	return dynamo.Vec4{x[IdxX], x[IdxY], x[IdxZ], x[IdxYaw]}
}

// BodyRates returns the body-fixed rates ν of x.
func BodyRates(x dynamo.State) dynamo.Vec4 {
	return dynamo.Vec4{x[IdxU], x[IdxV], x[IdxW], x[IdxR]}
}

// Derive evaluates the vehicle dynamics under body-frame generalized forces
// u = [X, Y, Z, N]. Missing control entries are treated as zero.
func (p *UUV) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	var tau dynamo.Vec4
	copy(tau[:], u)

	nu := BodyRates(x)
	m := p.TotalInertia()
	su, sv, r := nu[dynamo.Surge], nu[dynamo.Sway], nu[dynamo.Yaw]

	var damp dynamo.Vec4
	for i := range nu {
		damp[i] = (p.LinearDamping[i] + p.QuadDamping[i]*math.Abs(nu[i])) * nu[i]
	}

	mu, mv := m[dynamo.Surge], m[dynamo.Sway]
	du := (tau[dynamo.Surge] + mv*sv*r - damp[dynamo.Surge]) / mu
	dv := (tau[dynamo.Sway] - mu*su*r - damp[dynamo.Sway]) / mv
	dw := (tau[dynamo.Heave] - damp[dynamo.Heave] + p.Buoyancy - p.Weight) / m[dynamo.Heave]
	dr := (tau[dynamo.Yaw] - (mv-mu)*su*sv - damp[dynamo.Yaw]) / m[dynamo.Yaw]

	deta := dynamo.Rotation4(x[IdxYaw]).MulVec(nu)
	return dynamo.State{deta[0], deta[1], deta[2], deta[3], du, dv, dw, dr}
}

// Energy is the kinetic energy plus the potential of the net weight.
func (p *UUV) Energy(x dynamo.State) float64 {
	m := p.TotalInertia()
	nu := BodyRates(x)
	ke := 0.0
	for i := range nu {
		ke += 0.5 * m[i] * nu[i] * nu[i]
	}
	return ke + (p.Weight-p.Buoyancy)*x[IdxZ]
}

// HoverForce is the heave force that cancels the net buoyancy.
func (p *UUV) HoverForce() float64 {
	return p.Weight - p.Buoyancy
}

var uuvParams = map[string]func(p *UUV) *float64{
	"mass":        func(p *UUV) *float64 { return &p.Mass },
	"inertia":     func(p *UUV) *float64 { return &p.Inertia },
	"weight":      func(p *UUV) *float64 { return &p.Weight },
	"buoyancy":    func(p *UUV) *float64 { return &p.Buoyancy },
	"added_u":     func(p *UUV) *float64 { return &p.AddedMass[dynamo.Surge] },
	"added_v":     func(p *UUV) *float64 { return &p.AddedMass[dynamo.Sway] },
	"added_w":     func(p *UUV) *float64 { return &p.AddedMass[dynamo.Heave] },
	"added_r":     func(p *UUV) *float64 { return &p.AddedMass[dynamo.Yaw] },
	"lin_damp_u":  func(p *UUV) *float64 { return &p.LinearDamping[dynamo.Surge] },
	"lin_damp_v":  func(p *UUV) *float64 { return &p.LinearDamping[dynamo.Sway] },
	"lin_damp_w":  func(p *UUV) *float64 { return &p.LinearDamping[dynamo.Heave] },
	"lin_damp_r":  func(p *UUV) *float64 { return &p.LinearDamping[dynamo.Yaw] },
	"quad_damp_u": func(p *UUV) *float64 { return &p.QuadDamping[dynamo.Surge] },
	"quad_damp_v": func(p *UUV) *float64 { return &p.QuadDamping[dynamo.Sway] },
	"quad_damp_w": func(p *UUV) *float64 { return &p.QuadDamping[dynamo.Heave] },
	"quad_damp_r": func(p *UUV) *float64 { return &p.QuadDamping[dynamo.Yaw] },
}

func (p *UUV) GetParams() map[string]float64 {
	out := make(map[string]float64, len(uuvParams))
	for name, field := range uuvParams {
		out[name] = *field(p)
	}
	return out
}

// SetParam updates one named parameter. Inertial parameters must stay
// positive; damping must be non-negative.
func (p *UUV) SetParam(name string, value float64) error {
	field, ok := uuvParams[name]
	if !ok {
		return fmt.Errorf("unknown param: %s (known: %v)", name, ParamNames())
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("param %s: %w", name, dynamo.ErrInvalidState)
	}
	switch name {
	case "mass", "inertia":
		if value <= 0 {
			return fmt.Errorf("param %s must be positive, got %v", name, value)
		}
	case "weight", "buoyancy":
	default:
		if value < 0 {
			return fmt.Errorf("param %s must be non-negative, got %v", name, value)
		}
	}
	*field(p) = value
	return nil
}

// ParamNames lists the configurable parameters in sorted order.
func ParamNames() []string {
	names := make([]string, 0, len(uuvParams))
	for n := range uuvParams {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
