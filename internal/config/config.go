package config

import (
	"errors"
	"fmt"
	"os"

	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/aflc/internal/actuator"
	"github.com/san-kum/aflc/internal/aflc"
	"github.com/san-kum/aflc/internal/dynamo"
	"github.com/san-kum/aflc/internal/integrators"
	"github.com/san-kum/aflc/internal/physics"
	"github.com/san-kum/aflc/internal/sim"
)

const (
	DefaultDt       = 0.05
	DefaultDuration = 30.0
	DefaultSubsteps = 10
)

var ErrInvalid = errors.New("config: invalid")

type Config struct {
	Name        string           `yaml:"name"`
	Integrator  string           `yaml:"integrator"`
	Dt          float64          `yaml:"dt"`
	Duration    float64          `yaml:"duration"`
	Substeps    int              `yaml:"substeps"`
	HeadingHold bool             `yaml:"heading_hold"`
	Initial     InitStateConfig  `yaml:"initial"`
	Target      []float64        `yaml:"target"` // x, y, z, yaw; used when no waypoints are given
	Waypoints   []sim.Waypoint   `yaml:"waypoints,omitempty"`
	Controller  ControllerConfig `yaml:"controller"`
	Vehicle     VehicleConfig    `yaml:"vehicle"`
	CAN         CANConfig        `yaml:"can"`
}

type InitStateConfig struct {
	X   float64 `yaml:"x"`
	Y   float64 `yaml:"y"`
	Z   float64 `yaml:"z"`
	Yaw float64 `yaml:"yaw"`
	U   float64 `yaml:"u"`
	V   float64 `yaml:"v"`
	W   float64 `yaml:"w"`
	R   float64 `yaml:"r"`
}

type ControllerConfig struct {
	Beta   []float64 `yaml:"beta"`
	Lambda []float64 `yaml:"lambda"`
	C1     []float64 `yaml:"c1"`
	Ki     []float64 `yaml:"ki,omitempty"`
	UMax   float64   `yaml:"u_max"`
	UMin   float64   `yaml:"u_min"`

	// Gamma is the scalar adaptation rate. GammaDiag, when set, gives one
	// rate per parameter instead.
	Gamma     float64   `yaml:"gamma"`
	GammaDiag []float64 `yaml:"gamma_diag,omitempty"`

	// Theta0 seeds the estimate. NominalTheta0 derives it from the vehicle
	// section instead.
	Theta0        []float64 `yaml:"theta0,omitempty"`
	NominalTheta0 bool      `yaml:"nominal_theta0"`
}

type VehicleConfig struct {
	Mass          float64   `yaml:"mass"`
	Inertia       float64   `yaml:"inertia"`
	AddedMass     []float64 `yaml:"added_mass"`
	LinearDamping []float64 `yaml:"linear_damping"`
	QuadDamping   []float64 `yaml:"quad_damping"`
	Weight        float64   `yaml:"weight"`
	Buoyancy      float64   `yaml:"buoyancy"`
}

type CANConfig struct {
	Interface string `yaml:"interface,omitempty"`
	BaseID    uint32 `yaml:"base_id"`
}

func DefaultConfig() *Config {
	g := aflc.DefaultGains()
	p := physics.NewUUV()
	return &Config{
		Name:       "ardusub",
		Integrator: "rk4",
		Dt:         DefaultDt,
		Duration:   DefaultDuration,
		Substeps:   DefaultSubsteps,
		Target:     []float64{1, 0, 0, 0},
		Controller: ControllerConfig{
			Beta:   g.Beta[:],
			Lambda: g.Lambda[:],
			C1:     g.C1[:],
			UMax:   g.UUpper,
			UMin:   g.ULower,
			Gamma:  g.Gamma[0][0],
		},
		Vehicle: VehicleConfig{
			Mass:          p.Mass,
			Inertia:       p.Inertia,
			AddedMass:     p.AddedMass[:],
			LinearDamping: p.LinearDamping[:],
			QuadDamping:   p.QuadDamping[:],
			Weight:        p.Weight,
			Buoyancy:      p.Buoyancy,
		},
		CAN: CANConfig{BaseID: actuator.DefaultBaseID},
	}
}

// Load reads a YAML file over DefaultConfig, so omitted keys keep their
// defaults.
func Load(path string) (*Config, error) {
	return LoadOver(path, DefaultConfig())
}

// LoadOver reads a YAML file over a copy of base.
func LoadOver(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := base.Clone()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func vec4(field string, xs []float64) (dynamo.Vec4, error) {
	var v dynamo.Vec4
	if len(xs) != len(v) {
		return v, fmt.Errorf("%w: %s needs %d values, got %d", ErrInvalid, field, len(v), len(xs))
	}
	copy(v[:], xs)
	return v, nil
}

// UUV builds the simulated plant.
func (c *Config) UUV() (*physics.UUV, error) {
	p := &physics.UUV{
		Mass:     c.Vehicle.Mass,
		Inertia:  c.Vehicle.Inertia,
		Weight:   c.Vehicle.Weight,
		Buoyancy: c.Vehicle.Buoyancy,
	}
	var err error
	if p.AddedMass, err = vec4("vehicle.added_mass", c.Vehicle.AddedMass); err != nil {
		return nil, err
	}
	if p.LinearDamping, err = vec4("vehicle.linear_damping", c.Vehicle.LinearDamping); err != nil {
		return nil, err
	}
	if p.QuadDamping, err = vec4("vehicle.quad_damping", c.Vehicle.QuadDamping); err != nil {
		return nil, err
	}
	if !(p.Mass > 0) || !(p.Inertia > 0) {
		return nil, fmt.Errorf("%w: vehicle mass and inertia must be positive", ErrInvalid)
	}
	return p, nil
}

// NominalTheta returns the parameter vector matching p exactly, apart from
// the quadratic damping the regressor does not model.
func NominalTheta(p *physics.UUV) aflc.Params {
	m := p.TotalInertia()
	return aflc.Params{
		aflc.ParamMassSurge:  m[dynamo.Surge],
		aflc.ParamMassSway:   m[dynamo.Sway],
		aflc.ParamMassHeave:  m[dynamo.Heave],
		aflc.ParamInertiaYaw: m[dynamo.Yaw],
		aflc.ParamDampSurge:  p.LinearDamping[dynamo.Surge],
		aflc.ParamDampSway:   p.LinearDamping[dynamo.Sway],
		aflc.ParamDampHeave:  p.LinearDamping[dynamo.Heave],
		aflc.ParamDampYaw:    p.LinearDamping[dynamo.Yaw],
		aflc.ParamWeight:     p.HoverForce(),
		aflc.ParamCoriolis:   m[dynamo.Sway] - m[dynamo.Surge],
	}
}

// Gains converts the controller section. The result still has to pass
// aflc.Gains.Validate.
func (c *Config) Gains() (aflc.Gains, error) {
	cc := c.Controller
	g := aflc.Gains{
		N:      aflc.DOF,
		Dt:     c.Dt,
		UUpper: cc.UMax,
		ULower: cc.UMin,
	}

	var err error
	if g.Beta, err = vec4("controller.beta", cc.Beta); err != nil {
		return g, err
	}
	if g.Lambda, err = vec4("controller.lambda", cc.Lambda); err != nil {
		return g, err
	}
	if g.C1, err = vec4("controller.c1", cc.C1); err != nil {
		return g, err
	}
	if len(cc.Ki) > 0 {
		if g.Ki, err = vec4("controller.ki", cc.Ki); err != nil {
			return g, err
		}
	}

	switch len(cc.GammaDiag) {
	case 0:
		g.Gamma = aflc.GammaScalar(cc.Gamma)
	case aflc.NumParams:
		for i, v := range cc.GammaDiag {
			g.Gamma[i][i] = v
		}
	default:
		return g, fmt.Errorf("%w: controller.gamma_diag needs %d values, got %d", ErrInvalid, aflc.NumParams, len(cc.GammaDiag))
	}

	switch {
	case cc.NominalTheta0:
		p, err := c.UUV()
		if err != nil {
			return g, err
		}
		g.Theta0 = NominalTheta(p)
	case len(cc.Theta0) == aflc.NumParams:
		copy(g.Theta0[:], cc.Theta0)
	case len(cc.Theta0) != 0:
		return g, fmt.Errorf("%w: controller.theta0 needs %d values, got %d", ErrInvalid, aflc.NumParams, len(cc.Theta0))
	}
	return g, nil
}

// InitialState is the plant state [x, y, z, ψ, u, v, w, r].
func (c *Config) InitialState() dynamo.State {
	s := c.Initial
	return dynamo.State{s.X, s.Y, s.Z, s.Yaw, s.U, s.V, s.W, s.R}
}

// Scenario builds the simulated run described by c.
func (c *Config) Scenario() (sim.Scenario, error) {
	sc := sim.Scenario{
		Name:        c.Name,
		Duration:    c.Duration,
		Dt:          c.Dt,
		Substeps:    c.Substeps,
		Initial:     c.InitialState(),
		Waypoints:   c.Waypoints,
		HeadingHold: c.HeadingHold,
	}
	if len(sc.Waypoints) == 0 {
		t, err := vec4("target", c.Target)
		if err != nil {
			return sc, err
		}
		sc.Waypoints = []sim.Waypoint{{
			Position: r3.Vec{X: t[dynamo.Surge], Y: t[dynamo.Sway], Z: t[dynamo.Heave]},
			Yaw:      t[dynamo.Yaw],
		}}
	}
	return sc, nil
}

// Validate checks every section that the run would otherwise reject later.
func (c *Config) Validate() error {
	if !(c.Dt > 0) {
		return fmt.Errorf("%w: dt must be positive, got %v", ErrInvalid, c.Dt)
	}
	if !(c.Duration > 0) {
		return fmt.Errorf("%w: duration must be positive, got %v", ErrInvalid, c.Duration)
	}
	if c.Substeps < 1 {
		return fmt.Errorf("%w: substeps must be at least 1, got %d", ErrInvalid, c.Substeps)
	}
	if _, err := integrators.New(c.Integrator); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if _, err := c.UUV(); err != nil {
		return err
	}
	if _, err := c.Scenario(); err != nil {
		return err
	}
	g, err := c.Gains()
	if err != nil {
		return err
	}
	return g.Validate()
}

// Clone returns a deep copy of c.
func (c *Config) Clone() *Config {
	out := *c
	out.Target = append([]float64(nil), c.Target...)
	out.Waypoints = append([]sim.Waypoint(nil), c.Waypoints...)
	cc := &out.Controller
	cc.Beta = append([]float64(nil), cc.Beta...)
	cc.Lambda = append([]float64(nil), cc.Lambda...)
	cc.C1 = append([]float64(nil), cc.C1...)
	cc.Ki = append([]float64(nil), cc.Ki...)
	cc.GammaDiag = append([]float64(nil), cc.GammaDiag...)
	cc.Theta0 = append([]float64(nil), cc.Theta0...)
	vc := &out.Vehicle
	vc.AddedMass = append([]float64(nil), vc.AddedMass...)
	vc.LinearDamping = append([]float64(nil), vc.LinearDamping...)
	vc.QuadDamping = append([]float64(nil), vc.QuadDamping...)
	return &out
}
