package sim

import (
	"sort"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/aflc/internal/dynamo"
	"github.com/san-kum/aflc/internal/physics"
	"github.com/san-kum/aflc/internal/vehicle"
)

// Vehicle is a simulated UUV exposing the capabilities a
// vehicle.NonLinearControl binds to. Normalized commands are converted back
// into body forces with the controller's output scale.
type Vehicle struct {
	plant *physics.UUV
	x     dynamo.State
	uMax  float64
	cmd   vehicle.Command
}

func NewVehicle(plant *physics.UUV, x0 dynamo.State, uMax float64) *Vehicle {
	return &Vehicle{
		plant: plant,
		x:     x0.Clone(),
		uMax:  uMax,
		cmd:   vehicle.Command{Throttle: 0.5},
	}
}

func (v *Vehicle) Attitude() vehicle.Attitude {
	return vehicle.Attitude{
		Yaw:  v.x[physics.IdxYaw],
		Gyro: r3.Vec{Z: v.x[physics.IdxR]},
	}
}

func (v *Vehicle) Position() r3.Vec {
	return r3.Vec{X: v.x[physics.IdxX], Y: v.x[physics.IdxY], Z: v.x[physics.IdxZ]}
}

func (v *Vehicle) Velocity() r3.Vec {
	deta := dynamo.Rotation4(v.x[physics.IdxYaw]).MulVec(physics.BodyRates(v.x))
	return r3.Vec{X: deta[dynamo.Surge], Y: deta[dynamo.Sway], Z: deta[dynamo.Heave]}
}

func (v *Vehicle) Actuate(cmd vehicle.Command) error {
	v.cmd = cmd
	return nil
}

// Force is the body force currently applied by the thrusters.
func (v *Vehicle) Force() dynamo.Vec4 {
	return vehicle.Unscale(v.cmd, v.uMax)
}

func (v *Vehicle) State() dynamo.State { return v.x.Clone() }

// Advance integrates the plant over dt in substeps under the current force.
func (v *Vehicle) Advance(integ dynamo.Integrator, t, dt float64, substeps int) error {
	if substeps < 1 {
		substeps = 1
	}
	f := v.Force()
	u := dynamo.Control(f[:])
	h := dt / float64(substeps)
	for i := 0; i < substeps; i++ {
		next := integ.Step(v.plant, v.x, u, t+float64(i)*h, h)
		if !next.IsValid() {
			return dynamo.ErrInvalidState
		}
		v.x = next
	}
	return nil
}

// schedule is the waypoint target source of a scenario.
type schedule struct {
	waypoints   []Waypoint
	initial     vehicle.Setpoint
	headingHold bool
	orientation vehicle.OrientationSource
	now         float64
}

func newSchedule(sc Scenario, veh *Vehicle) *schedule {
	wps := append([]Waypoint(nil), sc.Waypoints...)
	sort.SliceStable(wps, func(i, j int) bool { return wps[i].At < wps[j].At })
	return &schedule{
		waypoints:   wps,
		initial:     vehicle.Setpoint{Position: veh.Position(), Yaw: veh.Attitude().Yaw},
		headingHold: sc.HeadingHold,
		orientation: veh,
	}
}

func (s *schedule) Target() vehicle.Setpoint {
	sp := s.initial
	for _, wp := range s.waypoints {
		if wp.At > s.now {
			break
		}
		sp = vehicle.Setpoint{Position: wp.Position, Yaw: wp.Yaw}
	}
	if s.headingHold {
		sp.Yaw = s.orientation.Attitude().Yaw
	}
	return sp
}
