package sim

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/aflc/internal/aflc"
	"github.com/san-kum/aflc/internal/dynamo"
	"github.com/san-kum/aflc/internal/vehicle"
)

// Sample is the closed-loop record of one control tick.
type Sample struct {
	T         float64         `json:"t"`
	Eta       dynamo.Vec4     `json:"eta"` // vehicle pose
	Ref       dynamo.Vec4     `json:"ref"` // reference pose ηr
	Target    dynamo.Vec4     `json:"target"`
	U         dynamo.Vec4     `json:"u"` // saturated generalized force
	S         dynamo.Vec4     `json:"s"` // sliding surface
	Theta     aflc.Params     `json:"theta"`
	Saturated [aflc.DOF]bool  `json:"saturated"`
	Held      bool            `json:"held"` // the tick failed and the previous output was kept
	Command   vehicle.Command `json:"command"`
}

// TrackingError returns η − ηr with the heading wrapped.
func (s Sample) TrackingError() dynamo.Vec4 {
	return aflc.TrackingError(s.Eta, s.Ref)
}

// TargetError returns η − target with the heading wrapped.
func (s Sample) TargetError() dynamo.Vec4 {
	return aflc.TrackingError(s.Eta, s.Target)
}

type Metric interface {
	Name() string
	Observe(s Sample)
	Value() float64
	Reset()
}

type Observer interface {
	OnSample(s Sample)
}

// Waypoint switches the target at time At.
type Waypoint struct {
	At       float64 `json:"at" yaml:"at"`
	Position r3.Vec  `json:"position" yaml:"position"`
	Yaw      float64 `json:"yaw" yaml:"yaw"`
}

// Scenario describes one closed-loop run.
type Scenario struct {
	Name     string
	Duration float64
	Dt       float64 // control period
	Substeps int     // plant integration steps per control period

	// Initial plant state [x, y, z, ψ, u, v, w, r].
	Initial dynamo.State

	// Waypoints sorted by At. Before the first switch time the vehicle holds
	// its initial pose.
	Waypoints []Waypoint

	// HeadingHold replaces every waypoint yaw with the current heading.
	HeadingHold bool
}

// Step returns a scenario with a single waypoint active from t = 0.
func Step(name string, duration, dt float64, target dynamo.Vec4) Scenario {
	wp := Waypoint{
		Position: r3.Vec{X: target[dynamo.Surge], Y: target[dynamo.Sway], Z: target[dynamo.Heave]},
		Yaw:      target[dynamo.Yaw],
	}
	return Scenario{
		Name:      name,
		Duration:  duration,
		Dt:        dt,
		Substeps:  10,
		Initial:   make(dynamo.State, 8),
		Waypoints: []Waypoint{wp},
	}
}

type Result struct {
	Scenario   string
	Samples    []Sample
	Metrics    map[string]float64
	Stats      vehicle.Stats
	StepsTaken int
	Energy     float64 // plant energy at the end of the run
}

// Final returns the last sample, or the zero Sample for an empty result.
func (r *Result) Final() Sample {
	if len(r.Samples) == 0 {
		return Sample{}
	}
	return r.Samples[len(r.Samples)-1]
}

// SimError reports a plant integration failure.
type SimError struct {
	Time float64
	Step int
	Err  error
}

func (e SimError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Err)
}

func (e SimError) Unwrap() error { return e.Err }
