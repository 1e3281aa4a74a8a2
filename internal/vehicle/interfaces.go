package vehicle

import "gonum.org/v1/gonum/spatial/r3"

// Attitude is a 321 Euler attitude with the body angular velocity.
type Attitude struct {
	Roll, Pitch, Yaw float64
	Gyro             r3.Vec // body rates p, q, r in rad/s
}

type OrientationSource interface {
	Attitude() Attitude
}

// PositionVelocitySource reports the earth-frame position and velocity.
type PositionVelocitySource interface {
	Position() r3.Vec
	Velocity() r3.Vec
}

// Setpoint is a desired earth-frame position and heading.
type Setpoint struct {
	Position r3.Vec
	Yaw      float64
}

type TargetSource interface {
	Target() Setpoint
}

// Command holds normalized actuator channels. Throttle is in [0, 1] with 0.5
// as neutral; all other channels are in [-1, 1].
type Command struct {
	Forward  float64
	Lateral  float64
	Throttle float64
	Yaw      float64
	Pitch    float64
	Roll     float64
}

type ActuatorSink interface {
	Actuate(cmd Command) error
}
