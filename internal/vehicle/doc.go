// Package vehicle binds an [aflc.Controller] to a vehicle through small
// capability interfaces: attitude and gyro, earth-frame position and velocity,
// a target pose and an actuator sink.
//
// [NonLinearControl] assembles the controller inputs each tick:
//
//	η  = [position, yaw]
//	ν  = [Rᵀ(φ, θ, ψ)·velocity, gyro z]
//	η̇  = [velocity, ψ̇]
//
// and scales the resulting generalized forces into normalized actuator
// channels: forward, lateral and yaw in [-1, 1], throttle in [0, 1], pitch and
// roll held at zero.
package vehicle
