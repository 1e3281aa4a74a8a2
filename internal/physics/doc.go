// Package physics provides the plant models driven by the closed-loop
// simulator.
//
// [UUV] is a 4-DOF underwater vehicle (surge, sway, heave, yaw) with the
// state layout
//
//	x = [x, y, z, ψ, u, v, w, r]
//
// earth-fixed pose followed by body-fixed rates. The earth frame is
// right-handed with z up, so a positive heave force lifts the vehicle.
//
// UUV implements [dynamo.System], [dynamo.Hamiltonian] and
// [dynamo.Configurable]:
//
//	plant := physics.NewUUV()
//	plant.SetParam("buoyancy", 120)
//	dx := plant.Derive(x, dynamo.Control{tauU, tauV, tauW, tauR}, t)
package physics
