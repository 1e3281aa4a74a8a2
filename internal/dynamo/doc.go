// Package dynamo provides the numeric primitives shared by the controller and
// the plant simulation.
//
// Two families of types live here:
//
//   - [Vec4] and [Mat4]: fixed-size, stack-allocated vectors and matrices
//     indexed {surge, sway, heave, yaw}. The AFLC tick is written entirely in
//     these types so it never allocates.
//   - [State], [System], [Integrator]: variable-length plant state and the
//     ODE interfaces used to propagate a simulated vehicle.
//
// # Example
//
//	j := dynamo.Rotation4(yaw)
//	inv, err := j.Inverse()
//	if err != nil {
//		return err
//	}
//	aNu := inv.MulVec(aEta)
package dynamo
