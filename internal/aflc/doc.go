// Package aflc implements a 4-DOF Adaptive Feedback Linearization Controller
// for an underwater vehicle (surge, sway, heave, yaw).
//
// One control tick runs six stages in a fixed order:
//
//   - [FrameTransform]: kinematic Jacobian J(ψ) and its derivative
//   - [ReferenceModel]: critically-damped second-order trajectory filter
//   - [AntiWindup]: saturation-aware filter state and integrator term
//   - [ErrorSurface]: sliding surface s and commanded acceleration
//   - [AdaptiveLaw]: gradient update of the parameter estimate θ
//   - [ControlSynthesis]: u = Φθ − c1⊙s clamped to the actuator bounds
//
// [Controller.Tick] runs the pipeline atomically: when any stage fails the
// controller is restored to the state it had before the tick.
//
// # Usage
//
//	ctrl, err := aflc.New(aflc.DefaultGains())
//	if err != nil {
//		return err
//	}
//	if err := ctrl.InitReferenceModel(eta0, deta0); err != nil {
//		return err
//	}
//	for range ticker.C {
//		u, err := ctrl.Tick(aflc.TickInput{Eta: eta, DEta: deta, Nu: nu, Target: target})
//		if err != nil {
//			// hold previous output; adaptive state is untouched
//		}
//	}
//
// # Adaptation bounds
//
// θ is updated with an unprojected gradient law. Boundedness relies on Γ
// being positive semi-definite and s staying bounded; choose Γ
// conservatively.
//
// # Thread Safety
//
// A Controller is owned by a single control loop and is NOT safe for
// concurrent use.
package aflc
