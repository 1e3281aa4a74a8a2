// Package analysis characterizes closed-loop responses.
//
//   - [MeasureStep]: rise time, overshoot, settling time and steady-state
//     error of a recorded step response
//   - [NewPhasePortrait]: a 2D trajectory, typically tracking error against
//     the sliding surface of one axis
//
// A reference-model step is measured the same way as a vehicle step:
//
//	resp, err := analysis.MeasureStep(times, values, 0, 1, analysis.DefaultBand)
//	if err == nil && resp.Overshoot > 0 {
//	    // reference overshoots
//	}
package analysis
