// Package viz renders a closed-loop run in the terminal with Bubble Tea.
//
//   - [Model]: live view of one run (top-down map, per-axis state,
//     normalized commands, tracking error chart, |θ| sparkline)
//   - [Picker]: preset menu that hands over to a [Model]
//   - [Canvas]: Braille-based dot canvas used by the map
//
// # Key Bindings
//
//	Space - Pause/Resume the run
//	+/-   - Faster/slower playback
//	T     - Cycle color themes
//	?     - Show help
//	Q     - Stop the run and quit
//
// The simulation runs in its own goroutine and blocks while the view is
// paused, so pausing also pauses simulated time.
package viz
