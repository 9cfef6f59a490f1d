// Package viz provides the terminal explorer for the actuator model.
//
// The explorer is a Bubble Tea program: a Braille [Canvas] shows the
// steady-state pressure-volume loop, and a side panel shows cycle metrics
// and the surrogate impulse curve, both recomputed on every parameter
// change.
//
// # Key Bindings
//
//	Tab/→   - Next parameter
//	↑/↓     - Tune selected parameter by ±5%
//	R       - Reset parameters
//	T       - Cycle color themes
//	?       - Show help overlay
package viz
