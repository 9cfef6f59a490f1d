// Package jet simulates a synthetic-jet actuator whose cavity liner shows
// rate-independent hysteresis.
//
// A run is a fixed pipeline:
//
//   - [Drive]: sinusoidal diaphragm displacement and its exact derivative
//   - [BoucWen]: sequential integration of the hysteretic state z
//   - [Cavity]: pressure, displaced volume, gated exit velocity and thrust
//   - [metrics.Extract]: loop area and impulses from the finished trace
//
// # Example
//
//	p := jet.DefaultParameters()
//	p.TauR = 0.5
//	res, err := jet.SimulateCycle(p)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(res.Metrics.Impulse)
//
// # Guards
//
// Non-positive diameter, frequency, time step or duration fail with
// [ErrInvalidParameter] before any work is done. A return-time constant or
// cavity compliance below its floor is clamped instead, and the clamp is
// reported in [Result.Diagnostics].
//
// # Determinism
//
// Every stage except the hysteresis recurrence is evaluated per sample and may
// run on several goroutines; each sample is written by exactly one worker so
// the output does not depend on scheduling. Integrals are summed left to right
// over the time grid.
package jet
