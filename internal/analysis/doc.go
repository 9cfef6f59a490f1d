// Package analysis inspects finished traces.
//
//   - [Spectrum]: single-sided amplitude spectrum of a uniformly sampled channel
//   - [HarmonicRatio]: harmonic content relative to the fundamental, a
//     direct read of how far hysteresis bends the pressure response
//   - [Stroboscopic]: one value per drive cycle, to see whether the
//     hysteretic state has settled
//   - [PhasePortraitToASCII]: terminal rendering of a 2D loop such as p-V
//
// # Example
//
//	amp := analysis.Spectrum(res.Trace.Pressure, p.Dt)
//	f0 := amp.DominantFrequency()
package analysis
