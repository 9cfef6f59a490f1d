package calibrate

import (
	"math/rand"

	"github.com/san-kum/jetsim/internal/surrogate"
)

// Synthesize builds a benchmark over the cross product of strokeRatios and
// tauValues (tau outer, stroke ratio inner) from env, adding zero-mean
// Gaussian noise of noiseStd drawn from rng. rng may be nil when noiseStd is
// zero.
func Synthesize(rng *rand.Rand, strokeRatios, tauValues []float64, env surrogate.Envelope, noiseStd float64) Benchmark {
	n := len(strokeRatios) * len(tauValues)
	b := Benchmark{
		StrokeRatios: make([]float64, 0, n),
		TauValues:    make([]float64, 0, n),
		Impulses:     make([]float64, 0, n),
	}
	for _, tau := range tauValues {
		for _, s := range strokeRatios {
			v := env.Impulse(s, tau)
			if noiseStd > 0 {
				v += rng.NormFloat64() * noiseStd
			}
			b.StrokeRatios = append(b.StrokeRatios, s)
			b.TauValues = append(b.TauValues, tau)
			b.Impulses = append(b.Impulses, v)
		}
	}
	return b
}
