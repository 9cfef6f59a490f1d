package jet_test

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/jetsim/internal/jet"
)

var _ = Describe("SimulateCycle", func() {
	var p jet.Parameters

	BeforeEach(func() {
		p = jet.DefaultParameters()
	})

	Context("with the reference actuator", func() {
		It("produces ceil(duration/dt) samples and positive raw impulse", func() {
			res, err := jet.SimulateCycle(p)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Trace.Len()).To(BeNumerically("~", 6667, 1))
			Expect(res.Metrics.ImpulseRaw).To(BeNumerically(">", 0))
			Expect(res.Diagnostics).To(BeEmpty())
		})

		It("is bit-for-bit deterministic", func() {
			a, err := jet.SimulateCycle(p)
			Expect(err).NotTo(HaveOccurred())
			b, err := jet.SimulateCycle(p)
			Expect(err).NotTo(HaveOccurred())
			Expect(b.Trace).To(Equal(a.Trace))
			Expect(b.Metrics).To(Equal(a.Metrics))
		})

		It("ignores the seed when no noise is requested", func() {
			a, _ := jet.SimulateCycle(p)
			p.Seed = 99
			b, _ := jet.SimulateCycle(p)
			Expect(b.Trace.Pressure).To(Equal(a.Trace.Pressure))
		})

		It("never produces negative thrust and is silent on the instroke", func() {
			res, err := jet.SimulateCycle(p)
			Expect(err).NotTo(HaveOccurred())
			tr := res.Trace
			for i := 0; i < tr.Len(); i++ {
				Expect(tr.Thrust[i]).To(BeNumerically(">=", 0))
				if tr.Xdot[i] <= 0 {
					Expect(tr.ExitVelocity[i]).To(BeZero())
					Expect(tr.Thrust[i]).To(BeZero())
				}
			}
		})

		It("applies the shared envelope and gain to the raw impulse", func() {
			p.StrokeRatio = 5.5
			p.TauR = 0.7
			res, err := jet.SimulateCycle(p)
			Expect(err).NotTo(HaveOccurred())
			m := res.Metrics
			Expect(m.Efficiency).To(Equal(p.Envelope.Efficiency(5.5)))
			Expect(m.Gain).To(Equal(p.Envelope.Gain(0.7)))
			Expect(m.Impulse).To(Equal(m.ImpulseRaw * m.Efficiency * m.Gain))
		})

		It("reports stroke velocity and Reynolds number", func() {
			res, _ := jet.SimulateCycle(p)
			u0 := 4.0 * 0.010 / (0.5 / 150.0)
			Expect(res.StrokeVelocity).To(BeNumerically("~", u0, 1e-12))
			Expect(res.Reynolds).To(BeNumerically("~", 1.2*u0*0.010/1.8e-5, 1e-6))
		})
	})

	Context("with a saturating hysteresis loop", func() {
		DescribeTable("dissipates energy over the steady cycles",
			func(beta, gamma, n, tauR float64) {
				p.BoucWen.Beta = beta
				p.BoucWen.Gamma = gamma
				p.BoucWen.N = n
				p.TauR = tauR
				res, err := jet.SimulateCycle(p)
				Expect(err).NotTo(HaveOccurred())
				Expect(res.Metrics.LoopArea).To(BeNumerically(">", 0))
			},
			Entry("default shape", 0.6, 0.2, 2.0, 0.002),
			Entry("balanced shape", 0.5, 0.5, 2.0, 0.002),
			Entry("strong beta", 1.0, 0.1, 2.0, 0.005),
			Entry("non-integer exponent", 0.6, 0.2, 1.5, 0.002),
			Entry("default shape, fast return", 0.6, 0.2, 2.0, 0.1),
		)

		// With a slow return the state stays far below saturation and the
		// one-step lag of the explicit update outweighs the hysteresis.
		It("goes slightly negative at the default slow return", func() {
			Expect(p.TauR).To(Equal(2.0))
			res, err := jet.SimulateCycle(p)
			Expect(err).NotTo(HaveOccurred())
			coarse := res.Metrics.LoopArea
			Expect(coarse).To(BeNumerically("<", 0))
			Expect(coarse).To(BeNumerically(">", -0.01))

			p.BoucWen.Beta, p.BoucWen.Gamma = 0, 0
			linear, err := jet.SimulateCycle(p)
			Expect(err).NotTo(HaveOccurred())
			Expect(linear.Metrics.LoopArea).To(BeNumerically("<", 0))

			p.BoucWen = jet.DefaultBoucWen()
			p.Dt = 2e-6
			fine, err := jet.SimulateCycle(p)
			Expect(err).NotTo(HaveOccurred())
			Expect(fine.Metrics.LoopArea).To(BeNumerically("<", 0))
			Expect(math.Abs(fine.Metrics.LoopArea)).To(BeNumerically("<", 0.5*math.Abs(coarse)))
		})

		It("keeps the state inside the saturation bound", func() {
			p.TauR = 0.002
			res, err := jet.SimulateCycle(p)
			Expect(err).NotTo(HaveOccurred())
			bw := p.BoucWen
			zmax := math.Pow(bw.A/(bw.Beta+bw.Gamma), 1/bw.N)
			for _, z := range res.Trace.Z {
				Expect(math.Abs(z)).To(BeNumerically("<", 1.05*zmax))
			}
		})
	})

	Context("with pressure noise", func() {
		BeforeEach(func() {
			p.PressureNoise = 10.0
		})

		It("reproduces the same noise for the same seed", func() {
			a, _ := jet.SimulateCycle(p)
			b, _ := jet.SimulateCycle(p)
			Expect(b.Trace.Pressure).To(Equal(a.Trace.Pressure))
		})

		It("changes only the pressure channel when the seed changes", func() {
			a, _ := jet.SimulateCycle(p)
			p.Seed++
			b, _ := jet.SimulateCycle(p)
			Expect(b.Trace.Pressure).NotTo(Equal(a.Trace.Pressure))
			Expect(b.Trace.Z).To(Equal(a.Trace.Z))
			Expect(b.Metrics.ImpulseRaw).To(Equal(a.Metrics.ImpulseRaw))
		})
	})

	Context("with invalid parameters", func() {
		DescribeTable("fails before running",
			func(mutate func(*jet.Parameters), field string) {
				mutate(&p)
				res, err := jet.SimulateCycle(p)
				Expect(res).To(BeNil())
				Expect(errors.Is(err, jet.ErrInvalidParameter)).To(BeTrue())
				var pe *jet.ParameterError
				Expect(errors.As(err, &pe)).To(BeTrue())
				Expect(pe.Field).To(Equal(field))
			},
			Entry("zero diameter", func(p *jet.Parameters) { p.Diameter = 0 }, "diameter"),
			Entry("negative frequency", func(p *jet.Parameters) { p.Frequency = -1 }, "frequency"),
			Entry("zero dt", func(p *jet.Parameters) { p.Dt = 0 }, "dt"),
			Entry("NaN dt", func(p *jet.Parameters) { p.Dt = math.NaN() }, "dt"),
			Entry("zero duration", func(p *jet.Parameters) { p.DurationCycles = 0 }, "duration_cycles"),
		)
	})

	Context("with singular divisors", func() {
		It("clamps a zero return-time constant and reports it", func() {
			p.TauR = 0
			p.DurationCycles = 1
			res, err := jet.SimulateCycle(p)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Diagnostics).To(ContainElement(jet.Diagnostic{
				Kind:  jet.DiagSingularDivision,
				Field: "tau_r",
				Value: 0,
				Floor: jet.TauFloor,
			}))
		})

		It("clamps a negative compliance and keeps the trace finite", func() {
			p.CavityCompliance = -1
			res, err := jet.SimulateCycle(p)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Diagnostics).To(HaveLen(1))
			Expect(res.Diagnostics[0].Field).To(Equal("cavity_compliance"))
			for _, v := range res.Trace.Pressure {
				Expect(math.IsInf(v, 0) || math.IsNaN(v)).To(BeFalse())
			}
		})
	})
})
