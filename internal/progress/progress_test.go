package progress_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/quadbench/internal/progress"
)

func intPtr(v int) *int { return &v }

// posWithError places a single agent at the given max component error from
// the target.
func posWithError(target [3]float64, err float64) [][]float64 {
	return [][]float64{{target[0] + err, target[1], target[2]}}
}

var _ = Describe("Advance", func() {
	target := [3]float64{0, 0, 1.5}

	Context("fixed-duration mode", func() {
		cfg := progress.Config{StepsPerSetpoint: intPtr(5)}

		It("marks the target done exactly on the configured step", func() {
			st := progress.NewState(2).ResetForTarget(0)

			for i := 1; i <= 4; i++ {
				st = progress.Advance(target, posWithError(target, 1.0), cfg, st)
				Expect(st.TargetDone).To(BeFalse(), "call %d", i)
			}

			st = progress.Advance(target, posWithError(target, 1.0), cfg, st)
			Expect(st.TargetDone).To(BeTrue())
			Expect(st.StepsSinceTargetSet).To(Equal(5))
		})

		It("keeps InProgress true until the final setpoint finishes", func() {
			st := progress.NewState(2).ResetForTarget(0)
			for i := 0; i < 5; i++ {
				st = progress.Advance(target, posWithError(target, 1.0), cfg, st)
			}
			Expect(st.TargetDone).To(BeTrue())
			Expect(st.InProgress).To(BeTrue())

			st = st.ResetForTarget(1)
			for i := 0; i < 4; i++ {
				st = progress.Advance(target, posWithError(target, 1.0), cfg, st)
				Expect(st.InProgress).To(BeTrue())
			}
			st = progress.Advance(target, posWithError(target, 1.0), cfg, st)
			Expect(st.TargetDone).To(BeTrue())
			Expect(st.InProgress).To(BeFalse())
		})

		It("accepts a zero step budget without special-casing", func() {
			st := progress.NewState(1).ResetForTarget(0)
			st = progress.Advance(target, posWithError(target, 1.0), progress.Config{StepsPerSetpoint: intPtr(0)}, st)
			Expect(st.TargetDone).To(BeTrue())
			Expect(st.InProgress).To(BeFalse())
		})
	})

	Context("stabilization mode", func() {
		cfg := progress.Config{MinAtTargetSteps: 3, ErrorThreshold: 0.05}

		It("resets the stability counter when an agent drifts away", func() {
			errs := []float64{0.2, 0.01, 0.01, 0.2, 0.01, 0.01, 0.01}
			st := progress.NewState(1).ResetForTarget(0)

			for i, e := range errs {
				st = progress.Advance(target, posWithError(target, e), cfg, st)
				if i < len(errs)-1 {
					Expect(st.TargetDone).To(BeFalse(), "call %d", i+1)
				}
			}
			Expect(st.TargetDone).To(BeTrue())
			Expect(st.AtTargetSteps).To(Equal(3))
		})

		It("uses the max component error across all agents", func() {
			st := progress.NewState(1).ResetForTarget(0)
			pos := [][]float64{
				{target[0], target[1], target[2]},         // at target
				{target[0], target[1] + 0.2, target[2]},   // off target
			}
			st = progress.Advance(target, pos, cfg, st)
			Expect(st.AtTargetSteps).To(BeZero())
		})

		It("marks done on the first close tick when MinAtTargetSteps is zero", func() {
			st := progress.NewState(1).ResetForTarget(0)
			zero := progress.Config{MinAtTargetSteps: 0, ErrorThreshold: 0.05}

			st = progress.Advance(target, posWithError(target, 1.0), zero, st)
			Expect(st.TargetDone).To(BeFalse())

			st = progress.Advance(target, posWithError(target, 0.0), zero, st)
			Expect(st.TargetDone).To(BeTrue())
		})
	})

	Context("target transitions", func() {
		It("keeps the current index monotonically non-decreasing", func() {
			st := progress.NewState(3)
			for idx := 0; idx < 3; idx++ {
				prev := st.CurrentTargetIndex
				st = st.ResetForTarget(idx)
				Expect(st.CurrentTargetIndex).To(BeNumerically(">=", prev))
				Expect(st.TargetDone).To(BeFalse())
				Expect(st.StepsSinceTargetSet).To(BeZero())
				Expect(st.AtTargetSteps).To(BeZero())
			}
		})

		It("never resurrects InProgress once false", func() {
			st := progress.NewState(1).ResetForTarget(0)
			st = progress.Advance([3]float64{}, posWithError([3]float64{}, 0), progress.Config{MinAtTargetSteps: 1, ErrorThreshold: 0.1}, st)
			Expect(st.InProgress).To(BeFalse())

			st = st.ResetForTarget(0)
			Expect(st.InProgress).To(BeFalse())
		})
	})
})
