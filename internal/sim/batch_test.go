package sim

import (
	"context"
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/aflc/internal/aflc"
	"github.com/san-kum/aflc/internal/dynamo"
)

var _ = Describe("RunBatch", func() {
	var jobs []Job

	BeforeEach(func() {
		frozen := tunedGains()
		frozen.Gamma = aflc.GammaMatrix{}

		sc := Step("yaw", 10, 0.05, dynamo.Vec4{0, 0, 0, 0.5})
		jobs = []Job{
			{Name: "adaptive", Sim: newTestSim(tunedGains()), Scenario: sc},
			{Name: "frozen", Sim: newTestSim(frozen), Scenario: sc},
		}
	})

	It("returns results in job order", func() {
		results, err := RunBatch(context.Background(), jobs)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(2))
		for _, res := range results {
			Expect(res.StepsTaken).To(Equal(200))
			Expect(res.Scenario).To(Equal("yaw"))
		}
	})

	It("keeps θ fixed only where Γ is zero", func() {
		results, err := RunBatch(context.Background(), jobs)
		Expect(err).NotTo(HaveOccurred())

		theta0 := tunedGains().Theta0
		Expect(results[1].Final().Theta).To(Equal(theta0))
		Expect(results[0].Final().Theta).NotTo(Equal(theta0))
	})

	It("turns toward the commanded heading", func() {
		results, err := RunBatch(context.Background(), jobs)
		Expect(err).NotTo(HaveOccurred())
		for _, res := range results {
			yaw := res.Final().Eta[dynamo.Yaw]
			Expect(math.Abs(yaw - 0.5)).To(BeNumerically("<", 0.1))
		}
	})

	It("reports the failing job by name", func() {
		jobs[1].Scenario.Duration = -1

		results, err := RunBatch(context.Background(), jobs)
		Expect(err).To(MatchError(ContainSubstring(`job "frozen"`)))
		Expect(errors.Is(err, ErrScenario)).To(BeTrue())
		Expect(results[0]).NotTo(BeNil())
	})
})

var _ = Describe("RunEach", func() {
	It("keeps one error per job", func() {
		sc := Step("surge", 1, 0.05, dynamo.Vec4{1, 0, 0, 0})
		bad := sc
		bad.Dt = math.NaN()

		results, errs := RunEach(context.Background(), []Job{
			{Name: "ok", Sim: newTestSim(tunedGains()), Scenario: sc},
			{Name: "bad", Sim: newTestSim(tunedGains()), Scenario: bad},
			{Name: "ok again", Sim: newTestSim(tunedGains()), Scenario: sc},
		})
		Expect(errs[0]).NotTo(HaveOccurred())
		Expect(errs[1]).To(MatchError(ErrScenario))
		Expect(errs[2]).NotTo(HaveOccurred())
		Expect(results[2].StepsTaken).To(Equal(20))
	})

	It("accepts an empty batch", func() {
		results, errs := RunEach(context.Background(), nil)
		Expect(results).To(BeEmpty())
		Expect(errs).To(BeEmpty())
	})
})
