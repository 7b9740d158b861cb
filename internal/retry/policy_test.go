package retry_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/hamster/internal/retry"
)

var _ = Describe("Policy", func() {
	Describe("Fixed", func() {
		It("should wait the same delay every time", func() {
			p := retry.Fixed(10*time.Second, 10)
			Expect(p.Delay(0)).To(Equal(10 * time.Second))
			Expect(p.Delay(7)).To(Equal(10 * time.Second))
		})

		It("should be exhausted at the ceiling", func() {
			p := retry.Fixed(time.Second, 3)
			Expect(p.Exhausted(2)).To(BeFalse())
			Expect(p.Exhausted(3)).To(BeTrue())
		})
	})

	Describe("Exponential", func() {
		It("should double per attempt up to the cap", func() {
			p := retry.Exponential(time.Second, 10*time.Second, 40)
			Expect(p.Delay(0)).To(Equal(time.Second))
			Expect(p.Delay(1)).To(Equal(2 * time.Second))
			Expect(p.Delay(3)).To(Equal(8 * time.Second))
			Expect(p.Delay(4)).To(Equal(10 * time.Second))
			Expect(p.Delay(200)).To(Equal(10 * time.Second))
		})

		It("should be exhausted at the ceiling", func() {
			Expect(retry.Exponential(time.Second, time.Minute, 5).Exhausted(5)).To(BeTrue())
		})
	})

	Describe("Unbounded", func() {
		It("should never be exhausted", func() {
			p := retry.Unbounded(3 * time.Second)
			Expect(p.Exhausted(1_000_000)).To(BeFalse())
			Expect(p.Delay(42)).To(Equal(3 * time.Second))
		})
	})

	Describe("FromType", func() {
		DescribeTable("policy names",
			func(name string, exhaustedAt int) {
				p, err := retry.FromType(name, time.Second, time.Minute, 10)
				Expect(err).NotTo(HaveOccurred())
				Expect(p.Exhausted(exhaustedAt)).To(Equal(name != retry.TypeUnbounded))
			},
			Entry("fixed", retry.TypeFixed, 10),
			Entry("exponential", retry.TypeExponential, 10),
			Entry("unbounded", retry.TypeUnbounded, 10),
		)

		It("should reject unknown names", func() {
			_, err := retry.FromType("jittered", time.Second, time.Minute, 10)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Sleep", func() {
		It("should return after the delay", func() {
			start := time.Now()
			Expect(retry.Sleep(context.Background(), 20*time.Millisecond)).To(Succeed())
			Expect(time.Since(start)).To(BeNumerically(">=", 20*time.Millisecond))
		})

		It("should stop when the context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			Expect(retry.Sleep(ctx, time.Hour)).To(MatchError(context.Canceled))
		})
	})
})
