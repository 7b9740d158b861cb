package session_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/hamster/internal/session"
)

var _ = Describe("Record", func() {
	Describe("Fields", func() {
		It("should flatten reserved and extra keys in key order", func() {
			rec := session.Record{
				URL:   "https://x",
				State: session.StateActive,
				Extra: map[string]string{"region": "eu"},
			}
			Expect(rec.Fields()).To(Equal([]session.Field{
				{Key: "region", Value: "eu"},
				{Key: "state", Value: "active"},
				{Key: "url", Value: "https://x"},
			}))
		})

		It("should not let extras shadow reserved keys", func() {
			rec := session.Record{
				URL:   "https://x",
				Extra: map[string]string{"url": "https://evil"},
			}
			Expect(rec.Fields()).To(ConsistOf(session.Field{Key: "url", Value: "https://x"}))
		})
	})

	Describe("FromFields", func() {
		It("should rebuild the record", func() {
			rec := session.FromFields(map[string]string{"url": "https://x", "state": "expired", "k": "v"})
			Expect(rec.URL).To(Equal("https://x"))
			Expect(rec.State).To(Equal(session.StateExpired))
			Expect(rec.Extra).To(HaveKeyWithValue("k", "v"))
			Expect(rec.HasURL()).To(BeTrue())
		})
	})

	Describe("ParseState", func() {
		It("should accept known states", func() {
			Expect(session.ParseState("active")).To(Equal(session.StateActive))
			Expect(session.ParseState("expired")).To(Equal(session.StateExpired))
		})

		It("should reject anything else", func() {
			_, err := session.ParseState("sleeping")
			Expect(err).To(MatchError(session.ErrInvalidState))
		})
	})

	Describe("ValidateOrigin", func() {
		DescribeTable("origins",
			func(raw string, ok bool) {
				err := session.ValidateOrigin(raw)
				if ok {
					Expect(err).NotTo(HaveOccurred())
				} else {
					Expect(err).To(MatchError(session.ErrInvalidURL))
				}
			},
			Entry("https origin", "https://abc.ngrok-free.app", true),
			Entry("http with port", "http://localhost:5000", true),
			Entry("relative path", "/api", false),
			Entry("ftp scheme", "ftp://host", false),
			Entry("missing host", "https://", false),
		)
	})
})
