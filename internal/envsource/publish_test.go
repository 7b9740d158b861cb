package envsource_test

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/hamster/internal/envsource"
	"github.com/angeloszaimis/hamster/internal/session"
)

var _ = Describe("Publish", func() {
	var tempDir string

	BeforeEach(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "publish-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tempDir)
	})

	It("should write a document the file source reads back", func() {
		path := filepath.Join(tempDir, "docs", "env.json")
		Expect(envsource.Publish(path, "https://abc.ngrok-free.app", session.StateActive)).To(Succeed())

		values, err := envsource.NewFileSource(path).Fetch(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(values).To(Equal(map[string]string{"url": "https://abc.ngrok-free.app", "state": "active"}))
	})

	It("should refuse a relative url", func() {
		err := envsource.Publish(filepath.Join(tempDir, "env.json"), "/api", session.StateActive)
		Expect(err).To(MatchError(session.ErrInvalidURL))
	})

	It("should refuse an unknown state", func() {
		err := envsource.Publish(filepath.Join(tempDir, "env.json"), "https://x", session.State("dozing"))
		Expect(err).To(MatchError(session.ErrInvalidState))
	})

	It("should leave no temporary files behind", func() {
		Expect(envsource.Publish(filepath.Join(tempDir, "env.json"), "https://x", session.StateExpired)).To(Succeed())
		entries, err := os.ReadDir(tempDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(1))
	})
})
