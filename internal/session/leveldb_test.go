package session_test

import (
	"context"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/hamster/internal/session"
)

var _ = Describe("LevelDBStore", func() {
	var (
		ctx     context.Context
		tempDir string
		dbPath  string
		store   *session.LevelDBStore
	)

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		tempDir, err = os.MkdirTemp("", "session-leveldb-*")
		Expect(err).NotTo(HaveOccurred())
		dbPath = filepath.Join(tempDir, "session")

		store, err = session.OpenLevelDB(dbPath)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if store != nil {
			store.Close()
		}
		os.RemoveAll(tempDir)
	})

	It("should report not found on a fresh database", func() {
		_, err := store.Read(ctx)
		Expect(err).To(MatchError(session.ErrNotFound))
	})

	It("should persist the record across reopen", func() {
		rec := session.Record{URL: "https://x", State: session.StateActive, Extra: map[string]string{"k": "v"}}
		Expect(store.Write(ctx, rec, time.Now().Add(time.Hour))).To(Succeed())
		Expect(store.Close()).To(Succeed())

		var err error
		store, err = session.OpenLevelDB(dbPath)
		Expect(err).NotTo(HaveOccurred())

		got, err := store.Read(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal(rec))
	})

	It("should replace stale keys on write", func() {
		Expect(store.Write(ctx, session.Record{URL: "https://x", Extra: map[string]string{"old": "1"}}, time.Now().Add(time.Hour))).To(Succeed())
		Expect(store.Write(ctx, session.Record{URL: "https://y", State: session.StateExpired}, time.Now().Add(time.Hour))).To(Succeed())

		got, err := store.Read(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.URL).To(Equal("https://y"))
		Expect(got.Extra).To(BeEmpty())
	})

	It("should honour expiry", func() {
		now := time.Now()
		store.WithClock(func() time.Time { return now })
		Expect(store.Write(ctx, session.Record{URL: "https://x"}, now.Add(time.Minute))).To(Succeed())

		now = now.Add(2 * time.Minute)
		_, err := store.Read(ctx)
		Expect(err).To(MatchError(session.ErrNotFound))
	})

	It("should delete the record", func() {
		Expect(store.Write(ctx, session.Record{URL: "https://x"}, time.Now().Add(time.Hour))).To(Succeed())
		Expect(store.Delete(ctx)).To(Succeed())

		_, err := store.Read(ctx)
		Expect(err).To(MatchError(session.ErrNotFound))
	})
})
