package envsource_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/hamster/internal/envsource"
)

var _ = Describe("Source", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Describe("HTTPSource", func() {
		var (
			server *httptest.Server
			body   string
			status int
		)

		BeforeEach(func() {
			body = `{"url": "https://x", "state": "active"}`
			status = http.StatusOK
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(status)
				w.Write([]byte(body))
			}))
		})

		AfterEach(func() {
			server.Close()
		})

		It("should fetch and decode the resource", func() {
			values, err := envsource.NewHTTPSource(server.URL+"/Pokemon/env.json", time.Second).Fetch(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(values).To(Equal(map[string]string{"url": "https://x", "state": "active"}))
		})

		It("should report invalid JSON as malformed", func() {
			body = "<html>404</html>"
			_, err := envsource.NewHTTPSource(server.URL, time.Second).Fetch(ctx)
			Expect(err).To(MatchError(envsource.ErrMalformed))
		})

		It("should report non-OK responses as unavailable", func() {
			status = http.StatusNotFound
			_, err := envsource.NewHTTPSource(server.URL, time.Second).Fetch(ctx)
			Expect(err).To(MatchError(envsource.ErrUnavailable))
		})

		It("should report a closed server as unavailable", func() {
			server.Close()
			_, err := envsource.NewHTTPSource(server.URL, time.Second).Fetch(ctx)
			Expect(err).To(MatchError(envsource.ErrUnavailable))
		})
	})

	Describe("FileSource", func() {
		var tempDir string

		BeforeEach(func() {
			var err error
			tempDir, err = os.MkdirTemp("", "envsource-*")
			Expect(err).NotTo(HaveOccurred())
		})

		AfterEach(func() {
			os.RemoveAll(tempDir)
		})

		It("should read the file", func() {
			path := filepath.Join(tempDir, "env.json")
			Expect(os.WriteFile(path, []byte(`{"url":"https://x","state":"expired"}`), 0o644)).To(Succeed())

			values, err := envsource.NewFileSource(path).Fetch(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(values).To(HaveKeyWithValue("state", "expired"))
		})

		It("should report a missing file as unavailable", func() {
			_, err := envsource.NewFileSource(filepath.Join(tempDir, "nope.json")).Fetch(ctx)
			Expect(err).To(MatchError(envsource.ErrUnavailable))
		})
	})

	Describe("Decode", func() {
		It("should keep non-string values as JSON text and skip nulls", func() {
			values, err := envsource.Decode([]byte(`{"url":"https://x","port":5000,"tls":true,"tags":["a"],"gone":null}`))
			Expect(err).NotTo(HaveOccurred())
			Expect(values).To(Equal(map[string]string{
				"url":  "https://x",
				"port": "5000",
				"tls":  "true",
				"tags": `["a"]`,
			}))
		})

		It("should reject arrays and null documents", func() {
			_, err := envsource.Decode([]byte(`["https://x"]`))
			Expect(err).To(MatchError(envsource.ErrMalformed))

			_, err = envsource.Decode([]byte(`null`))
			Expect(err).To(MatchError(envsource.ErrMalformed))
		})
	})
})
