package config_test

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/hamster/config"
)

var _ = Describe("Config", func() {
	var (
		tempDir string
		origDir string
	)

	BeforeEach(func() {
		var err error
		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())

		tempDir, err = os.MkdirTemp("", "config-test-*")
		Expect(err).NotTo(HaveOccurred())
		Expect(os.Chdir(tempDir)).To(Succeed())
	})

	AfterEach(func() {
		Expect(os.Chdir(origDir)).To(Succeed())
		os.RemoveAll(tempDir)
		os.Unsetenv("POLLER_MAX_RETRIES")
		os.Unsetenv("POLLER_POLICY")
	})

	writeConfig := func(content string) {
		Expect(os.WriteFile(filepath.Join(tempDir, "config.yaml"), []byte(content), 0o644)).To(Succeed())
	}

	Describe("Load", func() {
		Context("with valid config file", func() {
			BeforeEach(func() {
				writeConfig(`
server:
  address: ":9090"
  environment: "prod"

site:
  base_path: "/Pokemon"
  dir: "./docs"

poller:
  config_url: "https://heisodin.github.io/Pokemon/env.json"
  policy: "exponential"
  delay: "1s"
  max_delay: "30s"
  max_retries: 40
  ttl: "3h"

probe:
  timeout: "2s"
  require_ok: false
  breaker_threshold: 5

session:
  store: "leveldb"
  path: "./data/session"

logging:
  level: "debug"
`)
			})

			It("should load configuration successfully", func() {
				cfg, err := config.Load()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg).NotTo(BeNil())
			})

			It("should parse the poller section", func() {
				cfg, err := config.Load()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.Poller.Policy).To(Equal("exponential"))
				Expect(cfg.Poller.MaxRetries).To(Equal(40))
				Expect(config.Duration(cfg.Poller.MaxDelay)).To(Equal(30 * time.Second))
				Expect(cfg.Poller.ConfigURL).To(Equal("https://heisodin.github.io/Pokemon/env.json"))
			})

			It("should parse the probe and session sections", func() {
				cfg, err := config.Load()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.Probe.RequireOK).To(BeFalse())
				Expect(cfg.Probe.BreakerThreshold).To(Equal(5))
				Expect(cfg.Probe.BypassHeader).To(Equal("ngrok-skip-browser-warning"))
				Expect(cfg.Session.Store).To(Equal(config.StoreLevelDB))
			})

			It("should let the environment override the file", func() {
				os.Setenv("POLLER_MAX_RETRIES", "12")
				cfg, err := config.Load()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.Poller.MaxRetries).To(Equal(12))
			})
		})

		Context("without a config file", func() {
			It("should use the hamster page defaults", func() {
				cfg, err := config.Load()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.Poller.Policy).To(Equal("fixed"))
				Expect(cfg.Poller.Delay).To(Equal("10s"))
				Expect(cfg.Poller.MaxRetries).To(Equal(10))
				Expect(cfg.Poller.TTL).To(Equal("3h"))
				Expect(cfg.Probe.RequireOK).To(BeTrue())
				Expect(cfg.Pages.Hamster).To(Equal("/Pokemon/pages/hamster.html"))
				Expect(cfg.Pages.ServerDown).To(Equal("/Pokemon/pages/server-down.html"))
				Expect(cfg.Session.Store).To(Equal(config.StoreMemory))
			})
		})

		Context("with invalid values", func() {
			It("should reject an unknown policy", func() {
				os.Setenv("POLLER_POLICY", "jittered")
				_, err := config.Load()
				Expect(err).To(HaveOccurred())
			})

			It("should reject a bad duration", func() {
				writeConfig("poller:\n  delay: \"soon\"\n")
				_, err := config.Load()
				Expect(err).To(HaveOccurred())
			})

			It("should reject a relative config url", func() {
				writeConfig("poller:\n  config_url: \"env.json\"\n")
				_, err := config.Load()
				Expect(err).To(HaveOccurred())
			})

			It("should reject a zero retry ceiling for bounded policies", func() {
				os.Setenv("POLLER_MAX_RETRIES", "0")
				_, err := config.Load()
				Expect(err).To(HaveOccurred())
			})

			It("should allow a zero retry ceiling when polling forever", func() {
				os.Setenv("POLLER_MAX_RETRIES", "0")
				os.Setenv("POLLER_POLICY", "unbounded")
				_, err := config.Load()
				Expect(err).NotTo(HaveOccurred())
			})

			It("should reject pages that are not absolute paths", func() {
				writeConfig("pages:\n  unknown: \"pages/unknown.html\"\n")
				_, err := config.Load()
				Expect(err).To(HaveOccurred())
			})
		})
	})

	Describe("LoadFrom", func() {
		It("should fail on an explicit file that does not exist", func() {
			v := config.New()
			v.SetConfigFile(filepath.Join(tempDir, "missing.yaml"))
			_, err := config.LoadFrom(v)
			Expect(err).To(HaveOccurred())
		})
	})
})
