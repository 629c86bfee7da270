package config_test

import (
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"devassist.app/engine/core/config"
)

func setEnv(key, value string) {
	Expect(os.Setenv(key, value)).To(Succeed())
	DeferCleanup(os.Unsetenv, key)
}

var _ = Describe("Load", func() {
	BeforeEach(func() {
		// Production skips the .env file lookup so the test controls every
		// variable.
		setEnv("ENGINE_ENV", "production")
	})

	It("applies pipeline defaults", func() {
		cfg, err := config.Load(config.ServiceTypeServer)

		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Pipeline.Deadline).To(Equal(500 * time.Millisecond))
		Expect(cfg.Pipeline.TopK).To(Equal(3))
		Expect(cfg.Pipeline.StandardsCacheTTL).To(Equal(30 * time.Second))
		Expect(cfg.Pipeline.MinimalCacheOnly).To(BeFalse())
	})

	It("honors the pipeline environment knobs", func() {
		setEnv("PIPELINE_DEADLINE", "250ms")
		setEnv("PIPELINE_STANDARDS_CACHE_TTL", "2m")
		setEnv("PIPELINE_MINIMAL_CACHE_ONLY", "true")

		cfg, err := config.Load(config.ServiceTypeServer)

		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Pipeline.Deadline).To(Equal(250 * time.Millisecond))
		Expect(cfg.Pipeline.StandardsCacheTTL).To(Equal(2 * time.Minute))
		Expect(cfg.Pipeline.MinimalCacheOnly).To(BeTrue())
	})

	It("falls back when a boolean knob is malformed", func() {
		setEnv("PIPELINE_MINIMAL_CACHE_ONLY", "definitely")

		cfg, err := config.Load(config.ServiceTypeServer)

		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Pipeline.MinimalCacheOnly).To(BeFalse())
	})

	It("rejects a recover threshold at or below the drop threshold", func() {
		setEnv("CONTROLLER_DROP_THRESHOLD", "0.9")
		setEnv("CONTROLLER_RECOVER_THRESHOLD", "0.85")

		_, err := config.Load(config.ServiceTypeServer)
		Expect(err).To(HaveOccurred())
	})
})
