package config_test

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	internalconfig "github.com/tekup/cursorhooks/internal/config"
	"github.com/tekup/cursorhooks/pkg/config"
	"github.com/tekup/cursorhooks/pkg/hook"
	"github.com/tekup/cursorhooks/pkg/logger"
)

var _ = Describe("Loader", func() {
	var (
		dir    string
		logBuf *bytes.Buffer
		log    logger.Logger
	)

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		logBuf = &bytes.Buffer{}
		log = logger.NewFileLoggerWithWriter(logBuf, false, false)
	})

	writeConfig := func(name, content string) string {
		path := filepath.Join(dir, name)
		Expect(os.WriteFile(path, []byte(content), 0o600)).To(Succeed())

		return path
	}

	expectAllCategoriesPresent := func(cfg *config.Config) {
		for _, c := range hook.Categories() {
			Expect(cfg.Hooks.ForCategory(c)).NotTo(BeNil(), "category %s", c)
		}
	}

	It("uses the default path when none is given", func() {
		Expect(internalconfig.NewLoader("", nil).Path()).To(Equal(internalconfig.DefaultConfigPath))
	})

	Context("with a valid JSON document", func() {
		It("decodes hooks and the execution policy", func() {
			path := writeConfig("hooks.json", `{
				"hooks": {
					"pre-execution": [
						{"name": "rules", "file": "pre-execution/rules", "description": "d", "enabled": true, "priority": 2}
					],
					"post-execution": [],
					"error": [],
					"context": []
				},
				"execution": {"parallel": true, "stopOnError": true, "timeout": 5000}
			}`)

			cfg, err := internalconfig.NewLoader(path, log).LoadStrict()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Hooks.PreExecution).To(Equal([]hook.Descriptor{{
				Name:        "rules",
				File:        "pre-execution/rules",
				Description: "d",
				Enabled:     true,
				Priority:    2,
			}}))
			Expect(cfg.Execution).To(Equal(config.ExecutionConfig{
				Parallel:    true,
				StopOnError: true,
				Timeout:     5000,
			}))
			Expect(logBuf.String()).To(BeEmpty())
		})

		It("applies environment overrides to the execution policy", func() {
			path := writeConfig("hooks.json", `{
				"hooks": {"pre-execution": [], "post-execution": [], "error": [], "context": []},
				"execution": {"parallel": false, "stopOnError": false, "timeout": 1000}
			}`)

			GinkgoT().Setenv("CURSOR_HOOKS_EXECUTION_PARALLEL", "true")
			GinkgoT().Setenv("CURSOR_HOOKS_EXECUTION_TIMEOUT", "250")
			GinkgoT().Setenv("CURSOR_HOOKS_UNRELATED", "x")

			cfg := internalconfig.NewLoader(path, log).Load()
			Expect(cfg.Execution.Parallel).To(BeTrue())
			Expect(cfg.Execution.Timeout).To(Equal(250))
		})

		It("applies overrides over the file and environment", func() {
			path := writeConfig("hooks.json", `{
				"hooks": {"pre-execution": [], "post-execution": [], "error": [], "context": []},
				"execution": {"parallel": false, "stopOnError": false, "timeout": 1000}
			}`)

			GinkgoT().Setenv("CURSOR_HOOKS_EXECUTION_TIMEOUT", "250")

			cfg := internalconfig.NewLoader(path, log).
				WithOverrides(map[string]any{
					"execution.timeout":     75,
					"execution.stopOnError": true,
				}).
				Load()
			Expect(cfg.Execution.Timeout).To(Equal(75))
			Expect(cfg.Execution.StopOnError).To(BeTrue())
			Expect(cfg.Execution.Parallel).To(BeFalse())
		})

		It("accepts duration strings for the timeout", func() {
			path := writeConfig("hooks.json", `{
				"hooks": {"pre-execution": [], "post-execution": [], "error": [], "context": []},
				"execution": {"parallel": false, "stopOnError": false, "timeout": "1m30s"}
			}`)

			cfg, err := internalconfig.NewLoader(path, log).LoadStrict()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Execution.Timeout).To(Equal(90000))
		})
	})

	Context("with a TOML document", func() {
		It("decodes the same structure", func() {
			path := writeConfig("hooks.toml", `
[execution]
parallel = false
stopOnError = true
timeout = 100

[hooks]
post-execution = []
error = []
context = []

[[hooks.pre-execution]]
name = "rules"
file = "pre-execution/rules"
enabled = true
priority = 1
`)

			cfg, err := internalconfig.NewLoader(path, log).LoadStrict()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Hooks.PreExecution).To(HaveLen(1))
			Expect(cfg.Hooks.PreExecution[0].Name).To(Equal("rules"))
			Expect(cfg.Execution.StopOnError).To(BeTrue())
		})
	})

	Context("with an unusable document", func() {
		It("falls back to defaults when the file is missing", func() {
			cfg, err := internalconfig.NewLoader(filepath.Join(dir, "missing.json"), log).LoadStrict()
			Expect(errors.Is(err, internalconfig.ErrConfigNotFound)).To(BeTrue())
			Expect(cfg).To(Equal(config.Default()))
		})

		It("falls back to defaults when the file cannot be parsed", func() {
			path := writeConfig("hooks.json", `{"hooks": [`)

			cfg, err := internalconfig.NewLoader(path, log).LoadStrict()
			Expect(errors.Is(err, internalconfig.ErrInvalidDocument)).To(BeTrue())
			Expect(cfg).To(Equal(config.Default()))
		})

		It("falls back to defaults when hooks is missing", func() {
			path := writeConfig("hooks.json", `{"execution": {"parallel": true}}`)

			cfg, err := internalconfig.NewLoader(path, log).LoadStrict()
			Expect(errors.Is(err, internalconfig.ErrMissingSection)).To(BeTrue())
			Expect(cfg).To(Equal(config.Default()))
		})

		It("falls back to defaults when execution is missing", func() {
			path := writeConfig("hooks.json", `{"hooks": {}}`)

			cfg, err := internalconfig.NewLoader(path, log).LoadStrict()
			Expect(errors.Is(err, internalconfig.ErrMissingSection)).To(BeTrue())
			Expect(cfg).To(Equal(config.Default()))
		})

		It("never fails from Load and logs a warning", func() {
			path := writeConfig("hooks.json", `not json`)

			cfg := internalconfig.NewLoader(path, log).Load()
			expectAllCategoriesPresent(cfg)
			Expect(cfg.Execution).To(Equal(config.DefaultExecution()))
			Expect(logBuf.String()).To(ContainSubstring("WARN"))
		})
	})

	Context("with a partially valid document", func() {
		It("coerces missing and non-list categories to empty lists", func() {
			path := writeConfig("hooks.json", `{
				"hooks": {
					"pre-execution": [{"name": "keep", "file": "keep", "enabled": true, "priority": 0}],
					"error": "oops",
					"context": {"name": "x"}
				},
				"execution": {"parallel": false, "stopOnError": false, "timeout": 30000}
			}`)

			cfg, err := internalconfig.NewLoader(path, log).LoadStrict()
			Expect(errors.Is(err, internalconfig.ErrInvalidCategory)).To(BeTrue())
			expectAllCategoriesPresent(cfg)
			Expect(cfg.Hooks.PreExecution).To(HaveLen(1))
			Expect(cfg.Hooks.PostExecution).To(BeEmpty())
			Expect(cfg.Hooks.Error).To(BeEmpty())
			Expect(cfg.Hooks.Context).To(BeEmpty())
		})

		It("skips entries that are not objects or have no name", func() {
			path := writeConfig("hooks.json", `{
				"hooks": {
					"pre-execution": [42, {"file": "nameless"}, {"name": "ok", "file": "ok", "enabled": true}],
					"post-execution": [], "error": [], "context": []
				},
				"execution": {"parallel": false, "stopOnError": false, "timeout": 30000}
			}`)

			cfg, err := internalconfig.NewLoader(path, log).LoadStrict()
			Expect(errors.Is(err, internalconfig.ErrInvalidDescriptor)).To(BeTrue())
			Expect(cfg.Hooks.PreExecution).To(HaveLen(1))
			Expect(cfg.Hooks.PreExecution[0].Name).To(Equal("ok"))
		})

		It("replaces a malformed execution policy with defaults", func() {
			path := writeConfig("hooks.json", `{
				"hooks": {"pre-execution": [], "post-execution": [], "error": [], "context": []},
				"execution": "fast"
			}`)

			cfg, err := internalconfig.NewLoader(path, log).LoadStrict()
			Expect(errors.Is(err, internalconfig.ErrInvalidExecution)).To(BeTrue())
			Expect(cfg.Execution).To(Equal(config.DefaultExecution()))
		})

		It("keeps default fields absent from the execution policy", func() {
			path := writeConfig("hooks.json", `{
				"hooks": {"pre-execution": [], "post-execution": [], "error": [], "context": []},
				"execution": {"parallel": true}
			}`)

			cfg, err := internalconfig.NewLoader(path, log).LoadStrict()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Execution.Parallel).To(BeTrue())
			Expect(cfg.Execution.Timeout).To(Equal(config.DefaultTimeoutMs))
		})

		It("reports duplicate names but keeps both entries", func() {
			path := writeConfig("hooks.json", `{
				"hooks": {
					"pre-execution": [{"name": "a", "file": "a"}, {"name": "a", "file": "b"}],
					"post-execution": [], "error": [], "context": []
				},
				"execution": {}
			}`)

			cfg, err := internalconfig.NewLoader(path, log).LoadStrict()
			Expect(errors.Is(err, internalconfig.ErrDuplicateHook)).To(BeTrue())
			Expect(cfg.Hooks.PreExecution).To(HaveLen(2))
		})

		It("decodes the optional resolver section", func() {
			path := writeConfig("hooks.json", `{
				"hooks": {"pre-execution": [], "post-execution": [], "error": [], "context": []},
				"execution": {},
				"resolver": {"root": "/opt/hooks", "sourceExtension": ".bash"}
			}`)

			cfg, err := internalconfig.NewLoader(path, log).LoadStrict()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Resolver.GetRoot()).To(Equal("/opt/hooks"))
			Expect(cfg.Resolver.GetSourceExtension()).To(Equal(".bash"))
			Expect(cfg.Resolver.GetCompiledExtension()).To(Equal(config.DefaultCompiledExtension))
		})
	})
})
