package registry_test

import (
	"context"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	internalconfig "github.com/tekup/cursorhooks/internal/config"
	"github.com/tekup/cursorhooks/internal/registry"
	"github.com/tekup/cursorhooks/pkg/config"
	"github.com/tekup/cursorhooks/pkg/hook"
	"github.com/tekup/cursorhooks/pkg/logger"
)

type countingSource struct {
	cfg   *config.Config
	loads atomic.Int32
}

func (s *countingSource) Load() *config.Config {
	s.loads.Add(1)

	return s.cfg
}

func desc(name string, priority int, enabled bool) hook.Descriptor {
	return hook.Descriptor{Name: name, File: name, Enabled: enabled, Priority: priority}
}

func names(ds []hook.Descriptor) []string {
	out := make([]string, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.Name)
	}

	return out
}

var _ = Describe("Registry", func() {
	var cfg *config.Config

	BeforeEach(func() {
		cfg = config.Default()
		cfg.Hooks.PreExecution = []hook.Descriptor{
			desc("late", 10, true),
			desc("disabled", 0, false),
			desc("first-tie", 5, true),
			desc("early", 1, true),
			desc("second-tie", 5, true),
		}
		cfg.Hooks.Error = []hook.Descriptor{desc("report", 0, true)}
		cfg.Hooks.Context = []hook.Descriptor{desc("gather", 3, true), desc("off", 1, false)}
	})

	Describe("HooksForCategory", func() {
		It("filters disabled hooks and sorts by priority keeping config order on ties", func() {
			reg := registry.NewStatic(cfg)

			Expect(names(reg.HooksForCategory(hook.CategoryPreExecution))).To(Equal(
				[]string{"early", "first-tie", "second-tie", "late"},
			))
		})

		It("returns an empty list for empty and unknown categories", func() {
			reg := registry.NewStatic(cfg)

			Expect(reg.HooksForCategory(hook.CategoryPostExecution)).To(BeEmpty())
			Expect(reg.HooksForCategory(hook.Category("bogus"))).To(BeEmpty())
		})

		It("always yields non-decreasing priorities of enabled hooks", func() {
			rng := rand.New(rand.NewPCG(1, 2))

			for range 50 {
				random := config.Default()
				for i := range 20 {
					random.Hooks.PreExecution = append(random.Hooks.PreExecution,
						desc(string(rune('a'+i)), rng.IntN(5), rng.IntN(2) == 0))
				}

				got := registry.NewStatic(random).HooksForCategory(hook.CategoryPreExecution)
				for i, d := range got {
					Expect(d.Enabled).To(BeTrue())
					if i > 0 {
						Expect(d.Priority).To(BeNumerically(">=", got[i-1].Priority))
					}
				}
			}
		})
	})

	Describe("AllEnabledHooks", func() {
		It("concatenates categories in enumeration order", func() {
			reg := registry.NewStatic(cfg)

			Expect(names(reg.AllEnabledHooks())).To(Equal(
				[]string{"early", "first-tie", "second-tie", "late", "report", "gather"},
			))
		})
	})

	Describe("HookExists", func() {
		It("only finds enabled hooks in the given category", func() {
			reg := registry.NewStatic(cfg)

			Expect(reg.HookExists("early", hook.CategoryPreExecution)).To(BeTrue())
			Expect(reg.HookExists("disabled", hook.CategoryPreExecution)).To(BeFalse())
			Expect(reg.HookExists("early", hook.CategoryError)).To(BeFalse())
		})
	})

	Describe("caching", func() {
		It("loads the configuration once until invalidated", func() {
			src := &countingSource{cfg: cfg}
			reg := registry.New(src, logger.NewNoOpLogger())

			reg.HooksForCategory(hook.CategoryPreExecution)
			reg.AllEnabledHooks()
			reg.ExecutionPolicy()
			Expect(src.loads.Load()).To(Equal(int32(1)))

			reg.Invalidate()
			reg.HookExists("early", hook.CategoryPreExecution)
			Expect(src.loads.Load()).To(Equal(int32(2)))
		})

		It("substitutes defaults when the source returns nil", func() {
			reg := registry.New(&countingSource{}, nil)

			Expect(reg.Configuration()).To(Equal(config.Default()))
		})
	})

	Describe("Watch", func() {
		It("invalidates the cache when the config file changes", func() {
			dir := GinkgoT().TempDir()
			path := filepath.Join(dir, "hooks.json")
			write := func(name string) {
				content := `{"hooks": {"pre-execution": [{"name": "` + name +
					`", "file": "x", "enabled": true}], "post-execution": [], "error": [], "context": []},
				"execution": {}}`
				Expect(os.WriteFile(path, []byte(content), 0o600)).To(Succeed())
			}

			write("before")

			reg := registry.New(internalconfig.NewLoader(path, nil), nil)
			Expect(reg.HookExists("before", hook.CategoryPreExecution)).To(BeTrue())

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			var reloads atomic.Int32

			done := make(chan error, 1)
			go func() {
				done <- reg.Watch(ctx, path, func() { reloads.Add(1) })
			}()

			// Give the watcher time to register before writing.
			time.Sleep(100 * time.Millisecond)
			write("after")

			Eventually(reloads.Load, 5*time.Second, 50*time.Millisecond).Should(BeNumerically(">=", 1))
			Expect(reg.HookExists("after", hook.CategoryPreExecution)).To(BeTrue())

			cancel()
			Eventually(done, 2*time.Second).Should(Receive(MatchError(context.Canceled)))
		})
	})
})
