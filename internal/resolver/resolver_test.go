package resolver_test

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/tekup/cursorhooks/internal/exec"
	"github.com/tekup/cursorhooks/internal/resolver"
	"github.com/tekup/cursorhooks/pkg/config"
	"github.com/tekup/cursorhooks/pkg/hook"
)

// stubRunner records the last command and replays a canned result.
type stubRunner struct {
	last   exec.Command
	stdin  string
	result *exec.CommandResult
}

func (s *stubRunner) RunCommand(_ context.Context, cmd exec.Command) *exec.CommandResult {
	s.last = cmd

	if cmd.Stdin != nil {
		data, _ := io.ReadAll(cmd.Stdin)
		s.stdin = string(data)
	}

	if s.result == nil {
		return &exec.CommandResult{}
	}

	return s.result
}

func constant(v any) hook.Func {
	return func(context.Context, *hook.Context) (any, error) { return v, nil }
}

func call(fn hook.Func) any {
	v, err := fn(context.Background(), hook.NewContext(hook.CategoryPreExecution))
	Expect(err).NotTo(HaveOccurred())

	return v
}

func writeFile(path, content string, mode os.FileMode) {
	Expect(os.MkdirAll(filepath.Dir(path), 0o755)).To(Succeed())
	Expect(os.WriteFile(path, []byte(content), mode)).To(Succeed())
}

var _ = Describe("AsFunc", func() {
	It("accepts every supported callable shape", func() {
		shapes := []any{
			hook.Func(constant(1)),
			func(context.Context, *hook.Context) (any, error) { return 1, nil },
			func(*hook.Context) (any, error) { return 1, nil },
			func(context.Context, *hook.Context) any { return 1 },
			func(*hook.Context) any { return 1 },
		}

		for _, shape := range shapes {
			fn, ok := resolver.AsFunc(shape)
			Expect(ok).To(BeTrue())
			Expect(call(fn)).To(Equal(1))
		}
	})

	It("dereferences function pointers", func() {
		fn := hook.Func(constant("ptr"))

		adapted, ok := resolver.AsFunc(&fn)
		Expect(ok).To(BeTrue())
		Expect(call(adapted)).To(Equal("ptr"))
	})

	It("rejects values that are not callable", func() {
		for _, v := range []any{nil, "default", 42, map[string]any{}, hook.Func(nil)} {
			_, ok := resolver.AsFunc(v)
			Expect(ok).To(BeFalse())
		}
	})
})

var _ = Describe("LookupExport", func() {
	It("prefers the default export", func() {
		mod := resolver.NewModule(
			resolver.Export{Name: "check", Symbol: constant("named")},
			resolver.Export{Name: "default", Symbol: constant("default")},
		)

		fn, convention, ok := resolver.LookupExport(mod, "check")
		Expect(ok).To(BeTrue())
		Expect(convention).To(Equal("default"))
		Expect(call(fn)).To(Equal("default"))
	})

	It("falls back to the hook name", func() {
		mod := resolver.NewModule(
			resolver.Export{Name: "other", Symbol: constant("other")},
			resolver.Export{Name: "check", Symbol: constant("named")},
		)

		fn, convention, ok := resolver.LookupExport(mod, "check")
		Expect(ok).To(BeTrue())
		Expect(convention).To(Equal("<name>"))
		Expect(call(fn)).To(Equal("named"))
	})

	It("falls back to the hook name with a Hook suffix", func() {
		mod := resolver.NewModule(
			resolver.Export{Name: "other", Symbol: constant("other")},
			resolver.Export{Name: "checkHook", Symbol: constant("suffixed")},
		)

		fn, convention, ok := resolver.LookupExport(mod, "check")
		Expect(ok).To(BeTrue())
		Expect(convention).To(Equal("<name>Hook"))
		Expect(call(fn)).To(Equal("suffixed"))
	})

	It("falls back to the first callable export", func() {
		mod := resolver.NewModule(
			resolver.Export{Name: "version", Symbol: "1.0"},
			resolver.Export{Name: "first", Symbol: constant("first")},
			resolver.Export{Name: "second", Symbol: constant("second")},
		)

		fn, convention, ok := resolver.LookupExport(mod, "check")
		Expect(ok).To(BeTrue())
		Expect(convention).To(Equal("first callable export"))
		Expect(call(fn)).To(Equal("first"))
	})

	It("skips a default export that is not callable", func() {
		mod := resolver.NewModule(
			resolver.Export{Name: "default", Symbol: map[string]any{}},
			resolver.Export{Name: "check", Symbol: constant("named")},
		)

		fn, _, ok := resolver.LookupExport(mod, "check")
		Expect(ok).To(BeTrue())
		Expect(call(fn)).To(Equal("named"))
	})

	It("reports modules without callables", func() {
		mod := resolver.NewModule(resolver.Export{Name: "default", Symbol: 3})

		_, _, ok := resolver.LookupExport(mod, "check")
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("ExportedIdentifier", func() {
	DescribeTable("maps export names to Go identifiers",
		func(name, ident string) {
			Expect(resolver.ExportedIdentifier(name)).To(Equal(ident))
		},
		Entry("default", "default", "Default"),
		Entry("kebab case", "validate-rules", "ValidateRules"),
		Entry("kebab case with suffix", "validate-rulesHook", "ValidateRulesHook"),
		Entry("snake case", "update_docs", "UpdateDocs"),
		Entry("leading digit", "1st", ""),
		Entry("empty", "", ""),
	)
})

var _ = Describe("ModuleResolver", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	It("lists candidate paths in probing order", func() {
		r := resolver.New(nil, resolver.WithExtensions(".sh", ".so"))

		Expect(r.Candidates("pre/check")).To(Equal([]string{
			"pre/check",
			"pre/check.sh",
			"pre/check.so",
		}))
	})

	It("resolves builtin modules by reference", func() {
		r := resolver.New([]resolver.Source{
			resolver.NewBuiltinSource(map[string]resolver.Module{
				"./pre/check": resolver.NewModule(resolver.Export{Name: "default", Symbol: constant("ok")}),
			}),
		})

		fn, err := r.Resolve(ctx, hook.Descriptor{Name: "check", File: "pre/check"})
		Expect(err).NotTo(HaveOccurred())
		Expect(call(fn)).To(Equal("ok"))
	})

	It("finds a module registered under the source extension", func() {
		r := resolver.New([]resolver.Source{
			resolver.NewBuiltinSource(map[string]resolver.Module{
				"pre/check.sh": resolver.NewModule(resolver.Export{Name: "default", Symbol: constant("ext")}),
			}),
		})

		fn, err := r.Resolve(ctx, hook.Descriptor{Name: "check", File: "pre/check"})
		Expect(err).NotTo(HaveOccurred())
		Expect(call(fn)).To(Equal("ext"))
	})

	It("tries the next candidate when a module has no callable export", func() {
		r := resolver.New([]resolver.Source{
			resolver.NewBuiltinSource(map[string]resolver.Module{
				"pre/check":    resolver.NewModule(resolver.Export{Name: "default", Symbol: 1}),
				"pre/check.so": resolver.NewModule(resolver.Export{Name: "check", Symbol: constant("compiled")}),
			}),
		})

		fn, err := r.Resolve(ctx, hook.Descriptor{Name: "check", File: "pre/check"})
		Expect(err).NotTo(HaveOccurred())
		Expect(call(fn)).To(Equal("compiled"))
	})

	It("reports every tried path when nothing exists", func() {
		r := resolver.New([]resolver.Source{resolver.NewBuiltinSource(nil)})

		_, err := r.Resolve(ctx, hook.Descriptor{Name: "missing", File: "pre/missing"})
		Expect(err).To(MatchError(resolver.ErrModuleNotFound))
		Expect(err.Error()).To(ContainSubstring("pre/missing.sh"))
		Expect(err.Error()).To(ContainSubstring("pre/missing.so"))
	})

	It("reports the tried conventions when no export is callable", func() {
		r := resolver.New([]resolver.Source{
			resolver.NewBuiltinSource(map[string]resolver.Module{
				"pre/check": resolver.NewModule(resolver.Export{Name: "default", Symbol: "nope"}),
			}),
		})

		_, err := r.Resolve(ctx, hook.Descriptor{Name: "check", File: "pre/check"})
		Expect(err).To(MatchError(resolver.ErrNoCallableExport))
		Expect(err.Error()).To(ContainSubstring("<name>Hook"))
	})

	It("rejects descriptors without a file", func() {
		r := resolver.New(nil)

		_, err := r.Resolve(ctx, hook.Descriptor{Name: "check"})
		Expect(err).To(MatchError(resolver.ErrEmptyReference))
	})

	Context("with files on disk", func() {
		var root string

		BeforeEach(func() {
			root = GinkgoT().TempDir()
		})

		It("runs shell scripts found under the source extension", func() {
			writeFile(filepath.Join(root, "pre", "echo.sh"), `
read -r input
echo "{\"success\": true, \"data\": \"$CURSOR_HOOK_CATEGORY\"}"
`, 0o644)

			r := resolver.NewDefault(
				config.ResolverConfig{Root: root},
				nil,
				&stubRunner{},
				nil,
			)

			fn, err := r.Resolve(ctx, hook.Descriptor{Name: "echo", File: "pre/echo"})
			Expect(err).NotTo(HaveOccurred())

			raw, ok := call(fn).(json.RawMessage)
			Expect(ok).To(BeTrue())
			Expect(string(raw)).To(MatchJSON(`{"success": true, "data": "pre-execution"}`))
		})

		It("passes the hook context to scripts on stdin", func() {
			writeFile(filepath.Join(root, "cat.sh"), "cat\n", 0o644)

			r := resolver.NewDefault(config.ResolverConfig{Root: root}, nil, &stubRunner{}, nil)

			fn, err := r.Resolve(ctx, hook.Descriptor{Name: "cat", File: "cat.sh"})
			Expect(err).NotTo(HaveOccurred())

			hc := hook.NewContext(hook.CategoryContext)
			hc.Command = "build"

			v, err := fn(ctx, hc)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(v.(json.RawMessage))).To(ContainSubstring(`"command":"build"`))
		})

		It("turns a non-zero script exit into an error", func() {
			writeFile(filepath.Join(root, "fail.sh"), "echo broken >&2\nexit 3\n", 0o644)

			r := resolver.NewDefault(config.ResolverConfig{Root: root}, nil, &stubRunner{}, nil)

			fn, err := r.Resolve(ctx, hook.Descriptor{Name: "fail", File: "fail"})
			Expect(err).NotTo(HaveOccurred())

			_, err = fn(ctx, hook.NewContext(hook.CategoryError))
			Expect(err).To(MatchError(resolver.ErrScriptFailed))
			Expect(err.Error()).To(ContainSubstring("status 3"))
			Expect(err.Error()).To(ContainSubstring("broken"))
		})

		It("reports scripts that do not parse", func() {
			writeFile(filepath.Join(root, "bad.sh"), "echo $(\n", 0o644)

			r := resolver.NewDefault(config.ResolverConfig{Root: root}, nil, &stubRunner{}, nil)

			_, err := r.Resolve(ctx, hook.Descriptor{Name: "bad", File: "bad"})
			Expect(err).To(MatchError(resolver.ErrModuleLoad))
		})

		It("runs other executables through the command runner", func() {
			writeFile(filepath.Join(root, "bin", "check"), "#!/bin/sh\n", 0o755)

			runner := &stubRunner{result: &exec.CommandResult{Stdout: `{"success": false}`}}
			r := resolver.NewDefault(config.ResolverConfig{Root: root}, nil, runner, nil)

			fn, err := r.Resolve(ctx, hook.Descriptor{Name: "check", File: "bin/check"})
			Expect(err).NotTo(HaveOccurred())

			hc := hook.NewContext(hook.CategoryPostExecution)
			hc.File = "src/app.ts"

			v, err := fn(ctx, hc)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(v.(json.RawMessage))).To(Equal(`{"success": false}`))
			Expect(runner.last.Name).To(HaveSuffix(filepath.Join("bin", "check")))
			Expect(runner.last.Env).To(ContainElement("CURSOR_HOOK_FILE=src/app.ts"))
			Expect(runner.stdin).To(ContainSubstring(`"file":"src/app.ts"`))
		})

		It("maps a non-zero executable exit code to an error", func() {
			writeFile(filepath.Join(root, "check"), "#!/bin/sh\n", 0o755)

			runner := &stubRunner{result: &exec.CommandResult{ExitCode: 2, Stderr: "nope\n"}}
			r := resolver.NewDefault(config.ResolverConfig{Root: root}, nil, runner, nil)

			fn, err := r.Resolve(ctx, hook.Descriptor{Name: "check", File: "check"})
			Expect(err).NotTo(HaveOccurred())

			_, err = fn(ctx, hook.NewContext(hook.CategoryPostExecution))
			Expect(err).To(MatchError(resolver.ErrCommandFailed))
			Expect(err.Error()).To(ContainSubstring("nope"))
		})

		It("ignores files that are not executable", func() {
			writeFile(filepath.Join(root, "notes.txt"), "hello", 0o644)

			r := resolver.NewDefault(config.ResolverConfig{Root: root}, nil, &stubRunner{}, nil)

			_, err := r.Resolve(ctx, hook.Descriptor{Name: "notes", File: "notes.txt"})
			Expect(err).To(MatchError(resolver.ErrModuleNotFound))
		})

		It("prefers builtin modules over files", func() {
			writeFile(filepath.Join(root, "pre", "check.sh"), "echo '{}'\n", 0o644)

			r := resolver.NewDefault(
				config.ResolverConfig{Root: root},
				map[string]resolver.Module{
					"pre/check": resolver.NewModule(resolver.Export{Name: "default", Symbol: constant("builtin")}),
				},
				&stubRunner{},
				nil,
			)

			fn, err := r.Resolve(ctx, hook.Descriptor{Name: "check", File: "pre/check"})
			Expect(err).NotTo(HaveOccurred())
			Expect(call(fn)).To(Equal("builtin"))
		})
	})
})
