// Package resolver locates the callable behind a hook descriptor's file reference.
package resolver

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/tekup/cursorhooks/pkg/config"
	"github.com/tekup/cursorhooks/pkg/hook"
	"github.com/tekup/cursorhooks/pkg/logger"
)

var (
	// ErrModuleNotFound is returned when no source has a module at any candidate path.
	ErrModuleNotFound = errors.New("hook module not found")

	// ErrNoCallableExport is returned when modules were found but none exports a callable.
	ErrNoCallableExport = errors.New("no callable export found")

	// ErrModuleLoad is returned when a module exists but cannot be loaded.
	ErrModuleLoad = errors.New("failed to load hook module")

	// ErrEmptyReference is returned for descriptors without a file reference.
	ErrEmptyReference = errors.New("hook has no file reference")
)

// Source opens modules. Sources return ErrModuleNotFound for paths they do
// not handle or that do not exist.
type Source interface {
	Open(ctx context.Context, path string) (Module, error)
}

// Convention is one way of picking the hook's callable out of a module.
type Convention struct {
	// Name describes the convention in error messages.
	Name string

	lookup func(m Module, hookName string) (any, bool)
}

// Conventions lists the export lookups in the order they are tried.
var Conventions = []Convention{
	{
		Name:   "default",
		lookup: func(m Module, _ string) (any, bool) { return m.Lookup("default") },
	},
	{
		Name:   "<name>",
		lookup: func(m Module, name string) (any, bool) { return m.Lookup(name) },
	},
	{
		Name:   "<name>Hook",
		lookup: func(m Module, name string) (any, bool) { return m.Lookup(name + "Hook") },
	},
	{
		Name: "first callable export",
		lookup: func(m Module, _ string) (any, bool) {
			for _, export := range m.Exports() {
				if sym, ok := m.Lookup(export); ok {
					if _, callable := AsFunc(sym); callable {
						return sym, true
					}
				}
			}

			return nil, false
		},
	},
}

// conventionNames lists Conventions for error messages.
func conventionNames() string {
	names := make([]string, 0, len(Conventions))
	for _, c := range Conventions {
		names = append(names, c.Name)
	}

	return strings.Join(names, ", ")
}

// LookupExport applies Conventions in order and returns the first callable
// export together with the name of the convention that matched.
func LookupExport(m Module, hookName string) (hook.Func, string, bool) {
	for _, c := range Conventions {
		sym, ok := c.lookup(m, hookName)
		if !ok {
			continue
		}

		if fn, callable := AsFunc(sym); callable {
			return fn, c.Name, true
		}
	}

	return nil, "", false
}

// ModuleResolver resolves descriptors by probing candidate paths across its sources.
type ModuleResolver struct {
	sources           []Source
	sourceExtension   string
	compiledExtension string
	logger            logger.Logger
}

// Option configures a ModuleResolver.
type Option func(*ModuleResolver)

// WithExtensions sets the extensions appended to references on the second and third attempt.
func WithExtensions(source, compiled string) Option {
	return func(r *ModuleResolver) {
		r.sourceExtension = source
		r.compiledExtension = compiled
	}
}

// WithLogger sets the logger.
func WithLogger(log logger.Logger) Option {
	return func(r *ModuleResolver) {
		if log != nil {
			r.logger = log
		}
	}
}

// New creates a ModuleResolver trying sources in order for each candidate path.
func New(sources []Source, opts ...Option) *ModuleResolver {
	r := &ModuleResolver{
		sources:           sources,
		sourceExtension:   config.DefaultSourceExtension,
		compiledExtension: config.DefaultCompiledExtension,
		logger:            logger.NewNoOpLogger(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Candidates returns the paths tried for ref: the raw reference, then with
// the source extension, then with the compiled extension.
func (r *ModuleResolver) Candidates(ref string) []string {
	candidates := []string{ref}

	for _, ext := range []string{r.sourceExtension, r.compiledExtension} {
		if ext != "" {
			candidates = append(candidates, ref+ext)
		}
	}

	return candidates
}

// Resolve returns the callable for desc.
func (r *ModuleResolver) Resolve(ctx context.Context, desc hook.Descriptor) (hook.Func, error) {
	if desc.File == "" {
		return nil, errors.Wrapf(ErrEmptyReference, "hook %q", desc.Name)
	}

	candidates := r.Candidates(desc.File)

	var (
		withoutExport []string
		loadErrs      []error
	)

	for _, path := range candidates {
		for _, src := range r.sources {
			mod, err := src.Open(ctx, path)
			if errors.Is(err, ErrModuleNotFound) {
				continue
			}

			if err != nil {
				loadErrs = append(loadErrs, errors.Wrapf(err, "%s", path))

				continue
			}

			fn, convention, ok := LookupExport(mod, desc.Name)
			if !ok {
				withoutExport = append(withoutExport, path)

				continue
			}

			r.logger.Debug("hook resolved",
				"hook", desc.Name,
				"path", path,
				"export", convention,
			)

			return fn, nil
		}
	}

	switch {
	case len(withoutExport) > 0:
		return nil, errors.Wrapf(
			ErrNoCallableExport,
			"hook %q in %s (tried conventions: %s)",
			desc.Name,
			strings.Join(withoutExport, ", "),
			conventionNames(),
		)
	case len(loadErrs) > 0:
		return nil, errors.Wrapf(
			ErrModuleLoad,
			"hook %q: %v",
			desc.Name,
			errors.Join(loadErrs...),
		)
	default:
		return nil, errors.Wrapf(
			ErrModuleNotFound,
			"hook %q (tried paths: %s)",
			desc.Name,
			strings.Join(candidates, ", "),
		)
	}
}
