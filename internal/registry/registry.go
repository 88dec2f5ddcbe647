// Package registry caches the hook configuration and answers queries about
// enabled hooks per category.
package registry

import (
	"cmp"
	"slices"
	"sync"

	"github.com/tekup/cursorhooks/pkg/config"
	"github.com/tekup/cursorhooks/pkg/hook"
	"github.com/tekup/cursorhooks/pkg/logger"
)

// Source produces a configuration. It must always return a usable value.
type Source interface {
	Load() *config.Config
}

// Registry loads the configuration on first use and serves it from cache
// until Invalidate is called.
type Registry struct {
	source Source
	logger logger.Logger

	mu  sync.Mutex
	cfg *config.Config
}

// New creates a Registry backed by source.
func New(source Source, log logger.Logger) *Registry {
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	return &Registry{source: source, logger: log}
}

// NewStatic creates a Registry that always serves cfg.
func NewStatic(cfg *config.Config) *Registry {
	return &Registry{source: staticSource{cfg: cfg}, logger: logger.NewNoOpLogger()}
}

// Configuration returns the cached configuration, loading it on first use.
func (r *Registry) Configuration() *config.Config {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cfg == nil {
		r.cfg = r.source.Load()
		if r.cfg == nil {
			r.cfg = config.Default()
		}

		r.logger.Debug("hook configuration loaded",
			"pre-execution", len(r.cfg.Hooks.PreExecution),
			"post-execution", len(r.cfg.Hooks.PostExecution),
			"error", len(r.cfg.Hooks.Error),
			"context", len(r.cfg.Hooks.Context),
		)
	}

	return r.cfg
}

// Invalidate drops the cached configuration; the next query reloads it.
func (r *Registry) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cfg = nil
}

// HooksForCategory returns the enabled hooks of a category sorted by
// ascending priority. Hooks with equal priority keep configuration order.
func (r *Registry) HooksForCategory(category hook.Category) []hook.Descriptor {
	all := r.Configuration().Hooks.ForCategory(category)

	enabled := make([]hook.Descriptor, 0, len(all))

	for _, d := range all {
		if d.Enabled {
			enabled = append(enabled, d)
		}
	}

	slices.SortStableFunc(enabled, func(a, b hook.Descriptor) int {
		return cmp.Compare(a.Priority, b.Priority)
	})

	return enabled
}

// AllEnabledHooks returns the enabled hooks of every category, in category enumeration order.
func (r *Registry) AllEnabledHooks() []hook.Descriptor {
	var all []hook.Descriptor

	for _, category := range hook.Categories() {
		all = append(all, r.HooksForCategory(category)...)
	}

	return all
}

// HookExists reports whether an enabled hook called name exists in category.
func (r *Registry) HookExists(name string, category hook.Category) bool {
	return slices.ContainsFunc(r.HooksForCategory(category), func(d hook.Descriptor) bool {
		return d.Name == name
	})
}

// ExecutionPolicy returns the configured default execution policy.
func (r *Registry) ExecutionPolicy() config.ExecutionConfig {
	return r.Configuration().Execution
}

// ResolverConfig returns the configured resolver settings.
func (r *Registry) ResolverConfig() config.ResolverConfig {
	return r.Configuration().Resolver
}

type staticSource struct {
	cfg *config.Config
}

func (s staticSource) Load() *config.Config {
	return s.cfg
}
