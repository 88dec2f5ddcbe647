// Package builtin provides the hooks that ship with cursorhooks.
package builtin

import (
	"os"
	"path/filepath"
	"time"

	"github.com/tekup/cursorhooks/internal/resolver"
	"github.com/tekup/cursorhooks/pkg/logger"
)

const (
	// ValidateRulesRef is the file reference of the business rule validator.
	ValidateRulesRef = "pre-execution/validate-friday-rules"

	// UpdateDocumentationRef is the file reference of the documentation updater.
	UpdateDocumentationRef = "post-execution/update-documentation"
)

// Hooks holds the shared settings of the builtin hooks.
type Hooks struct {
	projectDir string
	now        func() time.Time
	logger     logger.Logger
}

// Option configures Hooks.
type Option func(*Hooks)

// WithProjectDir sets the directory changed files are relative to.
func WithProjectDir(dir string) Option {
	return func(h *Hooks) {
		h.projectDir = dir
	}
}

// WithClock sets the time source used for generated documentation.
func WithClock(now func() time.Time) Option {
	return func(h *Hooks) {
		h.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(log logger.Logger) Option {
	return func(h *Hooks) {
		if log != nil {
			h.logger = log
		}
	}
}

// New creates the builtin hooks.
func New(opts ...Option) *Hooks {
	h := &Hooks{
		projectDir: ".",
		now:        time.Now,
		logger:     logger.NewNoOpLogger(),
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// Modules returns the builtin hooks as resolver modules keyed by file reference.
func (h *Hooks) Modules() map[string]resolver.Module {
	return map[string]resolver.Module{
		ValidateRulesRef: resolver.NewModule(
			resolver.Export{Name: "default", Symbol: h.ValidateRules},
			resolver.Export{Name: "validate-friday-rules", Symbol: h.ValidateRules},
		),
		UpdateDocumentationRef: resolver.NewModule(
			resolver.Export{Name: "default", Symbol: h.UpdateDocumentation},
			resolver.Export{Name: "update-documentation", Symbol: h.UpdateDocumentation},
		),
	}
}

func (h *Hooks) path(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}

	return filepath.Join(h.projectDir, filepath.FromSlash(rel))
}

func (h *Hooks) exists(rel string) bool {
	_, err := os.Stat(h.path(rel))

	return err == nil
}
