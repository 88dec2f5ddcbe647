// Package config provides configuration schema types for cursorhooks.
package config

import (
	"time"

	"github.com/tekup/cursorhooks/pkg/hook"
)

const (
	// DefaultTimeoutMs is the default per-hook timeout in milliseconds.
	DefaultTimeoutMs = 30000

	// DefaultRoot is the directory relative hook file references resolve against.
	DefaultRoot = ".cursor/hooks"

	// DefaultSourceExtension is tried after the raw reference.
	DefaultSourceExtension = ".sh"

	// DefaultCompiledExtension is tried after the source extension.
	DefaultCompiledExtension = ".so"
)

// Config represents the root hook configuration document.
type Config struct {
	// Hooks maps each category to its hook descriptors.
	Hooks HooksConfig `json:"hooks" koanf:"hooks" toml:"hooks"`

	// Execution is the default execution policy for batches.
	Execution ExecutionConfig `json:"execution" koanf:"execution" toml:"execution"`

	// Resolver controls how hook file references are located.
	Resolver ResolverConfig `json:"resolver,omitempty" koanf:"resolver" toml:"resolver,omitempty"`
}

// HooksConfig lists hook descriptors per category in configuration order.
type HooksConfig struct {
	PreExecution  []hook.Descriptor `json:"pre-execution" koanf:"pre-execution" toml:"pre-execution"`
	PostExecution []hook.Descriptor `json:"post-execution" koanf:"post-execution" toml:"post-execution"`
	Error         []hook.Descriptor `json:"error" koanf:"error" toml:"error"`
	Context       []hook.Descriptor `json:"context" koanf:"context" toml:"context"`
}

// ForCategory returns the descriptors configured for c, in configuration order.
func (h *HooksConfig) ForCategory(c hook.Category) []hook.Descriptor {
	switch c {
	case hook.CategoryPreExecution:
		return h.PreExecution
	case hook.CategoryPostExecution:
		return h.PostExecution
	case hook.CategoryError:
		return h.Error
	case hook.CategoryContext:
		return h.Context
	default:
		return nil
	}
}

// Set replaces the descriptors configured for c. Unknown categories are ignored.
func (h *HooksConfig) Set(c hook.Category, descriptors []hook.Descriptor) {
	if descriptors == nil {
		descriptors = []hook.Descriptor{}
	}

	switch c {
	case hook.CategoryPreExecution:
		h.PreExecution = descriptors
	case hook.CategoryPostExecution:
		h.PostExecution = descriptors
	case hook.CategoryError:
		h.Error = descriptors
	case hook.CategoryContext:
		h.Context = descriptors
	}
}

// ExecutionConfig is the batch execution policy.
type ExecutionConfig struct {
	// Parallel runs the hooks of a category concurrently.
	Parallel bool `json:"parallel" koanf:"parallel" toml:"parallel" mapstructure:"parallel"`

	// StopOnError stops at the first failing hook.
	StopOnError bool `json:"stopOnError" koanf:"stopOnError" toml:"stopOnError" mapstructure:"stopOnError"`

	// Timeout bounds each hook invocation, in milliseconds.
	Timeout int `json:"timeout" koanf:"timeout" toml:"timeout" mapstructure:"timeout" jsonschema:"minimum=1,default=30000"`

	// MaxParallel caps concurrent invocations in parallel mode. Zero means unbounded.
	MaxParallel int `json:"maxParallel,omitempty" koanf:"maxParallel" toml:"maxParallel,omitempty" mapstructure:"maxParallel" jsonschema:"minimum=0"`
}

// TimeoutDuration returns Timeout as a duration, falling back to the default.
func (e ExecutionConfig) TimeoutDuration() time.Duration {
	if e.Timeout <= 0 {
		return DefaultTimeoutMs * time.Millisecond
	}

	return time.Duration(e.Timeout) * time.Millisecond
}

// Options converts the policy into hook execution options.
func (e ExecutionConfig) Options() hook.Options {
	return hook.Options{
		Parallel:    e.Parallel,
		StopOnError: e.StopOnError,
		Timeout:     e.TimeoutDuration(),
	}
}

// ResolverConfig controls module resolution for hook file references.
type ResolverConfig struct {
	// Root is the base directory for relative file references.
	Root string `json:"root,omitempty" koanf:"root" toml:"root,omitempty" mapstructure:"root"`

	// SourceExtension is appended to references on the second attempt.
	SourceExtension string `json:"sourceExtension,omitempty" koanf:"sourceExtension" toml:"sourceExtension,omitempty" mapstructure:"sourceExtension"`

	// CompiledExtension is appended to references on the third attempt.
	CompiledExtension string `json:"compiledExtension,omitempty" koanf:"compiledExtension" toml:"compiledExtension,omitempty" mapstructure:"compiledExtension"`
}

// GetRoot returns Root or DefaultRoot.
func (r ResolverConfig) GetRoot() string {
	if r.Root == "" {
		return DefaultRoot
	}

	return r.Root
}

// GetSourceExtension returns SourceExtension or DefaultSourceExtension.
func (r ResolverConfig) GetSourceExtension() string {
	if r.SourceExtension == "" {
		return DefaultSourceExtension
	}

	return r.SourceExtension
}

// GetCompiledExtension returns CompiledExtension or DefaultCompiledExtension.
func (r ResolverConfig) GetCompiledExtension() string {
	if r.CompiledExtension == "" {
		return DefaultCompiledExtension
	}

	return r.CompiledExtension
}

// Default returns the configuration used when nothing usable could be loaded:
// four empty categories and a sequential, non-stopping, 30s policy.
func Default() *Config {
	return &Config{
		Hooks: HooksConfig{
			PreExecution:  []hook.Descriptor{},
			PostExecution: []hook.Descriptor{},
			Error:         []hook.Descriptor{},
			Context:       []hook.Descriptor{},
		},
		Execution: DefaultExecution(),
	}
}

// DefaultExecution returns the default execution policy.
func DefaultExecution() ExecutionConfig {
	return ExecutionConfig{
		Parallel:    false,
		StopOnError: false,
		Timeout:     DefaultTimeoutMs,
	}
}
