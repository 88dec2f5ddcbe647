package hook

import "time"

// DefaultTimeout bounds a single hook invocation when nothing else is configured.
const DefaultTimeout = 30 * time.Second

// Result is the canonical outcome of a single hook invocation.
type Result struct {
	// Success is false when the hook failed or reported failure.
	Success bool `json:"success"`

	// Data is the opaque payload returned by the hook.
	Data any `json:"data,omitempty"`

	// Error describes the failure.
	Error string `json:"error,omitempty"`

	// Warnings are non-fatal messages in the order the hook reported them.
	Warnings []string `json:"warnings,omitempty"`
}

// Pass returns a successful result carrying data.
func Pass(data any) Result {
	return Result{Success: true, Data: data}
}

// Fail returns a failed result with the given message.
func Fail(msg string) Result {
	return Result{Success: false, Error: msg}
}

// Options tunes a single batch execution.
type Options struct {
	// Parallel runs all hooks of the batch concurrently.
	Parallel bool

	// StopOnError halts (sequential) or truncates (parallel) on the first failure.
	StopOnError bool

	// Timeout bounds each hook invocation.
	Timeout time.Duration
}

// DefaultOptions returns sequential execution without stop-on-error and a 30s timeout.
func DefaultOptions() Options {
	return Options{Timeout: DefaultTimeout}
}

// Option overrides a single field of Options.
type Option func(*Options)

// WithParallel sets the parallel flag.
func WithParallel(parallel bool) Option {
	return func(o *Options) {
		o.Parallel = parallel
	}
}

// WithStopOnError sets the stop-on-error flag.
func WithStopOnError(stop bool) Option {
	return func(o *Options) {
		o.StopOnError = stop
	}
}

// WithTimeout sets the per-hook timeout. Non-positive values are ignored.
func WithTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		if timeout > 0 {
			o.Timeout = timeout
		}
	}
}

// Apply merges opts over base and returns the result.
func (o Options) Apply(opts ...Option) Options {
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}

	return o
}
