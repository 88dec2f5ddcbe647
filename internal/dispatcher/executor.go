// Package dispatcher runs the configured hooks of a category and collects
// their normalized results.
package dispatcher

import (
	"context"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"

	"github.com/tekup/cursorhooks/internal/journal"
	"github.com/tekup/cursorhooks/pkg/config"
	"github.com/tekup/cursorhooks/pkg/hook"
	"github.com/tekup/cursorhooks/pkg/logger"
)

// ErrHookPanic is returned when a hook panics.
var ErrHookPanic = errors.New("hook panicked")

// TimeoutError reports a hook that did not return within its timeout.
type TimeoutError struct {
	Hook    string
	Timeout time.Duration
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("hook %q timed out after %dms", e.Hook, e.Timeout.Milliseconds())
}

// Catalog provides the ordered hooks of a category and the configured policy.
type Catalog interface {
	HooksForCategory(category hook.Category) []hook.Descriptor
	ExecutionPolicy() config.ExecutionConfig
}

// Executor runs hooks and records their lifecycle in a journal.
type Executor struct {
	catalog  Catalog
	resolver Resolver
	journal  *journal.Journal
	logger   logger.Logger
}

// Option configures an Executor.
type Option func(*Executor)

// WithJournal records lifecycle entries in j instead of a private journal.
func WithJournal(j *journal.Journal) Option {
	return func(e *Executor) {
		if j != nil {
			e.journal = j
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log logger.Logger) Option {
	return func(e *Executor) {
		if log != nil {
			e.logger = log
		}
	}
}

// New creates an Executor.
func New(catalog Catalog, resolver Resolver, opts ...Option) *Executor {
	e := &Executor{
		catalog:  catalog,
		resolver: resolver,
		logger:   logger.NewNoOpLogger(),
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.journal == nil {
		e.journal = journal.New()
	}

	return e
}

// Journal returns the journal lifecycle entries are recorded in.
func (e *Executor) Journal() *journal.Journal {
	return e.journal
}

// ExecutePreExecutionHooks runs the pre-execution hooks against a copy of hc.
func (e *Executor) ExecutePreExecutionHooks(ctx context.Context, hc *hook.Context, opts ...hook.Option) []hook.Result {
	return e.executeCategory(ctx, hook.CategoryPreExecution, hc, opts)
}

// ExecutePostExecutionHooks runs the post-execution hooks against a copy of hc.
func (e *Executor) ExecutePostExecutionHooks(ctx context.Context, hc *hook.Context, opts ...hook.Option) []hook.Result {
	return e.executeCategory(ctx, hook.CategoryPostExecution, hc, opts)
}

// ExecuteErrorHooks runs the error hooks against a copy of hc.
func (e *Executor) ExecuteErrorHooks(ctx context.Context, hc *hook.Context, opts ...hook.Option) []hook.Result {
	return e.executeCategory(ctx, hook.CategoryError, hc, opts)
}

// ExecuteContextHooks runs the context hooks against a copy of hc.
func (e *Executor) ExecuteContextHooks(ctx context.Context, hc *hook.Context, opts ...hook.Option) []hook.Result {
	return e.executeCategory(ctx, hook.CategoryContext, hc, opts)
}

func (e *Executor) executeCategory(
	ctx context.Context,
	category hook.Category,
	hc *hook.Context,
	opts []hook.Option,
) []hook.Result {
	stamped := hc.Clone()
	stamped.Category = category

	return e.ExecuteHooks(ctx, category, stamped, opts...)
}

// ExecuteHooks runs the enabled hooks of category in priority order and
// returns one result per attempted hook, in that order. Options are merged
// over the configured execution policy. Failures never escape as errors.
func (e *Executor) ExecuteHooks(
	ctx context.Context,
	category hook.Category,
	hc *hook.Context,
	opts ...hook.Option,
) []hook.Result {
	descriptors := e.catalog.HooksForCategory(category)
	if len(descriptors) == 0 {
		return []hook.Result{}
	}

	policy := e.catalog.ExecutionPolicy()
	options := policy.Options().Apply(opts...)

	if hc == nil || hc.Category == "" {
		hc = hc.Clone()
		hc.Category = category
	}

	e.logger.Debug("executing hooks",
		"category", category.String(),
		"hooks", len(descriptors),
		"parallel", options.Parallel,
		"stopOnError", options.StopOnError,
		"timeout", options.Timeout.String(),
	)

	if options.Parallel && len(descriptors) > 1 {
		return e.executeParallel(ctx, descriptors, hc, options, policy.MaxParallel)
	}

	return e.executeSequential(ctx, descriptors, hc, options)
}

func (e *Executor) executeSequential(
	ctx context.Context,
	descriptors []hook.Descriptor,
	hc *hook.Context,
	options hook.Options,
) []hook.Result {
	results := make([]hook.Result, 0, len(descriptors))

	for _, desc := range descriptors {
		result := e.safeInvoke(ctx, desc, hc, options.Timeout)
		results = append(results, result)

		if options.StopOnError && !result.Success {
			e.logger.Debug("stopping after failed hook", "hook", desc.Name)

			break
		}
	}

	return results
}

// executeParallel runs every hook concurrently. Invocations are independent:
// a failure does not cancel its siblings. With StopOnError only the first
// failure in priority order is returned, after all hooks have settled.
func (e *Executor) executeParallel(
	ctx context.Context,
	descriptors []hook.Descriptor,
	hc *hook.Context,
	options hook.Options,
	maxParallel int,
) []hook.Result {
	results := make([]hook.Result, len(descriptors))

	var g errgroup.Group
	if maxParallel > 0 {
		g.SetLimit(maxParallel)
	}

	for i, desc := range descriptors {
		g.Go(func() error {
			results[i] = e.safeInvoke(ctx, desc, hc, options.Timeout)

			return nil
		})
	}

	_ = g.Wait()

	if options.StopOnError {
		for _, result := range results {
			if !result.Success {
				return []hook.Result{result}
			}
		}
	}

	return results
}

// safeInvoke shields the batch from anything escaping InvokeOne.
func (e *Executor) safeInvoke(
	ctx context.Context,
	desc hook.Descriptor,
	hc *hook.Context,
	timeout time.Duration,
) (result hook.Result) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("hook invocation crashed", "hook", desc.Name, "panic", fmt.Sprint(r))

			result = hook.Fail(fmt.Sprintf("hook %q crashed: %v", desc.Name, r))
		}
	}()

	return e.InvokeOne(ctx, desc, hc.Clone(), timeout)
}

// InvokeOne resolves and runs a single hook under timeout. A started entry is
// always recorded first. The terminal entry is completed whenever a result
// was normalized, including results reporting success=false, and failed
// only when resolution, the call or normalization failed.
func (e *Executor) InvokeOne(
	ctx context.Context,
	desc hook.Descriptor,
	hc *hook.Context,
	timeout time.Duration,
) hook.Result {
	if hc == nil {
		hc = hook.NewContext("")
	}

	if timeout <= 0 {
		timeout = hook.DefaultTimeout
	}

	invocation := journal.NewInvocationID()
	start := time.Now()

	e.journal.Started(invocation, desc.Name, hc.Category)

	result, err := e.invoke(ctx, desc, hc, timeout)
	elapsed := time.Since(start)

	if err != nil {
		e.journal.Failed(invocation, desc.Name, hc.Category, elapsed, err)
		e.logger.Debug("hook failed", "hook", desc.Name, "error", err.Error())

		return hook.Fail(err.Error())
	}

	e.journal.Completed(invocation, desc.Name, hc.Category, elapsed, result)

	return result
}

func (e *Executor) invoke(
	ctx context.Context,
	desc hook.Descriptor,
	hc *hook.Context,
	timeout time.Duration,
) (hook.Result, error) {
	fn, err := e.resolver.Resolve(ctx, desc)
	if err != nil {
		return hook.Result{}, err
	}

	raw, err := call(ctx, desc.Name, fn, hc, timeout)
	if err != nil {
		return hook.Result{}, err
	}

	return normalize(raw)
}

type outcome struct {
	value any
	err   error
}

// call races fn against the timeout. The hook's context is cancelled when
// the race is lost but the hook goroutine is not waited for.
func call(
	ctx context.Context,
	name string,
	fn hook.Func,
	hc *hook.Context,
	timeout time.Duration,
) (any, error) {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: errors.Wrapf(ErrHookPanic, "%v", r)}
			}
		}()

		value, err := fn(callCtx, hc)
		done <- outcome{value: value, err: err}
	}()

	timedOut := func() bool {
		return ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded)
	}

	select {
	case out := <-done:
		if out.err != nil && timedOut() {
			return nil, &TimeoutError{Hook: name, Timeout: timeout}
		}

		return out.value, out.err
	case <-callCtx.Done():
		if timedOut() {
			return nil, &TimeoutError{Hook: name, Timeout: timeout}
		}

		return nil, errors.Wrap(ctx.Err(), "hook cancelled")
	}
}
