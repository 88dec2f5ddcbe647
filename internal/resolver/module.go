package resolver

import (
	"context"
	"slices"

	"github.com/tekup/cursorhooks/pkg/hook"
)

// Module is a loaded hook module exposing named exports.
type Module interface {
	// Lookup returns the export called name.
	Lookup(name string) (any, bool)

	// Exports lists export names in declaration order. Modules that cannot
	// enumerate their exports return nil.
	Exports() []string
}

// Export is a single named symbol of a StaticModule.
type Export struct {
	Name   string
	Symbol any
}

// StaticModule is an in-process module with an ordered export list.
type StaticModule struct {
	exports []Export
}

// NewModule creates a StaticModule. Later exports with a repeated name are ignored.
func NewModule(exports ...Export) *StaticModule {
	return &StaticModule{exports: slices.Clone(exports)}
}

// Lookup returns the first export called name.
func (m *StaticModule) Lookup(name string) (any, bool) {
	for _, e := range m.exports {
		if e.Name == name {
			return e.Symbol, true
		}
	}

	return nil, false
}

// Exports lists export names in declaration order.
func (m *StaticModule) Exports() []string {
	names := make([]string, 0, len(m.exports))
	for _, e := range m.exports {
		names = append(names, e.Name)
	}

	return names
}

// AsFunc adapts the callable shapes a module may export to hook.Func.
// Pointers to functions are accepted because Go plugins export variables that way.
func AsFunc(symbol any) (hook.Func, bool) {
	switch fn := symbol.(type) {
	case hook.Func:
		return fn, fn != nil
	case func(context.Context, *hook.Context) (any, error):
		return fn, fn != nil
	case func(*hook.Context) (any, error):
		if fn == nil {
			return nil, false
		}

		return func(_ context.Context, hc *hook.Context) (any, error) { return fn(hc) }, true
	case func(context.Context, *hook.Context) any:
		if fn == nil {
			return nil, false
		}

		return func(ctx context.Context, hc *hook.Context) (any, error) { return fn(ctx, hc), nil }, true
	case func(*hook.Context) any:
		if fn == nil {
			return nil, false
		}

		return func(_ context.Context, hc *hook.Context) (any, error) { return fn(hc), nil }, true
	case func(context.Context, *hook.Context) (hook.Result, error):
		if fn == nil {
			return nil, false
		}

		return func(ctx context.Context, hc *hook.Context) (any, error) { return fn(ctx, hc) }, true
	case *hook.Func:
		if fn == nil {
			return nil, false
		}

		return AsFunc(*fn)
	case *func(context.Context, *hook.Context) (any, error):
		if fn == nil {
			return nil, false
		}

		return AsFunc(*fn)
	default:
		return nil, false
	}
}
