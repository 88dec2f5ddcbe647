package dispatcher

//go:generate mockgen -source=resolver.go -destination=resolver_mock.go -package=dispatcher

import (
	"context"

	"github.com/tekup/cursorhooks/pkg/hook"
)

// Resolver locates the callable implementing a hook descriptor.
type Resolver interface {
	// Resolve returns the hook function for desc, or an error naming what was tried.
	Resolve(ctx context.Context, desc hook.Descriptor) (hook.Func, error)
}
