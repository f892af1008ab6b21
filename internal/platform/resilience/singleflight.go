package resilience

import (
	"context"

	crerr "github.com/cockroachdb/errors"
	"golang.org/x/sync/singleflight"
)

// Group collapses concurrent calls that share a key into one execution.
// The shared call keeps the first caller's deadline and values but not its
// cancellation, so an early leaver cannot fail the others. Each caller still
// stops waiting when its own context ends.
type Group[T any] struct {
	group singleflight.Group
}

func (g *Group[T]) Do(ctx context.Context, key string, fn func(context.Context) (T, error)) (T, bool, error) {
	var zero T
	ch := g.group.DoChan(key, func() (any, error) {
		shared := context.WithoutCancel(ctx)
		if deadline, ok := ctx.Deadline(); ok {
			var cancel context.CancelFunc
			shared, cancel = context.WithDeadline(shared, deadline)
			defer cancel()
		}
		return fn(shared)
	})

	select {
	case <-ctx.Done():
		return zero, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Shared, res.Err
		}
		v, ok := res.Val.(T)
		if !ok && res.Val != nil {
			return zero, res.Shared, crerr.Newf("singleflight %q returned %T", key, res.Val)
		}
		return v, res.Shared, nil
	}
}

// Forget lets the next call for key start a fresh execution.
func (g *Group[T]) Forget(key string) {
	g.group.Forget(key)
}
