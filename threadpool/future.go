// File: threadpool/future.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package threadpool

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/momentics/hioload-pool/api"
)

// Future is the eventual result of a function run by a pool.
type Future[T any] struct {
	done chan struct{}
	res  api.Result[T]
}

// Async runs fn on p and returns its future. A panic in fn is delivered as
// a *api.TaskPanic error by Get and is not reported by the pool's Wait.
// When p refuses the task, for example after Join, the future completes at
// once with api.ErrPoolClosed or api.ErrTaskDiscarded. A task already queued
// when Helping.Shutdown or a task failure clears the queue never completes
// its future; use Get with a deadline there.
func Async[T any](p api.Pool, fn func() (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	run := func() {
		defer close(f.done)
		defer func() {
			if r := recover(); r != nil {
				f.res.Err = &api.TaskPanic{Value: r, Stack: debug.Stack()}
			}
		}()
		f.res.Value, f.res.Err = fn()
	}
	cp, ok := p.(api.CheckedPool)
	if !ok {
		p.Submit(run)
		return f
	}
	if err := cp.TrySubmit(run); err != nil {
		f.res.Err = err
		close(f.done)
	}
	return f
}

// Done is closed once the result is available.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// Get blocks until the result is available or ctx ends.
func (f *Future[T]) Get(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.res.Value, f.res.Err
	case <-ctx.Done():
		var zero T
		return zero, fmt.Errorf("%w: %w", api.ErrFutureCanceled, ctx.Err())
	}
}

// TryGet returns the result if it is available.
func (f *Future[T]) TryGet() (api.Result[T], bool) {
	select {
	case <-f.done:
		return f.res, true
	default:
		return api.Result[T]{}, false
	}
}
