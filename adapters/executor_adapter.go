// File: adapters/executor_adapter.go
// Package adapters provides glue between pools and the api.Executor and
// api.Control contracts.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// ExecutorAdapter implements api.Executor on top of any api.Pool. It gives
// every engine the same closed-pool behaviour: Submit after Close returns
// api.ErrPoolClosed instead of dropping or panicking.

package adapters

import (
	"sync"

	"github.com/momentics/hioload-pool/api"
)

// ExecutorAdapter wraps an api.Pool to satisfy the api.Executor contract.
type ExecutorAdapter struct {
	pool api.Pool

	mu     sync.RWMutex
	closed bool
	err    error
}

// NewExecutorAdapter wraps p. The adapter owns p from now on: Close joins it.
func NewExecutorAdapter(p api.Pool) *ExecutorAdapter {
	return &ExecutorAdapter{pool: p}
}

// Pool returns the wrapped pool.
func (ea *ExecutorAdapter) Pool() api.Pool { return ea.pool }

// Submit dispatches task to the pool. It may block for backpressure.
func (ea *ExecutorAdapter) Submit(task func()) error {
	if task == nil {
		return api.ErrInvalidArgument
	}
	ea.mu.RLock()
	defer ea.mu.RUnlock()
	if ea.closed {
		return api.ErrPoolClosed
	}
	if cp, ok := ea.pool.(api.CheckedPool); ok {
		return cp.TrySubmit(task)
	}
	ea.pool.Submit(task)
	return nil
}

// NumWorkers returns the current number of worker threads.
func (ea *ExecutorAdapter) NumWorkers() int {
	return ea.pool.NumWorkers()
}

// Resize drains the pool and restarts it with newCount workers.
func (ea *ExecutorAdapter) Resize(newCount int) error {
	ea.mu.RLock()
	defer ea.mu.RUnlock()
	if ea.closed {
		return api.ErrPoolClosed
	}
	return ea.pool.Resize(newCount)
}

// Wait blocks until every submitted task has finished and returns the
// first task failure since the previous Wait.
func (ea *ExecutorAdapter) Wait() error {
	return ea.pool.Wait()
}

// Close waits for submitted tasks and joins the workers. Later calls return
// the result of the first one.
func (ea *ExecutorAdapter) Close() error {
	ea.mu.Lock()
	defer ea.mu.Unlock()
	if ea.closed {
		return ea.err
	}
	ea.closed = true
	ea.err = ea.pool.Join()
	return ea.err
}

var _ api.Executor = (*ExecutorAdapter)(nil)
