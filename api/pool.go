// File: api/pool.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Pool contracts shared by every execution engine.

package api

// Task is a unit of work: zero arguments, no result. A task accepted by a
// pool runs exactly once; a task discarded by a shutting-down pool never runs.
type Task func()

// Pool is the common contract of all engines.
type Pool interface {
	// Submit hands a task to the pool. It blocks only for backpressure and
	// panics with ErrInvalidArgument when task is nil.
	// What happens after Join depends on the engine: queue engines drop the
	// task silently, slot engines panic with ErrPoolClosed.
	Submit(task Task)

	// Wait blocks until every task submitted so far has completed and
	// returns the first task failure captured since the previous Wait/Join.
	Wait() error

	// Resize drains the pool, stops all workers and starts a new set.
	Resize(workers int) error

	// Join shuts the pool down permanently and joins every worker thread.
	Join() error

	// NumWorkers returns the current worker count.
	NumWorkers() int

	// Stats returns a read-only diagnostic snapshot.
	Stats() Stats

	// Name returns the engine name.
	Name() string
}

// TargetedPool is implemented by engines that let the caller pick the worker.
type TargetedPool interface {
	Pool
	SubmitAt(worker int, task Task)
}

// CheckedPool is implemented by every engine. TrySubmit is Submit reporting
// refusal instead of dropping the task or panicking: ErrInvalidArgument for
// a nil task, ErrPoolClosed after Join, ErrTaskDiscarded when a queue shut
// down by Shutdown or a task failure drops it.
type CheckedPool interface {
	Pool
	TrySubmit(task Task) error
}
