// Package api
// Author: momentics
//
// Executor contract for callers that expect an error-returning submit.

package api

// Executor abstracts parallel task execution behind an error-returning Submit.
type Executor interface {
	// Submit schedules task for execution.
	Submit(task func()) error

	// NumWorkers returns current number of active worker threads.
	NumWorkers() int

	// Resize adjusts the concurrency at runtime.
	Resize(newCount int) error

	// Close drains and stops the executor.
	Close() error
}
