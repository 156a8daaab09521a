// File: control/diagnostics.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Diagnostics is an explicit counters context handed to pools at
// construction. Pools sharing one instance aggregate into it; tests create
// a fresh one per case.

package control

import "sync/atomic"

// Diagnostics counts task and thread lifecycle events.
type Diagnostics struct {
	TasksSubmitted  atomic.Uint64
	TasksCompleted  atomic.Uint64
	TasksFailed     atomic.Uint64
	TasksDiscarded  atomic.Uint64
	FailuresDropped atomic.Uint64
	ThreadsStarted  atomic.Uint64
	ThreadsJoined   atomic.Uint64
}

// NewDiagnostics returns a zeroed context.
func NewDiagnostics() *Diagnostics {
	return &Diagnostics{}
}

// DiagnosticsSnapshot is a point-in-time copy of Diagnostics.
type DiagnosticsSnapshot struct {
	TasksSubmitted  uint64 `json:"tasks_submitted" yaml:"tasks_submitted"`
	TasksCompleted  uint64 `json:"tasks_completed" yaml:"tasks_completed"`
	TasksFailed     uint64 `json:"tasks_failed" yaml:"tasks_failed"`
	TasksDiscarded  uint64 `json:"tasks_discarded" yaml:"tasks_discarded"`
	FailuresDropped uint64 `json:"failures_dropped" yaml:"failures_dropped"`
	ThreadsStarted  uint64 `json:"threads_started" yaml:"threads_started"`
	ThreadsJoined   uint64 `json:"threads_joined" yaml:"threads_joined"`
}

// LiveThreads is the number of started threads not yet joined.
func (s DiagnosticsSnapshot) LiveThreads() int64 {
	return int64(s.ThreadsStarted) - int64(s.ThreadsJoined)
}

// Snapshot copies the counters.
func (d *Diagnostics) Snapshot() DiagnosticsSnapshot {
	return DiagnosticsSnapshot{
		TasksSubmitted:  d.TasksSubmitted.Load(),
		TasksCompleted:  d.TasksCompleted.Load(),
		TasksFailed:     d.TasksFailed.Load(),
		TasksDiscarded:  d.TasksDiscarded.Load(),
		FailuresDropped: d.FailuresDropped.Load(),
		ThreadsStarted:  d.ThreadsStarted.Load(),
		ThreadsJoined:   d.ThreadsJoined.Load(),
	}
}
