// File: api/stats.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Read-only diagnostic snapshots of pools and their workers.

package api

import "time"

// WorkerState is the lifecycle state of a worker thread.
type WorkerState int32

const (
	StateStopped WorkerState = iota
	StateStarting
	StateIdle
	StateRunning
	StateStopping
)

func (s WorkerState) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateStarting:
		return "starting"
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// WorkerStats accumulates per-worker counters.
type WorkerStats struct {
	Index int
	State WorkerState
	// Jobs is the number of tasks the worker has completed.
	Jobs uint64
	// Busy is the time spent executing tasks.
	Busy time.Duration
	// Wait is the time spent blocked at the worker's wait point.
	Wait time.Duration
	// Sync is the time spent on handoff bookkeeping after a job.
	Sync time.Duration
}

// AvgBusy returns the mean execution time per job. ok is false when the
// worker has not completed any job yet.
func (w WorkerStats) AvgBusy() (time.Duration, bool) {
	return perJob(w.Busy, w.Jobs)
}

// AvgWait returns the mean wait time per job, see AvgBusy.
func (w WorkerStats) AvgWait() (time.Duration, bool) {
	return perJob(w.Wait, w.Jobs)
}

// AvgSync returns the mean bookkeeping time per job, see AvgBusy.
func (w WorkerStats) AvgSync() (time.Duration, bool) {
	return perJob(w.Sync, w.Jobs)
}

func perJob(total time.Duration, jobs uint64) (time.Duration, bool) {
	if jobs == 0 {
		return 0, false
	}
	return total / time.Duration(jobs), true
}

// Stats is a pool-level snapshot.
type Stats struct {
	ID       string
	Strategy string
	Workers  []WorkerStats

	Submitted uint64
	Completed uint64
	Discarded uint64
	Failed    uint64

	// QueueLen and QueueCap are zero for engines without a shared queue.
	QueueLen int
	QueueCap int

	// PushTime is the cumulative time callers spent inside Submit.
	PushTime time.Duration
}

// Jobs sums completed jobs over all workers.
func (s Stats) Jobs() uint64 {
	var n uint64
	for _, w := range s.Workers {
		n += w.Jobs
	}
	return n
}

// Idle counts the workers currently parked at their wait point.
func (s Stats) Idle() int {
	n := 0
	for _, w := range s.Workers {
		if w.State == StateIdle {
			n++
		}
	}
	return n
}
