// control/metrics.go
// Author: momentics <momentics@gmail.com>
//
// Runtime metrics registry for pool monitoring.
// Exposes counters in a thread-safe map with dynamic registration.

package control

import (
	"sync"
	"time"

	"github.com/momentics/hioload-pool/api"
)

// MetricsRegistry holds mutable and read-only metrics.
type MetricsRegistry struct {
	mu      sync.RWMutex
	metrics map[string]any
	updated time.Time
}

// NewMetricsRegistry creates an empty registry.
func NewMetricsRegistry() *MetricsRegistry {
	return &MetricsRegistry{
		metrics: make(map[string]any),
	}
}

// Set sets or updates a metric key.
func (mr *MetricsRegistry) Set(key string, value any) {
	mr.mu.Lock()
	mr.metrics[key] = value
	mr.updated = time.Now()
	mr.mu.Unlock()
}

// GetSnapshot returns the latest metrics.
func (mr *MetricsRegistry) GetSnapshot() map[string]any {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	out := make(map[string]any, len(mr.metrics))
	for k, v := range mr.metrics {
		out[k] = v
	}
	return out
}

// Updated returns the time of the last Set.
func (mr *MetricsRegistry) Updated() time.Time {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	return mr.updated
}

// PublishPoolStats writes the pool-level counters of s under "pool.<id>.".
func PublishPoolStats(mr *MetricsRegistry, s api.Stats) {
	prefix := "pool." + s.ID + "."
	mr.Set(prefix+"strategy", s.Strategy)
	mr.Set(prefix+"workers", len(s.Workers))
	mr.Set(prefix+"idle", s.Idle())
	mr.Set(prefix+"submitted", s.Submitted)
	mr.Set(prefix+"completed", s.Completed)
	mr.Set(prefix+"discarded", s.Discarded)
	mr.Set(prefix+"failed", s.Failed)
	mr.Set(prefix+"queue_len", s.QueueLen)
	mr.Set(prefix+"queue_cap", s.QueueCap)
	mr.Set(prefix+"push_time", s.PushTime)
}

// PublishDiagnostics writes d under "diag.".
func PublishDiagnostics(mr *MetricsRegistry, d *Diagnostics) {
	s := d.Snapshot()
	mr.Set("diag.tasks_submitted", s.TasksSubmitted)
	mr.Set("diag.tasks_completed", s.TasksCompleted)
	mr.Set("diag.tasks_failed", s.TasksFailed)
	mr.Set("diag.tasks_discarded", s.TasksDiscarded)
	mr.Set("diag.failures_dropped", s.FailuresDropped)
	mr.Set("diag.threads_live", s.LiveThreads())
}
