// File: internal/threadpool/worker.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package threadpool

import (
	"sync/atomic"
	"time"

	"github.com/momentics/hioload-pool/api"
)

// worker is the engine-independent part of a worker thread: lifecycle state
// and statistics. Counters are written by the worker itself and read by
// Stats from any goroutine.
type worker struct {
	index int
	state atomic.Int32
	jobs  atomic.Uint64
	busy  atomic.Int64
	wait  atomic.Int64
	sync  atomic.Int64
	done  chan struct{}
}

func newWorker(index int) *worker {
	return &worker{index: index}
}

func (w *worker) setState(s api.WorkerState) {
	w.state.Store(int32(s))
}

func (w *worker) State() api.WorkerState {
	return api.WorkerState(w.state.Load())
}

func (w *worker) addWait(since time.Time) {
	w.wait.Add(int64(time.Since(since)))
}

func (w *worker) addSync(since time.Time) {
	w.sync.Add(int64(time.Since(since)))
}

func (w *worker) snapshot() api.WorkerStats {
	return api.WorkerStats{
		Index: w.index,
		State: w.State(),
		Jobs:  w.jobs.Load(),
		Busy:  time.Duration(w.busy.Load()),
		Wait:  time.Duration(w.wait.Load()),
		Sync:  time.Duration(w.sync.Load()),
	}
}
