// File: internal/threadpool/core.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Shared engine machinery: worker thread spawning and joining, task
// execution with panic capture, first-failure bookkeeping, pool counters and
// detection of calls made from one of the pool's own workers.

package threadpool

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/eapache/queue"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"

	"github.com/momentics/hioload-pool/api"
	"github.com/momentics/hioload-pool/control"
	"github.com/momentics/hioload-pool/internal/concurrency"
)

type base struct {
	cfg      Config
	strategy string
	diag     *control.Diagnostics

	submitted atomic.Uint64
	completed atomic.Uint64
	discarded atomic.Uint64
	failed    atomic.Uint64
	pushNanos atomic.Int64

	failMu  sync.Mutex
	failure error

	// threads maps the OS thread id of every live worker to its index.
	threads concurrency.ThreadMap[atomic.Int64]

	// helpers marks threads of callers running tasks on the pool's behalf.
	helpers concurrency.ThreadMap[helperSlot]

	// roster is the current worker set. It is swapped by start and stop
	// paths and read by Stats and NumWorkers without touching engine locks,
	// so tasks may call those while a Resize or Join is draining the pool.
	rosterMu sync.RWMutex
	roster   []*worker
}

func newBase(cfg Config, strategy string) base {
	cfg = cfg.withDefaults()
	return base{cfg: cfg, strategy: strategy, diag: cfg.Diagnostics}
}

// Name returns the engine name.
func (b *base) Name() string { return b.strategy }

// ID returns the pool identifier.
func (b *base) ID() string { return b.cfg.ID }

// Diagnostics returns the counters context the pool reports into.
func (b *base) Diagnostics() *control.Diagnostics { return b.diag }

func runTask(task api.Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &api.TaskPanic{Value: r, Stack: debug.Stack()}
		}
	}()
	task()
	return nil
}

// run executes task and accounts for it. w is nil when the task is run by a
// helping caller instead of a worker's own loop. It reports whether the task
// completed without failure.
func (b *base) run(w *worker, task api.Task) bool {
	var start time.Time
	if w != nil {
		w.setState(api.StateRunning)
		start = time.Now()
	}
	err := runTask(task)
	if w != nil {
		w.busy.Add(int64(time.Since(start)))
		w.jobs.Add(1)
		w.setState(api.StateIdle)
	}
	b.completed.Add(1)
	b.diag.TasksCompleted.Add(1)
	if err != nil {
		b.fail(w, err)
		return false
	}
	return true
}

// fail records a task failure. Only the first one since the last retrieval
// is stored.
func (b *base) fail(w *worker, err error) {
	b.failed.Add(1)
	b.diag.TasksFailed.Add(1)
	idx := -1
	if w != nil {
		idx = w.index
	}
	klog.ErrorS(err, "task failed", "pool", b.cfg.ID, "strategy", b.strategy, "worker", idx)

	b.failMu.Lock()
	defer b.failMu.Unlock()
	if b.failure == nil {
		b.failure = err
		return
	}
	b.diag.FailuresDropped.Add(1)
	klog.V(1).InfoS("dropping secondary task failure", "pool", b.cfg.ID, "strategy", b.strategy, "err", err)
}

// takeFailure returns and clears the stored failure.
func (b *base) takeFailure() error {
	b.failMu.Lock()
	defer b.failMu.Unlock()
	err := b.failure
	b.failure = nil
	return err
}

func (b *base) accepted(start time.Time) {
	b.submitted.Add(1)
	b.diag.TasksSubmitted.Add(1)
	b.pushNanos.Add(int64(time.Since(start)))
}

func (b *base) discard(n int) {
	if n <= 0 {
		return
	}
	b.discarded.Add(uint64(n))
	b.diag.TasksDiscarded.Add(uint64(n))
}

// callerWorker reports the index of the pool worker the caller runs on.
func (b *base) callerWorker() (int, bool) {
	tid, ok := concurrency.CurrentThreadID()
	if !ok {
		return -1, false
	}
	slot, ok := b.threads.Get(tid)
	if !ok {
		return -1, false
	}
	return int(slot.Load()), true
}

// helperSlot is the per-thread state of a caller helping the pool.
type helperSlot struct {
	depth atomic.Int32
	// buf is the helper's stride buffer, touched only by the owning thread
	// while depth > 0.
	buf *queue.Queue
}

// helping runs fn with the calling goroutine locked to its thread and the
// thread marked as helping, so that Submit or Wait issued by the tasks fn
// runs are recognised as nested calls.
func (b *base) helping(fn func(slot *helperSlot)) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	slot := b.helpers.Local()
	if slot == nil {
		slot = &helperSlot{}
	}
	if slot.buf == nil {
		slot.buf = queue.New()
	}
	slot.depth.Add(1)
	defer slot.depth.Add(-1)
	fn(slot)
}

// callerHelper returns the helper slot of the caller when it runs inside
// helping. A thread with depth > 0 is locked to its helper goroutine, so no
// other goroutine can observe it.
func (b *base) callerHelper() (*helperSlot, bool) {
	tid, ok := concurrency.CurrentThreadID()
	if !ok {
		return nil, false
	}
	slot, ok := b.helpers.Get(tid)
	if !ok || slot.depth.Load() == 0 {
		return nil, false
	}
	return slot, true
}

// inside reports whether the caller is a task run by this pool, either on a
// worker (index >= 0) or on a helping caller (index -1).
func (b *base) inside() (int, bool) {
	if i, ok := b.callerWorker(); ok {
		return i, true
	}
	if _, ok := b.callerHelper(); ok {
		return -1, true
	}
	return -1, false
}

func (b *base) pin(w *worker) error {
	cpu := w.index % concurrency.NumCPUs()
	err := concurrency.PinCurrentThread(cpu)
	if err == nil {
		return nil
	}
	if b.cfg.StrictAffinity {
		return api.NewError(api.ErrCodeNotSupported, "pin worker thread").
			WithContext("worker", w.index).
			WithContext("cpu", cpu).
			Wrap(err)
	}
	klog.ErrorS(err, "cpu pinning failed, worker runs unpinned", "pool", b.cfg.ID, "worker", w.index, "cpu", cpu)
	return nil
}

// spawn starts w on its own locked OS thread and runs loop there. The
// returned channel yields the startup result once the worker is registered.
// The goroutine exits still locked, which terminates the thread.
func (b *base) spawn(w *worker, loop func()) <-chan error {
	ready := make(chan error, 1)
	w.done = make(chan struct{})
	w.setState(api.StateStarting)
	b.diag.ThreadsStarted.Add(1)
	go func() {
		defer close(w.done)
		defer w.setState(api.StateStopped)
		runtime.LockOSThread()
		if b.cfg.PinCPUs {
			if err := b.pin(w); err != nil {
				ready <- err
				return
			}
		}
		if tid, ok := concurrency.CurrentThreadID(); ok {
			slot, _ := b.threads.Search(tid)
			slot.Store(int64(w.index))
			defer b.threads.Delete(tid)
		}
		klog.V(2).InfoS("worker started", "pool", b.cfg.ID, "strategy", b.strategy, "worker", w.index)
		ready <- nil
		loop()
		w.setState(api.StateStopping)
		klog.V(2).InfoS("worker stopped", "pool", b.cfg.ID, "strategy", b.strategy, "worker", w.index)
	}()
	return ready
}

// launch starts n workers in order. On failure the workers before the
// failing one are running and must be stopped by the caller; the failing
// worker itself has already been joined.
func (b *base) launch(ws []*worker, loops []func()) (int, error) {
	for i, w := range ws {
		if err := <-b.spawn(w, loops[i]); err != nil {
			<-w.done
			b.diag.ThreadsJoined.Add(1)
			return i, err
		}
	}
	return len(ws), nil
}

// stopAll signals every worker with stop, in parallel, and joins each one.
func (b *base) stopAll(ws []*worker, stop func(i int)) {
	var g errgroup.Group
	for i, w := range ws {
		g.Go(func() error {
			stop(i)
			<-w.done
			b.diag.ThreadsJoined.Add(1)
			return nil
		})
	}
	_ = g.Wait()
}

func (b *base) logResize(from, to int) {
	klog.V(1).InfoS("resizing pool", "pool", b.cfg.ID, "strategy", b.strategy, "from", from, "workers", to)
}

func (b *base) logJoin(workers int) {
	klog.InfoS("pool joined", "pool", b.cfg.ID, "strategy", b.strategy, "workers", workers,
		"submitted", b.submitted.Load(), "completed", b.completed.Load(),
		"discarded", b.discarded.Load(), "failed", b.failed.Load())
}

func (b *base) setRoster(ws []*worker) {
	b.rosterMu.Lock()
	b.roster = ws
	b.rosterMu.Unlock()
}

func (b *base) workers() []*worker {
	b.rosterMu.RLock()
	defer b.rosterMu.RUnlock()
	return b.roster
}

// NumWorkers returns the current worker count.
func (b *base) NumWorkers() int {
	return len(b.workers())
}

func (b *base) stats(qlen, qcap int) api.Stats {
	ws := b.workers()
	s := api.Stats{
		ID:        b.cfg.ID,
		Strategy:  b.strategy,
		Workers:   make([]api.WorkerStats, len(ws)),
		Submitted: b.submitted.Load(),
		Completed: b.completed.Load(),
		Discarded: b.discarded.Load(),
		Failed:    b.failed.Load(),
		QueueLen:  qlen,
		QueueCap:  qcap,
		PushTime:  time.Duration(b.pushNanos.Load()),
	}
	for i, w := range ws {
		s.Workers[i] = w.snapshot()
	}
	return s
}

// mustTask panics on a nil task. Nil stops SpinQueue workers, so no engine
// takes it as work.
func mustTask(task api.Task) {
	if task == nil {
		panic(api.ErrInvalidArgument)
	}
}

func checkWorkers(n int) error {
	if n <= 0 {
		return fmt.Errorf("%w: %d", api.ErrInvalidWorkerCount, n)
	}
	return nil
}
