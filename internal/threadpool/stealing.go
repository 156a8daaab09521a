// File: internal/threadpool/stealing.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Stealing dispatches tasks across per-worker lock-free local queues with a
// shared overflow ring behind them. An out-of-work worker drains the
// overflow, then steals from its siblings, then parks.

package threadpool

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/momentics/hioload-pool/api"
	"github.com/momentics/hioload-pool/internal/concurrency"
)

// StrategyStealing names the Stealing engine.
const StrategyStealing = "stealing"

// LocalQueueCapacity is the size of each worker's local queue.
const LocalQueueCapacity = 1024

// DefaultStealingCapacity bounds the tasks queued across all queues of n workers.
func DefaultStealingCapacity(n int) int { return LocalQueueCapacity * n }

// Stealing is the work-stealing engine.
type Stealing struct {
	base

	// lifecycle guards the local queue set. Submitters hold it shared;
	// Resize and Join hold it exclusively. Calls from the pool's own workers
	// skip it.
	lifecycle sync.RWMutex
	locals    []*concurrency.LockFreeQueue[api.Task]
	cursor    atomic.Uint64
	capacity  int

	// mu guards overflow, parked, stopping and the three condition variables.
	mu       sync.Mutex
	work     sync.Cond
	notFull  sync.Cond
	drained  sync.Cond
	overflow *concurrency.TaskRing[api.Task]
	parked   int
	stopping bool

	closed  atomic.Bool
	queued  atomic.Int64 // accepted, not yet dequeued
	pending atomic.Int64 // accepted, not yet finished
	blocked atomic.Int32 // submitters waiting on notFull
	spilled atomic.Int64 // overflow length, read without mu
	nested  atomic.Int64
}

// NewStealing starts a Stealing pool.
func NewStealing(cfg Config) (*Stealing, error) {
	p := &Stealing{base: newBase(cfg, StrategyStealing)}
	p.work.L = &p.mu
	p.notFull.L = &p.mu
	p.drained.L = &p.mu
	n := p.cfg.Workers
	p.capacity = p.cfg.queueCapacity(n, DefaultStealingCapacity)
	p.overflow = concurrency.NewTaskRing[api.Task](p.capacity)
	if err := p.start(n); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Stealing) start(n int) error {
	locals := make([]*concurrency.LockFreeQueue[api.Task], n)
	ws := make([]*worker, n)
	loops := make([]func(), n)
	for i := range ws {
		locals[i] = concurrency.NewLockFreeQueue[api.Task](LocalQueueCapacity)
		ws[i] = newWorker(i)
		loops[i] = func() { p.loop(ws[i]) }
	}
	p.locals = locals
	started, err := p.launch(ws, loops)
	if err != nil {
		p.halt(ws[:started])
		p.locals = nil
		return err
	}
	p.setRoster(ws)
	return nil
}

func (p *Stealing) loop(w *worker) {
	w.setState(api.StateIdle)
	for {
		if task, ok := p.next(w.index); ok {
			p.run(w, task)
			p.finish()
			continue
		}
		t0 := time.Now()
		p.mu.Lock()
		for p.queued.Load() == 0 && !p.stopping {
			p.parked++
			p.work.Wait()
			p.parked--
		}
		stop := p.stopping
		p.mu.Unlock()
		w.addWait(t0)
		if stop {
			return
		}
		// A task counted in queued may be between dequeue and bookkeeping
		// on another worker.
		runtime.Gosched()
	}
}

// next takes a task for worker i: its own queue, then the overflow, then
// the siblings' queues.
func (p *Stealing) next(i int) (api.Task, bool) {
	n := len(p.locals)
	if n == 0 {
		return nil, false
	}
	if task, ok := p.locals[i].Dequeue(); ok {
		p.took()
		return task, true
	}
	if p.spilled.Load() > 0 {
		p.mu.Lock()
		if !p.overflow.Empty() {
			task := p.overflow.Pop()
			p.spilled.Add(-1)
			p.mu.Unlock()
			p.took()
			return task, true
		}
		p.mu.Unlock()
	}
	for k := 1; k < n; k++ {
		if task, ok := p.locals[(i+k)%n].Dequeue(); ok {
			p.took()
			return task, true
		}
	}
	return nil, false
}

func (p *Stealing) took() {
	p.queued.Add(-1)
	if p.blocked.Load() > 0 {
		p.mu.Lock()
		p.notFull.Signal()
		p.mu.Unlock()
	}
}

func (p *Stealing) finish() {
	if p.pending.Add(-1) == 0 {
		p.mu.Lock()
		p.drained.Broadcast()
		p.mu.Unlock()
	}
}

func (p *Stealing) enter() (self int, nested bool, unlock func()) {
	if self, ok := p.inside(); ok {
		return self, true, func() {}
	}
	p.lifecycle.RLock()
	return -1, false, p.lifecycle.RUnlock
}

// Submit places task on a local queue in round-robin order, or on the
// overflow ring when that queue is full. It blocks while the pool holds its
// full capacity of queued tasks; a task of this pool runs queued tasks
// instead of blocking. After Join tasks are dropped.
func (p *Stealing) Submit(task api.Task) {
	mustTask(task)
	_ = p.submit(task)
}

// TrySubmit is Submit returning api.ErrPoolClosed instead of dropping the
// task after Join.
func (p *Stealing) TrySubmit(task api.Task) error {
	if task == nil {
		return api.ErrInvalidArgument
	}
	return p.submit(task)
}

func (p *Stealing) submit(task api.Task) error {
	start := time.Now()
	self, nested, unlock := p.enter()
	defer unlock()
	if p.closed.Load() {
		p.discard(1)
		return api.ErrPoolClosed
	}

	p.mu.Lock()
	for p.queued.Load() >= int64(p.capacity) && !p.closed.Load() {
		if nested {
			p.mu.Unlock()
			if t, ok := p.next(max(self, 0)); ok {
				p.run(nil, t)
				p.finish()
			} else {
				runtime.Gosched()
			}
			p.mu.Lock()
			continue
		}
		p.blocked.Add(1)
		if p.queued.Load() >= int64(p.capacity) {
			p.notFull.Wait()
		}
		p.blocked.Add(-1)
	}
	if p.closed.Load() {
		p.mu.Unlock()
		p.discard(1)
		return api.ErrPoolClosed
	}
	p.queued.Add(1)
	p.pending.Add(1)
	i := self
	if i < 0 {
		i = int((p.cursor.Add(1) - 1) % uint64(len(p.locals)))
	}
	if !p.locals[i].Enqueue(task) {
		p.overflow.Push(task)
		p.spilled.Add(1)
	}
	if p.parked > 0 {
		p.work.Signal()
	}
	p.mu.Unlock()
	p.accepted(start)
	return nil
}

// Wait runs queued tasks on the caller, then blocks until every accepted
// task has finished. From a task of this pool it keeps helping instead of
// blocking and does not count the waiting tasks as unfinished.
func (p *Stealing) Wait() error {
	self, nested := p.inside()
	if nested {
		p.waitNested(max(self, 0))
	} else {
		p.lifecycle.RLock()
		p.wait()
		p.lifecycle.RUnlock()
	}
	return p.takeFailure()
}

func (p *Stealing) wait() {
	p.helping(func(*helperSlot) {
		for {
			task, ok := p.next(0)
			if !ok {
				return
			}
			p.run(nil, task)
			p.finish()
		}
	})
	p.mu.Lock()
	for p.pending.Load() > 0 {
		p.drained.Wait()
	}
	p.mu.Unlock()
}

func (p *Stealing) waitNested(self int) {
	p.nested.Add(1)
	defer p.nested.Add(-1)
	for p.pending.Load() > p.nested.Load() {
		if task, ok := p.next(self); ok {
			p.run(nil, task)
			p.finish()
			continue
		}
		runtime.Gosched()
	}
}

// halt raises stopping, wakes every parked worker and joins ws.
func (p *Stealing) halt(ws []*worker) {
	p.mu.Lock()
	p.stopping = true
	p.work.Broadcast()
	p.mu.Unlock()
	p.stopAll(ws, func(int) {})
	p.mu.Lock()
	p.stopping = false
	p.mu.Unlock()
}

// Resize waits for the pool, stops every worker and starts n new ones.
func (p *Stealing) Resize(n int) error {
	if err := checkWorkers(n); err != nil {
		return err
	}
	if _, nested := p.inside(); nested {
		return api.ErrNestedWait
	}
	p.lifecycle.Lock()
	defer p.lifecycle.Unlock()
	if p.closed.Load() {
		return api.ErrPoolClosed
	}
	p.logResize(p.NumWorkers(), n)
	p.wait()
	p.halt(p.workers())
	p.setRoster(nil)
	p.cursor.Store(0)
	return p.start(n)
}

// Join waits for the pool and joins every worker. Later submissions are
// dropped.
func (p *Stealing) Join() error {
	if _, nested := p.inside(); nested {
		return api.ErrNestedWait
	}
	p.lifecycle.Lock()
	defer p.lifecycle.Unlock()
	if p.closed.Load() {
		return nil
	}
	p.wait()
	p.closed.Store(true)
	p.mu.Lock()
	p.notFull.Broadcast()
	p.mu.Unlock()
	n := p.NumWorkers()
	p.halt(p.workers())
	p.setRoster(nil)
	p.locals = nil
	p.logJoin(n)
	return p.takeFailure()
}

// Stats returns a snapshot of the pool.
func (p *Stealing) Stats() api.Stats {
	return p.stats(int(p.queued.Load()), p.capacity)
}
