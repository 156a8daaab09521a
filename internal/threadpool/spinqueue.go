// File: internal/threadpool/spinqueue.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// SpinQueue runs one shared bounded queue guarded by a spin lock. Blocked
// producers and consumers sleep on condition variables bound to that lock;
// waiter counters let the other side skip the wakeup when nobody sleeps.
// Workers are stopped by nil poison tasks.

package threadpool

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/momentics/hioload-pool/api"
	"github.com/momentics/hioload-pool/internal/concurrency"
)

// StrategySpinQueue names the SpinQueue engine.
const StrategySpinQueue = "spinqueue"

// DefaultSpinQueueCapacity is the queue size for n workers.
func DefaultSpinQueueCapacity(n int) int { return max(10*(n+1), 4096) }

// SpinQueue is the spin-locked shared-queue engine.
type SpinQueue struct {
	base

	lifecycle sync.Mutex

	lock        concurrency.SpinLock
	notFull     sync.Cond
	notEmpty    sync.Cond
	ring        *concurrency.TaskRing[api.Task]
	pushWaiters int
	popWaiters  int
	done        bool

	// inflight counts tasks popped and not yet finished, nested the tasks
	// blocked in a nested Wait.
	inflight atomic.Int64
	nested   atomic.Int64
}

// NewSpinQueue starts a SpinQueue pool.
func NewSpinQueue(cfg Config) (*SpinQueue, error) {
	p := &SpinQueue{base: newBase(cfg, StrategySpinQueue)}
	p.notFull.L = &p.lock
	p.notEmpty.L = &p.lock
	n := p.cfg.Workers
	p.ring = concurrency.NewTaskRing[api.Task](p.cfg.queueCapacity(n, DefaultSpinQueueCapacity))
	if err := p.start(n); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *SpinQueue) start(n int) error {
	ws := make([]*worker, n)
	loops := make([]func(), n)
	for i := range ws {
		ws[i] = newWorker(i)
		loops[i] = func() { p.loop(ws[i]) }
	}
	started, err := p.launch(ws, loops)
	if err != nil {
		p.poison(ws[:started])
		return err
	}
	p.setRoster(ws)
	return nil
}

func (p *SpinQueue) loop(w *worker) {
	w.setState(api.StateIdle)
	for {
		t0 := time.Now()
		p.lock.Lock()
		for p.ring.Empty() {
			p.popWaiters++
			p.notEmpty.Wait()
			p.popWaiters--
		}
		task := p.ring.Pop()
		p.inflight.Add(1)
		if p.pushWaiters > 0 {
			p.notFull.Signal()
		}
		p.lock.Unlock()
		w.addWait(t0)

		if task == nil {
			p.inflight.Add(-1)
			return
		}
		p.run(w, task)
		p.inflight.Add(-1)
	}
}

// push enqueues task, blocking while the queue is full. It reports false
// when the pool is done and the task was not queued.
func (p *SpinQueue) push(task api.Task, poison bool) bool {
	p.lock.Lock()
	defer p.lock.Unlock()
	for p.ring.Full() {
		if p.done && !poison {
			return false
		}
		p.pushWaiters++
		p.notFull.Wait()
		p.pushWaiters--
	}
	if p.done && !poison {
		return false
	}
	p.ring.Push(task)
	if p.popWaiters > 0 {
		p.notEmpty.Signal()
	}
	return true
}

// Submit enqueues task, blocking while the queue is full. After Join tasks
// are dropped.
func (p *SpinQueue) Submit(task api.Task) {
	mustTask(task)
	_ = p.submit(task)
}

// TrySubmit is Submit returning api.ErrPoolClosed instead of dropping the
// task after Join.
func (p *SpinQueue) TrySubmit(task api.Task) error {
	if task == nil {
		return api.ErrInvalidArgument
	}
	return p.submit(task)
}

func (p *SpinQueue) submit(task api.Task) error {
	start := time.Now()
	if !p.push(task, false) {
		p.discard(1)
		return api.ErrPoolClosed
	}
	p.accepted(start)
	return nil
}

func (p *SpinQueue) queueEmpty() bool {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.ring.Empty()
}

func (p *SpinQueue) tryPop() (api.Task, bool) {
	p.lock.Lock()
	defer p.lock.Unlock()
	// Poison tasks are left for the workers they are meant for.
	if head, ok := p.ring.Peek(); !ok || head == nil {
		return nil, false
	}
	task := p.ring.Pop()
	p.inflight.Add(1)
	if p.pushWaiters > 0 {
		p.notFull.Signal()
	}
	return task, true
}

// Wait yields until the queue is empty and no task is running. Called from a
// task of this pool it runs queued tasks itself and does not count the
// waiting tasks as running.
func (p *SpinQueue) Wait() error {
	_, nested := p.callerWorker()
	p.wait(nested)
	return p.takeFailure()
}

func (p *SpinQueue) wait(nested bool) {
	if nested {
		p.nested.Add(1)
		defer p.nested.Add(-1)
	}
	for {
		if nested {
			if task, ok := p.tryPop(); ok {
				p.run(nil, task)
				p.inflight.Add(-1)
				continue
			}
		}
		if p.queueEmpty() && p.idle(nested) {
			return
		}
		runtime.Gosched()
	}
}

// idle reports whether no task runs. A nested waiter discounts the tasks
// blocked in a nested Wait, itself included.
func (p *SpinQueue) idle(nested bool) bool {
	if nested {
		return p.inflight.Load() <= p.nested.Load()
	}
	return p.inflight.Load() == 0
}

// poison stops ws: one nil task per worker, queued behind pending work.
func (p *SpinQueue) poison(ws []*worker) {
	p.stopAll(ws, func(int) { p.push(nil, true) })
}

// Resize waits for the queue to drain, stops every worker and starts n new
// ones.
func (p *SpinQueue) Resize(n int) error {
	if err := checkWorkers(n); err != nil {
		return err
	}
	if _, nested := p.callerWorker(); nested {
		return api.ErrNestedWait
	}
	p.lifecycle.Lock()
	defer p.lifecycle.Unlock()
	p.lock.Lock()
	done := p.done
	p.lock.Unlock()
	if done {
		return api.ErrPoolClosed
	}
	p.logResize(p.NumWorkers(), n)
	p.wait(false)
	p.poison(p.workers())
	p.setRoster(nil)
	return p.start(n)
}

// Join waits for the queue to drain, marks the pool done and stops every
// worker with a poison task.
func (p *SpinQueue) Join() error {
	if _, nested := p.callerWorker(); nested {
		return api.ErrNestedWait
	}
	p.lifecycle.Lock()
	defer p.lifecycle.Unlock()
	p.lock.Lock()
	if p.done {
		p.lock.Unlock()
		return nil
	}
	p.lock.Unlock()

	p.wait(false)
	p.lock.Lock()
	p.done = true
	p.notFull.Broadcast()
	p.lock.Unlock()
	n := p.NumWorkers()
	p.poison(p.workers())
	p.setRoster(nil)
	p.logJoin(n)
	return p.takeFailure()
}

// Stats returns a snapshot of the pool.
func (p *SpinQueue) Stats() api.Stats {
	p.lock.Lock()
	qlen, qcap := p.ring.Len(), p.ring.Cap()
	p.lock.Unlock()
	return p.stats(qlen, qcap)
}
