// File: internal/threadpool/idlestack.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// IdleStack gives every worker a single job slot. A worker that finishes a
// job pushes its index onto a shared stack of idle workers; the dispatcher
// pops the most recently idled one, which tends to still have a warm cache.

package threadpool

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/momentics/hioload-pool/api"
)

// StrategyIdleStack names the IdleStack engine.
const StrategyIdleStack = "idlestack"

// IdleStack is the slot-per-worker engine with idle-worker dispatch.
type IdleStack struct {
	base

	mu     sync.RWMutex
	slots  []*slotWorker
	closed bool

	// idle holds one unit per worker; a unit is taken while the worker owns
	// a job and released after it pushed itself back onto stack.
	idle    *semaphore.Weighted
	stackMu sync.Mutex
	stack   []int
}

// NewIdleStack starts an IdleStack pool.
func NewIdleStack(cfg Config) (*IdleStack, error) {
	p := &IdleStack{base: newBase(cfg, StrategyIdleStack)}
	if err := p.start(p.cfg.Workers); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *IdleStack) start(n int) error {
	slots, ws := slotWorkers(n)
	p.idle = semaphore.NewWeighted(int64(n))
	p.stack = make([]int, 0, n)
	for i := n - 1; i >= 0; i-- {
		p.stack = append(p.stack, i)
	}
	loops := make([]func(), n)
	for i, s := range slots {
		loops[i] = func() { s.loop(&p.base, p.parked) }
	}
	started, err := p.launch(ws, loops)
	if err != nil {
		p.stopAll(ws[:started], func(i int) { slots[i].halt() })
		return err
	}
	p.slots = slots
	p.setRoster(ws)
	return nil
}

// parked runs on the worker after each job.
func (p *IdleStack) parked(s *slotWorker) {
	p.stackMu.Lock()
	p.stack = append(p.stack, s.index)
	p.stackMu.Unlock()
	p.idle.Release(1)
}

func (p *IdleStack) pop() int {
	p.stackMu.Lock()
	defer p.stackMu.Unlock()
	i := p.stack[len(p.stack)-1]
	p.stack = p.stack[:len(p.stack)-1]
	return i
}

func (p *IdleStack) enter() (nested bool, unlock func()) {
	if _, ok := p.callerWorker(); ok {
		return true, func() {}
	}
	p.mu.RLock()
	return false, p.mu.RUnlock
}

// Submit waits for an idle worker and hands task to it. A task submitting
// while no worker is idle runs the new task inline. It panics with
// api.ErrPoolClosed after Join.
func (p *IdleStack) Submit(task api.Task) {
	mustTask(task)
	if err := p.submit(context.Background(), task); err != nil {
		panic(err)
	}
}

// SubmitContext is Submit with cancellation while waiting for an idle
// worker. After Join it returns api.ErrPoolClosed.
func (p *IdleStack) SubmitContext(ctx context.Context, task api.Task) error {
	if task == nil {
		return api.ErrInvalidArgument
	}
	return p.submit(ctx, task)
}

// TrySubmit is Submit returning api.ErrPoolClosed instead of panicking
// after Join.
func (p *IdleStack) TrySubmit(task api.Task) error {
	return p.SubmitContext(context.Background(), task)
}

func (p *IdleStack) submit(ctx context.Context, task api.Task) error {
	start := time.Now()
	nested, unlock := p.enter()
	defer unlock()
	if p.closed {
		return api.ErrPoolClosed
	}
	if nested {
		if !p.idle.TryAcquire(1) {
			p.accepted(start)
			p.run(nil, task)
			return nil
		}
	} else if err := p.idle.Acquire(ctx, 1); err != nil {
		return err
	}
	s := p.slots[p.pop()]
	s.load(task)
	p.accepted(start)
	return nil
}

// Wait blocks until every worker is idle. Like RoundRobin it refuses to run
// from a task of the same pool.
func (p *IdleStack) Wait() error {
	if _, nested := p.callerWorker(); nested {
		return api.ErrNestedWait
	}
	p.mu.RLock()
	p.drain()
	p.mu.RUnlock()
	return p.takeFailure()
}

// drain waits until every worker is back on the stack and no submission
// raced the pass.
func (p *IdleStack) drain() {
	for {
		before := p.submitted.Load()
		waitSlotsRed(p.slots)
		// Each worker releases its unit after turning red; taking all of
		// them proves every worker has parked.
		n := int64(len(p.slots))
		if n > 0 {
			_ = p.idle.Acquire(context.Background(), n)
			p.idle.Release(n)
		}
		if p.submitted.Load() == before {
			return
		}
	}
}

// Resize waits for the pool, stops every worker and starts n new ones.
func (p *IdleStack) Resize(n int) error {
	if err := checkWorkers(n); err != nil {
		return err
	}
	if _, nested := p.callerWorker(); nested {
		return api.ErrNestedWait
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return api.ErrPoolClosed
	}
	p.logResize(len(p.slots), n)
	p.drain()
	p.halt()
	return p.start(n)
}

func (p *IdleStack) halt() {
	slots := p.slots
	p.stopAll(p.workers(), func(i int) { slots[i].halt() })
	p.slots = nil
	p.setRoster(nil)
}

// Join stops and joins every worker. Later submissions panic.
func (p *IdleStack) Join() error {
	if _, nested := p.callerWorker(); nested {
		return api.ErrNestedWait
	}
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	n := len(p.slots)
	p.drain()
	p.halt()
	p.closed = true
	p.mu.Unlock()
	p.logJoin(n)
	return p.takeFailure()
}

// IdleWorkers returns the number of workers parked on the stack.
func (p *IdleStack) IdleWorkers() int {
	p.stackMu.Lock()
	defer p.stackMu.Unlock()
	return len(p.stack)
}

// Stats returns a snapshot of the pool.
func (p *IdleStack) Stats() api.Stats {
	return p.stats(0, 0)
}
