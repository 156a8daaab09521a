// File: internal/threadpool/roundrobin.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// RoundRobin gives every worker a single job slot and a gate. The dispatcher
// cycles over the workers and blocks on a busy one until its slot frees up.

package threadpool

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/momentics/hioload-pool/api"
)

// StrategyRoundRobin names the RoundRobin engine.
const StrategyRoundRobin = "roundrobin"

// RoundRobin is the slot-per-worker engine with cyclic dispatch.
type RoundRobin struct {
	base

	// mu guards the worker set. Submitters hold it shared; Resize and Join
	// hold it exclusively. Calls from the pool's own workers skip it.
	mu     sync.RWMutex
	slots  []*slotWorker
	closed bool
	cursor atomic.Uint64
}

var _ api.TargetedPool = (*RoundRobin)(nil)

// NewRoundRobin starts a RoundRobin pool.
func NewRoundRobin(cfg Config) (*RoundRobin, error) {
	p := &RoundRobin{base: newBase(cfg, StrategyRoundRobin)}
	if err := p.start(p.cfg.Workers); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *RoundRobin) start(n int) error {
	slots, ws := slotWorkers(n)
	loops := make([]func(), n)
	for i, s := range slots {
		loops[i] = func() { s.loop(&p.base, nil) }
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

func (p *RoundRobin) enter() (self int, nested bool, unlock func()) {
	if self, ok := p.callerWorker(); ok {
		return self, true, func() {}
	}
	p.mu.RLock()
	return -1, false, p.mu.RUnlock
}

// Submit hands task to the next worker in turn, waiting for its slot.
// It panics with api.ErrPoolClosed after Join.
func (p *RoundRobin) Submit(task api.Task) {
	mustTask(task)
	if err := p.submit(task); err != nil {
		panic(err)
	}
}

// TrySubmit is Submit returning api.ErrPoolClosed instead of panicking
// after Join.
func (p *RoundRobin) TrySubmit(task api.Task) error {
	if task == nil {
		return api.ErrInvalidArgument
	}
	return p.submit(task)
}

func (p *RoundRobin) submit(task api.Task) error {
	start := time.Now()
	self, nested, unlock := p.enter()
	defer unlock()
	if p.closed {
		return api.ErrPoolClosed
	}
	n := len(p.slots)
	i := int((p.cursor.Add(1) - 1) % uint64(n))
	if nested && i == self {
		if n == 1 {
			p.accepted(start)
			p.run(nil, task)
			return nil
		}
		i = int((p.cursor.Add(1) - 1) % uint64(n))
		if i == self {
			i = (i + 1) % n
		}
	}
	p.slots[i].load(task)
	p.accepted(start)
	return nil
}

// SubmitAt hands task to worker i. Jobs given to one worker run in order.
// A worker submitting to itself runs the task inline.
func (p *RoundRobin) SubmitAt(i int, task api.Task) {
	mustTask(task)
	start := time.Now()
	self, nested, unlock := p.enter()
	defer unlock()
	if p.closed {
		panic(api.ErrPoolClosed)
	}
	if i < 0 || i >= len(p.slots) {
		panic(fmt.Errorf("%w: worker %d of %d", api.ErrInvalidArgument, i, len(p.slots)))
	}
	p.accepted(start)
	if nested && i == self {
		p.run(nil, task)
		return
	}
	p.slots[i].load(task)
}

// Wait blocks until every slot is free. It cannot be called from a task of
// the same pool: the caller's own slot never frees up.
func (p *RoundRobin) Wait() error {
	if _, nested := p.callerWorker(); nested {
		return api.ErrNestedWait
	}
	p.mu.RLock()
	p.drain()
	p.cursor.Store(0)
	p.mu.RUnlock()
	return p.takeFailure()
}

// Resize waits for the pool, stops every worker and starts n new ones.
func (p *RoundRobin) Resize(n int) error {
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
	p.cursor.Store(0)
	return p.start(n)
}

// drain waits until a full pass over the slots sees no new submission, so
// jobs handed over by running jobs are waited for too.
func (p *RoundRobin) drain() {
	for {
		before := p.submitted.Load()
		waitSlotsRed(p.slots)
		if p.submitted.Load() == before {
			return
		}
	}
}

func (p *RoundRobin) halt() {
	slots := p.slots
	p.stopAll(p.workers(), func(i int) { slots[i].halt() })
	p.slots = nil
	p.setRoster(nil)
}

// Join stops and joins every worker. Later submissions panic.
func (p *RoundRobin) Join() error {
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

// Stats returns a snapshot of the pool.
func (p *RoundRobin) Stats() api.Stats {
	return p.stats(0, 0)
}
