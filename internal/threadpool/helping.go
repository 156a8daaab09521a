// File: internal/threadpool/helping.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Helping runs one shared bounded queue. Nobody blocks idle on it: a
// submitter facing a full queue and a caller of Wait both take strides of
// tasks and run them on their own goroutine until the condition they wait
// for holds.

package threadpool

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/eapache/queue"

	"github.com/momentics/hioload-pool/api"
	"github.com/momentics/hioload-pool/internal/concurrency"
)

// StrategyHelping names the Helping engine.
const StrategyHelping = "helping"

// DefaultHelpingCapacity is the queue size for n workers.
func DefaultHelpingCapacity(n int) int { return 50 * (n + 1) }

// DefaultMaxPart is the stride divisor for n workers.
func DefaultMaxPart(n int) int { return 3 * (n + 1) }

type helpingWorker struct {
	*worker
	// buf holds the stride taken from the queue. Only the owning goroutine
	// touches it.
	buf *queue.Queue
}

// Helping is the shared-queue engine with helping submitters and waiters.
type Helping struct {
	base

	// lifecycle serializes Resize and Join.
	lifecycle sync.Mutex

	mu      sync.Mutex
	newWork sync.Cond
	allIdle sync.Cond
	ring    *concurrency.TaskRing[api.Task]
	maxPart int

	// total and idle count workers; helpers counts callers running a
	// stride; nested counts workers and helpers blocked in a nested Wait.
	total       int
	idle        int
	helpers     int
	nested      int
	wakePending bool
	stopping    bool
	joined      bool

	// down drops submissions; dropping also discards strides already taken.
	// failedDown marks a shutdown caused by a task failure, which the next
	// Wait undoes.
	down       atomic.Bool
	dropping   atomic.Bool
	failedDown bool

	hw []*helpingWorker
}

// NewHelping starts a Helping pool.
func NewHelping(cfg Config) (*Helping, error) {
	p := &Helping{base: newBase(cfg, StrategyHelping)}
	p.newWork.L = &p.mu
	p.allIdle.L = &p.mu
	n := p.cfg.Workers
	p.ring = concurrency.NewTaskRing[api.Task](p.cfg.queueCapacity(n, DefaultHelpingCapacity))
	p.maxPart = p.cfg.MaxPart
	if p.maxPart <= 0 {
		p.maxPart = DefaultMaxPart(n)
	}
	if err := p.start(n); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Helping) start(n int) error {
	hw := make([]*helpingWorker, n)
	ws := make([]*worker, n)
	loops := make([]func(), n)
	for i := range hw {
		hw[i] = &helpingWorker{worker: newWorker(i), buf: queue.New()}
		ws[i] = hw[i].worker
		loops[i] = func() { p.loop(hw[i]) }
	}
	p.mu.Lock()
	p.total = n
	p.mu.Unlock()
	p.hw = hw
	p.setRoster(ws)
	started, err := p.launch(ws, loops)
	if err != nil {
		p.mu.Lock()
		p.total = started
		p.mu.Unlock()
		p.stopWorkers(ws[:started])
		return err
	}
	return nil
}

func (p *Helping) loop(w *helpingWorker) {
	w.setState(api.StateIdle)
	p.mu.Lock()
	defer p.mu.Unlock()
	for {
		if p.stopping {
			p.total--
			return
		}
		if !p.ring.Empty() {
			p.takeStrideLocked(w.buf)
			if !p.ring.Empty() && p.idle > 0 && !p.wakePending {
				p.wakePending = true
				p.newWork.Signal()
			}
			p.mu.Unlock()
			p.runBuffered(w.worker, w.buf)
			p.mu.Lock()
			continue
		}
		p.idle++
		p.signalIdleLocked()
		t0 := time.Now()
		for p.ring.Empty() && !p.stopping {
			p.newWork.Wait()
		}
		w.addWait(t0)
		p.wakePending = false
		p.idle--
	}
}

// takeStrideLocked moves max(1, len/maxPart) tasks from the ring into buf.
func (p *Helping) takeStrideLocked(buf *queue.Queue) {
	n := max(1, p.ring.Len()/p.maxPart)
	for i := 0; i < n && !p.ring.Empty(); i++ {
		buf.Add(p.ring.Pop())
	}
}

// runBuffered runs every task in buf. Once the queue is shut down the rest
// is discarded.
func (p *Helping) runBuffered(w *worker, buf *queue.Queue) {
	for buf.Length() > 0 {
		task := buf.Remove().(api.Task)
		if p.dropping.Load() {
			p.discard(1)
			continue
		}
		if !p.run(w, task) {
			p.shutdownOnFailure()
		}
	}
}

// quiescentLocked reports whether the ring is empty and no task runs. A
// nested waiter only discounts the tasks blocked in a nested Wait, itself
// included; any other waiter needs every worker and helper idle.
func (p *Helping) quiescentLocked(nested bool) bool {
	if !p.ring.Empty() {
		return false
	}
	busy := p.helpers + p.total - p.idle
	if nested {
		return busy == p.nested
	}
	return busy == 0
}

func (p *Helping) signalIdleLocked() {
	if p.quiescentLocked(false) || p.quiescentLocked(true) {
		p.allIdle.Broadcast()
	}
}

// helpLocked takes one stride and runs it with p.mu released. own is the
// caller's stride buffer when the caller already executes on behalf of the
// pool, nil otherwise. It reports whether the ring had work.
func (p *Helping) helpLocked(own *queue.Queue) bool {
	if p.ring.Empty() {
		return false
	}
	if own != nil {
		p.takeStrideLocked(own)
		p.mu.Unlock()
		p.runBuffered(nil, own)
		p.mu.Lock()
		return true
	}
	p.helpers++
	p.mu.Unlock()
	p.helping(func(slot *helperSlot) {
		p.mu.Lock()
		p.takeStrideLocked(slot.buf)
		p.mu.Unlock()
		p.runBuffered(nil, slot.buf)
	})
	p.mu.Lock()
	p.helpers--
	p.signalIdleLocked()
	return true
}

// own returns the stride buffer of the caller when it is a task run by this
// pool.
func (p *Helping) own() *queue.Queue {
	if i, ok := p.callerWorker(); ok {
		// A worker's entry cannot be replaced by Resize while it runs.
		return p.hw[i].buf
	}
	if slot, ok := p.callerHelper(); ok {
		return slot.buf
	}
	return nil
}

// Submit enqueues task. While the queue is full the caller runs queued tasks
// until it is half empty. Once the pool is shut down tasks are dropped.
func (p *Helping) Submit(task api.Task) {
	mustTask(task)
	_ = p.submit(task)
}

// TrySubmit is Submit reporting a dropped task: api.ErrPoolClosed after
// Join, api.ErrTaskDiscarded while the queue is shut down.
func (p *Helping) TrySubmit(task api.Task) error {
	if task == nil {
		return api.ErrInvalidArgument
	}
	return p.submit(task)
}

// dropped counts a refused task and names the reason.
func (p *Helping) dropped() error {
	p.discard(1)
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.joined {
		return api.ErrPoolClosed
	}
	return api.ErrTaskDiscarded
}

func (p *Helping) submit(task api.Task) error {
	start := time.Now()
	if p.down.Load() {
		return p.dropped()
	}
	own := p.own()
	p.mu.Lock()
	if p.ring.Full() {
		for p.ring.Len() > p.ring.Cap()/2 && !p.down.Load() {
			p.helpLocked(own)
		}
	}
	if p.down.Load() {
		p.mu.Unlock()
		return p.dropped()
	}
	p.ring.Push(task)
	if p.idle > 0 && !p.wakePending {
		p.wakePending = true
		p.newWork.Signal()
	}
	if p.nested > 0 {
		p.allIdle.Broadcast()
	}
	p.mu.Unlock()
	p.accepted(start)
	return nil
}

// Wait runs queued tasks on the caller, then blocks until the queue is empty
// and every worker is idle. A task of this pool may call Wait: it is then
// left out of the busy count. If a task failure shut the queue down, Wait
// returns the failure and reopens the queue.
func (p *Helping) Wait() error {
	p.mu.Lock()
	p.waitLocked(p.own())
	err := p.takeFailure()
	if p.failedDown && !p.joined {
		p.failedDown = false
		p.dropping.Store(false)
		p.down.Store(false)
	}
	p.mu.Unlock()
	return err
}

func (p *Helping) waitLocked(own *queue.Queue) {
	if own != nil {
		// The rest of our own stride sits outside the ring; nobody else can
		// run it.
		p.mu.Unlock()
		p.runBuffered(nil, own)
		p.mu.Lock()
	}
	for p.helpLocked(own) {
	}
	if own != nil {
		p.nested++
		defer func() { p.nested-- }()
	}
	for !p.quiescentLocked(own != nil) {
		if own != nil && !p.ring.Empty() {
			p.nested--
			p.helpLocked(own)
			p.nested++
			continue
		}
		p.allIdle.Wait()
	}
}

// Shutdown drops every queued task and every later submission. Workers keep
// running until Join.
func (p *Helping) Shutdown() {
	p.mu.Lock()
	p.shutdownLocked()
	p.mu.Unlock()
}

func (p *Helping) shutdownLocked() {
	p.down.Store(true)
	p.dropping.Store(true)
	p.discard(p.ring.Clear())
	p.newWork.Broadcast()
	p.allIdle.Broadcast()
}

func (p *Helping) shutdownOnFailure() {
	p.mu.Lock()
	if !p.dropping.Load() {
		p.failedDown = true
		p.shutdownLocked()
	}
	p.mu.Unlock()
}

// Resize waits for the queue to drain, stops every worker and starts n new
// ones. Tasks submitted meanwhile stay queued for the new workers.
func (p *Helping) Resize(n int) error {
	if err := checkWorkers(n); err != nil {
		return err
	}
	if _, nested := p.inside(); nested {
		return api.ErrNestedWait
	}
	p.lifecycle.Lock()
	defer p.lifecycle.Unlock()
	p.mu.Lock()
	if p.joined {
		p.mu.Unlock()
		return api.ErrPoolClosed
	}
	p.logResize(p.total, n)
	p.waitLocked(nil)
	p.mu.Unlock()
	p.stopWorkers(p.workers())
	return p.start(n)
}

func (p *Helping) stopWorkers(ws []*worker) {
	p.mu.Lock()
	p.stopping = true
	p.newWork.Broadcast()
	p.mu.Unlock()
	p.stopAll(ws, func(int) {})
	p.mu.Lock()
	p.stopping = false
	p.idle = 0
	p.mu.Unlock()
	p.hw = nil
	p.setRoster(nil)
}

// Join drains the queue, shuts it down and joins every worker.
func (p *Helping) Join() error {
	if _, nested := p.inside(); nested {
		return api.ErrNestedWait
	}
	p.lifecycle.Lock()
	defer p.lifecycle.Unlock()
	p.mu.Lock()
	if p.joined {
		p.mu.Unlock()
		return nil
	}
	p.joined = true
	p.down.Store(true)
	p.waitLocked(nil)
	n := p.total
	p.mu.Unlock()
	p.stopWorkers(p.workers())
	p.logJoin(n)
	return p.takeFailure()
}

// Stats returns a snapshot of the pool.
func (p *Helping) Stats() api.Stats {
	p.mu.Lock()
	qlen, qcap := p.ring.Len(), p.ring.Cap()
	p.mu.Unlock()
	return p.stats(qlen, qcap)
}
