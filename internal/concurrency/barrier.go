// File: internal/concurrency/barrier.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Reusable N-party rendezvous points.

package concurrency

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Barrier releases its waiters once the configured number of parties has
// counted down, then rearms itself for the next phase.
type Barrier struct {
	mu         sync.Mutex
	cond       sync.Cond
	parties    int
	remaining  int
	generation uint64
}

// NewBarrier returns a barrier for n parties.
func NewBarrier(n int) *Barrier {
	b := &Barrier{}
	b.cond.L = &b.mu
	b.Reset(n)
	return b
}

// Reset rearms the barrier for n parties and starts a new phase.
func (b *Barrier) Reset(n int) {
	if n < 1 {
		n = 1
	}
	b.mu.Lock()
	b.parties = n
	b.remaining = n
	b.generation++
	b.mu.Unlock()
	b.cond.Broadcast()
}

// CountDown registers one arrival without waiting.
func (b *Barrier) CountDown() {
	b.mu.Lock()
	b.arriveLocked()
	b.mu.Unlock()
}

// Wait blocks until the phase that is current at call time completes.
func (b *Barrier) Wait() {
	b.mu.Lock()
	gen := b.generation
	for gen == b.generation {
		b.cond.Wait()
	}
	b.mu.Unlock()
}

// CountDownAndWait registers one arrival and blocks until all parties of the
// phase have arrived.
func (b *Barrier) CountDownAndWait() {
	b.mu.Lock()
	gen := b.generation
	if b.arriveLocked() {
		b.mu.Unlock()
		return
	}
	for gen == b.generation {
		b.cond.Wait()
	}
	b.mu.Unlock()
}

func (b *Barrier) arriveLocked() bool {
	b.remaining--
	if b.remaining > 0 {
		return false
	}
	b.remaining = b.parties
	b.generation++
	b.cond.Broadcast()
	return true
}

// SpinBarrier is the polling counterpart of Barrier, for phases expected to
// complete within a few microseconds.
type SpinBarrier struct {
	count      atomic.Int64
	generation atomic.Uint64
	parties    int64
}

// NewSpinBarrier returns a spin barrier for n parties.
func NewSpinBarrier(n int) *SpinBarrier {
	b := &SpinBarrier{}
	b.Setup(n)
	return b
}

// Setup rearms the barrier. It must not race with arrivals.
func (b *SpinBarrier) Setup(n int) {
	if n < 1 {
		n = 1
	}
	b.parties = int64(n)
	b.count.Store(int64(n))
}

// CountDown registers one arrival without waiting.
func (b *SpinBarrier) CountDown() {
	b.arrive()
}

// Wait polls until the current phase completes.
func (b *SpinBarrier) Wait() {
	gen := b.generation.Load()
	for b.generation.Load() == gen {
		runtime.Gosched()
	}
}

// CountDownAndWait registers one arrival and polls until the phase completes.
func (b *SpinBarrier) CountDownAndWait() {
	gen := b.generation.Load()
	if b.arrive() {
		return
	}
	for b.generation.Load() == gen {
		runtime.Gosched()
	}
}

func (b *SpinBarrier) arrive() bool {
	if b.count.Add(-1) != 0 {
		return false
	}
	// count is rearmed before the generation flips so early arrivals of the
	// next phase decrement a full counter.
	b.count.Store(b.parties)
	b.generation.Add(1)
	return true
}
