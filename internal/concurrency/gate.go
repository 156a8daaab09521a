// File: internal/concurrency/gate.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Gate is a level-triggered binary semaphore used as the handoff device
// between a dispatcher and a worker: green means "a job is loaded, run it",
// red means "slot free".

package concurrency

import "sync"

// Gate has two states driven explicitly by Green and Red. Waiting never
// consumes the state.
type Gate struct {
	mu    sync.Mutex
	cond  sync.Cond
	green bool
}

// NewGate returns a gate in the given initial state.
func NewGate(green bool) *Gate {
	g := &Gate{green: green}
	g.cond.L = &g.mu
	return g
}

// Green opens the gate and wakes every waiter.
func (g *Gate) Green() {
	g.mu.Lock()
	g.green = true
	g.mu.Unlock()
	g.cond.Broadcast()
}

// Red closes the gate and wakes every waiter.
func (g *Gate) Red() {
	g.mu.Lock()
	g.green = false
	g.mu.Unlock()
	g.cond.Broadcast()
}

// Wait blocks until the gate is green.
func (g *Gate) Wait() {
	g.mu.Lock()
	for !g.green {
		g.cond.Wait()
	}
	g.mu.Unlock()
}

// WaitRed blocks until the gate is red.
func (g *Gate) WaitRed() {
	g.mu.Lock()
	for g.green {
		g.cond.Wait()
	}
	g.mu.Unlock()
}

// HandOff waits for red, runs load while holding the gate and turns it green.
// Concurrent dispatchers targeting the same gate are serialized, and the
// writes made by load are visible to the goroutine released by Wait.
func (g *Gate) HandOff(load func()) {
	g.mu.Lock()
	for g.green {
		g.cond.Wait()
	}
	load()
	g.green = true
	g.mu.Unlock()
	g.cond.Broadcast()
}

// IsGreen reports the current state.
func (g *Gate) IsGreen() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.green
}
