// File: internal/concurrency/spinlock.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Test-and-test-and-set spin lock. Hold it only around cursor updates,
// never around a call that may block.

package concurrency

import (
	"runtime"
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

// spinYieldEvery bounds how long a spinner burns its time slice.
const spinYieldEvery = 64

// SpinLock is a busy-wait mutual exclusion lock. It satisfies sync.Locker.
// No fairness: a waiter may starve under contention.
type SpinLock struct {
	_      cpu.CacheLinePad
	locked atomic.Bool
	_      cpu.CacheLinePad
}

// Lock acquires the lock, polling with plain loads between CAS attempts so
// waiters do not bounce the cache line.
func (l *SpinLock) Lock() {
	for {
		if l.locked.CompareAndSwap(false, true) {
			return
		}
		l.Wait()
	}
}

// TryLock acquires the lock if it is free.
func (l *SpinLock) TryLock() bool {
	return !l.locked.Load() && l.locked.CompareAndSwap(false, true)
}

// Unlock releases the lock.
func (l *SpinLock) Unlock() {
	l.locked.Store(false)
}

// Wait spins until the lock is observed free without acquiring it.
func (l *SpinLock) Wait() {
	for spins := 1; l.locked.Load(); spins++ {
		if spins%spinYieldEvery == 0 {
			runtime.Gosched()
		}
	}
}

// Locked reports whether the lock is currently held.
func (l *SpinLock) Locked() bool {
	return l.locked.Load()
}
