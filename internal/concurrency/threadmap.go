// File: internal/concurrency/threadmap.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// ThreadMap gives every OS thread a private, lazily created slot. Lookups
// binary-search a sorted slice; insertions are rare (once per thread) and run
// under a spin lock after in-flight readers have drained.

package concurrency

import (
	"runtime"
	"slices"
	"sync/atomic"
)

type threadEntry[T any] struct {
	id  uint64
	val *T
}

// ThreadMap is a concurrent map from OS thread id to a *T owned by that thread.
// Values are stable: the pointer returned for an id never changes until the
// id is deleted or the map cleared.
type ThreadMap[T any] struct {
	entries []threadEntry[T]
	writer  SpinLock
	readers atomic.Int64
}

// Get returns the slot of id without creating it.
func (m *ThreadMap[T]) Get(id uint64) (*T, bool) {
	m.enterRead()
	defer m.readers.Add(-1)
	return m.find(id)
}

// Search returns the slot of id, creating a zero value when absent. found
// reports whether the slot already existed.
func (m *ThreadMap[T]) Search(id uint64) (val *T, found bool) {
	if v, ok := m.Get(id); ok {
		return v, true
	}
	m.lockWrite()
	defer m.writer.Unlock()
	if v, ok := m.find(id); ok {
		return v, true
	}
	v := new(T)
	i, _ := slices.BinarySearchFunc(m.entries, id, compareEntry[T])
	m.entries = slices.Insert(m.entries, i, threadEntry[T]{id: id, val: v})
	return v, false
}

// Local returns the calling thread's slot, creating it when absent. It
// returns nil on platforms without thread identity. The caller should be
// locked to its OS thread for the slot to stay meaningful.
func (m *ThreadMap[T]) Local() *T {
	id, ok := CurrentThreadID()
	if !ok {
		return nil
	}
	v, _ := m.Search(id)
	return v
}

// Delete removes the slot of id.
func (m *ThreadMap[T]) Delete(id uint64) {
	m.lockWrite()
	defer m.writer.Unlock()
	if i, ok := slices.BinarySearchFunc(m.entries, id, compareEntry[T]); ok {
		m.entries = slices.Delete(m.entries, i, i+1)
	}
}

// Len returns the number of slots.
func (m *ThreadMap[T]) Len() int {
	m.enterRead()
	defer m.readers.Add(-1)
	return len(m.entries)
}

// Range calls fn for every slot in id order until fn returns false. fn must
// not insert into or delete from the map.
func (m *ThreadMap[T]) Range(fn func(id uint64, val *T) bool) {
	m.enterRead()
	defer m.readers.Add(-1)
	for _, e := range m.entries {
		if !fn(e.id, e.val) {
			return
		}
	}
}

// Clear drops every slot.
func (m *ThreadMap[T]) Clear() {
	m.lockWrite()
	m.entries = nil
	m.writer.Unlock()
}

func (m *ThreadMap[T]) find(id uint64) (*T, bool) {
	if i, ok := slices.BinarySearchFunc(m.entries, id, compareEntry[T]); ok {
		return m.entries[i].val, true
	}
	return nil, false
}

// enterRead registers a reader once no writer is active. A writer that grabs
// the lock between the check and the increment is detected and waited out.
func (m *ThreadMap[T]) enterRead() {
	for {
		m.writer.Wait()
		m.readers.Add(1)
		if !m.writer.Locked() {
			return
		}
		m.readers.Add(-1)
	}
}

func (m *ThreadMap[T]) lockWrite() {
	m.writer.Lock()
	for spins := 1; m.readers.Load() != 0; spins++ {
		if spins%spinYieldEvery == 0 {
			runtime.Gosched()
		}
	}
}

func compareEntry[T any](e threadEntry[T], id uint64) int {
	switch {
	case e.id < id:
		return -1
	case e.id > id:
		return 1
	default:
		return 0
	}
}
