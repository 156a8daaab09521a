// File: internal/concurrency/lock_free_queue_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package concurrency

import (
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockFreeQueueBounds(t *testing.T) {
	q := NewLockFreeQueue[int](5)
	require.Equal(t, 8, q.Cap())
	for i := 0; i < 8; i++ {
		require.True(t, q.Enqueue(i))
	}
	assert.False(t, q.Enqueue(8))
	assert.Equal(t, 8, q.Len())
	for i := 0; i < 8; i++ {
		v, ok := q.Dequeue()
		require.True(t, ok)
		require.Equal(t, i, v)
	}
	_, ok := q.Dequeue()
	assert.False(t, ok)
}

func TestLockFreeQueueConcurrent(t *testing.T) {
	q := NewLockFreeQueue[int](32)
	const producers, perProducer = 4, 5000
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results = make(map[int]struct{})
	)
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perProducer; j++ {
				for !q.Enqueue(p*perProducer + j) {
					runtime.Gosched()
				}
			}
		}()
	}
	for c := 0; c < producers; c++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perProducer; j++ {
				for {
					if v, ok := q.Dequeue(); ok {
						mu.Lock()
						results[v] = struct{}{}
						mu.Unlock()
						break
					}
					runtime.Gosched()
				}
			}
		}()
	}
	wg.Wait()
	require.Len(t, results, producers*perProducer)
}
