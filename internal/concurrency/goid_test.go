// File: internal/concurrency/goid_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package concurrency

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoroutineIDStableAndDistinct(t *testing.T) {
	self := goroutineID()
	require.NotZero(t, self)
	assert.Equal(t, self, goroutineID())

	const n = 8
	ids := make([]uint64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids[i] = goroutineID()
		}()
	}
	wg.Wait()
	seen := map[uint64]bool{self: true}
	for _, id := range ids {
		require.NotZero(t, id)
		require.False(t, seen[id], "duplicate goroutine id %d", id)
		seen[id] = true
	}
}
