// File: internal/concurrency/ring_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package concurrency

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-pool/api"
)

func requireCapacityPanic(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r)
		err, ok := r.(error)
		require.True(t, ok)
		require.True(t, errors.Is(err, api.ErrCapacityViolation), "got %v", err)
	}()
	fn()
}

func TestTaskRingFIFOWraparound(t *testing.T) {
	r := NewTaskRing[int](3)
	next := 0
	for round := 0; round < 10; round++ {
		for !r.Full() {
			r.Push(next)
			next++
		}
		head, ok := r.Peek()
		require.True(t, ok)
		require.Equal(t, head, r.Pop())
		require.Equal(t, head+1, r.Pop())
	}
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, 3, r.Cap())
}

func TestTaskRingMisuse(t *testing.T) {
	r := NewTaskRing[int](1)
	requireCapacityPanic(t, func() { r.Pop() })
	r.Push(1)
	requireCapacityPanic(t, func() { r.Push(2) })
	requireCapacityPanic(t, func() { r.Reserve(8) })
	requireCapacityPanic(t, func() { NewTaskRing[int](0) })
}

func TestTaskRingClearAndReserve(t *testing.T) {
	r := NewTaskRing[*int](4)
	for i := 0; i < 3; i++ {
		v := i
		r.Push(&v)
	}
	assert.Equal(t, 3, r.Clear())
	assert.True(t, r.Empty())
	for _, s := range r.slots {
		assert.Nil(t, s)
	}
	r.Reserve(16)
	assert.Equal(t, 16, r.Cap())
	_, ok := r.Peek()
	assert.False(t, ok)
}
