// File: internal/threadpool/engines_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package threadpool

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-pool/api"
	"github.com/momentics/hioload-pool/control"
)

func TestNewUnknownStrategy(t *testing.T) {
	_, err := New("fifo", Config{})
	require.ErrorIs(t, err, api.ErrInvalidArgument)
}

func TestConfigDefaults(t *testing.T) {
	c := Config{}.withDefaults()
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, DefaultWorkers(), c.Workers)
	assert.NotNil(t, c.Diagnostics)
	assert.Equal(t, 4096, c.queueCapacity(3, DefaultSpinQueueCapacity))
	assert.Equal(t, 200, c.queueCapacity(3, DefaultHelpingCapacity))
	assert.Equal(t, 7, Config{QueueCapacity: 7}.queueCapacity(3, DefaultHelpingCapacity))
}

func TestRoundRobinSubmitAtIsFIFO(t *testing.T) {
	p, err := NewRoundRobin(Config{Workers: 3})
	require.NoError(t, err)
	defer p.Join()

	var mu sync.Mutex
	order := make(map[int][]int)
	for i := 0; i < 300; i++ {
		w := i % 3
		p.SubmitAt(w, func() {
			mu.Lock()
			order[w] = append(order[w], i)
			mu.Unlock()
		})
	}
	require.NoError(t, p.Wait())
	for w, seq := range order {
		require.Len(t, seq, 100)
		for k := 1; k < len(seq); k++ {
			require.Less(t, seq[k-1], seq[k], "worker %d", w)
		}
	}
	for _, ws := range p.Stats().Workers {
		assert.EqualValues(t, 100, ws.Jobs)
	}
}

func TestRoundRobinSubmitAtOutOfRange(t *testing.T) {
	p, err := NewRoundRobin(Config{Workers: 2})
	require.NoError(t, err)
	defer p.Join()
	require.Panics(t, func() { p.SubmitAt(2, func() {}) })
}

func TestRoundRobinSelfTargetRunsInline(t *testing.T) {
	p, err := NewRoundRobin(Config{Workers: 1})
	require.NoError(t, err)
	defer p.Join()

	var inner atomic.Bool
	p.SubmitAt(0, func() {
		p.SubmitAt(0, func() { inner.Store(true) })
	})
	select {
	case err := <-waitAsync(p):
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("self-targeted submission deadlocked")
	}
	require.True(t, inner.Load())
}

func TestIdleStackSubmitContextCancel(t *testing.T) {
	p, err := NewIdleStack(Config{Workers: 1})
	require.NoError(t, err)

	release := make(chan struct{})
	p.Submit(func() { <-release })

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err = p.SubmitContext(ctx, func() {})
	require.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	require.NoError(t, p.Wait())
	require.Equal(t, 1, p.IdleWorkers())
	require.NoError(t, p.Join())
	require.ErrorIs(t, p.SubmitContext(context.Background(), func() {}), api.ErrPoolClosed)
}

func TestIdleStackPrefersLastIdledWorker(t *testing.T) {
	p, err := NewIdleStack(Config{Workers: 4})
	require.NoError(t, err)
	defer p.Join()

	for i := 0; i < 20; i++ {
		p.Submit(func() {})
		require.NoError(t, p.Wait())
	}
	busy := 0
	for _, ws := range p.Stats().Workers {
		if ws.Jobs > 0 {
			busy++
		}
	}
	assert.Equal(t, 1, busy, "sequential jobs should reuse the warm worker")
}

func TestHelpingShutdownDropsQueued(t *testing.T) {
	diag := control.NewDiagnostics()
	p, err := NewHelping(Config{Workers: 1, QueueCapacity: 16, Diagnostics: diag})
	require.NoError(t, err)

	release := make(chan struct{})
	p.Submit(func() { <-release })
	// Let the worker take the blocking task before queueing more.
	require.Eventually(t, func() bool { return p.Stats().QueueLen == 0 }, time.Second, time.Millisecond)
	var ran atomic.Int32
	for i := 0; i < 5; i++ {
		p.Submit(func() { ran.Add(1) })
	}
	p.Shutdown()
	p.Submit(func() { ran.Add(1) })
	close(release)

	require.NoError(t, p.Wait())
	require.NoError(t, p.Join())
	assert.Zero(t, ran.Load())
	assert.EqualValues(t, 6, diag.Snapshot().TasksDiscarded)
}

func TestHelpingTrySubmitAfterShutdown(t *testing.T) {
	p, err := NewHelping(Config{Workers: 1})
	require.NoError(t, err)
	p.Shutdown()
	require.ErrorIs(t, p.TrySubmit(func() {}), api.ErrTaskDiscarded)
	require.NoError(t, p.Join())
	require.ErrorIs(t, p.TrySubmit(func() {}), api.ErrPoolClosed)
	assert.EqualValues(t, 2, p.Stats().Discarded)
}

func TestHelpingFailureDiscardsQueueThenRecovers(t *testing.T) {
	p, err := NewHelping(Config{Workers: 1, QueueCapacity: 16})
	require.NoError(t, err)
	defer p.Join()

	gate := make(chan struct{})
	p.Submit(func() {
		<-gate
		panic("first")
	})
	require.Eventually(t, func() bool { return p.Stats().QueueLen == 0 }, time.Second, time.Millisecond)
	var ran atomic.Int32
	for i := 0; i < 4; i++ {
		p.Submit(func() { ran.Add(1) })
	}
	close(gate)
	require.Eventually(t, func() bool { return p.Stats().Discarded == 4 }, time.Second, time.Millisecond)
	require.Error(t, p.Wait())
	assert.Zero(t, ran.Load())
	assert.EqualValues(t, 4, p.Stats().Discarded)

	p.Submit(func() { ran.Add(1) })
	require.NoError(t, p.Wait())
	assert.EqualValues(t, 1, ran.Load())
}

func TestStealingSpillsToOverflow(t *testing.T) {
	p, err := NewStealing(Config{Workers: 2, QueueCapacity: 4 * LocalQueueCapacity})
	require.NoError(t, err)
	defer p.Join()

	release := make(chan struct{})
	for i := 0; i < 2; i++ {
		p.Submit(func() { <-release })
	}
	var ran atomic.Int32
	n := 3 * LocalQueueCapacity
	for i := 0; i < n; i++ {
		p.Submit(func() { ran.Add(1) })
	}
	assert.Greater(t, p.spilled.Load(), int64(0))
	close(release)
	require.NoError(t, p.Wait())
	assert.EqualValues(t, n, ran.Load())
	assert.Zero(t, p.spilled.Load())
}

func TestStrictAffinityFailureJoinsStartedWorkers(t *testing.T) {
	diag := control.NewDiagnostics()
	p, err := NewSpinQueue(Config{Workers: 2, PinCPUs: true, StrictAffinity: true, Diagnostics: diag})
	if err == nil {
		// Pinning works here; the pool must behave normally.
		p.Submit(func() {})
		require.NoError(t, p.Wait())
		require.NoError(t, p.Join())
	} else {
		var apiErr *api.Error
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, api.ErrCodeNotSupported, apiErr.Code)
		assert.Contains(t, apiErr.Context, "cpu")
	}
	snap := diag.Snapshot()
	assert.Equal(t, snap.ThreadsStarted, snap.ThreadsJoined)
}

func waitAsync(p api.Pool) <-chan error {
	ch := make(chan error, 1)
	go func() { ch <- p.Wait() }()
	return ch
}
