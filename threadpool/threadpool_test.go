// File: threadpool/threadpool_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package threadpool

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-pool/api"
	"github.com/momentics/hioload-pool/control"
)

func TestParseStrategy(t *testing.T) {
	for _, s := range Strategies() {
		got, err := ParseStrategy(" " + string(s) + " ")
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
	got, err := ParseStrategy("SpinQueue")
	require.NoError(t, err)
	assert.Equal(t, SpinQueue, got)

	_, err = ParseStrategy("lifo")
	require.ErrorIs(t, err, api.ErrInvalidArgument)

	var s Strategy
	require.NoError(t, s.UnmarshalText([]byte("stealing")))
	assert.Equal(t, Stealing, s)
	assert.True(t, s.QueueBased())
	assert.False(t, RoundRobin.QueueBased())
}

func TestNewAppliesOptions(t *testing.T) {
	diag := control.NewDiagnostics()
	p, err := New(
		WithStrategy(SpinQueue),
		WithWorkers(3),
		WithQueueCapacity(64),
		WithDiagnostics(diag),
		WithID("bench-1"),
	)
	require.NoError(t, err)
	assert.Equal(t, "spinqueue", p.Name())
	assert.Equal(t, 3, p.NumWorkers())
	stats := p.Stats()
	assert.Equal(t, "bench-1", stats.ID)
	assert.Equal(t, 64, stats.QueueCap)
	require.NoError(t, p.Join())
	snap := diag.Snapshot()
	assert.EqualValues(t, 3, snap.ThreadsStarted)
	assert.EqualValues(t, 3, snap.ThreadsJoined)
}

func TestNewDefaultsToHelping(t *testing.T) {
	p, err := New(WithWorkers(1))
	require.NoError(t, err)
	defer p.Join()
	assert.Equal(t, string(Helping), p.Name())
}

func TestSubmitAt(t *testing.T) {
	rr, err := New(WithStrategy(RoundRobin), WithWorkers(2))
	require.NoError(t, err)
	defer rr.Join()

	var hits atomic.Int32
	require.NoError(t, SubmitAt(rr, 1, func() { hits.Add(1) }))
	require.NoError(t, rr.Wait())
	assert.EqualValues(t, 1, hits.Load())
	assert.EqualValues(t, 1, rr.Stats().Workers[1].Jobs)

	err = SubmitAt(rr, 5, func() {})
	require.ErrorIs(t, err, api.ErrInvalidArgument)
	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 5, apiErr.Context["worker"])

	hq, err := New(WithStrategy(Helping), WithWorkers(1))
	require.NoError(t, err)
	defer hq.Join()
	require.ErrorIs(t, SubmitAt(hq, 0, func() {}), api.ErrNotTargetable)
}

func TestAsync(t *testing.T) {
	for _, s := range Strategies() {
		t.Run(string(s), func(t *testing.T) {
			p, err := New(WithStrategy(s), WithWorkers(2))
			require.NoError(t, err)
			defer p.Join()

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			ok := Async(p, func() (int, error) { return 42, nil })
			v, err := ok.Get(ctx)
			require.NoError(t, err)
			assert.Equal(t, 42, v)

			sentinel := errors.New("nope")
			failed := Async(p, func() (string, error) { return "", sentinel })
			_, err = failed.Get(ctx)
			require.ErrorIs(t, err, sentinel)

			panicked := Async(p, func() (int, error) { panic("kaboom") })
			_, err = panicked.Get(ctx)
			var tp *api.TaskPanic
			require.ErrorAs(t, err, &tp)
			assert.Equal(t, "kaboom", tp.Value)

			// Panics delivered through a future are not pool failures.
			require.NoError(t, p.Wait())
		})
	}
}

func TestAsyncAfterJoinCompletesWithError(t *testing.T) {
	for _, s := range Strategies() {
		t.Run(string(s), func(t *testing.T) {
			p, err := New(WithStrategy(s), WithWorkers(2))
			require.NoError(t, err)
			require.NoError(t, p.Join())

			f := Async(p, func() (int, error) { return 1, nil })
			select {
			case <-f.Done():
			case <-time.After(time.Second):
				t.Fatal("future of a refused task never completed")
			}
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_, err = f.Get(ctx)
			require.ErrorIs(t, err, api.ErrPoolClosed)

			err = ForRange(p, 4, func(int) {})
			require.ErrorIs(t, err, api.ErrPoolClosed)
		})
	}
}

func TestFutureGetCanceled(t *testing.T) {
	p, err := New(WithStrategy(IdleStack), WithWorkers(1))
	require.NoError(t, err)
	defer p.Join()

	release := make(chan struct{})
	f := Async(p, func() (int, error) {
		<-release
		return 1, nil
	})
	_, ready := f.TryGet()
	assert.False(t, ready)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = f.Get(ctx)
	require.ErrorIs(t, err, api.ErrFutureCanceled)
	require.ErrorIs(t, err, context.Canceled)

	close(release)
	<-f.Done()
	res, ready := f.TryGet()
	require.True(t, ready)
	assert.Equal(t, 1, res.Value)
}

func TestForEachAndForRange(t *testing.T) {
	for _, s := range Strategies() {
		t.Run(string(s), func(t *testing.T) {
			p, err := New(WithStrategy(s), WithWorkers(4), WithQueueCapacity(16))
			require.NoError(t, err)
			defer p.Join()

			items := make([]int, 1000)
			require.NoError(t, ForEach(p, items, func(i int, e *int) { *e = i * i }))
			for i, v := range items {
				require.Equal(t, i*i, v)
			}

			var sum atomic.Int64
			require.NoError(t, ForRange(p, 100, func(i int) { sum.Add(int64(i)) }))
			assert.EqualValues(t, 4950, sum.Load())

			err = ForRange(p, 3, func(i int) {
				if i == 1 {
					panic("bad element")
				}
			})
			var tp *api.TaskPanic
			require.ErrorAs(t, err, &tp)
		})
	}
}
