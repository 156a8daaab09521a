package adapters_test

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-pool/adapters"
	"github.com/momentics/hioload-pool/api"
	"github.com/momentics/hioload-pool/threadpool"
)

func TestExecutorAdapterLifecycle(t *testing.T) {
	for _, s := range threadpool.Strategies() {
		t.Run(string(s), func(t *testing.T) {
			p, err := threadpool.New(threadpool.WithStrategy(s), threadpool.WithWorkers(2))
			require.NoError(t, err)
			var exec api.Executor = adapters.NewExecutorAdapter(p)

			var n atomic.Int64
			for i := 0; i < 500; i++ {
				require.NoError(t, exec.Submit(func() { n.Add(1) }))
			}
			require.NoError(t, exec.Resize(3))
			assert.Equal(t, 3, exec.NumWorkers())
			require.NoError(t, exec.Close())
			assert.EqualValues(t, 500, n.Load())

			// Slot engines panic on post-Join Submit; the adapter must not.
			assert.ErrorIs(t, exec.Submit(func() {}), api.ErrPoolClosed)
			assert.ErrorIs(t, exec.Resize(1), api.ErrPoolClosed)
			assert.NoError(t, exec.Close())
		})
	}
}

func TestExecutorAdapterReportsFailure(t *testing.T) {
	p, err := threadpool.New(threadpool.WithStrategy(threadpool.Stealing), threadpool.WithWorkers(2))
	require.NoError(t, err)
	exec := adapters.NewExecutorAdapter(p)

	boom := errors.New("boom")
	require.NoError(t, exec.Submit(func() { panic(boom) }))
	err = exec.Wait()
	require.ErrorIs(t, err, boom)
	var tp *api.TaskPanic
	require.ErrorAs(t, err, &tp)

	require.NoError(t, exec.Wait())
	require.ErrorIs(t, exec.Submit(nil), api.ErrInvalidArgument)
	require.NoError(t, exec.Close())
}

func TestExecutorAdapterSurfacesPoolRefusal(t *testing.T) {
	for _, s := range threadpool.Strategies() {
		t.Run(string(s), func(t *testing.T) {
			p, err := threadpool.New(threadpool.WithStrategy(s), threadpool.WithWorkers(1))
			require.NoError(t, err)
			exec := adapters.NewExecutorAdapter(p)
			// Joined behind the adapter's back.
			require.NoError(t, p.Join())
			assert.ErrorIs(t, exec.Submit(func() {}), api.ErrPoolClosed)
		})
	}
}
