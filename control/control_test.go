// File: control/control_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package control_test

import (
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-pool/api"
	"github.com/momentics/hioload-pool/control"
	"github.com/momentics/hioload-pool/threadpool"
)

func newPool(t *testing.T, s threadpool.Strategy) api.Pool {
	t.Helper()
	p, err := threadpool.New(threadpool.WithStrategy(s), threadpool.WithWorkers(2), threadpool.WithID("p1"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Join() })
	return p
}

func TestConfigStoreReload(t *testing.T) {
	cs := control.NewConfigStore()
	assert.Empty(t, cs.GetSnapshot())

	var calls atomic.Int32
	cs.OnReload(func() { calls.Add(1) })
	cs.SetConfigSync(map[string]any{"pool.workers": "4"})
	assert.EqualValues(t, 1, calls.Load())

	n, ok, err := cs.Int("pool.workers")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 4, n)

	cs.SetConfig(map[string]any{"pool.workers": 2.5})
	require.Eventually(t, func() bool { return calls.Load() == 2 }, time.Second, time.Millisecond)
	_, _, err = cs.Int("pool.workers")
	assert.Error(t, err)

	_, ok, err = cs.Int("missing")
	assert.False(t, ok)
	assert.NoError(t, err)
}

func TestDiagnosticsSnapshot(t *testing.T) {
	d := control.NewDiagnostics()
	d.ThreadsStarted.Add(3)
	d.ThreadsJoined.Add(1)
	d.TasksSubmitted.Add(5)
	s := d.Snapshot()
	assert.EqualValues(t, 5, s.TasksSubmitted)
	assert.EqualValues(t, 2, s.LiveThreads())
}

func TestPublishPoolStats(t *testing.T) {
	p := newPool(t, threadpool.SpinQueue)
	for i := 0; i < 10; i++ {
		p.Submit(func() {})
	}
	require.NoError(t, p.Wait())

	mr := control.NewMetricsRegistry()
	control.PublishPoolStats(mr, p.Stats())
	snap := mr.GetSnapshot()
	assert.Equal(t, "spinqueue", snap["pool.p1.strategy"])
	assert.EqualValues(t, 10, snap["pool.p1.completed"])
	assert.Equal(t, 2, snap["pool.p1.workers"])
	assert.False(t, mr.Updated().IsZero())

	d := control.NewDiagnostics()
	control.PublishDiagnostics(mr, d)
	assert.EqualValues(t, 0, mr.GetSnapshot()["diag.threads_live"])
}

func TestDebugProbes(t *testing.T) {
	dp := control.NewDebugProbes()
	control.RegisterPlatformProbes(dp)
	p := newPool(t, threadpool.RoundRobin)
	control.RegisterPoolProbes(dp, p)

	state := dp.DumpState()
	assert.Equal(t, "roundrobin", state["pool.p1.strategy"])
	assert.Equal(t, 2, state["pool.p1.workers"])
	assert.Len(t, state["pool.p1.states"], 2)
	assert.Positive(t, state["platform.cpus"])
	_, ok := state["pool.p1.stats"].(api.Stats)
	assert.True(t, ok)
}

func TestPoolCollector(t *testing.T) {
	p := newPool(t, threadpool.Stealing)
	for i := 0; i < 7; i++ {
		p.Submit(func() {})
	}
	require.NoError(t, p.Wait())

	c := control.NewPoolCollector("hioload", p)
	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(c))

	expected := `
# HELP hioload_pool_tasks_submitted_total Tasks accepted by the pool.
# TYPE hioload_pool_tasks_submitted_total counter
hioload_pool_tasks_submitted_total{pool="p1",strategy="stealing"} 7
# HELP hioload_pool_workers Current worker count.
# TYPE hioload_pool_workers gauge
hioload_pool_workers{pool="p1",strategy="stealing"} 2
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"hioload_pool_tasks_submitted_total", "hioload_pool_workers"))

	// 8 pool-level series plus 4 per worker.
	assert.Equal(t, 8+4*2, testutil.CollectAndCount(c))
}
