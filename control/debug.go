// control/debug.go
// Author: momentics <momentics@gmail.com>
//
// Runtime debug handler and probe reflector for internal inspection.

package control

import (
	"runtime"
	"sync"

	"github.com/momentics/hioload-pool/api"
)

var _ api.Debug = (*DebugProbes)(nil)

// DebugProbes holds registered probe functions.
type DebugProbes struct {
	mu     sync.RWMutex
	probes map[string]func() any
}

// NewDebugProbes creates a probe registry.
func NewDebugProbes() *DebugProbes {
	return &DebugProbes{
		probes: make(map[string]func() any),
	}
}

// RegisterProbe inserts a named debug hook.
func (dp *DebugProbes) RegisterProbe(name string, fn func() any) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.probes[name] = fn
}

// DumpState returns output of all probes. Probes run outside the registry
// lock.
func (dp *DebugProbes) DumpState() map[string]any {
	dp.mu.RLock()
	probes := make(map[string]func() any, len(dp.probes))
	for k, fn := range dp.probes {
		probes[k] = fn
	}
	dp.mu.RUnlock()
	out := make(map[string]any, len(probes))
	for k, fn := range probes {
		out[k] = fn()
	}
	return out
}

// RegisterPoolProbes exposes the state of p under "pool.<id>.".
func RegisterPoolProbes(dp api.Debug, p api.Pool) {
	id := p.Stats().ID
	prefix := "pool." + id + "."
	dp.RegisterProbe(prefix+"strategy", func() any { return p.Name() })
	dp.RegisterProbe(prefix+"workers", func() any { return p.NumWorkers() })
	dp.RegisterProbe(prefix+"stats", func() any { return p.Stats() })
	dp.RegisterProbe(prefix+"states", func() any {
		stats := p.Stats()
		states := make([]string, len(stats.Workers))
		for i, w := range stats.Workers {
			states[i] = w.State.String()
		}
		return states
	})
}

// RegisterPlatformProbes sets process-wide runtime probes.
func RegisterPlatformProbes(dp api.Debug) {
	dp.RegisterProbe("platform.os", func() any { return runtime.GOOS })
	dp.RegisterProbe("platform.cpus", func() any { return runtime.NumCPU() })
	dp.RegisterProbe("platform.gomaxprocs", func() any { return runtime.GOMAXPROCS(0) })
	dp.RegisterProbe("platform.goroutines", func() any { return runtime.NumGoroutine() })
}
