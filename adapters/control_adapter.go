// File: adapters/control_adapter.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Control adapter implementing api.Control using control package primitives.

package adapters

import (
	"sync"

	"k8s.io/klog/v2"

	"github.com/momentics/hioload-pool/api"
	"github.com/momentics/hioload-pool/control"
)

// WorkersKey is the runtime config key that drives BindPoolSize.
const WorkersKey = "pool.workers"

// ControlAdapter serves runtime config, metrics and debug probes for a set
// of attached pools.
type ControlAdapter struct {
	config  *control.ConfigStore
	metrics *control.MetricsRegistry
	debug   *control.DebugProbes

	mu    sync.Mutex
	pools []api.Pool
	diags []*control.Diagnostics
}

func NewControlAdapter() *ControlAdapter {
	adapter := &ControlAdapter{
		config:  control.NewConfigStore(),
		metrics: control.NewMetricsRegistry(),
		debug:   control.NewDebugProbes(),
	}
	control.RegisterPlatformProbes(adapter.debug)
	return adapter
}

// Attach registers debug probes for p, publishes its stats on every Stats
// call and binds its size to WorkersKey. diag may be nil.
func (c *ControlAdapter) Attach(p api.Pool, diag *control.Diagnostics) {
	c.mu.Lock()
	c.pools = append(c.pools, p)
	if diag != nil {
		c.diags = append(c.diags, diag)
	}
	c.mu.Unlock()
	control.RegisterPoolProbes(c.debug, p)
	BindPoolSize(c.config, p)
}

// Config exposes the underlying store.
func (c *ControlAdapter) Config() *control.ConfigStore { return c.config }

func (c *ControlAdapter) GetConfig() map[string]any {
	return c.config.GetSnapshot()
}

// SetConfig validates WorkersKey before merging and notifies listeners
// asynchronously.
func (c *ControlAdapter) SetConfig(cfg map[string]any) error {
	if err := validate(cfg); err != nil {
		return err
	}
	c.config.SetConfig(cfg)
	return nil
}

// SetConfigSync is SetConfig with listeners run before returning.
func (c *ControlAdapter) SetConfigSync(cfg map[string]any) error {
	if err := validate(cfg); err != nil {
		return err
	}
	c.config.SetConfigSync(cfg)
	return nil
}

func validate(cfg map[string]any) error {
	if _, ok := cfg[WorkersKey]; !ok {
		return nil
	}
	probe := control.NewConfigStore()
	probe.SetConfigSync(map[string]any{WorkersKey: cfg[WorkersKey]})
	n, _, err := probe.Int(WorkersKey)
	if err != nil {
		return api.NewError(api.ErrCodeInvalidArgument, "bad worker count").
			WithContext("key", WorkersKey).Wrap(err)
	}
	if n <= 0 {
		return api.NewError(api.ErrCodeInvalidArgument, "bad worker count").
			WithContext("key", WorkersKey).
			WithContext("workers", n).Wrap(api.ErrInvalidWorkerCount)
	}
	return nil
}

// Stats refreshes pool metrics and merges them with the debug probes.
func (c *ControlAdapter) Stats() map[string]any {
	c.mu.Lock()
	pools := append([]api.Pool(nil), c.pools...)
	diags := append([]*control.Diagnostics(nil), c.diags...)
	c.mu.Unlock()
	for _, p := range pools {
		control.PublishPoolStats(c.metrics, p.Stats())
	}
	for _, d := range diags {
		control.PublishDiagnostics(c.metrics, d)
	}

	stats := c.metrics.GetSnapshot()
	debugStats := c.debug.DumpState()
	combined := make(map[string]any, len(stats)+len(debugStats))
	for k, v := range stats {
		combined[k] = v
	}
	for k, v := range debugStats {
		combined["debug."+k] = v
	}
	return combined
}

func (c *ControlAdapter) OnReload(fn func()) {
	c.config.OnReload(fn)
}

func (c *ControlAdapter) SetMetric(key string, value any) {
	c.metrics.Set(key, value)
}

func (c *ControlAdapter) RegisterDebugProbe(name string, fn func() any) {
	c.debug.RegisterProbe(name, fn)
}

// BindPoolSize resizes p whenever WorkersKey changes in store. Resize
// failures are logged; the pool keeps its previous size.
func BindPoolSize(store *control.ConfigStore, p api.Pool) {
	var mu sync.Mutex
	store.OnReload(func() {
		n, ok, err := store.Int(WorkersKey)
		if !ok {
			return
		}
		id := p.Stats().ID
		if err != nil {
			klog.ErrorS(err, "Ignoring worker count", "pool", id)
			return
		}
		mu.Lock()
		defer mu.Unlock()
		if n == p.NumWorkers() {
			return
		}
		if err := p.Resize(n); err != nil {
			klog.ErrorS(err, "Resize from config failed", "pool", id, "workers", n)
		}
	})
}

var _ api.Control = (*ControlAdapter)(nil)
