// File: threadpool/options.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package threadpool

import (
	"github.com/momentics/hioload-pool/api"
	"github.com/momentics/hioload-pool/control"
	engines "github.com/momentics/hioload-pool/internal/threadpool"
)

type options struct {
	strategy Strategy
	cfg      engines.Config
}

// Option configures New.
type Option func(*options)

// WithStrategy selects the engine. The default is Helping.
func WithStrategy(s Strategy) Option {
	return func(o *options) { o.strategy = s }
}

// WithWorkers sets the worker count. n <= 0 selects max(1, NumCPU-1).
func WithWorkers(n int) Option {
	return func(o *options) { o.cfg.Workers = n }
}

// WithQueueCapacity bounds the shared queue of queue-based engines.
func WithQueueCapacity(n int) Option {
	return func(o *options) { o.cfg.QueueCapacity = n }
}

// WithMaxPart sets the stride divisor of the Helping engine.
func WithMaxPart(n int) Option {
	return func(o *options) { o.cfg.MaxPart = n }
}

// WithCPUAffinity pins worker i to CPU i modulo the CPU count. With strict
// set a pinning failure fails New; otherwise it is logged and ignored.
func WithCPUAffinity(strict bool) Option {
	return func(o *options) {
		o.cfg.PinCPUs = true
		o.cfg.StrictAffinity = strict
	}
}

// WithDiagnostics reports lifecycle counters into d.
func WithDiagnostics(d *control.Diagnostics) Option {
	return func(o *options) { o.cfg.Diagnostics = d }
}

// WithID names the pool in logs, stats and metrics.
func WithID(id string) Option {
	return func(o *options) { o.cfg.ID = id }
}

// New starts a pool.
func New(opts ...Option) (api.Pool, error) {
	o := options{strategy: Helping}
	for _, opt := range opts {
		opt(&o)
	}
	return engines.New(string(o.strategy), o.cfg)
}

// SubmitAt hands task to worker i of a pool that supports targeting.
func SubmitAt(p api.Pool, i int, task api.Task) error {
	tp, ok := p.(api.TargetedPool)
	if !ok {
		return api.ErrNotTargetable
	}
	if i < 0 || i >= tp.NumWorkers() {
		return api.NewError(api.ErrCodeInvalidArgument, "worker index out of range").
			WithContext("worker", i).
			WithContext("workers", tp.NumWorkers()).
			Wrap(api.ErrInvalidArgument)
	}
	tp.SubmitAt(i, task)
	return nil
}
