// File: internal/threadpool/config.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package threadpool

import (
	"runtime"

	"github.com/google/uuid"

	"github.com/momentics/hioload-pool/control"
)

// Config carries engine construction parameters. Zero values select defaults.
type Config struct {
	// ID names the pool in logs, stats and metrics. Defaults to a random UUID.
	ID string
	// Workers is the worker count; <= 0 selects max(1, NumCPU-1).
	Workers int
	// QueueCapacity bounds the shared queue of queue-based engines.
	QueueCapacity int
	// MaxPart divides the queue into helping strides (Helping only).
	MaxPart int
	// PinCPUs pins worker i to CPU i modulo NumCPU.
	PinCPUs bool
	// StrictAffinity turns a pinning failure into a construction error.
	StrictAffinity bool
	// Diagnostics receives lifecycle counters. Nil allocates a private one.
	Diagnostics *control.Diagnostics
}

// DefaultWorkers leaves one CPU to the submitting thread.
func DefaultWorkers() int {
	return max(1, runtime.NumCPU()-1)
}

func (c Config) withDefaults() Config {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers()
	}
	if c.Diagnostics == nil {
		c.Diagnostics = control.NewDiagnostics()
	}
	return c
}

// queueCapacity resolves the shared queue size, falling back to def(workers).
func (c Config) queueCapacity(workers int, def func(int) int) int {
	if c.QueueCapacity > 0 {
		return c.QueueCapacity
	}
	return def(workers)
}
