// File: internal/threadpool/engines.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package threadpool

import (
	"fmt"

	"github.com/momentics/hioload-pool/api"
)

var constructors = map[string]func(Config) (api.Pool, error){
	StrategyRoundRobin: func(c Config) (api.Pool, error) { return NewRoundRobin(c) },
	StrategyHelping:    func(c Config) (api.Pool, error) { return NewHelping(c) },
	StrategySpinQueue:  func(c Config) (api.Pool, error) { return NewSpinQueue(c) },
	StrategyIdleStack:  func(c Config) (api.Pool, error) { return NewIdleStack(c) },
	StrategyStealing:   func(c Config) (api.Pool, error) { return NewStealing(c) },
}

var (
	_ api.CheckedPool = (*RoundRobin)(nil)
	_ api.CheckedPool = (*Helping)(nil)
	_ api.CheckedPool = (*SpinQueue)(nil)
	_ api.CheckedPool = (*IdleStack)(nil)
	_ api.CheckedPool = (*Stealing)(nil)
)

// Strategies lists the engine names in a stable order.
func Strategies() []string {
	return []string{StrategyRoundRobin, StrategyHelping, StrategySpinQueue, StrategyIdleStack, StrategyStealing}
}

// New starts the engine named strategy.
func New(strategy string, cfg Config) (api.Pool, error) {
	ctor, ok := constructors[strategy]
	if !ok {
		return nil, fmt.Errorf("%w: unknown strategy %q", api.ErrInvalidArgument, strategy)
	}
	return ctor(cfg)
}

// IsQueueEngine reports whether the engine keeps a shared queue, drops
// submissions after Join and supports Wait from its own tasks.
func IsQueueEngine(strategy string) bool {
	switch strategy {
	case StrategyHelping, StrategySpinQueue, StrategyStealing:
		return true
	}
	return false
}
