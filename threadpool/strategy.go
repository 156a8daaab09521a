// File: threadpool/strategy.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package threadpool

import (
	"fmt"
	"strings"

	"github.com/momentics/hioload-pool/api"
	engines "github.com/momentics/hioload-pool/internal/threadpool"
)

// Strategy selects a pool engine.
type Strategy string

const (
	// RoundRobin gives each worker one job slot and cycles over workers.
	RoundRobin Strategy = engines.StrategyRoundRobin
	// Helping shares one bounded queue; blocked callers run tasks themselves.
	Helping Strategy = engines.StrategyHelping
	// SpinQueue shares one bounded queue behind a spin lock.
	SpinQueue Strategy = engines.StrategySpinQueue
	// IdleStack gives each worker one job slot and dispatches to the most
	// recently idled worker.
	IdleStack Strategy = engines.StrategyIdleStack
	// Stealing uses per-worker lock-free queues with work stealing.
	Stealing Strategy = engines.StrategyStealing
)

func (s Strategy) String() string { return string(s) }

// Strategies lists every strategy in a stable order.
func Strategies() []Strategy {
	names := engines.Strategies()
	out := make([]Strategy, len(names))
	for i, n := range names {
		out[i] = Strategy(n)
	}
	return out
}

// ParseStrategy resolves a strategy name, case-insensitively.
func ParseStrategy(name string) (Strategy, error) {
	want := strings.ToLower(strings.TrimSpace(name))
	for _, s := range Strategies() {
		if string(s) == want {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: unknown strategy %q", api.ErrInvalidArgument, name)
}

// Set implements pflag.Value so a Strategy can be bound to a command flag.
func (s *Strategy) Set(name string) error {
	v, err := ParseStrategy(name)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Type implements pflag.Value.
func (s *Strategy) Type() string { return "strategy" }

// UnmarshalText lets configuration decoders accept strategy names.
func (s *Strategy) UnmarshalText(b []byte) error {
	return s.Set(string(b))
}

// MarshalText is the inverse of UnmarshalText.
func (s Strategy) MarshalText() ([]byte, error) {
	return []byte(s), nil
}

// QueueBased reports whether the strategy keeps a shared queue. Queue-based
// pools drop submissions after Join and accept Wait from their own tasks.
func (s Strategy) QueueBased() bool {
	return engines.IsQueueEngine(string(s))
}
