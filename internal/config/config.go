// File: internal/config/config.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package config reads and writes the poolbench YAML configuration.

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/momentics/hioload-pool/threadpool"
)

// Task kinds.
const (
	KindSpin    = "spin"
	KindSleep   = "sleep"
	KindCounter = "counter"
)

// Report formats.
const (
	FormatAuto  = "auto"
	FormatTable = "table"
	FormatJSON  = "json"
)

// DefaultFile is the file name used by "config init" without a path.
const DefaultFile = "poolbench.yaml"

// Config is the top-level structure of poolbench.yaml.
type Config struct {
	Version    int                   `yaml:"version"`
	Strategies []threadpool.Strategy `yaml:"strategies"`
	Pool       PoolConfig            `yaml:"pool"`
	Workload   WorkloadConfig        `yaml:"workload"`
	Report     ReportConfig          `yaml:"report"`
}

// PoolConfig sizes every pool under test.
type PoolConfig struct {
	Workers       int  `yaml:"workers"`        // 0: max(1, NumCPU-1)
	QueueCapacity int  `yaml:"queue_capacity"` // 0: engine default
	MaxPart       int  `yaml:"max_part"`       // helping only
	PinCPUs       bool `yaml:"pin_cpus"`
}

// WorkloadConfig describes the tasks submitted in one repetition.
type WorkloadConfig struct {
	Tasks       int           `yaml:"tasks"`
	Kind        string        `yaml:"kind"`       // "spin" | "sleep" | "counter"
	Iterations  int           `yaml:"iterations"` // spin loop length
	Duration    time.Duration `yaml:"duration"`   // sleep length
	Repetitions int           `yaml:"repetitions"`
}

// ReportConfig selects the output.
type ReportConfig struct {
	Format string `yaml:"format"` // "auto" | "table" | "json"
}

// ReadConfig reads the YAML file at path. Fields missing from the file keep
// their DefaultConfig values.
func ReadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// WriteConfig writes cfg to path, creating parent directories.
func WriteConfig(path string, cfg *Config) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// DefaultConfig returns a Config comparing every strategy on a short spin
// workload.
func DefaultConfig() *Config {
	return &Config{
		Version:    1,
		Strategies: threadpool.Strategies(),
		Pool: PoolConfig{
			Workers: 0,
		},
		Workload: WorkloadConfig{
			Tasks:       100000,
			Kind:        KindSpin,
			Iterations:  200,
			Duration:    100 * time.Microsecond,
			Repetitions: 3,
		},
		Report: ReportConfig{
			Format: FormatAuto,
		},
	}
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	if len(c.Strategies) == 0 {
		return fmt.Errorf("no strategies selected")
	}
	for _, s := range c.Strategies {
		if _, err := threadpool.ParseStrategy(string(s)); err != nil {
			return err
		}
	}
	switch {
	case c.Pool.Workers < 0:
		return fmt.Errorf("pool.workers must not be negative, got %d", c.Pool.Workers)
	case c.Pool.QueueCapacity < 0:
		return fmt.Errorf("pool.queue_capacity must not be negative, got %d", c.Pool.QueueCapacity)
	case c.Pool.MaxPart < 0:
		return fmt.Errorf("pool.max_part must not be negative, got %d", c.Pool.MaxPart)
	case c.Workload.Tasks < 0:
		return fmt.Errorf("workload.tasks must not be negative, got %d", c.Workload.Tasks)
	case c.Workload.Repetitions < 1:
		return fmt.Errorf("workload.repetitions must be at least 1, got %d", c.Workload.Repetitions)
	}
	switch c.Workload.Kind {
	case KindSpin, KindSleep, KindCounter:
	default:
		return fmt.Errorf("unknown workload.kind %q", c.Workload.Kind)
	}
	switch c.Report.Format {
	case FormatAuto, FormatTable, FormatJSON:
	default:
		return fmt.Errorf("unknown report.format %q", c.Report.Format)
	}
	return nil
}
