// Package control
// Author: momentics <momentics@gmail.com>
//
// Runtime control layer for pools: dynamic configuration, metrics and
// debug introspection.
//
// Provides concurrent-safe state handling primitives including:
//   - Snapshot config reads, merged updates and reload listeners
//   - Explicit diagnostics counters handed to pools at construction
//   - A metrics snapshot registry and a Prometheus collector over pool stats
//   - Debug probe registration for pool and platform state
package control
