// Package threadpool implements the execution engines behind api.Pool.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Engines:
//   - RoundRobin: one job slot per worker, dispatcher cycles over workers.
//   - Helping: shared bounded queue; blocked submitters and waiters run tasks.
//   - SpinQueue: shared bounded queue behind a spin lock, poison-task shutdown.
//   - IdleStack: one job slot per worker, idle workers park on a stack.
//   - Stealing: per-worker lock-free queues with stealing and a shared overflow.
//
// Every worker is a goroutine locked to its own OS thread for its whole life.
package threadpool
