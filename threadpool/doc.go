// Package threadpool is the entry point of hioload-pool: it builds a pool
// engine from functional options and adds futures and parallel loops on top
// of any api.Pool.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
//	p, err := threadpool.New(threadpool.WithStrategy(threadpool.Helping), threadpool.WithWorkers(8))
//	if err != nil { ... }
//	defer p.Join()
//	f := threadpool.Async(p, func() (int, error) { return 42, nil })
//	v, err := f.Get(ctx)
package threadpool
