// Package benchmarks
// Author: momentics <momentics@gmail.com>
//
// Performance benchmarks for hioload-pool engines and primitives.

package benchmarks

import (
	"sync/atomic"
	"testing"

	"github.com/momentics/hioload-pool/api"
	"github.com/momentics/hioload-pool/internal/concurrency"
	"github.com/momentics/hioload-pool/threadpool"
)

func newPool(b *testing.B, s threadpool.Strategy, workers int) api.Pool {
	b.Helper()
	p, err := threadpool.New(threadpool.WithStrategy(s), threadpool.WithWorkers(workers))
	if err != nil {
		b.Fatal(err)
	}
	b.Cleanup(func() { p.Join() })
	return p
}

// BenchmarkSubmitWait submits b.N empty tasks and waits for them.
func BenchmarkSubmitWait(b *testing.B) {
	for _, s := range threadpool.Strategies() {
		b.Run(string(s), func(b *testing.B) {
			p := newPool(b, s, 4)
			var n atomic.Int64
			task := func() { n.Add(1) }

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				p.Submit(task)
			}
			if err := p.Wait(); err != nil {
				b.Fatal(err)
			}
			b.StopTimer()
			if n.Load() != int64(b.N) {
				b.Fatalf("ran %d of %d tasks", n.Load(), b.N)
			}
		})
	}
}

// BenchmarkSubmitParallel submits from many goroutines at once.
func BenchmarkSubmitParallel(b *testing.B) {
	for _, s := range threadpool.Strategies() {
		b.Run(string(s), func(b *testing.B) {
			p := newPool(b, s, 4)
			task := func() {}

			b.ResetTimer()
			b.RunParallel(func(pb *testing.PB) {
				for pb.Next() {
					p.Submit(task)
				}
			})
			if err := p.Wait(); err != nil {
				b.Fatal(err)
			}
		})
	}
}

// BenchmarkForRange measures the fork-join helper on a small body.
func BenchmarkForRange(b *testing.B) {
	p := newPool(b, threadpool.Stealing, 4)
	out := make([]int, 1024)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := threadpool.ForRange(p, len(out), func(j int) { out[j] = j * i }); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkLockFreeQueueThroughput tests lock-free queue performance.
func BenchmarkLockFreeQueueThroughput(b *testing.B) {
	q := concurrency.NewLockFreeQueue[int](1024)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			if !q.Enqueue(i) {
				q.Dequeue()
				q.Enqueue(i)
			}
			i++
		}
	})
}

// BenchmarkTaskRingUnderSpinLock measures the SpinQueue critical section.
func BenchmarkTaskRingUnderSpinLock(b *testing.B) {
	var lock concurrency.SpinLock
	r := concurrency.NewTaskRing[int](1024)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			lock.Lock()
			if r.Full() {
				r.Pop()
			}
			r.Push(1)
			lock.Unlock()
		}
	})
}

// BenchmarkThreadMapLocal tests per-thread slot lookup.
func BenchmarkThreadMapLocal(b *testing.B) {
	var m concurrency.ThreadMap[atomic.Uint64]
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if c := m.Local(); c != nil {
				c.Add(1)
			}
		}
	})
}
