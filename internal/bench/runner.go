// File: internal/bench/runner.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package bench drives the same workload through every pool strategy and
// records submission and completion times.

package bench

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"

	"github.com/momentics/hioload-pool/api"
	"github.com/momentics/hioload-pool/control"
	"github.com/momentics/hioload-pool/internal/concurrency"
	"github.com/momentics/hioload-pool/internal/config"
	"github.com/momentics/hioload-pool/threadpool"
)

// Result is one measured repetition of one strategy.
type Result struct {
	Strategy   string        `json:"strategy"`
	Repetition int           `json:"repetition"`
	Workers    int           `json:"workers"`
	QueueCap   int           `json:"queue_cap"`
	Tasks      int           `json:"tasks"`
	Push       time.Duration `json:"push_ns"`
	Total      time.Duration `json:"total_ns"`
	Completed  uint64        `json:"completed"`
	Jobs       []uint64      `json:"jobs_per_worker"`
	// Threads is the number of distinct OS threads that ran tasks. Only the
	// counter workload records it.
	Threads int `json:"threads,omitempty"`
}

// Throughput returns completed tasks per second.
func (r Result) Throughput() float64 {
	if r.Total <= 0 {
		return 0
	}
	return float64(r.Completed) / r.Total.Seconds()
}

// Runner executes a config.
type Runner struct {
	cfg  *config.Config
	diag *control.Diagnostics
}

// NewRunner validates cfg and returns a runner for it.
func NewRunner(cfg *config.Config) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Runner{cfg: cfg, diag: control.NewDiagnostics()}, nil
}

// Diagnostics returns the counters shared by every pool the runner built.
func (r *Runner) Diagnostics() *control.Diagnostics { return r.diag }

// Run measures every strategy Repetitions times. Pools of one repetition are
// started together and measured one after another, so only one pool is busy
// at a time.
func (r *Runner) Run(ctx context.Context) ([]Result, error) {
	var results []Result
	for rep := 1; rep <= r.cfg.Workload.Repetitions; rep++ {
		pools, err := r.startPools(ctx, rep)
		if err != nil {
			return results, err
		}
		for i, p := range pools {
			if err := ctx.Err(); err != nil {
				return results, joinAll(pools[i:], err)
			}
			res, err := r.measure(p, rep)
			if err != nil {
				return results, joinAll(pools[i:], err)
			}
			klog.V(1).InfoS("Measured", "strategy", res.Strategy, "repetition", rep,
				"push", res.Push, "total", res.Total)
			results = append(results, res)
			if err := p.Join(); err != nil {
				return results, joinAll(pools[i+1:], err)
			}
		}
	}
	return results, nil
}

func (r *Runner) startPools(ctx context.Context, rep int) ([]api.Pool, error) {
	pools := make([]api.Pool, len(r.cfg.Strategies))
	g, _ := errgroup.WithContext(ctx)
	for i, s := range r.cfg.Strategies {
		g.Go(func() error {
			p, err := threadpool.New(r.options(s, rep)...)
			if err != nil {
				return fmt.Errorf("starting %s pool: %w", s, err)
			}
			pools[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		var started []api.Pool
		for _, p := range pools {
			if p != nil {
				started = append(started, p)
			}
		}
		return nil, joinAll(started, err)
	}
	return pools, nil
}

func (r *Runner) options(s threadpool.Strategy, rep int) []threadpool.Option {
	pc := r.cfg.Pool
	opts := []threadpool.Option{
		threadpool.WithStrategy(s),
		threadpool.WithWorkers(pc.Workers),
		threadpool.WithQueueCapacity(pc.QueueCapacity),
		threadpool.WithMaxPart(pc.MaxPart),
		threadpool.WithDiagnostics(r.diag),
		threadpool.WithID(fmt.Sprintf("%s-%d", s, rep)),
	}
	if pc.PinCPUs {
		opts = append(opts, threadpool.WithCPUAffinity(false))
	}
	return opts
}

func (r *Runner) measure(p api.Pool, rep int) (Result, error) {
	wl := r.cfg.Workload
	task, threads := r.task()

	start := time.Now()
	for i := 0; i < wl.Tasks; i++ {
		p.Submit(task)
	}
	push := time.Since(start)
	if err := p.Wait(); err != nil {
		return Result{}, fmt.Errorf("%s: %w", p.Name(), err)
	}
	total := time.Since(start)

	stats := p.Stats()
	res := Result{
		Strategy:   p.Name(),
		Repetition: rep,
		Workers:    len(stats.Workers),
		QueueCap:   stats.QueueCap,
		Tasks:      wl.Tasks,
		Push:       push,
		Total:      total,
		Completed:  stats.Completed,
		Threads:    threads(),
	}
	for _, w := range stats.Workers {
		res.Jobs = append(res.Jobs, w.Jobs)
	}
	if res.Completed != uint64(wl.Tasks) {
		return res, fmt.Errorf("%s: completed %d of %d tasks", p.Name(), res.Completed, wl.Tasks)
	}
	return res, nil
}

// task builds the workload function. threads reports how many OS threads
// executed it.
func (r *Runner) task() (task api.Task, threads func() int) {
	wl := r.cfg.Workload
	none := func() int { return 0 }
	switch wl.Kind {
	case config.KindSleep:
		d := wl.Duration
		return func() { time.Sleep(d) }, none
	case config.KindCounter:
		var (
			perThread concurrency.ThreadMap[atomic.Uint64]
			shared    atomic.Uint64
		)
		task = func() {
			if c := perThread.Local(); c != nil {
				c.Add(1)
				return
			}
			shared.Add(1)
		}
		threads = func() int {
			n := perThread.Len()
			if shared.Load() > 0 {
				n++
			}
			return n
		}
		return task, threads
	default:
		iters := wl.Iterations
		return func() { spin(iters) }, none
	}
}

var sink atomic.Uint64

func spin(iters int) {
	var x uint64 = 1
	for i := 0; i < iters; i++ {
		x ^= x << 13
		x ^= x >> 7
		x ^= x << 17
	}
	sink.Add(x & 1)
}

func joinAll(pools []api.Pool, cause error) error {
	var g errgroup.Group
	for _, p := range pools {
		g.Go(p.Join)
	}
	if err := g.Wait(); err != nil {
		klog.ErrorS(err, "Joining pools after failure")
	}
	return cause
}
