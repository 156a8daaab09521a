// control/collector.go
// Author: momentics <momentics@gmail.com>
//
// Prometheus collector over pool statistics. Values are read from
// api.Pool.Stats at scrape time, so the pool carries no metric state.

package control

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/momentics/hioload-pool/api"
)

// PoolCollector exports one pool's Stats as Prometheus metrics.
type PoolCollector struct {
	pool api.Pool

	submitted  *prometheus.Desc
	completed  *prometheus.Desc
	discarded  *prometheus.Desc
	failed     *prometheus.Desc
	workers    *prometheus.Desc
	queueLen   *prometheus.Desc
	queueCap   *prometheus.Desc
	pushTime   *prometheus.Desc
	workerJobs *prometheus.Desc
	workerBusy *prometheus.Desc
	workerWait *prometheus.Desc
	workerIdle *prometheus.Desc
}

var _ prometheus.Collector = (*PoolCollector)(nil)

// NewPoolCollector builds a collector for p. Metrics are named
// <namespace>_pool_* and labelled with the pool id and strategy.
func NewPoolCollector(namespace string, p api.Pool) *PoolCollector {
	s := p.Stats()
	constLabels := prometheus.Labels{"pool": s.ID, "strategy": s.Strategy}
	desc := func(name, help string, labels ...string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "pool", name), help, labels, constLabels)
	}
	return &PoolCollector{
		pool:       p,
		submitted:  desc("tasks_submitted_total", "Tasks accepted by the pool."),
		completed:  desc("tasks_completed_total", "Tasks that finished running, including failed ones."),
		discarded:  desc("tasks_discarded_total", "Tasks dropped without running."),
		failed:     desc("tasks_failed_total", "Tasks that panicked."),
		workers:    desc("workers", "Current worker count."),
		queueLen:   desc("queue_length", "Tasks waiting in the shared queue."),
		queueCap:   desc("queue_capacity", "Capacity of the shared queue."),
		pushTime:   desc("push_seconds_total", "Time callers spent inside Submit."),
		workerJobs: desc("worker_jobs_total", "Jobs completed per worker.", "worker"),
		workerBusy: desc("worker_busy_seconds_total", "Time each worker spent running jobs.", "worker"),
		workerWait: desc("worker_wait_seconds_total", "Time each worker spent waiting for work.", "worker"),
		workerIdle: desc("worker_idle", "1 when the worker waits for work.", "worker"),
	}
}

// Describe implements prometheus.Collector.
func (c *PoolCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{
		c.submitted, c.completed, c.discarded, c.failed, c.workers,
		c.queueLen, c.queueCap, c.pushTime,
		c.workerJobs, c.workerBusy, c.workerWait, c.workerIdle,
	} {
		ch <- d
	}
}

// Collect implements prometheus.Collector.
func (c *PoolCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.pool.Stats()
	ch <- prometheus.MustNewConstMetric(c.submitted, prometheus.CounterValue, float64(s.Submitted))
	ch <- prometheus.MustNewConstMetric(c.completed, prometheus.CounterValue, float64(s.Completed))
	ch <- prometheus.MustNewConstMetric(c.discarded, prometheus.CounterValue, float64(s.Discarded))
	ch <- prometheus.MustNewConstMetric(c.failed, prometheus.CounterValue, float64(s.Failed))
	ch <- prometheus.MustNewConstMetric(c.workers, prometheus.GaugeValue, float64(len(s.Workers)))
	ch <- prometheus.MustNewConstMetric(c.queueLen, prometheus.GaugeValue, float64(s.QueueLen))
	ch <- prometheus.MustNewConstMetric(c.queueCap, prometheus.GaugeValue, float64(s.QueueCap))
	ch <- prometheus.MustNewConstMetric(c.pushTime, prometheus.CounterValue, s.PushTime.Seconds())
	for _, w := range s.Workers {
		idx := strconv.Itoa(w.Index)
		idle := 0.0
		if w.State == api.StateIdle {
			idle = 1
		}
		ch <- prometheus.MustNewConstMetric(c.workerJobs, prometheus.CounterValue, float64(w.Jobs), idx)
		ch <- prometheus.MustNewConstMetric(c.workerBusy, prometheus.CounterValue, w.Busy.Seconds(), idx)
		ch <- prometheus.MustNewConstMetric(c.workerWait, prometheus.CounterValue, w.Wait.Seconds(), idx)
		ch <- prometheus.MustNewConstMetric(c.workerIdle, prometheus.GaugeValue, idle, idx)
	}
}
