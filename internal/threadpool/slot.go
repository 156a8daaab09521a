// File: internal/threadpool/slot.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Single-slot workers shared by the RoundRobin and IdleStack engines. The
// gate is green while the slot holds a job and red while it is free.

package threadpool

import (
	"time"

	"github.com/momentics/hioload-pool/api"
	"github.com/momentics/hioload-pool/internal/concurrency"
)

type slotWorker struct {
	*worker
	gate *concurrency.Gate
	job  api.Task
	stop bool
}

func newSlotWorker(index int) *slotWorker {
	return &slotWorker{worker: newWorker(index), gate: concurrency.NewGate(false)}
}

// load waits for the slot to free up and hands task over.
func (s *slotWorker) load(task api.Task) {
	s.gate.HandOff(func() { s.job = task })
}

// halt asks the worker to exit once its current job is done.
func (s *slotWorker) halt() {
	s.gate.HandOff(func() { s.stop = true })
}

// loop runs jobs until halted. after is called once per job, after the gate
// went red, and is timed as synchronization.
func (s *slotWorker) loop(b *base, after func(*slotWorker)) {
	s.setState(api.StateIdle)
	for {
		t0 := time.Now()
		s.gate.Wait()
		s.addWait(t0)
		if s.stop {
			s.gate.Red()
			return
		}
		job := s.job
		s.job = nil
		b.run(s.worker, job)

		t1 := time.Now()
		s.gate.Red()
		if after != nil {
			after(s)
		}
		s.addSync(t1)
	}
}

func slotWorkers(n int) ([]*slotWorker, []*worker) {
	ss := make([]*slotWorker, n)
	ws := make([]*worker, n)
	for i := range ss {
		ss[i] = newSlotWorker(i)
		ws[i] = ss[i].worker
	}
	return ss, ws
}

func waitSlotsRed(ss []*slotWorker) {
	for _, s := range ss {
		s.gate.WaitRed()
	}
}
