// File: internal/concurrency/barrier_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package concurrency

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type rendezvous interface {
	CountDownAndWait()
}

func exerciseBarrier(t *testing.T, b rendezvous, parties, phases int) {
	t.Helper()
	var (
		arrived atomic.Int64
		wg      sync.WaitGroup
		errs    = make(chan string, parties*phases)
	)
	for p := 0; p < parties; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ph := 1; ph <= phases; ph++ {
				arrived.Add(1)
				b.CountDownAndWait()
				// Nobody leaves a phase before all parties arrived in it.
				if n := arrived.Load(); n < int64(ph*parties) {
					errs <- "released early"
				}
			}
		}()
	}
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("barrier deadlocked")
	}
	close(errs)
	for e := range errs {
		t.Fatal(e)
	}
}

func TestBarrierReusable(t *testing.T) {
	exerciseBarrier(t, NewBarrier(4), 4, 50)
}

func TestSpinBarrierReusable(t *testing.T) {
	exerciseBarrier(t, NewSpinBarrier(3), 3, 50)
}

func TestBarrierCountDownThenWait(t *testing.T) {
	b := NewBarrier(2)
	released := make(chan struct{})
	go func() {
		b.Wait()
		close(released)
	}()
	time.Sleep(10 * time.Millisecond)
	b.CountDown()
	select {
	case <-released:
		t.Fatal("released after one of two arrivals")
	case <-time.After(20 * time.Millisecond):
	}
	b.CountDown()
	select {
	case <-released:
	case <-time.After(time.Second):
		t.Fatal("not released after all arrivals")
	}
	b.Reset(1)
	b.CountDownAndWait()
	require.NotNil(t, b)
}
