// File: internal/concurrency/gate_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package concurrency

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGateLevelTriggered(t *testing.T) {
	g := NewGate(true)
	// Waiting does not consume a green gate.
	g.Wait()
	g.Wait()
	assert.True(t, g.IsGreen())

	g.Red()
	g.WaitRed()
	assert.False(t, g.IsGreen())
}

func TestGateWakesWaiter(t *testing.T) {
	g := NewGate(false)
	done := make(chan struct{})
	go func() {
		g.Wait()
		close(done)
	}()
	select {
	case <-done:
		t.Fatal("waiter passed a red gate")
	case <-time.After(20 * time.Millisecond):
	}
	g.Green()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("waiter missed the green transition")
	}
}

func TestGateHandOffSerializesDispatchers(t *testing.T) {
	g := NewGate(false)
	var slot int
	got := make(chan int, 100)

	go func() {
		for i := 0; i < 100; i++ {
			g.Wait()
			got <- slot
			g.Red()
		}
	}()
	for d := 0; d < 4; d++ {
		go func() {
			for i := 0; i < 25; i++ {
				g.HandOff(func() { slot++ })
			}
		}()
	}
	seen := make(map[int]bool)
	for i := 0; i < 100; i++ {
		select {
		case v := <-got:
			require.False(t, seen[v], "slot value %d delivered twice", v)
			seen[v] = true
		case <-time.After(5 * time.Second):
			t.Fatal("handoff stalled")
		}
	}
	assert.Len(t, seen, 100)
}
