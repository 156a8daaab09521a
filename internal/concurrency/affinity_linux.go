//go:build linux

// File: internal/concurrency/affinity_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Linux affinity through sched_setaffinity(2); pid 0 addresses the calling
// thread. CPU numbers are ordinals over the CPUs the process was allowed to
// run on at startup, so pinning keeps working inside a restricted cpuset.

package concurrency

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

const maxCPUs = 1024

var (
	allowedOnce sync.Once
	allowedSet  unix.CPUSet
	allowedIDs  []int
	allowedErr  error
)

func loadAllowed() {
	allowedErr = unix.SchedGetaffinity(0, &allowedSet)
	for i := 0; i < maxCPUs; i++ {
		if allowedSet.IsSet(i) {
			allowedIDs = append(allowedIDs, i)
		}
	}
	if allowedErr == nil && len(allowedIDs) == 0 {
		allowedErr = fmt.Errorf("affinity: empty process cpu set")
	}
}

func platformPinCurrentThread(cpuID int) error {
	allowedOnce.Do(loadAllowed)
	if allowedErr != nil {
		return allowedErr
	}
	id := allowedIDs[cpuID%len(allowedIDs)]
	var set unix.CPUSet
	set.Zero()
	set.Set(id)
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return fmt.Errorf("affinity: sched_setaffinity cpu %d: %w", id, err)
	}
	return nil
}

func platformUnpinCurrentThread() error {
	allowedOnce.Do(loadAllowed)
	if allowedErr != nil {
		return allowedErr
	}
	set := allowedSet
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return fmt.Errorf("affinity: sched_setaffinity reset: %w", err)
	}
	return nil
}
