// File: affinity/affinity.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Platform-neutral API for CPU affinity of caller-owned threads. Pool
// workers are pinned through threadpool.WithCPUAffinity; this package is for
// code that runs its own long-lived goroutines next to a pool.

package affinity

import (
	"runtime"

	"github.com/momentics/hioload-pool/internal/concurrency"
)

// NumCPUs returns the number of logical CPUs.
func NumCPUs() int {
	return concurrency.NumCPUs()
}

// SetAffinity pins the current OS thread to a given logical CPU. The caller
// must hold runtime.LockOSThread. On unsupported platforms it returns
// api.ErrAffinityNotSupported.
func SetAffinity(cpuID int) error {
	return concurrency.PinCurrentThread(cpuID)
}

// ResetAffinity lets the current OS thread run on every allowed CPU again.
func ResetAffinity() error {
	return concurrency.UnpinCurrentThread()
}

// Pin locks the calling goroutine to its OS thread and pins that thread to
// cpuID. release resets the affinity and unlocks the thread; it must be
// called from the same goroutine.
func Pin(cpuID int) (release func() error, err error) {
	runtime.LockOSThread()
	if err := SetAffinity(cpuID); err != nil {
		runtime.UnlockOSThread()
		return nil, err
	}
	return func() error {
		defer runtime.UnlockOSThread()
		return ResetAffinity()
	}, nil
}
