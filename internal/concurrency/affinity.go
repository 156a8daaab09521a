// File: internal/concurrency/affinity.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Cross-platform CPU affinity for worker threads.

package concurrency

import (
	"fmt"
	"runtime"

	"github.com/momentics/hioload-pool/api"
)

// NumCPUs returns the number of logical CPUs.
func NumCPUs() int {
	return runtime.NumCPU()
}

// PinCurrentThread binds the calling OS thread to cpuID. The caller must
// already hold runtime.LockOSThread, otherwise the binding leaks to whatever
// goroutine the thread runs next.
func PinCurrentThread(cpuID int) error {
	if cpuID < 0 || cpuID >= NumCPUs() {
		return fmt.Errorf("%w: cpu %d out of range [0,%d)", api.ErrInvalidArgument, cpuID, NumCPUs())
	}
	return platformPinCurrentThread(cpuID)
}

// UnpinCurrentThread lets the calling OS thread run on every CPU again.
func UnpinCurrentThread() error {
	return platformUnpinCurrentThread()
}
