//go:build windows

// File: internal/concurrency/affinity_windows.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Windows affinity through SetThreadAffinityMask. Only the first 64 CPUs
// (one processor group) are addressable.

package concurrency

import (
	"fmt"

	"golang.org/x/sys/windows"

	"github.com/momentics/hioload-pool/api"
)

var (
	modkernel32               = windows.NewLazySystemDLL("kernel32.dll")
	procSetThreadAffinityMask = modkernel32.NewProc("SetThreadAffinityMask")
)

func setThreadMask(mask uintptr) error {
	ret, _, err := procSetThreadAffinityMask.Call(uintptr(windows.CurrentThread()), mask)
	if ret == 0 {
		return fmt.Errorf("affinity: SetThreadAffinityMask: %w", err)
	}
	return nil
}

func platformPinCurrentThread(cpuID int) error {
	if cpuID >= 64 {
		return fmt.Errorf("%w: cpu %d outside processor group 0", api.ErrAffinityNotSupported, cpuID)
	}
	return setThreadMask(uintptr(1) << cpuID)
}

func platformUnpinCurrentThread() error {
	n := NumCPUs()
	if n >= 64 {
		return setThreadMask(^uintptr(0))
	}
	return setThreadMask(uintptr(1)<<n - 1)
}
