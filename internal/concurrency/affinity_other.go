//go:build !linux && !windows

// File: internal/concurrency/affinity_other.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package concurrency

import "github.com/momentics/hioload-pool/api"

func platformPinCurrentThread(cpuID int) error {
	return api.ErrAffinityNotSupported
}

func platformUnpinCurrentThread() error {
	return nil
}
