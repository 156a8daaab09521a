//go:build !linux && !windows

// File: internal/concurrency/tid_other.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package concurrency

// CurrentThreadID returns the id of the calling goroutine. Pool workers and
// helpers run their tasks on the goroutine that registered the id, so it
// identifies the caller as well as a kernel thread id would.
func CurrentThreadID() (uint64, bool) {
	id := goroutineID()
	return id, id != 0
}
