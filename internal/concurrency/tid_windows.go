//go:build windows

// File: internal/concurrency/tid_windows.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package concurrency

import "golang.org/x/sys/windows"

// CurrentThreadID returns the id of the calling OS thread.
func CurrentThreadID() (uint64, bool) {
	return uint64(windows.GetCurrentThreadId()), true
}
