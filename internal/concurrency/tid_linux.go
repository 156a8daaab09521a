//go:build linux

// File: internal/concurrency/tid_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package concurrency

import "golang.org/x/sys/unix"

// CurrentThreadID returns the kernel id of the calling OS thread.
func CurrentThreadID() (uint64, bool) {
	return uint64(unix.Gettid()), true
}
