// File: internal/concurrency/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Synchronization primitives for hioload-pool engines: spin lock, binary
// gate, barriers, bounded task ring, lock-free MPMC queue, a per-thread keyed
// store and OS-thread identity / CPU affinity helpers.
//
// Affinity and thread identity are implemented on golang.org/x/sys for
// Linux and Windows; other platforms report them as unsupported.
package concurrency
