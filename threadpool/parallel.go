// File: threadpool/parallel.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package threadpool

import (
	"errors"

	"github.com/momentics/hioload-pool/api"
)

// ForRange runs fn(i) for every i in [0, n) on p and waits for the pool.
// Slot engines refuse the Wait when called from one of their own tasks.
// A task the pool refuses stops the submission; the refusal is returned
// after the tasks already accepted have finished.
func ForRange(p api.Pool, n int, fn func(i int)) error {
	cp, checked := p.(api.CheckedPool)
	for i := 0; i < n; i++ {
		task := func() { fn(i) }
		if !checked {
			p.Submit(task)
			continue
		}
		if err := cp.TrySubmit(task); err != nil {
			if werr := p.Wait(); werr != nil {
				return errors.Join(err, werr)
			}
			return err
		}
	}
	return p.Wait()
}

// ForEach runs fn on every element of items in place and waits for the pool.
func ForEach[E any](p api.Pool, items []E, fn func(i int, e *E)) error {
	return ForRange(p, len(items), func(i int) { fn(i, &items[i]) })
}
