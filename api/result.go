// Package api
// Author: momentics@gmail.com
//
// Generic result carrier for asynchronous computations.

package api

// Result wraps any payload or error.
type Result[T any] struct {
	Value T
	Err   error
}
