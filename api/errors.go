// Package api
// Author: momentics <momentics@gmail.com>
//
// Common error types and error handling utilities for hioload-pool.

package api

import (
	"errors"
	"fmt"
)

// Common errors used across the library.
var (
	ErrPoolClosed           = errors.New("pool is closed")
	ErrInvalidWorkerCount   = errors.New("invalid worker count")
	ErrNestedWait           = errors.New("wait called from a worker of the same pool")
	ErrNotTargetable        = errors.New("pool does not support targeted submission")
	ErrCapacityViolation    = errors.New("queue capacity violation")
	ErrAffinityNotSupported = errors.New("CPU affinity not supported")
	ErrFutureCanceled       = errors.New("future canceled")
	ErrInvalidArgument      = errors.New("invalid argument")
	ErrTaskDiscarded        = errors.New("task discarded by a shut down queue")
)

// ErrorCode represents specific error conditions in the library.
type ErrorCode int

const (
	ErrCodeOK ErrorCode = iota
	ErrCodeInvalidArgument
	ErrCodeResourceExhausted
	ErrCodeNotSupported
	ErrCodeInternal
)

// Error represents a structured error with code and context.
type Error struct {
	Code    ErrorCode
	Message string
	Context map[string]any
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	if len(e.Context) == 0 {
		return msg
	}
	return fmt.Sprintf("%s (context: %+v)", msg, e.Context)
}

// Unwrap exposes the cause to errors.Is/As.
func (e *Error) Unwrap() error { return e.Err }

// NewError creates a new structured error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Context: make(map[string]any),
	}
}

// WithContext adds context information to the error.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// Wrap sets the underlying cause.
func (e *Error) Wrap(err error) *Error {
	e.Err = err
	return e
}

// TaskPanic is a panic recovered from a task, carried back to the caller.
type TaskPanic struct {
	Value any
	Stack []byte
}

func (p *TaskPanic) Error() string {
	return fmt.Sprintf("task panicked: %v", p.Value)
}

// Unwrap returns the panic value when it is an error.
func (p *TaskPanic) Unwrap() error {
	if err, ok := p.Value.(error); ok {
		return err
	}
	return nil
}
