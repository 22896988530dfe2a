// File: api/errors.go
// Package api
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Common error types and error handling utilities for the dispatch core.

package api

import (
	"errors"
	"fmt"
)

// Sentinel errors for local contract violations. These fail fast and are
// never retried by the core.
var (
	// ErrNoReceiveCallback is returned by BeginReceive when no receive
	// callback has been registered on the connection.
	ErrNoReceiveCallback = errors.New("no receive callback registered")

	// ErrConnectionDisposed is returned by operations on a disposed connection.
	ErrConnectionDisposed = errors.New("connection is disposed")

	// ErrTransportReleased indicates the transport handle was already released.
	ErrTransportReleased = errors.New("transport handle released")

	// ErrReactorInactive indicates the owning reactor no longer accepts work.
	ErrReactorInactive = errors.New("reactor is not active")

	// ErrNotSupported indicates the transport cannot satisfy the request.
	ErrNotSupported = errors.New("operation not supported")

	// ErrUnknownEndpoint indicates the reactor holds no connection for the
	// requested remote endpoint.
	ErrUnknownEndpoint = errors.New("unknown remote endpoint")
)

// ErrorCode classifies conditions surfaced through the OnError callback slot
// and returned from boundary operations.
type ErrorCode int

const (
	ErrCodeOK ErrorCode = iota
	ErrCodeClosed
	ErrCodeConnectionReset
	ErrCodeSendFailed
	ErrCodeReceiveFailed
	ErrCodeUsage
	ErrCodeInternal
)

// String returns the symbolic name of the code.
func (c ErrorCode) String() string {
	switch c {
	case ErrCodeOK:
		return "ok"
	case ErrCodeClosed:
		return "closed"
	case ErrCodeConnectionReset:
		return "connection_reset"
	case ErrCodeSendFailed:
		return "send_failed"
	case ErrCodeReceiveFailed:
		return "receive_failed"
	case ErrCodeUsage:
		return "usage"
	default:
		return "internal"
	}
}

// Error is a structured error with a code and optional context values.
// Transport-origin conditions are delivered to OnError handlers as *Error so
// applications can branch on Code rather than on message text.
type Error struct {
	Code    ErrorCode
	Message string
	Context map[string]any
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if len(e.Context) == 0 {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (context: %+v)", e.Code, e.Message, e.Context)
}

// Unwrap exposes the underlying cause for errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new structured error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError creates a structured error around an underlying cause.
func WrapError(code ErrorCode, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// WithContext adds a context value to the error and returns it.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}
