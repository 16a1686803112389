// Package api
// Author: momentics <momentics@gmail.com>
//
// Common error types and error handling utilities for hioload-mpsc.

package api

import (
	"errors"
	"fmt"
)

// Common errors used across the module.
var (
	// ErrDisconnected is returned by Send when the receiver is gone and by
	// Recv when the buffer is drained and every sender is gone.
	ErrDisconnected = errors.New("channel disconnected")
	// ErrTimeout is returned by RecvTimeout when nothing arrived in time.
	// It never indicates failure.
	ErrTimeout = errors.New("receive timeout")
	// ErrClosed is returned when a handle is used after its own Close.
	ErrClosed = errors.New("handle is closed")
	// ErrEmptySampleSet is returned when summarizing zero latencies.
	ErrEmptySampleSet = errors.New("no latency samples")
	// ErrInvalidArgument reports bad configuration.
	ErrInvalidArgument = errors.New("invalid argument")
)

// ErrorCode represents specific error conditions in the module.
type ErrorCode int

const (
	ErrCodeOK ErrorCode = iota
	ErrCodeInvalidArgument
	ErrCodeDisconnected
	ErrCodeProtocol
	ErrCodeInternal
)

func (c ErrorCode) String() string {
	switch c {
	case ErrCodeOK:
		return "ok"
	case ErrCodeInvalidArgument:
		return "invalid_argument"
	case ErrCodeDisconnected:
		return "disconnected"
	case ErrCodeProtocol:
		return "protocol"
	default:
		return "internal"
	}
}

// Error represents a structured error with code and context.
// Component and Command name the failing unit and the command kind it was
// handling when the run aborted.
type Error struct {
	Code      ErrorCode
	Component string
	Command   string
	Message   string
	Context   map[string]any
	Err       error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Component != "" {
		msg = e.Component + ": " + msg
	}
	if e.Command != "" {
		msg = fmt.Sprintf("%s (command=%s)", msg, e.Command)
	}
	if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	if len(e.Context) == 0 {
		return msg
	}
	return fmt.Sprintf("%s (context: %+v)", msg, e.Context)
}

// Unwrap exposes the cause to errors.Is and errors.As.
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

// WithCause records the underlying error.
func (e *Error) WithCause(err error) *Error {
	e.Err = err
	return e
}

// At names the component and command kind involved.
func (e *Error) At(component string, command string) *Error {
	e.Component = component
	e.Command = command
	return e
}
