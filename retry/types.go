// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package retry

import (
	"errors"
	"fmt"
)

type (
	// OutcomeKind classifies the result of a single attempt.
	OutcomeKind byte

	// Outcome is the result of a single attempt, as classified by the
	// collaborator performing it. Build one with Success, RetryableFailure,
	// TerminalFailure or Classify.
	Outcome[T any] struct {
		Kind  OutcomeKind
		Value T

		// StatusCode is the HTTP-like status reported by a retryable failure.
		StatusCode int

		// Err is the underlying failure, if the collaborator had one.
		Err error
	}

	// StatusCoder is implemented by errors that carry an HTTP-like status
	// code, which makes them candidates for retry.
	StatusCoder interface {
		StatusCode() int
	}

	// StatusError is a minimal StatusCoder for collaborators that only have a
	// status code and an optional underlying error.
	StatusError struct {
		Code    int
		wrapped error
	}
)

// The zero OutcomeKind is deliberately invalid so that an uninitialized
// Outcome is never mistaken for a success.
const (
	OutcomeSuccess OutcomeKind = iota + 1
	OutcomeRetryable
	OutcomeTerminal
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeRetryable:
		return "retryable"
	case OutcomeTerminal:
		return "terminal"
	default:
		return "unknown"
	}
}

// Success reports a successful attempt with its result.
func Success[T any](value T) Outcome[T] {
	return Outcome[T]{Kind: OutcomeSuccess, Value: value}
}

// RetryableFailure reports a failed attempt with a status code that the policy
// may consider transient. The error is optional and kept for diagnostics.
func RetryableFailure[T any](statusCode int, err error) Outcome[T] {
	return Outcome[T]{Kind: OutcomeRetryable, StatusCode: statusCode, Err: err}
}

// TerminalFailure reports a failed attempt that must not be retried.
func TerminalFailure[T any](err error) Outcome[T] {
	return Outcome[T]{Kind: OutcomeTerminal, Err: err}
}

// Classify converts a conventional (value, error) pair into an Outcome. A nil
// error is a success; an error carrying a positive status code (see
// StatusCoder) is a retryable failure, leaving the final decision to the
// policy; anything else is terminal.
func Classify[T any](value T, err error) Outcome[T] {
	if err == nil {
		return Success(value)
	}

	var sc StatusCoder
	if errors.As(err, &sc) {
		if code := sc.StatusCode(); code > 0 {
			return RetryableFailure[T](code, err)
		}
	}
	return TerminalFailure[T](err)
}

// NewStatusError creates a StatusError wrapping err, which may be nil.
func NewStatusError(code int, err error) *StatusError {
	return &StatusError{Code: code, wrapped: err}
}

func (e *StatusError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("status %d: %v", e.Code, e.wrapped)
	}
	return fmt.Sprintf("status %d", e.Code)
}

// StatusCode returns the status code.
func (e *StatusError) StatusCode() int {
	return e.Code
}

func (e *StatusError) Unwrap() error {
	return e.wrapped
}
