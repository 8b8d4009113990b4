// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package retry

import (
	"fmt"
	"log/slog"
)

// ConfigurationError indicates that a policy or caller was constructed with an
// invalid value. No object is produced alongside it.
type ConfigurationError struct {
	Name    string
	Value   any
	message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid retry configuration: %s", e.message)
}

// Attrs returns additional error attributes for slog.
func (e *ConfigurationError) Attrs() []slog.Attr {
	return []slog.Attr{
		slog.String("property_name", e.Name),
		slog.Any("property_value", e.Value),
	}
}

// TerminalError indicates that an attempt failed in a way that is not
// eligible for retry: the collaborator reported it as terminal, or its status
// code is not in the policy's retryable set. It wraps the collaborator's
// error when there was one.
type TerminalError struct {
	Operation string
	Attempt   int

	// StatusCode is zero when the failure carried no status code.
	StatusCode int

	wrapped error
}

func (e *TerminalError) Error() string {
	msg := fmt.Sprintf("%s failed on attempt %d", e.Operation, e.Attempt)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s with status %d", msg, e.StatusCode)
	}
	if e.wrapped != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.wrapped)
	}
	return msg
}

func (e *TerminalError) Unwrap() error {
	return e.wrapped
}

// Attrs returns additional error attributes for slog.
func (e *TerminalError) Attrs() []slog.Attr {
	a := []slog.Attr{
		slog.String("operation", e.Operation),
		slog.Int("attempt", e.Attempt),
	}
	if e.StatusCode != 0 {
		a = append(a, slog.Int("status_code", e.StatusCode))
	}
	return a
}

// ExhaustedError indicates that every allowed attempt failed with a retryable
// status code. StatusCode is the code reported by the last attempt.
type ExhaustedError struct {
	Operation  string
	Attempts   int
	StatusCode int

	wrapped error
}

func (e *ExhaustedError) Error() string {
	msg := fmt.Sprintf(
		"%s failed after %d attempt(s) with status %d",
		e.Operation,
		e.Attempts,
		e.StatusCode,
	)
	if e.wrapped != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.wrapped)
	}
	return msg
}

func (e *ExhaustedError) Unwrap() error {
	return e.wrapped
}

// Attrs returns additional error attributes for slog.
func (e *ExhaustedError) Attrs() []slog.Attr {
	return []slog.Attr{
		slog.String("operation", e.Operation),
		slog.Int("attempts", e.Attempts),
		slog.Int("status_code", e.StatusCode),
	}
}

// CancellationError indicates that the invocation was abandoned because its
// context was cancelled or timed out. It unwraps to the context's cause, so
// errors.Is(err, context.Canceled) and context.DeadlineExceeded work as
// expected. It never describes a failure of the operation itself.
type CancellationError struct {
	Operation string

	// Attempts is the number of attempts that were started.
	Attempts int

	wrapped error
}

func (e *CancellationError) Error() string {
	return fmt.Sprintf(
		"%s cancelled after %d attempt(s): %v",
		e.Operation,
		e.Attempts,
		e.wrapped,
	)
}

func (e *CancellationError) Unwrap() error {
	return e.wrapped
}

// Attrs returns additional error attributes for slog.
func (e *CancellationError) Attrs() []slog.Attr {
	return []slog.Attr{
		slog.String("operation", e.Operation),
		slog.Int("attempts", e.Attempts),
	}
}
