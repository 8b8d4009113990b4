// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package toolset

import (
	"fmt"
	"log/slog"
)

// ConfigurationError indicates that transport parameters or a toolset were
// constructed with an invalid value.
type ConfigurationError struct {
	Name    string
	Value   any
	message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid toolset configuration: %s", e.message)
}

// Attrs returns additional error attributes for slog.
func (e *ConfigurationError) Attrs() []slog.Attr {
	return []slog.Attr{
		slog.String("property_name", e.Name),
		slog.Any("property_value", e.Value),
	}
}

// TransportError indicates that the MCP server answered a request with an
// HTTP error status.
type TransportError struct {
	Code    int
	wrapped error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("mcp server returned status %d: %v", e.Code, e.wrapped)
}

// StatusCode returns the HTTP status code.
func (e *TransportError) StatusCode() int {
	return e.Code
}

func (e *TransportError) Unwrap() error {
	return e.wrapped
}

// Attrs returns additional error attributes for slog.
func (e *TransportError) Attrs() []slog.Attr {
	return []slog.Attr{slog.Int("status_code", e.Code)}
}
