// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package config

import (
	"fmt"
	"log/slog"
)

// Error indicates that a configuration source or setting is missing or
// invalid. Name is the variable, YAML key or file concerned. It may wrap an
// underlying error using Go standard error wrapping.
type Error struct {
	Name    string
	wrapped error
	message string
}

func (e *Error) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %s: %v", e.Name, e.message, e.wrapped)
	}
	return fmt.Sprintf("%s: %s", e.Name, e.message)
}

func (e *Error) Unwrap() error {
	return e.wrapped
}

// Attrs returns additional error attributes for slog.
func (e *Error) Attrs() []slog.Attr {
	return []slog.Attr{slog.String("property_name", e.Name)}
}
