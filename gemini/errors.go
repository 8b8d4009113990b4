// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package gemini

import (
	"fmt"
	"log/slog"
)

// ConfigurationError indicates that a model was constructed with an invalid
// value.
type ConfigurationError struct {
	Name    string
	Value   any
	message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid gemini configuration: %s", e.message)
}

// Attrs returns additional error attributes for slog.
func (e *ConfigurationError) Attrs() []slog.Attr {
	return []slog.Attr{
		slog.String("property_name", e.Name),
		slog.Any("property_value", e.Value),
	}
}

// EmptyResponseError indicates that the model returned no usable candidate,
// typically because the prompt or the answer was blocked.
type EmptyResponseError struct {
	Reason string
}

func (e *EmptyResponseError) Error() string {
	if e.Reason == "" {
		return "gemini returned no candidates"
	}
	return fmt.Sprintf("gemini returned no candidates: %s", e.Reason)
}

// Attrs returns additional error attributes for slog.
func (e *EmptyResponseError) Attrs() []slog.Attr {
	return []slog.Attr{slog.String("reason", e.Reason)}
}
