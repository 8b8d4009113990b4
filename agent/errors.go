// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package agent

import (
	"fmt"
	"log/slog"
)

// ValidationError indicates that an agent was assembled from an invalid part.
// No agent is produced alongside it.
type ValidationError struct {
	Name    string
	Value   any
	message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid agent %s: %s", e.Name, e.message)
}

// Attrs returns additional error attributes for slog.
func (e *ValidationError) Attrs() []slog.Attr {
	return []slog.Attr{
		slog.String("property_name", e.Name),
		slog.Any("property_value", e.Value),
	}
}

// TurnLimitError indicates that the model was still requesting tools when
// the agent's turn limit was reached.
type TurnLimitError struct {
	Agent string
	Turns int
}

func (e *TurnLimitError) Error() string {
	return fmt.Sprintf(
		"%s did not produce an answer within %d turn(s)",
		e.Agent,
		e.Turns,
	)
}

// Attrs returns additional error attributes for slog.
func (e *TurnLimitError) Attrs() []slog.Attr {
	return []slog.Attr{
		slog.String("agent", e.Agent),
		slog.Int("turns", e.Turns),
	}
}
