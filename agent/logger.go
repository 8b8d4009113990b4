// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package agent

import (
	"context"
	"log/slog"

	"github.com/2kartheek10-droid/githubagent/internal/log"
)

type logger struct{ log.Logger }

func (l *logger) toolCall(ctx context.Context, conn, tool string) {
	l.Log(ctx, slog.LevelDebug, "calling tool",
		slog.String("connection", conn),
		slog.String("tool", tool),
	)
}

func (l *logger) toolFailed(ctx context.Context, tool string, err error) {
	attrs := []slog.Attr{
		slog.String("tool", tool),
		slog.String("error", err.Error()),
	}
	if a, ok := err.(log.Attrs); ok {
		attrs = append(attrs, a.Attrs()...)
	}
	l.Log(ctx, slog.LevelWarn, "tool call failed", attrs...)
}

func (l *logger) unknownTool(ctx context.Context, tool string) {
	l.Log(ctx, slog.LevelWarn, "model requested unknown tool",
		slog.String("tool", tool),
	)
}

func (l *logger) answer(ctx context.Context, turns int) {
	l.Log(ctx, slog.LevelDebug, "answered",
		slog.Int("turns", turns),
	)
}
