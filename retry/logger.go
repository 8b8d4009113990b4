// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package retry

import (
	"context"
	"log/slog"
	"time"

	"github.com/2kartheek10-droid/githubagent/internal/log"
)

type logger struct{ log.Logger }

func (l *logger) attempt(ctx context.Context, attempt int) {
	l.Log(ctx, slog.LevelDebug, "attempt",
		slog.Int("attempt", attempt),
	)
}

func (l *logger) retry(
	ctx context.Context,
	attempt int,
	statusCode int,
	delay time.Duration,
) {
	l.Log(ctx, slog.LevelInfo, "retrying",
		slog.Int("attempt", attempt),
		slog.Int("status_code", statusCode),
		slog.Duration("delay", delay),
	)
}

func (l *logger) complete(ctx context.Context, attempt int, err error) {
	if err == nil {
		l.Log(ctx, slog.LevelDebug, "succeeded",
			slog.Int("attempt", attempt),
		)
		return
	}

	attrs := []slog.Attr{slog.String("error", err.Error())}
	if a, ok := err.(log.Attrs); ok {
		attrs = append(attrs, a.Attrs()...)
	}
	l.Log(ctx, slog.LevelWarn, "failed", attrs...)
}
