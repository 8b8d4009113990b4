// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package toolset

import (
	"context"
	"log/slog"
	"time"

	"github.com/2kartheek10-droid/githubagent/internal/log"
	"github.com/sony/gobreaker"
)

type logger struct{ log.Logger }

func (l *logger) connected(ctx context.Context, params TransportParams) {
	if !l.Enabled(ctx, slog.LevelInfo) {
		return
	}
	attrs := []slog.Attr{slog.String("url", params.URL())}
	if a, ok := params.(log.Attrs); ok {
		attrs = a.Attrs()
	}
	l.Log(ctx, slog.LevelInfo, "connected", attrs...)
}

func (l *logger) reconnect(
	ctx context.Context,
	err error,
	delay time.Duration,
) {
	l.Log(ctx, slog.LevelWarn, "connection failed",
		slog.String("error", err.Error()),
		slog.Duration("delay", delay),
	)
}

func (l *logger) breaker(ctx context.Context, from, to gobreaker.State) {
	l.Log(ctx, slog.LevelWarn, "circuit breaker state changed",
		slog.String("from", from.String()),
		slog.String("to", to.String()),
	)
}

func (l *logger) closeFailed(ctx context.Context, err error) {
	l.Log(ctx, slog.LevelDebug, "closing dropped session failed",
		slog.String("error", err.Error()),
	)
}
