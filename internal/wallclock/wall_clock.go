// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package wallclock

import (
	"context"
	"time"
)

type (
	// WallClock abstracts the parts of packages context and time that the
	// retry loop depends on, so tests can observe requested delays without
	// actually waiting.
	WallClock interface {
		WithTimeoutCause(
			parent context.Context,
			timeout time.Duration,
			cause error,
		) (context.Context, context.CancelFunc)
		NewTimer(d time.Duration) Timer
		Now() time.Time
	}

	// Timer abstracts the functionality of time.Timer.
	Timer interface {
		C() <-chan time.Time
		Stop() bool
	}

	wallClock struct{}

	timer struct {
		*time.Timer
	}
)

// WithTimeoutCause indirects context.WithTimeoutCause.
func (wallClock) WithTimeoutCause(
	parent context.Context,
	timeout time.Duration,
	cause error,
) (context.Context, context.CancelFunc) {
	return context.WithTimeoutCause(parent, timeout, cause)
}

// NewTimer indirects time.NewTimer.
func (wallClock) NewTimer(d time.Duration) Timer {
	return timer{Timer: time.NewTimer(d)}
}

// Now indirects time.Now.
func (wallClock) Now() time.Time {
	return time.Now()
}

// C indirects time.Timer.C.
func (t timer) C() <-chan time.Time {
	return t.Timer.C
}

// Sleep suspends until d has elapsed on the given clock or ctx is done,
// whichever happens first. It returns the context's cause if the wait was cut
// short, and nil otherwise. A non-positive d still yields to a done context.
func Sleep(ctx context.Context, clock WallClock, d time.Duration) error {
	if d <= 0 {
		return context.Cause(ctx)
	}

	t := clock.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C():
		return nil
	case <-ctx.Done():
		return context.Cause(ctx)
	}
}

// Instance is the default WallClock, backed by the real time package. Callers
// that need to control apparent time should inject their own WallClock rather
// than replacing this value.
var Instance WallClock = wallClock{}
