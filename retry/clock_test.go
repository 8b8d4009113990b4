// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package retry_test

import (
	"context"
	"sync"
	"time"

	"github.com/2kartheek10-droid/githubagent/internal/wallclock"
)

// fakeClock records every requested delay. Timers fire immediately unless
// onTimer is set, in which case onTimer runs and the timer never fires.
type fakeClock struct {
	mu      sync.Mutex
	delays  []time.Duration
	onTimer func(time.Duration)
}

type fakeTimer struct{ c chan time.Time }

func (c *fakeClock) WithTimeoutCause(
	parent context.Context,
	timeout time.Duration,
	cause error,
) (context.Context, context.CancelFunc) {
	return context.WithTimeoutCause(parent, timeout, cause)
}

func (c *fakeClock) NewTimer(d time.Duration) wallclock.Timer {
	c.mu.Lock()
	c.delays = append(c.delays, d)
	onTimer := c.onTimer
	c.mu.Unlock()

	if onTimer != nil {
		onTimer(d)
		return fakeTimer{}
	}

	t := fakeTimer{make(chan time.Time, 1)}
	t.c <- time.Time{}
	return t
}

func (*fakeClock) Now() time.Time {
	return time.Time{}
}

func (c *fakeClock) Delays() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.delays...)
}

func (t fakeTimer) C() <-chan time.Time { return t.c }

func (fakeTimer) Stop() bool { return true }
