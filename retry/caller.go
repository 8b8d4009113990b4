// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/2kartheek10-droid/githubagent/internal/log"
	"github.com/2kartheek10-droid/githubagent/internal/options"
	"github.com/2kartheek10-droid/githubagent/internal/wallclock"
	"github.com/google/uuid"
)

type (
	// Caller executes operations against an external service, applying its
	// Policy to recoverable failures. A Caller holds no per-call state and may
	// be shared between goroutines.
	Caller struct {
		policy  *Policy
		clock   wallclock.WallClock
		logger  logger
		metrics *Metrics
		timeout time.Duration
	}

	// CallerOption represents a single caller option.
	CallerOption interface{ caller(*CallerOptions) }

	// CallerOptions are the resolved caller options.
	CallerOptions struct {
		Clock   wallclock.WallClock
		Logger  *slog.Logger
		Metrics *Metrics

		// Timeout bounds a whole invocation, including waits. Zero means no
		// bound beyond the caller's context.
		Timeout time.Duration
	}

	// WithTimeout bounds a whole invocation, including waits between attempts.
	WithTimeout time.Duration

	// This option is not used directly; see WithClock below.
	withClock struct{ wallclock.WallClock }

	// This option is not used directly; see WithLogger below.
	withLogger struct{ *slog.Logger }

	// This option is not used directly; see WithMetrics below.
	withMetrics struct{ *Metrics }
)

// NewCaller creates a new caller applying the given policy.
func NewCaller(policy *Policy, opt ...CallerOption) (*Caller, error) {
	if policy == nil {
		return nil, &ConfigurationError{
			Name:    "policy",
			message: "policy must not be nil",
		}
	}

	var opts CallerOptions
	opts.Apply(opt)

	if opts.Timeout < 0 {
		return nil, &ConfigurationError{
			Name:    "Timeout",
			Value:   opts.Timeout,
			message: "timeout must not be negative",
		}
	}

	clock := opts.Clock
	if clock == nil {
		clock = wallclock.Instance
	}

	return &Caller{
		policy:  policy,
		clock:   clock,
		logger:  logger{log.Wrap(opts.Logger)},
		metrics: opts.Metrics,
		timeout: opts.Timeout,
	}, nil
}

// Policy returns the policy applied by the caller.
func (c *Caller) Policy() *Policy {
	return c.policy
}

// Invoke runs op until it succeeds, fails terminally, exhausts the caller's
// policy, or ctx is done. Attempts run strictly one after another on the
// calling goroutine; op receives the attempt number, starting at 1.
//
// The returned error is one of *TerminalError, *ExhaustedError or
// *CancellationError.
func Invoke[T any](
	ctx context.Context,
	c *Caller,
	name string,
	op func(ctx context.Context, attempt int) Outcome[T],
) (T, error) {
	var zero T

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = c.clock.WithTimeoutCause(
			ctx,
			c.timeout,
			fmt.Errorf(
				"%s timed out after %v: %w",
				name,
				c.timeout,
				context.DeadlineExceeded,
			),
		)
		defer cancel()
	}

	l := logger{c.logger.With(
		slog.String("operation", name),
		slog.String("invocation", invocationID()),
	)}
	start := c.clock.Now()

	finish := func(attempt int, err error) error {
		l.complete(ctx, attempt, err)
		c.metrics.complete(name, err, c.clock.Now().Sub(start))
		return err
	}

	for attempt := 1; ; attempt++ {
		// Never start an attempt once cancellation has been requested.
		if ctx.Err() != nil {
			return zero, finish(attempt-1, &CancellationError{
				Operation: name,
				Attempts:  attempt - 1,
				wrapped:   context.Cause(ctx),
			})
		}

		l.attempt(ctx, attempt)
		c.metrics.attempt(name)
		out := op(ctx, attempt)

		if out.Kind == OutcomeSuccess {
			return out.Value, finish(attempt, nil)
		}

		if cancelled(ctx, out.Err) {
			return zero, finish(attempt, &CancellationError{
				Operation: name,
				Attempts:  attempt,
				wrapped:   context.Cause(ctx),
			})
		}

		if out.Kind != OutcomeRetryable {
			err := out.Err
			if out.Kind != OutcomeTerminal {
				err = fmt.Errorf("unclassified outcome %v", out.Kind)
			}
			return zero, finish(attempt, &TerminalError{
				Operation: name,
				Attempt:   attempt,
				wrapped:   err,
			})
		}

		if !c.policy.ShouldRetry(attempt, out.StatusCode) {
			if !c.policy.IsRetryable(out.StatusCode) {
				return zero, finish(attempt, &TerminalError{
					Operation:  name,
					Attempt:    attempt,
					StatusCode: out.StatusCode,
					wrapped:    out.Err,
				})
			}
			return zero, finish(attempt, &ExhaustedError{
				Operation:  name,
				Attempts:   attempt,
				StatusCode: out.StatusCode,
				wrapped:    out.Err,
			})
		}

		delay := c.policy.DelayBeforeAttempt(attempt + 1)
		l.retry(ctx, attempt, out.StatusCode, delay)
		c.metrics.retry(name, out.StatusCode, delay)

		if err := wallclock.Sleep(ctx, c.clock, delay); err != nil {
			return zero, finish(attempt, &CancellationError{
				Operation: name,
				Attempts:  attempt,
				wrapped:   err,
			})
		}
	}
}

// An attempt that failed because the invocation itself was cancelled is
// reported as a cancellation rather than as a failure of the operation.
func cancelled(ctx context.Context, err error) bool {
	return ctx.Err() != nil && err != nil &&
		(errors.Is(err, context.Canceled) ||
			errors.Is(err, context.DeadlineExceeded))
}

func invocationID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Apply resolves the provided list of options.
func (o *CallerOptions) Apply(
	opts []CallerOption,
	rest ...CallerOption,
) {
	for opt := range options.Apply[CallerOption](opts, rest...) {
		opt.caller(o)
	}
}

func (o *CallerOptions) caller(opt *CallerOptions) {
	if o != nil {
		*opt = *o
	}
}

func (o WithTimeout) caller(opt *CallerOptions) {
	opt.Timeout = time.Duration(o)
}

// WithClock overrides the clock used to wait between attempts.
func WithClock(clock wallclock.WallClock) CallerOption {
	return withClock{clock}
}

func (o withClock) caller(opt *CallerOptions) {
	opt.Clock = o.WallClock
}

// WithLogger enables logging with the provided slog logger.
func WithLogger(logger *slog.Logger) CallerOption {
	return withLogger{logger}
}

func (o withLogger) caller(opt *CallerOptions) {
	opt.Logger = o.Logger
}

// WithMetrics records attempts, retries and outcomes on the given metrics.
func WithMetrics(metrics *Metrics) CallerOption {
	return withMetrics{metrics}
}

func (o withMetrics) caller(opt *CallerOptions) {
	opt.Metrics = o.Metrics
}
