// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package retry

import (
	"log/slog"
	"math"
	"slices"
	"time"

	"github.com/2kartheek10-droid/githubagent/internal/options"
)

type (
	// Policy decides whether a failed attempt should be retried and how long
	// to wait first. The delay before attempt n (n >= 2) is
	// InitialDelay * ExponentBase^(n-2), optionally capped by MaxDelay.
	//
	// A Policy is immutable once constructed and may be shared freely between
	// goroutines.
	Policy struct {
		maxAttempts  int
		exponentBase float64
		initialDelay time.Duration
		maxDelay     time.Duration
		codes        map[int]struct{}
	}

	// PolicyOption represents a single retry policy option.
	PolicyOption interface{ policy(*PolicyOptions) }

	// PolicyOptions are the resolved retry policy options.
	PolicyOptions struct {
		// MaxAttempts is the total number of attempts, including the first.
		MaxAttempts int

		// ExponentBase is the growth factor of the delay; it must exceed 1.
		ExponentBase float64

		// InitialDelay is the delay before the second attempt.
		InitialDelay time.Duration

		// MaxDelay caps every computed delay. Zero means uncapped.
		MaxDelay time.Duration

		// RetryableStatusCodes are the status codes eligible for retry.
		RetryableStatusCodes []int
	}

	// WithMaxAttempts sets the total number of attempts.
	WithMaxAttempts int

	// WithExponentBase sets the growth factor of the delay.
	WithExponentBase float64

	// WithInitialDelay sets the delay before the second attempt.
	WithInitialDelay time.Duration

	// WithMaxDelay caps the delay between attempts.
	WithMaxDelay time.Duration

	// WithRetryableStatusCodes sets the status codes eligible for retry,
	// replacing any previously specified.
	WithRetryableStatusCodes []int
)

// NewPolicy creates a new retry policy. It returns a *ConfigurationError if
// MaxAttempts < 1, ExponentBase <= 1, InitialDelay < 0, MaxDelay < 0, or any
// status code lies outside 100-599.
func NewPolicy(opt ...PolicyOption) (*Policy, error) {
	var opts PolicyOptions
	opts.Apply(opt)

	switch {
	case opts.MaxAttempts < 1:
		return nil, &ConfigurationError{
			Name:    "MaxAttempts",
			Value:   opts.MaxAttempts,
			message: "max attempts must be at least 1",
		}
	// Written as a negation so that NaN is rejected too.
	case !(opts.ExponentBase > 1):
		return nil, &ConfigurationError{
			Name:    "ExponentBase",
			Value:   opts.ExponentBase,
			message: "exponent base must be greater than 1",
		}
	case opts.InitialDelay < 0:
		return nil, &ConfigurationError{
			Name:    "InitialDelay",
			Value:   opts.InitialDelay,
			message: "initial delay must not be negative",
		}
	case opts.MaxDelay < 0:
		return nil, &ConfigurationError{
			Name:    "MaxDelay",
			Value:   opts.MaxDelay,
			message: "max delay must not be negative",
		}
	}

	codes := make(map[int]struct{}, len(opts.RetryableStatusCodes))
	for _, code := range opts.RetryableStatusCodes {
		if code < 100 || code > 599 {
			return nil, &ConfigurationError{
				Name:    "RetryableStatusCodes",
				Value:   code,
				message: "status codes must be between 100 and 599",
			}
		}
		codes[code] = struct{}{}
	}

	return &Policy{
		maxAttempts:  opts.MaxAttempts,
		exponentBase: opts.ExponentBase,
		initialDelay: opts.InitialDelay,
		maxDelay:     opts.MaxDelay,
		codes:        codes,
	}, nil
}

// ShouldRetry reports whether another attempt should follow the given failed
// attempt (counted from 1) that reported statusCode.
func (p *Policy) ShouldRetry(attempt, statusCode int) bool {
	return attempt >= 1 && attempt < p.maxAttempts && p.IsRetryable(statusCode)
}

// IsRetryable reports whether statusCode is in the retryable set, regardless
// of attempts.
func (p *Policy) IsRetryable(statusCode int) bool {
	_, ok := p.codes[statusCode]
	return ok
}

// DelayBeforeAttempt returns how long to wait before starting the given
// attempt. No delay precedes the first attempt, so any attempt below 2 yields
// zero. Results saturate at MaxDelay (if set) or at the largest
// representable duration.
func (p *Policy) DelayBeforeAttempt(attempt int) time.Duration {
	if attempt < 2 || p.initialDelay == 0 {
		return 0
	}

	limit := time.Duration(math.MaxInt64)
	if p.maxDelay > 0 {
		limit = p.maxDelay
	}

	d := float64(p.initialDelay) *
		math.Pow(p.exponentBase, float64(attempt-2))
	if d >= float64(limit) {
		return limit
	}
	return time.Duration(d)
}

// MaxAttempts returns the total number of attempts, including the first.
func (p *Policy) MaxAttempts() int {
	return p.maxAttempts
}

// ExponentBase returns the growth factor of the delay.
func (p *Policy) ExponentBase() float64 {
	return p.exponentBase
}

// InitialDelay returns the delay before the second attempt.
func (p *Policy) InitialDelay() time.Duration {
	return p.initialDelay
}

// MaxDelay returns the delay cap, or zero if uncapped.
func (p *Policy) MaxDelay() time.Duration {
	return p.maxDelay
}

// RetryableStatusCodes returns the retryable status codes in ascending order.
func (p *Policy) RetryableStatusCodes() []int {
	codes := make([]int, 0, len(p.codes))
	for code := range p.codes {
		codes = append(codes, code)
	}
	slices.Sort(codes)
	return codes
}

// Attrs returns the policy as slog attributes.
func (p *Policy) Attrs() []slog.Attr {
	a := []slog.Attr{
		slog.Int("max_attempts", p.maxAttempts),
		slog.Float64("exponent_base", p.exponentBase),
		slog.Duration("initial_delay", p.initialDelay),
		slog.Any("retryable_status_codes", p.RetryableStatusCodes()),
	}
	if p.maxDelay > 0 {
		a = append(a, slog.Duration("max_delay", p.maxDelay))
	}
	return a
}

// Apply resolves the provided list of options.
func (o *PolicyOptions) Apply(
	opts []PolicyOption,
	rest ...PolicyOption,
) {
	for opt := range options.Apply[PolicyOption](opts, rest...) {
		opt.policy(o)
	}
}

func (o *PolicyOptions) policy(opt *PolicyOptions) {
	if o != nil {
		*opt = *o
	}
}

func (o WithMaxAttempts) policy(opt *PolicyOptions) {
	opt.MaxAttempts = int(o)
}

func (o WithExponentBase) policy(opt *PolicyOptions) {
	opt.ExponentBase = float64(o)
}

func (o WithInitialDelay) policy(opt *PolicyOptions) {
	opt.InitialDelay = time.Duration(o)
}

func (o WithMaxDelay) policy(opt *PolicyOptions) {
	opt.MaxDelay = time.Duration(o)
}

func (o WithRetryableStatusCodes) policy(opt *PolicyOptions) {
	opt.RetryableStatusCodes = slices.Clone(o)
}
