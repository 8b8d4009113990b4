// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package retry

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// policyBackOff replays a Policy's delay curve through the cenkalti/backoff
// interface. It is stateful and must not be shared between retry loops.
type policyBackOff struct {
	policy  *Policy
	attempt int
}

// BackOff returns a fresh backoff.BackOff that yields the same delays as
// DelayBeforeAttempt and stops once MaxAttempts attempts have been made. It
// ignores status codes; callers using it decide eligibility themselves (e.g.
// with backoff.Permanent).
func (p *Policy) BackOff() backoff.BackOff {
	return &policyBackOff{policy: p, attempt: 1}
}

// NextBackOff returns the delay before the next attempt, or backoff.Stop.
func (b *policyBackOff) NextBackOff() time.Duration {
	if b.attempt >= b.policy.maxAttempts {
		return backoff.Stop
	}
	b.attempt++
	return b.policy.DelayBeforeAttempt(b.attempt)
}

// Reset restarts the curve from the first attempt.
func (b *policyBackOff) Reset() {
	b.attempt = 1
}
