// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package retry_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/2kartheek10-droid/githubagent/retry"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type Mock struct {
	mock.Mock
}

var errUnauthorized = errors.New("bad credentials")

// Mocked operation; returns whatever outcome is registered for the attempt.
func (m *Mock) Op(_ context.Context, attempt int) retry.Outcome[string] {
	args := m.Called(attempt)
	return args.Get(0).(retry.Outcome[string])
}

// Policy used by the end-to-end scenarios.
func scenarioCaller(t *testing.T, clock *fakeClock) *retry.Caller {
	t.Helper()
	p := newPolicy(t,
		retry.WithMaxAttempts(3),
		retry.WithExponentBase(2),
		retry.WithInitialDelay(time.Second),
		retry.WithRetryableStatusCodes{500},
	)
	c, err := retry.NewCaller(p, retry.WithClock(clock))
	require.NoError(t, err)
	return c
}

func TestNewCallerRequiresPolicy(t *testing.T) {
	c, err := retry.NewCaller(nil)
	require.Nil(t, c)

	var cfgErr *retry.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
}

func TestNewCallerRejectsNegativeTimeout(t *testing.T) {
	c, err := retry.NewCaller(geminiPolicy(t), retry.WithTimeout(-1))
	require.Nil(t, c)

	var cfgErr *retry.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	require.Equal(t, "Timeout", cfgErr.Name)
}

func TestNoRetry(t *testing.T) {
	m := new(Mock)
	m.On("Op", 1).Return(retry.Success("done"))

	clock := &fakeClock{}
	res, err := retry.Invoke(
		context.Background(),
		scenarioCaller(t, clock),
		"TestNoRetry",
		m.Op,
	)

	require.NoError(t, err)
	require.Equal(t, "done", res)
	require.Empty(t, clock.Delays())
	m.AssertNumberOfCalls(t, "Op", 1)
}

func TestRetryUntilSuccess(t *testing.T) {
	m := new(Mock)
	m.On("Op", 1).Return(retry.RetryableFailure[string](500, nil))
	m.On("Op", 2).Return(retry.RetryableFailure[string](500, nil))
	m.On("Op", 3).Return(retry.Success("ok"))

	clock := &fakeClock{}
	res, err := retry.Invoke(
		context.Background(),
		scenarioCaller(t, clock),
		"TestRetryUntilSuccess",
		m.Op,
	)

	require.NoError(t, err)
	require.Equal(t, "ok", res)
	require.Equal(t, []time.Duration{time.Second, 2 * time.Second},
		clock.Delays())
	m.AssertNumberOfCalls(t, "Op", 3)
}

func TestMaxAttempts(t *testing.T) {
	m := new(Mock)
	m.On("Op", mock.Anything).Return(retry.RetryableFailure[string](500, nil))

	clock := &fakeClock{}
	res, err := retry.Invoke(
		context.Background(),
		scenarioCaller(t, clock),
		"TestMaxAttempts",
		m.Op,
	)

	require.Empty(t, res)
	var exhausted *retry.ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	require.Equal(t, 500, exhausted.StatusCode)
	require.Equal(t, 3, exhausted.Attempts)
	require.Equal(t, "TestMaxAttempts", exhausted.Operation)
	require.Equal(t, []time.Duration{time.Second, 2 * time.Second},
		clock.Delays())
	m.AssertNumberOfCalls(t, "Op", 3)
}

func TestNonRetryableStatusCode(t *testing.T) {
	m := new(Mock)
	m.On("Op", 1).Return(retry.RetryableFailure[string](404, nil))

	clock := &fakeClock{}
	_, err := retry.Invoke(
		context.Background(),
		scenarioCaller(t, clock),
		"TestNonRetryableStatusCode",
		m.Op,
	)

	var terminal *retry.TerminalError
	require.ErrorAs(t, err, &terminal)
	require.Equal(t, 404, terminal.StatusCode)
	require.Equal(t, 1, terminal.Attempt)
	require.Empty(t, clock.Delays())
	m.AssertNumberOfCalls(t, "Op", 1)
}

func TestTerminalFailureIsNotRetried(t *testing.T) {
	m := new(Mock)
	m.On("Op", 1).Return(retry.TerminalFailure[string](errUnauthorized))

	clock := &fakeClock{}
	_, err := retry.Invoke(
		context.Background(),
		scenarioCaller(t, clock),
		"TestTerminalFailureIsNotRetried",
		m.Op,
	)

	var terminal *retry.TerminalError
	require.ErrorAs(t, err, &terminal)
	require.ErrorIs(t, err, errUnauthorized)
	require.Zero(t, terminal.StatusCode)
	require.Empty(t, clock.Delays())
	m.AssertNumberOfCalls(t, "Op", 1)
}

func TestUnclassifiedOutcomeIsTerminal(t *testing.T) {
	m := new(Mock)
	m.On("Op", 1).Return(retry.Outcome[string]{})

	_, err := retry.Invoke(
		context.Background(),
		scenarioCaller(t, &fakeClock{}),
		"TestUnclassifiedOutcomeIsTerminal",
		m.Op,
	)

	var terminal *retry.TerminalError
	require.ErrorAs(t, err, &terminal)
	m.AssertNumberOfCalls(t, "Op", 1)
}

func TestCancelDuringDelay(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := new(Mock)
	m.On("Op", 1).Return(retry.RetryableFailure[string](500, nil))

	clock := &fakeClock{onTimer: func(time.Duration) { cancel() }}
	_, err := retry.Invoke(ctx, scenarioCaller(t, clock), "TestCancel", m.Op)

	var cancelled *retry.CancellationError
	require.ErrorAs(t, err, &cancelled)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, cancelled.Attempts)

	var terminal *retry.TerminalError
	require.False(t, errors.As(err, &terminal))
	require.Equal(t, []time.Duration{time.Second}, clock.Delays())
	m.AssertNumberOfCalls(t, "Op", 1)
}

func TestCancelledBeforeFirstAttempt(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := new(Mock)
	_, err := retry.Invoke(
		ctx,
		scenarioCaller(t, &fakeClock{}),
		"TestCancelledBeforeFirstAttempt",
		m.Op,
	)

	var cancelled *retry.CancellationError
	require.ErrorAs(t, err, &cancelled)
	require.Zero(t, cancelled.Attempts)
	m.AssertNotCalled(t, "Op", mock.Anything)
}

func TestOperationObservesCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	op := func(ctx context.Context, _ int) retry.Outcome[string] {
		cancel()
		return retry.TerminalFailure[string](ctx.Err())
	}
	_, err := retry.Invoke(ctx, scenarioCaller(t, &fakeClock{}), "op", op)

	var cancelled *retry.CancellationError
	require.ErrorAs(t, err, &cancelled)
	require.ErrorIs(t, err, context.Canceled)
}

func TestTimeoutDuringDelay(t *testing.T) {
	p := newPolicy(t,
		retry.WithMaxAttempts(3),
		retry.WithExponentBase(2),
		retry.WithInitialDelay(time.Second),
		retry.WithRetryableStatusCodes{503},
	)
	clock := &fakeClock{onTimer: func(time.Duration) {}}
	c, err := retry.NewCaller(p,
		retry.WithClock(clock),
		retry.WithTimeout(10*time.Millisecond),
	)
	require.NoError(t, err)

	m := new(Mock)
	m.On("Op", 1).Return(retry.RetryableFailure[string](503, nil))

	_, err = retry.Invoke(context.Background(), c, "TestTimeout", m.Op)

	var cancelled *retry.CancellationError
	require.ErrorAs(t, err, &cancelled)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Contains(t, err.Error(), "TestTimeout timed out")
	m.AssertNumberOfCalls(t, "Op", 1)
}

func TestZeroDelayRetries(t *testing.T) {
	p := newPolicy(t,
		retry.WithMaxAttempts(4),
		retry.WithExponentBase(3),
		retry.WithRetryableStatusCodes{429},
	)
	c, err := retry.NewCaller(p)
	require.NoError(t, err)

	calls := 0
	res, err := retry.Invoke(context.Background(), c, "zero",
		func(context.Context, int) retry.Outcome[int] {
			calls++
			if calls < 4 {
				return retry.RetryableFailure[int](429, nil)
			}
			return retry.Success(calls)
		})

	require.NoError(t, err)
	require.Equal(t, 4, res)
}

func TestSharedCallerConcurrency(t *testing.T) {
	c := scenarioCaller(t, &fakeClock{})

	const workers = 50
	var wg sync.WaitGroup
	errs := make(chan error, workers)

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := retry.Invoke(context.Background(), c, "concurrent",
				func(_ context.Context, attempt int) retry.Outcome[int] {
					if attempt < 2 {
						return retry.RetryableFailure[int](500, nil)
					}
					return retry.Success(attempt)
				})
			errs <- err
		}()
	}

	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
}

func TestClassify(t *testing.T) {
	out := retry.Classify("v", nil)
	require.Equal(t, retry.OutcomeSuccess, out.Kind)
	require.Equal(t, "v", out.Value)

	statusErr := retry.NewStatusError(503, errors.New("unavailable"))
	out = retry.Classify("", statusErr)
	require.Equal(t, retry.OutcomeRetryable, out.Kind)
	require.Equal(t, 503, out.StatusCode)
	require.ErrorIs(t, out.Err, statusErr)

	out = retry.Classify("", errUnauthorized)
	require.Equal(t, retry.OutcomeTerminal, out.Kind)
	require.ErrorIs(t, out.Err, errUnauthorized)

	out = retry.Classify("", retry.NewStatusError(0, nil))
	require.Equal(t, retry.OutcomeTerminal, out.Kind)
}

func TestErrorMessages(t *testing.T) {
	m := new(Mock)
	m.On("Op", mock.Anything).Return(
		retry.RetryableFailure[string](500, errors.New("internal")),
	)

	_, err := retry.Invoke(
		context.Background(),
		scenarioCaller(t, &fakeClock{}),
		"generate",
		m.Op,
	)

	require.EqualError(t, err,
		"generate failed after 3 attempt(s) with status 500: internal")
}
