// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package retry_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/2kartheek10-droid/githubagent/retry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetricsAndLogging(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := retry.NewMetrics(reg)
	require.NoError(t, err)

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	p := newPolicy(t,
		retry.WithMaxAttempts(2),
		retry.WithExponentBase(2),
		retry.WithInitialDelay(time.Second),
		retry.WithRetryableStatusCodes{429},
	)
	c, err := retry.NewCaller(p,
		retry.WithClock(&fakeClock{}),
		retry.WithMetrics(metrics),
		retry.WithLogger(logger),
	)
	require.NoError(t, err)

	_, err = retry.Invoke(context.Background(), c, "list_issues",
		func(context.Context, int) retry.Outcome[int] {
			return retry.RetryableFailure[int](429, nil)
		})
	require.Error(t, err)

	_, err = retry.Invoke(context.Background(), c, "list_issues",
		func(context.Context, int) retry.Outcome[int] {
			return retry.Success(1)
		})
	require.NoError(t, err)

	expected := `
# HELP githubagent_retry_invocations_total Completed invocations, per operation and outcome.
# TYPE githubagent_retry_invocations_total counter
githubagent_retry_invocations_total{operation="list_issues",outcome="exhausted"} 1
githubagent_retry_invocations_total{operation="list_issues",outcome="succeeded"} 1
`
	require.NoError(t, testutil.GatherAndCompare(
		reg,
		bytes.NewBufferString(expected),
		"githubagent_retry_invocations_total",
	))

	expected = `
# HELP githubagent_retry_attempts_total Attempts started, per operation.
# TYPE githubagent_retry_attempts_total counter
githubagent_retry_attempts_total{operation="list_issues"} 3
`
	require.NoError(t, testutil.GatherAndCompare(
		reg,
		bytes.NewBufferString(expected),
		"githubagent_retry_attempts_total",
	))

	out := buf.String()
	require.Contains(t, out, "msg=retrying")
	require.Contains(t, out, "status_code=429")
	require.Contains(t, out, "delay=1s")
	require.Contains(t, out, "operation=list_issues")
	require.Contains(t, out, "invocation=")
}

func TestNewMetricsRejectsDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := retry.NewMetrics(reg)
	require.NoError(t, err)

	_, err = retry.NewMetrics(reg)
	require.Error(t, err)
}
