// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package retry

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records retry activity as Prometheus metrics. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	attempts *prometheus.CounterVec
	retries  *prometheus.CounterVec
	outcomes *prometheus.CounterVec
	delays   *prometheus.HistogramVec
	duration *prometheus.HistogramVec
}

// Outcome label values.
const (
	outcomeSucceeded = "succeeded"
	outcomeTerminal  = "terminal"
	outcomeExhausted = "exhausted"
	outcomeCancelled = "cancelled"
)

// NewMetrics creates the retry metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "githubagent",
			Subsystem: "retry",
			Name:      "attempts_total",
			Help:      "Attempts started, per operation.",
		}, []string{"operation"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "githubagent",
			Subsystem: "retry",
			Name:      "retries_total",
			Help:      "Retries scheduled, per operation and status code.",
		}, []string{"operation", "status_code"}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "githubagent",
			Subsystem: "retry",
			Name:      "invocations_total",
			Help:      "Completed invocations, per operation and outcome.",
		}, []string{"operation", "outcome"}),
		delays: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "githubagent",
			Subsystem: "retry",
			Name:      "delay_seconds",
			Help:      "Backoff delays scheduled between attempts.",
			Buckets:   prometheus.ExponentialBuckets(0.125, 2, 12),
		}, []string{"operation"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "githubagent",
			Subsystem: "retry",
			Name:      "invocation_duration_seconds",
			Help:      "Wall time of whole invocations, including waits.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}

	for _, c := range []prometheus.Collector{
		m.attempts,
		m.retries,
		m.outcomes,
		m.delays,
		m.duration,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) attempt(operation string) {
	if m == nil {
		return
	}
	m.attempts.WithLabelValues(operation).Inc()
}

func (m *Metrics) retry(
	operation string,
	statusCode int,
	delay time.Duration,
) {
	if m == nil {
		return
	}
	m.retries.WithLabelValues(operation, strconv.Itoa(statusCode)).Inc()
	m.delays.WithLabelValues(operation).Observe(delay.Seconds())
}

func (m *Metrics) complete(
	operation string,
	err error,
	elapsed time.Duration,
) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(operation, outcomeLabel(err)).Inc()
	m.duration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

func outcomeLabel(err error) string {
	var (
		exhausted *ExhaustedError
		cancelled *CancellationError
	)
	switch {
	case err == nil:
		return outcomeSucceeded
	case errors.As(err, &exhausted):
		return outcomeExhausted
	case errors.As(err, &cancelled):
		return outcomeCancelled
	default:
		return outcomeTerminal
	}
}
