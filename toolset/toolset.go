// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package toolset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/2kartheek10-droid/githubagent/agent"
	"github.com/2kartheek10-droid/githubagent/internal/log"
	"github.com/2kartheek10-droid/githubagent/internal/options"
	"github.com/2kartheek10-droid/githubagent/retry"
	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

type (
	// Toolset exposes the tools of one MCP server to an agent. Every request
	// runs through the retry caller, after the rate limiter and inside the
	// circuit breaker. A session that fails with an HTTP error status is
	// dropped and redialed on the next attempt.
	Toolset struct {
		name    string
		params  TransportParams
		caller  *retry.Caller
		client  *http.Client
		dial    Dialer
		limiter *rate.Limiter
		breaker *gobreaker.CircuitBreaker
		filter  map[string]struct{}
		logger  logger

		mu      sync.Mutex
		session Session
	}

	// Option represents a single toolset option.
	Option interface{ toolset(*Options) }

	// Options are the resolved toolset options.
	Options struct {
		// RateLimit is the sustained requests per second; zero disables
		// limiting.
		RateLimit float64
		RateBurst int

		// BreakerThreshold is the number of consecutive transport failures
		// that opens the circuit; zero disables the breaker.
		BreakerThreshold uint32
		BreakerTimeout   time.Duration

		ToolFilter []string
		Dialer     Dialer
		Transport  http.RoundTripper
		Logger     *slog.Logger
	}

	// WithRateLimit sets the sustained requests per second.
	WithRateLimit float64

	// WithRateBurst sets the number of requests allowed in a burst.
	WithRateBurst int

	// WithBreakerThreshold sets the consecutive transport failures that open
	// the circuit.
	WithBreakerThreshold uint32

	// WithBreakerTimeout sets how long the circuit stays open.
	WithBreakerTimeout time.Duration

	// WithToolFilter exposes only the named tools.
	WithToolFilter []string

	// This option is not used directly; see WithDialer below.
	withDialer struct{ Dialer }

	// This option is not used directly; see WithTransport below.
	withTransport struct{ http.RoundTripper }

	// This option is not used directly; see WithLogger below.
	withLogger struct{ *slog.Logger }

	toolPage struct {
		tools []agent.Tool
		next  string
	}
)

// Circuit breaker defaults.
const (
	DefaultBreakerThreshold = 5
	DefaultBreakerTimeout   = 30 * time.Second
)

// New creates a toolset named name for the server described by params. It
// does not connect; see Connect.
func New(
	name string,
	params TransportParams,
	caller *retry.Caller,
	opt ...Option,
) (*Toolset, error) {
	opts := Options{
		BreakerThreshold: DefaultBreakerThreshold,
		BreakerTimeout:   DefaultBreakerTimeout,
		Dialer:           DialStreamableHTTP,
	}
	opts.Apply(opt)

	switch {
	case name == "":
		return nil, &ConfigurationError{
			Name:    "name",
			message: "name must not be empty",
		}
	case params == nil:
		return nil, &ConfigurationError{
			Name:    "params",
			message: "transport parameters must not be nil",
		}
	case caller == nil:
		return nil, &ConfigurationError{
			Name:    "caller",
			message: "caller must not be nil",
		}
	case opts.Dialer == nil:
		return nil, &ConfigurationError{
			Name:    "Dialer",
			message: "dialer must not be nil",
		}
	case opts.RateLimit < 0:
		return nil, &ConfigurationError{
			Name:    "RateLimit",
			Value:   opts.RateLimit,
			message: "rate limit must not be negative",
		}
	case opts.RateBurst < 0:
		return nil, &ConfigurationError{
			Name:    "RateBurst",
			Value:   opts.RateBurst,
			message: "rate burst must not be negative",
		}
	case opts.BreakerTimeout < 0:
		return nil, &ConfigurationError{
			Name:    "BreakerTimeout",
			Value:   opts.BreakerTimeout,
			message: "breaker timeout must not be negative",
		}
	}

	t := &Toolset{
		name:   name,
		params: params,
		caller: caller,
		client: NewHTTPClient(params, opts.Transport),
		dial:   opts.Dialer,
		logger: logger{log.Wrap(opts.Logger).With(
			slog.String("toolset", name),
		)},
	}

	if opts.RateLimit > 0 {
		t.limiter = rate.NewLimiter(
			rate.Limit(opts.RateLimit),
			max(opts.RateBurst, 1),
		)
	}

	if opts.BreakerThreshold > 0 {
		threshold := opts.BreakerThreshold
		t.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Timeout:     opts.BreakerTimeout,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= threshold
			},
			// Only the server's health trips the breaker; tool and protocol
			// errors do not.
			IsSuccessful: func(err error) bool {
				var te *TransportError
				return !errors.As(err, &te)
			},
			OnStateChange: func(_ string, from, to gobreaker.State) {
				t.logger.breaker(context.Background(), from, to)
			},
		})
	}

	if len(opts.ToolFilter) > 0 {
		t.filter = make(map[string]struct{}, len(opts.ToolFilter))
		for _, tool := range opts.ToolFilter {
			t.filter[tool] = struct{}{}
		}
	}

	return t, nil
}

// Name returns the toolset's name.
func (t *Toolset) Name() string {
	return t.name
}

// Params returns the transport parameters of the toolset.
func (t *Toolset) Params() TransportParams {
	return t.params
}

// Connect establishes the session, retrying with the caller policy's backoff
// curve. Statuses the policy does not retry, such as 401, fail immediately.
// Connecting an already connected toolset does nothing.
func (t *Toolset) Connect(ctx context.Context) error {
	policy := t.caller.Policy()

	_, err := backoff.RetryNotifyWithData(
		func() (Session, error) {
			ctx, rec := withStatusRecorder(ctx)
			s, err := t.current(ctx)
			if err == nil {
				return s, nil
			}
			if ctx.Err() != nil {
				return nil, backoff.Permanent(err)
			}
			if code := rec.StatusCode(); code > 0 {
				err = &TransportError{Code: code, wrapped: err}
				if !policy.IsRetryable(code) {
					return nil, backoff.Permanent(err)
				}
			}
			return nil, err
		},
		backoff.WithContext(policy.BackOff(), ctx),
		func(err error, delay time.Duration) {
			t.logger.reconnect(ctx, err, delay)
		},
	)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", t.params.URL(), err)
	}

	t.logger.connected(ctx, t.params)
	return nil
}

// ListTools returns the server's tools, following pagination and applying
// the tool filter.
func (t *Toolset) ListTools(ctx context.Context) ([]agent.Tool, error) {
	var tools []agent.Tool
	var cursor string

	for {
		page, err := call(ctx, t, "list_tools",
			func(ctx context.Context, s Session) (toolPage, error) {
				tools, next, err := s.ListTools(ctx, cursor)
				return toolPage{tools, next}, err
			},
		)
		if err != nil {
			return nil, err
		}

		for _, tool := range page.tools {
			if t.exposes(tool.Name) {
				tools = append(tools, tool)
			}
		}

		if page.next == "" {
			return tools, nil
		}
		cursor = page.next
	}
}

// CallTool invokes a tool on the server. A tool outside the filter is never
// sent to the server.
func (t *Toolset) CallTool(
	ctx context.Context,
	name string,
	args map[string]any,
) (*agent.ToolResult, error) {
	if !t.exposes(name) {
		return nil, fmt.Errorf("tool %q is not exposed by %s", name, t.name)
	}

	return call(ctx, t, "call_tool",
		func(ctx context.Context, s Session) (*agent.ToolResult, error) {
			return s.CallTool(ctx, name, args)
		},
	)
}

// Close closes the session, if any.
func (t *Toolset) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.session == nil {
		return nil
	}
	err := t.session.Close()
	t.session = nil
	return err
}

// Run one request as a retried invocation. Each attempt waits for the rate
// limiter, then runs inside the breaker with its own status recorder.
func call[T any](
	ctx context.Context,
	t *Toolset,
	op string,
	fn func(ctx context.Context, s Session) (T, error),
) (T, error) {
	return retry.Invoke(ctx, t.caller, t.name+"."+op,
		func(ctx context.Context, _ int) retry.Outcome[T] {
			if err := t.wait(ctx); err != nil {
				return retry.TerminalFailure[T](err)
			}

			ctx, rec := withStatusRecorder(ctx)
			res, err := t.execute(func() (any, error) {
				s, err := t.current(ctx)
				if err != nil {
					return nil, t.failure(ctx, rec, nil, err)
				}
				v, err := fn(ctx, s)
				if err != nil {
					return nil, t.failure(ctx, rec, s, err)
				}
				return v, nil
			})
			if err != nil {
				return outcome[T](err)
			}

			v, _ := res.(T)
			return retry.Success(v)
		},
	)
}

func outcome[T any](err error) retry.Outcome[T] {
	if errors.Is(err, gobreaker.ErrOpenState) ||
		errors.Is(err, gobreaker.ErrTooManyRequests) {
		return retry.RetryableFailure[T](http.StatusServiceUnavailable, err)
	}
	var zero T
	return retry.Classify(zero, err)
}

func (t *Toolset) execute(fn func() (any, error)) (any, error) {
	if t.breaker == nil {
		return fn()
	}
	return t.breaker.Execute(fn)
}

func (t *Toolset) wait(ctx context.Context) error {
	if t.limiter == nil {
		return nil
	}
	if err := t.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %w", ctx.Err(), err)
		}
		return err
	}
	return nil
}

// Classify a failed request. An HTTP error status drops the session so the
// next attempt redials.
func (t *Toolset) failure(
	ctx context.Context,
	rec *statusRecorder,
	s Session,
	err error,
) error {
	if ctx.Err() != nil {
		return fmt.Errorf("%w: %w", ctx.Err(), err)
	}

	code := rec.StatusCode()
	if code == 0 {
		return err
	}

	if s != nil {
		t.drop(ctx, s)
	}
	return &TransportError{Code: code, wrapped: err}
}

func (t *Toolset) current(ctx context.Context) (Session, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.session != nil {
		return t.session, nil
	}

	s, err := t.dial(ctx, t.params, t.client)
	if err != nil {
		return nil, err
	}
	t.session = s
	return s, nil
}

func (t *Toolset) drop(ctx context.Context, s Session) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.session != s {
		return
	}
	t.session = nil
	if err := s.Close(); err != nil {
		t.logger.closeFailed(ctx, err)
	}
}

func (t *Toolset) exposes(name string) bool {
	if t.filter == nil {
		return true
	}
	_, ok := t.filter[name]
	return ok
}

// Apply resolves the provided list of options.
func (o *Options) Apply(
	opts []Option,
	rest ...Option,
) {
	for opt := range options.Apply[Option](opts, rest...) {
		opt.toolset(o)
	}
}

func (o *Options) toolset(opt *Options) {
	if o != nil {
		*opt = *o
	}
}

func (o WithRateLimit) toolset(opt *Options) {
	opt.RateLimit = float64(o)
}

func (o WithRateBurst) toolset(opt *Options) {
	opt.RateBurst = int(o)
}

func (o WithBreakerThreshold) toolset(opt *Options) {
	opt.BreakerThreshold = uint32(o)
}

func (o WithBreakerTimeout) toolset(opt *Options) {
	opt.BreakerTimeout = time.Duration(o)
}

func (o WithToolFilter) toolset(opt *Options) {
	opt.ToolFilter = slices.Clone(o)
}

// WithDialer overrides how sessions are established.
func WithDialer(dial Dialer) Option {
	return withDialer{dial}
}

func (o withDialer) toolset(opt *Options) {
	opt.Dialer = o.Dialer
}

// WithTransport sets the base HTTP transport under the header-injecting one.
func WithTransport(rt http.RoundTripper) Option {
	return withTransport{rt}
}

func (o withTransport) toolset(opt *Options) {
	opt.Transport = o.RoundTripper
}

// WithLogger enables logging with the provided slog logger.
func WithLogger(logger *slog.Logger) Option {
	return withLogger{logger}
}

func (o withLogger) toolset(opt *Options) {
	opt.Logger = o.Logger
}
