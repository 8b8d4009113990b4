// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package githubagent

import (
	"context"
	"log/slog"

	"github.com/2kartheek10-droid/githubagent/agent"
	"github.com/2kartheek10-droid/githubagent/config"
	"github.com/2kartheek10-droid/githubagent/gemini"
	"github.com/2kartheek10-droid/githubagent/internal/options"
	"github.com/2kartheek10-droid/githubagent/retry"
	"github.com/2kartheek10-droid/githubagent/toolset"
	"github.com/prometheus/client_golang/prometheus"
)

// Identity of the GitHub agent.
const (
	Name        = "github_agent"
	Description = "Analyzes GitHub issues and pull requests using the GitHub MCP."
	Instruction = "Use the GitHub MCP tools to analyze issues and pull " +
		"requests. Summarize PRs, list or describe issues, and answer " +
		"questions about repo activity. You have read-only access to " +
		"issues, pull_requests, and repos toolsets."

	// ToolsetName names the GitHub MCP toolset in logs and metrics.
	ToolsetName = "github_mcp"
)

type (
	// Agent is the assembled GitHub agent together with the parts callers
	// may need to manage directly.
	Agent struct {
		*agent.Agent
		Toolset *toolset.Toolset
		Policy  *retry.Policy
	}

	// Option represents a single assembly option.
	Option interface{ assemble(*Options) }

	// Options are the resolved assembly options.
	Options struct {
		Logger     *slog.Logger
		Registerer prometheus.Registerer
		Generator  gemini.Generator
		Dialer     toolset.Dialer
	}

	// This option is not used directly; see WithLogger below.
	withLogger struct{ *slog.Logger }

	// This option is not used directly; see WithRegisterer below.
	withRegisterer struct{ prometheus.Registerer }

	// This option is not used directly; see WithGenerator below.
	withGenerator struct{ gemini.Generator }

	// This option is not used directly; see WithDialer below.
	withDialer struct{ toolset.Dialer }
)

// New assembles the GitHub agent from cfg. Model calls and tool calls share
// one retry caller and therefore one policy. Nothing is connected yet; call
// Toolset.Connect before the first run to fail fast on bad credentials.
func New(
	ctx context.Context,
	cfg *config.Config,
	opt ...Option,
) (*Agent, error) {
	var opts Options
	opts.Apply(opt)

	policy, err := retry.NewPolicy(cfg.Retry.PolicyOptions())
	if err != nil {
		return nil, err
	}

	callerOpts := []retry.CallerOption{retry.WithLogger(opts.Logger)}
	if opts.Registerer != nil {
		metrics, err := retry.NewMetrics(opts.Registerer)
		if err != nil {
			return nil, err
		}
		callerOpts = append(callerOpts, retry.WithMetrics(metrics))
	}

	caller, err := retry.NewCaller(policy, callerOpts...)
	if err != nil {
		return nil, err
	}

	params, err := toolset.NewStreamableHTTPParams(
		cfg.MCP.URL,
		toolset.WithBearerToken(cfg.GitHubToken),
		toolset.WithToolsets(cfg.MCP.Toolsets),
		toolset.WithReadOnly(cfg.MCP.ReadOnly),
		toolset.WithHTTPTimeout(cfg.MCP.Timeout.Std()),
	)
	if err != nil {
		return nil, err
	}

	tsOpts := []toolset.Option{
		toolset.WithRateLimit(cfg.MCP.RateLimit),
		toolset.WithRateBurst(cfg.MCP.RateBurst),
		toolset.WithLogger(opts.Logger),
	}
	if opts.Dialer != nil {
		tsOpts = append(tsOpts, toolset.WithDialer(opts.Dialer))
	}

	ts, err := toolset.New(ToolsetName, params, caller, tsOpts...)
	if err != nil {
		return nil, err
	}

	gen := opts.Generator
	if gen == nil {
		gen, err = gemini.NewGenerator(ctx, cfg.GoogleAPIKey, nil)
		if err != nil {
			return nil, err
		}
	}

	model, err := gemini.New(cfg.Model, gen, caller)
	if err != nil {
		return nil, err
	}

	instruction := Instruction
	if cfg.Agent.Instruction != "" {
		instruction = cfg.Agent.Instruction
	}

	a, err := agent.New(Name, model,
		agent.WithDescription(Description),
		agent.WithInstruction(instruction),
		agent.WithMaxTurns(cfg.Agent.MaxTurns),
		agent.WithTools(ts),
		agent.WithLogger(opts.Logger),
	)
	if err != nil {
		return nil, err
	}

	return &Agent{Agent: a, Toolset: ts, Policy: policy}, nil
}

// Apply resolves the provided list of options.
func (o *Options) Apply(
	opts []Option,
	rest ...Option,
) {
	for opt := range options.Apply[Option](opts, rest...) {
		opt.assemble(o)
	}
}

func (o *Options) assemble(opt *Options) {
	if o != nil {
		*opt = *o
	}
}

// WithLogger enables logging with the provided slog logger.
func WithLogger(logger *slog.Logger) Option {
	return withLogger{logger}
}

func (o withLogger) assemble(opt *Options) {
	opt.Logger = o.Logger
}

// WithRegisterer registers retry metrics with the given registerer.
func WithRegisterer(reg prometheus.Registerer) Option {
	return withRegisterer{reg}
}

func (o withRegisterer) assemble(opt *Options) {
	opt.Registerer = o.Registerer
}

// WithGenerator replaces the Gemini API client.
func WithGenerator(gen gemini.Generator) Option {
	return withGenerator{gen}
}

func (o withGenerator) assemble(opt *Options) {
	opt.Generator = o.Generator
}

// WithDialer replaces how MCP sessions are established.
func WithDialer(dial toolset.Dialer) Option {
	return withDialer{dial}
}

func (o withDialer) assemble(opt *Options) {
	opt.Dialer = o.Dialer
}
