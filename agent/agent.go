// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"slices"

	"github.com/2kartheek10-droid/githubagent/internal/log"
	"github.com/2kartheek10-droid/githubagent/internal/options"
)

type (
	// Agent pairs a model and an instruction with the tools it may use. It
	// holds no conversation state; every Run starts a new conversation.
	Agent struct {
		name        string
		description string
		instruction string
		model       Model
		tools       []ToolConnection
		maxTurns    int
		logger      logger
	}

	// Option represents a single agent option.
	Option interface{ agent(*Options) }

	// Options are the resolved agent options.
	Options struct {
		Description string
		Instruction string
		Tools       []ToolConnection
		MaxTurns    int
		Logger      *slog.Logger
	}

	// WithDescription sets a one-line description of what the agent does.
	WithDescription string

	// WithInstruction sets the system instruction given to the model.
	WithInstruction string

	// WithMaxTurns bounds the model round trips for one prompt.
	WithMaxTurns int

	// This option is not used directly; see WithTools below.
	withTools []ToolConnection

	// This option is not used directly; see WithLogger below.
	withLogger struct{ *slog.Logger }
)

// DefaultMaxTurns is used when WithMaxTurns is not provided.
const DefaultMaxTurns = 8

var namePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// New creates an agent with the given name and model. The name must be a
// valid identifier other than "user".
func New(name string, model Model, opt ...Option) (*Agent, error) {
	opts := Options{MaxTurns: DefaultMaxTurns}
	opts.Apply(opt)

	if !namePattern.MatchString(name) || name == string(RoleUser) {
		return nil, &ValidationError{
			Name:    "name",
			Value:   name,
			message: "name must be an identifier other than \"user\"",
		}
	}

	if model == nil {
		return nil, &ValidationError{
			Name:    "model",
			message: "model must not be nil",
		}
	}

	if opts.MaxTurns < 1 {
		return nil, &ValidationError{
			Name:    "MaxTurns",
			Value:   opts.MaxTurns,
			message: "max turns must be at least 1",
		}
	}

	seen := make(map[string]struct{}, len(opts.Tools))
	for _, t := range opts.Tools {
		if t == nil {
			return nil, &ValidationError{
				Name:    "Tools",
				message: "tool connection must not be nil",
			}
		}
		if _, ok := seen[t.Name()]; ok {
			return nil, &ValidationError{
				Name:    "Tools",
				Value:   t.Name(),
				message: "tool connection names must be unique",
			}
		}
		seen[t.Name()] = struct{}{}
	}

	return &Agent{
		name:        name,
		description: opts.Description,
		instruction: opts.Instruction,
		model:       model,
		tools:       slices.Clone(opts.Tools),
		maxTurns:    opts.MaxTurns,
		logger: logger{log.Wrap(opts.Logger).With(
			slog.String("agent", name),
		)},
	}, nil
}

// Name returns the agent's name.
func (a *Agent) Name() string { return a.name }

// Description returns the agent's description.
func (a *Agent) Description() string { return a.description }

// Instruction returns the system instruction given to the model.
func (a *Agent) Instruction() string { return a.instruction }

// Model returns the agent's model.
func (a *Agent) Model() Model { return a.model }

// ListTools returns the tools of every connection, in connection order.
func (a *Agent) ListTools(ctx context.Context) ([]Tool, error) {
	tools, _, err := a.resolveTools(ctx)
	return tools, err
}

// Run answers a single prompt, calling tools on the model's behalf until the
// model produces a final answer or the turn limit is reached.
//
// A tool call that fails is reported back to the model as an error result so
// that it can recover; cancellation of ctx aborts the run.
func (a *Agent) Run(ctx context.Context, prompt string) (string, error) {
	tools, owners, err := a.resolveTools(ctx)
	if err != nil {
		return "", err
	}

	req := &Request{
		Instruction: a.instruction,
		Messages:    []Message{{Role: RoleUser, Text: prompt}},
		Tools:       tools,
	}

	for turn := 1; turn <= a.maxTurns; turn++ {
		res, err := a.model.Generate(ctx, req)
		if err != nil {
			return "", err
		}

		req.Messages = append(req.Messages, Message{
			Role:      RoleModel,
			Text:      res.Text,
			ToolCalls: res.ToolCalls,
		})

		if len(res.ToolCalls) == 0 {
			a.logger.answer(ctx, turn)
			return res.Text, nil
		}

		responses := make([]ToolResponse, 0, len(res.ToolCalls))
		for _, call := range res.ToolCalls {
			result, err := a.callTool(ctx, owners, call)
			if err != nil {
				return "", err
			}
			responses = append(responses, ToolResponse{
				ID:     call.ID,
				Name:   call.Name,
				Result: result,
			})
		}

		req.Messages = append(req.Messages, Message{
			Role:          RoleUser,
			ToolResponses: responses,
		})
	}

	return "", &TurnLimitError{Agent: a.name, Turns: a.maxTurns}
}

// Close closes every tool connection.
func (a *Agent) Close() error {
	var errs []error
	for _, t := range a.tools {
		if err := t.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing %s: %w", t.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func (a *Agent) resolveTools(
	ctx context.Context,
) ([]Tool, map[string]ToolConnection, error) {
	var tools []Tool
	owners := make(map[string]ToolConnection)

	for _, conn := range a.tools {
		listed, err := conn.ListTools(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf(
				"listing tools of %s: %w",
				conn.Name(),
				err,
			)
		}
		for _, t := range listed {
			if _, ok := owners[t.Name]; ok {
				return nil, nil, fmt.Errorf(
					"tool %q of %s is already provided",
					t.Name,
					conn.Name(),
				)
			}
			owners[t.Name] = conn
			tools = append(tools, t)
		}
	}
	return tools, owners, nil
}

func (a *Agent) callTool(
	ctx context.Context,
	owners map[string]ToolConnection,
	call ToolCall,
) (ToolResult, error) {
	conn, ok := owners[call.Name]
	if !ok {
		a.logger.unknownTool(ctx, call.Name)
		return ToolResult{
			Content: fmt.Sprintf("tool %q is not available", call.Name),
			IsError: true,
		}, nil
	}

	a.logger.toolCall(ctx, conn.Name(), call.Name)
	res, err := conn.CallTool(ctx, call.Name, call.Args)
	switch {
	case err == nil && res != nil:
		return *res, nil
	case err == nil:
		return ToolResult{}, nil
	case ctx.Err() != nil:
		return ToolResult{}, err
	default:
		a.logger.toolFailed(ctx, call.Name, err)
		return ToolResult{Content: err.Error(), IsError: true}, nil
	}
}

// Apply resolves the provided list of options.
func (o *Options) Apply(
	opts []Option,
	rest ...Option,
) {
	for opt := range options.Apply[Option](opts, rest...) {
		opt.agent(o)
	}
}

func (o *Options) agent(opt *Options) {
	if o != nil {
		*opt = *o
	}
}

func (o WithDescription) agent(opt *Options) {
	opt.Description = string(o)
}

func (o WithInstruction) agent(opt *Options) {
	opt.Instruction = string(o)
}

func (o WithMaxTurns) agent(opt *Options) {
	opt.MaxTurns = int(o)
}

// WithTools adds tool connections to the agent.
func WithTools(tools ...ToolConnection) Option {
	return withTools(tools)
}

func (o withTools) agent(opt *Options) {
	opt.Tools = append(opt.Tools, o...)
}

// WithLogger enables logging with the provided slog logger.
func WithLogger(logger *slog.Logger) Option {
	return withLogger{logger}
}

func (o withLogger) agent(opt *Options) {
	opt.Logger = o.Logger
}
