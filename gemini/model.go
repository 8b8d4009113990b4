// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package gemini

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/2kartheek10-droid/githubagent/agent"
	"github.com/2kartheek10-droid/githubagent/internal/options"
	"github.com/2kartheek10-droid/githubagent/retry"
	"google.golang.org/genai"
)

type (
	// Generator produces content from a Gemini model. *genai.Models
	// implements it.
	Generator interface {
		GenerateContent(
			ctx context.Context,
			model string,
			contents []*genai.Content,
			config *genai.GenerateContentConfig,
		) (*genai.GenerateContentResponse, error)
	}

	// Model is an agent.Model backed by Gemini. Every request is driven
	// through the retry caller; API errors are retried by status code.
	Model struct {
		name            string
		gen             Generator
		caller          *retry.Caller
		temperature     *float32
		maxOutputTokens int32
	}

	// Option represents a single model option.
	Option interface{ model(*Options) }

	// Options are the resolved model options.
	Options struct {
		Temperature     *float32
		MaxOutputTokens int32
	}

	// WithTemperature sets the sampling temperature.
	WithTemperature float32

	// WithMaxOutputTokens bounds the length of each response.
	WithMaxOutputTokens int32
)

// NewGenerator connects to the Gemini API with the given key. A nil
// httpClient uses the library's default.
func NewGenerator(
	ctx context.Context,
	apiKey string,
	httpClient *http.Client,
) (Generator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	})
	if err != nil {
		return nil, err
	}
	return client.Models, nil
}

// New creates a model that sends requests for the named Gemini model to gen.
func New(
	name string,
	gen Generator,
	caller *retry.Caller,
	opt ...Option,
) (*Model, error) {
	var opts Options
	opts.Apply(opt)

	switch {
	case name == "":
		return nil, &ConfigurationError{
			Name:    "name",
			message: "model name must not be empty",
		}
	case gen == nil:
		return nil, &ConfigurationError{
			Name:    "generator",
			message: "generator must not be nil",
		}
	case caller == nil:
		return nil, &ConfigurationError{
			Name:    "caller",
			message: "caller must not be nil",
		}
	case opts.MaxOutputTokens < 0:
		return nil, &ConfigurationError{
			Name:    "MaxOutputTokens",
			Value:   opts.MaxOutputTokens,
			message: "max output tokens must not be negative",
		}
	}

	return &Model{
		name:            name,
		gen:             gen,
		caller:          caller,
		temperature:     opts.Temperature,
		maxOutputTokens: opts.MaxOutputTokens,
	}, nil
}

// Name returns the Gemini model name.
func (m *Model) Name() string {
	return m.name
}

// Generate sends the conversation to the model and returns its next turn.
func (m *Model) Generate(
	ctx context.Context,
	req *agent.Request,
) (*agent.Response, error) {
	contents, config := m.request(req)

	res, err := retry.Invoke(ctx, m.caller, "gemini.generate_content",
		func(
			ctx context.Context,
			_ int,
		) retry.Outcome[*genai.GenerateContentResponse] {
			return classify(m.gen.GenerateContent(
				ctx,
				m.name,
				contents,
				config,
			))
		},
	)
	if err != nil {
		return nil, err
	}
	return response(res)
}

// Attrs returns the model settings for slog.
func (m *Model) Attrs() []slog.Attr {
	attrs := []slog.Attr{slog.String("model", m.name)}
	if m.temperature != nil {
		attrs = append(attrs,
			slog.Float64("temperature", float64(*m.temperature)),
		)
	}
	return attrs
}

// Errors from the API carry the HTTP status; the policy decides which of
// them are transient.
func classify(
	res *genai.GenerateContentResponse,
	err error,
) retry.Outcome[*genai.GenerateContentResponse] {
	if code := statusCode(err); code > 0 {
		err = retry.NewStatusError(code, err)
	}
	return retry.Classify(res, err)
}

func statusCode(err error) int {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code
	}
	return 0
}

// Apply resolves the provided list of options.
func (o *Options) Apply(
	opts []Option,
	rest ...Option,
) {
	for opt := range options.Apply[Option](opts, rest...) {
		opt.model(o)
	}
}

func (o *Options) model(opt *Options) {
	if o != nil {
		*opt = *o
	}
}

func (o WithTemperature) model(opt *Options) {
	t := float32(o)
	opt.Temperature = &t
}

func (o WithMaxOutputTokens) model(opt *Options) {
	opt.MaxOutputTokens = int32(o)
}
