// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package toolset

import (
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/2kartheek10-droid/githubagent/internal/options"
)

type (
	// TransportParams describe how to reach an MCP server. They are immutable
	// once constructed.
	TransportParams interface {
		// URL is the absolute endpoint of the server.
		URL() string
		// Header is added to every request; callers get their own copy.
		Header() http.Header
		// Timeout bounds the wait for response headers; zero means none.
		Timeout() time.Duration
	}

	// StreamableHTTPParams reach an MCP server over the streamable HTTP
	// transport.
	StreamableHTTPParams struct {
		url      string
		header   http.Header
		toolsets []string
		readOnly bool
		timeout  time.Duration
	}

	// ParamsOption represents a single transport parameter option.
	ParamsOption interface{ params(*ParamsOptions) }

	// ParamsOptions are the resolved transport parameter options.
	ParamsOptions struct {
		BearerToken string
		Toolsets    []string
		ReadOnly    bool
		Header      http.Header
		Timeout     time.Duration
	}

	// WithBearerToken authenticates every request with the token.
	WithBearerToken string

	// WithToolsets restricts the server to the named toolsets.
	WithToolsets []string

	// WithReadOnly asks the server to expose read-only tools only.
	WithReadOnly bool

	// WithHTTPTimeout bounds the wait for response headers.
	WithHTTPTimeout time.Duration

	// This option is not used directly; see WithHeader below.
	withHeader struct{ key, value string }
)

// Headers understood by the GitHub MCP server.
const (
	HeaderToolsets = "X-MCP-Toolsets"
	HeaderReadOnly = "X-MCP-Readonly"
)

// NewStreamableHTTPParams creates parameters for the server at rawURL, which
// must be an absolute http or https URL. A bearer token is required.
func NewStreamableHTTPParams(
	rawURL string,
	opt ...ParamsOption,
) (*StreamableHTTPParams, error) {
	var opts ParamsOptions
	opts.Apply(opt)

	u, err := url.Parse(rawURL)
	if err != nil || !u.IsAbs() || u.Host == "" ||
		(u.Scheme != "http" && u.Scheme != "https") {
		return nil, &ConfigurationError{
			Name:    "url",
			Value:   rawURL,
			message: "url must be an absolute http or https url",
		}
	}

	token := strings.TrimSpace(opts.BearerToken)
	if token == "" {
		return nil, &ConfigurationError{
			Name:    "BearerToken",
			message: "bearer token must be set",
		}
	}

	if opts.Timeout < 0 {
		return nil, &ConfigurationError{
			Name:    "Timeout",
			Value:   opts.Timeout,
			message: "timeout must not be negative",
		}
	}

	header := opts.Header.Clone()
	if header == nil {
		header = http.Header{}
	}
	header.Set("Authorization", "Bearer "+token)

	var toolsets []string
	for _, ts := range opts.Toolsets {
		if ts = strings.TrimSpace(ts); ts != "" {
			toolsets = append(toolsets, ts)
		}
	}
	if len(toolsets) > 0 {
		header.Set(HeaderToolsets, strings.Join(toolsets, ","))
	}
	if opts.ReadOnly {
		header.Set(HeaderReadOnly, strconv.FormatBool(true))
	}

	return &StreamableHTTPParams{
		url:      u.String(),
		header:   header,
		toolsets: toolsets,
		readOnly: opts.ReadOnly,
		timeout:  opts.Timeout,
	}, nil
}

// URL returns the server endpoint.
func (p *StreamableHTTPParams) URL() string {
	return p.url
}

// Header returns a copy of the request headers, including credentials.
func (p *StreamableHTTPParams) Header() http.Header {
	return p.header.Clone()
}

// Timeout returns the response header timeout.
func (p *StreamableHTTPParams) Timeout() time.Duration {
	return p.timeout
}

// Toolsets returns the requested toolsets.
func (p *StreamableHTTPParams) Toolsets() []string {
	return slices.Clone(p.toolsets)
}

// ReadOnly reports whether read-only access was requested.
func (p *StreamableHTTPParams) ReadOnly() bool {
	return p.readOnly
}

// Attrs returns the parameters for slog, without credentials.
func (p *StreamableHTTPParams) Attrs() []slog.Attr {
	return []slog.Attr{
		slog.String("url", p.url),
		slog.String("toolsets", strings.Join(p.toolsets, ",")),
		slog.Bool("read_only", p.readOnly),
	}
}

// Apply resolves the provided list of options.
func (o *ParamsOptions) Apply(
	opts []ParamsOption,
	rest ...ParamsOption,
) {
	for opt := range options.Apply[ParamsOption](opts, rest...) {
		opt.params(o)
	}
}

func (o *ParamsOptions) params(opt *ParamsOptions) {
	if o != nil {
		*opt = *o
		opt.Header = o.Header.Clone()
	}
}

func (o WithBearerToken) params(opt *ParamsOptions) {
	opt.BearerToken = string(o)
}

func (o WithToolsets) params(opt *ParamsOptions) {
	opt.Toolsets = slices.Clone(o)
}

func (o WithReadOnly) params(opt *ParamsOptions) {
	opt.ReadOnly = bool(o)
}

func (o WithHTTPTimeout) params(opt *ParamsOptions) {
	opt.Timeout = time.Duration(o)
}

// WithHeader adds a header to every request.
func WithHeader(key, value string) ParamsOption {
	return withHeader{key, value}
}

func (o withHeader) params(opt *ParamsOptions) {
	if opt.Header == nil {
		opt.Header = http.Header{}
	}
	opt.Header.Add(o.key, o.value)
}
