// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package config

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/2kartheek10-droid/githubagent/retry"
	"gopkg.in/yaml.v3"
)

// Defaults for the GitHub agent.
const (
	DefaultModel       = "gemini-2.5-flash-lite"
	DefaultMCPURL      = "https://api.githubcopilot.com/mcp/"
	DefaultMaxTurns    = 8
	DefaultRetryBase   = 7
	DefaultMaxAttempts = 5
	DefaultRetryDelay  = time.Second
)

// DefaultToolsets are the GitHub MCP toolsets exposed to the agent.
var DefaultToolsets = []string{"issues", "pull_requests", "repos"}

// DefaultRetryStatusCodes are the model response codes treated as transient.
var DefaultRetryStatusCodes = []int{429, 500, 503, 504}

type (
	// Config is the resolved, immutable configuration of the agent. Treat a
	// loaded Config as read-only; nothing in this module modifies it.
	Config struct {
		GitHubToken  string `yaml:"-" log:"secret"`
		GoogleAPIKey string `yaml:"-" log:"secret"`

		Model    string     `yaml:"model"`
		LogLevel slog.Level `yaml:"log_level"`

		MCP   MCPConfig   `yaml:"mcp"`
		Retry RetryConfig `yaml:"retry"`
		Agent AgentConfig `yaml:"agent"`
	}

	// MCPConfig configures the connection to the GitHub MCP server.
	MCPConfig struct {
		URL      string   `yaml:"url"`
		Toolsets []string `yaml:"toolsets"`
		ReadOnly bool     `yaml:"read_only"`

		// RateLimit is the maximum sustained tool calls per second; zero
		// disables limiting.
		RateLimit float64 `yaml:"rate_limit"`
		RateBurst int     `yaml:"rate_burst"`

		// Timeout bounds each HTTP request to the server; zero means none.
		Timeout Duration `yaml:"timeout"`
	}

	// RetryConfig configures the backoff applied to model and tool calls.
	RetryConfig struct {
		Attempts     int      `yaml:"attempts"`
		ExponentBase float64  `yaml:"exponent_base"`
		InitialDelay Duration `yaml:"initial_delay"`
		MaxDelay     Duration `yaml:"max_delay"`
		StatusCodes  []int    `yaml:"status_codes"`
	}

	// AgentConfig configures the agent's conversation loop.
	AgentConfig struct {
		// MaxTurns bounds the model round trips for one prompt.
		MaxTurns int `yaml:"max_turns"`

		// Instruction replaces the built-in instruction when non-empty.
		Instruction string `yaml:"instruction"`
	}
)

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		Model:    DefaultModel,
		LogLevel: slog.LevelInfo,
		MCP: MCPConfig{
			URL:      DefaultMCPURL,
			Toolsets: append([]string(nil), DefaultToolsets...),
			ReadOnly: true,
		},
		Retry: RetryConfig{
			Attempts:     DefaultMaxAttempts,
			ExponentBase: DefaultRetryBase,
			InitialDelay: Duration(DefaultRetryDelay),
			StatusCodes:  append([]int(nil), DefaultRetryStatusCodes...),
		},
		Agent: AgentConfig{
			MaxTurns: DefaultMaxTurns,
		},
	}
}

// Load resolves the configuration: defaults, then the optional YAML file at
// yamlPath, then variables from env. GITHUB_TOKEN and GOOGLE_API_KEY are
// required.
func Load(env *Env, yamlPath string) (*Config, error) {
	cfg := Default()

	if yamlPath != "" {
		f, err := os.Open(yamlPath)
		if err != nil {
			return nil, &Error{
				Name:    yamlPath,
				message: "could not open config file",
				wrapped: err,
			}
		}
		defer f.Close()

		if err := cfg.decodeYAML(f); err != nil {
			return nil, &Error{
				Name:    yamlPath,
				message: "could not parse config file",
				wrapped: err,
			}
		}
	}

	if env != nil {
		if err := cfg.applyEnv(env); err != nil {
			return nil, err
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// PolicyOptions converts the retry settings into retry policy options.
// Validation of the values is left to retry.NewPolicy.
func (r RetryConfig) PolicyOptions() *retry.PolicyOptions {
	return &retry.PolicyOptions{
		MaxAttempts:          r.Attempts,
		ExponentBase:         r.ExponentBase,
		InitialDelay:         r.InitialDelay.Std(),
		MaxDelay:             r.MaxDelay.Std(),
		RetryableStatusCodes: append([]int(nil), r.StatusCodes...),
	}
}

func (c *Config) decodeYAML(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Environment variable example:
// GITHUB_TOKEN=ghp_xxx
// GITHUB_AGENT_RETRY_INITIAL_DELAY=PT1S
// GITHUB_MCP_TOOLSETS=issues,pull_requests.
func (c *Config) applyEnv(env *Env) error {
	for _, key := range env.Keys() {
		val, _ := env.Lookup(key)
		var err error

		switch key {
		case "GITHUB_TOKEN":
			c.GitHubToken = strings.TrimSpace(val)

		case "GOOGLE_API_KEY":
			c.GoogleAPIKey = strings.TrimSpace(val)

		case "GITHUB_AGENT_MODEL":
			c.Model = strings.TrimSpace(val)

		case "GITHUB_AGENT_LOG_LEVEL":
			err = c.LogLevel.UnmarshalText([]byte(strings.TrimSpace(val)))

		case "GITHUB_AGENT_MAX_TURNS":
			c.Agent.MaxTurns, err = strconv.Atoi(strings.TrimSpace(val))

		case "GITHUB_AGENT_INSTRUCTION":
			c.Agent.Instruction = strings.TrimSpace(val)

		case "GITHUB_AGENT_RETRY_ATTEMPTS":
			c.Retry.Attempts, err = strconv.Atoi(strings.TrimSpace(val))

		case "GITHUB_AGENT_RETRY_EXP_BASE":
			c.Retry.ExponentBase, err = strconv.ParseFloat(
				strings.TrimSpace(val),
				64,
			)

		case "GITHUB_AGENT_RETRY_INITIAL_DELAY":
			err = c.Retry.InitialDelay.UnmarshalText([]byte(val))

		case "GITHUB_AGENT_RETRY_MAX_DELAY":
			err = c.Retry.MaxDelay.UnmarshalText([]byte(val))

		case "GITHUB_AGENT_RETRY_STATUS_CODES":
			c.Retry.StatusCodes, err = parseInts(val)

		case "GITHUB_MCP_URL":
			c.MCP.URL = strings.TrimSpace(val)

		case "GITHUB_MCP_TOOLSETS":
			c.MCP.Toolsets = parseList(val)

		case "GITHUB_MCP_READONLY":
			c.MCP.ReadOnly, err = strconv.ParseBool(strings.TrimSpace(val))

		case "GITHUB_MCP_RATE_LIMIT":
			c.MCP.RateLimit, err = strconv.ParseFloat(
				strings.TrimSpace(val),
				64,
			)

		case "GITHUB_MCP_RATE_BURST":
			c.MCP.RateBurst, err = strconv.Atoi(strings.TrimSpace(val))

		case "GITHUB_MCP_TIMEOUT":
			err = c.MCP.Timeout.UnmarshalText([]byte(val))

		default:
			continue
		}

		if err != nil {
			return &Error{
				Name:    key,
				message: "could not parse value",
				wrapped: err,
			}
		}
	}
	return nil
}

func (c *Config) validate() error {
	switch {
	case c.GitHubToken == "":
		return &Error{Name: "GITHUB_TOKEN", message: "must be set"}
	case c.GoogleAPIKey == "":
		return &Error{Name: "GOOGLE_API_KEY", message: "must be set"}
	case c.Model == "":
		return &Error{Name: "GITHUB_AGENT_MODEL", message: "must not be empty"}
	case c.Agent.MaxTurns < 1:
		return &Error{
			Name:    "GITHUB_AGENT_MAX_TURNS",
			message: "must be at least 1",
		}
	case c.MCP.RateLimit < 0:
		return &Error{
			Name:    "GITHUB_MCP_RATE_LIMIT",
			message: "must not be negative",
		}
	case c.MCP.RateBurst < 0:
		return &Error{
			Name:    "GITHUB_MCP_RATE_BURST",
			message: "must not be negative",
		}
	case c.MCP.Timeout < 0:
		return &Error{
			Name:    "GITHUB_MCP_TIMEOUT",
			message: "must not be negative",
		}
	}
	return nil
}

func parseList(val string) []string {
	var out []string
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func parseInts(val string) ([]int, error) {
	items := parseList(val)
	out := make([]int, 0, len(items))
	for _, item := range items {
		n, err := strconv.Atoi(item)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}
