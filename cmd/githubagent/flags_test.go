// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package main

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlagsParse(t *testing.T) {
	f := newFlags()
	require.NoError(t, f.Parse([]string{
		"--env", "local.env",
		"--config", "agent.yaml",
		"-p", "list open issues",
		"--metrics-addr", ":9090",
		"--list-tools",
	}))

	assert.Equal(t, "local.env", f.envFile)
	assert.Equal(t, "agent.yaml", f.configFile)
	assert.Equal(t, "list open issues", f.prompt)
	assert.Equal(t, ":9090", f.metricsAddr)
	assert.True(t, f.listTools)
}

func TestFlagsDefaults(t *testing.T) {
	f := newFlags()
	require.NoError(t, f.Parse(nil))

	assert.Equal(t, ".env", f.envFile)
	assert.Empty(t, f.configFile)
	assert.Empty(t, f.prompt)
	assert.Empty(t, f.metricsAddr)
	assert.False(t, f.listTools)
}

func TestFlagsPromptFromArgs(t *testing.T) {
	f := newFlags()
	require.NoError(t, f.Parse([]string{"--env", "x.env", "who", "am", "I"}))
	assert.Equal(t, "who am I", f.prompt)

	f = newFlags()
	require.NoError(t, f.Parse([]string{"--prompt", "explicit", "ignored"}))
	assert.Equal(t, "explicit", f.prompt)
}

func TestFlagsErrors(t *testing.T) {
	f := newFlags()
	require.Error(t, f.Parse([]string{"--unknown"}))

	f = newFlags()
	require.ErrorIs(t, f.Parse([]string{"--help"}), pflag.ErrHelp)
}
