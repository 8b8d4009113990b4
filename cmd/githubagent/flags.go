// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package main

import (
	"strings"

	"github.com/spf13/pflag"
)

type flags struct {
	envFile     string
	configFile  string
	prompt      string
	metricsAddr string
	listTools   bool
}

func newFlags() *flags {
	return &flags{}
}

func (f *flags) NewFlagSet() *pflag.FlagSet {
	flagSet := pflag.NewFlagSet("githubagent", pflag.ContinueOnError)
	flagSet.SortFlags = false
	flagSet.StringVar(&f.envFile, "env",
		".env",
		"Dotenv file to read before the process environment.")
	flagSet.StringVar(&f.configFile, "config",
		"",
		"Optional YAML config file. Environment variables override it.")
	flagSet.StringVarP(&f.prompt, "prompt", "p",
		"",
		"Prompt to answer. Positional arguments are used when empty.")
	flagSet.StringVar(&f.metricsAddr, "metrics-addr",
		"",
		"Serve Prometheus metrics on this address.")
	flagSet.BoolVar(&f.listTools, "list-tools",
		false,
		"List the available tools and exit.")

	return flagSet
}

// Parse fills the flags from args and falls back to the positional arguments
// for the prompt.
func (f *flags) Parse(args []string) error {
	flagSet := f.NewFlagSet()
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if f.prompt == "" {
		f.prompt = strings.Join(flagSet.Args(), " ")
	}
	return nil
}
