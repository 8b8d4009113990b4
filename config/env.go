// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package config

import (
	"bufio"
	"errors"
	"io"
	"maps"
	"os"
	"slices"
	"strings"
)

// Env is an immutable view of configuration variables. Values from the
// process environment always take precedence over values read from a dotenv
// file; the process environment itself is never modified.
type Env struct {
	vars map[string]string
}

// NewEnv merges a process environment (in os.Environ form) over the contents
// of a dotenv file.
func NewEnv(environ []string, file map[string]string) *Env {
	vars := make(map[string]string, len(environ)+len(file))
	maps.Copy(vars, file)
	for _, kv := range environ {
		if k, v, ok := strings.Cut(kv, "="); ok {
			vars[k] = v
		}
	}
	return &Env{vars}
}

// LoadEnv reads the optional dotenv file at path and merges the current
// process environment over it. A missing file is not an error; an empty path
// skips the file entirely.
func LoadEnv(path string) (*Env, error) {
	file, err := ReadDotEnv(path)
	if err != nil {
		return nil, err
	}
	return NewEnv(os.Environ(), file), nil
}

// Lookup returns the value of key and whether it is defined.
func (e *Env) Lookup(key string) (string, bool) {
	v, ok := e.vars[key]
	return v, ok
}

// Keys returns every defined key in sorted order.
func (e *Env) Keys() []string {
	return slices.Sorted(maps.Keys(e.vars))
}

// ReadDotEnv reads a dotenv file. A missing file yields an empty map.
func ReadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return map[string]string{}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, &Error{
			Name:    path,
			message: "could not open env file",
			wrapped: err,
		}
	}
	defer f.Close()

	vars, err := ParseDotEnv(f)
	if err != nil {
		return nil, &Error{
			Name:    path,
			message: "could not read env file",
			wrapped: err,
		}
	}
	return vars, nil
}

// ParseDotEnv parses KEY=VALUE lines. Blank lines, lines starting with # and
// lines without = are ignored. Keys and values are trimmed, and any leading
// or trailing quote characters are stripped from values. When a key appears
// more than once, the first definition wins.
func ParseDotEnv(r io.Reader) (map[string]string, error) {
	vars := make(map[string]string)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		k, v, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}

		k = strings.TrimSpace(k)
		if _, seen := vars[k]; seen {
			continue
		}
		vars[k] = unquote(strings.TrimSpace(v))
	}
	return vars, scanner.Err()
}

func unquote(v string) string {
	return strings.Trim(strings.Trim(v, `"`), `'`)
}
