//go:build mage
// +build mage

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/princjef/mageutil/bintool"
	"github.com/princjef/mageutil/shellcmd"
)

const (
	binary   = "bin/githubagent"
	coverOut = "coverage.out"
)

var (
	golines = bintool.Must(bintool.NewGo(
		"github.com/segmentio/golines",
		"v0.12.2",
	))
	linter = bintool.Must(bintool.New(
		"golangci-lint{{.BinExt}}",
		"1.61.0",
		"https://github.com/golangci/golangci-lint/releases/download/v{{.Version}}/golangci-lint-{{.Version}}-{{.GOOS}}-{{.GOARCH}}{{.ArchiveExt}}",
	))
)

// Format wraps long lines at 80 columns.
func Format() error {
	if err := golines.Ensure(); err != nil {
		return err
	}
	return golines.Command(`-m 80 --no-reformat-tags -w .`).Run()
}

// Lint runs golangci-lint over the module.
func Lint() error {
	if err := linter.Ensure(); err != nil {
		return err
	}
	return linter.Command(`run ./...`).Run()
}

// Tidy checks that go.mod lists exactly the imported modules.
func Tidy() error {
	return shellcmd.Command(`go mod tidy -diff`).Run()
}

// Test runs the unit tests, including the in-process MCP server tests.
func Test() error {
	return shellcmd.Command(goTest()).Run()
}

// TestClean runs the unit tests with no test cache.
func TestClean() error {
	return shellcmd.RunAll(`go clean -testcache`, shellcmd.Command(goTest()))
}

// Cover writes a coverage profile and prints the per-function summary.
func Cover() error {
	return shellcmd.RunAll(
		shellcmd.Command(goTest(`-coverprofile=`+coverOut)),
		shellcmd.Command(`go tool cover -func=`+coverOut),
	)
}

// Build compiles the agent binary, stamping the git revision into it.
func Build() error {
	return shellcmd.Command(fmt.Sprintf(
		`go build -trimpath -ldflags "-X main.revision=%s" -o %s ./cmd/githubagent`,
		revision(),
		binary,
	)).Run()
}

// Tools builds the agent and lists the tools the configured server exposes.
func Tools() error {
	if err := Build(); err != nil {
		return err
	}
	return shellcmd.Command(binary + ` --list-tools`).Run()
}

// CI runs every check a pull request must pass.
func CI() error {
	for _, step := range []func() error{Format, Lint, Tidy, Test, Build} {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

// CIVerify runs CI and fails if it left the working tree dirty.
func CIVerify() error {
	if err := CI(); err != nil {
		return err
	}
	return verifyClean()
}

func goTest(extra ...string) string {
	timeout := "60s"
	if v := os.Getenv("TEST_TIMEOUT"); v != "" {
		timeout = v
	}
	args := append([]string{`go test -race -cover -timeout`, timeout}, extra...)
	return strings.Join(append(args, `./...`), " ")
}

func revision() string {
	out, err := shellcmd.Command(`git describe --always --dirty`).Output()
	if err != nil {
		return "unknown"
	}
	return strings.TrimSpace(string(out))
}

func verifyClean() error {
	out, err := shellcmd.Command(`git status --porcelain`).Output()
	if err != nil {
		return err
	}
	if dirty := strings.TrimSpace(string(out)); dirty != "" {
		return fmt.Errorf("working tree modified by CI:\n%s", dirty)
	}
	return nil
}
