// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/2kartheek10-droid/githubagent/config"
	"github.com/2kartheek10-droid/githubagent/githubagent"
	"github.com/2kartheek10-droid/githubagent/internal/log"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
)

// Set at build time with -ldflags "-X main.revision=...".
var revision = "dev"

func main() {
	f := newFlags()
	if err := f.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		// The flag set has already printed the error and usage.
		os.Exit(2)
	}

	level := new(slog.LevelVar)
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	if err := run(ctx, f, logger, level); err != nil {
		log.Wrap(logger).Err(ctx, err)
		stop()
		os.Exit(1)
	}
}

func run(
	ctx context.Context,
	f *flags,
	logger *slog.Logger,
	level *slog.LevelVar,
) error {
	env, err := config.LoadEnv(f.envFile)
	if err != nil {
		return err
	}

	cfg, err := config.Load(env, f.configFile)
	if err != nil {
		return err
	}
	level.Set(cfg.LogLevel)
	logger.Debug("starting githubagent", "revision", revision)
	log.Wrap(logger).Struct(ctx, "configuration", cfg)

	if !f.listTools && f.prompt == "" {
		return errors.New("a prompt is required; pass --prompt or arguments")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if f.metricsAddr != "" {
		srv := &http.Server{
			Addr:              f.metricsAddr,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			err := srv.ListenAndServe()
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", "error", err)
			}
		}()
		defer srv.Close()
	}

	a, err := githubagent.New(ctx, cfg,
		githubagent.WithLogger(logger),
		githubagent.WithRegisterer(reg),
	)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Toolset.Connect(ctx); err != nil {
		return err
	}

	if f.listTools {
		tools, err := a.ListTools(ctx)
		if err != nil {
			return err
		}
		for _, t := range tools {
			fmt.Printf("%s\t%s\n", t.Name, firstLine(t.Description))
		}
		return nil
	}

	answer, err := a.Run(ctx, f.prompt)
	if err != nil {
		return err
	}
	fmt.Println(answer)
	return nil
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return line
}
