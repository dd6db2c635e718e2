// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// probed hosts a probe server for a test harness.
//
// It registers the probes declared in its config file alongside a few
// built-ins (uptime, goroutines, version, and optionally a frame-rate
// monitor), serves them on a TCP port, and optionally exposes the
// server's Prometheus metrics.
//
// Usage:
//
//	probed [--config PATH] [--host HOST] [--port PORT] [--metrics-address ADDR]
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/bureau-foundation/probed/lib/clock"
	"github.com/bureau-foundation/probed/lib/config"
	"github.com/bureau-foundation/probed/lib/framerate"
	"github.com/bureau-foundation/probed/lib/probeserver"
	"github.com/bureau-foundation/probed/lib/process"
	"github.com/bureau-foundation/probed/lib/version"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		process.Fatal(err)
	}
}

func run(args []string) error {
	flags := pflag.NewFlagSet("probed", pflag.ContinueOnError)
	var (
		configPath     string
		host           string
		port           int
		metricsAddress string
		showVersion    bool
	)
	flags.StringVar(&configPath, "config", "", "path to probed.yaml (default: $PROBED_CONFIG, else built-in defaults)")
	flags.StringVar(&host, "host", "", "interface to listen on (overrides server.host)")
	flags.IntVar(&port, "port", 0, "TCP port to listen on, 0 for any free port (overrides server.port)")
	flags.StringVar(&metricsAddress, "metrics-address", "", "serve Prometheus metrics on this address (overrides metrics.address)")
	flags.BoolVar(&showVersion, "version", false, "print version information and exit")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	if showVersion {
		version.Print("probed")
		return nil
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if flags.Changed("host") {
		cfg.Server.Host = host
	}
	if flags.Changed("port") {
		cfg.Server.Port = port
	}
	if flags.Changed("metrics-address") {
		cfg.Metrics.Address = metricsAddress
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := newLogger(cfg, os.Stderr)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return serve(ctx, cfg, clock.Real(), logger)
}

// loadConfig reads the file named by --config, else the file named by
// PROBED_CONFIG, else returns the defaults.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	if os.Getenv(config.EnvConfig) != "" {
		return config.Load()
	}
	return config.Default(), nil
}

// newLogger builds the daemon's logger from the logging section.
// PROBED_DEBUG forces debug level regardless of the file.
func newLogger(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	level, err := cfg.LogLevel()
	if err != nil {
		return nil, err
	}
	if os.Getenv("PROBED_DEBUG") != "" {
		level = slog.LevelDebug
	}

	handlerOptions := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch cfg.Logging.Format {
	case "json":
		handler = slog.NewJSONHandler(w, handlerOptions)
	default:
		handler = slog.NewTextHandler(w, handlerOptions)
	}
	return slog.New(handler), nil
}

// serve runs the probe server, the metrics endpoint, and the frame
// ticker until ctx is cancelled or one of them fails.
func serve(ctx context.Context, cfg *config.Config, clk clock.Clock, logger *slog.Logger) error {
	registry, err := buildRegistry(cfg, clk)
	if err != nil {
		return err
	}

	metrics := probeserver.NewMetrics()
	server := probeserver.NewServer(probeserver.Options{
		Host:             cfg.Server.Host,
		Port:             cfg.Server.Port,
		Registry:         registry,
		Clock:            clk,
		Logger:           logger,
		Metrics:          metrics,
		PollInterval:     cfg.Server.PollInterval,
		AcquireTimeout:   cfg.Server.AcquireTimeout,
		ReadTimeout:      cfg.Server.ReadTimeout,
		WriteTimeout:     cfg.Server.WriteTimeout,
		MaxHeadBytes:     cfg.Server.MaxHeadBytes,
		StrictOperations: cfg.Server.StrictOperations,
		ReusePort:        cfg.Server.ReusePort,
	})

	group, groupContext := errgroup.WithContext(ctx)

	group.Go(func() error {
		return server.Serve(groupContext)
	})

	if cfg.Metrics.Address != "" {
		promRegistry := prometheus.NewRegistry()
		promRegistry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		if err := metrics.Register(promRegistry); err != nil {
			return fmt.Errorf("registering metrics: %w", err)
		}
		group.Go(func() error {
			return serveMetrics(groupContext, cfg.Metrics, promRegistry, logger)
		})
	}

	if cfg.FrameRate.Enabled {
		monitor := framerate.New(clk, cfg.FrameRate.Window)
		registry.Register(monitor.Probe(cfg.FrameRate.Probe))
		group.Go(func() error {
			runFrameLoop(groupContext, clk, cfg.FrameRate.Interval, monitor)
			return nil
		})
	}

	logger.Info("probed running",
		"version", version.Info(),
		"environment", cfg.Environment,
		"probes", registry.Names(),
	)

	err = group.Wait()
	logger.Info("shutting down")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// runFrameLoop drives monitor from a ticker, standing in for a render
// loop in a headless host.
func runFrameLoop(ctx context.Context, clk clock.Clock, interval time.Duration, monitor *framerate.Monitor) {
	ticker := clk.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			monitor.Update()
		}
	}
}
