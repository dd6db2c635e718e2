// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bureau-foundation/probed/lib/config"
	"github.com/bureau-foundation/probed/lib/netutil"
)

// metricsShutdownTimeout bounds draining in-flight scrapes at shutdown.
const metricsShutdownTimeout = 5 * time.Second

// serveMetrics serves the Prometheus registry until ctx is cancelled.
func serveMetrics(ctx context.Context, cfg config.MetricsConfig, gatherer prometheus.Gatherer, logger *slog.Logger) error {
	listener, err := netutil.Listen(ctx, cfg.Address, netutil.ListenOptions{})
	if err != nil {
		return fmt.Errorf("metrics listener: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle(cfg.Path, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{
		ErrorLog: slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}))
	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	served := make(chan error, 1)
	go func() {
		served <- server.Serve(listener)
	}()
	logger.Info("metrics endpoint listening", "address", listener.Addr().String(), "path", cfg.Path)

	select {
	case err := <-served:
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
	}

	shutdownContext, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownContext); err != nil {
		logger.Warn("metrics server shutdown", "error", err)
	}
	if err := <-served; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}
