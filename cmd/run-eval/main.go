/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package main runs an agent over SWE-bench examples with an adaptive
// worker pool, persists the results and prints a report.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chainguard-dev/clog"
	_ "github.com/chainguard-dev/clog/gcp/init"
	"github.com/chainguard-dev/terraform-infra-common/pkg/httpmetrics"
	"github.com/chainguard-dev/terraform-infra-common/pkg/profiler"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sethvargo/go-envconfig"
)

type config struct {
	// AgentURL is the base URL of the remote agent backend.
	AgentURL string `env:"AGENT_URL"`

	ResultsDir    string `env:"RESULTS_DIR,default=predictions/results"`
	ResultsBucket string `env:"RESULTS_BUCKET"`
	ResultsPrefix string `env:"RESULTS_PREFIX"`

	// DatasetDir holds the registry's dataset files.
	DatasetDir string `env:"DATASET_DIR,default=datasets"`

	MetricsPort     int           `env:"METRICS_PORT,default=2112"`
	ScalingCooldown time.Duration `env:"SCALING_COOLDOWN,default=10s"`
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go httpmetrics.ScrapeDiskUsage(ctx)
	profiler.SetupProfiler()
	defer httpmetrics.SetupTracer(ctx)()

	var cfg config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		clog.FatalContextf(ctx, "processing config: %v", err)
	}

	if cfg.MetricsPort > 0 {
		go serveMetrics(ctx, cfg.MetricsPort)
	}

	if err := newRootCommand(cfg).ExecuteContext(ctx); err != nil {
		clog.FatalContextf(ctx, "run-eval: %v", err)
	}
}

// serveMetrics exposes the Prometheus registry until ctx is done.
func serveMetrics(ctx context.Context, port int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	clog.FromContext(ctx).With("port", port).Info("Serving metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		clog.FromContext(ctx).With("error", err).Warn("Metrics server stopped")
	}
}
