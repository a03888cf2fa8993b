// Command logshard reads newline-delimited JSON log records from stdin and
// appends each one to {LOG_DIR}/{ServiceName}/{YYYY-MM-DD}.log, deleting
// daily files older than RETENTION_DAYS at most every
// CLEANUP_INTERVAL_HOURS.
//
// It is configured through the environment, optionally on top of a YAML
// file named by CONFIG_FILE (see Config). All diagnostics go to stderr;
// nothing is written to stdout.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/gounknown/logshard"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := LoadConfig(os.Getenv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logshard: %v\n", err)
		return 1
	}
	logger, closeLog, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logshard: %v\n", err)
		return 1
	}
	defer closeLog()

	sharder, err := logshard.New(cfg.LogDir,
		logshard.WithLogger(logger),
		logshard.WithRetention(cfg.Retention()),
		logshard.WithCleanupInterval(cfg.CleanupInterval()),
		logshard.WithModifiedGrace(cfg.SweepGrace()),
	)
	if err != nil {
		logger.Error("failed to create sharder", zap.Error(err))
		return 1
	}

	if cfg.MetricsAddr != "" {
		srv := serveMetrics(cfg.MetricsAddr, sharder, logger)
		defer srv.Close()
	}

	// A blocking read on stdin cannot be interrupted, so signals keep their
	// default behavior there and only stop a followed file.
	ctx := context.Background()
	var input io.Reader = os.Stdin
	if cfg.InputFile != "" {
		var stop context.CancelFunc
		ctx, stop = signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		f, err := logshard.Follow(ctx, cfg.InputFile, logger)
		if err != nil {
			logger.Error("failed to follow input file", zap.Error(err))
			return 1
		}
		defer f.Close()
		input = f
	}

	logger.Info("logshard started",
		zap.String("log_dir", cfg.LogDir),
		zap.Int("retention_days", cfg.RetentionDays),
		zap.Int("cleanup_interval_hours", cfg.CleanupIntervalHours),
		zap.String("input_file", cfg.InputFile),
	)

	if err := sharder.Run(ctx, input); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("input failed", zap.Error(err))
		return 1
	}

	m := sharder.Metrics()
	logger.Info("input closed",
		zap.Int64("routed", m.Routed),
		zap.Int64("dropped", m.InvalidJSON+m.InvalidRecord+m.InvalidTime+m.WriteErrors),
		zap.Int64("deleted", m.Deleted),
	)
	return 0
}

// newMetricsHandler serves the sharder counters and the Go runtime metrics
// on /metrics.
func newMetricsHandler(sharder *logshard.Sharder) http.Handler {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		logshard.NewCollector(sharder, "logshard"),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	}))
	return mux
}

// serveMetrics listens on addr in the background.
func serveMetrics(addr string, sharder *logshard.Sharder, logger *zap.Logger) *http.Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           newMetricsHandler(sharder),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("serving metrics", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()
	return srv
}
