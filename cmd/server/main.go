package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel"

	"pebble/internal/bootstrap"
	"pebble/internal/lattice/handler"
	"pebble/internal/lattice/service"
	"pebble/internal/platform/config"
	"pebble/internal/platform/httpserver"
	"pebble/internal/platform/logger"
	"pebble/internal/platform/metrics"
	"pebble/internal/report"
	httptransport "pebble/internal/transport/http"
)

// requestTimeoutSlack leaves room for a full batch deadline plus persistence.
const requestTimeoutSlack = 15 * time.Second

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal service packages.
func main() {
	if err := run(); err != nil {
		slog.Error("pebble server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Log.Format, cfg.Log.Level)
	if err != nil {
		return err
	}
	slog.SetDefault(log)

	ctx := context.Background()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	pipeline, err := bootstrap.NewPipeline(cfg, log, reg)
	if err != nil {
		return err
	}

	storage, err := bootstrap.OpenStorage(ctx, cfg, log, pipeline.Metrics)
	if err != nil {
		return err
	}
	defer func() {
		if err := storage.Close(); err != nil {
			log.Error("close storage", "error", err)
		}
	}()

	reporters := []service.Reporter{report.NewLog(log)}
	provisioner, err := bootstrap.NewProvisioner(ctx, cfg.Kafka, log)
	if err != nil {
		return err
	}
	if provisioner != nil {
		defer provisioner.Close()
		reporters = append(reporters, provisioner)
	}

	svc, err := service.New(pipeline.Verifier, pipeline.Aggregator, storage.Records,
		service.WithLogger(log),
		service.WithReporters(reporters...),
		service.WithTierPolicy(pipeline.TierPolicy),
		service.WithTracer(otel.Tracer("pebble/internal/lattice/service")),
	)
	if err != nil {
		return err
	}

	requestTimeout := cfg.Batch.Timeout + requestTimeoutSlack
	router := httptransport.NewRouter(httptransport.Config{
		Logger:         log,
		Metrics:        metrics.New(reg),
		Gatherer:       reg,
		RequestTimeout: requestTimeout,
		HealthChecks:   storage.HealthChecks,
	}, handler.New(svc, log))

	srv := httpserver.New(cfg.Server.Addr, router, requestTimeout)

	log.Info("starting pebble",
		"addr", cfg.Server.Addr,
		"interval", cfg.Lattice.Interval,
		"algorithm", cfg.Lattice.Algorithm,
		"tier_policy", cfg.Batch.TierPolicy,
		"workers", cfg.Batch.Workers,
	)

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-serveErr:
		return err
	case sig := <-quit:
		log.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
