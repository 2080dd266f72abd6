// Package bootstrap builds the lattice pipeline and its infrastructure from
// configuration. Both binaries share it so a batch run from the CLI yields
// the same identifiers as one synced over HTTP.
package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"pebble/internal/lattice/batch"
	"pebble/internal/lattice/hashing"
	latticemetrics "pebble/internal/lattice/metrics"
	"pebble/internal/lattice/service"
	"pebble/internal/lattice/store"
	"pebble/internal/lattice/tier"
	"pebble/internal/lattice/verifier"
	"pebble/internal/platform/config"
	"pebble/internal/platform/postgres"
	platformredis "pebble/internal/platform/redis"
	"pebble/internal/report"
	httptransport "pebble/internal/transport/http"
	dErrors "pebble/pkg/domain-errors"
	"pebble/pkg/platform/circuit"
)

// Pipeline is a configured verifier and aggregator pair.
type Pipeline struct {
	Verifier   *verifier.Verifier
	Aggregator *batch.Aggregator
	Metrics    *latticemetrics.Metrics
	TierPolicy string
}

// NewPipeline validates the lattice and batch settings. reg may be nil to
// skip metrics.
func NewPipeline(cfg *config.Config, logger *slog.Logger, reg prometheus.Registerer) (*Pipeline, error) {
	algo, err := hashing.ParseAlgorithm(cfg.Lattice.Algorithm)
	if err != nil {
		return nil, err
	}
	v, err := verifier.New(verifier.Config{
		LatticeSalt: cfg.Lattice.LatticeSalt,
		CodexSalt:   cfg.Lattice.CodexSalt,
		Interval:    cfg.Lattice.Interval,
		Algorithm:   algo,
	})
	if err != nil {
		return nil, err
	}

	assigner, err := tier.FromName(cfg.Batch.TierPolicy, cfg.Batch.Seed)
	if err != nil {
		return nil, err
	}

	var m *latticemetrics.Metrics
	if reg != nil {
		m = latticemetrics.New(reg)
	}

	agg, err := batch.New(v, assigner,
		batch.WithWorkers(cfg.Batch.Workers),
		batch.WithTimeout(cfg.Batch.Timeout),
		batch.WithLogger(logger),
		batch.WithMetrics(m),
	)
	if err != nil {
		return nil, err
	}
	return &Pipeline{Verifier: v, Aggregator: agg, Metrics: m, TierPolicy: cfg.Batch.TierPolicy}, nil
}

// Storage is the record store chosen by configuration plus the checks and
// closers of whatever backs it.
type Storage struct {
	Records      service.RecordStore
	HealthChecks map[string]httptransport.HealthCheck
	closers      []func() error
}

// OpenStorage picks Postgres when DATABASE_URL is set, otherwise memory.
// A configured Redis fronts either one as a read-through cache.
func OpenStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger, m *latticemetrics.Metrics) (*Storage, error) {
	s := &Storage{HealthChecks: map[string]httptransport.HealthCheck{}}

	var backend store.Backend = store.NewInMemory()
	if cfg.Database.URL != "" {
		db, err := postgres.Open(ctx, cfg.Database.URL)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeConfiguration, "connect to database")
		}
		s.closers = append(s.closers, db.Close)
		pg := store.NewPostgres(db)
		if err := pg.Migrate(ctx); err != nil {
			_ = s.Close()
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "migrate lattice schema")
		}
		s.HealthChecks["postgres"] = db.PingContext
		backend = pg
		logger.InfoContext(ctx, "record store selected", "backend", "postgres")
	} else {
		logger.InfoContext(ctx, "record store selected", "backend", "memory")
	}
	s.Records = backend

	client, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		_ = s.Close()
		return nil, dErrors.Wrap(err, dErrors.CodeConfiguration, "connect to redis")
	}
	if client != nil {
		s.closers = append(s.closers, client.Close)
		s.HealthChecks["redis"] = client.Health
		s.Records = store.NewRedisCache(client.Client, backend,
			store.WithCacheTTL(cfg.Redis.CacheTTL),
			store.WithCacheLogger(logger),
			store.WithCacheMetrics(m),
		)
		logger.InfoContext(ctx, "record cache enabled", "ttl", cfg.Redis.CacheTTL.String())
	}
	return s, nil
}

// Close releases connections in reverse order of opening.
func (s *Storage) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	s.closers = nil
	return errors.Join(errs...)
}

const ensureTopicTimeout = 10 * time.Second

// NewProvisioner returns nil when no brokers are configured.
func NewProvisioner(ctx context.Context, cfg config.Kafka, logger *slog.Logger) (*report.KafkaProvisioner, error) {
	if len(cfg.Brokers) == 0 {
		return nil, nil
	}
	k, err := report.NewKafkaProvisioner(cfg.Brokers, cfg.Topic,
		report.WithKafkaLogger(logger),
		report.WithBreaker(circuit.New("kafka-provisioner", circuit.WithFailureThreshold(3))),
	)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeConfiguration, "create kafka provisioner")
	}
	topicCtx, cancel := context.WithTimeout(ctx, ensureTopicTimeout)
	defer cancel()
	if err := k.EnsureTopic(topicCtx, 3, 1); err != nil {
		logger.WarnContext(ctx, "could not ensure provisioning topic", "topic", cfg.Topic, "error", err)
	}
	return k, nil
}
