package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"pebble/internal/lattice/metrics"
	"pebble/internal/lattice/models"
)

const (
	// Redis key prefix for cached records
	recordKeyPrefix = "pebble:lattice:"

	DefaultCacheTTL = 5 * time.Minute
)

// Backend is the durable store behind a RedisCache.
type Backend interface {
	Save(ctx context.Context, records []models.VerificationRecord) error
	FindByLatticeID(ctx context.Context, latticeID string) (*models.VerificationRecord, error)
	ListRecent(ctx context.Context, limit int) ([]models.VerificationRecord, error)
	Count(ctx context.Context) (int, error)
}

// RedisCache is a read-through cache in front of a Backend. Lookups by
// lattice ID are served from Redis when present; everything else goes to
// the backend. A Redis outage degrades to backend reads and is logged.
type RedisCache struct {
	client  *redis.Client
	backend Backend
	ttl     time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type RedisCacheOption func(*RedisCache)

func WithCacheTTL(ttl time.Duration) RedisCacheOption {
	return func(c *RedisCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

func WithCacheLogger(logger *slog.Logger) RedisCacheOption {
	return func(c *RedisCache) {
		c.logger = logger
	}
}

func WithCacheMetrics(m *metrics.Metrics) RedisCacheOption {
	return func(c *RedisCache) {
		c.metrics = m
	}
}

func NewRedisCache(client *redis.Client, backend Backend, opts ...RedisCacheOption) *RedisCache {
	c := &RedisCache{
		client:  client,
		backend: backend,
		ttl:     DefaultCacheTTL,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Save writes through to the backend, then refreshes the cached copies in
// one pipeline. Cache write failures do not fail the save.
func (c *RedisCache) Save(ctx context.Context, records []models.VerificationRecord) error {
	if err := c.backend.Save(ctx, records); err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	pipe := c.client.Pipeline()
	for _, rec := range records {
		payload, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		pipe.Set(ctx, recordKeyPrefix+rec.LatticeID, payload, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.WarnContext(ctx, "lattice cache refresh failed",
			"records", len(records),
			"error", err,
		)
	}
	return nil
}

func (c *RedisCache) FindByLatticeID(ctx context.Context, latticeID string) (*models.VerificationRecord, error) {
	key := recordKeyPrefix + latticeID

	payload, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var rec models.VerificationRecord
		if jsonErr := json.Unmarshal(payload, &rec); jsonErr == nil {
			c.metrics.RecordLookup("hit", "cache")
			return &rec, nil
		}
		c.logger.WarnContext(ctx, "discarding corrupt cache entry", "lattice_id", latticeID)
	case errors.Is(err, redis.Nil):
	default:
		c.logger.WarnContext(ctx, "lattice cache read failed",
			"lattice_id", latticeID,
			"error", err,
		)
	}

	rec, err := c.backend.FindByLatticeID(ctx, latticeID)
	if err != nil {
		c.metrics.RecordLookup("miss", "store")
		return nil, err
	}
	c.metrics.RecordLookup("hit", "store")

	if encoded, jsonErr := json.Marshal(rec); jsonErr == nil {
		if setErr := c.client.Set(ctx, key, encoded, c.ttl).Err(); setErr != nil {
			c.logger.WarnContext(ctx, "lattice cache fill failed",
				"lattice_id", latticeID,
				"error", setErr,
			)
		}
	}
	return rec, nil
}

func (c *RedisCache) ListRecent(ctx context.Context, limit int) ([]models.VerificationRecord, error) {
	return c.backend.ListRecent(ctx, limit)
}

func (c *RedisCache) Count(ctx context.Context) (int, error) {
	return c.backend.Count(ctx)
}
