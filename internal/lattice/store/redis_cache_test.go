package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"pebble/internal/lattice/metrics"
	"pebble/internal/lattice/models"
	"pebble/pkg/platform/sentinel"
)

type RedisCacheSuite struct {
	suite.Suite
	mr      *miniredis.Miniredis
	backend *InMemoryStore
	metrics *metrics.Metrics
	cache   *RedisCache
	ctx     context.Context
}

func TestRedisCacheSuite(t *testing.T) {
	suite.Run(t, new(RedisCacheSuite))
}

func (s *RedisCacheSuite) SetupTest() {
	s.mr = miniredis.RunT(s.T())
	client := redis.NewClient(&redis.Options{Addr: s.mr.Addr(), MaxRetries: -1})
	s.T().Cleanup(func() { _ = client.Close() })

	s.backend = NewInMemory()
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.cache = NewRedisCache(client, s.backend,
		WithCacheTTL(time.Minute),
		WithCacheMetrics(s.metrics),
	)
	s.ctx = context.Background()
}

func (s *RedisCacheSuite) TestSaveWritesThroughAndCaches() {
	rec := record("PBL-A", time.Now().UTC())
	s.Require().NoError(s.cache.Save(s.ctx, []models.VerificationRecord{rec}))

	stored, err := s.backend.FindByLatticeID(s.ctx, "PBL-A")
	s.Require().NoError(err)
	s.Equal(rec.CodexHash, stored.CodexHash)

	s.True(s.mr.Exists(recordKeyPrefix + "PBL-A"))
	s.Equal(time.Minute, s.mr.TTL(recordKeyPrefix+"PBL-A"))
}

func (s *RedisCacheSuite) TestLookupServedFromCache() {
	rec := record("PBL-A", time.Now().UTC())
	s.Require().NoError(s.cache.Save(s.ctx, []models.VerificationRecord{rec}))

	got, err := s.cache.FindByLatticeID(s.ctx, "PBL-A")
	s.Require().NoError(err)
	s.Equal(rec.LatticeID, got.LatticeID)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Lookups.WithLabelValues("hit", "cache")))
	s.Equal(0.0, testutil.ToFloat64(s.metrics.Lookups.WithLabelValues("hit", "store")))
}

func (s *RedisCacheSuite) TestLookupMissFillsCache() {
	rec := record("PBL-B", time.Now().UTC())
	s.Require().NoError(s.backend.Save(s.ctx, []models.VerificationRecord{rec}))
	s.False(s.mr.Exists(recordKeyPrefix + "PBL-B"))

	got, err := s.cache.FindByLatticeID(s.ctx, "PBL-B")
	s.Require().NoError(err)
	s.Equal("hash-PBL-B", got.CodexHash)
	s.True(s.mr.Exists(recordKeyPrefix + "PBL-B"))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Lookups.WithLabelValues("hit", "store")))
}

func (s *RedisCacheSuite) TestLookupNotFound() {
	_, err := s.cache.FindByLatticeID(s.ctx, "PBL-MISSING")
	s.ErrorIs(err, sentinel.ErrNotFound)
	s.False(s.mr.Exists(recordKeyPrefix + "PBL-MISSING"))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Lookups.WithLabelValues("miss", "store")))
}

func (s *RedisCacheSuite) TestCorruptEntryFallsBackToBackend() {
	rec := record("PBL-C", time.Now().UTC())
	s.Require().NoError(s.backend.Save(s.ctx, []models.VerificationRecord{rec}))
	s.Require().NoError(s.mr.Set(recordKeyPrefix+"PBL-C", "not-json"))

	got, err := s.cache.FindByLatticeID(s.ctx, "PBL-C")
	s.Require().NoError(err)
	s.Equal("hash-PBL-C", got.CodexHash)
}

func (s *RedisCacheSuite) TestRedisOutageDegradesToBackend() {
	rec := record("PBL-D", time.Now().UTC())
	s.mr.SetError("LOADING server is loading")

	s.Require().NoError(s.cache.Save(s.ctx, []models.VerificationRecord{rec}), "cache failures never fail a save")

	got, err := s.cache.FindByLatticeID(s.ctx, "PBL-D")
	s.Require().NoError(err)
	s.Equal("hash-PBL-D", got.CodexHash)
}

func (s *RedisCacheSuite) TestListAndCountDelegate() {
	now := time.Now().UTC()
	s.Require().NoError(s.cache.Save(s.ctx, []models.VerificationRecord{
		record("PBL-A", now),
		record("PBL-B", now.Add(time.Second)),
	}))

	n, err := s.cache.Count(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, n)

	recent, err := s.cache.ListRecent(s.ctx, 1)
	s.Require().NoError(err)
	s.Require().Len(recent, 1)
	s.Equal("PBL-B", recent[0].LatticeID)
}
