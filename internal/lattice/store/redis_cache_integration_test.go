//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"pebble/internal/lattice/models"
	"pebble/internal/lattice/store"
	"pebble/pkg/testutil/containers"
)

type RedisCacheIntegrationSuite struct {
	suite.Suite
	redis   *containers.RedisContainer
	backend *store.InMemoryStore
	cache   *store.RedisCache
}

func TestRedisCacheIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisCacheIntegrationSuite))
}

func (s *RedisCacheIntegrationSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
}

func (s *RedisCacheIntegrationSuite) SetupTest() {
	s.Require().NoError(s.redis.Reset(context.Background()))
	s.backend = store.NewInMemory()
	s.cache = store.NewRedisCache(s.redis.Client, s.backend, store.WithCacheTTL(time.Minute))
}

func (s *RedisCacheIntegrationSuite) TestCachedRecordSurvivesBackendLoss() {
	ctx := context.Background()
	rec := models.VerificationRecord{
		EntityName:  "TechCorp Solutions",
		NumericID:   1,
		LatticeID:   "PBL-6D5E4193-00001",
		CodexHash:   "1bf5f54aa642c0974a8b5432647d63d5008d590c66454b4c61e12adbb2472511",
		Verified:    true,
		Tier:        models.TierSovereign,
		GeneratedAt: time.Now().UTC(),
	}
	s.Require().NoError(s.cache.Save(ctx, []models.VerificationRecord{rec}))

	// Replace the backend contents; the cached copy must still be served.
	s.Require().NoError(s.backend.Save(ctx, []models.VerificationRecord{{LatticeID: rec.LatticeID, CodexHash: "stale"}}))

	got, err := s.cache.FindByLatticeID(ctx, rec.LatticeID)
	s.Require().NoError(err)
	s.Equal(rec.CodexHash, got.CodexHash)

	ttl, err := s.redis.Client.TTL(ctx, "pebble:lattice:"+rec.LatticeID).Result()
	s.Require().NoError(err)
	s.Positive(ttl)
}
