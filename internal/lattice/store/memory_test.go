package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pebble/internal/lattice/models"
	"pebble/pkg/platform/sentinel"
)

func record(latticeID string, generatedAt time.Time) models.VerificationRecord {
	return models.VerificationRecord{
		EntityName:  "Entity " + latticeID,
		NumericID:   1,
		LatticeID:   latticeID,
		CodexHash:   "hash-" + latticeID,
		Verified:    true,
		Tier:        models.TierDynastic,
		GeneratedAt: generatedAt,
	}
}

func TestInMemoryStore_SaveAndFind(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()
	now := time.Now().UTC()

	require.NoError(t, s.Save(ctx, []models.VerificationRecord{record("PBL-A", now)}))

	got, err := s.FindByLatticeID(ctx, "PBL-A")
	require.NoError(t, err)
	assert.Equal(t, "hash-PBL-A", got.CodexHash)

	_, err = s.FindByLatticeID(ctx, "PBL-MISSING")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestInMemoryStore_SaveUpserts(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()
	now := time.Now().UTC()

	first := record("PBL-A", now)
	require.NoError(t, s.Save(ctx, []models.VerificationRecord{first}))

	second := first
	second.Tier = models.TierSovereign
	require.NoError(t, s.Save(ctx, []models.VerificationRecord{second}))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := s.FindByLatticeID(ctx, "PBL-A")
	require.NoError(t, err)
	assert.Equal(t, models.TierSovereign, got.Tier)
}

func TestInMemoryStore_ListRecent(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.Save(ctx, []models.VerificationRecord{
		record("PBL-OLD", base),
		record("PBL-NEW", base.Add(2*time.Hour)),
		record("PBL-B", base.Add(time.Hour)),
		record("PBL-A", base.Add(time.Hour)),
	}))

	got, err := s.ListRecent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "PBL-NEW", got[0].LatticeID)
	assert.Equal(t, "PBL-A", got[1].LatticeID, "ties ordered by lattice id")
	assert.Equal(t, "PBL-B", got[2].LatticeID)

	all, err := s.ListRecent(ctx, 100)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestInMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()
	require.NoError(t, s.Save(ctx, []models.VerificationRecord{record("PBL-A", time.Now())}))

	got, err := s.FindByLatticeID(ctx, "PBL-A")
	require.NoError(t, err)
	got.CodexHash = "mutated"

	again, err := s.FindByLatticeID(ctx, "PBL-A")
	require.NoError(t, err)
	assert.Equal(t, "hash-PBL-A", again.CodexHash)
}
