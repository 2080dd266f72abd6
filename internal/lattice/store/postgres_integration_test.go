//go:build integration

package store_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"pebble/internal/lattice/models"
	"pebble/internal/lattice/store"
	"pebble/pkg/platform/sentinel"
	txcontext "pebble/pkg/platform/tx"
	"pebble/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(), "pebble_lattice")
	s.Require().NoError(err)
}

func newRecord(i int, generatedAt time.Time) models.VerificationRecord {
	return models.VerificationRecord{
		EntityName:  fmt.Sprintf("Entity %d", i),
		NumericID:   int64(i),
		LatticeID:   fmt.Sprintf("PBL-%08X-%05d", i, i),
		CodexHash:   fmt.Sprintf("%064x", i),
		Verified:    true,
		Tier:        models.TierOperational,
		GeneratedAt: generatedAt,
	}
}

func (s *PostgresStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	generated := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	rec := newRecord(1, generated)

	s.Require().NoError(s.store.Save(ctx, []models.VerificationRecord{rec}))

	got, err := s.store.FindByLatticeID(ctx, rec.LatticeID)
	s.Require().NoError(err)
	s.Equal(rec.EntityName, got.EntityName)
	s.Equal(rec.CodexHash, got.CodexHash)
	s.Equal(rec.Tier, got.Tier)
	s.True(got.GeneratedAt.Equal(generated))

	_, err = s.store.FindByLatticeID(ctx, "PBL-00000000-00000")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestUpsertKeepsOneRowPerLatticeID() {
	ctx := context.Background()
	rec := newRecord(2, time.Now().UTC())
	s.Require().NoError(s.store.Save(ctx, []models.VerificationRecord{rec}))

	rec.Tier = models.TierSovereign
	s.Require().NoError(s.store.Save(ctx, []models.VerificationRecord{rec}))

	n, err := s.store.Count(ctx)
	s.Require().NoError(err)
	s.Equal(1, n)

	got, err := s.store.FindByLatticeID(ctx, rec.LatticeID)
	s.Require().NoError(err)
	s.Equal(models.TierSovereign, got.Tier)
}

func (s *PostgresStoreSuite) TestListRecentOrdering() {
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var records []models.VerificationRecord
	for i := range 5 {
		records = append(records, newRecord(i, base.Add(time.Duration(i)*time.Minute)))
	}
	s.Require().NoError(s.store.Save(ctx, records))

	got, err := s.store.ListRecent(ctx, 3)
	s.Require().NoError(err)
	s.Require().Len(got, 3)
	s.Equal(records[4].LatticeID, got[0].LatticeID)
	s.Equal(records[3].LatticeID, got[1].LatticeID)
	s.Equal(records[2].LatticeID, got[2].LatticeID)
}

func (s *PostgresStoreSuite) TestRolledBackTransactionLeavesNoRows() {
	ctx := context.Background()
	tx, err := s.postgres.DB.BeginTx(ctx, nil)
	s.Require().NoError(err)

	s.Require().NoError(s.store.Save(txcontext.WithTx(ctx, tx), []models.VerificationRecord{newRecord(9, time.Now().UTC())}))
	s.Require().NoError(tx.Rollback())

	n, err := s.store.Count(ctx)
	s.Require().NoError(err)
	s.Zero(n)
}

// TestConcurrentBatches verifies that overlapping batches upserting the same
// lattice IDs never duplicate rows.
func (s *PostgresStoreSuite) TestConcurrentBatches() {
	ctx := context.Background()
	now := time.Now().UTC()
	batch := make([]models.VerificationRecord, 20)
	for i := range batch {
		batch[i] = newRecord(i, now)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.store.Save(ctx, batch)
		}()
	}
	wg.Wait()
	close(errs)

	// Every batch upserts in the same key order, so row locks queue rather
	// than deadlock.
	for err := range errs {
		s.NoError(err)
	}

	n, err := s.store.Count(ctx)
	s.Require().NoError(err)
	s.Equal(len(batch), n)
}
