package store

import (
	"context"
	"slices"
	"strings"
	"sync"

	"pebble/internal/lattice/models"
	"pebble/pkg/platform/sentinel"
)

// InMemoryStore keeps verification records in a map keyed by lattice ID.
// Suitable for tests and single-process runs.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string]models.VerificationRecord
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		records: make(map[string]models.VerificationRecord),
	}
}

// Save upserts records by lattice ID.
func (s *InMemoryStore) Save(_ context.Context, records []models.VerificationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range records {
		s.records[rec.LatticeID] = rec
	}
	return nil
}

func (s *InMemoryStore) FindByLatticeID(_ context.Context, latticeID string) (*models.VerificationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[latticeID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &rec, nil
}

// ListRecent returns up to limit records, newest GeneratedAt first. Ties
// are broken by lattice ID.
func (s *InMemoryStore) ListRecent(_ context.Context, limit int) ([]models.VerificationRecord, error) {
	s.mu.RLock()
	out := make([]models.VerificationRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b models.VerificationRecord) int {
		if c := b.GeneratedAt.Compare(a.GeneratedAt); c != 0 {
			return c
		}
		return strings.Compare(a.LatticeID, b.LatticeID)
	})
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *InMemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}
