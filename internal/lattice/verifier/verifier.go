package verifier

import (
	"context"

	"pebble/internal/lattice/hashing"
	"pebble/internal/lattice/models"
	dErrors "pebble/pkg/domain-errors"
	"pebble/pkg/requestcontext"
)

// Config fixes the salts, interval and digest for the verifier's lifetime.
type Config struct {
	LatticeSalt string
	CodexSalt   string
	Interval    int
	Algorithm   hashing.Algorithm
}

// DefaultConfig reproduces the legacy identifiers.
func DefaultConfig() Config {
	return Config{
		LatticeSalt: hashing.LatticeSalt,
		CodexSalt:   hashing.CodexSalt,
		Interval:    hashing.DefaultInterval,
		Algorithm:   hashing.AlgorithmSHA256,
	}
}

// Verifier combines the lattice ID and codex hash into one record per entity.
// It never rejects a valid entity and never assigns a tier.
type Verifier struct {
	latticeSalt string
	hasher      *hashing.Hasher
}

// New validates cfg and returns a Verifier. Configuration problems are
// fatal: they would yield identifiers no other party can reproduce.
func New(cfg Config) (*Verifier, error) {
	if cfg.LatticeSalt == "" {
		return nil, dErrors.New(dErrors.CodeConfiguration, "lattice salt is required")
	}
	hasher, err := hashing.NewHasher(cfg.CodexSalt, cfg.Interval, cfg.Algorithm)
	if err != nil {
		return nil, err
	}
	return &Verifier{latticeSalt: cfg.LatticeSalt, hasher: hasher}, nil
}

// Interval returns the interval parameter this verifier hashes with.
func (v *Verifier) Interval() int {
	return v.hasher.Interval()
}

// Algorithm returns the codex digest in use.
func (v *Verifier) Algorithm() hashing.Algorithm {
	return v.hasher.Algorithm()
}

// Verify derives the record for entity. GeneratedAt comes from
// requestcontext.Now, so callers can pin a batch to one timestamp.
func (v *Verifier) Verify(ctx context.Context, entity models.Entity) (*models.VerificationRecord, error) {
	if err := entity.Validate(); err != nil {
		return nil, err
	}

	latticeID, err := hashing.GenerateLatticeIDWithSalt(entity.Name, entity.NumericID, v.latticeSalt)
	if err != nil {
		return nil, err
	}
	codex, err := v.hasher.CodexHash(entity.Name, entity.NumericID)
	if err != nil {
		return nil, err
	}

	return &models.VerificationRecord{
		EntityName:  entity.Name,
		NumericID:   entity.NumericID,
		LatticeID:   latticeID,
		CodexHash:   codex,
		Verified:    true,
		GeneratedAt: requestcontext.Now(ctx),
	}, nil
}
