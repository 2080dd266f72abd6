package models

import (
	"time"

	dErrors "pebble/pkg/domain-errors"
)

// Entity is the input unit supplied by a data source. The pipeline never
// owns or mutates it.
//
// Invariants:
//   - Name is non-empty
//   - NumericID is non-negative
type Entity struct {
	Name      string `json:"name"`
	NumericID int64  `json:"id"`
}

// Validate rejects entities whose digest input would be ambiguous.
// An empty name would collide with every other empty-named entity sharing
// the same numeric ID.
func (e Entity) Validate() error {
	if e.Name == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "entity name is required")
	}
	if e.NumericID < 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "entity numeric id must be non-negative")
	}
	return nil
}

// VerificationRecord is produced once per entity per pipeline run.
// LatticeID and CodexHash are pure functions of the entity (and, for the
// codex hash, the interval). Tier is set by the batch aggregator, never by
// the verifier.
type VerificationRecord struct {
	EntityName  string    `json:"entity_name"`
	NumericID   int64     `json:"numeric_id"`
	LatticeID   string    `json:"lattice_id"`
	CodexHash   string    `json:"codex_hash"`
	Verified    bool      `json:"verified"`
	Tier        Tier      `json:"tier,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
}

// SyncStatus summarises whether every entity in a batch was verified.
type SyncStatus string

const (
	SyncStatusComplete SyncStatus = "COMPLETE"
	SyncStatusPartial  SyncStatus = "PARTIAL"
)

// EntityError records one entity skipped by the aggregator.
type EntityError struct {
	Position   int    `json:"position"`
	EntityName string `json:"entity_name"`
	NumericID  int64  `json:"numeric_id"`
	Code       string `json:"code"`
	Reason     string `json:"reason"`
}

// BatchReport is the terminal artifact of one aggregation run.
//
// Invariants:
//   - Records preserve input order (minus skipped entities)
//   - PrioritySyncedCount == number of records with Tier == TierSovereign
//   - SyncStatus is PARTIAL iff Errors is non-empty or the run timed out
type BatchReport struct {
	ID                  string               `json:"batch_id"`
	TotalEntities       int                  `json:"total_entities"`
	Records             []VerificationRecord `json:"records"`
	PrioritySyncedCount int                  `json:"priority_synced_count"`
	SyncStatus          SyncStatus           `json:"sync_status"`
	Errors              []EntityError        `json:"errors,omitempty"`
	IntervalParameter   int                  `json:"interval_parameter"`
	Algorithm           string               `json:"algorithm"`
	StartedAt           time.Time            `json:"started_at"`
	CompletedAt         time.Time            `json:"completed_at"`
}

// TierCounts returns how many records landed in each tier.
func (r *BatchReport) TierCounts() map[Tier]int {
	counts := make(map[Tier]int, len(AllTiers()))
	for _, rec := range r.Records {
		counts[rec.Tier]++
	}
	return counts
}

// PriorityRecords returns the records in the highest-priority tier, in order.
func (r *BatchReport) PriorityRecords() []VerificationRecord {
	var out []VerificationRecord
	for _, rec := range r.Records {
		if rec.Tier == TierSovereign {
			out = append(out, rec)
		}
	}
	return out
}
