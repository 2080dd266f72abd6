// Package report delivers finished batch reports to their destinations:
// files, the console, the log, and the provisioning mesh.
package report

import (
	"context"
	"errors"

	"pebble/internal/lattice/models"
)

// Reporter receives a finished batch report.
type Reporter interface {
	Report(ctx context.Context, report *models.BatchReport) error
}

// Fanout runs every reporter in order, even after a failure, and joins
// their errors.
type Fanout []Reporter

func (f Fanout) Report(ctx context.Context, report *models.BatchReport) error {
	var errs []error
	for _, r := range f {
		if r == nil {
			continue
		}
		if err := r.Report(ctx, report); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Summary is the serialized form of a batch written to files and logs.
type Summary struct {
	System              string                      `json:"system"`
	BatchID             string                      `json:"batch_id"`
	SyncStatus          models.SyncStatus           `json:"sync_status"`
	TotalEntities       int                         `json:"total_entities"`
	RecordCount         int                         `json:"record_count"`
	PrioritySyncedCount int                         `json:"priority_synced_count"`
	TierCounts          map[models.Tier]int         `json:"tier_counts"`
	IntervalParameter   int                         `json:"interval_parameter"`
	Algorithm           string                      `json:"algorithm"`
	StartedAt           string                      `json:"started_at"`
	CompletedAt         string                      `json:"completed_at"`
	Records             []models.VerificationRecord `json:"records"`
	Errors              []models.EntityError        `json:"errors,omitempty"`
}

const systemName = "PEBBLE LATTICE"

func Summarize(report *models.BatchReport) Summary {
	records := report.Records
	if records == nil {
		records = []models.VerificationRecord{}
	}
	return Summary{
		System:              systemName,
		BatchID:             report.ID,
		SyncStatus:          report.SyncStatus,
		TotalEntities:       report.TotalEntities,
		RecordCount:         len(report.Records),
		PrioritySyncedCount: report.PrioritySyncedCount,
		TierCounts:          report.TierCounts(),
		IntervalParameter:   report.IntervalParameter,
		Algorithm:           report.Algorithm,
		StartedAt:           report.StartedAt.UTC().Format(timeLayout),
		CompletedAt:         report.CompletedAt.UTC().Format(timeLayout),
		Records:             records,
		Errors:              report.Errors,
	}
}

const timeLayout = "2006-01-02T15:04:05.000Z07:00"
