package report

import (
	"context"
	"log/slog"

	"pebble/internal/lattice/models"
)

// Log writes one structured line per batch and one per skipped entity.
type Log struct {
	logger *slog.Logger
}

func NewLog(logger *slog.Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) Report(ctx context.Context, report *models.BatchReport) error {
	counts := report.TierCounts()
	l.logger.InfoContext(ctx, "batch report",
		"batch_id", report.ID,
		"sync_status", report.SyncStatus,
		"total_entities", report.TotalEntities,
		"records", len(report.Records),
		"priority_synced", report.PrioritySyncedCount,
		"tier_sovereign", counts[models.TierSovereign],
		"tier_dynastic", counts[models.TierDynastic],
		"tier_operational", counts[models.TierOperational],
		"tier_market", counts[models.TierMarket],
		"interval", report.IntervalParameter,
		"algorithm", report.Algorithm,
		"duration_ms", report.CompletedAt.Sub(report.StartedAt).Milliseconds(),
	)
	for _, e := range report.Errors {
		l.logger.WarnContext(ctx, "entity skipped",
			"batch_id", report.ID,
			"position", e.Position,
			"entity_name", e.EntityName,
			"numeric_id", e.NumericID,
			"code", e.Code,
			"reason", e.Reason,
		)
	}
	return nil
}
