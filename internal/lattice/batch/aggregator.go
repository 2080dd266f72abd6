package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"pebble/internal/lattice/hashing"
	"pebble/internal/lattice/metrics"
	"pebble/internal/lattice/models"
	"pebble/internal/lattice/tier"
	"pebble/internal/lattice/verifier"
	dErrors "pebble/pkg/domain-errors"
	"pebble/pkg/requestcontext"
)

const tracerName = "pebble/internal/lattice/batch"

// Verifier produces one record per entity under a fixed configuration.
type Verifier interface {
	Verify(ctx context.Context, entity models.Entity) (*models.VerificationRecord, error)
	Interval() int
	Algorithm() hashing.Algorithm
}

// Aggregator verifies a list of entities, tags each with a tier and reduces
// the results into a BatchReport.
type Aggregator struct {
	verifier Verifier
	tiers    tier.Assigner
	workers  int
	timeout  time.Duration
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
}

type Option func(*Aggregator)

// WithWorkers sets how many entities are verified concurrently. Values
// below one are treated as one (strictly sequential).
func WithWorkers(n int) Option {
	return func(a *Aggregator) {
		if n < 1 {
			n = 1
		}
		a.workers = n
	}
}

// WithTimeout bounds a whole Aggregate call. Zero disables the deadline.
func WithTimeout(d time.Duration) Option {
	return func(a *Aggregator) {
		a.timeout = d
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(a *Aggregator) {
		a.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Aggregator) {
		a.metrics = m
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(a *Aggregator) {
		a.tracer = t
	}
}

// IsNilVerifier reports whether v is nil, including a nil *verifier.Verifier
// held in the interface. Other implementations are trusted to be usable.
func IsNilVerifier(v Verifier) bool {
	if v == nil {
		return true
	}
	concrete, ok := v.(*verifier.Verifier)
	return ok && concrete == nil
}

// New builds an Aggregator. The verifier and tier policy are required.
func New(v Verifier, tiers tier.Assigner, opts ...Option) (*Aggregator, error) {
	if IsNilVerifier(v) {
		return nil, dErrors.New(dErrors.CodeConfiguration, "verifier is required")
	}
	if tiers == nil {
		return nil, dErrors.New(dErrors.CodeConfiguration, "tier assigner is required")
	}

	a := &Aggregator{
		verifier: v,
		tiers:    tiers,
		workers:  1,
		logger:   slog.New(slog.DiscardHandler),
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// slot holds the outcome for one input position. Each worker writes only
// its own slot; merging happens after all workers finish.
type slot struct {
	done   bool
	record *models.VerificationRecord
	err    *models.EntityError
}

// Aggregate runs the verifier over entities and returns the batch report.
//
// Invalid entities are skipped and listed in report.Errors (fail-soft); the
// report is then PARTIAL. Records keep input order whatever the worker count.
// If the deadline expires, the report holds the records finished so far and
// a timeout error is returned alongside it.
func (a *Aggregator) Aggregate(ctx context.Context, entities []models.Entity) (*models.BatchReport, error) {
	start := time.Now()
	startedAt := requestcontext.Now(ctx)
	batchID := uuid.NewString()

	ctx, span := a.tracer.Start(ctx, "lattice.batch.aggregate", trace.WithAttributes(
		attribute.String("batch.id", batchID),
		attribute.Int("batch.entities", len(entities)),
		attribute.Int("batch.workers", a.workers),
	))
	defer span.End()

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	slots := make([]slot, len(entities))
	g := new(errgroup.Group)
	g.SetLimit(a.workers)
	for i := range entities {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			slots[i] = a.process(ctx, i, entities[i])
			return nil
		})
	}
	_ = g.Wait()

	report := &models.BatchReport{
		ID:                batchID,
		TotalEntities:     len(entities),
		Records:           make([]models.VerificationRecord, 0, len(entities)),
		IntervalParameter: a.verifier.Interval(),
		Algorithm:         string(a.verifier.Algorithm()),
		StartedAt:         startedAt,
	}
	unprocessed := a.merge(ctx, report, slots)

	report.SyncStatus = models.SyncStatusComplete
	if len(report.Errors) > 0 || unprocessed > 0 {
		report.SyncStatus = models.SyncStatusPartial
	}
	elapsed := time.Since(start)
	report.CompletedAt = startedAt.Add(elapsed)

	a.metrics.ObserveBatch(string(report.SyncStatus), report.PrioritySyncedCount, elapsed)
	span.SetAttributes(
		attribute.String("batch.sync_status", string(report.SyncStatus)),
		attribute.Int("batch.records", len(report.Records)),
		attribute.Int("batch.priority_synced", report.PrioritySyncedCount),
	)

	var err error
	if unprocessed > 0 {
		err = interruptedError(ctx.Err(), unprocessed, len(entities))
		span.RecordError(err)
		span.SetStatus(codes.Error, "batch interrupted")
		a.logger.ErrorContext(ctx, "batch interrupted",
			"batch_id", batchID,
			"unprocessed", unprocessed,
			"total_entities", len(entities),
			"error", err,
		)
	}

	a.logger.InfoContext(ctx, "batch aggregated",
		"batch_id", batchID,
		"total_entities", report.TotalEntities,
		"records", len(report.Records),
		"errors", len(report.Errors),
		"priority_synced", report.PrioritySyncedCount,
		"sync_status", report.SyncStatus,
		"duration_ms", elapsed.Milliseconds(),
	)
	return report, err
}

func (a *Aggregator) process(ctx context.Context, position int, entity models.Entity) slot {
	record, err := a.verifier.Verify(ctx, entity)
	if err != nil {
		return slot{done: true, err: &models.EntityError{
			Position:   position,
			EntityName: entity.Name,
			NumericID:  entity.NumericID,
			Code:       string(dErrors.CodeOf(err)),
			Reason:     reasonOf(err),
		}}
	}
	record.Tier = a.tiers.Assign(entity)
	return slot{done: true, record: record}
}

// merge folds slots into report in input order and returns how many
// positions never ran.
func (a *Aggregator) merge(ctx context.Context, report *models.BatchReport, slots []slot) int {
	unprocessed := 0
	for _, s := range slots {
		switch {
		case !s.done:
			unprocessed++
		case s.err != nil:
			report.Errors = append(report.Errors, *s.err)
			a.metrics.IncEntityFailure(s.err.Code)
			a.logger.WarnContext(ctx, "entity skipped",
				"batch_id", report.ID,
				"position", s.err.Position,
				"numeric_id", s.err.NumericID,
				"code", s.err.Code,
				"reason", s.err.Reason,
			)
		default:
			report.Records = append(report.Records, *s.record)
			a.metrics.IncRecordVerified(string(s.record.Tier))
			if s.record.Tier == models.TierSovereign {
				report.PrioritySyncedCount++
			}
		}
	}
	return unprocessed
}

func interruptedError(cause error, unprocessed, total int) error {
	if cause == nil {
		cause = context.Canceled
	}
	msg := fmt.Sprintf("batch cancelled with %d of %d entities unprocessed", unprocessed, total)
	if errors.Is(cause, context.DeadlineExceeded) {
		msg = fmt.Sprintf("batch deadline exceeded with %d of %d entities unprocessed", unprocessed, total)
	}
	return dErrors.Wrap(cause, dErrors.CodeTimeout, msg)
}

func reasonOf(err error) string {
	var de *dErrors.Error
	if errors.As(err, &de) {
		return de.Message
	}
	return err.Error()
}
