package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks RecordStore,Reporter,Aggregator

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"pebble/internal/lattice/batch"
	"pebble/internal/lattice/models"
	dErrors "pebble/pkg/domain-errors"
	"pebble/pkg/platform/sentinel"
	"pebble/pkg/requestcontext"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 500

	// StatusActive is reported while the service can accept batches.
	StatusActive = "ACTIVE"

	interruptedGracePeriod = 10 * time.Second
)

type RecordStore interface {
	Save(ctx context.Context, records []models.VerificationRecord) error
	FindByLatticeID(ctx context.Context, latticeID string) (*models.VerificationRecord, error)
	ListRecent(ctx context.Context, limit int) ([]models.VerificationRecord, error)
	Count(ctx context.Context) (int, error)
}

// Reporter receives every finished batch report.
type Reporter interface {
	Report(ctx context.Context, report *models.BatchReport) error
}

type Aggregator interface {
	Aggregate(ctx context.Context, entities []models.Entity) (*models.BatchReport, error)
}

// StatusResult describes the running pipeline configuration.
type StatusResult struct {
	Status        string    `json:"status"`
	PulseInterval int       `json:"pulse_interval"`
	Algorithm     string    `json:"algorithm"`
	TierPolicy    string    `json:"tier_policy"`
	RecordsStored int       `json:"records_stored"`
	CheckedAt     time.Time `json:"checked_at"`
}

// Service orchestrates verification, batch sync and record lookup.
type Service struct {
	verifier   batch.Verifier
	aggregator Aggregator
	records    RecordStore
	reporters  []Reporter
	tierPolicy string
	logger     *slog.Logger
	tracer     trace.Tracer
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithReporters appends reporters run after every sync, in order.
func WithReporters(reporters ...Reporter) Option {
	return func(s *Service) {
		for _, r := range reporters {
			if r != nil {
				s.reporters = append(s.reporters, r)
			}
		}
	}
}

// WithTierPolicy records the tier policy name shown by Status.
func WithTierPolicy(name string) Option {
	return func(s *Service) {
		s.tierPolicy = name
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// New constructs a Service. The verifier, aggregator and record store are required.
func New(v batch.Verifier, aggregator Aggregator, records RecordStore, opts ...Option) (*Service, error) {
	if batch.IsNilVerifier(v) {
		return nil, dErrors.New(dErrors.CodeConfiguration, "verifier is required")
	}
	if aggregator == nil {
		return nil, dErrors.New(dErrors.CodeConfiguration, "aggregator is required")
	}
	if records == nil {
		return nil, dErrors.New(dErrors.CodeConfiguration, "record store is required")
	}

	s := &Service{
		verifier:   v,
		aggregator: aggregator,
		records:    records,
		tierPolicy: "random",
		logger:     slog.New(slog.DiscardHandler),
		tracer:     otel.Tracer("pebble/internal/lattice/service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Verify produces a single untiered record. Nothing is persisted.
func (s *Service) Verify(ctx context.Context, entity models.Entity) (*models.VerificationRecord, error) {
	return s.verifier.Verify(ctx, entity)
}

// Sync aggregates entities, persists the resulting records and hands the
// report to every reporter.
//
// A batch that hit its deadline or was cancelled is still persisted and
// reported; its timeout error is returned alongside the partial report. Reporter failures do not
// stop later reporters and are joined into one internal error.
func (s *Service) Sync(ctx context.Context, entities []models.Entity) (*models.BatchReport, error) {
	ctx, span := s.tracer.Start(ctx, "lattice.sync", trace.WithAttributes(
		attribute.Int("batch.entities", len(entities)),
	))
	defer span.End()

	report, aggErr := s.aggregator.Aggregate(ctx, entities)
	if report == nil {
		span.RecordError(aggErr)
		span.SetStatus(codes.Error, "aggregate failed")
		if aggErr == nil {
			aggErr = dErrors.New(dErrors.CodeInternal, "aggregator returned no report")
		}
		return nil, aggErr
	}
	span.SetAttributes(attribute.String("batch.id", report.ID))

	// An interrupted batch arrives with ctx already done; its partial
	// records are still saved and reported within a bounded grace period.
	if aggErr != nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.WithoutCancel(ctx), interruptedGracePeriod)
		defer cancel()
	}

	if len(report.Records) > 0 {
		if err := s.records.Save(ctx, report.Records); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "persist failed")
			s.logger.ErrorContext(ctx, "failed to persist lattice records",
				"batch_id", report.ID,
				"records", len(report.Records),
				"error", err,
			)
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist lattice records")
		}
	}

	reportErr := s.deliver(ctx, report)

	s.logger.InfoContext(ctx, "lattice sync finished",
		"batch_id", report.ID,
		"request_id", requestcontext.RequestID(ctx),
		"sync_status", report.SyncStatus,
		"records", len(report.Records),
		"priority_synced", report.PrioritySyncedCount,
	)

	if aggErr != nil {
		span.SetStatus(codes.Error, "batch interrupted")
		return report, aggErr
	}
	if reportErr != nil {
		span.SetStatus(codes.Error, "report delivery failed")
		return report, dErrors.Wrap(reportErr, dErrors.CodeInternal, "report delivery failed")
	}
	return report, nil
}

func (s *Service) deliver(ctx context.Context, report *models.BatchReport) error {
	var errs []error
	for _, r := range s.reporters {
		if err := r.Report(ctx, report); err != nil {
			s.logger.WarnContext(ctx, "reporter failed",
				"batch_id", report.ID,
				"error", err,
			)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Service) Lookup(ctx context.Context, latticeID string) (*models.VerificationRecord, error) {
	latticeID = strings.TrimSpace(latticeID)
	if latticeID == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "lattice id is required")
	}

	rec, err := s.records.FindByLatticeID(ctx, latticeID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "lattice record not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load lattice record")
	}
	return rec, nil
}

// ListRecent returns the newest stored records. A non-positive limit means
// DefaultListLimit; larger limits are capped at MaxListLimit.
func (s *Service) ListRecent(ctx context.Context, limit int) ([]models.VerificationRecord, error) {
	switch {
	case limit <= 0:
		limit = DefaultListLimit
	case limit > MaxListLimit:
		limit = MaxListLimit
	}

	records, err := s.records.ListRecent(ctx, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list lattice records")
	}
	if records == nil {
		records = []models.VerificationRecord{}
	}
	return records, nil
}

func (s *Service) Status(ctx context.Context) (*StatusResult, error) {
	n, err := s.records.Count(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count lattice records")
	}
	return &StatusResult{
		Status:        StatusActive,
		PulseInterval: s.verifier.Interval(),
		Algorithm:     string(s.verifier.Algorithm()),
		TierPolicy:    s.tierPolicy,
		RecordsStored: n,
		CheckedAt:     requestcontext.Now(ctx),
	}, nil
}
