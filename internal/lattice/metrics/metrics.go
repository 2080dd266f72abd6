package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for verification and batch sync.
type Metrics struct {
	// Batches by final sync status
	BatchesTotal *prometheus.CounterVec

	// Records verified, by assigned tier
	RecordsVerified *prometheus.CounterVec

	// Entities skipped by error code
	EntityFailures *prometheus.CounterVec

	// Sovereign records per batch
	PrioritySynced prometheus.Counter

	BatchDuration prometheus.Histogram

	// Record lookups by outcome ("hit", "miss") and source ("cache", "store")
	Lookups *prometheus.CounterVec
}

// New registers all lattice metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		BatchesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pebble_lattice_batches_total",
			Help: "Total batch sync runs by final sync status",
		}, []string{"status"}), // status: "COMPLETE", "PARTIAL"

		RecordsVerified: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pebble_lattice_records_verified_total",
			Help: "Total verification records produced, by tier",
		}, []string{"tier"}),

		EntityFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pebble_lattice_entity_failures_total",
			Help: "Entities skipped during aggregation, by error code",
		}, []string{"code"}),

		PrioritySynced: f.NewCounter(prometheus.CounterOpts{
			Name: "pebble_lattice_priority_synced_total",
			Help: "Total records synced in the highest-priority tier",
		}),

		BatchDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "pebble_lattice_batch_duration_seconds",
			Help:    "Duration of a full batch aggregation",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		}),

		Lookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pebble_lattice_lookups_total",
			Help: "Record lookups by outcome and source",
		}, []string{"outcome", "source"}),
	}
}

// ObserveBatch records one finished batch.
func (m *Metrics) ObserveBatch(status string, prioritySynced int, d time.Duration) {
	if m == nil {
		return
	}
	m.BatchesTotal.WithLabelValues(status).Inc()
	m.PrioritySynced.Add(float64(prioritySynced))
	m.BatchDuration.Observe(d.Seconds())
}

// IncRecordVerified counts one record in its tier.
func (m *Metrics) IncRecordVerified(tier string) {
	if m != nil {
		m.RecordsVerified.WithLabelValues(tier).Inc()
	}
}

// IncEntityFailure counts one skipped entity.
func (m *Metrics) IncEntityFailure(code string) {
	if m != nil {
		m.EntityFailures.WithLabelValues(code).Inc()
	}
}

// RecordLookup counts a lookup outcome.
func (m *Metrics) RecordLookup(outcome, source string) {
	if m != nil {
		m.Lookups.WithLabelValues(outcome, source).Inc()
	}
}
