package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"pebble/internal/lattice/models"
	"pebble/pkg/platform/circuit"
	"pebble/pkg/platform/sentinel"
)

const (
	// ProvisionStatusProvisioned is reported once every priority record is
	// acknowledged by the brokers.
	ProvisionStatusProvisioned = "ORBITAL_PROVISIONED"
	// ProvisionStatusSkipped is reported when the breaker is open.
	ProvisionStatusSkipped = "PROVISION_SKIPPED"

	DefaultProvisionTopic = "pebble.provisioning"
)

// ProvisionResult summarises one provisioning run. Only Sovereign records
// are etched; TotalBlocks counts every record in the batch.
type ProvisionResult struct {
	Status       string        `json:"status"`
	SyncedBlocks int           `json:"synced_blocks"`
	TotalBlocks  int           `json:"total_blocks"`
	Latency      time.Duration `json:"latency"`
}

// provisionMessage is the value published per priority record.
type provisionMessage struct {
	BatchID string                    `json:"batch_id"`
	Record  models.VerificationRecord `json:"record"`
}

// KafkaProvisioner publishes the priority records of each batch to a topic,
// keyed by lattice ID so a record always lands on the same partition.
type KafkaProvisioner struct {
	client  *kgo.Client
	topic   string
	breaker *circuit.Breaker
	logger  *slog.Logger
}

type KafkaOption func(*KafkaProvisioner)

func WithKafkaLogger(logger *slog.Logger) KafkaOption {
	return func(k *KafkaProvisioner) {
		k.logger = logger
	}
}

func WithBreaker(b *circuit.Breaker) KafkaOption {
	return func(k *KafkaProvisioner) {
		k.breaker = b
	}
}

// NewKafkaProvisioner connects a producer to brokers. An empty topic means
// DefaultProvisionTopic.
func NewKafkaProvisioner(brokers []string, topic string, opts ...KafkaOption) (*KafkaProvisioner, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	if topic == "" {
		topic = DefaultProvisionTopic
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	k := &KafkaProvisioner{
		client:  client,
		topic:   topic,
		breaker: circuit.New("kafka-provisioner"),
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(k)
	}
	return k, nil
}

// EnsureTopic creates the provisioning topic if it does not exist.
func (k *KafkaProvisioner) EnsureTopic(ctx context.Context, partitions int32, replicationFactor int16) error {
	adm := kadm.NewClient(k.client)
	resp, err := adm.CreateTopic(ctx, partitions, replicationFactor, nil, k.topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", k.topic, err)
	}
	if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
		return fmt.Errorf("create topic %s: %w", k.topic, resp.Err)
	}
	return nil
}

func (k *KafkaProvisioner) Report(ctx context.Context, report *models.BatchReport) error {
	_, err := k.Provision(ctx, report)
	return err
}

// Provision publishes every Sovereign record of report and waits for all
// acknowledgements. While the breaker is open nothing is sent and an
// unavailable error is returned.
func (k *KafkaProvisioner) Provision(ctx context.Context, report *models.BatchReport) (*ProvisionResult, error) {
	result := &ProvisionResult{
		Status:      ProvisionStatusSkipped,
		TotalBlocks: len(report.Records),
	}
	if !k.breaker.Allow() {
		k.logger.WarnContext(ctx, "provisioning skipped, breaker open",
			"batch_id", report.ID,
			"topic", k.topic,
		)
		return result, fmt.Errorf("provision batch %s: %w", report.ID, sentinel.ErrUnavailable)
	}

	priority := report.PriorityRecords()
	records := make([]*kgo.Record, 0, len(priority))
	for _, rec := range priority {
		value, err := json.Marshal(provisionMessage{BatchID: report.ID, Record: rec})
		if err != nil {
			return result, fmt.Errorf("encode provision message: %w", err)
		}
		records = append(records, &kgo.Record{
			Topic: k.topic,
			Key:   []byte(rec.LatticeID),
			Value: value,
			Headers: []kgo.RecordHeader{
				{Key: "batch_id", Value: []byte(report.ID)},
				{Key: "tier", Value: []byte(rec.Tier)},
			},
		})
	}

	start := time.Now()
	if len(records) > 0 {
		if err := k.client.ProduceSync(ctx, records...).FirstErr(); err != nil {
			if _, change := k.breaker.RecordFailure(); change.Opened {
				k.logger.ErrorContext(ctx, "provisioning breaker opened", "topic", k.topic)
			}
			return result, fmt.Errorf("provision batch %s: %w", report.ID, err)
		}
	}
	if _, change := k.breaker.RecordSuccess(); change.Closed {
		k.logger.InfoContext(ctx, "provisioning breaker closed", "topic", k.topic)
	}

	result.Status = ProvisionStatusProvisioned
	result.SyncedBlocks = len(records)
	result.Latency = time.Since(start)

	k.logger.InfoContext(ctx, "batch provisioned",
		"batch_id", report.ID,
		"topic", k.topic,
		"synced_blocks", result.SyncedBlocks,
		"total_blocks", result.TotalBlocks,
		"latency_ms", result.Latency.Milliseconds(),
	)
	return result, nil
}

func (k *KafkaProvisioner) Close() {
	k.client.Close()
}
