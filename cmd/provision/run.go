package main

import (
	"errors"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"pebble/internal/bootstrap"
	"pebble/internal/lattice/models"
	"pebble/internal/lattice/service"
	"pebble/internal/platform/logger"
	"pebble/internal/report"
	"pebble/internal/source"
	dErrors "pebble/pkg/domain-errors"
)

type runOptions struct {
	input      string
	output     string
	workers    int
	tierPolicy string
	seed       uint64
	verbose    bool
}

func newRunCmd() *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Verify and sync a batch of entities",
		Long: `Verify and sync a batch of entities.

Without --input the built-in sample brands are used. Records are persisted
to the configured store (DATABASE_URL, REDIS_URL) or kept in memory, and
Sovereign records are provisioned to Kafka when KAFKA_BROKERS is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBatch(cmd, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "JSON file of entities (default: built-in samples)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the batch summary as JSON to this path")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 0, "concurrent verifiers (default from PEBBLE_BATCH_WORKERS)")
	cmd.Flags().StringVar(&opts.tierPolicy, "tier-policy", "", `tier policy: random, numeric or fixed:<tier>`)
	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "seed for the random tier policy")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "list every record")
	addLatticeFlags(cmd)
	return cmd
}

func runBatch(cmd *cobra.Command, opts *runOptions) error {
	ctx := cmd.Context()
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if opts.workers > 0 {
		cfg.Batch.Workers = opts.workers
	}
	if opts.tierPolicy != "" {
		cfg.Batch.TierPolicy = opts.tierPolicy
	}
	if cmd.Flags().Changed("seed") {
		cfg.Batch.Seed = opts.seed
	}

	log, err := logger.NewWithWriter(cmd.ErrOrStderr(), cfg.Log.Format, cfg.Log.Level)
	if err != nil {
		return err
	}

	entities := source.Samples()
	if opts.input != "" {
		if entities, err = source.LoadFile(opts.input); err != nil {
			return err
		}
	}

	pipeline, err := bootstrap.NewPipeline(cfg, log, nil)
	if err != nil {
		return err
	}
	storage, err := bootstrap.OpenStorage(ctx, cfg, log, nil)
	if err != nil {
		return err
	}
	defer func() { _ = storage.Close() }()

	reporters := report.Fanout{report.NewConsole(cmd.OutOrStdout(), opts.verbose)}
	if opts.output != "" {
		reporters = append(reporters, report.NewJSONFile(opts.output))
	}
	provisioner, err := bootstrap.NewProvisioner(ctx, cfg.Kafka, log)
	if err != nil {
		return err
	}
	if provisioner != nil {
		defer provisioner.Close()
		reporters = append(reporters, provisioner)
	}

	svc, err := service.New(pipeline.Verifier, pipeline.Aggregator, storage.Records,
		service.WithLogger(log),
		service.WithReporters(reporters),
		service.WithTierPolicy(cfg.Batch.TierPolicy),
	)
	if err != nil {
		return err
	}

	rep, err := svc.Sync(ctx, entities)
	if err != nil {
		if rep != nil {
			pterm.Fprintln(cmd.ErrOrStderr(), pterm.Yellow(fmt.Sprintf("warning: %v", err)))
		}
		return err
	}
	if rep.SyncStatus != models.SyncStatusComplete {
		return partialError(rep)
	}
	return nil
}

var errPartialBatch = errors.New("batch completed partially")

func partialError(rep *models.BatchReport) error {
	return dErrors.Wrap(errPartialBatch, dErrors.CodeInvalidInput,
		fmt.Sprintf("%d of %d entities skipped", len(rep.Errors), rep.TotalEntities))
}
