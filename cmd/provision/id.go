package main

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"pebble/internal/bootstrap"
	"pebble/internal/lattice/models"
	dErrors "pebble/pkg/domain-errors"
)

func newIDCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "id NAME NUMERIC_ID",
		Short: "Derive the lattice ID and codex hash of one entity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return dErrors.Newf(dErrors.CodeInvalidInput, "numeric id %q is not an integer", args[1])
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			pipeline, err := bootstrap.NewPipeline(cfg, slog.New(slog.DiscardHandler), nil)
			if err != nil {
				return err
			}
			rec, err := pipeline.Verifier.Verify(cmd.Context(), models.Entity{Name: args[0], NumericID: id})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "lattice_id  %s\n", rec.LatticeID)
			fmt.Fprintf(out, "codex_hash  %s\n", rec.CodexHash)
			return nil
		},
	}
	addLatticeFlags(cmd)
	return cmd
}
