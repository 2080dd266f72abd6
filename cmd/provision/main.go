// Command provision runs lattice batches from the command line: it verifies
// a set of entities, prints the sync summary and hands the report to the
// configured reporters.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"pebble/internal/platform/config"
)

func main() {
	_ = godotenv.Load()
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "provision",
		Short: "Pebble lattice provisioning",
		Long: `Pebble lattice provisioning.

Derives lattice IDs and codex hashes for a batch of entities, assigns
priority tiers and reports the result.

Examples:
  provision run                          # sync the built-in sample entities
  provision run --input brands.json -v   # sync a JSON file, listing every record
  provision id "TechCorp Solutions" 1    # derive one identifier`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd(), newIDCmd())
	return root
}

// loadConfig reads the environment and lets explicitly set flags win.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("interval") {
		cfg.Lattice.Interval, _ = flags.GetInt("interval")
	}
	if flags.Changed("algorithm") {
		cfg.Lattice.Algorithm, _ = flags.GetString("algorithm")
	}
	return cfg, nil
}

func addLatticeFlags(cmd *cobra.Command) {
	cmd.Flags().Int("interval", config.Defaults().Lattice.Interval, "codex interval parameter")
	cmd.Flags().String("algorithm", config.Defaults().Lattice.Algorithm, "codex digest: sha256 or blake2b-256")
}
