package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Enrich a lead snapshot and score the result",
	Long: `Loads a snapshot (1_discovered.csv or any 2_enriched_<stage>.csv),
runs the enrichment stages, and scores the result.

Examples:
  # Enrich freshly discovered leads
  enrich --input output/1_discovered.csv

  # Resume after the press stage
  enrich --input output/2_enriched_full.csv --from reviews`,
	RunE: runEnrich,
}

func init() {
	f := enrichCmd.Flags()
	f.String("input", "", "snapshot CSV to enrich (required)")
	f.String("from", "", "first stage to run; earlier stages are skipped")
	f.StringSlice("stages", nil, "enrichment stages to run (overrides config)")
	_ = enrichCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(enrichCmd)
}

func runEnrich(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	input, _ := cmd.Flags().GetString("input")
	from, _ := cmd.Flags().GetString("from")
	if stages, _ := cmd.Flags().GetStringSlice("stages"); len(stages) > 0 {
		cfg.Enrich.Stages = stages
	}
	if err := cfg.Validate("enrich"); err != nil {
		return err
	}

	leads, err := loadLeads(input)
	if err != nil {
		return eris.Wrap(err, "enrich: load input")
	}

	r := newRun(cfg, os.Stdout)
	defer r.finish(ctx)

	leads, err = r.enrich(ctx, leads, from)
	if err != nil {
		return err
	}
	_, err = r.score(leads)
	return err
}
