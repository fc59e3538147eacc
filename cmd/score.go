package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score and tier an enriched snapshot",
	Long: `Loads an enriched snapshot, computes the 0-100 lead score and A-D tier
for every lead, and writes the ranked exports.

Examples:
  score --input output/2_enriched_availability.csv

  # Score with a custom weight profile
  score --input output/2_enriched_availability.csv --profile profiles/wine.yaml`,
	RunE: runScore,
}

func init() {
	f := scoreCmd.Flags()
	f.String("input", "", "enriched snapshot CSV (required)")
	f.String("profile", "", "scoring profile YAML (overrides config)")
	f.StringSlice("top-tiers", nil, "tiers written to the top-leads export (overrides config)")
	_ = scoreCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	input, _ := cmd.Flags().GetString("input")
	if p, _ := cmd.Flags().GetString("profile"); p != "" {
		cfg.Scoring.ProfilePath = p
	}
	if tiers, _ := cmd.Flags().GetStringSlice("top-tiers"); len(tiers) > 0 {
		cfg.Scoring.TopTiers = tiers
	}
	if err := cfg.Validate("score"); err != nil {
		return err
	}

	leads, err := loadLeads(input)
	if err != nil {
		return eris.Wrap(err, "score: load input")
	}

	r := newRun(cfg, os.Stdout)
	defer r.finish(ctx)

	_, err = r.score(leads)
	return err
}
