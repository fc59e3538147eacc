package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run discovery, enrichment, and scoring end to end",
	Long: `Runs the full pipeline:

  1. discover  search every category x city, dedup, filter -> 1_discovered.csv
  2. enrich    run the enrichment stages in order -> 2_enriched_<stage>.csv
  3. score     rank and tier every lead -> 3_scored_all_<ts>.csv, 3_top_leads_<ts>.csv/.xlsx

Stages whose credentials are not configured are skipped and their leads
keep neutral defaults.`,
	RunE: runPipeline,
}

func init() {
	runCmd.Flags().StringSlice("stages", nil, "enrichment stages to run (overrides config)")
	rootCmd.AddCommand(runCmd)
}

func runPipeline(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if stages, _ := cmd.Flags().GetStringSlice("stages"); len(stages) > 0 {
		cfg.Enrich.Stages = stages
	}
	if err := cfg.Validate("run"); err != nil {
		return err
	}

	start := time.Now()
	r := newRun(cfg, os.Stdout)
	log := zap.L().With(zap.String("command", "run"), zap.String("run_id", r.id))
	log.Info("pipeline starting", zap.Strings("stages", cfg.Enrich.Stages))
	defer r.finish(ctx)

	leads, err := r.discover(ctx)
	if err != nil {
		return err
	}
	if len(leads) == 0 {
		log.Warn("discovery found no leads")
	}

	leads, err = r.enrich(ctx, leads, "")
	if err != nil {
		return err
	}

	if _, err := r.score(leads); err != nil {
		return err
	}

	log.Info("pipeline complete", zap.Duration("elapsed", time.Since(start)))
	return nil
}
