package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Find candidate businesses and write 1_discovered.csv",
	Long: `Searches every configured category query in every city through the
configured provider (serper or google), merges duplicates by phone or
name+address, and drops chains, liquor stores, leads without a website, and
leads below their business type's quality floor.`,
	RunE: runDiscover,
}

func init() {
	f := discoverCmd.Flags()
	f.String("provider", "", "search provider: serper or google (overrides config)")
	f.StringSlice("cities", nil, "cities to search, e.g. \"Chicago, Illinois\" (overrides config)")
	rootCmd.AddCommand(discoverCmd)
}

func runDiscover(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if p, _ := cmd.Flags().GetString("provider"); p != "" {
		cfg.Discovery.Provider = p
	}
	if cities, _ := cmd.Flags().GetStringSlice("cities"); len(cities) > 0 {
		cfg.Discovery.Cities = cities
	}
	if err := cfg.Validate("discover"); err != nil {
		return err
	}

	r := newRun(cfg, os.Stdout)
	defer r.finish(ctx)

	_, err := r.discover(ctx)
	return err
}
