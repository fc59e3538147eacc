package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/kavir10/lead-scoring/internal/config"
	"github.com/kavir10/lead-scoring/internal/discovery"
	"github.com/kavir10/lead-scoring/internal/enrich"
	"github.com/kavir10/lead-scoring/internal/export"
	"github.com/kavir10/lead-scoring/internal/model"
	"github.com/kavir10/lead-scoring/internal/monitoring"
	"github.com/kavir10/lead-scoring/internal/resilience"
	"github.com/kavir10/lead-scoring/internal/scorer"
	"github.com/kavir10/lead-scoring/internal/scrape"
	"github.com/kavir10/lead-scoring/internal/store"
	"github.com/kavir10/lead-scoring/pkg/apify"
	"github.com/kavir10/lead-scoring/pkg/google"
	"github.com/kavir10/lead-scoring/pkg/resy"
	"github.com/kavir10/lead-scoring/pkg/serper"
)

const discoveredFile = "1_discovered.csv"

// run carries the state shared by the phases of one invocation.
type run struct {
	id          string
	cfg         *config.Config
	checkpoints *store.Checkpointer
	metrics     *monitoring.Metrics
	summary     monitoring.RunSummary
	out         io.Writer
}

func newRun(c *config.Config, out io.Writer) *run {
	id := uuid.NewString()
	return &run{
		id:          id,
		cfg:         c,
		checkpoints: store.NewCheckpointer(c.Output.Dir, id),
		metrics:     monitoring.NewMetrics(id),
		summary:     monitoring.RunSummary{RunID: id},
		out:         out,
	}
}

// newSearcher builds the configured discovery provider.
func newSearcher(c *config.Config) (discovery.Searcher, error) {
	switch c.Discovery.Provider {
	case "serper":
		return discovery.NewSerperSearcher(newSerper(c)), nil
	case "google":
		var opts []google.Option
		if c.Google.BaseURL != "" {
			opts = append(opts, google.WithBaseURL(c.Google.BaseURL))
		}
		return discovery.NewGoogleSearcher(google.NewClient(c.Google.Key, opts...), c.Google.RateLimit, c.Google.MaxPages), nil
	default:
		return nil, eris.Errorf("discover: unknown provider %q", c.Discovery.Provider)
	}
}

func newSerper(c *config.Config) serper.Client {
	opts := []serper.Option{serper.WithRateLimit(c.Serper.RateLimit)}
	if c.Serper.BaseURL != "" {
		opts = append(opts, serper.WithBaseURL(c.Serper.BaseURL))
	}
	return serper.NewClient(c.Serper.Key, opts...)
}

// enrichDeps builds the clients whose credentials are set. The rest stay
// nil and their stages are skipped by the pipeline.
func enrichDeps(c *config.Config) enrich.Deps {
	deps := enrich.Deps{
		Fetcher: scrape.NewHTTPFetcher(
			scrape.WithTimeout(time.Duration(c.Enrich.HomepageTimeoutSecs)*time.Second),
			scrape.WithBreakers(resilience.NewBreakers(resilience.BreakerConfig{
				Threshold: c.Enrich.BlockThreshold,
				Cooldown:  time.Duration(c.Enrich.BlockCooldownSecs) * time.Second,
			})),
		),
	}
	if c.Serper.Key != "" {
		deps.Serper = newSerper(c)
	}
	if c.Apify.Token != "" {
		var opts []apify.Option
		if c.Apify.BaseURL != "" {
			opts = append(opts, apify.WithBaseURL(c.Apify.BaseURL))
		}
		deps.Apify = apify.NewClient(c.Apify.Token, opts...)
	}
	if c.Resy.Key != "" {
		opts := []resy.Option{resy.WithAuthToken(c.Resy.AuthToken)}
		if c.Resy.BaseURL != "" {
			opts = append(opts, resy.WithBaseURL(c.Resy.BaseURL))
		}
		deps.Resy = resy.NewClient(c.Resy.Key, opts...)
	}
	return deps
}

// discover runs discovery and saves 1_discovered.csv.
func (r *run) discover(ctx context.Context) ([]model.Lead, error) {
	s, err := newSearcher(r.cfg)
	if err != nil {
		return nil, err
	}
	res, err := discovery.NewDiscoverer(s, r.cfg.Discovery).Run(ctx)
	if err != nil {
		return nil, err
	}

	rep := res.Report
	r.metrics.ObserveDiscovery(res.Searches, res.FailedSearches, res.Raw, rep.Kept, map[string]int{
		"malformed":     res.Dropped,
		"duplicate":     res.Duplicates,
		"chain":         rep.Chains,
		"liquor":        rep.Liquor,
		"no_website":    rep.NoWebsite,
		"quality_floor": rep.QualityFloor,
	})
	r.summary.Searches = res.Searches
	r.summary.FailedSearches = res.FailedSearches
	r.summary.Leads = len(res.Leads)

	if _, err := r.checkpoints.Save(discoveredFile, res.Leads); err != nil {
		return nil, eris.Wrap(err, "discover: checkpoint")
	}

	_, _ = fmt.Fprintf(r.out, "Discovered %d leads (%d raw, %d duplicates, %d disqualified) from %d searches\n",
		len(res.Leads), res.Raw, res.Duplicates, rep.Input-rep.Kept, res.Searches)
	return res.Leads, nil
}

// enrich runs the configured stages over leads, starting at from.
func (r *run) enrich(ctx context.Context, leads []model.Lead, from string) ([]model.Lead, error) {
	stages, err := enrich.BuildStages(r.cfg, enrichDeps(r.cfg))
	if err != nil {
		return nil, err
	}
	p := enrich.NewPipeline(stages,
		enrich.WithCredentialCheck(r.cfg.MissingCredentials),
		enrich.WithCheckpointer(r.checkpoints),
		enrich.WithObserver(r.metrics),
	)

	st := store.New(leads...)
	r.summary.Leads = st.Len()
	reports, err := p.Run(ctx, st, from)
	for _, rep := range reports {
		r.summary.Stages = append(r.summary.Stages, monitoring.StageSummary{
			Name:      rep.Name,
			Processed: rep.Stats.Processed,
			Succeeded: rep.Stats.Succeeded,
			Found:     rep.Stats.Found,
			Skipped:   rep.Skipped,
		})
		if rep.Skipped {
			_, _ = fmt.Fprintf(r.out, "  %-13s skipped (missing %v)\n", rep.Name, rep.Missing)
			continue
		}
		_, _ = fmt.Fprintf(r.out, "  %-13s processed %d, succeeded %d, found %d (%s)\n",
			rep.Name, rep.Stats.Processed, rep.Stats.Succeeded, rep.Stats.Found, rep.Duration.Round(time.Millisecond))
	}
	if err != nil {
		return nil, err
	}
	return st.Leads(), nil
}

func loadProfile(c config.ScoringConfig) (*scorer.Scorer, error) {
	if c.ProfilePath == "" {
		return scorer.Default(), nil
	}
	p, err := scorer.LoadProfile(c.ProfilePath)
	if err != nil {
		return nil, err
	}
	return scorer.New(p)
}

// score ranks leads, writes the exports, and prints the summary.
func (r *run) score(leads []model.Lead) (export.Result, error) {
	s, err := loadProfile(r.cfg.Scoring)
	if err != nil {
		return export.Result{}, err
	}
	ranked := s.Rank(leads)
	r.summary.Leads = len(ranked)

	tiers := make(map[string]int, 4)
	for t, n := range scorer.CountTiers(ranked) {
		tiers[t.Letter()] = n
	}
	r.metrics.ObserveTiers(tiers)

	res, err := export.Write(ranked, export.Options{
		Dir:      r.cfg.Output.Dir,
		TopTiers: r.cfg.Scoring.TopTiers,
		XLSX:     r.cfg.Output.XLSX,
	})
	if err != nil {
		return export.Result{}, err
	}

	export.Summarize(ranked).Print(r.out)
	_, _ = fmt.Fprintf(r.out, "\nAll leads:  %s\nTop leads:  %s\n", res.AllCSV, res.TopCSV)
	if res.TopXLSX != "" {
		_, _ = fmt.Fprintf(r.out, "Workbook:   %s\n", res.TopXLSX)
	}
	return res, nil
}

// finish writes the metrics textfile and sends any alerts. Failures here
// are logged and never fail the run.
func (r *run) finish(ctx context.Context) {
	log := zap.L().With(zap.String("run_id", r.id))
	if r.cfg.Metrics.Enabled {
		if err := r.metrics.WriteTextfile(r.cfg.Metrics.TextfilePath); err != nil {
			log.Warn("metrics textfile write failed", zap.Error(err))
		}
	}
	a := monitoring.NewAlerter(r.cfg.Metrics)
	alerts := a.Evaluate(r.summary)
	for _, al := range alerts {
		log.Warn("run alert", zap.String("type", string(al.Type)), zap.String("message", al.Message))
	}
	if len(alerts) > 0 {
		sent := a.SendAlerts(ctx, alerts)
		log.Info("run alerts", zap.Int("raised", len(alerts)), zap.Int("sent", sent))
	}
}

// loadLeads reads a snapshot for resuming. Snapshots written before phone
// normalization existed get it filled in so dedup keys stay stable.
func loadLeads(path string) ([]model.Lead, error) {
	leads, err := store.ReadCSV(path)
	if err != nil {
		return nil, err
	}
	for i := range leads {
		if leads[i].PhoneNormalized == "" && leads[i].Phone != "" {
			leads[i].PhoneNormalized = discovery.NormalizePhone(leads[i].Phone)
		}
	}
	zap.L().Info("snapshot loaded", zap.String("path", path), zap.Int("leads", len(leads)))
	return leads, nil
}
