package enrich

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/kavir10/lead-scoring/internal/config"
	"github.com/kavir10/lead-scoring/internal/store"
)

// Stage names, in default run order.
const (
	StageWebsites     = "websites"
	StageInstagram    = "instagram"
	StageSocial       = "social"
	StagePress        = "press"
	StageReviews      = "reviews"
	StageReels        = "reels"
	StagePosts        = "posts"
	StageAvailability = "availability"
)

var checkpointNames = map[string]string{
	StageWebsites:     "2_enriched_websites.csv",
	StageInstagram:    "2_enriched_instagram.csv",
	StageSocial:       "2_enriched_social.csv",
	StagePress:        "2_enriched_full.csv",
	StageReviews:      "2_enriched_reviews.csv",
	StageReels:        "2_enriched_reels.csv",
	StagePosts:        "2_enriched_posts.csv",
	StageAvailability: "2_enriched_availability.csv",
}

// CheckpointName returns the snapshot file written after stage.
func CheckpointName(stage string) string {
	if n, ok := checkpointNames[stage]; ok {
		return n
	}
	return "2_enriched_" + stage + ".csv"
}

// Stage is one enrichment pass over the store. Run merges its results into
// the store before returning.
type Stage interface {
	Name() string
	Run(ctx context.Context, st *store.Store) (Stats, error)
}

// Observer receives stage outcomes, typically to record metrics.
type Observer interface {
	ObserveStage(stage string, processed, succeeded, found int, d time.Duration)
	ObserveSkip(stage string)
}

// StageReport is the outcome of one stage within a pipeline run.
type StageReport struct {
	Name       string
	Stats      Stats
	Skipped    bool
	Missing    []string
	Duration   time.Duration
	Checkpoint string
}

// Pipeline runs enrichment stages strictly in order.
type Pipeline struct {
	stages      []Stage
	missing     func(stage string) []string
	checkpoints *store.Checkpointer
	observer    Observer
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithCredentialCheck sets the function reporting a stage's missing
// credentials. A stage missing every credential it uses is skipped.
func WithCredentialCheck(fn func(stage string) []string) Option {
	return func(p *Pipeline) {
		p.missing = fn
	}
}

// WithCheckpointer saves a snapshot after every stage.
func WithCheckpointer(c *store.Checkpointer) Option {
	return func(p *Pipeline) {
		p.checkpoints = c
	}
}

// WithObserver reports stage outcomes to o.
func WithObserver(o Observer) Option {
	return func(p *Pipeline) {
		p.observer = o
	}
}

// NewPipeline creates a pipeline over stages.
func NewPipeline(stages []Stage, opts ...Option) *Pipeline {
	p := &Pipeline{
		stages:  stages,
		missing: func(string) []string { return nil },
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Stages returns the stage names in run order.
func (p *Pipeline) Stages() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name()
	}
	return names
}

// Run executes the stages starting at from ("" runs all). Stage-level
// failures never abort the run; only context cancellation or a failed
// checkpoint write does.
func (p *Pipeline) Run(ctx context.Context, st *store.Store, from string) ([]StageReport, error) {
	start := 0
	if from != "" {
		start = slices.Index(p.Stages(), from)
		if start < 0 {
			return nil, eris.Errorf("enrich: unknown stage %q (have %s)", from, strings.Join(p.Stages(), ", "))
		}
	}

	var reports []StageReport
	for _, s := range p.stages[start:] {
		name := s.Name()
		log := zap.L().With(zap.String("stage", name))
		rep := StageReport{Name: name}

		missing := p.missing(name)
		required := config.RequiredCredentials(name)
		if len(required) > 0 && len(missing) == len(required) {
			log.Warn("enrich: stage skipped, credentials not set", zap.Strings("missing", missing))
			rep.Skipped = true
			rep.Missing = missing
			if p.observer != nil {
				p.observer.ObserveSkip(name)
			}
		} else {
			log.Info("enrich: stage started", zap.Int("leads", st.Len()))
			began := time.Now()
			stats, err := s.Run(ctx, st)
			rep.Duration = time.Since(began)
			rep.Stats = stats
			if err != nil {
				return reports, eris.Wrapf(err, "enrich: stage %s", name)
			}
			log.Info("enrich: stage complete",
				zap.Int("processed", stats.Processed),
				zap.Int("succeeded", stats.Succeeded),
				zap.Int("found", stats.Found),
				zap.Duration("duration", rep.Duration),
			)
			if p.observer != nil {
				p.observer.ObserveStage(name, stats.Processed, stats.Succeeded, stats.Found, rep.Duration)
			}
		}

		if p.checkpoints != nil {
			path, err := p.checkpoints.Save(CheckpointName(name), st.Leads())
			if err != nil {
				return reports, eris.Wrapf(err, "enrich: checkpoint %s", name)
			}
			rep.Checkpoint = path
		}
		reports = append(reports, rep)
	}
	return reports, nil
}
