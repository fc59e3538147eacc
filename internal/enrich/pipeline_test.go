package enrich

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kavir10/lead-scoring/internal/config"
	"github.com/kavir10/lead-scoring/internal/model"
	"github.com/kavir10/lead-scoring/internal/store"
)

// recordStage appends its name to a shared log and bumps each lead's
// review count so later stages can see earlier writes.
type recordStage struct {
	name string
	log  *[]string
	err  error
}

func (s *recordStage) Name() string { return s.name }

func (s *recordStage) Run(_ context.Context, st *store.Store) (Stats, error) {
	*s.log = append(*s.log, s.name)
	if s.err != nil {
		return Stats{}, s.err
	}
	st.Each(func(l *model.Lead) { l.ReviewCount++ })
	return Stats{Processed: st.Len(), Succeeded: st.Len()}, nil
}

type recordObserver struct {
	stages  []string
	skipped []string
}

func (o *recordObserver) ObserveStage(stage string, _, _, _ int, _ time.Duration) {
	o.stages = append(o.stages, stage)
}

func (o *recordObserver) ObserveSkip(stage string) {
	o.skipped = append(o.skipped, stage)
}

func allStages(log *[]string) []Stage {
	names := []string{StageWebsites, StageInstagram, StageSocial, StagePress, StageReviews, StageReels, StagePosts, StageAvailability}
	out := make([]Stage, len(names))
	for i, n := range names {
		out[i] = &recordStage{name: n, log: log}
	}
	return out
}

func TestPipeline_RunsInOrderAndCheckpoints(t *testing.T) {
	var log []string
	dir := t.TempDir()
	obs := &recordObserver{}

	p := NewPipeline(allStages(&log),
		WithCheckpointer(store.NewCheckpointer(dir, "run-1")),
		WithObserver(obs),
	)
	st := store.New(testLead("A", "1"))

	reports, err := p.Run(context.Background(), st, "")
	require.NoError(t, err)
	assert.Equal(t, p.Stages(), log)
	assert.Equal(t, log, obs.stages)
	require.Len(t, reports, 8)

	for _, rep := range reports {
		assert.Equal(t, filepath.Join(dir, CheckpointName(rep.Name)), rep.Checkpoint)
		_, err := os.Stat(rep.Checkpoint)
		assert.NoError(t, err, rep.Name)
	}

	leads, err := store.ReadCSV(filepath.Join(dir, "2_enriched_full.csv"))
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, 4, leads[0].ReviewCount, "press checkpoint holds the first four stages")
}

func TestPipeline_SkipsStagesMissingEveryCredential(t *testing.T) {
	cfg := &config.Config{}
	cfg.Resy.Key = "resy-key"

	var log []string
	obs := &recordObserver{}
	p := NewPipeline(allStages(&log),
		WithCredentialCheck(cfg.MissingCredentials),
		WithObserver(obs),
	)

	reports, err := p.Run(context.Background(), store.New(testLead("A", "1")), "")
	require.NoError(t, err)

	assert.Equal(t, []string{StageWebsites, StageSocial, StageAvailability}, log,
		"availability runs with one of its two credentials")
	assert.Equal(t, []string{StageInstagram, StagePress, StageReviews, StageReels, StagePosts}, obs.skipped)

	for _, rep := range reports {
		if rep.Name == StagePress {
			assert.True(t, rep.Skipped)
			assert.Equal(t, []string{"serper.api_key"}, rep.Missing)
		}
	}
}

func TestPipeline_From(t *testing.T) {
	var log []string
	p := NewPipeline(allStages(&log))

	_, err := p.Run(context.Background(), store.New(), StageReels)
	require.NoError(t, err)
	assert.Equal(t, []string{StageReels, StagePosts, StageAvailability}, log)
}

func TestPipeline_UnknownFrom(t *testing.T) {
	var log []string
	p := NewPipeline(allStages(&log))

	_, err := p.Run(context.Background(), store.New(), "tiktok")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown stage "tiktok"`)
	assert.Empty(t, log)
}

func TestPipeline_StageErrorAborts(t *testing.T) {
	var log []string
	stages := []Stage{
		&recordStage{name: StageWebsites, log: &log},
		&recordStage{name: StageInstagram, log: &log, err: context.Canceled},
		&recordStage{name: StageSocial, log: &log},
	}

	reports, err := NewPipeline(stages).Run(context.Background(), store.New(), "")
	require.ErrorIs(t, err, context.Canceled)
	assert.Len(t, reports, 1)
	assert.Equal(t, []string{StageWebsites, StageInstagram}, log)
}

func TestCheckpointName(t *testing.T) {
	assert.Equal(t, "2_enriched_websites.csv", CheckpointName(StageWebsites))
	assert.Equal(t, "2_enriched_full.csv", CheckpointName(StagePress))
	assert.Equal(t, "2_enriched_custom.csv", CheckpointName("custom"))
}

func TestBuildStages(t *testing.T) {
	cfg := &config.Config{}
	cfg.Enrich.Stages = []string{StageWebsites, StagePress, StageAvailability}

	stages, err := BuildStages(cfg, Deps{Fetcher: newFakeFetcher(nil)})
	require.NoError(t, err)
	require.Len(t, stages, 3)
	assert.Equal(t, StageAvailability, stages[2].Name())

	cfg.Enrich.Stages = []string{"myspace"}
	_, err = BuildStages(cfg, Deps{})
	assert.Error(t, err)
}
