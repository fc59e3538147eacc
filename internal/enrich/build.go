package enrich

import (
	"time"

	"github.com/rotisserie/eris"

	"github.com/kavir10/lead-scoring/internal/config"
	"github.com/kavir10/lead-scoring/internal/scrape"
	"github.com/kavir10/lead-scoring/pkg/apify"
	"github.com/kavir10/lead-scoring/pkg/resy"
	"github.com/kavir10/lead-scoring/pkg/serper"
)

// Deps are the external clients stages use. A nil client means its
// credential is not configured.
type Deps struct {
	Fetcher scrape.Fetcher
	Serper  serper.Client
	Apify   apify.Client
	Resy    resy.Client
}

// BuildStages constructs the configured stages in order. A stage whose
// client is nil is still built; the pipeline skips it on missing
// credentials.
func BuildStages(cfg *config.Config, deps Deps) ([]Stage, error) {
	e := cfg.Enrich
	pollTimeout := time.Duration(cfg.Apify.PollTimeoutSecs) * time.Second

	ig := NewInstagram(deps.Apify, InstagramConfig{
		ProfileActor:      cfg.Apify.ProfileActor,
		ReelsActor:        cfg.Apify.ReelsActor,
		PostsActor:        cfg.Apify.PostsActor,
		BatchSize:         cfg.Apify.BatchSize,
		ResultsPerUser:    cfg.Apify.ResultsPerUser,
		MaxConcurrentRuns: cfg.Apify.MaxConcurrentRun,
		PollTimeout:       pollTimeout,
	})

	stages := make([]Stage, 0, len(e.Stages))
	for _, name := range e.Stages {
		switch name {
		case StageWebsites:
			a := NewWebsiteAnalyzer(deps.Fetcher, time.Duration(e.SubpageTimeoutSecs)*time.Second)
			stages = append(stages, NewWebsiteStage(a, e.WebsiteWorkers))
		case StageInstagram:
			stages = append(stages, NewInstagramStage(ig))
		case StageSocial:
			stages = append(stages, NewSocialStage(deps.Fetcher, e.SocialWorkers))
		case StagePress:
			stages = append(stages, NewPressStage(deps.Serper, e.PressDomains, e.SearchResults, e.SearchWorkers))
		case StageReviews:
			stages = append(stages, NewReviewsStage(deps.Serper, e.ReservationKeywords, e.ReviewsPerPlace, e.ReviewWorkers))
		case StageReels:
			stages = append(stages, NewReelsStage(ig))
		case StagePosts:
			stages = append(stages, NewPostsStage(ig))
		case StageAvailability:
			stages = append(stages, NewAvailabilityStage(deps.Apify, deps.Resy, AvailabilityConfig{
				OpenTableActor: cfg.Apify.OpenTableActor,
				OpenTableBatch: cfg.Apify.OpenTableBatch,
				OffsetsDays:    e.CheckOffsetsDays,
				PartySize:      e.PartySize,
				Time:           e.ReservationTime,
				Workers:        e.AvailabilityWorkers,
				PollTimeout:    pollTimeout,
			}))
		default:
			return nil, eris.Errorf("enrich: unknown stage %q", name)
		}
	}
	return stages, nil
}
