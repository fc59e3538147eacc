package enrich

import (
	"context"
	"math"
	"strings"

	"github.com/kavir10/lead-scoring/internal/model"
	"github.com/kavir10/lead-scoring/internal/store"
	"github.com/kavir10/lead-scoring/pkg/serper"
)

const (
	maxReviewSamples = 3
	reviewSampleLen  = 200
)

// SentimentScore measures how often reviews complain about getting a table.
// A review counts once when it contains any keyword; one mention in five
// reviews saturates the score at 1.
func SentimentScore(reviews []serper.Review, keywords []string) (float64, []string) {
	if len(reviews) == 0 {
		return 0, nil
	}

	mentions := 0
	var samples []string
	for _, r := range reviews {
		text := strings.ToLower(r.Body())
		if text == "" {
			continue
		}
		for _, kw := range keywords {
			if !strings.Contains(text, strings.ToLower(kw)) {
				continue
			}
			mentions++
			if len(samples) < maxReviewSamples {
				samples = append(samples, truncateRunes(text, reviewSampleLen))
			}
			break
		}
	}

	ratio := float64(mentions) / float64(len(reviews))
	return round3(math.Min(1, ratio*5)), samples
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// ReviewsStage fetches recent reviews for every lead with a place id.
type ReviewsStage struct {
	client   serper.Client
	keywords []string
	perPlace int
	workers  int
}

// NewReviewsStage creates the reviews stage.
func NewReviewsStage(client serper.Client, keywords []string, perPlace, workers int) *ReviewsStage {
	if perPlace < 1 {
		perPlace = 10
	}
	return &ReviewsStage{client: client, keywords: keywords, perPlace: perPlace, workers: workers}
}

// Name implements Stage.
func (s *ReviewsStage) Name() string { return StageReviews }

type reviewSignal struct {
	score   float64
	samples []string
}

// Run implements Stage.
func (s *ReviewsStage) Run(ctx context.Context, st *store.Store) (Stats, error) {
	var todo []model.Lead
	for _, l := range st.Leads() {
		if strings.TrimSpace(l.PlaceID) != "" {
			todo = append(todo, l)
		}
	}

	results, stats, err := RunStage(ctx, StageReviews, todo, s.workers, func(ctx context.Context, l model.Lead) (reviewSignal, error) {
		reviews, err := s.client.Reviews(ctx, strings.TrimSpace(l.PlaceID), s.perPlace)
		if err != nil {
			return reviewSignal{}, err
		}
		score, samples := SentimentScore(reviews, s.keywords)
		return reviewSignal{score: score, samples: samples}, nil
	})
	if err != nil {
		return stats, err
	}

	store.Apply(st, results, func(l *model.Lead, v reviewSignal) {
		l.ReviewDifficultySentiment = v.score
		l.ReviewSample = strings.Join(v.samples, " | ")
		if v.score > 0 {
			stats.Found++
		}
	})
	return stats, nil
}
