package enrich

import (
	"context"
	"regexp"
	"strconv"

	"go.uber.org/zap"

	"github.com/kavir10/lead-scoring/internal/model"
	"github.com/kavir10/lead-scoring/internal/scrape"
	"github.com/kavir10/lead-scoring/internal/store"
)

var fbFollowerRe = regexp.MustCompile(`"follower_count":(\d+)`)

// FacebookFollowers extracts the follower count embedded in a public page's
// HTML, or 0 when absent.
func FacebookFollowers(html string) int {
	m := fbFollowerRe.FindStringSubmatch(html)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

// SocialStage reads Facebook follower counts and combines them with the
// Instagram follower count.
type SocialStage struct {
	fetcher scrape.Fetcher
	workers int
}

// NewSocialStage creates the social stage.
func NewSocialStage(f scrape.Fetcher, workers int) *SocialStage {
	return &SocialStage{fetcher: f, workers: workers}
}

// Name implements Stage.
func (s *SocialStage) Name() string { return StageSocial }

// Run implements Stage.
func (s *SocialStage) Run(ctx context.Context, st *store.Store) (Stats, error) {
	var todo []model.Lead
	for _, l := range st.Leads() {
		if l.FacebookURL != "" {
			todo = append(todo, l)
		}
	}

	results, stats, err := RunStage(ctx, StageSocial, todo, s.workers, func(ctx context.Context, l model.Lead) (int, error) {
		page, err := s.fetcher.Fetch(ctx, l.FacebookURL)
		if err != nil {
			return 0, err
		}
		return FacebookFollowers(page.HTML), nil
	})
	if err != nil {
		return stats, err
	}

	store.Apply(st, results, func(l *model.Lead, likes int) {
		l.FBLikes = likes
		if likes > 0 {
			stats.Found++
		}
	})
	st.Each(func(l *model.Lead) { l.ComputeFollowerCount() })

	zap.L().Info("social: facebook pages checked",
		zap.Int("pages", len(todo)),
		zap.Int("with_followers", stats.Found),
	)
	return stats, nil
}
