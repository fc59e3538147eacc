package enrich

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kavir10/lead-scoring/internal/model"
	"github.com/kavir10/lead-scoring/internal/store"
	"github.com/kavir10/lead-scoring/pkg/apify"
)

var igUsernameRe = regexp.MustCompile(`instagram\.com/([A-Za-z0-9_.]+)`)

var igReserved = map[string]bool{
	"p": true, "reel": true, "reels": true, "stories": true, "explore": true, "accounts": true,
}

// InstagramUsername extracts the profile handle from an Instagram URL.
// Post, reel, story, and account pages yield "".
func InstagramUsername(u string) string {
	m := igUsernameRe.FindStringSubmatch(strings.TrimRight(u, "/"))
	if m == nil {
		return ""
	}
	if igReserved[strings.ToLower(m[1])] {
		return ""
	}
	return m[1]
}

// MergeNonZero keeps existing when the incoming value is zero.
func MergeNonZero(existing, incoming float64) float64 {
	if incoming == 0 {
		return existing
	}
	return incoming
}

// InstagramConfig configures the Instagram actor passes.
type InstagramConfig struct {
	ProfileActor      string
	ReelsActor        string
	PostsActor        string
	BatchSize         int
	ResultsPerUser    int
	MaxConcurrentRuns int
	PollTimeout       time.Duration
}

// Profile is one Instagram profile as returned by the profile actor.
type Profile struct {
	Username      string  `json:"username"`
	Followers     int     `json:"followersCount"`
	Posts         int     `json:"postsCount"`
	IsBusiness    bool    `json:"isBusinessAccount"`
	AvgVideoViews float64 `json:"avgVideoViews"`
	AvgLikes      float64 `json:"avgLikes"`
}

type reelItem struct {
	OwnerUsername  string  `json:"ownerUsername"`
	VideoViewCount float64 `json:"videoViewCount"`
	PlayCount      float64 `json:"playCount"`
}

type postItem struct {
	OwnerUsername string   `json:"ownerUsername"`
	LikesCount    *float64 `json:"likesCount"`
}

// Instagram runs the Apify Instagram actors in batches.
type Instagram struct {
	client apify.Client
	cfg    InstagramConfig
}

// NewInstagram creates an Instagram enricher.
func NewInstagram(client apify.Client, cfg InstagramConfig) *Instagram {
	if cfg.BatchSize < 1 || cfg.BatchSize > 30 {
		cfg.BatchSize = 30
	}
	if cfg.ResultsPerUser < 1 {
		cfg.ResultsPerUser = 12
	}
	if cfg.MaxConcurrentRuns < 1 {
		cfg.MaxConcurrentRuns = 1
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = 10 * time.Minute
	}
	return &Instagram{client: client, cfg: cfg}
}

// Profiles fetches profile data keyed by lower-case username.
func (ig *Instagram) Profiles(ctx context.Context, usernames []string) (map[string]Profile, error) {
	return runActorBatches(ctx, ig, "instagram", ig.cfg.ProfileActor, usernames,
		func(batch []string) any {
			return map[string]any{"usernames": batch}
		},
		func(items []json.RawMessage, out map[string]Profile) {
			profiles, skipped := apify.Decode[Profile](items)
			if skipped > 0 {
				zap.L().Debug("instagram: skipped malformed profiles", zap.Int("skipped", skipped))
			}
			for _, p := range profiles {
				if p.Username == "" {
					continue
				}
				out[strings.ToLower(p.Username)] = p
			}
		})
}

// ReelViews returns the mean positive view count of recent reels per owner.
func (ig *Instagram) ReelViews(ctx context.Context, usernames []string) (map[string]float64, error) {
	return runActorBatches(ctx, ig, "reels", ig.cfg.ReelsActor, usernames,
		ig.feedInput,
		func(items []json.RawMessage, out map[string]float64) {
			reels, _ := apify.Decode[reelItem](items)
			samples := map[string][]float64{}
			for _, r := range reels {
				views := r.VideoViewCount
				if views == 0 {
					views = r.PlayCount
				}
				owner := strings.ToLower(r.OwnerUsername)
				if owner != "" && views > 0 {
					samples[owner] = append(samples[owner], views)
				}
			}
			for owner, v := range samples {
				out[owner] = mean(v)
			}
		})
}

// PostLikes returns the mean like count of recent posts per owner. Posts
// with hidden likes are excluded.
func (ig *Instagram) PostLikes(ctx context.Context, usernames []string) (map[string]float64, error) {
	return runActorBatches(ctx, ig, "posts", ig.cfg.PostsActor, usernames,
		ig.feedInput,
		func(items []json.RawMessage, out map[string]float64) {
			posts, _ := apify.Decode[postItem](items)
			samples := map[string][]float64{}
			for _, p := range posts {
				owner := strings.ToLower(p.OwnerUsername)
				if owner == "" || p.LikesCount == nil || *p.LikesCount < 0 {
					continue
				}
				samples[owner] = append(samples[owner], *p.LikesCount)
			}
			for owner, v := range samples {
				out[owner] = mean(v)
			}
		})
}

func (ig *Instagram) feedInput(batch []string) any {
	return map[string]any{"username": batch, "resultsLimit": ig.cfg.ResultsPerUser}
}

// runActorBatches calls actorID once per batch of usernames. A failed batch
// is logged and loses only its own results; the only error returned is the
// context's.
func runActorBatches[T any](
	ctx context.Context,
	ig *Instagram,
	stage, actorID string,
	usernames []string,
	input func(batch []string) any,
	collect func(items []json.RawMessage, out map[string]T),
) (map[string]T, error) {
	log := zap.L().With(zap.String("stage", stage), zap.String("actor", actorID))
	batches := Batches(usernames, ig.cfg.BatchSize)

	var (
		mu  sync.Mutex
		out = make(map[string]T)
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(ig.cfg.MaxConcurrentRuns)

	for i, batch := range batches {
		if gCtx.Err() != nil {
			break
		}
		g.Go(func() error {
			items, err := apify.CallActor(gCtx, ig.client, actorID, input(batch), apify.WithPollTimeout(ig.cfg.PollTimeout))
			if err != nil {
				log.Warn("instagram: batch failed",
					zap.Int("batch", i+1),
					zap.Int("batches", len(batches)),
					zap.Int("profiles", len(batch)),
					zap.Error(err),
				)
				return nil
			}
			part := make(map[string]T)
			collect(items, part)

			mu.Lock()
			for k, v := range part {
				out[k] = v
			}
			n := len(out)
			mu.Unlock()

			log.Info("instagram: batch complete",
				zap.Int("batch", i+1),
				zap.Int("batches", len(batches)),
				zap.Int("items", len(items)),
				zap.Int("profiles_so_far", n),
			)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func mean(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	var sum float64
	for _, x := range v {
		sum += x
	}
	return sum / float64(len(v))
}

// usernamesOf returns the distinct Instagram usernames in leads, in order.
func usernamesOf(leads []model.Lead) []string {
	seen := map[string]bool{}
	var out []string
	for _, l := range leads {
		u := strings.ToLower(l.IGUsername)
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, l.IGUsername)
	}
	return out
}

// byUsername fans per-username results out to every lead with that username.
func byUsername[T any](leads []model.Lead, data map[string]T) map[model.Key]T {
	out := make(map[model.Key]T)
	for _, l := range leads {
		if v, ok := data[strings.ToLower(l.IGUsername)]; ok && l.IGUsername != "" {
			out[l.Key()] = v
		}
	}
	return out
}

// InstagramStage extracts usernames and runs the profile pass.
type InstagramStage struct {
	ig *Instagram
}

// NewInstagramStage creates the profile stage.
func NewInstagramStage(ig *Instagram) *InstagramStage {
	return &InstagramStage{ig: ig}
}

// Name implements Stage.
func (s *InstagramStage) Name() string { return StageInstagram }

// Run implements Stage.
func (s *InstagramStage) Run(ctx context.Context, st *store.Store) (Stats, error) {
	st.Each(func(l *model.Lead) {
		if l.IGUsername == "" {
			l.IGUsername = InstagramUsername(l.InstagramURL)
		}
	})

	leads := st.Leads()
	usernames := usernamesOf(leads)
	stats := Stats{Processed: len(usernames)}
	if len(usernames) == 0 {
		zap.L().Info("instagram: no profiles to scrape")
		return stats, nil
	}

	profiles, err := s.ig.Profiles(ctx, usernames)
	if err != nil {
		return stats, err
	}
	stats.Succeeded = len(profiles)

	store.Apply(st, byUsername(leads, profiles), func(l *model.Lead, p Profile) {
		l.IGFollowers = p.Followers
		l.IGPosts = p.Posts
		l.IGIsBusiness = p.IsBusiness
		l.AvgVideoViews = MergeNonZero(l.AvgVideoViews, p.AvgVideoViews)
		l.AvgLikes = MergeNonZero(l.AvgLikes, p.AvgLikes)
		if p.Followers > 0 {
			stats.Found++
		}
	})
	return stats, nil
}

// ReelsStage refines avg_video_views from recent reels.
type ReelsStage struct {
	ig *Instagram
}

// NewReelsStage creates the reels stage.
func NewReelsStage(ig *Instagram) *ReelsStage {
	return &ReelsStage{ig: ig}
}

// Name implements Stage.
func (s *ReelsStage) Name() string { return StageReels }

// Run implements Stage.
func (s *ReelsStage) Run(ctx context.Context, st *store.Store) (Stats, error) {
	return runFeedStage(ctx, st, s.ig.ReelViews, func(l *model.Lead, v float64) {
		l.AvgVideoViews = MergeNonZero(l.AvgVideoViews, v)
	})
}

// PostsStage refines avg_likes from recent posts.
type PostsStage struct {
	ig *Instagram
}

// NewPostsStage creates the posts stage.
func NewPostsStage(ig *Instagram) *PostsStage {
	return &PostsStage{ig: ig}
}

// Name implements Stage.
func (s *PostsStage) Name() string { return StagePosts }

// Run implements Stage.
func (s *PostsStage) Run(ctx context.Context, st *store.Store) (Stats, error) {
	return runFeedStage(ctx, st, s.ig.PostLikes, func(l *model.Lead, v float64) {
		l.AvgLikes = MergeNonZero(l.AvgLikes, v)
	})
}

func runFeedStage(
	ctx context.Context,
	st *store.Store,
	fetch func(ctx context.Context, usernames []string) (map[string]float64, error),
	merge func(l *model.Lead, v float64),
) (Stats, error) {
	leads := st.Leads()
	usernames := usernamesOf(leads)
	stats := Stats{Processed: len(usernames)}
	if len(usernames) == 0 {
		return stats, nil
	}

	data, err := fetch(ctx, usernames)
	if err != nil {
		return stats, err
	}
	stats.Succeeded = len(data)

	store.Apply(st, byUsername(leads, data), func(l *model.Lead, v float64) {
		merge(l, v)
		if v > 0 {
			stats.Found++
		}
	})
	return stats, nil
}
