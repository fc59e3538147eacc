package scorer

import (
	"math"

	"github.com/kavir10/lead-scoring/internal/model"
)

// Signal names. These double as the weight keys in a Profile.
const (
	SignalReservation = "reservation_difficulty"
	SignalVideoViews  = "avg_video_views"
	SignalFollowers   = "follower_count"
	SignalReviews     = "review_count"
	SignalPress       = "press_mentions"
	SignalAwards      = "awards_count"
	SignalRating      = "google_rating"
	SignalLikes       = "avg_likes"
	SignalPrice       = "price_tier"
	SignalEmail       = "has_email_signup"
	SignalEcommerce   = "has_ecommerce"
)

// Reservation composite weights.
const (
	compositePlatformWeight     = 0.40
	compositeSentimentWeight    = 0.35
	compositeAvailabilityWeight = 0.25
)

// Normalizer maps one lead signal to [0, 1].
type Normalizer func(l *model.Lead) float64

// Normalizers returns the registry of signal normalizers keyed by signal
// name. The map is freshly allocated on each call.
func Normalizers() map[string]Normalizer {
	return map[string]Normalizer{
		SignalReservation: ReservationComposite,
		SignalVideoViews:  func(l *model.Lead) float64 { return scoreVideoViews(l.AvgVideoViews) },
		SignalFollowers:   func(l *model.Lead) float64 { return scoreFollowers(l.FollowerCount) },
		SignalReviews:     func(l *model.Lead) float64 { return scoreReviewCount(l.ReviewCount) },
		SignalPress:       func(l *model.Lead) float64 { return scorePress(l.PressMentions) },
		SignalAwards:      func(l *model.Lead) float64 { return scoreAwards(l.AwardsCount) },
		SignalRating:      func(l *model.Lead) float64 { return scoreRating(l.Rating) },
		SignalLikes:       func(l *model.Lead) float64 { return scoreLikes(l.AvgLikes) },
		SignalPrice:       func(l *model.Lead) float64 { return scorePriceTier(l.PriceTier) },
		SignalEmail:       func(l *model.Lead) float64 { return scoreFlag(l.HasEmailSignup) },
		SignalEcommerce:   func(l *model.Lead) float64 { return scoreFlag(l.HasEcommerce) },
	}
}

// ReservationComposite blends the booking platform, review sentiment about
// getting a table, and observed calendar scarcity into [0, 1].
func ReservationComposite(l *model.Lead) float64 {
	sentiment := clamp01(l.ReviewDifficultySentiment, 0)
	availability := clamp01(l.BookingAvailabilityScore, model.DefaultBookingAvailability)
	return compositePlatformWeight*scorePlatform(l.ReservationDifficulty) +
		compositeSentimentWeight*sentiment +
		compositeAvailabilityWeight*(1-availability)
}

func scorePlatform(p model.ReservationPlatform) float64 {
	switch {
	case p >= model.ReservationTock:
		return 1.0
	case p == model.ReservationResy:
		return 0.7
	case p == model.ReservationOpenTable:
		return 0.4
	default:
		return 0.0
	}
}

// scoreReviewCount floors at 0.1.
func scoreReviewCount(n int) float64 {
	switch {
	case n >= 1000:
		return 1.0
	case n >= 500:
		return 0.9
	case n >= 250:
		return 0.8
	case n >= 100:
		return 0.6
	case n >= 50:
		return 0.4
	case n >= 25:
		return 0.2
	default:
		return 0.1
	}
}

func scoreRating(rating *float64) float64 {
	if rating == nil || *rating == 0 {
		return 0
	}
	v := *rating
	switch {
	case v >= 4.7:
		return 1.0
	case v >= 4.5:
		return 0.9
	case v >= 4.3:
		return 0.7
	case v >= 4.0:
		return 0.5
	case v >= 3.5:
		return 0.3
	default:
		return 0.1
	}
}

func scoreFollowers(n int) float64 {
	switch {
	case n >= 50_000:
		return 1.0
	case n >= 20_000:
		return 0.9
	case n >= 10_000:
		return 0.8
	case n >= 5_000:
		return 0.7
	case n >= 2_000:
		return 0.5
	case n >= 1_000:
		return 0.3
	case n >= 500:
		return 0.2
	case n > 0:
		return 0.1
	default:
		return 0.0
	}
}

func scoreVideoViews(v float64) float64 {
	switch {
	case v >= 50_000:
		return 1.0
	case v >= 20_000:
		return 0.8
	case v >= 10_000:
		return 0.6
	case v >= 5_000:
		return 0.4
	case v >= 1_000:
		return 0.2
	case v > 0:
		return 0.1
	default:
		return 0.0
	}
}

func scoreLikes(v float64) float64 {
	switch {
	case v >= 2000:
		return 1.0
	case v >= 1000:
		return 0.8
	case v >= 500:
		return 0.6
	case v >= 200:
		return 0.4
	case v >= 50:
		return 0.2
	case v > 0:
		return 0.1
	default:
		return 0.0
	}
}

func scorePress(n int) float64 {
	switch {
	case n >= 10:
		return 1.0
	case n >= 6:
		return 0.8
	case n >= 3:
		return 0.6
	case n >= 1:
		return 0.3
	default:
		return 0.0
	}
}

func scoreAwards(n int) float64 {
	switch {
	case n >= 3:
		return 1.0
	case n == 2:
		return 0.8
	case n == 1:
		return 0.5
	default:
		return 0.0
	}
}

func scorePriceTier(tier int) float64 {
	switch {
	case tier >= 4:
		return 1.0
	case tier == 3:
		return 0.8
	case tier == 2:
		return 0.5
	case tier == 1:
		return 0.2
	default:
		return 0.0
	}
}

func scoreFlag(b bool) float64 {
	if b {
		return 1.0
	}
	return 0.0
}

// clamp01 bounds v to [0, 1]; NaN becomes the neutral value.
func clamp01(v, neutral float64) float64 {
	if math.IsNaN(v) {
		return neutral
	}
	return math.Max(0, math.Min(1, v))
}
