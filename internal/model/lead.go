// Package model defines the lead record shared by discovery, enrichment, and scoring.
package model

import (
	"strings"
)

// BusinessType tags the kind of business a lead represents.
type BusinessType string

const (
	BusinessRestaurant BusinessType = "restaurant"
	BusinessButcher    BusinessType = "butcher"
	BusinessWineStore  BusinessType = "wine_store"
)

// Valid reports whether t is a known business type.
func (t BusinessType) Valid() bool {
	switch t {
	case BusinessRestaurant, BusinessButcher, BusinessWineStore:
		return true
	default:
		return false
	}
}

// ReservationPlatform is the ordinal reservation difficulty of a lead.
// Higher values mean the venue is harder to get into.
type ReservationPlatform int

const (
	ReservationNone      ReservationPlatform = 0
	ReservationOpenTable ReservationPlatform = 1
	ReservationResy      ReservationPlatform = 2
	ReservationTock      ReservationPlatform = 3
)

func (p ReservationPlatform) String() string {
	switch p {
	case ReservationOpenTable:
		return "opentable"
	case ReservationResy:
		return "resy"
	case ReservationTock:
		return "tock"
	default:
		return "none"
	}
}

// Tier is the outreach priority bucket derived from the lead score.
type Tier string

const (
	TierA Tier = "A - Hot Lead"
	TierB Tier = "B - Warm Lead"
	TierC Tier = "C - Worth a Look"
	TierD Tier = "D - Low Priority"
)

// Letter returns the single-letter tier code.
func (t Tier) Letter() string {
	if t == "" {
		return ""
	}
	return string(t[0])
}

// ParseTier accepts either the letter or the full label.
func ParseTier(s string) Tier {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	switch strings.ToUpper(s[:1]) {
	case "A":
		return TierA
	case "B":
		return TierB
	case "C":
		return TierC
	case "D":
		return TierD
	default:
		return ""
	}
}

// Key is the stable identity of a lead inside a store.
type Key string

// Lead is one candidate business tracked through the pipeline.
//
// Enrichment fields always hold a value: zero, empty, or false when a stage
// found nothing. Discovery fields that a provider may omit are pointers.
type Lead struct {
	// Identity.
	Name            string `csv:"name"`
	Address         string `csv:"address"`
	Phone           string `csv:"phone"`
	PhoneNormalized string `csv:"phone_normalized"`
	Website         string `csv:"website"`

	// Classification.
	BusinessType   BusinessType `csv:"business_type"`
	SearchCategory string       `csv:"search_category"`
	Category       string       `csv:"category"`

	// Discovery.
	Rating      *float64 `csv:"rating"`
	ReviewCount int      `csv:"review_count"`
	PriceLevel  string   `csv:"price_level"`
	PriceTier   int      `csv:"price_tier"`
	City        string   `csv:"city"`
	State       string   `csv:"state"`
	Latitude    *float64 `csv:"latitude"`
	Longitude   *float64 `csv:"longitude"`
	PlaceID     string   `csv:"cid"`
	SearchQuery string   `csv:"search_query"`
	SearchCity  string   `csv:"search_city"`

	// Website.
	WebsiteReachable      bool                `csv:"website_reachable"`
	HasEcommerce          bool                `csv:"has_ecommerce"`
	HasEmailSignup        bool                `csv:"has_email_signup"`
	HasOnlineOrdering     bool                `csv:"has_online_ordering"`
	EcommercePlatform     string              `csv:"ecommerce_platform"`
	EmailPlatform         string              `csv:"email_platform"`
	PageTitle             string              `csv:"page_title"`
	InstagramURL          string              `csv:"instagram_url"`
	FacebookURL           string              `csv:"facebook_url"`
	ReservationDifficulty ReservationPlatform `csv:"reservation_difficulty"`
	ReservationURL        string              `csv:"reservation_url"`

	// Social.
	IGUsername    string  `csv:"ig_username"`
	IGFollowers   int     `csv:"ig_followers"`
	IGPosts       int     `csv:"ig_posts"`
	IGIsBusiness  bool    `csv:"ig_is_business"`
	FBLikes       int     `csv:"fb_likes"`
	FollowerCount int     `csv:"follower_count"`
	AvgVideoViews float64 `csv:"avg_video_views"`
	AvgLikes      float64 `csv:"avg_likes"`

	// Press and awards.
	PressMentions int    `csv:"press_mentions"`
	PressSources  string `csv:"press_sources"`
	AwardsCount   int    `csv:"awards_count"`
	AwardsList    string `csv:"awards_list"`

	// Reviews and booking.
	ReviewDifficultySentiment float64 `csv:"review_difficulty_sentiment"`
	ReviewSample              string  `csv:"review_texts_sample"`
	BookingAvailabilityScore  float64 `csv:"booking_availability_score"`
	AvailabilityChecked       bool    `csv:"availability_checked"`

	// Derived.
	LeadScore float64 `csv:"lead_score"`
	Tier      Tier    `csv:"tier"`
}

// DefaultBookingAvailability is the availability assumed for any lead whose
// booking calendar was never checked.
const DefaultBookingAvailability = 1.0

// NewLead returns a lead with every enrichment field at its neutral value.
func NewLead() Lead {
	return Lead{BookingAvailabilityScore: DefaultBookingAvailability}
}

// Key returns the lead's identity: the normalized phone when present,
// otherwise the (name, address) pair.
func (l *Lead) Key() Key {
	if l.PhoneNormalized != "" {
		return Key("phone:" + l.PhoneNormalized)
	}
	return Key("name:" + l.Name + "|" + l.Address)
}

// RaiseReservation records platform p if it is harder than the current one.
// The difficulty never decreases; the URL follows the platform that set it.
func (l *Lead) RaiseReservation(p ReservationPlatform, url string) {
	if p > l.ReservationDifficulty {
		l.ReservationDifficulty = p
		l.ReservationURL = url
	}
}

// ComputeFollowerCount sets FollowerCount from the Instagram and Facebook counts.
func (l *Lead) ComputeFollowerCount() {
	l.FollowerCount = max(l.IGFollowers, 0) + max(l.FBLikes, 0)
}

// RatingValue returns the rating or 0 when absent.
func (l *Lead) RatingValue() float64 {
	if l.Rating == nil {
		return 0
	}
	return *l.Rating
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}
