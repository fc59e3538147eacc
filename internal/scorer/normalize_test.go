package scorer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kavir10/lead-scoring/internal/model"
)

func TestReservationComposite_Example(t *testing.T) {
	l := model.NewLead()
	l.ReservationDifficulty = model.ReservationResy
	l.ReviewDifficultySentiment = 0.6
	l.BookingAvailabilityScore = 0.2

	// 0.40*0.7 + 0.35*0.6 + 0.25*0.8
	assert.InDelta(t, 0.69, ReservationComposite(&l), 0.0001)
}

func TestReservationComposite_Bounds(t *testing.T) {
	l := model.NewLead()
	assert.InDelta(t, 0.0, ReservationComposite(&l), 0.0001, "no platform, no sentiment, wide open")

	l.ReservationDifficulty = model.ReservationTock
	l.ReviewDifficultySentiment = 3
	l.BookingAvailabilityScore = -1
	assert.InDelta(t, 1.0, ReservationComposite(&l), 0.0001, "inputs clamped")

	l.ReviewDifficultySentiment = math.NaN()
	l.BookingAvailabilityScore = math.NaN()
	assert.InDelta(t, 0.4, ReservationComposite(&l), 0.0001, "NaN treated as neutral")
}

func TestReservationComposite_Monotonic(t *testing.T) {
	l := model.NewLead()
	l.ReviewDifficultySentiment = 0.3
	l.BookingAvailabilityScore = 0.5

	prev := -1.0
	for _, p := range []model.ReservationPlatform{
		model.ReservationNone, model.ReservationOpenTable, model.ReservationResy, model.ReservationTock,
	} {
		l.ReservationDifficulty = p
		got := ReservationComposite(&l)
		assert.Greater(t, got, prev, p.String())
		prev = got
	}

	l.ReservationDifficulty = model.ReservationOpenTable
	prev = -1.0
	for avail := 1.0; avail >= 0; avail -= 0.1 {
		l.BookingAvailabilityScore = avail
		got := ReservationComposite(&l)
		assert.GreaterOrEqual(t, got, prev, "scarcer calendar never lowers the composite")
		prev = got
	}
}

func TestScoreReviewCount(t *testing.T) {
	tests := []struct {
		n    int
		want float64
	}{
		{0, 0.1}, {24, 0.1}, {25, 0.2}, {49, 0.2}, {50, 0.4}, {99, 0.4},
		{100, 0.6}, {249, 0.6}, {250, 0.8}, {499, 0.8}, {500, 0.9}, {999, 0.9}, {1000, 1.0}, {50000, 1.0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, scoreReviewCount(tt.n), 0.0001, "n=%d", tt.n)
	}
}

func TestScoreRating(t *testing.T) {
	tests := []struct {
		name   string
		rating *float64
		want   float64
	}{
		{"nil", nil, 0},
		{"zero", model.Float(0), 0},
		{"low", model.Float(2.0), 0.1},
		{"3.5", model.Float(3.5), 0.3},
		{"3.99", model.Float(3.99), 0.3},
		{"4.0", model.Float(4.0), 0.5},
		{"4.3", model.Float(4.3), 0.7},
		{"4.5", model.Float(4.5), 0.9},
		{"4.69", model.Float(4.69), 0.9},
		{"4.7", model.Float(4.7), 1.0},
		{"5", model.Float(5), 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, scoreRating(tt.rating), 0.0001)
		})
	}
}

func TestScoreFollowers(t *testing.T) {
	tests := []struct {
		n    int
		want float64
	}{
		{0, 0}, {1, 0.1}, {499, 0.1}, {500, 0.2}, {1000, 0.3}, {2000, 0.5},
		{5000, 0.7}, {10_000, 0.8}, {20_000, 0.9}, {49_999, 0.9}, {50_000, 1.0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, scoreFollowers(tt.n), 0.0001, "n=%d", tt.n)
	}
}

func TestScoreVideoViews(t *testing.T) {
	tests := []struct {
		v    float64
		want float64
	}{
		{0, 0}, {0.5, 0.1}, {999, 0.1}, {1000, 0.2}, {5000, 0.4},
		{10_000, 0.6}, {20_000, 0.8}, {50_000, 1.0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, scoreVideoViews(tt.v), 0.0001, "v=%v", tt.v)
	}
}

func TestScoreLikes(t *testing.T) {
	tests := []struct {
		v    float64
		want float64
	}{
		{0, 0}, {1, 0.1}, {49, 0.1}, {50, 0.2}, {200, 0.4},
		{500, 0.6}, {1000, 0.8}, {2000, 1.0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, scoreLikes(tt.v), 0.0001, "v=%v", tt.v)
	}
}

func TestScorePressAwardsPrice(t *testing.T) {
	press := map[int]float64{0: 0, 1: 0.3, 2: 0.3, 3: 0.6, 5: 0.6, 6: 0.8, 9: 0.8, 10: 1.0, 40: 1.0}
	for n, want := range press {
		assert.InDelta(t, want, scorePress(n), 0.0001, "press=%d", n)
	}

	awards := map[int]float64{0: 0, 1: 0.5, 2: 0.8, 3: 1.0, 7: 1.0}
	for n, want := range awards {
		assert.InDelta(t, want, scoreAwards(n), 0.0001, "awards=%d", n)
	}

	price := map[int]float64{0: 0, 1: 0.2, 2: 0.5, 3: 0.8, 4: 1.0, 5: 1.0}
	for n, want := range price {
		assert.InDelta(t, want, scorePriceTier(n), 0.0001, "price=%d", n)
	}
}

func TestNormalizers_Monotonic(t *testing.T) {
	ints := map[string]func(int) float64{
		SignalReviews:   scoreReviewCount,
		SignalFollowers: scoreFollowers,
		SignalPress:     scorePress,
		SignalAwards:    scoreAwards,
		SignalPrice:     scorePriceTier,
	}
	for name, fn := range ints {
		prev := -1.0
		for n := 0; n <= 60_000; n += 7 {
			got := fn(n)
			assert.GreaterOrEqual(t, got, prev, "%s at %d", name, n)
			assert.LessOrEqual(t, got, 1.0)
			prev = got
		}
	}

	floats := map[string]func(float64) float64{
		SignalVideoViews: scoreVideoViews,
		SignalLikes:      scoreLikes,
		SignalRating:     func(v float64) float64 { return scoreRating(&v) },
	}
	for name, fn := range floats {
		prev := -1.0
		for v := 0.0; v <= 60_000; v += 3.3 {
			got := fn(v)
			assert.GreaterOrEqual(t, got, prev, "%s at %v", name, v)
			prev = got
		}
	}
}

func TestNormalizers_Registry(t *testing.T) {
	reg := Normalizers()
	assert.Len(t, reg, 11)
	for name := range DefaultProfile().Weights {
		assert.Contains(t, reg, name)
	}

	l := model.NewLead()
	l.HasEcommerce = true
	assert.InDelta(t, 1.0, reg[SignalEcommerce](&l), 0.0001)
	assert.InDelta(t, 0.0, reg[SignalEmail](&l), 0.0001)

	// Each call returns a fresh map.
	delete(reg, SignalEmail)
	assert.Len(t, Normalizers(), 11)
}
