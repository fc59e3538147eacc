package enrich

import (
	"context"
	"encoding/json"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/kavir10/lead-scoring/internal/model"
	"github.com/kavir10/lead-scoring/internal/store"
	"github.com/kavir10/lead-scoring/pkg/apify"
	"github.com/kavir10/lead-scoring/pkg/resy"
)

// wideOpenSlots is the mean open slots per date treated as fully available.
const wideOpenSlots = 10.0

var errNoVenue = eris.New("availability: no resy venue in url")

var resySlugRe = regexp.MustCompile(`resy\.com/cities/[^/]+/([^/?#]+)`)

// ResyVenue extracts the venue slug from a Resy booking URL.
func ResyVenue(u string) string {
	m := resySlugRe.FindStringSubmatch(u)
	if m == nil {
		return ""
	}
	return m[1]
}

// AvailabilityScore maps open slots per checked date to [0, 1], where 0 is
// fully booked. No observations means the calendar was never checked.
func AvailabilityScore(slotsPerDate []float64) float64 {
	if len(slotsPerDate) == 0 {
		return model.DefaultBookingAvailability
	}
	return round3(math.Min(1, mean(slotsPerDate)/wideOpenSlots))
}

// AvailabilityConfig configures booking availability checks.
type AvailabilityConfig struct {
	OpenTableActor string
	OpenTableBatch int
	OffsetsDays    []int
	PartySize      int
	Time           string
	Workers        int
	PollTimeout    time.Duration
}

type openTableItem struct {
	URL            string          `json:"url"`
	AvailableSlots json.RawMessage `json:"availableSlots"`
	Timeslots      json.RawMessage `json:"timeslots"`
}

// slotCount returns the length of the first non-empty slot list.
func (it openTableItem) slotCount() int {
	for _, raw := range []json.RawMessage{it.AvailableSlots, it.Timeslots} {
		var slots []json.RawMessage
		if len(raw) == 0 || json.Unmarshal(raw, &slots) != nil {
			continue
		}
		if len(slots) > 0 {
			return len(slots)
		}
	}
	return 0
}

// AvailabilityStage checks OpenTable and Resy calendars for leads with a
// detected booking platform. Tock has no public availability and stays
// unchecked. Either client may be nil, which skips that platform.
type AvailabilityStage struct {
	apify apify.Client
	resy  resy.Client
	cfg   AvailabilityConfig
	now   func() time.Time
}

// NewAvailabilityStage creates the availability stage.
func NewAvailabilityStage(ac apify.Client, rc resy.Client, cfg AvailabilityConfig) *AvailabilityStage {
	if cfg.OpenTableBatch < 1 {
		cfg.OpenTableBatch = 20
	}
	if len(cfg.OffsetsDays) == 0 {
		cfg.OffsetsDays = []int{1, 3, 7}
	}
	if cfg.PartySize < 1 {
		cfg.PartySize = 2
	}
	if cfg.Time == "" {
		cfg.Time = "19:00"
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = 10 * time.Minute
	}
	return &AvailabilityStage{apify: ac, resy: rc, cfg: cfg, now: time.Now}
}

// Name implements Stage.
func (s *AvailabilityStage) Name() string { return StageAvailability }

// CheckDates returns the dates checked, as YYYY-MM-DD offsets from today.
func (s *AvailabilityStage) CheckDates() []string {
	today := s.now()
	out := make([]string, len(s.cfg.OffsetsDays))
	for i, d := range s.cfg.OffsetsDays {
		out[i] = today.AddDate(0, 0, d).Format(time.DateOnly)
	}
	return out
}

// Run implements Stage.
func (s *AvailabilityStage) Run(ctx context.Context, st *store.Store) (Stats, error) {
	log := zap.L().With(zap.String("stage", StageAvailability))
	dates := s.CheckDates()

	var openTable, resyLeads []model.Lead
	for _, l := range st.Leads() {
		url := strings.ToLower(l.ReservationURL)
		switch {
		case l.ReservationDifficulty == model.ReservationOpenTable && strings.Contains(url, "opentable.com"):
			openTable = append(openTable, l)
		case l.ReservationDifficulty == model.ReservationResy && strings.Contains(url, "resy.com"):
			resyLeads = append(resyLeads, l)
		}
	}

	observed := make(map[model.Key][]float64)
	stats := Stats{}

	if s.apify != nil && len(openTable) > 0 {
		stats.Processed += len(openTable)
		res, err := s.checkOpenTable(ctx, openTable, dates)
		if err != nil {
			return stats, err
		}
		for k, v := range res {
			observed[k] = v
		}
	} else if len(openTable) > 0 {
		log.Warn("availability: skipping OpenTable checks, apify.api_token not set", zap.Int("leads", len(openTable)))
	}

	if s.resy != nil && len(resyLeads) > 0 {
		stats.Processed += len(resyLeads)
		res, _, err := RunStage(ctx, StageAvailability, resyLeads, s.cfg.Workers, func(ctx context.Context, l model.Lead) ([]float64, error) {
			return s.checkResy(ctx, l, dates)
		})
		if err != nil {
			return stats, err
		}
		for k, v := range res {
			observed[k] = v
		}
	} else if len(resyLeads) > 0 {
		log.Warn("availability: skipping Resy checks, resy.api_key not set", zap.Int("leads", len(resyLeads)))
	}

	stats.Succeeded = len(observed)
	store.Apply(st, observed, func(l *model.Lead, slots []float64) {
		l.AvailabilityChecked = true
		l.BookingAvailabilityScore = AvailabilityScore(slots)
		if l.BookingAvailabilityScore == 0 {
			stats.Found++
		}
	})

	log.Info("availability: calendars checked",
		zap.Int("opentable", len(openTable)),
		zap.Int("resy", len(resyLeads)),
		zap.Int("checked", stats.Succeeded),
		zap.Int("fully_booked", stats.Found),
	)
	return stats, nil
}

// checkOpenTable runs the OpenTable actor over batches of booking URLs and
// attributes each returned item to the first URL it contains.
func (s *AvailabilityStage) checkOpenTable(ctx context.Context, leads []model.Lead, dates []string) (map[model.Key][]float64, error) {
	out := make(map[model.Key][]float64)
	for i, batch := range Batches(leads, s.cfg.OpenTableBatch) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		startURLs := make([]map[string]string, len(batch))
		for j, l := range batch {
			startURLs[j] = map[string]string{"url": l.ReservationURL}
		}
		input := map[string]any{
			"startUrls": startURLs,
			"dates":     dates,
			"partySize": s.cfg.PartySize,
			"time":      s.cfg.Time,
		}

		items, err := apify.CallActor(ctx, s.apify, s.cfg.OpenTableActor, input, apify.WithPollTimeout(s.cfg.PollTimeout))
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			zap.L().Warn("availability: opentable batch failed", zap.Int("batch", i+1), zap.Error(err))
			continue
		}

		decoded, _ := apify.Decode[openTableItem](items)
		for _, it := range decoded {
			if it.URL == "" {
				continue
			}
			for _, l := range batch {
				if strings.Contains(it.URL, strings.TrimRight(l.ReservationURL, "/")) {
					out[l.Key()] = append(out[l.Key()], float64(it.slotCount()))
					break
				}
			}
		}
	}
	return out, nil
}

// checkResy sums open slots over every date and returns the mean per date.
// A lead is unchecked only when every date's lookup failed.
func (s *AvailabilityStage) checkResy(ctx context.Context, l model.Lead, dates []string) ([]float64, error) {
	venue := ResyVenue(l.ReservationURL)
	if venue == "" {
		return nil, errNoVenue
	}

	total, ok := 0, 0
	var lastErr error
	for _, day := range dates {
		n, err := s.resy.OpenSlots(ctx, venue, day, s.cfg.PartySize)
		if err != nil {
			lastErr = err
			continue
		}
		total += n
		ok++
	}
	if ok == 0 {
		return nil, lastErr
	}
	return []float64{float64(total) / float64(len(dates))}, nil
}
