// Package export writes ranked leads to the final CSV and XLSX files.
package export

import (
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/kavir10/lead-scoring/internal/model"
	"github.com/kavir10/lead-scoring/internal/scorer"
	"github.com/kavir10/lead-scoring/internal/store"
)

// TimestampLayout stamps export file names.
const TimestampLayout = "20060102_150405"

// TopLeadColumns is the column set of the top-leads outreach list.
var TopLeadColumns = []string{
	"name", "address", "city", "state", "phone", "website", "business_type",
	"lead_score", "tier",
	"reservation_difficulty", "reservation_url",
	"review_difficulty_sentiment", "booking_availability_score",
	"follower_count", "avg_video_views",
	"review_count",
	"press_mentions", "press_sources", "awards_count", "awards_list",
	"rating", "avg_likes", "price_tier",
	"instagram_url", "ig_followers",
	"facebook_url", "fb_likes",
	"has_email_signup", "has_ecommerce",
}

// Options configures an export.
type Options struct {
	Dir      string
	TopTiers []string
	XLSX     bool
	Now      time.Time
}

// Result lists the files an export wrote.
type Result struct {
	AllCSV  string
	TopCSV  string
	TopXLSX string
	Top     int
}

// Write saves every ranked lead to 3_scored_all_<ts>.csv and the leads in
// the top tiers to 3_top_leads_<ts>.csv (and .xlsx when enabled).
func Write(ranked []model.Lead, opts Options) (Result, error) {
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	if len(opts.TopTiers) == 0 {
		opts.TopTiers = []string{"A", "B"}
	}
	ts := opts.Now.Format(TimestampLayout)

	res := Result{
		AllCSV: filepath.Join(opts.Dir, "3_scored_all_"+ts+".csv"),
		TopCSV: filepath.Join(opts.Dir, "3_top_leads_"+ts+".csv"),
	}
	if err := store.WriteCSV(res.AllCSV, ranked); err != nil {
		return Result{}, eris.Wrap(err, "export: scored leads")
	}

	top := scorer.FilterTiers(ranked, opts.TopTiers)
	res.Top = len(top)
	if err := store.WriteColumnsCSV(res.TopCSV, top, TopLeadColumns); err != nil {
		return Result{}, eris.Wrap(err, "export: top leads")
	}

	if opts.XLSX {
		res.TopXLSX = filepath.Join(opts.Dir, "3_top_leads_"+ts+".xlsx")
		if err := WriteXLSX(res.TopXLSX, top, TopLeadColumns); err != nil {
			return Result{}, err
		}
	}

	zap.L().Info("export: leads written",
		zap.Int("scored", len(ranked)),
		zap.Int("top", res.Top),
		zap.Strings("top_tiers", opts.TopTiers),
		zap.String("all_csv", res.AllCSV),
		zap.String("top_csv", res.TopCSV),
		zap.String("top_xlsx", res.TopXLSX),
	)
	return res, nil
}
