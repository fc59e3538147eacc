package discovery

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/kavir10/lead-scoring/internal/config"
	"github.com/kavir10/lead-scoring/internal/model"
)

// QualityFloor is the minimum review count and rating a lead needs to be
// kept. Both bounds are inclusive.
type QualityFloor struct {
	MinReviews int
	MinRating  float64
}

// Passes reports whether l meets the floor. A missing rating fails.
func (f QualityFloor) Passes(l *model.Lead) bool {
	if l.Rating == nil {
		return false
	}
	return l.ReviewCount >= f.MinReviews && *l.Rating >= f.MinRating
}

// FilterConfig holds the disqualification policy.
type FilterConfig struct {
	ChainKeywords  []string
	LiquorKeywords []string
	QualityFloors  map[model.BusinessType]QualityFloor
	// DefaultFloor applies to business types without an entry in QualityFloors.
	DefaultFloor QualityFloor
}

// NewFilterConfig builds a FilterConfig from the discovery configuration.
func NewFilterConfig(cfg config.DiscoveryConfig) FilterConfig {
	fc := FilterConfig{
		ChainKeywords:  cfg.ChainKeywords,
		LiquorKeywords: cfg.LiquorKeywords,
		QualityFloors:  make(map[model.BusinessType]QualityFloor, len(cfg.QualityFloors)),
		DefaultFloor: QualityFloor{
			MinReviews: cfg.DefaultFloor.MinReviews,
			MinRating:  cfg.DefaultFloor.MinRating,
		},
	}
	for bt, f := range cfg.QualityFloors {
		fc.QualityFloors[model.BusinessType(bt)] = QualityFloor{MinReviews: f.MinReviews, MinRating: f.MinRating}
	}
	return fc
}

// Floor returns the quality floor for business type bt.
func (c FilterConfig) Floor(bt model.BusinessType) QualityFloor {
	if f, ok := c.QualityFloors[bt]; ok {
		return f
	}
	return c.DefaultFloor
}

// FilterReport counts how many leads each check rejected. A lead failing
// several checks is counted under each of them.
type FilterReport struct {
	Input        int
	Chains       int
	Liquor       int
	NoWebsite    int
	QualityFloor int
	Kept         int
}

// Filter applies the chain, liquor store, website, and quality floor checks.
// The checks are independent; a lead is kept only when it passes all of them.
func Filter(leads []model.Lead, cfg FilterConfig) ([]model.Lead, FilterReport) {
	chains := foldAll(cfg.ChainKeywords)
	liquor := foldAll(cfg.LiquorKeywords)

	report := FilterReport{Input: len(leads)}
	kept := make([]model.Lead, 0, len(leads))
	for i := range leads {
		l := &leads[i]
		ok := true

		if containsAny(fold(l.Name), chains) {
			report.Chains++
			ok = false
		}
		if l.BusinessType == model.BusinessWineStore && containsAny(fold(l.Name+" "+l.Category), liquor) {
			report.Liquor++
			ok = false
		}
		if strings.TrimSpace(l.Website) == "" {
			report.NoWebsite++
			ok = false
		}
		if !cfg.Floor(l.BusinessType).Passes(l) {
			report.QualityFloor++
			ok = false
		}

		if ok {
			kept = append(kept, *l)
		}
	}
	report.Kept = len(kept)
	return kept, report
}

// fold case-folds s and strips combining marks so "Café" matches "cafe".
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return cases.Fold().String(out)
}

func foldAll(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, fold(k))
		}
	}
	return out
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
