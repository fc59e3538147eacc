package scorer

import (
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/kavir10/lead-scoring/internal/model"
)

// Scorer computes lead scores from a fixed Profile. It holds no mutable
// state and is safe for concurrent use.
type Scorer struct {
	profile     Profile
	normalizers map[string]Normalizer
	signals     []string
}

// New creates a Scorer for a validated copy of p.
func New(p Profile) (*Scorer, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	p = p.Clone()
	return &Scorer{
		profile:     p,
		normalizers: Normalizers(),
		signals:     sortedSignals(p.Weights),
	}, nil
}

// Default returns a Scorer using DefaultProfile.
func Default() *Scorer {
	s, err := New(DefaultProfile())
	if err != nil {
		panic(err)
	}
	return s
}

// Profile returns a copy of the scorer's profile.
func (s *Scorer) Profile() Profile {
	return s.profile.Clone()
}

// Breakdown returns each signal's contribution (normalized value times
// weight) for l.
func (s *Scorer) Breakdown(l *model.Lead) map[string]float64 {
	out := make(map[string]float64, len(s.signals))
	for _, name := range s.signals {
		out[name] = s.normalizers[name](l) * s.profile.Weights[name]
	}
	return out
}

// Score returns the lead score rounded to one decimal place, and its tier.
// Signals are summed in a fixed order so the result is reproducible.
func (s *Scorer) Score(l *model.Lead) (float64, model.Tier) {
	var total float64
	for _, name := range s.signals {
		total += s.normalizers[name](l) * s.profile.Weights[name]
	}
	score := math.Round(total*10) / 10
	return score, s.profile.Tiers.Tier(score)
}

// Rank scores copies of leads and returns them sorted by score descending.
// Ties keep their input order.
func (s *Scorer) Rank(leads []model.Lead) []model.Lead {
	out := make([]model.Lead, len(leads))
	copy(out, leads)
	for i := range out {
		out[i].LeadScore, out[i].Tier = s.Score(&out[i])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LeadScore > out[j].LeadScore
	})

	counts := CountTiers(out)
	zap.L().Info("scorer: leads ranked",
		zap.Int("leads", len(out)),
		zap.Int("tier_a", counts[model.TierA]),
		zap.Int("tier_b", counts[model.TierB]),
		zap.Int("tier_c", counts[model.TierC]),
		zap.Int("tier_d", counts[model.TierD]),
	)
	return out
}

// Tier maps a score to its tier.
func (t Thresholds) Tier(score float64) model.Tier {
	switch {
	case score >= t.A:
		return model.TierA
	case score >= t.B:
		return model.TierB
	case score >= t.C:
		return model.TierC
	default:
		return model.TierD
	}
}

// TierFor maps a score to its tier using the default thresholds.
func TierFor(score float64) model.Tier {
	return DefaultProfile().Tiers.Tier(score)
}

// CountTiers counts leads per tier.
func CountTiers(leads []model.Lead) map[model.Tier]int {
	out := make(map[model.Tier]int, 4)
	for _, l := range leads {
		out[l.Tier]++
	}
	return out
}

// FilterTiers returns the leads whose tier letter is in letters, preserving
// order.
func FilterTiers(leads []model.Lead, letters []string) []model.Lead {
	want := make(map[model.Tier]bool, len(letters))
	for _, l := range letters {
		if t := model.ParseTier(l); t != "" {
			want[t] = true
		}
	}
	var out []model.Lead
	for _, l := range leads {
		if want[l.Tier] {
			out = append(out, l)
		}
	}
	return out
}
