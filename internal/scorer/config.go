// Package scorer turns enriched lead signals into a 0-100 lead score and tier.
package scorer

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Thresholds are the minimum scores for tiers A, B, and C. Anything below C
// is tier D.
type Thresholds struct {
	A float64 `yaml:"a"`
	B float64 `yaml:"b"`
	C float64 `yaml:"c"`
}

// Profile is a scoring configuration: one weight per signal plus the tier
// thresholds. Profiles are values; a Scorer copies the one it is given.
type Profile struct {
	Weights map[string]float64 `yaml:"weights"`
	Tiers   Thresholds         `yaml:"tiers"`
}

// DefaultProfile returns the default weights (sum = 100) and thresholds.
func DefaultProfile() Profile {
	return Profile{
		Weights: map[string]float64{
			SignalReservation: 15,
			SignalVideoViews:  8,
			SignalFollowers:   14,
			SignalReviews:     5,
			SignalPress:       15,
			SignalAwards:      12,
			SignalRating:      8,
			SignalLikes:       5,
			SignalPrice:       5,
			SignalEmail:       7,
			SignalEcommerce:   6,
		},
		Tiers: Thresholds{A: 55, B: 35, C: 20},
	}
}

// Clone returns a deep copy of p.
func (p Profile) Clone() Profile {
	w := make(map[string]float64, len(p.Weights))
	for k, v := range p.Weights {
		w[k] = v
	}
	return Profile{Weights: w, Tiers: p.Tiers}
}

// WeightSum returns the sum of all signal weights.
func (p Profile) WeightSum() float64 {
	var sum float64
	for _, name := range sortedSignals(p.Weights) {
		sum += p.Weights[name]
	}
	return sum
}

// Validate checks that a Profile is internally consistent.
func (p Profile) Validate() error {
	var errs []string

	known := Normalizers()
	for _, name := range sortedSignals(p.Weights) {
		w := p.Weights[name]
		if _, ok := known[name]; !ok {
			errs = append(errs, fmt.Sprintf("unknown signal %q", name))
		}
		if w < 0 {
			errs = append(errs, fmt.Sprintf("%s weight must be >= 0", name))
		}
	}

	// Weights should be close to 100 (allow tolerance for floating-point).
	if sum := p.WeightSum(); math.Abs(sum-100) > 1 {
		errs = append(errs, fmt.Sprintf("weights should sum to 100, got %.1f", sum))
	}

	t := p.Tiers
	if t.C < 0 || t.A > 100 {
		errs = append(errs, "tier thresholds must be between 0 and 100")
	}
	if t.A <= t.B || t.B <= t.C {
		errs = append(errs, fmt.Sprintf("tier thresholds must descend, got a=%.1f b=%.1f c=%.1f", t.A, t.B, t.C))
	}

	if len(errs) > 0 {
		return eris.Errorf("scorer: profile validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// LoadProfile reads a YAML profile from path. Weights and thresholds it
// names replace the defaults; everything else keeps its default. The
// merged profile is validated.
func LoadProfile(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, eris.Wrap(err, "scorer: read profile")
	}

	var raw struct {
		Weights map[string]float64 `yaml:"weights"`
		Tiers   *Thresholds        `yaml:"tiers"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Profile{}, eris.Wrap(err, "scorer: parse profile")
	}

	p := DefaultProfile()
	for name, w := range raw.Weights {
		p.Weights[name] = w
	}
	if raw.Tiers != nil {
		p.Tiers = *raw.Tiers
	}

	if err := p.Validate(); err != nil {
		return Profile{}, eris.Wrapf(err, "scorer: profile %s", path)
	}
	return p, nil
}

func sortedSignals(m map[string]float64) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
