package enrich

import (
	"context"
	"sort"
	"strings"

	"github.com/kavir10/lead-scoring/internal/model"
	"github.com/kavir10/lead-scoring/internal/store"
	"github.com/kavir10/lead-scoring/pkg/serper"
)

// awardQueryTerms are OR'd into the awards search.
var awardQueryTerms = []string{"James Beard", "Michelin", "best new restaurant", "Food & Wine best"}

// awardCategories map a lower-case marker to the award it names.
var awardCategories = []struct {
	marker string
	label  string
}{
	{"james beard", "James Beard"},
	{"michelin", "Michelin"},
	{"best new restaurant", "Best New Restaurant"},
}

// PressQuery builds the exact-name search restricted to press domains.
func PressQuery(name string, domains []string) string {
	sites := make([]string, len(domains))
	for i, d := range domains {
		sites[i] = "site:" + d
	}
	return `"` + name + `" (` + strings.Join(sites, " OR ") + `)`
}

// AwardsQuery builds the exact-name search for award coverage in a city.
func AwardsQuery(name, city string) string {
	return `"` + name + `" ` + city + ` (` + strings.Join(awardQueryTerms, " OR ") + `)`
}

// PressResult is the press coverage found for one lead.
type PressResult struct {
	Mentions int
	Sources  []string
}

// AwardsResult is the award coverage found for one lead.
type AwardsResult struct {
	Awards []string
}

// CountPress counts every organic result as a mention and collects the
// distinct press domains linked.
func CountPress(results []serper.OrganicResult, domains []string) PressResult {
	seen := map[string]bool{}
	for _, r := range results {
		link := strings.ToLower(r.Link)
		for _, d := range domains {
			if strings.Contains(link, strings.ToLower(d)) {
				seen[d] = true
			}
		}
	}
	return PressResult{Mentions: len(results), Sources: sortedKeys(seen)}
}

// MatchAwards returns the distinct award categories named in the results'
// titles and snippets.
func MatchAwards(results []serper.OrganicResult) AwardsResult {
	seen := map[string]bool{}
	for _, r := range results {
		text := strings.ToLower(r.Title + " " + r.Snippet)
		for _, c := range awardCategories {
			if strings.Contains(text, c.marker) {
				seen[c.label] = true
			}
		}
	}
	return AwardsResult{Awards: sortedKeys(seen)}
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// PressStage searches for press mentions and awards.
type PressStage struct {
	client  serper.Client
	domains []string
	results int
	workers int
}

// NewPressStage creates the press stage.
func NewPressStage(client serper.Client, domains []string, results, workers int) *PressStage {
	if results < 1 {
		results = 10
	}
	return &PressStage{client: client, domains: domains, results: results, workers: workers}
}

// Name implements Stage.
func (s *PressStage) Name() string { return StagePress }

// Run implements Stage. A lead whose press or awards search fails keeps
// the neutral value for that half only.
func (s *PressStage) Run(ctx context.Context, st *store.Store) (Stats, error) {
	leads := st.Leads()

	press, stats, err := RunStage(ctx, "press", leads, s.workers, func(ctx context.Context, l model.Lead) (PressResult, error) {
		res, err := s.client.Search(ctx, PressQuery(l.Name, s.domains), s.results)
		if err != nil {
			return PressResult{}, err
		}
		return CountPress(res, s.domains), nil
	})
	if err != nil {
		return stats, err
	}

	awards, awardStats, err := RunStage(ctx, "awards", leads, s.workers, func(ctx context.Context, l model.Lead) (AwardsResult, error) {
		res, err := s.client.Search(ctx, AwardsQuery(l.Name, l.SearchCity), s.results)
		if err != nil {
			return AwardsResult{}, err
		}
		return MatchAwards(res), nil
	})
	if err != nil {
		return stats, err
	}
	stats.Succeeded = min(stats.Succeeded, awardStats.Succeeded)

	store.Apply(st, press, func(l *model.Lead, p PressResult) {
		l.PressMentions = p.Mentions
		l.PressSources = strings.Join(p.Sources, ", ")
	})
	store.Apply(st, awards, func(l *model.Lead, a AwardsResult) {
		l.AwardsCount = len(a.Awards)
		l.AwardsList = strings.Join(a.Awards, ", ")
	})
	for _, l := range st.Leads() {
		if l.PressMentions > 0 || l.AwardsCount > 0 {
			stats.Found++
		}
	}
	return stats, nil
}
