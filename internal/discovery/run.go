// Package discovery finds candidate businesses through a maps search provider
// and reduces the raw hits to a deduplicated, filtered lead set.
package discovery

import (
	"context"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kavir10/lead-scoring/internal/config"
	"github.com/kavir10/lead-scoring/internal/model"
)

// Hit is one place returned by a search provider. Any field may be empty.
type Hit struct {
	Name        string
	Address     string
	Phone       string
	Website     string
	Category    string
	PriceLevel  string
	PlaceID     string
	Rating      *float64
	ReviewCount int
	Latitude    *float64
	Longitude   *float64
}

// Searcher finds places matching query near location ("Chicago, Illinois").
type Searcher interface {
	Search(ctx context.Context, query, location string) ([]Hit, error)
}

// Category is a named group of queries whose hits share a business type.
type Category struct {
	Name         string
	BusinessType model.BusinessType
	Queries      []string
}

// CategoriesFrom converts configured categories.
func CategoriesFrom(cfgs []config.CategoryConfig) []Category {
	out := make([]Category, 0, len(cfgs))
	for _, c := range cfgs {
		out = append(out, Category{Name: c.Name, BusinessType: model.BusinessType(c.BusinessType), Queries: c.Queries})
	}
	return out
}

// Result is the outcome of a discovery run.
type Result struct {
	Leads          []model.Lead
	Searches       int
	FailedSearches int
	Raw            int
	Dropped        int
	Duplicates     int
	Report         FilterReport
}

// Discoverer runs every (category, query, city) search and builds the lead set.
type Discoverer struct {
	searcher   Searcher
	categories []Category
	cities     []string
	filter     FilterConfig
	workers    int
}

// NewDiscoverer creates a Discoverer from the discovery configuration.
func NewDiscoverer(s Searcher, cfg config.DiscoveryConfig) *Discoverer {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 5
	}
	return &Discoverer{
		searcher:   s,
		categories: CategoriesFrom(cfg.Categories),
		cities:     cfg.Cities,
		filter:     NewFilterConfig(cfg),
		workers:    workers,
	}
}

type searchTask struct {
	category Category
	query    string
	city     string
}

// Run searches, tags, dedups, filters, and sorts the leads by review count.
// A search that fails after retries contributes no hits. Hits without a name
// are dropped and counted.
func (d *Discoverer) Run(ctx context.Context) (*Result, error) {
	log := zap.L().With(zap.String("stage", "discovery"))

	var tasks []searchTask
	for _, cat := range d.categories {
		for _, q := range cat.Queries {
			for _, city := range d.cities {
				tasks = append(tasks, searchTask{category: cat, query: q, city: city})
			}
		}
	}
	log.Info("starting discovery",
		zap.Int("categories", len(d.categories)),
		zap.Int("cities", len(d.cities)),
		zap.Int("searches", len(tasks)),
	)

	// Indexed by task so hit order does not depend on completion order.
	hits := make([][]Hit, len(tasks))
	var done, failed atomic.Int32

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)
	for i, task := range tasks {
		g.Go(func() error {
			res, err := d.searcher.Search(gctx, task.query, task.city)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				failed.Add(1)
				log.Warn("search failed",
					zap.String("query", task.query),
					zap.String("city", task.city),
					zap.Error(err),
				)
			}
			hits[i] = res

			if n := done.Add(1); n%50 == 0 {
				log.Info("progress", zap.Int32("searches_done", n), zap.Int("total", len(tasks)))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "discovery: search")
	}

	res := &Result{Searches: len(tasks), FailedSearches: int(failed.Load())}

	var raw []model.Lead
	for i, task := range tasks {
		for _, h := range hits[i] {
			res.Raw++
			if strings.TrimSpace(h.Name) == "" {
				res.Dropped++
				continue
			}
			raw = append(raw, toLead(h, task))
		}
	}

	deduped := Dedup(raw)
	res.Duplicates = len(raw) - len(deduped)

	kept, report := Filter(deduped, d.filter)
	res.Report = report

	for i := range kept {
		kept[i].PriceTier = PriceTier(kept[i].PriceLevel)
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].ReviewCount > kept[j].ReviewCount
	})
	res.Leads = kept

	log.Info("discovery complete",
		zap.Int("raw", res.Raw),
		zap.Int("dropped_malformed", res.Dropped),
		zap.Int("duplicates", res.Duplicates),
		zap.Int("chains", report.Chains),
		zap.Int("liquor", report.Liquor),
		zap.Int("no_website", report.NoWebsite),
		zap.Int("below_floor", report.QualityFloor),
		zap.Int("kept", report.Kept),
		zap.Int("failed_searches", res.FailedSearches),
	)
	return res, nil
}

func toLead(h Hit, task searchTask) model.Lead {
	l := model.NewLead()
	l.Name = strings.TrimSpace(h.Name)
	l.Address = strings.TrimSpace(h.Address)
	l.Phone = h.Phone
	l.PhoneNormalized = NormalizePhone(h.Phone)
	l.Website = strings.TrimSpace(h.Website)
	l.Category = h.Category
	l.PriceLevel = h.PriceLevel
	l.PlaceID = h.PlaceID
	l.Rating = h.Rating
	l.ReviewCount = max(h.ReviewCount, 0)
	l.Latitude = h.Latitude
	l.Longitude = h.Longitude
	l.BusinessType = task.category.BusinessType
	l.SearchCategory = task.category.Name
	l.SearchQuery = task.query
	l.SearchCity = task.city
	l.City, l.State = ParseTownState(l.Address)
	return l
}
