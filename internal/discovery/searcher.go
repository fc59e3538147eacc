package discovery

import (
	"context"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/kavir10/lead-scoring/pkg/google"
	"github.com/kavir10/lead-scoring/pkg/serper"
)

// SerperSearcher searches Google Maps through Serper.
type SerperSearcher struct {
	client serper.Client
}

// NewSerperSearcher creates a SerperSearcher.
func NewSerperSearcher(c serper.Client) *SerperSearcher {
	return &SerperSearcher{client: c}
}

// Search implements Searcher.
func (s *SerperSearcher) Search(ctx context.Context, query, location string) ([]Hit, error) {
	places, err := s.client.Maps(ctx, query, location)
	if err != nil {
		return nil, err
	}
	hits := make([]Hit, 0, len(places))
	for _, p := range places {
		hits = append(hits, Hit{
			Name:        p.Title,
			Address:     p.Address,
			Phone:       p.PhoneNumber,
			Website:     p.Website,
			Category:    p.Category,
			PriceLevel:  p.PriceLevel,
			PlaceID:     string(p.CID),
			Rating:      p.Rating,
			ReviewCount: p.RatingCount,
			Latitude:    p.Latitude,
			Longitude:   p.Longitude,
		})
	}
	return hits, nil
}

// GoogleSearcher searches the Places text search API, paginating up to
// maxPages per query.
type GoogleSearcher struct {
	client   google.Client
	limiter  *rate.Limiter
	maxPages int
}

// NewGoogleSearcher creates a GoogleSearcher limited to ratePerSec requests.
func NewGoogleSearcher(c google.Client, ratePerSec float64, maxPages int) *GoogleSearcher {
	if ratePerSec <= 0 {
		ratePerSec = 10
	}
	if maxPages <= 0 {
		maxPages = 1
	}
	return &GoogleSearcher{
		client:   c,
		limiter:  rate.NewLimiter(rate.Limit(ratePerSec), 1),
		maxPages: maxPages,
	}
}

// Search implements Searcher.
func (s *GoogleSearcher) Search(ctx context.Context, query, location string) ([]Hit, error) {
	var (
		hits      []Hit
		pageToken string
	)
	for page := 0; page < s.maxPages; page++ {
		if err := s.limiter.Wait(ctx); err != nil {
			return hits, eris.Wrap(err, "discovery: rate limit wait")
		}

		resp, err := s.client.TextSearch(ctx, google.TextSearchRequest{
			TextQuery: query + " in " + location,
			PageSize:  20,
			PageToken: pageToken,
		})
		if err != nil {
			return hits, err
		}

		for _, p := range resp.Places {
			h := Hit{
				Name:        p.DisplayName.Text,
				Address:     p.FormattedAddress,
				Phone:       p.NationalPhoneNumber,
				Website:     p.WebsiteURI,
				Category:    p.PrimaryTypeDisplayName.Text,
				PriceLevel:  p.PriceSymbols(),
				PlaceID:     p.ID,
				Rating:      p.Rating,
				ReviewCount: p.UserRatingCount,
			}
			if p.Location != nil {
				lat, lng := p.Location.Latitude, p.Location.Longitude
				h.Latitude, h.Longitude = &lat, &lng
			}
			hits = append(hits, h)
		}

		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}
	return hits, nil
}
