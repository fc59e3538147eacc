package discovery

import (
	"context"
	"errors"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kavir10/lead-scoring/internal/config"
	"github.com/kavir10/lead-scoring/internal/model"
	"github.com/kavir10/lead-scoring/pkg/serper"
	"github.com/kavir10/lead-scoring/pkg/serper/mocks"
)

func TestParseTownState(t *testing.T) {
	tests := []struct {
		addr  string
		town  string
		state string
	}{
		{"123 Main St, Chicago, IL 60601", "Chicago", "IL"},
		{"456 Elm St, New York, NY 10001, United States", "New York", "NY"},
		{"", "", ""},
		{"Chicago, IL", "Chicago", "IL"},
		{"1 Pike Pl, Seattle, WA 98101-1234, USA", "Seattle", "WA"},
		{"9 Main, Boise, ID, US", "Boise", "ID"},
		{"9 Main, Boise, ID 83702 US", "Boise", "ID"},
		{"77 Broad St, Columbus, OH 43215, United States of America", "Columbus", "OH"},
		{"77 Broad St, Columbus, OH", "Columbus", "OH"},
		{"IL", "", "IL"},
		{"Somewhere without state", "", ""},
		{"10 Rue de Rivoli, Paris", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			town, state := ParseTownState(tt.addr)
			assert.Equal(t, tt.town, town)
			assert.Equal(t, tt.state, state)
		})
	}
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "3125550100", NormalizePhone("(312) 555-0100"))
	assert.Equal(t, "3125550100", NormalizePhone("312-555-0100"))
	assert.Equal(t, "3125550100", NormalizePhone("+1 312-555-0100"))
	assert.Equal(t, "", NormalizePhone(""))
	assert.Equal(t, "", NormalizePhone("   "))
}

func TestNormalizePhone_KeepsForeignCountryCode(t *testing.T) {
	uk := NormalizePhone("+44 20 7946 0958")
	us := NormalizePhone("(207) 946-0958")
	assert.Equal(t, "442079460958", uk)
	assert.Equal(t, "2079460958", us)
	assert.NotEqual(t, uk, us)

	out := Dedup([]model.Lead{
		lead("Dishoom", "12 Upper St Martin's Ln, London", "+44 20 7946 0958"),
		lead("Eventide", "86 Commercial St, Portland, ME", "(207) 946-0958"),
	})
	assert.Len(t, out, 2)
}

func lead(name, addr, phone string) model.Lead {
	l := model.NewLead()
	l.Name = name
	l.Address = addr
	l.Phone = phone
	l.PhoneNormalized = NormalizePhone(phone)
	return l
}

func TestDedup_PhoneFormats(t *testing.T) {
	a := lead("Lula Cafe", "2537 N Kedzie Blvd, Chicago, IL", "(312) 555-0100")
	a.ReviewCount = 900
	b := lead("Lula Cafe (2)", "other address", "312-555-0100")
	b.ReviewCount = 10

	out := Dedup([]model.Lead{a, b})
	require.Len(t, out, 1)
	assert.Equal(t, "Lula Cafe", out[0].Name)
	assert.Equal(t, 900, out[0].ReviewCount)
}

func TestDedup_NameAddressWhenNoPhone(t *testing.T) {
	a := lead("Foo", "1 Main St", "")
	b := lead("Foo", "1 Main St", "")
	c := lead("Foo", "2 Main St", "")
	d := lead("Bar", "1 Main St", "")

	out := Dedup([]model.Lead{a, b, c, d})
	assert.Len(t, out, 3)
}

func TestDedup_Idempotent(t *testing.T) {
	f := gofakeit.New(42)

	phones := []string{"(312) 555-0100", "312-555-0101", "+1 312 555 0102", ""}
	var leads []model.Lead
	for i := 0; i < 300; i++ {
		name := f.Company()
		addr := f.Street()
		if f.Bool() && len(leads) > 0 {
			prev := leads[f.IntRange(0, len(leads)-1)]
			name, addr = prev.Name, prev.Address
		}
		leads = append(leads, lead(name, addr, phones[f.IntRange(0, len(phones)-1)]))
	}

	once := Dedup(leads)
	twice := Dedup(once)
	assert.Equal(t, once, twice)

	seen := map[model.Key]bool{}
	for i := range once {
		k := once[i].Key()
		assert.False(t, seen[k], "duplicate key %s", k)
		seen[k] = true
	}
}

func testFilterConfig() FilterConfig {
	return NewFilterConfig(config.DiscoveryConfig{
		ChainKeywords:  config.DefaultChainKeywords,
		LiquorKeywords: config.DefaultLiquorKeywords,
		QualityFloors: map[string]config.QualityFloorConfig{
			"restaurant": {MinReviews: 50, MinRating: 4.2},
			"butcher":    {MinReviews: 20, MinRating: 4.0},
			"wine_store": {MinReviews: 20, MinRating: 4.0},
		},
		DefaultFloor: config.QualityFloorConfig{MinReviews: 20, MinRating: 4.0},
	})
}

func qualified(name string, bt model.BusinessType, reviews int, rating float64) model.Lead {
	l := lead(name, name+" addr", "")
	l.BusinessType = bt
	l.Website = "https://example.com"
	l.ReviewCount = reviews
	l.Rating = model.Float(rating)
	return l
}

func TestFilter_QualityFloorBoundary(t *testing.T) {
	below := qualified("Below", model.BusinessRestaurant, 49, 4.5)
	at := qualified("At", model.BusinessRestaurant, 50, 4.2)

	kept, report := Filter([]model.Lead{below, at}, testFilterConfig())
	require.Len(t, kept, 1)
	assert.Equal(t, "At", kept[0].Name)
	assert.Equal(t, 1, report.QualityFloor)
}

func TestFilter_NicheFloorLower(t *testing.T) {
	butcher := qualified("Meat Co", model.BusinessButcher, 20, 4.0)
	restaurant := qualified("Table", model.BusinessRestaurant, 20, 4.0)

	kept, _ := Filter([]model.Lead{butcher, restaurant}, testFilterConfig())
	require.Len(t, kept, 1)
	assert.Equal(t, "Meat Co", kept[0].Name)
}

func TestFilter_MissingRatingFails(t *testing.T) {
	l := qualified("No Rating", model.BusinessButcher, 500, 0)
	l.Rating = nil

	kept, report := Filter([]model.Lead{l}, testFilterConfig())
	assert.Empty(t, kept)
	assert.Equal(t, 1, report.QualityFloor)
}

func TestFilter_ChainsLiquorWebsite(t *testing.T) {
	chain := qualified("Whole Foods Market", model.BusinessButcher, 500, 4.5)
	accented := qualified("ALDÍ Grocer", model.BusinessButcher, 500, 4.5)
	liquor := qualified("Corner Spirits", model.BusinessWineStore, 500, 4.5)
	liquorCategory := qualified("Vino", model.BusinessWineStore, 500, 4.5)
	liquorCategory.Category = "Liquor store"
	liquorButcher := qualified("Spirits & Sausage", model.BusinessButcher, 500, 4.5)
	noSite := qualified("No Site", model.BusinessButcher, 500, 4.5)
	noSite.Website = ""
	good := qualified("Good Wine", model.BusinessWineStore, 500, 4.5)

	kept, report := Filter([]model.Lead{chain, accented, liquor, liquorCategory, liquorButcher, noSite, good}, testFilterConfig())

	names := make([]string, 0, len(kept))
	for _, l := range kept {
		names = append(names, l.Name)
	}
	assert.Equal(t, []string{"Spirits & Sausage", "Good Wine"}, names)
	assert.Equal(t, 2, report.Chains)
	assert.Equal(t, 2, report.Liquor)
	assert.Equal(t, 1, report.NoWebsite)
	assert.Equal(t, 7, report.Input)
	assert.Equal(t, 2, report.Kept)
}

func TestFilter_DefaultFloorForUnknownType(t *testing.T) {
	cfg := testFilterConfig()
	delete(cfg.QualityFloors, model.BusinessWineStore)
	l := qualified("Wine", model.BusinessWineStore, 20, 4.0)

	kept, _ := Filter([]model.Lead{l}, cfg)
	assert.Len(t, kept, 1)
}

func TestPriceTier(t *testing.T) {
	assert.Equal(t, 0, PriceTier(""))
	assert.Equal(t, 1, PriceTier("$"))
	assert.Equal(t, 3, PriceTier("$$$"))
	assert.Equal(t, 1, PriceTier("$20–30"))
	assert.Equal(t, 4, PriceTier("$$$$$"))
}

func TestDiscoverer_Run(t *testing.T) {
	client := mocks.NewMockClient(t)

	rating := func(v float64) *float64 { return &v }
	client.On("Maps", mock.Anything, "craft butcher", "Chicago, Illinois").Return([]serper.Place{
		{Title: "Small Shop", Address: "1 A St, Chicago, IL 60601", PhoneNumber: "(312) 555-0100",
			Website: "small.com", Rating: rating(4.5), RatingCount: 40, CID: "1", PriceLevel: "$$"},
		{Title: "", Address: "nameless"},
		{Title: "Costco", Address: "2 B St, Chicago, IL 60601", Website: "costco.com", Rating: rating(4.5), RatingCount: 5000},
	}, nil).Once()
	client.On("Maps", mock.Anything, "craft butcher", "Austin, Texas").Return([]serper.Place{
		{Title: "Big Shop", Address: "3 C St, Austin, TX 78701", PhoneNumber: "512-555-0199",
			Website: "big.com", Rating: rating(4.8), RatingCount: 900},
		{Title: "Small Shop Dup", Address: "elsewhere", PhoneNumber: "312-555-0100",
			Website: "dup.com", Rating: rating(4.9), RatingCount: 9000},
	}, nil).Once()
	client.On("Maps", mock.Anything, "wine shop", mock.Anything).Return(nil, errors.New("boom")).Twice()

	d := NewDiscoverer(NewSerperSearcher(client), config.DiscoveryConfig{
		Cities: []string{"Chicago, Illinois", "Austin, Texas"},
		Categories: []config.CategoryConfig{
			{Name: "butcher", BusinessType: "butcher", Queries: []string{"craft butcher"}},
			{Name: "wine_store", BusinessType: "wine_store", Queries: []string{"wine shop"}},
		},
		ChainKeywords: config.DefaultChainKeywords,
		QualityFloors: map[string]config.QualityFloorConfig{"butcher": {MinReviews: 20, MinRating: 4.0}},
		Workers:       2,
	})

	res, err := d.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, res.Searches)
	assert.Equal(t, 2, res.FailedSearches)
	assert.Equal(t, 5, res.Raw)
	assert.Equal(t, 1, res.Dropped)
	assert.Equal(t, 1, res.Duplicates)
	assert.Equal(t, 1, res.Report.Chains)

	require.Len(t, res.Leads, 2)
	assert.Equal(t, "Big Shop", res.Leads[0].Name)
	assert.Equal(t, "Small Shop", res.Leads[1].Name)

	small := res.Leads[1]
	assert.Equal(t, model.BusinessButcher, small.BusinessType)
	assert.Equal(t, "butcher", small.SearchCategory)
	assert.Equal(t, "Chicago", small.City)
	assert.Equal(t, "IL", small.State)
	assert.Equal(t, "3125550100", small.PhoneNormalized)
	assert.Equal(t, 2, small.PriceTier)
	assert.Equal(t, "1", small.PlaceID)
	assert.InDelta(t, 1.0, small.BookingAvailabilityScore, 0.0001)
}

func TestDiscoverer_RunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := searcherFunc(func(ctx context.Context, _, _ string) ([]Hit, error) {
		cancel()
		return nil, ctx.Err()
	})

	d := NewDiscoverer(s, config.DiscoveryConfig{
		Cities:     []string{"Chicago, Illinois"},
		Categories: []config.CategoryConfig{{Name: "butcher", BusinessType: "butcher", Queries: []string{"q"}}},
	})
	_, err := d.Run(ctx)
	assert.Error(t, err)
}

type searcherFunc func(ctx context.Context, query, location string) ([]Hit, error)

func (f searcherFunc) Search(ctx context.Context, query, location string) ([]Hit, error) {
	return f(ctx, query, location)
}
