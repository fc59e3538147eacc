package discovery

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kavir10/lead-scoring/pkg/google"
	googlemocks "github.com/kavir10/lead-scoring/pkg/google/mocks"
	"github.com/kavir10/lead-scoring/pkg/serper"
	serpermocks "github.com/kavir10/lead-scoring/pkg/serper/mocks"
)

func TestSerperSearcher_MapsPlaces(t *testing.T) {
	client := &serpermocks.MockClient{}
	rating := 4.7
	client.On("Maps", mock.Anything, "butcher shop", "Chicago, Illinois").Return([]serper.Place{
		{
			Title:       "Publican Quality Meats",
			Address:     "825 W Fulton Market, Chicago, IL 60607",
			Rating:      &rating,
			RatingCount: 1400,
			Category:    "Butcher shop",
			PhoneNumber: "(312) 445-8977",
			Website:     "https://publicanqualitymeats.com",
			PriceLevel:  "$$",
			CID:         "1234567890",
		},
		{Title: ""},
	}, nil)

	hits, err := NewSerperSearcher(client).Search(context.Background(), "butcher shop", "Chicago, Illinois")
	require.NoError(t, err)
	require.Len(t, hits, 2, "nameless hits are dropped later, at the discovery boundary")
	assert.Equal(t, "Publican Quality Meats", hits[0].Name)
	assert.Equal(t, "1234567890", hits[0].PlaceID)
	assert.Equal(t, 1400, hits[0].ReviewCount)
	assert.InDelta(t, 4.7, *hits[0].Rating, 0.001)
	client.AssertExpectations(t)
}

func TestSerperSearcher_Error(t *testing.T) {
	client := &serpermocks.MockClient{}
	client.On("Maps", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("quota"))

	hits, err := NewSerperSearcher(client).Search(context.Background(), "wine shop", "Austin, Texas")
	assert.Error(t, err)
	assert.Empty(t, hits)
}

func TestGoogleSearcher_Paginates(t *testing.T) {
	client := &googlemocks.MockClient{}
	rating := 4.8
	client.On("TextSearch", mock.Anything, google.TextSearchRequest{
		TextQuery: "natural wine bar in Chicago, Illinois", PageSize: 20,
	}).Return(&google.TextSearchResponse{
		Places: []google.Place{{
			ID:                     "ChIJ123",
			DisplayName:            google.DisplayName{Text: "Lush Wine"},
			FormattedAddress:       "1412 W Chicago Ave, Chicago, IL 60642",
			Rating:                 &rating,
			UserRatingCount:        320,
			NationalPhoneNumber:    "(312) 666-6900",
			WebsiteURI:             "https://lushwineandspirits.com",
			PriceLevel:             "PRICE_LEVEL_MODERATE",
			Location:               &google.LatLng{Latitude: 41.89, Longitude: -87.66},
			PrimaryTypeDisplayName: google.DisplayName{Text: "Wine Store"},
		}},
		NextPageToken: "page-2",
	}, nil).Once()
	client.On("TextSearch", mock.Anything, google.TextSearchRequest{
		TextQuery: "natural wine bar in Chicago, Illinois", PageSize: 20, PageToken: "page-2",
	}).Return(&google.TextSearchResponse{
		Places:        []google.Place{{ID: "ChIJ456", DisplayName: google.DisplayName{Text: "Red & White"}}},
		NextPageToken: "page-3",
	}, nil).Once()

	s := NewGoogleSearcher(client, 1000, 2)
	hits, err := s.Search(context.Background(), "natural wine bar", "Chicago, Illinois")
	require.NoError(t, err)
	require.Len(t, hits, 2, "stops at maxPages even with a next token")

	assert.Equal(t, "Lush Wine", hits[0].Name)
	assert.Equal(t, "$$", hits[0].PriceLevel)
	assert.Equal(t, "Wine Store", hits[0].Category)
	assert.Equal(t, "ChIJ123", hits[0].PlaceID)
	require.NotNil(t, hits[0].Latitude)
	assert.InDelta(t, 41.89, *hits[0].Latitude, 0.0001)
	assert.Nil(t, hits[1].Latitude)
	client.AssertExpectations(t)
}

func TestGoogleSearcher_ErrorKeepsEarlierPages(t *testing.T) {
	client := &googlemocks.MockClient{}
	client.On("TextSearch", mock.Anything, mock.MatchedBy(func(r google.TextSearchRequest) bool {
		return r.PageToken == ""
	})).Return(&google.TextSearchResponse{
		Places:        []google.Place{{ID: "a", DisplayName: google.DisplayName{Text: "Kasama"}}},
		NextPageToken: "next",
	}, nil)
	client.On("TextSearch", mock.Anything, mock.MatchedBy(func(r google.TextSearchRequest) bool {
		return r.PageToken == "next"
	})).Return(nil, errors.New("boom"))

	hits, err := NewGoogleSearcher(client, 1000, 3).Search(context.Background(), "restaurant", "Chicago, Illinois")
	assert.Error(t, err)
	assert.Len(t, hits, 1)
}

func TestGoogleSearcher_Defaults(t *testing.T) {
	s := NewGoogleSearcher(&googlemocks.MockClient{}, 0, 0)
	assert.Equal(t, 1, s.maxPages)
	assert.InDelta(t, 10, float64(s.limiter.Limit()), 0.001)
}
