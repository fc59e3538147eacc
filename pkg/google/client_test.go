package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextSearch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/places:searchText", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Goog-Api-Key"))
		assert.Contains(t, r.Header.Get("X-Goog-FieldMask"), "places.rating")
		assert.Contains(t, r.Header.Get("X-Goog-FieldMask"), "places.websiteUri")

		var body TextSearchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "wine shop in Portland, Oregon", body.TextQuery)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"places":[{
			"id":"ChIJ-test1",
			"displayName":{"text":"Division Wines"},
			"formattedAddress":"3564 SE Division St, Portland, OR 97202, USA",
			"rating":4.8,
			"userRatingCount":212,
			"nationalPhoneNumber":"(503) 234-7281",
			"websiteUri":"https://divisionwines.com",
			"priceLevel":"PRICE_LEVEL_MODERATE",
			"location":{"latitude":45.5,"longitude":-122.6},
			"primaryTypeDisplayName":{"text":"Wine Store"}
		}],"nextPageToken":"tok"}`)) //nolint:errcheck
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := client.TextSearch(context.Background(), TextSearchRequest{TextQuery: "wine shop in Portland, Oregon"})

	require.NoError(t, err)
	require.Len(t, resp.Places, 1)
	p := resp.Places[0]
	assert.Equal(t, "Division Wines", p.DisplayName.Text)
	require.NotNil(t, p.Rating)
	assert.InDelta(t, 4.8, *p.Rating, 0.001)
	assert.Equal(t, 212, p.UserRatingCount)
	assert.Equal(t, "$$", p.PriceSymbols())
	assert.Equal(t, "Wine Store", p.PrimaryTypeDisplayName.Text)
	assert.Equal(t, "tok", resp.NextPageToken)
}

func TestTextSearch_NoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(TextSearchResponse{Places: nil})
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := client.TextSearch(context.Background(), TextSearchRequest{TextQuery: "Nonexistent"})

	require.NoError(t, err)
	assert.Empty(t, resp.Places)
}

func TestTextSearch_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error": "invalid API key"}`)) //nolint:errcheck
	}))
	defer srv.Close()

	client := NewClient("bad-key", WithBaseURL(srv.URL))
	resp, err := client.TextSearch(context.Background(), TextSearchRequest{TextQuery: "test query"})

	assert.Error(t, err)
	assert.Nil(t, resp)
	assert.Contains(t, err.Error(), "403")
}

func TestTextSearch_Pagination(t *testing.T) {
	callCount := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		callCount++
		var body TextSearchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.Header().Set("Content-Type", "application/json")
		if body.PageToken == "" {
			_ = json.NewEncoder(w).Encode(TextSearchResponse{
				Places:        []Place{{ID: "place-1"}},
				NextPageToken: "page-2-token",
			})
		} else {
			assert.Equal(t, "page-2-token", body.PageToken)
			_ = json.NewEncoder(w).Encode(TextSearchResponse{
				Places: []Place{{ID: "place-2"}},
			})
		}
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))

	resp, err := client.TextSearch(context.Background(), TextSearchRequest{TextQuery: "test"})
	require.NoError(t, err)
	assert.Equal(t, "page-2-token", resp.NextPageToken)

	resp, err = client.TextSearch(context.Background(), TextSearchRequest{TextQuery: "test", PageToken: resp.NextPageToken})
	require.NoError(t, err)
	require.Len(t, resp.Places, 1)
	assert.Equal(t, "place-2", resp.Places[0].ID)
	assert.Empty(t, resp.NextPageToken)
	assert.Equal(t, 2, callCount)
}

func TestTextSearch_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := client.TextSearch(ctx, TextSearchRequest{TextQuery: "test"})

	assert.Error(t, err)
	assert.Nil(t, resp)
}

func TestPriceSymbols(t *testing.T) {
	assert.Equal(t, "$", Place{PriceLevel: "PRICE_LEVEL_INEXPENSIVE"}.PriceSymbols())
	assert.Equal(t, "$$$$", Place{PriceLevel: "PRICE_LEVEL_VERY_EXPENSIVE"}.PriceSymbols())
	assert.Empty(t, Place{PriceLevel: "PRICE_LEVEL_UNSPECIFIED"}.PriceSymbols())
	assert.Empty(t, Place{}.PriceSymbols())
}
