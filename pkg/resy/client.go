// Package resy provides a minimal client for the Resy availability endpoint.
package resy

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"

	"github.com/kavir10/lead-scoring/internal/resilience"
)

const defaultBaseURL = "https://api.resy.com/4"

// Client performs Resy API operations.
type Client interface {
	// OpenSlots returns the number of bookable slots at venue on day
	// (YYYY-MM-DD) for partySize guests.
	OpenSlots(ctx context.Context, venue, day string, partySize int) (int, error)
}

type findResponse struct {
	Results struct {
		Venues []struct {
			Slots []json.RawMessage `json:"slots"`
		} `json:"venues"`
	} `json:"results"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithAuthToken sets the X-Resy-Auth-Token header.
func WithAuthToken(token string) Option {
	return func(c *httpClient) {
		c.authToken = token
	}
}

type httpClient struct {
	apiKey    string
	authToken string
	baseURL   string
	http      *http.Client
}

// NewClient creates a Resy client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) OpenSlots(ctx context.Context, venue, day string, partySize int) (int, error) {
	q := url.Values{}
	q.Set("lat", "0")
	q.Set("long", "0")
	q.Set("day", day)
	q.Set("party_size", strconv.Itoa(partySize))
	q.Set("venue_id", venue)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/find?"+q.Encode(), nil)
	if err != nil {
		return 0, eris.Wrap(err, "resy: create request")
	}
	req.Header.Set("Authorization", `ResyAPI api_key="`+c.apiKey+`"`)
	if c.authToken != "" {
		req.Header.Set("X-Resy-Auth-Token", c.authToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, eris.Wrap(err, "resy: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, eris.Wrap(err, "resy: read response")
	}
	if resp.StatusCode != http.StatusOK {
		return 0, eris.Wrapf(resilience.NewStatusError("resy", resp.StatusCode, body), "resy: find %s on %s", venue, day)
	}

	var fr findResponse
	if err := json.Unmarshal(body, &fr); err != nil {
		return 0, eris.Wrap(err, "resy: unmarshal response")
	}

	total := 0
	for _, v := range fr.Results.Venues {
		total += len(v.Slots)
	}
	return total, nil
}
