// Package serper provides a client for the Serper Google maps, search, and reviews API.
package serper

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/kavir10/lead-scoring/internal/resilience"
)

const defaultBaseURL = "https://google.serper.dev"

// Client performs Serper API operations.
type Client interface {
	// Maps searches Google Maps for query near location.
	Maps(ctx context.Context, query, location string) ([]Place, error)
	// Search runs a web search and returns organic results.
	Search(ctx context.Context, query string, num int) ([]OrganicResult, error)
	// Reviews fetches reviews for a place by its numeric Google CID or its
	// Places API id.
	Reviews(ctx context.Context, cid string, num int) ([]Review, error)
}

// Place is a Google Maps hit. Every field may be absent.
type Place struct {
	Title       string     `json:"title"`
	Address     string     `json:"address"`
	Rating      *float64   `json:"rating"`
	RatingCount int        `json:"ratingCount"`
	Category    string     `json:"category"`
	PhoneNumber string     `json:"phoneNumber"`
	Website     string     `json:"website"`
	PriceLevel  string     `json:"priceLevel"`
	Latitude    *float64   `json:"latitude"`
	Longitude   *float64   `json:"longitude"`
	CID         FlexString `json:"cid"`
}

// OrganicResult is one web search hit.
type OrganicResult struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// Review is one review. Serper fills Snippet; other providers fill Text or
// TextTranslated.
type Review struct {
	Rating         float64 `json:"rating"`
	Snippet        string  `json:"snippet"`
	Text           string  `json:"text"`
	TextTranslated string  `json:"textTranslated"`
}

// Body returns the first non-empty text field.
func (r Review) Body() string {
	switch {
	case r.Snippet != "":
		return r.Snippet
	case r.Text != "":
		return r.Text
	default:
		return r.TextTranslated
	}
}

// FlexString decodes a JSON string or number as a string.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return eris.Wrap(err, "serper: decode flex string")
	}
	*f = FlexString(n.String())
	return nil
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

// WithRateLimit caps requests per second across all operations.
func WithRateLimit(perSecond float64) Option {
	return func(c *httpClient) {
		if perSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// WithRetryPolicy overrides the retry policy applied to every request.
func WithRetryPolicy(p resilience.Policy) Option {
	return func(c *httpClient) {
		c.retry = p
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	retry   resilience.Policy
}

// NewClient creates a Serper client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(3), 1),
		retry:   resilience.DefaultPolicy(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type mapsRequest struct {
	Q        string `json:"q"`
	Location string `json:"location"`
	GL       string `json:"gl"`
	HL       string `json:"hl"`
	Num      int    `json:"num"`
}

type mapsResponse struct {
	Places []Place `json:"places"`
}

func (c *httpClient) Maps(ctx context.Context, query, location string) ([]Place, error) {
	req := mapsRequest{
		Q:        query,
		Location: location + ", United States",
		GL:       "us",
		HL:       "en",
		Num:      20,
	}
	var resp mapsResponse
	if err := c.post(ctx, "/maps", req, &resp); err != nil {
		return nil, eris.Wrapf(err, "serper: maps %q in %s", query, location)
	}
	return resp.Places, nil
}

type searchRequest struct {
	Q   string `json:"q"`
	Num int    `json:"num"`
}

type searchResponse struct {
	Organic []OrganicResult `json:"organic"`
}

func (c *httpClient) Search(ctx context.Context, query string, num int) ([]OrganicResult, error) {
	var resp searchResponse
	if err := c.post(ctx, "/search", searchRequest{Q: query, Num: num}, &resp); err != nil {
		return nil, eris.Wrap(err, "serper: search")
	}
	return resp.Organic, nil
}

type reviewsRequest struct {
	CID     string `json:"cid,omitempty"`
	PlaceID string `json:"placeId,omitempty"`
	Num     int    `json:"num"`
}

type reviewsResponse struct {
	Reviews []Review `json:"reviews"`
}

func (c *httpClient) Reviews(ctx context.Context, cid string, num int) ([]Review, error) {
	req := reviewsRequest{Num: num}
	if isNumeric(cid) {
		req.CID = cid
	} else {
		req.PlaceID = cid
	}
	var resp reviewsResponse
	if err := c.post(ctx, "/reviews", req, &resp); err != nil {
		return nil, eris.Wrapf(err, "serper: reviews %s", cid)
	}
	return resp.Reviews, nil
}

// post sends one JSON request with rate limiting and retry on transient errors.
func (c *httpClient) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return eris.Wrap(err, "marshal request")
	}

	policy := c.retry
	if policy.OnRetry == nil {
		policy.OnRetry = resilience.LogRetry("serper", path)
	}

	respBody, err := resilience.Do(ctx, policy, func(ctx context.Context) ([]byte, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "rate limit wait")
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return nil, eris.Wrap(err, "create request")
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-API-KEY", c.apiKey)

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close() //nolint:errcheck

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, eris.Wrap(err, "read response")
		}
		if resp.StatusCode != http.StatusOK {
			return nil, resilience.NewStatusError("serper", resp.StatusCode, data)
		}
		return data, nil
	})
	if err != nil {
		return err
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return eris.Wrap(err, "unmarshal response ("+strconv.Itoa(len(respBody))+" bytes)")
	}
	return nil
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
