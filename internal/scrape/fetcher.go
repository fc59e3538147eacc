// Package scrape fetches raw HTML for website and social page analysis.
package scrape

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/kavir10/lead-scoring/internal/resilience"
)

const (
	defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	defaultMaxBody   = 2 * 1024 * 1024
)

// Page is a fetched HTML document.
type Page struct {
	URL        string
	FinalURL   string
	StatusCode int
	Title      string
	HTML       string
}

// Fetcher retrieves a page. Implementations return an error for network
// failures, error statuses, and detected bot blocks.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Page, error)
}

// Option configures an HTTPFetcher.
type Option func(*HTTPFetcher)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *HTTPFetcher) {
		f.timeout = d
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *HTTPFetcher) {
		f.userAgent = ua
	}
}

// WithHTTPClient overrides the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(f *HTTPFetcher) {
		f.client = hc
	}
}

// WithBreakers stops fetching from a host once it has blocked too many
// requests in a row. Only blocked responses count as failures.
func WithBreakers(bs *resilience.Breakers) Option {
	return func(f *HTTPFetcher) {
		f.breakers = bs
	}
}

// HTTPFetcher fetches HTML via net/http and rejects blocked responses.
type HTTPFetcher struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
	maxBody   int64
	breakers  *resilience.Breakers
}

// NewHTTPFetcher creates an HTTPFetcher with sensible defaults.
func NewHTTPFetcher(opts ...Option) *HTTPFetcher {
	f := &HTTPFetcher{
		client: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 10 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
			},
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
		timeout:   10 * time.Second,
		userAgent: defaultUserAgent,
		maxBody:   defaultMaxBody,
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Fetch implements Fetcher. Scheme-less URLs are fetched over https.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	target := NormalizeURL(rawURL)
	if target == "" {
		return nil, eris.New("scrape: empty url")
	}

	var breaker *resilience.Breaker
	if f.breakers != nil {
		if u, err := url.Parse(target); err == nil && u.Host != "" {
			breaker = f.breakers.Get(strings.ToLower(u.Host))
			if err := breaker.Allow(); err != nil {
				return nil, eris.Wrapf(err, "scrape: %s", u.Host)
			}
		}
	}

	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, eris.Wrap(err, "scrape: create request")
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		if breaker != nil {
			breaker.Record(nil)
		}
		return nil, eris.Wrapf(err, "scrape: fetch %s", target)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody))
	if err != nil {
		if breaker != nil {
			breaker.Record(nil)
		}
		return nil, eris.Wrap(err, "scrape: read body")
	}

	blocked, blockType := DetectBlock(resp, body)
	if breaker != nil {
		if blocked {
			breaker.Record(eris.Errorf("blocked (%s)", blockType))
		} else {
			breaker.Record(nil)
		}
	}
	if blocked {
		return nil, eris.Errorf("scrape: blocked (%s) %s", blockType, target)
	}
	if resp.StatusCode >= 400 {
		return nil, eris.Errorf("scrape: status %d %s", resp.StatusCode, target)
	}

	return &Page{
		URL:        target,
		FinalURL:   resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
		Title:      extractTitle(body),
		HTML:       string(body),
	}, nil
}

// NormalizeURL trims raw and prefixes https:// when it has no scheme.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	lower := strings.ToLower(raw)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return raw
	}
	return "https://" + strings.TrimPrefix(raw, "//")
}

var titleRe = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)

// extractTitle pulls the <title> from HTML.
func extractTitle(body []byte) string {
	m := titleRe.FindSubmatch(body)
	if len(m) > 1 {
		return strings.Join(strings.Fields(string(m[1])), " ")
	}
	return ""
}
