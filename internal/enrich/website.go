package enrich

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/kavir10/lead-scoring/internal/model"
	"github.com/kavir10/lead-scoring/internal/scrape"
	"github.com/kavir10/lead-scoring/internal/store"
)

// signal is a lower-case marker searched for in page HTML. Label names the
// platform the marker identifies, when it identifies one.
type signal struct {
	marker string
	label  string
}

var ecommerceSignals = []signal{
	{"shopify", "Shopify"}, {"squarespace", "Squarespace"}, {"woocommerce", "WooCommerce"},
	{"bigcommerce", ""}, {"square", "Square"},
	{"add to cart", ""}, {"add-to-cart", ""}, {"shop now", ""}, {"order online", ""},
	{"buy now", ""}, {"online store", ""}, {"online ordering", ""}, {"delivery", ""},
	{"shipping", ""}, {"goldbelly", ""}, {"mercato", ""}, {"toast", ""}, {"chowly", ""},
}

var emailSignals = []signal{
	{"mailchimp", "Mailchimp"}, {"klaviyo", "Klaviyo"}, {"constant contact", "Constant Contact"},
	{"mailerlite", ""}, {"convertkit", "ConvertKit"}, {"sendinblue", ""}, {"hubspot", ""},
	{"newsletter", ""}, {"sign up", ""}, {"signup", ""}, {"email list", ""}, {"subscribe", ""},
	{"join our list", ""}, {"get updates", ""}, {"popup", ""}, {"email-signup", ""},
	{"email_signup", ""},
}

var orderingSignals = []signal{
	{"order online", ""}, {"online ordering", ""}, {"place order", ""}, {"order now", ""},
	{"pickup", ""}, {"curbside", ""}, {"delivery available", ""}, {"ship nationwide", ""},
	{"ships nationwide", ""}, {"we ship", ""}, {"order for delivery", ""}, {"toast", ""},
	{"square online", ""}, {"chownow", ""},
}

// reservationHosts maps a booking host to its platform.
var reservationHosts = []struct {
	host     string
	platform model.ReservationPlatform
}{
	{"exploretock.com", model.ReservationTock},
	{"resy.com", model.ReservationResy},
	{"opentable.com", model.ReservationOpenTable},
}

var shopPaths = []string{"/shop", "/store", "/order", "/products", "/menu"}

// matchSignals reports whether any marker occurs in lower and the label of
// the first marker that does, which may be empty.
func matchSignals(lower string, signals []signal) (bool, string) {
	for _, s := range signals {
		if strings.Contains(lower, s.marker) {
			return true, s.label
		}
	}
	return false, ""
}

// WebsiteSignals are the signals read from a lead's homepage.
type WebsiteSignals struct {
	Reachable         bool
	Title             string
	HasEcommerce      bool
	HasEmailSignup    bool
	HasOnlineOrdering bool
	EcommercePlatform string
	EmailPlatform     string
	InstagramURL      string
	FacebookURL       string
	Reservation       model.ReservationPlatform
	ReservationURL    string
}

// WebsiteAnalyzer fetches a homepage and at most one shop-like subpage.
type WebsiteAnalyzer struct {
	fetcher        scrape.Fetcher
	subpageTimeout time.Duration
}

// NewWebsiteAnalyzer creates an analyzer. subpageTimeout bounds the subpage
// fetch separately from the homepage.
func NewWebsiteAnalyzer(f scrape.Fetcher, subpageTimeout time.Duration) *WebsiteAnalyzer {
	if subpageTimeout <= 0 {
		subpageTimeout = 8 * time.Second
	}
	return &WebsiteAnalyzer{fetcher: f, subpageTimeout: subpageTimeout}
}

// Analyze returns the site's signals. Any homepage failure yields zero
// signals; a subpage failure keeps the homepage signals.
func (a *WebsiteAnalyzer) Analyze(ctx context.Context, rawURL string) WebsiteSignals {
	var sig WebsiteSignals
	base := scrape.NormalizeURL(rawURL)
	if base == "" {
		return sig
	}

	page, err := a.fetcher.Fetch(ctx, base)
	if err != nil {
		zap.L().Debug("website: fetch failed", zap.String("url", base), zap.Error(err))
		return sig
	}

	sig.Reachable = true
	sig.Title = page.Title

	lower := strings.ToLower(page.HTML)
	sig.HasEcommerce, sig.EcommercePlatform = matchSignals(lower, ecommerceSignals)
	sig.HasEmailSignup, sig.EmailPlatform = matchSignals(lower, emailSignals)
	sig.HasOnlineOrdering, _ = matchSignals(lower, orderingSignals)

	hrefs := anchorHrefs(page.HTML)
	sig.InstagramURL = firstInstagram(hrefs)
	sig.FacebookURL = firstFacebook(hrefs)
	sig.Reservation, sig.ReservationURL = raiseReservation(model.ReservationNone, "", hrefs)

	if sub := shopSubpage(base, hrefs); sub != "" {
		a.analyzeSubpage(ctx, sub, &sig)
	}
	return sig
}

func (a *WebsiteAnalyzer) analyzeSubpage(ctx context.Context, sub string, sig *WebsiteSignals) {
	ctx, cancel := context.WithTimeout(ctx, a.subpageTimeout)
	defer cancel()

	page, err := a.fetcher.Fetch(ctx, sub)
	if err != nil {
		zap.L().Debug("website: subpage fetch failed", zap.String("url", sub), zap.Error(err))
		return
	}
	lower := strings.ToLower(page.HTML)
	if ok, _ := matchSignals(lower, ecommerceSignals); ok {
		sig.HasEcommerce = true
	}
	if ok, _ := matchSignals(lower, orderingSignals); ok {
		sig.HasOnlineOrdering = true
	}
	sig.Reservation, sig.ReservationURL = raiseReservation(sig.Reservation, sig.ReservationURL, anchorHrefs(page.HTML))
}

// anchorHrefs returns the trimmed href of every <a> element in document order.
func anchorHrefs(doc string) []string {
	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		return nil
	}
	var hrefs []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.A {
			for _, attr := range n.Attr {
				if attr.Key == "href" {
					if h := strings.TrimSpace(attr.Val); h != "" {
						hrefs = append(hrefs, h)
					}
					break
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return hrefs
}

func firstInstagram(hrefs []string) string {
	for _, h := range hrefs {
		lower := strings.ToLower(h)
		if !strings.Contains(lower, "instagram.com/") {
			continue
		}
		if InstagramUsername(lower) == "" {
			continue
		}
		return h
	}
	return ""
}

func firstFacebook(hrefs []string) string {
	for _, h := range hrefs {
		lower := strings.ToLower(h)
		if strings.Contains(lower, "facebook.com/") && !strings.Contains(lower, "/sharer") {
			return h
		}
	}
	return ""
}

// raiseReservation returns the hardest reservation platform linked from
// hrefs, starting from current. Ties keep the earlier link.
func raiseReservation(current model.ReservationPlatform, currentURL string, hrefs []string) (model.ReservationPlatform, string) {
	for _, h := range hrefs {
		lower := strings.ToLower(h)
		for _, rh := range reservationHosts {
			if strings.Contains(lower, rh.host) && rh.platform > current {
				current, currentURL = rh.platform, h
			}
		}
	}
	return current, currentURL
}

// shopSubpage returns the first shop-like link on the same host as base.
func shopSubpage(base string, hrefs []string) string {
	baseURL, err := url.Parse(base)
	if err != nil {
		return ""
	}
	for _, h := range hrefs {
		lower := strings.ToLower(h)
		match := false
		for _, p := range shopPaths {
			if strings.Contains(lower, p) {
				match = true
				break
			}
		}
		if !match {
			continue
		}
		ref, err := url.Parse(h)
		if err != nil {
			continue
		}
		full := baseURL.ResolveReference(ref)
		if strings.EqualFold(full.Host, baseURL.Host) {
			return full.String()
		}
	}
	return ""
}

var errUnreachable = eris.New("website: unreachable")

// WebsiteStage analyzes every lead with a website.
type WebsiteStage struct {
	analyzer *WebsiteAnalyzer
	workers  int
}

// NewWebsiteStage creates the website stage.
func NewWebsiteStage(a *WebsiteAnalyzer, workers int) *WebsiteStage {
	return &WebsiteStage{analyzer: a, workers: workers}
}

// Name implements Stage.
func (s *WebsiteStage) Name() string { return StageWebsites }

// Run implements Stage.
func (s *WebsiteStage) Run(ctx context.Context, st *store.Store) (Stats, error) {
	var todo []model.Lead
	for _, l := range st.Leads() {
		if l.Website != "" {
			todo = append(todo, l)
		}
	}

	results, stats, err := RunStage(ctx, StageWebsites, todo, s.workers, func(ctx context.Context, l model.Lead) (WebsiteSignals, error) {
		sig := s.analyzer.Analyze(ctx, l.Website)
		if !sig.Reachable {
			return sig, errUnreachable
		}
		return sig, nil
	})
	if err != nil {
		return stats, err
	}

	var ecom, email, ig, fb int
	store.Apply(st, results, func(l *model.Lead, sig WebsiteSignals) {
		l.WebsiteReachable = true
		l.PageTitle = sig.Title
		l.HasEcommerce = l.HasEcommerce || sig.HasEcommerce
		l.HasEmailSignup = l.HasEmailSignup || sig.HasEmailSignup
		l.HasOnlineOrdering = l.HasOnlineOrdering || sig.HasOnlineOrdering
		l.EcommercePlatform = sig.EcommercePlatform
		l.EmailPlatform = sig.EmailPlatform
		l.InstagramURL = sig.InstagramURL
		l.FacebookURL = sig.FacebookURL
		l.RaiseReservation(sig.Reservation, sig.ReservationURL)

		if sig.HasEcommerce {
			ecom++
		}
		if sig.HasEmailSignup {
			email++
		}
		if sig.InstagramURL != "" {
			ig++
		}
		if sig.FacebookURL != "" {
			fb++
		}
		if sig.InstagramURL != "" || sig.FacebookURL != "" {
			stats.Found++
		}
	})

	zap.L().Info("websites: analyzed",
		zap.Int("reachable", stats.Succeeded),
		zap.Int("ecommerce", ecom),
		zap.Int("email_signup", email),
		zap.Int("instagram", ig),
		zap.Int("facebook", fb),
	)
	return stats, nil
}
