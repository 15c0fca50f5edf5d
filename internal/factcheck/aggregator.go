// Package factcheck aggregates independent corroborating or refuting evidence
// for a claim from external fact-check indexes and site search pages.
package factcheck

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/citecheck/citecheck/internal/cache"
	"github.com/citecheck/citecheck/internal/llm"
	"github.com/citecheck/citecheck/internal/model"
	"github.com/citecheck/citecheck/internal/util"
	"github.com/citecheck/citecheck/internal/worker"
)

const (
	maxResults       = 5   // cap on results returned per claim
	maxLinksPerSite  = 3   // cap on result links scraped per site
	minLinkTextLen   = 20  // candidate link text bounds
	maxLinkTextLen   = 300
	rankThreshold    = 3 // re-rank only when more than this many results remain
	queryFallbackLen = 8 // tokens kept when the compact-query call fails
)

// boilerplatePhrases disqualify navigation and chrome links on search pages.
var boilerplatePhrases = []string{
	"follow us", "subscribe", "sign up", "log in", "sign in",
	"cookie", "privacy", "terms of", "about us", "contact",
	"donate", "newsletter", "advertise", "copyright", "menu",
	"share", "tweet", "facebook", "twitter", "bluesky", "instagram",
	"read more", "load more", "next page", "previous",
}

// skipPathFragments disqualify non-article site paths.
var skipPathFragments = []string{
	"?s=", "search", "tag/", "category/", "author/", "page/",
	"/about", "/contact", "/privacy", "/terms",
}

// robotsChecker abstracts robots.txt consultation for tests.
type robotsChecker interface {
	Allowed(ctx context.Context, rawURL string) bool
}

// Aggregator looks up fact-check coverage for a claim. Every method is
// best-effort: the caller always receives a (possibly empty) result slice,
// never an error.
type Aggregator struct {
	client     llm.Client
	httpClient *http.Client
	apiKey     string
	cache      cache.Cache
	robots     robotsChecker
	sites      []Site
	maxSites   int
	sem        *worker.Semaphore
	cacheTTL   time.Duration
	logger     *zap.Logger
}

// Option customizes an Aggregator.
type Option func(*Aggregator)

// WithSites overrides the site catalog (used by tests).
func WithSites(sites []Site) Option {
	return func(a *Aggregator) { a.sites = sites }
}

// WithRobots sets the robots.txt checker; nil disables politeness checks.
func WithRobots(r robotsChecker) Option {
	return func(a *Aggregator) { a.robots = r }
}

// WithLogger attaches a logger for best-effort failure diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(a *Aggregator) { a.logger = logger }
}

// NewAggregator builds an aggregator from configuration. The cache holds site
// search pages so repeated claims against the same query do not re-scrape.
func NewAggregator(client llm.Client, cfg model.FactCheckConfig, c cache.Cache, opts ...Option) *Aggregator {
	maxSites := cfg.MaxSites
	if maxSites <= 0 {
		maxSites = 5
	}
	siteWorkers := cfg.SiteWorkers
	if siteWorkers <= 0 {
		siteWorkers = 3
	}
	timeout := cfg.SiteTimeout
	if timeout <= 0 {
		timeout = 8 * time.Second
	}

	a := &Aggregator{
		client:     client,
		httpClient: &http.Client{Timeout: timeout},
		apiKey:     cfg.APIKey,
		cache:      c,
		sites:      searchableSites(),
		maxSites:   maxSites,
		sem:        worker.NewSemaphore(siteWorkers),
		cacheTTL:   cfg.CacheTTL,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Lookup gathers fact-check results for a claim: compact query derivation,
// the claims-search API when configured, concurrent site-search scraping,
// dedup by normalized URL, model re-ranking, and a cap of five results.
func (a *Aggregator) Lookup(ctx context.Context, claim string) []model.FactCheckResult {
	query := a.searchQuery(ctx, claim)

	var all []model.FactCheckResult
	if a.apiKey != "" {
		all = append(all, a.searchClaimsAPI(ctx, query)...)
	}

	sites := a.sites
	if len(sites) > a.maxSites {
		sites = sites[:a.maxSites]
	}

	siteResults := make([][]model.FactCheckResult, len(sites))
	var wg sync.WaitGroup
	for i, site := range sites {
		wg.Add(1)
		go func(idx int, s Site) {
			defer wg.Done()
			if err := a.sem.Acquire(ctx); err != nil {
				return
			}
			defer a.sem.Release()
			siteResults[idx] = a.searchSite(ctx, s, query)
		}(i, site)
	}
	wg.Wait()

	for _, results := range siteResults {
		all = append(all, results...)
	}

	deduplicated := dedupeByURL(all)

	if len(deduplicated) > rankThreshold {
		deduplicated = a.rank(ctx, claim, deduplicated)
	}
	if len(deduplicated) > maxResults {
		deduplicated = deduplicated[:maxResults]
	}
	return deduplicated
}

// searchQuery derives a compact search query from the claim, falling back to
// the claim's first tokens when the model call fails.
func (a *Aggregator) searchQuery(ctx context.Context, claim string) string {
	response, err := a.client.Complete(ctx, llm.CompletionRequest{
		Prompt:      fmt.Sprintf("Extract the core factual assertion from this claim into a concise search query (3-8 words, no quotes). Just return the query, nothing else.\n\nClaim: %q", claim),
		Temperature: 0.1,
		HasTemp:     true,
	})
	if err == nil {
		query := strings.ReplaceAll(strings.TrimSpace(response), `"`, "")
		if query != "" {
			return util.Truncate(query, 100)
		}
	}

	words := strings.Fields(claim)
	if len(words) > queryFallbackLen {
		words = words[:queryFallbackLen]
	}
	return strings.Join(words, " ")
}

// searchSite scrapes one fact-check site's search page for plausible result
// links. Pages are cached; robots.txt disallow skips the site entirely.
func (a *Aggregator) searchSite(ctx context.Context, site Site, query string) []model.FactCheckResult {
	searchURL := site.SearchURL + url.QueryEscape(query)

	if a.robots != nil && !a.robots.Allowed(ctx, searchURL) {
		a.logf("robots.txt disallows searching %s", site.Name)
		return nil
	}

	body, err := a.searchPage(ctx, searchURL)
	if err != nil {
		a.logf("search %s: %v", site.Name, err)
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil
	}

	siteHost := strings.Split(site.Domain, "/")[0]
	var results []model.FactCheckResult
	seen := make(map[string]bool)

	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		text := strings.TrimSpace(sel.Text())

		if !plausibleResultLink(text, href, siteHost, site.SearchURL) {
			return true
		}

		fullURL := href
		if !strings.HasPrefix(href, "http") {
			fullURL = "https://" + siteHost + href
		}
		if seen[fullURL] {
			return true
		}
		seen[fullURL] = true

		title := util.Truncate(text, 200)
		results = append(results, model.FactCheckResult{
			Source: site.Name,
			Title:  title,
			URL:    fullURL,
		})
		return len(results) < maxLinksPerSite
	})

	return results
}

// searchPage retrieves a search page through the cache.
func (a *Aggregator) searchPage(ctx context.Context, searchURL string) (string, error) {
	key := cache.Key(searchURL)
	if a.cache != nil {
		if body, ok := a.cache.Get(key); ok {
			return string(body), nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64; rv:133.0) Gecko/20100101 Firefox/133.0")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	if a.cache != nil {
		a.cache.Set(key, raw, a.cacheTTL)
	}
	return string(raw), nil
}

// plausibleResultLink applies the link heuristics: bounded text length, no
// boilerplate phrase, same-domain resolution, and no utility path fragments.
func plausibleResultLink(text, href, siteHost, searchURL string) bool {
	if len(text) <= minLinkTextLen || len(text) >= maxLinkTextLen {
		return false
	}

	lower := strings.ToLower(text)
	for _, phrase := range boilerplatePhrases {
		if strings.Contains(lower, phrase) {
			return false
		}
	}

	if strings.HasPrefix(href, "http") && !strings.Contains(href, siteHost) {
		return false
	}
	if searchURL != "" && strings.HasSuffix(href, searchURL) {
		return false
	}
	for _, fragment := range skipPathFragments {
		if strings.Contains(href, fragment) {
			return false
		}
	}
	return href != "" && href != "#"
}

// dedupeByURL removes duplicates by normalized URL; the first occurrence
// wins, preserving index-API-before-scrape ordering.
func dedupeByURL(results []model.FactCheckResult) []model.FactCheckResult {
	seen := make(map[string]bool)
	var deduplicated []model.FactCheckResult
	for _, r := range results {
		key := model.NormalizeResultURL(r.URL)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		deduplicated = append(deduplicated, r)
	}
	return deduplicated
}

// rank asks the model to re-order results by relevance to the claim. Any
// failure falls back to the unranked order.
func (a *Aggregator) rank(ctx context.Context, claim string, results []model.FactCheckResult) []model.FactCheckResult {
	type summary struct {
		Index  int    `json:"index"`
		Source string `json:"source"`
		Title  string `json:"title"`
		Rating string `json:"rating,omitempty"`
	}
	summaries := make([]summary, len(results))
	for i, r := range results {
		summaries[i] = summary{Index: i, Source: r.Source, Title: r.Title, Rating: r.Rating}
	}
	encoded, err := json.Marshal(summaries)
	if err != nil {
		return results
	}

	response, err := a.client.Complete(ctx, llm.CompletionRequest{
		Prompt: fmt.Sprintf(`Given this claim: %q

And these fact-check results:
%s

Return a JSON object with a "ranked" array containing the indices of the most relevant results, ordered from most to least relevant. Only include results that actually appear related to the claim. Example: {"ranked": [2, 0, 4]}`, claim, encoded),
		JSONMode:    true,
		Temperature: 0.1,
		HasTemp:     true,
	})
	if err != nil {
		return results
	}

	var parsed struct {
		Ranked []int `json:"ranked"`
	}
	if err := json.Unmarshal([]byte(response), &parsed); err != nil {
		return results
	}

	var ranked []model.FactCheckResult
	used := make(map[int]bool, len(parsed.Ranked))
	for _, idx := range parsed.Ranked {
		// A repeated index would reintroduce a duplicate URL past dedupe.
		if idx < 0 || idx >= len(results) || used[idx] {
			continue
		}
		used[idx] = true
		ranked = append(ranked, results[idx])
	}
	if len(ranked) == 0 {
		return results
	}
	return ranked
}
