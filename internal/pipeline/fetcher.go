package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/citecheck/citecheck/internal/model"
	"github.com/citecheck/citecheck/internal/util"
	"github.com/citecheck/citecheck/internal/validate"
	"github.com/citecheck/citecheck/internal/worker"
)

// fetchSleepFunc is the backoff delay between retry attempts (injectable for
// tests).
var fetchSleepFunc = time.Sleep

// checkURLFunc is the safety validation run before every attempt and every
// redirect hop (injectable for tests).
var checkURLFunc = validate.CheckURL

// userAgents is rotated per attempt to reduce trivial bot blocking on sites
// that reject default client agents.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64; rv:133.0) Gecko/20100101 Firefox/133.0",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:133.0) Gecko/20100101 Firefox/133.0",
}

// Fetcher retrieves and cleans cited source pages. It never returns an error
// past its boundary: every failure is recorded in ScrapedContent.Error so one
// unreachable citation cannot poison the batch.
type Fetcher struct {
	httpClient *http.Client
	limiter    *worker.Limiter
	sem        *worker.Semaphore
	maxBytes   int64
	maxRetries int
}

// NewFetcher creates a fetcher with the configured timeout, redirect cap,
// retry budget, and fetch concurrency.
func NewFetcher(cfg model.HTTPConfig, fetchWorkers int) *Fetcher {
	maxRedirects := cfg.MaxRedirects
	if maxRedirects <= 0 {
		maxRedirects = 5
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	return &Fetcher{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy),
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				// Redirect targets are attacker-influenced too.
				return checkURLFunc(req.URL.String())
			},
		},
		limiter:    worker.NewLimiter(cfg.HostRPS, cfg.HostBurst),
		sem:        worker.NewSemaphore(fetchWorkers),
		maxBytes:   cfg.MaxBodyBytes,
		maxRetries: maxRetries,
	}
}

// Fetch retrieves one URL: safety validation first (zero network calls on
// rejection), then up to maxRetries attempts with linear backoff, then
// content cleaning. Thin pages are reported as errors rather than evidence.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) model.ScrapedContent {
	content := model.ScrapedContent{URL: rawURL}

	var lastErr error
	for attempt := 1; attempt <= f.maxRetries; attempt++ {
		if attempt > 1 {
			fetchSleepFunc(time.Duration(attempt-1) * time.Second)
		}

		// Re-validate on every attempt; the safety check is cheap and the
		// budget must never issue a request a rejection should have stopped.
		if err := checkURLFunc(rawURL); err != nil {
			content.Error = err.Error()
			return content
		}

		body, err := f.attempt(ctx, rawURL)
		if err == nil {
			text, title := extractReadable(body)
			if len(text) < minTextLen {
				content.Error = "page contained too little readable content"
				return content
			}
			content.Text = text
			content.Title = title
			return content
		}

		lastErr = err
		if !isRetryableFetchError(err) {
			break
		}
	}

	content.Error = fetchErrorMessage(lastErr)
	return content
}

// FetchMany fetches all URLs under the fetch concurrency cap. The result
// slice is index-aligned with the input; completion order is unspecified.
func (f *Fetcher) FetchMany(ctx context.Context, urls []string) []model.ScrapedContent {
	results := make([]model.ScrapedContent, len(urls))
	var wg sync.WaitGroup

	for i, u := range urls {
		wg.Add(1)
		go func(idx int, rawURL string) {
			defer wg.Done()
			if err := f.sem.Acquire(ctx); err != nil {
				results[idx] = model.ScrapedContent{URL: rawURL, Error: "request cancelled"}
				return
			}
			defer f.sem.Release()
			results[idx] = f.Fetch(ctx, rawURL)
		}(i, u)
	}

	wg.Wait()
	return results
}

// attempt performs a single HTTP round trip and returns the raw body.
func (f *Fetcher) attempt(ctx context.Context, rawURL string) (string, error) {
	if err := f.limiter.Wait(ctx, rawURL); err != nil {
		return "", fmt.Errorf("rate wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	setBrowserHeaders(req)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return "", &httpStatusError{status: resp.StatusCode}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return string(raw), nil
}

// setBrowserHeaders applies a randomized realistic browser header set.
func setBrowserHeaders(req *http.Request) {
	req.Header.Set("User-Agent", userAgents[rand.Intn(len(userAgents))])
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9,de;q=0.8")
	req.Header.Set("Sec-Fetch-Dest", "document")
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	req.Header.Set("Sec-Fetch-Site", "none")
	req.Header.Set("DNT", "1")
}

// httpStatusError carries the status code through retry classification.
type httpStatusError struct {
	status int
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("unexpected status: %d %s", e.status, http.StatusText(e.status))
}

// isRetryableFetchError decides whether another attempt may help. Server
// errors and rate/forbidden responses are retried up to the budget; any other
// client error is final.
func isRetryableFetchError(err error) bool {
	if err == nil {
		return false
	}

	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		return statusErr.status >= 500 ||
			statusErr.status == http.StatusForbidden ||
			statusErr.status == http.StatusTooManyRequests
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "no such host")
}

// fetchErrorMessage maps a final attempt error onto the failure taxonomy
// surfaced to the user.
func fetchErrorMessage(err error) string {
	if err == nil {
		return "failed to fetch content"
	}

	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.status == http.StatusForbidden || statusErr.status == http.StatusTooManyRequests:
			return fmt.Sprintf("access blocked by source (HTTP %d)", statusErr.status)
		default:
			return fmt.Sprintf("source returned HTTP %d", statusErr.status)
		}
	}

	var netErr net.Error
	msg := strings.ToLower(err.Error())
	switch {
	case errors.As(err, &netErr) && netErr.Timeout(),
		errors.Is(err, context.DeadlineExceeded),
		strings.Contains(msg, "timeout"):
		return "request timed out"
	case strings.Contains(msg, "no such host"):
		return "host not found"
	case strings.Contains(msg, "connection refused"):
		return "connection refused"
	default:
		return fmt.Sprintf("failed to fetch content: %v", err)
	}
}
