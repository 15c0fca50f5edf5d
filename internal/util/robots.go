package util

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/temoto/robotstxt"

	"github.com/citecheck/citecheck/internal/cache"
)

// RobotsChecker answers whether a URL may be scraped according to the host's
// robots.txt. Documents are held in the shared TTL cache so repeated lookups
// against the same fact-check site fetch robots.txt once.
type RobotsChecker struct {
	httpClient *http.Client
	cache      cache.Cache
	userAgent  string
	ttl        time.Duration
}

// NewRobotsChecker creates a checker backed by the given cache.
func NewRobotsChecker(userAgent string, timeout time.Duration, c cache.Cache, ttl time.Duration) *RobotsChecker {
	return &RobotsChecker{
		httpClient: &http.Client{Timeout: timeout},
		cache:      c,
		userAgent:  userAgent,
		ttl:        ttl,
	}
}

// Allowed reports whether rawURL may be fetched for the configured agent.
// A robots.txt that cannot be retrieved permits the fetch; politeness is
// best-effort and must not block evidence gathering.
func (r *RobotsChecker) Allowed(ctx context.Context, rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return false
	}

	robotsURL := fmt.Sprintf("%s://%s/robots.txt", parsed.Scheme, parsed.Host)
	body, err := r.robotsBody(ctx, robotsURL)
	if err != nil {
		return true
	}

	data, err := robotstxt.FromBytes(body)
	if err != nil {
		return true
	}
	return data.TestAgent(parsed.Path, r.userAgent)
}

func (r *RobotsChecker) robotsBody(ctx context.Context, robotsURL string) ([]byte, error) {
	key := cache.Key(robotsURL)
	if body, ok := r.cache.Get(key); ok {
		return body, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("robots.txt status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 512*1024))
	if err != nil {
		return nil, err
	}
	r.cache.Set(key, body, r.ttl)
	return body, nil
}
