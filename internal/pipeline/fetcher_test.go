package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/citecheck/citecheck/internal/model"
)

func testFetcher(workers int) *Fetcher {
	return NewFetcher(model.HTTPConfig{
		Timeout:      5 * time.Second,
		MaxBodyBytes: 1 << 20,
		MaxRedirects: 5,
		MaxRetries:   3,
		HostRPS:      1000,
		HostBurst:    1000,
	}, workers)
}

func noSleep(t *testing.T) {
	t.Helper()
	orig := fetchSleepFunc
	fetchSleepFunc = func(time.Duration) {}
	t.Cleanup(func() { fetchSleepFunc = orig })
}

// allowLoopback permits fetching the local httptest server while keeping
// every other safety rule live.
func allowLoopback(t *testing.T) {
	t.Helper()
	orig := checkURLFunc
	checkURLFunc = func(rawURL string) error {
		if parsed, err := url.Parse(rawURL); err == nil {
			if host := parsed.Hostname(); host == "127.0.0.1" || host == "::1" {
				return nil
			}
		}
		return orig(rawURL)
	}
	t.Cleanup(func() { checkURLFunc = orig })
}

func articlePage(body string) string {
	return fmt.Sprintf("<html><head><title>Test Page</title></head><body><nav>Home About Contact</nav><article>%s</article><footer>Copyright</footer></body></html>", body)
}

var longParagraph = strings.Repeat("The committee published its findings in the annual report. ", 10)

func TestFetch_Success(t *testing.T) {
	allowLoopback(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = fmt.Fprint(w, articlePage(longParagraph))
	}))
	defer server.Close()

	content := testFetcher(1).Fetch(context.Background(), server.URL)
	if content.Error != "" {
		t.Fatalf("expected no error, got %q", content.Error)
	}
	if content.Title != "Test Page" {
		t.Errorf("unexpected title: %q", content.Title)
	}
	if !strings.Contains(content.Text, "annual report") {
		t.Errorf("expected article text, got %q", content.Text)
	}
	if strings.Contains(content.Text, "Copyright") || strings.Contains(content.Text, "About Contact") {
		t.Errorf("navigation/footer text leaked into content: %q", content.Text)
	}
}

func TestFetch_UnsafeURLMakesNoNetworkCall(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
	}))
	defer server.Close()

	content := testFetcher(1).Fetch(context.Background(), "http://169.254.169.254/latest/meta-data/")
	if content.Error == "" {
		t.Fatal("expected rejection for metadata address")
	}
	if content.Text != "" {
		t.Errorf("rejected fetch must carry no text, got %q", content.Text)
	}
	if requests.Load() != 0 {
		t.Errorf("expected zero network calls, got %d", requests.Load())
	}
}

func TestFetch_RejectsLoopbackByDefault(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
	}))
	defer server.Close()

	// No validation override: the httptest server itself is a loopback
	// address and must be refused before any request goes out.
	content := testFetcher(1).Fetch(context.Background(), server.URL)
	if !strings.Contains(content.Error, "localhost") {
		t.Errorf("expected loopback rejection, got %q", content.Error)
	}
	if requests.Load() != 0 {
		t.Errorf("expected zero network calls, got %d", requests.Load())
	}
}

func TestFetch_RetriesServerErrorThenSucceeds(t *testing.T) {
	allowLoopback(t)
	noSleep(t)
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = fmt.Fprint(w, articlePage(longParagraph))
	}))
	defer server.Close()

	content := testFetcher(1).Fetch(context.Background(), server.URL)
	if content.Error != "" {
		t.Fatalf("expected success after retries, got %q", content.Error)
	}
	if attempts.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts.Load())
	}
}

func TestFetch_BlockedAfterRetryBudget(t *testing.T) {
	allowLoopback(t)
	noSleep(t)
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	content := testFetcher(1).Fetch(context.Background(), server.URL)
	if attempts.Load() != 3 {
		t.Errorf("expected 403 to be retried 3 times, got %d", attempts.Load())
	}
	if !strings.Contains(content.Error, "access blocked") || !strings.Contains(content.Error, "403") {
		t.Errorf("expected blocked-access error, got %q", content.Error)
	}
}

func TestFetch_ClientErrorNotRetried(t *testing.T) {
	allowLoopback(t)
	noSleep(t)
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	content := testFetcher(1).Fetch(context.Background(), server.URL)
	if attempts.Load() != 1 {
		t.Errorf("expected 404 to fail immediately, got %d attempts", attempts.Load())
	}
	if !strings.Contains(content.Error, "404") {
		t.Errorf("expected status in error, got %q", content.Error)
	}
}

func TestFetch_ThinContentReported(t *testing.T) {
	allowLoopback(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, "<html><body><p>Short.</p></body></html>")
	}))
	defer server.Close()

	content := testFetcher(1).Fetch(context.Background(), server.URL)
	if !strings.Contains(content.Error, "too little readable content") {
		t.Errorf("expected thin-content error, got %q", content.Error)
	}
	if content.Text != "" {
		t.Errorf("thin page must not be treated as evidence, got %q", content.Text)
	}
}

func TestFetch_TruncatesLongContent(t *testing.T) {
	allowLoopback(t)
	huge := strings.Repeat("word ", 5000)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, articlePage(huge))
	}))
	defer server.Close()

	content := testFetcher(1).Fetch(context.Background(), server.URL)
	if content.Error != "" {
		t.Fatalf("expected success, got %q", content.Error)
	}
	if len(content.Text) > maxTextLen+3 { // "..." suffix
		t.Errorf("text not truncated: %d chars", len(content.Text))
	}
}

func TestFetch_HostNotFound(t *testing.T) {
	noSleep(t)
	content := testFetcher(1).Fetch(context.Background(), "http://nonexistent.invalid/article")
	if content.Error != "host not found" {
		t.Errorf("expected host-not-found error, got %q", content.Error)
	}
}

func TestFetchMany_IndexAligned(t *testing.T) {
	allowLoopback(t)
	noSleep(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/bad") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = fmt.Fprint(w, articlePage(longParagraph+r.URL.Path))
	}))
	defer server.Close()

	urls := []string{
		server.URL + "/a",
		server.URL + "/bad",
		server.URL + "/c",
	}
	results := testFetcher(2).FetchMany(context.Background(), urls)
	if len(results) != len(urls) {
		t.Fatalf("expected %d results, got %d", len(urls), len(results))
	}
	for i, r := range results {
		if r.URL != urls[i] {
			t.Errorf("result %d misaligned: got %s want %s", i, r.URL, urls[i])
		}
	}
	if results[1].Error == "" {
		t.Error("expected error for /bad")
	}
	if results[0].Error != "" || results[2].Error != "" {
		t.Errorf("expected success for /a and /c, got %q / %q", results[0].Error, results[2].Error)
	}
}

func TestFetchMany_BoundsConcurrency(t *testing.T) {
	allowLoopback(t)
	const workers = 2
	var inFlight, peak atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		inFlight.Add(-1)
		_, _ = fmt.Fprint(w, articlePage(longParagraph))
	}))
	defer server.Close()

	urls := make([]string, 10)
	for i := range urls {
		urls[i] = fmt.Sprintf("%s/page-%d", server.URL, i)
	}

	testFetcher(workers).FetchMany(context.Background(), urls)
	if got := peak.Load(); got > workers {
		t.Errorf("peak concurrent fetches %d exceeded cap %d", got, workers)
	}
}

func TestIsRetryableFetchError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"nil", nil, false},
		{"503", &httpStatusError{status: 503}, true},
		{"500", &httpStatusError{status: 500}, true},
		{"429", &httpStatusError{status: 429}, true},
		{"403", &httpStatusError{status: 403}, true},
		{"404", &httpStatusError{status: 404}, false},
		{"401", &httpStatusError{status: 401}, false},
		{"conn refused", fmt.Errorf("fetch: dial tcp: connection refused"), true},
		{"conn reset", fmt.Errorf("fetch: read: connection reset by peer"), true},
		{"no such host", fmt.Errorf("fetch: dial tcp: lookup x: no such host"), true},
		{"malformed", fmt.Errorf("create request: invalid URL"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRetryableFetchError(tt.err); got != tt.retryable {
				t.Errorf("isRetryableFetchError(%v) = %v, want %v", tt.err, got, tt.retryable)
			}
		})
	}
}

func TestFetchErrorMessage_Taxonomy(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"blocked 403", &httpStatusError{status: 403}, "access blocked by source (HTTP 403)"},
		{"blocked 429", &httpStatusError{status: 429}, "access blocked by source (HTTP 429)"},
		{"server error", &httpStatusError{status: 502}, "source returned HTTP 502"},
		{"not found", &httpStatusError{status: 404}, "source returned HTTP 404"},
		{"timeout", fmt.Errorf("fetch: context deadline exceeded (Client.Timeout exceeded)"), "request timed out"},
		{"dns", fmt.Errorf("fetch: lookup x: no such host"), "host not found"},
		{"refused", fmt.Errorf("fetch: dial: connection refused"), "connection refused"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fetchErrorMessage(tt.err); got != tt.want {
				t.Errorf("fetchErrorMessage(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}
