package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/chronia/internal/cache"
	"github.com/ppiankov/chronia/internal/util"
)

const historyPage = "<html><body><h2>1848</h2><p>Revolutions</p></body></html>"

func newTestFetcher() *Fetcher {
	return NewFetcher(5*time.Second, "chronia-test/1.0", 1<<20, false, "", "", "")
}

// noBackoff disables the retry sleep for the duration of a test
func noBackoff(t *testing.T) {
	t.Helper()
	orig := fetchSleepFunc
	fetchSleepFunc = func(time.Duration) {}
	t.Cleanup(func() { fetchSleepFunc = orig })
}

// recordingLimiter records every pacing request the fetcher makes
type recordingLimiter struct {
	mu     sync.Mutex
	urls   []string
	delays []time.Duration
	err    error
}

func (l *recordingLimiter) WaitWithDelay(_ context.Context, rawURL string, delay time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.urls = append(l.urls, rawURL)
	l.delays = append(l.delays, delay)
	return l.err
}

func (l *recordingLimiter) calls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.urls)
}

func TestFetch_PageAndMeta(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("ETag", `"v1"`)
		_, _ = fmt.Fprint(w, historyPage)
	}))
	defer server.Close()

	result, err := newTestFetcher().FetchWithRetry(context.Background(), server.URL+"/wiki/Timeline_of_Paris")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if result.HTML != historyPage {
		t.Errorf("Unexpected HTML: %s", result.HTML)
	}
	if result.Subject != "Timeline of Paris" {
		t.Errorf("Expected subject from the URL path, got %q", result.Subject)
	}
	if result.Meta.Bytes != len(historyPage) || result.Meta.ETag != `"v1"` {
		t.Errorf("Unexpected meta %+v", result.Meta)
	}
	if result.Meta.FromCache {
		t.Error("Expected a network fetch, got a cache hit")
	}
}

func TestFetchWithRetry_RecoversFromServerErrors(t *testing.T) {
	noBackoff(t)

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) <= 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = fmt.Fprint(w, historyPage)
	}))
	defer server.Close()

	result, err := newTestFetcher().FetchWithRetry(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Expected success on the third attempt, got %v", err)
	}
	if result.HTML != historyPage {
		t.Errorf("Unexpected HTML: %s", result.HTML)
	}
	if hits.Load() != 3 {
		t.Errorf("Expected 3 requests, got %d", hits.Load())
	}
}

func TestFetchWithRetry_TooManyRequests(t *testing.T) {
	noBackoff(t)

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = fmt.Fprint(w, historyPage)
	}))
	defer server.Close()

	if _, err := newTestFetcher().FetchWithRetry(context.Background(), server.URL); err != nil {
		t.Fatalf("Expected success after 429, got %v", err)
	}
	if hits.Load() != 2 {
		t.Errorf("Expected 2 requests, got %d", hits.Load())
	}
}

func TestFetchWithRetry_GivesUp(t *testing.T) {
	noBackoff(t)

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := newTestFetcher().WithAttempts(2).FetchWithRetry(context.Background(), server.URL)
	if err == nil {
		t.Fatal("Expected an error once attempts run out")
	}
	if hits.Load() != 2 {
		t.Errorf("Expected 2 requests, got %d", hits.Load())
	}
}

func TestFetchWithRetry_NotFoundIsFinal(t *testing.T) {
	noBackoff(t)

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := newTestFetcher().FetchWithRetry(context.Background(), server.URL)
	if err == nil || !strings.HasPrefix(err.Error(), "unexpected status: 404") {
		t.Fatalf("Expected a 404 error, got %v", err)
	}
	if hits.Load() != 1 {
		t.Errorf("Expected a single request, got %d", hits.Load())
	}
}

func TestFetch_CacheHitSkipsNetwork(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = fmt.Fprint(w, historyPage)
	}))
	defer server.Close()

	limiter := &recordingLimiter{}
	fetcher := newTestFetcher().
		WithCache(cache.NewMemoryCache(time.Hour, time.Minute), 0).
		WithLimiter(limiter)

	first, err := fetcher.Fetch(context.Background(), server.URL+"/history")
	if err != nil {
		t.Fatalf("First fetch failed: %v", err)
	}
	second, err := fetcher.Fetch(context.Background(), server.URL+"/history")
	if err != nil {
		t.Fatalf("Second fetch failed: %v", err)
	}

	if hits.Load() != 1 {
		t.Errorf("Expected 1 request to the server, got %d", hits.Load())
	}
	if limiter.calls() != 1 {
		t.Errorf("Expected the cache hit to skip pacing, limiter saw %d calls", limiter.calls())
	}
	if first.Meta.FromCache || !second.Meta.FromCache {
		t.Errorf("Expected only the second result from cache, got %v then %v", first.Meta.FromCache, second.Meta.FromCache)
	}
	if second.HTML != historyPage || second.Subject != first.Subject {
		t.Errorf("Cached result differs: %+v", second)
	}
}

func TestFetch_UnreadableCacheEntryIsRefetched(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = fmt.Fprint(w, historyPage)
	}))
	defer server.Close()

	store := cache.NewMemoryCache(time.Hour, time.Minute)
	_ = store.Set(cache.CacheKey(server.URL), []byte("not json"), 0)

	result, err := newTestFetcher().WithCache(store, 0).Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if result.Meta.FromCache || hits.Load() != 1 {
		t.Errorf("Expected a network fetch, got cache=%v hits=%d", result.Meta.FromCache, hits.Load())
	}
}

func TestFetch_RobotsDisallow(t *testing.T) {
	var pages atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			_, _ = fmt.Fprint(w, "User-agent: *\nDisallow: /private\nCrawl-delay: 2\n")
			return
		}
		pages.Add(1)
		_, _ = fmt.Fprint(w, historyPage)
	}))
	defer server.Close()

	limiter := &recordingLimiter{}
	fetcher := newTestFetcher().
		WithRobots(util.NewRobotsChecker("chronia-test/1.0", 5*time.Second)).
		WithLimiter(limiter)

	_, err := fetcher.FetchWithRetry(context.Background(), server.URL+"/private/archive")
	if !errors.Is(err, ErrDisallowed) {
		t.Fatalf("Expected ErrDisallowed, got %v", err)
	}
	if pages.Load() != 0 || limiter.calls() != 0 {
		t.Errorf("Expected no page request and no pacing, got %d requests and %d waits", pages.Load(), limiter.calls())
	}

	if _, err := fetcher.Fetch(context.Background(), server.URL+"/timeline"); err != nil {
		t.Fatalf("Expected allowed path to fetch, got %v", err)
	}
	if pages.Load() != 1 {
		t.Errorf("Expected 1 page request, got %d", pages.Load())
	}
	if limiter.calls() != 1 || limiter.delays[0] != 2*time.Second {
		t.Errorf("Expected the crawl delay to reach the limiter, got %v", limiter.delays)
	}
}

func TestFetch_LimiterPacesEachRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, historyPage)
	}))
	defer server.Close()

	limiter := &recordingLimiter{}
	fetcher := newTestFetcher().WithLimiter(limiter)

	for _, path := range []string{"/a", "/b"} {
		if _, err := fetcher.Fetch(context.Background(), server.URL+path); err != nil {
			t.Fatalf("Fetch %s failed: %v", path, err)
		}
	}

	if limiter.calls() != 2 {
		t.Fatalf("Expected 2 waits, got %d", limiter.calls())
	}
	if limiter.urls[1] != server.URL+"/b" || limiter.delays[1] != 0 {
		t.Errorf("Unexpected wait %q with delay %v", limiter.urls[1], limiter.delays[1])
	}
}

func TestFetch_LimiterErrorStopsRequest(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer server.Close()

	limiter := &recordingLimiter{err: context.Canceled}
	_, err := newTestFetcher().WithLimiter(limiter).FetchWithRetry(context.Background(), server.URL)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected the limiter error, got %v", err)
	}
	if hits.Load() != 0 {
		t.Errorf("Expected no request, got %d", hits.Load())
	}
}

func TestIsRetryableFetchError(t *testing.T) {
	tests := []struct {
		err       error
		retryable bool
	}{
		{nil, false},
		{errors.New("unexpected status: 500 500 Internal Server Error"), true},
		{errors.New("unexpected status: 429 429 Too Many Requests"), true},
		{errors.New("unexpected status: 403 403 Forbidden"), false},
		{errors.New("fetch: dial tcp: connection refused"), true},
		{fmt.Errorf("%w: https://example.org/private", ErrDisallowed), false},
		{errors.New("rate limit: context canceled"), false},
		{errors.New("read body: unexpected EOF"), false},
	}

	for _, tt := range tests {
		if got := isRetryableFetchError(tt.err); got != tt.retryable {
			t.Errorf("isRetryableFetchError(%v) = %v, want %v", tt.err, got, tt.retryable)
		}
	}
}

func TestExtractSubject(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://en.wikipedia.org/wiki/Timeline_of_ancient_Rome", "Timeline of ancient Rome"},
		{"https://example.org/history/local-history.html", "local history"},
		{"https://example.org/", "example.org"},
	}
	for _, tt := range tests {
		if got := extractSubject(tt.url); got != tt.want {
			t.Errorf("extractSubject(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}
