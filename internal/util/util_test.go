package util

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewProxyFunc_Explicit(t *testing.T) {
	proxy := NewProxyFunc("http://proxy.internal:3128", "", "example.net")

	req, _ := http.NewRequest(http.MethodGet, "https://en.wikipedia.org/wiki/Rome", nil)
	u, err := proxy(req)
	if err != nil {
		t.Fatalf("proxy failed: %v", err)
	}
	if u == nil || u.Host != "proxy.internal:3128" {
		t.Errorf("expected HTTPS request to use the HTTP proxy, got %v", u)
	}

	req, _ = http.NewRequest(http.MethodGet, "http://example.net/page", nil)
	u, err = proxy(req)
	if err != nil {
		t.Fatalf("proxy failed: %v", err)
	}
	if u != nil {
		t.Errorf("expected no proxy for excluded host, got %v", u)
	}
}

func TestNewProxyFunc_SeparateHTTPS(t *testing.T) {
	proxy := NewProxyFunc("http://plain:8080", "http://secure:8443", "")

	req, _ := http.NewRequest(http.MethodGet, "https://example.org", nil)
	if u, _ := proxy(req); u == nil || u.Host != "secure:8443" {
		t.Errorf("expected HTTPS proxy, got %v", u)
	}

	req, _ = http.NewRequest(http.MethodGet, "http://example.org", nil)
	if u, _ := proxy(req); u == nil || u.Host != "plain:8080" {
		t.Errorf("expected HTTP proxy, got %v", u)
	}
}

func TestRobotsChecker(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/robots.txt" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		hits.Add(1)
		_, _ = fmt.Fprint(w, "User-agent: *\nDisallow: /private\nCrawl-delay: 2\n")
	}))
	defer server.Close()

	checker := NewRobotsChecker("Chronia/0.1 (+https://github.com/ppiankov/chronia)", 5*time.Second)
	ctx := context.Background()

	allowed, delay, err := checker.CanFetch(ctx, server.URL+"/wiki/Rome")
	if err != nil {
		t.Fatalf("CanFetch failed: %v", err)
	}
	if !allowed {
		t.Error("expected /wiki/Rome to be allowed")
	}
	if delay != 2*time.Second {
		t.Errorf("expected crawl delay 2s, got %v", delay)
	}

	if checker.IsAllowed(ctx, server.URL+"/private/page") {
		t.Error("expected /private/page to be disallowed")
	}

	if hits.Load() != 1 {
		t.Errorf("expected robots.txt fetched once, got %d", hits.Load())
	}

	checker.Clear()
	_ = checker.IsAllowed(ctx, server.URL+"/")
	if hits.Load() != 2 {
		t.Errorf("expected refetch after clear, got %d fetches", hits.Load())
	}
}

func TestRobotsChecker_MissingRobotsAllowsAll(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	checker := NewRobotsChecker("Chronia/0.1", 5*time.Second)
	if !checker.IsAllowed(context.Background(), server.URL+"/anything") {
		t.Error("expected missing robots.txt to allow everything")
	}
}

func TestNormalizeUserAgent(t *testing.T) {
	tests := map[string]string{
		"Chronia/0.1 (+https://github.com/ppiankov/chronia)": "Chronia",
		"curl/8.0": "curl",
		"":         "",
	}
	for in, want := range tests {
		if got := NormalizeUserAgent(in); got != want {
			t.Errorf("NormalizeUserAgent(%q) = %q, want %q", in, got, want)
		}
	}
}
