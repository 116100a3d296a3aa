package drspark

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"drspark-watcher/config"
	"drspark-watcher/utils"
)

func newTestClient(t *testing.T) (*Client, *[]time.Duration) {
	t.Helper()
	cfg := &config.Config{
		UserAgent:     "Mozilla/5.0 (+alerts)",
		FetchTimeout:  5 * time.Second,
		FetchAttempts: 3,
	}
	c := NewClient(cfg, utils.NewLogger(false))

	var delays []time.Duration
	c.retry.Sleep = func(d time.Duration) { delays = append(delays, d) }
	return c, &delays
}

func TestFetchSuccess(t *testing.T) {
	var gotUA atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA.Store(r.Header.Get("User-Agent"))
		w.Write([]byte("<html>list</html>"))
	}))
	defer srv.Close()

	c, _ := newTestClient(t)
	body, err := c.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if body != "<html>list</html>" {
		t.Errorf("body: got %q", body)
	}
	if ua := gotUA.Load(); ua != "Mozilla/5.0 (+alerts)" {
		t.Errorf("user-agent: got %v", ua)
	}
}

func TestFetchRetriesOn503(t *testing.T) {
	var requests int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&requests, 1)
		http.Error(w, "upstream unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, delays := newTestClient(t)
	_, err := c.Fetch(context.Background(), srv.URL)
	if err == nil {
		t.Fatal("expected error after exhausted retries")
	}

	if n := atomic.LoadInt64(&requests); n != 3 {
		t.Errorf("expected exactly 3 attempts, got %d", n)
	}

	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusServiceUnavailable {
		t.Errorf("expected StatusError 503, got %v", err)
	}

	// Back-off starts at 0.7s and doubles; delays must be non-decreasing.
	if len(*delays) != 2 {
		t.Fatalf("expected 2 back-off sleeps, got %d", len(*delays))
	}
	if (*delays)[0] != 700*time.Millisecond || (*delays)[1] != 1400*time.Millisecond {
		t.Errorf("back-off delays: got %v", *delays)
	}
}

func TestFetchDoesNotRetryOn404(t *testing.T) {
	var requests int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&requests, 1)
		http.Error(w, strings.Repeat("x", 900), http.StatusNotFound)
	}))
	defer srv.Close()

	c, delays := newTestClient(t)
	_, err := c.Fetch(context.Background(), srv.URL)

	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusNotFound {
		t.Fatalf("expected StatusError 404, got %v", err)
	}
	if atomic.LoadInt64(&requests) != 1 {
		t.Errorf("404 must not be retried, got %d attempts", requests)
	}
	if len(*delays) != 0 {
		t.Errorf("404 must not back off, got %v", *delays)
	}
	if len([]rune(se.Snippet)) > 500 {
		t.Errorf("snippet must be truncated to 500 chars, got %d", len([]rune(se.Snippet)))
	}
}

func TestFetchConnectionFailure(t *testing.T) {
	c, _ := newTestClient(t)
	// Port 1 on loopback: nothing listens there.
	_, err := c.Fetch(context.Background(), "http://127.0.0.1:1/list")

	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError, got %v", err)
	}
}

func TestSnippetFlattensNewlines(t *testing.T) {
	got := Snippet("line one\nline two", 500)
	if got != "line one line two" {
		t.Errorf("Snippet: got %q", got)
	}
}
