package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alokkulkarni/agentOchestrator-sub002/pkg/api"
)

func fastRetry(max int) RetryConfig {
	return RetryConfig{
		MaxRetries:      max,
		InitialDelay:    time.Millisecond,
		MaxDelay:        5 * time.Millisecond,
		BackoffFactor:   1.0,
		RetryableErrors: []int{429, 500, 502, 503, 504},
	}
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy","checks":[{"name":"db","status":"healthy"}]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, WithRetry(fastRetry(0)))
	doc, raw, err := c.Health(context.Background())
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	if !doc.Healthy() {
		t.Errorf("expected healthy, got %s", doc.Status)
	}
	if len(doc.Checks) != 1 || doc.Checks[0].Name != "db" {
		t.Errorf("checks = %+v", doc.Checks)
	}
	if len(raw) == 0 {
		t.Errorf("raw body missing")
	}
}

func TestHealthBareStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"healthy"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, WithRetry(fastRetry(0)))
	doc, _, err := c.Health(context.Background())
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	if doc.Status != api.StatusHealthy {
		t.Errorf("status = %s", doc.Status)
	}
}

func TestHealthUnavailableStillDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status":"unhealthy"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, WithRetry(fastRetry(1)))
	doc, _, err := c.Health(context.Background())
	if err != nil {
		t.Fatalf("a 503 with a body should decode: %v", err)
	}
	if doc.Status != api.StatusUnhealthy {
		t.Errorf("status = %s", doc.Status)
	}
}

func TestRetryOnServerError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"status":"healthy"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, WithRetry(fastRetry(3)))
	doc, _, err := c.Health(context.Background())
	if err != nil {
		t.Fatalf("health after retries: %v", err)
	}
	if !doc.Healthy() {
		t.Errorf("status = %s", doc.Status)
	}
	if n := atomic.LoadInt32(&calls); n != 3 {
		t.Errorf("expected 3 calls, got %d", n)
	}
}

func TestNoRetryOnNotFound(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, WithRetry(fastRetry(3)))
	_, _, err := c.Health(context.Background())
	if err == nil {
		t.Fatalf("expected error")
	}
	se, ok := err.(*StatusError)
	if !ok || se.Status != http.StatusNotFound {
		t.Fatalf("expected 404 StatusError, got %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("404 must not be retried, got %d calls", n)
	}
}

func TestProviders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/providers" {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sekret" {
			t.Errorf("auth header = %q", got)
		}
		w.Write([]byte(`{"providers":[{"name":"openai","type":"llm","healthy":true,"models":["gpt-4o"]}]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, WithAPIKey("sekret"), WithRetry(fastRetry(0)))
	doc, _, err := c.Providers(context.Background())
	if err != nil {
		t.Fatalf("providers: %v", err)
	}
	if len(doc.Providers) != 1 || doc.Providers[0].Name != "openai" || !doc.Providers[0].Healthy {
		t.Errorf("providers = %+v", doc.Providers)
	}
}

func TestContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := New(srv.URL, time.Second, WithRetry(fastRetry(5)))
	if _, _, err := c.Health(ctx); err == nil {
		t.Fatalf("expected error on cancelled context")
	}
}
