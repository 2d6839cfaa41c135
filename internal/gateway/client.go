package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/alokkulkarni/agentOchestrator-sub002/pkg/api"
)

// RetryConfig defines retry behavior for gateway requests.
type RetryConfig struct {
	MaxRetries      int
	InitialDelay    time.Duration
	MaxDelay        time.Duration
	BackoffFactor   float64
	RetryableErrors []int // HTTP status codes that should be retried
}

// DefaultRetryConfig returns sensible retry defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:      3,
		InitialDelay:    500 * time.Millisecond,
		MaxDelay:        10 * time.Second,
		BackoffFactor:   2.0,
		RetryableErrors: []int{429, 500, 502, 503, 504},
	}
}

// Client talks to the gateway's HTTP contracts: /health and /providers.
// All its requests are GETs, so every failure is safe to retry.
type Client struct {
	BaseURL string
	APIKey  string

	httpClient *http.Client
	retry      RetryConfig
	limiter    *RateLimiter
}

// New creates a gateway client. baseURL is the gateway root, e.g.
// http://localhost:8080.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		retry:      DefaultRetryConfig(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Option customizes a Client.
type Option func(*Client)

// WithAPIKey sends a bearer token with every request.
func WithAPIKey(key string) Option { return func(c *Client) { c.APIKey = key } }

// WithRetry overrides the retry policy.
func WithRetry(rc RetryConfig) Option { return func(c *Client) { c.retry = rc } }

// WithRateLimit caps the request rate.
func WithRateLimit(requestsPerSecond float64) Option {
	return func(c *Client) { c.limiter = NewRateLimiter(requestsPerSecond) }
}

// StatusError reports an HTTP response outside the 2xx range.
type StatusError struct {
	URL    string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("gateway: %s returned %d", e.URL, e.Status)
}

// Health fetches and decodes the /health document. The raw body is returned
// alongside so callers can re-print the exact payload.
func (c *Client) Health(ctx context.Context) (api.HealthDocument, []byte, error) {
	var doc api.HealthDocument
	body, err := c.get(ctx, "/health")
	if err != nil {
		// A 503 still carries a health document worth decoding.
		if se, ok := err.(*StatusError); ok && se.Status == http.StatusServiceUnavailable {
			if jerr := json.Unmarshal([]byte(se.Body), &doc); jerr == nil && doc.Status != "" {
				return doc, []byte(se.Body), nil
			}
		}
		return doc, nil, err
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		return doc, body, fmt.Errorf("decode health document: %w", err)
	}
	if doc.Status == "" {
		doc.Status = api.StatusUnknown
	}
	return doc, body, nil
}

// Providers fetches and decodes the /providers listing.
func (c *Client) Providers(ctx context.Context) (api.ProvidersDocument, []byte, error) {
	var doc api.ProvidersDocument
	body, err := c.get(ctx, "/providers")
	if err != nil {
		return doc, nil, err
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		return doc, body, fmt.Errorf("decode providers document: %w", err)
	}
	return doc, body, nil
}

// get performs a GET with retry on transport errors and retryable statuses.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	u, err := url.JoinPath(c.BaseURL, path)
	if err != nil {
		return nil, fmt.Errorf("gateway url: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.retry.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := c.calculateDelay(attempt - 1)
			log.Warn().
				Err(lastErr).
				Int("attempt", attempt).
				Int("max_retries", c.retry.MaxRetries).
				Dur("delay", delay).
				Str("url", u).
				Msg("gateway request failed, retrying")
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		if c.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.APIKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return body, nil
		}
		se := &StatusError{URL: u, Status: resp.StatusCode, Body: string(body)}
		if !c.shouldRetry(resp.StatusCode) {
			return nil, se
		}
		lastErr = se
	}
	return nil, lastErr
}

func (c *Client) shouldRetry(statusCode int) bool {
	for _, code := range c.retry.RetryableErrors {
		if statusCode == code {
			return true
		}
	}
	return false
}

// calculateDelay applies exponential backoff with jitter, capped at MaxDelay.
func (c *Client) calculateDelay(attempt int) time.Duration {
	delay := float64(c.retry.InitialDelay) * math.Pow(c.retry.BackoffFactor, float64(attempt))
	jitter := delay * 0.25 * (2*rand.Float64() - 1)
	delay += jitter
	if delay > float64(c.retry.MaxDelay) {
		delay = float64(c.retry.MaxDelay)
	}
	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}
