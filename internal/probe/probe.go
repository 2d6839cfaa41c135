package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/alokkulkarni/agentOchestrator-sub002/pkg/api"
)

// Prober fetches a health document from a health URL.
type Prober interface {
	Probe(ctx context.Context, healthURL string) (api.HealthDocument, error)
}

// HTTPProber probes arbitrary health URLs. Unlike the gateway client it never
// retries; pacing belongs to the caller's wait loop.
type HTTPProber struct {
	APIKey string
	client *http.Client
}

// NewHTTPProber returns a prober with the given per-request timeout.
func NewHTTPProber(timeout time.Duration) *HTTPProber {
	return &HTTPProber{client: &http.Client{Timeout: timeout}}
}

// Probe GETs the health URL and decodes the document. A 503 response still
// decodes: an unhealthy report is an answer, not a transport failure.
func (p *HTTPProber) Probe(ctx context.Context, healthURL string) (api.HealthDocument, error) {
	var doc api.HealthDocument
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, healthURL, nil)
	if err != nil {
		return doc, err
	}
	req.Header.Set("Accept", "application/json")
	if p.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.APIKey)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return doc, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return doc, err
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusServiceUnavailable {
		return doc, fmt.Errorf("probe %s: status %d", healthURL, resp.StatusCode)
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		return doc, fmt.Errorf("probe %s: decode: %w", healthURL, err)
	}
	if doc.Status == "" {
		doc.Status = api.StatusUnknown
	}
	return doc, nil
}

// Waiter polls a health URL until it reports healthy or the deadline passes,
// backing off exponentially with jitter between attempts.
type Waiter struct {
	Prober        Prober
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// NewWaiter returns a waiter with the default pacing.
func NewWaiter(p Prober) *Waiter {
	return &Waiter{
		Prober:        p,
		InitialDelay:  time.Second,
		MaxDelay:      15 * time.Second,
		BackoffFactor: 1.5,
	}
}

// Wait blocks until healthURL reports healthy. It returns the number of
// attempts made and an error when the timeout or context expires first.
func (w *Waiter) Wait(ctx context.Context, healthURL string, timeout time.Duration) (int, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	attempts := 0
	for {
		attempts++
		doc, err := w.Prober.Probe(ctx, healthURL)
		if err == nil && doc.Healthy() {
			log.Debug().Str("url", healthURL).Int("attempts", attempts).Msg("service ready")
			return attempts, nil
		}
		if err != nil {
			log.Debug().Err(err).Str("url", healthURL).Int("attempt", attempts).Msg("not ready")
		} else {
			log.Debug().Str("status", string(doc.Status)).Str("url", healthURL).Int("attempt", attempts).Msg("not ready")
		}
		select {
		case <-ctx.Done():
			return attempts, fmt.Errorf("waiting for %s: %w", healthURL, ctx.Err())
		case <-time.After(w.delay(attempts - 1)):
		}
	}
}

func (w *Waiter) delay(attempt int) time.Duration {
	initial := w.InitialDelay
	if initial <= 0 {
		initial = time.Second
	}
	factor := w.BackoffFactor
	if factor < 1 {
		factor = 1.5
	}
	maxDelay := w.MaxDelay
	if maxDelay <= 0 {
		maxDelay = 15 * time.Second
	}
	d := float64(initial) * math.Pow(factor, float64(attempt))
	d += d * 0.25 * (2*rand.Float64() - 1)
	if d > float64(maxDelay) {
		d = float64(maxDelay)
	}
	return time.Duration(d)
}
