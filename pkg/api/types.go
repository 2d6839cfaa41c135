package api

import "time"

// api contains the public JSON types for the gateway and status endpoints.

// Status is the health state reported for a single check or a whole stack.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
	StatusUnknown   Status = "unknown"
)

// Check is one component's health check result.
type Check struct {
	Name        string    `json:"name"`
	Status      Status    `json:"status"`
	Message     string    `json:"message,omitempty"`
	LastChecked time.Time `json:"last_checked,omitempty"`
	DurationMS  int64     `json:"duration_ms,omitempty"`
}

// HealthDocument is the payload served at /health. Minimal documents that
// carry only a status field decode cleanly into it.
type HealthDocument struct {
	Status    Status    `json:"status"`
	Timestamp time.Time `json:"timestamp,omitempty"`
	Checks    []Check   `json:"checks,omitempty"`
}

// Healthy reports whether the document declares a fully healthy stack.
func (d HealthDocument) Healthy() bool { return d.Status == StatusHealthy }

// Provider is one upstream model provider as listed at /providers.
type Provider struct {
	Name    string   `json:"name"`
	Type    string   `json:"type,omitempty"`
	Healthy bool     `json:"healthy"`
	Models  []string `json:"models,omitempty"`
}

// ProvidersDocument is the payload served at /providers.
type ProvidersDocument struct {
	Providers []Provider `json:"providers"`
}

// Rollup folds per-check statuses into an overall status: any unhealthy check
// makes the stack unhealthy, otherwise any degraded or unknown check degrades it.
func Rollup(checks []Check) Status {
	overall := StatusHealthy
	for _, c := range checks {
		switch c.Status {
		case StatusUnhealthy:
			return StatusUnhealthy
		case StatusDegraded, StatusUnknown:
			overall = StatusDegraded
		}
	}
	return overall
}
