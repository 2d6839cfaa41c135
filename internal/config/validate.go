package config

import (
	"fmt"
	"net/url"
)

// ValidationError reports a configuration value the user has to fix.
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s=%q: %s", e.Field, e.Value, e.Message)
}

// Validate rejects malformed values. It runs after defaults and secrets are
// applied so it sees the effective configuration.
func (c Config) Validate() error {
	if c.Gateway.URL != "" {
		u, err := url.Parse(c.Gateway.URL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return ValidationError{Field: "gateway.url", Value: c.Gateway.URL, Message: "must be an absolute http(s) URL"}
		}
	}
	seen := make(map[string]bool, len(c.Services))
	for _, s := range c.Services {
		if s.Name == "" {
			return ValidationError{Field: "services.name", Message: "must not be empty"}
		}
		if seen[s.Name] {
			return ValidationError{Field: "services.name", Value: s.Name, Message: "duplicate service"}
		}
		seen[s.Name] = true
	}
	if c.Remote.Port < 0 || c.Remote.Port > 65535 {
		return ValidationError{Field: "remote.port", Value: fmt.Sprint(c.Remote.Port), Message: "out of range"}
	}
	return nil
}
