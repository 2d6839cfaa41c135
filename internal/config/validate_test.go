package config

import (
	"errors"
	"testing"
)

func TestValidate(t *testing.T) {
	ok := Config{
		Gateway:  GatewayConfig{URL: "http://localhost:8080"},
		Services: []Service{{Name: "gateway"}, {Name: "worker"}},
		Remote:   RemoteConfig{Port: 22},
	}
	if err := ok.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	tests := []struct {
		name string
		cfg  Config
	}{
		{"relative gateway url", Config{Gateway: GatewayConfig{URL: "localhost:8080"}}},
		{"empty service name", Config{Services: []Service{{Name: ""}}}},
		{"duplicate service", Config{Services: []Service{{Name: "a"}, {Name: "a"}}}},
		{"port out of range", Config{Remote: RemoteConfig{Port: 70000}}},
	}
	for _, tt := range tests {
		err := tt.cfg.Validate()
		if err == nil {
			t.Errorf("%s: expected error", tt.name)
			continue
		}
		var verr ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("%s: expected ValidationError, got %T", tt.name, err)
		}
	}
}
