package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the stackctl configuration, loaded from YAML.
type Config struct {
	Project string        `yaml:"project"`
	Compose ComposeConfig `yaml:"compose"`
	Gateway GatewayConfig `yaml:"gateway"`
	// Services lists the stack members shown by status and probed for health.
	Services []Service     `yaml:"services"`
	Remote   RemoteConfig  `yaml:"remote"`
	State    StateConfig   `yaml:"state"`
	Probe    ProbeDefaults `yaml:"probe"`
}

type ComposeConfig struct {
	// Files are passed to docker compose as repeated -f arguments, in order.
	Files   []string `yaml:"files"`
	EnvFile string   `yaml:"env_file"`
}

type GatewayConfig struct {
	URL            string `yaml:"url"`
	APIKey         string `yaml:"api_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	// RequestsPerSecond caps the gateway call rate when positive.
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

func (g GatewayConfig) Timeout() time.Duration {
	if g.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(g.TimeoutSeconds) * time.Second
}

type Service struct {
	Name string `yaml:"name"`
	// ComposeName overrides the compose service name when it differs from Name.
	ComposeName string `yaml:"compose_name"`
	HealthURL   string `yaml:"health_url"`
}

func (s Service) ComposeService() string {
	if s.ComposeName != "" {
		return s.ComposeName
	}
	return s.Name
}

type RemoteConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	User       string `yaml:"user"`
	KeyPath    string `yaml:"key_path"`
	KnownHosts string `yaml:"known_hosts"`
	Dir        string `yaml:"dir"`
}

type StateConfig struct {
	Dir string `yaml:"dir"`
}

type ProbeDefaults struct {
	Retries         int `yaml:"retries"`
	TimeoutSeconds  int `yaml:"timeout_seconds"`
	IntervalSeconds int `yaml:"interval_seconds"`
}

func (p ProbeDefaults) Timeout() time.Duration {
	if p.TimeoutSeconds <= 0 {
		return 120 * time.Second
	}
	return time.Duration(p.TimeoutSeconds) * time.Second
}

func (p ProbeDefaults) Interval() time.Duration {
	if p.IntervalSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(p.IntervalSeconds) * time.Second
}

// ConfigDir returns $XDG_CONFIG_HOME/stackctl or ~/.config/stackctl.
func ConfigDir() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, _ := os.UserHomeDir()
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "stackctl")
}

// DefaultPath is the config file used when --config is not given.
func DefaultPath() string { return filepath.Join(ConfigDir(), "config.yaml") }

// Load reads YAML configuration from path, falling back to DefaultPath.
// Secrets from secrets.env and the process environment are merged afterwards,
// environment winning.
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		path = DefaultPath()
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("open config: %w", err)
	}
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()

	secrets, _ := LoadSecretsEnv("")
	if v := os.Getenv("GATEWAY_API_KEY"); v != "" {
		secrets["GATEWAY_API_KEY"] = v
	}
	if v := os.Getenv("STACKCTL_GATEWAY_URL"); v != "" {
		secrets["STACKCTL_GATEWAY_URL"] = v
	}
	if v, ok := secrets["GATEWAY_API_KEY"]; ok && v != "" {
		cfg.Gateway.APIKey = v
	}
	if v, ok := secrets["STACKCTL_GATEWAY_URL"]; ok && v != "" {
		cfg.Gateway.URL = v
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Project == "" {
		c.Project = "agent-stack"
	}
	if len(c.Compose.Files) == 0 {
		c.Compose.Files = []string{"docker-compose.yml"}
	}
	if c.Remote.Port == 0 {
		c.Remote.Port = 22
	}
	if c.State.Dir == "" {
		c.State.Dir = filepath.Join(ConfigDir(), "state")
	}
}

// Service looks up a configured service by name. An empty name resolves to
// the gateway service when one is configured.
func (c Config) Service(name string) (Service, error) {
	if name == "" {
		name = "gateway"
	}
	for _, s := range c.Services {
		if s.Name == name {
			return s, nil
		}
	}
	return Service{}, fmt.Errorf("service not configured: %s", name)
}

// HistoryDBPath is where the probe history database lives.
func (c Config) HistoryDBPath() string { return filepath.Join(c.State.Dir, "history.db") }
