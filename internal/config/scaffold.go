package config

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
)

//go:embed defaults/config.yaml defaults/env.example
var defaultsFS embed.FS

// ScaffoldResult reports what Scaffold wrote or left alone.
type ScaffoldResult struct {
	ConfigPath    string
	ConfigWritten bool
	EnvPath       string
	EnvWritten    bool
}

// Scaffold writes the default config file and, when the env file named by the
// defaults is missing, copies the example env next to the compose files.
// Existing files are kept unless force is set (force never touches .env).
func Scaffold(configPath, envPath string, force bool) (ScaffoldResult, error) {
	if configPath == "" {
		configPath = DefaultPath()
	}
	if envPath == "" {
		envPath = ".env"
	}
	res := ScaffoldResult{ConfigPath: configPath, EnvPath: envPath}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o700); err != nil {
		return res, fmt.Errorf("create config dir: %w", err)
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) || force {
		data, err := defaultsFS.ReadFile("defaults/config.yaml")
		if err != nil {
			return res, err
		}
		if err := os.WriteFile(configPath, data, 0o600); err != nil {
			return res, fmt.Errorf("write config: %w", err)
		}
		res.ConfigWritten = true
	}

	if _, err := os.Stat(envPath); os.IsNotExist(err) {
		data, err := defaultsFS.ReadFile("defaults/env.example")
		if err != nil {
			return res, err
		}
		if err := os.WriteFile(envPath, data, 0o600); err != nil {
			return res, fmt.Errorf("write env file: %w", err)
		}
		res.EnvWritten = true
	}
	return res, nil
}
