// Package config loads and persists the YAML configuration file and prepares
// the logger from it.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"pushprint/printer"
)

// Config is the whole configuration file.
type Config struct {
	Server  ServerConfig    `yaml:"server"`
	Printer printer.Profile `yaml:"printer"`
	Logging LoggingConfig   `yaml:"logging"`
	// Rules is the path to an optional routing rule file.
	Rules string `yaml:"rules,omitempty"`
}

// ServerConfig carries the notification service session. Secret is usually
// written back by `pushprint login`; it may also reference an environment
// variable as "${PUSHPRINT_SECRET}".
type ServerConfig struct {
	APIBase     string `yaml:"api_base,omitempty"`
	StreamURL   string `yaml:"stream_url,omitempty"`
	Secret      string `yaml:"secret,omitempty"`
	DeviceID    string `yaml:"device_id,omitempty"`
	DeviceName  string `yaml:"device_name,omitempty"`
	MinPriority int    `yaml:"min_priority,omitempty"`
}

// LoggingConfig selects console verbosity.
type LoggingConfig struct {
	Level string `yaml:"level,omitempty"` // none, normal or debug
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Printer: printer.Default(),
		Logging: LoggingConfig{Level: "normal"},
		Server:  ServerConfig{DeviceName: "pushprint"},
	}
}

// Load reads path over the defaults. A missing file is not an error; the
// defaults are returned so first-run commands like login still work.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.Server.Secret = ExpandEnv(cfg.Server.Secret)
	cfg.Server.DeviceID = ExpandEnv(cfg.Server.DeviceID)
	cfg.Printer.Device = ExpandEnv(cfg.Printer.Device)

	if err := cfg.Printer.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	switch cfg.Logging.Level {
	case "", "none", "normal", "debug":
	default:
		return nil, fmt.Errorf("config %s: unknown log level %q", path, cfg.Logging.Level)
	}
	return cfg, nil
}

// Save writes cfg back to path, creating parent directories as needed. Used
// after login/device registration to persist the session.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config %s: %w", path, err)
	}
	return nil
}

// DefaultPath is the conventional config location for the current user.
func DefaultPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "pushprint", "config.yaml")
	}
	return "pushprint.yaml"
}
