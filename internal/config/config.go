package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultSafetyBuffer is the fallback minimum separation (same units as
// mission coordinates) when neither config nor caller supplies one. The
// conflict engine itself takes the buffer as an argument; defaults live
// out here with the other operator-facing knobs.
const DefaultSafetyBuffer = 5.0

// Config models skylane.yml.
type Config struct {
	Airspace struct {
		ID string `yaml:"id"`
	} `yaml:"airspace"`
	Deconfliction struct {
		SafetyBuffer float64 `yaml:"safety_buffer"`
	} `yaml:"deconfliction"`
	Webhooks []WebhookConfig `yaml:"webhooks"`
}

// WebhookConfig is one event delivery target for conflict alerts.
type WebhookConfig struct {
	URL            string   `yaml:"url" json:"url"`
	Events         []string `yaml:"events,omitempty" json:"events,omitempty"`
	Secret         string   `yaml:"secret,omitempty" json:"secret,omitempty"`
	TimeoutSeconds int      `yaml:"timeout_seconds,omitempty" json:"timeout_seconds,omitempty"`
	Enabled        *bool    `yaml:"enabled,omitempty" json:"enabled,omitempty"`
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Airspace.ID == "" {
		return fmt.Errorf("config.airspace.id is required")
	}
	if c.Deconfliction.SafetyBuffer < 0 {
		return fmt.Errorf("config.deconfliction.safety_buffer must be non-negative")
	}
	for i, hook := range c.Webhooks {
		if hook.URL == "" {
			return fmt.Errorf("config.webhooks[%d].url is required", i)
		}
		if _, err := url.ParseRequestURI(hook.URL); err != nil {
			return fmt.Errorf("config.webhooks[%d].url: %w", i, err)
		}
	}
	return nil
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "skylane.yml")
}

// Default returns the built-in configuration.
func Default() *Config {
	var cfg Config
	cfg.Airspace.ID = "default"
	cfg.Deconfliction.SafetyBuffer = DefaultSafetyBuffer
	return &cfg
}

// Load reads skylane.yml from the workspace, falling back to defaults
// when the file does not exist.
func Load(workspace string) (*Config, error) {
	data, err := os.ReadFile(Path(workspace))
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// WriteDefault serialises the built-in configuration to path.
func WriteDefault(path string) error {
	data, err := yaml.Marshal(Default())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// FromYAML parses and validates config from raw YAML bytes. Omitted
// fields fall back to defaults.
func FromYAML(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
