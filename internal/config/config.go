// Package config loads the orchestrator configuration.
package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/viant/afs"
	"gopkg.in/yaml.v3"
)

// Config controls the orchestrator; every field has a working default so an
// empty document (or no document at all) is valid.
type Config struct {
	// Root is the workspace directory holding the embedded database.
	Root string `yaml:"root,omitempty" json:"root,omitempty"`

	// Model is the Gemini model name.
	Model string `yaml:"model,omitempty" json:"model,omitempty"`

	// APIKey overrides the GEMINI_API_KEY environment variable.
	APIKey string `yaml:"apiKey,omitempty" json:"apiKey,omitempty"`

	// BaseURL overrides the generative service endpoint (tests, proxies).
	BaseURL string `yaml:"baseURL,omitempty" json:"baseURL,omitempty"`

	// MaxTurns is the per-conversation budget in full exchanges.
	MaxTurns int `yaml:"maxTurns,omitempty" json:"maxTurns,omitempty"`

	// Delay is the pause between consecutive conversations, e.g. "1s".
	Delay string `yaml:"delay,omitempty" json:"delay,omitempty"`

	// StallTimeout flags a running conversation as failed when no progress
	// is observed within this window, e.g. "2m".
	StallTimeout string `yaml:"stallTimeout,omitempty" json:"stallTimeout,omitempty"`
}

// Load reads a YAML config from URL; an empty URL or missing file yields the
// defaults.
func Load(ctx context.Context, URL string) (*Config, error) {
	cfg := &Config{}
	if strings.TrimSpace(URL) != "" {
		fs := afs.New()
		if ok, _ := fs.Exists(ctx, URL); ok {
			data, err := fs.DownloadWithURL(ctx, URL)
			if err != nil {
				return nil, fmt.Errorf("failed to load config %v: %w", URL, err)
			}
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %v: %w", URL, err)
			}
		}
	}
	cfg.Init()
	return cfg, nil
}

// Init applies defaults.
func (c *Config) Init() {
	if c.Model == "" {
		c.Model = "gemini-2.0-flash"
	}
	if c.MaxTurns <= 0 {
		c.MaxTurns = 15
	}
	if strings.TrimSpace(c.Delay) == "" {
		c.Delay = "1s"
	}
	if strings.TrimSpace(c.StallTimeout) == "" {
		c.StallTimeout = "2m"
	}
}

// DelayDuration returns the parsed inter-conversation delay.
func (c *Config) DelayDuration() time.Duration {
	return parseDuration(c.Delay, time.Second)
}

// StallDuration returns the parsed stall timeout.
func (c *Config) StallDuration() time.Duration {
	return parseDuration(c.StallTimeout, 2*time.Minute)
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
