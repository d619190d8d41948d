// Package config assembles the runtime configuration from built-in
// defaults, an optional YAML file, the environment (optionally seeded from a
// .env file) and command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultBaseURL is the edge service address used when none is configured.
const DefaultBaseURL = "http://localhost:5001"

// Config holds every tunable of the client.
type Config struct {
	BaseURL    string `yaml:"base_url"`
	EventsPath string `yaml:"events_path"`
	MediaURL   string `yaml:"media_url"`

	ReconnectDelay  time.Duration `yaml:"reconnect_delay"`
	HealthInterval  time.Duration `yaml:"health_interval"`
	HealthDebounce  time.Duration `yaml:"health_debounce"`
	HealthTimeout   time.Duration `yaml:"health_timeout"`
	MediaInterval   time.Duration `yaml:"media_interval"`
	MediaRetryDelay time.Duration `yaml:"media_retry_delay"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	HistoryCapacity int           `yaml:"history_capacity"`

	InsecureSkipVerify bool   `yaml:"insecure"`
	LogFile            string `yaml:"log_file"`
	Debug              bool   `yaml:"debug"`
	MetricsAddr        string `yaml:"metrics_addr"`
	Demo               bool   `yaml:"demo"`
	Headless           bool   `yaml:"headless"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		BaseURL:         DefaultBaseURL,
		EventsPath:      "/api/events",
		ReconnectDelay:  5 * time.Second,
		HealthInterval:  30 * time.Second,
		HealthDebounce:  10 * time.Second,
		HealthTimeout:   5 * time.Second,
		MediaInterval:   1000 * time.Millisecond,
		MediaRetryDelay: 3 * time.Second,
		RequestTimeout:  10 * time.Second,
		HistoryCapacity: 100,
		LogFile:         "stockwatch.log",
	}
}

// Media presets for the two deployments of the dashboard.
const (
	PresetStandard = "standard"
	PresetLive     = "live"
)

// ApplyPreset sets the media cadence and retry delay for a named preset.
func (c *Config) ApplyPreset(name string) error {
	switch name {
	case PresetStandard:
		c.MediaInterval = 1000 * time.Millisecond
		c.MediaRetryDelay = 3 * time.Second
	case PresetLive:
		c.MediaInterval = 100 * time.Millisecond
		c.MediaRetryDelay = 5 * time.Second
	default:
		return fmt.Errorf("unknown media preset %q (want %s or %s)", name, PresetStandard, PresetLive)
	}
	return nil
}

// LoadFile overlays the YAML file at path onto c. Keys absent from the file
// keep their current values.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return nil
}

// Limits enforced by Validate.
const (
	minMediaInterval   = 10 * time.Millisecond
	minMediaRetryDelay = time.Second
	maxMediaRetryDelay = 60 * time.Second
)

// Validate checks c and returns every problem found, joined.
func (c Config) Validate() error {
	var errs []error

	if _, err := ParseBaseURL(c.BaseURL); err != nil {
		errs = append(errs, fmt.Errorf("base_url: %w", err))
	}
	if c.MediaURL != "" {
		if _, err := ParseBaseURL(c.MediaURL); err != nil {
			errs = append(errs, fmt.Errorf("media_url: %w", err))
		}
	}

	for name, d := range map[string]time.Duration{
		"reconnect_delay": c.ReconnectDelay,
		"health_interval": c.HealthInterval,
		"health_debounce": c.HealthDebounce,
		"health_timeout":  c.HealthTimeout,
		"request_timeout": c.RequestTimeout,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %v", name, d))
		}
	}
	if c.MediaInterval < minMediaInterval {
		errs = append(errs, fmt.Errorf("media_interval must be at least %v, got %v", minMediaInterval, c.MediaInterval))
	}
	if c.MediaRetryDelay < minMediaRetryDelay || c.MediaRetryDelay > maxMediaRetryDelay {
		errs = append(errs, fmt.Errorf("media_retry_delay must be between %v and %v, got %v",
			minMediaRetryDelay, maxMediaRetryDelay, c.MediaRetryDelay))
	}
	if c.HistoryCapacity <= 0 {
		errs = append(errs, fmt.Errorf("history_capacity must be positive, got %d", c.HistoryCapacity))
	}

	return errors.Join(errs...)
}

// ParseBaseURL validates an edge service address and returns it without a
// trailing slash. The scheme must be http or https; an explicit port must
// lie in 1-65535.
func ParseBaseURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q (must be http or https)", u.Scheme)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("invalid URL %q: host is required", raw)
	}
	if p := u.Port(); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 || n > 65535 {
			return "", fmt.Errorf("invalid port %q (must be 1-65535)", p)
		}
	}
	u.RawQuery = ""
	u.Fragment = ""
	s := u.String()
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s, nil
}
