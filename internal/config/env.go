package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment variable read by ApplyEnv.
const EnvPrefix = "STOCKWATCH_"

// LoadDotEnv loads variables from the .env file at path into the process
// environment without overriding variables that are already set. A missing
// file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// LookupFunc reports the value of an environment variable.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overlays STOCKWATCH_* variables onto c. lookup is usually
// os.LookupEnv. A variable that is set but cannot be parsed is an error.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	var errs []error
	get := func(name string) (string, bool) {
		v, ok := lookup(EnvPrefix + name)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}
	str := func(name string, dst *string) {
		if v, ok := get(name); ok {
			*dst = v
		}
	}
	dur := func(name string, dst *time.Duration) {
		if v, ok := get(name); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = d
		}
	}
	boolean := func(name string, dst *bool) {
		if v, ok := get(name); ok {
			b, err := parseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = b
		}
	}

	str("BASE_URL", &c.BaseURL)
	str("EVENTS_PATH", &c.EventsPath)
	str("MEDIA_URL", &c.MediaURL)
	str("LOG_FILE", &c.LogFile)
	str("METRICS_ADDR", &c.MetricsAddr)

	if v, ok := get("MEDIA_PRESET"); ok {
		if err := c.ApplyPreset(v); err != nil {
			errs = append(errs, fmt.Errorf("%sMEDIA_PRESET: %w", EnvPrefix, err))
		}
	}

	dur("RECONNECT_DELAY", &c.ReconnectDelay)
	dur("HEALTH_INTERVAL", &c.HealthInterval)
	dur("HEALTH_DEBOUNCE", &c.HealthDebounce)
	dur("HEALTH_TIMEOUT", &c.HealthTimeout)
	dur("MEDIA_INTERVAL", &c.MediaInterval)
	dur("MEDIA_RETRY_DELAY", &c.MediaRetryDelay)
	dur("REQUEST_TIMEOUT", &c.RequestTimeout)

	if v, ok := get("HISTORY_CAPACITY"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sHISTORY_CAPACITY: %w", EnvPrefix, err))
		} else {
			c.HistoryCapacity = n
		}
	}

	boolean("INSECURE", &c.InsecureSkipVerify)
	boolean("DEBUG", &c.Debug)
	boolean("DEMO", &c.Demo)
	boolean("HEADLESS", &c.Headless)

	return errors.Join(errs...)
}

// parseBool accepts true/false, 1/0, yes/no and on/off in any case.
func parseBool(v string) (bool, error) {
	switch strings.ToLower(v) {
	case "true", "1", "yes", "on":
		return true, nil
	case "false", "0", "no", "off":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", v)
}
