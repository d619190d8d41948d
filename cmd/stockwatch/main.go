package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dm/stockwatch/internal/config"
)

// cliFlags holds the raw command-line values before they are layered over
// the file and environment configuration.
type cliFlags struct {
	configPath string
	envFile    string
	preset     string

	eventsPath      string
	mediaURL        string
	reconnectDelay  time.Duration
	healthInterval  time.Duration
	healthDebounce  time.Duration
	healthTimeout   time.Duration
	mediaInterval   time.Duration
	mediaRetryDelay time.Duration
	requestTimeout  time.Duration
	historyCapacity int
	insecure        bool
	logFile         string
	debug           bool
	metricsAddr     string
	demo            bool
	headless        bool
}

// loadConfig builds the configuration from, in increasing precedence:
// built-in defaults, the YAML file named by --config, the .env file and
// process environment, then explicitly set flags and the optional base URL
// argument.
func loadConfig(args []string, lookup config.LookupFunc, stderr io.Writer) (config.Config, error) {
	def := config.Default()
	var f cliFlags

	fs := flag.NewFlagSet("stockwatch", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&f.configPath, "config", "", "YAML config file")
	fs.StringVar(&f.envFile, "env-file", ".env", "dotenv file loaded into the environment if present")
	fs.StringVar(&f.preset, "media-preset", "", "media cadence preset: standard (1s/3s) or live (100ms/5s)")
	fs.StringVar(&f.eventsPath, "events-path", def.EventsPath, "push channel path or absolute http(s)/ws(s) URL")
	fs.StringVar(&f.mediaURL, "media-url", "", "media resource URL (default <base-url>/api/live-video)")
	fs.DurationVar(&f.reconnectDelay, "reconnect-delay", def.ReconnectDelay, "delay before reopening a failed push channel")
	fs.DurationVar(&f.healthInterval, "health-interval", def.HealthInterval, "health probe cadence")
	fs.DurationVar(&f.healthDebounce, "health-debounce", def.HealthDebounce, "health probe debounce window")
	fs.DurationVar(&f.healthTimeout, "health-timeout", def.HealthTimeout, "health probe timeout")
	fs.DurationVar(&f.mediaInterval, "media-interval", def.MediaInterval, "media refresh cadence")
	fs.DurationVar(&f.mediaRetryDelay, "media-retry-delay", def.MediaRetryDelay, "delay before retrying failed media")
	fs.DurationVar(&f.requestTimeout, "request-timeout", def.RequestTimeout, "timeout for one-shot HTTP requests")
	fs.IntVar(&f.historyCapacity, "history", def.HistoryCapacity, "number of snapshots kept in history")
	fs.BoolVar(&f.insecure, "insecure", false, "skip TLS certificate verification")
	fs.StringVar(&f.logFile, "log-file", def.LogFile, "log file (rotated); empty disables file logging")
	fs.BoolVar(&f.debug, "debug", false, "debug logging")
	fs.StringVar(&f.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9100)")
	fs.BoolVar(&f.demo, "demo", false, "replay the bundled stock-check log instead of connecting")
	fs.BoolVar(&f.headless, "headless", false, "print status lines instead of the terminal UI")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "usage: stockwatch [flags] [base-url]\n\n")
		fmt.Fprintf(stderr, "examples:\n")
		fmt.Fprintf(stderr, "  stockwatch http://localhost:5001\n")
		fmt.Fprintf(stderr, "  stockwatch --media-preset live https://edge.example.com:5001\n")
		fmt.Fprintf(stderr, "  stockwatch --demo\n")
		fmt.Fprintf(stderr, "  stockwatch --headless --metrics-addr :9100 http://edge:5001\n\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return config.Config{}, err
	}

	rest := fs.Args()
	// flag stops at the first positional argument, so anything after it,
	// including flags, would be silently ignored.
	if len(rest) > 1 {
		extra := rest[1]
		if len(extra) > 1 && extra[0] == '-' {
			return config.Config{}, fmt.Errorf("flag %q must be placed before the base URL", extra)
		}
		return config.Config{}, fmt.Errorf("unexpected argument %q", extra)
	}

	cfg := def
	if f.configPath != "" {
		if err := cfg.LoadFile(f.configPath); err != nil {
			return config.Config{}, err
		}
	}
	if f.envFile != "" {
		if err := config.LoadDotEnv(f.envFile); err != nil {
			return config.Config{}, err
		}
	}
	if err := cfg.ApplyEnv(lookup); err != nil {
		return config.Config{}, err
	}

	set := map[string]bool{}
	fs.Visit(func(fl *flag.Flag) { set[fl.Name] = true })

	// A preset goes first so that explicit cadence flags override it.
	if set["media-preset"] {
		if err := cfg.ApplyPreset(f.preset); err != nil {
			return config.Config{}, err
		}
	}
	str := func(name string, dst *string, v string) {
		if set[name] {
			*dst = v
		}
	}
	dur := func(name string, dst *time.Duration, v time.Duration) {
		if set[name] {
			*dst = v
		}
	}
	boolean := func(name string, dst *bool, v bool) {
		if set[name] {
			*dst = v
		}
	}
	str("events-path", &cfg.EventsPath, f.eventsPath)
	str("media-url", &cfg.MediaURL, f.mediaURL)
	str("log-file", &cfg.LogFile, f.logFile)
	str("metrics-addr", &cfg.MetricsAddr, f.metricsAddr)
	dur("reconnect-delay", &cfg.ReconnectDelay, f.reconnectDelay)
	dur("health-interval", &cfg.HealthInterval, f.healthInterval)
	dur("health-debounce", &cfg.HealthDebounce, f.healthDebounce)
	dur("health-timeout", &cfg.HealthTimeout, f.healthTimeout)
	dur("media-interval", &cfg.MediaInterval, f.mediaInterval)
	dur("media-retry-delay", &cfg.MediaRetryDelay, f.mediaRetryDelay)
	dur("request-timeout", &cfg.RequestTimeout, f.requestTimeout)
	if set["history"] {
		cfg.HistoryCapacity = f.historyCapacity
	}
	boolean("insecure", &cfg.InsecureSkipVerify, f.insecure)
	boolean("debug", &cfg.Debug, f.debug)
	boolean("demo", &cfg.Demo, f.demo)
	boolean("headless", &cfg.Headless, f.headless)

	if len(rest) == 1 {
		cfg.BaseURL = rest[0]
	}

	baseURL, err := config.ParseBaseURL(cfg.BaseURL)
	if err != nil {
		return config.Config{}, err
	}
	cfg.BaseURL = baseURL
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func main() {
	cfg, err := loadConfig(os.Args[1:], os.LookupEnv, os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
