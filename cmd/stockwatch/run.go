package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/dm/stockwatch/internal/client"
	"github.com/dm/stockwatch/internal/config"
	"github.com/dm/stockwatch/internal/demo"
	"github.com/dm/stockwatch/internal/engine"
	"github.com/dm/stockwatch/internal/logging"
	"github.com/dm/stockwatch/internal/metrics"
	"github.com/dm/stockwatch/internal/model"
	"github.com/dm/stockwatch/internal/stream"
	"github.com/dm/stockwatch/internal/tui"
)

// demoReplayInterval is the pause between replayed log entries in demo mode.
const demoReplayInterval = 3 * time.Second

// run wires the sync layer for cfg and drives it until ctx is cancelled or
// the user quits.
func run(ctx context.Context, cfg config.Config, stdout io.Writer) error {
	// The TUI owns the terminal, so it logs to the file only.
	log := logging.New(logging.Options{
		Debug:   cfg.Debug,
		Console: cfg.Headless,
		File:    cfg.LogFile,
	})
	defer func() { _ = log.Sync() }()

	var met *metrics.Collector
	if cfg.MetricsAddr != "" {
		met = metrics.New()
		shutdown, err := serveMetrics(cfg.MetricsAddr, met, log)
		if err != nil {
			return err
		}
		defer shutdown()
	}

	opts, source, err := syncerOptions(cfg)
	if err != nil {
		return err
	}
	opts.Logger = log
	opts.Metrics = met

	s := engine.NewSyncer(opts)
	defer s.Close()
	log.Info("starting", zap.String("source", source), zap.Bool("demo", cfg.Demo), zap.Bool("headless", cfg.Headless))
	if err := s.Start(ctx); err != nil {
		return fmt.Errorf("start: %w", err)
	}

	if cfg.Headless {
		return runHeadless(ctx, s, stdout, time.Now)
	}

	p := tea.NewProgram(tui.NewApp(s, source), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("terminal UI: %w", err)
	}
	return nil
}

// syncerOptions chooses the data source: the bundled log replay in demo
// mode, otherwise the edge service at cfg.BaseURL. It returns the source
// label shown to the user.
func syncerOptions(cfg config.Config) (engine.Options, string, error) {
	opts := engine.Options{
		HistoryCapacity: cfg.HistoryCapacity,
		SeedTimeout:     cfg.RequestTimeout,
		ReconnectDelay:  cfg.ReconnectDelay,
		HealthInterval:  cfg.HealthInterval,
		HealthDebounce:  cfg.HealthDebounce,
		HealthTimeout:   cfg.HealthTimeout,
		MediaInterval:   cfg.MediaInterval,
		MediaRetryDelay: cfg.MediaRetryDelay,
	}

	if cfg.Demo {
		src := demo.NewLogSource()
		opts.Source = src
		opts.Health = src
		opts.EventsURL = demo.ReplayEndpoint
		opts.Dialer = src.Dialer(demoReplayInterval)
		return opts, fmt.Sprintf("demo (%d log entries)", src.Len()), nil
	}

	c, err := client.NewDefaultClient(client.ClientConfig{
		BaseURL:            cfg.BaseURL,
		EventsPath:         cfg.EventsPath,
		MediaURL:           cfg.MediaURL,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
		RequestTimeout:     cfg.RequestTimeout,
	})
	if err != nil {
		return engine.Options{}, "", err
	}
	dialer, err := stream.DialerFor(c.EventsURL(), c.StreamHTTPClient(), cfg.InsecureSkipVerify)
	if err != nil {
		return engine.Options{}, "", err
	}
	opts.Source = c
	opts.Health = c
	opts.Media = c
	opts.EventsURL = c.EventsURL()
	opts.Dialer = dialer
	return opts, c.BaseURL(), nil
}

// serveMetrics starts the /metrics listener and returns a function that
// shuts it down.
func serveMetrics(addr string, met *metrics.Collector, log *zap.Logger) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", met.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server stopped", zap.Error(err))
		}
	}()
	log.Info("serving metrics", zap.String("addr", ln.Addr().String()))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}

// statusFeed is the part of the syncer the headless printer reads.
type statusFeed interface {
	Latest() *model.Snapshot
	Status() model.ConnectionState
	Media() model.MediaState
	MediaEnabled() bool
	Updates() <-chan struct{}
}

// runHeadless prints one status line whenever the reported state changes,
// until ctx is done or the feed closes.
func runHeadless(ctx context.Context, feed statusFeed, w io.Writer, now func() time.Time) error {
	var last string
	emit := func() error {
		line := statusLine(feed)
		if line == last {
			return nil
		}
		last = line
		_, err := fmt.Fprintln(w, now().Format("15:04:05")+" "+line)
		return err
	}
	if err := emit(); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-feed.Updates():
			if !ok {
				return nil
			}
			if err := emit(); err != nil {
				return err
			}
		}
	}
}

// statusLine renders the feed as key=value pairs, e.g.
//
//	status=connected latest=2025-09-10T12:00:00 detected=4 placed=3 misplaced=1 missing=0 extra=0 alerts=1 media=ok
//
// Media loading flips on every refresh and is left out.
func statusLine(feed statusFeed) string {
	line := "status=" + feed.Status().String()
	if s := feed.Latest(); s != nil {
		sm := s.Summary
		line += fmt.Sprintf(" latest=%s detected=%d placed=%d misplaced=%d missing=%d extra=%d alerts=%d",
			s.Timestamp, sm.TotalDetected, sm.CorrectlyPlaced, sm.Misplaced, sm.MissingItems, sm.ExtraItems,
			len(s.Alerts))
	} else {
		line += " latest=none"
	}
	if feed.MediaEnabled() {
		if m := feed.Media(); m.HasError {
			line += fmt.Sprintf(" media=error retries=%d", m.RetryCount)
		} else {
			line += " media=ok"
		}
	}
	return line
}
