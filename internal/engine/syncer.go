package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dm/stockwatch/internal/client"
	"github.com/dm/stockwatch/internal/clock"
	"github.com/dm/stockwatch/internal/logging"
	"github.com/dm/stockwatch/internal/metrics"
	"github.com/dm/stockwatch/internal/model"
	"github.com/dm/stockwatch/internal/stream"
)

const defaultSeedTimeout = 10 * time.Second

// Options configures a Syncer. Source is required. A nil Health disables the
// probe, a nil Media disables the media loop and an empty EventsURL disables
// the push channel.
type Options struct {
	Source    client.Source
	Health    client.HealthChecker
	Media     client.MediaFetcher
	EventsURL string
	// Dialer opens the push channel. Defaults to stream.DialerFor(EventsURL).
	Dialer stream.Dialer

	HistoryCapacity int
	SeedTimeout     time.Duration
	ReconnectDelay  time.Duration
	HealthInterval  time.Duration
	HealthDebounce  time.Duration
	HealthTimeout   time.Duration
	MediaInterval   time.Duration
	MediaRetryDelay time.Duration

	Clock   clock.Clock
	Logger  *zap.Logger
	Metrics *metrics.Collector
}

// Syncer composes the store, the status aggregator and the three independent
// components, and tears them all down together.
type Syncer struct {
	opts Options
	log  *zap.Logger

	store  *model.Store
	status *StatusAggregator
	events *EventStream
	probe  *HealthProbe
	media  *MediaRefresher

	updates chan struct{}

	mu      sync.Mutex
	started bool
	closed  bool
}

// NewSyncer wires the components. Nothing runs until Start.
func NewSyncer(opts Options) *Syncer {
	if opts.HistoryCapacity <= 0 {
		opts.HistoryCapacity = model.DefaultHistoryCap
	}
	if opts.SeedTimeout <= 0 {
		opts.SeedTimeout = defaultSeedTimeout
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	log := logging.OrNop(opts.Logger)

	s := &Syncer{
		opts:    opts,
		log:     log,
		store:   model.NewStore(opts.HistoryCapacity),
		updates: make(chan struct{}, 1),
	}
	s.status = NewStatusAggregator(func(r Report) {
		opts.Metrics.ConnectionStatus(r.State)
		s.notify()
	})

	if opts.EventsURL != "" {
		s.events = NewEventStream(EventStreamConfig{
			Dialer:         opts.Dialer,
			Store:          s.store,
			Status:         s.status,
			ReconnectDelay: opts.ReconnectDelay,
			Clock:          opts.Clock,
			Logger:         log,
			Metrics:        opts.Metrics,
			OnSnapshot: func(*model.Snapshot) {
				opts.Metrics.HistorySize(s.store.Len())
				s.notify()
			},
		})
	}
	if opts.Health != nil {
		s.probe = NewHealthProbe(HealthProbeConfig{
			Checker:  opts.Health,
			Status:   s.status,
			Interval: opts.HealthInterval,
			Debounce: opts.HealthDebounce,
			Timeout:  opts.HealthTimeout,
			Clock:    opts.Clock,
			Logger:   log,
			Metrics:  opts.Metrics,
		})
	}
	if opts.Media != nil {
		s.media = NewMediaRefresher(MediaConfig{
			Fetcher:    opts.Media,
			Interval:   opts.MediaInterval,
			RetryDelay: opts.MediaRetryDelay,
			Clock:      opts.Clock,
			Logger:     log,
			Metrics:    opts.Metrics,
			OnChange:   func(model.MediaState) { s.notify() },
		})
	}
	return s
}

// Start seeds the store, then opens the push channel and starts the probe
// and the media loop. Whatever part of the seed succeeded is kept. The seed
// reports Disconnected only when a request got no answer at all; a non-2xx
// answer still counts as Connected. Seed failures are not returned, and
// live updates still start.
func (s *Syncer) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.started {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.started = true
	s.mu.Unlock()

	seedCtx, cancel := context.WithTimeout(ctx, s.opts.SeedTimeout)
	err := Seed(seedCtx, s.opts.Source, s.store)
	cancel()
	var seedErr *SeedError
	switch {
	case err == nil:
		s.log.Info("initial fetch complete", zap.Int("history", s.store.Len()))
		s.status.Report(SourceSeed, model.Connected)
	case errors.As(err, &seedErr) && seedErr.Reachable():
		s.log.Warn("initial fetch incomplete", zap.Error(err), zap.Int("history", s.store.Len()))
		s.status.Report(SourceSeed, model.Connected)
	default:
		s.log.Warn("initial fetch failed", zap.Error(err))
		s.status.Report(SourceSeed, model.Disconnected)
	}
	s.opts.Metrics.HistorySize(s.store.Len())

	if s.events != nil {
		if s.opts.Dialer == nil {
			d, err := stream.DialerFor(s.opts.EventsURL, nil, false)
			if err != nil {
				return err
			}
			s.events.cfg.Dialer = d
		}
		if err := s.events.Open(s.opts.EventsURL); err != nil {
			return err
		}
	}
	if s.probe != nil {
		if err := s.probe.Start(); err != nil {
			return err
		}
	}
	if s.media != nil {
		if err := s.media.Start(); err != nil {
			return err
		}
	}
	return nil
}

// Close tears down every component and closes the Updates channel. No
// component callback runs stateful logic after Close returns.
func (s *Syncer) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	if s.events != nil {
		s.events.Close()
	}
	if s.probe != nil {
		s.probe.Close()
	}
	if s.media != nil {
		s.media.Close()
	}

	s.mu.Lock()
	close(s.updates)
	s.mu.Unlock()
	s.log.Info("syncer closed")
}

// Updates delivers a signal after any observable change. Signals coalesce;
// the channel is closed by Close.
func (s *Syncer) Updates() <-chan struct{} {
	return s.updates
}

func (s *Syncer) notify() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.updates <- struct{}{}:
	default:
	}
}

// Latest returns the most recent snapshot, or nil.
func (s *Syncer) Latest() *model.Snapshot {
	return s.store.Latest()
}

// History returns the history oldest first.
func (s *Syncer) History() []*model.Snapshot {
	return s.store.Chronological()
}

// RecentHistory returns the history newest first.
func (s *Syncer) RecentHistory() []*model.Snapshot {
	return s.store.RecentFirst()
}

// LastUpdate returns the timestamp of the latest snapshot.
func (s *Syncer) LastUpdate() (time.Time, bool) {
	return s.store.LastUpdate()
}

// Status returns the aggregated connection state.
func (s *Syncer) Status() model.ConnectionState {
	return s.status.Status()
}

// Media returns the media refresher state. It is the zero state when media
// is disabled.
func (s *Syncer) Media() model.MediaState {
	if s.media == nil {
		return model.MediaState{}
	}
	return s.media.State()
}

// MediaFrame returns the last loaded media frame.
func (s *Syncer) MediaFrame() (MediaFrame, bool) {
	if s.media == nil {
		return MediaFrame{}, false
	}
	return s.media.Frame()
}

// NextMediaRetry returns when the scheduled media retry fires.
func (s *Syncer) NextMediaRetry() (time.Time, bool) {
	if s.media == nil {
		return time.Time{}, false
	}
	return s.media.NextRetry()
}

// MediaEnabled reports whether a media loop is configured.
func (s *Syncer) MediaEnabled() bool {
	return s.media != nil
}

// RetryMedia forces an immediate media retry.
func (s *Syncer) RetryMedia() {
	if s.media != nil {
		s.media.Retry()
	}
}
