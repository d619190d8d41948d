package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dm/stockwatch/internal/client"
	"github.com/dm/stockwatch/internal/clock"
	"github.com/dm/stockwatch/internal/logging"
	"github.com/dm/stockwatch/internal/metrics"
	"github.com/dm/stockwatch/internal/model"
)

const (
	DefaultMediaInterval   = 1000 * time.Millisecond
	DefaultMediaRetryDelay = 3 * time.Second
)

// MediaConfig configures a MediaRefresher.
type MediaConfig struct {
	Fetcher    client.MediaFetcher
	Interval   time.Duration
	RetryDelay time.Duration
	// Token returns the cache-defeating value for one request.
	// Defaults to a UUIDv7, which is unique and time-ordered.
	Token   func() string
	Clock   clock.Clock
	Logger  *zap.Logger
	Metrics *metrics.Collector
	// OnChange is called with the new state after every transition, while
	// the refresher lock is held. It must not call back into the refresher.
	OnChange func(model.MediaState)
}

// MediaFrame is the most recently loaded image.
type MediaFrame struct {
	Data        []byte
	ContentType string
	Token       string
	LoadedAt    time.Time
}

// MediaRefresher polls one media resource on a fixed cadence.
//
// A failed request stops the loop and arms a single retry timer; no request
// is issued while errored. Retry forces an immediate restart and replaces any
// pending retry timer. Each loop run carries a generation number, and
// responses from a stopped loop are discarded.
type MediaRefresher struct {
	cfg  MediaConfig
	log  *zap.Logger
	ctx  context.Context
	stop context.CancelFunc

	mu       sync.Mutex
	state    model.MediaState
	frame    MediaFrame
	hasFrame bool
	gen      uint64
	loop     clock.Timer
	retry    clock.Timer
	retryAt  time.Time
	started  bool
	disposed bool
}

// NewMediaRefresher returns a stopped MediaRefresher.
func NewMediaRefresher(cfg MediaConfig) *MediaRefresher {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultMediaInterval
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultMediaRetryDelay
	}
	if cfg.Token == nil {
		cfg.Token = newCacheToken
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	ctx, stop := context.WithCancel(context.Background())
	return &MediaRefresher{
		cfg:   cfg,
		log:   logging.OrNop(cfg.Logger).Named("media"),
		ctx:   ctx,
		stop:  stop,
		state: model.MediaState{IsLoading: true},
	}
}

func newCacheToken() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Start issues the first request immediately and then polls at the
// configured cadence.
func (m *MediaRefresher) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disposed {
		return ErrClosed
	}
	if m.started {
		return ErrAlreadyStarted
	}
	m.started = true
	m.startLoopLocked()
	return nil
}

// Retry cancels any pending retry timer, clears the error and restarts the
// loop immediately. It does nothing before Start or after Close.
func (m *MediaRefresher) Retry() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disposed || !m.started {
		return
	}
	m.log.Info("manual media retry", zap.Int("retry_count", m.state.RetryCount))
	m.startLoopLocked()
}

// State returns a copy of the current state.
func (m *MediaRefresher) State() model.MediaState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Frame returns the last successfully loaded image.
func (m *MediaRefresher) Frame() (MediaFrame, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.frame, m.hasFrame
}

// NextRetry returns when the pending retry timer fires. ok is false when no
// retry is pending.
func (m *MediaRefresher) NextRetry() (at time.Time, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.retry == nil {
		return time.Time{}, false
	}
	return m.retryAt, true
}

// Close stops every timer and cancels in-flight requests.
func (m *MediaRefresher) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disposed {
		return
	}
	m.disposed = true
	m.stopTimersLocked()
	m.stop()
}

func (m *MediaRefresher) stopTimersLocked() {
	if m.loop != nil {
		m.loop.Stop()
		m.loop = nil
	}
	if m.retry != nil {
		m.retry.Stop()
		m.retry = nil
	}
}

// startLoopLocked begins a new loop generation with an immediate request.
func (m *MediaRefresher) startLoopLocked() {
	m.stopTimersLocked()
	m.gen++
	m.state.HasError = false
	m.state.IsLoading = true
	m.notifyLocked()
	m.scheduleLocked(m.gen, 0)
}

func (m *MediaRefresher) scheduleLocked(gen uint64, d time.Duration) {
	m.loop = m.cfg.Clock.AfterFunc(d, func() { m.tick(gen) })
}

func (m *MediaRefresher) tick(gen uint64) {
	m.mu.Lock()
	if m.disposed || gen != m.gen || m.state.HasError {
		m.mu.Unlock()
		return
	}
	m.scheduleLocked(gen, m.cfg.Interval)
	token := m.cfg.Token()
	m.mu.Unlock()

	media, err := m.cfg.Fetcher.FetchMedia(m.ctx, token)
	if err == nil && media == nil {
		err = errors.New("empty media response")
	}
	m.apply(gen, token, media, err)
}

func (m *MediaRefresher) apply(gen uint64, token string, media *client.Media, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disposed || gen != m.gen || m.state.HasError {
		return
	}
	m.cfg.Metrics.MediaRequest(err == nil)

	if err != nil {
		m.state.HasError = true
		m.state.IsLoading = false
		m.state.RetryCount++
		m.cfg.Metrics.MediaError()
		// Stop the loop and invalidate its other outstanding requests.
		m.stopTimersLocked()
		m.gen++
		retryGen := m.gen
		m.retryAt = m.cfg.Clock.Now().Add(m.cfg.RetryDelay)
		m.retry = m.cfg.Clock.AfterFunc(m.cfg.RetryDelay, func() { m.scheduledRetry(retryGen) })
		m.log.Warn("media load failed, retry scheduled",
			zap.Error(err),
			zap.Int("retry_count", m.state.RetryCount),
			zap.Duration("delay", m.cfg.RetryDelay))
		m.notifyLocked()
		return
	}

	m.frame = MediaFrame{
		Data:        media.Data,
		ContentType: media.ContentType,
		Token:       token,
		LoadedAt:    m.cfg.Clock.Now(),
	}
	m.hasFrame = true
	if m.state.IsLoading || m.state.HasError {
		m.state.IsLoading = false
		m.state.HasError = false
		m.notifyLocked()
	}
}

func (m *MediaRefresher) scheduledRetry(gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disposed || gen != m.gen || !m.state.HasError {
		return
	}
	m.retry = nil
	m.log.Info("retrying media load", zap.Int("retry_count", m.state.RetryCount))
	m.startLoopLocked()
}

func (m *MediaRefresher) notifyLocked() {
	if m.cfg.OnChange != nil {
		m.cfg.OnChange(m.state)
	}
}
