package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dm/stockwatch/internal/client"
	"github.com/dm/stockwatch/internal/clock"
	"github.com/dm/stockwatch/internal/logging"
	"github.com/dm/stockwatch/internal/metrics"
	"github.com/dm/stockwatch/internal/model"
)

const (
	DefaultHealthInterval = 30 * time.Second
	DefaultHealthDebounce = 10 * time.Second
	DefaultHealthTimeout  = 5 * time.Second
)

// HealthProbeConfig configures a HealthProbe.
type HealthProbeConfig struct {
	Checker  client.HealthChecker
	Status   StatusReporter
	Interval time.Duration
	Debounce time.Duration
	Timeout  time.Duration
	Clock    clock.Clock
	Logger   *zap.Logger
	Metrics  *metrics.Collector
}

// HealthProbe checks liveness on a fixed interval. Every tick calls Trigger,
// and triggers are debounced: a burst of calls within the debounce window
// runs a single probe after the last one.
type HealthProbe struct {
	cfg HealthProbeConfig
	log *zap.Logger

	mu       sync.Mutex
	ticker   clock.Timer
	debounce clock.Timer
	cancel   context.CancelFunc
	seq      uint64
	started  bool
	disposed bool
}

// NewHealthProbe returns a stopped HealthProbe.
func NewHealthProbe(cfg HealthProbeConfig) *HealthProbe {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultHealthInterval
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultHealthDebounce
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultHealthTimeout
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	return &HealthProbe{cfg: cfg, log: logging.OrNop(cfg.Logger).Named("probe")}
}

// Start arms the interval timer. The first probe runs one interval plus one
// debounce window after Start.
func (p *HealthProbe) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.disposed {
		return ErrClosed
	}
	if p.started {
		return ErrAlreadyStarted
	}
	p.started = true
	p.armTickLocked()
	return nil
}

// Trigger requests a probe. Calls within the debounce window collapse into
// one trailing probe.
func (p *HealthProbe) Trigger() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.disposed {
		return
	}
	p.triggerLocked()
}

// Close stops both timers and cancels an in-flight probe. No report is made
// after Close returns.
func (p *HealthProbe) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.disposed {
		return
	}
	p.disposed = true
	if p.ticker != nil {
		p.ticker.Stop()
		p.ticker = nil
	}
	if p.debounce != nil {
		p.debounce.Stop()
		p.debounce = nil
	}
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

func (p *HealthProbe) armTickLocked() {
	if p.ticker != nil {
		p.ticker.Stop()
	}
	p.ticker = p.cfg.Clock.AfterFunc(p.cfg.Interval, p.tick)
}

func (p *HealthProbe) tick() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.disposed {
		return
	}
	p.armTickLocked()
	p.triggerLocked()
}

func (p *HealthProbe) triggerLocked() {
	if p.debounce != nil {
		p.debounce.Stop()
	}
	p.debounce = p.cfg.Clock.AfterFunc(p.cfg.Debounce, p.fire)
}

func (p *HealthProbe) fire() {
	p.mu.Lock()
	if p.disposed {
		p.mu.Unlock()
		return
	}
	p.debounce = nil
	if p.cancel != nil {
		p.cancel()
	}
	ctx, cancel := context.WithTimeout(context.Background(), p.cfg.Timeout)
	p.cancel = cancel
	p.seq++
	seq := p.seq
	p.mu.Unlock()

	err := p.probe(ctx)
	cancel()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.disposed || seq != p.seq {
		return
	}
	p.cancel = nil
	p.cfg.Metrics.ProbeResult(err == nil)
	if err != nil {
		p.log.Warn("health probe failed", zap.Error(err))
		p.report(model.Disconnected)
		return
	}
	p.log.Debug("health probe ok")
	p.report(model.Connected)
}

// probe runs the checker and returns no later than the context deadline,
// even if the checker ignores ctx.
func (p *HealthProbe) probe(ctx context.Context) error {
	done := make(chan error, 1)
	go func() {
		done <- p.check(ctx)
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("health probe: %w", ctx.Err())
	}
}

func (p *HealthProbe) check(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("health check panicked: %v", r)
		}
	}()
	return p.cfg.Checker.Health(ctx)
}

func (p *HealthProbe) report(state model.ConnectionState) {
	if p.cfg.Status != nil {
		p.cfg.Status.Report(SourceProbe, state)
	}
}
