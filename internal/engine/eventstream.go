package engine

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/dm/stockwatch/internal/clock"
	"github.com/dm/stockwatch/internal/logging"
	"github.com/dm/stockwatch/internal/metrics"
	"github.com/dm/stockwatch/internal/model"
	"github.com/dm/stockwatch/internal/stream"
)

// DefaultReconnectDelay is the fixed wait between a transport error and the
// next connection attempt.
const DefaultReconnectDelay = 5 * time.Second

// StreamState is the lifecycle state of an EventStream.
type StreamState int

const (
	StreamIdle StreamState = iota
	StreamConnecting
	StreamOpen
	// StreamError means the connection failed and one reconnect is pending.
	StreamError
	StreamClosed
)

func (s StreamState) String() string {
	switch s {
	case StreamIdle:
		return "idle"
	case StreamConnecting:
		return "connecting"
	case StreamOpen:
		return "open"
	case StreamError:
		return "error"
	case StreamClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// EventStreamConfig configures an EventStream.
type EventStreamConfig struct {
	Dialer         stream.Dialer
	Store          *model.Store
	Status         StatusReporter
	ReconnectDelay time.Duration
	Clock          clock.Clock
	Logger         *zap.Logger
	Metrics        *metrics.Collector
	// OnSnapshot is called after a snapshot has been appended to Store.
	OnSnapshot func(*model.Snapshot)
}

// EventStream owns one push channel connection. It applies new_processing
// events to the store and reconnects after a fixed delay on transport errors.
//
// At any time there is at most one open connection or one pending reconnect
// timer. Each connection attempt carries a generation number; callbacks from
// an older generation, or arriving after Close, do nothing.
type EventStream struct {
	cfg      EventStreamConfig
	log      *zap.Logger
	parseLog rate.Sometimes

	mu       sync.Mutex
	state    StreamState
	endpoint string
	gen      uint64
	conn     stream.Conn
	cancel   context.CancelFunc
	timer    clock.Timer
	disposed bool

	wg sync.WaitGroup
}

// NewEventStream returns an idle EventStream.
func NewEventStream(cfg EventStreamConfig) *EventStream {
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = DefaultReconnectDelay
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	return &EventStream{
		cfg:      cfg,
		log:      logging.OrNop(cfg.Logger).Named("stream"),
		parseLog: rate.Sometimes{First: 3, Interval: 30 * time.Second},
	}
}

// Open starts connecting to endpoint. It returns immediately; the connection
// is established in the background.
func (es *EventStream) Open(endpoint string) error {
	es.mu.Lock()
	defer es.mu.Unlock()
	if es.disposed {
		return ErrClosed
	}
	if es.state != StreamIdle {
		return ErrAlreadyStarted
	}
	es.endpoint = endpoint
	es.connectLocked()
	return nil
}

// State returns the current lifecycle state.
func (es *EventStream) State() StreamState {
	es.mu.Lock()
	defer es.mu.Unlock()
	return es.state
}

// Close cancels any pending reconnect, closes the open connection and waits
// for the reader goroutine to exit. It is safe to call more than once.
func (es *EventStream) Close() {
	es.mu.Lock()
	if es.disposed {
		es.mu.Unlock()
		return
	}
	es.disposed = true
	es.state = StreamClosed
	if es.timer != nil {
		es.timer.Stop()
		es.timer = nil
	}
	if es.cancel != nil {
		es.cancel()
	}
	if es.conn != nil {
		es.conn.Close()
		es.conn = nil
	}
	es.mu.Unlock()

	es.wg.Wait()
	es.log.Debug("event stream closed")
}

func (es *EventStream) connectLocked() {
	es.gen++
	gen := es.gen
	es.state = StreamConnecting

	ctx, cancel := context.WithCancel(context.Background())
	es.cancel = cancel

	es.wg.Add(1)
	go es.run(ctx, gen)
}

func (es *EventStream) run(ctx context.Context, gen uint64) {
	defer es.wg.Done()

	conn, err := es.cfg.Dialer.Dial(ctx, es.endpoint)
	if err != nil {
		es.fail(gen, err)
		return
	}

	es.mu.Lock()
	if es.disposed || gen != es.gen {
		es.mu.Unlock()
		conn.Close()
		return
	}
	es.conn = conn
	es.state = StreamOpen
	es.report(model.Connected)
	es.mu.Unlock()
	es.log.Info("event stream connected", zap.String("endpoint", es.endpoint))

	for {
		f, err := conn.Next()
		if err != nil {
			es.fail(gen, err)
			return
		}
		es.handleFrame(gen, f)
	}
}

func (es *EventStream) handleFrame(gen uint64, f stream.Frame) {
	es.mu.Lock()
	defer es.mu.Unlock()
	if es.disposed || gen != es.gen {
		return
	}

	if stream.IsHeartbeat(f) {
		es.cfg.Metrics.FrameReceived(metrics.FrameHeartbeat)
		es.log.Debug("heartbeat")
		return
	}

	if f.Oversized {
		es.cfg.Metrics.FrameReceived(metrics.FrameMalformed)
		es.parseLog.Do(func() {
			es.log.Warn("discarding oversized frame", zap.Int("limit", stream.MaxEventBytes))
		})
		return
	}

	ev, err := stream.DecodeEvent(f.Data)
	if err != nil {
		es.cfg.Metrics.FrameReceived(metrics.FrameMalformed)
		es.parseLog.Do(func() {
			es.log.Warn("discarding malformed frame", zap.Error(err), zap.Int("bytes", len(f.Data)))
		})
		return
	}
	if ev.Snapshot == nil {
		es.cfg.Metrics.FrameReceived(metrics.FrameIgnored)
		es.log.Debug("ignoring event", zap.String("type", ev.Type))
		return
	}

	es.cfg.Store.Append(ev.Snapshot)
	es.cfg.Metrics.FrameReceived(metrics.FrameSnapshot)
	if es.cfg.OnSnapshot != nil {
		es.cfg.OnSnapshot(ev.Snapshot)
	}
}

// fail handles a transport error for generation gen: it reports
// Disconnected, drops the connection and arms the single reconnect timer.
func (es *EventStream) fail(gen uint64, err error) {
	es.mu.Lock()
	defer es.mu.Unlock()
	if es.disposed || gen != es.gen || es.state == StreamError {
		return
	}

	if es.conn != nil {
		es.conn.Close()
		es.conn = nil
	}
	if es.cancel != nil {
		es.cancel()
		es.cancel = nil
	}
	es.state = StreamError
	es.report(model.Disconnected)
	es.log.Warn("event stream error, reconnecting",
		zap.Error(err), zap.Duration("delay", es.cfg.ReconnectDelay))

	if es.timer != nil {
		es.timer.Stop()
	}
	es.timer = es.cfg.Clock.AfterFunc(es.cfg.ReconnectDelay, func() { es.reconnect(gen) })
}

func (es *EventStream) reconnect(gen uint64) {
	es.mu.Lock()
	defer es.mu.Unlock()
	if es.disposed || gen != es.gen || es.state != StreamError {
		return
	}
	es.timer = nil
	es.cfg.Metrics.StreamReconnect()
	es.connectLocked()
}

func (es *EventStream) report(state model.ConnectionState) {
	if es.cfg.Status != nil {
		es.cfg.Status.Report(SourceStream, state)
	}
}
