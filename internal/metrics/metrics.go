// Package metrics exposes Prometheus collectors for the synchronization core.
//
// Every method is safe to call on a nil *Collector, so components can take
// an optional collector without guarding each call site.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dm/stockwatch/internal/model"
)

// Frame kinds recorded by FrameReceived.
const (
	FrameHeartbeat = "heartbeat"
	FrameSnapshot  = "snapshot"
	FrameIgnored   = "ignored"
	FrameMalformed = "malformed"
)

// Collector owns a private registry and the stockwatch collectors.
type Collector struct {
	registry *prometheus.Registry

	reconnects    prometheus.Counter
	frames        *prometheus.CounterVec
	probes        *prometheus.CounterVec
	mediaRequests *prometheus.CounterVec
	mediaRetries  prometheus.Counter
	status        prometheus.Gauge
	historySize   prometheus.Gauge
}

// New registers all collectors on a fresh registry.
func New() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		reconnects: factory.NewCounter(prometheus.CounterOpts{
			Name: "stockwatch_stream_reconnects_total",
			Help: "Reconnect attempts scheduled after a push channel transport error",
		}),
		frames: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "stockwatch_stream_frames_total",
			Help: "Push channel frames received by kind",
		}, []string{"kind"}),
		probes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "stockwatch_health_probes_total",
			Help: "Executed health probes by result",
		}, []string{"result"}),
		mediaRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "stockwatch_media_requests_total",
			Help: "Media refresh requests by result",
		}, []string{"result"}),
		mediaRetries: factory.NewCounter(prometheus.CounterOpts{
			Name: "stockwatch_media_retries_total",
			Help: "Transitions of the media refresher into the error state",
		}),
		status: factory.NewGauge(prometheus.GaugeOpts{
			Name: "stockwatch_connection_status",
			Help: "Aggregated connection status (0=connecting, 1=connected, 2=disconnected)",
		}),
		historySize: factory.NewGauge(prometheus.GaugeOpts{
			Name: "stockwatch_history_size",
			Help: "Snapshots currently held in the history buffer",
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

func (c *Collector) StreamReconnect() {
	if c == nil {
		return
	}
	c.reconnects.Inc()
}

func (c *Collector) FrameReceived(kind string) {
	if c == nil {
		return
	}
	c.frames.WithLabelValues(kind).Inc()
}

func (c *Collector) ProbeResult(ok bool) {
	if c == nil {
		return
	}
	c.probes.WithLabelValues(result(ok)).Inc()
}

func (c *Collector) MediaRequest(ok bool) {
	if c == nil {
		return
	}
	c.mediaRequests.WithLabelValues(result(ok)).Inc()
}

func (c *Collector) MediaError() {
	if c == nil {
		return
	}
	c.mediaRetries.Inc()
}

func (c *Collector) ConnectionStatus(s model.ConnectionState) {
	if c == nil {
		return
	}
	c.status.Set(float64(s))
}

func (c *Collector) HistorySize(n int) {
	if c == nil {
		return
	}
	c.historySize.Set(float64(n))
}

func result(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
