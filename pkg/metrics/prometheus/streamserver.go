// Package prometheus contains the Prometheus-backed implementations of the
// metrics interfaces.
package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/grzegorz-grzeda/stream-server/pkg/metrics"
)

// serverMetrics is the Prometheus implementation of metrics.ServerMetrics.
type serverMetrics struct {
	connectionsAccepted prometheus.Counter
	connectionsClosed   prometheus.Counter
	activeConnections   prometheus.Gauge
	queueDepth          prometheus.Gauge
	dispatchesTotal     prometheus.Counter
	handlerDuration     prometheus.Histogram
}

// NewServerMetrics creates a Prometheus-backed ServerMetrics instance.
//
// Returns a no-op implementation if metrics are not enabled (InitRegistry
// not called).
func NewServerMetrics() metrics.ServerMetrics {
	if !metrics.IsEnabled() {
		return metrics.NewNoopServerMetrics()
	}

	reg := metrics.GetRegistry()

	return &serverMetrics{
		connectionsAccepted: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "streamserver_connections_accepted_total",
				Help: "Total number of client connections accepted",
			},
		),
		connectionsClosed: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "streamserver_connections_closed_total",
				Help: "Total number of client connections closed after handling",
			},
		),
		activeConnections: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "streamserver_active_connections",
				Help: "Current number of connections accepted and not yet closed",
			},
		),
		queueDepth: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "streamserver_pending_queue_depth",
				Help: "Current number of connections waiting for a worker",
			},
		),
		dispatchesTotal: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "streamserver_dispatches_total",
				Help: "Total number of connections handed to workers",
			},
		),
		handlerDuration: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name: "streamserver_handler_duration_milliseconds",
				Help: "Duration of connection handler invocations in milliseconds",
				Buckets: []float64{
					1,     // 1ms
					10,    // 10ms
					100,   // 100ms
					1000,  // 1s
					10000, // 10s
				},
			},
		),
	}
}

func (m *serverMetrics) RecordConnectionAccepted() {
	m.connectionsAccepted.Inc()
}

func (m *serverMetrics) RecordConnectionClosed() {
	m.connectionsClosed.Inc()
}

func (m *serverMetrics) SetActiveConnections(count int32) {
	m.activeConnections.Set(float64(count))
}

func (m *serverMetrics) SetQueueDepth(depth int) {
	m.queueDepth.Set(float64(depth))
}

func (m *serverMetrics) RecordDispatch() {
	m.dispatchesTotal.Inc()
}

func (m *serverMetrics) RecordHandlerDuration(duration time.Duration) {
	m.handlerDuration.Observe(duration.Seconds() * 1000)
}
