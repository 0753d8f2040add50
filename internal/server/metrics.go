package server

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/electricworld/electricworld-core/internal/dispatch"
	"github.com/electricworld/electricworld-core/internal/protocol"
)

const metricsNamespace = "electricworld"

// unknownKindLabel replaces client-chosen kinds so label cardinality stays
// bounded.
const unknownKindLabel = "unknown"

// Metrics holds the server's Prometheus collectors. It implements
// dispatch.Observer.
type Metrics struct {
	registry *prometheus.Registry

	messagesHandled *prometheus.CounterVec
	handleDuration  *prometheus.HistogramVec
}

// NewMetrics registers the server collectors with registry. Gauges read
// live values from s at scrape time.
func NewMetrics(registry *prometheus.Registry, s *Server) *Metrics {
	m := &Metrics{
		registry: registry,

		messagesHandled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "dispatch",
			Name:      "messages_total",
			Help:      "Inbound messages handled, by kind and outcome",
		}, []string{"kind", "outcome"}),

		handleDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "dispatch",
			Name:      "handle_duration_seconds",
			Help:      "Time spent handling one inbound message",
			Buckets:   []float64{.00005, .0001, .00025, .0005, .001, .0025, .005, .01, .05},
		}, []string{"kind"}),
	}

	registry.MustRegister(
		m.messagesHandled,
		m.handleDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),

		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "transport",
			Name:      "connections",
			Help:      "Open WebSocket connections",
		}, func() float64 { return float64(s.hub.ClientCount()) }),

		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "transport",
			Name:      "bytes_sent_total",
			Help:      "Bytes written to WebSocket connections",
		}, func() float64 { return float64(s.hub.Stats().BytesSent) }),

		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "transport",
			Name:      "send_failures_total",
			Help:      "Frames that could not be delivered to a connection",
		}, func() float64 { return float64(s.hub.Stats().SendFailures) }),

		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "sessions",
			Help:      "Live player sessions",
		}, func() float64 { return float64(s.sessions.Count()) }),

		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "devices",
			Help:      "Devices in the shared store",
		}, func() float64 { return float64(s.store.Count()) }),

		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "events",
			Name:      "dropped_total",
			Help:      "Event records dropped because the sink queue was full",
		}, func() float64 { return float64(s.bus.Dropped()) }),
	)

	return m
}

// MessageHandled implements dispatch.Observer.
func (m *Metrics) MessageHandled(kind protocol.Kind, outcome dispatch.Outcome, elapsed time.Duration) {
	label := string(kind)
	if !protocol.Known(kind) {
		label = unknownKindLabel
	}
	m.messagesHandled.WithLabelValues(label, string(outcome)).Inc()
	m.handleDuration.WithLabelValues(label).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
