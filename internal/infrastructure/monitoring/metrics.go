package monitoring

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics. A nil *Metrics is valid and records
// nothing, so components can be built without a collector in tests.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestSize     *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Service metrics
	ServiceCalls    *prometheus.CounterVec
	ServiceDuration *prometheus.HistogramVec

	// Surface metrics
	SurfacesLive      prometheus.Gauge
	SurfacesAcquired  prometheus.Counter
	SurfacesCollected prometheus.Counter

	// Bridge metrics
	EnvelopesDelivered *prometheus.CounterVec
	EnvelopesDropped   *prometheus.CounterVec
	EmissionsDeduped   *prometheus.CounterVec
	Invocations        *prometheus.CounterVec

	// Navigation metrics
	NavigationOps *prometheus.CounterVec
	Gestures      *prometheus.CounterVec

	// Session metrics
	SessionsActive prometheus.Gauge

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	startTime time.Time

	// Snapshot for JSON API - track current values
	snapshot MetricsSnapshot

	mu sync.RWMutex
}

// MetricsSnapshot holds current metric values for JSON API
type MetricsSnapshot struct {
	TotalRequests     int64   `json:"total_requests"`
	TotalErrors       int64   `json:"total_errors"`
	ActiveSessions    int64   `json:"active_sessions"`
	LiveSurfaces      int64   `json:"live_surfaces"`
	ActiveConnections int64   `json:"active_connections"`
	TotalDuration     float64 `json:"total_duration_seconds"` // sum of all request durations
	RequestCount      int64   `json:"request_count"`          // count for averaging
	UptimeSeconds     float64 `json:"uptime_seconds"`
}

// NewMetrics creates a collector set on its own registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),

		// HTTP metrics
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swipereader_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "swipereader_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		RequestSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "swipereader_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "swipereader_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),

		// Service metrics
		ServiceCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swipereader_service_calls_total",
				Help: "Total number of service calls",
			},
			[]string{"service", "method", "status"},
		),
		ServiceDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "swipereader_service_duration_seconds",
				Help:    "Service call duration in seconds",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"service", "method"},
		),

		// Surface metrics
		SurfacesLive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "swipereader_surfaces_live",
				Help: "Number of live rendering surfaces",
			},
		),
		SurfacesAcquired: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "swipereader_surfaces_acquired_total",
				Help: "Total number of rendering surfaces created",
			},
		),
		SurfacesCollected: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "swipereader_surfaces_collected_total",
				Help: "Total number of unreferenced rendering surfaces collected",
			},
		),

		// Bridge metrics
		EnvelopesDelivered: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swipereader_envelopes_delivered_total",
				Help: "Envelopes routed to observers, by kind",
			},
			[]string{"kind"},
		),
		EnvelopesDropped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swipereader_envelopes_dropped_total",
				Help: "Envelopes dropped before routing, by reason",
			},
			[]string{"reason"},
		),
		EmissionsDeduped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swipereader_emissions_suppressed_total",
				Help: "Content-identical emissions suppressed before the bridge, by kind",
			},
			[]string{"kind"},
		),
		Invocations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swipereader_capability_invocations_total",
				Help: "Capability invocations from the host, by outcome",
			},
			[]string{"outcome"},
		),

		// Navigation metrics
		NavigationOps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swipereader_navigation_ops_total",
				Help: "Navigation stack operations, by op and whether they committed",
			},
			[]string{"op", "committed"},
		),
		Gestures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swipereader_gestures_total",
				Help: "Edge gestures, by outcome",
			},
			[]string{"outcome"},
		),

		// Session metrics
		SessionsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "swipereader_sessions_active",
				Help: "Number of active sessions",
			},
		),

		// WebSocket metrics
		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "swipereader_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swipereader_ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),
	}

	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "swipereader_uptime_seconds",
			Help: "Process uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, reqSize, respSize int64) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.RequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	// Update snapshot
	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.snapshot.TotalDuration += duration.Seconds()
	m.snapshot.RequestCount++
	if status[0] == '4' || status[0] == '5' {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordServiceCall records a service call
func (m *Metrics) RecordServiceCall(service, method, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.ServiceCalls.WithLabelValues(service, method, status).Inc()
	m.ServiceDuration.WithLabelValues(service, method).Observe(duration.Seconds())
}

// SurfaceAcquired records a new pool entry.
func (m *Metrics) SurfaceAcquired() {
	if m == nil {
		return
	}
	m.SurfacesAcquired.Inc()
	m.SurfacesLive.Inc()
	m.mu.Lock()
	m.snapshot.LiveSurfaces++
	m.mu.Unlock()
}

// SurfacesCollectedN records n entries removed by a collect pass.
func (m *Metrics) SurfacesCollectedN(n int) {
	if m == nil || n == 0 {
		return
	}
	m.SurfacesCollected.Add(float64(n))
	m.SurfacesLive.Sub(float64(n))
	m.mu.Lock()
	m.snapshot.LiveSurfaces -= int64(n)
	m.mu.Unlock()
}

// EnvelopeDelivered records a routed envelope.
func (m *Metrics) EnvelopeDelivered(kind string) {
	if m == nil {
		return
	}
	m.EnvelopesDelivered.WithLabelValues(kind).Inc()
}

// EnvelopeDropped records an envelope discarded for reason.
func (m *Metrics) EnvelopeDropped(reason string) {
	if m == nil {
		return
	}
	m.EnvelopesDropped.WithLabelValues(reason).Inc()
}

// EmissionSuppressed records a dedup hit on the content side.
func (m *Metrics) EmissionSuppressed(kind string) {
	if m == nil {
		return
	}
	m.EmissionsDeduped.WithLabelValues(kind).Inc()
}

// CapabilityInvoked records a host-side capability call.
func (m *Metrics) CapabilityInvoked(outcome string) {
	if m == nil {
		return
	}
	m.Invocations.WithLabelValues(outcome).Inc()
}

// NavigationOp records a navigation stack operation.
func (m *Metrics) NavigationOp(op string, committed bool) {
	if m == nil {
		return
	}
	c := "false"
	if committed {
		c = "true"
	}
	m.NavigationOps.WithLabelValues(op, c).Inc()
}

// Gesture records the outcome of an edge gesture.
func (m *Metrics) Gesture(outcome string) {
	if m == nil {
		return
	}
	m.Gestures.WithLabelValues(outcome).Inc()
}

// SetSessionsActive sets the number of active sessions
func (m *Metrics) SetSessionsActive(count int) {
	if m == nil {
		return
	}
	m.SessionsActive.Set(float64(count))
	m.mu.Lock()
	m.snapshot.ActiveSessions = int64(count)
	m.mu.Unlock()
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	if m == nil {
		return
	}
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Inc()
	m.mu.Lock()
	m.snapshot.ActiveConnections++
	m.mu.Unlock()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Dec()
	m.mu.Lock()
	m.snapshot.ActiveConnections--
	m.mu.Unlock()
}

// Snapshot returns the current JSON-friendly values.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.snapshot
	s.UptimeSeconds = time.Since(m.startTime).Seconds()
	return s
}
