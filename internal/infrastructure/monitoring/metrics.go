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

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestSize     *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// RPC metrics
	RPCCalls          *prometheus.CounterVec
	RPCDuration       *prometheus.HistogramVec
	RPCErrors         *prometheus.CounterVec
	RegisteredMethods prometheus.Gauge

	// Session metrics
	DownloadsActive prometheus.Gauge
	DownloadsTotal  prometheus.Counter

	// System metrics
	Uptime    prometheus.GaugeFunc
	startTime time.Time

	snapshot Snapshot
	mu       sync.RWMutex
}

// Snapshot holds running totals for the health endpoint
type Snapshot struct {
	TotalCalls  int64 `json:"total_calls"`
	TotalErrors int64 `json:"total_errors"`
}

// NewMetrics creates a new metrics collector on a private registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),

		// HTTP metrics
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tsap_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tsap_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		RequestSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tsap_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tsap_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "path"},
		),

		// RPC metrics
		RPCCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tsap_rpc_calls_total",
				Help: "Total number of RPC calls",
			},
			[]string{"method", "status"},
		),
		RPCDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tsap_rpc_duration_seconds",
				Help:    "RPC call duration in seconds",
				Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"method"},
		),
		RPCErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tsap_rpc_errors_total",
				Help: "Total number of RPC calls answered with an error",
			},
			[]string{"method", "code"},
		),
		RegisteredMethods: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "tsap_rpc_registered_methods",
				Help: "Number of methods registered on the RPC endpoint",
			},
		),

		// Session metrics
		DownloadsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "tsap_downloads_active",
				Help: "Number of downloads in an active state",
			},
		),
		DownloadsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "tsap_downloads_added_total",
				Help: "Total number of downloads added",
			},
		),
	}

	m.Uptime = factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "tsap_uptime_seconds",
			Help: "Service uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// Registry exposes the underlying registry, mainly for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, reqSize, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.RequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))
}

// RecordRPCCall records a dispatched RPC call
func (m *Metrics) RecordRPCCall(method, status string, duration time.Duration) {
	m.RPCCalls.WithLabelValues(method, status).Inc()
	m.RPCDuration.WithLabelValues(method).Observe(duration.Seconds())

	m.mu.Lock()
	m.snapshot.TotalCalls++
	m.mu.Unlock()
}

// RecordRPCError records an RPC call answered with an error
func (m *Metrics) RecordRPCError(method, code string) {
	m.RPCErrors.WithLabelValues(method, code).Inc()

	m.mu.Lock()
	m.snapshot.TotalErrors++
	m.mu.Unlock()
}

// SetRegisteredMethods sets the number of registered RPC methods
func (m *Metrics) SetRegisteredMethods(count int) {
	m.RegisteredMethods.Set(float64(count))
}

// SetDownloadsActive sets the number of active downloads
func (m *Metrics) SetDownloadsActive(count int) {
	m.DownloadsActive.Set(float64(count))
}

// IncDownloadsTotal increments the downloads added counter
func (m *Metrics) IncDownloadsTotal() {
	m.DownloadsTotal.Inc()
}

// Snapshot returns the running totals
func (m *Metrics) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}
