package middleware

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures the Prometheus metrics middleware.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "noventa").
	Namespace string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for request duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus metrics middleware.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "noventa",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the Prometheus metrics for the render server.
//
// Metrics collected:
//   - noventa_requests_total: counter of requests by route pattern and status
//   - noventa_request_duration_seconds: histogram of request duration
//   - noventa_in_flight_requests: gauge of requests inside the pipeline
//   - noventa_shed_rejections_total: counter of load-shedding rejections
//   - noventa_render_errors_total: counter of render errors by category
//   - noventa_patches_sent_total: counter of dom patches pushed to clients
//   - noventa_pool_queue_depth: gauge of script invocations waiting on workers
type Metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	inFlight        prometheus.Gauge
	shedRejections  prometheus.Counter
	renderErrors    *prometheus.CounterVec
	patchesSent     prometheus.Counter

	config MetricsConfig
}

// NewMetrics registers the server metrics and returns them.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "requests_total",
			Help:        "Total number of page requests processed",
			ConstLabels: config.ConstLabels,
		}, []string{"route", "status"}),

		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Name:        "request_duration_seconds",
			Help:        "Page request duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"route"}),

		inFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Name:        "in_flight_requests",
			Help:        "Number of requests currently inside the render pipeline",
			ConstLabels: config.ConstLabels,
		}),

		shedRejections: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "shed_rejections_total",
			Help:        "Total number of requests rejected by load shedding",
			ConstLabels: config.ConstLabels,
		}),

		renderErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "render_errors_total",
			Help:        "Total number of render errors by category",
			ConstLabels: config.ConstLabels,
		}, []string{"category"}),

		patchesSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "patches_sent_total",
			Help:        "Total number of dom patches pushed to live clients",
			ConstLabels: config.ConstLabels,
		}),

		config: config,
	}
}

// RegisterPoolDepth registers a gauge that reports the script pool
// queue depth. The callback is polled on every scrape.
func (m *Metrics) RegisterPoolDepth(depth func() float64) {
	promauto.With(m.config.Registry).NewGaugeFunc(prometheus.GaugeOpts{
		Namespace:   m.config.Namespace,
		Name:        "pool_queue_depth",
		Help:        "Number of script invocations waiting on or inside pool workers",
		ConstLabels: m.config.ConstLabels,
	}, depth)
}

// Middleware observes every request passing through it.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.inFlight.Inc()
		defer m.inFlight.Dec()

		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		route := r.URL.Path
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(sw.status)).Inc()
	})
}

// RecordShedRejection counts one load-shedding rejection.
func (m *Metrics) RecordShedRejection() {
	m.shedRejections.Inc()
}

// RecordRenderError counts one render error in the given category.
func (m *Metrics) RecordRenderError(category string) {
	m.renderErrors.WithLabelValues(category).Inc()
}

// RecordPatches counts patches pushed to live clients.
func (m *Metrics) RecordPatches(count int) {
	m.patchesSent.Add(float64(count))
}

// statusWriter captures the response status for the request counter.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(status int) {
	if !w.wroteHeader {
		w.status = status
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}

// Hijack passes through so WebSocket upgrades work behind the
// middleware chain.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("underlying ResponseWriter does not support hijacking")
	}
	return hj.Hijack()
}

func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
