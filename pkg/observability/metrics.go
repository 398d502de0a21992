package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Authentication metrics
	LoginAttemptsTotal   *prometheus.CounterVec
	SessionsActive       prometheus.Gauge
	SessionsCleanedTotal prometheus.Counter

	// Business metrics
	OrdersCreatedTotal prometheus.Counter
	CartAddsTotal      prometheus.Counter
	ProductsTotal      prometheus.Gauge

	// Image cache metrics
	ImageCacheHitsTotal   prometheus.Counter
	ImageCacheMissesTotal prometheus.Counter

	// Database metrics
	DBConnectionsActive prometheus.Gauge
	DBConnectionsIdle   prometheus.Gauge
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vetrina_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "vetrina_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		LoginAttemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vetrina_login_attempts_total",
				Help: "Total number of login attempts by result",
			},
			[]string{"result"},
		),
		SessionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "vetrina_sessions_active",
				Help: "Number of live sessions in the registry",
			},
		),
		SessionsCleanedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "vetrina_sessions_cleaned_total",
				Help: "Total number of expired sessions removed",
			},
		),

		OrdersCreatedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "vetrina_orders_created_total",
				Help: "Total number of orders created",
			},
		),
		CartAddsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "vetrina_cart_adds_total",
				Help: "Total number of cart add operations",
			},
		),
		ProductsTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "vetrina_products_total",
				Help: "Number of products in the catalog",
			},
		),

		ImageCacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "vetrina_image_cache_hits_total",
				Help: "Total number of product image cache hits",
			},
		),
		ImageCacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "vetrina_image_cache_misses_total",
				Help: "Total number of product image cache misses",
			},
		),

		DBConnectionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "vetrina_db_connections_active",
				Help: "Number of active database connections",
			},
		),
		DBConnectionsIdle: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "vetrina_db_connections_idle",
				Help: "Number of idle database connections",
			},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.LoginAttemptsTotal,
		m.SessionsActive,
		m.SessionsCleanedTotal,
		m.OrdersCreatedTotal,
		m.CartAddsTotal,
		m.ProductsTotal,
		m.ImageCacheHitsTotal,
		m.ImageCacheMissesTotal,
		m.DBConnectionsActive,
		m.DBConnectionsIdle,
	)

	return m
}

// statusRecorder captures the response status for metrics
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware instruments HTTP handlers with request counts and latency
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		m.HTTPRequestsTotal.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(rec.status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	})
}

// MetricsHandler returns the Prometheus scrape endpoint for the registry
func MetricsHandler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
