package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metric collectors for the server.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics.
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Document store metrics.
	DocumentOpsTotal    *prometheus.CounterVec
	DocumentOpDuration  *prometheus.HistogramVec

	// Auth metrics.
	AuthEventsTotal          *prometheus.CounterVec
	RateLimitRejectionsTotal *prometheus.CounterVec

	// Sessions and mail.
	ActiveSessions     prometheus.Gauge
	NotificationsTotal *prometheus.CounterVec

	// Server lifecycle.
	ServerStartTime prometheus.Gauge
}

// New creates and registers all Prometheus metrics on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,

		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dwh_http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path_pattern", "status_code"}),

		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dwh_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path_pattern"}),

		DocumentOpsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dwh_document_ops_total",
			Help: "Total number of document store operations.",
		}, []string{"op", "collection", "result"}),

		DocumentOpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dwh_document_op_duration_seconds",
			Help:    "Document store operation duration in seconds.",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"op", "collection"}),

		AuthEventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dwh_auth_events_total",
			Help: "Total number of authentication events by outcome.",
		}, []string{"event", "outcome"}),

		RateLimitRejectionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dwh_ratelimit_rejections_total",
			Help: "Total number of rate limit rejections.",
		}, []string{"scope"}),

		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dwh_active_sessions",
			Help: "Number of open client sessions.",
		}),

		NotificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dwh_notifications_total",
			Help: "Total number of outbound notifications by kind and status.",
		}, []string{"kind", "status"}),

		ServerStartTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dwh_server_start_time_seconds",
			Help: "Unix timestamp when the server started.",
		}),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.DocumentOpsTotal,
		m.DocumentOpDuration,
		m.AuthEventsTotal,
		m.RateLimitRejectionsTotal,
		m.ActiveSessions,
		m.NotificationsTotal,
		m.ServerStartTime,
	)

	m.ServerStartTime.Set(float64(time.Now().Unix()))

	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return m
}

// Registry returns the private Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RegisterDBPoolCollector registers a custom DB pool stats collector.
func (m *Metrics) RegisterDBPoolCollector(statFunc DBPoolStatFunc) {
	m.registry.MustRegister(NewDBPoolCollector(statFunc))
}

// Exposition serves the registry in the Prometheus text format.
func (m *Metrics) Exposition() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveDocumentOp records one document store operation.
func (m *Metrics) ObserveDocumentOp(op, collection string, err error, elapsed time.Duration) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.DocumentOpsTotal.WithLabelValues(op, collection, result).Inc()
	m.DocumentOpDuration.WithLabelValues(op, collection).Observe(elapsed.Seconds())
}

// IncAuthEvent counts an authentication event. outcome is "success" or an
// error code.
func (m *Metrics) IncAuthEvent(event, outcome string) {
	m.AuthEventsTotal.WithLabelValues(event, outcome).Inc()
}

// IncRateLimitRejection increments the rate limit rejection counter.
func (m *Metrics) IncRateLimitRejection(scope string) {
	m.RateLimitRejectionsTotal.WithLabelValues(scope).Inc()
}

// IncNotification counts one outbound notification.
func (m *Metrics) IncNotification(kind string, err error) {
	status := "sent"
	if err != nil {
		status = "failed"
	}
	m.NotificationsTotal.WithLabelValues(kind, status).Inc()
}

// Middleware records request counts and latency by chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		pattern := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				pattern = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.HTTPRequestsTotal.WithLabelValues(r.Method, pattern, strconv.Itoa(status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, pattern).Observe(time.Since(start).Seconds())
	})
}
