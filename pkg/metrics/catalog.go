package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// CatalogMetrics tracks the catalog core: permission decisions, metadata
// validation outcomes and parsed filter expressions.
type CatalogMetrics struct {
	permissionChecks     *prometheus.CounterVec
	validationRejections *prometheus.CounterVec
	parsedQueries        *prometheus.CounterVec
	searchDuration       prometheus.Histogram
}

// NewCatalogMetrics creates a Prometheus-backed catalog metrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewCatalogMetrics() *CatalogMetrics {
	if !IsEnabled() {
		return nil
	}

	reg := GetRegistry()

	return &CatalogMetrics{
		permissionChecks: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalogd_permission_checks_total",
				Help: "Total number of permission checks by outcome",
			},
			[]string{"outcome"}, // "allowed", "denied"
		),
		validationRejections: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalogd_validation_rejections_total",
				Help: "Total number of rejected requests by fault kind",
			},
			[]string{"kind"}, // "validation", "privacy", "conflict", ...
		),
		parsedQueries: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalogd_parsed_queries_total",
				Help: "Total number of parsed filter expressions by outcome",
			},
			[]string{"outcome"}, // "ok", "error"
		),
		searchDuration: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "catalogd_search_duration_seconds",
				Help:    "Catalog search duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
}

// RecordPermissionCheck records a permission decision.
func (m *CatalogMetrics) RecordPermissionCheck(allowed bool) {
	if m == nil {
		return
	}
	outcome := "allowed"
	if !allowed {
		outcome = "denied"
	}
	m.permissionChecks.WithLabelValues(outcome).Inc()
}

// RecordRejection records a rejected request by fault kind.
func (m *CatalogMetrics) RecordRejection(kind string) {
	if m == nil {
		return
	}
	m.validationRejections.WithLabelValues(kind).Inc()
}

// RecordParsedQuery records a filter parse attempt.
func (m *CatalogMetrics) RecordParsedQuery(ok bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	m.parsedQueries.WithLabelValues(outcome).Inc()
}

// ObserveSearch records the duration of a catalog search.
func (m *CatalogMetrics) ObserveSearch(d time.Duration) {
	if m == nil {
		return
	}
	m.searchDuration.Observe(d.Seconds())
}

// HTTPMetrics tracks the HTTP surface.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewHTTPMetrics creates a Prometheus-backed HTTP metrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewHTTPMetrics() *HTTPMetrics {
	if !IsEnabled() {
		return nil
	}

	reg := GetRegistry()

	return &HTTPMetrics{
		requests: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalogd_http_requests_total",
				Help: "Total number of HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
		duration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "catalogd_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds by method and route",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
}

// RecordRequest records one served HTTP request.
func (m *HTTPMetrics) RecordRequest(method, route, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, route, status).Inc()
	m.duration.WithLabelValues(method, route).Observe(d.Seconds())
}
