package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for HTTP traffic,
// caches and portal workflows.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheLookups    *prometheus.CounterVec
	confirmations   *prometheus.CounterVec
	importRows      *prometheus.CounterVec
	importJobs      *prometheus.CounterVec
	interactions    *prometheus.CounterVec
}

// NewMetricsService registers the collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache reads",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache writes",
		Buckets: prometheus.DefBuckets,
	})

	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_lookups_total",
		Help: "Cache lookups by result",
	}, []string{"result"})

	confirmations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "account_confirmations_total",
		Help: "Account confirmation attempts by outcome",
	}, []string{"outcome"})

	importRows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_import_rows_total",
		Help: "Ledger rows processed by import result",
	}, []string{"result"})

	importJobs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_import_jobs_total",
		Help: "Asynchronous import jobs by final status",
	}, []string{"status"})

	interactions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "announcement_interactions_total",
		Help: "Announcement board writes by kind",
	}, []string{"kind"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheLookups, confirmations, importRows, importJobs, interactions, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLatency:    cacheLatency,
		cacheWrite:      cacheWrite,
		cacheLookups:    cacheLookups,
		confirmations:   confirmations,
		importRows:      importRows,
		importJobs:      importJobs,
		interactions:    interactions,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry returns the underlying registry, mainly for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records a cache lookup.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheLookups.WithLabelValues("hit").Inc()
		return
	}
	m.cacheLookups.WithLabelValues("miss").Inc()
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// RecordConfirmation counts a confirmation attempt by outcome label.
func (m *MetricsService) RecordConfirmation(outcome string) {
	if m == nil {
		return
	}
	m.confirmations.WithLabelValues(outcome).Inc()
}

// RecordImport adds imported and skipped row counts.
func (m *MetricsService) RecordImport(imported, skipped int) {
	if m == nil {
		return
	}
	m.importRows.WithLabelValues("imported").Add(float64(imported))
	m.importRows.WithLabelValues("skipped").Add(float64(skipped))
}

// RecordImportJob counts background import transitions by status.
func (m *MetricsService) RecordImportJob(status string) {
	if m == nil {
		return
	}
	m.importJobs.WithLabelValues(status).Inc()
}

// RecordInteraction counts a board write such as like, comment or reply.
func (m *MetricsService) RecordInteraction(kind string) {
	if m == nil {
		return
	}
	m.interactions.WithLabelValues(kind).Inc()
}
