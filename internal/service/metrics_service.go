package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/firewatch-co/maintenance-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation for the HTTP
// surface, the cache and the planning pipeline.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter

	planningRuns     *prometheus.CounterVec
	plannedVisits    prometheus.Counter
	planningConflict prometheus.Counter
	planningDuration prometheus.Histogram
}

// NewMetricsService registers core Prometheus collectors.
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
		Help:    "Latency for cache operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	planningRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "planning_runs_total",
		Help: "Total planning runs by outcome",
	}, []string{"status"})

	plannedVisits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "planning_visits_planned_total",
		Help: "Total visits produced by planning runs",
	})

	planningConflict := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "planning_conflicts_total",
		Help: "Total capacity conflicts detected during planning",
	})

	planningDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "planning_run_duration_seconds",
		Help:    "Duration of planning runs",
		Buckets: prometheus.DefBuckets,
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheHits, cacheMisses,
		planningRuns, plannedVisits, planningConflict, planningDuration, goroutines)

	return &MetricsService{
		registry:         registry,
		handler:          promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:  requestDuration,
		requestTotal:     requestTotal,
		cacheLatency:     cacheLatency,
		cacheHits:        cacheHits,
		cacheMisses:      cacheMisses,
		planningRuns:     planningRuns,
		plannedVisits:    plannedVisits,
		planningConflict: planningConflict,
		planningDuration: planningDuration,
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

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records a cache hit or miss.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}

// ObservePlanningRun records the outcome counters of one planning run.
func (m *MetricsService) ObservePlanningRun(result *models.PlanningResult) {
	if m == nil || result == nil {
		return
	}
	status := "success"
	if !result.Success {
		status = "failed"
	}
	m.planningRuns.WithLabelValues(status).Inc()
	m.plannedVisits.Add(float64(result.Summary.Planned))
	m.planningConflict.Add(float64(result.Summary.Conflicts))
	m.planningDuration.Observe(result.Summary.Elapsed.Seconds())
}
