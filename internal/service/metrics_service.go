package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/attendr/attendr-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation and provides a
// lightweight snapshot for API consumption.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	checkInsTotal   prometheus.Counter
	promptsTotal    prometheus.Counter
	pollerTicks     prometheus.Counter

	requestCount         uint64
	requestDurationTotal uint64
	checkInCount         uint64
	promptCount          uint64
	tickCount            uint64
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

	checkInsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "check_ins_total",
		Help: "Total attendance check-ins recorded",
	})

	promptsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "check_in_prompts_total",
		Help: "Total check-in prompts issued by the poller",
	})

	pollerTicks := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "poller_ticks_total",
		Help: "Total schedule poller cycles",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, checkInsTotal, promptsTotal, pollerTicks, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		checkInsTotal:   checkInsTotal,
		promptsTotal:    promptsTotal,
		pollerTicks:     pollerTicks,
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

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordCheckIn counts a committed attendance record.
func (m *MetricsService) RecordCheckIn() {
	if m == nil {
		return
	}
	m.checkInsTotal.Inc()
	atomic.AddUint64(&m.checkInCount, 1)
}

// RecordPromptIssued counts a check-in prompt surfaced to a student.
func (m *MetricsService) RecordPromptIssued() {
	if m == nil {
		return
	}
	m.promptsTotal.Inc()
	atomic.AddUint64(&m.promptCount, 1)
}

// RecordPollerTick counts one poller cycle.
func (m *MetricsService) RecordPollerTick() {
	if m == nil {
		return
	}
	m.pollerTicks.Inc()
	atomic.AddUint64(&m.tickCount, 1)
}

// Snapshot returns aggregated metrics suitable for status endpoints.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	return models.SystemMetrics{
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		CheckInsTotal:            atomic.LoadUint64(&m.checkInCount),
		PromptsIssuedTotal:       atomic.LoadUint64(&m.promptCount),
		PollerTicksTotal:         atomic.LoadUint64(&m.tickCount),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
