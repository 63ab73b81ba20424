// Package metrics holds the per-binary prometheus registries. The API and
// worker processes each register their own collectors; nothing is global.
package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/papaclick/papaclick-engine/internal/core/domain"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry
	service  string

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	submissionsTotal    *prometheus.CounterVec
	submissionDuration  *prometheus.HistogramVec
	reviewsTotal        *prometheus.CounterVec
	exportsTotal        *prometheus.CounterVec
	auditAppendFailures *prometheus.CounterVec
	predictionTimeouts  *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "papaclick",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "papaclick",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "papaclick",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	submissionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "papaclick",
			Subsystem: "classification",
			Name:      "submissions_total",
			Help:      "Total accepted classification submissions.",
		},
		[]string{"service", "variety", "condition"},
	)
	submissionDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "papaclick",
			Subsystem: "classification",
			Name:      "submission_duration_seconds",
			Help:      "End-to-end submission duration including the model call.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service"},
	)
	reviewsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "papaclick",
			Subsystem: "classification",
			Name:      "reviews_total",
			Help:      "Total review decisions by outcome.",
		},
		[]string{"service", "decision"},
	)
	exportsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "papaclick",
			Subsystem: "classification",
			Name:      "exports_total",
			Help:      "Total report exports by status.",
		},
		[]string{"service", "status"},
	)
	auditAppendFailures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "papaclick",
			Subsystem: "audit",
			Name:      "append_failures_total",
			Help:      "Audit entries that failed to persist after a successful state write.",
		},
		[]string{"service", "action"},
	)
	predictionTimeouts := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "papaclick",
			Subsystem: "classification",
			Name:      "prediction_timeouts_total",
			Help:      "Model predictions abandoned because the caller deadline expired.",
		},
		[]string{"service"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		submissionsTotal,
		submissionDuration,
		reviewsTotal,
		exportsTotal,
		auditAppendFailures,
		predictionTimeouts,
	)

	return &HTTPServerMetrics{
		registry:            registry,
		service:             service,
		requestTotal:        requestTotal,
		requestDuration:     requestDuration,
		requestInFlight:     requestInFlight,
		submissionsTotal:    submissionsTotal,
		submissionDuration:  submissionDuration,
		reviewsTotal:        reviewsTotal,
		exportsTotal:        exportsTotal,
		auditAppendFailures: auditAppendFailures,
		predictionTimeouts:  predictionTimeouts,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			m.service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(m.service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func normalizePath(path string) string {
	switch {
	case strings.HasSuffix(path, "/review"):
		return "/v1/classifications/{id}/review"
	case strings.HasSuffix(path, "/audit"):
		return "/v1/classifications/{id}/audit"
	case strings.HasPrefix(path, "/v1/classifications/"):
		return "/v1/classifications/{id}"
	default:
		return path
	}
}

func (m *HTTPServerMetrics) RecordSubmission(variety string, condition domain.Condition, duration time.Duration) {
	if variety == "" {
		variety = "unknown"
	}
	m.submissionsTotal.WithLabelValues(m.service, variety, string(condition)).Inc()
	m.submissionDuration.WithLabelValues(m.service).Observe(duration.Seconds())
}

func (m *HTTPServerMetrics) RecordReview(decision string) {
	if decision == "" {
		decision = "unknown"
	}
	m.reviewsTotal.WithLabelValues(m.service, decision).Inc()
}

func (m *HTTPServerMetrics) RecordExport(err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.exportsTotal.WithLabelValues(m.service, status).Inc()
}

func (m *HTTPServerMetrics) RecordPredictionTimeout() {
	m.predictionTimeouts.WithLabelValues(m.service).Inc()
}

// AuditAppendFailed implements the audit monitor port.
func (m *HTTPServerMetrics) AuditAppendFailed(action domain.AuditAction) {
	m.auditAppendFailures.WithLabelValues(m.service, string(action)).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
