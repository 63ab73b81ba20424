package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/papaclick/papaclick-engine/internal/core/domain"
)

type WorkerMetrics struct {
	registry *prometheus.Registry
	service  string

	eventsTotal   *prometheus.CounterVec
	eventDuration *prometheus.HistogramVec
	eventInFlight prometheus.Gauge
	queueLag      *prometheus.HistogramVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	eventsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "papaclick",
			Subsystem: "worker",
			Name:      "lifecycle_events_total",
			Help:      "Total processed lifecycle events by action and status.",
		},
		[]string{"service", "action", "status"},
	)
	eventDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "papaclick",
			Subsystem: "worker",
			Name:      "lifecycle_event_duration_seconds",
			Help:      "Lifecycle event handling duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	eventInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "papaclick",
			Subsystem: "worker",
			Name:      "lifecycle_events_in_flight",
			Help:      "Number of lifecycle events currently being handled.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	queueLag := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "papaclick",
			Subsystem: "worker",
			Name:      "queue_lag_seconds",
			Help:      "Delay between the lifecycle event and the start of handling.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"service"},
	)

	registry.MustRegister(eventsTotal, eventDuration, eventInFlight, queueLag)

	return &WorkerMetrics{
		registry:      registry,
		service:       service,
		eventsTotal:   eventsTotal,
		eventDuration: eventDuration,
		eventInFlight: eventInFlight,
		queueLag:      queueLag,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartEvent() {
	m.eventInFlight.Inc()
}

func (m *WorkerMetrics) FinishEvent(action domain.AuditAction, duration time.Duration, err error) {
	m.eventInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.eventsTotal.WithLabelValues(m.service, string(action), status).Inc()
	m.eventDuration.WithLabelValues(m.service, status).Observe(duration.Seconds())
}

func (m *WorkerMetrics) ObserveQueueLag(lag time.Duration) {
	if lag < 0 {
		return
	}
	m.queueLag.WithLabelValues(m.service).Observe(lag.Seconds())
}
