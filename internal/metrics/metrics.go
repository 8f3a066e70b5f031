// Package metrics exposes Prometheus instrumentation for the scheduler and
// the Telegram connector. All methods are safe on a nil receiver so
// components can run without metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Delivery results.
const (
	ResultDelivered = "delivered"
	ResultFailed    = "failed"
	ResultSkipped   = "skipped"
)

type PrometheusMetrics struct {
	armed       prometheus.Gauge
	deliveries  *prometheus.CounterVec
	lateness    prometheus.Histogram
	parses      *prometheus.CounterVec
	updates     *prometheus.CounterVec
	persistErrs prometheus.Counter
}

func InitPrometheusMetrics(namespace string, reg prometheus.Registerer) *PrometheusMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &PrometheusMetrics{
		armed: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "scheduler_armed_tasks",
				Help:      "Number of tasks with an active wait unit",
			},
		),
		deliveries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "scheduler_deliveries_total",
				Help:      "Publication attempts by result",
			},
			[]string{"result"},
		),
		lateness: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "scheduler_delivery_lateness_seconds",
				Help:      "Delay between the target instant and the actual publication",
				Buckets:   []float64{.1, .5, 1, 2, 5, 10, 30, 60, 300, 3600},
			},
		),
		parses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "conversation_time_parses_total",
				Help:      "Time expression parse attempts by rule or error kind",
			},
			[]string{"outcome"},
		),
		updates: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "telegram_updates_total",
				Help:      "Telegram updates received by kind",
			},
			[]string{"kind"},
		),
		persistErrs: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "store_persist_errors_total",
				Help:      "Snapshot writes that failed",
			},
		),
	}

	reg.MustRegister(
		m.armed,
		m.deliveries,
		m.lateness,
		m.parses,
		m.updates,
		m.persistErrs,
	)

	return m
}

func (m *PrometheusMetrics) SetArmed(n int) {
	if m == nil {
		return
	}
	m.armed.Set(float64(n))
}

// RecordDelivery counts an attempt; lateness is observed for successful ones.
func (m *PrometheusMetrics) RecordDelivery(result string, lateness time.Duration) {
	if m == nil {
		return
	}
	m.deliveries.WithLabelValues(result).Inc()
	if result == ResultDelivered {
		if lateness < 0 {
			lateness = 0
		}
		m.lateness.Observe(lateness.Seconds())
	}
}

func (m *PrometheusMetrics) RecordParse(outcome string) {
	if m == nil {
		return
	}
	m.parses.WithLabelValues(outcome).Inc()
}

func (m *PrometheusMetrics) RecordUpdate(kind string) {
	if m == nil {
		return
	}
	m.updates.WithLabelValues(kind).Inc()
}

func (m *PrometheusMetrics) RecordPersistError() {
	if m == nil {
		return
	}
	m.persistErrs.Inc()
}
