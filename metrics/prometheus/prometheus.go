package prometheusmetrics

import (
	"strconv"
	"time"

	"github.com/prebid/prebid-beacon/config"
	"github.com/prebid/prebid-beacon/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics defines the Prometheus metrics backing the beacon dispatcher. Satisfies interface MetricsEngine
type Metrics struct {
	Registerer prometheus.Registerer
	Gatherer   *prometheus.Registry

	beacons          *prometheus.CounterVec
	beaconTimer      *prometheus.HistogramVec
	beaconsSkipped   *prometheus.CounterVec
	trackersSelected *prometheus.CounterVec
	trackersRejected *prometheus.CounterVec
	queueDepth       prometheus.Gauge
	activeSessions   prometheus.Gauge
	connections      prometheus.Gauge
	connectionErrors *prometheus.CounterVec
}

const (
	sourceLabel = "source"
	statusLabel = "status"
	actionLabel = "action"

	actionAccept = "accept"
	actionClose  = "close"
)

// NewMetrics constructs the Prometheus metrics on a dedicated registry. Needs to be fed the
// prometheus config.
func NewMetrics(cfg config.PrometheusMetrics) *Metrics {
	timerBuckets := prometheus.LinearBuckets(0.05, 0.05, 20)
	timerBuckets = append(timerBuckets, []float64{1.5, 2.0, 3.0, 5.0, 10.0}...)

	registry := prometheus.NewRegistry()
	metrics := Metrics{
		Registerer: registry,
		Gatherer:   registry,
	}

	metrics.beacons = newCounter(cfg, registry,
		"beacons_total",
		"Count of tracking beacons by source and outcome.",
		[]string{sourceLabel, statusLabel})

	metrics.beaconTimer = newHistogram(cfg, registry,
		"beacon_time_seconds",
		"Seconds from submission to completion of each tracking beacon.",
		[]string{statusLabel},
		timerBuckets)

	metrics.beaconsSkipped = newCounter(cfg, registry,
		"beacons_skipped_total",
		"Count of blank tracking URLs dropped before submission.",
		[]string{sourceLabel})

	metrics.trackersSelected = newCounter(cfg, registry,
		"trackers_selected_total",
		"Count of trackers selected for dispatch.",
		[]string{sourceLabel})

	metrics.trackersRejected = newCounter(cfg, registry,
		"trackers_already_tracked_total",
		"Count of non-repeatable trackers skipped because they already fired.",
		[]string{sourceLabel})

	metrics.queueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      "request_queue_depth",
		Help:      "Number of tracking requests waiting for a worker.",
	})
	registry.MustRegister(metrics.queueDepth)

	metrics.activeSessions = newGauge(cfg, registry,
		"active_sessions",
		"Number of VAST sessions held in memory.")

	metrics.connections = newGauge(cfg, registry,
		"active_connections",
		"Current number of active connections.")

	metrics.connectionErrors = newCounter(cfg, registry,
		"connection_errors_total",
		"Count of errors accepting or closing connections.",
		[]string{actionLabel})

	preloadLabelValues(&metrics)

	return &metrics
}

func newCounter(cfg config.PrometheusMetrics, registry *prometheus.Registry, name, help string, labels []string) *prometheus.CounterVec {
	opts := prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      name,
		Help:      help,
	}
	counter := prometheus.NewCounterVec(opts, labels)
	registry.MustRegister(counter)
	return counter
}

func newGauge(cfg config.PrometheusMetrics, registry *prometheus.Registry, name, help string) prometheus.Gauge {
	gauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      name,
		Help:      help,
	})
	registry.MustRegister(gauge)
	return gauge
}

func newHistogram(cfg config.PrometheusMetrics, registry *prometheus.Registry, name, help string, labels []string, buckets []float64) *prometheus.HistogramVec {
	opts := prometheus.HistogramOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      name,
		Help:      help,
		Buckets:   buckets,
	}
	histogram := prometheus.NewHistogramVec(opts, labels)
	registry.MustRegister(histogram)
	return histogram
}

// preloadLabelValues creates every known series so dashboards see zero values instead of gaps.
func preloadLabelValues(m *Metrics) {
	for _, source := range metrics.BeaconSources() {
		for _, status := range metrics.BeaconStatuses() {
			m.beacons.WithLabelValues(string(source), string(status))
		}
		m.beaconsSkipped.WithLabelValues(string(source))
		m.trackersSelected.WithLabelValues(string(source))
		m.trackersRejected.WithLabelValues(string(source))
	}
	for _, status := range metrics.BeaconStatuses() {
		m.beaconTimer.WithLabelValues(string(status))
	}
	m.connectionErrors.WithLabelValues(actionAccept)
	m.connectionErrors.WithLabelValues(actionClose)
}

func (m *Metrics) RecordBeacon(labels metrics.BeaconLabels) {
	m.beacons.With(prometheus.Labels{
		sourceLabel: string(labels.Source),
		statusLabel: string(labels.Status),
	}).Inc()
}

func (m *Metrics) RecordBeaconTime(labels metrics.BeaconLabels, length time.Duration) {
	m.beaconTimer.With(prometheus.Labels{
		statusLabel: string(labels.Status),
	}).Observe(length.Seconds())
}

func (m *Metrics) RecordBeaconSkipped(source metrics.BeaconSource) {
	m.beaconsSkipped.WithLabelValues(string(source)).Inc()
}

func (m *Metrics) RecordTrackerSelection(source metrics.BeaconSource, selected int, skipped int) {
	m.trackersSelected.WithLabelValues(string(source)).Add(float64(selected))
	m.trackersRejected.WithLabelValues(string(source)).Add(float64(skipped))
}

func (m *Metrics) RecordQueueDepth(depth int) {
	m.queueDepth.Set(float64(depth))
}

func (m *Metrics) RecordActiveSessions(count int) {
	m.activeSessions.Set(float64(count))
}

func (m *Metrics) RecordConnectionAccept(success bool) {
	if success {
		m.connections.Inc()
	} else {
		m.connectionErrors.WithLabelValues(actionAccept).Inc()
	}
}

func (m *Metrics) RecordConnectionClose(success bool) {
	if success {
		m.connections.Dec()
	} else {
		m.connectionErrors.WithLabelValues(actionClose).Inc()
	}
}

// String is used by the admin endpoint for a compact description of the engine.
func (m *Metrics) String() string {
	families, err := m.Gatherer.Gather()
	if err != nil {
		return "prometheus metrics: " + err.Error()
	}
	return "prometheus metrics: " + strconv.Itoa(len(families)) + " families"
}
