package config

import (
	"time"

	mainConfig "github.com/prebid/prebid-beacon/config"
	"github.com/prebid/prebid-beacon/metrics"
	prometheusmetrics "github.com/prebid/prebid-beacon/metrics/prometheus"
	gometrics "github.com/rcrowley/go-metrics"
	influxdb "github.com/vrischmann/go-metrics-influxdb"
)

// NewMetricsEngine reads the configuration and returns the appropriate metrics engine
// for this instance.
func NewMetricsEngine(cfg *mainConfig.Configuration) *DetailedMetricsEngine {
	// Create a list of metrics engines to use.
	// Capacity of 2, as unlikely to have more than 2 metrics backends, and in the case
	// of 1 we won't use the list so it will be garbage collected.
	engineList := make(MultiMetricsEngine, 0, 2)
	returnEngine := DetailedMetricsEngine{}

	if cfg.Metrics.Influxdb.Host != "" {
		// Currently use go-metrics as the metrics piece for influx
		returnEngine.GoMetrics = metrics.NewMetrics(gometrics.NewPrefixedRegistry("prebidbeacon."))
		engineList = append(engineList, returnEngine.GoMetrics)
		// Set up the Influx logger
		go influxdb.InfluxDB(
			returnEngine.GoMetrics.MetricsRegistry,                             // metrics registry
			time.Second*time.Duration(cfg.Metrics.Influxdb.MetricSendInterval), // Configurable interval
			cfg.Metrics.Influxdb.Host,                                          // the InfluxDB url
			cfg.Metrics.Influxdb.Database,                                      // your InfluxDB database
			cfg.Metrics.Influxdb.Measurement,                                   // your measurement
			cfg.Metrics.Influxdb.Username,                                      // your InfluxDB user
			cfg.Metrics.Influxdb.Password,                                      // your InfluxDB password
			false,                                                              // align timestamps
		)
		// Influx is not added to the engine list as goMetrics takes care of it already.
	}
	if cfg.Metrics.Prometheus.Port != 0 {
		// Set up the Prometheus metrics.
		returnEngine.PrometheusMetrics = prometheusmetrics.NewMetrics(cfg.Metrics.Prometheus)
		engineList = append(engineList, returnEngine.PrometheusMetrics)
	}

	// Now return the proper metrics engine
	if len(engineList) > 1 {
		returnEngine.MetricsEngine = &engineList
	} else if len(engineList) == 1 {
		returnEngine.MetricsEngine = engineList[0]
	} else {
		returnEngine.MetricsEngine = &DummyMetricsEngine{}
	}

	return &returnEngine
}

// DetailedMetricsEngine is a MultiMetricsEngine that preserves links to underlying metrics engines.
type DetailedMetricsEngine struct {
	metrics.MetricsEngine
	GoMetrics         *metrics.Metrics
	PrometheusMetrics *prometheusmetrics.Metrics
}

// MultiMetricsEngine logs metrics to multiple metrics databases. The can be useful in transitioning
// an instance from one engine to another, you can run both in parallel to verify stats match up.
type MultiMetricsEngine []metrics.MetricsEngine

// RecordBeacon across all engines
func (me *MultiMetricsEngine) RecordBeacon(labels metrics.BeaconLabels) {
	for _, thisME := range *me {
		thisME.RecordBeacon(labels)
	}
}

// RecordBeaconTime across all engines
func (me *MultiMetricsEngine) RecordBeaconTime(labels metrics.BeaconLabels, length time.Duration) {
	for _, thisME := range *me {
		thisME.RecordBeaconTime(labels, length)
	}
}

// RecordBeaconSkipped across all engines
func (me *MultiMetricsEngine) RecordBeaconSkipped(source metrics.BeaconSource) {
	for _, thisME := range *me {
		thisME.RecordBeaconSkipped(source)
	}
}

// RecordTrackerSelection across all engines
func (me *MultiMetricsEngine) RecordTrackerSelection(source metrics.BeaconSource, selected int, skipped int) {
	for _, thisME := range *me {
		thisME.RecordTrackerSelection(source, selected, skipped)
	}
}

// RecordQueueDepth across all engines
func (me *MultiMetricsEngine) RecordQueueDepth(depth int) {
	for _, thisME := range *me {
		thisME.RecordQueueDepth(depth)
	}
}

// RecordActiveSessions across all engines
func (me *MultiMetricsEngine) RecordActiveSessions(count int) {
	for _, thisME := range *me {
		thisME.RecordActiveSessions(count)
	}
}

// RecordConnectionAccept across all engines
func (me *MultiMetricsEngine) RecordConnectionAccept(success bool) {
	for _, thisME := range *me {
		thisME.RecordConnectionAccept(success)
	}
}

// RecordConnectionClose across all engines
func (me *MultiMetricsEngine) RecordConnectionClose(success bool) {
	for _, thisME := range *me {
		thisME.RecordConnectionClose(success)
	}
}

// DummyMetricsEngine is a Noop metrics engine in case no metrics are configured. (may also be useful for tests)
type DummyMetricsEngine struct{}

// RecordBeacon as a noop
func (me *DummyMetricsEngine) RecordBeacon(labels metrics.BeaconLabels) {
}

// RecordBeaconTime as a noop
func (me *DummyMetricsEngine) RecordBeaconTime(labels metrics.BeaconLabels, length time.Duration) {
}

// RecordBeaconSkipped as a noop
func (me *DummyMetricsEngine) RecordBeaconSkipped(source metrics.BeaconSource) {
}

// RecordTrackerSelection as a noop
func (me *DummyMetricsEngine) RecordTrackerSelection(source metrics.BeaconSource, selected int, skipped int) {
}

// RecordQueueDepth as a noop
func (me *DummyMetricsEngine) RecordQueueDepth(depth int) {
}

// RecordActiveSessions as a noop
func (me *DummyMetricsEngine) RecordActiveSessions(count int) {
}

// RecordConnectionAccept as a noop
func (me *DummyMetricsEngine) RecordConnectionAccept(success bool) {
}

// RecordConnectionClose as a noop
func (me *DummyMetricsEngine) RecordConnectionClose(success bool) {
}
