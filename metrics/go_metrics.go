package metrics

import (
	"fmt"
	"time"

	"github.com/rcrowley/go-metrics"
)

// Metrics is the go-metrics implementation of MetricsEngine.
type Metrics struct {
	MetricsRegistry metrics.Registry

	BeaconMeters   map[BeaconSource]map[BeaconStatus]metrics.Meter
	BeaconTimers   map[BeaconStatus]metrics.Timer
	SkippedMeters  map[BeaconSource]metrics.Meter
	SelectedMeters map[BeaconSource]metrics.Meter
	RejectedMeters map[BeaconSource]metrics.Meter
	QueueDepth     metrics.Gauge
	ActiveSessions metrics.Gauge

	ConnectionCounter          metrics.Counter
	ConnectionAcceptErrorMeter metrics.Meter
	ConnectionCloseErrorMeter  metrics.Meter
}

// NewMetrics registers every metric up front so the exported series are stable even
// before the first beacon is fired.
func NewMetrics(registry metrics.Registry) *Metrics {
	m := &Metrics{
		MetricsRegistry: registry,
		BeaconMeters:    make(map[BeaconSource]map[BeaconStatus]metrics.Meter),
		BeaconTimers:    make(map[BeaconStatus]metrics.Timer),
		SkippedMeters:   make(map[BeaconSource]metrics.Meter),
		SelectedMeters:  make(map[BeaconSource]metrics.Meter),
		RejectedMeters:  make(map[BeaconSource]metrics.Meter),
		QueueDepth:      metrics.GetOrRegisterGauge("queue_depth", registry),
		ActiveSessions:  metrics.GetOrRegisterGauge("active_sessions", registry),

		ConnectionCounter:          metrics.GetOrRegisterCounter("active_connections", registry),
		ConnectionAcceptErrorMeter: metrics.GetOrRegisterMeter("connection_accept_errors", registry),
		ConnectionCloseErrorMeter:  metrics.GetOrRegisterMeter("connection_close_errors", registry),
	}

	for _, source := range BeaconSources() {
		statusMeters := make(map[BeaconStatus]metrics.Meter)
		for _, status := range BeaconStatuses() {
			statusMeters[status] = metrics.GetOrRegisterMeter(fmt.Sprintf("beacons.%s.%s", source, status), registry)
		}
		m.BeaconMeters[source] = statusMeters
		m.SkippedMeters[source] = metrics.GetOrRegisterMeter(fmt.Sprintf("beacons.%s.skipped", source), registry)
		m.SelectedMeters[source] = metrics.GetOrRegisterMeter(fmt.Sprintf("trackers.%s.selected", source), registry)
		m.RejectedMeters[source] = metrics.GetOrRegisterMeter(fmt.Sprintf("trackers.%s.already_tracked", source), registry)
	}
	for _, status := range BeaconStatuses() {
		m.BeaconTimers[status] = metrics.GetOrRegisterTimer(fmt.Sprintf("beacon_time.%s", status), registry)
	}

	return m
}

func (me *Metrics) RecordBeacon(labels BeaconLabels) {
	if statusMeters, ok := me.BeaconMeters[labels.Source]; ok {
		if meter, ok := statusMeters[labels.Status]; ok {
			meter.Mark(1)
		}
	}
}

func (me *Metrics) RecordBeaconTime(labels BeaconLabels, length time.Duration) {
	if timer, ok := me.BeaconTimers[labels.Status]; ok {
		timer.Update(length)
	}
}

func (me *Metrics) RecordBeaconSkipped(source BeaconSource) {
	if meter, ok := me.SkippedMeters[source]; ok {
		meter.Mark(1)
	}
}

func (me *Metrics) RecordTrackerSelection(source BeaconSource, selected int, skipped int) {
	if meter, ok := me.SelectedMeters[source]; ok {
		meter.Mark(int64(selected))
	}
	if meter, ok := me.RejectedMeters[source]; ok {
		meter.Mark(int64(skipped))
	}
}

func (me *Metrics) RecordQueueDepth(depth int) {
	me.QueueDepth.Update(int64(depth))
}

func (me *Metrics) RecordActiveSessions(count int) {
	me.ActiveSessions.Update(int64(count))
}

func (me *Metrics) RecordConnectionAccept(success bool) {
	if success {
		me.ConnectionCounter.Inc(1)
	} else {
		me.ConnectionAcceptErrorMeter.Mark(1)
	}
}

func (me *Metrics) RecordConnectionClose(success bool) {
	if success {
		me.ConnectionCounter.Dec(1)
	} else {
		me.ConnectionCloseErrorMeter.Mark(1)
	}
}
