package metrics

import (
	"testing"
	"time"

	metrics "github.com/rcrowley/go-metrics"
	"github.com/stretchr/testify/assert"
)

func TestNewMetrics(t *testing.T) {
	registry := metrics.NewRegistry()
	m := NewMetrics(registry)

	ensureContains(t, registry, "beacons.direct.ok", m.BeaconMeters[SourceDirect][BeaconStatusOK])
	ensureContains(t, registry, "beacons.vast.httperr", m.BeaconMeters[SourceVast][BeaconStatusHTTPErr])
	ensureContains(t, registry, "beacons.vast2.timeout", m.BeaconMeters[SourceVastTwo][BeaconStatusTimeout])
	ensureContains(t, registry, "beacons.direct.queuefull", m.BeaconMeters[SourceDirect][BeaconStatusQueueFull])
	ensureContains(t, registry, "beacons.direct.skipped", m.SkippedMeters[SourceDirect])
	ensureContains(t, registry, "trackers.vast.selected", m.SelectedMeters[SourceVast])
	ensureContains(t, registry, "trackers.vast2.already_tracked", m.RejectedMeters[SourceVastTwo])
	ensureContains(t, registry, "beacon_time.ok", m.BeaconTimers[BeaconStatusOK])
	ensureContains(t, registry, "beacon_time.networkerr", m.BeaconTimers[BeaconStatusNetworkErr])
	ensureContains(t, registry, "queue_depth", m.QueueDepth)
}

func TestRecordBeacon(t *testing.T) {
	registry := metrics.NewRegistry()
	m := NewMetrics(registry)

	m.RecordBeacon(BeaconLabels{Source: SourceDirect, Status: BeaconStatusOK})
	m.RecordBeacon(BeaconLabels{Source: SourceDirect, Status: BeaconStatusOK})
	m.RecordBeacon(BeaconLabels{Source: SourceVast, Status: BeaconStatusHTTPErr})
	m.RecordBeacon(BeaconLabels{Source: "unknown", Status: BeaconStatusOK})
	m.RecordBeaconTime(BeaconLabels{Source: SourceDirect, Status: BeaconStatusOK}, 20*time.Millisecond)

	assert.Equal(t, int64(2), m.BeaconMeters[SourceDirect][BeaconStatusOK].Count())
	assert.Equal(t, int64(1), m.BeaconMeters[SourceVast][BeaconStatusHTTPErr].Count())
	assert.Equal(t, int64(0), m.BeaconMeters[SourceVast][BeaconStatusOK].Count())
	assert.Equal(t, int64(1), m.BeaconTimers[BeaconStatusOK].Count())
}

func TestRecordTrackerSelection(t *testing.T) {
	registry := metrics.NewRegistry()
	m := NewMetrics(registry)

	m.RecordTrackerSelection(SourceVast, 3, 1)
	m.RecordTrackerSelection(SourceVast, 0, 2)
	m.RecordBeaconSkipped(SourceVast)
	m.RecordQueueDepth(7)

	assert.Equal(t, int64(3), m.SelectedMeters[SourceVast].Count())
	assert.Equal(t, int64(3), m.RejectedMeters[SourceVast].Count())
	assert.Equal(t, int64(1), m.SkippedMeters[SourceVast].Count())
	assert.Equal(t, int64(7), m.QueueDepth.Value())
}

func ensureContains(t *testing.T, registry metrics.Registry, name string, metric interface{}) {
	t.Helper()
	if inRegistry := registry.Get(name); inRegistry == nil {
		t.Errorf("No metric in registry at %s.", name)
	} else if inRegistry != metric {
		t.Errorf("Bad value stored at metric %s.", name)
	}
}

func TestRecordConnections(t *testing.T) {
	registry := metrics.NewRegistry()
	m := NewMetrics(registry)

	m.RecordConnectionAccept(true)
	m.RecordConnectionAccept(true)
	m.RecordConnectionAccept(false)
	m.RecordConnectionClose(true)
	m.RecordConnectionClose(false)
	m.RecordActiveSessions(4)

	assert.Equal(t, int64(1), m.ConnectionCounter.Count())
	assert.Equal(t, int64(1), m.ConnectionAcceptErrorMeter.Count())
	assert.Equal(t, int64(1), m.ConnectionCloseErrorMeter.Count())
	assert.Equal(t, int64(4), m.ActiveSessions.Value())
	ensureContains(t, registry, "active_sessions", m.ActiveSessions)
	ensureContains(t, registry, "active_connections", m.ConnectionCounter)
}
