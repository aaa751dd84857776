package metrics

import (
	"time"
)

// BeaconLabels defines the labels that can be attached to the beacon metrics.
type BeaconLabels struct {
	Source BeaconSource
	Status BeaconStatus
}

// BeaconSource : which entry point submitted the beacon
type BeaconSource string

// BeaconStatus : the outcome of a single beacon
type BeaconStatus string

// The beacon sources
const (
	SourceDirect  BeaconSource = "direct"
	SourceVast    BeaconSource = "vast"
	SourceVastTwo BeaconSource = "vast2"
)

func BeaconSources() []BeaconSource {
	return []BeaconSource{
		SourceDirect,
		SourceVast,
		SourceVastTwo,
	}
}

// Beacon outcomes
const (
	BeaconStatusOK         BeaconStatus = "ok"
	BeaconStatusHTTPErr    BeaconStatus = "httperr"
	BeaconStatusNetworkErr BeaconStatus = "networkerr"
	BeaconStatusTimeout    BeaconStatus = "timeout"
	BeaconStatusQueueFull  BeaconStatus = "queuefull"
)

func BeaconStatuses() []BeaconStatus {
	return []BeaconStatus{
		BeaconStatusOK,
		BeaconStatusHTTPErr,
		BeaconStatusNetworkErr,
		BeaconStatusTimeout,
		BeaconStatusQueueFull,
	}
}

// MetricsEngine is a generic interface to record dispatcher metrics into the desired backend.
// The first three metric functions fulfill the needs for the beacon dispatcher itself; the
// remaining ones cover tracker selection, the request queue, sessions and the listener.
type MetricsEngine interface {
	// RecordBeacon counts one completed beacon, success or failure.
	RecordBeacon(labels BeaconLabels)
	// RecordBeaconTime records how long a completed beacon took from submission.
	RecordBeaconTime(labels BeaconLabels, length time.Duration)
	// RecordBeaconSkipped counts blank URLs dropped before submission.
	RecordBeaconSkipped(source BeaconSource)
	// RecordTrackerSelection records one selection pass over a tracker list.
	RecordTrackerSelection(source BeaconSource, selected int, skipped int)
	// RecordQueueDepth records the number of requests waiting in the request queue.
	RecordQueueDepth(depth int)
	// RecordActiveSessions records the number of VAST sessions held in memory.
	RecordActiveSessions(count int)
	RecordConnectionAccept(success bool)
	RecordConnectionClose(success bool)
}
