package metrics

import (
	"time"

	"github.com/stretchr/testify/mock"
)

// MetricsEngineMock is mock for the MetricsEngine interface
type MetricsEngineMock struct {
	mock.Mock
}

// RecordBeacon mock
func (me *MetricsEngineMock) RecordBeacon(labels BeaconLabels) {
	me.Called(labels)
}

// RecordBeaconTime mock
func (me *MetricsEngineMock) RecordBeaconTime(labels BeaconLabels, length time.Duration) {
	me.Called(labels, length)
}

// RecordBeaconSkipped mock
func (me *MetricsEngineMock) RecordBeaconSkipped(source BeaconSource) {
	me.Called(source)
}

// RecordTrackerSelection mock
func (me *MetricsEngineMock) RecordTrackerSelection(source BeaconSource, selected int, skipped int) {
	me.Called(source, selected, skipped)
}

// RecordQueueDepth mock
func (me *MetricsEngineMock) RecordQueueDepth(depth int) {
	me.Called(depth)
}

// RecordActiveSessions mock
func (me *MetricsEngineMock) RecordActiveSessions(count int) {
	me.Called(count)
}

// RecordConnectionAccept mock
func (me *MetricsEngineMock) RecordConnectionAccept(success bool) {
	me.Called(success)
}

// RecordConnectionClose mock
func (me *MetricsEngineMock) RecordConnectionClose(success bool) {
	me.Called(success)
}
