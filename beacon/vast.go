package beacon

import (
	"github.com/prebid/prebid-beacon/errortypes"
	"github.com/prebid/prebid-beacon/macros"
	"github.com/prebid/prebid-beacon/metrics"
	"github.com/prebid/prebid-beacon/tracker"
)

// ErrNilTrackers is returned when a coordinator entry point is handed a nil tracker slice.
var ErrNilTrackers = &errortypes.BadInput{Message: "vast trackers must not be nil"}

// FireVastTrackers selects the trackers due this cycle, expands their macros with opts and
// fires the resulting URLs without a listener.
func (d *Dispatcher) FireVastTrackers(trackers []*tracker.VastTracker, opts macros.Options) error {
	return fireTrackers(d, metrics.SourceVast, trackers, opts)
}

// FireVastTrackersTwo is FireVastTrackers for the newer tracker type.
func (d *Dispatcher) FireVastTrackersTwo(trackers []*tracker.VastTrackerTwo, opts macros.Options) error {
	return fireTrackers(d, metrics.SourceVastTwo, trackers, opts)
}

func fireTrackers[T tracker.Tracker](d *Dispatcher, source metrics.BeaconSource, trackers []T, opts macros.Options) error {
	if trackers == nil {
		return ErrNilTrackers
	}

	selection := tracker.Select(trackers)
	d.metrics.RecordTrackerSelection(source, len(selection.URLs), selection.Skipped)
	if len(selection.URLs) == 0 {
		return nil
	}

	d.fireAll(source, d.resolver.Resolve(selection.URLs, opts), nil)
	return nil
}
