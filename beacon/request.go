package beacon

import (
	"net/http"
	"time"

	"github.com/prebid/prebid-beacon/errortypes"
	"github.com/prebid/prebid-beacon/metrics"
	"github.com/prebid/prebid-beacon/network"
)

// zeroRetries: a retried GET could register a second impression at the tracking endpoint.
const zeroRetries = 0

// newTrackingRequest builds the request submitted for a single beacon: never cached,
// never retried.
func newTrackingRequest(url string, timeoutMs int) *network.Request {
	return &network.Request{
		URL:         url,
		Method:      http.MethodGet,
		ShouldCache: false,
		RetryPolicy: network.RetryPolicy{
			TimeoutMs:         timeoutMs,
			MaxRetries:        zeroRetries,
			BackoffMultiplier: network.DefaultBackoffMult,
		},
	}
}

// classify turns the engine outcome into nil for success or the failure to report.
func classify(url string, resp *network.Response, err error) error {
	if err != nil {
		return errortypes.NewTransportFailure(url, err)
	}
	if resp.StatusCode != http.StatusOK {
		return errortypes.NewStatusFailure(url, resp.StatusCode)
	}
	return nil
}

func beaconStatus(err error) metrics.BeaconStatus {
	if err == nil {
		return metrics.BeaconStatusOK
	}
	failure, ok := err.(*errortypes.TrackingFailure)
	if !ok {
		return metrics.BeaconStatusNetworkErr
	}
	switch {
	case failure.StatusCode != 0:
		return metrics.BeaconStatusHTTPErr
	case failure.IsTimeout():
		return metrics.BeaconStatusTimeout
	case errortypes.ReadCode(failure.Cause) == errortypes.QueueFullErrorCode:
		return metrics.BeaconStatusQueueFull
	}
	return metrics.BeaconStatusNetworkErr
}

// completion reports one engine outcome to the metrics engine and the listener.
func (d *Dispatcher) completion(source metrics.BeaconSource, req *network.Request, listener Listener) network.Callback {
	return func(resp *network.Response, err error) {
		failure := classify(req.URL, resp, err)

		labels := metrics.BeaconLabels{Source: source, Status: beaconStatus(failure)}
		d.metrics.RecordBeacon(labels)
		if submitted := req.Submitted(); !submitted.IsZero() {
			d.metrics.RecordBeaconTime(labels, time.Since(submitted))
		}

		// Callbacks run on engine workers, so listener panics stop here.
		defer func() {
			if r := recover(); r != nil {
				d.log.Errorf("Tracking listener panicked for %s: %v", req.URL, r)
			}
		}()

		if failure != nil {
			listener.OnErrorResponse(failure)
			return
		}
		listener.OnResponse(req.URL)
	}
}
