package beacon

import (
	"strings"

	"github.com/prebid/prebid-beacon/config"
	"github.com/prebid/prebid-beacon/logger"
	"github.com/prebid/prebid-beacon/macros"
	"github.com/prebid/prebid-beacon/metrics"
	"github.com/prebid/prebid-beacon/network"
)

// Dispatcher fires tracking beacons through a shared network.Engine. Every method returns
// without waiting for the network.
type Dispatcher struct {
	engine    network.Engine
	resolver  *macros.Resolver
	metrics   metrics.MetricsEngine
	log       logger.Logger
	timeoutMs int
}

// NewDispatcher returns a Dispatcher submitting to engine. A nil log uses the process logger.
func NewDispatcher(engine network.Engine, cfg config.Beacon, resolver *macros.Resolver, metricsEngine metrics.MetricsEngine, log logger.Logger) *Dispatcher {
	if log == nil {
		log = logger.Default()
	}
	timeoutMs := cfg.TimeoutMs
	if timeoutMs <= 0 {
		timeoutMs = network.DefaultTimeoutMs
	}
	return &Dispatcher{
		engine:    engine,
		resolver:  resolver,
		metrics:   metricsEngine,
		log:       log,
		timeoutMs: timeoutMs,
	}
}

// FireAll submits one independent request per URL. A nil slice is a no-op, and blank
// entries are skipped without a callback. listener may be nil.
func (d *Dispatcher) FireAll(urls []string, listener Listener) {
	d.fireAll(metrics.SourceDirect, urls, listener)
}

// Fire submits a single URL. See FireAll.
func (d *Dispatcher) Fire(url string, listener Listener) {
	d.FireAll([]string{url}, listener)
}

// fireAll returns the number of requests submitted.
func (d *Dispatcher) fireAll(source metrics.BeaconSource, urls []string, listener Listener) int {
	if urls == nil {
		return 0
	}

	submitted := 0
	for _, url := range urls {
		if strings.TrimSpace(url) == "" {
			d.metrics.RecordBeaconSkipped(source)
			continue
		}

		req := newTrackingRequest(url, d.timeoutMs)
		l := Chain(newLoggingListener(url, d.log), listener)
		d.engine.Add(req, d.completion(source, req, l))
		submitted++
	}
	return submitted
}
