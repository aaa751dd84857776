package router

import (
	"net/http"
	"net/http/pprof"

	"github.com/prebid/prebid-beacon/endpoints"
	metricsConf "github.com/prebid/prebid-beacon/metrics/config"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Admin returns the handler of the admin port: version, pprof and, when the Prometheus engine
// is enabled, its metrics.
func Admin(version, revision string, metricsEngine *metricsConf.DetailedMetricsEngine) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/version", endpoints.NewVersionEndpoint(version, revision))

	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	if metricsEngine != nil && metricsEngine.PrometheusMetrics != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(metricsEngine.PrometheusMetrics.Gatherer, promhttp.HandlerOpts{}))
	}

	return mux
}
