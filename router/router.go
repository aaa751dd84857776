package router

import (
	"net/http"
	"os"
	"time"

	"github.com/golang/glog"
	"github.com/julienschmidt/httprouter"
	"github.com/prebid/prebid-beacon/beacon"
	"github.com/prebid/prebid-beacon/config"
	"github.com/prebid/prebid-beacon/endpoints"
	"github.com/prebid/prebid-beacon/endpoints/events"
	"github.com/prebid/prebid-beacon/logger"
	"github.com/prebid/prebid-beacon/macros"
	metricsConf "github.com/prebid/prebid-beacon/metrics/config"
	"github.com/prebid/prebid-beacon/network"
	"github.com/prebid/prebid-beacon/router/aspects"
	"github.com/prebid/prebid-beacon/session"
	"github.com/prebid/prebid-beacon/ssl"
	"github.com/prebid/prebid-beacon/util/task"
	"github.com/rs/cors"
)

// Router is the main handler. It owns every long lived component behind the endpoints.
type Router struct {
	*httprouter.Router
	MetricsEngine *metricsConf.DetailedMetricsEngine
	Dispatcher    *beacon.Dispatcher
	Sessions      *session.Store

	queue     *network.RequestQueue
	statsTask *task.TickerTask
}

// New builds the dispatcher stack from cfg and registers the routes.
func New(cfg *config.Configuration) (r *Router, err error) {
	r = &Router{
		Router:        httprouter.New(),
		MetricsEngine: metricsConf.NewMetricsEngine(cfg),
	}

	log, err := newLogger(cfg.Log)
	if err != nil {
		return nil, err
	}
	logger.SetDefault(log)

	// For tracking requests, we need both the system certificates and the certificates found in
	// the configured file
	certPool, readCertErr := ssl.AppendPEMFileToRootCAPool(ssl.GetRootCAPool(), cfg.Beacon.PemCertsFile)
	if readCertErr != nil {
		glog.Infof("Could not read certificates file: %s \n", readCertErr.Error())
	}

	r.queue = network.NewRequestQueue(network.NewHTTPClient(cfg.Beacon, certPool), cfg.Beacon)
	r.queue.Start()

	resolver := macros.NewResolver(macros.NewReplacerWithCache(cfg.Macros.StartDelimiter, cfg.Macros.EndDelimiter, macros.TemplateCacheOptions{
		TTL:             cfg.Macros.TemplateCacheTTL(),
		CleanupInterval: cfg.Macros.TemplateCacheCleanupInterval(),
		MaxEntries:      cfg.Macros.TemplateCacheMaxEntries,
	}))
	r.Dispatcher = beacon.NewDispatcher(r.queue, cfg.Beacon, resolver, r.MetricsEngine, log)
	r.Sessions = session.NewStore(cfg.Sessions)

	r.statsTask = newStatsTask(cfg.Beacon.StatsInterval(), r.queue, r.Sessions, r.MetricsEngine)
	r.statsTask.Start()

	withTimeout := func(h httprouter.Handle) httprouter.Handle {
		return aspects.QueuedRequestTimeout(h, cfg.RequestTimeoutHeaders)
	}

	vastEndpoint := events.NewVastEndpoint(r.Dispatcher, r.Sessions, cfg.MaxRequestSize)

	r.POST("/beacons", withTimeout(endpoints.NewBeaconsEndpoint(r.Dispatcher, cfg.MaxRequestSize)))
	r.POST("/vast/sessions", withTimeout(vastEndpoint.CreateSession))
	r.DELETE("/vast/sessions/:id", vastEndpoint.DeleteSession)
	r.GET("/vast/sessions/:id/events/:event", withTimeout(vastEndpoint.SessionEvent))
	r.POST("/vast/sessions/:id/events/:event", withTimeout(vastEndpoint.SessionEvent))
	r.POST("/vast/events/:event", withTimeout(vastEndpoint.OneShotEvent))
	r.GET("/status", endpoints.NewStatusEndpoint(cfg.StatusResponse))

	return r, nil
}

// Shutdown stops the stats task and waits for the queued tracking requests to complete.
func (r *Router) Shutdown() {
	r.statsTask.Stop()
	r.queue.Stop()
}

func newLogger(cfg config.Log) (logger.Logger, error) {
	if cfg.Backend == "logrus" {
		return logger.NewLogrusLogger(os.Stderr, cfg.Level, cfg.JSON)
	}
	return logger.NewGlogLogger(), nil
}

type queueDepther interface {
	Pending() int
}

type sessionCounter interface {
	Count() int
}

type metricsRecorder interface {
	RecordQueueDepth(depth int)
	RecordActiveSessions(count int)
}

// newStatsTask reports the queue depth and the session count on every tick.
func newStatsTask(interval time.Duration, queue queueDepther, sessions sessionCounter, metricsEngine metricsRecorder) *task.TickerTask {
	return task.NewNamedTickerTaskFromFunc("beacon stats", interval, func() error {
		depth := queue.Pending()
		count := sessions.Count()
		metricsEngine.RecordQueueDepth(depth)
		metricsEngine.RecordActiveSessions(count)
		logger.Debugf("request queue depth: %d, active sessions: %d", depth, count)
		return nil
	})
}

// SupportCORS wraps handler so that browsers may fire beacons from any origin.
func SupportCORS(handler http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowCredentials: true,
		AllowOriginFunc: func(string) bool {
			return true
		},
		AllowedHeaders: []string{"Origin", "X-Requested-With", "Content-Type", "Accept"}})
	return c.Handler(handler)
}

type NoCache struct {
	Handler http.Handler
}

func (m NoCache) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Add("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Add("Pragma", "no-cache")
	w.Header().Add("Expires", "0")
	m.Handler.ServeHTTP(w, r)
}
