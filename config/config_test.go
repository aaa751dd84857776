package config

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fullConfig = []byte(`
host: beacon.prebid.org
port: 1234
admin_port: 5678
status_response: ok
enable_cors: false
enable_gzip: true
max_request_size: 2048
beacon:
  timeout_ms: 750
  queue_size: 10
  workers: 2
  max_idle_conns: 20
  max_idle_conns_per_host: 5
  idle_conn_timeout_seconds: 30
  requests_per_second: 100
  burst: 10
  stats_interval_seconds: 15
macros:
  start_delimiter: "##"
  end_delimiter: "##"
  template_cache_ttl_seconds: 30
  template_cache_cleanup_interval_seconds: 5
  template_cache_max_entries: 500
log:
  backend: logrus
  level: debug
  json: true
sessions:
  ttl_seconds: 120
  cleanup_interval_seconds: 10
  max_count: 50
metrics:
  influxdb:
    host: http://influx.prebid.org:8086
    database: beacons
    measurement: tracking
    username: admin
    password: secret
    metric_send_interval: 30
  prometheus:
    port: 8765
    namespace: pbb
    subsystem: dispatcher
    timeout_ms: 500
`)

func cmpStrings(t *testing.T, key string, a string, b string) {
	t.Helper()
	assert.Equal(t, a, b, "%s: %s != %s", key, a, b)
}

func cmpInts(t *testing.T, key string, a int, b int) {
	t.Helper()
	assert.Equal(t, a, b, "%s: %d != %d", key, a, b)
}

func cmpBools(t *testing.T, key string, a bool, b bool) {
	t.Helper()
	assert.Equal(t, a, b, "%s: %t != %t", key, a, b)
}

func TestDefaults(t *testing.T) {
	v := viper.New()
	SetupViper(v, "")
	cfg, err := New(v)
	require.NoError(t, err, "Default configuration should be valid")

	cmpInts(t, "port", cfg.Port, 8000)
	cmpInts(t, "admin_port", cfg.AdminPort, 6060)
	cmpBools(t, "enable_cors", cfg.EnableCORS, true)
	cmpInts(t, "beacon.timeout_ms", cfg.Beacon.TimeoutMs, 2500)
	cmpInts(t, "beacon.queue_size", cfg.Beacon.QueueSize, 4096)
	cmpInts(t, "beacon.workers", cfg.Beacon.Workers, 16)
	cmpStrings(t, "macros.start_delimiter", cfg.Macros.StartDelimiter, "[")
	cmpStrings(t, "macros.end_delimiter", cfg.Macros.EndDelimiter, "]")
	assert.Equal(t, 10*time.Minute, cfg.Macros.TemplateCacheTTL())
	assert.Equal(t, time.Minute, cfg.Macros.TemplateCacheCleanupInterval())
	cmpInts(t, "macros.template_cache_max_entries", cfg.Macros.TemplateCacheMaxEntries, 10000)
	cmpStrings(t, "metrics.influxdb.host", cfg.Metrics.Influxdb.Host, "")
	assert.Equal(t, 2500*time.Millisecond, cfg.Beacon.Timeout())
	assert.Equal(t, 60*time.Second, cfg.Beacon.StatsInterval())
	assert.Equal(t, time.Hour, cfg.Sessions.TTL())
	assert.Equal(t, 5*time.Minute, cfg.Sessions.CleanupInterval())
	cmpInts(t, "sessions.max_count", cfg.Sessions.MaxCount, 100000)
	cmpStrings(t, "log.backend", cfg.Log.Backend, "glog")
}

func TestFullConfig(t *testing.T) {
	v := viper.New()
	SetupViper(v, "")
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(bytes.NewBuffer(fullConfig)))
	cfg, err := New(v)
	require.NoError(t, err, "Setting up config should work but it doesn't")

	cmpStrings(t, "host", cfg.Host, "beacon.prebid.org")
	cmpInts(t, "port", cfg.Port, 1234)
	cmpInts(t, "admin_port", cfg.AdminPort, 5678)
	cmpStrings(t, "status_response", cfg.StatusResponse, "ok")
	cmpBools(t, "enable_cors", cfg.EnableCORS, false)
	cmpBools(t, "enable_gzip", cfg.EnableGzip, true)
	assert.Equal(t, int64(2048), cfg.MaxRequestSize)
	cmpInts(t, "beacon.timeout_ms", cfg.Beacon.TimeoutMs, 750)
	cmpInts(t, "beacon.queue_size", cfg.Beacon.QueueSize, 10)
	cmpInts(t, "beacon.workers", cfg.Beacon.Workers, 2)
	cmpInts(t, "beacon.max_idle_conns", cfg.Beacon.MaxIdleConns, 20)
	cmpInts(t, "beacon.max_idle_conns_per_host", cfg.Beacon.MaxIdleConnsPerHost, 5)
	assert.Equal(t, 30*time.Second, cfg.Beacon.IdleConnTimeout())
	assert.Equal(t, 100.0, cfg.Beacon.RequestsPerSecond)
	cmpInts(t, "beacon.burst", cfg.Beacon.Burst, 10)
	cmpStrings(t, "macros.start_delimiter", cfg.Macros.StartDelimiter, "##")
	assert.Equal(t, 30*time.Second, cfg.Macros.TemplateCacheTTL())
	assert.Equal(t, 5*time.Second, cfg.Macros.TemplateCacheCleanupInterval())
	cmpInts(t, "macros.template_cache_max_entries", cfg.Macros.TemplateCacheMaxEntries, 500)
	assert.Equal(t, 2*time.Minute, cfg.Sessions.TTL())
	assert.Equal(t, 10*time.Second, cfg.Sessions.CleanupInterval())
	cmpInts(t, "sessions.max_count", cfg.Sessions.MaxCount, 50)
	cmpStrings(t, "log.backend", cfg.Log.Backend, "logrus")
	cmpStrings(t, "log.level", cfg.Log.Level, "debug")
	cmpBools(t, "log.json", cfg.Log.JSON, true)
	cmpStrings(t, "metrics.influxdb.host", cfg.Metrics.Influxdb.Host, "http://influx.prebid.org:8086")
	cmpStrings(t, "metrics.influxdb.measurement", cfg.Metrics.Influxdb.Measurement, "tracking")
	cmpInts(t, "metrics.influxdb.metric_send_interval", cfg.Metrics.Influxdb.MetricSendInterval, 30)
	cmpInts(t, "metrics.prometheus.port", cfg.Metrics.Prometheus.Port, 8765)
	cmpStrings(t, "metrics.prometheus.namespace", cfg.Metrics.Prometheus.Namespace, "pbb")
	assert.Equal(t, 500*time.Millisecond, cfg.Metrics.Prometheus.Timeout())
}

func TestEnvironmentOverride(t *testing.T) {
	t.Setenv("PBB_BEACON_TIMEOUT_MS", "1200")

	v := viper.New()
	SetupViper(v, "")
	cfg, err := New(v)
	require.NoError(t, err)

	cmpInts(t, "beacon.timeout_ms", cfg.Beacon.TimeoutMs, 1200)
}

func TestValidation(t *testing.T) {
	testCases := []struct {
		description string
		mutate      func(cfg *Configuration)
		expErrors   int
	}{
		{
			description: "valid",
			mutate:      func(cfg *Configuration) {},
			expErrors:   0,
		},
		{
			description: "non positive timeout",
			mutate:      func(cfg *Configuration) { cfg.Beacon.TimeoutMs = 0 },
			expErrors:   1,
		},
		{
			description: "no workers and no queue",
			mutate: func(cfg *Configuration) {
				cfg.Beacon.Workers = 0
				cfg.Beacon.QueueSize = -1
			},
			expErrors: 2,
		},
		{
			description: "rate limit without burst",
			mutate:      func(cfg *Configuration) { cfg.Beacon.RequestsPerSecond = 5 },
			expErrors:   1,
		},
		{
			description: "only one macro delimiter",
			mutate:      func(cfg *Configuration) { cfg.Macros.EndDelimiter = "" },
			expErrors:   1,
		},
		{
			description: "negative template cache size",
			mutate:      func(cfg *Configuration) { cfg.Macros.TemplateCacheMaxEntries = -1 },
			expErrors:   1,
		},
		{
			description: "template cache without expiry",
			mutate:      func(cfg *Configuration) { cfg.Macros.TemplateCacheTTLSeconds = 0 },
			expErrors:   1,
		},
		{
			description: "disabled template cache needs no expiry",
			mutate: func(cfg *Configuration) {
				cfg.Macros.TemplateCacheMaxEntries = 0
				cfg.Macros.TemplateCacheTTLSeconds = 0
			},
			expErrors: 0,
		},
		{
			description: "invalid influx host",
			mutate:      func(cfg *Configuration) { cfg.Metrics.Influxdb.Host = "not a url" },
			expErrors:   1,
		},
		{
			description: "sessions never expire",
			mutate: func(cfg *Configuration) {
				cfg.Sessions.TTLSeconds = 0
				cfg.Sessions.CleanupIntervalSeconds = 0
			},
			expErrors: 2,
		},
		{
			description: "unknown log backend",
			mutate:      func(cfg *Configuration) { cfg.Log.Backend = "syslog" },
			expErrors:   1,
		},
		{
			description: "same port twice",
			mutate:      func(cfg *Configuration) { cfg.AdminPort = cfg.Port },
			expErrors:   1,
		},
	}

	for _, test := range testCases {
		v := viper.New()
		SetupViper(v, "")
		cfg, err := New(v)
		require.NoError(t, err)

		test.mutate(cfg)
		assert.Len(t, cfg.validate(), test.expErrors, test.description)
	}
}

func TestNewReturnsAggregateError(t *testing.T) {
	v := viper.New()
	SetupViper(v, "")
	v.Set("beacon.workers", 0)
	v.Set("beacon.timeout_ms", -1)

	_, err := New(v)
	require.Error(t, err)
	aggregate, ok := err.(AggregateError)
	require.True(t, ok)
	assert.Len(t, aggregate.Errors, 2)
	assert.Contains(t, err.Error(), "beacon.workers")
}
