package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	validator "github.com/asaskevich/govalidator"
	"github.com/golang/glog"
	"github.com/spf13/viper"
)

// Configuration
type Configuration struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	AdminPort int    `mapstructure:"admin_port"`
	// StatusResponse is written by the /status endpoint. Empty means 204 No Content.
	StatusResponse string   `mapstructure:"status_response"`
	EnableCORS     bool     `mapstructure:"enable_cors"`
	EnableGzip     bool     `mapstructure:"enable_gzip"`
	MaxRequestSize int64    `mapstructure:"max_request_size"`
	Beacon         Beacon   `mapstructure:"beacon"`
	Macros         Macros   `mapstructure:"macros"`
	Sessions       Sessions `mapstructure:"sessions"`
	Log            Log      `mapstructure:"log"`
	Metrics        Metrics  `mapstructure:"metrics"`

	// RequestTimeoutHeaders names the headers an upstream proxy uses to report queueing time.
	RequestTimeoutHeaders RequestTimeoutHeaders `mapstructure:"request_timeout_headers"`
}

// Beacon configures the HTTP engine tracking requests are submitted to.
type Beacon struct {
	// TimeoutMs bounds every tracking request. Requests are never retried.
	TimeoutMs              int `mapstructure:"timeout_ms"`
	QueueSize              int `mapstructure:"queue_size"`
	Workers                int `mapstructure:"workers"`
	MaxIdleConns           int `mapstructure:"max_idle_conns"`
	MaxIdleConnsPerHost    int `mapstructure:"max_idle_conns_per_host"`
	IdleConnTimeoutSeconds int `mapstructure:"idle_conn_timeout_seconds"`
	// RequestsPerSecond caps the outbound request rate. Zero disables the limit.
	RequestsPerSecond    float64 `mapstructure:"requests_per_second"`
	Burst                int     `mapstructure:"burst"`
	StatsIntervalSeconds int     `mapstructure:"stats_interval_seconds"`
	// PemCertsFile holds extra root certificates trusted for https tracking endpoints.
	PemCertsFile string `mapstructure:"pem_certs_file"`
}

func (cfg *Beacon) Timeout() time.Duration {
	return time.Duration(cfg.TimeoutMs) * time.Millisecond
}

func (cfg *Beacon) IdleConnTimeout() time.Duration {
	return time.Duration(cfg.IdleConnTimeoutSeconds) * time.Second
}

func (cfg *Beacon) StatsInterval() time.Duration {
	return time.Duration(cfg.StatsIntervalSeconds) * time.Second
}

func (cfg *Beacon) validate(errs []error) []error {
	if cfg.TimeoutMs <= 0 {
		errs = append(errs, fmt.Errorf("beacon.timeout_ms must be positive. Got %d", cfg.TimeoutMs))
	}
	if cfg.QueueSize <= 0 {
		errs = append(errs, fmt.Errorf("beacon.queue_size must be positive. Got %d", cfg.QueueSize))
	}
	if cfg.Workers <= 0 {
		errs = append(errs, fmt.Errorf("beacon.workers must be positive. Got %d", cfg.Workers))
	}
	if cfg.RequestsPerSecond < 0 {
		errs = append(errs, fmt.Errorf("beacon.requests_per_second must not be negative. Got %f", cfg.RequestsPerSecond))
	}
	if cfg.RequestsPerSecond > 0 && cfg.Burst <= 0 {
		errs = append(errs, errors.New("beacon.burst must be positive when beacon.requests_per_second is set"))
	}
	return errs
}

// Macros configures the delimiters around macro names in tracker URLs and the cache of
// parsed URL templates.
type Macros struct {
	StartDelimiter string `mapstructure:"start_delimiter"`
	EndDelimiter   string `mapstructure:"end_delimiter"`

	TemplateCacheTTLSeconds             int `mapstructure:"template_cache_ttl_seconds"`
	TemplateCacheCleanupIntervalSeconds int `mapstructure:"template_cache_cleanup_interval_seconds"`
	// TemplateCacheMaxEntries caps the cached templates. 0 disables the cache.
	TemplateCacheMaxEntries int `mapstructure:"template_cache_max_entries"`
}

func (cfg *Macros) TemplateCacheTTL() time.Duration {
	return time.Duration(cfg.TemplateCacheTTLSeconds) * time.Second
}

func (cfg *Macros) TemplateCacheCleanupInterval() time.Duration {
	return time.Duration(cfg.TemplateCacheCleanupIntervalSeconds) * time.Second
}

func (cfg *Macros) validate(errs []error) []error {
	if (cfg.StartDelimiter == "") != (cfg.EndDelimiter == "") {
		errs = append(errs, errors.New("macros.start_delimiter and macros.end_delimiter must be set together"))
	}
	if cfg.TemplateCacheMaxEntries < 0 {
		errs = append(errs, fmt.Errorf("macros.template_cache_max_entries must not be negative. Got %d", cfg.TemplateCacheMaxEntries))
	}
	if cfg.TemplateCacheMaxEntries > 0 && cfg.TemplateCacheTTLSeconds <= 0 {
		errs = append(errs, fmt.Errorf("macros.template_cache_ttl_seconds must be positive when the template cache is enabled. Got %d", cfg.TemplateCacheTTLSeconds))
	}
	if cfg.TemplateCacheCleanupIntervalSeconds < 0 {
		errs = append(errs, fmt.Errorf("macros.template_cache_cleanup_interval_seconds must not be negative. Got %d", cfg.TemplateCacheCleanupIntervalSeconds))
	}
	return errs
}

type RequestTimeoutHeaders struct {
	RequestTimeInQueue    string `mapstructure:"request_time_in_queue"`
	RequestTimeoutInQueue string `mapstructure:"request_timeout_in_queue"`
}

// Log selects the logging backend. The glog backend is configured through its own flags.
type Log struct {
	Backend string `mapstructure:"backend"`
	Level   string `mapstructure:"level"`
	JSON    bool   `mapstructure:"json"`
}

func (cfg *Log) validate(errs []error) []error {
	if cfg.Backend != "glog" && cfg.Backend != "logrus" {
		errs = append(errs, fmt.Errorf("log.backend must be one of glog, logrus. Got %s", cfg.Backend))
	}
	return errs
}

// Sessions configures how long parsed VAST documents keep their tracker state.
type Sessions struct {
	TTLSeconds             int `mapstructure:"ttl_seconds"`
	CleanupIntervalSeconds int `mapstructure:"cleanup_interval_seconds"`
	MaxCount               int `mapstructure:"max_count"`
}

func (cfg *Sessions) TTL() time.Duration {
	return time.Duration(cfg.TTLSeconds) * time.Second
}

func (cfg *Sessions) CleanupInterval() time.Duration {
	return time.Duration(cfg.CleanupIntervalSeconds) * time.Second
}

func (cfg *Sessions) validate(errs []error) []error {
	if cfg.TTLSeconds <= 0 {
		errs = append(errs, fmt.Errorf("sessions.ttl_seconds must be positive. Got %d", cfg.TTLSeconds))
	}
	if cfg.CleanupIntervalSeconds <= 0 {
		errs = append(errs, fmt.Errorf("sessions.cleanup_interval_seconds must be positive. Got %d", cfg.CleanupIntervalSeconds))
	}
	if cfg.MaxCount < 0 {
		errs = append(errs, fmt.Errorf("sessions.max_count must not be negative. Got %d", cfg.MaxCount))
	}
	return errs
}

type Metrics struct {
	Influxdb   InfluxMetrics     `mapstructure:"influxdb"`
	Prometheus PrometheusMetrics `mapstructure:"prometheus"`
}

type InfluxMetrics struct {
	Host               string `mapstructure:"host"`
	Database           string `mapstructure:"database"`
	Measurement        string `mapstructure:"measurement"`
	Username           string `mapstructure:"username"`
	Password           string `mapstructure:"password"`
	MetricSendInterval int    `mapstructure:"metric_send_interval"`
}

func (cfg *InfluxMetrics) validate(errs []error) []error {
	if cfg.Host == "" {
		return errs
	}
	if !isValidURL(cfg.Host) {
		errs = append(errs, fmt.Errorf("metrics.influxdb.host must be a valid URL. Got %s", cfg.Host))
	}
	if cfg.MetricSendInterval <= 0 {
		errs = append(errs, fmt.Errorf("metrics.influxdb.metric_send_interval must be positive. Got %d", cfg.MetricSendInterval))
	}
	return errs
}

type PrometheusMetrics struct {
	Port             int    `mapstructure:"port"`
	Namespace        string `mapstructure:"namespace"`
	Subsystem        string `mapstructure:"subsystem"`
	TimeoutMillisRaw int    `mapstructure:"timeout_ms"`
}

func (cfg *PrometheusMetrics) Timeout() time.Duration {
	return time.Duration(cfg.TimeoutMillisRaw) * time.Millisecond
}

func (cfg *PrometheusMetrics) validate(errs []error) []error {
	if cfg.Port > 0 && cfg.TimeoutMillisRaw <= 0 {
		errs = append(errs, errors.New("metrics.prometheus.timeout_ms must be positive"))
	}
	return errs
}

func (cfg *Configuration) validate() []error {
	var errs []error
	if cfg.Port <= 0 {
		errs = append(errs, fmt.Errorf("port must be positive. Got %d", cfg.Port))
	}
	if cfg.AdminPort == cfg.Port {
		errs = append(errs, fmt.Errorf("admin_port must differ from port. Got %d", cfg.AdminPort))
	}
	if cfg.MaxRequestSize <= 0 {
		errs = append(errs, fmt.Errorf("max_request_size must be positive. Got %d", cfg.MaxRequestSize))
	}
	errs = cfg.Beacon.validate(errs)
	errs = cfg.Macros.validate(errs)
	errs = cfg.Sessions.validate(errs)
	errs = cfg.Log.validate(errs)
	errs = cfg.Metrics.Influxdb.validate(errs)
	errs = cfg.Metrics.Prometheus.validate(errs)
	return errs
}

// New uses viper to get our server configurations.
func New(v *viper.Viper) (*Configuration, error) {
	var c Configuration
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("viper failed to unmarshal app config: %v", err)
	}

	glog.Info("Logging the resolved configuration:")
	logGeneral(v)

	if errs := c.validate(); len(errs) > 0 {
		return &c, newAggregateError(errs)
	}
	return &c, nil
}

// SetupViper sets the defaults for every configuration value, binds environment variables
// with the PBB_ prefix and reads the named config file if one exists.
func SetupViper(v *viper.Viper, filename string) {
	if filename != "" {
		v.SetConfigName(filename)
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/config")
	}

	v.SetDefault("host", "")
	v.SetDefault("port", 8000)
	v.SetDefault("admin_port", 6060)
	v.SetDefault("status_response", "")
	v.SetDefault("enable_cors", true)
	v.SetDefault("enable_gzip", false)
	v.SetDefault("max_request_size", 1024*256)

	v.SetDefault("beacon.timeout_ms", 2500)
	v.SetDefault("beacon.queue_size", 4096)
	v.SetDefault("beacon.workers", 16)
	v.SetDefault("beacon.max_idle_conns", 400)
	v.SetDefault("beacon.max_idle_conns_per_host", 10)
	v.SetDefault("beacon.idle_conn_timeout_seconds", 60)
	v.SetDefault("beacon.requests_per_second", 0)
	v.SetDefault("beacon.burst", 0)
	v.SetDefault("beacon.stats_interval_seconds", 60)
	v.SetDefault("beacon.pem_certs_file", "")

	v.SetDefault("macros.start_delimiter", "[")
	v.SetDefault("macros.end_delimiter", "]")
	v.SetDefault("macros.template_cache_ttl_seconds", 600)
	v.SetDefault("macros.template_cache_cleanup_interval_seconds", 60)
	v.SetDefault("macros.template_cache_max_entries", 10000)

	v.SetDefault("request_timeout_headers.request_time_in_queue", "")
	v.SetDefault("request_timeout_headers.request_timeout_in_queue", "")

	v.SetDefault("log.backend", "glog")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)

	v.SetDefault("sessions.ttl_seconds", 3600)
	v.SetDefault("sessions.cleanup_interval_seconds", 300)
	v.SetDefault("sessions.max_count", 100000)

	v.SetDefault("metrics.influxdb.host", "")
	v.SetDefault("metrics.influxdb.database", "")
	v.SetDefault("metrics.influxdb.measurement", "")
	v.SetDefault("metrics.influxdb.username", "")
	v.SetDefault("metrics.influxdb.password", "")
	v.SetDefault("metrics.influxdb.metric_send_interval", 20)
	v.SetDefault("metrics.prometheus.port", 0)
	v.SetDefault("metrics.prometheus.namespace", "")
	v.SetDefault("metrics.prometheus.subsystem", "")
	v.SetDefault("metrics.prometheus.timeout_ms", 10000)

	v.SetEnvPrefix("PBB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if filename != "" {
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				glog.Warningf("Error reading config file %s: %v", filename, err)
			}
		}
	}
}

// isValidURL validates a configured endpoint URL
func isValidURL(endpoint string) bool {
	return validator.IsURL(endpoint) && validator.IsRequestURL(endpoint)
}

func logGeneral(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		if strings.Contains(key, "password") {
			continue
		}
		glog.Infof("config.%s: %v", key, v.Get(key))
	}
}
