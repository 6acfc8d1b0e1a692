package analytics

import (
	"runtime"
	"strings"
	"time"

	"github.com/leshachaplin/tracklog/internal/config"
	transporthttp "github.com/leshachaplin/tracklog/internal/transport/http"
	"github.com/leshachaplin/tracklog/internal/worker"
)

const envPrefix = "TRACKLOG_"

const (
	DefaultAPIHost     = "https://api.mixpanel.com"
	DefaultTrackPath   = "/track"
	DefaultEngagePath  = "/engage"
	DefaultHTTPTimeout = 10 * time.Second
	DefaultWorkers     = 4
	DefaultQueueSize   = 256
)

// Config holds the project token, the backend endpoints and the device
// metadata registered as super properties.
type Config struct {
	Token      string `mapstructure:"token"`
	APIHost    string `mapstructure:"api_host"`
	TrackPath  string `mapstructure:"track_path"`
	EngagePath string `mapstructure:"engage_path"`

	Platform    string `mapstructure:"platform"`
	AppVersion  string `mapstructure:"app_version"`
	DeviceBrand string `mapstructure:"device_brand"`
	DeviceModel string `mapstructure:"device_model"`
	OSVersion   string `mapstructure:"os_version"`

	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
	Workers     int           `mapstructure:"workers"`
	QueueSize   int           `mapstructure:"queue_size"`
}

func DefaultConfig() Config {
	return Config{
		APIHost:     DefaultAPIHost,
		TrackPath:   DefaultTrackPath,
		EngagePath:  DefaultEngagePath,
		Platform:    runtime.GOOS,
		HTTPTimeout: DefaultHTTPTimeout,
		Workers:     DefaultWorkers,
		QueueSize:   DefaultQueueSize,
	}
}

// ConfigFromEnv reads TRACKLOG_* variables over the defaults, for example
// TRACKLOG_TOKEN and TRACKLOG_API_HOST.
func ConfigFromEnv() (Config, error) {
	d := DefaultConfig()

	var cfg Config
	err := config.LoadInto(&cfg, config.Source{
		EnvPrefix: envPrefix,
		Defaults: map[string]any{
			"api_host":     d.APIHost,
			"track_path":   d.TrackPath,
			"engage_path":  d.EngagePath,
			"platform":     d.Platform,
			"http_timeout": d.HTTPTimeout,
			"workers":      d.Workers,
			"queue_size":   d.QueueSize,
		},
	})
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.APIHost == "" {
		c.APIHost = d.APIHost
	}
	if c.TrackPath == "" {
		c.TrackPath = d.TrackPath
	}
	if c.EngagePath == "" {
		c.EngagePath = d.EngagePath
	}
	if c.Platform == "" {
		c.Platform = d.Platform
	}
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = d.HTTPTimeout
	}
	if c.Workers <= 0 {
		c.Workers = d.Workers
	}
	if c.QueueSize <= 0 {
		c.QueueSize = d.QueueSize
	}
	return c
}

func (c Config) transportConfig() transporthttp.Config {
	host := strings.TrimRight(c.APIHost, "/")
	return transporthttp.Config{
		Token:     c.Token,
		TrackURL:  host + c.TrackPath,
		EngageURL: host + c.EngagePath,
		Timeout:   c.HTTPTimeout,
		Worker: worker.Config{
			NumWorkers: c.Workers,
			QueueSize:  c.QueueSize,
		},
	}
}
