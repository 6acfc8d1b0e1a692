package config

import (
	"github.com/leshachaplin/tracklog/internal/storage/event/clickhouse"
	"github.com/leshachaplin/tracklog/internal/worker"
	"github.com/leshachaplin/tracklog/internal/worker/redpanda/consumer"
	"github.com/leshachaplin/tracklog/internal/worker/redpanda/producer"
)

const collectorEnvPrefix = "COLLECTOR_"

// Config is the main config for the collector
type Config struct {
	LogLevel      string            `mapstructure:"log_level"`
	Addr          string            `mapstructure:"addr"`
	Token         string            `mapstructure:"token"`
	Tracing       bool              `mapstructure:"tracing"`
	Clickhouse    clickhouse.Config `mapstructure:"clickhouse"`
	EventWorker   worker.Config     `mapstructure:"event_worker"`
	EventProducer producer.Config   `mapstructure:"event_producer"`
	EventConsumer consumer.Config   `mapstructure:"event_consumer"`
}

var collectorDefaults = map[string]any{
	"log_level":                     "INFO",
	"addr":                          ":8080",
	"event_worker.num_workers":      8,
	"event_producer.topic":          "events",
	"event_consumer.topics":         []string{"events"},
	"event_consumer.consumer_group": "collector",
}

// Load reads the collector config from the optional YAML file at path and
// then from COLLECTOR_* environment variables.
func Load(path string) (Config, error) {
	var cfg Config
	if err := LoadInto(&cfg, Source{
		EnvPrefix: collectorEnvPrefix,
		File:      path,
		Defaults:  collectorDefaults,
	}); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
