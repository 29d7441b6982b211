package ops

import (
	"os"
	"strings"
	"time"

	"finfo/internal/recorder"
	"finfo/internal/sink"
	"finfo/pkg/exception"

	"github.com/yanun0323/errors"
	"gopkg.in/yaml.v3"
)

// Environment variables applied on top of the file.
const (
	EnvSinkURL     = "INFLUX_URL"
	EnvDatabase    = "DATABASE"
	EnvToken       = "INFLUXDB_AUTH_TOKEN"
	EnvQueryURL    = "INFLUXURL"
	EnvQuoteURL    = "QUOTE_API_URL"
	EnvQuoteToken  = "QUOTE_API_TOKEN"
	EnvWatchlist   = "WATCHLIST"
	EnvMetricsAddr = "METRICS_ADDR"
)

// Config mirrors the YAML config layout.
type Config struct {
	Sink      SinkConfig      `yaml:"sink"`
	Writer    WriterConfig    `yaml:"writer"`
	Retry     RetryConfig     `yaml:"retry"`
	Producer  ProducerConfig  `yaml:"producer"`
	Quote     QuoteConfig     `yaml:"quote"`
	Watchlist WatchlistConfig `yaml:"watchlist"`
	Query     QueryConfig     `yaml:"query"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Profile   ProfileConfig   `yaml:"profile"`
}

// SinkConfig describes the line protocol write endpoint.
type SinkConfig struct {
	URL       string        `yaml:"url"`
	Database  string        `yaml:"database"`
	Token     string        `yaml:"token"`
	Precision string        `yaml:"precision"`
	Timeout   time.Duration `yaml:"timeout"`
}

// WriterConfig describes batching.
type WriterConfig struct {
	BatchMax      int           `yaml:"batch_max"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	QueueSize     int           `yaml:"queue_size"`
	TimerMode     string        `yaml:"timer_mode"`
}

// RetryConfig describes the sink retry policy.
type RetryConfig struct {
	Attempts  int           `yaml:"attempts"`
	BaseDelay time.Duration `yaml:"base_delay"`
	MaxDelay  time.Duration `yaml:"max_delay"`
}

// ProducerConfig describes quote polling.
type ProducerConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
}

// QuoteConfig describes the quote API.
type QuoteConfig struct {
	BaseURL string        `yaml:"base_url"`
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout"`
}

// WatchlistConfig lists the symbol sources. The first non-empty one wins,
// in the order Symbols, Env, File, Redis, Postgres.
type WatchlistConfig struct {
	Symbols  []string          `yaml:"symbols"`
	Env      string            `yaml:"env"`
	File     string            `yaml:"file"`
	Redis    RedisSourceConfig `yaml:"redis"`
	Postgres PGSourceConfig    `yaml:"postgres"`
}

// RedisSourceConfig reads symbols from a Redis set.
type RedisSourceConfig struct {
	URL string `yaml:"url"`
	Key string `yaml:"key"`
}

// PGSourceConfig reads symbols from a Postgres table.
type PGSourceConfig struct {
	DSN   string `yaml:"dsn"`
	Table string `yaml:"table"`
}

// QueryConfig describes the FlightSQL read endpoint.
type QueryConfig struct {
	Addr     string        `yaml:"addr"`
	Database string        `yaml:"database"`
	Token    string        `yaml:"token"`
	TLS      bool          `yaml:"tls"`
	Timeout  time.Duration `yaml:"timeout"`
}

// MetricsConfig describes the Prometheus endpoint. Empty Addr disables it.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// ProfileConfig describes continuous profiling. Empty Addr disables it.
type ProfileConfig struct {
	PyroscopeAddr string `yaml:"pyroscope_addr"`
	AppName       string `yaml:"app_name"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	sinkDefault := sink.DefaultConfig("", "", "")
	writerDefault := recorder.DefaultConfig()
	return Config{
		Sink: SinkConfig{
			Precision: sinkDefault.Precision,
			Timeout:   sinkDefault.Timeout,
		},
		Writer: WriterConfig{
			BatchMax:      writerDefault.BatchMax,
			FlushInterval: writerDefault.FlushInterval,
			QueueSize:     writerDefault.QueueSize,
			TimerMode:     writerDefault.TimerMode.String(),
		},
		Retry: RetryConfig{
			Attempts:  sinkDefault.Attempts,
			BaseDelay: sinkDefault.Backoff.Base,
			MaxDelay:  sinkDefault.Backoff.Max,
		},
		Producer: ProducerConfig{
			PollInterval: 30 * time.Second,
		},
		Quote: QuoteConfig{
			Timeout: 10 * time.Second,
		},
		Watchlist: WatchlistConfig{
			Redis:    RedisSourceConfig{Key: "watchlist"},
			Postgres: PGSourceConfig{Table: "watchlist"},
		},
		Query: QueryConfig{
			Timeout: 30 * time.Second,
		},
		Profile: ProfileConfig{
			AppName: "finfo.ingest",
		},
	}
}

// Load reads a YAML config file, applies environment overrides and validates.
// An empty path starts from Default.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, errors.Wrap(err, "read config")
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, errors.Wrapf(exception.ErrConfigInvalid, "decode %s: %v", path, err)
		}
	}
	cfg.ApplyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields with any environment variable that is set.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	set := func(dst *string, key string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	set(&c.Sink.URL, EnvSinkURL)
	set(&c.Sink.Database, EnvDatabase)
	set(&c.Sink.Token, EnvToken)
	set(&c.Query.Addr, EnvQueryURL)
	set(&c.Query.Database, EnvDatabase)
	set(&c.Query.Token, EnvToken)
	set(&c.Quote.BaseURL, EnvQuoteURL)
	set(&c.Quote.Token, EnvQuoteToken)
	set(&c.Watchlist.Env, EnvWatchlist)
	set(&c.Metrics.Addr, EnvMetricsAddr)
}

// Validate checks value ranges. Endpoint presence is checked by the component that needs it.
func (c Config) Validate() error {
	if c.Writer.BatchMax < 1 {
		return errors.Wrap(exception.ErrConfigInvalid, "writer.batch_max must be >= 1")
	}
	if c.Writer.FlushInterval <= 0 {
		return errors.Wrap(exception.ErrConfigInvalid, "writer.flush_interval must be > 0")
	}
	if c.Writer.QueueSize < 1 {
		return errors.Wrap(exception.ErrConfigInvalid, "writer.queue_size must be >= 1")
	}
	if _, err := recorder.ParseTimerMode(c.Writer.TimerMode); err != nil {
		return err
	}
	if c.Retry.Attempts < 1 {
		return errors.Wrap(exception.ErrConfigInvalid, "retry.attempts must be >= 1")
	}
	if c.Retry.BaseDelay < 0 || c.Retry.MaxDelay < 0 {
		return errors.Wrap(exception.ErrConfigInvalid, "retry delays must be >= 0")
	}
	if c.Producer.PollInterval <= 0 {
		return errors.Wrap(exception.ErrConfigInvalid, "producer.poll_interval must be > 0")
	}
	return nil
}

// SinkClientConfig resolves the sink client configuration.
func (c Config) SinkClientConfig() sink.Config {
	cfg := sink.DefaultConfig(c.Sink.URL, c.Sink.Database, c.Sink.Token)
	if c.Sink.Precision != "" {
		cfg.Precision = c.Sink.Precision
	}
	if c.Sink.Timeout > 0 {
		cfg.Timeout = c.Sink.Timeout
	}
	cfg.Attempts = c.Retry.Attempts
	cfg.Backoff.Base = c.Retry.BaseDelay
	cfg.Backoff.Max = c.Retry.MaxDelay
	return cfg
}

// RecorderConfig resolves the Writer configuration.
func (c Config) RecorderConfig() (recorder.Config, error) {
	mode, err := recorder.ParseTimerMode(c.Writer.TimerMode)
	if err != nil {
		return recorder.Config{}, err
	}
	cfg := recorder.DefaultConfig()
	cfg.BatchMax = c.Writer.BatchMax
	cfg.FlushInterval = c.Writer.FlushInterval
	cfg.QueueSize = c.Writer.QueueSize
	cfg.TimerMode = mode
	return cfg, nil
}
