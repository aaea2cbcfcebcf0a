package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"FareCast/pkg/util"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string          `yaml:"environment" default:"development"`
	Server      ServerConfig    `yaml:"server"`
	Metrics     MetricsConfig   `yaml:"metrics"`
	Logger      LoggerConfig    `yaml:"logger"`
	Predictor   PredictorConfig `yaml:"predictor"`
	Forecast    ForecastConfig  `yaml:"forecast"`
	History     HistoryConfig   `yaml:"history"`
	Redis       RedisConfig     `yaml:"redis"`
	Events      EventsConfig    `yaml:"events"`
	Archive     ArchiveConfig   `yaml:"archive"`
}

type ServerConfig struct {
	Host            string        `yaml:"host" default:"0.0.0.0"`
	Port            int           `yaml:"port" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	AllowOrigins    []string      `yaml:"allow_origins"`
	// PredictRate limits POST /api/predict per client IP (requests per second).
	PredictRate  float64 `yaml:"predict_rate" default:"5"`
	PredictBurst int     `yaml:"predict_burst" default:"10"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" default:"true"`
	Path    string `yaml:"path" default:"/metrics"`
}

type LoggerConfig struct {
	Level  string `yaml:"level" default:"info"`
	Format string `yaml:"format" default:"console"`
	Output string `yaml:"output" default:"stdout"`
	// ErrorTopic, when set and events are enabled, receives aggregated error logs.
	ErrorTopic string `yaml:"error_topic"`
}

type PredictorConfig struct {
	BaseURL     string        `yaml:"base_url" default:"http://localhost:5000"`
	Path        string        `yaml:"path" default:"/predict"`
	CallTimeout time.Duration `yaml:"call_timeout" default:"5s"`
	RateLimit   struct {
		RPS   float64 `yaml:"rps"`
		Burst int     `yaml:"burst" default:"7"`
	} `yaml:"rate_limit"`
}

type ForecastConfig struct {
	RunTimeout time.Duration `yaml:"run_timeout" default:"15s"`
}

type HistoryConfig struct {
	Backend    string `yaml:"backend" default:"memory"`
	Key        string `yaml:"key" default:"flightPredictionHistory"`
	SQLitePath string `yaml:"sqlite_path" default:"farecast.db"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" default:"localhost:6379"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix" default:"farecast"`
}

type EventsConfig struct {
	Enabled     bool     `yaml:"enabled"`
	Brokers     []string `yaml:"brokers"`
	Topic       string   `yaml:"topic" default:"farecast.predictions"`
	Compression string   `yaml:"compression" default:"gzip"`
	Consumer    struct {
		GroupID    string        `yaml:"group_id" default:"farecast-archive"`
		Workers    int           `yaml:"workers" default:"2"`
		RetryMax   int           `yaml:"retry_max" default:"5"`
		BackoffMin time.Duration `yaml:"backoff_min" default:"200ms"`
		BackoffMax time.Duration `yaml:"backoff_max" default:"5s"`
		DLQTopic   string        `yaml:"dlq_topic"`
	} `yaml:"consumer"`
}

type ArchiveConfig struct {
	Enabled     bool          `yaml:"enabled"`
	Host        string        `yaml:"host" default:"localhost"`
	Port        int           `yaml:"port" default:"9000"`
	Database    string        `yaml:"database" default:"default"`
	User        string        `yaml:"user" default:"default"`
	Password    string        `yaml:"password"`
	Table       string        `yaml:"table" default:"fare_predictions"`
	UseHTTP     bool          `yaml:"use_http"`
	AsyncInsert bool          `yaml:"async_insert" default:"true"`
	DialTimeout time.Duration `yaml:"dial_timeout" default:"5s"`
	// QueryCacheTTL caches GET /api/archive answers; zero disables the cache.
	QueryCacheTTL time.Duration `yaml:"query_cache_ttl" default:"30s"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	var c Config
	if err := defaults.Set(&c); err != nil {
		// only reachable with a malformed default tag
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	return &c
}

// Load reads and parses a YAML configuration file. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	c := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	c.applyEnv(os.Getenv)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv("APP_ENV"); v != "" {
		c.Environment = v
	}
	c.Server.Port = util.ParseIntDefault(getenv("PORT"), c.Server.Port)
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Logger.Level = v
	}
	if v := getenv("PREDICTOR_URL"); v != "" {
		c.Predictor.BaseURL = v
	}
	if v := getenv("HISTORY_BACKEND"); v != "" {
		c.History.Backend = v
	}
	if v := getenv("HISTORY_SQLITE_PATH"); v != "" {
		c.History.SQLitePath = v
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Events.Brokers = strings.Split(v, ",")
		c.Events.Enabled = true
	}
	if v := getenv("KAFKA_TOPIC"); v != "" {
		c.Events.Topic = v
	}
	if v := getenv("CLICKHOUSE_HOST"); v != "" {
		c.Archive.Host = v
		c.Archive.Enabled = true
	}
	if v := getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.Archive.Password = v
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return errors.New("environment is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}

	u, err := url.Parse(c.Predictor.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("predictor.base_url must be an absolute URL, got %q", c.Predictor.BaseURL)
	}
	if c.Predictor.CallTimeout <= 0 {
		return errors.New("predictor.call_timeout must be positive")
	}
	if c.Predictor.RateLimit.RPS < 0 {
		return errors.New("predictor.rate_limit.rps cannot be negative")
	}

	switch c.History.Backend {
	case "memory", "redis":
	case "sqlite":
		if c.History.SQLitePath == "" {
			return errors.New("history.sqlite_path is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("history.backend must be 'memory', 'redis' or 'sqlite', got '%s'", c.History.Backend)
	}
	if c.History.Key == "" {
		return errors.New("history.key is required")
	}

	if c.Events.Enabled {
		if len(c.Events.Brokers) == 0 {
			return errors.New("events.brokers cannot be empty when events are enabled")
		}
		if c.Events.Topic == "" {
			return errors.New("events.topic is required when events are enabled")
		}
	}
	if c.Archive.Enabled {
		if !c.Events.Enabled {
			return errors.New("archive requires events to be enabled")
		}
		if c.Archive.Host == "" || c.Archive.Table == "" {
			return errors.New("archive.host and archive.table are required")
		}
	}
	return nil
}
