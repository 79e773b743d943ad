package config

import (
	"fmt"
	"os"
	"time"

	"ShotTrace/pkg/util"

	"gopkg.in/yaml.v3"
)

const (
	BackendKafka      = "kafka"
	BackendClickHouse = "clickhouse"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		SlowRequest     time.Duration `yaml:"slow_request"` // warn above this latency
		RateLimit       struct {
			Rate  float64 `yaml:"rate"`  // analyze requests per second per client
			Burst int     `yaml:"burst"` // bucket size
		} `yaml:"rate_limit"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Logging struct {
		Level          string        `yaml:"level"`
		Format         string        `yaml:"format"`
		Output         string        `yaml:"output"`
		CollectorTopic string        `yaml:"collector_topic"`
		FlushInterval  time.Duration `yaml:"flush_interval"`
		FlushCount     int           `yaml:"flush_count"`
	} `yaml:"logging"`
	Backend struct {
		Type string `yaml:"type"`
	} `yaml:"backend"`
	Kafka struct {
		Brokers     []string `yaml:"brokers"`
		Topic       string   `yaml:"topic"` // round analyses
		Acks        string   `yaml:"acks"`  // all | one | none
		Compression string   `yaml:"compression"`
		Producer    struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes"`
			MaxBytes   int           `yaml:"max_bytes"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Redis struct {
		Enabled   bool   `yaml:"enabled"`
		Addr      string `yaml:"addr"`
		Password  string `yaml:"password"`
		DB        int    `yaml:"db"`
		KeyPrefix string `yaml:"key_prefix"`
	} `yaml:"redis"`
	Device struct {
		Enabled        bool          `yaml:"enabled"`
		URL            string        `yaml:"url"`
		Token          string        `yaml:"token"`
		Devices        []string      `yaml:"devices"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		PingInterval   time.Duration `yaml:"ping_interval"`
		MaxSampleRate  int           `yaml:"max_samples_per_sec"`
		BufferSize     int           `yaml:"buffer_size"`
		RoundIdle      time.Duration `yaml:"round_idle"`
	} `yaml:"device"`
	Stability struct {
		ServiceURL    string        `yaml:"service_url"`
		Timeout       time.Duration `yaml:"timeout"`
		RetryAttempts int           `yaml:"retry_attempts"`
	} `yaml:"stability"`
	Analysis struct {
		SmoothingWindow     time.Duration `yaml:"smoothing_window"`
		FallbackOffset      time.Duration `yaml:"fallback_offset"`
		StabilityHalfWindow time.Duration `yaml:"stability_half_window"`
		RoundLockTTL        time.Duration `yaml:"round_lock_ttl"`
		CacheTTL            time.Duration `yaml:"cache_ttl"`
	} `yaml:"analysis"`
	Course struct {
		LayoutFile string `yaml:"layout_file"`
	} `yaml:"course"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	c, err := Parse(b)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// Parse decodes YAML and fills defaults without validating.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.applyDefaults()
	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	c, err := Parse(b)
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
	if v := getenv("BACKEND"); v != "" {
		c.Backend.Type = v
	}
	if v := util.SplitList(getenv("KAFKA_BROKERS")); len(v) > 0 {
		c.Kafka.Brokers = v
	}
	if v := getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := getenv("COURSE_FILE"); v != "" {
		c.Course.LayoutFile = v
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
		c.Redis.Enabled = true
	}
	if v := getenv("DEVICE_WS_URL"); v != "" {
		c.Device.URL = v
		c.Device.Enabled = true
	}
	if v := util.SplitList(getenv("DEVICE_IDS")); len(v) > 0 {
		c.Device.Devices = v
	}
	c.Server.Port = util.ParseIntDefault(getenv("PORT"), c.Server.Port)
	c.Device.RoundIdle = util.ParseDurationDefault(getenv("ROUND_IDLE"), c.Device.RoundIdle)
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 15 * time.Second
	}
	if c.Server.SlowRequest == 0 {
		c.Server.SlowRequest = time.Second
	}
	if c.Server.RateLimit.Rate == 0 {
		c.Server.RateLimit.Rate = 5
	}
	if c.Server.RateLimit.Burst == 0 {
		c.Server.RateLimit.Burst = 10
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "round-analyses"
	}
	if c.Redis.KeyPrefix == "" {
		c.Redis.KeyPrefix = "shottrace"
	}
	if c.Device.MaxSampleRate == 0 {
		c.Device.MaxSampleRate = 10
	}
	if c.Device.RoundIdle == 0 {
		c.Device.RoundIdle = 6 * time.Hour
	}
	if c.Analysis.SmoothingWindow == 0 {
		c.Analysis.SmoothingWindow = 10 * time.Second
	}
	if c.Analysis.FallbackOffset == 0 {
		c.Analysis.FallbackOffset = 10 * time.Second
	}
	if c.Analysis.StabilityHalfWindow == 0 {
		c.Analysis.StabilityHalfWindow = time.Second
	}
	if c.Analysis.RoundLockTTL == 0 {
		c.Analysis.RoundLockTTL = 2 * time.Minute
	}
	if c.Analysis.CacheTTL == 0 {
		c.Analysis.CacheTTL = 24 * time.Hour
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Backend.Type == "" {
		return fmt.Errorf("backend.type is required")
	}
	if c.Backend.Type != BackendKafka && c.Backend.Type != BackendClickHouse {
		return fmt.Errorf("backend.type must be 'kafka' or 'clickhouse', got '%s'", c.Backend.Type)
	}
	if c.Backend.Type == BackendKafka && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty with kafka backend")
	}
	switch c.Kafka.Acks {
	case "", "all", "one", "none":
	default:
		return fmt.Errorf("kafka.acks must be all, one or none, got '%s'", c.Kafka.Acks)
	}
	if c.Course.LayoutFile == "" {
		return fmt.Errorf("course.layout_file is required")
	}
	if c.Device.Enabled && c.Device.URL == "" {
		return fmt.Errorf("device.url is required when device feed is enabled")
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required when redis is enabled")
	}
	if c.Analysis.SmoothingWindow < 0 || c.Analysis.FallbackOffset < 0 {
		return fmt.Errorf("analysis windows must not be negative")
	}
	return nil
}
