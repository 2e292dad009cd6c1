package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"MarketPulse/internal/symbols"
)

// Config holds all application configuration.
type Config struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
	DataSource struct {
		Provider  string `yaml:"provider"`
		BaseURL   string `yaml:"base_url"`
		APIKey    string `yaml:"api_key"`
		RateLimit int    `yaml:"rate_limit"`
	} `yaml:"data_source"`
	Fetch struct {
		MaxInFlight     int `yaml:"max_in_flight"`
		TimeoutSec      int `yaml:"timeout_sec"`
		ThrottleDelayMs int `yaml:"throttle_delay_ms"`
	} `yaml:"fetch"`
	Cache struct {
		Backend    string `yaml:"backend"`
		TTLSec     int    `yaml:"ttl_sec"`
		MaxEntries int    `yaml:"max_entries"`
		Redis      struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Broadcast struct {
		IntervalSec   int    `yaml:"interval_sec"`
		SendTimeoutMs int    `yaml:"send_timeout_ms"`
		Universe      string `yaml:"universe"`
	} `yaml:"broadcast"`
	Kafka struct {
		Brokers []string `yaml:"brokers"`
		Topic   string   `yaml:"topic"`
	} `yaml:"kafka"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Database struct {
		SQLitePath    string `yaml:"sqlite_path"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"database"`
	Schedule struct {
		PurgeCron string `yaml:"purge_cron"`
		PruneCron string `yaml:"prune_cron"`
	} `yaml:"schedule"`
	Universe struct {
		Indices []symbols.IndexGroup `yaml:"indices"`
		Sectors []symbols.Sector     `yaml:"sectors"`
	} `yaml:"universe"`
	Proxy string `yaml:"proxy"`
}

const (
	ProviderYahoo = "yahoo"
	ProviderREST  = "rest"
	ProviderMock  = "mock"

	BackendMemory = "memory"
	BackendRedis  = "redis"

	UniverseIndices = "indices"
	UniverseSectors = "sectors"
)

// Load reads config from a YAML file, then applies environment variable overrides and defaults.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	str := map[string]*string{
		"SERVER_ADDR":        &c.Server.Addr,
		"LOG_LEVEL":          &c.Log.Level,
		"MARKET_PROVIDER":    &c.DataSource.Provider,
		"MARKET_BASE_URL":    &c.DataSource.BaseURL,
		"MARKET_API_KEY":     &c.DataSource.APIKey,
		"HTTPS_PROXY":        &c.Proxy,
		"REDIS_ADDR":         &c.Cache.Redis.Addr,
		"KAFKA_TOPIC":        &c.Kafka.Topic,
		"TELEGRAM_BOT_TOKEN": &c.Telegram.BotToken,
		"TELEGRAM_CHAT_ID":   &c.Telegram.ChatID,
		"SQLITE_PATH":        &c.Database.SQLitePath,
	}
	for env, dst := range str {
		if v := os.Getenv(env); v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"FETCH_MAX_IN_FLIGHT":    &c.Fetch.MaxInFlight,
		"FETCH_TIMEOUT_SEC":      &c.Fetch.TimeoutSec,
		"CACHE_TTL_SEC":          &c.Cache.TTLSec,
		"BROADCAST_INTERVAL_SEC": &c.Broadcast.IntervalSec,
	}
	for env, dst := range ints {
		v := os.Getenv(env)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("env %s: %w", env, err)
		}
		*dst = n
	}

	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = nil
		for _, b := range strings.Split(v, ",") {
			if b = strings.TrimSpace(b); b != "" {
				c.Kafka.Brokers = append(c.Kafka.Brokers, b)
			}
		}
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.DataSource.Provider == "" {
		c.DataSource.Provider = ProviderYahoo
	}
	if c.DataSource.RateLimit == 0 {
		c.DataSource.RateLimit = 10
	}
	if c.Fetch.MaxInFlight == 0 {
		c.Fetch.MaxInFlight = 5
	}
	if c.Fetch.TimeoutSec == 0 {
		c.Fetch.TimeoutSec = 10
	}
	if c.Fetch.ThrottleDelayMs == 0 {
		c.Fetch.ThrottleDelayMs = 250
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = BackendMemory
	}
	if c.Cache.TTLSec == 0 {
		c.Cache.TTLSec = 300
	}
	if c.Cache.Redis.Prefix == "" {
		c.Cache.Redis.Prefix = "pulse:"
	}
	if c.Broadcast.IntervalSec == 0 {
		c.Broadcast.IntervalSec = 2
	}
	if c.Broadcast.SendTimeoutMs == 0 {
		c.Broadcast.SendTimeoutMs = 2000
	}
	if c.Broadcast.Universe == "" {
		c.Broadcast.Universe = UniverseIndices
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "market-snapshots"
	}
	if c.Database.RetentionDays == 0 {
		c.Database.RetentionDays = 7
	}
	if c.Schedule.PurgeCron == "" {
		c.Schedule.PurgeCron = "0 */1 * * * *"
	}
	if c.Schedule.PruneCron == "" {
		c.Schedule.PruneCron = "0 0 3 * * *"
	}
	if len(c.Universe.Indices) == 0 {
		c.Universe.Indices = symbols.DefaultIndexGroups()
	}
	if len(c.Universe.Sectors) == 0 {
		c.Universe.Sectors = symbols.DefaultSectors()
	}
}

// Validate checks that all values are usable.
func (c *Config) Validate() error {
	switch c.DataSource.Provider {
	case ProviderYahoo, ProviderMock:
	case ProviderREST:
		if c.DataSource.BaseURL == "" {
			return fmt.Errorf("data_source.base_url is required for provider %q", ProviderREST)
		}
	default:
		return fmt.Errorf("data_source.provider %q is not one of yahoo, rest, mock", c.DataSource.Provider)
	}
	if c.DataSource.RateLimit < 0 {
		return fmt.Errorf("data_source.rate_limit must not be negative")
	}
	if c.Fetch.MaxInFlight <= 0 {
		return fmt.Errorf("fetch.max_in_flight must be positive")
	}
	if c.Fetch.TimeoutSec <= 0 {
		return fmt.Errorf("fetch.timeout_sec must be positive")
	}
	if c.Fetch.ThrottleDelayMs < 0 {
		return fmt.Errorf("fetch.throttle_delay_ms must not be negative")
	}
	switch c.Cache.Backend {
	case BackendMemory:
	case BackendRedis:
		if c.Cache.Redis.Addr == "" {
			return fmt.Errorf("cache.redis.addr is required for backend %q", BackendRedis)
		}
	default:
		return fmt.Errorf("cache.backend %q is not one of memory, redis", c.Cache.Backend)
	}
	if c.Cache.TTLSec <= 0 {
		return fmt.Errorf("cache.ttl_sec must be positive")
	}
	if c.Cache.MaxEntries < 0 {
		return fmt.Errorf("cache.max_entries must not be negative")
	}
	if c.Broadcast.IntervalSec <= 0 {
		return fmt.Errorf("broadcast.interval_sec must be positive")
	}
	if c.Broadcast.SendTimeoutMs <= 0 {
		return fmt.Errorf("broadcast.send_timeout_ms must be positive")
	}
	if c.Broadcast.Universe != UniverseIndices && c.Broadcast.Universe != UniverseSectors {
		return fmt.Errorf("broadcast.universe %q is not one of indices, sectors", c.Broadcast.Universe)
	}
	if c.Database.RetentionDays <= 0 {
		return fmt.Errorf("database.retention_days must be positive")
	}
	if _, err := c.Registry(); err != nil {
		return fmt.Errorf("universe: %w", err)
	}
	return nil
}

// Registry builds the symbol registry from the configured universe.
func (c *Config) Registry() (*symbols.Registry, error) {
	return symbols.New(c.Universe.Indices, c.Universe.Sectors)
}

func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutSec) * time.Second
}

func (c *Config) ThrottleDelay() time.Duration {
	return time.Duration(c.Fetch.ThrottleDelayMs) * time.Millisecond
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSec) * time.Second
}

func (c *Config) BroadcastInterval() time.Duration {
	return time.Duration(c.Broadcast.IntervalSec) * time.Second
}

func (c *Config) SendTimeout() time.Duration {
	return time.Duration(c.Broadcast.SendTimeoutMs) * time.Millisecond
}

func (c *Config) Retention() time.Duration {
	return time.Duration(c.Database.RetentionDays) * 24 * time.Hour
}

// TelegramEnabled reports whether outage alerts can be sent.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// KafkaEnabled reports whether snapshots are also published to Kafka.
func (c *Config) KafkaEnabled() bool {
	return len(c.Kafka.Brokers) > 0
}
