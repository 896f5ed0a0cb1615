// Package config provides application configuration loading and validation.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"fxresolver/internal/currency"
)

// MaxLiveTTLSec caps how long a live rate may be served from cache.
const MaxLiveTTLSec = 60

// Cache backends.
const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
	CacheBackendNone   = "none"
)

// Config holds the complete application configuration.
type Config struct {
	Server           ServerConfig
	Database         DatabaseConfig
	Redis            RedisConfig
	Frankfurter      ProviderConfig         `mapstructure:"frankfurter"`
	ExchangeRateHost ExchangeRateHostConfig `mapstructure:"exchangerate_host"`
	ExchangeRateAPI  ProviderConfig         `mapstructure:"exchangerate_api"`
	Resolver         ResolverConfig
	Cache            CacheConfig
	Worker           WorkerConfig
	History          HistoryConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port          int    `mapstructure:"port"`
	LogLevel      string `mapstructure:"log_level"`
	ServeSwagger  bool   `mapstructure:"serve_swagger"`
	ServeAsynqmon bool   `mapstructure:"serve_asynqmon"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Enabled            bool   `mapstructure:"enabled"`
	Host               string `mapstructure:"host"`
	Port               int    `mapstructure:"port"`
	User               string `mapstructure:"user"`
	Password           string `mapstructure:"password"`
	Name               string `mapstructure:"name"`
	SSLMode            string `mapstructure:"sslmode"`
	MaxOpenConns       int    `mapstructure:"max_open_conns"`
	MaxIdleConns       int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeSec int    `mapstructure:"conn_max_lifetime_sec"`
	DSN                string
}

// RedisConfig holds connection settings for both Redis instances.
type RedisConfig struct {
	AsynqAddr string `mapstructure:"asynq_addr"` // task queue; empty disables the worker
	CacheAddr string `mapstructure:"cache_addr"` // rate cache when cache.backend is redis
}

// ProviderConfig holds settings for a keyless HTTP rate provider.
type ProviderConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	BaseURL string `mapstructure:"base_url"`
	Timeout int    `mapstructure:"timeout_sec"`
}

// ExchangeRateHostConfig holds settings for the exchangerate.host provider.
type ExchangeRateHostConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Timeout int    `mapstructure:"timeout_sec"`
}

// ResolverConfig controls the resolution tiers.
type ResolverConfig struct {
	PivotCurrency    string `mapstructure:"pivot_currency"`
	RequestTimeoutMS int    `mapstructure:"request_timeout_ms"`
}

// CacheConfig holds caching settings.
type CacheConfig struct {
	Backend    string `mapstructure:"backend"`
	LiveTTLSec int    `mapstructure:"live_ttl_sec"`
}

// WorkerConfig holds background refresh and task queue settings.
type WorkerConfig struct {
	Concurrency        int      `mapstructure:"concurrency"`
	MaxRetry           int      `mapstructure:"max_retry"`
	TimeoutSec         int      `mapstructure:"timeout_sec"`
	RefreshIntervalSec int      `mapstructure:"refresh_interval_sec"`
	WatchPairs         []string `mapstructure:"watch_pairs"`
}

// HistoryConfig selects the historical rate sources.
type HistoryConfig struct {
	UseFrankfurter bool `mapstructure:"use_frankfurter"`
	UseSnapshots   bool `mapstructure:"use_snapshots"`
}

// RequestTimeout is the resolver's live-tier deadline.
func (c ResolverConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}

// LiveTTL is the cache lifetime of live rates.
func (c CacheConfig) LiveTTL() time.Duration {
	return time.Duration(c.LiveTTLSec) * time.Second
}

// RefreshInterval is the period of the background refresh schedule.
func (c WorkerConfig) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshIntervalSec) * time.Second
}

// LoadConfig reads configuration from config files, environment variables, and defaults.
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		fmt.Printf("No .env file found or error loading it: %v\n", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// Config search paths
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./internal/config")

	v.SetEnvPrefix("FXRESOLVER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// It's okay if no config file, we have defaults and env
		fmt.Printf("Config file not found: %v\n", err)
	}

	return Decode(v)
}

// SetDefaults registers the default value of every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.serve_swagger", true)
	v.SetDefault("server.serve_asynqmon", true)
	v.SetDefault("database.enabled", true)
	v.SetDefault("database.host", "db")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.name", "fxdb")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime_sec", 300)
	v.SetDefault("redis.asynq_addr", "redis_asynq:6380")
	v.SetDefault("redis.cache_addr", "redis_cache:6381")
	v.SetDefault("frankfurter.enabled", true)
	v.SetDefault("frankfurter.base_url", "https://api.frankfurter.dev/v1")
	v.SetDefault("frankfurter.timeout_sec", 2)
	v.SetDefault("exchangerate_host.enabled", false)
	v.SetDefault("exchangerate_host.base_url", "https://api.exchangerate.host")
	v.SetDefault("exchangerate_host.api_key", "")
	v.SetDefault("exchangerate_host.timeout_sec", 2)
	v.SetDefault("exchangerate_api.enabled", true)
	v.SetDefault("exchangerate_api.base_url", "https://api.exchangerate-api.com/v4")
	v.SetDefault("exchangerate_api.timeout_sec", 2)
	v.SetDefault("resolver.pivot_currency", "USD")
	v.SetDefault("resolver.request_timeout_ms", 3000)
	v.SetDefault("cache.backend", CacheBackendRedis)
	v.SetDefault("cache.live_ttl_sec", MaxLiveTTLSec)
	v.SetDefault("worker.concurrency", 2)
	v.SetDefault("worker.max_retry", 3)
	v.SetDefault("worker.timeout_sec", 30)
	v.SetDefault("worker.refresh_interval_sec", 300)
	v.SetDefault("worker.watch_pairs", []string{"CNY/JPY", "CNY/USD", "CNY/EUR"})
	v.SetDefault("history.use_frankfurter", true)
	v.SetDefault("history.use_snapshots", true)
}

// Decode unmarshals and validates the configuration held by v.
func Decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	// comma separated env values arrive as a single element
	if len(cfg.Worker.WatchPairs) == 1 && strings.Contains(cfg.Worker.WatchPairs[0], ",") {
		cfg.Worker.WatchPairs = strings.Split(cfg.Worker.WatchPairs[0], ",")
	}
	for i, p := range cfg.Worker.WatchPairs {
		cfg.Worker.WatchPairs[i] = strings.ToUpper(strings.TrimSpace(p))
	}
	cfg.Resolver.PivotCurrency = strings.ToUpper(strings.TrimSpace(cfg.Resolver.PivotCurrency))
	cfg.Cache.Backend = strings.ToLower(strings.TrimSpace(cfg.Cache.Backend))

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if cfg.Database.MaxOpenConns <= 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns <= 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetimeSec <= 0 {
		cfg.Database.ConnMaxLifetimeSec = 300
	}

	cfg.Database.DSN = fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.Database.User, cfg.Database.Password,
		cfg.Database.Host, cfg.Database.Port,
		cfg.Database.Name, cfg.Database.SSLMode)

	return &cfg, nil
}

// Validate checks that all required configuration fields are set and valid.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 {
		errs = append(errs, fmt.Errorf("server.port must be positive, got %d", c.Server.Port))
	}
	if _, err := zapcore.ParseLevel(c.Server.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("server.log_level: %w", err))
	}

	if c.Database.Enabled {
		if c.Database.Host == "" {
			errs = append(errs, fmt.Errorf("database.host is required"))
		}
		if c.Database.Port <= 0 {
			errs = append(errs, fmt.Errorf("database.port must be positive, got %d", c.Database.Port))
		}
		if c.Database.User == "" {
			errs = append(errs, fmt.Errorf("database.user is required"))
		}
		if c.Database.Name == "" {
			errs = append(errs, fmt.Errorf("database.name is required"))
		}
	}

	if c.Frankfurter.Enabled && c.Frankfurter.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("frankfurter.timeout_sec must be positive, got %d", c.Frankfurter.Timeout))
	}
	if c.ExchangeRateAPI.Enabled && c.ExchangeRateAPI.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("exchangerate_api.timeout_sec must be positive, got %d", c.ExchangeRateAPI.Timeout))
	}
	if c.ExchangeRateHost.Enabled {
		if c.ExchangeRateHost.APIKey == "" {
			errs = append(errs, fmt.Errorf("exchangerate_host.api_key is required when enabled (set FXRESOLVER_EXCHANGERATE_HOST_API_KEY)"))
		}
		if c.ExchangeRateHost.Timeout <= 0 {
			errs = append(errs, fmt.Errorf("exchangerate_host.timeout_sec must be positive, got %d", c.ExchangeRateHost.Timeout))
		}
	}

	if _, err := currency.Parse(c.Resolver.PivotCurrency); err != nil {
		errs = append(errs, fmt.Errorf("resolver.pivot_currency: %w", err))
	}
	if c.Resolver.RequestTimeoutMS <= 0 {
		errs = append(errs, fmt.Errorf("resolver.request_timeout_ms must be positive, got %d", c.Resolver.RequestTimeoutMS))
	}

	switch c.Cache.Backend {
	case CacheBackendMemory, CacheBackendNone:
	case CacheBackendRedis:
		if c.Redis.CacheAddr == "" {
			errs = append(errs, fmt.Errorf("redis.cache_addr is required for cache.backend=redis (set FXRESOLVER_REDIS_CACHE_ADDR)"))
		}
	default:
		errs = append(errs, fmt.Errorf("cache.backend must be one of memory, redis, none; got %q", c.Cache.Backend))
	}
	if c.Cache.LiveTTLSec <= 0 || c.Cache.LiveTTLSec > MaxLiveTTLSec {
		errs = append(errs, fmt.Errorf("cache.live_ttl_sec must be in 1..%d, got %d", MaxLiveTTLSec, c.Cache.LiveTTLSec))
	}

	if c.Worker.Concurrency <= 0 {
		errs = append(errs, fmt.Errorf("worker.concurrency must be positive, got %d", c.Worker.Concurrency))
	}
	if c.Worker.MaxRetry < 0 {
		errs = append(errs, fmt.Errorf("worker.max_retry must be non-negative, got %d", c.Worker.MaxRetry))
	}
	if c.Worker.TimeoutSec <= 0 {
		errs = append(errs, fmt.Errorf("worker.timeout_sec must be positive, got %d", c.Worker.TimeoutSec))
	}
	if c.Worker.RefreshIntervalSec <= 0 {
		errs = append(errs, fmt.Errorf("worker.refresh_interval_sec must be positive, got %d", c.Worker.RefreshIntervalSec))
	}
	for _, p := range c.Worker.WatchPairs {
		if _, _, err := currency.ParsePair(p); err != nil {
			errs = append(errs, fmt.Errorf("worker.watch_pairs %q: %w", p, err))
		}
	}

	if c.History.UseSnapshots && !c.Database.Enabled {
		errs = append(errs, fmt.Errorf("history.use_snapshots requires database.enabled"))
	}

	return errors.Join(errs...)
}
