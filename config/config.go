package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage drivers.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Sweep schedulers.
const (
	SchedulerTicker = "ticker"
	SchedulerRiver  = "river"
)

// Defaults and floors applied by Normalize.
const (
	DefaultWorkers              = 8
	DefaultAutoCloseInterval    = 60 * time.Second
	MinAutoCloseInterval        = time.Second
	DefaultPurgeInterval        = time.Hour
	MinPurgeInterval            = time.Minute
	DefaultDeletedRetentionDays = 30
	DefaultOperationTimeout     = 10 * time.Second
	DefaultConnectTimeout       = 5 * time.Second
	DefaultHTTPAddress          = ":8080"
	DefaultRateLimit            = 5.0
	DefaultRateBurst            = 10
	DefaultJWTTTL               = time.Hour
)

// Config struct to hold the configuration settings
type Config struct {
	Postgres      PostgresConfig      `yaml:"postgres"`
	Storage       StorageConfig       `yaml:"storage"`
	Elections     ElectionsConfig     `yaml:"elections"`
	HTTP          HTTPConfig          `yaml:"http"`
	NATS          NATSConfig          `yaml:"nats"`
	JWT           JWTConfig           `yaml:"jwt"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// PostgresConfig holds Postgres configuration.
type PostgresConfig struct {
	DSN              string        `yaml:"dsn"`
	ConnectTimeout   time.Duration `yaml:"connect_timeout"`
	OperationTimeout time.Duration `yaml:"operation_timeout"`
}

// StorageConfig selects the repository implementation.
type StorageConfig struct {
	Driver string `yaml:"driver"`
}

// ElectionsConfig holds the election service and sweep settings.
type ElectionsConfig struct {
	Workers              int           `yaml:"workers"`
	AutoCloseInterval    time.Duration `yaml:"auto_close_interval"`
	PurgeInterval        time.Duration `yaml:"purge_interval"`
	DeletedRetentionDays *int          `yaml:"deleted_retention_days"`
	Scheduler            string        `yaml:"scheduler"`
}

// Retention returns the deleted-election retention window.
func (c ElectionsConfig) Retention() time.Duration {
	if c.DeletedRetentionDays == nil {
		return DefaultDeletedRetentionDays * 24 * time.Hour
	}
	return time.Duration(*c.DeletedRetentionDays) * 24 * time.Hour
}

// HTTPConfig holds the admin HTTP surface configuration.
type HTTPConfig struct {
	Address        string   `yaml:"address"`
	RateLimit      float64  `yaml:"rate_limit"`
	RateBurst      int      `yaml:"rate_burst"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// NATSConfig holds NATS configuration. An empty URL disables forwarding.
type NATSConfig struct {
	URL string `yaml:"url"`
}

// JWTConfig holds JWT configuration.
type JWTConfig struct {
	Secret     string        `yaml:"secret"`
	DefaultTTL time.Duration `yaml:"default_ttl"`
}

// ObservabilityConfig holds configuration for observability components
type ObservabilityConfig struct {
	MetricsAddress string `yaml:"metrics_address"`
	LogLevel       string `yaml:"log_level"`
	Environment    string `yaml:"environment"`
}

// LoadConfig loads the configuration from a YAML file, then applies
// environment overrides. A missing file falls back to the environment only.
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return loadConfigFromEnv()
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadConfigFromEnv loads the configuration from environment variables.
func loadConfigFromEnv() (*Config, error) {
	var cfg Config
	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	if cfg.Storage.Driver == "" && cfg.Postgres.DSN == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable not set")
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("STORAGE_DRIVER"); v != "" {
		cfg.Storage.Driver = v
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("METRICS_ADDRESS"); v != "" {
		cfg.Observability.MetricsAddress = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}
	if v := os.Getenv("ENV"); v != "" {
		cfg.Observability.Environment = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWT.Secret = v
	}
	if v := os.Getenv("ELECTIONS_SCHEDULER"); v != "" {
		cfg.Elections.Scheduler = v
	}

	durations := []struct {
		env string
		dst *time.Duration
	}{
		{"JWT_DEFAULT_TTL", &cfg.JWT.DefaultTTL},
		{"POSTGRES_CONNECT_TIMEOUT", &cfg.Postgres.ConnectTimeout},
		{"POSTGRES_OPERATION_TIMEOUT", &cfg.Postgres.OperationTimeout},
		{"ELECTIONS_AUTO_CLOSE_INTERVAL", &cfg.Elections.AutoCloseInterval},
		{"ELECTIONS_PURGE_INTERVAL", &cfg.Elections.PurgeInterval},
	}
	for _, d := range durations {
		v := os.Getenv(d.env)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s value: %w", d.env, err)
		}
		*d.dst = parsed
	}

	if v := os.Getenv("ELECTIONS_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid ELECTIONS_WORKERS value: %w", err)
		}
		cfg.Elections.Workers = n
	}
	if v := os.Getenv("ELECTIONS_DELETED_RETENTION_DAYS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid ELECTIONS_DELETED_RETENTION_DAYS value: %w", err)
		}
		cfg.Elections.DeletedRetentionDays = &n
	}
	if v := os.Getenv("HTTP_RATE_LIMIT"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid HTTP_RATE_LIMIT value: %w", err)
		}
		cfg.HTTP.RateLimit = f
	}
	return nil
}

// Normalize fills defaults and clamps values to their floors.
func (c *Config) Normalize() {
	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	if c.Storage.Driver == "" {
		c.Storage.Driver = StoragePostgres
	}
	if c.Postgres.ConnectTimeout <= 0 {
		c.Postgres.ConnectTimeout = DefaultConnectTimeout
	}
	if c.Postgres.OperationTimeout <= 0 {
		c.Postgres.OperationTimeout = DefaultOperationTimeout
	}

	e := &c.Elections
	if e.Workers <= 0 {
		e.Workers = DefaultWorkers
	}
	if e.AutoCloseInterval <= 0 {
		e.AutoCloseInterval = DefaultAutoCloseInterval
	}
	e.AutoCloseInterval = max(e.AutoCloseInterval, MinAutoCloseInterval)
	if e.PurgeInterval <= 0 {
		e.PurgeInterval = DefaultPurgeInterval
	}
	e.PurgeInterval = max(e.PurgeInterval, MinPurgeInterval)
	if e.DeletedRetentionDays != nil && *e.DeletedRetentionDays < 0 {
		zero := 0
		e.DeletedRetentionDays = &zero
	}
	e.Scheduler = strings.ToLower(strings.TrimSpace(e.Scheduler))
	if e.Scheduler == "" {
		e.Scheduler = SchedulerTicker
	}

	if c.HTTP.Address == "" {
		c.HTTP.Address = DefaultHTTPAddress
	}
	if c.HTTP.RateLimit <= 0 {
		c.HTTP.RateLimit = DefaultRateLimit
	}
	if c.HTTP.RateBurst <= 0 {
		c.HTTP.RateBurst = DefaultRateBurst
	}
	if c.JWT.DefaultTTL <= 0 {
		c.JWT.DefaultTTL = DefaultJWTTTL
	}
}

// Validate rejects combinations Normalize cannot repair.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case StoragePostgres:
		if c.Postgres.DSN == "" {
			return fmt.Errorf("postgres storage requires a dsn")
		}
	case StorageMemory:
		if c.Elections.Scheduler == SchedulerRiver {
			return fmt.Errorf("river scheduler requires postgres storage")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	switch c.Elections.Scheduler {
	case SchedulerTicker, SchedulerRiver:
	default:
		return fmt.Errorf("unknown scheduler %q", c.Elections.Scheduler)
	}
	return nil
}

// LogLevel parses observability.log_level, defaulting to info.
func (c *Config) LogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Observability.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}
