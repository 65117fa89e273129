package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/sethvargo/go-envconfig"
)

// Storage modes select where workouts and plans are persisted.
const (
	StorageBackend  = "backend"
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Autofill cache kinds.
const (
	CacheRedis  = "redis"
	CacheMemory = "memory"
)

type Config struct {
	Environment string `toml:"environment"`
	Host        string `toml:"host"`
	Port        int    `toml:"port"`
	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`
	SentryEnabled bool   `toml:"sentry_enabled"`
	// storage
	Storage        string `toml:"storage"`
	BackendURL     string `toml:"backend_url"`
	PostgresHost   string `toml:"postgres_host"`
	PostgresPort   string `toml:"postgres_port"`
	PostgresDBName string `toml:"postgres_db_name"`
	PostgresUser   string `toml:"postgres_user"`
	// sessions, rate limiting and the redis autofill cache
	RedisHost string `toml:"redis_host"`
	RedisPort string `toml:"redis_port"`
	// autofill cache: redis or memory
	AutofillCache       string `toml:"autofill_cache"`
	AutofillCacheSizeMB int    `toml:"autofill_cache_size_mb"`
	// metrics
	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`
	// http
	AllowedOrigins              []string `toml:"allowed_origins"`
	LoginRateLimitAllowedPerMin int      `toml:"login_rate_limit_allowed_per_min"`
	SessionTTL                  Duration `toml:"session_ttl"`
	// calendar days are computed in this location
	Timezone string `toml:"timezone"`
	// username -> bcrypt password hash, used by the postgres and memory storage modes
	LocalUsers map[string]string `toml:"local_users"`
}

// Duration decodes TOML strings such as "168h".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

type Toml struct {
	Development *Config
	Production  *Config
	DockerDev   *Config `toml:"dockerdev"`
}

func (t *Toml) Get(env string) (*Config, error) {
	var cfg *Config
	switch strings.ToLower(env) {
	case "dev", "development":
		cfg = t.Development
	case "prod", "production":
		cfg = t.Production
	case "ddev", "dockerdev":
		cfg = t.DockerDev
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
	if cfg == nil {
		return nil, fmt.Errorf("no config section for env: %s", env)
	}
	return cfg, nil
}

// Load reads the section for env from the TOML file at path.
func Load(env, path string) (*Config, error) {
	var t Toml
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return nil, fmt.Errorf("decode config file [%s]: %w", path, err)
	}
	return fromToml(&t, env)
}

// Parse is Load for an in-memory TOML document.
func Parse(data, env string) (*Config, error) {
	var t Toml
	if _, err := toml.Decode(data, &t); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return fromToml(&t, env)
}

func fromToml(t *Toml, env string) (*Config, error) {
	cfg, err := t.Get(env)
	if err != nil {
		return nil, err
	}
	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) setDefaults() {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 9000
	}
	if c.Storage == "" {
		c.Storage = StorageBackend
	}
	if c.AutofillCache == "" {
		c.AutofillCache = CacheRedis
	}
	if c.AutofillCacheSizeMB == 0 {
		c.AutofillCacheSizeMB = 16
	}
	if c.LoginRateLimitAllowedPerMin == 0 {
		c.LoginRateLimitAllowedPerMin = 15
	}
	if c.PostgresUser == "" {
		c.PostgresUser = "postgres"
	}
	if c.Timezone == "" {
		c.Timezone = "Local"
	}
}

func (c *Config) Validate() error {
	switch c.Storage {
	case StorageBackend, StoragePostgres, StorageMemory:
	default:
		return fmt.Errorf("unknown storage mode: %q", c.Storage)
	}
	switch c.AutofillCache {
	case CacheRedis, CacheMemory:
	default:
		return fmt.Errorf("unknown autofill cache: %q", c.AutofillCache)
	}
	if c.Storage == StoragePostgres && (c.PostgresHost == "" || c.PostgresDBName == "") {
		return errors.New("postgres storage needs postgres_host and postgres_db_name")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Secrets are read from the environment, never from the config file.
type Secrets struct {
	BackendURL       string `env:"LIFTLOG_BACKEND_URL"`
	BackendAnonKey   string `env:"LIFTLOG_BACKEND_ANON_KEY"`
	RedisPassword    string `env:"LIFTLOG_REDIS_PASS"`
	PostgresPassword string `env:"LIFTLOG_POSTGRES_PASS"`
	SentryDSN        string `env:"SENTRY_DSN"`
	HoneycombEnabled bool   `env:"HONEYCOMB_ENABLED, default=false"`
	HoneycombAPIKey  string `env:"HONEYCOMB_API_KEY"`
	OtelServiceName  string `env:"OTEL_SERVICE_NAME, default=liftlog"`
}

func LoadSecrets(ctx context.Context) (*Secrets, error) {
	return LoadSecretsFrom(ctx, envconfig.OsLookuper())
}

func LoadSecretsFrom(ctx context.Context, lookuper envconfig.Lookuper) (*Secrets, error) {
	var secrets Secrets
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &secrets,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("process env secrets: %w", err)
	}
	return &secrets, nil
}
