package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Host        string `toml:"host"`
	Port        int    `toml:"port"`
	MetricsHost string `toml:"metrics_host"`
	MetricsPort string `toml:"metrics_port"`
	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`
	SentryEnabled bool   `toml:"sentry_enabled"`
	// engine
	Timezone      string `toml:"timezone"`
	Platform      string `toml:"platform"`
	HealthSource  string `toml:"health_source"`
	FitDir        string `toml:"fit_dir"`
	SyntheticSeed int64  `toml:"synthetic_seed"`
	// postgres
	PostgresHost   string `toml:"postgres_host"`
	PostgresPort   string `toml:"postgres_port"`
	PostgresDBName string `toml:"postgres_db_name"`
	// redis
	RedisHost string `toml:"redis_host"`
	RedisPort string `toml:"redis_port"`
	// http
	ResponseCacheSizeMB     int `toml:"response_cache_size_mb"`
	ResponseCacheTTLSeconds int `toml:"response_cache_ttl_seconds"`
	RateLimitPerMin         int `toml:"rate_limit_per_min"`
}

const (
	HealthSourcePostgres  = "postgres"
	HealthSourceFit       = "fit"
	HealthSourceSynthetic = "synthetic"

	PlatformFromRedis = "redis"
)

// Location returns the zone naive health timestamps are read in.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %s: %w", c.Timezone, err)
	}
	return loc, nil
}

func (c *Config) Validate() error {
	switch c.HealthSource {
	case HealthSourcePostgres, HealthSourceFit, HealthSourceSynthetic:
	default:
		return fmt.Errorf("unknown health source: %q", c.HealthSource)
	}
	if c.HealthSource == HealthSourceFit && c.FitDir == "" {
		return fmt.Errorf("health source %s needs fit_dir", HealthSourceFit)
	}
	if c.Port <= 0 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	switch strings.ToLower(env) {
	case "dev", "development":
		return t.Development, nil
	case "prod", "production":
		return t.Production, nil
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
}

// Load reads the TOML file at path and returns the validated config of env.
func Load(env, path string) (*Config, error) {
	var cfgToml Toml
	if _, err := toml.DecodeFile(path, &cfgToml); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	cfg, err := cfgToml.Get(env)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("no %s section in %s", env, path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s config: %w", env, err)
	}
	return cfg, nil
}
