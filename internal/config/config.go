package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/claude/trainload/internal/analytics"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Local     LocalConfig     `yaml:"local"`
	Cache     CacheConfig     `yaml:"cache"`
	Analytics AnalyticsConfig `yaml:"analytics"`
	Logging   LoggingConfig   `yaml:"logging"`
	Tracing   TracingConfig   `yaml:"tracing"`
	Warmer    WarmerConfig    `yaml:"warmer"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// DevUser is the identity reported when not running behind Tailscale.
	DevUser string `yaml:"dev_user"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

// LocalConfig points at the on-device session store.
type LocalConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

type CacheConfig struct {
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	TTL           time.Duration `yaml:"ttl"`
	// MemoryBytes sizes the in-process cache. Zero disables it.
	MemoryBytes int `yaml:"memory_bytes"`
	// RateLimitPerMinute caps analytics requests per user. Needs Redis.
	RateLimitPerMinute int `yaml:"rate_limit_per_minute"`
}

type AnalyticsConfig struct {
	MinSessions   int     `yaml:"min_sessions"`
	HistoryWindow int     `yaml:"history_window"`
	TauFitness    float64 `yaml:"tau_fitness"`
	TauFatigue    float64 `yaml:"tau_fatigue"`
	KFitness      float64 `yaml:"k_fitness"`
	KFatigue      float64 `yaml:"k_fatigue"`
	PriorStrength float64 `yaml:"prior_strength"`
	SFRLimit      int     `yaml:"sfr_limit"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
	// Stdout keeps console output when File is set.
	Stdout bool `yaml:"stdout"`
}

type TracingConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
}

type WarmerConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Schedule string   `yaml:"schedule"`
	Users    []string `yaml:"users"`
}

// Params overlays the configured tunables on the engine defaults.
func (a AnalyticsConfig) Params() analytics.Params {
	p := analytics.DefaultParams()
	if a.MinSessions > 0 {
		p.MinSessions = a.MinSessions
		p.Fitness.MinSessions = a.MinSessions
		p.Hierarchical.MinSessions = a.MinSessions
	}
	if a.HistoryWindow > 0 {
		p.Fitness.Window = a.HistoryWindow
	}
	if a.TauFitness > 0 {
		p.Fitness.TauFitness = a.TauFitness
	}
	if a.TauFatigue > 0 {
		p.Fitness.TauFatigue = a.TauFatigue
	}
	if a.KFitness > 0 {
		p.Fitness.KFitness = a.KFitness
	}
	if a.KFatigue > 0 {
		p.Fitness.KFatigue = a.KFatigue
	}
	if a.PriorStrength > 0 {
		p.Hierarchical.PriorStrength = a.PriorStrength
	}
	if a.SFRLimit > 0 {
		p.SFR.Limit = a.SFRLimit
	}
	return p
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// Load reads config from a YAML file, then applies environment variable overrides.
// Env vars use the prefix TRAINLOAD_ and underscore-separated paths:
//
//	TRAINLOAD_SERVER_HOST, TRAINLOAD_SERVER_PORT,
//	TRAINLOAD_DB_HOST, TRAINLOAD_DB_PORT, TRAINLOAD_DB_NAME,
//	TRAINLOAD_DB_USER, TRAINLOAD_DB_PASSWORD, TRAINLOAD_DB_SSLMODE,
//	TRAINLOAD_AUTH_API_KEY, TRAINLOAD_REDIS_ADDR, TRAINLOAD_REDIS_PASSWORD,
//	TRAINLOAD_LOG_LEVEL, TRAINLOAD_TRACING_ENABLED, TRAINLOAD_WARMER_USERS
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TRAINLOAD_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("TRAINLOAD_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("TRAINLOAD_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("TRAINLOAD_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("TRAINLOAD_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("TRAINLOAD_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("TRAINLOAD_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("TRAINLOAD_DB_SSLMODE"); v != "" {
		cfg.Database.SSLMode = v
	}
	if v := os.Getenv("TRAINLOAD_AUTH_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}
	if v := os.Getenv("TRAINLOAD_REDIS_ADDR"); v != "" {
		cfg.Cache.RedisAddr = v
	}
	if v := os.Getenv("TRAINLOAD_REDIS_PASSWORD"); v != "" {
		cfg.Cache.RedisPassword = v
	}
	if v := os.Getenv("TRAINLOAD_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("TRAINLOAD_TRACING_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			cfg.Tracing.Enabled = enabled
		}
	}
	if v := os.Getenv("TRAINLOAD_WARMER_USERS"); v != "" {
		cfg.Warmer.Users = nil
		for _, u := range strings.Split(v, ",") {
			if u = strings.TrimSpace(u); u != "" {
				cfg.Warmer.Users = append(cfg.Warmer.Users, u)
			}
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.DevUser == "" {
		cfg.Server.DevUser = "local"
	}
	if cfg.Tailscale.Hostname == "" {
		cfg.Tailscale.Hostname = "trainload"
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = 24 * time.Hour
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.Tracing.ServiceName == "" {
		cfg.Tracing.ServiceName = "trainload"
	}
	if cfg.Warmer.Schedule == "" {
		cfg.Warmer.Schedule = "@every 6h"
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 && !c.Tailscale.Enabled {
		return fmt.Errorf("server.port is required")
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if c.Database.Port == 0 {
		return fmt.Errorf("database.port is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database.name is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database.user is required")
	}
	if c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key is required")
	}
	if c.Local.Enabled && c.Local.Dir == "" {
		return fmt.Errorf("local.dir is required when local.enabled is set")
	}
	if c.Tailscale.Enabled && c.Tailscale.StateDir == "" {
		return fmt.Errorf("tailscale.state_dir is required when tailscale.enabled is set")
	}
	if c.Cache.RateLimitPerMinute > 0 && c.Cache.RedisAddr == "" {
		return fmt.Errorf("cache.redis_addr is required for rate limiting")
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	if c.Warmer.Enabled && len(c.Warmer.Users) == 0 {
		return fmt.Errorf("warmer.users is required when warmer.enabled is set")
	}
	if c.Analytics.MinSessions < 0 || c.Analytics.HistoryWindow < 0 || c.Analytics.SFRLimit < 0 {
		return fmt.Errorf("analytics values must not be negative")
	}
	return nil
}
