package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server" envPrefix:"SERVER_"`
	Database  DatabaseConfig  `yaml:"database" envPrefix:"DB_"`
	Drafts    DraftsConfig    `yaml:"drafts" envPrefix:"DRAFTS_"`
	Auth      AuthConfig      `yaml:"auth" envPrefix:"AUTH_"`
	Tailscale TailscaleConfig `yaml:"tailscale" envPrefix:"TS_"`
	Session   SessionConfig   `yaml:"session" envPrefix:"SESSION_"`
	Log       LogConfig       `yaml:"log" envPrefix:"LOG_"`
}

type ServerConfig struct {
	Host string `yaml:"host" env:"HOST"`
	Port int    `yaml:"port" env:"PORT"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host" env:"HOST"`
	Port     int    `yaml:"port" env:"PORT"`
	Name     string `yaml:"name" env:"NAME"`
	User     string `yaml:"user" env:"USER"`
	Password string `yaml:"password" env:"PASSWORD"`
	SSLMode  string `yaml:"sslmode" env:"SSLMODE"`

	// Migrations is the directory holding the SQL migrations.
	Migrations string `yaml:"migrations" env:"MIGRATIONS"`
}

// DraftsConfig locates the SQLite file holding in-progress sessions.
type DraftsConfig struct {
	Dir string `yaml:"dir" env:"DIR"`
}

type AuthConfig struct {
	APIKey string `yaml:"api_key" env:"API_KEY"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled" env:"ENABLED"`
	Hostname string `yaml:"hostname" env:"HOSTNAME"`
	StateDir string `yaml:"state_dir" env:"STATE_DIR"`
}

// SessionConfig sets the rest between exercises, in seconds.
type SessionConfig struct {
	ShortRestSecs  int `yaml:"short_rest_secs" env:"SHORT_REST_SECS"`
	NormalRestSecs int `yaml:"normal_rest_secs" env:"NORMAL_REST_SECS"`
}

// ShortRest returns the superset rest as a duration.
func (s SessionConfig) ShortRest() time.Duration {
	return time.Duration(s.ShortRestSecs) * time.Second
}

// NormalRest returns the between-exercise rest as a duration.
func (s SessionConfig) NormalRest() time.Duration {
	return time.Duration(s.NormalRestSecs) * time.Second
}

type LogConfig struct {
	Level string `yaml:"level" env:"LEVEL"`
}

// SlogLevel maps the configured level name onto a slog.Level.
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
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
// Env vars use the prefix REPCOACH_ and underscore-separated paths:
//
//	REPCOACH_SERVER_HOST, REPCOACH_SERVER_PORT,
//	REPCOACH_DB_HOST, REPCOACH_DB_PORT, REPCOACH_DB_NAME,
//	REPCOACH_DB_USER, REPCOACH_DB_PASSWORD, REPCOACH_DB_SSLMODE, REPCOACH_DB_MIGRATIONS,
//	REPCOACH_DRAFTS_DIR, REPCOACH_AUTH_API_KEY,
//	REPCOACH_TS_ENABLED, REPCOACH_TS_HOSTNAME, REPCOACH_TS_STATE_DIR,
//	REPCOACH_SESSION_SHORT_REST_SECS, REPCOACH_SESSION_NORMAL_REST_SECS,
//	REPCOACH_LOG_LEVEL
func Load(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: "REPCOACH_"}); err != nil {
		return nil, fmt.Errorf("parsing env overrides: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Database: DatabaseConfig{Migrations: "migrations"},
		Drafts:   DraftsConfig{Dir: "data"},
		Tailscale: TailscaleConfig{
			Hostname: "repcoach",
			StateDir: "tsnet-state",
		},
		Session: SessionConfig{ShortRestSecs: 30, NormalRestSecs: 90},
		Log:     LogConfig{Level: "info"},
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
	if c.Drafts.Dir == "" {
		return fmt.Errorf("drafts.dir is required")
	}
	if c.Session.ShortRestSecs < 0 || c.Session.NormalRestSecs < 0 {
		return fmt.Errorf("session rest seconds must not be negative")
	}
	if c.Session.ShortRestSecs > c.Session.NormalRestSecs {
		return fmt.Errorf("session.short_rest_secs must not exceed session.normal_rest_secs")
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}
	return nil
}
