package config

import (
	"os"

	"github.com/BurntSushi/toml"
)

const (
	DefaultConfigPath       = "config.toml"
	DefaultHTTPAddr         = ":8080"
	DefaultJWTExpiresIn     = "24h"
	DefaultPGHost           = "127.0.0.1"
	DefaultPGPort           = 5432
	DefaultPGUser           = "postgres"
	DefaultPGDatabase       = "hookchat"
	DefaultPGSSLMode        = "disable"
	DefaultUserAgent        = "hookchat-relay"
	DefaultQueueMaxAttempts = 5
	DefaultQueueTickMs      = 1000
)

type Config struct {
	Log      LogConfig      `toml:"log"`
	Server   ServerConfig   `toml:"server"`
	Admin    AdminConfig    `toml:"admin"`
	Auth     AuthConfig     `toml:"auth"`
	Postgres PostgresConfig `toml:"postgres"`
	Webhook  WebhookConfig  `toml:"webhook"`
	Queue    QueueConfig    `toml:"queue"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
	// PublicURL is the externally visible base URL of this service. Targets
	// whose host matches it are treated as local and called directly.
	PublicURL string `toml:"public_url"`
}

type AdminConfig struct {
	Username string `toml:"username"`
	Password string `toml:"password"`
}

type AuthConfig struct {
	JWTSecret    string `toml:"jwt_secret"`
	JWTExpiresIn string `toml:"jwt_expires_in"`
}

type PostgresConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database"`
	SSLMode  string `toml:"sslmode"`
}

// WebhookConfig carries the environment-level dispatch defaults. URL and
// Secret apply only when a request supplies no target of its own.
type WebhookConfig struct {
	URL    string `toml:"url"`
	Secret string `toml:"secret"`
	// TimeoutMs is kept as a string because it commonly arrives from an
	// environment variable; values outside [1000,120000] fall back to the
	// built-in default.
	TimeoutMs      string   `toml:"timeout_ms"`
	AllowedDomains []string `toml:"allowed_domains"`
	// SkipExternalHealthCheck degrades health probes against external
	// targets to a URL format check.
	SkipExternalHealthCheck bool   `toml:"skip_external_health_check"`
	UserAgent               string `toml:"user_agent"`
	// ProxyURL, when set, is the same-origin endpoint external targets are
	// routed through instead of being called directly.
	ProxyURL string `toml:"proxy_url"`
}

type QueueConfig struct {
	MaxAttempts int `toml:"max_attempts"`
	TickMs      int `toml:"tick_ms"`
}

func Load(path string) (Config, error) {
	cfg := Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr: DefaultHTTPAddr,
		},
		Admin: AdminConfig{
			Username: "admin",
			Password: "change-your-password-here",
		},
		Auth: AuthConfig{
			JWTExpiresIn: DefaultJWTExpiresIn,
		},
		Postgres: PostgresConfig{
			Host:     DefaultPGHost,
			Port:     DefaultPGPort,
			User:     DefaultPGUser,
			Database: DefaultPGDatabase,
			SSLMode:  DefaultPGSSLMode,
		},
		Webhook: WebhookConfig{
			UserAgent: DefaultUserAgent,
		},
		Queue: QueueConfig{
			MaxAttempts: DefaultQueueMaxAttempts,
			TickMs:      DefaultQueueTickMs,
		},
	}

	if path == "" {
		path = DefaultConfigPath
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}
