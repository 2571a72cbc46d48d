// Package server provides configuration helpers that define runtime defaults
// for the relay's HTTP and WebSocket surface.
package server

import (
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/cockroachdb/errors"

	"github.com/Tyrowin/roomrelay/pkg/log"
)

const (
	defaultPort            = ":8080"
	defaultMaxMessageSize  = 4096
	defaultSendBuffer      = 256
	defaultShutdownTimeout = 10 * time.Second
)

// Config holds the server configuration settings.
type Config struct {
	Port           string   `env:"SERVER_PORT"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`
	MaxMessageSize int64    `env:"MAX_MESSAGE_SIZE"`
	// SendBuffer is the number of outbound frames queued per connection
	// before the connection is dropped as too slow.
	SendBuffer int `env:"SEND_BUFFER"`
	// TrustMessageRoom routes chat messages by the room named in the payload
	// instead of the sender's joined room.
	TrustMessageRoom bool          `env:"TRUST_MESSAGE_ROOM"`
	ShutdownTimeout  time.Duration `env:"SHUTDOWN_TIMEOUT"`

	LogLevel  string `env:"LOG_LEVEL"`
	LogFormat string `env:"LOG_FORMAT"`
	LogFile   string `env:"LOG_FILE"`
}

func defaultConfig() Config {
	return Config{
		Port: defaultPort,
		AllowedOrigins: []string{
			"http://localhost:8080",
			"http://localhost:5173",
		},
		MaxMessageSize:  defaultMaxMessageSize,
		SendBuffer:      defaultSendBuffer,
		ShutdownTimeout: defaultShutdownTimeout,
		LogLevel:        "info",
		LogFormat:       "json",
	}
}

// sanitize replaces unset or out-of-range values with defaults.
func (cfg Config) sanitize() Config {
	if cfg.Port == "" {
		cfg.Port = defaultPort
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = defaultMaxMessageSize
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = defaultSendBuffer
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	cfg.AllowedOrigins = parseOrigins(cfg.AllowedOrigins)
	return cfg
}

func parseOrigins(origins []string) []string {
	parts := make([]string, 0, len(origins))
	for _, origin := range origins {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}

// NewConfig creates a Config populated with default values for all settings.
func NewConfig() *Config {
	cfg := defaultConfig()
	return &cfg
}

// NewConfigFromEnv creates a Config from environment variables, falling back
// to defaults for anything unset.
func NewConfigFromEnv() (*Config, error) {
	return newConfigFromEnv(env.Options{})
}

func newConfigFromEnv(opts env.Options) (*Config, error) {
	cfg := defaultConfig()
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, errors.Wrap(err, "parse env")
	}
	cfg = cfg.sanitize()
	return &cfg, nil
}

// LogConfig returns the logger settings carried by cfg.
func (cfg *Config) LogConfig() *log.Config {
	return &log.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Stdout: cfg.LogFile == "",
		File:   log.FileLogConfig{Filename: cfg.LogFile},
	}
}
