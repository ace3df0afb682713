package config

import (
	"time"

	"github.com/vietddude/pushgate/internal/infra/gateway"
	"github.com/vietddude/pushgate/internal/infra/queue"
	"github.com/vietddude/pushgate/internal/infra/storage/postgres"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server   ServerConfig    `yaml:"server"`
	Gateway  gateway.Config  `yaml:"gateway"`
	Token    TokenConfig     `yaml:"token"`
	Relay    RelayConfig     `yaml:"relay"`
	Redis    queue.Config    `yaml:"redis"`
	Database postgres.Config `yaml:"database"`
	Logging  LoggingConfig   `yaml:"logging"`
}

// ServerConfig holds the health/metrics HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// TokenConfig holds provider-token authentication settings. Leave empty
// when the gateway config carries a client certificate instead.
type TokenConfig struct {
	KeyFile string `yaml:"key_file"`
	KeyID   string `yaml:"key_id"`
	TeamID  string `yaml:"team_id"`
}

// RelayConfig holds delivery worker settings.
type RelayConfig struct {
	Workers int `yaml:"workers"`

	// SendTimeout is the per-send time budget. When it elapses the send
	// is reported as a timeout failure.
	SendTimeout time.Duration `yaml:"send_timeout"`

	// MaxAttempts bounds retries of transient failures per job.
	MaxAttempts int `yaml:"max_attempts"`

	// DefaultTopic is applied to jobs that carry no topic of their own.
	DefaultTopic string `yaml:"default_topic"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}
