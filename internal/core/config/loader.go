package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/vietddude/pushgate/internal/infra/gateway"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Set defaults if necessary
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Gateway.Endpoint == "" {
		cfg.Gateway.Endpoint = gateway.Production
	}
	if cfg.Relay.Workers == 0 {
		cfg.Relay.Workers = 4
	}
	if cfg.Relay.SendTimeout == 0 {
		cfg.Relay.SendTimeout = 20 * time.Second
	}
	if cfg.Relay.MaxAttempts == 0 {
		cfg.Relay.MaxAttempts = 3
	}

	return &cfg, nil
}
