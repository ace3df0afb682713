package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/vietddude/pushgate/internal/infra/gateway"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
redis:
  url: redis://localhost:6379/0
token:
  key_file: keys/AuthKey_ABC123.p8
  key_id: ABC123
  team_id: TEAM456
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want default 8080", cfg.Server.Port)
	}
	if cfg.Gateway.Endpoint != gateway.Production {
		t.Errorf("endpoint = %q, want production default", cfg.Gateway.Endpoint)
	}
	if cfg.Relay.Workers != 4 {
		t.Errorf("workers = %d, want default 4", cfg.Relay.Workers)
	}
	if cfg.Relay.MaxAttempts != 3 {
		t.Errorf("max attempts = %d, want default 3", cfg.Relay.MaxAttempts)
	}
	if cfg.Token.KeyID != "ABC123" {
		t.Errorf("key id = %q", cfg.Token.KeyID)
	}
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("PUSHGATE_REDIS_URL", "redis://cache.internal:6379/1")
	path := writeConfig(t, `
redis:
  url: ${PUSHGATE_REDIS_URL}
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Redis.URL != "redis://cache.internal:6379/1" {
		t.Errorf("redis url = %q, env not expanded", cfg.Redis.URL)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestLoadBadYAML(t *testing.T) {
	path := writeConfig(t, "relay: [not: a: map")
	if _, err := Load(path); err == nil {
		t.Fatal("expected a parse error")
	}
}
