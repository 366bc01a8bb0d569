package daemon

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.API.Host != "127.0.0.1" {
		t.Errorf("API.Host = %q, want %q", cfg.API.Host, "127.0.0.1")
	}
	if cfg.API.Port != 8090 {
		t.Errorf("API.Port = %d, want %d", cfg.API.Port, 8090)
	}
	if cfg.Redis.Enabled {
		t.Error("Redis enabled by default")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", cfg.Logging.Level)
	}
}

func TestLoadConfig_FileOverrides(t *testing.T) {
	home := t.TempDir()
	t.Setenv("REWARDS_HOME", home)

	content := `
[api]
host = "0.0.0.0"
port = 9000

[redis]
enabled = true
addr = "redis:6379"
`
	if err := os.WriteFile(filepath.Join(home, "config.toml"), []byte(content), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.API.Host != "0.0.0.0" || cfg.API.Port != 9000 {
		t.Errorf("API = %s:%d, want 0.0.0.0:9000", cfg.API.Host, cfg.API.Port)
	}
	if !cfg.Redis.Enabled || cfg.Redis.Addr != "redis:6379" {
		t.Errorf("Redis = %+v, want enabled at redis:6379", cfg.Redis)
	}
	// Unset sections keep their defaults.
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want default info", cfg.Logging.Level)
	}
}

func TestLoadConfig_EnvOverridesRedis(t *testing.T) {
	t.Setenv("REWARDS_HOME", t.TempDir())
	t.Setenv("REDIS_ADDR", "10.0.0.5:6379")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if !cfg.Redis.Enabled || cfg.Redis.Addr != "10.0.0.5:6379" {
		t.Errorf("Redis = %+v, want enabled at 10.0.0.5:6379", cfg.Redis)
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	t.Setenv("REWARDS_HOME", t.TempDir())

	cfg := DefaultConfig()
	cfg.API.Port = 7777
	if err := SaveConfig(cfg); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	got, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if got.API.Port != 7777 {
		t.Errorf("API.Port = %d, want 7777", got.API.Port)
	}
}
