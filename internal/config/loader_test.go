package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFromDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadFrom with no file: %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Server.Port)
	}
	if cfg.Persistence.Driver != "memory" {
		t.Errorf("Driver = %q, want memory", cfg.Persistence.Driver)
	}
	if cfg.Factory.TickInterval != time.Second {
		t.Errorf("TickInterval = %v, want 1s", cfg.Factory.TickInterval)
	}
	if !cfg.Factory.AutoStart {
		t.Error("AutoStart = false, want true")
	}
}

func TestLoadFromYAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "factory.yaml")
	yaml := `
server:
  port: "9090"
factory:
  tick_interval: 250ms
  failure_rate: 0.01
  auto_start: false
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write yaml: %v", err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Errorf("Port = %q, want 9090", cfg.Server.Port)
	}
	if cfg.Factory.TickInterval != 250*time.Millisecond {
		t.Errorf("TickInterval = %v, want 250ms", cfg.Factory.TickInterval)
	}
	if cfg.Factory.FailureRate != 0.01 {
		t.Errorf("FailureRate = %v, want 0.01", cfg.Factory.FailureRate)
	}
	if cfg.Factory.AutoStart {
		t.Error("AutoStart = true, yaml set false")
	}
	// Untouched sections keep their defaults.
	if cfg.Persistence.Driver != "memory" {
		t.Errorf("Driver = %q, want memory", cfg.Persistence.Driver)
	}
}

func TestEnvOverridesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "factory.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: \"9090\"\n"), 0o600); err != nil {
		t.Fatalf("write yaml: %v", err)
	}

	t.Setenv("FACTORY_PORT", "7070")
	t.Setenv("FACTORY_FAILURE_RATE", "0.5")
	t.Setenv("FACTORY_AUTO_START", "false")
	t.Setenv("NATS_URL", "nats://broker:4222")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Server.Port != "7070" {
		t.Errorf("Port = %q, env must win over yaml", cfg.Server.Port)
	}
	if cfg.Factory.FailureRate != 0.5 {
		t.Errorf("FailureRate = %v, want 0.5", cfg.Factory.FailureRate)
	}
	if cfg.Factory.AutoStart {
		t.Error("AutoStart = true, env set false")
	}
	if cfg.NATS.URL != "nats://broker:4222" {
		t.Errorf("NATS.URL = %q", cfg.NATS.URL)
	}
}

func TestValidation(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent.yaml")

	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad driver", "FACTORY_PERSISTENCE_DRIVER", "redis"},
		{"failure rate at 1", "FACTORY_FAILURE_RATE", "1"},
		{"negative failure rate", "FACTORY_FAILURE_RATE", "-0.1"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			if _, err := LoadFrom(missing); err == nil {
				t.Errorf("LoadFrom accepted %s=%s", tc.key, tc.value)
			}
		})
	}
}

func TestPostgresDriverRequiresDSN(t *testing.T) {
	path := filepath.Join(t.TempDir(), "factory.yaml")
	yaml := `
persistence:
  driver: postgres
postgres:
  dsn: ""
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	t.Setenv("DATABASE_URL", "")
	if _, err := LoadFrom(path); err == nil {
		t.Error("LoadFrom accepted postgres driver with empty dsn")
	}
}
