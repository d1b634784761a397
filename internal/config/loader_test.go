package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFrom_DefaultsWhenFileMissing(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing file must not be an error: %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Fatalf("expected default port, got %q", cfg.Server.Port)
	}
	if cfg.Engine.Command != "claude" {
		t.Fatalf("expected default agent command, got %q", cfg.Engine.Command)
	}
	if cfg.Engine.EventBuffer != 64 {
		t.Fatalf("expected default event buffer, got %d", cfg.Engine.EventBuffer)
	}
}

func TestLoadFrom_YAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agentdeck.yaml")
	yaml := `
server:
  port: "9090"
engine:
  command: my-agent
  event_buffer: 128
  kill_timeout: 10s
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Fatalf("expected yaml port, got %q", cfg.Server.Port)
	}
	if cfg.Engine.Command != "my-agent" || cfg.Engine.EventBuffer != 128 {
		t.Fatalf("yaml engine values not applied: %+v", cfg.Engine)
	}
	if cfg.Engine.KillTimeout != 10*time.Second {
		t.Fatalf("expected 10s kill timeout, got %v", cfg.Engine.KillTimeout)
	}
	// Untouched sections keep their defaults.
	if cfg.NATS.URL != "nats://localhost:4222" {
		t.Fatalf("expected default NATS URL, got %q", cfg.NATS.URL)
	}
}

func TestLoadFrom_EnvOverridesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agentdeck.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: \"9090\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("AGENTDECK_PORT", "7070")
	t.Setenv("AGENTDECK_EVENT_BUFFER", "32")
	t.Setenv("AGENTDECK_KILL_TIMEOUT", "3s")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "7070" {
		t.Fatalf("env must win over yaml, got %q", cfg.Server.Port)
	}
	if cfg.Engine.EventBuffer != 32 || cfg.Engine.KillTimeout != 3*time.Second {
		t.Fatalf("env engine values not applied: %+v", cfg.Engine)
	}
}

func TestLoadFrom_ValidationRejectsBadValues(t *testing.T) {
	t.Setenv("AGENTDECK_EVENT_BUFFER", "0")
	if _, err := LoadFrom(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected validation error for zero event buffer")
	}
}

func TestLoadFrom_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agentdeck.yaml")
	if err := os.WriteFile(path, []byte("server: ["), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Fatal("expected error for malformed yaml")
	}
}
